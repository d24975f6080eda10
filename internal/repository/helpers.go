package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pclub/portal/api/internal/database"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// ensureRecordID qualifies a bare key with table ("abc" -> "event:abc").
// It returns false when id names a different table.
func ensureRecordID(table, id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	if i := strings.Index(id, ":"); i >= 0 {
		if id[:i] != table || i == len(id)-1 {
			return "", false
		}
		return id, true
	}
	return table + ":" + id, true
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
		return ""
	case map[string]interface{}:
		// {"tb": "user", "id": "abc"} or {"Table": ..., "ID": ...}
		tb, _ := firstOf(v, "tb", "TB", "Table").(string)
		idPart := extractIDValue(firstOf(v, "id", "ID"))
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		return idPart
	}
	return fmt.Sprintf("%v", id)
}

func firstOf(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		if s, ok := v["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// normalize rewrites driver-specific values (record ids, datetimes) into
// JSON-friendly strings so records can be decoded through encoding/json.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time.Format(time.RFC3339Nano)
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time.Format(time.RFC3339Nano)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case map[string]interface{}:
		if _, ok := t["tb"]; ok && len(t) == 2 {
			return convertSurrealID(t)
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

// decodeRecord converts one raw record into T. aliases renames storage
// fields to their json names (e.g. "event" -> "event_id").
func decodeRecord[T any](raw interface{}, aliases map[string]string) (*T, error) {
	if raw == nil {
		return nil, database.ErrNotFound
	}
	data, ok := normalize(raw).(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	for from, to := range aliases {
		if v, ok := data[from]; ok {
			data[to] = v
			delete(data, from)
		}
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeRecords decodes every record of the first statement's result
func decodeRecords[T any](results []interface{}, aliases map[string]string) ([]*T, error) {
	rows, _ := extractQueryResults(results)
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		item, err := decodeRecord[T](row, aliases)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// queryOne runs query and decodes its first record; (nil, nil) when absent
func queryOne[T any](ctx context.Context, db database.Database, query string, vars map[string]interface{}, aliases map[string]string) (*T, error) {
	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[T](result, aliases)
}

// queryAll runs query and decodes every record of the first statement
func queryAll[T any](ctx context.Context, db database.Database, query string, vars map[string]interface{}, aliases map[string]string) ([]*T, error) {
	result, err := db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[T](result, aliases)
}

// extractQueryResults extracts the first statement's rows from a response
func extractQueryResults(result []interface{}) ([]interface{}, bool) {
	if len(result) == 0 {
		return nil, false
	}
	if first, ok := result[0].(map[string]interface{}); ok {
		if rows, ok := first["result"].([]interface{}); ok {
			return rows, true
		}
		if _, ok := first["status"]; ok {
			return nil, true
		}
	}
	return result, true
}

// extractCount reads {count: n} from a `SELECT count() ... GROUP ALL` statement
func extractCount(stmt interface{}) int {
	resp, ok := stmt.(map[string]interface{})
	if !ok {
		return 0
	}
	rows, ok := resp["result"].([]interface{})
	if !ok || len(rows) == 0 {
		return 0
	}
	if data, ok := rows[0].(map[string]interface{}); ok {
		return extractCountValue(data["count"])
	}
	return 0
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case uint32:
		return int(c)
	}
	return 0
}

// extractStrings reads a `SELECT VALUE` statement returning strings
func extractStrings(results []interface{}) []string {
	rows, _ := extractQueryResults(results)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if s, ok := normalize(row).(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// count runs a count query over table with an optional WHERE clause
func count(ctx context.Context, db database.Database, table, where string, vars map[string]interface{}) (int, error) {
	query := "SELECT count() FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	query += " GROUP ALL"

	result, err := db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return extractCount(result[0]), nil
}

// statement is one query of an atomic batch
type statement struct {
	query string
	vars  map[string]interface{}
}

func runBatch(ctx context.Context, db database.Database, stmts ...statement) error {
	batch := database.NewAtomicBatch()
	for _, s := range stmts {
		batch.Add(s.query, s.vars)
	}
	return batch.Execute(ctx, db)
}

// isUniqueConstraintError checks if an error is a unique index violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, database.ErrDuplicate) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already contains") ||
		strings.Contains(errStr, "already exists")
}

// optional returns nil for empty strings so SurrealDB stores NONE
func optional(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// deleteRecord removes table:id, reporting database.ErrNotFound when the
// record does not exist.
func deleteRecord(ctx context.Context, db database.Database, table, id string) error {
	recordID, ok := ensureRecordID(table, id)
	if !ok {
		return database.ErrNotFound
	}
	_, err := db.QueryOne(ctx, `DELETE type::record($id) RETURN BEFORE`, map[string]interface{}{"id": recordID})
	return err
}

// datetime wraps t so the driver encodes it as a SurrealDB datetime
func datetime(t time.Time) models.CustomDateTime {
	return models.CustomDateTime{Time: t.UTC()}
}

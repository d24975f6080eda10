package database

// Batch transactions
//
//	batch := NewAtomicBatch().
//	    Add("CREATE registration CONTENT $reg", vars1).
//	    Add("UPDATE $user SET registered_events += $event", vars2)
//	err := batch.Execute(ctx, db)
//
// Variables are namespaced per statement ($reg -> $v1_reg) so statements
// written independently by different repositories can share a batch.

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TxBuilder builds a BEGIN/COMMIT block with per-statement variable names
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		statements: make([]string, 0),
		vars:       make(map[string]interface{}),
	}
}

// Add appends a statement, renaming its variables. Returns old -> new names.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	mapping := make(map[string]string, len(vars))

	// Longest names first so $event is not rewritten inside $event_id.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	newQuery := query
	for _, name := range names {
		tb.varCounter++
		renamed := fmt.Sprintf("v%d_%s", tb.varCounter, name)
		re := regexp.MustCompile(`\$` + regexp.QuoteMeta(name) + `\b`)
		newQuery = re.ReplaceAllLiteralString(newQuery, "$"+renamed)
		tb.vars[renamed] = vars[name]
		mapping[name] = renamed
	}

	tb.statements = append(tb.statements, newQuery)
	return mapping
}

// AddRaw adds a statement without variable substitution
func (tb *TxBuilder) AddRaw(query string) {
	tb.statements = append(tb.statements, query)
}

// Len returns the number of statements
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}
	return db.Query(ctx, query, vars)
}

// AtomicBatch is a fluent wrapper over TxBuilder
type AtomicBatch struct {
	queries []batchQuery
}

type batchQuery struct {
	query string
	vars  map[string]interface{}
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{
		queries: make([]batchQuery, 0),
	}
}

// Add adds a query to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.queries = append(ab.queries, batchQuery{query: query, vars: vars})
	return ab
}

// Execute runs all queries as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(ab.queries) == 0 {
		return nil
	}

	tb := NewTxBuilder()
	for _, q := range ab.queries {
		tb.Add(q.query, q.vars)
	}

	_, err := ExecuteTransaction(ctx, db, tb)
	return err
}

// Len returns the number of queries in the batch
func (ab *AtomicBatch) Len() int {
	return len(ab.queries)
}

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} map per statement.
// A failed statement aborts with ErrQuery, or ErrDuplicate for unique index
// violations.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classifyError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// QueryOne executes a query and returns the first record of the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// BeginTx starts a batch transaction. Statements run on Commit.
func (s *SurrealDB) BeginTx(ctx context.Context) (Transaction, error) {
	if s.db == nil {
		return nil, ErrConnection
	}
	return &SurrealTransaction{
		db:      s,
		ctx:     ctx,
		builder: NewTxBuilder(),
	}, nil
}

// SurrealTransaction implements Transaction on top of TxBuilder
type SurrealTransaction struct {
	db        Database
	ctx       context.Context
	builder   *TxBuilder
	committed bool
}

func (t *SurrealTransaction) Execute(_ context.Context, query string, vars map[string]interface{}) error {
	if t.committed {
		return fmt.Errorf("%w: transaction already committed", ErrQuery)
	}
	t.builder.Add(query, vars)
	return nil
}

func (t *SurrealTransaction) Commit() error {
	if t.committed {
		return nil
	}
	if _, err := ExecuteTransaction(t.ctx, t.db, t.builder); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	t.committed = true
	return nil
}

func (t *SurrealTransaction) Rollback() error {
	t.builder = NewTxBuilder()
	return nil
}

// FirstRecord unwraps the first statement's result and returns its first
// record. Scalar results are returned as-is.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	first := results[0]
	resp, ok := first.(map[string]interface{})
	if !ok {
		return first, nil
	}
	if status, _ := resp["status"].(string); status != "OK" {
		return first, nil
	}
	if rows, ok := resp["result"].([]interface{}); ok {
		if len(rows) == 0 {
			return nil, ErrNotFound
		}
		return rows[0], nil
	}
	if resp["result"] == nil {
		return nil, ErrNotFound
	}
	return resp["result"], nil
}

// classifyError maps a SurrealDB error message onto the package sentinels
func classifyError(msg string) error {
	if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") {
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}

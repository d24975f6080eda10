// Package testdb provides isolated SurrealDB databases for repository tests.
//
// Each TestDB gets its own namespace with the embedded schema applied.
// Tests are skipped unless TEST_DB_HOST points at a running SurrealDB:
//
//	func TestEventRepository_Create(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewEventRepository(tdb.DB)
//	    ...
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pclub/portal/api/internal/database"
	"github.com/pclub/portal/api/migrations"
)

// TestDB is a database scoped to one test namespace
type TestDB struct {
	DB        database.Database
	Namespace string
	t         *testing.T
}

var counter atomic.Int64

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// New connects to a fresh namespace, applies migrations and registers
// cleanup on t. It skips the test when TEST_DB_HOST is unset.
func New(t *testing.T) *TestDB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("testdb: TEST_DB_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	namespace := fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter.Add(1))
	db := database.NewSurrealDB(database.Config{
		Host:      host,
		Port:      getenv("TEST_DB_PORT", "8000"),
		User:      getenv("TEST_DB_USER", "root"),
		Password:  getenv("TEST_DB_PASSWORD", "root"),
		Namespace: namespace,
		Database:  "test",
	})
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		t.Fatalf("testdb: %v", err)
	}

	tdb := &TestDB{DB: db, Namespace: namespace, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

// Close removes the namespace and closes the connection
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
	tdb.DB = nil
}

// Ctx returns a context with a timeout suitable for a single test step
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and fails the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}

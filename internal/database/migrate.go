package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migrate applies every *.surql file in fsys in lexical order.
// Schema files use IF NOT EXISTS, so re-running is safe.
func Migrate(ctx context.Context, db Database, fsys fs.FS) error {
	files, err := MigrationFiles(fsys)
	if err != nil {
		return err
	}

	for _, name := range files {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := db.Execute(ctx, string(content), nil); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// MigrationFiles lists the schema files in apply order, skipping seed data
func MigrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.Glob(fsys, "*.surql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	files := entries[:0]
	for _, name := range entries {
		if strings.HasPrefix(name, "seed") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

type seedSkill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Migrate applies migrations and optional seed files.
// It creates a `schema_migrations` table to track applied migrations and applies
// any SQL file under `migrations/` that has not yet been recorded, each inside
// its own transaction. The skill catalog seed is applied idempotently.
func Migrate(ctx context.Context, d *DB, migrationFS fs.FS, seedFS fs.FS) error {
	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	migDir := "migrations"

	entries, err := fs.ReadDir(migrationFS, migDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	for _, fname := range files {
		version := strings.TrimSuffix(fname, path.Ext(fname))

		var count int
		if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration applied count: %w", err)
		}
		if count > 0 {
			continue
		}

		b, err := fs.ReadFile(migrationFS, path.Join(migDir, fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}

		err = d.WithTx(ctx, func(ctx context.Context) error {
			if _, err := d.Exec(ctx, string(b)); err != nil {
				return fmt.Errorf("exec migration %s: %w", fname, err)
			}
			if _, err := d.Exec(ctx, `INSERT INTO schema_migrations (version, applied) VALUES (?, strftime('%s','now'))`, version); err != nil {
				return fmt.Errorf("record migration %s: %w", fname, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.logger.Info("migration applied", "version", version)
	}

	if seedFS == nil {
		return nil
	}

	b, err := fs.ReadFile(seedFS, path.Join("seed", "skills.json"))
	if err != nil {
		// seed is optional
		return nil
	}

	var skills []seedSkill
	if err := json.Unmarshal(b, &skills); err != nil {
		return fmt.Errorf("parse skills seed: %w", err)
	}

	return d.WithTx(ctx, func(ctx context.Context) error {
		for _, s := range skills {
			if strings.TrimSpace(s.Name) == "" {
				continue
			}
			if _, err := d.Exec(ctx, `INSERT OR IGNORE INTO skills (name, category, created) VALUES (?, ?, strftime('%s','now') * 1000)`, s.Name, s.Category); err != nil {
				return fmt.Errorf("seed skill %q: %w", s.Name, err)
			}
		}
		return nil
	})
}

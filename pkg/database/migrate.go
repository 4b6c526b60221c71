package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const upSuffix = ".up.sql"

// Migrate applies every *.up.sql file in migrations that is not yet recorded
// in schema_migrations, in lexical order, each inside its own transaction.
// It returns the versions it applied.
func Migrate(ctx context.Context, db *sqlx.DB, migrations fs.FS, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	const ensure = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := db.ExecContext(ctx, ensure); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	var done []string
	if err := db.SelectContext(ctx, &done, `SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	applied := make(map[string]struct{}, len(done))
	for _, v := range done {
		applied[v] = struct{}{}
	}

	files, err := fs.Glob(migrations, "*"+upSuffix)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	var ran []string
	for _, name := range files {
		version := strings.TrimSuffix(name, upSuffix)
		if _, ok := applied[version]; ok {
			continue
		}
		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", name, err)
		}
		err = WithTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return ran, fmt.Errorf("apply migration %s: %w", version, err)
		}
		logger.Info("migration applied", zap.String("version", version))
		ran = append(ran, version)
	}
	return ran, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithTx runs fn inside a read-committed transaction. The transaction is
// rolled back when fn returns an error and committed otherwise.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit tx: %w", err)
	}

	return nil
}

// TxRunner executes callbacks inside database transactions.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner wraps db.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// WithinTx runs fn inside a transaction on the wrapped database.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithTx(ctx, r.db, fn)
}

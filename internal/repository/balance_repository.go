package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

// BalanceRepository persists balance accounts and their ledger entries.
type BalanceRepository struct {
	db *sqlx.DB
}

// NewBalanceRepository constructs the repository.
func NewBalanceRepository(db *sqlx.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get returns the balance account of an employee.
func (r *BalanceRepository) Get(ctx context.Context, employeeID string) (*models.BalanceAccount, error) {
	const query = `SELECT employee_id, balance, updated_at FROM balance_accounts WHERE employee_id = $1`
	var account models.BalanceAccount
	if err := r.db.GetContext(ctx, &account, query, employeeID); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetForUpdate loads the account and locks it until the transaction ends.
// Every balance read that feeds a write goes through this lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, employeeID string) (*models.BalanceAccount, error) {
	const query = `SELECT employee_id, balance, updated_at FROM balance_accounts WHERE employee_id = $1 FOR UPDATE`
	var account models.BalanceAccount
	if err := tx.GetContext(ctx, &account, query, employeeID); err != nil {
		return nil, err
	}
	return &account, nil
}

// ApplyDelta adds entry.Delta to the balance and records the ledger entry.
// It fills entry.BalanceAfter and returns the new balance.
func (r *BalanceRepository) ApplyDelta(ctx context.Context, tx *sqlx.Tx, entry *models.BalanceEntry) (decimal.Decimal, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const update = `UPDATE balance_accounts SET balance = balance + $1, updated_at = $2
	WHERE employee_id = $3 RETURNING balance`
	var balance decimal.Decimal
	if err := tx.GetContext(ctx, &balance, update, entry.Delta, entry.CreatedAt, entry.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("apply balance delta: %w", err)
	}
	entry.BalanceAfter = balance
	if err := r.InsertEntry(ctx, tx, entry); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Upsert creates or overwrites the balance of an employee.
func (r *BalanceRepository) Upsert(ctx context.Context, tx *sqlx.Tx, account *models.BalanceAccount) error {
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO balance_accounts (employee_id, balance, updated_at)
	VALUES (:employee_id, :balance, :updated_at)
	ON CONFLICT (employee_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("upsert balance account: %w", err)
	}
	return nil
}

// InsertEntry appends a ledger entry.
func (r *BalanceRepository) InsertEntry(ctx context.Context, tx *sqlx.Tx, entry *models.BalanceEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO balance_entries
	(id, employee_id, bill_id, delta, balance_after, reason, actor_id, created_at)
	VALUES (:id, :employee_id, :bill_id, :delta, :balance_after, :reason, :actor_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert balance entry: %w", err)
	}
	return nil
}

// ListEntries returns ledger entries for an employee, newest first.
func (r *BalanceRepository) ListEntries(ctx context.Context, employeeID string, page, size int) ([]models.BalanceEntry, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM balance_entries WHERE employee_id = $1`, employeeID); err != nil {
		return nil, 0, fmt.Errorf("count balance entries: %w", err)
	}
	page, size = normalisePage(page, size)
	query := fmt.Sprintf(`SELECT id, employee_id, bill_id, delta, balance_after, reason, actor_id, created_at
	FROM balance_entries WHERE employee_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, size, (page-1)*size)
	var entries []models.BalanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, employeeID); err != nil {
		return nil, 0, fmt.Errorf("list balance entries: %w", err)
	}
	return entries, total, nil
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/internal/models"
)

func TestBalanceRepositoryApplyDelta(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBalanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT employee_id, balance, updated_at FROM balance_accounts WHERE employee_id = $1 FOR UPDATE")).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "balance", "updated_at"}).AddRow("emp-1", "50000", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE balance_accounts SET balance = balance + $1")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("48000"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO balance_entries")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	account, err := repo.GetForUpdate(context.Background(), tx, "emp-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(50000)))

	billID := "bill-1"
	entry := &models.BalanceEntry{EmployeeID: "emp-1", BillID: &billID, Delta: decimal.NewFromInt(-2000), Reason: models.BalanceReasonBillEdit, ActorID: "emp-1"}
	balance, err := repo.ApplyDelta(context.Background(), tx, entry)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(48000)))
	assert.True(t, entry.BalanceAfter.Equal(balance))
	assert.NotEmpty(t, entry.ID)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepositoryApplyDeltaMissingAccount(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBalanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE balance_accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = repo.ApplyDelta(context.Background(), tx, &models.BalanceEntry{EmployeeID: "ghost", Delta: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepositoryUpsertAndEntries(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBalanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (employee_id) DO UPDATE")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), tx, &models.BalanceAccount{EmployeeID: "emp-1", Balance: decimal.NewFromInt(50000)}))
	require.NoError(t, tx.Commit())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM balance_entries")).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "bill_id", "delta", "balance_after", "reason", "actor_id", "created_at"}).
			AddRow("entry-1", "emp-1", nil, "50000", "50000", "PROVISION", "admin-1", time.Now()))

	entries, total, err := repo.ListEntries(context.Background(), "emp-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].BillID)
	assert.Equal(t, models.BalanceReasonProvision, entries[0].Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

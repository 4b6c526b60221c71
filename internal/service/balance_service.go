package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type balanceStore interface {
	Get(ctx context.Context, employeeID string) (*models.BalanceAccount, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, employeeID string) (*models.BalanceAccount, error)
	ApplyDelta(ctx context.Context, tx *sqlx.Tx, entry *models.BalanceEntry) (decimal.Decimal, error)
	Upsert(ctx context.Context, tx *sqlx.Tx, account *models.BalanceAccount) error
	InsertEntry(ctx context.Context, tx *sqlx.Tx, entry *models.BalanceEntry) error
	ListEntries(ctx context.Context, employeeID string, page, size int) ([]models.BalanceEntry, int, error)
}

type inFlightSummer interface {
	SumInFlight(ctx context.Context, tx *sqlx.Tx, employeeID, excludeID string) (decimal.Decimal, error)
}

type employeeLookup interface {
	GetByID(ctx context.Context, id string) (*models.Employee, error)
}

// BalanceAdjustment describes one ledger write.
type BalanceAdjustment struct {
	EmployeeID string
	Delta      decimal.Decimal
	BillID     string
	ActorID    string
	Reason     models.BalanceReason
}

// BalanceService owns the per-employee spending balance. Every read that feeds
// a write happens under the account row lock.
type BalanceService struct {
	store     balanceStore
	bills     inFlightSummer
	employees employeeLookup
	tx        txRunner
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewBalanceService constructs the ledger service.
func NewBalanceService(store balanceStore, bills inFlightSummer, employees employeeLookup, tx txRunner, metrics *MetricsService, logger *zap.Logger) *BalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{
		store:     store,
		bills:     bills,
		employees: employees,
		tx:        tx,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetBalance returns the current balance of an employee.
func (s *BalanceService) GetBalance(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	account, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return decimal.Zero, mapBalanceError(err, "failed to load balance")
	}
	return account.Balance, nil
}

// Summary returns the balance together with the value held by in-flight bills.
// The account row is locked so both figures come from the same committed state.
func (s *BalanceService) Summary(ctx context.Context, employeeID string) (*models.BalanceSummary, error) {
	var summary *models.BalanceSummary
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.store.GetForUpdate(ctx, tx, employeeID)
		if err != nil {
			return mapBalanceError(err, "failed to load balance")
		}
		holds, err := s.bills.SumInFlight(ctx, tx, employeeID, "")
		if err != nil {
			return appErrors.Storage(err, "failed to sum in-flight bills")
		}
		summary = &models.BalanceSummary{
			EmployeeID: employeeID,
			Balance:    account.Balance,
			Holds:      holds,
			Available:  account.Balance.Sub(holds),
			UpdatedAt:  account.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to load balance")
	}
	return summary, nil
}

// CheckSufficient reports whether the balance covers amount. It fails closed
// with NotFound when the employee has no account.
func (s *BalanceService) CheckSufficient(ctx context.Context, employeeID string, amount decimal.Decimal) (bool, error) {
	balance, err := s.GetBalance(ctx, employeeID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount), nil
}

// ReserveTx locks the employee's account and verifies that amount fits in the
// balance left after the employee's other in-flight bills. Nothing is written.
func (s *BalanceService) ReserveTx(ctx context.Context, tx *sqlx.Tx, employeeID, excludeBillID string, amount decimal.Decimal) error {
	account, err := s.store.GetForUpdate(ctx, tx, employeeID)
	if err != nil {
		return mapBalanceError(err, "failed to lock balance")
	}
	holds, err := s.bills.SumInFlight(ctx, tx, employeeID, excludeBillID)
	if err != nil {
		return appErrors.Storage(err, "failed to sum in-flight bills")
	}
	available := account.Balance.Sub(holds)
	if available.LessThan(amount) {
		s.logger.Info("insufficient balance",
			zap.String("employee_id", employeeID),
			zap.String("requested", amount.String()),
			zap.String("available", available.String()))
		return appErrors.ErrInsufficientBalance
	}
	return nil
}

// ApplyDeltaTx adds the adjustment to the balance inside tx and records the
// ledger entry.
func (s *BalanceService) ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, adj BalanceAdjustment) (decimal.Decimal, error) {
	entry := &models.BalanceEntry{
		EmployeeID: adj.EmployeeID,
		Delta:      adj.Delta,
		Reason:     adj.Reason,
		ActorID:    adj.ActorID,
		CreatedAt:  s.now(),
	}
	if adj.BillID != "" {
		billID := adj.BillID
		entry.BillID = &billID
	}
	balance, err := s.store.ApplyDelta(ctx, tx, entry)
	if err != nil {
		return decimal.Zero, mapBalanceError(err, "failed to adjust balance")
	}
	s.metrics.RecordBalanceAdjustment(adj.Reason)
	s.logger.Info("balance adjusted",
		zap.String("employee_id", adj.EmployeeID),
		zap.String("delta", adj.Delta.String()),
		zap.String("balance", balance.String()),
		zap.String("reason", string(adj.Reason)))
	return balance, nil
}

// ApplyDelta atomically adjusts the balance in its own transaction.
func (s *BalanceService) ApplyDelta(ctx context.Context, adj BalanceAdjustment) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.store.GetForUpdate(ctx, tx, adj.EmployeeID); err != nil {
			return mapBalanceError(err, "failed to lock balance")
		}
		var err error
		balance, err = s.ApplyDeltaTx(ctx, tx, adj)
		return err
	})
	if err != nil {
		return decimal.Zero, asAppError(err, "failed to adjust balance")
	}
	return balance, nil
}

// Provision sets an employee's balance, creating the account when needed.
// The difference to the previous balance is recorded in the ledger.
func (s *BalanceService) Provision(ctx context.Context, employeeID string, balance decimal.Decimal, actorID string) (*models.BalanceAccount, error) {
	if balance.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "balance cannot be negative")
	}
	if balance.Exponent() < -2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "balance supports at most two decimal places")
	}
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Storage(err, "failed to load employee")
	}

	account := &models.BalanceAccount{EmployeeID: employeeID, Balance: balance, UpdatedAt: s.now()}
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		previous := decimal.Zero
		current, err := s.store.GetForUpdate(ctx, tx, employeeID)
		switch {
		case err == nil:
			previous = current.Balance
		case errors.Is(err, sql.ErrNoRows):
		default:
			return appErrors.Storage(err, "failed to lock balance")
		}
		if err := s.store.Upsert(ctx, tx, account); err != nil {
			return appErrors.Storage(err, "failed to store balance")
		}
		entry := &models.BalanceEntry{
			EmployeeID:   employeeID,
			Delta:        balance.Sub(previous),
			BalanceAfter: balance,
			Reason:       models.BalanceReasonProvision,
			ActorID:      actorID,
			CreatedAt:    account.UpdatedAt,
		}
		if err := s.store.InsertEntry(ctx, tx, entry); err != nil {
			return appErrors.Storage(err, "failed to record ledger entry")
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "failed to provision balance")
	}
	s.metrics.RecordBalanceAdjustment(models.BalanceReasonProvision)
	s.logger.Info("balance provisioned", zap.String("employee_id", employeeID), zap.String("balance", balance.String()), zap.String("actor_id", actorID))
	return account, nil
}

// History lists ledger entries for an employee, newest first.
func (s *BalanceService) History(ctx context.Context, employeeID string, page, size int) ([]models.BalanceEntry, *models.Pagination, error) {
	entries, total, err := s.store.ListEntries(ctx, employeeID, page, size)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "failed to list ledger entries")
	}
	page, size = pageDefaults(page, size)
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func mapBalanceError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "balance account not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Storage(err, message)
}

// asAppError keeps typed errors and maps anything else, such as a failed
// commit, to a storage failure.
func asAppError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Storage(err, message)
}

func pageDefaults(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

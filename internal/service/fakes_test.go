package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/internal/workflow"
)

// memoryDB is an in-memory stand-in for Postgres. Transactions are
// serialised like row locks on a single account and roll back on error.
type memoryDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bills     map[string]models.Bill
	accounts  map[string]models.BalanceAccount
	entries   []models.BalanceEntry
	employees map[string]models.Employee

	failBillUpdate error
	failBillCreate error
	failApplyDelta error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		bills:     map[string]models.Bill{},
		accounts:  map[string]models.BalanceAccount{},
		employees: map[string]models.Employee{},
	}
}

func (db *memoryDB) addEmployee(id string, role models.Role, department models.Department, balance int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.employees[id] = models.Employee{ID: id, Name: "name-" + id, Email: id + "@example.com", Role: role, Department: department}
	db.accounts[id] = models.BalanceAccount{EmployeeID: id, Balance: decimal.NewFromInt(balance)}
}

func (db *memoryDB) balance(id string) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.accounts[id].Balance
}

func (db *memoryDB) bill(id string) models.Bill {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.bills[id]
}

func (db *memoryDB) billCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.bills)
}

// WithinTx implements txRunner.
func (db *memoryDB) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	bills := make(map[string]models.Bill, len(db.bills))
	for k, v := range db.bills {
		bills[k] = v
	}
	accounts := make(map[string]models.BalanceAccount, len(db.accounts))
	for k, v := range db.accounts {
		accounts[k] = v
	}
	entries := append([]models.BalanceEntry(nil), db.entries...)
	db.mu.Unlock()

	if err := fn(nil); err != nil {
		db.mu.Lock()
		db.bills, db.accounts, db.entries = bills, accounts, entries
		db.mu.Unlock()
		return err
	}
	return nil
}

type memoryBills struct{ db *memoryDB }

func (s memoryBills) Create(_ context.Context, _ *sqlx.Tx, bill *models.Bill) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failBillCreate != nil {
		return s.db.failBillCreate
	}
	s.db.bills[bill.ID] = *bill
	return nil
}

func (s memoryBills) GetByID(_ context.Context, id string) (*models.Bill, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	bill, ok := s.db.bills[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &bill, nil
}

func (s memoryBills) GetForUpdate(ctx context.Context, _ *sqlx.Tx, id string) (*models.Bill, error) {
	return s.GetByID(ctx, id)
}

func (s memoryBills) Update(_ context.Context, _ *sqlx.Tx, bill *models.Bill, expectedVersion int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failBillUpdate != nil {
		return s.db.failBillUpdate
	}
	current, ok := s.db.bills[bill.ID]
	if !ok || current.Version != expectedVersion {
		return sql.ErrNoRows
	}
	bill.Version = expectedVersion + 1
	s.db.bills[bill.ID] = *bill
	return nil
}

func (s memoryBills) List(_ context.Context, filter models.BillFilter) ([]models.Bill, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	result := make([]models.Bill, 0)
	for _, bill := range s.db.bills {
		if filter.EmployeeID != "" && bill.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != nil && bill.OverallStatus != *filter.Status {
			continue
		}
		if filter.Category != nil && bill.Category != *filter.Category {
			continue
		}
		if filter.AwaitingStage != nil {
			b := bill
			owner, ok := workflow.OwnerStage(&b)
			if !ok || owner != *filter.AwaitingStage {
				continue
			}
		}
		result = append(result, bill)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, len(result), nil
}

func (s memoryBills) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.bills[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.db.bills, id)
	return nil
}

func (s memoryBills) SumInFlight(_ context.Context, _ *sqlx.Tx, employeeID, excludeID string) (decimal.Decimal, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	total := decimal.Zero
	for id, bill := range s.db.bills {
		b := bill
		if b.EmployeeID != employeeID || id == excludeID || !workflow.InFlight(&b) {
			continue
		}
		total = total.Add(b.Value)
		for _, entry := range s.db.entries {
			if entry.BillID != nil && *entry.BillID == id && entry.Reason == models.BalanceReasonBillEdit {
				total = total.Add(entry.Delta)
			}
		}
	}
	return total, nil
}

type memoryBalances struct{ db *memoryDB }

func (s memoryBalances) Get(_ context.Context, employeeID string) (*models.BalanceAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	account, ok := s.db.accounts[employeeID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &account, nil
}

func (s memoryBalances) GetForUpdate(ctx context.Context, _ *sqlx.Tx, employeeID string) (*models.BalanceAccount, error) {
	return s.Get(ctx, employeeID)
}

func (s memoryBalances) ApplyDelta(_ context.Context, _ *sqlx.Tx, entry *models.BalanceEntry) (decimal.Decimal, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failApplyDelta != nil {
		return decimal.Zero, s.db.failApplyDelta
	}
	account, ok := s.db.accounts[entry.EmployeeID]
	if !ok {
		return decimal.Zero, sql.ErrNoRows
	}
	account.Balance = account.Balance.Add(entry.Delta)
	account.UpdatedAt = time.Now().UTC()
	s.db.accounts[entry.EmployeeID] = account
	entry.BalanceAfter = account.Balance
	s.db.entries = append(s.db.entries, *entry)
	return account.Balance, nil
}

func (s memoryBalances) Upsert(_ context.Context, _ *sqlx.Tx, account *models.BalanceAccount) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.accounts[account.EmployeeID] = *account
	return nil
}

func (s memoryBalances) InsertEntry(_ context.Context, _ *sqlx.Tx, entry *models.BalanceEntry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.entries = append(s.db.entries, *entry)
	return nil
}

func (s memoryBalances) ListEntries(_ context.Context, employeeID string, _, _ int) ([]models.BalanceEntry, int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	result := make([]models.BalanceEntry, 0)
	for i := len(s.db.entries) - 1; i >= 0; i-- {
		if s.db.entries[i].EmployeeID == employeeID {
			result = append(result, s.db.entries[i])
		}
	}
	return result, len(result), nil
}

type memoryEmployees struct{ db *memoryDB }

func (s memoryEmployees) GetByID(_ context.Context, id string) (*models.Employee, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	employee, ok := s.db.employees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &employee, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (p *recordingPublisher) Publish(event models.NotificationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []models.NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.NotificationEvent(nil), p.events...)
}

type recordingArtifacts struct {
	mu        sync.Mutex
	scheduled []models.Bill
	removed   []string
}

func (a *recordingArtifacts) Schedule(bill models.Bill) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scheduled = append(a.scheduled, bill)
}

func (a *recordingArtifacts) Remove(billID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, billID)
	return nil
}

func claimsFor(id string, role models.Role) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role, Name: "name-" + id}
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceReason labels why a ledger entry was written.
type BalanceReason string

const (
	BalanceReasonProvision BalanceReason = "PROVISION"
	BalanceReasonBillEdit  BalanceReason = "BILL_EDIT"
)

// BalanceAccount is the spending balance of one employee.
type BalanceAccount struct {
	EmployeeID string          `db:"employee_id" json:"employee_id"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// BalanceEntry records one adjustment of a balance account.
type BalanceEntry struct {
	ID           string          `db:"id" json:"id"`
	EmployeeID   string          `db:"employee_id" json:"employee_id"`
	BillID       *string         `db:"bill_id" json:"bill_id,omitempty"`
	Delta        decimal.Decimal `db:"delta" json:"delta"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reason       BalanceReason   `db:"reason" json:"reason"`
	ActorID      string          `db:"actor_id" json:"actor_id"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// BalanceSummary reports the balance together with value held by in-flight bills.
type BalanceSummary struct {
	EmployeeID string          `json:"employee_id"`
	Balance    decimal.Decimal `json:"balance"`
	Holds      decimal.Decimal `json:"holds"`
	Available  decimal.Decimal `json:"available"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

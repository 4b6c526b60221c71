package dto

import "github.com/shopspring/decimal"

// ProvisionBalanceRequest sets an employee's balance.
type ProvisionBalanceRequest struct {
	Balance decimal.Decimal `json:"balance" swaggertype:"string" example:"50000.00"`
}

// BalanceEntriesQuery pages through ledger entries.
type BalanceEntriesQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

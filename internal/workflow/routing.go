// Package workflow holds the bill routing policy and the single transition
// function that moves a bill through the approval chain.
package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

// DefaultThreshold is the value above which bills are routed through Audit.
var DefaultThreshold = decimal.NewFromInt(50000)

// Route is the stage assignment computed for a bill.
type Route struct {
	SNP          models.StageStatus
	Audit        models.StageStatus
	FinanceAdmin models.StageStatus
	Status       models.OverallStatus
}

// Policy evaluates routing decisions against a monetary threshold.
type Policy struct {
	threshold decimal.Decimal
}

// NewPolicy returns a policy for the threshold, falling back to the default
// when the threshold is not positive.
func NewPolicy(threshold decimal.Decimal) Policy {
	if !threshold.IsPositive() {
		threshold = DefaultThreshold
	}
	return Policy{threshold: threshold}
}

// Threshold returns the configured audit threshold.
func (p Policy) Threshold() decimal.Decimal {
	if p.threshold.IsZero() {
		return DefaultThreshold
	}
	return p.threshold
}

// ComputeInitialRoute decides the first owner of a freshly submitted or edited bill.
func (p Policy) ComputeInitialRoute(category models.Category, value decimal.Decimal) Route {
	if category == models.CategoryConsumables {
		if value.GreaterThan(p.Threshold()) {
			return Route{Audit: models.StatusPending, Status: models.OverallAudit}
		}
		return Route{FinanceAdmin: models.StatusPending, Status: models.OverallFinanceAdmin}
	}
	return Route{SNP: models.StatusPending, Status: models.OverallStudentPurchase}
}

// ComputePostSNPRoute decides where a Minor or Major bill goes once SNP approves.
// The SNP field of the result is left empty.
func (p Policy) ComputePostSNPRoute(value decimal.Decimal) Route {
	if value.GreaterThan(p.Threshold()) {
		return Route{Audit: models.StatusPending, Status: models.OverallAudit}
	}
	return Route{FinanceAdmin: models.StatusPending, Status: models.OverallFinanceAdmin}
}

// Validate enforces the form level constraints on category and value.
func (p Policy) Validate(category models.Category, value decimal.Decimal) error {
	if !category.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "category must be one of Minor, Major, Consumables")
	}
	if !value.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "value must be greater than zero")
	}
	if value.Exponent() < -2 {
		return appErrors.Clone(appErrors.ErrValidation, "value supports at most two decimal places")
	}
	if category == models.CategoryMinor && value.GreaterThan(p.Threshold()) {
		return appErrors.Clone(appErrors.ErrValidation, "a Minor bill cannot exceed "+p.Threshold().String())
	}
	return nil
}

func (r Route) apply(b *models.Bill) {
	b.SNP = r.SNP
	b.Audit = r.Audit
	b.FinanceAdmin = r.FinanceAdmin
	b.OverallStatus = r.Status
}

package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

func TestComputeInitialRoute(t *testing.T) {
	policy := NewPolicy(decimal.NewFromInt(50000))

	cases := []struct {
		name     string
		category models.Category
		value    int64
		want     Route
	}{
		{"consumables at threshold", models.CategoryConsumables, 50000, Route{FinanceAdmin: models.StatusPending, Status: models.OverallFinanceAdmin}},
		{"consumables above threshold", models.CategoryConsumables, 50001, Route{Audit: models.StatusPending, Status: models.OverallAudit}},
		{"minor", models.CategoryMinor, 10000, Route{SNP: models.StatusPending, Status: models.OverallStudentPurchase}},
		{"major above threshold", models.CategoryMajor, 60000, Route{SNP: models.StatusPending, Status: models.OverallStudentPurchase}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := policy.ComputeInitialRoute(tc.category, decimal.NewFromInt(tc.value))
			second := policy.ComputeInitialRoute(tc.category, decimal.NewFromInt(tc.value))
			assert.Equal(t, tc.want, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestComputePostSNPRoute(t *testing.T) {
	policy := NewPolicy(decimal.Zero)
	assert.True(t, policy.Threshold().Equal(DefaultThreshold))

	assert.Equal(t, Route{FinanceAdmin: models.StatusPending, Status: models.OverallFinanceAdmin},
		policy.ComputePostSNPRoute(decimal.NewFromInt(50000)))
	assert.Equal(t, Route{Audit: models.StatusPending, Status: models.OverallAudit},
		policy.ComputePostSNPRoute(decimal.NewFromInt(60000)))
}

func TestValidate(t *testing.T) {
	policy := NewPolicy(decimal.NewFromInt(50000))

	require.NoError(t, policy.Validate(models.CategoryMinor, decimal.NewFromInt(50000)))
	require.NoError(t, policy.Validate(models.CategoryMajor, decimal.NewFromInt(90000)))

	for _, tc := range []struct {
		category models.Category
		value    decimal.Decimal
	}{
		{models.CategoryMinor, decimal.NewFromInt(50001)},
		{models.CategoryMajor, decimal.Zero},
		{models.CategoryMajor, decimal.NewFromInt(-5)},
		{models.CategoryConsumables, decimal.RequireFromString("10.001")},
		{models.Category("Luxury"), decimal.NewFromInt(10)},
	} {
		err := policy.Validate(tc.category, tc.value)
		assert.ErrorIs(t, err, appErrors.ErrValidation, "%s %s", tc.category, tc.value)
	}
}

func TestCustomThreshold(t *testing.T) {
	policy := NewPolicy(decimal.NewFromInt(1000))
	route := policy.ComputeInitialRoute(models.CategoryConsumables, decimal.NewFromInt(1001))
	assert.Equal(t, models.OverallAudit, route.Status)
}

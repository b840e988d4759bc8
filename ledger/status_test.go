package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusIssued, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusPaid, false},
		{StatusIssued, StatusPartiallyPaid, true},
		{StatusIssued, StatusDraft, false},
		{StatusPartiallyPaid, StatusPaid, true},
		{StatusPaid, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusIssued.Terminal())
	assert.True(t, StatusDraft.Deletable())
	assert.False(t, StatusPartiallyPaid.Deletable())
	assert.False(t, Status("void").Valid())
}

func TestEntryPrice_RoundsToCents(t *testing.T) {
	e := Entry{
		Name:           "x",
		Quantity:       decimal.RequireFromString("1.5"),
		UnitCost:       decimal.RequireFromString("3.333"),
		DiscountAmount: decimal.RequireFromString("0.105"),
		TaxAmount:      decimal.RequireFromString("0.4"),
	}
	e.price()

	assert.Equal(t, "3.33", e.UnitCost.StringFixed(2))
	assert.Equal(t, "5.00", e.Subtotal.StringFixed(2))
	assert.Equal(t, "0.11", e.DiscountAmount.StringFixed(2))
	assert.Equal(t, "5.29", e.LineTotal.StringFixed(2))
	assert.NoError(t, e.validate(""))
}

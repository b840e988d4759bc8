package cmd

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthadmin-backend/ledger"
	"healthadmin-backend/ledger/memstore"
)

type allowAll struct{}

func (allowAll) Exists(context.Context, ledger.EntityType, string) (bool, error) { return true, nil }

func TestRecalculateAll_RepairsEveryAggregate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	l := ledger.New(ledger.KindInvoice, store, allowAll{}, nil)

	var ids []string
	for _, cost := range []string{"10", "20", "30"} {
		agg, _, err := l.Create(ctx, ledger.Header{ProviderID: "prov-1"}, []ledger.NewEntry{{
			Name:     "Consultation",
			Quantity: decimal.NewFromInt(1),
			UnitCost: decimal.RequireFromString(cost),
		}})
		require.NoError(t, err)
		ids = append(ids, agg.ID)
	}
	for _, id := range ids {
		require.NoError(t, store.UpdateTotals(ctx, id, ledger.Totals{TotalAmount: decimal.NewFromInt(999)}))
	}

	n, err := recalculateAll(ctx, l, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = recalculateAll(ctx, l, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for i, want := range []string{"10.00", "20.00", "30.00"} {
		agg, err := store.GetAggregate(ctx, ids[i])
		require.NoError(t, err)
		assert.Equal(t, want, agg.TotalAmount.StringFixed(2))
		assert.Equal(t, want, agg.BalanceAmount.StringFixed(2))
	}

	_, err = recalculateAll(ctx, l, "missing")
	assert.True(t, ledger.IsNotFound(err))
}

func TestLedgerFor_UnknownKind(t *testing.T) {
	_, err := ledgerFor(nil, ledger.Kind("voucher"))
	assert.Error(t, err)
}

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, MigrateTables(db))
	return db
}

type fixtures struct {
	provider models.Provider
	enrollee models.Enrollee
	service  models.Service
	batch    models.PaymentBatch
}

func seed(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()
	f := fixtures{
		provider: models.Provider{Code: "PRV-001", Name: "Lagoon Clinic", Address: "1 Marina", City: "Lagos", Country: "NG", Email: "billing@lagoon.test"},
		enrollee: models.Enrollee{PolicyNumber: "POL-0001", FirstName: "Ada", LastName: "Obi"},
		service:  models.Service{Code: "CONS", Name: "Consultation", UnitCost: decimal.RequireFromString("100")},
		batch:    models.PaymentBatch{Reference: "PB-2025-03"},
	}
	require.NoError(t, db.Create(&f.provider).Error)
	require.NoError(t, db.Create(&f.enrollee).Error)
	require.NoError(t, db.Create(&f.service).Error)
	require.NoError(t, db.Create(&f.batch).Error)
	return f
}

func line(name, qty, cost, discount, tax string) ledger.NewEntry {
	return ledger.NewEntry{
		Name:           name,
		Quantity:       decimal.RequireFromString(qty),
		UnitCost:       decimal.RequireFromString(cost),
		DiscountAmount: decimal.RequireFromString(discount),
		TaxAmount:      decimal.RequireFromString(tax),
	}
}

func TestInvoiceStore_LedgerScenario(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	store := NewInvoiceStore(db)
	l := ledger.New(ledger.KindInvoice, store, NewDirectory(db), nil)

	a := line("Consultation", "1", "100", "10", "5")
	a.ServiceID = &f.service.ID
	agg, entries, err := l.Create(ctx, ledger.Header{ProviderID: f.provider.ID, EnrolleeID: &f.enrollee.ID}, []ledger.NewEntry{
		a,
		line("Lab panel", "2", "25", "0", "2.5"),
	})
	require.NoError(t, err)

	var row models.Invoice
	require.NoError(t, db.First(&row, "id = ?", agg.ID).Error)
	assert.Equal(t, agg.Number, row.InvoiceNumber)
	assert.Equal(t, "draft", row.Status)
	assert.Equal(t, "147.50", row.TotalAmount.StringFixed(2))

	c, err := l.AddEntry(ctx, agg.ID, line("Follow-up", "1", "25", "0", "0"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.SequenceNumber)
	got, err := store.GetAggregate(ctx, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, "172.50", got.TotalAmount.StringFixed(2))

	require.NoError(t, l.DeleteEntry(ctx, entries[0].ID))
	got, err = store.GetAggregate(ctx, agg.ID)
	require.NoError(t, err)
	assert.Equal(t, "75.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "77.50", got.TotalAmount.StringFixed(2))

	d, err := l.AddEntry(ctx, agg.ID, line("X-ray", "1", "40", "0", "0"))
	require.NoError(t, err)
	assert.Equal(t, 4, d.SequenceNumber)

	updated, err := l.UpdateEntry(ctx, c.ID, ledger.EntryPatch{})
	require.NoError(t, err)
	assert.Equal(t, "25.00", updated.Subtotal.StringFixed(2))

	list, err := store.ListEntries(ctx, agg.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{list[0].SequenceNumber, list[1].SequenceNumber, list[2].SequenceNumber})
}

func TestInvoiceStore_PaymentsAndZeroReset(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	store := NewInvoiceStore(db)
	l := ledger.New(ledger.KindInvoice, store, NewDirectory(db), nil)

	agg, entries, err := l.Create(ctx, ledger.Header{ProviderID: f.provider.ID}, []ledger.NewEntry{line("A", "1", "100", "0", "0")})
	require.NoError(t, err)
	_, err = l.Issue(ctx, agg.ID)
	require.NoError(t, err)

	paidAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, after, err := l.RecordPayment(ctx, agg.ID, ledger.PaymentInput{Amount: decimal.RequireFromString("40"), Method: "transfer", PaidAt: &paidAt})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPartiallyPaid, after.Status)

	payments, err := l.Payments(ctx, agg.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "40.00", payments[0].Amount.StringFixed(2))

	require.NoError(t, l.DeleteEntry(ctx, entries[0].ID))
	got, err := store.GetAggregate(ctx, agg.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.IsZero())
	assert.Equal(t, "-40.00", got.BalanceAmount.StringFixed(2))
	assert.Equal(t, ledger.StatusPartiallyPaid, got.Status)

	err = l.DeleteAggregate(ctx, agg.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
}

func TestPaymentBatchStore_CascadeAndFilters(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	store := NewPaymentBatchStore(db)
	l := ledger.New(ledger.KindPaymentBatchDetail, store, NewDirectory(db), nil)

	detail, claims, err := l.Create(ctx, ledger.Header{ProviderID: f.provider.ID, BatchID: &f.batch.ID}, []ledger.NewEntry{
		line("Claim 1", "1", "10", "0", "0"),
		line("Claim 2", "1", "20", "0", "0"),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^PBD-`, detail.Number)

	_, _, err = l.Create(ctx, ledger.Header{ProviderID: f.provider.ID}, []ledger.NewEntry{line("Loose", "1", "5", "0", "0")})
	require.NoError(t, err)

	inBatch, total, err := l.List(ctx, ledger.ListFilter{BatchID: f.batch.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, inBatch, 1)
	assert.Equal(t, detail.ID, inBatch[0].ID)

	exists, err := store.NumberExists(ctx, detail.Number)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, l.DeleteAggregate(ctx, detail.ID))
	_, err = store.GetAggregate(ctx, detail.ID)
	assert.True(t, ledger.IsNotFound(err))
	for _, c := range claims {
		_, err = store.GetEntry(ctx, c.ID)
		assert.True(t, ledger.IsNotFound(err))
	}
	var left int64
	require.NoError(t, db.Model(&models.Claim{}).Where("payment_batch_detail_id = ?", detail.ID).Count(&left).Error)
	assert.Zero(t, left)
}

func TestLedgerStore_TransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	store := NewInvoiceStore(db)
	l := ledger.New(ledger.KindInvoice, store, NewDirectory(db), nil)
	agg, _, err := l.Create(ctx, ledger.Header{ProviderID: f.provider.ID}, []ledger.NewEntry{line("A", "1", "10", "0", "0")})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(s ledger.Store) error {
		e := ledger.Entry{ID: uuid.NewString(), AggregateID: agg.ID, SequenceNumber: 2, Name: "B",
			Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(5), Subtotal: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(5)}
		require.NoError(t, s.CreateEntry(ctx, &e))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	n, err := store.CountEntries(ctx, agg.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestLedgerStore_MissingRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewInvoiceStore(db)

	_, err := store.LockAggregate(ctx, "nope")
	var nf *ledger.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "invoice", nf.Entity)

	assert.True(t, ledger.IsNotFound(store.UpdateTotals(ctx, "nope", ledger.Totals{})))
	assert.True(t, ledger.IsNotFound(store.DeleteEntry(ctx, "nope")))
	assert.True(t, ledger.IsNotFound(store.SaveEntry(ctx, &ledger.Entry{ID: "nope", Name: "x"})))

	maxSeq, err := store.MaxSequence(ctx, "nope")
	require.NoError(t, err)
	assert.Zero(t, maxSeq)
}

func TestDirectory_Exists(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	dir := NewDirectory(db)

	ok, err := dir.Exists(ctx, ledger.EntityProvider, f.provider.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(ctx, ledger.EntityService, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = dir.Exists(ctx, ledger.EntityType("hospital"), "x")
	assert.Error(t, err)
}

func TestSchemaName(t *testing.T) {
	name, err := SchemaName("  Acme Health-Care Ltd. ")
	require.NoError(t, err)
	assert.Equal(t, "acme_health_care_ltd_", name)

	_, err = SchemaName("1st choice")
	assert.ErrorIs(t, err, ErrInvalidSchema)
	_, err = SchemaName("public")
	assert.ErrorIs(t, err, ErrInvalidSchema)

	ctx := WithSchema(context.Background(), "acme")
	assert.Equal(t, "acme", SchemaFromContext(ctx))
	assert.Empty(t, SchemaFromContext(context.Background()))
}

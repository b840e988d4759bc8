package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"healthadmin-backend/ledger"
	"healthadmin-backend/middlewares"
	"healthadmin-backend/utils"
)

// LedgerHandlers exposes one ledger (invoices or payment batch details) over HTTP.
// The ledger opens its own tenant transactions, so these routes run without TenantTx.
type LedgerHandlers struct {
	l *ledger.Ledger
}

// aggregateResponse inlines the aggregate fields next to its entries.
type aggregateResponse struct {
	ledger.Aggregate
	Entries []ledger.Entry `json:"entries"`
}

func newAggregateResponse(a *ledger.Aggregate, entries []ledger.Entry) aggregateResponse {
	if entries == nil {
		entries = []ledger.Entry{}
	}
	return aggregateResponse{Aggregate: *a, Entries: entries}
}

func pathID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing id in path")
	}
	return id, nil
}

func (h *LedgerHandlers) listKey() string {
	if h.l.Kind() == ledger.KindPaymentBatchDetail {
		return "payment_batch_details"
	}
	return "invoices"
}

// Create handles POST /api/invoices and POST /api/payment-batches/:id/details.
func (h *LedgerHandlers) Create(c *fiber.Ctx) error {
	var in AggregateCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	header := ledger.Header{
		Number:     in.Number,
		ProviderID: in.ProviderID,
		EnrolleeID: in.EnrolleeID,
		ClientID:   in.ClientID,
		Notes:      in.Notes,
		DueDate:    in.DueDate,
	}
	if batchID := strings.TrimSpace(c.Params("id")); batchID != "" {
		header.BatchID = &batchID
	}

	entries := make([]ledger.NewEntry, len(in.Entries))
	for i, e := range in.Entries {
		entries[i] = e.toNewEntry()
	}

	agg, created, err := h.l.Create(c.UserContext(), header, entries)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newAggregateResponse(agg, created))
}

// List handles GET /api/invoices?status=&provider_id=&batch_id=&limit=&offset=.
func (h *LedgerHandlers) List(c *fiber.Ctx) error {
	p := pageOf(c)
	list, total, err := h.l.List(c.UserContext(), ledger.ListFilter{
		Status:     ledger.Status(strings.TrimSpace(c.Query("status"))),
		ProviderID: strings.TrimSpace(c.Query("provider_id")),
		BatchID:    strings.TrimSpace(c.Query("batch_id")),
		Limit:      p.Limit,
		Offset:     p.Offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		h.listKey(): list,
		"total":     total,
		"limit":     p.Limit,
		"offset":    p.Offset,
		"message":   "success",
	})
}

// Get handles GET /api/invoices/:id.
func (h *LedgerHandlers) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	agg, entries, err := h.l.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(newAggregateResponse(agg, entries))
}

// Delete handles DELETE /api/invoices/:id. Only drafts can be deleted.
func (h *LedgerHandlers) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.l.DeleteAggregate(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deleted"})
}

// AddEntry handles POST /api/invoices/:id/items.
func (h *LedgerHandlers) AddEntry(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in EntryDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	e, err := h.l.AddEntry(c.UserContext(), id, in.toNewEntry())
	if err != nil {
		return err
	}
	return h.withAggregate(c, fiber.StatusCreated, e)
}

// UpdateEntry handles PUT /api/invoice-items/:id.
func (h *LedgerHandlers) UpdateEntry(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in EntryPatchDTO
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizeDTO(&in)

	e, err := h.l.UpdateEntry(c.UserContext(), id, in.toPatch())
	if err != nil {
		return err
	}
	return h.withAggregate(c, fiber.StatusOK, e)
}

// DeleteEntry handles DELETE /api/invoice-items/:id and answers with the recalculated aggregate.
func (h *LedgerHandlers) DeleteEntry(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	e, err := h.l.Entry(ctx, id)
	if err != nil {
		return err
	}
	if err := h.l.DeleteEntry(ctx, id); err != nil {
		return err
	}
	agg, _, err := h.l.Get(ctx, e.AggregateID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "deleted", "aggregate": agg})
}

func (h *LedgerHandlers) withAggregate(c *fiber.Ctx, status int, e *ledger.Entry) error {
	agg, _, err := h.l.Get(c.UserContext(), e.AggregateID)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"entry": e, "aggregate": agg})
}

// Issue handles PUT /api/invoices/:id/issue.
func (h *LedgerHandlers) Issue(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	agg, err := h.l.Issue(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(agg)
}

// Cancel handles PUT /api/invoices/:id/cancel.
func (h *LedgerHandlers) Cancel(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in CancelDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	agg, err := h.l.Cancel(c.UserContext(), id, in.Reason)
	if err != nil {
		return err
	}
	return c.JSON(agg)
}

// RecordPayment handles POST /api/invoices/:id/payments.
func (h *LedgerHandlers) RecordPayment(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in PaymentDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	payment, agg, err := h.l.RecordPayment(c.UserContext(), id, ledger.PaymentInput{
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: in.Reference,
		Note:      in.Note,
		PaidAt:    in.PaidAt,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": payment, "aggregate": agg})
}

// ListPayments handles GET /api/invoices/:id/payments.
func (h *LedgerHandlers) ListPayments(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	payments, err := h.l.Payments(c.UserContext(), id)
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []ledger.Payment{}
	}
	return c.JSON(fiber.Map{"payments": payments, "message": "success"})
}

// Recalculate handles POST /api/invoices/:id/recalculate.
func (h *LedgerHandlers) Recalculate(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	totals, err := h.l.Recalculate(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(totals)
}

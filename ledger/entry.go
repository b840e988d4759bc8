package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"healthadmin-backend/utils"
)

// price sets Subtotal = Quantity × UnitCost and LineTotal = Subtotal − Discount + Tax.
// All amounts are rounded to cents at write time.
func (e *Entry) price() {
	e.Quantity = utils.Round2(e.Quantity)
	e.UnitCost = utils.Round2(e.UnitCost)
	e.DiscountAmount = utils.Round2(e.DiscountAmount)
	e.TaxAmount = utils.Round2(e.TaxAmount)
	e.Subtotal = utils.Round2(e.Quantity.Mul(e.UnitCost))
	e.LineTotal = e.Subtotal.Sub(e.DiscountAmount).Add(e.TaxAmount)
}

// validate checks a priced entry. field prefixes error field names (e.g. "entries[1].").
func (e *Entry) validate(field string) error {
	if strings.TrimSpace(e.Name) == "" {
		return invalid(field+"name", "is required")
	}
	if !e.Quantity.IsPositive() {
		return invalid(field+"quantity", "must be greater than zero")
	}
	if e.UnitCost.IsNegative() {
		return invalid(field+"unit_cost", "must not be negative")
	}
	if e.DiscountAmount.IsNegative() {
		return invalid(field+"discount_amount", "must not be negative")
	}
	if e.TaxAmount.IsNegative() {
		return invalid(field+"tax_amount", "must not be negative")
	}
	if e.DiscountAmount.GreaterThan(e.Subtotal) {
		return invalid(field+"discount_amount", "must not exceed subtotal %s", e.Subtotal.StringFixed(2))
	}
	return nil
}

func entryFrom(aggregateID string, seq int, in NewEntry) Entry {
	e := Entry{
		AggregateID:    aggregateID,
		SequenceNumber: seq,
		ServiceID:      trimPtr(in.ServiceID),
		Reference:      strings.TrimSpace(in.Reference),
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		Quantity:       in.Quantity,
		UnitOfMeasure:  strings.TrimSpace(in.UnitOfMeasure),
		UnitCost:       in.UnitCost,
		DiscountAmount: in.DiscountAmount,
		TaxAmount:      in.TaxAmount,
	}
	e.price()
	return e
}

// apply resolves the patch against e. Quantity and unit cost are resolved first
// and the subtotal is computed once from both final values.
func (e *Entry) apply(p EntryPatch) error {
	if p.Name.Set {
		if p.Name.Null {
			return invalid("name", "cannot be cleared")
		}
		e.Name = strings.TrimSpace(p.Name.Value)
	}
	if p.Quantity.Null {
		return invalid("quantity", "cannot be cleared")
	}
	if p.UnitCost.Null {
		return invalid("unit_cost", "cannot be cleared")
	}

	e.Quantity = p.Quantity.Resolve(e.Quantity)
	e.UnitCost = p.UnitCost.Resolve(e.UnitCost)
	e.DiscountAmount = p.DiscountAmount.Resolve(e.DiscountAmount)
	e.TaxAmount = p.TaxAmount.Resolve(e.TaxAmount)
	e.Reference = strings.TrimSpace(p.Reference.Resolve(e.Reference))
	e.Description = strings.TrimSpace(p.Description.Resolve(e.Description))
	e.UnitOfMeasure = strings.TrimSpace(p.UnitOfMeasure.Resolve(e.UnitOfMeasure))

	if p.ServiceID.Set {
		if p.ServiceID.Null {
			e.ServiceID = nil
		} else {
			e.ServiceID = trimPtr(&p.ServiceID.Value)
		}
	}

	e.price()
	return e.validate("")
}

// sumEntries adds up subtotal, discount and tax over a non-empty entry set.
func sumEntries(entries []Entry) (subtotal, discount, tax decimal.Decimal) {
	for _, e := range entries {
		subtotal = subtotal.Add(e.Subtotal)
		discount = discount.Add(e.DiscountAmount)
		tax = tax.Add(e.TaxAmount)
	}
	return subtotal, discount, tax
}

func entryField(i int) string {
	return fmt.Sprintf("entries[%d].", i)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

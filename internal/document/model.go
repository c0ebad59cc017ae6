// Package document defines the structured statement and invoice model shared by
// every resolution stage. Documents arrive already extracted; this package only
// validates structure, it never parses raw text.
package document

import (
	"time"

	"github.com/google/uuid"
)

// LotReference is one statement line pointing at an invoice for a lot.
type LotReference struct {
	InvoiceNumber string   `json:"invoice_number"`
	LotNumber     string   `json:"lot_number"`
	AmountDue     *float64 `json:"amount_due,omitempty"`
}

// Statement is the governing document for a package. Immutable once extracted.
type Statement struct {
	FeedlotName   string         `json:"feedlot_name" validate:"required"`
	OwnerName     string         `json:"owner_name"`
	OwnerNumber   string         `json:"owner_number"`
	PeriodStart   time.Time      `json:"period_start" validate:"required"`
	PeriodEnd     time.Time      `json:"period_end" validate:"required,gtefield=PeriodStart"`
	TotalBalance  *float64       `json:"total_balance,omitempty"`
	LotReferences []LotReference `json:"lot_references" validate:"required,min=1,dive"`
}

// LineItem is one charge line on an invoice. Amount may be absent when
// extraction could not resolve it.
type LineItem struct {
	Description  string   `json:"description"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	CategoryHint string   `json:"category_hint,omitempty"`
}

// Invoice is one extracted invoice. Line items are the source of truth for
// totals; the declared TotalDue is validated against them, never trusted over
// them.
type Invoice struct {
	InvoiceNumber string     `json:"invoice_number"`
	LotNumber     string     `json:"lot_number"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	FeedlotName   string     `json:"feedlot_name"`
	OwnerName     string     `json:"owner_name"`
	OwnerNumber   string     `json:"owner_number"`
	VendorName    string     `json:"vendor_name"`
	RemitToCity   string     `json:"remit_to_city,omitempty"`
	RemitToState  string     `json:"remit_to_state,omitempty"`
	LineItems     []LineItem `json:"line_items"`
	Subtotal      *float64   `json:"subtotal,omitempty"`
	Adjustments   *float64   `json:"adjustments,omitempty"`
	TotalDue      *float64   `json:"total_due,omitempty"`
}

// Package groups one statement with every invoice it references.
type Package struct {
	ID        uuid.UUID `json:"id"`
	ScopeKey  string    `json:"scope_key" validate:"required"`
	Statement Statement `json:"statement" validate:"required"`
	Invoices  []Invoice `json:"invoices"`
}

// LineSum returns the sum of all present line amounts and how many lines
// carried an amount.
func (inv Invoice) LineSum() (float64, int) {
	var sum float64
	var counted int
	for _, li := range inv.LineItems {
		if li.Amount == nil {
			continue
		}
		sum += *li.Amount
		counted++
	}
	return sum, counted
}

// ResolvedTotal returns the invoice total to reconcile against: the declared
// total when present, otherwise the subtotal plus adjustments when both were
// extracted. Returns nil when no total is resolvable.
func (inv Invoice) ResolvedTotal() *float64 {
	if inv.TotalDue != nil {
		return inv.TotalDue
	}
	if inv.Subtotal != nil {
		total := *inv.Subtotal
		if inv.Adjustments != nil {
			total += *inv.Adjustments
		}
		return &total
	}
	return nil
}

package ar

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates AR invoice statuses.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "DRAFT"
	StatusPosted    InvoiceStatus = "POSTED"
	StatusPartial   InvoiceStatus = "PARTIAL"
	StatusPaid      InvoiceStatus = "PAID"
	StatusVoid      InvoiceStatus = "VOID"
	StatusCancelled InvoiceStatus = "CANCELLED"
)

// Customer identifies who an invoice is billed to.
type Customer struct {
	ID   int64
	Name string
}

// Invoice is the receivable snapshot consumed by revenue and aging reports.
// PaidAt is the date the invoice was settled in full.
type Invoice struct {
	ID           int64
	Number       string
	CustomerID   int64
	CustomerName string
	InvoiceDate  time.Time
	DueDate      time.Time
	Total        decimal.Decimal
	PaidAmount   decimal.Decimal
	BalanceDue   decimal.Decimal
	Status       InvoiceStatus
	PaidAt       *time.Time
}

// Excluded reports whether the invoice is void or cancelled.
func (i Invoice) Excluded() bool {
	return i.Status == StatusVoid || i.Status == StatusCancelled
}

// Outstanding reports whether the invoice still carries a balance to collect.
func (i Invoice) Outstanding() bool {
	return !i.Excluded() && i.BalanceDue.IsPositive()
}

// Customer returns the billed customer.
func (i Invoice) Customer() Customer {
	return Customer{ID: i.CustomerID, Name: i.CustomerName}
}

// InvoiceFilter scopes invoice listings. Zero dates leave the bound open.
type InvoiceFilter struct {
	From            time.Time
	To              time.Time
	CustomerID      int64
	Statuses        []InvoiceStatus
	ExcludeVoid     bool
	OutstandingOnly bool
}

// Match applies the filter to a single invoice.
func (f InvoiceFilter) Match(inv Invoice) bool {
	if !f.From.IsZero() && inv.InvoiceDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && inv.InvoiceDate.After(f.To) {
		return false
	}
	if f.CustomerID != 0 && inv.CustomerID != f.CustomerID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if st == inv.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ExcludeVoid && inv.Excluded() {
		return false
	}
	if f.OutstandingOnly && !inv.Outstanding() {
		return false
	}
	return true
}

// Reader is the read-only invoice source used by the report engine.
type Reader interface {
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
}

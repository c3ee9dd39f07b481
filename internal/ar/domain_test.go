package ar

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceOutstanding(t *testing.T) {
	inv := Invoice{Status: StatusPartial, BalanceDue: decimal.NewFromInt(10)}
	assert.True(t, inv.Outstanding())

	inv.Status = StatusCancelled
	assert.True(t, inv.Excluded())
	assert.False(t, inv.Outstanding())

	paid := Invoice{Status: StatusPaid, BalanceDue: decimal.Zero}
	assert.False(t, paid.Outstanding())
}

func TestInvoiceFilterMatch(t *testing.T) {
	inv := Invoice{
		CustomerID:  4,
		InvoiceDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		Status:      StatusPosted,
		BalanceDue:  decimal.NewFromInt(25),
	}
	cases := []struct {
		name   string
		filter InvoiceFilter
		want   bool
	}{
		{"empty", InvoiceFilter{}, true},
		{"inside range", InvoiceFilter{From: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)}, true},
		{"before range", InvoiceFilter{From: time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)}, false},
		{"after range", InvoiceFilter{To: time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)}, false},
		{"other customer", InvoiceFilter{CustomerID: 5}, false},
		{"status listed", InvoiceFilter{Statuses: []InvoiceStatus{StatusPaid, StatusPosted}}, true},
		{"status not listed", InvoiceFilter{Statuses: []InvoiceStatus{StatusPaid}}, false},
		{"outstanding", InvoiceFilter{OutstandingOnly: true}, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.filter.Match(inv), tc.name)
	}
	assert.Equal(t, Customer{ID: 4}, inv.Customer())
}

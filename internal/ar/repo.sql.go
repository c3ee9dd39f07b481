package ar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/finstat/internal/platform/db"
)

// Repository provides PostgreSQL backed invoice reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Reader = (*Repository)(nil)

const listInvoicesSQL = `
SELECT i.id, i.number, i.customer_id, COALESCE(c.name, ''), i.created_at::date, i.due_at::date,
       i.total, COALESCE(pa.paid, 0), i.status, pa.last_paid_at
FROM ar_invoices i
LEFT JOIN customers c ON c.id = i.customer_id
LEFT JOIN LATERAL (
	SELECT SUM(a.amount) AS paid, MAX(p.paid_at)::date AS last_paid_at
	FROM ar_payment_allocations a
	JOIN ar_payments p ON p.id = a.ar_payment_id
	WHERE a.ar_invoice_id = i.id
) pa ON TRUE
WHERE ($1::date IS NULL OR i.created_at::date >= $1)
  AND ($2::date IS NULL OR i.created_at::date <= $2)
  AND ($3::bigint = 0 OR i.customer_id = $3)`

// ListInvoices returns invoices with their settled amount and balance due.
func (r *Repository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("ar repository not initialised")
	}
	var sb strings.Builder
	sb.WriteString(listInvoicesSQL)
	args := []any{dateParam(filter.From), dateParam(filter.To), filter.CustomerID}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		args = append(args, statuses)
		sb.WriteString(fmt.Sprintf("\n  AND i.status = ANY($%d)", len(args)))
	}
	if filter.ExcludeVoid || filter.OutstandingOnly {
		sb.WriteString("\n  AND i.status NOT IN ('VOID','CANCELLED')")
	}
	sb.WriteString("\nORDER BY i.due_at, i.id")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("ar: list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var (
			inv         Invoice
			total, paid pgtype.Numeric
			paidAt      pgtype.Date
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceDate, &inv.DueDate,
			&total, &paid, &inv.Status, &paidAt); err != nil {
			return nil, err
		}
		if inv.Total, err = db.Decimal(total); err != nil {
			return nil, fmt.Errorf("ar: invoice %s total: %w", inv.Number, err)
		}
		if inv.PaidAmount, err = db.Decimal(paid); err != nil {
			return nil, fmt.Errorf("ar: invoice %s paid: %w", inv.Number, err)
		}
		inv.BalanceDue = inv.Total.Sub(inv.PaidAmount)
		if paidAt.Valid && !inv.BalanceDue.IsPositive() {
			settled := paidAt.Time
			inv.PaidAt = &settled
		}
		if filter.OutstandingOnly && !inv.Outstanding() {
			continue
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func dateParam(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/finstat/internal/platform/db"
)

// Repository reads the chart of accounts and posted journal lines from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Reader = (*Repository)(nil)

// ListAccounts returns every account ordered by code.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("accounting repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, type, COALESCE(sub_type, ''), opening_balance, is_active
FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("accounting: list accounts: %w", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var (
			a       Account
			opening pgtype.Numeric
		)
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.SubType, &opening, &a.IsActive); err != nil {
			return nil, err
		}
		if a.OpeningBalance, err = db.Decimal(opening); err != nil {
			return nil, fmt.Errorf("accounting: account %s opening balance: %w", a.Code, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListPostedLines returns posted lines joined to their entry date, oldest first.
func (r *Repository) ListPostedLines(ctx context.Context, rng DateRange) ([]PostedLine, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("accounting repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT je.id, jl.account_id, je.date, jl.debit, jl.credit
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.je_id
WHERE je.status = 'POSTED'
  AND ($1::date IS NULL OR je.date >= $1)
  AND ($2::date IS NULL OR je.date <= $2)
ORDER BY je.date, je.id, jl.id`, dateParam(rng.From), dateParam(rng.To))
	if err != nil {
		return nil, fmt.Errorf("accounting: list posted lines: %w", err)
	}
	defer rows.Close()
	var lines []PostedLine
	for rows.Next() {
		var (
			line          PostedLine
			debit, credit pgtype.Numeric
		)
		if err := rows.Scan(&line.EntryID, &line.AccountID, &line.Date, &debit, &credit); err != nil {
			return nil, err
		}
		if line.Debit, err = db.Decimal(debit); err != nil {
			return nil, fmt.Errorf("accounting: entry %d debit: %w", line.EntryID, err)
		}
		if line.Credit, err = db.Decimal(credit); err != nil {
			return nil, fmt.Errorf("accounting: entry %d credit: %w", line.EntryID, err)
		}
		line.Date = Day(line.Date)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func dateParam(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: Day(t), Valid: true}
}

package accounting

import "context"

// Reader is the read-only view of the ledger store the report engine consumes.
type Reader interface {
	// ListAccounts returns the whole chart, inactive accounts included.
	ListAccounts(ctx context.Context) ([]Account, error)
	// ListPostedLines returns lines of POSTED entries dated inside the
	// inclusive range. A zero From means the beginning of history.
	ListPostedLines(ctx context.Context, r DateRange) ([]PostedLine, error)
}

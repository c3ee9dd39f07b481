// Package memory is an in-process ledger store serving both the accounting
// and receivables readers. It is used by tests and by callers embedding the
// report engine without Postgres.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

var (
	// ErrDuplicateAccount is returned when an account id or code is reused.
	ErrDuplicateAccount = errors.New("memory: account already exists")
	// ErrEntryNotFound is returned when voiding an unknown entry.
	ErrEntryNotFound = errors.New("memory: journal entry not found")
)

// Store keeps the chart of accounts, journal entries and invoices in memory.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	accounts    map[int64]accounting.Account
	codes       map[string]int64
	entries     []accounting.JournalEntry
	nextEntry   int64
	invoices    []ar.Invoice
	nextInvoice int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[int64]accounting.Account),
		codes:    make(map[string]int64),
	}
}

var (
	_ accounting.Reader = (*Store)(nil)
	_ ar.Reader         = (*Store)(nil)
)

// CreateAccount adds an account to the chart.
func (s *Store) CreateAccount(_ context.Context, acc accounting.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc.ID == 0 {
		return errors.New("memory: account id required")
	}
	if _, exists := s.accounts[acc.ID]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateAccount, acc.ID)
	}
	if _, exists := s.codes[acc.Code]; exists {
		return fmt.Errorf("%w: code %s", ErrDuplicateAccount, acc.Code)
	}
	s.accounts[acc.ID] = acc
	s.codes[acc.Code] = acc.ID
	return nil
}

// PostEntry validates and appends a POSTED journal entry.
func (s *Store) PostEntry(_ context.Context, entry accounting.JournalEntry) (accounting.JournalEntry, error) {
	if err := entry.Validate(); err != nil {
		return accounting.JournalEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range entry.Lines {
		if _, ok := s.accounts[line.AccountID]; !ok {
			return accounting.JournalEntry{}, fmt.Errorf("%w: id %d", accounting.ErrAccountNotFound, line.AccountID)
		}
	}
	s.nextEntry++
	entry.ID = s.nextEntry
	entry.Number = s.nextEntry
	entry.Date = accounting.Day(entry.Date)
	entry.Status = accounting.JournalStatusPosted
	entry.Lines = append([]accounting.JournalLine(nil), entry.Lines...)
	s.entries = append(s.entries, entry)
	return entry, nil
}

// VoidEntry flips a posted entry to VOID so it stops affecting balances.
func (s *Store) VoidEntry(_ context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == entryID {
			s.entries[i].Status = accounting.JournalStatusVoid
			return nil
		}
	}
	return ErrEntryNotFound
}

// AddInvoice records an invoice, deriving BalanceDue when it is unset.
func (s *Store) AddInvoice(_ context.Context, inv ar.Invoice) ar.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextInvoice++
	if inv.ID == 0 {
		inv.ID = s.nextInvoice
	}
	inv.InvoiceDate = accounting.Day(inv.InvoiceDate)
	inv.DueDate = accounting.Day(inv.DueDate)
	if inv.BalanceDue.IsZero() {
		inv.BalanceDue = inv.Total.Sub(inv.PaidAmount)
	}
	s.invoices = append(s.invoices, inv)
	return inv
}

// ListAccounts returns the chart ordered by code.
func (s *Store) ListAccounts(_ context.Context) ([]accounting.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]accounting.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ListPostedLines flattens posted entries inside the range, oldest first.
func (s *Store) ListPostedLines(_ context.Context, r accounting.DateRange) ([]accounting.PostedLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []accounting.PostedLine
	for _, entry := range s.entries {
		if entry.Status != accounting.JournalStatusPosted {
			continue
		}
		if !r.From.IsZero() && entry.Date.Before(accounting.Day(r.From)) {
			continue
		}
		if !r.To.IsZero() && entry.Date.After(accounting.Day(r.To)) {
			continue
		}
		for _, line := range entry.Lines {
			out = append(out, accounting.PostedLine{
				EntryID:   entry.ID,
				AccountID: line.AccountID,
				Date:      entry.Date,
				Debit:     line.Debit,
				Credit:    line.Credit,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ListInvoices returns invoices matching the filter ordered by due date.
func (s *Store) ListInvoices(_ context.Context, filter ar.InvoiceFilter) ([]ar.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ar.Invoice
	for _, inv := range s.invoices {
		if filter.Match(inv) {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

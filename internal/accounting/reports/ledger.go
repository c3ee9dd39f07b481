package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
)

// Ledger is an immutable snapshot of the chart plus posted lines, indexed
// for balance queries. It is built once per report request.
type Ledger struct {
	accounts []accounting.Account
	byID     map[int64]accounting.Account
	activity map[int64]*accountActivity
}

// accountActivity keeps raw debit-minus-credit prefix sums per posting date.
type accountActivity struct {
	dates []time.Time
	cum   []decimal.Decimal
}

// NewLedger indexes lines by account. A line pointing at an account outside
// the chart fails with accounting.ErrAccountNotFound.
func NewLedger(accounts []accounting.Account, lines []accounting.PostedLine) (*Ledger, error) {
	l := &Ledger{
		accounts: append([]accounting.Account(nil), accounts...),
		byID:     make(map[int64]accounting.Account, len(accounts)),
		activity: make(map[int64]*accountActivity),
	}
	sort.Slice(l.accounts, func(i, j int) bool { return l.accounts[i].Code < l.accounts[j].Code })
	for _, acc := range l.accounts {
		l.byID[acc.ID] = acc
	}

	sorted := append([]accounting.PostedLine(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for _, line := range sorted {
		if _, ok := l.byID[line.AccountID]; !ok {
			return nil, fmt.Errorf("%w: id %d referenced by entry %d", accounting.ErrAccountNotFound, line.AccountID, line.EntryID)
		}
		act := l.activity[line.AccountID]
		if act == nil {
			act = &accountActivity{}
			l.activity[line.AccountID] = act
		}
		day := accounting.Day(line.Date)
		net := line.Debit.Sub(line.Credit)
		n := len(act.dates)
		switch {
		case n > 0 && act.dates[n-1].Equal(day):
			act.cum[n-1] = act.cum[n-1].Add(net)
		case n > 0:
			act.dates = append(act.dates, day)
			act.cum = append(act.cum, act.cum[n-1].Add(net))
		default:
			act.dates = append(act.dates, day)
			act.cum = append(act.cum, net)
		}
	}
	return l, nil
}

// Accounts returns the chart ordered by code.
func (l *Ledger) Accounts() []accounting.Account {
	return l.accounts
}

// Account looks an account up by id.
func (l *Ledger) Account(id int64) (accounting.Account, bool) {
	acc, ok := l.byID[id]
	return acc, ok
}

// Balance returns opening balance plus signed movement up to and including asOf.
func (l *Ledger) Balance(acc accounting.Account, asOf time.Time) decimal.Decimal {
	return acc.OpeningBalance.Add(signed(acc, l.rawUpTo(acc.ID, accounting.Day(asOf))))
}

// PeriodMovement returns the signed movement of lines dated inside r.
func (l *Ledger) PeriodMovement(acc accounting.Account, r accounting.DateRange) decimal.Decimal {
	from := accounting.Day(r.From).AddDate(0, 0, -1)
	raw := l.rawUpTo(acc.ID, accounting.Day(r.To)).Sub(l.rawUpTo(acc.ID, from))
	return signed(acc, raw)
}

// HasActivity reports whether any posted line touches acc inside r.
func (l *Ledger) HasActivity(acc accounting.Account, r accounting.DateRange) bool {
	act := l.activity[acc.ID]
	if act == nil {
		return false
	}
	from := accounting.Day(r.From)
	idx := sort.Search(len(act.dates), func(i int) bool { return !act.dates[i].Before(from) })
	return idx < len(act.dates) && !act.dates[idx].After(accounting.Day(r.To))
}

func (l *Ledger) rawUpTo(accountID int64, asOf time.Time) decimal.Decimal {
	act := l.activity[accountID]
	if act == nil {
		return decimal.Zero
	}
	idx := sort.Search(len(act.dates), func(i int) bool { return act.dates[i].After(asOf) })
	if idx == 0 {
		return decimal.Zero
	}
	return act.cum[idx-1]
}

func signed(acc accounting.Account, debitMinusCredit decimal.Decimal) decimal.Decimal {
	if accounting.NormalBalanceOf(acc.Type) == accounting.NormalCredit {
		return debitMinusCredit.Neg()
	}
	return debitMinusCredit
}

// Columns places a normal-signed balance in the trial balance columns.
// Negative balances flip to the opposite column so contra accounts need no
// special casing.
func Columns(acc accounting.Account, balance decimal.Decimal) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	normalDebit := accounting.NormalBalanceOf(acc.Type) == accounting.NormalDebit
	if balance.IsNegative() {
		normalDebit = !normalDebit
		balance = balance.Abs()
	}
	if normalDebit {
		return balance, credit
	}
	return debit, balance
}

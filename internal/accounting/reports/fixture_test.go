package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s got %s %v", want, got.String(), msgAndArgs)
}

func account(id int64, code, name string, typ accounting.AccountType, sub accounting.AccountSubType, opening string) accounting.Account {
	return accounting.Account{
		ID:             id,
		Code:           code,
		Name:           name,
		Type:           typ,
		SubType:        sub,
		OpeningBalance: dec(opening),
		IsActive:       true,
	}
}

// Chart used by most tests. Openings balance: 1000 cash + 6000 inventory
// against 7000 share capital.
var (
	acctCash       = account(1, "1000", "Cash", accounting.AccountTypeAsset, accounting.SubTypeCash, "1000")
	acctReceivable = account(2, "1100", "Accounts Receivable", accounting.AccountTypeAsset, accounting.SubTypeAccountsReceivable, "0")
	acctInventory  = account(3, "1200", "Inventory", accounting.AccountTypeAsset, accounting.SubTypeInventory, "6000")
	acctEquipment  = account(4, "1500", "Equipment", accounting.AccountTypeAsset, accounting.SubTypeFixedAssets, "0")
	acctAccumDep   = account(5, "1510", "Accumulated Depreciation", accounting.AccountTypeAsset, accounting.SubTypeAccumulatedDepreciation, "0")
	acctPayable    = account(6, "2000", "Accounts Payable", accounting.AccountTypeLiability, accounting.SubTypeAccountsPayable, "0")
	acctLoan       = account(7, "2500", "Bank Loan", accounting.AccountTypeLiability, accounting.SubTypeLongTermDebt, "0")
	acctCapital    = account(8, "3000", "Share Capital", accounting.AccountTypeEquity, accounting.SubTypeShareCapital, "7000")
	acctRetained   = account(9, "3100", "Retained Earnings", accounting.AccountTypeEquity, accounting.SubTypeRetainedEarnings, "0")
	acctDrawings   = account(10, "3200", "Drawings", accounting.AccountTypeEquity, accounting.SubTypeDrawings, "0")
	acctSales      = account(11, "4000", "Sales Revenue", accounting.AccountTypeRevenue, accounting.SubTypeSalesRevenue, "0")
	acctCOGS       = account(12, "5000", "Cost of Goods Sold", accounting.AccountTypeExpense, accounting.SubTypeCostOfGoodsSold, "0")
	acctSalaries   = account(13, "6000", "Salaries", accounting.AccountTypeExpense, accounting.SubTypeSalaries, "0")
	acctRent       = account(14, "6100", "Rent", accounting.AccountTypeExpense, accounting.SubTypeRent, "0")
	acctDepExpense = account(15, "6200", "Depreciation Expense", accounting.AccountTypeExpense, accounting.SubTypeDepreciation, "0")
)

func post(t *testing.T, store *memory.Store, on time.Time, debit, credit accounting.Account, amount string) {
	t.Helper()
	_, err := store.PostEntry(context.Background(), accounting.JournalEntry{
		Date:         on,
		SourceModule: "test",
		SourceID:     uuid.New(),
		Lines: []accounting.JournalLine{
			{AccountID: debit.ID, Debit: dec(amount), Credit: decimal.Zero},
			{AccountID: credit.ID, Debit: decimal.Zero, Credit: dec(amount)},
		},
	})
	require.NoError(t, err)
}

// newTradingStore seeds a small trading business:
//
//	January 2025: revenue 10000, COGS 4000, operating expenses 3000,
//	a 2000 equipment purchase, a 5000 loan and a 300 owner draw.
//	February 2025: 1500 cash sale and the January rent paid.
func newTradingStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for _, acc := range []accounting.Account{
		acctCash, acctReceivable, acctInventory, acctEquipment, acctAccumDep,
		acctPayable, acctLoan, acctCapital, acctRetained, acctDrawings,
		acctSales, acctCOGS, acctSalaries, acctRent, acctDepExpense,
	} {
		require.NoError(t, store.CreateAccount(ctx, acc))
	}

	post(t, store, date(2025, time.January, 5), acctCash, acctLoan, "5000")
	post(t, store, date(2025, time.January, 10), acctEquipment, acctCash, "2000")
	post(t, store, date(2025, time.January, 15), acctReceivable, acctSales, "10000")
	post(t, store, date(2025, time.January, 16), acctCOGS, acctInventory, "4000")
	post(t, store, date(2025, time.January, 20), acctCash, acctReceivable, "6000")
	post(t, store, date(2025, time.January, 25), acctSalaries, acctCash, "2000")
	post(t, store, date(2025, time.January, 26), acctRent, acctPayable, "800")
	post(t, store, date(2025, time.January, 31), acctDepExpense, acctAccumDep, "200")
	post(t, store, date(2025, time.January, 31), acctDrawings, acctCash, "300")

	post(t, store, date(2025, time.February, 10), acctCash, acctSales, "1500")
	post(t, store, date(2025, time.February, 20), acctPayable, acctCash, "800")
	return store
}

func ledgerFrom(t *testing.T, store *memory.Store) *Ledger {
	t.Helper()
	ctx := context.Background()
	accounts, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	lines, err := store.ListPostedLines(ctx, accounting.DateRange{To: date(2100, time.January, 1)})
	require.NoError(t, err)
	ledger, err := NewLedger(accounts, lines)
	require.NoError(t, err)
	return ledger
}

func january() accounting.DateRange {
	return accounting.NewDateRange(date(2025, time.January, 1), date(2025, time.January, 31))
}

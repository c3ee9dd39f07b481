package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s got %s", want, got.String())
}

func TestAgingScenarioFortyThreeDaysPastDue(t *testing.T) {
	inv := ar.Invoice{
		ID:          1,
		CustomerID:  10,
		InvoiceDate: date(2025, time.January, 1),
		DueDate:     date(2025, time.January, 31),
		Total:       dec("1000"),
		BalanceDue:  dec("1000"),
		Status:      ar.StatusPosted,
	}
	today := date(2025, time.March, 15)
	require.Equal(t, 43, DaysPastDue(inv, today))

	report := BuildAging([]ar.Invoice{inv}, today)
	bucket, ok := report.Bucket(Bucket31To60)
	require.True(t, ok)
	require.Equal(t, 1, bucket.Count)
	requireDec(t, "1000", bucket.Amount)
	requireDec(t, "100", bucket.Percent)
	requireDec(t, "1000", report.TotalOutstanding)
}

func TestBucketBoundaries(t *testing.T) {
	cases := map[int]string{
		-5: BucketCurrent,
		0:  BucketCurrent,
		1:  Bucket1To30,
		30: Bucket1To30,
		31: Bucket31To60,
		60: Bucket31To60,
		61: Bucket61To90,
		90: Bucket61To90,
		91: BucketOver90,
	}
	for days, want := range cases {
		require.Equalf(t, want, BucketFor(days), "days=%d", days)
	}
}

func TestBuildAgingGroupsCustomers(t *testing.T) {
	paidAt := date(2025, time.March, 1)
	invoices := []ar.Invoice{
		{ID: 1, CustomerID: 1, CustomerName: "Acme", DueDate: date(2025, time.March, 20), Total: dec("200"), BalanceDue: dec("200"), Status: ar.StatusPosted},
		{ID: 2, CustomerID: 1, CustomerName: "Acme", DueDate: date(2025, time.March, 1), Total: dec("400"), PaidAmount: dec("100"), BalanceDue: dec("300"), Status: ar.StatusPartial},
		{ID: 3, CustomerID: 2, CustomerName: "Globex", DueDate: date(2024, time.December, 1), Total: dec("600"), BalanceDue: dec("600"), Status: ar.StatusPosted},
		{ID: 4, CustomerID: 2, CustomerName: "Globex", DueDate: date(2024, time.December, 1), Total: dec("900"), PaidAmount: dec("900"), BalanceDue: decimal.Zero, Status: ar.StatusPaid, PaidAt: &paidAt},
		{ID: 5, CustomerID: 3, CustomerName: "Initech", DueDate: date(2024, time.November, 1), Total: dec("700"), BalanceDue: dec("700"), Status: ar.StatusVoid},
	}
	report := BuildAging(invoices, date(2025, time.March, 15))

	requireDec(t, "1100", report.TotalOutstanding)
	require.Equal(t, 3, report.InvoiceCount)
	require.Len(t, report.Buckets, 5)

	current, _ := report.Bucket(BucketCurrent)
	requireDec(t, "200", current.Amount)
	requireDec(t, "18.18", current.Percent)
	early, _ := report.Bucket(Bucket1To30)
	requireDec(t, "300", early.Amount)
	requireDec(t, "27.27", early.Percent)
	old, _ := report.Bucket(BucketOver90)
	requireDec(t, "600", old.Amount)
	requireDec(t, "54.55", old.Percent)
	mid, _ := report.Bucket(Bucket61To90)
	require.Zero(t, mid.Count)
	requireDec(t, "0", mid.Percent)

	require.Len(t, report.Customers, 2)
	require.Equal(t, "Globex", report.Customers[0].CustomerName)
	requireDec(t, "600", report.Customers[0].Total)
	require.Equal(t, "Acme", report.Customers[1].CustomerName)
	requireDec(t, "500", report.Customers[1].Total)
	requireDec(t, "60", report.Customers[1].Buckets[1].Percent)
}

func TestBuildAgingEmpty(t *testing.T) {
	report := BuildAging(nil, date(2025, time.March, 15))
	requireDec(t, "0", report.TotalOutstanding)
	for _, b := range report.Buckets {
		requireDec(t, "0", b.Percent)
	}
	require.Empty(t, report.Customers)
}

func TestBuildCollectionEfficiency(t *testing.T) {
	paidEarly := date(2025, time.January, 25)
	paidLate := date(2025, time.February, 25)
	invoices := []ar.Invoice{
		{ID: 1, InvoiceDate: date(2025, time.January, 5), DueDate: date(2025, time.February, 4), Total: dec("1000"), PaidAmount: dec("1000"), Status: ar.StatusPaid, PaidAt: &paidEarly},
		{ID: 2, InvoiceDate: date(2025, time.January, 20), DueDate: date(2025, time.February, 19), Total: dec("500"), PaidAmount: dec("500"), Status: ar.StatusPaid, PaidAt: &paidLate},
		{ID: 3, InvoiceDate: date(2025, time.February, 10), DueDate: date(2025, time.March, 12), Total: dec("1000"), PaidAmount: dec("250"), Status: ar.StatusPartial},
		{ID: 4, InvoiceDate: date(2025, time.February, 11), DueDate: date(2025, time.March, 13), Total: dec("700"), Status: ar.StatusVoid},
	}
	rng := accounting.NewDateRange(date(2025, time.January, 1), date(2025, time.February, 28))
	ce := BuildCollectionEfficiency(invoices, rng)

	require.Equal(t, 3, ce.InvoiceCount)
	requireDec(t, "2500", ce.TotalInvoiced)
	requireDec(t, "1750", ce.TotalCollected)
	requireDec(t, "70", ce.CollectionRate)
	require.Equal(t, 2, ce.PaidCount)
	requireDec(t, "28", ce.AverageDaysToPayment)
	require.Equal(t, 1, ce.OnTimeCount)
	requireDec(t, "50", ce.OnTimePaymentRate)

	require.Len(t, ce.Trend, 2)
	require.Equal(t, "2025-01", ce.Trend[0].Period)
	requireDec(t, "1500", ce.Trend[0].Invoiced)
	requireDec(t, "100", ce.Trend[0].Rate)
	require.Equal(t, "2025-02", ce.Trend[1].Period)
	requireDec(t, "1000", ce.Trend[1].Invoiced)
	requireDec(t, "25", ce.Trend[1].Rate)
}

func TestCollectionEfficiencyIgnoresPaymentsAfterRange(t *testing.T) {
	paid := date(2025, time.April, 2)
	invoices := []ar.Invoice{
		{ID: 1, InvoiceDate: date(2025, time.March, 5), DueDate: date(2025, time.April, 4), Total: dec("100"), PaidAmount: dec("100"), Status: ar.StatusPaid, PaidAt: &paid},
	}
	ce := BuildCollectionEfficiency(invoices, accounting.NewDateRange(date(2025, time.March, 1), date(2025, time.March, 31)))
	require.Zero(t, ce.PaidCount)
	requireDec(t, "0", ce.AverageDaysToPayment)
	requireDec(t, "0", ce.OnTimePaymentRate)
	requireDec(t, "100", ce.CollectionRate)
}

func TestCollectionEfficiencyZeroActivity(t *testing.T) {
	ce := BuildCollectionEfficiency(nil, accounting.NewDateRange(date(2025, time.March, 1), date(2025, time.March, 31)))
	requireDec(t, "0", ce.CollectionRate)
	requireDec(t, "0", ce.AverageDaysToPayment)
	requireDec(t, "0", ce.OnTimePaymentRate)
	require.Len(t, ce.Trend, 1)
	requireDec(t, "0", ce.Trend[0].Rate)
}

func TestCollectionEfficiencyCountsEarlierInvoicesPaidInRange(t *testing.T) {
	paid := date(2025, time.January, 10)
	invoices := []ar.Invoice{
		{ID: 1, InvoiceDate: date(2024, time.December, 20), DueDate: date(2025, time.January, 19), Total: dec("400"), PaidAmount: dec("400"), Status: ar.StatusPaid, PaidAt: &paid},
	}
	ce := BuildCollectionEfficiency(invoices, accounting.NewDateRange(date(2025, time.January, 1), date(2025, time.January, 31)))

	require.Zero(t, ce.InvoiceCount)
	requireDec(t, "0", ce.TotalInvoiced)
	require.Equal(t, 1, ce.PaidCount)
	requireDec(t, "21", ce.AverageDaysToPayment)
	require.Equal(t, 1, ce.OnTimeCount)
	requireDec(t, "100", ce.OnTimePaymentRate)
}

func TestDaysPastDueAcrossCenturies(t *testing.T) {
	inv := ar.Invoice{
		ID:          1,
		InvoiceDate: date(1499, time.December, 1),
		DueDate:     date(1500, time.January, 1),
		Total:       dec("10"),
		BalanceDue:  dec("10"),
		Status:      ar.StatusPosted,
	}
	asOf := date(2100, time.January, 1)
	require.Equal(t, 219146, DaysPastDue(inv, asOf))

	bucket, ok := BuildAging([]ar.Invoice{inv}, asOf).Bucket(BucketOver90)
	require.True(t, ok)
	require.Equal(t, 1, bucket.Count)
}

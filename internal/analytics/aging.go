package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/finstat/internal/accounting"
	"github.com/odyssey-erp/finstat/internal/ar"
)

// Aging bucket labels in report order.
const (
	BucketCurrent = "CURRENT"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = "90+"
)

var bucketOrder = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// AgingBucket summarises outstanding invoices inside a days-past-due band.
type AgingBucket struct {
	Bucket  string
	Count   int
	Amount  decimal.Decimal
	Percent decimal.Decimal
}

// CustomerAging applies the same bucketing to a single customer.
type CustomerAging struct {
	CustomerID   int64
	CustomerName string
	Buckets      []AgingBucket
	Total        decimal.Decimal
}

// AgingReport is the receivables aging as of a date.
type AgingReport struct {
	AsOf             time.Time
	Buckets          []AgingBucket
	TotalOutstanding decimal.Decimal
	InvoiceCount     int
	Customers        []CustomerAging
}

// DaysPastDue counts civil days from the due date to asOf. Zero or negative
// means the invoice is not yet overdue.
func DaysPastDue(inv ar.Invoice, asOf time.Time) int {
	return accounting.DaysBetween(inv.DueDate, asOf)
}

// BucketFor maps days past due to its bucket label.
func BucketFor(days int) string {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1To30
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

type bucketSet map[string]*AgingBucket

func newBucketSet() bucketSet {
	set := make(bucketSet, len(bucketOrder))
	for _, name := range bucketOrder {
		set[name] = &AgingBucket{Bucket: name, Amount: decimal.Zero, Percent: decimal.Zero}
	}
	return set
}

func (b bucketSet) add(name string, amount decimal.Decimal) {
	bucket := b[name]
	bucket.Count++
	bucket.Amount = bucket.Amount.Add(amount)
}

func (b bucketSet) list(total decimal.Decimal) []AgingBucket {
	out := make([]AgingBucket, 0, len(bucketOrder))
	for _, name := range bucketOrder {
		bucket := *b[name]
		bucket.Percent = percentOf(bucket.Amount, total)
		out = append(out, bucket)
	}
	return out
}

// BuildAging buckets outstanding invoices by days past due at asOf. Void,
// cancelled and fully paid invoices are ignored.
func BuildAging(invoices []ar.Invoice, asOf time.Time) AgingReport {
	asOf = accounting.Day(asOf)
	report := AgingReport{AsOf: asOf, TotalOutstanding: decimal.Zero}

	totals := newBucketSet()
	type customerRow struct {
		id      int64
		name    string
		buckets bucketSet
		total   decimal.Decimal
	}
	customers := make(map[int64]*customerRow)

	for _, inv := range invoices {
		if !inv.Outstanding() {
			continue
		}
		bucket := BucketFor(DaysPastDue(inv, asOf))
		totals.add(bucket, inv.BalanceDue)
		report.TotalOutstanding = report.TotalOutstanding.Add(inv.BalanceDue)
		report.InvoiceCount++

		row, ok := customers[inv.CustomerID]
		if !ok {
			row = &customerRow{id: inv.CustomerID, name: inv.CustomerName, buckets: newBucketSet(), total: decimal.Zero}
			customers[inv.CustomerID] = row
		}
		row.buckets.add(bucket, inv.BalanceDue)
		row.total = row.total.Add(inv.BalanceDue)
	}

	report.Buckets = totals.list(report.TotalOutstanding)
	for _, row := range customers {
		report.Customers = append(report.Customers, CustomerAging{
			CustomerID:   row.id,
			CustomerName: row.name,
			Buckets:      row.buckets.list(row.total),
			Total:        row.total,
		})
	}
	sort.Slice(report.Customers, func(i, j int) bool {
		a, b := report.Customers[i], report.Customers[j]
		if cmp := a.Total.Cmp(b.Total); cmp != 0 {
			return cmp > 0
		}
		return a.CustomerID < b.CustomerID
	})
	return report
}

// Bucket returns a bucket by label.
func (r AgingReport) Bucket(name string) (AgingBucket, bool) {
	for _, b := range r.Buckets {
		if b.Bucket == name {
			return b, true
		}
	}
	return AgingBucket{}, false
}

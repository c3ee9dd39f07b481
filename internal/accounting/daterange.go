package accounting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var rangeValidator = validator.New()

// DateRange is an inclusive window of civil dates.
type DateRange struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDateRange normalises both bounds to civil dates.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: Day(from), To: Day(to)}
}

// Validate reports ErrInvalidRange for missing or inverted bounds.
func (r DateRange) Validate() error {
	if err := rangeValidator.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return nil
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(Day(r.From)) && !d.After(Day(r.To))
}

// Days returns the inclusive number of days in the range.
func (r DateRange) Days() int {
	return DaysBetween(r.From, r.To) + 1
}

// DaysBetween counts civil days from a to b, negative when b is earlier. It
// works on day numbers so spans beyond time.Duration's range stay exact.
func DaysBetween(a, b time.Time) int {
	return int(dayNumber(b) - dayNumber(a))
}

func dayNumber(t time.Time) int64 {
	return Day(t).Unix() / 86400
}

// Preceding returns the range of equal length ending the day before From.
func (r DateRange) Preceding() DateRange {
	to := Day(r.From).AddDate(0, 0, -1)
	return DateRange{From: to.AddDate(0, 0, -(r.Days() - 1)), To: to}
}

// ShiftYears moves both bounds by n years.
func (r DateRange) ShiftYears(n int) DateRange {
	return DateRange{From: Day(r.From).AddDate(n, 0, 0), To: Day(r.To).AddDate(n, 0, 0)}
}

// Months splits the range into calendar months clipped to its bounds.
func (r DateRange) Months() []DateRange {
	from, to := Day(r.From), Day(r.To)
	if from.After(to) {
		return nil
	}
	var out []DateRange
	cursor := from
	for !cursor.After(to) {
		monthEnd := time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		if monthEnd.After(to) {
			monthEnd = to
		}
		out = append(out, DateRange{From: cursor, To: monthEnd})
		cursor = monthEnd.AddDate(0, 0, 1)
	}
	return out
}

// Weeks splits the range into Monday-to-Sunday weeks clipped to its bounds.
func (r DateRange) Weeks() []DateRange {
	from, to := Day(r.From), Day(r.To)
	var out []DateRange
	for cursor := from; !cursor.After(to); {
		offset := (int(cursor.Weekday()) + 6) % 7
		weekEnd := cursor.AddDate(0, 0, 6-offset)
		if weekEnd.After(to) {
			weekEnd = to
		}
		out = append(out, DateRange{From: cursor, To: weekEnd})
		cursor = weekEnd.AddDate(0, 0, 1)
	}
	return out
}

// DaysSplit returns one single-day range per day of the range.
func (r DateRange) DaysSplit() []DateRange {
	from, to := Day(r.From), Day(r.To)
	var out []DateRange
	for cursor := from; !cursor.After(to); cursor = cursor.AddDate(0, 0, 1) {
		out = append(out, DateRange{From: cursor, To: cursor})
	}
	return out
}

// Granularity selects the sub-window size of a trend.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// ErrInvalidGranularity indicates an unknown trend bucket size.
var ErrInvalidGranularity = errors.New("accounting: invalid trend granularity")

// ParseGranularity accepts daily, weekly or monthly; empty means monthly.
func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return GranularityMonthly, nil
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, raw)
}

// Split cuts the range into sub-windows of size g. An empty g is monthly.
func (r DateRange) Split(g Granularity) ([]DateRange, error) {
	switch g {
	case GranularityDaily:
		return r.DaysSplit(), nil
	case GranularityWeekly:
		return r.Weeks(), nil
	case GranularityMonthly, "":
		return r.Months(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, string(g))
}

// PeriodLabel names a sub-window produced by Split: YYYY-MM, YYYY-Www or
// YYYY-MM-DD.
func (g Granularity) PeriodLabel(r DateRange) string {
	switch g {
	case GranularityDaily:
		return r.From.Format("2006-01-02")
	case GranularityWeekly:
		year, week := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return r.Label()
}

// Label renders the range's starting month as YYYY-MM.
func (r DateRange) Label() string {
	return r.From.Format("2006-01")
}

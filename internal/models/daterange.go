package models

import "time"

// isoMillis matches the ISO-8601 form the billing API documents for query bounds.
const isoMillis = "2006-01-02T15:04:05.000Z"

// DateRange is a half-open UTC interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// FromParam serializes the lower bound for a query string.
func (r DateRange) FromParam() string {
	return r.From.UTC().Format(isoMillis)
}

// ToParam serializes the upper bound for a query string.
func (r DateRange) ToParam() string {
	return r.To.UTC().Format(isoMillis)
}

// Days returns the number of whole days covered by the range.
func (r DateRange) Days() int {
	if !r.To.After(r.From) {
		return 0
	}
	return int(r.To.Sub(r.From).Hours() / 24)
}

// String returns a human readable form of the range.
func (r DateRange) String() string {
	if r.From.IsZero() && r.To.IsZero() {
		return "-"
	}
	return r.From.UTC().Format("Jan 2, 2006") + " → " + r.To.UTC().Format("Jan 2, 2006")
}

package db

import "time"

const (
	// timeLayout is how timestamps are stored; it sorts lexicographically and
	// is understood by SQLite's date functions.
	timeLayout = "2006-01-02 15:04:05"

	// CallRetention is how long upstream call log rows are kept.
	CallRetention = 7 * 24 * time.Hour
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

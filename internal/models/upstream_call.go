package models

import "time"

// UpstreamCall represents one request made to the billing API (DB model).
type UpstreamCall struct {
	Timestamp  time.Time
	Endpoint   string
	Error      string
	ID         int64
	StatusCode int
	DurationMs int64
	CacheHit   bool
}

// Failed reports whether the call ended with an error.
func (c UpstreamCall) Failed() bool {
	return c.Error != "" || c.StatusCode >= 400
}

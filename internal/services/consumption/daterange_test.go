package consumption

import (
	"testing"
	"time"
)

func TestLastThirtyDays(t *testing.T) {
	tests := []struct {
		now      time.Time
		name     string
		wantFrom string
		wantTo   string
	}{
		{
			name:     "mid day utc",
			now:      time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC),
			wantFrom: "2026-09-16T00:00:00.000Z",
			wantTo:   "2026-10-17T00:00:00.000Z",
		},
		{
			name:     "just before midnight",
			now:      time.Date(2026, 10, 16, 23, 59, 59, 999, time.UTC),
			wantFrom: "2026-09-16T00:00:00.000Z",
			wantTo:   "2026-10-17T00:00:00.000Z",
		},
		{
			name:     "month and year boundary",
			now:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantFrom: "2025-12-02T00:00:00.000Z",
			wantTo:   "2026-01-02T00:00:00.000Z",
		},
		{
			name:     "non utc clock uses utc date",
			now:      time.Date(2026, 10, 16, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)),
			wantFrom: "2026-09-17T00:00:00.000Z",
			wantTo:   "2026-10-18T00:00:00.000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := LastThirtyDays(tt.now)
			if got := rng.FromParam(); got != tt.wantFrom {
				t.Errorf("FromParam() = %q, want %q", got, tt.wantFrom)
			}
			if got := rng.ToParam(); got != tt.wantTo {
				t.Errorf("ToParam() = %q, want %q", got, tt.wantTo)
			}
			if got := rng.Days(); got != WindowDays+1 {
				t.Errorf("Days() = %d, want %d", got, WindowDays+1)
			}
		})
	}
}

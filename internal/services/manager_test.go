package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/neon-usage-tui/internal/config"
	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/services/consumption"
	"github.com/j-veylop/neon-usage-tui/internal/services/filter"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	return &config.Config{
		APIKey:       "test-key",
		OrgID:        "org-test",
		BaseURL:      "http://127.0.0.1:1/api/v2",
		DatabasePath: filepath.Join(tmpDir, "cache.db"),
		FilterPath:   filepath.Join(tmpDir, "filter.json"),
		CacheTTL:     15 * time.Minute,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

// nextEvent waits for the first subscriber event matching keep.
func nextEvent(t *testing.T, ch <-chan ServiceEvent, keep func(ServiceEvent) bool) ServiceEvent {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if keep(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t)

	assert.NotNil(t, mgr.Consumption())
	assert.NotNil(t, mgr.Filter())
	assert.NotNil(t, mgr.Database())
	assert.NotNil(t, mgr.Projection())
	assert.Equal(t, "org-test", mgr.Config().OrgID)
	assert.Equal(t, "org-test", mgr.Consumption().OrgID())
}

func TestNewManager_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabasePath = t.TempDir() // a directory cannot be opened as a database file

	_, err := NewManager(cfg)
	assert.Error(t, err)
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t)

	ch := mgr.Subscribe()
	require.NotNil(t, ch)

	require.NoError(t, mgr.Close())

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	default:
		t.Error("channel should be closed after Close")
	}
}

func TestManager_FilterChangeRouted(t *testing.T) {
	mgr := newTestManager(t)
	ch := mgr.Subscribe()

	require.NoError(t, mgr.Filter().Set([]string{"proj-2", "proj-1"}))

	ev := nextEvent(t, ch, func(ev ServiceEvent) bool {
		_, ok := ev.(FilterChangedEvent)
		return ok
	})
	assert.Equal(t, []string{"proj-1", "proj-2"}, ev.(FilterChangedEvent).ProjectIDs)
}

func TestManager_UsageErrorRoutedWithSeq(t *testing.T) {
	mgr := newTestManager(t)
	ch := mgr.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := mgr.LoadUsage(ctx, nil)
	require.Error(t, err)

	var reqErr *consumption.RequestError
	require.True(t, errors.As(err, &reqErr))

	ev := nextEvent(t, ch, func(ev ServiceEvent) bool {
		_, ok := ev.(ErrorEvent)
		return ok
	})
	errEv := ev.(ErrorEvent)
	assert.Equal(t, "consumption", errEv.Service)
	assert.Equal(t, reqErr.Seq, errEv.Seq)

	calls, err := mgr.RecentCalls(5)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Failed())
}

func TestManager_HandleConsumptionEvent(t *testing.T) {
	mgr := newTestManager(t)
	ch := mgr.Subscribe()

	result := &models.UsageResult{Seq: 7}
	mgr.handleConsumptionEvent(consumption.Event{Type: consumption.EventUsageUpdated, Result: result})
	mgr.handleConsumptionEvent(consumption.Event{
		Type:     consumption.EventProjectsLoaded,
		Projects: []models.Project{{ID: "p1", Name: "alpha"}},
	})

	updated := nextEvent(t, ch, func(ev ServiceEvent) bool {
		_, ok := ev.(UsageUpdatedEvent)
		return ok
	})
	assert.Equal(t, uint64(7), updated.(UsageUpdatedEvent).Result.Seq)

	loaded := nextEvent(t, ch, func(ev ServiceEvent) bool {
		_, ok := ev.(ProjectsLoadedEvent)
		return ok
	})
	assert.Len(t, loaded.(ProjectsLoadedEvent).Projects, 1)
}

func TestManager_HandleFilterError(t *testing.T) {
	mgr := newTestManager(t)
	ch := mgr.Subscribe()

	mgr.handleFilterEvent(filter.Event{Type: filter.EventError, Error: errors.New("bad file")})

	ev := nextEvent(t, ch, func(ev ServiceEvent) bool {
		e, ok := ev.(ErrorEvent)
		return ok && e.Service == "filter"
	})
	assert.EqualError(t, ev.(ErrorEvent).Error, "bad file")
}

func TestManager_ComputeAlert(t *testing.T) {
	hoursResult := func(seq uint64, hours float64) *models.UsageResult {
		return &models.UsageResult{
			Seq:     seq,
			Records: []models.DailyUsage{{Date: "2026-10-01T00:00:00Z", Compute: hours * 3600}},
		}
	}

	tests := []struct {
		name      string
		sequence  []float64
		limit     float64
		wantCalls int
	}{
		{name: "disabled", limit: 0, sequence: []float64{1, 200}, wantCalls: 0},
		{name: "first result never alerts", limit: 10, sequence: []float64{50}, wantCalls: 0},
		{name: "upward crossing", limit: 10, sequence: []float64{5, 12}, wantCalls: 1},
		{name: "stays above", limit: 10, sequence: []float64{5, 12, 15}, wantCalls: 1},
		{name: "crosses twice", limit: 10, sequence: []float64{5, 12, 3, 11}, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newTestManager(t)
			mgr.cfg.ComputeAlertHours = tt.limit

			calls := 0
			mgr.notify = func(title, message string) error {
				calls++
				assert.Contains(t, title, "compute budget")
				return nil
			}

			for i, h := range tt.sequence {
				mgr.checkComputeAlert(hoursResult(uint64(i+1), h))
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestManager_ComputeAlertIgnoresFilteredResults(t *testing.T) {
	mgr := newTestManager(t)
	mgr.cfg.ComputeAlertHours = 10

	calls := 0
	mgr.notify = func(string, string) error {
		calls++
		return nil
	}

	mgr.checkComputeAlert(&models.UsageResult{Records: []models.DailyUsage{{Compute: 3600}}})
	mgr.checkComputeAlert(&models.UsageResult{
		Records:    []models.DailyUsage{{Compute: 20 * 3600}},
		ProjectIDs: []string{"p1"},
	})
	assert.Zero(t, calls)
}

func TestManager_ComputeAlertIgnoresStaleResults(t *testing.T) {
	mgr := newTestManager(t)
	mgr.cfg.ComputeAlertHours = 10

	calls := 0
	mgr.notify = func(string, string) error {
		calls++
		return nil
	}

	hours := func(seq uint64, h float64) *models.UsageResult {
		return &models.UsageResult{Seq: seq, Records: []models.DailyUsage{{Compute: h * 3600}}}
	}

	mgr.checkComputeAlert(hours(1, 5))
	mgr.checkComputeAlert(hours(3, 12))
	assert.Equal(t, 1, calls)

	// A slower, older request lands late and must not reset the baseline.
	mgr.checkComputeAlert(hours(2, 5))
	mgr.checkComputeAlert(hours(4, 13))
	assert.Equal(t, 1, calls)
}

func TestManager_ClearCache(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.Database().PutCachedResponse("k", []byte("v")))
	require.NoError(t, mgr.ClearCache())

	_, ok, err := mgr.Database().GetCachedResponse("k", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_CallStats(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, mgr.Database().InsertUpstreamCall(&models.UpstreamCall{
		Timestamp: time.Now(), Endpoint: "/projects", StatusCode: 200, DurationMs: 40,
	}))
	require.NoError(t, mgr.Database().InsertUpstreamCall(&models.UpstreamCall{
		Timestamp: time.Now(), Endpoint: "/projects", CacheHit: true,
	}))

	stats, err := mgr.CallStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.CacheHits)
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr, err := NewManager(testConfig(t))
	require.NoError(t, err)

	assert.NoError(t, mgr.Close())
	assert.NoError(t, mgr.Close())
}

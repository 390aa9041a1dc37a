package consumption

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/neon-usage-tui/internal/models"
)

const exampleBody = `{"projects": [{"project_id": "proj-1", "periods": [{"consumption": [
	{"timeframe_start": "2026-10-01T00:00:00Z", "metrics": [
		{"metric_name": "compute_unit_seconds", "value": 3600},
		{"metric_name": "root_branch_bytes_month", "value": 2147483648}
	]},
	{"timeframe_start": "2026-10-02T00:00:00Z", "metrics": [
		{"metric_name": "compute_unit_seconds", "value": 1800},
		{"metric_name": "public_network_transfer_bytes", "value": 536870912}
	]}
]}]}]}`

type fakeUpstream struct {
	consumptionErr error
	projectsErr    error
	lastIDs        []string
	lastRange      models.DateRange
	projects       []models.Project
	body           string
	mu             sync.Mutex
	consumption    int
	projectCalls   int
}

func (f *fakeUpstream) FetchConsumption(
	_ context.Context, _ string, rng models.DateRange, ids []string,
) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumption++
	f.lastIDs = ids
	f.lastRange = rng
	if f.consumptionErr != nil {
		return nil, f.consumptionErr
	}
	return []byte(f.body), nil
}

func (f *fakeUpstream) FetchProjects(_ context.Context, _ string) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projectCalls++
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) GetCachedResponse(key string, _ time.Duration) ([]byte, bool, error) {
	body, ok := c.entries[key]
	return body, ok, nil
}

func (c *memCache) PutCachedResponse(key string, body []byte) error {
	c.entries[key] = body
	return nil
}

type callLog struct {
	calls []models.UpstreamCall
}

func (l *callLog) InsertUpstreamCall(call *models.UpstreamCall) error {
	l.calls = append(l.calls, *call)
	return nil
}

type staticFilter []string

func (f staticFilter) Selected() []string { return f }

func fixedNow() time.Time {
	return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
}

func newTestService(up Upstream, cache ResponseCache, calls CallRecorder, ttl time.Duration) *Service {
	s := New(up, cache, calls, Config{OrgID: "org-1", CacheTTL: ttl})
	s.now = fixedNow
	return s
}

func TestService_Usage(t *testing.T) {
	up := &fakeUpstream{body: exampleBody}
	s := newTestService(up, nil, nil, 0)

	result, err := s.Usage(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []models.DailyUsage{
		{Date: "2026-10-01T00:00:00Z", Compute: 3600, StorageRoot: 2},
		{Date: "2026-10-02T00:00:00Z", Compute: 1800, DataTransfer: 0.5},
	}, result.Records)
	assert.Equal(t, LastThirtyDays(fixedNow()), result.Range)
	assert.Equal(t, LastThirtyDays(fixedNow()), up.lastRange)
	assert.Nil(t, result.ProjectIDs)
	assert.Nil(t, up.lastIDs)
	assert.False(t, result.FromCache)
	assert.Equal(t, uint64(1), result.Seq)
}

func TestService_Usage_FilterNormalized(t *testing.T) {
	up := &fakeUpstream{body: `{}`}
	s := newTestService(up, nil, nil, 0)

	result, err := s.Usage(context.Background(), []string{" p2", "p1", "", "p2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2"}, up.lastIDs)
	assert.Equal(t, []string{"p1", "p2"}, result.ProjectIDs)
	assert.True(t, result.Filtered())
	assert.Empty(t, result.Records)
}

func TestService_Usage_SeqIncreases(t *testing.T) {
	s := newTestService(&fakeUpstream{body: `{}`}, nil, nil, 0)

	first, err := s.Usage(context.Background(), nil)
	require.NoError(t, err)
	second, err := s.Usage(context.Background(), []string{"p1"})
	require.NoError(t, err)

	assert.Greater(t, second.Seq, first.Seq)
}

func TestService_Usage_Errors(t *testing.T) {
	tests := []struct {
		up     *fakeUpstream
		target error
		name   string
	}{
		{
			name:   "api error",
			up:     &fakeUpstream{consumptionErr: &APIError{StatusCode: http.StatusForbidden}},
			target: nil,
		},
		{
			name:   "malformed payload",
			up:     &fakeUpstream{body: `{"projects": "nope"}`},
			target: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(tt.up, nil, nil, 0)

			result, err := s.Usage(context.Background(), nil)
			require.Error(t, err)
			assert.Nil(t, result)

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, uint64(1), reqErr.Seq)

			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			} else {
				var apiErr *APIError
				assert.True(t, errors.As(err, &apiErr))
			}
		})
	}
}

func TestService_Usage_Cache(t *testing.T) {
	up := &fakeUpstream{body: exampleBody}
	cache := newMemCache()
	calls := &callLog{}
	s := newTestService(up, cache, calls, 15*time.Minute)

	first, err := s.Usage(context.Background(), []string{"proj-1"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := s.Usage(context.Background(), []string{"proj-1"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, 1, up.consumption)

	// A different filter is a different cache entry.
	_, err = s.Usage(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, up.consumption)

	require.Len(t, calls.calls, 3)
	assert.False(t, calls.calls[0].CacheHit)
	assert.Equal(t, 200, calls.calls[0].StatusCode)
	assert.True(t, calls.calls[1].CacheHit)
	assert.Equal(t, "consumption", calls.calls[2].Endpoint)
}

func TestService_Usage_CacheDisabled(t *testing.T) {
	up := &fakeUpstream{body: exampleBody}
	cache := newMemCache()
	s := newTestService(up, cache, nil, 0)

	for range 2 {
		_, err := s.Usage(context.Background(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, up.consumption)
	assert.Empty(t, cache.entries)
}

func TestService_Usage_ErrorsNotCached(t *testing.T) {
	up := &fakeUpstream{consumptionErr: &APIError{StatusCode: http.StatusBadGateway}}
	cache := newMemCache()
	calls := &callLog{}
	s := newTestService(up, cache, calls, time.Hour)

	_, err := s.Usage(context.Background(), nil)
	require.Error(t, err)
	assert.Empty(t, cache.entries)

	require.Len(t, calls.calls, 1)
	assert.Equal(t, http.StatusBadGateway, calls.calls[0].StatusCode)
	assert.NotEmpty(t, calls.calls[0].Error)
	assert.True(t, calls.calls[0].Failed())
}

func TestService_Usage_MalformedBodyNotCached(t *testing.T) {
	up := &fakeUpstream{body: `{"projects":{"bad":1}}`}
	cache := newMemCache()
	s := newTestService(up, cache, nil, time.Hour)

	_, err := s.Usage(context.Background(), nil)
	require.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, cache.entries)

	up.body = exampleBody
	result, err := s.Usage(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, 2, up.consumption)
	assert.Len(t, cache.entries, 1)
}

func TestService_Usage_UnreadableCacheEntryRefetched(t *testing.T) {
	up := &fakeUpstream{body: exampleBody}
	cache := newMemCache()
	calls := &callLog{}
	s := newTestService(up, cache, calls, time.Hour)

	key := cacheKey("org-1", endpointConsumption, nil, LastThirtyDays(fixedNow()))
	cache.entries[key] = []byte(`not json`)

	result, err := s.Usage(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, up.consumption)
	assert.JSONEq(t, exampleBody, string(cache.entries[key]))

	require.Len(t, calls.calls, 1)
	assert.False(t, calls.calls[0].CacheHit)
}

func TestService_Projects(t *testing.T) {
	up := &fakeUpstream{projects: []models.Project{{ID: "p1", Name: "alpha"}}}
	cache := newMemCache()
	s := newTestService(up, cache, nil, time.Hour)

	got, err := s.Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Project{{ID: "p1", Name: "alpha"}}, got)

	cached, err := s.Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, cached)
	assert.Equal(t, 1, up.projectCalls)
}

func TestService_Projects_Empty(t *testing.T) {
	s := newTestService(&fakeUpstream{}, nil, nil, 0)

	got, err := s.Projects(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestService_Projects_Error(t *testing.T) {
	s := newTestService(&fakeUpstream{projectsErr: errors.New("boom")}, nil, nil, 0)

	_, err := s.Projects(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestService_Refresh_UsesFilterProvider(t *testing.T) {
	up := &fakeUpstream{body: `{}`}
	s := newTestService(up, nil, nil, 0)
	s.SetFilterProvider(staticFilter{"p9"})

	result, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p9"}, result.ProjectIDs)
}

func TestService_Events(t *testing.T) {
	s := newTestService(&fakeUpstream{body: exampleBody}, nil, nil, 0)

	_, err := s.Usage(context.Background(), nil)
	require.NoError(t, err)

	refreshing := <-s.Events()
	assert.Equal(t, EventUsageRefreshing, refreshing.Type)

	updated := <-s.Events()
	assert.Equal(t, EventUsageUpdated, updated.Type)
	require.NotNil(t, updated.Result)
	assert.Len(t, updated.Result.Records, 2)
}

func TestService_SendEventDropsOldest(t *testing.T) {
	s := newTestService(&fakeUpstream{}, nil, nil, 0)

	for range cap(s.eventChan) + 5 {
		s.sendEvent(Event{Type: EventUsageRefreshing})
	}
	s.sendEvent(Event{Type: EventProjectsLoaded})

	assert.Len(t, s.eventChan, cap(s.eventChan))
}

func TestService_CloseIdempotent(t *testing.T) {
	s := New(&fakeUpstream{}, nil, nil, Config{PollInterval: time.Hour})
	s.StartPolling()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestCacheKey(t *testing.T) {
	rng := LastThirtyDays(fixedNow())
	other := LastThirtyDays(fixedNow().AddDate(0, 0, 1))

	base := cacheKey("org", "consumption", []string{"a", "b"}, rng)
	assert.Len(t, base, 64)
	assert.Equal(t, base, cacheKey("org", "consumption", []string{"a", "b"}, rng))
	assert.NotEqual(t, base, cacheKey("org2", "consumption", []string{"a", "b"}, rng))
	assert.NotEqual(t, base, cacheKey("org", "projects", []string{"a", "b"}, rng))
	assert.NotEqual(t, base, cacheKey("org", "consumption", []string{"a"}, rng))
	assert.NotEqual(t, base, cacheKey("org", "consumption", []string{"a", "b"}, other))
}

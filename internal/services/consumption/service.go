package consumption

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

// Upstream is the part of the billing API the service depends on.
type Upstream interface {
	FetchConsumption(ctx context.Context, orgID string, rng models.DateRange, projectIDs []string) ([]byte, error)
	FetchProjects(ctx context.Context, orgID string) ([]models.Project, error)
}

// ResponseCache stores raw upstream bodies by key.
type ResponseCache interface {
	GetCachedResponse(key string, maxAge time.Duration) ([]byte, bool, error)
	PutCachedResponse(key string, body []byte) error
}

// CallRecorder records upstream requests for display.
type CallRecorder interface {
	InsertUpstreamCall(call *models.UpstreamCall) error
}

// FilterProvider supplies the project filter used by background refreshes.
type FilterProvider interface {
	Selected() []string
}

// Event represents a consumption service event.
type Event struct {
	Error    error
	Result   *models.UsageResult
	Projects []models.Project
	Type     EventType
}

// EventType defines the type of consumption event.
type EventType int

const (
	// EventUsageRefreshing indicates that a usage request has started.
	EventUsageRefreshing EventType = iota
	// EventUsageUpdated indicates that a usage request completed.
	EventUsageUpdated
	// EventUsageError indicates that a usage request failed.
	EventUsageError
	// EventProjectsLoaded indicates that the project list was fetched.
	EventProjectsLoaded
	// EventProjectsError indicates that listing projects failed.
	EventProjectsError
)

const (
	endpointConsumption = "consumption"
	endpointProjects    = "projects"
)

// Config holds configuration for the consumption service.
type Config struct {
	OrgID        string
	CacheTTL     time.Duration
	PollInterval time.Duration
}

// Service fetches, caches and aggregates consumption history.
type Service struct {
	upstream  Upstream
	cache     ResponseCache
	calls     CallRecorder
	filter    FilterProvider
	now       func() time.Time
	eventChan chan Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	config    Config
	seq       atomic.Uint64
}

// New creates a consumption service. cache and calls may be nil.
func New(upstream Upstream, cache ResponseCache, calls CallRecorder, config Config) *Service {
	return &Service{
		upstream:  upstream,
		cache:     cache,
		calls:     calls,
		now:       time.Now,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		config:    config,
	}
}

// SetFilterProvider sets where background refreshes read the project filter.
func (s *Service) SetFilterProvider(p FilterProvider) {
	s.filter = p
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// OrgID returns the organization the service reports on.
func (s *Service) OrgID() string {
	return s.config.OrgID
}

// Usage fetches the last thirty days of consumption, restricted to projectIDs
// when non-empty, and aggregates it into daily records. Each call is stamped
// with a sequence number taken before any I/O, so callers can discard results
// that finish after a newer request.
func (s *Service) Usage(ctx context.Context, projectIDs []string) (*models.UsageResult, error) {
	seq := s.seq.Add(1)
	ids := normalizeIDs(projectIDs)
	rng := LastThirtyDays(s.now())

	s.sendEvent(Event{Type: EventUsageRefreshing})

	var resp *models.ConsumptionResponse
	parse := func(body []byte) error {
		parsed, err := ParseConsumption(body)
		if err != nil {
			return err
		}
		resp = parsed
		return nil
	}

	key := cacheKey(s.config.OrgID, endpointConsumption, ids, rng)
	fromCache, err := s.fetchCached(ctx, endpointConsumption, key, func(ctx context.Context) ([]byte, error) {
		return s.upstream.FetchConsumption(ctx, s.config.OrgID, rng, ids)
	}, parse)
	if err != nil {
		return nil, s.usageError(seq, err)
	}

	result := &models.UsageResult{
		Records:    Aggregate(resp),
		Range:      rng,
		ProjectIDs: ids,
		FromCache:  fromCache,
		FetchedAt:  s.now(),
		Seq:        seq,
	}

	s.sendEvent(Event{Type: EventUsageUpdated, Result: result})
	return result, nil
}

// usageError wraps err with its request sequence and emits an error event.
func (s *Service) usageError(seq uint64, err error) error {
	wrapped := &RequestError{Seq: seq, Err: err}
	s.sendEvent(Event{Type: EventUsageError, Error: wrapped})
	return wrapped
}

// Projects lists the organization's projects.
func (s *Service) Projects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project

	key := cacheKey(s.config.OrgID, endpointProjects, nil, models.DateRange{})
	_, err := s.fetchCached(ctx, endpointProjects, key, func(ctx context.Context) ([]byte, error) {
		fetched, err := s.upstream.FetchProjects(ctx, s.config.OrgID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fetched)
	}, func(body []byte) error {
		if err := json.Unmarshal(body, &projects); err != nil {
			return fmt.Errorf("failed to decode projects: %w", err)
		}
		return nil
	})
	if err != nil {
		s.sendEvent(Event{Type: EventProjectsError, Error: err})
		return nil, err
	}

	if projects == nil {
		projects = []models.Project{}
	}

	s.sendEvent(Event{Type: EventProjectsLoaded, Projects: projects})
	return projects, nil
}

// Refresh re-runs Usage with the filter provider's current selection.
func (s *Service) Refresh(ctx context.Context) (*models.UsageResult, error) {
	var ids []string
	if s.filter != nil {
		ids = s.filter.Selected()
	}
	return s.Usage(ctx, ids)
}

// fetchCached serves a body from the cache when fresh, otherwise calls fetch.
// decode runs on every body before it is used; a fresh body is stored only
// after decode accepts it, and a cached body decode rejects counts as a miss.
// Every upstream call is recorded.
func (s *Service) fetchCached(
	ctx context.Context,
	endpoint, key string,
	fetch func(context.Context) ([]byte, error),
	decode func([]byte) error,
) (bool, error) {
	caching := s.cache != nil && s.config.CacheTTL > 0

	if caching {
		body, ok, err := s.cache.GetCachedResponse(key, s.config.CacheTTL)
		switch {
		case err != nil:
			logger.Warn("response cache read failed", "endpoint", endpoint, "error", err)
		case ok:
			if err := decode(body); err != nil {
				logger.Warn("ignoring unreadable cached response", "endpoint", endpoint, "error", err)
				break
			}
			s.record(endpoint, 0, 0, nil, true)
			return true, nil
		}
	}

	start := s.now()
	body, err := fetch(ctx)
	elapsed := s.now().Sub(start)

	status := 200
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	} else if err != nil {
		status = 0
	}
	s.record(endpoint, status, elapsed, err, false)

	if err != nil {
		return false, err
	}
	if err := decode(body); err != nil {
		return false, err
	}

	if caching {
		if err := s.cache.PutCachedResponse(key, body); err != nil {
			logger.Warn("response cache write failed", "endpoint", endpoint, "error", err)
		}
	}
	return false, nil
}

func (s *Service) record(endpoint string, status int, elapsed time.Duration, err error, cacheHit bool) {
	if s.calls == nil {
		return
	}
	call := &models.UpstreamCall{
		Timestamp:  s.now(),
		Endpoint:   endpoint,
		StatusCode: status,
		DurationMs: elapsed.Milliseconds(),
		CacheHit:   cacheHit,
	}
	if err != nil {
		call.Error = err.Error()
	}
	if err := s.calls.InsertUpstreamCall(call); err != nil {
		logger.Warn("failed to record upstream call", "endpoint", endpoint, "error", err)
	}
}

// StartPolling refreshes usage every PollInterval until Close. It does
// nothing when the interval is not positive.
func (s *Service) StartPolling() {
	if s.config.PollInterval <= 0 {
		return
	}
	go s.pollUsage()
}

func (s *Service) pollUsage() {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-s.stopChan:
					cancel()
				case <-ctx.Done():
				}
			}()
			if _, err := s.Refresh(ctx); err != nil {
				logger.Error("background usage refresh failed", "error", err)
			}
			cancel()
		case <-s.stopChan:
			return
		}
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops background polling.
func (s *Service) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

// RequestError ties a failed usage request to its sequence number.
type RequestError struct {
	Err error
	Seq uint64
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// normalizeIDs trims, drops empties, dedupes and sorts a project filter.
func normalizeIDs(ids []string) []string {
	out := lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return out
}

// cacheKey identifies a request by organization, endpoint, filter and window.
func cacheKey(orgID, endpoint string, ids []string, rng models.DateRange) string {
	h := sha256.New()
	for _, part := range []string{orgID, endpoint, strings.Join(ids, ","), rng.FromParam(), rng.ToParam()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/neon-usage-tui/internal/config"
	"github.com/j-veylop/neon-usage-tui/internal/db"
	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/services/consumption"
	"github.com/j-veylop/neon-usage-tui/internal/services/filter"
	"github.com/j-veylop/neon-usage-tui/internal/services/projection"
	"github.com/j-veylop/neon-usage-tui/internal/version"
)

type (
	// UsageUpdatedEvent is emitted when an aggregation completes.
	UsageUpdatedEvent struct {
		Result *models.UsageResult
	}

	// UsageRefreshingEvent is emitted when a usage request starts.
	UsageRefreshingEvent struct{}

	// ProjectsLoadedEvent is emitted when the project list is fetched.
	ProjectsLoadedEvent struct {
		Projects []models.Project
	}

	// FilterChangedEvent is emitted when the saved project filter changes.
	FilterChangedEvent struct {
		ProjectIDs []string
	}

	// ErrorEvent is emitted when an error occurs in any service. Seq is set
	// for failed usage requests.
	ErrorEvent struct {
		Error   error
		Service string
		Seq     uint64
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent()    {}
func (UsageRefreshingEvent) isServiceEvent() {}
func (ProjectsLoadedEvent) isServiceEvent()  {}
func (FilterChangedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()           {}

// Notifier sends desktop notifications.
type Notifier func(title, message string) error

func beeepNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	consumption *consumption.Service
	filter      *filter.Service
	projection  *projection.Service
	database    *db.DB
	notify      Notifier
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
	lastHours   float64
	lastSeq     uint64
	haveHours   bool
	closeOnce   sync.Once
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:        cfg,
		notify:     beeepNotify,
		projection: projection.New(cfg.ComputeAlertHours),
		stopChan:   make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if removed, err := m.database.PruneExpired(cfg.CacheTTL); err != nil {
		logger.Warn("failed to prune cache", "error", err)
	} else if removed > 0 {
		logger.Debug("pruned cache", "rows", removed)
	}

	m.filter, err = filter.New(cfg.FilterPath)
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	client := consumption.NewClient(consumption.ClientConfig{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		UserAgent: version.UserAgent(),
		Timeout:   cfg.RequestTimeout,
	}, nil)

	var cache consumption.ResponseCache
	if cfg.CacheTTL > 0 {
		cache = m.database
	}

	m.consumption = consumption.New(client, cache, m.database, consumption.Config{
		OrgID:        cfg.OrgID,
		CacheTTL:     cfg.CacheTTL,
		PollInterval: cfg.RefreshInterval,
	})
	m.consumption.SetFilterProvider(m.filter)
	m.consumption.StartPolling()

	go m.routeEvents()

	return m, nil
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.consumption.Events():
			m.handleConsumptionEvent(event)

		case event := <-m.filter.Events():
			m.handleFilterEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleConsumptionEvent(event consumption.Event) {
	switch event.Type {
	case consumption.EventUsageRefreshing:
		m.broadcast(UsageRefreshingEvent{})

	case consumption.EventUsageUpdated:
		m.broadcast(UsageUpdatedEvent{Result: event.Result})
		if event.Result != nil {
			m.checkComputeAlert(event.Result)
		}

	case consumption.EventUsageError:
		ev := ErrorEvent{Service: "consumption", Error: event.Error}
		var reqErr *consumption.RequestError
		if errors.As(event.Error, &reqErr) {
			ev.Seq = reqErr.Seq
		}
		m.broadcast(ev)

	case consumption.EventProjectsLoaded:
		m.broadcast(ProjectsLoadedEvent{Projects: event.Projects})

	case consumption.EventProjectsError:
		m.broadcast(ErrorEvent{Service: "projects", Error: event.Error})
	}
}

func (m *Manager) handleFilterEvent(event filter.Event) {
	switch event.Type {
	case filter.EventFilterChanged:
		m.broadcast(FilterChangedEvent{ProjectIDs: event.ProjectIDs})

	case filter.EventError:
		m.broadcast(ErrorEvent{Service: "filter", Error: event.Error})
	}
}

// checkComputeAlert notifies when the window's compute hours cross the
// configured budget upward. Only unfiltered results count, and a result
// older than the last one compared is ignored.
func (m *Manager) checkComputeAlert(result *models.UsageResult) {
	if m.cfg.ComputeAlertHours <= 0 || result.Filtered() {
		return
	}

	hours := models.Summarize(result.Records).ComputeHours()

	m.mu.Lock()
	if m.haveHours && result.Seq < m.lastSeq {
		m.mu.Unlock()
		return
	}
	prev, had := m.lastHours, m.haveHours
	m.lastHours, m.lastSeq, m.haveHours = hours, result.Seq, true
	m.mu.Unlock()

	if !had {
		return
	}

	limit := m.cfg.ComputeAlertHours
	if hours >= limit && prev < limit {
		title := "Neon compute budget reached"
		body := fmt.Sprintf("%.1f compute hours used in the last %d days (budget %.1f)",
			hours, consumption.WindowDays, limit)
		if err := m.notify(title, body); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe registers a buffered channel that receives every service event.
// Slow subscribers miss events rather than block the manager.
func (m *Manager) Subscribe() chan ServiceEvent {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// LoadUsage aggregates the last thirty days for projectIDs. An empty filter
// means all projects.
func (m *Manager) LoadUsage(ctx context.Context, projectIDs []string) (*models.UsageResult, error) {
	return m.consumption.Usage(ctx, projectIDs)
}

// RefreshUsage aggregates with the saved filter.
func (m *Manager) RefreshUsage(ctx context.Context) (*models.UsageResult, error) {
	return m.consumption.Refresh(ctx)
}

// LoadProjects lists the organization's projects.
func (m *Manager) LoadProjects(ctx context.Context) ([]models.Project, error) {
	return m.consumption.Projects(ctx)
}

// RecentCalls returns the newest upstream calls for display.
func (m *Manager) RecentCalls(limit int) ([]models.UpstreamCall, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.RecentUpstreamCalls(limit)
}

// ClearCache drops every cached upstream response.
func (m *Manager) ClearCache() error {
	if m.database == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := m.database.ClearCache(); err != nil {
		return err
	}
	if err := m.database.Vacuum(); err != nil {
		logger.Warn("failed to vacuum database", "error", err)
	}
	return nil
}

// CallStats returns totals over the retained upstream call log.
func (m *Manager) CallStats() (*db.UpstreamCallStats, error) {
	if m.database == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return m.database.GetUpstreamCallStats()
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Consumption returns the consumption service.
func (m *Manager) Consumption() *consumption.Service {
	return m.consumption
}

// Filter returns the saved filter service.
func (m *Manager) Filter() *filter.Service {
	return m.filter
}

// Projection returns the compute projection service.
func (m *Manager) Projection() *projection.Service {
	return m.projection
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.consumption.Close(); err != nil {
			errs = append(errs, err)
		}

		if err := m.filter.Close(); err != nil {
			errs = append(errs, err)
		}

		if m.database != nil {
			if err := m.database.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

package app

import (
	"time"

	"github.com/j-veylop/neon-usage-tui/internal/db"
	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// UsageLoadedMsg carries the outcome of one usage request. Seq identifies the
// request even when it failed.
type UsageLoadedMsg struct {
	Result *models.UsageResult
	Err    error
	Seq    uint64
}

// ProjectsLoadedMsg carries the organization's project list.
type ProjectsLoadedMsg struct {
	Err      error
	Projects []models.Project
}

// CallsLoadedMsg carries the newest upstream calls and log totals.
type CallsLoadedMsg struct {
	Err   error
	Stats *db.UpstreamCallStats
	Calls []models.UpstreamCall
}

// ApplyFilterMsg requests saving a project filter and reloading usage.
type ApplyFilterMsg struct {
	ProjectIDs []string
}

// FilterAppliedMsg confirms the filter was saved.
type FilterAppliedMsg struct {
	Err        error
	ProjectIDs []string
}

// FilterUpdatedMsg tells tabs that the saved filter changed.
type FilterUpdatedMsg struct {
	ProjectIDs []string
}

// ClearCacheMsg requests dropping every cached upstream response.
type ClearCacheMsg struct{}

// CacheClearedMsg contains the result of clearing the cache.
type CacheClearedMsg struct {
	Err error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "usage", "projects", "calls"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Message  string
	Type     NotificationType
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

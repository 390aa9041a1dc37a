// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"slices"
	"sync"
	"time"

	"github.com/j-veylop/neon-usage-tui/internal/db"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	CreatedAt time.Time
	ID        string
	Message   string
	Type      NotificationType
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial  bool
	Usage    bool
	Projects bool
	Calls    bool
}

// State is shared between the root model and every tab.
type State struct {
	LastUpdated time.Time
	usage       *models.UsageResult
	usageErr    error
	projectsErr error
	projects    []models.Project
	filter      []string
	calls       []models.UpstreamCall
	callStats   *db.UpstreamCallStats

	notifications []Notification
	Loading       LoadingState

	appliedSeq      uint64
	notificationSeq int
	mu              sync.RWMutex
}

// NewState creates an empty state waiting for its first load.
func NewState() *State {
	return &State{
		projects:      make([]models.Project, 0),
		filter:        make([]string, 0),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "usage":
		s.Loading.Usage = loading
	case "projects":
		s.Loading.Projects = loading
	case "calls":
		s.Loading.Calls = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial ||
		s.Loading.Usage ||
		s.Loading.Projects ||
		s.Loading.Calls
}

// IsLoading reports whether resource is currently loading.
func (s *State) IsLoading(resource string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch resource {
	case "initial":
		return s.Loading.Initial
	case "usage":
		return s.Loading.Usage
	case "projects":
		return s.Loading.Projects
	case "calls":
		return s.Loading.Calls
	}
	return false
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, "initial")
	}
	if s.Loading.Usage {
		resources = append(resources, "usage")
	}
	if s.Loading.Projects {
		resources = append(resources, "projects")
	}
	if s.Loading.Calls {
		resources = append(resources, "calls")
	}
	return resources
}

// ApplyUsage stores result unless a newer request has already been applied.
// It reports whether the result was accepted.
func (s *State) ApplyUsage(result *models.UsageResult) bool {
	if result == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if result.Seq < s.appliedSeq {
		return false
	}

	s.appliedSeq = result.Seq
	s.usage = result
	s.usageErr = nil
	s.LastUpdated = result.FetchedAt
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now()
	}
	return true
}

// ApplyUsageError records a failed request. A failure older than the applied
// result is discarded. Seq 0 marks an error with no request attached.
func (s *State) ApplyUsageError(seq uint64, err error) bool {
	if err == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != 0 && seq < s.appliedSeq {
		return false
	}
	if seq > s.appliedSeq {
		s.appliedSeq = seq
	}

	s.usage = nil
	s.usageErr = err
	return true
}

// GetUsage returns the applied result, or nil.
func (s *State) GetUsage() *models.UsageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

// GetUsageError returns the error of the newest failed request, if it is the
// newest request overall.
func (s *State) GetUsageError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usageErr
}

// AppliedSeq returns the sequence number of the newest applied request.
func (s *State) AppliedSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appliedSeq
}

// GetRecords returns the daily records of the applied result.
func (s *State) GetRecords() []models.DailyUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usage == nil {
		return nil
	}
	return s.usage.Records
}

// GetSummary reduces the applied records to the headline numbers.
func (s *State) GetSummary() models.UsageSummary {
	return models.Summarize(s.GetRecords())
}

// SetProjects replaces the project list.
func (s *State) SetProjects(projects []models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if projects == nil {
		projects = make([]models.Project, 0)
	}
	s.projects = projects
	s.projectsErr = nil
}

// SetProjectsError records a failed project listing.
func (s *State) SetProjectsError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectsErr = err
}

// GetProjects returns a copy of the project list.
func (s *State) GetProjects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.projects)
}

// GetProjectsError returns the last project listing error.
func (s *State) GetProjectsError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectsErr
}

// ProjectName resolves a project id to its display name.
func (s *State) ProjectName(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id && p.Name != "" {
			return p.Name
		}
	}
	return id
}

// SetFilter replaces the saved project filter.
func (s *State) SetFilter(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = slices.Clone(ids)
	if s.filter == nil {
		s.filter = make([]string, 0)
	}
}

// GetFilter returns a copy of the saved project filter.
func (s *State) GetFilter() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.filter)
}

// SetCalls replaces the recent upstream calls.
func (s *State) SetCalls(calls []models.UpstreamCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = calls
}

// GetCalls returns a copy of the recent upstream calls.
func (s *State) GetCalls() []models.UpstreamCall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.calls)
}

// SetCallStats replaces the upstream call log totals.
func (s *State) SetCallStats(stats *db.UpstreamCallStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callStats = stats
}

// GetCallStats returns a copy of the upstream call log totals, or nil.
func (s *State) GetCallStats() *db.UpstreamCallStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.callStats == nil {
		return nil
	}
	stats := *s.callStats
	return &stats
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns the last time usage was applied.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}

// TimeSinceUpdate returns the duration since the last update.
func (s *State) TimeSinceUpdate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LastUpdated.IsZero() {
		return 0
	}
	return time.Since(s.LastUpdated)
}

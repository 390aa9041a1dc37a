package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/services"
	"github.com/j-veylop/neon-usage-tui/internal/services/consumption"
)

const (
	// DefaultTickInterval drives toast expiry and the "updated ago" label.
	DefaultTickInterval = 2 * time.Second

	DefaultNotificationDuration = 5 * time.Second
	QuickNotificationDuration   = 3 * time.Second
	LongNotificationDuration    = 10 * time.Second

	// RecentCallsLimit is how many upstream calls the Info tab shows.
	RecentCallsLimit = 15
)

// tickCmd sends a TickMsg after DefaultTickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(DefaultTickInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// loadInitialData loads the project list and the usage for the saved filter.
func loadInitialData(mgr *services.Manager) tea.Cmd {
	return tea.Batch(
		loadProjectsCmd(mgr),
		refreshUsageCmd(mgr),
		loadCallsCmd(mgr),
	)
}

// usageLoadedMsg converts a usage outcome into a message, keeping the
// request's sequence number on failure.
func usageLoadedMsg(result *models.UsageResult, err error) UsageLoadedMsg {
	if err != nil {
		msg := UsageLoadedMsg{Err: err}
		var reqErr *consumption.RequestError
		if errors.As(err, &reqErr) {
			msg.Seq = reqErr.Seq
		}
		return msg
	}
	return UsageLoadedMsg{Result: result, Seq: result.Seq}
}

// loadUsageCmd aggregates the last thirty days for projectIDs.
func loadUsageCmd(mgr *services.Manager, projectIDs []string) tea.Cmd {
	return func() tea.Msg {
		return usageLoadedMsg(mgr.LoadUsage(context.Background(), projectIDs))
	}
}

// refreshUsageCmd aggregates with the saved filter.
func refreshUsageCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return usageLoadedMsg(mgr.RefreshUsage(context.Background()))
	}
}

// loadProjectsCmd lists the organization's projects.
func loadProjectsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		projects, err := mgr.LoadProjects(context.Background())
		return ProjectsLoadedMsg{Projects: projects, Err: err}
	}
}

// loadCallsCmd reads the newest upstream calls.
func loadCallsCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		calls, err := mgr.RecentCalls(RecentCallsLimit)
		if err != nil {
			return CallsLoadedMsg{Err: err}
		}
		stats, err := mgr.CallStats()
		return CallsLoadedMsg{Calls: calls, Stats: stats, Err: err}
	}
}

// applyFilterCmd saves the project filter.
func applyFilterCmd(mgr *services.Manager, projectIDs []string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.Filter().Set(projectIDs)
		return FilterAppliedMsg{ProjectIDs: mgr.Filter().Selected(), Err: err}
	}
}

// clearCacheCmd drops every cached upstream response.
func clearCacheCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return CacheClearedMsg{Err: mgr.ClearCache()}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifyCmd returns a command that adds a toast of type t. Errors stay up
// longest and info toasts shortest.
func notifyCmd(t NotificationType, message string) tea.Cmd {
	duration := DefaultNotificationDuration
	switch t {
	case NotificationError:
		duration = LongNotificationDuration
	case NotificationInfo:
		duration = QuickNotificationDuration
	}
	return func() tea.Msg {
		return AddNotificationMsg{Type: t, Message: message, Duration: duration}
	}
}

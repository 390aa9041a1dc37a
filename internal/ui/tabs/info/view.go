package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
	"github.com/j-veylop/neon-usage-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderCallsCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, cache and billing API activity")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-10, 50), 110)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration")}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	cacheTTL := m.config.CacheTTL.String()
	if m.config.CacheTTL <= 0 {
		cacheTTL = "disabled"
	}
	alert := "off"
	if m.config.ComputeAlertHours > 0 {
		alert = fmt.Sprintf("%.1f hrs", m.config.ComputeAlertHours)
	}
	logPath := m.config.LogPath
	if logPath == "" {
		logPath = "(discarded)"
	}

	rows = append(rows,
		m.renderConfigRow("Organization", m.config.OrgID),
		m.renderConfigRow("API Key", maskKey(m.config.APIKey)),
		m.renderConfigRow("API Base URL", m.config.BaseURL),
		m.renderConfigRow("Cache Database", m.config.DatabasePath),
		m.renderConfigRow("Filter File", m.config.FilterPath),
		m.renderConfigRow("Cache TTL", cacheTTL),
		m.renderConfigRow("Refresh Every", m.config.RefreshInterval.String()),
		m.renderConfigRow("Request Timeout", m.config.RequestTimeout.String()),
		m.renderConfigRow("Compute Alert", alert),
		m.renderConfigRow("Log File", logPath),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderCallsCard lists the newest billing API requests.
func (m *Model) renderCallsCard() string {
	calls := m.state.GetCalls()

	rows := []string{styles.CardTitleStyle.Render("Recent API Calls")}

	if len(calls) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No calls recorded yet"))
	} else {
		hits := lo.CountBy(calls, func(c models.UpstreamCall) bool { return c.CacheHit })
		failed := lo.CountBy(calls, models.UpstreamCall.Failed)
		rows = append(rows,
			styles.HelpStyle.Render(fmt.Sprintf("%d shown · %d cache hits · %d failed", len(calls), hits, failed)),
			"",
			renderCallsTable(calls),
		)
	}

	if stats := m.state.GetCallStats(); stats != nil && stats.Total > 0 {
		rows = append(rows, "", styles.HelpStyle.Render(fmt.Sprintf(
			"Logged: %d calls · %d cache hits · %d errors · avg %.0f ms",
			stats.Total, stats.CacheHits, stats.Errors, stats.AvgMs)))
	}

	rows = append(rows, "", styles.HelpStyle.Render("x clear response cache · u reload"))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderCallsTable(calls []models.UpstreamCall) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("Time", "Endpoint", "Status", "Duration", "Source").
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true).Foreground(styles.Primary)
			}
			if row >= 0 && row < len(calls) && calls[row].Failed() && col == 2 {
				return base.Foreground(styles.Error)
			}
			return base
		})

	for _, c := range calls {
		t.Row(
			c.Timestamp.Local().Format("Jan 02 15:04:05"),
			c.Endpoint,
			callStatus(c),
			fmt.Sprintf("%dms", c.DurationMs),
			lo.Ternary(c.CacheHit, "cache", "network"),
		)
	}

	return t.String()
}

func callStatus(c models.UpstreamCall) string {
	switch {
	case c.Error != "" && c.StatusCode == 0:
		return "error"
	case c.StatusCode == 0:
		return "-"
	default:
		return strconv.Itoa(c.StatusCode)
	}
}

// maskKey keeps the last four characters of an API key.
func maskKey(k string) string {
	if k == "" {
		return "(not set)"
	}
	if len(k) <= 4 {
		return "****"
	}
	return "****" + k[len(k)-4:]
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	projects := len(m.state.GetProjects())
	rows = append(rows, "", fmt.Sprintf("Projects: %s", styles.InfoTextStyle.Render(strconv.Itoa(projects))))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

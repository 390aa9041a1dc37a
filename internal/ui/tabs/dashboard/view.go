package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/ui/components"
	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

const (
	cardCompute  = "compute"
	cardStorage  = "storage"
	cardTransfer = "transfer"
	cardBranches = "branches"

	// Messages shown in place of the cards and chart.
	emptyMessage = "No consumption data found for the last 30 days."
	errorMessage = "Failed to load consumption data."

	computeCaption = "Compute unit seconds over the last 30 days"
	storageCaption = "Storage (GiB) over the last 30 days"

	recentDays   = 7
	minCardWidth = 22
)

// View renders the dashboard component.
func (m *Model) View() string {
	usage := m.state.GetUsage()
	usageErr := m.state.GetUsageError()

	if usage == nil && usageErr == nil {
		return m.renderLoading()
	}

	sections := []string{m.renderTitle(usage)}

	switch {
	case usageErr != nil:
		sections = append(sections, m.renderError(usageErr))
	case len(usage.Records) == 0:
		sections = append(sections, m.renderEmpty())
	default:
		sections = append(sections,
			m.renderCards(m.state.GetSummary()),
			m.renderChart(usage.Records),
			m.renderRecent(usage.Records),
		)
		if m.projection != nil {
			sections = append(sections, m.renderProjection(m.projection.Calculate(usage)))
		}
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	s := m.spinner
	if n := len(m.state.GetFilter()); n > 0 {
		s = s.WithCaption(fmt.Sprintf("Loading consumption for %d project(s)...", n))
	}
	return components.RenderSpinnerCentered(s, m.width, m.height)
}

func (m *Model) renderTitle(usage *models.UsageResult) string {
	title := styles.TitleStyle.Render("Neon Usage")

	parts := []string{"Granularity: Daily"}
	if m.orgID != "" {
		parts = append([]string{"Organization " + m.orgID}, parts...)
	}
	if usage != nil {
		parts = append(parts, usage.Range.String())
		if usage.Filtered() {
			parts = append(parts, fmt.Sprintf("%d project(s) selected", len(usage.ProjectIDs)))
		}
	}
	subtitle := styles.HelpStyle.Render(strings.Join(parts, " · "))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// cardsPerRow is four, or two when four cards would be too narrow.
func (m *Model) cardsPerRow() int {
	if m.contentWidth()/4-3 < minCardWidth {
		return 2
	}
	return 4
}

func (m *Model) cardWidth() int {
	return max(m.contentWidth()/m.cardsPerRow()-3, minCardWidth)
}

func (m *Model) contentWidth() int {
	return max(m.viewport.Width-2, 40)
}

// value returns what a card shows: the eased counter while animating toward
// actual, otherwise actual.
func (m *Model) value(name string, actual float64) float64 {
	c := m.counters[name]
	if m.ticking && c.target == actual {
		return c.current
	}
	return actual
}

func (m *Model) renderCards(s models.UsageSummary) string {
	cards := []string{
		m.renderCard("Total Compute",
			fmt.Sprintf("%.1f hrs", m.value(cardCompute, s.ComputeHours())),
			"Active compute time", styles.Compute),
		m.renderCard("Avg Storage",
			fmt.Sprintf("%.2f GiB", m.value(cardStorage, s.AvgStorage)),
			"Root + Child + History", styles.Storage),
		m.renderCard("Data Transfer",
			fmt.Sprintf("%.2f GiB", m.value(cardTransfer, s.DataTransfer)),
			"Public + Private Egress", styles.Transfer),
		m.renderCard("Peak Extra Branches",
			fmt.Sprintf("%.0f", m.value(cardBranches, s.PeakExtraBranches)),
			"Max in period", styles.Branches),
	}

	if m.cardsPerRow() == 2 {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1]),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3]),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) renderCard(title, value, caption string, accent lipgloss.Color) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.StatLabelStyle.Render(title),
		styles.StatValueStyle.Foreground(accent).Render(value),
		styles.HelpStyle.Render(caption),
	)
	return styles.StatCardStyle.Width(m.cardWidth()).Render(content)
}

func (m *Model) renderChart(records []models.DailyUsage) string {
	width := m.contentWidth()
	chartWidth := max(width-16, 20)
	chartHeight := max(min(m.height/3, 12), 5)

	var header, chart string
	switch m.chart {
	case chartStorage:
		header = "Storage"
		chart = components.RenderStorageChart(components.StorageSeries{
			Root:    lo.Map(records, func(d models.DailyUsage, _ int) float64 { return d.StorageRoot }),
			Child:   lo.Map(records, func(d models.DailyUsage, _ int) float64 { return d.StorageChild }),
			History: lo.Map(records, func(d models.DailyUsage, _ int) float64 { return d.StorageHistory }),
		}, chartWidth, chartHeight, storageCaption)
		chart = lipgloss.JoinVertical(lipgloss.Left, chart, "", components.RenderLegend([]components.LegendItem{
			{Label: "Root", Color: styles.Storage},
			{Label: "Child", Color: styles.Child},
			{Label: "History", Color: styles.History},
		}))
	default:
		header = "Compute"
		chart = components.RenderLineChart(models.ComputeSeries(records), chartWidth, chartHeight, computeCaption)
	}

	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{
		fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render(header)),
		chart,
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderRecent shows compute hours for the newest days as bars.
func (m *Model) renderRecent(records []models.DailyUsage) string {
	recent := records[max(len(records)-recentDays, 0):]

	labels := lo.Map(recent, func(d models.DailyUsage, _ int) string { return dayLabel(d) })
	hours := lo.Map(recent, func(d models.DailyUsage, _ int) float64 { return d.Compute / 3600 })

	title := styles.CardTitleStyle.Render(fmt.Sprintf("Last %d days (compute hrs)", len(recent)))
	bars := components.RenderBarChart(hours, labels, m.contentWidth()-6, "%.2f")

	return styles.CardStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, title, bars))
}

// renderProjection extrapolates the recent compute rate over the window.
func (m *Model) renderProjection(p *models.ComputeProjection) string {
	if !p.HasData() {
		return ""
	}

	rows := []string{
		styles.CardTitleStyle.Render("Compute Projection"),
		fmt.Sprintf("Recent rate  %s  %s",
			styles.StatValueStyle.Foreground(styles.Compute).Render(fmt.Sprintf("%.2f hrs/day", p.RecentRate)),
			styles.HelpStyle.Render(p.VsPrior)),
		fmt.Sprintf("30-day pace  %s  %s",
			styles.StatValueStyle.Foreground(styles.Compute).Render(fmt.Sprintf("%.1f hrs", p.ProjectedHours)),
			styles.HelpStyle.Render(fmt.Sprintf("%s confidence, %d days", p.Confidence, p.DataPoints))),
	}

	if p.BudgetHours > 0 {
		percent := p.WindowHours / p.BudgetHours * 100
		rows = append(rows,
			"",
			fmt.Sprintf("Budget %.0f hrs  %s", p.BudgetHours, projectionStatusStyle(p.Status).Render(string(p.Status))),
			components.RenderGradientBar(percent, max(m.contentWidth()-20, 10))+
				styles.HelpStyle.Render(fmt.Sprintf(" %.0f%% used", percent)),
		)
	}

	return styles.CardStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func projectionStatusStyle(s models.ProjectionStatus) lipgloss.Style {
	switch s {
	case models.ProjectionSafe:
		return styles.SuccessTextStyle
	case models.ProjectionWarning:
		return styles.WarningTextStyle
	case models.ProjectionCritical:
		return styles.ErrorTextStyle
	default:
		return styles.HelpStyle
	}
}

func (m *Model) renderEmpty() string {
	icon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
	rows := []string{
		fmt.Sprintf("%s %s", icon, styles.HelpStyle.Render(emptyMessage)),
		"",
		styles.InfoTextStyle.Render("╰─▶ Pick other projects in the Projects tab or press r to refresh"),
	}
	return styles.CardStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderError(err error) string {
	rows := []string{
		styles.ErrorTextStyle.Bold(true).Render("✗ " + errorMessage),
		"",
		styles.ErrorTextStyle.Render(err.Error()),
		"",
		styles.HelpStyle.Render("Press r to retry"),
	}
	return styles.CardStyle.
		BorderForeground(styles.Error).
		Width(m.contentWidth()).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func dayLabel(d models.DailyUsage) string {
	day, err := d.Day()
	if err != nil {
		return d.Date
	}
	return day.UTC().Format("Jan 02")
}

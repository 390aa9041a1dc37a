package daily

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/ui/components"
	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

// View renders the daily tab.
func (m *Model) View() string {
	m.syncRows()

	sections := []string{m.renderTitle()}

	switch {
	case m.state.GetUsageError() != nil:
		sections = append(sections, m.renderMessage(
			styles.ErrorTextStyle.Render("Failed to load consumption data."),
			m.state.GetUsageError().Error(),
		))
	case m.state.GetUsage() == nil:
		sections = append(sections, m.renderMessage(styles.HelpStyle.Render("Waiting for consumption data..."), ""))
	case len(m.records) == 0:
		sections = append(sections, m.renderMessage(
			styles.HelpStyle.Render("No consumption data found for the last 30 days."), ""))
	default:
		sections = append(sections, m.renderTable(), m.renderDetail())
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) cardWidth() int {
	return max(m.width-10, 60)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Daily Consumption")
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d days · storage and egress in GiB", len(m.records)))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderTable() string {
	return styles.CardStyle.Width(m.cardWidth()).Render(m.table.View())
}

func (m *Model) renderMessage(headline, detail string) string {
	rows := []string{headline}
	if detail != "" {
		rows = append(rows, "", styles.HelpStyle.Render(detail))
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderDetail shows the selected day against the window's peaks, its
// storage mix and the egress trend.
func (m *Model) renderDetail() string {
	day, ok := m.selected()
	if !ok {
		return ""
	}

	width := m.cardWidth() - 6

	peakCompute := lo.MaxBy(m.records, func(a, b models.DailyUsage) bool { return a.Compute > b.Compute }).Compute
	peakStorage := lo.MaxBy(m.records, func(a, b models.DailyUsage) bool {
		return a.TotalStorage() > b.TotalStorage()
	}).TotalStorage()
	peakTransfer := lo.Max(models.TransferSeries(m.records))

	rows := []string{
		styles.CardTitleStyle.Render(formatDay(day) + " vs. 30-day peak"),
		m.bar.View("Compute", ratio(day.Compute, peakCompute), fmt.Sprintf("%.2f hrs", day.Compute/3600), width),
		m.bar.View("Storage", ratio(day.TotalStorage(), peakStorage), fmt.Sprintf("%.2f GiB", day.TotalStorage()), width),
		m.bar.View("Egress", ratio(day.DataTransfer, peakTransfer), fmt.Sprintf("%.2f GiB", day.DataTransfer), width),
		"",
		styles.StatLabelStyle.Render("Storage mix"),
		components.RenderStackedBar([]components.Segment{
			{Label: "Root", Value: day.StorageRoot, Color: styles.Storage},
			{Label: "Child", Value: day.StorageChild, Color: styles.Child},
			{Label: "History", Value: day.StorageHistory, Color: styles.History},
		}, width),
		components.RenderLegend([]components.LegendItem{
			{Label: fmt.Sprintf("Root %.2f", day.StorageRoot), Color: styles.Storage},
			{Label: fmt.Sprintf("Child %.2f", day.StorageChild), Color: styles.Child},
			{Label: fmt.Sprintf("History %.2f", day.StorageHistory), Color: styles.History},
		}),
		"",
		styles.StatLabelStyle.Render("Egress trend"),
		components.RenderColoredSparkline(models.TransferSeries(m.records), width, "#5c4a1f", "#ffaf00"),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func ratio(v, peak float64) float64 {
	if peak <= 0 {
		return 0
	}
	return v / peak
}

func formatDay(d models.DailyUsage) string {
	day, err := d.Day()
	if err != nil {
		return d.Date
	}
	return day.UTC().Format("Jan 02")
}

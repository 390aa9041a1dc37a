// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Green),
	)
}

// StorageSeries holds the three storage series of a window, in GiB.
type StorageSeries struct {
	Root    []float64
	Child   []float64
	History []float64
}

// RenderStorageChart plots root, child and history storage on one chart.
func RenderStorageChart(s StorageSeries, width, height int, caption string) string {
	n := max(len(s.Root), len(s.Child), len(s.History))
	if n == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	series := lo.Map([][]float64{s.Root, s.Child, s.History}, func(v []float64, _ int) []float64 {
		padded := make([]float64, n)
		copy(padded, v)
		return padded
	})

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.SkyBlue,
			asciigraph.Lavender,
		),
	)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int, format string) string {
	if len(values) == 0 {
		return ""
	}
	if format == "" {
		format = "%.1f"
	}

	maxVal := lo.Max(values)
	if maxVal <= 0 {
		maxVal = 1
	}

	maxLabelLen := lipgloss.Width(lo.MaxBy(labels, func(a, b string) bool {
		return lipgloss.Width(a) > lipgloss.Width(b)
	}))

	barWidth := max(width-maxLabelLen-12, 10)
	barStyle := styles.MetricStyle(styles.Compute)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := barStyle.Render(strings.Repeat("█", barLen))

		lines = append(lines, fmt.Sprintf("%*s │%s "+format, maxLabelLen, label, bar, v))
	}

	return strings.Join(lines, "\n")
}

// sparkIndexes samples values down to width cells and maps each to a block.
func sparkIndexes(values []float64, width int) []int {
	if len(values) == 0 || width <= 0 {
		return nil
	}

	maxVal := lo.Max(values)
	if maxVal <= 0 {
		maxVal = 1
	}

	step := max(float64(len(values))/float64(width), 1)

	var out []int
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		idx := int((val / maxVal) * float64(len(sparkChars)-1))
		out = append(out, min(max(idx, 0), len(sparkChars)-1))
	}
	return out
}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	var b strings.Builder
	for _, idx := range sparkIndexes(values, width) {
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// RenderColoredSparkline creates a sparkline shaded from the low to the high
// end of the given gradient.
func RenderColoredSparkline(values []float64, width int, from, to string) string {
	var b strings.Builder
	for _, idx := range sparkIndexes(values, width) {
		t := float64(idx) / float64(len(sparkChars)-1)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(interpolateColor(from, to, t)))
		b.WriteString(style.Render(string(sparkChars[idx])))
	}
	return b.String()
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := lo.Map(items, func(item LegendItem, _ int) string {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		return fmt.Sprintf("%s %s", colorBox, item.Label)
	})
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

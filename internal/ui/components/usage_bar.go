package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/neon-usage-tui/internal/logger"
	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

const (
	gradientLow  = "#1f6f5c"
	gradientHigh = "#00e599"
)

// UsageBar renders one day's value as a share of the window's peak.
type UsageBar struct {
	progress progress.Model
}

// NewUsageBar creates a usage bar with the Neon gradient.
func NewUsageBar(width int) UsageBar {
	p := progress.New(
		progress.WithScaledGradient(gradientLow, gradientHigh),
		progress.WithWidth(max(width, 5)),
		progress.WithoutPercentage(),
	)
	return UsageBar{progress: p}
}

// SetWidth sets the progress bar width.
func (u *UsageBar) SetWidth(width int) {
	u.progress.Width = max(width, 5)
}

// View renders label, bar and value. value is shown verbatim; ratio is
// clamped to [0, 1].
func (u UsageBar) View(label string, ratio float64, value string, width int) string {
	ratio = min(max(ratio, 0), 1)

	labelStr := styles.ProgressLabelStyle.Render(label)
	valueStr := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(12).
		Align(lipgloss.Right).
		Render(value)

	u.progress.Width = max(width-lipgloss.Width(labelStr)-lipgloss.Width(valueStr)-2, 5)

	return lipgloss.JoinHorizontal(lipgloss.Center,
		labelStr,
		u.progress.ViewAs(ratio),
		" ",
		valueStr,
	)
}

// Segment is one colored part of a stacked bar.
type Segment struct {
	Label string
	Value float64
	Color lipgloss.Color
}

// RenderStackedBar draws segments side by side, each taking its share of
// width. A zero total renders an empty track.
func RenderStackedBar(segments []Segment, width int) string {
	if width < 1 {
		return ""
	}

	var total float64
	for _, s := range segments {
		total += max(s.Value, 0)
	}

	empty := lipgloss.NewStyle().Foreground(styles.Subtle)
	if total == 0 {
		return empty.Render(strings.Repeat("░", width))
	}

	var b strings.Builder
	used := 0
	for i, s := range segments {
		cells := int(max(s.Value, 0) / total * float64(width))
		if i == len(segments)-1 {
			cells = width - used
		}
		cells = min(cells, width-used)
		if cells <= 0 {
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(s.Color).Render(strings.Repeat("█", cells)))
		used += cells
	}
	if used < width {
		b.WriteString(empty.Render(strings.Repeat("░", width-used)))
	}

	return b.String()
}

// RenderGradientBar renders a bar filled to percent with the Neon gradient.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(interpolateColor(gradientLow, gradientHigh, t)))
			b.WriteString(style.Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}

	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}

package projects

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/ui/components"
	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

// View renders the projects tab.
func (m *Model) View() string {
	projects := m.state.GetProjects()

	if len(projects) == 0 && m.state.GetProjectsError() == nil && m.state.IsLoading("projects") {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sections := []string{m.renderTitle()}

	switch {
	case m.state.GetProjectsError() != nil && len(projects) == 0:
		sections = append(sections, m.renderError())
	case len(projects) == 0:
		sections = append(sections, m.renderEmptyState())
	default:
		sections = append(sections, m.renderSearch(), m.renderList())
	}

	sections = append(sections, m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) cardWidth() int {
	return max(m.width-10, 50)
}

// listHeight is how many project rows fit in the card.
func (m *Model) listHeight() int {
	return max(m.height-16, 3)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Projects")

	selected := m.Selection()
	summary := "Showing all projects"
	if len(selected) > 0 {
		summary = fmt.Sprintf("%d of %d projects selected", len(selected), len(m.state.GetProjects()))
	}
	if m.dirty {
		summary += styles.WarningTextStyle.Render("  (unsaved, enter to apply)")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(summary), "")
}

func (m *Model) renderSearch() string {
	style := styles.BlurredBorderStyle
	if m.searching {
		style = styles.FocusedBorderStyle
	}
	return style.Width(m.cardWidth()).Render(m.search.View())
}

func (m *Model) renderList() string {
	visible := m.visible()
	if len(visible) == 0 {
		return styles.CardStyle.Width(m.cardWidth()).Render(
			styles.HelpStyle.Render(fmt.Sprintf("No projects match %q", m.search.Value())),
		)
	}

	m.cursor = min(m.cursor, len(visible)-1)
	height := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
	end := min(m.offset+height, len(visible))

	rows := make([]string, 0, end-m.offset+1)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.renderRow(visible[i], i == m.cursor))
	}
	if len(visible) > height {
		rows = append(rows, styles.HelpStyle.Render(
			fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(visible))))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRow(p models.Project, focused bool) string {
	box := styles.BlurredStyle.Render("[ ]")
	if m.isSelected(p.ID) {
		box = styles.CheckedStyle.Render("[x]")
	}

	name := p.Name
	if name == "" {
		name = p.ID
	}
	line := fmt.Sprintf("%s %s %s", box, name, styles.HelpStyle.Render(p.ID))

	if focused {
		return styles.SelectedListItemStyle.Render("▸ ") + line
	}
	return styles.ListItemStyle.Render("  ") + line
}

func (m *Model) renderEmptyState() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Projects Found"),
		"",
		styles.HelpStyle.Render("The organization has no projects, or none are visible to this API key."),
		"",
	)
	return styles.CardStyle.Width(m.cardWidth()).Render(content)
}

func (m *Model) renderError() string {
	rows := []string{
		styles.ErrorTextStyle.Bold(true).Render("Failed to load projects."),
		"",
		styles.ErrorTextStyle.Render(m.state.GetProjectsError().Error()),
		"",
		styles.HelpStyle.Render("Press r to retry"),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderFooter() string {
	return styles.HelpStyle.Render("space toggle · a all · enter apply · x all projects · / search · esc discard")
}

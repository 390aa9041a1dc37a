package components

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

// Spinner is a dot spinner followed by a caption, shown while a tab waits
// for its first result.
type Spinner struct {
	model   spinner.Model
	caption string
}

// NewSpinner creates a spinner with the given caption.
func NewSpinner(caption string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return Spinner{model: s, caption: caption}
}

// Init starts the spinner.
func (s Spinner) Init() tea.Cmd {
	return s.model.Tick
}

// Update advances the spinner on tick messages.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.model, cmd = s.model.Update(msg)
	return s, cmd
}

// View renders the spinner frame and caption.
func (s Spinner) View() string {
	return s.model.View() + " " + styles.HelpStyle.Render(s.caption)
}

// WithCaption returns a copy of s showing caption.
func (s Spinner) WithCaption(caption string) Spinner {
	s.caption = caption
	return s
}

// RenderSpinnerCentered renders s centered in a width x height area.
func RenderSpinnerCentered(s Spinner, width, height int) string {
	return styles.CenterBoth(s.View(), width, height)
}

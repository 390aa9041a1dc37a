// Package projects provides the project filter tab.
package projects

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the projects tab.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	SelectAll key.Binding
	Apply     key.Binding
	Clear     key.Binding
	Search    key.Binding
	Escape    key.Binding
}

// defaultKeyMap returns the default key bindings for the projects tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle project"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all shown"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "all projects"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "discard changes"),
		),
	}
}

// Model represents the projects tab state. Edits stay pending until applied.
type Model struct {
	state     *app.State
	search    textinput.Model
	spinner   components.Spinner
	keys      keyMap
	pending   map[string]bool
	dirty     bool
	searching bool
	cursor    int
	offset    int
	width     int
	height    int
}

// New creates a new projects model.
func New(state *app.State) *Model {
	search := textinput.New()
	search.Placeholder = "filter by name or id"
	search.Prompt = "/ "
	search.CharLimit = 100
	search.Width = 40

	return &Model{
		state:   state,
		search:  search,
		spinner: components.NewSpinner("Loading projects..."),
		keys:    defaultKeyMap(),
		pending: make(map[string]bool),
	}
}

// Init initializes the projects tab.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// CapturingInput reports whether the search field owns the keyboard.
func (m *Model) CapturingInput() bool {
	return m.searching
}

// Update handles messages for the projects tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.FilterUpdatedMsg:
		m.dirty = false

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m, m.updateSearch(msg)
		}
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.SetValue("")
		m.search.Blur()
		m.resetCursor()
		return nil
	case "enter", "down", "up":
		m.searching = false
		m.search.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.resetCursor()
	return cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	visible := m.visible()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(visible) {
			m.edit()
			id := visible[m.cursor].ID
			m.pending[id] = !m.pending[id]
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.toggleAll(visible)
	case key.Matches(msg, m.keys.Apply):
		ids := m.Selection()
		m.dirty = false
		return func() tea.Msg { return app.ApplyFilterMsg{ProjectIDs: ids} }
	case key.Matches(msg, m.keys.Clear):
		m.pending = make(map[string]bool)
		m.dirty = false
		return func() tea.Msg { return app.ApplyFilterMsg{ProjectIDs: nil} }
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.Focus()
		return textinput.Blink
	case key.Matches(msg, m.keys.Escape):
		m.dirty = false
		m.search.SetValue("")
		m.resetCursor()
	}
	return nil
}

// edit starts a pending edit from the saved filter.
func (m *Model) edit() {
	if m.dirty {
		return
	}
	m.pending = lo.SliceToMap(m.state.GetFilter(), func(id string) (string, bool) { return id, true })
	m.dirty = true
}

// toggleAll selects every shown project, or deselects them when all are
// already selected.
func (m *Model) toggleAll(visible []models.Project) {
	if len(visible) == 0 {
		return
	}
	m.edit()
	all := lo.EveryBy(visible, func(p models.Project) bool { return m.pending[p.ID] })
	for _, p := range visible {
		m.pending[p.ID] = !all
	}
}

// isSelected reports the checkbox state of id: the pending edit, or the
// saved filter when nothing is pending.
func (m *Model) isSelected(id string) bool {
	if m.dirty {
		return m.pending[id]
	}
	return slices.Contains(m.state.GetFilter(), id)
}

// Selection returns the checked project ids in project list order, followed
// by saved ids that are no longer listed.
func (m *Model) Selection() []string {
	if !m.dirty {
		return m.state.GetFilter()
	}

	projects := m.state.GetProjects()
	listed := lo.SliceToMap(projects, func(p models.Project) (string, bool) { return p.ID, true })

	ids := lo.FilterMap(projects, func(p models.Project, _ int) (string, bool) {
		return p.ID, m.pending[p.ID]
	})

	var unlisted []string
	for id, on := range m.pending {
		if on && !listed[id] {
			unlisted = append(unlisted, id)
		}
	}
	slices.Sort(unlisted)

	return append(ids, unlisted...)
}

// visible returns the projects matching the search query.
func (m *Model) visible() []models.Project {
	projects := m.state.GetProjects()
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	if query == "" {
		return projects
	}
	return lo.Filter(projects, func(p models.Project, _ int) bool {
		return strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.ID), query)
	})
}

func (m *Model) resetCursor() {
	m.cursor = 0
	m.offset = 0
}

// SetSize sets the available size for the projects tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(min(width-20, 60), 10)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.searching {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		}
	}
	return []key.Binding{
		m.keys.Toggle,
		m.keys.Apply,
		m.keys.Clear,
		m.keys.Search,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Toggle, m.keys.SelectAll},
		{m.keys.Apply, m.keys.Clear},
		{m.keys.Search, m.keys.Escape},
	}
}

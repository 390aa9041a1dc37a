// Package info provides the info tab: configuration, cache controls and the
// log of recent billing API calls.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/config"
)

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	ClearCache  key.Binding
	ReloadCalls key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ClearCache: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear response cache"),
		),
		ReloadCalls: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "reload call log"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	config   *config.Config
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
}

// New creates a new info model.
func New(state *app.State, cfg *config.Config) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.ClearCache):
		return m, func() tea.Msg { return app.ClearCacheMsg{} }
	case key.Matches(keyMsg, m.keys.ReloadCalls):
		return m, func() tea.Msg { return app.RefreshMsg{Resource: "calls"} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ClearCache, m.keys.ReloadCalls}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ClearCache, m.keys.ReloadCalls},
		{m.keys.Up, m.keys.Down},
	}
}

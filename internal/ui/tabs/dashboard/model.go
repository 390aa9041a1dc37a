// Package dashboard provides the summary tab: headline numbers and the daily
// compute chart for the last thirty days.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/services"
	"github.com/j-veylop/neon-usage-tui/internal/services/projection"
	"github.com/j-veylop/neon-usage-tui/internal/ui/components"
)

const animationDuration = 800 * time.Millisecond

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// chartMode selects which series the chart card shows.
type chartMode int

const (
	chartCompute chartMode = iota
	chartStorage
)

type keyMap struct {
	ToggleChart key.Binding
	Up          key.Binding
	Down        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleChart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compute/storage chart"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "scroll down"),
		),
	}
}

// counter eases a displayed number toward its target.
type counter struct {
	start   time.Time
	from    float64
	current float64
	target  float64
}

func (c *counter) retarget(target float64, now time.Time) {
	if target == c.target {
		return
	}
	c.from = c.current
	c.target = target
	c.start = now
}

func (c *counter) step(now time.Time) bool {
	if c.current == c.target {
		return false
	}
	elapsed := now.Sub(c.start)
	if elapsed >= animationDuration {
		c.current = c.target
		return false
	}
	p := elapsed.Seconds() / animationDuration.Seconds()
	ease := 1.0 - (1.0-p)*(1.0-p)
	c.current = c.from + (c.target-c.from)*ease
	return true
}

// Model represents the dashboard tab state.
type Model struct {
	state      *app.State
	orgID      string
	projection *projection.Service
	counters   map[string]*counter
	spinner    components.Spinner
	keys       keyMap
	viewport   viewport.Model
	chart      chartMode
	width      int
	height     int
	ticking    bool
}

// New creates a new dashboard model for the organization orgID.
func New(state *app.State, orgID string) *Model {
	return &Model{
		state:    state,
		orgID:    orgID,
		spinner:  components.NewSpinner("Loading consumption..."),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		counters: map[string]*counter{
			cardCompute:  {},
			cardStorage:  {},
			cardTransfer: {},
			cardBranches: {},
		},
	}
}

// WithProjection enables the compute projection card.
func (m *Model) WithProjection(p *projection.Service) *Model {
	m.projection = p
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		if m.stepCounters(time.Time(msg)) {
			cmds = append(cmds, animationTickCmd())
		} else {
			m.ticking = false
		}

	case app.UsageLoadedMsg, app.ServiceEventMsg:
		if isUsageMsg(msg) {
			cmds = append(cmds, m.syncCounters(time.Now()))
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func isUsageMsg(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case app.UsageLoadedMsg:
		return true
	case app.ServiceEventMsg:
		_, ok := msg.Event.(services.UsageUpdatedEvent)
		return ok
	}
	return false
}

// syncCounters points every card at the applied summary.
func (m *Model) syncCounters(now time.Time) tea.Cmd {
	summary := m.state.GetSummary()
	for name, target := range cardTargets(summary) {
		m.counters[name].retarget(target, now)
	}
	if m.ticking {
		return nil
	}
	m.ticking = true
	return animationTickCmd()
}

func (m *Model) stepCounters(now time.Time) bool {
	animating := false
	for _, c := range m.counters {
		if c.step(now) {
			animating = true
		}
	}
	return animating
}

func cardTargets(s models.UsageSummary) map[string]float64 {
	return map[string]float64{
		cardCompute:  s.ComputeHours(),
		cardStorage:  s.AvgStorage,
		cardTransfer: s.DataTransfer,
		cardBranches: s.PeakExtraBranches,
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleChart):
		if m.chart == chartCompute {
			m.chart = chartStorage
		} else {
			m.chart = chartCompute
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	// DocStyle margins and padding.
	m.viewport.Width = max(width-6, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleChart, m.keys.Up, m.keys.Down}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleChart},
		{m.keys.Up, m.keys.Down},
	}
}

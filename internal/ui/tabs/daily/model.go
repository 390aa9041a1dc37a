// Package daily provides the per-day table of the aggregated window.
package daily

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/models"
	"github.com/j-veylop/neon-usage-tui/internal/ui/components"
	"github.com/j-veylop/neon-usage-tui/internal/ui/styles"
)

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	First key.Binding
	Last  key.Binding
	Order key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous day"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next day"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first row"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last row"),
		),
		Order: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "oldest/newest first"),
		),
	}
}

// Model represents the daily tab state.
type Model struct {
	state       *app.State
	table       table.Model
	bar         components.UsageBar
	keys        keyMap
	records     []models.DailyUsage
	seq         uint64
	synced      bool
	newestFirst bool
	width       int
	height      int
}

// New creates a new daily model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle.Padding(0, 1)
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return &Model{
		state:       state,
		table:       t,
		bar:         components.NewUsageBar(30),
		keys:        defaultKeyMap(),
		newestFirst: true,
	}
}

// columns sizes the table to width; the date column absorbs the slack.
func columns(width int) []table.Column {
	const numeric = 11
	dateWidth := min(max(width-numeric*6-16, 8), 12)
	return []table.Column{
		{Title: "Date", Width: dateWidth},
		{Title: "Compute hrs", Width: numeric},
		{Title: "Root GiB", Width: numeric},
		{Title: "Child GiB", Width: numeric},
		{Title: "History GiB", Width: numeric},
		{Title: "Egress GiB", Width: numeric},
		{Title: "Branches", Width: numeric},
	}
}

// Init initializes the daily tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the daily tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.syncRows()

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.First):
		m.table.GotoTop()
	case key.Matches(keyMsg, m.keys.Last):
		m.table.GotoBottom()
	case key.Matches(keyMsg, m.keys.Order):
		m.newestFirst = !m.newestFirst
		m.synced = false
		m.syncRows()
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(keyMsg)
		return m, cmd
	}
	return m, nil
}

// syncRows rebuilds the rows when a newer result has been applied.
func (m *Model) syncRows() {
	seq := m.state.AppliedSeq()
	records := m.state.GetRecords()
	if m.synced && seq == m.seq && len(records) == len(m.records) {
		return
	}

	m.seq = seq
	m.synced = true
	m.records = records

	ordered := m.ordered()
	m.table.SetRows(lo.Map(ordered, func(d models.DailyUsage, _ int) table.Row {
		return table.Row{
			formatDay(d),
			fmt.Sprintf("%.2f", d.Compute/3600),
			fmt.Sprintf("%.2f", d.StorageRoot),
			fmt.Sprintf("%.2f", d.StorageChild),
			fmt.Sprintf("%.2f", d.StorageHistory),
			fmt.Sprintf("%.2f", d.DataTransfer),
			fmt.Sprintf("%.0f", d.ExtraBranches),
		}
	}))
	m.table.GotoTop()
}

// ordered returns the records in display order.
func (m *Model) ordered() []models.DailyUsage {
	if m.newestFirst {
		out := slices.Clone(m.records)
		slices.Reverse(out)
		return out
	}
	return m.records
}

// selected returns the record under the cursor.
func (m *Model) selected() (models.DailyUsage, bool) {
	ordered := m.ordered()
	i := m.table.Cursor()
	if i < 0 || i >= len(ordered) {
		return models.DailyUsage{}, false
	}
	return ordered[i], true
}

// SetSize sets the available size for the daily tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width - 10))
	// Title, detail card and borders.
	m.table.SetHeight(max(height-22, 5))
	m.bar.SetWidth(width - 40)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Order}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.First, m.keys.Last},
		{m.keys.Order},
	}
}

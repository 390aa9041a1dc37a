package projects

import (
	"errors"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

func newModel(filter ...string) (*Model, *app.State) {
	state := app.NewState()
	state.SetProjects([]models.Project{
		{ID: "p-alpha", Name: "alpha"},
		{ID: "p-beta", Name: "beta"},
		{ID: "p-gamma", Name: "gamma"},
	})
	state.SetFilter(filter)
	m := New(state)
	m.SetSize(120, 40)
	return m, state
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func applied(t *testing.T, cmd tea.Cmd) []string {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(app.ApplyFilterMsg)
	if !ok {
		t.Fatalf("expected ApplyFilterMsg, got %T", cmd())
	}
	return msg.ProjectIDs
}

func TestSelection_MirrorsSavedFilter(t *testing.T) {
	m, _ := newModel("p-beta")
	if !m.isSelected("p-beta") || m.isSelected("p-alpha") {
		t.Error("checkboxes should mirror the saved filter")
	}
	if got := m.Selection(); !slices.Equal(got, []string{"p-beta"}) {
		t.Errorf("Selection = %v", got)
	}
}

func TestToggleAndApply(t *testing.T) {
	m, _ := newModel("p-beta")

	press(m, "space") // alpha on
	press(m, "j")
	press(m, "space") // beta off
	press(m, "j")
	press(m, "space") // gamma on

	if !m.dirty {
		t.Fatal("toggling should start a pending edit")
	}

	ids := applied(t, press(m, "enter"))
	if !slices.Equal(ids, []string{"p-alpha", "p-gamma"}) {
		t.Errorf("applied %v, want [p-alpha p-gamma]", ids)
	}
	if m.dirty {
		t.Error("applying should end the pending edit")
	}
}

func TestClear(t *testing.T) {
	m, _ := newModel("p-alpha", "p-beta")
	ids := applied(t, press(m, "x"))
	if len(ids) != 0 {
		t.Errorf("clear applied %v, want all projects", ids)
	}
}

func TestEscapeDiscards(t *testing.T) {
	m, _ := newModel("p-beta")
	press(m, "space")
	press(m, "esc")
	if m.dirty {
		t.Error("esc should discard the pending edit")
	}
	if !slices.Equal(m.Selection(), []string{"p-beta"}) {
		t.Errorf("Selection = %v, want saved filter", m.Selection())
	}
}

func TestToggleAll(t *testing.T) {
	m, _ := newModel()
	press(m, "a")
	if got := m.Selection(); len(got) != 3 {
		t.Errorf("select all = %v", got)
	}
	press(m, "a")
	if got := m.Selection(); len(got) != 0 {
		t.Errorf("deselect all = %v", got)
	}
}

func TestSearch(t *testing.T) {
	m, _ := newModel()

	press(m, "/")
	if !m.CapturingInput() {
		t.Fatal("/ should focus the search field")
	}
	for _, r := range "gam" {
		press(m, string(r))
	}
	press(m, "enter")
	if m.CapturingInput() {
		t.Fatal("enter should leave the search field")
	}

	visible := m.visible()
	if len(visible) != 1 || visible[0].ID != "p-gamma" {
		t.Fatalf("visible = %v, want gamma only", visible)
	}

	press(m, "space")
	if got := applied(t, press(m, "enter")); !slices.Equal(got, []string{"p-gamma"}) {
		t.Errorf("applied %v", got)
	}
}

func TestSearch_EscapeClears(t *testing.T) {
	m, _ := newModel()
	press(m, "/")
	press(m, "z")
	press(m, "esc")
	if m.CapturingInput() || m.search.Value() != "" {
		t.Error("esc should clear and leave the search field")
	}
	if len(m.visible()) != 3 {
		t.Error("all projects should be visible again")
	}
}

func TestSelection_KeepsUnlistedIDs(t *testing.T) {
	m, _ := newModel("p-gone", "p-alpha")
	press(m, "j")
	press(m, "space") // beta on

	got := m.Selection()
	if !slices.Equal(got, []string{"p-alpha", "p-beta", "p-gone"}) {
		t.Errorf("Selection = %v", got)
	}
}

func TestFilterUpdatedEndsEdit(t *testing.T) {
	m, _ := newModel()
	press(m, "space")
	m.Update(app.FilterUpdatedMsg{ProjectIDs: []string{"p-beta"}})
	if m.dirty {
		t.Error("an external filter change should drop the pending edit")
	}
}

func TestView(t *testing.T) {
	m, _ := newModel("p-beta")
	view := m.View()
	for _, want := range []string{"Projects", "1 of 3 projects selected", "[x]", "[ ]", "beta", "p-gamma"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_States(t *testing.T) {
	state := app.NewState()
	m := New(state)
	m.SetSize(120, 40)

	if !strings.Contains(m.View(), "No Projects Found") {
		t.Error("expected empty state")
	}

	state.SetProjectsError(errors.New("Neon API error: 401 Unauthorized"))
	if !strings.Contains(m.View(), "401 Unauthorized") {
		t.Error("expected error state")
	}
}

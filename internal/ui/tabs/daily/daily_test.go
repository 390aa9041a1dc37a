package daily

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/neon-usage-tui/internal/app"
	"github.com/j-veylop/neon-usage-tui/internal/models"
)

func records() []models.DailyUsage {
	return []models.DailyUsage{
		{Date: "2024-01-01T00:00:00Z", Compute: 3600, StorageRoot: 1, DataTransfer: 0.5},
		{Date: "2024-01-02T00:00:00Z", Compute: 7200, StorageRoot: 2, StorageChild: 1, DataTransfer: 1},
		{Date: "2024-01-03T00:00:00Z", Compute: 1800, StorageRoot: 2, StorageHistory: 0.5, ExtraBranches: 3},
	}
}

func newModel(state *app.State) *Model {
	m := New(state)
	m.SetSize(140, 60)
	return m
}

func press(m *Model, k string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestView_Waiting(t *testing.T) {
	m := newModel(app.NewState())
	if !strings.Contains(m.View(), "Waiting for consumption data") {
		t.Error("expected waiting state before the first result")
	}
}

func TestView_Empty(t *testing.T) {
	state := app.NewState()
	state.ApplyUsage(&models.UsageResult{Seq: 1})
	m := newModel(state)
	if !strings.Contains(m.View(), "No consumption data found for the last 30 days.") {
		t.Error("expected empty state")
	}
}

func TestView_Error(t *testing.T) {
	state := app.NewState()
	state.ApplyUsageError(1, errors.New("boom"))
	m := newModel(state)
	view := m.View()
	if !strings.Contains(view, "Failed to load consumption data.") || !strings.Contains(view, "boom") {
		t.Error("expected error state with message")
	}
}

func TestRows_NewestFirst(t *testing.T) {
	state := app.NewState()
	state.ApplyUsage(&models.UsageResult{Seq: 1, Records: records()})
	m := newModel(state)
	m.View()

	rows := m.table.Rows()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Jan 03" || rows[2][0] != "Jan 01" {
		t.Errorf("order = %s..%s, want Jan 03..Jan 01", rows[0][0], rows[2][0])
	}
	if rows[1][1] != "2.00" {
		t.Errorf("compute hrs = %s, want 2.00", rows[1][1])
	}

	day, ok := m.selected()
	if !ok || day.Date != "2024-01-03T00:00:00Z" {
		t.Errorf("selected = %+v, want newest day", day)
	}
}

func TestToggleOrder(t *testing.T) {
	state := app.NewState()
	state.ApplyUsage(&models.UsageResult{Seq: 1, Records: records()})
	m := newModel(state)

	press(m, "o")
	if m.table.Rows()[0][0] != "Jan 01" {
		t.Errorf("first row = %s, want Jan 01", m.table.Rows()[0][0])
	}
}

func TestNavigation(t *testing.T) {
	state := app.NewState()
	state.ApplyUsage(&models.UsageResult{Seq: 1, Records: records()})
	m := newModel(state)

	press(m, "G")
	if m.table.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", m.table.Cursor())
	}
	press(m, "g")
	if m.table.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", m.table.Cursor())
	}
	press(m, "j")
	if m.table.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", m.table.Cursor())
	}
}

func TestRows_FollowNewerResult(t *testing.T) {
	state := app.NewState()
	state.ApplyUsage(&models.UsageResult{Seq: 1, Records: records()})
	m := newModel(state)
	m.View()

	state.ApplyUsage(&models.UsageResult{Seq: 2, Records: records()[:1]})
	m.View()
	if len(m.table.Rows()) != 1 {
		t.Errorf("got %d rows, want 1 after a newer result", len(m.table.Rows()))
	}
}

func TestView_Detail(t *testing.T) {
	state := app.NewState()
	state.ApplyUsage(&models.UsageResult{Seq: 1, Records: records()})
	m := newModel(state)

	view := m.View()
	for _, want := range []string{"Daily Consumption", "vs. 30-day peak", "Storage mix", "Egress trend", "History 0.50"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRatio(t *testing.T) {
	if ratio(1, 0) != 0 {
		t.Error("zero peak should give zero ratio")
	}
	if ratio(1, 4) != 0.25 {
		t.Error("ratio(1, 4) should be 0.25")
	}
}

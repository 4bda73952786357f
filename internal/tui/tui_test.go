package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/editor"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m *Model, msgs ...tea.Msg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func sampleDoc(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(`{"phases":[
		{"id":1,"title":"Onboarding","cycles":[{"id":1,"title":"Week 1","steps":[{"id":1,"rollovertext":"Intro Video","completionmodules":"42"}]}]},
		{"id":2,"title":"Practice","cycles":[]}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestNavigationAndToggle(t *testing.T) {
	m := New(sampleDoc(t), Options{Title: "Biology"})
	if got := len(m.Editor().Visible()); got != 4 {
		t.Fatalf("visible = %d, want 4", got)
	}
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Editor().Phases()[0].Collapsed {
		t.Fatal("enter should collapse the phase under the cursor")
	}
	if got := len(m.Editor().Visible()); got != 2 {
		t.Errorf("visible after collapse = %d, want 2", got)
	}
	send(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.current().Summary != "Practice" {
		t.Errorf("cursor on %q, want Practice", m.current().Summary)
	}
	send(t, m, keys("k"))
	if m.current().Summary != "Onboarding" {
		t.Errorf("cursor on %q after k", m.current().Summary)
	}
}

func TestAddAndEdit(t *testing.T) {
	m := New(sampleDoc(t), Options{})
	send(t, m, keys("A"))
	if m.mode != modeEdit {
		t.Fatal("adding a phase should open its title input")
	}
	send(t, m, keys("Review"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeBrowse {
		t.Fatal("phase has one field; enter should finish editing")
	}
	phases := m.Editor().Phases()
	if len(phases) != 3 || phases[2].Field(editor.FieldTitle) != "Review" || phases[2].ID != 3 {
		t.Fatalf("new phase = %+v", phases[len(phases)-1])
	}
	if !m.Dirty() {
		t.Error("model should be dirty after an add")
	}
	if !strings.Contains(m.Editor().Submission(), `"Review"`) {
		t.Error("submission does not carry the new title")
	}

	// Add a cycle under the new phase and give it a title, then stop.
	send(t, m, keys("a"), keys("Wrap up"), tea.KeyMsg{Type: tea.KeyEsc})
	cycles := m.Editor().Phases()[2].Children
	if len(cycles) != 1 || cycles[0].Field(editor.FieldTitle) != "Wrap up" {
		t.Fatalf("cycles = %+v", cycles)
	}
	if m.current() != cycles[0] {
		t.Error("cursor should follow the new cycle")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m := New(sampleDoc(t), Options{})
	send(t, m, keys("d"), keys("n"))
	if len(m.Editor().Phases()) != 2 {
		t.Fatal("declined delete removed a phase")
	}
	if !m.Editor().Pending().Empty() {
		t.Fatal("declined delete recorded a deletion")
	}

	send(t, m, keys("d"))
	if !strings.Contains(m.View(), "Delete this phase?") {
		t.Errorf("prompt missing from view:\n%s", m.View())
	}
	send(t, m, keys("y"))
	if len(m.Editor().Phases()) != 1 {
		t.Fatal("confirmed delete did not remove the phase")
	}
	if !m.Editor().Pending().Phases.Has(1) {
		t.Errorf("pending = %+v", m.Editor().Pending())
	}
	if m.confirmed {
		t.Error("confirmation leaked past the delete")
	}
}

func TestReorder(t *testing.T) {
	m := New(sampleDoc(t), Options{})
	send(t, m, keys("J"))
	phases := m.Editor().Phases()
	if phases[0].ID != 2 || phases[1].ID != 1 {
		t.Fatalf("order = %d,%d", phases[0].ID, phases[1].ID)
	}
	if m.current().ID != 1 {
		t.Error("cursor should follow the moved phase")
	}
	send(t, m, keys("J"))
	if m.Editor().Phases()[1].ID != 1 {
		t.Error("moving the last phase down should be a no-op")
	}
}

func TestCollapseAndExpandAll(t *testing.T) {
	m := New(sampleDoc(t), Options{})
	send(t, m, keys("c"))
	if len(m.Editor().Visible()) != 2 {
		t.Errorf("visible after collapse all = %d", len(m.Editor().Visible()))
	}
	send(t, m, keys("o"))
	if m.Editor().Phases()[0].Collapsed {
		t.Error("expand all left a phase collapsed")
	}
}

func TestSave(t *testing.T) {
	var got *document.Document
	var gotObjectives document.Objectives
	save := func(doc *document.Document, o document.Objectives) (*document.Document, string, error) {
		got = doc
		gotObjectives = o
		stored := sampleDoc(t)
		stored.Phases[0].Title = "Stored"
		return stored, "saved 1 phase", nil
	}
	objectives := document.Objectives{LearningObjectives: []document.Objective{{ID: 0, Name: "Explain cells"}}}
	m := New(sampleDoc(t), Options{Save: save, Objectives: objectives})
	send(t, m, keys("e"), keys(" and Welcome"), tea.KeyMsg{Type: tea.KeyEnter})

	cmd := send(t, m, keys("s"))
	if cmd == nil {
		t.Fatal("save returned no command")
	}
	send(t, m, cmd())
	if got == nil || got.Phases[0].Title != "Onboarding and Welcome" {
		t.Fatalf("saved doc = %+v", got)
	}
	if len(gotObjectives.LearningObjectives) != 1 {
		t.Errorf("objectives = %+v", gotObjectives)
	}
	if m.Dirty() {
		t.Error("model still dirty after save")
	}
	if m.Editor().Phases()[0].Field(editor.FieldTitle) != "Stored" {
		t.Error("editor not rebuilt from the stored tree")
	}
	if !strings.Contains(m.View(), "saved 1 phase") {
		t.Error("status missing from view")
	}
}

func TestSave_IgnoresEditsWhileSaving(t *testing.T) {
	save := func(doc *document.Document, _ document.Objectives) (*document.Document, string, error) {
		return doc, "saved", nil
	}
	m := New(sampleDoc(t), Options{Save: save})
	cmd := send(t, m, keys("s"))
	if cmd == nil {
		t.Fatal("save returned no command")
	}
	send(t, m, keys("A"), keys("d"), keys("J"))
	if m.mode != modeBrowse {
		t.Fatalf("mode = %v, want browse while saving", m.mode)
	}
	if got := len(m.Editor().Phases()); got != 2 {
		t.Fatalf("phases while saving = %d, want 2", got)
	}
	if m.Dirty() {
		t.Error("ignored keys marked the model dirty")
	}
	if !strings.Contains(m.View(), savingStatus) {
		t.Error("view does not show the save in progress")
	}

	send(t, m, keys("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1; navigation should work while saving", m.cursor)
	}

	send(t, m, cmd())
	if m.saving || m.Dirty() {
		t.Error("model still saving or dirty after the save returned")
	}
	send(t, m, keys("A"), tea.KeyMsg{Type: tea.KeyEsc})
	if got := len(m.Editor().Phases()); got != 3 || !m.Dirty() {
		t.Errorf("phases after save = %d dirty = %v, want 3 and dirty", got, m.Dirty())
	}
}

func TestSaveError(t *testing.T) {
	save := func(*document.Document, document.Objectives) (*document.Document, string, error) {
		return nil, "", errors.New("database is locked")
	}
	m := New(sampleDoc(t), Options{Save: save})
	send(t, m, keys("A"), tea.KeyMsg{Type: tea.KeyEsc})
	cmd := send(t, m, keys("s"))
	send(t, m, cmd())
	if m.err == nil || !m.Dirty() {
		t.Error("failed save should keep changes and report the error")
	}
	if len(m.Editor().Phases()) != 3 {
		t.Error("failed save discarded the tree")
	}
}

func TestView_EmptyTree(t *testing.T) {
	m := New(nil, Options{Title: "Empty", Palette: []string{"#4156A1"}})
	v := m.View()
	if !strings.Contains(v, "Empty") || !strings.Contains(v, emptyTreeLine) {
		t.Errorf("view = %s", v)
	}
	send(t, m, keys("d"), keys("e"), keys("J"))
	if m.mode != modeBrowse {
		t.Error("actions on an empty tree should be ignored")
	}
}

func TestQuit(t *testing.T) {
	m := New(nil, Options{})
	cmd := send(t, m, keys("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

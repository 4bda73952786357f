package editor

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/zulandar/roadmap/internal/document"
)

// sampleDoc is two phases; the first has cycle 9 with steps 14 and 15.
func sampleDoc() *document.Document {
	return &document.Document{
		Version: document.Version,
		Phases: []document.Phase{
			{ID: 5, Title: "Onboarding", Cycles: []document.Cycle{
				{ID: 9, Title: "Week 1", LearningObjectives: "0,1", Steps: []document.Step{
					{ID: 14, RolloverText: "Intro Video", StepIcon: "icon-3", CompletionModules: "42"},
					{ID: 15, RolloverText: "Quiz", CompletionModules: "43,44"},
				}},
			}},
			{ID: 6, Title: "Practice", Cycles: []document.Cycle{}},
		},
	}
}

func newTestEditor(t *testing.T, doc *document.Document, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithConfirmer(AlwaysConfirm)}, opts...)
	return New(doc, opts...)
}

func TestNew_SerializesLoadedTree(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	doc := e.Document()

	if len(doc.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(doc.Phases))
	}
	step := doc.Phases[0].Cycles[0].Steps[0]
	if step.RolloverText != "Intro Video" || step.CompletionModules != "42" || step.StepIcon != "icon-3" {
		t.Errorf("step = %+v", step)
	}
	if doc.Phases[1].Index != 1 || doc.Phases[1].Number != 2 {
		t.Errorf("second phase index/number = %d/%d", doc.Phases[1].Index, doc.Phases[1].Number)
	}
	if e.Phases()[0].Summary != "Onboarding" {
		t.Errorf("summary = %q", e.Phases()[0].Summary)
	}
}

func TestNew_Empty(t *testing.T) {
	e := New(nil)
	if got := e.Submission(); !strings.Contains(got, `"phases":[]`) {
		t.Errorf("Submission() = %s", got)
	}
}

func TestSetInput_PropagatesToRoot(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	step := e.Find(KindStep, 14)

	if err := e.SetInput(step, FieldRolloverText, "Welcome Video"); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	if step.Summary != "Welcome Video" {
		t.Errorf("step summary = %q", step.Summary)
	}
	if !strings.Contains(step.Parent.Mirror, "Welcome Video") {
		t.Error("cycle mirror not refreshed")
	}
	if got := e.Document().Phases[0].Cycles[0].Steps[0].RolloverText; got != "Welcome Video" {
		t.Errorf("submission rollovertext = %q", got)
	}

	if err := e.SetInput(step, FieldTitle, "x"); err == nil {
		t.Error("expected error for unknown step input")
	}
}

func TestSummary_DefaultsToPosition(t *testing.T) {
	e := newTestEditor(t, nil)
	p, _ := e.Add(nil)
	c, _ := e.Add(p)
	if p.Summary != "Phase 1" || c.Summary != "Cycle 1" {
		t.Errorf("summaries = %q, %q", p.Summary, c.Summary)
	}
}

func TestAdd_NextIDAndDefaults(t *testing.T) {
	e := newTestEditor(t, sampleDoc())

	p, err := e.Add(nil)
	if err != nil {
		t.Fatalf("Add phase: %v", err)
	}
	if p.ID != 7 || p.Index() != 2 {
		t.Errorf("new phase id/index = %d/%d, want 7/2", p.ID, p.Index())
	}

	c, err := e.Add(e.Find(KindPhase, 6))
	if err != nil {
		t.Fatalf("Add cycle: %v", err)
	}
	if c.ID != 10 {
		t.Errorf("new cycle id = %d, want 10", c.ID)
	}

	s, err := e.Add(c)
	if err != nil {
		t.Fatalf("Add step: %v", err)
	}
	if s.ID != 16 {
		t.Errorf("new step id = %d, want 16", s.ID)
	}
	if s.Field(FieldStepIcon) != document.DefaultStepIcon {
		t.Errorf("default icon = %q", s.Field(FieldStepIcon))
	}

	if _, err := e.Add(s); !errors.Is(err, ErrNoChild) {
		t.Errorf("Add(step) err = %v, want ErrNoChild", err)
	}

	doc := e.Document()
	if len(doc.Phases) != 3 || len(doc.Phases[1].Cycles) != 1 || len(doc.Phases[1].Cycles[0].Steps) != 1 {
		t.Errorf("submission shape wrong: %s", e.Submission())
	}
}

func TestAdd_SkipsPendingDeletedIDs(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	if ok, _ := e.Delete(e.Find(KindPhase, 6)); !ok {
		t.Fatal("delete refused")
	}
	p, _ := e.Add(nil)
	if p.ID != 7 {
		t.Errorf("new phase id = %d, want 7", p.ID)
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	var prompts []string
	deny := ConfirmFunc(func(p string) bool { prompts = append(prompts, p); return false })
	e := New(sampleDoc(), WithConfirmer(deny))

	ok, err := e.Delete(e.Find(KindCycle, 9))
	if err != nil || ok {
		t.Fatalf("Delete() = %v, %v; want refused", ok, err)
	}
	if e.Find(KindCycle, 9) == nil {
		t.Error("cycle removed without confirmation")
	}
	if len(prompts) != 1 || prompts[0] != "Delete this cycle?" {
		t.Errorf("prompts = %v", prompts)
	}

	unconfigured := New(sampleDoc())
	if ok, _ := unconfigured.Delete(unconfigured.Find(KindPhase, 5)); ok {
		t.Error("delete without confirmer should be refused")
	}
}

func TestDelete_RecordsPendingAndResavesParent(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	phase := e.Find(KindPhase, 5)

	ok, err := e.Delete(phase)
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if e.Find(KindStep, 14) != nil {
		t.Error("descendant step still in tree")
	}
	doc := e.Document()
	if !reflect.DeepEqual(doc.Deletions.Phases, document.IDSet{5}) {
		t.Errorf("phaseDeletes = %v", doc.Deletions.Phases)
	}
	if len(doc.Phases) != 1 || doc.Phases[0].ID != 6 || doc.Phases[0].Index != 0 {
		t.Errorf("remaining phases = %+v", doc.Phases)
	}
	if err := e.components[KindPhase].Save(phase); !errors.Is(err, ErrDetached) {
		t.Errorf("save of removed node err = %v, want ErrDetached", err)
	}
}

func TestDelete_Step(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	if _, err := e.Delete(e.Find(KindStep, 14)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	doc := e.Document()
	steps := doc.Phases[0].Cycles[0].Steps
	if len(steps) != 1 || steps[0].ID != 15 || steps[0].Index != 0 {
		t.Errorf("steps = %+v", steps)
	}
	if !doc.Deletions.Steps.Has(14) {
		t.Errorf("stepDeletes = %v", doc.Deletions.Steps)
	}
}

func TestMove(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	first, second := e.Find(KindPhase, 5), e.Find(KindPhase, 6)

	if moved, _ := e.MoveUp(first); moved {
		t.Error("MoveUp(first) should be a no-op")
	}
	if moved, _ := e.MoveDown(second); moved {
		t.Error("MoveDown(last) should be a no-op")
	}

	moved, err := e.MoveDown(first)
	if err != nil || !moved {
		t.Fatalf("MoveDown() = %v, %v", moved, err)
	}
	doc := e.Document()
	if doc.Phases[0].ID != 6 || doc.Phases[1].ID != 5 {
		t.Errorf("order = %d,%d; want 6,5", doc.Phases[0].ID, doc.Phases[1].ID)
	}
	if doc.Phases[0].Sort != 0 || doc.Phases[1].Sort != 1 {
		t.Errorf("sorts = %d,%d", doc.Phases[0].Sort, doc.Phases[1].Sort)
	}
	if first.Summary != "Onboarding" {
		t.Errorf("summary after move = %q", first.Summary)
	}
}

func TestMove_Steps(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	if _, err := e.MoveUp(e.Find(KindStep, 15)); err != nil {
		t.Fatalf("MoveUp: %v", err)
	}
	steps := e.Document().Phases[0].Cycles[0].Steps
	if steps[0].ID != 15 || steps[0].Index != 0 || steps[1].ID != 14 || steps[1].Index != 1 {
		t.Errorf("steps = %+v", steps)
	}
}

func TestCollapseAll_Idempotent(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	cycle := e.Find(KindCycle, 9)
	e.Toggle(cycle)

	// two steps and two phases; the cycle is already folded
	if got := e.CollapseAll(nil, KindPhase); got != 4 {
		t.Errorf("CollapseAll toggled %d, want 4", got)
	}
	if got := e.CollapseAll(nil, KindPhase); got != 0 {
		t.Errorf("second CollapseAll toggled %d, want 0", got)
	}
	if cycle.Glyph() != GlyphCollapsed {
		t.Errorf("glyph = %q", cycle.Glyph())
	}

	if got := e.ExpandAll(nil, KindPhase); got != 2 {
		t.Errorf("ExpandAll toggled %d, want 2", got)
	}
	if !cycle.Collapsed {
		t.Error("expanding phases should leave cycles folded")
	}
	if got := len(e.Visible()); got != 3 {
		t.Errorf("visible = %d, want 3 (two phases, one folded cycle)", got)
	}
}

func TestCollapseAll_Scoped(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	phase := e.Find(KindPhase, 5)
	if got := e.CollapseAll(phase, KindStep); got != 2 {
		t.Errorf("CollapseAll(steps) toggled %d, want 2", got)
	}
	if e.Find(KindPhase, 6).Collapsed || phase.Collapsed {
		t.Error("phases should be untouched")
	}
}

func TestStep_LinkSingleActivityForcedOff(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	step := e.Find(KindStep, 14)
	if err := e.SetInput(step, FieldLinkSingleActivity, "1"); err != nil {
		t.Fatal(err)
	}
	if !e.Document().Phases[0].Cycles[0].Steps[0].LinkSingleActivity {
		t.Fatal("single activity link should stick with one gating activity")
	}
	if err := e.SelectActivities(step, []int64{42, 43}); err != nil {
		t.Fatal(err)
	}
	got := e.Document().Phases[0].Cycles[0].Steps[0]
	if got.LinkSingleActivity || step.Field(FieldLinkSingleActivity) != "0" {
		t.Error("link flag should be cleared for multiple activities")
	}
	if got.CompletionModules != "42,43" {
		t.Errorf("completionmodules = %q", got.CompletionModules)
	}
}

func TestSetExpected(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	step := e.Find(KindStep, 15)

	if err := e.SetExpected(step, 44, 0); err != nil {
		t.Fatalf("SetExpected(activity): %v", err)
	}
	if err := e.SetExpected(step, 99, 0); err == nil {
		t.Error("expected error for non-gating activity")
	}
	if err := e.SetExpected(step, -1, 1700000000); err != nil {
		t.Fatalf("SetExpected(custom): %v", err)
	}
	got := e.Document().Phases[0].Cycles[0].Steps[1]
	if got.CompletionExpectedCmid != -1 || got.CompletionExpectedDatetime != 1700000000 {
		t.Errorf("expected = %d/%d", got.CompletionExpectedCmid, got.CompletionExpectedDatetime)
	}

	if err := e.SetExpected(step, 44, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.SelectActivities(step, []int64{43}); err != nil {
		t.Fatal(err)
	}
	if got := e.Document().Phases[0].Cycles[0].Steps[1].CompletionExpectedCmid; got != 0 {
		t.Errorf("reference to removed activity kept: %d", got)
	}
}

func TestMalformedChildMirrorTreatedAsEmpty(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	cycle := e.Find(KindCycle, 9)
	cycle.Mirror = "{not json"
	if err := e.SetInput(cycle.Parent, FieldTitle, "Renamed"); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	doc := e.Document()
	if doc.Phases[0].Title != "Renamed" {
		t.Errorf("title = %q", doc.Phases[0].Title)
	}
	if got := doc.Phases[0].Cycles[0]; got.ID != 0 || len(got.Steps) != 0 {
		t.Errorf("malformed cycle = %+v, want empty", got)
	}
}

func TestPhaseColors(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	e.Add(nil)
	got := e.PhaseColors([]string{"#111", "#222"})
	if !reflect.DeepEqual(got, []string{"#111", "#222", "#111"}) {
		t.Errorf("PhaseColors() = %v", got)
	}
	if e.PhaseColors(nil) != nil {
		t.Error("empty palette should give nil")
	}
}

func TestNodeDepth(t *testing.T) {
	e := newTestEditor(t, sampleDoc())
	if d := e.Find(KindStep, 14).Depth(); d != 2 {
		t.Errorf("step depth = %d", d)
	}
	if d := e.Find(KindPhase, 5).Depth(); d != 0 {
		t.Errorf("phase depth = %d", d)
	}
}

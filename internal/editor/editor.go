// Package editor keeps an editable roadmap tree and the serialized document
// submitted to the persistence layer in sync. Every structural change is
// followed by a save that propagates from the changed node up to the root.
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zulandar/roadmap/internal/document"
)

// Confirmer approves destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves everything; used by non-interactive callers.
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

// ErrNoChild is returned when adding below a step.
var ErrNoChild = errors.New("editor: steps have no children")

// Editor is the in-memory roadmap tree.
type Editor struct {
	root       *Node
	components map[Kind]Component
	confirm    Confirmer
	pending    document.Deletions
	objectives document.Objectives
}

// Option configures an Editor.
type Option func(*Editor)

// WithConfirmer sets the confirmation used by destructive actions. Without
// one every delete is refused.
func WithConfirmer(c Confirmer) Option {
	return func(e *Editor) { e.confirm = c }
}

// WithObjectives seeds the learning objective list.
func WithObjectives(o document.Objectives) Option {
	return func(e *Editor) { e.objectives = o }
}

// New builds an editor over doc. A nil doc starts an empty roadmap.
func New(doc *document.Document, opts ...Option) *Editor {
	e := &Editor{
		components: map[Kind]Component{
			KindPhase: phaseComponent{bindings{}},
			KindCycle: cycleComponent{bindings{}},
			KindStep:  stepComponent{bindings{}},
		},
		objectives: document.Objectives{LearningObjectives: []document.Objective{}},
	}
	e.components[KindRoot] = rootComponent{bindings: bindings{}, e: e}
	for _, opt := range opts {
		opt(e)
	}

	e.root = newNode(KindRoot, 0)
	if doc != nil {
		e.pending = doc.Deletions
		for _, p := range doc.Phases {
			e.root.Children = append(e.root.Children, phaseNode(e.root, p))
		}
	}
	e.attach(e.root)
	_ = e.saveSubtree(e.root)
	return e
}

func phaseNode(parent *Node, p document.Phase) *Node {
	n := newNode(KindPhase, int64(p.ID))
	n.Parent = parent
	n.Fields[FieldTitle] = p.Title
	for _, c := range p.Cycles {
		n.Children = append(n.Children, cycleNode(n, c))
	}
	return n
}

func cycleNode(parent *Node, c document.Cycle) *Node {
	n := newNode(KindCycle, int64(c.ID))
	n.Parent = parent
	n.Fields[FieldTitle] = c.Title
	n.Fields[FieldSubtitle] = c.Subtitle
	n.Fields[FieldPageLink] = c.PageLink
	n.Fields[FieldLearningObjectives] = c.LearningObjectives
	for _, s := range c.Steps {
		n.Children = append(n.Children, stepNode(n, s))
	}
	return n
}

func stepNode(parent *Node, s document.Step) *Node {
	n := newNode(KindStep, int64(s.ID))
	n.Parent = parent
	n.Fields[FieldRolloverText] = s.RolloverText
	n.Fields[FieldStepIcon] = s.StepIcon
	n.Fields[FieldCompletionModules] = s.CompletionModules
	n.Fields[FieldLinkSingleActivity] = flagString(bool(s.LinkSingleActivity))
	n.Fields[FieldPageLink] = s.PageLink
	n.Fields[FieldCompletionExpectedCmid] = strconv.FormatInt(int64(s.CompletionExpectedCmid), 10)
	n.Fields[FieldCompletionExpectedDatetime] = strconv.FormatInt(int64(s.CompletionExpectedDatetime), 10)
	return n
}

func flagString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Root is the roadmap node; its children are the phases.
func (e *Editor) Root() *Node { return e.root }

// Phases returns the phase nodes in order.
func (e *Editor) Phases() []*Node { return e.root.Children }

// Pending returns the deletions that will be flushed on the next save.
func (e *Editor) Pending() document.Deletions { return e.pending }

// Submission is the serialized document for the configuration field.
func (e *Editor) Submission() string { return e.root.Mirror }

// Document parses the current submission.
func (e *Editor) Document() *document.Document {
	return document.ParseLenient([]byte(e.root.Mirror), time.UTC)
}

func (e *Editor) attach(n *Node) {
	n.walk(func(x *Node) { e.components[x.Kind].Attach(x) })
}

func (e *Editor) detach(n *Node) {
	n.walk(func(x *Node) { e.components[x.Kind].Detach(x) })
}

// saveSubtree saves every node under n bottom up, then n's ancestors.
func (e *Editor) saveSubtree(n *Node) error {
	if err := e.saveDescendants(n); err != nil {
		return err
	}
	return e.save(n)
}

func (e *Editor) saveDescendants(n *Node) error {
	for _, c := range n.Children {
		if err := e.saveDescendants(c); err != nil {
			return err
		}
		if err := e.components[c.Kind].Save(c); err != nil {
			return err
		}
	}
	return nil
}

// save runs the component save for n and every ancestor.
func (e *Editor) save(n *Node) error {
	for cur := n; cur != nil; cur = cur.Parent {
		if err := e.components[cur.Kind].Save(cur); err != nil {
			return err
		}
	}
	return nil
}

// SetInput changes one input on n and propagates the save.
func (e *Editor) SetInput(n *Node, name, value string) error {
	if !hasField(n.Kind, name) {
		return fmt.Errorf("editor: %s has no input %q", n.Kind, name)
	}
	n.Fields[name] = value
	return e.save(n)
}

// nextID is one more than the largest id of kind in the tree or the
// pending deletions.
func (e *Editor) nextID(kind Kind) int64 {
	var max int64
	e.root.walk(func(n *Node) {
		if n.Kind == kind && n.ID > max {
			max = n.ID
		}
	})
	var deleted document.IDSet
	switch kind {
	case KindPhase:
		deleted = e.pending.Phases
	case KindCycle:
		deleted = e.pending.Cycles
	case KindStep:
		deleted = e.pending.Steps
	}
	for _, id := range deleted {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// Add appends a new child to parent with default inputs and returns it. A
// nil parent adds a phase.
func (e *Editor) Add(parent *Node) (*Node, error) {
	if parent == nil {
		parent = e.root
	}
	kind, ok := parent.Kind.child()
	if !ok {
		return nil, ErrNoChild
	}
	n := newNode(kind, e.nextID(kind))
	for _, f := range fieldNames[kind] {
		n.Fields[f] = ""
	}
	if kind == KindStep {
		n.Fields[FieldStepIcon] = document.DefaultStepIcon
		n.Fields[FieldLinkSingleActivity] = "0"
		n.Fields[FieldCompletionExpectedCmid] = "0"
		n.Fields[FieldCompletionExpectedDatetime] = "0"
	}
	n.Parent = parent
	parent.Children = append(parent.Children, n)
	e.attach(n)
	if err := e.save(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes n after confirmation and records its id for the next
// save. Descendants are removed with it. It reports whether anything was
// deleted.
func (e *Editor) Delete(n *Node) (bool, error) {
	if n == nil || n.Kind == KindRoot || n.Parent == nil {
		return false, nil
	}
	if e.confirm == nil || !e.confirm.Confirm(fmt.Sprintf("Delete this %s?", n.Kind)) {
		return false, nil
	}
	switch n.Kind {
	case KindPhase:
		e.pending.Phases.Add(n.ID)
	case KindCycle:
		e.pending.Cycles.Add(n.ID)
	case KindStep:
		e.pending.Steps.Add(n.ID)
	}
	parent := n.Parent
	e.detach(n)
	parent.remove(n)
	return true, e.saveSiblings(parent)
}

// saveSiblings re-saves parent's children, whose positions moved, then the
// ancestor chain.
func (e *Editor) saveSiblings(parent *Node) error {
	for _, c := range parent.Children {
		if err := e.components[c.Kind].Save(c); err != nil {
			return err
		}
	}
	return e.save(parent)
}

// MoveUp swaps n with its previous sibling. It is a no-op for the first
// node and reports whether anything moved.
func (e *Editor) MoveUp(n *Node) (bool, error) {
	return e.move(n, -1)
}

// MoveDown swaps n with its next sibling.
func (e *Editor) MoveDown(n *Node) (bool, error) {
	return e.move(n, 1)
}

func (e *Editor) move(n *Node, delta int) (bool, error) {
	if n == nil || n.Parent == nil {
		return false, nil
	}
	siblings := n.Parent.Children
	i := n.Index()
	j := i + delta
	if i < 0 || j < 0 || j >= len(siblings) {
		return false, nil
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]
	return true, e.saveSiblings(n.Parent)
}

// Toggle flips the collapsed state of n.
func (e *Editor) Toggle(n *Node) {
	n.Collapsed = !n.Collapsed
}

// SetCollapsed toggles n only when its state differs from collapsed.
func (e *Editor) SetCollapsed(n *Node, collapsed bool) bool {
	if n.Collapsed == collapsed {
		return false
	}
	e.Toggle(n)
	return true
}

// CollapseAll collapses every node of kind under scope (nil for the whole
// tree). Collapsing phases or cycles collapses their descendants first so
// they reopen folded. It returns the number of nodes toggled.
func (e *Editor) CollapseAll(scope *Node, kind Kind) int {
	if scope == nil {
		scope = e.root
	}
	toggled := 0
	for _, k := range []Kind{KindStep, KindCycle, KindPhase} {
		if k < kind {
			break
		}
		toggled += e.setAll(scope, k, true)
	}
	return toggled
}

// ExpandAll expands every node of kind under scope.
func (e *Editor) ExpandAll(scope *Node, kind Kind) int {
	if scope == nil {
		scope = e.root
	}
	return e.setAll(scope, kind, false)
}

func (e *Editor) setAll(scope *Node, kind Kind, collapsed bool) int {
	toggled := 0
	scope.walk(func(n *Node) {
		if n.Kind == kind && e.SetCollapsed(n, collapsed) {
			toggled++
		}
	})
	return toggled
}

// Visible lists nodes in display order, skipping children of collapsed
// nodes.
func (e *Editor) Visible() []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(n *Node) {
		for _, c := range n.Children {
			out = append(out, c)
			if !c.Collapsed {
				visit(c)
			}
		}
	}
	visit(e.root)
	return out
}

// Find returns the node of kind with id.
func (e *Editor) Find(kind Kind, id int64) *Node {
	var found *Node
	e.root.walk(func(n *Node) {
		if found == nil && n.Kind == kind && n.ID == id {
			found = n
		}
	})
	return found
}

// SelectActivities sets the activities gating a step.
func (e *Editor) SelectActivities(step *Node, ids []int64) error {
	if step.Kind != KindStep {
		return fmt.Errorf("editor: %s has no gating activities", step.Kind)
	}
	return e.SetInput(step, FieldCompletionModules, document.JoinIDs(ids))
}

// SetExpected sets a step's expected completion reference: 0 for none,
// -1 for a custom epoch, or one of its gating activity ids with that
// activity's own date as epoch.
func (e *Editor) SetExpected(step *Node, ref, epoch int64) error {
	if step.Kind != KindStep {
		return fmt.Errorf("editor: %s has no expected completion", step.Kind)
	}
	if ref > 0 && !containsID(document.SplitIDs(step.Field(FieldCompletionModules)), ref) {
		return fmt.Errorf("editor: activity %d does not gate step %d", ref, step.ID)
	}
	if ref < document.ExpectedCustom {
		return fmt.Errorf("editor: invalid expected completion reference %d", ref)
	}
	step.Fields[FieldCompletionExpectedCmid] = strconv.FormatInt(ref, 10)
	if ref == document.ExpectedNone {
		epoch = 0
	}
	step.Fields[FieldCompletionExpectedDatetime] = strconv.FormatInt(epoch, 10)
	return e.save(step)
}

// PhaseColors returns each phase's border color from palette by position.
func (e *Editor) PhaseColors(palette []string) []string {
	if len(palette) == 0 {
		return nil
	}
	colors := make([]string, len(e.root.Children))
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}

package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/zulandar/roadmap/internal/document"
)

// ErrDetached is returned when saving a node no component is bound to.
var ErrDetached = errors.New("editor: node is not attached")

// Component owns the save behavior of one node kind. The editor attaches
// every node after it enters the tree and detaches it when it leaves.
type Component interface {
	Attach(n *Node)
	Detach(n *Node)
	// Save serializes the node's inputs and child mirrors into n.Mirror and
	// refreshes n.Summary.
	Save(n *Node) error
}

type bindings map[*Node]struct{}

func (b bindings) Attach(n *Node) { b[n] = struct{}{} }
func (b bindings) Detach(n *Node) { delete(b, n) }

func (b bindings) check(n *Node) error {
	if _, ok := b[n]; !ok {
		return fmt.Errorf("%w: %s %d", ErrDetached, n.Kind, n.ID)
	}
	return nil
}

func encodeMirror(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func defaultSummary(label string, n *Node, text string) string {
	if text != "" {
		return text
	}
	return label + " " + strconv.Itoa(n.Index()+1)
}

type phaseComponent struct{ bindings }

func (c phaseComponent) Save(n *Node) error {
	if err := c.check(n); err != nil {
		return err
	}
	idx := n.Index()
	p := document.Phase{
		ID:     document.Int(n.ID),
		Title:  n.Field(FieldTitle),
		Sort:   idx,
		Index:  idx,
		Number: idx + 1,
		Cycles: make([]document.Cycle, 0, len(n.Children)),
	}
	for i, child := range n.Children {
		cy := document.Decode[document.Cycle](child.Mirror)
		cy.Index, cy.Sort, cy.Number = i, i, i+1
		if cy.Steps == nil {
			cy.Steps = []document.Step{}
		}
		p.Cycles = append(p.Cycles, cy)
	}
	n.Mirror = encodeMirror(p)
	n.Summary = defaultSummary("Phase", n, p.Title)
	return nil
}

type cycleComponent struct{ bindings }

func (c cycleComponent) Save(n *Node) error {
	if err := c.check(n); err != nil {
		return err
	}
	idx := n.Index()
	cy := document.Cycle{
		ID:                 document.Int(n.ID),
		Title:              n.Field(FieldTitle),
		Subtitle:           n.Field(FieldSubtitle),
		PageLink:           n.Field(FieldPageLink),
		LearningObjectives: n.Field(FieldLearningObjectives),
		Sort:               idx,
		Index:              idx,
		Number:             idx + 1,
		Steps:              make([]document.Step, 0, len(n.Children)),
	}
	for i, child := range n.Children {
		st := document.Decode[document.Step](child.Mirror)
		st.Index, st.Sort, st.Number = i, i, i+1
		cy.Steps = append(cy.Steps, st)
	}
	n.Mirror = encodeMirror(cy)
	n.Summary = defaultSummary("Cycle", n, cy.Title)
	return nil
}

type stepComponent struct{ bindings }

func (c stepComponent) Save(n *Node) error {
	if err := c.check(n); err != nil {
		return err
	}
	gating := document.SplitIDs(n.Field(FieldCompletionModules))
	if len(gating) > 1 {
		n.Fields[FieldLinkSingleActivity] = "0"
	}
	cmid := n.intField(FieldCompletionExpectedCmid)
	if cmid > 0 && !containsID(gating, cmid) {
		cmid = 0
		n.Fields[FieldCompletionExpectedCmid] = "0"
	}
	idx := n.Index()
	st := document.Step{
		ID:                         document.Int(n.ID),
		RolloverText:               n.Field(FieldRolloverText),
		StepIcon:                   n.Field(FieldStepIcon),
		CompletionModules:          document.JoinIDs(gating),
		LinkSingleActivity:         document.Flag(n.Field(FieldLinkSingleActivity) == "1"),
		PageLink:                   n.Field(FieldPageLink),
		CompletionExpectedCmid:     document.Int(cmid),
		CompletionExpectedDatetime: document.Int(n.intField(FieldCompletionExpectedDatetime)),
		Sort:                       idx,
		Index:                      idx,
		Number:                     idx + 1,
	}
	n.Mirror = encodeMirror(st)
	n.Summary = defaultSummary("Step", n, st.RolloverText)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// rootComponent writes the submission document from the phase mirrors and
// the editor's pending deletions.
type rootComponent struct {
	bindings
	e *Editor
}

func (c rootComponent) Save(n *Node) error {
	if err := c.check(n); err != nil {
		return err
	}
	doc := document.New()
	for i, child := range n.Children {
		p := document.Decode[document.Phase](child.Mirror)
		p.Index, p.Sort, p.Number = i, i, i+1
		if p.Cycles == nil {
			p.Cycles = []document.Cycle{}
		}
		doc.Phases = append(doc.Phases, p)
	}
	doc.Deletions = c.e.pending
	data, err := document.Encode(doc)
	if err != nil {
		return err
	}
	n.Mirror = string(data)
	n.Summary = strconv.Itoa(len(n.Children)) + " phases"
	return nil
}

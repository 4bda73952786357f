package editor

import (
	"fmt"
	"strconv"
)

// Kind is the level of a node in the roadmap tree.
type Kind int

const (
	KindRoot Kind = iota
	KindPhase
	KindCycle
	KindStep
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "roadmap"
	case KindPhase:
		return "phase"
	case KindCycle:
		return "cycle"
	case KindStep:
		return "step"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// child returns the kind of node that can be added under k.
func (k Kind) child() (Kind, bool) {
	switch k {
	case KindRoot:
		return KindPhase, true
	case KindPhase:
		return KindCycle, true
	case KindCycle:
		return KindStep, true
	default:
		return 0, false
	}
}

// Input names carried by each node kind.
const (
	FieldTitle                      = "title"
	FieldSubtitle                   = "subtitle"
	FieldPageLink                   = "pagelink"
	FieldLearningObjectives         = "learningobjectives"
	FieldRolloverText               = "rollovertext"
	FieldStepIcon                   = "stepicon"
	FieldCompletionModules          = "completionmodules"
	FieldLinkSingleActivity         = "linksingleactivity"
	FieldCompletionExpectedCmid     = "completionexpectedcmid"
	FieldCompletionExpectedDatetime = "completionexpecteddatetime"
)

var fieldNames = map[Kind][]string{
	KindPhase: {FieldTitle},
	KindCycle: {FieldTitle, FieldSubtitle, FieldPageLink, FieldLearningObjectives},
	KindStep: {
		FieldRolloverText, FieldStepIcon, FieldCompletionModules, FieldLinkSingleActivity,
		FieldPageLink, FieldCompletionExpectedCmid, FieldCompletionExpectedDatetime,
	},
}

// Fields lists the inputs of a node kind in form order.
func Fields(k Kind) []string {
	return append([]string(nil), fieldNames[k]...)
}

func hasField(k Kind, name string) bool {
	for _, f := range fieldNames[k] {
		if f == name {
			return true
		}
	}
	return false
}

// Collapse glyphs.
const (
	GlyphCollapsed = "▸"
	GlyphExpanded  = "▾"
)

// Node is one element of the editable tree. Fields holds the node's inputs,
// Mirror the JSON its component last serialized from them, and Summary the
// header text shown while collapsed.
type Node struct {
	Kind      Kind
	ID        int64
	Fields    map[string]string
	Mirror    string
	Summary   string
	Collapsed bool
	Parent    *Node
	Children  []*Node
}

func newNode(kind Kind, id int64) *Node {
	return &Node{Kind: kind, ID: id, Fields: make(map[string]string)}
}

// Index is the node's zero-based position among its siblings.
func (n *Node) Index() int {
	if n.Parent == nil {
		return 0
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Depth is 0 for phases, 1 for cycles and 2 for steps.
func (n *Node) Depth() int {
	d := -1
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Glyph is the collapse indicator for the node's header.
func (n *Node) Glyph() string {
	if n.Collapsed {
		return GlyphCollapsed
	}
	return GlyphExpanded
}

// Field returns an input value.
func (n *Node) Field(name string) string { return n.Fields[name] }

func (n *Node) intField(name string) int64 {
	v, _ := strconv.ParseInt(n.Fields[name], 10, 64)
	return v
}

// walk visits n and its descendants depth first.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *Node) remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

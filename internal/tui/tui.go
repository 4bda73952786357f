// Package tui is a terminal front end for the roadmap tree editor.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/editor"
)

// SaveFunc persists the submitted tree and objectives and returns the
// stored tree, whose new nodes now carry their database ids, plus a status
// line.
type SaveFunc func(doc *document.Document, objectives document.Objectives) (*document.Document, string, error)

// Options configure the editor screen.
type Options struct {
	Title      string
	Palette    []string
	Objectives document.Objectives
	Save       SaveFunc
}

type mode int

const (
	modeBrowse mode = iota
	modeEdit
	modeConfirm
)

type savedMsg struct {
	doc    *document.Document
	status string
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5A56E0"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC0000"))
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D14905"))
	dirtyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D14905"))
	helpLine      = "↑/↓ move · enter fold · a add · A add phase · e edit · d delete · K/J reorder · c/o fold/unfold all · s save · q quit"
	editHelpLine  = "enter next field · esc done"
	stepGlyph     = "•"
	phaseSwatch   = "■"
	emptyTreeLine = "No phases yet. Press A to add one."
	savingStatus  = "saving..."
)

// Model is the bubbletea model for the editor screen.
type Model struct {
	opts      Options
	ed        *editor.Editor
	cursor    int
	mode      mode
	input     textinput.Model
	fields    []string
	field     int
	target    *editor.Node
	confirmed bool
	dirty     bool
	saving    bool
	status    string
	err       error
	width     int
}

// New returns the editor screen over doc.
func New(doc *document.Document, opts Options) *Model {
	m := &Model{opts: opts, input: textinput.New()}
	m.input.CharLimit = 255
	m.reset(doc)
	return m
}

// reset rebuilds the editor over doc, keeping the cursor in range.
func (m *Model) reset(doc *document.Document) {
	objectives := m.opts.Objectives
	if m.ed != nil {
		objectives = m.ed.ObjectivesDocument()
	}
	m.ed = editor.New(doc,
		editor.WithConfirmer(editor.ConfirmFunc(func(string) bool { return m.confirmed })),
		editor.WithObjectives(objectives),
	)
	m.clampCursor()
}

// Editor exposes the underlying tree editor.
func (m *Model) Editor() *editor.Editor { return m.ed }

// Dirty reports whether there are unsaved changes.
func (m *Model) Dirty() bool { return m.dirty }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) current() *editor.Node {
	nodes := m.ed.Visible()
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return nil
	}
	return nodes[m.cursor]
}

func (m *Model) clampCursor() {
	n := len(m.ed.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// focus moves the cursor onto n.
func (m *Model) focus(n *editor.Node) {
	for i, v := range m.ed.Visible() {
		if v == n {
			m.cursor = i
			return
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 20
		return m, nil
	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.dirty = false
		m.status = msg.status
		m.reset(msg.doc)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

// readOnlyKeys are the browse keys accepted while a save is running. The
// stored tree replaces the editor when the save returns, so nothing may
// change it in between.
var readOnlyKeys = map[string]bool{
	"ctrl+c": true, "q": true, "up": true, "k": true, "down": true, "j": true,
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	if m.saving && !readOnlyKeys[msg.String()] {
		m.status = savingStatus
		return m, nil
	}
	cur := m.current()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.ed.Visible())-1 {
			m.cursor++
		}
	case "enter", " ":
		if cur != nil && cur.Kind != editor.KindStep {
			m.ed.Toggle(cur)
		}
	case "A":
		m.add(nil)
	case "a":
		if cur == nil {
			m.add(nil)
			break
		}
		parent := cur
		if cur.Kind == editor.KindStep {
			parent = cur.Parent
		}
		m.add(parent)
	case "e":
		if cur != nil {
			m.startEdit(cur)
			return m, textinput.Blink
		}
	case "d", "x":
		if cur != nil {
			m.target = cur
			m.mode = modeConfirm
		}
	case "K", "shift+up":
		m.move(cur, -1)
	case "J", "shift+down":
		m.move(cur, 1)
	case "c":
		if cur != nil {
			m.ed.CollapseAll(nil, cur.Kind)
			m.clampCursor()
		}
	case "o":
		if cur != nil {
			m.ed.ExpandAll(nil, cur.Kind)
		}
	case "s", "ctrl+s":
		return m, m.save()
	}
	return m, nil
}

func (m *Model) add(parent *editor.Node) {
	if parent != nil && parent.Collapsed {
		m.ed.Toggle(parent)
	}
	n, err := m.ed.Add(parent)
	if err != nil {
		m.err = err
		return
	}
	m.dirty = true
	m.focus(n)
	m.startEdit(n)
}

func (m *Model) move(n *editor.Node, delta int) {
	if n == nil {
		return
	}
	var moved bool
	var err error
	if delta < 0 {
		moved, err = m.ed.MoveUp(n)
	} else {
		moved, err = m.ed.MoveDown(n)
	}
	if err != nil {
		m.err = err
		return
	}
	if moved {
		m.dirty = true
		m.focus(n)
	}
}

// editableFields are the text inputs offered for a kind; the expected
// completion inputs are set through the CLI.
func editableFields(k editor.Kind) []string {
	var out []string
	for _, f := range editor.Fields(k) {
		switch f {
		case editor.FieldCompletionExpectedCmid, editor.FieldCompletionExpectedDatetime:
			continue
		}
		out = append(out, f)
	}
	return out
}

func (m *Model) startEdit(n *editor.Node) {
	m.target = n
	m.fields = editableFields(n.Kind)
	m.field = 0
	m.mode = modeEdit
	m.loadField()
}

func (m *Model) loadField() {
	name := m.fields[m.field]
	m.input.Prompt = name + ": "
	m.input.SetValue(m.target.Field(name))
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) commitField() {
	name := m.fields[m.field]
	value := strings.TrimSpace(m.input.Value())
	if value == m.target.Field(name) {
		return
	}
	if err := m.ed.SetInput(m.target, name, value); err != nil {
		m.err = err
		return
	}
	m.dirty = true
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.commitField()
		m.endEdit()
		return m, nil
	case tea.KeyEnter, tea.KeyTab:
		m.commitField()
		if m.field+1 >= len(m.fields) {
			m.endEdit()
			return m, nil
		}
		m.field++
		m.loadField()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endEdit() {
	m.input.Blur()
	m.mode = modeBrowse
	m.target = nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.target
	m.mode = modeBrowse
	m.target = nil
	if msg.String() != "y" && msg.String() != "Y" {
		m.status = "delete cancelled"
		return m, nil
	}
	m.confirmed = true
	deleted, err := m.ed.Delete(target)
	m.confirmed = false
	if err != nil {
		m.err = err
		return m, nil
	}
	if deleted {
		m.dirty = true
		m.status = fmt.Sprintf("deleted %s", target.Kind)
	}
	m.clampCursor()
	return m, nil
}

func (m *Model) save() tea.Cmd {
	if m.opts.Save == nil || m.saving {
		return nil
	}
	m.saving = true
	m.status = savingStatus
	doc := m.ed.Document()
	objectives := m.ed.ObjectivesDocument()
	save := m.opts.Save
	return func() tea.Msg {
		stored, status, err := save(doc, objectives)
		return savedMsg{doc: stored, status: status, err: err}
	}
}

func (m *Model) View() string {
	var b strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "Roadmap"
	}
	b.WriteString(titleStyle.Render(title))
	if m.dirty {
		b.WriteString(dirtyStyle.Render(" (modified)"))
	}
	b.WriteString("\n\n")

	nodes := m.ed.Visible()
	if len(nodes) == 0 {
		b.WriteString(dimStyle.Render(emptyTreeLine) + "\n")
	}
	colors := m.ed.PhaseColors(m.opts.Palette)
	for i, n := range nodes {
		line := m.renderNode(n, colors)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case modeEdit:
		b.WriteString(m.input.View() + "\n")
		b.WriteString(dimStyle.Render(editHelpLine) + "\n")
	case modeConfirm:
		b.WriteString(promptStyle.Render(fmt.Sprintf("Delete this %s? (y/n)", m.target.Kind)) + "\n")
	default:
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
		} else if m.status != "" {
			b.WriteString(dimStyle.Render(m.status) + "\n")
		}
		b.WriteString(dimStyle.Render(helpLine) + "\n")
	}
	return b.String()
}

func (m *Model) renderNode(n *editor.Node, colors []string) string {
	indent := strings.Repeat("  ", n.Depth())
	glyph := n.Glyph()
	if n.Kind == editor.KindStep {
		glyph = stepGlyph
	}
	line := indent + glyph + " " + n.Summary
	if n.Kind == editor.KindPhase && len(colors) > n.Index() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[n.Index()])).Render(phaseSwatch)
		line = indent + swatch + " " + glyph + " " + n.Summary
	}
	if n.Kind == editor.KindStep {
		if ids := document.SplitIDs(n.Field(editor.FieldCompletionModules)); len(ids) > 0 {
			line += dimStyle.Render(fmt.Sprintf("  [%d activities]", len(ids)))
		}
	}
	return line
}

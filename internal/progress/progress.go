// Package progress annotates a roadmap tree with one user's completion
// state for display. It never modifies the tree.
package progress

import (
	"strings"
	"time"

	"github.com/zulandar/roadmap/internal/document"
)

// NeutralColor marks incomplete icons and cycles.
const NeutralColor = "#aaa"

// AlertWindow is how long before the expected time a pending step is
// flagged.
const AlertWindow = 24 * time.Hour

// Icon flags.
const (
	FlagAlert  = "a"
	FlagStar   = "s"
	FlagNoRing = "n"
)

// Status is the completion state of one gating activity.
type Status struct {
	Known       bool
	Complete    bool
	CompletedAt int64
	// Expected is the activity's own expected completion epoch, 0 if unset.
	Expected int64
	// URL links to the activity; empty when it is not visible.
	URL string
}

// CompletionSource resolves gating activities for one user.
type CompletionSource interface {
	Status(activityID int64) Status
}

// IconURLFunc builds the image URL for a step icon.
type IconURLFunc func(name string, percent int, color, flags string) string

// Display holds the roadmap's layout options, copied to the view as is.
type Display struct {
	Position   int `json:"displayposition"`
	Alignment  int `json:"cyclealignment"`
	Decoration int `json:"cycledecoration"`
}

// Options control rendering.
type Options struct {
	Now        time.Time
	Location   *time.Location
	Palette    []string
	Objectives document.Objectives
	CLOPrefix  string
	Display    Display
	IconURL    IconURLFunc
}

// View is the renderable roadmap.
type View struct {
	Display
	Phases  []PhaseView `json:"phases"`
	Percent int         `json:"percent"`
}

type PhaseView struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Color    string      `json:"color"`
	Complete bool        `json:"complete"`
	Cycles   []CycleView `json:"cycles"`
}

type CycleView struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Subtitle           string     `json:"subtitle"`
	PageLink           string     `json:"pagelink"`
	LearningObjectives string     `json:"learningobjectives"`
	Color              string     `json:"color"`
	Complete           bool       `json:"complete"`
	Steps              []StepView `json:"steps"`
}

type StepView struct {
	ID               int64  `json:"id"`
	RolloverText     string `json:"rollovertext"`
	StepIcon         string `json:"stepicon"`
	Percent          int    `json:"percent"`
	Complete         bool   `json:"complete"`
	Expected         int64  `json:"expected"`
	ExpectedReadable string `json:"expectedreadable"`
	Alert            bool   `json:"alert"`
	CompletedOnTime  bool   `json:"completedontime"`
	Flags            string `json:"flags"`
	IconURL          string `json:"iconurl,omitempty"`
	StepURL          string `json:"stepurl,omitempty"`
}

// Percent is done out of total as a truncated percentage; 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}

// Renderer walks a tree against a completion source.
type Renderer struct {
	source CompletionSource
	opts   Options
}

// NewRenderer returns a renderer. A zero Now means time.Now at render.
func NewRenderer(source CompletionSource, opts Options) *Renderer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Renderer{source: source, opts: opts}
}

// Render builds the view for doc.
func (r *Renderer) Render(doc *document.Document) *View {
	now := r.opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	v := &View{Display: r.opts.Display, Phases: make([]PhaseView, 0, len(doc.Phases))}
	var steps, done int
	for pi, p := range doc.Phases {
		color := NeutralColor
		if len(r.opts.Palette) > 0 {
			color = r.opts.Palette[pi%len(r.opts.Palette)]
		}
		pv := PhaseView{ID: int64(p.ID), Title: p.Title, Color: color, Complete: true, Cycles: make([]CycleView, 0, len(p.Cycles))}
		for _, c := range p.Cycles {
			cv := r.cycle(c, color, now)
			if !cv.Complete {
				pv.Complete = false
			}
			for _, s := range cv.Steps {
				steps++
				if s.Complete {
					done++
				}
			}
			pv.Cycles = append(pv.Cycles, cv)
		}
		v.Phases = append(v.Phases, pv)
	}
	v.Percent = Percent(done, steps)
	return v
}

func (r *Renderer) cycle(c document.Cycle, color string, now time.Time) CycleView {
	cv := CycleView{
		ID:       int64(c.ID),
		Title:    c.Title,
		Subtitle: c.Subtitle,
		PageLink: c.PageLink,
		Complete: true,
		Steps:    make([]StepView, 0, len(c.Steps)),
	}
	if ids := c.ObjectiveIDs(); len(ids) > 0 {
		if numbers := r.opts.Objectives.Numbers(ids); numbers != "" {
			cv.LearningObjectives = strings.TrimSpace(r.opts.CLOPrefix + " " + numbers)
		}
	}
	for _, s := range c.Steps {
		sv := r.step(s, color, now)
		if !sv.Complete {
			cv.Complete = false
		}
		cv.Steps = append(cv.Steps, sv)
	}
	cv.Color = color
	if !cv.Complete {
		cv.Color = NeutralColor
	}
	return cv
}

func (r *Renderer) step(s document.Step, color string, now time.Time) StepView {
	ids := s.GatingIDs()
	sv := StepView{ID: int64(s.ID), RolloverText: s.RolloverText, StepIcon: s.StepIcon}

	var done int
	var lastCompleted int64
	statuses := make([]Status, len(ids))
	for i, id := range ids {
		st := r.source.Status(id)
		statuses[i] = st
		if st.Complete {
			done++
			if st.CompletedAt > lastCompleted {
				lastCompleted = st.CompletedAt
			}
		}
	}
	sv.Percent = Percent(done, len(ids))
	sv.Complete = len(ids) > 0 && done == len(ids)

	sv.Expected = r.expected(s, ids, statuses)
	if sv.Expected > 0 {
		sv.ExpectedReadable = document.Readable(sv.Expected, r.opts.Location)
		deadline := time.Unix(sv.Expected, 0)
		sv.Alert = !sv.Complete && !now.Before(deadline.Add(-AlertWindow))
		sv.CompletedOnTime = sv.Complete && lastCompleted < sv.Expected
	}

	var flags string
	if len(ids) == 0 {
		flags += FlagNoRing
	}
	switch {
	case sv.Alert:
		flags += FlagAlert
	case sv.CompletedOnTime:
		flags += FlagStar
	}
	sv.Flags = flags

	switch {
	case bool(s.LinkSingleActivity) && len(ids) == 1:
		sv.StepURL = statuses[0].URL
	case s.PageLink != "":
		sv.StepURL = s.PageLink
	}

	if r.opts.IconURL != nil && s.StepIcon != "" {
		sv.IconURL = r.opts.IconURL(s.StepIcon, sv.Percent, color, flags)
	}
	return sv
}

// expected resolves the step's expected completion epoch: the referenced
// gating activity's own date, the custom stored date, or 0.
func (r *Renderer) expected(s document.Step, ids []int64, statuses []Status) int64 {
	ref := int64(s.CompletionExpectedCmid)
	switch {
	case ref == document.ExpectedNone:
		return 0
	case ref == document.ExpectedCustom:
		return int64(s.CompletionExpectedDatetime)
	}
	for i, id := range ids {
		if id == ref && statuses[i].Known && statuses[i].Expected > 0 {
			return statuses[i].Expected
		}
	}
	return int64(s.CompletionExpectedDatetime)
}

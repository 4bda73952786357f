// Package document defines the JSON document exchanged between the roadmap
// editor and the persistence layer, along with the migration of older shapes.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is the schema version written by Encode.
const Version = 2

// Default icon for steps created in the editor.
const DefaultStepIcon = "icon-10"

// Document is the full configuration tree plus pending deletions.
type Document struct {
	Version int     `json:"version"`
	Phases  []Phase `json:"phases"`
	Deletions
}

// Deletions are node ids removed in the editor and not yet flushed.
type Deletions struct {
	Phases IDSet `json:"phaseDeletes"`
	Cycles IDSet `json:"cycleDeletes"`
	Steps  IDSet `json:"stepDeletes"`
}

// Empty reports whether nothing is pending.
func (d Deletions) Empty() bool {
	return len(d.Phases) == 0 && len(d.Cycles) == 0 && len(d.Steps) == 0
}

// Phase is a top-level group of cycles.
type Phase struct {
	ID        Int     `json:"id"`
	RoadmapID Int     `json:"roadmapid,omitempty"`
	Title     string  `json:"title"`
	Sort      int     `json:"sort"`
	Index     int     `json:"index"`
	Number    int     `json:"number,omitempty"`
	Cycles    []Cycle `json:"cycles"`
}

// Cycle is a group of steps within a phase.
type Cycle struct {
	ID                 Int    `json:"id"`
	PhaseID            Int    `json:"phaseid,omitempty"`
	Title              string `json:"title"`
	Subtitle           string `json:"subtitle"`
	PageLink           string `json:"pagelink"`
	LearningObjectives string `json:"learningobjectives"`
	Sort               int    `json:"sort"`
	Index              int    `json:"index"`
	Number             int    `json:"number,omitempty"`
	Steps              []Step `json:"steps"`
}

// Step is one icon on the roadmap, gated by a set of course activities.
type Step struct {
	ID                         Int    `json:"id"`
	CycleID                    Int    `json:"cycleid,omitempty"`
	RolloverText               string `json:"rollovertext"`
	StepIcon                   string `json:"stepicon"`
	CompletionModules          string `json:"completionmodules"`
	LinkSingleActivity         Flag   `json:"linksingleactivity"`
	PageLink                   string `json:"pagelink"`
	CompletionExpectedCmid     Int    `json:"completionexpectedcmid"`
	CompletionExpectedDatetime Int    `json:"completionexpecteddatetime"`
	CompletionExpectedReadable string `json:"completionexpectedreadable,omitempty"`
	IconURL                    string `json:"iconurl,omitempty"`
	Sort                       int    `json:"sort"`
	Index                      int    `json:"index"`
	Number                     int    `json:"number,omitempty"`

	legacy *legacyExpected
}

// legacyExpected holds the version 1 expected-completion fields: a checkbox
// plus date picker parts.
type legacyExpected struct {
	Enabled *Flag `json:"expectedcomplete"`
	Day     *Int  `json:"completionexpected_day"`
	Month   *Int  `json:"completionexpected_month"`
	Year    *Int  `json:"completionexpected_year"`
	Hour    *Int  `json:"completionexpected_hour"`
	Minute  *Int  `json:"completionexpected_minute"`
}

func (l *legacyExpected) present() bool {
	return l.Enabled != nil || l.Day != nil || l.Month != nil || l.Year != nil
}

func (l *legacyExpected) hasDate() bool {
	return l.Day != nil && l.Month != nil && l.Year != nil && *l.Day > 0 && *l.Month > 0 && *l.Year > 0
}

func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var l legacyExpected
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*s = Step(p)
	if l.present() {
		s.legacy = &l
	}
	return nil
}

// GatingIDs returns the ids of the activities gating this step.
func (s Step) GatingIDs() []int64 { return SplitIDs(s.CompletionModules) }

// ObjectiveIDs returns the learning objective ids selected on this cycle.
func (c Cycle) ObjectiveIDs() []int64 { return SplitIDs(c.LearningObjectives) }

// New returns an empty current-version document.
func New() *Document {
	return &Document{Version: Version, Phases: []Phase{}}
}

// ErrMalformed wraps any decode failure.
var ErrMalformed = errors.New("document: malformed")

// Parse decodes a submitted document, interpreting legacy picker dates in UTC.
func Parse(data []byte) (*Document, error) {
	return ParseInLocation(data, time.UTC)
}

// ParseInLocation decodes a submitted document and migrates it to the current
// version. Legacy date picker fields are interpreted in loc. A document
// without phases is valid and has none.
func ParseInLocation(data []byte, loc *time.Location) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return New(), nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Version < Version {
		migrateV1(&doc, loc)
	}
	doc.Version = Version
	doc.normalize()
	return &doc, nil
}

// ParseLenient is Parse that degrades to an empty document.
func ParseLenient(data []byte, loc *time.Location) *Document {
	doc, err := ParseInLocation(data, loc)
	if err != nil {
		return New()
	}
	return doc
}

// migrateV1 folds the picker fields into the canonical reference + epoch.
// An explicit completionexpectedcmid always wins.
func migrateV1(doc *Document, loc *time.Location) {
	for pi := range doc.Phases {
		for ci := range doc.Phases[pi].Cycles {
			steps := doc.Phases[pi].Cycles[ci].Steps
			for si := range steps {
				migrateStep(&steps[si], loc)
			}
		}
	}
}

func migrateStep(s *Step, loc *time.Location) {
	l := s.legacy
	s.legacy = nil
	if l == nil || s.CompletionExpectedCmid != 0 {
		return
	}
	if l.Enabled == nil || !*l.Enabled {
		return
	}
	s.CompletionExpectedCmid = -1
	if !l.hasDate() {
		return
	}
	var hour, minute int
	if l.Hour != nil {
		hour = int(*l.Hour)
	}
	if l.Minute != nil {
		minute = int(*l.Minute)
	}
	t := time.Date(int(*l.Year), time.Month(*l.Month), int(*l.Day), hour, minute, 0, 0, loc)
	s.CompletionExpectedDatetime = Int(t.Unix())
}

// normalize replaces nil child lists so encoded documents always carry
// arrays, and drops migration state.
func (d *Document) normalize() {
	if d.Phases == nil {
		d.Phases = []Phase{}
	}
	for pi := range d.Phases {
		p := &d.Phases[pi]
		if p.Cycles == nil {
			p.Cycles = []Cycle{}
		}
		for ci := range p.Cycles {
			c := &p.Cycles[ci]
			if c.Steps == nil {
				c.Steps = []Step{}
			}
			for si := range c.Steps {
				c.Steps[si].legacy = nil
			}
		}
	}
}

// Encode writes the document as current-version JSON.
func Encode(doc *Document) ([]byte, error) {
	out := *doc
	out.Version = Version
	out.normalize()
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return data, nil
}

// String is Encode for logs and hidden fields; it never fails in practice.
func (d *Document) String() string {
	data, err := Encode(d)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Decode unmarshals a single node mirror. Empty or malformed input yields
// the zero value.
func Decode[T any](mirror string) T {
	var v T
	if len(bytes.TrimSpace([]byte(mirror))) == 0 {
		return v
	}
	if err := json.Unmarshal([]byte(mirror), &v); err != nil {
		var zero T
		return zero
	}
	return v
}

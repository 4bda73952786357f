package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Objective is a course learning objective. Cycles reference it by ID;
// Index is its display position.
type Objective struct {
	Index int    `json:"index"`
	ID    Int    `json:"id"`
	Name  string `json:"name"`
}

// Objectives is the learning objectives document stored on a roadmap.
type Objectives struct {
	LearningObjectives []Objective `json:"learningobjectives"`
}

// ParseObjectives decodes the learning objectives document. Empty or
// malformed input yields no objectives.
func ParseObjectives(data []byte) Objectives {
	var o Objectives
	if len(bytes.TrimSpace(data)) == 0 {
		return Objectives{LearningObjectives: []Objective{}}
	}
	if err := json.Unmarshal(data, &o); err != nil || o.LearningObjectives == nil {
		return Objectives{LearningObjectives: []Objective{}}
	}
	return o
}

// Encode writes the objectives document with indexes renumbered by position.
func (o Objectives) Encode() ([]byte, error) {
	out := Objectives{LearningObjectives: make([]Objective, len(o.LearningObjectives))}
	for i, lo := range o.LearningObjectives {
		lo.Index = i
		out.LearningObjectives[i] = lo
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("document: encode objectives: %w", err)
	}
	return data, nil
}

// Find returns the objective with id.
func (o Objectives) Find(id int64) (Objective, bool) {
	for _, lo := range o.LearningObjectives {
		if int64(lo.ID) == id {
			return lo, true
		}
	}
	return Objective{}, false
}

// Numbers renders the display numbers of the given objective ids, joined
// with ", ". Numbers are one-based positions; ids no longer defined are
// skipped.
func (o Objectives) Numbers(ids []int64) string {
	var parts []string
	for _, id := range ids {
		for pos, lo := range o.LearningObjectives {
			if int64(lo.ID) == id {
				parts = append(parts, strconv.Itoa(pos+1))
				break
			}
		}
	}
	return strings.Join(parts, ", ")
}

package editor

import (
	"fmt"
	"strings"

	"github.com/zulandar/roadmap/internal/document"
)

// Objectives returns the learning objectives in display order.
func (e *Editor) Objectives() []document.Objective {
	return e.objectives.LearningObjectives
}

// ObjectivesDocument returns the learning objectives document.
func (e *Editor) ObjectivesDocument() document.Objectives {
	return e.objectives
}

// AddObjective appends an objective and returns its id.
func (e *Editor) AddObjective(name string) int64 {
	id := int64(-1)
	for _, lo := range e.objectives.LearningObjectives {
		if int64(lo.ID) > id {
			id = int64(lo.ID)
		}
	}
	id++
	e.objectives.LearningObjectives = append(e.objectives.LearningObjectives, document.Objective{
		Index: len(e.objectives.LearningObjectives),
		ID:    document.Int(id),
		Name:  strings.TrimSpace(name),
	})
	return id
}

// RenameObjective changes an objective's name.
func (e *Editor) RenameObjective(id int64, name string) error {
	i := e.objectiveIndex(id)
	if i < 0 {
		return fmt.Errorf("editor: no learning objective %d", id)
	}
	e.objectives.LearningObjectives[i].Name = strings.TrimSpace(name)
	return nil
}

// DeleteObjective removes an objective after confirmation and clears it
// from every cycle that selected it.
func (e *Editor) DeleteObjective(id int64) (bool, error) {
	i := e.objectiveIndex(id)
	if i < 0 {
		return false, nil
	}
	if e.confirm == nil || !e.confirm.Confirm("Delete this learning objective?") {
		return false, nil
	}
	los := e.objectives.LearningObjectives
	e.objectives.LearningObjectives = append(los[:i], los[i+1:]...)
	e.renumberObjectives()

	var err error
	e.root.walk(func(n *Node) {
		if err != nil || n.Kind != KindCycle {
			return
		}
		ids := document.SplitIDs(n.Field(FieldLearningObjectives))
		if !containsID(ids, id) {
			return
		}
		kept := ids[:0]
		for _, v := range ids {
			if v != id {
				kept = append(kept, v)
			}
		}
		err = e.SetInput(n, FieldLearningObjectives, document.JoinIDs(kept))
	})
	return true, err
}

// MoveObjective shifts an objective one position up (delta -1) or down
// (delta 1). Moving past either end is a no-op.
func (e *Editor) MoveObjective(id int64, delta int) bool {
	i := e.objectiveIndex(id)
	j := i + delta
	los := e.objectives.LearningObjectives
	if i < 0 || j < 0 || j >= len(los) {
		return false
	}
	los[i], los[j] = los[j], los[i]
	e.renumberObjectives()
	return true
}

func (e *Editor) objectiveIndex(id int64) int {
	for i, lo := range e.objectives.LearningObjectives {
		if int64(lo.ID) == id {
			return i
		}
	}
	return -1
}

func (e *Editor) renumberObjectives() {
	for i := range e.objectives.LearningObjectives {
		e.objectives.LearningObjectives[i].Index = i
	}
}

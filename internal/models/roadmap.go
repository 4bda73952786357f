package models

import (
	"time"

	"gorm.io/datatypes"
)

// CLO display positions.
const (
	CLOAbove  = 0
	CLOBelow  = 1
	CLOHidden = 2
)

// Roadmap is one course roadmap activity instance and its display settings.
type Roadmap struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement"`
	CourseID           int64          `gorm:"not null;index"`
	Name               string         `gorm:"size:255;not null"`
	CLOPrefix          string         `gorm:"column:cloprefix;size:10"`
	CLOAlignment       int            `gorm:"column:cloalignment;default:0"`
	CLODecoration      int            `gorm:"column:clodecoration;default:0"`
	CLODisplayPosition int            `gorm:"column:clodisplayposition;default:0"`
	Colors             int            `gorm:"default:0"`
	LearningObjectives datatypes.JSON `gorm:"column:learningobjectives"`
	Configuration      string         `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Phases []Phase `gorm:"foreignKey:RoadmapID"`
}

// TableName pins the table name to the plugin's schema.
func (Roadmap) TableName() string { return "roadmap" }

// Phase is an ordered top-level grouping of cycles.
type Phase struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	RoadmapID int64  `gorm:"column:roadmapid;not null;index"`
	Title     string `gorm:"size:255"`
	Sort      int    `gorm:"not null;default:0"`

	Cycles []Cycle `gorm:"foreignKey:PhaseID"`
}

func (Phase) TableName() string { return "roadmap_phase" }

// Cycle is an ordered grouping of steps within a phase.
type Cycle struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	PhaseID            int64  `gorm:"column:phaseid;not null;index"`
	Title              string `gorm:"size:255"`
	Subtitle           string `gorm:"size:255"`
	PageLink           string `gorm:"column:pagelink;size:255"`
	LearningObjectives string `gorm:"column:learningobjectives;size:255"`
	Sort               int    `gorm:"not null;default:0"`

	Steps []Step `gorm:"foreignKey:CycleID"`
}

func (Cycle) TableName() string { return "roadmap_cycle" }

// Step is a leaf unit of work gated on zero or more activities.
// CompletionExpectedCmid is 0 for none, -1 for the custom datetime, or the
// gating activity whose own date applies.
type Step struct {
	ID                         int64  `gorm:"primaryKey;autoIncrement"`
	CycleID                    int64  `gorm:"column:cycleid;not null;index"`
	RolloverText               string `gorm:"column:rollovertext;size:255"`
	StepIcon                   string `gorm:"column:stepicon;size:255"`
	CompletionModules          string `gorm:"column:completionmodules;size:255"`
	LinkSingleActivity         bool   `gorm:"column:linksingleactivity;not null;default:false"`
	PageLink                   string `gorm:"column:pagelink;size:511"`
	CompletionExpectedCmid     int64  `gorm:"column:completionexpectedcmid;not null;default:0"`
	CompletionExpectedDatetime int64  `gorm:"column:completionexpecteddatetime;not null;default:0"`
	Sort                       int    `gorm:"not null;default:0"`
}

func (Step) TableName() string { return "roadmap_step" }

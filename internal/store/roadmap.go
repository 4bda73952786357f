// Package store persists roadmap instances and their phase/cycle/step trees.
package store

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrRoadmapNotFound is returned for operations on a missing roadmap.
var ErrRoadmapNotFound = errors.New("store: roadmap not found")

// MaxCLOPrefix is the longest objective label prefix accepted.
const MaxCLOPrefix = 10

// Display option values.
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2

	DecorationNone    = 0
	DecorationLine    = 1
	DecorationBracket = 2
)

// CreateOpts holds parameters for creating a roadmap.
type CreateOpts struct {
	CourseID int64
	Name     string
	// Configuration is a legacy configuration blob to import on first use.
	Configuration string
}

// CreateRoadmap inserts a roadmap with default display settings.
func CreateRoadmap(db *gorm.DB, opts CreateOpts) (*models.Roadmap, error) {
	if opts.CourseID <= 0 {
		return nil, fmt.Errorf("store: course id is required")
	}
	if opts.Name == "" {
		opts.Name = "Roadmap"
	}
	rm := models.Roadmap{
		CourseID:           opts.CourseID,
		Name:               opts.Name,
		LearningObjectives: datatypes.JSON(`{"learningobjectives":[]}`),
		Configuration:      opts.Configuration,
	}
	if err := db.Create(&rm).Error; err != nil {
		return nil, fmt.Errorf("store: create roadmap: %w", err)
	}
	return &rm, nil
}

// GetRoadmap retrieves a roadmap row without its tree.
func GetRoadmap(db *gorm.DB, id int64) (*models.Roadmap, error) {
	var rm models.Roadmap
	if err := db.Where("id = ?", id).First(&rm).Error; err != nil {
		return nil, errNotFound(err, id)
	}
	return &rm, nil
}

// ListRoadmaps returns roadmaps ordered by id, limited to one course when
// courseID is positive.
func ListRoadmaps(db *gorm.DB, courseID int64) ([]models.Roadmap, error) {
	q := db.Model(&models.Roadmap{})
	if courseID > 0 {
		q = q.Where("course_id = ?", courseID)
	}
	var out []models.Roadmap
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list roadmaps: %w", err)
	}
	return out, nil
}

// DeleteRoadmap removes a roadmap and its whole tree.
func DeleteRoadmap(db *gorm.DB, id int64) error {
	if _, err := GetRoadmap(db, id); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var phaseIDs []int64
		if err := tx.Model(&models.Phase{}).Where("roadmapid = ?", id).Pluck("id", &phaseIDs).Error; err != nil {
			return fmt.Errorf("store: list phases of roadmap %d: %w", id, err)
		}
		for _, pid := range phaseIDs {
			if _, err := deletePhase(tx, id, pid); err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Roadmap{}, id).Error; err != nil {
			return fmt.Errorf("store: delete roadmap %d: %w", id, err)
		}
		return nil
	})
}

// Settings are the roadmap-level display options and learning objectives.
type Settings struct {
	CLOPrefix          string
	CLOAlignment       int
	CLODecoration      int
	CLODisplayPosition int
	Colors             int
	Objectives         document.Objectives
}

// SettingsOf extracts the display settings from a roadmap row.
func SettingsOf(rm *models.Roadmap) Settings {
	return Settings{
		CLOPrefix:          rm.CLOPrefix,
		CLOAlignment:       rm.CLOAlignment,
		CLODecoration:      rm.CLODecoration,
		CLODisplayPosition: rm.CLODisplayPosition,
		Colors:             rm.Colors,
		Objectives:         document.ParseObjectives(rm.LearningObjectives),
	}
}

// Validate reports the first out-of-range option.
func (s Settings) Validate() error {
	if utf8.RuneCountInString(s.CLOPrefix) > MaxCLOPrefix {
		return fmt.Errorf("store: clo prefix %q is longer than %d characters", s.CLOPrefix, MaxCLOPrefix)
	}
	if s.CLOAlignment < AlignLeft || s.CLOAlignment > AlignRight {
		return fmt.Errorf("store: invalid cycle alignment %d", s.CLOAlignment)
	}
	if s.CLODecoration < DecorationNone || s.CLODecoration > DecorationBracket {
		return fmt.Errorf("store: invalid cycle decoration %d", s.CLODecoration)
	}
	if s.CLODisplayPosition < models.CLOAbove || s.CLODisplayPosition > models.CLOHidden {
		return fmt.Errorf("store: invalid display position %d", s.CLODisplayPosition)
	}
	if s.Colors < 0 {
		return fmt.Errorf("store: invalid color pattern %d", s.Colors)
	}
	return nil
}

// SaveSettings writes the display settings and learning objectives. Any
// legacy configuration blob is cleared since the tree now lives in rows.
func SaveSettings(db *gorm.DB, roadmapID int64, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := GetRoadmap(db, roadmapID); err != nil {
		return err
	}
	objectives, err := s.Objectives.Encode()
	if err != nil {
		return err
	}
	if err := db.Model(&models.Roadmap{}).Where("id = ?", roadmapID).Updates(map[string]interface{}{
		"cloprefix":          s.CLOPrefix,
		"cloalignment":       s.CLOAlignment,
		"clodecoration":      s.CLODecoration,
		"clodisplayposition": s.CLODisplayPosition,
		"colors":             s.Colors,
		"learningobjectives": datatypes.JSON(objectives),
		"configuration":      "",
	}).Error; err != nil {
		return fmt.Errorf("store: save settings for roadmap %d: %w", roadmapID, err)
	}
	return nil
}

// ImportLegacy converts a roadmap still carrying the legacy configuration
// blob into rows. It runs only when the roadmap has no phases, inserts every
// node fresh, then clears the blob. It reports whether an import happened.
func ImportLegacy(db *gorm.DB, roadmapID int64, loc *time.Location) (bool, error) {
	rm, err := GetRoadmap(db, roadmapID)
	if err != nil {
		return false, err
	}
	if rm.Configuration == "" {
		return false, nil
	}
	var phases int64
	if err := db.Model(&models.Phase{}).Where("roadmapid = ?", roadmapID).Count(&phases).Error; err != nil {
		return false, fmt.Errorf("store: count phases of roadmap %d: %w", roadmapID, err)
	}
	if phases > 0 {
		return false, nil
	}

	doc := document.ParseLenient([]byte(rm.Configuration), loc)
	doc.Deletions = document.Deletions{}
	if _, err := Save(db, roadmapID, doc, SaveOpts{Conversion: true}); err != nil {
		return false, err
	}
	if err := db.Model(&models.Roadmap{}).Where("id = ?", roadmapID).Update("configuration", "").Error; err != nil {
		return false, fmt.Errorf("store: clear legacy configuration of roadmap %d: %w", roadmapID, err)
	}
	return true, nil
}

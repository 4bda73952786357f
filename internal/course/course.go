// Package course reads the host platform's course activities and
// per-user completion records.
package course

import (
	"fmt"
	"time"

	"github.com/zulandar/roadmap/internal/document"
	"github.com/zulandar/roadmap/internal/models"
	"github.com/zulandar/roadmap/internal/progress"
	"gorm.io/gorm"
)

// RoadmapModName is the module type of roadmap activities, which can never
// gate a step.
const RoadmapModName = "roadmap"

// Activity is a completable activity as offered to the editor.
type Activity struct {
	ID                         int64  `json:"id"`
	Name                       string `json:"name"`
	CompletionExpectedDatetime int64  `json:"completionexpecteddatetime"`
	CompletionExpectedReadable string `json:"completionexpectedreadable"`
}

// Section groups a course section's completable activities.
type Section struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	CourseModules []Activity `json:"coursemodules"`
}

func completable(db *gorm.DB) *gorm.DB {
	return db.Where("completion_enabled = ? AND modname <> ? AND deletion_in_progress = ?", true, RoadmapModName, false)
}

func toActivity(a models.Activity, loc *time.Location) Activity {
	return Activity{
		ID:                         a.ID,
		Name:                       a.Name,
		CompletionExpectedDatetime: a.CompletionExpected,
		CompletionExpectedReadable: document.Readable(a.CompletionExpected, loc),
	}
}

// ListActivities returns a course's completable activities in course order.
func ListActivities(db *gorm.DB, courseID int64, loc *time.Location) ([]Activity, error) {
	var rows []models.Activity
	err := db.Where("course_id = ?", courseID).
		Scopes(completable).
		Order("section ASC, sort ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("course: list activities of course %d: %w", courseID, err)
	}
	out := make([]Activity, 0, len(rows))
	for _, a := range rows {
		out = append(out, toActivity(a, loc))
	}
	return out, nil
}

// ListSections returns every section of a course with its completable
// activities. Sections without any are listed with an empty module list.
func ListSections(db *gorm.DB, courseID int64, loc *time.Location) ([]Section, error) {
	var rows []models.Activity
	if err := db.Where("course_id = ?", courseID).Order("section ASC, sort ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("course: list sections of course %d: %w", courseID, err)
	}
	var out []Section
	for _, a := range rows {
		if len(out) == 0 || out[len(out)-1].ID != a.Section {
			name := a.SectionName
			if name == "" {
				name = fmt.Sprintf("Section %d", a.Section)
			}
			out = append(out, Section{ID: a.Section, Name: name, CourseModules: []Activity{}})
		}
		if a.CompletionEnabled && a.ModName != RoadmapModName && !a.DeletionInProgress {
			sec := &out[len(out)-1]
			sec.CourseModules = append(sec.CourseModules, toActivity(a, loc))
		}
	}
	if out == nil {
		out = []Section{}
	}
	return out, nil
}

// ActivityURL is the link for a single linked activity, or "" when the
// activity is hidden or unknown.
func ActivityURL(db *gorm.DB, activityID int64) (string, error) {
	var a models.Activity
	err := db.Where("id = ?", activityID).Limit(1).Find(&a).Error
	if err != nil {
		return "", fmt.Errorf("course: get activity %d: %w", activityID, err)
	}
	if a.ID == 0 || a.Hidden {
		return "", nil
	}
	return a.URL, nil
}

// Tracker reads completion state for one course.
type Tracker struct {
	db       *gorm.DB
	courseID int64
}

// NewTracker returns a tracker for courseID.
func NewTracker(db *gorm.DB, courseID int64) *Tracker {
	return &Tracker{db: db, courseID: courseID}
}

// Snapshot is one user's completion state across a course, loaded once per
// render.
type Snapshot struct {
	activities  map[int64]models.Activity
	completions map[int64]models.ActivityCompletion
}

// ForUser loads the course activities and the user's completion records.
func (t *Tracker) ForUser(userID int64) (*Snapshot, error) {
	var activities []models.Activity
	if err := t.db.Where("course_id = ?", t.courseID).Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("course: load activities of course %d: %w", t.courseID, err)
	}
	ids := make([]int64, 0, len(activities))
	s := &Snapshot{
		activities:  make(map[int64]models.Activity, len(activities)),
		completions: make(map[int64]models.ActivityCompletion),
	}
	for _, a := range activities {
		s.activities[a.ID] = a
		ids = append(ids, a.ID)
	}
	if len(ids) == 0 {
		return s, nil
	}

	var completions []models.ActivityCompletion
	if err := t.db.Where("user_id = ? AND activity_id IN ?", userID, ids).Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("course: load completion for user %d: %w", userID, err)
	}
	for _, c := range completions {
		s.completions[c.ActivityID] = c
	}
	return s, nil
}

// Status implements progress.CompletionSource.
func (s *Snapshot) Status(activityID int64) progress.Status {
	a, ok := s.activities[activityID]
	if !ok {
		return progress.Status{}
	}
	st := progress.Status{Known: true, Expected: a.CompletionExpected}
	if !a.Hidden {
		st.URL = a.URL
	}
	if c, ok := s.completions[activityID]; ok && c.Complete() {
		st.Complete = true
		st.CompletedAt = c.TimeModified
	}
	return st
}

// SetCompletion records a user's completion state for an activity.
func SetCompletion(db *gorm.DB, activityID, userID int64, state int, at time.Time) error {
	var c models.ActivityCompletion
	err := db.Where("activity_id = ? AND user_id = ?", activityID, userID).
		Assign(map[string]interface{}{"state": state, "time_modified": at.Unix()}).
		FirstOrCreate(&c, models.ActivityCompletion{ActivityID: activityID, UserID: userID}).Error
	if err != nil {
		return fmt.Errorf("course: set completion of activity %d for user %d: %w", activityID, userID, err)
	}
	return nil
}

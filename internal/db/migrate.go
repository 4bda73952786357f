package db

import (
	"fmt"

	"github.com/zulandar/roadmap/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Roadmap{},
		&models.Phase{},
		&models.Cycle{},
		&models.Step{},
		&models.Activity{},
		&models.ActivityCompletion{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// DemoCourseID is the course SeedDemo populates.
const DemoCourseID = 1

// SeedDemo inserts a small course with completable activities and an empty
// roadmap so a fresh install has something to configure. It is a no-op when
// the demo course already has activities.
func SeedDemo(db *gorm.DB) (*models.Roadmap, error) {
	var count int64
	if err := db.Model(&models.Activity{}).Where("course_id = ?", DemoCourseID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("db: count demo activities: %w", err)
	}

	var rm models.Roadmap
	err := db.Transaction(func(tx *gorm.DB) error {
		if count == 0 {
			activities := []models.Activity{
				{CourseID: DemoCourseID, Section: 0, SectionName: "General", Name: "Course Orientation", ModName: "page", CompletionEnabled: true, URL: "/mod/page/orientation", Sort: 0},
				{CourseID: DemoCourseID, Section: 1, SectionName: "Week 1", Name: "Intro Video", ModName: "url", CompletionEnabled: true, URL: "/mod/url/intro-video", Sort: 1},
				{CourseID: DemoCourseID, Section: 1, SectionName: "Week 1", Name: "Week 1 Quiz", ModName: "quiz", CompletionEnabled: true, URL: "/mod/quiz/week-1", Sort: 2},
				{CourseID: DemoCourseID, Section: 2, SectionName: "Week 2", Name: "Discussion", ModName: "forum", CompletionEnabled: true, URL: "/mod/forum/discussion", Sort: 3},
				{CourseID: DemoCourseID, Section: 2, SectionName: "Week 2", Name: "Syllabus", ModName: "resource", CompletionEnabled: false, URL: "/mod/resource/syllabus", Sort: 4},
			}
			if err := tx.Create(&activities).Error; err != nil {
				return fmt.Errorf("db: seed demo activities: %w", err)
			}
		}
		if err := tx.Where("course_id = ?", DemoCourseID).FirstOrCreate(&rm, models.Roadmap{
			CourseID: DemoCourseID,
			Name:     "Course Roadmap",
		}).Error; err != nil {
			return fmt.Errorf("db: seed demo roadmap: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

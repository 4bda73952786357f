package models

// Completion states recorded by the host platform.
const (
	CompletionIncomplete   = 0
	CompletionComplete     = 1
	CompletionCompletePass = 2
	CompletionCompleteFail = 3
)

// Activity is a course module known to the host platform. Only activities
// with completion tracking enabled can gate a step.
type Activity struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	CourseID           int64  `gorm:"not null;index"`
	Section            int    `gorm:"not null;default:0"`
	SectionName        string `gorm:"size:255"`
	Name               string `gorm:"size:255;not null"`
	ModName            string `gorm:"column:modname;size:32;not null"`
	CompletionEnabled  bool   `gorm:"not null;default:false"`
	CompletionExpected int64  `gorm:"not null;default:0"`
	DeletionInProgress bool   `gorm:"not null;default:false"`
	Hidden             bool   `gorm:"not null;default:false"`
	URL                string `gorm:"type:text"`
	Sort               int    `gorm:"not null;default:0"`
}

func (Activity) TableName() string { return "course_activity" }

// ActivityCompletion is one user's completion state for one activity.
type ActivityCompletion struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	ActivityID   int64 `gorm:"not null;uniqueIndex:idx_activity_user"`
	UserID       int64 `gorm:"not null;uniqueIndex:idx_activity_user"`
	State        int   `gorm:"not null;default:0"`
	TimeModified int64 `gorm:"not null;default:0"`
}

func (ActivityCompletion) TableName() string { return "activity_completion" }

// Complete reports whether the state counts as completed for gating.
func (c ActivityCompletion) Complete() bool {
	return c.State == CompletionComplete || c.State == CompletionCompletePass
}

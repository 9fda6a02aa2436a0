package progress

import "time"

// ChapterProgress is the one logical record per (user, chapter); the unit of truth
// for completion. Percent never regresses and Completed never reverts once set.
type ChapterProgress struct {
	ID               int       `json:"id"`
	UserID           int       `json:"user_id"`
	ChapterID        int       `json:"chapter_id"`
	Percent          int       `json:"percent"` // 0-100
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	Completed        bool      `json:"completed"`
	LastUpdated      time.Time `json:"last_updated"` // UTC
}

// ModuleCompletion is the durable per-(user, module) flag maintained by the
// completion cascade; kept for backward-compatible module queries.
type ModuleCompletion struct {
	UserID      int       `json:"user_id"`
	ModuleID    int       `json:"module_id"`
	CompletedAt time.Time `json:"completed_at"` // UTC
}

// Rollup views. All percentages are integer floor divisions of chapter counts;
// no level averages the percentages of the level below.

type ChapterView struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
	Percent    int    `json:"percent"`
	Completed  bool   `json:"completed"`
}

type ModuleView struct {
	ID                int           `json:"id"`
	Title             string        `json:"title"`
	OrderIndex        int           `json:"order_index"`
	CompletedChapters int           `json:"completed_chapters"`
	TotalChapters     int           `json:"total_chapters"`
	Percent           int           `json:"percent"`
	Completed         bool          `json:"completed"`
	Chapters          []ChapterView `json:"chapters"`
}

type CourseProgressView struct {
	CourseID          int          `json:"course_id"`
	Title             string       `json:"title"`
	CompletedChapters int          `json:"completed_chapters"`
	TotalChapters     int          `json:"total_chapters"`
	CompletedModules  int          `json:"completed_modules"`
	TotalModules      int          `json:"total_modules"`
	Percent           int          `json:"percent"`
	Completed         bool         `json:"completed"`
	EnrollmentStatus  string       `json:"enrollment_status"`
	Modules           []ModuleView `json:"modules"`
}

type CourseSummaryView struct {
	CourseID          int    `json:"course_id"`
	Title             string `json:"title"`
	CompletedChapters int    `json:"completed_chapters"`
	TotalChapters     int    `json:"total_chapters"`
	Percent           int    `json:"percent"`
	Completed         bool   `json:"completed"`
}

type OverallProgressView struct {
	CompletedChapters int                 `json:"completed_chapters"`
	TotalChapters     int                 `json:"total_chapters"`
	CompletedModules  int                 `json:"completed_modules"`
	TotalModules      int                 `json:"total_modules"`
	Percent           int                 `json:"percent"`
	Completed         bool                `json:"completed"`
	Courses           []CourseSummaryView `json:"courses"`
}

// percentOf is the one floor division used at every rollup level.
func percentOf(completed, total int) int {
	if total == 0 {
		return 0
	}
	return (completed * 100) / total
}

package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/elimuhub/elimu/core"
)

var (
	// errors
	ErrCourseNotFound  = errors.New("course not found")
	ErrModuleNotFound  = errors.New("module not found")
	ErrChapterNotFound = errors.New("chapter not found")
)

type (
	// Course is the unit of enrollment; an ordered group of modules.
	Course struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	// Module is an ordered group of chapters within a course.
	Module struct {
		ID          int    `json:"id"`
		CourseID    int    `json:"course_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index"`
	}

	// Chapter is the smallest content unit; the leaf of the content tree.
	Chapter struct {
		ID          int    `json:"id"`
		ModuleID    int    `json:"module_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index"`
	}

	// Repository is the read-only content tree provider. The tree is owned by the
	// CRUD layer; identity, ordering and parent linkage are assumed stable for the
	// duration of one progress computation.
	Repository interface {
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		// GetCourses resolves all ids, failing with ErrCourseNotFound if any is unknown.
		// Results keep the order of ids.
		GetCourses(ctx context.Context, ids []int, exec ...core.DBExecutor) ([]Course, error)
		GetModule(ctx context.Context, id int, exec ...core.DBExecutor) (Module, error)
		GetModulesOrdered(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]Module, error)
		GetChapter(ctx context.Context, id int, exec ...core.DBExecutor) (Chapter, error)
		GetChaptersOrdered(ctx context.Context, moduleID int, exec ...core.DBExecutor) ([]Chapter, error)
	}
)

// CoursesInfo renders a numbered plain-text course listing for notification emails.
func CoursesInfo(courses []Course) string {
	if len(courses) == 0 {
		return "No courses\n"
	}
	var b strings.Builder
	for i, c := range courses {
		_, _ = fmt.Fprintf(&b, "%d. %s\n", i+1, c.Title)
		if c.Description != "" {
			_, _ = fmt.Fprintf(&b, "   %s\n", c.Description)
		}
	}
	return b.String()
}

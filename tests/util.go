package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/content"
	"github.com/elimuhub/elimu/core/student"
	inmemdb "github.com/elimuhub/elimu/storage/database/inmem"
)

// Setup loads the default config; call it at the top of every service test.
func Setup(t *testing.T) {
	t.Helper()
	if core.Conf == nil {
		if err := core.SetupConf(); err != nil {
			t.Fatalf("SetupConf() failed: %v", err)
		}
	}
}

// FreezeTime pins core.NowFunc for the duration of the test.
func FreezeTime(t *testing.T, now time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

// SeedCourse builds a course with the given chapter counts per module and
// returns the course, the module ids and the chapter ids, module by module.
func SeedCourse(t *testing.T, db *inmemdb.DB, title string, chaptersPerModule ...int) (content.Course, []int, [][]int) {
	t.Helper()
	repo := inmemdb.NewContentRepository(db)
	course := repo.AddCourse(content.Course{Title: title})

	moduleIDs := make([]int, 0, len(chaptersPerModule))
	chapterIDs := make([][]int, 0, len(chaptersPerModule))
	for i, n := range chaptersPerModule {
		mod := repo.AddModule(content.Module{CourseID: course.ID, Title: title + " module", OrderIndex: i})
		moduleIDs = append(moduleIDs, mod.ID)
		ids := make([]int, 0, n)
		for j := 0; j < n; j++ {
			ch := repo.AddChapter(content.Chapter{ModuleID: mod.ID, Title: title + " chapter", OrderIndex: j})
			ids = append(ids, ch.ID)
		}
		chapterIDs = append(chapterIDs, ids)
	}
	return course, moduleIDs, chapterIDs
}

// CreateProfile seeds a student profile directly through the repository.
func CreateProfile(t *testing.T, repo student.Repository, accountID int, name, email string) student.StudentProfile {
	t.Helper()
	ctx := context.Background()
	seq, err := repo.NextStudentSeq(ctx)
	if err != nil {
		t.Fatalf("NextStudentSeq() failed: %v", err)
	}
	now := core.NowFunc()
	p, err := repo.CreateProfile(ctx, student.StudentProfile{
		AccountID:  accountID,
		StudentID:  student.FormatStudentID(seq, now),
		FullName:   name,
		Email:      email,
		EnrolledAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

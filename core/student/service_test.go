package student_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/student"
	emailsvc "github.com/elimuhub/elimu/services/email"
	inmemdb "github.com/elimuhub/elimu/storage/database/inmem"
	testutil "github.com/elimuhub/elimu/tests"
)

func setup(t *testing.T) (student.Service, student.Repository, *inmemdb.DB) {
	t.Helper()
	testutil.Setup(t)
	emailsvc.ClearSentMessages()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	repo := inmemdb.NewStudentRepository(db)
	svc := student.NewService(
		repo,
		inmemdb.NewContentRepository(db),
		emailsvc.NewConsoleServiceMock(),
	)
	return svc, repo, db
}

func TestFormatStudentID(t *testing.T) {
	tests := []struct {
		name string
		seq  int
		now  time.Time
		want string
	}{
		{name: "first of 2026", seq: 1, now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), want: "ST260001"},
		{name: "zero padded", seq: 42, now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), want: "ST260042"},
		{name: "wide sequence", seq: 12345, now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), want: "ST2612345"},
		{name: "century wrap", seq: 7, now: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC), want: "ST000007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := student.FormatStudentID(tt.seq, tt.now); got != tt.want {
				t.Errorf("FormatStudentID(%d) = %s; want %s", tt.seq, got, tt.want)
			}
		})
	}
}

func Test_service_GenerateStudentID(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))

	first, err := svc.GenerateStudentID(ctx)
	if err != nil {
		t.Fatalf("GenerateStudentID() failed: %v", err)
	}
	second, err := svc.GenerateStudentID(ctx)
	if err != nil {
		t.Fatalf("GenerateStudentID() failed: %v", err)
	}
	if first != "ST260001" || second != "ST260002" {
		t.Errorf("GenerateStudentID() = %s, %s; want ST260001, ST260002", first, second)
	}
}

func Test_service_QueryAllProfiles_ordering(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	first := testutil.CreateProfile(t, repo, 1, "Jane Doe", "jane@test.com")
	second := testutil.CreateProfile(t, repo, 2, "John Doe", "john@test.com")

	profiles, err := svc.QueryAllProfiles(ctx, core.DBOrdering{Field: "student_id", Ascending: false})
	if err != nil {
		t.Fatalf("QueryAllProfiles() failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles; want 2", len(profiles))
	}
	if profiles[0].ID != second.ID || profiles[1].ID != first.ID {
		t.Errorf("order = %s, %s; want %s, %s",
			profiles[0].StudentID, profiles[1].StudentID, second.StudentID, first.StudentID)
	}

	t.Run("default by id", func(t *testing.T) {
		profiles, err := svc.QueryAllProfiles(ctx)
		if err != nil {
			t.Fatalf("QueryAllProfiles() failed: %v", err)
		}
		if profiles[0].ID != first.ID || profiles[1].ID != second.ID {
			t.Errorf("order = %d, %d; want %d, %d", profiles[0].ID, profiles[1].ID, first.ID, second.ID)
		}
	})
}

func Test_service_Enroll(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)
	profile := testutil.CreateProfile(t, repo, 1, "Jane Doe", "jane@test.com")

	enr, err := svc.Enroll(ctx, profile.ID, course.ID)
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	if enr.Status != student.StatusActive {
		t.Errorf("Status = %s; want %s", enr.Status, student.StatusActive)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("sent %d emails; want 1", len(emailsvc.SentMessages))
	}

	t.Run("duplicate", func(t *testing.T) {
		if _, err := svc.Enroll(ctx, profile.ID, course.ID); !errors.Is(err, student.ErrAlreadyEnrolled) {
			t.Errorf("Enroll() expected ErrAlreadyEnrolled, got %v", err)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		if _, err := svc.Enroll(ctx, 999, course.ID); !errors.Is(err, student.ErrProfileNotFound) {
			t.Errorf("Enroll() expected ErrProfileNotFound, got %v", err)
		}
	})
}

func Test_service_ToggleEnrollmentStatus(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)
	profile := testutil.CreateProfile(t, repo, 1, "Jane Doe", "jane@test.com")

	if _, err := svc.Enroll(ctx, profile.ID, course.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	enr, err := svc.ToggleEnrollmentStatus(ctx, profile.ID, course.ID)
	if err != nil {
		t.Fatalf("ToggleEnrollmentStatus() failed: %v", err)
	}
	if enr.Status != student.StatusDropped {
		t.Errorf("Status = %s; want %s", enr.Status, student.StatusDropped)
	}

	if enr, err = svc.ToggleEnrollmentStatus(ctx, profile.ID, course.ID); err != nil {
		t.Fatalf("ToggleEnrollmentStatus() failed: %v", err)
	}
	if enr.Status != student.StatusActive {
		t.Errorf("Status = %s; want %s", enr.Status, student.StatusActive)
	}

	t.Run("completed flips to dropped", func(t *testing.T) {
		if _, err := repo.UpdateEnrollmentStatus(ctx, enr.ID, student.StatusCompleted); err != nil {
			t.Fatalf("UpdateEnrollmentStatus() failed: %v", err)
		}
		enr, err := svc.ToggleEnrollmentStatus(ctx, profile.ID, course.ID)
		if err != nil {
			t.Fatalf("ToggleEnrollmentStatus() failed: %v", err)
		}
		if enr.Status != student.StatusDropped {
			t.Errorf("Status = %s; want %s", enr.Status, student.StatusDropped)
		}
	})
}

func Test_service_EnrollmentStatus(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)

	// no profile at all
	status, err := svc.EnrollmentStatus(ctx, 42, course.ID)
	if err != nil {
		t.Fatalf("EnrollmentStatus() failed: %v", err)
	}
	if status != student.StatusNotEnrolled {
		t.Errorf("status = %s; want %s", status, student.StatusNotEnrolled)
	}

	profile := testutil.CreateProfile(t, repo, 42, "Jane Doe", "jane@test.com")

	// profile exists but no ledger row
	if status, err = svc.EnrollmentStatus(ctx, 42, course.ID); err != nil {
		t.Fatalf("EnrollmentStatus() failed: %v", err)
	}
	if status != student.StatusNotEnrolled {
		t.Errorf("status = %s; want %s", status, student.StatusNotEnrolled)
	}

	if _, err = svc.Enroll(ctx, profile.ID, course.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	if status, err = svc.EnrollmentStatus(ctx, 42, course.ID); err != nil {
		t.Fatalf("EnrollmentStatus() failed: %v", err)
	}
	if status != student.StatusActive {
		t.Errorf("status = %s; want %s", status, student.StatusActive)
	}
}

func Test_service_ProfileView(t *testing.T) {
	svc, repo, db := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, db, "Go", 1)
	profile := testutil.CreateProfile(t, repo, 1, "Jane Doe", "jane@test.com")

	if _, err := svc.Enroll(ctx, profile.ID, course.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	view, err := svc.ProfileView(ctx, profile.ID)
	if err != nil {
		t.Fatalf("ProfileView() failed: %v", err)
	}
	if len(view.Enrollments) != 1 {
		t.Fatalf("len(Enrollments) = %d; want 1", len(view.Enrollments))
	}
	if view.Enrollments[0].CourseTitle != "Go" {
		t.Errorf("CourseTitle = %s; want Go", view.Enrollments[0].CourseTitle)
	}
}

package request_test

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/account"
	"github.com/elimuhub/elimu/core/content"
	"github.com/elimuhub/elimu/core/request"
	"github.com/elimuhub/elimu/core/student"
	emailsvc "github.com/elimuhub/elimu/services/email"
	inmemdb "github.com/elimuhub/elimu/storage/database/inmem"
	testutil "github.com/elimuhub/elimu/tests"
)

type fixture struct {
	svc         request.Service
	accountSvc  account.Service
	studentRepo student.Repository
	db          *inmemdb.DB
}

func setup(t *testing.T) fixture {
	t.Helper()
	testutil.Setup(t)
	emailsvc.ClearSentMessages()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	studentRepo := inmemdb.NewStudentRepository(db)
	contentRepo := inmemdb.NewContentRepository(db)
	accountSvc := account.NewService(inmemdb.NewAccountRepository(db))
	logger := core.NewStdLogger(log.New(io.Discard, "", 0))
	svc := request.NewService(
		db,
		inmemdb.NewRequestRepository(db),
		studentRepo,
		contentRepo,
		account.NewIdentityProvider(accountSvc),
		emailsvc.NewConsoleServiceMock(),
		logger,
	)
	return fixture{svc: svc, accountSvc: accountSvc, studentRepo: studentRepo, db: db}
}

func newRequest(courseIDs ...int) request.NewRequest {
	return request.NewRequest{
		FullName:  "Jane Doe",
		Email:     "jane@test.com",
		CourseIDs: courseIDs,
	}
}

func Test_service_Submit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	courseA, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)
	courseB, _, _ := testutil.SeedCourse(t, f.db, "SQL", 1)

	req, err := f.svc.Submit(ctx, newRequest(courseA.ID, courseB.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if req.ID == "" {
		t.Error("ID not assigned")
	}
	if req.Status != request.StatusPending {
		t.Errorf("Status = %s; want %s", req.Status, request.StatusPending)
	}
	if !req.ProcessedAt.IsZero() || req.ProcessedBy != 0 {
		t.Error("processed fields set on submission")
	}
	// applicant confirmation + admin notification
	if len(emailsvc.SentMessages) != 2 {
		t.Fatalf("sent %d emails; want 2", len(emailsvc.SentMessages))
	}
	if !strings.Contains(emailsvc.SentMessages[0].TextContent, "Go") {
		t.Error("confirmation email does not list the requested course")
	}

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			nr   request.NewRequest
		}{
			{name: "no email", nr: request.NewRequest{FullName: "X", CourseIDs: []int{courseA.ID}}},
			{name: "bad email", nr: request.NewRequest{FullName: "X", Email: "nope", CourseIDs: []int{courseA.ID}}},
			{name: "no courses", nr: request.NewRequest{FullName: "X", Email: "x@test.com"}},
			{name: "duplicate course ids", nr: request.NewRequest{FullName: "X", Email: "x@test.com", CourseIDs: []int{courseA.ID, courseA.ID}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := f.svc.Submit(ctx, tt.nr); err == nil {
					t.Error("Submit() expected validation error, got none")
				}
			})
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		if _, err := f.svc.Submit(ctx, newRequest(999)); !errors.Is(err, content.ErrCourseNotFound) {
			t.Errorf("Submit() expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("overlapping pending request", func(t *testing.T) {
		if _, err := f.svc.Submit(ctx, newRequest(courseB.ID)); !errors.Is(err, request.ErrDuplicateRequest) {
			t.Errorf("Submit() expected ErrDuplicateRequest, got %v", err)
		}
	})

	t.Run("same courses, different applicant", func(t *testing.T) {
		nr := newRequest(courseA.ID)
		nr.Email = "john@test.com"
		if _, err := f.svc.Submit(ctx, nr); err != nil {
			t.Errorf("Submit() failed: %v", err)
		}
	})
}

func Test_service_Submit_alreadyEnrolled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)

	// approved once: account + enrollment exist
	req, err := f.svc.Submit(ctx, newRequest(course.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	view, err := f.svc.Approve(ctx, req.ID, 1)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	if _, err = f.svc.Submit(ctx, newRequest(course.ID)); !errors.Is(err, request.ErrAlreadyEnrolled) {
		t.Errorf("Submit() expected ErrAlreadyEnrolled, got %v", err)
	}

	// dropping the enrollment unblocks re-application
	if _, err = f.studentRepo.UpdateEnrollmentStatus(ctx, view.Enrollments[0].ID, student.StatusDropped); err != nil {
		t.Fatalf("UpdateEnrollmentStatus() failed: %v", err)
	}
	if _, err = f.svc.Submit(ctx, newRequest(course.ID)); err != nil {
		t.Errorf("Submit() after drop failed: %v", err)
	}
}

func Test_service_Approve(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.FreezeTime(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	courseA, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)
	courseB, _, _ := testutil.SeedCourse(t, f.db, "SQL", 1)

	req, err := f.svc.Submit(ctx, newRequest(courseA.ID, courseB.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	emailsvc.ClearSentMessages()

	view, err := f.svc.Approve(ctx, req.ID, 7)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	// a learner account was provisioned with the default password
	acc, err := f.accountSvc.GetByEmail(ctx, "jane@test.com")
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if err = acc.CheckPassword(core.Conf.DefaultStudentPassword); err != nil {
		t.Error("provisioned account does not use the default password")
	}

	// profile minted with a formatted student id
	if view.StudentID != "ST260001" {
		t.Errorf("StudentID = %s; want ST260001", view.StudentID)
	}
	if view.AccountID != acc.ID {
		t.Errorf("AccountID = %d; want %d", view.AccountID, acc.ID)
	}

	// one ACTIVE enrollment per requested course
	if len(view.Enrollments) != 2 {
		t.Fatalf("len(Enrollments) = %d; want 2", len(view.Enrollments))
	}
	for _, enr := range view.Enrollments {
		if enr.Status != student.StatusActive {
			t.Errorf("enrollment %d status = %s; want %s", enr.ID, enr.Status, student.StatusActive)
		}
	}

	// request is terminal with an audit trail
	got, err := f.svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != request.StatusApproved {
		t.Errorf("Status = %s; want %s", got.Status, request.StatusApproved)
	}
	if got.ProcessedBy != 7 || got.ProcessedAt.IsZero() {
		t.Errorf("audit trail = (%d, %v); want (7, set)", got.ProcessedBy, got.ProcessedAt)
	}

	// credentials email for the new account
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d emails; want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if !strings.Contains(msg.TextContent, core.Conf.DefaultStudentPassword) {
		t.Error("credentials email does not carry the temporary password")
	}
	if msg.HTMLContent == "" {
		t.Error("credentials email has no HTML alternative")
	}

	t.Run("double approval", func(t *testing.T) {
		if _, err := f.svc.Approve(ctx, req.ID, 7); !errors.Is(err, request.ErrNotPending) {
			t.Errorf("Approve() expected ErrNotPending, got %v", err)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		if _, err := f.svc.Approve(ctx, "nope", 7); !errors.Is(err, request.ErrNotFound) {
			t.Errorf("Approve() expected ErrNotFound, got %v", err)
		}
	})
}

func Test_service_Approve_existingStudent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	courseA, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)
	courseB, _, _ := testutil.SeedCourse(t, f.db, "SQL", 1)

	// first approval provisions everything
	req, err := f.svc.Submit(ctx, newRequest(courseA.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	first, err := f.svc.Approve(ctx, req.ID, 1)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	// second request from the same person adds a course to the same profile
	req, err = f.svc.Submit(ctx, newRequest(courseB.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	emailsvc.ClearSentMessages()
	second, err := f.svc.Approve(ctx, req.ID, 1)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("profile id = %d; want %d (reuse, not re-mint)", second.ID, first.ID)
	}
	if second.StudentID != first.StudentID {
		t.Errorf("student id changed from %s to %s", first.StudentID, second.StudentID)
	}
	if len(second.Enrollments) != 2 {
		t.Errorf("len(Enrollments) = %d; want 2", len(second.Enrollments))
	}

	// plain confirmation, no credentials re-sent
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d emails; want 1", len(emailsvc.SentMessages))
	}
	if strings.Contains(emailsvc.SentMessages[0].TextContent, core.Conf.DefaultStudentPassword) {
		t.Error("existing student received credentials again")
	}
}

func Test_service_ApproveSelected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	courseA, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)
	courseB, _, _ := testutil.SeedCourse(t, f.db, "SQL", 1)

	req, err := f.svc.Submit(ctx, newRequest(courseA.ID, courseB.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	t.Run("empty selection", func(t *testing.T) {
		if _, err := f.svc.ApproveSelected(ctx, req.ID, nil, 1); err == nil {
			t.Error("ApproveSelected() expected error, got none")
		}
	})

	t.Run("course outside the request", func(t *testing.T) {
		if _, err := f.svc.ApproveSelected(ctx, req.ID, []int{999}, 1); err == nil {
			t.Error("ApproveSelected() expected error, got none")
		}
	})

	view, err := f.svc.ApproveSelected(ctx, req.ID, []int{courseB.ID}, 1)
	if err != nil {
		t.Fatalf("ApproveSelected() failed: %v", err)
	}
	if len(view.Enrollments) != 1 {
		t.Fatalf("len(Enrollments) = %d; want 1", len(view.Enrollments))
	}
	if view.Enrollments[0].CourseID != courseB.ID {
		t.Errorf("enrolled course = %d; want %d", view.Enrollments[0].CourseID, courseB.ID)
	}

	// the whole request still flips to APPROVED, not partially approved
	got, err := f.svc.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Status != request.StatusApproved {
		t.Errorf("Status = %s; want %s", got.Status, request.StatusApproved)
	}
}

func Test_service_Reject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)

	req, err := f.svc.Submit(ctx, newRequest(course.ID))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	emailsvc.ClearSentMessages()

	rejected, err := f.svc.Reject(ctx, req.ID, 3)
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if rejected.Status != request.StatusRejected {
		t.Errorf("Status = %s; want %s", rejected.Status, request.StatusRejected)
	}
	if rejected.ProcessedBy != 3 {
		t.Errorf("ProcessedBy = %d; want 3", rejected.ProcessedBy)
	}

	// no account, no profile, no enrollment
	if _, err = f.accountSvc.GetByEmail(ctx, "jane@test.com"); !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected no account, got err %v", err)
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d emails; want 1", len(emailsvc.SentMessages))
	}

	t.Run("double processing", func(t *testing.T) {
		if _, err := f.svc.Reject(ctx, req.ID, 3); !errors.Is(err, request.ErrNotPending) {
			t.Errorf("Reject() expected ErrNotPending, got %v", err)
		}
		if _, err := f.svc.Approve(ctx, req.ID, 3); !errors.Is(err, request.ErrNotPending) {
			t.Errorf("Approve() expected ErrNotPending, got %v", err)
		}
	})

	t.Run("rejection does not block a new request", func(t *testing.T) {
		if _, err := f.svc.Submit(ctx, newRequest(course.ID)); err != nil {
			t.Errorf("Submit() after rejection failed: %v", err)
		}
	})
}

func Test_service_listing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	course, _, _ := testutil.SeedCourse(t, f.db, "Go", 1)

	nr1 := newRequest(course.ID)
	req1, err := f.svc.Submit(ctx, nr1)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	nr2 := newRequest(course.ID)
	nr2.Email = "john@test.com"
	req2, err := f.svc.Submit(ctx, nr2)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	if _, err = f.svc.Approve(ctx, req1.ID, 1); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	all, err := f.svc.All(ctx)
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d; want 2", len(all))
	}
	for _, v := range all {
		if len(v.Courses) != 1 || v.Courses[0].Title != "Go" {
			t.Errorf("request %s: courses not resolved", v.ID)
		}
	}

	pending, err := f.svc.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != req2.ID {
		t.Errorf("Pending() returned wrong set")
	}
}

package student

import (
	"context"
	"errors"
	"net/mail"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/content"
)

var (
	// errors
	ErrProfileNotFound    = errors.New("student profile not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, p StudentProfile, exec ...core.DBExecutor) (StudentProfile, error)
		GetProfile(ctx context.Context, id int, exec ...core.DBExecutor) (StudentProfile, error)
		GetProfileByAccountID(ctx context.Context, accountID int, exec ...core.DBExecutor) (StudentProfile, error)
		QueryAllProfiles(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]StudentProfile, error)
		// NextStudentSeq draws the next value from an atomic sequence; two concurrent
		// callers never see the same value.
		NextStudentSeq(ctx context.Context, exec ...core.DBExecutor) (int, error)

		// CreateEnrollment fails with ErrAlreadyEnrolled when a row for
		// (e.StudentProfileID, e.CourseID) exists; the check and the insert are atomic.
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, profileID, courseID int, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, profileID int, exec ...core.DBExecutor) ([]Enrollment, error)
		UpdateEnrollmentStatus(ctx context.Context, enrollmentID int, status string, exec ...core.DBExecutor) (Enrollment, error)
	}

	Service interface {
		CreateProfile(ctx context.Context, p StudentProfile) (StudentProfile, error)
		GetProfile(ctx context.Context, id int) (StudentProfile, error)
		GetProfileByAccount(ctx context.Context, accountID int) (StudentProfile, error)
		QueryAllProfiles(ctx context.Context, ordering ...core.DBOrdering) ([]StudentProfile, error)
		ProfileView(ctx context.Context, profileID int) (ProfileView, error)
		GenerateStudentID(ctx context.Context) (string, error)

		Enroll(ctx context.Context, profileID, courseID int) (Enrollment, error)
		ToggleEnrollmentStatus(ctx context.Context, profileID, courseID int) (Enrollment, error)
		EnrollmentStatus(ctx context.Context, accountID, courseID int) (string, error)
	}

	service struct {
		repo        Repository
		contentRepo content.Repository
		mailSvc     core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, contentRepo content.Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:        repo,
		contentRepo: contentRepo,
		mailSvc:     mailSvc,
	}
}

func (svc *service) CreateProfile(ctx context.Context, p StudentProfile) (StudentProfile, error) {
	now := core.NowFunc()
	if p.StudentID == "" {
		sid, err := svc.GenerateStudentID(ctx)
		if err != nil {
			return StudentProfile{}, err
		}
		p.StudentID = sid
	}
	if p.EnrolledAt.IsZero() {
		p.EnrolledAt = now
	}
	p.Email = core.CleanString(p.Email, true /* lower */)
	p.CreatedAt = now
	p.UpdatedAt = now
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *service) GetProfile(ctx context.Context, id int) (StudentProfile, error) {
	return svc.repo.GetProfile(ctx, id)
}

func (svc *service) GetProfileByAccount(ctx context.Context, accountID int) (StudentProfile, error) {
	return svc.repo.GetProfileByAccountID(ctx, accountID)
}

func (svc *service) QueryAllProfiles(ctx context.Context, ordering ...core.DBOrdering) ([]StudentProfile, error) {
	return svc.repo.QueryAllProfiles(ctx, ordering)
}

func (svc *service) ProfileView(ctx context.Context, profileID int) (ProfileView, error) {
	profile, err := svc.repo.GetProfile(ctx, profileID)
	if err != nil {
		return ProfileView{}, err
	}
	return BuildProfileView(ctx, profile, svc.repo, svc.contentRepo)
}

func (svc *service) GenerateStudentID(ctx context.Context) (string, error) {
	seq, err := svc.repo.NextStudentSeq(ctx)
	if err != nil {
		return "", err
	}
	return FormatStudentID(seq, core.NowFunc()), nil
}

func (svc *service) Enroll(ctx context.Context, profileID, courseID int) (Enrollment, error) {
	profile, err := svc.repo.GetProfile(ctx, profileID)
	if err != nil {
		return Enrollment{}, err
	}
	course, err := svc.contentRepo.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentProfileID: profileID,
		CourseID:         courseID,
		EnrolledAt:       core.NowFunc(),
		Status:           StatusActive,
	})
	if err != nil {
		return Enrollment{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: profile.FullName, Address: profile.Email}},
		Subject:      "Enrollment confirmation",
		TemplateName: "enrollment-confirmation",
		TemplateData: struct {
			FullName    string
			CoursesInfo string
		}{profile.FullName, content.CoursesInfo([]content.Course{course})},
	})
	return enr, nil
}

func (svc *service) ToggleEnrollmentStatus(ctx context.Context, profileID, courseID int) (Enrollment, error) {
	profile, err := svc.repo.GetProfile(ctx, profileID)
	if err != nil {
		return Enrollment{}, err
	}
	course, err := svc.contentRepo.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	enr, err := svc.repo.GetEnrollment(ctx, profileID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	// anything not DROPPED (incl. COMPLETED) flips to DROPPED
	status := StatusDropped
	if enr.Status == StatusDropped {
		status = StatusActive
	}
	enr, err = svc.repo.UpdateEnrollmentStatus(ctx, enr.ID, status)
	if err != nil {
		return Enrollment{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: profile.FullName, Address: profile.Email}},
		Subject:      "Enrollment status changed",
		TemplateName: "enrollment-status",
		TemplateData: struct {
			FullName    string
			CourseTitle string
			Status      string
		}{profile.FullName, course.Title, enr.Status},
	})
	return enr, nil
}

func (svc *service) EnrollmentStatus(ctx context.Context, accountID, courseID int) (string, error) {
	profile, err := svc.repo.GetProfileByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return StatusNotEnrolled, nil
		}
		return "", err
	}
	enr, err := svc.repo.GetEnrollment(ctx, profile.ID, courseID)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return StatusNotEnrolled, nil
		}
		return "", err
	}
	return enr.Status, nil
}

// BuildProfileView assembles the profile + enrollments view; shared with the
// request approval flow which runs against the same repositories inside its own
// transaction.
func BuildProfileView(ctx context.Context, profile StudentProfile, repo Repository, contentRepo content.Repository, exec ...core.DBExecutor) (ProfileView, error) {
	enrs, err := repo.QueryEnrollments(ctx, profile.ID, exec...)
	if err != nil {
		return ProfileView{}, err
	}
	view := ProfileView{StudentProfile: profile, Enrollments: make([]EnrollmentView, 0, len(enrs))}
	for _, enr := range enrs {
		course, err := contentRepo.GetCourse(ctx, enr.CourseID, exec...)
		if err != nil {
			return ProfileView{}, err
		}
		view.Enrollments = append(view.Enrollments, EnrollmentView{
			ID:          enr.ID,
			CourseID:    enr.CourseID,
			CourseTitle: course.Title,
			EnrolledAt:  enr.EnrolledAt,
			Status:      enr.Status,
		})
	}
	return view, nil
}

package request

import (
	"context"
	"errors"
	"net/mail"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/content"
	"github.com/elimuhub/elimu/core/student"
)

var (
	// errors
	ErrNotFound         = errors.New("enrollment request not found")
	ErrNotPending       = errors.New("enrollment request has already been processed")
	ErrDuplicateRequest = errors.New("a pending request for one of these courses already exists")
	ErrAlreadyEnrolled  = errors.New("applicant is already enrolled in one of the requested courses")
	ErrAccountNotFound  = errors.New("account not found")

	errNoCoursesSelected  = core.NewValidationError(errors.New("no courses selected"))
	errCourseNotRequested = core.NewValidationError(errors.New("selected course is not part of the request"))
)

type (
	// Account is the identity-side view of a provisioned login. The identity
	// provider owns credentials and activation; this package only needs the id
	// to link a student profile and the active flag for admin views.
	Account struct {
		ID       int
		Email    string
		IsActive bool
	}

	NewAccount struct {
		FullName    string
		Email       string
		PhoneNumber string
		Password    string
	}

	// Identity provisions and resolves login accounts. FindAccountByEmail fails
	// with ErrAccountNotFound for unknown emails.
	Identity interface {
		FindAccountByEmail(ctx context.Context, email string) (Account, error)
		CreateAccount(ctx context.Context, na NewAccount) (Account, error)
	}

	Repository interface {
		CreateRequest(ctx context.Context, r Request, exec ...core.DBExecutor) (Request, error)
		GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (Request, error)
		QueryAllRequests(ctx context.Context, exec ...core.DBExecutor) ([]Request, error)
		QueryRequestsByStatus(ctx context.Context, status string, exec ...core.DBExecutor) ([]Request, error)
		QueryPendingRequestsByEmail(ctx context.Context, email string, exec ...core.DBExecutor) ([]Request, error)
		// SetRequestProcessed moves a request from PENDING to the given terminal
		// status. It compares-and-swaps on the status column and fails with
		// ErrNotPending when the request was processed concurrently.
		SetRequestProcessed(ctx context.Context, id, status string, processedBy int, exec ...core.DBExecutor) (Request, error)
	}

	Service interface {
		Submit(ctx context.Context, nr NewRequest) (Request, error)
		Approve(ctx context.Context, id string, adminID int) (student.ProfileView, error)
		// ApproveSelected approves only the given subset of the requested courses.
		// The request itself still ends up APPROVED, not partially approved.
		ApproveSelected(ctx context.Context, id string, courseIDs []int, adminID int) (student.ProfileView, error)
		Reject(ctx context.Context, id string, adminID int) (Request, error)
		All(ctx context.Context) ([]RequestView, error)
		Pending(ctx context.Context) ([]RequestView, error)
		Get(ctx context.Context, id string) (RequestView, error)
	}

	service struct {
		repo        Repository
		studentRepo student.Repository
		contentRepo content.Repository
		identity    Identity
		mailSvc     core.EmailService
		logger      core.Logger
		db          core.TxRunner
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.TxRunner,
	repo Repository,
	studentRepo student.Repository,
	contentRepo content.Repository,
	identity Identity,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		repo:        repo,
		studentRepo: studentRepo,
		contentRepo: contentRepo,
		identity:    identity,
		mailSvc:     mailSvc,
		logger:      logger,
		db:          db,
	}
}

func (svc *service) Submit(ctx context.Context, nr NewRequest) (Request, error) {
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}
	courses, err := svc.contentRepo.GetCourses(ctx, nr.CourseIDs)
	if err != nil {
		return Request{}, err
	}

	if err := svc.checkDuplicates(ctx, nr); err != nil {
		return Request{}, err
	}

	req := Request{
		FullName:       nr.FullName,
		Email:          nr.Email,
		PhoneNumber:    nr.PhoneNumber,
		WhatsAppNumber: nr.WhatsAppNumber,
		Address:        nr.Address,
		DateOfBirth:    nr.DateOfBirth,
		Gender:         nr.Gender,
		Knowledge:      nr.Knowledge,
		Department:     nr.Department,
		Bio:            nr.Bio,
		Reason:         nr.Reason,
		CourseIDs:      nr.CourseIDs,
		Status:         StatusPending,
		RequestedAt:    core.NowFunc(),
	}
	req, err = svc.repo.CreateRequest(ctx, req)
	if err != nil {
		return Request{}, err
	}

	coursesInfo := content.CoursesInfo(courses)
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: req.FullName, Address: req.Email}},
			Subject:      "We received your enrollment request",
			TemplateName: "request-confirmation",
			TemplateData: struct {
				FullName    string
				CoursesInfo string
			}{req.FullName, coursesInfo},
		},
		&core.EmailMessage{
			To:           []mail.Address{core.Conf.AdminEmail},
			Subject:      "New enrollment request",
			TemplateName: "new-request-admin",
			TemplateData: struct {
				FullName    string
				Email       string
				CoursesInfo string
			}{req.FullName, req.Email, coursesInfo},
		},
	)
	return req, nil
}

// checkDuplicates rejects a submission when the applicant already has one of the
// requested courses covered, either by another pending request or by a live
// enrollment. DROPPED enrollments do not block re-application.
func (svc *service) checkDuplicates(ctx context.Context, nr NewRequest) error {
	pending, err := svc.repo.QueryPendingRequestsByEmail(ctx, nr.Email)
	if err != nil {
		return err
	}
	for _, p := range pending {
		if overlaps(p.CourseIDs, nr.CourseIDs) {
			return ErrDuplicateRequest
		}
	}

	acc, err := svc.identity.FindAccountByEmail(ctx, nr.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return err
	}
	profile, err := svc.studentRepo.GetProfileByAccountID(ctx, acc.ID)
	if err != nil {
		if errors.Is(err, student.ErrProfileNotFound) {
			return nil
		}
		return err
	}
	for _, cid := range nr.CourseIDs {
		enr, err := svc.studentRepo.GetEnrollment(ctx, profile.ID, cid)
		if err != nil {
			if errors.Is(err, student.ErrEnrollmentNotFound) {
				continue
			}
			return err
		}
		if enr.Status != student.StatusDropped {
			return ErrAlreadyEnrolled
		}
	}
	return nil
}

func (svc *service) Approve(ctx context.Context, id string, adminID int) (student.ProfileView, error) {
	return svc.approve(ctx, id, nil, adminID)
}

func (svc *service) ApproveSelected(ctx context.Context, id string, courseIDs []int, adminID int) (student.ProfileView, error) {
	if len(courseIDs) == 0 {
		return student.ProfileView{}, errNoCoursesSelected
	}
	return svc.approve(ctx, id, courseIDs, adminID)
}

func (svc *service) approve(ctx context.Context, id string, selected []int, adminID int) (student.ProfileView, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return student.ProfileView{}, err
	}
	if !req.IsPending() {
		return student.ProfileView{}, ErrNotPending
	}

	courseIDs := req.CourseIDs
	if selected != nil {
		for _, cid := range selected {
			if !contains(req.CourseIDs, cid) {
				return student.ProfileView{}, errCourseNotRequested
			}
		}
		courseIDs = selected
	}
	courses, err := svc.contentRepo.GetCourses(ctx, courseIDs)
	if err != nil {
		return student.ProfileView{}, err
	}

	// Resolve or provision the login. The identity provider is an external
	// collaborator so this happens outside the store transaction; a created
	// account with a rolled-back approval is harmless and reused on retry.
	isNewAccount := false
	acc, err := svc.identity.FindAccountByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return student.ProfileView{}, err
		}
		acc, err = svc.identity.CreateAccount(ctx, NewAccount{
			FullName:    req.FullName,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Password:    core.Conf.DefaultStudentPassword,
		})
		if err != nil {
			return student.ProfileView{}, err
		}
		isNewAccount = true
	}

	var profile student.StudentProfile
	err = svc.db.RunInTx(ctx, func(exec core.DBExecutor) error {
		profile, err = svc.studentRepo.GetProfileByAccountID(ctx, acc.ID, exec)
		if err != nil {
			if !errors.Is(err, student.ErrProfileNotFound) {
				return err
			}
			profile, err = svc.createProfile(ctx, req, acc.ID, exec)
			if err != nil {
				return err
			}
		}

		now := core.NowFunc()
		for _, cid := range courseIDs {
			_, err := svc.studentRepo.CreateEnrollment(ctx, student.Enrollment{
				StudentProfileID: profile.ID,
				CourseID:         cid,
				EnrolledAt:       now,
				Status:           student.StatusActive,
			}, exec)
			if err != nil && !errors.Is(err, student.ErrAlreadyEnrolled) {
				return err
			}
			// held courses are silently kept as-is
		}

		// terminal CAS last: a concurrent approval loses here and everything
		// above rolls back with it
		req, err = svc.repo.SetRequestProcessed(ctx, req.ID, StatusApproved, adminID, exec)
		return err
	})
	if err != nil {
		return student.ProfileView{}, err
	}

	svc.notifyApproved(req, acc, courses, isNewAccount)
	return student.BuildProfileView(ctx, profile, svc.studentRepo, svc.contentRepo)
}

func (svc *service) createProfile(ctx context.Context, req Request, accountID int, exec core.DBExecutor) (student.StudentProfile, error) {
	seq, err := svc.studentRepo.NextStudentSeq(ctx, exec)
	if err != nil {
		return student.StudentProfile{}, err
	}
	now := core.NowFunc()
	return svc.studentRepo.CreateProfile(ctx, student.StudentProfile{
		AccountID:      accountID,
		StudentID:      student.FormatStudentID(seq, now),
		FullName:       req.FullName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		WhatsAppNumber: req.WhatsAppNumber,
		Address:        req.Address,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		Knowledge:      req.Knowledge,
		Department:     req.Department,
		Bio:            req.Bio,
		EnrolledAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, exec)
}

func (svc *service) notifyApproved(req Request, acc Account, courses []content.Course, isNewAccount bool) {
	coursesInfo := content.CoursesInfo(courses)
	to := []mail.Address{{Name: req.FullName, Address: req.Email}}
	if isNewAccount {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           to,
			Subject:      "Your enrollment has been approved",
			TemplateName: "approval-credentials",
			TemplateData: struct {
				FullName    string
				Courses     []content.Course
				CoursesInfo string
				Login       string
				Password    string
			}{req.FullName, courses, coursesInfo, acc.Email, core.Conf.DefaultStudentPassword},
		})
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "Enrollment confirmation",
		TemplateName: "enrollment-confirmation",
		TemplateData: struct {
			FullName    string
			CoursesInfo string
		}{req.FullName, coursesInfo},
	})
}

func (svc *service) Reject(ctx context.Context, id string, adminID int) (Request, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !req.IsPending() {
		return Request{}, ErrNotPending
	}
	req, err = svc.repo.SetRequestProcessed(ctx, req.ID, StatusRejected, adminID)
	if err != nil {
		return Request{}, err
	}

	coursesInfo := ""
	if courses, err := svc.contentRepo.GetCourses(ctx, req.CourseIDs); err == nil {
		coursesInfo = content.CoursesInfo(courses)
	} else {
		svc.logger.Error("resolving courses for rejection email", err)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: req.FullName, Address: req.Email}},
		Subject:      "About your enrollment request",
		TemplateName: "request-rejected",
		TemplateData: struct {
			FullName    string
			CoursesInfo string
		}{req.FullName, coursesInfo},
	})
	return req, nil
}

func (svc *service) All(ctx context.Context) ([]RequestView, error) {
	reqs, err := svc.repo.QueryAllRequests(ctx)
	if err != nil {
		return nil, err
	}
	return svc.buildViews(ctx, reqs)
}

func (svc *service) Pending(ctx context.Context) ([]RequestView, error) {
	reqs, err := svc.repo.QueryRequestsByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	return svc.buildViews(ctx, reqs)
}

func (svc *service) Get(ctx context.Context, id string) (RequestView, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return RequestView{}, err
	}
	views, err := svc.buildViews(ctx, []Request{req})
	if err != nil {
		return RequestView{}, err
	}
	return views[0], nil
}

func (svc *service) buildViews(ctx context.Context, reqs []Request) ([]RequestView, error) {
	views := make([]RequestView, 0, len(reqs))
	for _, req := range reqs {
		courses, err := svc.contentRepo.GetCourses(ctx, req.CourseIDs)
		if err != nil {
			if !errors.Is(err, content.ErrCourseNotFound) {
				return nil, err
			}
			// courses may be deleted after the request was filed
			courses = nil
		}
		view := RequestView{Request: req, Courses: make([]CourseInfo, 0, len(courses))}
		for _, c := range courses {
			view.Courses = append(view.Courses, CourseInfo{CourseID: c.ID, Title: c.Title})
		}
		if acc, err := svc.identity.FindAccountByEmail(ctx, req.Email); err == nil {
			view.HasInactiveAccount = !acc.IsActive
		} else if !errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func overlaps(a, b []int) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

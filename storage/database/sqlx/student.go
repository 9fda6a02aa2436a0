package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/student"
)

type (
	studentProfileRow struct {
		ID             int       `db:"id"`
		AccountID      int       `db:"account_id"`
		StudentID      string    `db:"student_id"`
		FullName       string    `db:"full_name"`
		Email          string    `db:"email"`
		PhoneNumber    string    `db:"phone_number"`
		WhatsAppNumber string    `db:"whatsapp_number"`
		Address        string    `db:"address"`
		DateOfBirth    null.Time `db:"date_of_birth"`
		Gender         string    `db:"gender"`
		Knowledge      string    `db:"knowledge"`
		Department     string    `db:"department"`
		Bio            string    `db:"bio"`
		EnrolledAt     time.Time `db:"enrolled_at"`
		CreatedAt      time.Time `db:"created_at"`
		UpdatedAt      time.Time `db:"updated_at"`
	}

	enrollmentRow struct {
		ID               int       `db:"id"`
		StudentProfileID int       `db:"student_profile_id"`
		CourseID         int       `db:"course_id"`
		EnrolledAt       time.Time `db:"enrolled_at"`
		Status           string    `db:"status"`
	}
)

func rowFromProfile(p student.StudentProfile) studentProfileRow {
	return studentProfileRow{
		ID:             p.ID,
		AccountID:      p.AccountID,
		StudentID:      p.StudentID,
		FullName:       p.FullName,
		Email:          p.Email,
		PhoneNumber:    p.PhoneNumber,
		WhatsAppNumber: p.WhatsAppNumber,
		Address:        p.Address,
		DateOfBirth:    null.NewTime(p.DateOfBirth, !p.DateOfBirth.IsZero()),
		Gender:         p.Gender,
		Knowledge:      p.Knowledge,
		Department:     p.Department,
		Bio:            p.Bio,
		EnrolledAt:     p.EnrolledAt,
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
	}
}

func (r studentProfileRow) toProfile() student.StudentProfile {
	return student.StudentProfile{
		ID:             r.ID,
		AccountID:      r.AccountID,
		StudentID:      r.StudentID,
		FullName:       r.FullName,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		WhatsAppNumber: r.WhatsAppNumber,
		Address:        r.Address,
		DateOfBirth:    r.DateOfBirth.Time,
		Gender:         r.Gender,
		Knowledge:      r.Knowledge,
		Department:     r.Department,
		Bio:            r.Bio,
		EnrolledAt:     r.EnrolledAt,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r enrollmentRow) toEnrollment() student.Enrollment {
	return student.Enrollment{
		ID:               r.ID,
		StudentProfileID: r.StudentProfileID,
		CourseID:         r.CourseID,
		EnrolledAt:       r.EnrolledAt,
		Status:           r.Status,
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CreateProfile(ctx context.Context, p student.StudentProfile, exec ...core.DBExecutor) (student.StudentProfile, error) {
	row := rowFromProfile(p)
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row.ID,
		`INSERT INTO student_profile
			(account_id, student_id, full_name, email, phone_number, whatsapp_number,
			 address, date_of_birth, gender, knowledge, department, bio,
			 enrolled_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		row.AccountID, row.StudentID, row.FullName, row.Email, row.PhoneNumber, row.WhatsAppNumber,
		row.Address, row.DateOfBirth, row.Gender, row.Knowledge, row.Department, row.Bio,
		row.EnrolledAt, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return student.StudentProfile{}, errors.Wrap(err, "creating student profile")
	}
	return row.toProfile(), nil
}

func (repo studentRepository) GetProfile(ctx context.Context, id int, exec ...core.DBExecutor) (student.StudentProfile, error) {
	return repo.getProfile(ctx, `WHERE id = $1`, id, exec)
}

func (repo studentRepository) GetProfileByAccountID(ctx context.Context, accountID int, exec ...core.DBExecutor) (student.StudentProfile, error) {
	return repo.getProfile(ctx, `WHERE account_id = $1`, accountID, exec)
}

func (repo studentRepository) getProfile(ctx context.Context, where string, arg interface{}, exec []core.DBExecutor) (student.StudentProfile, error) {
	var row studentProfileRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, account_id, student_id, full_name, email, phone_number, whatsapp_number,
			address, date_of_birth, gender, knowledge, department, bio,
			enrolled_at, created_at, updated_at
		 FROM student_profile `+where, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.StudentProfile{}, student.ErrProfileNotFound
		}
		return student.StudentProfile{}, errors.Wrap(err, "finding student profile")
	}
	return row.toProfile(), nil
}

func (repo studentRepository) QueryAllProfiles(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.StudentProfile, error) {
	orderBy := "id"
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		orderBy = strings.Join(orderList, ", ")
	}

	var rows []studentProfileRow
	err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows,
		`SELECT id, account_id, student_id, full_name, email, phone_number, whatsapp_number,
			address, date_of_birth, gender, knowledge, department, bio,
			enrolled_at, created_at, updated_at
		 FROM student_profile ORDER BY `+orderBy)
	if err != nil {
		return nil, errors.Wrap(err, "listing student profiles")
	}
	profiles := make([]student.StudentProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toProfile())
	}
	return profiles, nil
}

func (repo studentRepository) NextStudentSeq(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var seq int
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &seq, `SELECT nextval('student_seq')`)
	return seq, errors.Wrap(err, "drawing student sequence")
}

func (repo studentRepository) CreateEnrollment(ctx context.Context, e student.Enrollment, exec ...core.DBExecutor) (student.Enrollment, error) {
	row := enrollmentRow{
		StudentProfileID: e.StudentProfileID,
		CourseID:         e.CourseID,
		EnrolledAt:       e.EnrolledAt,
		Status:           e.Status,
	}
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row.ID,
		`INSERT INTO enrollment (student_profile_id, course_id, enrolled_at, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		row.StudentProfileID, row.CourseID, row.EnrolledAt, row.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Enrollment{}, student.ErrAlreadyEnrolled
		}
		return student.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo studentRepository) GetEnrollment(ctx context.Context, profileID, courseID int, exec ...core.DBExecutor) (student.Enrollment, error) {
	var row enrollmentRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, student_profile_id, course_id, enrolled_at, status
		 FROM enrollment WHERE student_profile_id = $1 AND course_id = $2`, profileID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Enrollment{}, student.ErrEnrollmentNotFound
		}
		return student.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo studentRepository) QueryEnrollments(ctx context.Context, profileID int, exec ...core.DBExecutor) ([]student.Enrollment, error) {
	var rows []enrollmentRow
	err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows,
		`SELECT id, student_profile_id, course_id, enrolled_at, status
		 FROM enrollment WHERE student_profile_id = $1 ORDER BY id`, profileID)
	if err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}
	enrs := make([]student.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.toEnrollment())
	}
	return enrs, nil
}

func (repo studentRepository) UpdateEnrollmentStatus(ctx context.Context, enrollmentID int, status string, exec ...core.DBExecutor) (student.Enrollment, error) {
	var row enrollmentRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`UPDATE enrollment SET status = $2 WHERE id = $1
		 RETURNING id, student_profile_id, course_id, enrolled_at, status`, enrollmentID, status)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Enrollment{}, student.ErrEnrollmentNotFound
		}
		return student.Enrollment{}, errors.Wrap(err, "updating enrollment status")
	}
	return row.toEnrollment(), nil
}

package student

import (
	"fmt"
	"time"
)

// Enrollment statuses. Toggling between ACTIVE and DROPPED is the soft-delete
// mechanism; enrollments are never deleted.
const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusDropped   = "DROPPED"

	// StatusNotEnrolled is reported for course/user pairs with no ledger row.
	StatusNotEnrolled = "NOT_ENROLLED"
)

const studentIDPrefix = "ST"

type (
	// StudentProfile is one per learner account; minted on first approval of a
	// request for that person, or directly by an admin.
	StudentProfile struct {
		ID             int       `json:"id"`
		AccountID      int       `json:"account_id"`
		StudentID      string    `json:"student_id"` // e.g. ST260001
		FullName       string    `json:"full_name"`
		Email          string    `json:"email"`
		PhoneNumber    string    `json:"phone_number"`
		WhatsAppNumber string    `json:"whatsapp_number"`
		Address        string    `json:"address"`
		DateOfBirth    time.Time `json:"date_of_birth"`
		Gender         string    `json:"gender"`
		Knowledge      string    `json:"knowledge"`
		Department     string    `json:"department"`
		Bio            string    `json:"bio"`
		EnrolledAt     time.Time `json:"enrolled_at"`
		CreatedAt      time.Time `json:"created_at"` // UTC
		UpdatedAt      time.Time `json:"updated_at"` // UTC
	}

	// Enrollment is a durable (student, course) association. At most one row per
	// pair; the store enforces it.
	Enrollment struct {
		ID               int       `json:"id"`
		StudentProfileID int       `json:"student_profile_id"`
		CourseID         int       `json:"course_id"`
		EnrolledAt       time.Time `json:"enrolled_at"`
		Status           string    `json:"status"`
	}

	EnrollmentView struct {
		ID          int       `json:"id"`
		CourseID    int       `json:"course_id"`
		CourseTitle string    `json:"course_title"`
		EnrolledAt  time.Time `json:"enrolled_at"`
		Status      string    `json:"status"`
	}

	ProfileView struct {
		StudentProfile
		Enrollments []EnrollmentView `json:"enrollments"`
	}
)

// FormatStudentID renders the human-readable student identifier: ST + 2-digit year
// + 4-digit sequence. seq must come from an atomic sequence, never from a row count.
func FormatStudentID(seq int, now time.Time) string {
	return fmt.Sprintf("%s%02d%04d", studentIDPrefix, now.Year()%100, seq)
}

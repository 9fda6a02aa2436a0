package request

import (
	"time"

	"github.com/elimuhub/elimu/core"
)

// Request statuses. PENDING is the only non-terminal state; a request transitions
// exactly once to APPROVED or REJECTED and is never deleted.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

type (
	// Request is an applicant's ask for admission into one or more courses. It
	// unifies first-time applications and additional-course requests from already
	// registered students (the latter carry a Reason).
	Request struct {
		ID             string    `json:"id"` // uuid
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
		Reason         string    `json:"reason"`
		CourseIDs      []int     `json:"course_ids"`
		Status         string    `json:"status"`
		RequestedAt    time.Time `json:"requested_at"`            // UTC
		ProcessedAt    time.Time `json:"processed_at,omitempty"`  // UTC; zero until terminal
		ProcessedBy    int       `json:"processed_by,omitempty"`  // admin account id; 0 until terminal
	}

	// NewRequest contains information needed to submit a Request.
	NewRequest struct {
		FullName       string    `json:"full_name" validate:"required"`
		Email          string    `json:"email" validate:"required,email"`
		PhoneNumber    string    `json:"phone_number" validate:"omitempty,phone"`
		WhatsAppNumber string    `json:"whatsapp_number" validate:"omitempty,phone"`
		Address        string    `json:"address"`
		DateOfBirth    time.Time `json:"date_of_birth"`
		Gender         string    `json:"gender"`
		Knowledge      string    `json:"knowledge"`
		Department     string    `json:"department"`
		Bio            string    `json:"bio"`
		Reason         string    `json:"reason"`
		CourseIDs      []int     `json:"course_ids" validate:"required,min=1,unique,dive,gt=0"`
	}

	CourseInfo struct {
		CourseID int    `json:"course_id"`
		Title    string `json:"title"`
	}

	// RequestView decorates a Request with resolved course titles and whether the
	// applicant's account exists but is deactivated.
	RequestView struct {
		Request
		Courses            []CourseInfo `json:"courses"`
		HasInactiveAccount bool         `json:"has_inactive_account"`
	}
)

func (nr *NewRequest) Validate() error {
	nr.FullName = core.CleanString(nr.FullName)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.PhoneNumber = core.CleanString(nr.PhoneNumber)
	nr.WhatsAppNumber = core.CleanString(nr.WhatsAppNumber)
	nr.Address = core.CleanString(nr.Address)
	nr.Gender = core.CleanString(nr.Gender)
	nr.Knowledge = core.CleanString(nr.Knowledge)
	nr.Department = core.CleanString(nr.Department)
	nr.Bio = core.CleanString(nr.Bio)
	nr.Reason = core.CleanString(nr.Reason)

	if err := core.Validate.Struct(nr); err != nil {
		return core.TranslateValidationErrors(err)
	}
	return nil
}

func (r Request) IsPending() bool { return r.Status == StatusPending }

package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/request"
)

type requestRow struct {
	ID             string        `db:"id"`
	FullName       string        `db:"full_name"`
	Email          string        `db:"email"`
	PhoneNumber    string        `db:"phone_number"`
	WhatsAppNumber string        `db:"whatsapp_number"`
	Address        string        `db:"address"`
	DateOfBirth    null.Time     `db:"date_of_birth"`
	Gender         string        `db:"gender"`
	Knowledge      string        `db:"knowledge"`
	Department     string        `db:"department"`
	Bio            string        `db:"bio"`
	Reason         string        `db:"reason"`
	CourseIDs      pq.Int64Array `db:"course_ids"`
	Status         string        `db:"status"`
	RequestedAt    time.Time     `db:"requested_at"`
	ProcessedAt    null.Time     `db:"processed_at"`
	ProcessedBy    null.Int      `db:"processed_by"`
}

func (r requestRow) toRequest() request.Request {
	courseIDs := make([]int, 0, len(r.CourseIDs))
	for _, id := range r.CourseIDs {
		courseIDs = append(courseIDs, int(id))
	}
	return request.Request{
		ID:             r.ID,
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
		Reason:         r.Reason,
		CourseIDs:      courseIDs,
		Status:         r.Status,
		RequestedAt:    r.RequestedAt.UTC(),
		ProcessedAt:    r.ProcessedAt.Time,
		ProcessedBy:    r.ProcessedBy.Int,
	}
}

const requestColumns = `id, full_name, email, phone_number, whatsapp_number, address,
	date_of_birth, gender, knowledge, department, bio, reason,
	course_ids, status, requested_at, processed_at, processed_by`

type requestRepository struct {
	db *sqlx.DB
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *sqlx.DB) *requestRepository {
	return &requestRepository{db: db}
}

func (repo requestRepository) CreateRequest(ctx context.Context, r request.Request, exec ...core.DBExecutor) (request.Request, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	courseIDs := make(pq.Int64Array, 0, len(r.CourseIDs))
	for _, id := range r.CourseIDs {
		courseIDs = append(courseIDs, int64(id))
	}
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`INSERT INTO enrollment_request
			(id, full_name, email, phone_number, whatsapp_number, address,
			 date_of_birth, gender, knowledge, department, bio, reason,
			 course_ids, status, requested_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.FullName, r.Email, r.PhoneNumber, r.WhatsAppNumber, r.Address,
		null.NewTime(r.DateOfBirth, !r.DateOfBirth.IsZero()), r.Gender, r.Knowledge, r.Department, r.Bio, r.Reason,
		courseIDs, r.Status, r.RequestedAt.UTC())
	if err != nil {
		return request.Request{}, errors.Wrap(err, "creating enrollment request")
	}
	return r, nil
}

func (repo requestRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (request.Request, error) {
	var row requestRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT `+requestColumns+` FROM enrollment_request WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return request.Request{}, request.ErrNotFound
		}
		return request.Request{}, errors.Wrap(err, "finding enrollment request")
	}
	return row.toRequest(), nil
}

func (repo requestRepository) QueryAllRequests(ctx context.Context, exec ...core.DBExecutor) ([]request.Request, error) {
	return repo.query(ctx, `ORDER BY requested_at DESC`, nil, exec)
}

func (repo requestRepository) QueryRequestsByStatus(ctx context.Context, status string, exec ...core.DBExecutor) ([]request.Request, error) {
	return repo.query(ctx, `WHERE status = $1 ORDER BY requested_at DESC`, []interface{}{status}, exec)
}

func (repo requestRepository) QueryPendingRequestsByEmail(ctx context.Context, email string, exec ...core.DBExecutor) ([]request.Request, error) {
	return repo.query(ctx, `WHERE email = $1 AND status = $2 ORDER BY requested_at DESC`,
		[]interface{}{email, request.StatusPending}, exec)
}

func (repo requestRepository) query(ctx context.Context, tail string, args []interface{}, exec []core.DBExecutor) ([]request.Request, error) {
	var rows []requestRow
	err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows,
		`SELECT `+requestColumns+` FROM enrollment_request `+tail, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing enrollment requests")
	}
	reqs := make([]request.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequest())
	}
	return reqs, nil
}

// SetRequestProcessed compares-and-swaps on status so only one of two
// concurrent processors ever flips the request.
func (repo requestRepository) SetRequestProcessed(ctx context.Context, id, status string, processedBy int, exec ...core.DBExecutor) (request.Request, error) {
	var row requestRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`UPDATE enrollment_request
		 SET status = $2, processed_at = $3, processed_by = $4
		 WHERE id = $1 AND status = $5
		 RETURNING `+requestColumns,
		id, status, core.NowFunc(), processedBy, request.StatusPending)
	if err != nil {
		if err == sql.ErrNoRows {
			return request.Request{}, request.ErrNotPending
		}
		return request.Request{}, errors.Wrap(err, "processing enrollment request")
	}
	return row.toRequest(), nil
}

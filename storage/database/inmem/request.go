package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/request"
)

type requestRepository struct {
	db *requestTable
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *DB) *requestRepository {
	return &requestRepository{db: db.request}
}

func (repo *requestRepository) CreateRequest(_ context.Context, r request.Request, _ ...core.DBExecutor) (request.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *requestRepository) GetRequest(_ context.Context, id string, _ ...core.DBExecutor) (request.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return request.Request{}, request.ErrNotFound
}

func (repo *requestRepository) QueryAllRequests(ctx context.Context, exec ...core.DBExecutor) ([]request.Request, error) {
	return repo.query(func(request.Request) bool { return true }), nil
}

func (repo *requestRepository) QueryRequestsByStatus(_ context.Context, status string, _ ...core.DBExecutor) ([]request.Request, error) {
	return repo.query(func(r request.Request) bool { return r.Status == status }), nil
}

func (repo *requestRepository) QueryPendingRequestsByEmail(_ context.Context, email string, _ ...core.DBExecutor) ([]request.Request, error) {
	return repo.query(func(r request.Request) bool {
		return r.Email == email && r.Status == request.StatusPending
	}), nil
}

func (repo *requestRepository) query(match func(request.Request) bool) []request.Request {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reqs := make([]request.Request, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		if match(*r) {
			reqs = append(reqs, *r)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].RequestedAt.After(reqs[j].RequestedAt) })
	return reqs
}

func (repo *requestRepository) SetRequestProcessed(_ context.Context, id, status string, processedBy int, _ ...core.DBExecutor) (request.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.table[id]
	if !ok {
		return request.Request{}, request.ErrNotFound
	}
	if r.Status != request.StatusPending {
		return request.Request{}, request.ErrNotPending
	}
	r.Status = status
	r.ProcessedAt = core.NowFunc()
	r.ProcessedBy = processedBy
	return *r, nil
}

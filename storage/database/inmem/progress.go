package inmemdb

import (
	"context"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) UpsertChapterProgress(_ context.Context, rec progress.ChapterProgress, _ ...core.DBExecutor) (progress.ChapterProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := progressKey{rec.UserID, rec.ChapterID}
	stored, ok := repo.db.records[key]
	if !ok {
		repo.db.pkCount++
		rec.ID = repo.db.pkCount
		repo.db.records[key] = &rec
		return rec, nil
	}

	// max percent, additive time, sticky completed
	if rec.Percent > stored.Percent {
		stored.Percent = rec.Percent
	}
	stored.TimeSpentSeconds += rec.TimeSpentSeconds
	stored.Completed = stored.Completed || rec.Completed
	stored.LastUpdated = rec.LastUpdated
	return *stored, nil
}

func (repo *progressRepository) GetChapterProgress(_ context.Context, userID, chapterID int, _ ...core.DBExecutor) (progress.ChapterProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.records[progressKey{userID, chapterID}]; ok {
		return *rec, nil
	}
	return progress.ChapterProgress{}, progress.ErrNotFound
}

func (repo *progressRepository) GetUserChapterProgress(_ context.Context, userID int, chapterIDs []int, _ ...core.DBExecutor) (map[int]progress.ChapterProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make(map[int]progress.ChapterProgress, len(chapterIDs))
	for _, cid := range chapterIDs {
		if rec, ok := repo.db.records[progressKey{userID, cid}]; ok {
			recs[cid] = *rec
		}
	}
	return recs, nil
}

func (repo *progressRepository) MarkModuleCompleted(_ context.Context, userID, moduleID int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := moduleKey{userID, moduleID}
	if _, ok := repo.db.completions[key]; !ok {
		repo.db.completions[key] = core.NowFunc()
	}
	return nil
}

func (repo *progressRepository) IsModuleCompleted(_ context.Context, userID, moduleID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.completions[moduleKey{userID, moduleID}]
	return ok, nil
}

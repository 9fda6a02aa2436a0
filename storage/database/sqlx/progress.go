package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/progress"
)

type chapterProgressRow struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	ChapterID   int       `db:"chapter_id"`
	Percent     int       `db:"percent"`
	TimeSpent   int       `db:"time_spent"`
	Completed   bool      `db:"completed"`
	LastUpdated time.Time `db:"last_updated"`
}

func (r chapterProgressRow) toRecord() progress.ChapterProgress {
	return progress.ChapterProgress{
		ID:               r.ID,
		UserID:           r.UserID,
		ChapterID:        r.ChapterID,
		Percent:          r.Percent,
		TimeSpentSeconds: r.TimeSpent,
		Completed:        r.Completed,
		LastUpdated:      r.LastUpdated.UTC(),
	}
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

// UpsertChapterProgress folds rec into the stored record in a single statement;
// the merge rules (max percent, additive time, sticky completed) live in the
// ON CONFLICT clause so concurrent writers cannot interleave.
func (repo progressRepository) UpsertChapterProgress(ctx context.Context, rec progress.ChapterProgress, exec ...core.DBExecutor) (progress.ChapterProgress, error) {
	var row chapterProgressRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`INSERT INTO chapter_progress (user_id, chapter_id, percent, time_spent, completed, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, chapter_id) DO UPDATE SET
			percent      = GREATEST(chapter_progress.percent, EXCLUDED.percent),
			time_spent   = chapter_progress.time_spent + EXCLUDED.time_spent,
			completed    = chapter_progress.completed OR EXCLUDED.completed,
			last_updated = EXCLUDED.last_updated
		 RETURNING id, user_id, chapter_id, percent, time_spent, completed, last_updated`,
		rec.UserID, rec.ChapterID, rec.Percent, rec.TimeSpentSeconds, rec.Completed, rec.LastUpdated.UTC())
	if err != nil {
		return progress.ChapterProgress{}, errors.Wrap(err, "upserting chapter progress")
	}
	return row.toRecord(), nil
}

func (repo progressRepository) GetChapterProgress(ctx context.Context, userID, chapterID int, exec ...core.DBExecutor) (progress.ChapterProgress, error) {
	var row chapterProgressRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, user_id, chapter_id, percent, time_spent, completed, last_updated
		 FROM chapter_progress WHERE user_id = $1 AND chapter_id = $2`, userID, chapterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return progress.ChapterProgress{}, progress.ErrNotFound
		}
		return progress.ChapterProgress{}, errors.Wrap(err, "finding chapter progress")
	}
	return row.toRecord(), nil
}

func (repo progressRepository) GetUserChapterProgress(ctx context.Context, userID int, chapterIDs []int, exec ...core.DBExecutor) (map[int]progress.ChapterProgress, error) {
	recs := make(map[int]progress.ChapterProgress, len(chapterIDs))
	if len(chapterIDs) == 0 {
		return recs, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, user_id, chapter_id, percent, time_spent, completed, last_updated
		 FROM chapter_progress WHERE user_id = ? AND chapter_id IN (?)`, userID, chapterIDs)
	if err != nil {
		return nil, errors.Wrap(err, "listing chapter progress")
	}
	ex := getExec(repo.db, exec)
	var rows []chapterProgressRow
	if err = sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "listing chapter progress")
	}
	for _, row := range rows {
		recs[row.ChapterID] = row.toRecord()
	}
	return recs, nil
}

func (repo progressRepository) MarkModuleCompleted(ctx context.Context, userID, moduleID int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.db, exec).ExecContext(ctx,
		`INSERT INTO module_completion (user_id, module_id, completed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, module_id) DO NOTHING`,
		userID, moduleID, core.NowFunc())
	return errors.Wrap(err, "marking module completed")
}

func (repo progressRepository) IsModuleCompleted(ctx context.Context, userID, moduleID int, exec ...core.DBExecutor) (bool, error) {
	var completed bool
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &completed,
		`SELECT EXISTS (SELECT 1 FROM module_completion WHERE user_id = $1 AND module_id = $2)`,
		userID, moduleID)
	return completed, errors.Wrap(err, "checking module completion")
}

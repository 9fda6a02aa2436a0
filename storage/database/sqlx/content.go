package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/content"
)

type (
	courseRow struct {
		ID          int    `db:"id"`
		Title       string `db:"title"`
		Description string `db:"description"`
	}
	moduleRow struct {
		ID          int    `db:"id"`
		CourseID    int    `db:"course_id"`
		Title       string `db:"title"`
		Description string `db:"description"`
		OrderIndex  int    `db:"order_index"`
	}
	chapterRow struct {
		ID          int    `db:"id"`
		ModuleID    int    `db:"module_id"`
		Title       string `db:"title"`
		Description string `db:"description"`
		OrderIndex  int    `db:"order_index"`
	}
)

func (r courseRow) toCourse() content.Course {
	return content.Course{ID: r.ID, Title: r.Title, Description: r.Description}
}

func (r moduleRow) toModule() content.Module {
	return content.Module{ID: r.ID, CourseID: r.CourseID, Title: r.Title, Description: r.Description, OrderIndex: r.OrderIndex}
}

func (r chapterRow) toChapter() content.Chapter {
	return content.Chapter{ID: r.ID, ModuleID: r.ModuleID, Title: r.Title, Description: r.Description, OrderIndex: r.OrderIndex}
}

type contentRepository struct {
	db *sqlx.DB
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *sqlx.DB) *contentRepository {
	return &contentRepository{db: db}
}

func (repo contentRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (content.Course, error) {
	var row courseRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, title, description FROM course WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return content.Course{}, content.ErrCourseNotFound
		}
		return content.Course{}, errors.Wrap(err, "finding course")
	}
	return row.toCourse(), nil
}

func (repo contentRepository) GetCourses(ctx context.Context, ids []int, exec ...core.DBExecutor) ([]content.Course, error) {
	courses := make([]content.Course, 0, len(ids))
	for _, id := range ids {
		c, err := repo.GetCourse(ctx, id, exec...)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo contentRepository) GetModule(ctx context.Context, id int, exec ...core.DBExecutor) (content.Module, error) {
	var row moduleRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, course_id, title, description, order_index FROM module WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return content.Module{}, content.ErrModuleNotFound
		}
		return content.Module{}, errors.Wrap(err, "finding module")
	}
	return row.toModule(), nil
}

func (repo contentRepository) GetModulesOrdered(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]content.Module, error) {
	var rows []moduleRow
	err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows,
		`SELECT id, course_id, title, description, order_index
		 FROM module WHERE course_id = $1 ORDER BY order_index, id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing modules")
	}
	modules := make([]content.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, row.toModule())
	}
	return modules, nil
}

func (repo contentRepository) GetChapter(ctx context.Context, id int, exec ...core.DBExecutor) (content.Chapter, error) {
	var row chapterRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, module_id, title, description, order_index FROM chapter WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return content.Chapter{}, content.ErrChapterNotFound
		}
		return content.Chapter{}, errors.Wrap(err, "finding chapter")
	}
	return row.toChapter(), nil
}

func (repo contentRepository) GetChaptersOrdered(ctx context.Context, moduleID int, exec ...core.DBExecutor) ([]content.Chapter, error) {
	var rows []chapterRow
	err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows,
		`SELECT id, module_id, title, description, order_index
		 FROM chapter WHERE module_id = $1 ORDER BY order_index, id`, moduleID)
	if err != nil {
		return nil, errors.Wrap(err, "listing chapters")
	}
	chapters := make([]content.Chapter, 0, len(rows))
	for _, row := range rows {
		chapters = append(chapters, row.toChapter())
	}
	return chapters, nil
}

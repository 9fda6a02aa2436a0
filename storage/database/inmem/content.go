package inmemdb

import (
	"context"
	"sort"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/content"
)

type contentRepository struct {
	db *contentTable
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) *contentRepository {
	return &contentRepository{db: db.content}
}

// AddCourse seeds a course, assigning an id if missing.
func (repo *contentRepository) AddCourse(c content.Course) content.Course {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == 0 {
		repo.db.pkCount++
		c.ID = repo.db.pkCount
	}
	repo.db.courses[c.ID] = &c
	return c
}

func (repo *contentRepository) AddModule(m content.Module) content.Module {
	repo.db.Lock()
	defer repo.db.Unlock()

	if m.ID == 0 {
		repo.db.pkCount++
		m.ID = repo.db.pkCount
	}
	repo.db.modules[m.ID] = &m
	return m
}

func (repo *contentRepository) AddChapter(c content.Chapter) content.Chapter {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c.ID == 0 {
		repo.db.pkCount++
		c.ID = repo.db.pkCount
	}
	repo.db.chapters[c.ID] = &c
	return c
}

func (repo *contentRepository) GetCourse(_ context.Context, id int, _ ...core.DBExecutor) (content.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return content.Course{}, content.ErrCourseNotFound
}

func (repo *contentRepository) GetCourses(ctx context.Context, ids []int, exec ...core.DBExecutor) ([]content.Course, error) {
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

func (repo *contentRepository) GetModule(_ context.Context, id int, _ ...core.DBExecutor) (content.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.modules[id]; ok {
		return *m, nil
	}
	return content.Module{}, content.ErrModuleNotFound
}

func (repo *contentRepository) GetModulesOrdered(_ context.Context, courseID int, _ ...core.DBExecutor) ([]content.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var modules []content.Module
	for _, m := range repo.db.modules {
		if m.CourseID == courseID {
			modules = append(modules, *m)
		}
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].OrderIndex != modules[j].OrderIndex {
			return modules[i].OrderIndex < modules[j].OrderIndex
		}
		return modules[i].ID < modules[j].ID
	})
	return modules, nil
}

func (repo *contentRepository) GetChapter(_ context.Context, id int, _ ...core.DBExecutor) (content.Chapter, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.chapters[id]; ok {
		return *c, nil
	}
	return content.Chapter{}, content.ErrChapterNotFound
}

func (repo *contentRepository) GetChaptersOrdered(_ context.Context, moduleID int, _ ...core.DBExecutor) ([]content.Chapter, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var chapters []content.Chapter
	for _, c := range repo.db.chapters {
		if c.ModuleID == moduleID {
			chapters = append(chapters, *c)
		}
	}
	sort.Slice(chapters, func(i, j int) bool {
		if chapters[i].OrderIndex != chapters[j].OrderIndex {
			return chapters[i].OrderIndex < chapters[j].OrderIndex
		}
		return chapters[i].ID < chapters[j].ID
	})
	return chapters, nil
}

package progress

import (
	"context"
	"errors"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/content"
)

var (
	// errors
	ErrNotFound = errors.New("chapter progress not found")

	errInvalidPercent   = errors.New("progress percentage must be between 0 and 100")
	errInvalidTimeSpent = errors.New("time spent cannot be negative")
)

type (
	Repository interface {
		// UpsertChapterProgress applies rec atomically against the stored record for
		// (rec.UserID, rec.ChapterID): percent becomes max(stored, rec), time spent is
		// added, completed is sticky. At most one record per key ever exists.
		UpsertChapterProgress(ctx context.Context, rec ChapterProgress, exec ...core.DBExecutor) (ChapterProgress, error)
		GetChapterProgress(ctx context.Context, userID, chapterID int, exec ...core.DBExecutor) (ChapterProgress, error)
		// GetUserChapterProgress returns the existing records among chapterIDs, keyed
		// by chapter id; absent chapters are simply missing from the map.
		GetUserChapterProgress(ctx context.Context, userID int, chapterIDs []int, exec ...core.DBExecutor) (map[int]ChapterProgress, error)
		// MarkModuleCompleted is idempotent.
		MarkModuleCompleted(ctx context.Context, userID, moduleID int, exec ...core.DBExecutor) error
		IsModuleCompleted(ctx context.Context, userID, moduleID int, exec ...core.DBExecutor) (bool, error)
	}

	// EnrollmentStatusGetter reports a user's enrollment status string for a course
	// (ACTIVE/COMPLETED/DROPPED/NOT_ENROLLED); implemented by the student service.
	EnrollmentStatusGetter interface {
		EnrollmentStatus(ctx context.Context, accountID, courseID int) (string, error)
	}

	Service interface {
		Record(ctx context.Context, userID, chapterID, percent, additionalSeconds int) (ChapterProgress, error)
		MarkCompleted(ctx context.Context, userID, chapterID int) (ChapterProgress, error)
		Get(ctx context.Context, userID, chapterID int) (percent int, completed bool, err error)
		IsModuleCompleted(ctx context.Context, userID, moduleID int) (bool, error)
		HasCompletedAllPreviousModules(ctx context.Context, userID, moduleID int) (bool, error)
		CourseProgress(ctx context.Context, courseID, userID int) (CourseProgressView, error)
		AllCoursesProgress(ctx context.Context, courseIDs []int, userID int) ([]CourseProgressView, error)
		OverallProgress(ctx context.Context, courseIDs []int, userID int) (OverallProgressView, error)
	}

	service struct {
		repo        Repository
		contentRepo content.Repository
		enrollments EnrollmentStatusGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, contentRepo content.Repository, enrollments EnrollmentStatusGetter) Service {
	return &service{
		repo:        repo,
		contentRepo: contentRepo,
		enrollments: enrollments,
	}
}

func (svc *service) Record(ctx context.Context, userID, chapterID, percent, additionalSeconds int) (ChapterProgress, error) {
	if percent < 0 || percent > 100 {
		return ChapterProgress{}, core.NewValidationError(errInvalidPercent,
			core.FieldError{Field: "percent", Error: errInvalidPercent.Error()})
	}
	if additionalSeconds < 0 {
		return ChapterProgress{}, core.NewValidationError(errInvalidTimeSpent,
			core.FieldError{Field: "time_spent_seconds", Error: errInvalidTimeSpent.Error()})
	}

	chapter, err := svc.contentRepo.GetChapter(ctx, chapterID)
	if err != nil {
		return ChapterProgress{}, err
	}

	rec, err := svc.repo.UpsertChapterProgress(ctx, ChapterProgress{
		UserID:           userID,
		ChapterID:        chapterID,
		Percent:          percent,
		TimeSpentSeconds: additionalSeconds,
		Completed:        percent >= 100,
		LastUpdated:      core.NowFunc(),
	})
	if err != nil {
		return ChapterProgress{}, err
	}

	// The cascade check runs synchronously on every completing write; module
	// completion is a durable per-user flag, not recomputed on read.
	if rec.Completed {
		if err := svc.cascadeModuleCompletion(ctx, userID, chapter.ModuleID); err != nil {
			return ChapterProgress{}, err
		}
	}
	return rec, nil
}

func (svc *service) MarkCompleted(ctx context.Context, userID, chapterID int) (ChapterProgress, error) {
	return svc.Record(ctx, userID, chapterID, 100, 0)
}

func (svc *service) Get(ctx context.Context, userID, chapterID int) (int, bool, error) {
	rec, err := svc.repo.GetChapterProgress(ctx, userID, chapterID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, false, nil // absence is a valid zero-progress state
		}
		return 0, false, err
	}
	return rec.Percent, rec.Completed, nil
}

func (svc *service) IsModuleCompleted(ctx context.Context, userID, moduleID int) (bool, error) {
	if _, err := svc.contentRepo.GetModule(ctx, moduleID); err != nil {
		return false, err
	}
	return svc.repo.IsModuleCompleted(ctx, userID, moduleID)
}

func (svc *service) HasCompletedAllPreviousModules(ctx context.Context, userID, moduleID int) (bool, error) {
	mod, err := svc.contentRepo.GetModule(ctx, moduleID)
	if err != nil {
		return false, err
	}
	modules, err := svc.contentRepo.GetModulesOrdered(ctx, mod.CourseID)
	if err != nil {
		return false, err
	}
	for _, m := range modules {
		if m.ID == moduleID {
			return true, nil
		}
		done, err := svc.repo.IsModuleCompleted(ctx, userID, m.ID)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	return false, content.ErrModuleNotFound
}

func (svc *service) CourseProgress(ctx context.Context, courseID, userID int) (CourseProgressView, error) {
	course, err := svc.contentRepo.GetCourse(ctx, courseID)
	if err != nil {
		return CourseProgressView{}, err
	}
	status, err := svc.enrollments.EnrollmentStatus(ctx, userID, courseID)
	if err != nil {
		return CourseProgressView{}, err
	}
	modules, err := svc.contentRepo.GetModulesOrdered(ctx, courseID)
	if err != nil {
		return CourseProgressView{}, err
	}

	view := CourseProgressView{
		CourseID:         courseID,
		Title:            course.Title,
		TotalModules:     len(modules),
		EnrollmentStatus: status,
		Modules:          make([]ModuleView, 0, len(modules)),
	}

	for _, mod := range modules {
		mv, err := svc.moduleProgress(ctx, mod, userID)
		if err != nil {
			return CourseProgressView{}, err
		}
		view.TotalChapters += mv.TotalChapters
		view.CompletedChapters += mv.CompletedChapters
		if mv.Completed {
			view.CompletedModules++
		}
		view.Modules = append(view.Modules, mv)
	}

	// Always derived from chapter counts; summing module percentages drifts.
	view.Percent = percentOf(view.CompletedChapters, view.TotalChapters)
	view.Completed = view.TotalChapters > 0 && view.CompletedChapters == view.TotalChapters
	return view, nil
}

func (svc *service) moduleProgress(ctx context.Context, mod content.Module, userID int) (ModuleView, error) {
	chapters, err := svc.contentRepo.GetChaptersOrdered(ctx, mod.ID)
	if err != nil {
		return ModuleView{}, err
	}
	ids := make([]int, 0, len(chapters))
	for _, ch := range chapters {
		ids = append(ids, ch.ID)
	}
	recs, err := svc.repo.GetUserChapterProgress(ctx, userID, ids)
	if err != nil {
		return ModuleView{}, err
	}

	mv := ModuleView{
		ID:            mod.ID,
		Title:         mod.Title,
		OrderIndex:    mod.OrderIndex,
		TotalChapters: len(chapters),
		Chapters:      make([]ChapterView, 0, len(chapters)),
	}
	for _, ch := range chapters {
		rec := recs[ch.ID] // zero value when absent
		if rec.Completed {
			mv.CompletedChapters++
		}
		mv.Chapters = append(mv.Chapters, ChapterView{
			ID:         ch.ID,
			Title:      ch.Title,
			OrderIndex: ch.OrderIndex,
			Percent:    rec.Percent,
			Completed:  rec.Completed,
		})
	}
	mv.Percent = percentOf(mv.CompletedChapters, mv.TotalChapters)
	// a zero-chapter module is never completed
	mv.Completed = mv.TotalChapters > 0 && mv.CompletedChapters == mv.TotalChapters
	return mv, nil
}

func (svc *service) AllCoursesProgress(ctx context.Context, courseIDs []int, userID int) ([]CourseProgressView, error) {
	views := make([]CourseProgressView, 0, len(courseIDs))
	for _, id := range courseIDs {
		view, err := svc.CourseProgress(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (svc *service) OverallProgress(ctx context.Context, courseIDs []int, userID int) (OverallProgressView, error) {
	view := OverallProgressView{Courses: make([]CourseSummaryView, 0, len(courseIDs))}

	for _, id := range courseIDs {
		cv, err := svc.CourseProgress(ctx, id, userID)
		if err != nil {
			return OverallProgressView{}, err
		}
		view.CompletedChapters += cv.CompletedChapters
		view.TotalChapters += cv.TotalChapters
		view.CompletedModules += cv.CompletedModules
		view.TotalModules += cv.TotalModules
		view.Courses = append(view.Courses, CourseSummaryView{
			CourseID:          cv.CourseID,
			Title:             cv.Title,
			CompletedChapters: cv.CompletedChapters,
			TotalChapters:     cv.TotalChapters,
			Percent:           cv.Percent,
			Completed:         cv.Completed,
		})
	}

	// Recomputed from summed chapter counts, never by averaging course percentages.
	view.Percent = percentOf(view.CompletedChapters, view.TotalChapters)
	view.Completed = view.TotalChapters > 0 && view.CompletedChapters == view.TotalChapters
	return view, nil
}

// cascadeModuleCompletion marks the module completed for the user once every one of
// its chapters is completed.
func (svc *service) cascadeModuleCompletion(ctx context.Context, userID, moduleID int) error {
	chapters, err := svc.contentRepo.GetChaptersOrdered(ctx, moduleID)
	if err != nil {
		return err
	}
	if len(chapters) == 0 {
		return nil
	}
	ids := make([]int, 0, len(chapters))
	for _, ch := range chapters {
		ids = append(ids, ch.ID)
	}
	recs, err := svc.repo.GetUserChapterProgress(ctx, userID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if rec, ok := recs[id]; !ok || !rec.Completed {
			return nil
		}
	}
	return svc.repo.MarkModuleCompleted(ctx, userID, moduleID)
}

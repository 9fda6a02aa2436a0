package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateProfile(_ context.Context, p student.StudentProfile, _ ...core.DBExecutor) (student.StudentProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	p.ID = repo.db.pkCount
	repo.db.profiles[p.ID] = &p
	return p, nil
}

func (repo *studentRepository) GetProfile(_ context.Context, id int, _ ...core.DBExecutor) (student.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.profiles[id]; ok {
		return *p, nil
	}
	return student.StudentProfile{}, student.ErrProfileNotFound
}

func (repo *studentRepository) GetProfileByAccountID(_ context.Context, accountID int, _ ...core.DBExecutor) (student.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.profiles {
		if p.AccountID == accountID {
			return *p, nil
		}
	}
	return student.StudentProfile{}, student.ErrProfileNotFound
}

func (repo *studentRepository) QueryAllProfiles(_ context.Context, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]student.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]student.StudentProfile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profileLess(profiles[i], profiles[j], ordering) })
	return profiles, nil
}

func profileLess(a, b student.StudentProfile, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "student_id":
			cmp = strings.Compare(a.StudentID, b.StudentID)
		case "full_name":
			cmp = strings.Compare(a.FullName, b.FullName)
		case "enrolled_at":
			switch {
			case a.EnrolledAt.Before(b.EnrolledAt):
				cmp = -1
			case a.EnrolledAt.After(b.EnrolledAt):
				cmp = 1
			}
		}
		if cmp != 0 {
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
	}
	return a.ID < b.ID
}

func (repo *studentRepository) NextStudentSeq(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	return repo.db.seq, nil
}

func (repo *studentRepository) CreateEnrollment(_ context.Context, e student.Enrollment, _ ...core.DBExecutor) (student.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := enrollmentKey{e.StudentProfileID, e.CourseID}
	if _, ok := repo.db.byPair[key]; ok {
		return student.Enrollment{}, student.ErrAlreadyEnrolled
	}
	repo.db.pkCount++
	e.ID = repo.db.pkCount
	repo.db.enrollments[e.ID] = &e
	repo.db.byPair[key] = e.ID
	return e, nil
}

func (repo *studentRepository) GetEnrollment(_ context.Context, profileID, courseID int, _ ...core.DBExecutor) (student.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if id, ok := repo.db.byPair[enrollmentKey{profileID, courseID}]; ok {
		return *repo.db.enrollments[id], nil
	}
	return student.Enrollment{}, student.ErrEnrollmentNotFound
}

func (repo *studentRepository) QueryEnrollments(_ context.Context, profileID int, _ ...core.DBExecutor) ([]student.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrs []student.Enrollment
	for _, e := range repo.db.enrollments {
		if e.StudentProfileID == profileID {
			enrs = append(enrs, *e)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].ID < enrs[j].ID })
	return enrs, nil
}

func (repo *studentRepository) UpdateEnrollmentStatus(_ context.Context, enrollmentID int, status string, _ ...core.DBExecutor) (student.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.enrollments[enrollmentID]
	if !ok {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	e.Status = status
	return *e, nil
}

package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type CourseRepository struct {
	modes       *modeTable
	enrollments *enrollmentTable
}

var (
	_ course.ModeRepository       = (*CourseRepository)(nil)
	_ course.EnrollmentRepository = (*CourseRepository)(nil)
)

func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{modes: db.mode, enrollments: db.enrollment}
}

func modeKey(courseID, slug string) string { return courseID + "|" + slug }

func enrollmentKey(userID, courseID string) string { return userID + "|" + courseID }

func (repo *CourseRepository) SaveMode(_ context.Context, mode course.Mode, _ ...core.DBExecutor) (course.Mode, error) {
	repo.modes.Lock()
	defer repo.modes.Unlock()
	repo.modes.table[modeKey(mode.CourseID, mode.Slug)] = &mode
	return mode, nil
}

func (repo *CourseRepository) GetMode(_ context.Context, courseID, slug string, _ ...core.DBExecutor) (course.Mode, error) {
	repo.modes.RLock()
	defer repo.modes.RUnlock()

	if mode, ok := repo.modes.table[modeKey(courseID, slug)]; ok {
		return *mode, nil
	}
	return course.Mode{}, course.ErrModeNotFound
}

func (repo *CourseRepository) QueryCourseModes(_ context.Context, courseID string, _ ...core.DBExecutor) ([]course.Mode, error) {
	repo.modes.RLock()
	defer repo.modes.RUnlock()

	modes := make([]course.Mode, 0)
	for _, mode := range repo.modes.table {
		if mode.CourseID == courseID {
			modes = append(modes, *mode)
		}
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].MinPrice < modes[j].MinPrice })
	return modes, nil
}

func (repo *CourseRepository) SaveEnrollment(_ context.Context, enr course.Enrollment, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.enrollments.Lock()
	defer repo.enrollments.Unlock()

	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	if enr.CreatedAt.IsZero() {
		enr.CreatedAt = time.Now().UTC()
	}
	repo.enrollments.table[enrollmentKey(enr.UserID, enr.CourseID)] = &enr
	return enr, nil
}

func (repo *CourseRepository) GetEnrollment(_ context.Context, userID, courseID string, _ ...core.DBExecutor) (course.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	if enr, ok := repo.enrollments.table[enrollmentKey(userID, courseID)]; ok {
		return *enr, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *CourseRepository) QueryUserEnrollments(_ context.Context, userID string, _ ...core.DBExecutor) ([]course.Enrollment, error) {
	repo.enrollments.RLock()
	defer repo.enrollments.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, enr := range repo.enrollments.table {
		if enr.UserID == userID {
			enrollments = append(enrollments, *enr)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].CreatedAt.After(enrollments[j].CreatedAt) })
	return enrollments, nil
}

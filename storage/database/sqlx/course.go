package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type CourseRepository struct {
	db *sqlx.DB
}

var (
	_ course.ModeRepository       = (*CourseRepository)(nil)
	_ course.EnrollmentRepository = (*CourseRepository)(nil)
)

// NewCourseRepository serves both the mode and enrollment repositories, the
// two tables always travel together.
func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: sqlx.NewDb(db, core.Conf.Database.Engine)}
}

type modeRow struct {
	CourseID    string    `db:"course_id"`
	Slug        string    `db:"slug"`
	DisplayName string    `db:"display_name"`
	MinPrice    int       `db:"min_price"`
	Currency    string    `db:"currency"`
	Expiration  null.Time `db:"expiration"`
	SKU         string    `db:"sku"`
}

func (r modeRow) toMode() course.Mode {
	mode := course.Mode{
		CourseID:    r.CourseID,
		Slug:        r.Slug,
		DisplayName: r.DisplayName,
		MinPrice:    r.MinPrice,
		Currency:    r.Currency,
		SKU:         r.SKU,
	}
	if r.Expiration.Valid {
		exp := r.Expiration.Time.UTC()
		mode.Expiration = &exp
	}
	return mode
}

type enrollmentRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	CourseID        string    `db:"course_id"`
	Mode            string    `db:"mode"`
	IsActive        bool      `db:"is_active"`
	UpgradeDeadline null.Time `db:"upgrade_deadline"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r enrollmentRow) toEnrollment() course.Enrollment {
	enr := course.Enrollment{
		ID:        r.ID,
		UserID:    r.UserID,
		CourseID:  r.CourseID,
		Mode:      r.Mode,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.UpgradeDeadline.Valid {
		deadline := r.UpgradeDeadline.Time.UTC()
		enr.UpgradeDeadline = &deadline
	}
	return enr
}

const (
	modeColumns       = `course_id, slug, display_name, min_price, currency, expiration, sku`
	enrollmentColumns = `id, user_id, course_id, mode, is_active, upgrade_deadline, created_at`
)

func (repo *CourseRepository) executor(exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 {
		if x, ok := exec[0].(sqlx.ExtContext); ok {
			return x
		}
	}
	return repo.db
}

func (repo *CourseRepository) SaveMode(ctx context.Context, mode course.Mode, exec ...core.DBExecutor) (course.Mode, error) {
	var expiration null.Time
	if mode.Expiration != nil {
		expiration = null.TimeFrom(*mode.Expiration)
	}

	query := `
		INSERT INTO course_mode (` + modeColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (course_id, slug) DO UPDATE
		SET display_name = EXCLUDED.display_name, min_price = EXCLUDED.min_price,
			currency = EXCLUDED.currency, expiration = EXCLUDED.expiration, sku = EXCLUDED.sku`
	_, err := repo.executor(exec).ExecContext(ctx, query,
		mode.CourseID, mode.Slug, mode.DisplayName, mode.MinPrice, mode.Currency, expiration, mode.SKU,
	)
	if err != nil {
		return course.Mode{}, errors.Wrap(err, "saving course mode")
	}
	return mode, nil
}

func (repo *CourseRepository) GetMode(ctx context.Context, courseID, slug string, exec ...core.DBExecutor) (course.Mode, error) {
	query := `SELECT ` + modeColumns + ` FROM course_mode WHERE course_id = $1 AND slug = $2`

	var row modeRow
	if err := sqlx.GetContext(ctx, repo.executor(exec), &row, query, courseID, slug); err != nil {
		if err == sql.ErrNoRows {
			return course.Mode{}, course.ErrModeNotFound
		}
		return course.Mode{}, errors.Wrap(err, "getting course mode")
	}
	return row.toMode(), nil
}

func (repo *CourseRepository) QueryCourseModes(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]course.Mode, error) {
	query := `SELECT ` + modeColumns + ` FROM course_mode WHERE course_id = $1 ORDER BY min_price`

	var rows []modeRow
	if err := sqlx.SelectContext(ctx, repo.executor(exec), &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course modes")
	}

	modes := make([]course.Mode, 0, len(rows))
	for _, row := range rows {
		modes = append(modes, row.toMode())
	}
	return modes, nil
}

func (repo *CourseRepository) SaveEnrollment(ctx context.Context, enr course.Enrollment, exec ...core.DBExecutor) (course.Enrollment, error) {
	if enr.ID == "" {
		enr.ID = uuid.New().String()
	}
	if enr.CreatedAt.IsZero() {
		enr.CreatedAt = time.Now().UTC()
	}
	var deadline null.Time
	if enr.UpgradeDeadline != nil {
		deadline = null.TimeFrom(*enr.UpgradeDeadline)
	}

	query := `
		INSERT INTO enrollment (` + enrollmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, course_id) DO UPDATE
		SET mode = EXCLUDED.mode, is_active = EXCLUDED.is_active, upgrade_deadline = EXCLUDED.upgrade_deadline`
	_, err := repo.executor(exec).ExecContext(ctx, query,
		enr.ID, enr.UserID, enr.CourseID, enr.Mode, enr.IsActive, deadline, enr.CreatedAt,
	)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "saving enrollment")
	}
	return enr, nil
}

func (repo *CourseRepository) GetEnrollment(ctx context.Context, userID, courseID string, exec ...core.DBExecutor) (course.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE user_id = $1 AND course_id = $2`

	var row enrollmentRow
	if err := sqlx.GetContext(ctx, repo.executor(exec), &row, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return course.Enrollment{}, course.ErrEnrollmentNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *CourseRepository) QueryUserEnrollments(ctx context.Context, userID string, exec ...core.DBExecutor) ([]course.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE user_id = $1 ORDER BY created_at DESC`

	var rows []enrollmentRow
	if err := sqlx.SelectContext(ctx, repo.executor(exec), &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toEnrollment())
	}
	return enrollments, nil
}

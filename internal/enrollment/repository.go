package enrollment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/coursehub/internal/courses"
	platformdb "github.com/coursehub/coursehub/internal/platform/db"
	"github.com/coursehub/coursehub/internal/shared"
)

// Repository manages the enrollments join table. Because membership lives in
// one row per (account, course) pair, the student-side and course-side views
// can never disagree; both are projections of the same table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Enroll links a student to a course. The existence and role checks run inside
// the same transaction as the insert, so a concurrently deleted account or
// course cannot produce a dangling row.
func (r *Repository) Enroll(ctx context.Context, accountID, courseID int64) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkStudent(ctx, tx, accountID); err != nil {
			return err
		}
		if err := checkCourse(ctx, tx, courseID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `INSERT INTO enrollments (account_id, course_id)
			VALUES ($1, $2)
			ON CONFLICT (account_id, course_id) DO NOTHING`, accountID, courseID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrAlreadyEnrolled
		}
		return nil
	})
}

// Unenroll removes the link between a student and a course.
func (r *Repository) Unenroll(ctx context.Context, accountID, courseID int64) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkStudent(ctx, tx, accountID); err != nil {
			return err
		}
		if err := checkCourse(ctx, tx, courseID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE account_id = $1 AND course_id = $2`, accountID, courseID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotEnrolled
		}
		return nil
	})
}

// ListEnrolled returns the courses the student is enrolled in.
func (r *Repository) ListEnrolled(ctx context.Context, accountID int64) ([]courses.Course, error) {
	return r.listCourses(ctx, `SELECT c.id, c.course_name, COALESCE(c.course_code, ''), c.description, c.semester, c.credits, c.created_at, c.updated_at
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.account_id = $1
		ORDER BY c.course_name`, accountID)
}

// ListAvailable returns the courses the student is not yet enrolled in.
func (r *Repository) ListAvailable(ctx context.Context, accountID int64) ([]courses.Course, error) {
	return r.listCourses(ctx, `SELECT c.id, c.course_name, COALESCE(c.course_code, ''), c.description, c.semester, c.credits, c.created_at, c.updated_at
		FROM courses c
		WHERE NOT EXISTS (
			SELECT 1 FROM enrollments e WHERE e.course_id = c.id AND e.account_id = $1
		)
		ORDER BY c.course_name`, accountID)
}

func (r *Repository) listCourses(ctx context.Context, query string, accountID int64) ([]courses.Course, error) {
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []courses.Course{}
	for rows.Next() {
		var c courses.Course
		if err := rows.Scan(&c.ID, &c.CourseName, &c.CourseCode, &c.Description, &c.Semester, &c.Credits, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func checkStudent(ctx context.Context, tx pgx.Tx, accountID int64) error {
	var exists, isStudent bool
	err := tx.QueryRow(ctx, `SELECT TRUE, EXISTS (
			SELECT 1 FROM account_roles ar
			JOIN roles r ON r.id = ar.role_id
			WHERE ar.account_id = a.id AND r.name = $2
		)
		FROM accounts a WHERE a.id = $1`, accountID, shared.RoleStudent).Scan(&exists, &isStudent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}
	if !isStudent {
		return shared.ErrNotStudent
	}
	return nil
}

func checkCourse(ctx context.Context, tx pgx.Tx, courseID int64) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT TRUE FROM courses WHERE id = $1`, courseID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}

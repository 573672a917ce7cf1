package courses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/coursehub/coursehub/internal/platform/db"
	"github.com/coursehub/coursehub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for courses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const courseColumns = `c.id, c.course_name, c.course_code, c.description, c.semester, c.credits, c.created_at, c.updated_at`

// Create inserts a course. A taken course code maps to shared.ErrDuplicateKey.
func (r *Repository) Create(ctx context.Context, course *Course) (*Course, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO courses (course_name, course_code, description, semester, credits)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id`,
		course.CourseName, course.CourseCode, course.Description, course.Semester, course.Credits,
	).Scan(&id)
	if err != nil {
		if platformdb.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicateKey
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// FindByID fetches a course with its enrolled students populated.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Course, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id)
	course, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	students, err := r.enrollees(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Students = students
	return course, nil
}

// List returns a page of courses ordered by name, plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Course, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses c
		ORDER BY c.course_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *course)
	}
	return out, total, rows.Err()
}

// Update overwrites the mutable course fields.
func (r *Repository) Update(ctx context.Context, id int64, course *Course) (*Course, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE courses SET
			course_name = $2,
			course_code = NULLIF($3, ''),
			description = $4,
			semester = $5,
			credits = $6,
			updated_at = NOW()
		WHERE id = $1`,
		id, course.CourseName, course.CourseCode, course.Description, course.Semester, course.Credits)
	if err != nil {
		if platformdb.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicateKey
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the course and its enrollment rows in one transaction, so no
// student is left referencing a course that no longer exists.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) enrollees(ctx context.Context, courseID int64) ([]Enrollee, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, COALESCE(a.student_number, ''), a.first_name, a.last_name, a.email
		FROM enrollments e
		JOIN accounts a ON a.id = e.account_id
		WHERE e.course_id = $1
		ORDER BY a.last_name, a.first_name`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Enrollee{}
	for rows.Next() {
		var s Enrollee
		if err := rows.Scan(&s.AccountID, &s.StudentNumber, &s.FirstName, &s.LastName, &s.Email); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*Course, error) {
	var c Course
	var code *string
	if err := row.Scan(&c.ID, &c.CourseName, &code, &c.Description, &c.Semester, &c.Credits, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if code != nil {
		c.CourseCode = *code
	}
	return &c, nil
}

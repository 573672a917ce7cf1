package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// EnrollmentIntegrityJob sweeps the enrollments table for rows that violate
// the membership rules: enrollments pointing at missing accounts or courses,
// and enrollments held by accounts without the student role. The schema's
// foreign keys make dangling rows unlikely; the sweep exists to catch role
// downgrades and out-of-band writes.
type EnrollmentIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewEnrollmentIntegrityJob initialises the integrity scan handler.
func NewEnrollmentIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *EnrollmentIntegrityJob {
	return &EnrollmentIntegrityJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type integrityFindings struct {
	danglingAccounts int
	danglingCourses  int
	nonStudentRows   int
}

// Handle executes the integrity scan.
func (j *EnrollmentIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("enrollment integrity: handler not configured")
	}
	var payload EnrollmentIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	logger := j.logger().With(slog.Bool("repair", payload.Repair))
	logger.Info("starting enrollment integrity scan")

	var findings integrityFindings
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := j.count(gctx, `SELECT COUNT(*) FROM enrollments e
			WHERE NOT EXISTS (SELECT 1 FROM accounts a WHERE a.id = e.account_id)`)
		findings.danglingAccounts = n
		return err
	})
	g.Go(func() error {
		n, err := j.count(gctx, `SELECT COUNT(*) FROM enrollments e
			WHERE NOT EXISTS (SELECT 1 FROM courses c WHERE c.id = e.course_id)`)
		findings.danglingCourses = n
		return err
	})
	g.Go(func() error {
		n, err := j.count(gctx, `SELECT COUNT(*) FROM enrollments e
			WHERE NOT EXISTS (
				SELECT 1 FROM account_roles ar
				JOIN roles r ON r.id = ar.role_id
				WHERE ar.account_id = e.account_id AND r.name = 'student'
			)`)
		findings.nonStudentRows = n
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	total := findings.danglingAccounts + findings.danglingCourses + findings.nonStudentRows
	if total > 0 {
		logger.Warn("enrollment integrity violations found",
			slog.Int("dangling_accounts", findings.danglingAccounts),
			slog.Int("dangling_courses", findings.danglingCourses),
			slog.Int("non_student_rows", findings.nonStudentRows),
		)
		if payload.Repair {
			removed, err := j.repair(ctx)
			if err != nil {
				logger.Error("repair failed", slog.Any("error", err))
				return err
			}
			logger.Info("removed offending enrollments", slog.Int64("rows", removed))
		}
	}

	logger.Info("completed enrollment integrity scan",
		slog.Int("violations", total),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *EnrollmentIntegrityJob) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := j.Pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (j *EnrollmentIntegrityJob) repair(ctx context.Context) (int64, error) {
	tag, err := j.Pool.Exec(ctx, `DELETE FROM enrollments e
		WHERE NOT EXISTS (SELECT 1 FROM accounts a WHERE a.id = e.account_id)
		   OR NOT EXISTS (SELECT 1 FROM courses c WHERE c.id = e.course_id)
		   OR NOT EXISTS (
				SELECT 1 FROM account_roles ar
				JOIN roles r ON r.id = ar.role_id
				WHERE ar.account_id = e.account_id AND r.name = 'student'
		   )`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (j *EnrollmentIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *EnrollmentIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

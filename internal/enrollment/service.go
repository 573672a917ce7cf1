package enrollment

import (
	"context"
	"fmt"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/shared"
)

// RepositoryPort defines data access methods for enrollments.
type RepositoryPort interface {
	Enroll(ctx context.Context, accountID, courseID int64) error
	Unenroll(ctx context.Context, accountID, courseID int64) error
	ListEnrolled(ctx context.Context, accountID int64) ([]courses.Course, error)
	ListAvailable(ctx context.Context, accountID int64) ([]courses.Course, error)
}

// Service handles enrollment business logic.
type Service struct {
	repo  RepositoryPort
	audit shared.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.Recorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Enroll links a student to a course and records the action.
func (s *Service) Enroll(ctx context.Context, actorID, accountID, courseID int64) error {
	if err := s.repo.Enroll(ctx, accountID, courseID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "enrollment.enroll", Entity: "enrollment",
		EntityID: enrollmentID(accountID, courseID),
	})
	return nil
}

// Unenroll removes a student from a course and records the action.
func (s *Service) Unenroll(ctx context.Context, actorID, accountID, courseID int64) error {
	if err := s.repo.Unenroll(ctx, accountID, courseID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "enrollment.unenroll", Entity: "enrollment",
		EntityID: enrollmentID(accountID, courseID),
	})
	return nil
}

// ListEnrolled returns the student's current courses.
func (s *Service) ListEnrolled(ctx context.Context, accountID int64) ([]courses.Course, error) {
	return s.repo.ListEnrolled(ctx, accountID)
}

// ListAvailable returns the courses still open to the student.
func (s *Service) ListAvailable(ctx context.Context, accountID int64) ([]courses.Course, error) {
	return s.repo.ListAvailable(ctx, accountID)
}

func enrollmentID(accountID, courseID int64) string {
	return fmt.Sprintf("%d:%d", accountID, courseID)
}

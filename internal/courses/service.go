package courses

import (
	"context"
	"strconv"
	"strings"

	"github.com/coursehub/coursehub/internal/shared"
)

// RepositoryPort defines data access methods for courses.
type RepositoryPort interface {
	Create(ctx context.Context, course *Course) (*Course, error)
	FindByID(ctx context.Context, id int64) (*Course, error)
	List(ctx context.Context, limit, offset int) ([]Course, int, error)
	Update(ctx context.Context, id int64, course *Course) (*Course, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles course business logic.
type Service struct {
	repo  RepositoryPort
	audit shared.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.Recorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Input carries a course create or update request.
type Input struct {
	CourseName  string `json:"course_name" validate:"required"`
	CourseCode  string `json:"course_code"`
	Description string `json:"description"`
	Semester    string `json:"semester"`
	Credits     int    `json:"credits" validate:"gte=0,lte=60"`
}

func (in Input) course() *Course {
	return &Course{
		CourseName:  strings.TrimSpace(in.CourseName),
		CourseCode:  strings.ToUpper(strings.TrimSpace(in.CourseCode)),
		Description: strings.TrimSpace(in.Description),
		Semester:    strings.TrimSpace(in.Semester),
		Credits:     in.Credits,
	}
}

// Create adds a course to the catalogue.
func (s *Service) Create(ctx context.Context, actorID int64, in Input) (*Course, error) {
	created, err := s.repo.Create(ctx, in.course())
	if err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "course.create", Entity: "course",
		EntityID: strconv.FormatInt(created.ID, 10),
		Meta:     map[string]any{"course_name": created.CourseName},
	})
	return created, nil
}

// Get returns a course with its enrolled students.
func (s *Service) Get(ctx context.Context, id int64) (*Course, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of the course catalogue.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Course, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Update replaces the mutable fields of a course.
func (s *Service) Update(ctx context.Context, actorID, id int64, in Input) (*Course, error) {
	updated, err := s.repo.Update(ctx, id, in.course())
	if err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "course.update", Entity: "course",
		EntityID: strconv.FormatInt(id, 10),
	})
	return updated, nil
}

// Delete removes a course and all of its enrollments.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "course.delete", Entity: "course",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

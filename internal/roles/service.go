package roles

import (
	"context"

	"github.com/coursehub/coursehub/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	SeedOnce(ctx context.Context, seed []Role) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// DefaultRoles is the fixed role set installed by Seed.
func DefaultRoles() []Role {
	return []Role{
		{
			Name: shared.RoleAdmin,
			Permissions: []Permission{
				{Resource: shared.ResourceUsers, Actions: []string{shared.ActionCreate, shared.ActionRead, shared.ActionUpdate, shared.ActionDelete}},
				{Resource: shared.ResourceCourses, Actions: []string{shared.ActionCreate, shared.ActionRead, shared.ActionUpdate, shared.ActionDelete}},
			},
		},
		{
			Name: shared.RoleStudent,
			Permissions: []Permission{
				{Resource: shared.ResourceCourses, Actions: []string{shared.ActionRead, shared.ActionEnroll}},
			},
		},
	}
}

// Seed installs the default role set. Re-seeding when any role exists fails
// with shared.ErrAlreadySeeded.
func (s *Service) Seed(ctx context.Context) error {
	return s.repo.SeedOnce(ctx, DefaultRoles())
}

// FindByName looks up a role, shared.ErrNotFound when absent.
func (s *Service) FindByName(ctx context.Context, name string) (*Role, error) {
	return s.repo.FindByName(ctx, name)
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

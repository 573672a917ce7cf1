package accounts

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/coursehub/coursehub/internal/roles"
	"github.com/coursehub/coursehub/internal/shared"
)

// bcrypt cost used for all stored password hashes.
const hashCost = 12

// studentNumberRetries bounds the regenerate-on-collision loop for generated
// student numbers.
const studentNumberRetries = 5

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByStudentNumber(ctx context.Context, n string) (*Account, error)
	ListByRole(ctx context.Context, roleName string) ([]Account, error)
	Create(ctx context.Context, account *Account, roleIDs []int64) (*Account, error)
	Update(ctx context.Context, id int64, patch Patch) (*Account, error)
	Delete(ctx context.Context, id int64) error
}

// RolePort resolves role names to role records.
type RolePort interface {
	FindByName(ctx context.Context, name string) (*roles.Role, error)
}

// Service handles account business logic.
type Service struct {
	repo  RepositoryPort
	roles RolePort
	audit shared.Recorder
	clock func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, rolePort RolePort, audit shared.Recorder) *Service {
	return &Service{
		repo:  repo,
		roles: rolePort,
		audit: audit,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Program     string `json:"program"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" validate:"required"`
}

// Register creates an account with the requested role. Student registrations
// get a generated student number; a collision on the sparse unique constraint
// is retried with a fresh number.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	role, err := s.roles.FindByName(ctx, strings.TrimSpace(in.Role))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidRole
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), hashCost)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		FirstName:    normName(in.FirstName),
		LastName:     normName(in.LastName),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Program:      strings.TrimSpace(in.Program),
	}

	if role.Name != shared.RoleStudent {
		created, err := s.repo.Create(ctx, account, []int64{role.ID})
		if err != nil {
			return nil, err
		}
		s.recordAudit(ctx, created.ID, "account.register", created)
		return created, nil
	}

	var created *Account
	for attempt := 0; attempt < studentNumberRetries; attempt++ {
		account.StudentNumber = generateStudentNumber(s.clock())
		created, err = s.repo.Create(ctx, account, []int64{role.ID})
		if err == nil {
			break
		}
		// A fresh random suffix may clear a student-number collision; an email
		// collision surfaces as ErrDuplicateAccount and is not retried.
		if errors.Is(err, shared.ErrDuplicateKey) {
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, created.ID, "account.register", created)
	return created, nil
}

// CreateStudentInput carries an administrative student creation request with
// an explicit student number.
type CreateStudentInput struct {
	StudentNumber string `json:"student_number" validate:"required"`
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Program       string `json:"program"`
}

// CreateStudent creates a student account with an admin-provided number.
func (s *Service) CreateStudent(ctx context.Context, in CreateStudentInput) (*Account, error) {
	role, err := s.roles.FindByName(ctx, shared.RoleStudent)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidRole
		}
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), hashCost)
	if err != nil {
		return nil, err
	}
	account := &Account{
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		StudentNumber: strings.TrimSpace(in.StudentNumber),
		PasswordHash:  string(hash),
		FirstName:     normName(in.FirstName),
		LastName:      normName(in.LastName),
		Program:       strings.TrimSpace(in.Program),
	}
	created, err := s.repo.Create(ctx, account, []int64{role.ID})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, created.ID, "account.create_student", created)
	return created, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// ListStudents returns all accounts holding the student role.
func (s *Service) ListStudents(ctx context.Context) ([]Account, error) {
	return s.repo.ListByRole(ctx, shared.RoleStudent)
}

// ListAdmins returns all accounts holding the admin role.
func (s *Service) ListAdmins(ctx context.Context) ([]Account, error) {
	return s.repo.ListByRole(ctx, shared.RoleAdmin)
}

// UpdateStudent patches a student account, rejecting non-student targets.
func (s *Service) UpdateStudent(ctx context.Context, id int64, patch Patch) (*Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.HasRole(shared.RoleStudent) {
		return nil, shared.ErrNotStudent
	}
	if patch.FirstName != nil {
		n := normName(*patch.FirstName)
		patch.FirstName = &n
	}
	if patch.LastName != nil {
		n := normName(*patch.LastName)
		patch.LastName = &n
	}
	return s.repo.Update(ctx, id, patch)
}

// DeleteStudent removes a student account and its enrollments.
func (s *Service) DeleteStudent(ctx context.Context, actorID, id int64) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !account.HasRole(shared.RoleStudent) {
		return shared.ErrNotStudent
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "account.delete", Entity: "account",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

// DeleteAdmin removes an admin account.
func (s *Service) DeleteAdmin(ctx context.Context, actorID, id int64) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !account.HasRole(shared.RoleAdmin) {
		return shared.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "account.delete", Entity: "account",
		EntityID: strconv.FormatInt(id, 10),
	})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, id int64, action string, account *Account) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: id, Action: action, Entity: "account",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"email": account.Email},
	})
}

// normName trims and NFC-normalizes a person name so equal-looking names
// compare equal regardless of the client's Unicode composition.
func normName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/token"
)

// RepositoryPort defines the credential lookups the service needs.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByStudentNumber(ctx context.Context, number string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
}

// TokenPort signs session tokens.
type TokenPort interface {
	Issue(accountID int64, roles []string, ttl time.Duration) (string, error)
	Verify(tokenString string) (*token.Claims, error)
}

// Service authenticates callers and mints session tokens.
type Service struct {
	repo     RepositoryPort
	tokens   TokenPort
	limiter  AttemptLimiter
	audit    shared.Recorder
	tokenTTL time.Duration
	clock    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, tokens TokenPort, limiter AttemptLimiter, audit shared.Recorder, tokenTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		limiter:  limiter,
		audit:    audit,
		tokenTTL: tokenTTL,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// AuthenticateAdmin logs an administrator in by email and password. An unknown
// email and a wrong password both collapse to ErrInvalidCredentials; an
// account without the admin role is rejected with ErrForbidden before its
// password is ever checked.
func (s *Service) AuthenticateAdmin(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.authenticate(ctx, "email:"+email, shared.RoleAdmin, func(ctx context.Context) (*Account, error) {
		return s.repo.FindByEmail(ctx, email)
	}, password)
}

// AuthenticateStudent logs a student in by student number and password.
func (s *Service) AuthenticateStudent(ctx context.Context, studentNumber, password string) (*Session, error) {
	studentNumber = strings.TrimSpace(studentNumber)
	return s.authenticate(ctx, "number:"+studentNumber, shared.RoleStudent, func(ctx context.Context) (*Account, error) {
		return s.repo.FindByStudentNumber(ctx, studentNumber)
	}, password)
}

func (s *Service) authenticate(ctx context.Context, limiterKey, requiredRole string, lookup func(context.Context) (*Account, error), password string) (*Session, error) {
	if err := s.limiter.Check(ctx, limiterKey); err != nil {
		return nil, err
	}

	account, err := lookup(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = s.limiter.RecordFailure(ctx, limiterKey)
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	// Role is checked before the password; role failures do not count
	// against the attempt limiter.
	if !account.HasRole(requiredRole) {
		return nil, shared.ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		_ = s.limiter.RecordFailure(ctx, limiterKey)
		return nil, shared.ErrInvalidCredentials
	}

	_ = s.limiter.Reset(ctx, limiterKey)

	// The token carries only the role this login was made under; Resolve
	// reloads the full role set from the store on every request.
	signed, err := s.tokens.Issue(account.ID, []string{requiredRole}, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: account.ID, Action: "auth.login", Entity: "account",
		EntityID: strconv.FormatInt(account.ID, 10),
		Meta:     map[string]any{"role": requiredRole},
	})

	return &Session{
		Token: signed,
		User: SessionUser{
			ID:    account.ID,
			Email: account.Email,
			Name:  strings.TrimSpace(account.FirstName + " " + account.LastName),
			Roles: account.Roles,
		},
		Expires: s.clock().Add(s.tokenTTL).Unix(),
	}, nil
}

// Resolve verifies a raw token and re-loads the account it names. Tokens for
// deleted accounts fail here, which is what keeps a stale token from outliving
// its account.
func (s *Service) Resolve(ctx context.Context, rawToken string) (*shared.Identity, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}
	account, err := s.repo.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}
	return &shared.Identity{
		AccountID: account.ID,
		Email:     account.Email,
		Roles:     account.Roles,
	}, nil
}

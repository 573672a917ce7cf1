package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/token"
	_ "github.com/coursehub/coursehub/testing"
)

type memoryRepo struct {
	accounts []*Account
	numbers  map[string]int64
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) FindByStudentNumber(ctx context.Context, number string) (*Account, error) {
	id, ok := m.numbers[number]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return m.FindByID(ctx, id)
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (*Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

type countingLimiter struct {
	failures int
	resets   int
	locked   bool
}

func (l *countingLimiter) Check(context.Context, string) error {
	if l.locked {
		return shared.ErrTooManyAttempts
	}
	return nil
}

func (l *countingLimiter) RecordFailure(context.Context, string) error {
	l.failures++
	return nil
}

func (l *countingLimiter) Reset(context.Context, string) error {
	l.resets++
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newFixture(t *testing.T) (*Service, *memoryRepo, *countingLimiter) {
	t.Helper()
	repo := &memoryRepo{
		accounts: []*Account{
			{ID: 1, Email: "admin@example.com", PasswordHash: mustHash(t, "adminpass1"), FirstName: "Grace", LastName: "Hopper", Roles: []string{shared.RoleAdmin}},
			{ID: 2, Email: "ada@example.com", PasswordHash: mustHash(t, "studentpass1"), FirstName: "Ada", LastName: "Lovelace", Roles: []string{shared.RoleStudent}},
		},
		numbers: map[string]int64{"S2612345": 2},
	}
	limiter := &countingLimiter{}
	tokens := token.NewService([]byte("test-secret"), "coursehub-test")
	return NewService(repo, tokens, limiter, shared.NopRecorder{}, time.Hour), repo, limiter
}

func TestAuthenticateAdmin(t *testing.T) {
	svc, _, limiter := newFixture(t)

	session, err := svc.AuthenticateAdmin(context.Background(), "Admin@Example.com", "adminpass1")
	require.NoError(t, err)
	require.Equal(t, int64(1), session.User.ID)
	require.Equal(t, "Grace Hopper", session.User.Name)
	require.Contains(t, session.User.Roles, shared.RoleAdmin)
	require.NotEmpty(t, session.Token)
	require.Equal(t, 1, limiter.resets)
}

func TestAuthenticateAdminWrongPassword(t *testing.T) {
	svc, _, limiter := newFixture(t)

	_, err := svc.AuthenticateAdmin(context.Background(), "admin@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, 1, limiter.failures)
}

func TestAuthenticateAdminUnknownEmail(t *testing.T) {
	svc, _, limiter := newFixture(t)

	_, err := svc.AuthenticateAdmin(context.Background(), "ghost@example.com", "whatever1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Equal(t, 1, limiter.failures)
}

func TestAuthenticateAdminStudentAccount(t *testing.T) {
	svc, _, _ := newFixture(t)

	// Correct credentials but no admin role.
	_, err := svc.AuthenticateAdmin(context.Background(), "ada@example.com", "studentpass1")
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAuthenticateAdminStudentAccountWrongPassword(t *testing.T) {
	svc, _, limiter := newFixture(t)

	// The role is rejected before the password is even looked at, so a
	// wrong password on a student account still reads as Forbidden and
	// does not count against the attempt limiter.
	_, err := svc.AuthenticateAdmin(context.Background(), "ada@example.com", "definitely-wrong")
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Zero(t, limiter.failures)
}

func TestAuthenticateTokenCarriesLoginRole(t *testing.T) {
	svc, repo, _ := newFixture(t)
	repo.accounts = append(repo.accounts, &Account{
		ID: 3, Email: "dean@example.com", PasswordHash: mustHash(t, "deanpass1"),
		FirstName: "Edsger", LastName: "Dijkstra",
		Roles: []string{shared.RoleAdmin, shared.RoleStudent},
	})

	session, err := svc.AuthenticateAdmin(context.Background(), "dean@example.com", "deanpass1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{shared.RoleAdmin, shared.RoleStudent}, session.User.Roles)

	// The signed token names only the role this login was made under.
	claims, err := token.NewService([]byte("test-secret"), "coursehub-test").Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, []string{shared.RoleAdmin}, claims.Roles)
}

func TestAuthenticateStudent(t *testing.T) {
	svc, _, _ := newFixture(t)

	session, err := svc.AuthenticateStudent(context.Background(), "S2612345", "studentpass1")
	require.NoError(t, err)
	require.Equal(t, int64(2), session.User.ID)
	require.Contains(t, session.User.Roles, shared.RoleStudent)
}

func TestAuthenticateLockedOut(t *testing.T) {
	svc, _, limiter := newFixture(t)
	limiter.locked = true

	_, err := svc.AuthenticateAdmin(context.Background(), "admin@example.com", "adminpass1")
	require.ErrorIs(t, err, shared.ErrTooManyAttempts)
	require.Zero(t, limiter.failures)
}

func TestResolveRoundTrip(t *testing.T) {
	svc, _, _ := newFixture(t)

	session, err := svc.AuthenticateAdmin(context.Background(), "admin@example.com", "adminpass1")
	require.NoError(t, err)

	identity, err := svc.Resolve(context.Background(), session.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), identity.AccountID)
	require.Equal(t, "admin@example.com", identity.Email)
	require.True(t, identity.HasRole(shared.RoleAdmin))
}

func TestResolveDeletedAccount(t *testing.T) {
	svc, repo, _ := newFixture(t)

	session, err := svc.AuthenticateAdmin(context.Background(), "admin@example.com", "adminpass1")
	require.NoError(t, err)

	repo.accounts = repo.accounts[1:]
	_, err = svc.Resolve(context.Background(), session.Token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestResolveGarbageToken(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Resolve(context.Background(), "not.a.token")
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

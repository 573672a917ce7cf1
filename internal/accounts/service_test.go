package accounts

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/roles"
	"github.com/coursehub/coursehub/internal/shared"
	_ "github.com/coursehub/coursehub/testing"
)

type memoryRepo struct {
	nextID   int64
	accounts map[int64]*Account
	byEmail  map[string]int64
	byNumber map[string]int64
	// failNumbers forces ErrDuplicateKey for these student numbers, simulating
	// a collision on the sparse unique constraint.
	failNumbers map[string]bool
	createCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:      1,
		accounts:    map[int64]*Account{},
		byEmail:     map[string]int64{},
		byNumber:    map[string]int64{},
		failNumbers: map[string]bool{},
	}
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*Account, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *memoryRepo) FindByStudentNumber(_ context.Context, n string) (*Account, error) {
	id, ok := m.byNumber[n]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *memoryRepo) ListByRole(_ context.Context, roleName string) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.HasRole(roleName) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, account *Account, roleIDs []int64) (*Account, error) {
	m.createCalls++
	if _, ok := m.byEmail[account.Email]; ok {
		return nil, shared.ErrDuplicateAccount
	}
	if account.StudentNumber != "" {
		if m.failNumbers[account.StudentNumber] {
			return nil, shared.ErrDuplicateKey
		}
		if _, ok := m.byNumber[account.StudentNumber]; ok {
			return nil, shared.ErrDuplicateKey
		}
	}
	cp := *account
	cp.ID = m.nextID
	m.nextID++
	for _, rid := range roleIDs {
		cp.Roles = append(cp.Roles, roles.Role{ID: rid, Name: roleNameOf(rid)})
	}
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.accounts[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	if cp.StudentNumber != "" {
		m.byNumber[cp.StudentNumber] = cp.ID
	}
	out := cp
	return &out, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, patch Patch) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Program != nil {
		a.Program = *patch.Program
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.byEmail, a.Email)
	delete(m.byNumber, a.StudentNumber)
	delete(m.accounts, id)
	return nil
}

const (
	adminRoleID   = int64(1)
	studentRoleID = int64(2)
)

func roleNameOf(id int64) string {
	if id == adminRoleID {
		return shared.RoleAdmin
	}
	return shared.RoleStudent
}

type memoryRoles struct{}

func (memoryRoles) FindByName(_ context.Context, name string) (*roles.Role, error) {
	switch name {
	case shared.RoleAdmin:
		return &roles.Role{ID: adminRoleID, Name: shared.RoleAdmin}, nil
	case shared.RoleStudent:
		return &roles.Role{ID: studentRoleID, Name: shared.RoleStudent}, nil
	default:
		return nil, shared.ErrNotFound
	}
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, memoryRoles{}, shared.NopRecorder{})
}

func TestRegisterStudentGeneratesNumber(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	created, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.COM",
		Password:  "correct horse",
		Role:      shared.RoleStudent,
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", created.Email)
	require.Regexp(t, regexp.MustCompile("^"+StudentNumberPattern+"$"), created.StudentNumber)
	require.True(t, created.HasRole(shared.RoleStudent))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse")))
}

func TestRegisterAdminHasNoStudentNumber(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	created, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
		Password:  "compilers1",
		Role:      shared.RoleAdmin,
	})
	require.NoError(t, err)
	require.Empty(t, created.StudentNumber)
	require.True(t, created.HasRole(shared.RoleAdmin))
}

func TestRegisterUnknownRole(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Eve",
		LastName:  "Nobody",
		Email:     "eve@example.com",
		Password:  "password1",
		Role:      "superuser",
	})
	require.ErrorIs(t, err, shared.ErrInvalidRole)
}

func TestRegisterDuplicateEmailNotRetried(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Password: "correct horse", Role: shared.RoleStudent,
	})
	require.NoError(t, err)
	calls := repo.createCalls

	_, err = svc.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "Again",
		Email: "ada@example.com", Password: "correct horse", Role: shared.RoleStudent,
	})
	require.ErrorIs(t, err, shared.ErrDuplicateAccount)
	require.Equal(t, calls+1, repo.createCalls)
}

func TestRegisterRetriesStudentNumberCollision(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	// Pin the clock so the year prefix is stable, and reject the first two
	// generated numbers to force retries.
	svc.clock = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	rejected := 0
	svc.repo = &collidingRepo{memoryRepo: repo, failFirst: 2, rejected: &rejected}

	created, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Alan", LastName: "Turing",
		Email: "alan@example.com", Password: "enigma123", Role: shared.RoleStudent,
	})
	require.NoError(t, err)
	require.Equal(t, 2, rejected)
	require.NotEmpty(t, created.StudentNumber)
}

type collidingRepo struct {
	*memoryRepo
	failFirst int
	rejected  *int
}

func (c *collidingRepo) Create(ctx context.Context, account *Account, roleIDs []int64) (*Account, error) {
	if *c.rejected < c.failFirst {
		*c.rejected++
		return nil, shared.ErrDuplicateKey
	}
	return c.memoryRepo.Create(ctx, account, roleIDs)
}

func TestUpdateStudentRejectsAdminTarget(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	admin, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Grace", LastName: "Hopper",
		Email: "grace@example.com", Password: "compilers1", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.UpdateStudent(context.Background(), admin.ID, Patch{FirstName: &name})
	require.ErrorIs(t, err, shared.ErrNotStudent)
}

func TestUpdateStudentNormalizesNames(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	student, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Zoe", LastName: "Quinn",
		Email: "zoe@example.com", Password: "password1", Role: shared.RoleStudent,
	})
	require.NoError(t, err)

	// Decomposed e + combining acute should be stored composed.
	decomposed := "Zoé"
	updated, err := svc.UpdateStudent(context.Background(), student.ID, Patch{FirstName: &decomposed})
	require.NoError(t, err)
	require.Equal(t, "Zoé", updated.FirstName)
}

func TestDeleteStudentRejectsAdminTarget(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	admin, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Grace", LastName: "Hopper",
		Email: "grace@example.com", Password: "compilers1", Role: shared.RoleAdmin,
	})
	require.NoError(t, err)

	err = svc.DeleteStudent(context.Background(), admin.ID, admin.ID)
	require.ErrorIs(t, err, shared.ErrNotStudent)
}

func TestDeleteStudentRemovesAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	student, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Alan", LastName: "Turing",
		Email: "alan@example.com", Password: "enigma123", Role: shared.RoleStudent,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStudent(context.Background(), 99, student.ID))
	_, err = svc.Get(context.Background(), student.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

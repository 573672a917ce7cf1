package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/token"
	_ "github.com/coursehub/coursehub/testing"
)

func newMiddlewareFixture(t *testing.T) (*Middleware, *Service) {
	t.Helper()
	repo := &memoryRepo{
		accounts: []*Account{
			{ID: 1, Email: "admin@example.com", PasswordHash: mustHash(t, "adminpass1"), FirstName: "Grace", LastName: "Hopper", Roles: []string{shared.RoleAdmin}},
			{ID: 2, Email: "ada@example.com", PasswordHash: mustHash(t, "studentpass1"), FirstName: "Ada", LastName: "Lovelace", Roles: []string{shared.RoleStudent}},
		},
		numbers: map[string]int64{"S2612345": 2},
	}
	tokens := token.NewService([]byte("test-secret"), "coursehub-test")
	svc := NewService(repo, tokens, NopLimiter{}, shared.NopRecorder{}, time.Hour)
	return NewMiddleware(svc), svc
}

func okHandler(captured **shared.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateWithCookie(t *testing.T) {
	mw, svc := newMiddlewareFixture(t)
	session, err := svc.AuthenticateAdmin(context.Background(), "admin@example.com", "adminpass1")
	require.NoError(t, err)

	var identity *shared.Identity
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: session.Token})
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(&identity)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	require.Equal(t, int64(1), identity.AccountID)
}

func TestAuthenticateWithBearer(t *testing.T) {
	mw, svc := newMiddlewareFixture(t)
	session, err := svc.AuthenticateStudent(context.Background(), "S2612345", "studentpass1")
	require.NoError(t, err)

	var identity *shared.Identity
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(&identity)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(2), identity.AccountID)
	require.True(t, identity.HasRole(shared.RoleStudent))
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw, _ := newMiddlewareFixture(t)

	var identity *shared.Identity
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(&identity)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, identity)
	require.Contains(t, rec.Body.String(), "unauthenticated")
}

func TestAuthenticateBadToken(t *testing.T) {
	mw, _ := newMiddlewareFixture(t)

	var identity *shared.Identity
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(&identity)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Nil(t, identity)
}

func TestRequireRolesAllows(t *testing.T) {
	mw, _ := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	identity := &shared.Identity{AccountID: 1, Roles: []string{shared.RoleAdmin}}
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw.RequireRoles(shared.RoleAdmin)(handler).ServeHTTP(rec, req)

	require.True(t, called)
}

func TestRequireRolesForbids(t *testing.T) {
	mw, _ := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	identity := &shared.Identity{AccountID: 2, Roles: []string{shared.RoleStudent}}
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), identity))
	rec := httptest.NewRecorder()

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw.RequireRoles(shared.RoleAdmin)(handler).ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	mw, _ := newMiddlewareFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	mw.RequireRoles(shared.RoleAdmin)(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/token"
	_ "github.com/coursehub/coursehub/testing"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := token.NewService([]byte("secret"), "coursehub")

	signed, err := svc.Issue(42, []string{"student"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.AccountID)
	require.Equal(t, []string{"student"}, claims.Roles)
	require.Equal(t, "42", claims.Subject)
	require.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
}

func TestVerifyExpired(t *testing.T) {
	now := time.Now().UTC()
	svc := token.NewService([]byte("secret"), "coursehub").WithClock(func() time.Time { return now })

	signed, err := svc.Issue(7, []string{"admin"}, time.Minute)
	require.NoError(t, err)

	// Move the clock past expiry.
	svc.WithClock(func() time.Time { return now.Add(2 * time.Minute) })
	_, err = svc.Verify(signed)
	require.ErrorIs(t, err, token.ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc := token.NewService([]byte("secret"), "coursehub")
	signed, err := svc.Issue(7, []string{"admin"}, time.Minute)
	require.NoError(t, err)

	other := token.NewService([]byte("another"), "coursehub")
	_, err = other.Verify(signed)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	svc := token.NewService([]byte("secret"), "coursehub")
	_, err := svc.Verify("not-a-token")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

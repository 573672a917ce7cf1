package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates a token whose signature or shape does not check out.
	ErrInvalidToken = errors.New("token: invalid token")
	// ErrExpiredToken indicates a token past its expiry.
	ErrExpiredToken = errors.New("token: token expired")
)

// Claims is the payload bound into every session token. Roles carry the
// normalized role names resolved at issuance.
type Claims struct {
	AccountID int64    `json:"account_id"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens. The secret is injected once at
// construction and never rotated for the lifetime of the process.
type Service struct {
	secret []byte
	issuer string
	clock  func() time.Time
}

// NewService constructs a token Service.
func NewService(secret []byte, issuer string) *Service {
	return &Service{
		secret: secret,
		issuer: issuer,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Issue produces a signed HS256 token binding the account identity and its
// resolved role names for the given lifetime.
func (s *Service) Issue(accountID int64, roles []string, ttl time.Duration) (string, error) {
	now := s.clock()
	claims := Claims{
		AccountID: accountID,
		Roles:     append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

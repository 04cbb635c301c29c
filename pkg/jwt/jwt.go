package jwt

import (
	"errors"
	"time"

	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrEmptySecret          = errors.New("jwt secret is required")
)

// TokenService signs and verifies HS256 bearer tokens with a process-wide
// secret. Rotating the secret invalidates every outstanding token.
type TokenService struct {
	secret         []byte
	expiry         time.Duration
	rememberExpiry time.Duration
	issuer         string
	audience       string
	now            func() time.Time
}

type Option func(*TokenService)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(secret string, expiry, rememberExpiry time.Duration, issuer, audience string, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &TokenService{
		secret:         []byte(secret),
		expiry:         expiry,
		rememberExpiry: rememberExpiry,
		issuer:         issuer,
		audience:       audience,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue signs a token for the user. rememberMe selects the long-lived expiry.
func (s *TokenService) Issue(userID uuid.UUID, email string, rememberMe bool) (*domain.IssuedToken, error) {
	ttl := s.expiry
	if rememberMe {
		ttl = s.rememberExpiry
	}
	return s.issue(userID, email, ttl)
}

func (s *TokenService) issue(userID uuid.UUID, email string, ttl time.Duration) (*domain.IssuedToken, error) {
	now := s.now()
	exp := now.Add(ttl)

	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &domain.IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify checks signature, issuer, audience and expiry. It never touches
// storage, so the result depends only on the token and the clock.
func (s *TokenService) Verify(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

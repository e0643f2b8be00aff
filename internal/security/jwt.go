package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"interactive-maps-server/config"
	"interactive-maps-server/internal/model"
)

const issuer = "interactive-maps-server"

// Claims : identity carried by both access and refresh tokens
type Claims struct {
	SubjectID string `json:"id"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type Option func(*JWTService)

// WithClock replaces time.Now, used by tests to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

func NewJWTService(cfg *config.JWTConfig, opts ...Option) *JWTService {
	service := &JWTService{
		accessSecret:  []byte(cfg.SecretKey),
		refreshSecret: []byte(cfg.RefreshSecretKey),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Generate : signs an access and a refresh token for the same identity
func (s *JWTService) Generate(subjectID, name string) (*model.TokensPair, error) {
	now := s.now()

	accessToken, err := s.sign(subjectID, name, now, s.accessTTL, s.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := s.sign(subjectID, name, now, s.refreshTTL, s.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Verify : validates an access token. Returns model.ErrTokenExpired for a
// well-formed token past its expiry and model.ErrInvalidToken otherwise.
func (s *JWTService) Verify(token string) (*Claims, error) {
	return s.parse(token, s.accessSecret)
}

// Refresh : validates a refresh token and issues a brand-new pair.
func (s *JWTService) Refresh(refreshToken string) (*model.TokensPair, error) {
	claims, err := s.parse(refreshToken, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return s.Generate(claims.SubjectID, claims.Name)
}

func (s *JWTService) sign(subjectID, name string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		SubjectID: subjectID,
		Name:      name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *JWTService) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	// exp is re-checked independently of the parser options
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, model.ErrTokenExpired
	}

	return claims, nil
}

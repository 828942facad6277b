package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/handbook/internal/config"
)

// Common auth errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotAdmin     = errors.New("token does not grant admin access")
)

// TokenType distinguishes what a token may be used for.
type TokenType string

const (
	TokenTypeAdmin TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// AuthService signs and validates admin tokens with the shared secret.
type AuthService struct {
	cfg *config.Config
	now func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg, now: time.Now}
}

// GenerateAdminToken creates a JWT that authorizes the admin sync endpoints.
// subject identifies the operator or automation it was issued to.
func (s *AuthService) GenerateAdminToken(subject string) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAdminToken is ValidateToken restricted to admin tokens.
func (s *AuthService) ValidateAdminToken(tokenStr string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAdmin {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

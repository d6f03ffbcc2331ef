package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is stamped into every token and required on validation
const TokenIssuer = "formfill"

// ErrInvalidToken wraps every token rejection
var ErrInvalidToken = errors.New("invalid token")

// JWTService issues and checks HS256 bearer tokens for the autofill API
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(TokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// Claims identify the caller; UserKey selects the profile and the browser
// profile directory.
type Claims struct {
	UserKey string `json:"user_key"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTService) GenerateToken(userKey, email string) (string, error) {
	userKey = strings.TrimSpace(userKey)
	if userKey == "" {
		return "", fmt.Errorf("user key is required")
	}

	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserKey: userKey,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   userKey,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}).SignedString(s.secretKey)
}

// ValidateToken checks signature, issuer and expiry. A token without a user
// key falls back to its subject.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.UserKey == "" {
		claims.UserKey = claims.Subject
	}
	if claims.UserKey == "" {
		return nil, fmt.Errorf("%w: no user key", ErrInvalidToken)
	}
	return claims, nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/triumph-atlantic/matrix-api/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingOrg   = errors.New("token missing org claim")
)

// Claims are the JWT claims issued to dashboard users
type Claims struct {
	Organization string `json:"org"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 tokens and issues them for tooling and tests
type JWTValidator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTValidator creates a validator from the auth configuration
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	ttl := cfg.TokenTTLDuration()
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTValidator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for a user of the given organization
func (v *JWTValidator) Issue(userID, name, email, org string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}
	now := v.now()
	claims := Claims{
		Organization: org,
		Name:         name,
		Email:        email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ValidateToken validates a token and returns the user it was issued to
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	org := strings.TrimSpace(claims.Organization)
	if org == "" {
		return nil, ErrMissingOrg
	}

	return &UserContext{
		UserID:       claims.Subject,
		DisplayName:  claims.Name,
		Email:        claims.Email,
		Organization: org,
		AuthType:     "jwt",
	}, nil
}

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"go.uber.org/zap"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{JWTSecret: "test-secret", Issuer: "matrix-api", TokenTTL: 60, APIKey: "key-123"}
}

// =============================================================================
// Tokens
// =============================================================================

func TestJWTValidator_IssueAndValidate(t *testing.T) {
	v := auth.NewJWTValidator(testAuthConfig())

	token, err := v.Issue("u1", "Pat", "pat@guercio.com", "Guercio Energy Group")
	require.NoError(t, err)

	user, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
	assert.Equal(t, "Pat", user.DisplayName)
	assert.Equal(t, "Guercio Energy Group", user.Organization)
	assert.Equal(t, "jwt", user.AuthType)
}

func TestJWTValidator_Rejects(t *testing.T) {
	cfg := testAuthConfig()
	v := auth.NewJWTValidator(cfg)

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTValidator(&config.AuthConfig{JWTSecret: "other", Issuer: cfg.Issuer})
		token, err := other.Issue("u1", "", "", "Org")
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := auth.NewJWTValidator(&config.AuthConfig{JWTSecret: cfg.JWTSecret, Issuer: "someone-else"})
		token, err := other.Issue("u1", "", "", "Org")
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("missing org", func(t *testing.T) {
		token, err := v.Issue("u1", "", "", "  ")
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrMissingOrg)
	})

	t.Run("expired", func(t *testing.T) {
		claims := auth.Claims{
			Organization: "Org",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{Organization: "Org"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no secret configured", func(t *testing.T) {
		empty := auth.NewJWTValidator(&config.AuthConfig{})
		_, err := empty.Issue("u1", "", "", "Org")
		assert.Error(t, err)
		_, err = empty.ValidateToken("anything")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

// =============================================================================
// Middleware
// =============================================================================

func captureUser(t *testing.T) (http.Handler, *auth.UserContext) {
	captured := &auth.UserContext{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		*captured = *user
		w.WriteHeader(http.StatusOK)
	}), captured
}

func TestMiddleware_Authenticate(t *testing.T) {
	cfg := testAuthConfig()
	m := auth.NewMiddleware(cfg, zap.NewNop())
	token, err := auth.NewJWTValidator(cfg).Issue("u1", "Pat", "", "Myers Industrial Services")
	require.NoError(t, err)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantOrg    string
	}{
		{"bearer token", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK, "Myers Industrial Services"},
		{"api key with organization", map[string]string{"X-API-Key": "key-123", "X-Organization": "Guercio Energy Group"}, http.StatusOK, "Guercio Energy Group"},
		{"api key without organization", map[string]string{"X-API-Key": "key-123"}, http.StatusUnauthorized, ""},
		{"wrong api key", map[string]string{"X-API-Key": "nope", "X-Organization": "Org"}, http.StatusUnauthorized, ""},
		{"missing credentials", nil, http.StatusUnauthorized, ""},
		{"malformed header", map[string]string{"Authorization": "Token abc"}, http.StatusUnauthorized, ""},
		{"invalid token", map[string]string{"Authorization": "Bearer abc.def.ghi"}, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, captured := captureUser(t)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()

			m.Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrg, captured.Organization)
		})
	}
}

func TestEffectiveOrganization(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", auth.EffectiveOrganization(ctx))

	ctx = auth.WithUserContext(ctx, &auth.UserContext{Organization: "Triumph Atlantic"})
	assert.Equal(t, "Triumph Atlantic", auth.EffectiveOrganization(ctx))

	ctx = auth.WithOrgFilter(ctx, &auth.OrgFilter{Organization: "Guercio Energy Group", ViewingAs: true})
	assert.Equal(t, "Guercio Energy Group", auth.EffectiveOrganization(ctx))
}

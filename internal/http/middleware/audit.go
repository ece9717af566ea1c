package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// maxAuditBody caps how much of a request body is kept in the change log
const maxAuditBody = 64 << 10

// ChangeRecorder writes change log entries
type ChangeRecorder interface {
	Record(ctx context.Context, entry service.LogEntry) error
}

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths are path prefixes that are never recorded
	SkipPaths []string
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{"/health", "/swagger"},
	}
}

// AuditMiddleware records successful modifications in the change log
type AuditMiddleware struct {
	recorder ChangeRecorder
	config   *AuditConfig
	logger   *zap.Logger
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(recorder ChangeRecorder, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditMiddleware{
		recorder: recorder,
		config:   config,
		logger:   logger,
	}
}

// Audit records POST, PUT, PATCH and DELETE requests that succeed
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := methodToAction(r.Method)
		if action == "" || m.skipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode < 200 || rw.statusCode >= 300 || m.recorder == nil {
			return
		}
		m.record(r, action, body)
	})
}

func (m *AuditMiddleware) skipped(path string) bool {
	for _, prefix := range m.config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *AuditMiddleware) record(r *http.Request, action domain.ChangeAction, body []byte) {
	entityType, entityID := entityFromRoute(r)

	entry := service.LogEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Summary:    r.Method + " " + r.URL.Path,
	}
	var values map[string]interface{}
	if len(body) > 0 && json.Unmarshal(body, &values) == nil {
		for _, key := range []string{"password", "secret", "token", "apiKey"} {
			delete(values, key)
		}
		entry.Details = values
	}

	// The change already happened; a disconnecting client must not drop its record
	ctx := context.WithoutCancel(r.Context())
	if err := m.recorder.Record(ctx, entry); err != nil {
		m.logger.Warn("Failed to record change",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err),
		)
	}
}

func methodToAction(method string) domain.ChangeAction {
	switch method {
	case http.MethodPost:
		return domain.ChangeActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.ChangeActionUpdate
	case http.MethodDelete:
		return domain.ChangeActionDelete
	default:
		return ""
	}
}

// entityTypes maps route segments to change log entity types
var entityTypes = map[string]string{
	"companies":     "company",
	"locations":     "location",
	"contacts":      "contact",
	"projects":      "project",
	"opportunities": "opportunity",
	"gifts":         "gift",
	"referrals":     "referral",
	"imports":       "import",
}

// entityFromRoute derives the entity type and ID from the chi route. The
// last recognized segment wins, so /companies/{slug}/contractors is a company.
func entityFromRoute(r *http.Request) (string, string) {
	path := r.URL.Path
	var id string
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			path = pattern
		}
		for _, key := range []string{"slug", "email", "id"} {
			if v := rc.URLParam(key); v != "" {
				id = v
				break
			}
		}
	}

	entityType := "unknown"
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if t, ok := entityTypes[part]; ok {
			entityType = t
		}
	}
	return entityType, id
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

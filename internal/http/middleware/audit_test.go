package middleware_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/http/middleware"
	"github.com/triumph-atlantic/matrix-api/internal/service"
)

type recordedChange struct {
	entry service.LogEntry
	ctx   context.Context
}

type fakeRecorder struct {
	changes []recordedChange
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, entry service.LogEntry) error {
	f.changes = append(f.changes, recordedChange{entry: entry, ctx: ctx})
	return f.err
}

func auditedRouter(recorder middleware.ChangeRecorder, status int) http.Handler {
	am := middleware.NewAuditMiddleware(recorder, nil, nil)
	r := chi.NewRouter()
	r.Use(am.Audit)
	h := func(w http.ResponseWriter, r *http.Request) {
		// Handlers still see the full body
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
	r.Post("/api/v1/companies", h)
	r.Put("/api/v1/companies/{slug}/contractors", h)
	r.Get("/api/v1/companies", h)
	r.Post("/api/v1/contacts/{email}/touch", h)
	r.Post("/health", h)
	return r
}

func TestAuditMiddleware_RecordsSuccessfulModifications(t *testing.T) {
	recorder := &fakeRecorder{}
	router := auditedRouter(recorder, http.StatusCreated)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", strings.NewReader(`{"name":"Acme","token":"x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, `{"name":"Acme","token":"x"}`, w.Body.String())
	require.Len(t, recorder.changes, 1)
	entry := recorder.changes[0].entry
	assert.Equal(t, domain.ChangeActionCreate, entry.Action)
	assert.Equal(t, "company", entry.EntityType)
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, entry.Details)
	assert.Equal(t, "POST /api/v1/companies", entry.Summary)
}

func TestAuditMiddleware_EntityFromRoute(t *testing.T) {
	recorder := &fakeRecorder{}
	router := auditedRouter(recorder, http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/companies/acme/contractors", strings.NewReader(`{}`)))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/contacts/pat@acme.com/touch", nil))

	require.Len(t, recorder.changes, 2)
	assert.Equal(t, domain.ChangeActionUpdate, recorder.changes[0].entry.Action)
	assert.Equal(t, "company", recorder.changes[0].entry.EntityType)
	assert.Equal(t, "acme", recorder.changes[0].entry.EntityID)
	assert.Equal(t, "contact", recorder.changes[1].entry.EntityType)
	assert.Equal(t, "pat@acme.com", recorder.changes[1].entry.EntityID)
}

func TestAuditMiddleware_Skips(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"reads", http.MethodGet, "/api/v1/companies", http.StatusOK},
		{"health", http.MethodPost, "/health", http.StatusOK},
		{"failed requests", http.MethodPost, "/api/v1/companies", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			router := auditedRouter(recorder, tt.status)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`)))

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, recorder.changes)
		})
	}
}

func TestAuditMiddleware_SurvivesClientCancel(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("db down")}
	router := auditedRouter(recorder, http.StatusCreated)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", strings.NewReader(`{}`)).WithContext(ctx)
	cancel()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, "a failed record does not fail the request")
	require.Len(t, recorder.changes, 1)
	assert.NoError(t, recorder.changes[0].ctx.Err())
}

func TestAuditMiddleware_NilRecorder(t *testing.T) {
	router := auditedRouter(nil, http.StatusCreated)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/companies", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
}

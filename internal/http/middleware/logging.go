package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"go.uber.org/zap"
)

// HeaderRequestID carries the request ID in both directions
const HeaderRequestID = "X-Request-ID"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging logs every request. An incoming X-Request-ID is kept, otherwise one is generated.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set(HeaderRequestID, requestID)
			}
			w.Header().Set(HeaderRequestID, requestID)

			tag := &requestTag{}
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), requestTagKey, tag)))

			duration := time.Since(start)
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status_code", rw.statusCode),
				zap.Int64("response_size", rw.written),
				zap.Duration("duration", duration),
			}
			if tag.org != "" {
				fields = append(fields, zap.String("org", tag.org), zap.String("user_id", tag.userID))
			}

			logger.Info(
				fmt.Sprintf("%s %-30s -> %3d (%s)", r.Method, r.URL.Path, rw.statusCode, duration.Truncate(time.Microsecond)),
				fields...,
			)
		})
	}
}

// requestTag is filled in by TagOrganization once the caller is known
type requestTag struct {
	org    string
	userID string
}

type logContextKey struct{}

var requestTagKey = logContextKey{}

// TagOrganization records the authenticated caller for the access log.
// Mount it after authentication.
func TagOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag, _ := r.Context().Value(requestTagKey).(*requestTag)
		if userCtx, ok := auth.FromContext(r.Context()); ok && tag != nil {
			tag.org = userCtx.Organization
			tag.userID = userCtx.UserID
		}
		next.ServeHTTP(w, r)
	})
}

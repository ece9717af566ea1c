package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

// respondError writes the same problem document the handlers use
func respondError(w http.ResponseWriter, status int, detail string) {
	errType := domain.ErrorTypeInternal
	switch status {
	case http.StatusUnauthorized:
		errType = domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		errType = domain.ErrorTypeForbidden
	case http.StatusTooManyRequests:
		errType = domain.ErrorTypeRateLimited
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

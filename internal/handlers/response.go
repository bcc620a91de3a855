package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/services"
	"github.com/ruralpay/ledger/internal/validators"
)

const maxBodyBytes = 1_048_576 // 1 MB

// decodeJSON reads exactly one JSON object into dst and checks its shape.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *services.ValidationHelper, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := v.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a service failure to its HTTP outcome.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.IsValidationError(err):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, err)
	case errors.IsInsufficientFunds(err):
		services.SendErrorResponse(w, "Insufficient funds", http.StatusBadRequest, nil)
	case errors.IsUnauthenticated(err):
		w.Header().Set("WWW-Authenticate", "Bearer")
		services.SendErrorResponse(w, "Could not validate credentials", http.StatusUnauthorized, nil)
	case errors.IsForbidden(err):
		services.SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)
	case errors.IsNotFound(err):
		services.SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case errors.IsAlreadyExists(err):
		services.SendErrorResponse(w, "Username already exists", http.StatusConflict, nil)
	default:
		logger.Error("request failed", zap.Error(err))
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}

// principal returns the authenticated caller; AuthMiddleware guarantees one
// on every protected route.
func principal(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return nil, false
	}
	return p, true
}

// accountParam parses the {id} path parameter.
func accountParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := validators.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tradearena/backend/internal/auth"
	"github.com/tradearena/backend/internal/hashpool"
	"github.com/tradearena/backend/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	store  store.Store
	auth   *auth.Service
	pool   *hashpool.Pool
	logger *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(s store.Store, authSvc *auth.Service, pool *hashpool.Pool, logger *slog.Logger) *Handler {
	return &Handler{
		store:  s,
		auth:   authSvc,
		pool:   pool,
		logger: logger,
	}
}

type validator interface {
	Validate() error
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v. Returns false (after writing
// a 400) if the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// decodeAndValidate decodes the request body and runs its Validate method.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleStoreError checks for common store errors and writes the appropriate
// HTTP response. Returns true if an error was handled (caller should return).
func (h *Handler) handleStoreError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, entity+" not found")
		return true
	}
	h.logger.Error("store error", "error", err, "entity", entity)
	respondError(w, http.StatusInternalServerError, "internal error")
	return true
}

// handlePoolError maps hash pool failures to HTTP statuses: a timeout is a
// gateway timeout, a deliberate drain is service-unavailable, everything
// else (crash, no workers) is a plain 500. Returns true if an error was
// handled.
func (h *Handler) handlePoolError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, hashpool.ErrTaskTimeout):
		respondError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, hashpool.ErrPoolShuttingDown):
		respondError(w, http.StatusServiceUnavailable, "service is shutting down")
	default:
		h.logger.Error("hash pool error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}

// internal/api/respond.go
//
// The JSON response envelope and the HTTP error taxonomy.
//
// Every response is `{success, data?, message?, pagination?}`.  Errors
// fall into six buckets—validation (400), unauthorized (401), conflict
// (409), not_found (404), rate_limited (429), internal (500)—and the
// internal bucket never leaks store error text to the client: the real
// error is logged server-side and the body carries a generic message.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rigazamy/apikit/internal/store"
)

// envelope is the uniform response shape.
type envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Pagination *store.Pagination `json:"pagination,omitempty"`
}

// writeJSON serialises env with the given status code.
func writeJSON(w http.ResponseWriter, code int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		zap.S().Errorw("response encode failed", "err", err)
	}
}

// respondData answers 200 with a data payload.
func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// respondPage answers 200 with a data page plus pagination echo.
func respondPage(w http.ResponseWriter, data any, p store.Pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

// respondMessage answers 200 with a human-readable confirmation only.
func respondMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

// respondError answers a client error with a safe message.
func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Success: false, Message: msg})
}

// respondStoreErr maps repository sentinels onto the taxonomy; anything
// unrecognised is an internal error.
func respondStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrDuplicate):
		respondError(w, http.StatusConflict, "Duplicate value")
	case errors.Is(err, store.ErrCategoryInUse):
		respondError(w, http.StatusConflict, "Cannot delete category with existing resources")
	case errors.Is(err, store.ErrSelfDelete):
		respondError(w, http.StatusBadRequest, "Cannot delete your own account")
	case errors.Is(err, store.ErrLastSuperAdmin):
		respondError(w, http.StatusBadRequest, "Cannot delete the last super admin")
	case errors.Is(err, store.ErrSetupDone):
		respondError(w, http.StatusForbidden, "Initial setup has already been completed")
	default:
		respondInternal(w, err)
	}
}

// respondInternal logs the real error and answers 500 with a generic
// body.  Raw database text must never reach the client.
func respondInternal(w http.ResponseWriter, err error) {
	zap.S().Errorw("internal error", "err", err)
	respondError(w, http.StatusInternalServerError, "An error occurred")
}

// decodeBody parses a JSON request body into dst and validates it.
// Returns false after writing the 400 response itself.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Missing or malformed fields")
		return false
	}
	return true
}

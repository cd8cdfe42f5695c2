// internal/api/categories.go
//
// /categories endpoints.
//
// Listing is public (the frontend navigation needs it); create, update,
// and delete are admin-gated at the router.  Labels must stay unique,
// and deletion is refused while any resource still references the
// category.

package api

import (
	"net/http"

	"github.com/rigazamy/apikit/internal/store"
)

type categoryPayload struct {
	Label string `json:"label" validate:"required"`
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, p, err := store.ListCategories(r.Context(), h.DB, pageParam(r))
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondPage(w, rows, p)
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryPayload
	if !decodeBody(w, r, &in) {
		return
	}

	cat, err := store.CreateCategory(r.Context(), h.DB, in.Label)
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, cat)
}

// UpdateCategory handles PUT /categories?id=.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Category ID is required")
		return
	}

	var in categoryPayload
	if !decodeBody(w, r, &in) {
		return
	}

	cat, err := store.UpdateCategory(r.Context(), h.DB, id, in.Label)
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, cat)
}

// DeleteCategory handles DELETE /categories?id=.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Category ID is required")
		return
	}

	if err := store.DeleteCategory(r.Context(), h.DB, id); err != nil {
		respondStoreErr(w, err)
		return
	}
	respondMessage(w, "Category deleted successfully")
}

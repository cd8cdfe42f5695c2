// internal/api/resources.go
//
// /resources endpoints.
//
// Listing is public with an optional ?category= filter; mutations are
// admin-gated at the router.  Deleting a resource also removes its
// uploaded logo as a best-effort cleanup—a failed file delete is logged
// and the request still succeeds.

package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/rigazamy/apikit/internal/store"
)

type createResourcePayload struct {
	Name        string  `json:"name"        validate:"required"`
	CategoryID  string  `json:"category_id" validate:"required"`
	Logo        *string `json:"logo"`
	URL         string  `json:"url"         validate:"required,url"`
	Description string  `json:"description" validate:"required"`
	IsFeatured  bool    `json:"is_featured"`
}

type updateResourcePayload struct {
	Name        *string `json:"name"`
	CategoryID  *string `json:"category_id"`
	Logo        *string `json:"logo"`
	URL         *string `json:"url"         validate:"omitempty,url"`
	Description *string `json:"description"`
	IsFeatured  *bool   `json:"is_featured"`
}

// ListResources handles GET /resources?category=&page=.
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "all" {
		category = ""
	}

	rows, p, err := store.ListResources(r.Context(), h.DB, category, pageParam(r))
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondPage(w, rows, p)
}

// CreateResource handles POST /resources.
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var in createResourcePayload
	if !decodeBody(w, r, &in) {
		return
	}

	res, err := store.CreateResource(r.Context(), h.DB, store.CreateResourceInput{
		Name:        in.Name,
		CategoryID:  in.CategoryID,
		Logo:        in.Logo,
		URL:         in.URL,
		Description: in.Description,
		IsFeatured:  in.IsFeatured,
	})
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, res)
}

// UpdateResource handles PUT /resources?id=.
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Resource ID is required")
		return
	}

	var in updateResourcePayload
	if !decodeBody(w, r, &in) {
		return
	}

	res, err := store.UpdateResource(r.Context(), h.DB, id, store.UpdateResourceInput{
		Name:        in.Name,
		CategoryID:  in.CategoryID,
		Logo:        in.Logo,
		URL:         in.URL,
		Description: in.Description,
		IsFeatured:  in.IsFeatured,
	})
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, res)
}

// DeleteResource handles DELETE /resources?id=.
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Resource ID is required")
		return
	}

	logo, err := store.DeleteResource(r.Context(), h.DB, id)
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	if logo != "" {
		if err := h.Uploads.Remove(logo); err != nil {
			zap.S().Warnw("logo cleanup failed", "resource", id, "logo", logo, "err", err)
		}
	}

	respondMessage(w, "Resource deleted successfully")
}

// internal/api/submissions.go
//
// /submissions endpoints.
//
// Anonymous visitors file submissions (rate-limited to three per IP per
// trailing hour); admins list, moderate, and delete them.  Setting
// status to "approved" creates the catalog resource in the same store
// transaction, with the category taken from the admin's request body.

package api

import (
	"net/http"

	"github.com/rigazamy/apikit/internal/metrics"
	"github.com/rigazamy/apikit/internal/requestinfo"
	"github.com/rigazamy/apikit/internal/store"
)

type createSubmissionPayload struct {
	Name        string `json:"name"        validate:"required"`
	Email       string `json:"email"       validate:"required,email"`
	ToolName    string `json:"tool_name"   validate:"required"`
	Description string `json:"description" validate:"required"`
	APILink     string `json:"api_link"    validate:"required,url"`
}

type updateSubmissionPayload struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"admin_notes"`
	CategoryID *string `json:"category_id"`
}

// ListSubmissions handles GET /submissions?status=&page= (admin).
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !store.ValidSubmissionStatus(status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	rows, p, err := store.ListSubmissions(r.Context(), h.DB, status, pageParam(r))
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondPage(w, rows, p)
}

// CreateSubmission handles POST /submissions (anonymous).
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var in createSubmissionPayload
	if !decodeBody(w, r, &in) {
		return
	}

	var ip, country string
	if info := requestinfo.FromContext(r.Context()); info != nil {
		ip, country = info.IP, info.Country
	}

	if ip != "" {
		n, err := store.CountRecentSubmissions(r.Context(), h.DB, ip)
		if err != nil {
			respondInternal(w, err)
			return
		}
		if n >= store.SubmissionHourlyLimit {
			metrics.RateLimitedTotal.Inc()
			respondError(w, http.StatusTooManyRequests,
				"Too many submissions from this address; please try again later")
			return
		}
	}

	sub, err := store.CreateSubmission(r.Context(), h.DB, store.CreateSubmissionInput{
		Name:        in.Name,
		Email:       in.Email,
		ToolName:    in.ToolName,
		Description: in.Description,
		APILink:     in.APILink,
		IPAddress:   ip,
		Country:     country,
	})
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, sub)
}

// UpdateSubmission handles PUT /submissions?id= (admin).
func (h *Handler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	var in updateSubmissionPayload
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Status == nil && in.AdminNotes == nil {
		respondError(w, http.StatusBadRequest, "No valid fields to update")
		return
	}
	if in.Status != nil && !store.ValidSubmissionStatus(*in.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	sub, err := store.UpdateSubmission(r.Context(), h.DB, id, store.UpdateSubmissionInput{
		Status:     in.Status,
		AdminNotes: in.AdminNotes,
		CategoryID: in.CategoryID,
	})
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, sub)
}

// DeleteSubmission handles DELETE /submissions?id= (admin).
func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	if err := store.DeleteSubmission(r.Context(), h.DB, id); err != nil {
		respondStoreErr(w, err)
		return
	}
	respondMessage(w, "Submission deleted successfully")
}

// internal/api/messages.go
//
// /messages endpoints.
//
// The public contact form posts here (rate-limited to five per IP per
// trailing hour); admins list, triage, and delete.  Triage moves a
// message through unread, read, and replied.

package api

import (
	"net/http"

	"github.com/rigazamy/apikit/internal/metrics"
	"github.com/rigazamy/apikit/internal/requestinfo"
	"github.com/rigazamy/apikit/internal/store"
)

type createMessagePayload struct {
	Name    string `json:"name"    validate:"required"`
	Email   string `json:"email"   validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

type updateMessagePayload struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// ListMessages handles GET /messages?status=&page= (admin).
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !store.ValidMessageStatus(status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	rows, p, err := store.ListMessages(r.Context(), h.DB, status, pageParam(r))
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondPage(w, rows, p)
}

// CreateMessage handles POST /messages (anonymous).
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var in createMessagePayload
	if !decodeBody(w, r, &in) {
		return
	}

	var ip, country string
	if info := requestinfo.FromContext(r.Context()); info != nil {
		ip, country = info.IP, info.Country
	}

	if ip != "" {
		n, err := store.CountRecentMessages(r.Context(), h.DB, ip)
		if err != nil {
			respondInternal(w, err)
			return
		}
		if n >= store.MessageHourlyLimit {
			metrics.RateLimitedTotal.Inc()
			respondError(w, http.StatusTooManyRequests,
				"Too many messages from this address; please try again later")
			return
		}
	}

	msg, err := store.CreateMessage(r.Context(), h.DB, store.CreateMessageInput{
		Name:      in.Name,
		Email:     in.Email,
		Message:   in.Message,
		IPAddress: ip,
		Country:   country,
	})
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, msg)
}

// UpdateMessage handles PUT /messages?id= (admin).
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Message ID is required")
		return
	}

	var in updateMessagePayload
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Status == nil && in.AdminNotes == nil {
		respondError(w, http.StatusBadRequest, "No valid fields to update")
		return
	}
	if in.Status != nil && !store.ValidMessageStatus(*in.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	msg, err := store.UpdateMessage(r.Context(), h.DB, id, store.UpdateMessageInput{
		Status:     in.Status,
		AdminNotes: in.AdminNotes,
	})
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, msg)
}

// DeleteMessage handles DELETE /messages?id= (admin).
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "Message ID is required")
		return
	}

	if err := store.DeleteMessage(r.Context(), h.DB, id); err != nil {
		respondStoreErr(w, err)
		return
	}
	respondMessage(w, "Message deleted successfully")
}

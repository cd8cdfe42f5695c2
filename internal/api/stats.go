// internal/api/stats.go
//
// /stats endpoints: anonymous view tracking (POST) and admin analytics
// (GET).
//
// Tracking answers success even when nothing is recorded: crawler
// traffic (flagged by the request-info middleware) is acknowledged and
// dropped so bot sweeps cannot inflate the counters, and the response
// gives automation no signal that it was filtered.

package api

import (
	"net/http"

	"github.com/rigazamy/apikit/internal/metrics"
	"github.com/rigazamy/apikit/internal/requestinfo"
	"github.com/rigazamy/apikit/internal/store"
)

type trackViewPayload struct {
	Type string `json:"type" validate:"required"`
	ID   string `json:"id"   validate:"required"`
}

// TrackView handles POST /stats (anonymous).
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	var in trackViewPayload
	if !decodeBody(w, r, &in) {
		return
	}

	t := store.StatType(in.Type)
	if !store.ValidStatType(t) {
		respondError(w, http.StatusBadRequest, "Invalid type")
		return
	}

	if info := requestinfo.FromContext(r.Context()); info != nil && info.Bot {
		respondMessage(w, "View tracked")
		return
	}

	if err := store.TrackView(r.Context(), h.DB, t, in.ID); err != nil {
		respondStoreErr(w, err)
		return
	}
	metrics.ViewsTrackedTotal.Inc()
	respondMessage(w, "View tracked")
}

// Analytics handles GET /stats?view=&type=&period= (admin).
//
// view selects the report: "timeline" (default), "combined", or "top".
// type picks resource or category pages where it applies; period is
// 24hours, 7days, or 30days.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")

	t := store.StatType(q.Get("type"))
	if t == "" {
		t = store.StatResource
	}
	if !store.ValidStatType(t) {
		respondError(w, http.StatusBadRequest, "Invalid type")
		return
	}

	switch q.Get("view") {
	case "combined":
		rows, err := store.CombinedTimeline(r.Context(), h.DB, period)
		if err != nil {
			respondInternal(w, err)
			return
		}
		respondData(w, rows)
	case "top":
		rows, err := store.TopViewed(r.Context(), h.DB, t)
		if err != nil {
			respondInternal(w, err)
			return
		}
		respondData(w, rows)
	default:
		rows, err := store.Timeline(r.Context(), h.DB, t, period)
		if err != nil {
			respondInternal(w, err)
			return
		}
		respondData(w, rows)
	}
}

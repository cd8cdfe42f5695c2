// internal/api/dashboard.go
//
// GET /dashboard (admin).
//
// The aggregate behind it runs a dozen queries, so concurrent loads
// (several admin tabs refreshing at once) are collapsed with
// singleflight: one store round-trip serves every waiter.

package api

import (
	"context"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/rigazamy/apikit/internal/store"
)

var dashboardGroup singleflight.Group

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	// The flight outlives whichever request started it, so it must not
	// inherit that request's cancellation: a waiter would otherwise get
	// context.Canceled when the first caller disconnects mid-query.
	ctx := context.WithoutCancel(r.Context())
	v, err, _ := dashboardGroup.Do("dashboard", func() (any, error) {
		return store.Dashboard(ctx, h.DB)
	})
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, v.(*store.DashboardStats))
}

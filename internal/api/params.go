// internal/api/params.go
//
// Query-parameter helpers shared by the entity endpoints.

package api

import (
	"net/http"
	"strconv"
)

// pageParam reads ?page= and defaults to 1.  Values below 1 (including
// garbage) clamp to 1; the store clamps again, so this is belt only.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam reads the mandatory ?id= for PUT/DELETE.  Returns "" when
// absent; callers answer 400.
func idParam(r *http.Request) string {
	return r.URL.Query().Get("id")
}

// internal/api/upload.go
//
// POST /upload (admin): multipart logo upload.
//
// The saver does the real validation by sniffing bytes; the handler
// only plumbs the multipart part through and maps validation failures
// onto 400s.

package api

import (
	"errors"
	"net/http"

	"github.com/rigazamy/apikit/internal/metrics"
	"github.com/rigazamy/apikit/internal/upload"
)

// Upload handles POST /upload.  The file rides the "file" form field;
// an optional "type" field selects the destination ("logo" default).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// MaxBytes plus slack for the multipart framing and form fields.
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxBytes+(1<<20))

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	kind := r.FormValue("type")
	if kind == "" {
		kind = "logo"
	}

	res, err := h.Uploads.Save(file, kind)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrTooLarge):
			respondError(w, http.StatusBadRequest, "File exceeds the 5 MB limit")
		case errors.Is(err, upload.ErrBadType):
			respondError(w, http.StatusBadRequest, "Only JPEG, PNG, GIF, and WebP images are allowed")
		default:
			respondInternal(w, err)
		}
		return
	}

	metrics.UploadsTotal.Inc()
	respondData(w, res)
}

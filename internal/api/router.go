// internal/api/router.go
//
// Route table.
//
// Public surface: category and resource listings, the submission and
// contact forms, view tracking, and /auth login/status/setup.
// Everything mutating the catalog or reading admin data sits behind
// RequireAdmin.  Prometheus scrapes /metrics; uploads are served
// statically under /uploads/.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rigazamy/apikit/internal/middleware"
	"github.com/rigazamy/apikit/internal/requestinfo"
)

// Router assembles the full HTTP handler.  uploadsDir is served
// read-only under /uploads/.
func (h *Handler) Router(allowedOrigins []string, uploadsDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLog)
	r.Use(middleware.Security)
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(requestinfo.Enrich)

	// Public catalog and visitor forms.
	r.Get("/categories", h.ListCategories)
	r.Get("/resources", h.ListResources)
	r.Post("/submissions", h.CreateSubmission)
	r.Post("/messages", h.CreateMessage)
	r.Post("/stats", h.TrackView)

	// Auth surface.
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/status", h.Status)
	r.Post("/auth/initial-setup", h.InitialSetup)

	// Admin back office.
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)

		r.Post("/categories", h.CreateCategory)
		r.Put("/categories", h.UpdateCategory)
		r.Delete("/categories", h.DeleteCategory)

		r.Post("/resources", h.CreateResource)
		r.Put("/resources", h.UpdateResource)
		r.Delete("/resources", h.DeleteResource)

		r.Get("/submissions", h.ListSubmissions)
		r.Put("/submissions", h.UpdateSubmission)
		r.Delete("/submissions", h.DeleteSubmission)

		r.Get("/messages", h.ListMessages)
		r.Put("/messages", h.UpdateMessage)
		r.Delete("/messages", h.DeleteMessage)

		r.Get("/auth/users", h.ListUsers)
		r.Post("/auth/users", h.CreateUser)
		r.Put("/auth/users", h.UpdateUser)
		r.Delete("/auth/users", h.DeleteUser)

		r.Get("/stats", h.Analytics)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/upload", h.Upload)
	})

	// Operational endpoints.
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(uploadsDir))))

	return r
}

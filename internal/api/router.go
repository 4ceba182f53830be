package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/omnibar/internal/navservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *navservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/resolve", h.Resolve)
	r.Get("/go", h.Go)

	r.Post("/navigate", h.Navigate)
	r.Get("/state", h.State)

	r.Get("/visits", h.ListVisits)
	r.Get("/visits/{id}", h.GetVisit)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

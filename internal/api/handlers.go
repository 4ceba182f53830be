package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/omnibar/internal/apperr"
	"github.com/starford/omnibar/internal/navservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *navservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *navservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Classify address-bar text as a URL or a search query
//	@Tags			resolve
//	@Produce		json
//	@Param			q	query		string	false	"Raw input; empty resolves to the search endpoint"
//	@Success		200	{object}	models.Target
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Resolve(r.Context(), r.URL.Query().Get("q")))
}

// Go handles GET /api/go by redirecting to the resolved URL.
//
//	@Summary		Redirect to the resolved URL
//	@Tags			resolve
//	@Param			q	query	string	false	"Raw input"
//	@Success		302	"Redirect to the target"
//	@Security		BearerAuth
//	@Router			/go [get]
func (h *Handler) Go(w http.ResponseWriter, r *http.Request) {
	target := h.svc.Resolve(r.Context(), r.URL.Query().Get("q"))
	http.Redirect(w, r, target.URL, http.StatusFound)
}

// Navigate handles POST /api/navigate.
//
//	@Summary		Load input in the headless shell
//	@Tags			shell
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NavigateRequest	true	"Address-bar input"
//	@Success		200		{object}	NavigateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/navigate [post]
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	target, state := h.svc.Navigate(r.Context(), req.Input)
	writeJSON(w, http.StatusOK, NavigateResponse{Target: target, State: state})
}

// State handles GET /api/state.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State(r.Context()))
}

// ListVisits handles GET /api/visits.
//
//	@Summary		List or search recorded visits
//	@Tags			visits
//	@Produce		json
//	@Param			q		query		string	false	"Substring of URL or title"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	VisitListResponse
//	@Security		BearerAuth
//	@Router			/visits [get]
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	visits, err := h.svc.Visits(r.Context(), q.Get("q"), limit)
	if err != nil {
		slog.Error("list visits failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, VisitListResponse{Visits: visits})
}

// GetVisit handles GET /api/visits/{id}.
func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	visit, err := h.svc.Visit(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get visit failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

package api

import (
	"github.com/starford/omnibar/internal/browser"
	"github.com/starford/omnibar/internal/models"
)

// NavigateRequest is the request body for POST /navigate.
type NavigateRequest struct {
	Input string `json:"input"`
}

// NavigateResponse reports what was loaded and the shell state afterwards.
type NavigateResponse struct {
	Target models.Target `json:"target"`
	State  browser.State `json:"state"`
}

// VisitListResponse wraps journal listings.
type VisitListResponse struct {
	Visits []models.Visit `json:"visits"`
}

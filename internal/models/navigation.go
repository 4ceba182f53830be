// Package models defines the domain types shared across omnibar packages.
package models

import "time"

// Kind tells how an address-bar input was interpreted.
type Kind string

const (
	KindURL    Kind = "url"
	KindSearch Kind = "search"
)

// Target is a resolved, absolute URL ready to be loaded by a rendering surface.
// It is produced fresh per classification and carries no identity beyond its value.
type Target struct {
	Input string `json:"input"`
	URL   string `json:"url"`
	Kind  Kind   `json:"kind"`
}

// Page event types emitted by the browser shell.
const (
	EventPageStarted  = "page.started"
	EventPageFinished = "page.finished"
	EventPageError    = "page.error"
)

// PageEvent is a load notification reported by the rendering surface.
type PageEvent struct {
	Type  string    `json:"type"`
	URL   string    `json:"url"`
	Title string    `json:"title,omitempty"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// Visit is a finished page load recorded in the journal.
type Visit struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	VisitedAt time.Time `json:"visited_at"`
}

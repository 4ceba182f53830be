// Package navservice coordinates classification, the browser shell and the
// visit journal for the API and MCP front ends.
package navservice

import (
	"context"

	"github.com/starford/omnibar/internal/browser"
	"github.com/starford/omnibar/internal/classifier"
	"github.com/starford/omnibar/internal/journal"
	"github.com/starford/omnibar/internal/models"
)

// ResolutionObserver is told about every classification.
type ResolutionObserver interface {
	ObserveResolution(t models.Target)
}

// Service is safe for concurrent use.
type Service struct {
	resolver *classifier.Current
	shell    *browser.Shell
	journal  journal.Store
	observer ResolutionObserver
}

// NewService creates a navigation service. observer may be nil.
func NewService(resolver *classifier.Current, shell *browser.Shell, store journal.Store, observer ResolutionObserver) *Service {
	return &Service{resolver: resolver, shell: shell, journal: store, observer: observer}
}

// Resolve classifies input without loading it.
func (s *Service) Resolve(_ context.Context, input string) models.Target {
	t := s.resolver.Classify(input)
	s.observe(t)
	return t
}

// Navigate submits input to the shell and returns the target and the state after the load.
func (s *Service) Navigate(ctx context.Context, input string) (models.Target, browser.State) {
	t := s.shell.Submit(ctx, input)
	s.observe(t)
	return t, s.shell.State()
}

// State returns the current shell state.
func (s *Service) State(_ context.Context) browser.State {
	return s.shell.State()
}

// Visits lists recent visits, or searches them when query is non-empty.
func (s *Service) Visits(ctx context.Context, query string, limit int) ([]models.Visit, error) {
	if query != "" {
		return s.journal.Search(ctx, query, limit)
	}
	return s.journal.Recent(ctx, limit)
}

// Visit returns a single visit or apperr.ErrNotFound.
func (s *Service) Visit(ctx context.Context, id string) (*models.Visit, error) {
	return s.journal.Get(ctx, id)
}

func (s *Service) observe(t models.Target) {
	if s.observer != nil {
		s.observer.ObserveResolution(t)
	}
}

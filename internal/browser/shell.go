// Package browser implements the host side of a single-page browser: address-bar
// text, progress visibility and the page callbacks a rendering surface reports.
package browser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/omnibar/internal/models"
)

// DefaultHomePage is loaded by Home when no other page is configured.
const DefaultHomePage = "https://www.google.com"

// Surface is the rendering collaborator. Load navigates to url and reports
// progress through c. Implementations must call c.PageFinished exactly once per
// Load, including after a failure.
type Surface interface {
	Load(ctx context.Context, url string, c Client)
}

// Client receives load notifications from a Surface.
type Client interface {
	PageStarted(url string)
	PageFinished(url, title string)
	ReceivedError(url string, err error)
}

// Classifier turns address-bar text into a navigation target.
type Classifier interface {
	Classify(input string) models.Target
}

// Listener is notified of every page event, outside the shell lock.
type Listener func(models.PageEvent)

// State is a snapshot of what the host UI would show.
type State struct {
	AddressBar string `json:"address_bar"`
	Loading    bool   `json:"loading"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	LastError  string `json:"last_error,omitempty"`
}

// Option configures a Shell.
type Option func(*Shell)

// WithHomePage sets the page loaded by Home.
func WithHomePage(url string) Option {
	return func(s *Shell) {
		if url != "" {
			s.home = url
		}
	}
}

// WithLogger sets the shell logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Shell wires a Classifier to a Surface and keeps the host state in sync with
// the surface callbacks.
type Shell struct {
	surface    Surface
	classifier Classifier
	home       string
	logger     *slog.Logger
	now        func() time.Time

	// navMu serializes loads; the surface handles one page at a time.
	navMu sync.Mutex

	mu        sync.Mutex
	state     State
	listeners []Listener
}

// NewShell creates a Shell. The progress indicator starts hidden.
func NewShell(surface Surface, classifier Classifier, opts ...Option) *Shell {
	s := &Shell{
		surface:    surface,
		classifier: classifier,
		home:       DefaultHomePage,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "shell"))
	return s
}

// Subscribe registers l for page events.
func (s *Shell) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Home loads the configured home page.
func (s *Shell) Home(ctx context.Context) {
	s.load(ctx, s.home)
}

// Submit classifies text typed into the address bar and loads the result.
// It returns once the surface has finished the load.
func (s *Shell) Submit(ctx context.Context, text string) models.Target {
	target := s.classifier.Classify(text)
	s.logger.Debug("submit",
		slog.String("input", text),
		slog.String("url", target.URL),
		slog.String("kind", string(target.Kind)))

	s.load(ctx, target.URL)
	return target
}

func (s *Shell) load(ctx context.Context, url string) {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.mu.Lock()
	s.state.Loading = true
	s.state.LastError = ""
	s.mu.Unlock()

	s.surface.Load(ctx, url, s)
}

// State returns a snapshot of the host state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PageStarted shows the progress indicator.
func (s *Shell) PageStarted(url string) {
	s.mu.Lock()
	s.state.Loading = true
	s.state.URL = url
	s.mu.Unlock()

	s.emit(models.PageEvent{Type: models.EventPageStarted, URL: url})
}

// PageFinished syncs the address bar to the final URL and hides the progress indicator.
func (s *Shell) PageFinished(url, title string) {
	s.mu.Lock()
	s.state.Loading = false
	s.state.URL = url
	s.state.AddressBar = url
	s.state.Title = title
	lastErr := s.state.LastError
	s.mu.Unlock()

	// A finish after a failure carries the error so listeners can tell them apart.
	s.emit(models.PageEvent{Type: models.EventPageFinished, URL: url, Title: title, Error: lastErr})
}

// ReceivedError records a load failure. Progress is cleared by the following PageFinished.
func (s *Shell) ReceivedError(url string, err error) {
	msg := err.Error()
	s.mu.Lock()
	s.state.LastError = msg
	s.mu.Unlock()

	s.logger.Warn("load failed", slog.String("url", url), slog.String("error", msg))
	s.emit(models.PageEvent{Type: models.EventPageError, URL: url, Error: msg})
}

func (s *Shell) emit(ev models.PageEvent) {
	ev.At = s.now()
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

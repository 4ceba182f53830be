// Package surface provides a headless rendering surface that fetches pages over
// HTTP instead of drawing them.
package surface

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/starford/omnibar/internal/apperr"
	"github.com/starford/omnibar/internal/browser"
)

const maxBodyBytes = 2 << 20

// Observer is told the outcome of every load. Outcome is "ok" or "error".
type Observer func(outcome string, elapsed time.Duration)

// HTTP loads pages with net/http and reports them through browser.Client.
type HTTP struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
	observe   Observer
}

// NewHTTP creates an HTTP surface. A zero timeout means no client timeout.
func NewHTTP(timeout time.Duration, userAgent string, logger *slog.Logger) *HTTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTP{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger.With(slog.String("component", "surface")),
	}
}

// Observe sets a callback invoked after each load.
func (h *HTTP) Observe(fn Observer) {
	h.observe = fn
}

var _ browser.Surface = (*HTTP)(nil)

// Load fetches url, following redirects. PageFinished reports the final URL and
// the document title, if any.
func (h *HTTP) Load(ctx context.Context, url string, c browser.Client) {
	start := time.Now()
	c.PageStarted(url)

	final, title, err := h.fetch(ctx, url)
	if err != nil {
		c.ReceivedError(final, err)
		c.PageFinished(final, "")
		h.done("error", start)
		return
	}
	c.PageFinished(final, title)
	h.done("ok", start)
}

func (h *HTTP) done(outcome string, start time.Time) {
	elapsed := time.Since(start)
	h.logger.Debug("load finished", slog.String("outcome", outcome), slog.Duration("elapsed", elapsed))
	if h.observe != nil {
		h.observe(outcome, elapsed)
	}
}

func (h *HTTP) fetch(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return url, "", fmt.Errorf("surface: new request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return url, "", fmt.Errorf("surface: get: %w", err)
	}
	defer resp.Body.Close()

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return final, "", fmt.Errorf("surface: %s: %w", resp.Status, apperr.ErrBadStatus)
	}

	if !isHTML(resp.Header.Get("Content-Type")) {
		return final, "", nil
	}
	return final, extractTitle(io.LimitReader(resp.Body, maxBodyBytes)), nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// extractTitle returns the text of the first <title> element.
func extractTitle(r io.Reader) string {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return strings.Join(strings.Fields(string(z.Text())), " ")
			}
			return ""
		}
	}
}

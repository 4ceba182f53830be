package journal

import (
	"context"
	"log/slog"

	"github.com/starford/omnibar/internal/models"
)

// VisitCallback is called after a visit has been recorded.
type VisitCallback func(v models.Visit)

// Listener returns a page-event handler that records every successful finish.
// cb, if non-nil, is called after each insert.
func Listener(store Store, logger *slog.Logger, cb VisitCallback) func(models.PageEvent) {
	return func(ev models.PageEvent) {
		if ev.Type != models.EventPageFinished || ev.Error != "" {
			return
		}
		v, err := store.Record(context.Background(), models.Visit{
			URL:       ev.URL,
			Title:     ev.Title,
			VisitedAt: ev.At,
		})
		if err != nil {
			logger.Warn("journal: record failed", slog.String("url", ev.URL), slog.String("error", err.Error()))
			return
		}
		logger.Debug("journal: recorded", slog.String("id", v.ID), slog.String("url", v.URL))
		if cb != nil {
			cb(v)
		}
	}
}

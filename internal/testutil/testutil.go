// Package testutil provides shared test helpers for journals and surfaces.
package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/starford/omnibar/internal/browser"
	"github.com/starford/omnibar/internal/journal"
)

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "omnibar-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// StubSurface finishes every load immediately. URLs listed in Fail report an
// error before finishing.
type StubSurface struct {
	mu    sync.Mutex
	Fail  map[string]bool
	Loads []string
}

// Load implements browser.Surface.
func (s *StubSurface) Load(_ context.Context, url string, c browser.Client) {
	s.mu.Lock()
	s.Loads = append(s.Loads, url)
	fail := s.Fail[url]
	s.mu.Unlock()

	c.PageStarted(url)
	if fail {
		c.ReceivedError(url, errors.New("stub: load failed"))
		c.PageFinished(url, "")
		return
	}
	c.PageFinished(url, "Stub "+url)
}

// LoadCount returns how many loads were requested.
func (s *StubSurface) LoadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Loads)
}

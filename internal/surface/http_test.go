package surface

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/omnibar/internal/apperr"
)

type recorder struct {
	mu       sync.Mutex
	calls    []string
	finalURL string
	title    string
	err      error
}

func (r *recorder) PageStarted(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "started")
}

func (r *recorder) PageFinished(url, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "finished")
	r.finalURL = url
	r.title = title
}

func (r *recorder) ReceivedError(url string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "error")
	r.err = err
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "omnibar-test" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>\n  Hello &amp; welcome </title></head><body>hi</body></html>"))
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"nope"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadExtractsTitle(t *testing.T) {
	srv := testServer(t)
	s := NewHTTP(5*time.Second, "omnibar-test", nil)
	rec := &recorder{}

	s.Load(context.Background(), srv.URL+"/page", rec)

	if strings.Join(rec.calls, ",") != "started,finished" {
		t.Fatalf("calls = %v", rec.calls)
	}
	if rec.title != "Hello & welcome" {
		t.Errorf("title = %q", rec.title)
	}
	if rec.finalURL != srv.URL+"/page" {
		t.Errorf("final = %q", rec.finalURL)
	}
}

func TestLoadReportsRedirectTarget(t *testing.T) {
	srv := testServer(t)
	s := NewHTTP(5*time.Second, "omnibar-test", nil)
	rec := &recorder{}

	s.Load(context.Background(), srv.URL+"/old", rec)

	if rec.finalURL != srv.URL+"/page" {
		t.Errorf("final = %q, want redirect target", rec.finalURL)
	}
}

func TestLoadHTTPErrorStillFinishes(t *testing.T) {
	srv := testServer(t)
	s := NewHTTP(5*time.Second, "", nil)
	rec := &recorder{}

	var outcome string
	s.Observe(func(o string, _ time.Duration) { outcome = o })
	s.Load(context.Background(), srv.URL+"/missing", rec)

	if strings.Join(rec.calls, ",") != "started,error,finished" {
		t.Fatalf("calls = %v", rec.calls)
	}
	if !errors.Is(rec.err, apperr.ErrBadStatus) {
		t.Errorf("err = %v", rec.err)
	}
	if outcome != "error" {
		t.Errorf("outcome = %q", outcome)
	}
}

func TestLoadTransportError(t *testing.T) {
	s := NewHTTP(time.Second, "", nil)
	rec := &recorder{}

	s.Load(context.Background(), "http://127.0.0.1:1/", rec)

	if rec.err == nil {
		t.Fatal("expected transport error")
	}
	if rec.calls[len(rec.calls)-1] != "finished" {
		t.Errorf("calls = %v", rec.calls)
	}
}

func TestLoadNonHTMLHasNoTitle(t *testing.T) {
	srv := testServer(t)
	s := NewHTTP(5*time.Second, "", nil)
	rec := &recorder{}

	s.Load(context.Background(), srv.URL+"/data.json", rec)

	if rec.err != nil || rec.title != "" {
		t.Errorf("err = %v, title = %q", rec.err, rec.title)
	}
}

func TestExtractTitleMissing(t *testing.T) {
	if got := extractTitle(strings.NewReader("<html><body><h1>x</h1></body></html>")); got != "" {
		t.Errorf("title = %q", got)
	}
}

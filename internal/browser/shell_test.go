package browser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/omnibar/internal/classifier"
	"github.com/starford/omnibar/internal/models"
)

// fakeSurface records loads and replays a scripted outcome through the client.
type fakeSurface struct {
	mu       sync.Mutex
	loads    []string
	redirect map[string]string
	fail     map[string]error
	// observed is the shell state seen between PageStarted and PageFinished.
	observed State
	shell    *Shell
}

func (f *fakeSurface) Load(_ context.Context, url string, c Client) {
	f.mu.Lock()
	f.loads = append(f.loads, url)
	f.mu.Unlock()

	c.PageStarted(url)
	if f.shell != nil {
		f.observed = f.shell.State()
	}
	if err := f.fail[url]; err != nil {
		c.ReceivedError(url, err)
		c.PageFinished(url, "")
		return
	}
	final := url
	if to, ok := f.redirect[url]; ok {
		final = to
	}
	c.PageFinished(final, "Title of "+final)
}

func newTestShell(t *testing.T, opts ...Option) (*Shell, *fakeSurface, *[]models.PageEvent) {
	t.Helper()
	surface := &fakeSurface{redirect: map[string]string{}, fail: map[string]error{}}
	sh := NewShell(surface, classifier.New(), opts...)
	surface.shell = sh

	var mu sync.Mutex
	events := &[]models.PageEvent{}
	sh.Subscribe(func(ev models.PageEvent) {
		mu.Lock()
		*events = append(*events, ev)
		mu.Unlock()
	})
	return sh, surface, events
}

func TestInitialStateHidesProgress(t *testing.T) {
	sh, _, _ := newTestShell(t)
	if st := sh.State(); st.Loading || st.AddressBar != "" {
		t.Errorf("initial state = %+v", st)
	}
}

func TestHomeLoadsDefaultPage(t *testing.T) {
	sh, surface, _ := newTestShell(t)
	sh.Home(context.Background())
	if len(surface.loads) != 1 || surface.loads[0] != DefaultHomePage {
		t.Fatalf("loads = %v", surface.loads)
	}
	if st := sh.State(); st.AddressBar != DefaultHomePage {
		t.Errorf("address bar = %q", st.AddressBar)
	}
}

func TestHomePageOption(t *testing.T) {
	sh, surface, _ := newTestShell(t, WithHomePage("https://duckduckgo.com"))
	sh.Home(context.Background())
	if surface.loads[0] != "https://duckduckgo.com" {
		t.Errorf("loads = %v", surface.loads)
	}
}

func TestSubmitURL(t *testing.T) {
	sh, surface, events := newTestShell(t)
	target := sh.Submit(context.Background(), "example.com")
	if target.Kind != models.KindURL || target.URL != "https://example.com" {
		t.Fatalf("target = %+v", target)
	}
	if surface.loads[0] != "https://example.com" {
		t.Errorf("loaded %v", surface.loads)
	}
	if !surface.observed.Loading {
		t.Error("progress should be visible while the page loads")
	}
	st := sh.State()
	if st.Loading {
		t.Error("progress should be hidden after finish")
	}
	if st.AddressBar != "https://example.com" || st.Title != "Title of https://example.com" {
		t.Errorf("state = %+v", st)
	}
	if len(*events) != 2 || (*events)[0].Type != models.EventPageStarted || (*events)[1].Type != models.EventPageFinished {
		t.Errorf("events = %+v", *events)
	}
	if (*events)[1].At.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestSubmitSearch(t *testing.T) {
	sh, surface, _ := newTestShell(t)
	target := sh.Submit(context.Background(), "openai gpt")
	if target.Kind != models.KindSearch {
		t.Fatalf("kind = %q", target.Kind)
	}
	if surface.loads[0] != "https://www.google.com/search?q=openai+gpt" {
		t.Errorf("loaded %v", surface.loads)
	}
}

func TestAddressBarFollowsRedirect(t *testing.T) {
	sh, surface, _ := newTestShell(t)
	surface.redirect["https://example.com"] = "https://www.example.com/"
	sh.Submit(context.Background(), "example.com")
	if st := sh.State(); st.AddressBar != "https://www.example.com/" {
		t.Errorf("address bar = %q", st.AddressBar)
	}
}

func TestErrorStillHidesProgress(t *testing.T) {
	sh, surface, events := newTestShell(t)
	surface.fail["https://down.example"] = errors.New("dial tcp: no such host")
	sh.Submit(context.Background(), "down.example")

	st := sh.State()
	if st.Loading {
		t.Error("progress should be hidden after a failed load")
	}
	if st.LastError == "" {
		t.Error("last error not recorded")
	}
	types := []string{}
	for _, ev := range *events {
		types = append(types, ev.Type)
	}
	want := []string{models.EventPageStarted, models.EventPageError, models.EventPageFinished}
	if len(types) != len(want) {
		t.Fatalf("events = %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
	if (*events)[2].Error == "" {
		t.Error("finish after failure should carry the error")
	}

	// The next successful load clears the error.
	sh.Submit(context.Background(), "example.com")
	if st := sh.State(); st.LastError != "" {
		t.Errorf("last error = %q after success", st.LastError)
	}
}

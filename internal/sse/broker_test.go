package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/omnibar/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	sub := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(sub)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishPageEventDelivery(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.PublishPageEvent(models.PageEvent{Type: models.EventPageFinished, URL: "https://example.com", Title: "Example"})

	select {
	case msg := <-sub.C:
		s := string(msg)
		if !strings.Contains(s, "event: page.finished") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"url":"https://example.com"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSubscriptionFilter(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	defer b.Close()
	sub := b.Subscribe(models.EventPageFinished)
	defer b.Unsubscribe(sub)

	b.PublishPageEvent(models.PageEvent{Type: models.EventPageStarted, URL: "https://a.com"})
	b.PublishPageEvent(models.PageEvent{Type: models.EventPageFinished, URL: "https://a.com"})

	select {
	case msg := <-sub.C:
		if !strings.Contains(string(msg), "event: page.finished") {
			t.Errorf("filtered subscriber got %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	select {
	case msg := <-sub.C:
		t.Errorf("unexpected extra message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifyVisitThrottle(t *testing.T) {
	b := NewBroker(500*time.Millisecond, nil)
	defer b.Close()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// First notification goes out, the second within the window is swallowed.
	b.NotifyVisit()
	b.NotifyVisit()

	time.Sleep(50 * time.Millisecond)
	count := 0
loop:
	for {
		select {
		case msg := <-sub.C:
			if strings.Contains(string(msg), EventVisitsUpdated) {
				count++
			}
		default:
			break loop
		}
	}

	if count != 1 {
		t.Errorf("visits events = %d, want 1 (throttled)", count)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, func() any {
		return map[string]string{"address_bar": "https://start.example"}
	})
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishPageEvent(models.PageEvent{Type: models.EventPageStarted, URL: "https://x.example"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "event: state\n") || !strings.Contains(body, "https://start.example") {
		t.Errorf("handler output missing initial state: %q", body)
	}
	if !strings.Contains(body, "event: page.started") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandlerTypeFilterSkipsState(t *testing.T) {
	b := NewBroker(100*time.Millisecond, func() any { return "snapshot" })
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events?types=page.error", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if strings.Contains(w.Body.String(), "snapshot") {
		t.Errorf("state event should be filtered out: %q", w.Body.String())
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second, nil)
	defer b.Close()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100*time.Millisecond, nil)
	sub := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-sub.C:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishPageEvent(models.PageEvent{Type: models.EventPageStarted})
	b.NotifyVisit()
}

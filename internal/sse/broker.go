// Package sse implements a Server-Sent Events broker that streams browser shell
// activity to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/omnibar/internal/models"
)

// Event types produced by the broker itself.
const (
	EventState         = "state"
	EventVisitsUpdated = "visits.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Subscription receives encoded events. A nil or empty filter accepts every type.
type Subscription struct {
	C      chan []byte
	filter map[string]struct{}
}

func (s *Subscription) accepts(typ string) bool {
	if len(s.filter) == 0 {
		return true
	}
	_, ok := s.filter[typ]
	return ok
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (subscriptions + visits throttle timestamp). Public methods communicate with this
// loop through channels, so no mutexes are required.
type Broker struct {
	visitsMin time.Duration
	snapshot  func() any

	subscribeCh   chan *Subscription
	unsubscribeCh chan *Subscription
	publishCh     chan Event
	visitCh       chan struct{}
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. visits.updated is sent at most once per
// visitsThrottle. snapshot, if non-nil, supplies the payload of the state event
// every new HTTP client receives first.
func NewBroker(visitsThrottle time.Duration, snapshot func() any) *Broker {
	if visitsThrottle <= 0 {
		visitsThrottle = 2 * time.Second
	}

	b := &Broker{
		visitsMin:     visitsThrottle,
		snapshot:      snapshot,
		subscribeCh:   make(chan *Subscription),
		unsubscribeCh: make(chan *Subscription),
		publishCh:     make(chan Event, 256),
		visitCh:       make(chan struct{}, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	subs := make(map[*Subscription]struct{})
	var lastVisits time.Time

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for s := range subs {
			if !s.accepts(event.Type) {
				continue
			}
			select {
			case s.C <- raw:
			default:
				// Subscriber buffer full; drop rather than stall the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for s := range subs {
				close(s.C)
			}
			return

		case s := <-b.subscribeCh:
			subs[s] = struct{}{}

		case s := <-b.unsubscribeCh:
			if _, ok := subs[s]; ok {
				delete(subs, s)
				close(s.C)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case <-b.visitCh:
			now := time.Now()
			if now.Sub(lastVisits) >= b.visitsMin {
				lastVisits = now
				broadcast(Event{Type: EventVisitsUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Close gracefully stops broker loop and closes all subscriber channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a subscriber for the given event types (all when empty).
func (b *Broker) Subscribe(types ...string) *Subscription {
	s := &Subscription{C: make(chan []byte, 64)}
	if len(types) > 0 {
		s.filter = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.filter[t] = struct{}{}
		}
	}
	if b.closed.Load() {
		close(s.C)
		return s
	}

	select {
	case b.subscribeCh <- s:
	case <-b.stopped:
		close(s.C)
	}

	return s
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(s *Subscription) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- s:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected subscribers.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all matching subscribers.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishPageEvent broadcasts a shell page event under its own type.
func (b *Broker) PublishPageEvent(ev models.PageEvent) {
	b.Publish(Event{Type: ev.Type, Data: ev})
}

// NotifyVisit signals a new journal entry; subscribers get a throttled visits.updated.
func (b *Broker) NotifyVisit() {
	if b.closed.Load() {
		return
	}
	select {
	case b.visitCh <- struct{}{}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events. The optional "types" query parameter is a
// comma-separated list of event types to receive.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var types []string
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	sub := b.Subscribe(types...)
	defer b.Unsubscribe(sub)

	if b.snapshot != nil && sub.accepts(EventState) {
		if raw, err := encode(Event{Type: EventState, Data: b.snapshot()}); err == nil {
			_, _ = w.Write(raw)
		}
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

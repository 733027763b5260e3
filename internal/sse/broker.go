// Package sse implements a Server-Sent Events broker for frames and galaxy
// updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/orrery/internal/metrics"
)

// Event types.
const (
	TypeFrame         = "frame"
	TypeGalaxyUpdated = "galaxy.updated"
	TypeLanding       = "landing"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + galaxy throttle). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	galaxyMin time.Duration
	metrics   *metrics.Metrics

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	galaxyCh      chan any
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. galaxy.updated events are sent at most
// once per galaxyThrottle; the latest suppressed update is sent when the
// interval has passed.
func NewBroker(galaxyThrottle time.Duration, m *metrics.Metrics) *Broker {
	if galaxyThrottle <= 0 {
		galaxyThrottle = 2 * time.Second
	}

	b := &Broker{
		galaxyMin:     galaxyThrottle,
		metrics:       m,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		galaxyCh:      make(chan any, 16),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastGalaxy time.Time
	var pending any
	var hasPending bool
	var trailing *time.Timer
	var trailingC <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
		b.metrics.RecordSSEEvent(event.Type)
	}

	sendGalaxy := func(data any) {
		lastGalaxy = time.Now()
		broadcast(Event{Type: TypeGalaxyUpdated, Data: data})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			b.metrics.SSEConnected(-len(clients))
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			b.metrics.SSEConnected(1)

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
				b.metrics.SSEConnected(-1)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case data := <-b.galaxyCh:
			if wait := b.galaxyMin - time.Since(lastGalaxy); wait > 0 {
				pending, hasPending = data, true
				if trailing == nil {
					trailing = time.NewTimer(wait)
					trailingC = trailing.C
				}
				continue
			}
			sendGalaxy(data)

		case <-trailingC:
			trailing, trailingC = nil, nil
			if hasPending {
				sendGalaxy(pending)
				pending, hasPending = nil, false
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishFrame sends a simulation frame. It never blocks the caller: when
// the broker is backed up the frame is dropped, since a newer one follows.
func (b *Broker) PublishFrame(frame any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- Event{Type: TypeFrame, Data: frame}:
	default:
	}
}

// PublishGalaxy publishes a throttled galaxy.updated event.
func (b *Broker) PublishGalaxy(data any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.galaxyCh <- data:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

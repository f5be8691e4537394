// Package sse implements a server-sent-events broker broadcasting vault
// change notifications to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is one message broadcast to subscribers.
type Event struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	OldPath string `json:"old_path,omitempty"`
}

// Event types published by the broker.
const (
	EventNoteCreated  = "note.created"
	EventNoteUpdated  = "note.updated"
	EventNoteDeleted  = "note.deleted"
	EventGraphChanged = "graph.changed"
)

type client chan []byte

// Broker fans events out to SSE clients. All client bookkeeping happens on
// a single goroutine, so no mutex is needed.
type Broker struct {
	logger *slog.Logger

	subscribe   chan client
	unsubscribe chan client
	publish     chan Event
	done        chan struct{}

	graphThrottle time.Duration
}

// Option configures a Broker.
type Option func(*Broker)

// WithGraphThrottle sets the minimum spacing between graph.changed events.
func WithGraphThrottle(d time.Duration) Option {
	return func(b *Broker) { b.graphThrottle = d }
}

// NewBroker starts the broker's event loop.
func NewBroker(logger *slog.Logger, opts ...Option) *Broker {
	b := &Broker{
		logger:        logger,
		subscribe:     make(chan client),
		unsubscribe:   make(chan client),
		publish:       make(chan Event, 64),
		done:          make(chan struct{}),
		graphThrottle: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	clients := make(map[client]struct{})
	var lastGraph time.Time

	for {
		select {
		case c := <-b.subscribe:
			clients[c] = struct{}{}
			b.logger.Debug("sse client connected", slog.Int("clients", len(clients)))
		case c := <-b.unsubscribe:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c)
			}
			b.logger.Debug("sse client disconnected", slog.Int("clients", len(clients)))
		case ev := <-b.publish:
			if ev.Type == EventGraphChanged {
				if time.Since(lastGraph) < b.graphThrottle {
					continue
				}
				lastGraph = time.Now()
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data))
			for c := range clients {
				select {
				case c <- msg:
				default:
					// Slow client: drop it rather than block the loop.
					delete(clients, c)
					close(c)
				}
			}
		case <-b.done:
			for c := range clients {
				close(c)
			}
			return
		}
	}
}

// Publish queues an event for broadcast. It never blocks; events are
// dropped if the broker is saturated or closed.
func (b *Broker) Publish(ev Event) {
	select {
	case b.publish <- ev:
	case <-b.done:
	default:
	}
}

// PublishNoteEvent broadcasts a note lifecycle event followed by a
// throttled graph-changed notification.
func (b *Broker) PublishNoteEvent(eventType, path string) {
	b.Publish(Event{Type: eventType, Path: path})
	b.Publish(Event{Type: EventGraphChanged})
}

// Close shuts the broker down and disconnects all clients.
func (b *Broker) Close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	c := make(client, 16)
	select {
	case b.subscribe <- c:
	case <-b.done:
		return
	}
	defer func() {
		select {
		case b.unsubscribe <- c:
		case <-b.done:
		}
	}()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case msg, open := <-c:
			if !open {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

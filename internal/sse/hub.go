// Package sse streams annotation changes to open card grids as Server-Sent
// Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Event names written on the stream.
const (
	TypeRated       = "annotation.rated"
	TypeFeedback    = "annotation.feedback"
	TypeChanged     = "annotation.changed"
	TypeGridRefresh = "grid.refresh"
)

// Event is one message on the stream. ID is the content identifier it
// concerns; an empty ID reaches every listener.
type Event struct {
	Type string
	ID   string
	Data any
}

// listener is one connected stream. An empty id accepts every event.
type listener struct {
	id  string
	out chan []byte
}

// Hub fans annotation events out to listeners.
type Hub struct {
	refreshEvery time.Duration
	now          func() time.Time

	mu          sync.Mutex
	listeners   map[*listener]struct{}
	lastRefresh time.Time
	closed      bool
}

// NewHub creates a Hub. grid.refresh is emitted at most once per
// refreshEvery.
func NewHub(refreshEvery time.Duration) *Hub {
	if refreshEvery <= 0 {
		refreshEvery = 2 * time.Second
	}
	return &Hub{
		refreshEvery: refreshEvery,
		now:          time.Now,
		listeners:    make(map[*listener]struct{}),
	}
}

// Listen registers a listener for id ("" for all identifiers). The returned
// cancel func unregisters it and closes the channel.
func (h *Hub) Listen(id string) (<-chan []byte, func()) {
	l := &listener{id: id, out: make(chan []byte, 64)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(l.out)
		return l.out, func() {}
	}
	h.listeners[l] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return l.out, func() {
		once.Do(func() { h.drop(l) })
	}
}

func (h *Hub) drop(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.listeners[l]; ok {
		delete(h.listeners, l)
		close(l.out)
	}
}

// Listeners returns the number of connected listeners.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// Send delivers ev to every matching listener. Listeners whose buffer is
// full miss the event.
func (h *Hub) Send(ev Event) {
	msg, err := frame(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliver(ev.ID, msg)
}

// Notify reports an annotation change of kind for id. It matches the
// pipeline's notifier signature. Unknown kinds are ignored.
func (h *Hub) Notify(kind, id string) {
	switch kind {
	case TypeRated, TypeFeedback, TypeChanged:
	default:
		return
	}
	msg, err := frame(Event{Type: kind, Data: map[string]string{"id": id}})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliver(id, msg)

	if now := h.now(); now.Sub(h.lastRefresh) >= h.refreshEvery {
		h.lastRefresh = now
		refresh, _ := frame(Event{Type: TypeGridRefresh, Data: map[string]string{}})
		h.deliver("", refresh)
	}
}

// deliver requires h.mu.
func (h *Hub) deliver(id string, msg []byte) {
	if h.closed {
		return
	}
	for l := range h.listeners {
		if id != "" && l.id != "" && l.id != id {
			continue
		}
		select {
		case l.out <- msg:
		default:
		}
	}
}

// Close disconnects every listener. Later calls are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for l := range h.listeners {
		close(l.out)
	}
	h.listeners = nil
}

func frame(ev Event) ([]byte, error) {
	data := ev.Data
	if data == nil {
		data = map[string]string{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload)), nil
}

// ServeHTTP streams events (GET /api/events). The optional id query
// parameter narrows the stream to one identifier.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	events, cancel := h.Listen(strings.TrimSpace(r.URL.Query().Get("id")))
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

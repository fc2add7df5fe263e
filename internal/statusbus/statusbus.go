// Package statusbus broadcasts printer and job state transitions to
// in-process subscribers over buffered channels. It has no dependency on
// net/http or gorilla/websocket so the core packages (printer, job) can
// publish to it without pulling in a transport; internal/wsfeed adapts it
// to gorilla/websocket for the daemon's diagnostic /events endpoint.
package statusbus

import (
	"sync"
	"time"
)

// EventType names the kind of state transition being reported.
type EventType string

const (
	EventPrinterState EventType = "printer_state"
	EventJobState      EventType = "job_state"
	EventLog           EventType = "log"
)

// Event is one published state transition.
type Event struct {
	Type      EventType              `json:"type"`
	Printer   string                 `json:"printer,omitempty"`
	JobID     uint32                 `json:"job_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type registration struct {
	id string
	ch chan Event
}

// Hub fans out Events to registered subscriber channels. A full subscriber
// channel has its event dropped rather than blocking the publisher, so a
// slow or stuck diagnostics client can never back-pressure a printer
// worker.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]chan Event
	register   chan registration
	unregister chan string
	broadcast  chan Event
	shutdown   chan struct{}
}

// NewHub creates and starts a Hub's dispatch goroutine.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]chan Event),
		register:   make(chan registration),
		unregister: make(chan string),
		broadcast:  make(chan Event, 256),
		shutdown:   make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.clients[reg.id] = reg.ch
			h.mu.Unlock()
		case id := <-h.unregister:
			h.mu.Lock()
			if ch, ok := h.clients[id]; ok {
				close(ch)
				delete(h.clients, id)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.mu.RLock()
			for _, ch := range h.clients {
				select {
				case ch <- ev:
				default:
				}
			}
			h.mu.RUnlock()
		case <-h.shutdown:
			h.mu.Lock()
			for id, ch := range h.clients {
				close(ch)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a subscriber channel under id. The channel should be
// buffered (the hub never blocks on it regardless).
func (h *Hub) Register(id string, ch chan Event) {
	h.register <- registration{id: id, ch: ch}
}

// Unregister removes and closes the subscriber channel registered under id.
func (h *Hub) Unregister(id string) {
	h.unregister <- id
}

// Publish enqueues ev for broadcast. Non-blocking: if the hub's internal
// queue is full the event is dropped.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- ev:
	default:
	}
}

// Stop shuts the hub down, closing every subscriber channel.
func (h *Hub) Stop() {
	close(h.shutdown)
}

// Package wsfeed adapts a statusbus.Hub to gorilla/websocket for the
// daemon's diagnostic /events endpoint: a permissive CheckOrigin upgrader
// and a writeMu serializing all writes, since gorilla's Conn panics on
// concurrent writers.
package wsfeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lprintd/internal/statusbus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 5 * time.Second

// Handler serves the /events endpoint: each connection is registered
// with the hub and every Event it publishes is forwarded as JSON until
// the client disconnects.
type Handler struct {
	hub *statusbus.Hub
}

// NewHandler builds an http.Handler that streams hub events over
// websocket connections.
func NewHandler(hub *statusbus.Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id := r.RemoteAddr + "-" + time.Now().Format("150405.000000000")
	ch := make(chan statusbus.Event, 16)
	h.hub.Register(id, ch)
	defer h.hub.Unregister(id)

	var writeMu sync.Mutex
	closed := make(chan struct{})

	// Drain client-initiated control frames (pings/close) on their own
	// goroutine; the events feed is one-directional from the server.
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			werr := conn.WriteMessage(websocket.TextMessage, payload)
			writeMu.Unlock()
			if werr != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

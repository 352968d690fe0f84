package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait = 10 * time.Second
	// sendBuffer is how many events a display may fall behind before it is dropped.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// display is one connected client. Only its writer goroutine writes to conn.
type display struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes schedule events to display clients connected over WebSocket.
type Hub struct {
	mu       sync.Mutex
	displays map[*display]struct{}
}

func NewHub() *Hub {
	return &Hub{displays: map[*display]struct{}{}}
}

// ServeWS upgrades the request and keeps the socket registered until the
// client goes away. Clients only listen; anything they send is discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	d := &display{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.displays[d] = struct{}{}
	h.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Msg("display connected")

	go h.write(d)
	defer func() {
		h.remove(d)
		log.Debug().Str("remote", r.RemoteAddr).Msg("display disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write drains d.send until the hub closes it or a write fails.
func (h *Hub) write(d *display) {
	defer d.conn.Close()
	for msg := range d.send {
		d.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := d.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug().Err(err).Msg("dropping display")
			h.remove(d)
			return
		}
	}
	d.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
}

// remove unregisters d and stops its writer. Safe to call more than once.
func (h *Hub) remove(d *display) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.displays[d]; ok {
		delete(h.displays, d)
		close(d.send)
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.displays)
}

// Publish queues ev for every connected client without waiting on the
// network. A client whose queue is full is dropped.
func (h *Hub) Publish(ev ScheduleEvent) error {
	payload, err := json.Marshal(ev.withDefaults())
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for d := range h.displays {
		select {
		case d.send <- payload:
		default:
			log.Warn().Msg("display too slow, dropping it")
			delete(h.displays, d)
			close(d.send)
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for d := range h.displays {
		delete(h.displays, d)
		close(d.send)
	}
}

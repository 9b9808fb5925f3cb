package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

type client struct {
	ws    *websocket.Conn
	ngoID string
	send  chan []byte
}

// Hub fans events out to the WebSocket clients of the owning NGO. A nil *Hub
// drops everything, so publishers need no guard.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

// Add registers ws and starts its writer. After Add only the hub writes to ws.
func (h *Hub) Add(ws *websocket.Conn, ngoID string) {
	cl := &client{ws: ws, ngoID: ngoID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[ws] = cl
	h.mu.Unlock()
	go cl.writeLoop()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	if cl, ok := h.clients[ws]; ok {
		h.dropLocked(cl)
	}
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish stamps e and queues it for every client of e.NGOID. It never waits
// on a socket; a client whose queue is full is dropped.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cl := range h.clients {
		if cl.ngoID != e.NGOID {
			continue
		}
		select {
		case cl.send <- b:
		default:
			h.dropLocked(cl)
		}
	}
}

func (h *Hub) Stats() Stats {
	if h == nil {
		return Stats{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.clients)}
}

// dropLocked must be called with h.mu held. Closing the connection also ends
// the handler's read loop.
func (h *Hub) dropLocked(cl *client) {
	delete(h.clients, cl.ws)
	close(cl.send)
	_ = cl.ws.Close()
}

func (cl *client) writeLoop() {
	for b := range cl.send {
		_ = cl.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.ws.WriteMessage(websocket.TextMessage, b); err != nil {
			// the read loop sees the close and removes the client
			_ = cl.ws.Close()
			return
		}
	}
}

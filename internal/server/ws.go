package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

const (
	writeWait = 2 * time.Second

	// sendBuffer is how many reports may queue for one client before the
	// hub gives up on it.
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// reportMessage is the websocket payload for one report.
type reportMessage struct {
	Report  session.Report `json:"report"`
	Summary string         `json:"summary"`
}

// hubClient is one websocket connection and its outgoing queue. Only
// writePump writes data frames to conn.
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump drains the queue until the hub closes it. After a failed write
// the connection is closed and the rest of the queue discarded.
func (c *hubClient) writePump() {
	failed := false
	for msg := range c.send {
		if failed {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug(log.Fields{"error": err.Error()}, "[server.ReportHub] write failed, dropping client")
			c.conn.Close()
			failed = true
		}
	}
	c.conn.Close()
}

// ReportHub pushes every published session report to connected websocket
// clients. New clients receive the latest report on connect. Publish never
// waits on a client: each has its own queue and writer.
type ReportHub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	last    []byte
}

// NewReportHub creates an empty hub.
func NewReportHub() *ReportHub {
	return &ReportHub{clients: make(map[*hubClient]struct{})}
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *ReportHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[server.ReportHub] websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &hubClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()

	go c.writePump()

	defer func() {
		h.mu.Lock()
		h.remove(c)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// remove unregisters c and stops its writer. h.mu must be held.
func (h *ReportHub) remove(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Publish queues r for every client. A client whose queue is full is
// dropped.
func (h *ReportHub) Publish(r session.Report) {
	msg, err := json.Marshal(reportMessage{Report: r, Summary: r.Summary()})
	if err != nil {
		log.Error(log.Fields{"error": err.Error()}, "[server.ReportHub] failed to encode report")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Warn(log.Fields{"queued": len(c.send)}, "[server.ReportHub] client too slow, dropping")
			h.remove(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *ReportHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *ReportHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		h.remove(c)
	}
}

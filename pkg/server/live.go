package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// liveClient is one /live connection. send holds at most the latest
// snapshot; older unsent snapshots are replaced.
type liveClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *liveClient) push(msg []byte) {
	for {
		select {
		case c.send <- msg:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

func (c *liveClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// hub fans snapshots out to live clients.
type hub struct {
	mu      sync.RWMutex
	clients map[*liveClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*liveClient]struct{})}
}

func (h *hub) add(c *liveClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *liveClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.push(msg)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*liveClient]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &liveClient{conn: conn, send: make(chan []byte, 1), done: make(chan struct{})}
	s.publishMu.Lock()
	s.hub.add(c)
	c.push([]byte(s.app.Mount().InnerHTML()))
	s.publishMu.Unlock()
	s.logger.Debug("live client connected", "remote", r.RemoteAddr, "clients", s.hub.count())

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client messages and returns when the connection ends.
func (s *Server) readLoop(c *liveClient) {
	defer s.hub.remove(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("live write failed", "error", err)
				s.hub.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.remove(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

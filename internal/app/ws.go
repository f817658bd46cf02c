package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = time.Second
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsClient owns one connection. Only its write goroutine writes to conn.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// write drains send until the hub closes it. After a failed write the
// connection is closed so the reader returns, and the rest of the queue is
// discarded.
func (c *wsClient) write() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("web: websocket write error: %v", err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// reply queues a response to this client only. Must be called from the
// connection's handler goroutine, which is the only one that removes it.
func (c *wsClient) reply(msg WSResponse) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("web: websocket encode error: %v", err)
		return
	}
	c.send <- payload
}

// hub tracks the connected status clients.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.write()
	return c
}

// remove closes the client's queue; its write goroutine then closes the
// connection.
func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast queues msg for every client without waiting on any of them.
// A client whose queue is full misses the message.
func (h *hub) broadcast(msg WSResponse) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("web: websocket encode error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("web: websocket client lagging, dropped %s message", msg.Type)
		}
	}
}

// handleWS streams status and arrivals to the client and accepts
// start, cancel and waypoints actions from it.
func (s *navService) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := s.hub.add(conn)
	log.Printf("web: websocket client connected (%d total)", s.hub.count())
	defer func() {
		s.hub.remove(c)
		log.Printf("web: websocket client left (%d total)", s.hub.count())
	}()

	v := s.view()
	c.reply(WSResponse{Type: "status", Status: &v})

	// Main message loop
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("web: websocket read error: %v", err)
			}
			return
		}

		resp := WSResponse{Type: "ack"}
		switch msg.Action {
		case "waypoints":
			added, err := s.enqueue(r.Context(), WaypointList{Waypoints: msg.Waypoints, Clear: msg.Clear})
			resp.Added = added
			if err != nil {
				resp = WSResponse{Type: "error", Added: added, Message: err.Error()}
			}
		default:
			if err := s.command(r.Context(), msg.Action); err != nil {
				resp = WSResponse{Type: "error", Message: err.Error()}
			}
		}
		c.reply(resp)
	}
}

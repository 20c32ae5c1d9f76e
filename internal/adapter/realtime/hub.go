package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Hub groups websocket connections into per-user broadcast groups.
//
// Subscription is deliberately coarser than it looks: a client
// subscribes with an (orderId, userId) pair but is joined to the
// userId group, so it receives status events for every order owned by
// that user, not only the one it named. Storefront clients depend on
// this contract; there is no per-order filtering anywhere.
//
// Delivery is at-most-once and best-effort. A client that is not
// connected, or whose send buffer is full, misses the event; nothing
// is retried or persisted.
type Hub struct {
	mu       sync.RWMutex
	groups   map[string]map[*client]struct{}
	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan envelope
}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type subscribeRequest struct {
	Action  string `json:"action"`
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			// The REST layer owns auth; the socket is open like the
			// original storefront channel was.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the connection and waits for a single subscribe
// frame: {"action":"subscribeToOrder","orderId":...,"userId":...}.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	var sub subscribeRequest
	if err := conn.ReadJSON(&sub); err != nil || sub.Action != "subscribeToOrder" || sub.UserID == "" {
		log.Printf("ws: bad subscribe frame from %s", conn.RemoteAddr())
		conn.Close()
		return
	}
	log.Printf("ws: user %s subscribed to order %s", sub.UserID, sub.OrderID)

	c := &client{conn: conn, send: make(chan envelope, sendBuffer)}
	h.join(sub.UserID, c)

	go c.writeLoop()
	go h.readLoop(sub.UserID, c)
}

// Emit pushes an event to every connection in the user's group. It
// never blocks: a full client buffer drops the event for that client.
func (h *Hub) Emit(userID, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws emit %s: marshal payload: %v", event, err)
		return
	}
	env := envelope{Event: event, Payload: raw}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[userID] {
		select {
		case c.send <- env:
		default:
			log.Printf("ws: dropping %s for a slow subscriber of user %s", event, userID)
		}
	}
}

// Close tears down every connection. The hub is constructed once at
// process start and closed on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, group := range h.groups {
		for c := range group {
			close(c.send)
		}
		delete(h.groups, userID)
	}
}

func (h *Hub) join(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[userID]
	if group == nil {
		group = make(map[*client]struct{})
		h.groups[userID] = group
	}
	group[c] = struct{}{}
}

func (h *Hub) leave(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[userID]
	if group == nil {
		return
	}
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, userID)
	}
	close(c.send)
}

// readLoop exists to notice the peer going away; inbound frames after
// the subscribe are ignored.
func (h *Hub) readLoop(userID string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.leave(userID, c)
			c.conn.Close()
			return
		}
	}
}

func (c *client) writeLoop() {
	for env := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(env); err != nil {
			// readLoop will observe the broken connection and clean up.
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
	c.conn.Close()
}

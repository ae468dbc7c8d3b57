package cartControllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/cart"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

// Hub pushes cart change hints to the browser tabs of the owning visitor.
// Messages carry counts only; clients refetch GET /cart for the contents.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[string]map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

type CartUpdate struct {
	Type       string `json:"type"`
	Event      string `json:"event"`
	CartID     string `json:"cartId"`
	ItemCount  int    `json:"itemCount"`
	GrandTotal string `json:"grandTotal"`
}

func NewHub(allowedOrigins []string, log *zap.Logger) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Hub{
		log:     log,
		clients: make(map[string]map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

func userKey(id string) string    { return "u:" + id }
func sessionKey(id string) string { return "s:" + id }

func identityKeys(id cart.Identity) []string {
	var keys []string
	if id.UserID != "" {
		keys = append(keys, userKey(id.UserID))
	}
	if id.SessionID != "" {
		keys = append(keys, sessionKey(id.SessionID))
	}
	return keys
}

// GET /cart/ws
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		keys := identityKeys(middleware.Identity(c))
		if len(keys) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": cart.CodeMissingIdentifier})
			return
		}
		// A hijacked connection never flushes c.Writer, so a freshly minted
		// session cookie has to ride on the handshake response.
		var respHeader http.Header
		if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
			respHeader = http.Header{"Set-Cookie": cookies}
		}
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, respHeader)
		if err != nil {
			return
		}

		cl := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
		h.register(cl, keys)
		go cl.writeLoop()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.unregister(cl, keys)
	}
}

func (h *Hub) register(cl *wsClient, keys []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range keys {
		set, ok := h.clients[k]
		if !ok {
			set = make(map[*wsClient]struct{})
			h.clients[k] = set
		}
		set[cl] = struct{}{}
	}
}

func (h *Hub) unregister(cl *wsClient, keys []string) {
	h.mu.Lock()
	for _, k := range keys {
		if set, ok := h.clients[k]; ok {
			delete(set, cl)
			if len(set) == 0 {
				delete(h.clients, k)
			}
		}
	}
	h.mu.Unlock()
	close(cl.send)
}

func (cl *wsClient) writeLoop() {
	defer cl.conn.Close()
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Connections returns the number of sockets registered under the identity.
func (h *Hub) Connections(id cart.Identity) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[*wsClient]struct{})
	for _, k := range identityKeys(id) {
		for cl := range h.clients[k] {
			seen[cl] = struct{}{}
		}
	}
	return len(seen)
}

// CartChanged implements cart.Notifier. Slow clients miss updates rather
// than block the request that produced them.
func (h *Hub) CartChanged(_ context.Context, e cart.Event) {
	data, err := json.Marshal(CartUpdate{
		Type:       "cart_updated",
		Event:      string(e.Type),
		CartID:     e.CartID,
		ItemCount:  e.ItemCount,
		GrandTotal: e.GrandTotal,
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[*wsClient]struct{})
	for _, k := range identityKeys(cart.Identity{UserID: e.UserID, SessionID: e.SessionID}) {
		for cl := range h.clients[k] {
			if _, dup := seen[cl]; dup {
				continue
			}
			seen[cl] = struct{}{}
			select {
			case cl.send <- data:
			default:
				h.log.Debug("dropping cart update for slow websocket client", zap.String("cart_id", e.CartID))
			}
		}
	}
}

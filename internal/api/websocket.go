package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"khanabuddy/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Hub fans inventory and order events out to dashboard WebSocket clients.
type Hub struct {
	mu          sync.Mutex
	conns       map[*wsConnection]struct{}
	unsubscribe []func()
}

// NewHub subscribes to the dispatcher and relays every event as JSON to all
// connected clients.
func NewHub(bus *events.Dispatcher) *Hub {
	h := &Hub{conns: make(map[*wsConnection]struct{})}

	for _, kind := range []events.Kind{
		events.KindInventoryUpdated,
		events.KindPricesUpdated,
		events.KindQuantityUpdated,
		events.KindItemAdded,
		events.KindItemRemoved,
		events.KindOrderCreated,
	} {
		h.unsubscribe = append(h.unsubscribe, bus.Subscribe(kind, h.broadcast))
	}
	return h
}

// wsConnection maintains one WebSocket connection with a dashboard client.
type wsConnection struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// HandleWS upgrades the request and starts the read and write pumps.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	wsConn := &wsConnection{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.conns[wsConn] = struct{}{}
	h.mu.Unlock()

	go wsConn.writePump()
	go wsConn.readPump()
}

func (h *Hub) broadcast(e events.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for wsConn := range h.conns {
		select {
		case wsConn.send <- data:
		default:
			log.Println("WebSocket buffer full, dropping message")
		}
	}
}

func (h *Hub) remove(wsConn *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, wsConn)
}

// Close drops the dispatcher subscriptions and disconnects every client.
func (h *Hub) Close() {
	for _, unsub := range h.unsubscribe {
		unsub()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for wsConn := range h.conns {
		close(wsConn.send)
		delete(h.conns, wsConn)
	}
}

// readPump drains client messages to keep the connection's read side alive.
func (c *wsConnection) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512 * 1024) // 512KB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps events from the hub to the WebSocket connection.
func (c *wsConnection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The channel was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

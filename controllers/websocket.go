package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/inamkj/Agriboost/middlewares"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// defaultWriteWait bounds a single write to one client.
const defaultWriteWait = 10 * time.Second

// Message types pushed to websocket clients.
const (
	EventSensorUpdate   = "sensor_update"
	EventAbnormal       = "abnormal"
	EventRecommendation = "recommendation"
)

type Client struct {
	Conn   *websocket.Conn
	UserID uint
}

// AbnormalCounter counts a user's abnormal readings for notifications.
type AbnormalCounter func(userID uint) int64

// Hub tracks connected websocket clients and fans out updates.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]Client
	abnormal  AbnormalCounter
	writeWait time.Duration
}

func NewHub(abnormal AbnormalCounter) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]Client),
		abnormal:  abnormal,
		writeWait: defaultWriteWait,
	}
}

// HandleWebSocket upgrades an authenticated request and keeps the client
// registered until it disconnects.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = Client{Conn: conn, UserID: userID}
	h.mu.Unlock()

	defer h.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends {"type": event, "data": data} to every client.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := json.Marshal(gin.H{"type": event, "data": data})
	if err != nil {
		log.Printf("websocket: failed to encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.write(conn, msg)
	}
}

// SendTo delivers an event only to the given user's connections.
func (h *Hub) SendTo(userID uint, event string, data any) {
	msg, err := json.Marshal(gin.H{"type": event, "data": data})
	if err != nil {
		log.Printf("websocket: failed to encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		if client.UserID == userID {
			h.write(conn, msg)
		}
	}
}

// Notify warns every client about an abnormal reading, with that client's
// own abnormal count. Counts are looked up before the hub is locked.
func (h *Hub) Notify(data any) {
	h.mu.Lock()
	targets := make([]Client, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.Unlock()

	counts := make(map[uint]int64)
	for _, client := range targets {
		if _, seen := counts[client.UserID]; seen {
			continue
		}
		var count int64
		if h.abnormal != nil {
			count = h.abnormal(client.UserID)
		}
		counts[client.UserID] = count
	}

	messages := make(map[uint][]byte, len(counts))
	for userID, count := range counts {
		msg, err := json.Marshal(gin.H{
			"type":           EventAbnormal,
			"message":        "Abnormal data detected!",
			"data":           data,
			"abnormal_count": count,
		})
		if err != nil {
			log.Printf("websocket: failed to encode notification: %v", err)
			return
		}
		messages[userID] = msg
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range targets {
		// Skip clients that disconnected while counts were computed.
		if _, ok := h.clients[client.Conn]; !ok {
			continue
		}
		h.write(client.Conn, messages[client.UserID])
	}
}

// write must be called with h.mu held.
func (h *Hub) write(conn *websocket.Conn, msg []byte) {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		log.Printf("websocket: dropping client: %v", err)
		delete(h.clients, conn)
		conn.Close()
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Printf("websocket: dropping client: %v", err)
		delete(h.clients, conn)
		conn.Close()
	}
}

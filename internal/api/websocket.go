package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for local dashboard
	},
}

type topicMessage struct {
	runID string
	data  []byte
}

// Hub maintains one client set per run id and broadcasts each run's events
// only to subscribers of that run's topic.
type Hub struct {
	topics    map[string]map[*websocket.Conn]bool
	broadcast chan topicMessage
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan topicMessage, 256),
		topics:    make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mutex.Lock()
		clients := h.topics[msg.runID]
		for client := range clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				log.Printf("websocket write error on run %s: %v", msg.runID, err)
				client.Close()
				delete(clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request to a websocket and attaches it to runID's
// topic; it is used as the handler for GET /runs/:id/stream.
func (h *Hub) Subscribe(c *gin.Context) {
	runID := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade websocket for run %s: %v", runID, err)
		return
	}

	h.mutex.Lock()
	if h.topics[runID] == nil {
		h.topics[runID] = make(map[*websocket.Conn]bool)
	}
	h.topics[runID][conn] = true
	h.mutex.Unlock()

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.topics[runID], conn)
			if len(h.topics[runID]) == 0 {
				delete(h.topics, runID)
			}
			h.mutex.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("websocket error on run %s: %v", runID, err)
				}
				break
			}
		}
	}()
}

// Broadcast sends data to every subscriber currently attached to runID's topic.
func (h *Hub) Broadcast(runID string, data []byte) {
	h.broadcast <- topicMessage{runID: runID, data: data}
}

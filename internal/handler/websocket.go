package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/notification"
	"github.com/user/remind-me/personal/internal/pubsub"
	"github.com/user/remind-me/personal/internal/service"
	"go.uber.org/zap"
)

const (
	keepAliveInterval = 30 * time.Second
	writeWait         = 10 * time.Second
	eventBuffer       = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the API token guards the endpoint
	},
}

// ReminderChangedMessage is pushed to websocket clients after every store
// mutation.
type ReminderChangedMessage struct {
	Type     string          `json:"type"`
	Action   service.Action  `json:"action"`
	Reminder models.Reminder `json:"reminder"`
}

// BroadcastChanges returns a store listener that forwards changes to the hub.
func BroadcastChanges(hub *pubsub.Hub) service.Listener {
	return func(event service.ChangeEvent) {
		hub.Publish(ReminderChangedMessage{
			Type:     "reminder_changed",
			Action:   event.Action,
			Reminder: event.Reminder,
		})
	}
}

type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type alertRef struct {
	ID uuid.UUID `json:"id"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (w *wsConn) writeJSON(v interface{}) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

// WebSocket handles GET /ws. Server events (alerts, dismissals, focus
// requests, notices, reminder changes) are pushed as JSON objects with a
// "type" field. Clients may send ping, click and dismiss messages.
func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe(eventBuffer)
	defer unsubscribe()

	if err := ws.writeJSON(gin.H{
		"type":   "connection_ack",
		"alerts": h.board.Active(),
	}); err != nil {
		return
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.pump(ws, events, done)
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "ping":
			if err := ws.writeJSON(gin.H{"type": "pong"}); err != nil {
				return
			}

		case "click", "dismiss":
			var ref alertRef
			if err := json.Unmarshal(msg.Payload, &ref); err != nil || ref.ID == uuid.Nil {
				_ = ws.writeJSON(gin.H{"type": "error", "message": "payload.id is required"})
				continue
			}
			if msg.Type == "click" {
				h.board.Click(ref.ID)
			} else {
				h.board.Dismiss(ref.ID, notification.DismissReasonClosed)
			}
		}
	}
}

func (h *Handler) pump(ws *wsConn, events <-chan interface{}, done <-chan struct{}) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-events:
			if err := ws.writeJSON(event); err != nil {
				h.logger.Debug("WebSocket write failed", zap.Error(err))
				_ = ws.conn.Close()
				return
			}
		case <-ticker.C:
			if err := ws.writeJSON(gin.H{"type": "ka"}); err != nil {
				_ = ws.conn.Close()
				return
			}
		}
	}
}

package websockets

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan envelope, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		send:       make(chan DirectMessage, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run dispatches registrations and events until ctx is done.
func (manager *WebSocketManager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(manager.done)
			manager.mu.Lock()
			for conn, client := range manager.clients {
				close(client.send)
				delete(manager.clients, conn)
			}
			manager.mu.Unlock()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client.Conn] = client
			manager.mu.Unlock()

		case conn := <-manager.unregister:
			manager.mu.Lock()
			if client, exists := manager.clients[conn]; exists {
				delete(manager.clients, conn)
				close(client.send)
				logger.Log.WithField("user_id", client.Subscriber.UserID).Debug("websocket client disconnected")
			}
			manager.mu.Unlock()

		case msg := <-manager.broadcast:
			manager.mu.Lock()
			for _, client := range manager.clients {
				if msg.triageOnly && !client.Subscriber.Role.CanTriage() {
					continue
				}
				manager.deliver(client, msg.payload)
			}
			manager.mu.Unlock()

		case direct := <-manager.send:
			manager.mu.Lock()
			for _, client := range manager.clients {
				if client.Subscriber.Email != "" && strings.EqualFold(client.Subscriber.Email, direct.Email) {
					manager.deliver(client, direct.Payload)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// deliver drops clients whose send buffer is full. Callers hold mu.
func (manager *WebSocketManager) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		close(client.send)
		delete(manager.clients, client.Conn)
	}
}

// ClientCount reports the number of registered connections.
func (manager *WebSocketManager) ClientCount() int {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	return len(manager.clients)
}

// HandleConnections upgrades HTTP requests to WebSocket connections
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request, sub Subscriber) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{Conn: conn, Subscriber: sub, send: make(chan []byte, sendBuffer)}
	select {
	case manager.register <- client:
	case <-manager.done:
		conn.Close()
		return
	}

	go manager.writePump(client)
	manager.readPump(client)
}

func (manager *WebSocketManager) readPump(client *Client) {
	defer func() {
		select {
		case manager.unregister <- client.Conn:
		case <-manager.done:
		}
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			continue
		}
		if message.Type == MsgTypePing {
			if payload, err := json.Marshal(Event{Type: MsgTypePong}); err == nil {
				manager.reply(client, payload)
			}
		}
	}
}

// reply writes to one connection only. The client must still be registered
// since Run closes send on unregister.
func (manager *WebSocketManager) reply(client *Client, payload []byte) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	if manager.clients[client.Conn] != client {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

func (manager *WebSocketManager) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastStatusChange tells triage staff about the change and pushes a
// copy to the reporter's own connections. It never blocks the caller.
func (manager *WebSocketManager) BroadcastStatusChange(change model.StatusChange) {
	payload, err := json.Marshal(Event{Type: EventStatusChanged, Data: change})
	if err != nil {
		return
	}
	manager.enqueue(envelope{payload: payload, triageOnly: true})

	if change.Email == "" {
		return
	}
	own, err := json.Marshal(Event{Type: EventOwnReport, Data: change})
	if err != nil {
		return
	}
	select {
	case manager.send <- DirectMessage{Email: change.Email, Payload: own}:
	default:
		logger.Log.WithField("report_id", change.ReportID).Warn("websocket queue full, dropping reporter event")
	}
}

// BroadcastReportCreated announces a new report to every connection.
func (manager *WebSocketManager) BroadcastReportCreated(report model.Report) {
	report.Email = ""
	payload, err := json.Marshal(Event{Type: EventReportCreated, Data: report})
	if err != nil {
		return
	}
	manager.enqueue(envelope{payload: payload})
}

func (manager *WebSocketManager) enqueue(msg envelope) {
	select {
	case manager.broadcast <- msg:
	default:
		logger.Log.Warn("websocket queue full, dropping broadcast")
	}
}

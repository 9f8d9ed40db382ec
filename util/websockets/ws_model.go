package websockets

import (
	"sync"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/gorilla/websocket"
)

// Event types pushed to connected clients
const (
	EventStatusChanged = "report_status_changed"
	EventReportCreated = "report_created"
	EventOwnReport     = "own_report_updated"
	MsgTypePing        = "ping"
	MsgTypePong        = "pong"
)

const (
	sendBuffer      = 16
	broadcastBuffer = 64
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512
)

// Subscriber identifies the signed-in user behind a connection.
type Subscriber struct {
	UserID string
	Email  string
	Role   model.Role
}

// Client represents a connected WebSocket user
type Client struct {
	Conn       *websocket.Conn
	Subscriber Subscriber
	send       chan []byte
}

type WebSocketManager struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan envelope
	register   chan *Client
	unregister chan *websocket.Conn
	send       chan DirectMessage
	done       chan struct{}
	mu         sync.Mutex
}

// DirectMessage is delivered to every connection of one reporter.
type DirectMessage struct {
	Email   string
	Payload []byte
}

type envelope struct {
	payload    []byte
	triageOnly bool
}

// Event is the JSON frame written to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Message is an incoming client frame. Only pings are understood.
type Message struct {
	Type string `json:"type"`
}

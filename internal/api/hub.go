package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/pkg/logger"
)

const (
	clientBuffer = 16
	pingInterval = 45 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Message is the envelope pushed to websocket clients
type Message struct {
	Type string                `json:"type"` // "scan"
	Data *contracts.ScanResult `json:"data"`
}

type client struct {
	conn *websocket.Conn
	out  chan Message
	done chan struct{}
}

// Hub broadcasts completed scans to every connected websocket client.
// A new client immediately receives the last scan.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	last    *contracts.ScanResult
	logger  *logger.Logger
}

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  log.Component("ws_hub"),
	}
}

// PublishScan implements contracts.ScanPublisher; slow clients drop messages
func (h *Hub) PublishScan(result *contracts.ScanResult) {
	msg := Message{Type: "scan", Data: result}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = result
	for c := range h.clients {
		select {
		case c.out <- msg:
		default:
			h.logger.Warn("Dropping scan for slow websocket client")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams scans until the client leaves
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	cl := &client{conn: conn, out: make(chan Message, clientBuffer), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	if h.last != nil {
		cl.out <- Message{Type: "scan", Data: h.last}
	}
	h.mu.Unlock()

	go h.writeLoop(cl)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		// 클라이언트 메시지는 무시 (연결 종료 감지용)
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(cl.done)
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

func (h *Hub) writeLoop(cl *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case msg := <-cl.out:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteJSON(msg); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed")
				return
			}
		case <-ping.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-cl.done:
			return
		}
	}
}

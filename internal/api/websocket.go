package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"radio-survival/internal/game"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// MaxWSConnectionsTotal caps connections across all clients.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps connections from one address.
	MaxWSConnectionsPerIP = 10

	broadcastInterval = 100 * time.Millisecond
	writeWait         = 2 * time.Second
	maxMessageSize    = 4096
)

// wireFormat is how a client wants its frames encoded.
type wireFormat uint8

const (
	formatJSON    wireFormat = iota // Text frames
	formatMsgpack                   // Binary frames
)

func (f wireFormat) String() string {
	if f == formatMsgpack {
		return "msgpack"
	}
	return "json"
}

func formatFromRequest(r *http.Request) wireFormat {
	if r.URL.Query().Get("format") == "msgpack" {
		return formatMsgpack
	}
	return formatJSON
}

// wsEnvelope wraps every outbound frame.
type wsEnvelope struct {
	Event string      `json:"event" msgpack:"event"`
	Data  interface{} `json:"data" msgpack:"data"`
}

// outbound carries one message in both encodings so each client gets the
// one it asked for.
type outbound struct {
	text   []byte
	binary []byte
}

func encodeEnvelope(event string, data interface{}) (outbound, error) {
	env := wsEnvelope{Event: event, Data: data}
	text, err := json.Marshal(&env)
	if err != nil {
		return outbound{}, err
	}
	binary, err := msgpack.Marshal(&env)
	if err != nil {
		return outbound{}, err
	}
	return outbound{text: text, binary: binary}, nil
}

type wsClient struct {
	conn   *websocket.Conn
	ip     string
	format wireFormat
}

// WebSocketHub fans snapshots out to connected clients and feeds their
// messages to the engine as input. Only Run writes to connections.
type WebSocketHub struct {
	engine EngineInterface

	clients    map[*websocket.Conn]*wsClient
	broadcast  chan outbound
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	limiter  *ConnLimiter
	upgrader websocket.Upgrader

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a hub. Origins are checked against policy.
func NewWebSocketHub(engine EngineInterface, policy *OriginPolicy) *WebSocketHub {
	h := &WebSocketHub{
		engine:     engine,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan outbound, 16),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		limiter:    NewConnLimiter(MaxWSConnectionsPerIP),
		stopChan:   make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if policy.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run owns the client set until Stop is called, then closes every
// connection.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, c := range h.clients {
				h.limiter.Release(c.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s as %s (%d total)", c.ip, c.format, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			if h.drop(conn) {
				count := h.ClientCount()
				log.Printf("📱 Client disconnected (%d remaining)", count)
				UpdateWSConnections(count)
			}

		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

func (h *WebSocketHub) send(msg outbound) {
	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		frameType, data := websocket.TextMessage, msg.text
		if c.format == formatMsgpack {
			frameType, data = websocket.BinaryMessage, msg.binary
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(frameType, data); err != nil {
			h.drop(c.conn)
			continue
		}
		IncrementWSMessages("out", c.format.String())
	}
	UpdateWSConnections(h.ClientCount())
}

// drop removes conn if it is still registered.
func (h *WebSocketHub) drop(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	h.limiter.Release(c.ip)
	delete(h.clients, conn)
	conn.Close()
	return true
}

// Stop ends Run and the broadcast loop. It is safe to call more than once.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// Broadcast queues an event for every client. It drops the event when the
// queue is full.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg, err := encodeEnvelope(event, data)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s broadcast: %v", event, err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop sends the latest snapshot ten times a second while
// anyone is listening.
func (h *WebSocketHub) StartBroadcastLoop() {
	ticker := time.NewTicker(broadcastInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			snap := h.engine.GetSnapshot()
			UpdateSnapshotGauges(snap.EnemyCount, len(snap.Particles))
			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast("game:state", &snap)
		}
	}()
}

// decodeInput reads a client frame as an input command. Text frames are
// JSON and binary frames are msgpack.
func decodeInput(frameType int, data []byte) (game.Input, wireFormat, error) {
	var in game.Input
	if frameType == websocket.BinaryMessage {
		return in, formatMsgpack, msgpack.Unmarshal(data, &in)
	}
	return in, formatJSON, json.Unmarshal(data, &in)
}

// HandleWebSocket upgrades the request and reads input commands until the
// client goes away.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.limiter.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your address", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade error: %v", err)
		h.limiter.Release(ip)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &wsClient{conn: conn, ip: ip, format: formatFromRequest(r)}
	select {
	case h.register <- c:
	case <-h.stopChan:
		h.limiter.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(c)
}

func (h *WebSocketHub) readLoop(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c.conn:
		case <-h.stopChan:
		}
	}()

	for {
		frameType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		in, format, err := decodeInput(frameType, data)
		if err != nil {
			log.Printf("⚠️ Bad input frame from %s: %v", c.ip, err)
			continue
		}
		IncrementWSMessages("in", format.String())
		h.engine.PushInput(in)
	}
}

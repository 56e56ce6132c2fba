package app

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	F "diesel.com/diesel/fluid"
	V "diesel.com/diesel/vector"
	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 4 //frames queued per client before dropping
	writeWait    = 5 * time.Second
)

//go:embed web/index.html
var indexHTML []byte

//snapshot is the wire form of a frame
type snapshot struct {
	Tick      uint64   `json:"tick"`
	Time      float64  `json:"time"`
	Saturated bool     `json:"saturated,omitempty"`
	Positions []V.Vec2 `json:"positions"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

//StreamHub broadcasts every frame as JSON to the connected websocket clients.
//A client that falls behind loses frames instead of slowing the solver.
type StreamHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	dropped uint64
}

func NewStreamHub() *StreamHub {
	return &StreamHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

//ServeHTTP upgrades the connection and registers the client
func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			F.Logger().Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		}
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	F.Logger().Info("stream client connected", "remote", r.RemoteAddr, "clients", n)

	go h.writeSocket(c)
	go h.readSocket(c)
}

//readSocket only watches for the peer going away
func (h *StreamHub) readSocket(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				F.Logger().Debug("stream client read", "err", err)
			}
			return
		}
	}
}

func (h *StreamHub) writeSocket(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
}

func (h *StreamHub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.once.Do(func() { close(c.send) })
}

//Draw encodes the frame once and queues it on every client
func (h *StreamHub) Draw(f Frame) error {
	msg, err := json.Marshal(snapshot{Tick: f.Tick, Time: f.Stats.Time, Saturated: f.Saturated, Positions: f.Positions})
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", f.Tick, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped++
		}
	}
	return nil
}

//Clients is the number of connected clients
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

//Dropped counts frames not delivered to slow clients
func (h *StreamHub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

//Close disconnects every client and refuses new ones
func (h *StreamHub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
	return nil
}

//Handler serves the viewer page at / and the stream at path, logging requests
func (h *StreamHub) Handler(path string) http.Handler {
	page := bytes.ReplaceAll(indexHTML, []byte("{{STREAM_PATH}}"), []byte(path))
	mux := http.NewServeMux()
	mux.Handle(path, h)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		F.Logger().Debug("http request", "remote", r.RemoteAddr, "method", r.Method, "url", r.URL.String())
		mux.ServeHTTP(w, r)
	})
}

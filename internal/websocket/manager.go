// Package websocket pushes re-rendered widget markup to browsers. Each
// connection subscribes to one session; publishing to a session fans the
// fragment out to every tab that session has open.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/validation"
)

const (
	sendBuffer   = 16
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Hub manages client connections and per-session broadcasting.
//
// Invariants:
//   - clients is mutated only by the hub goroutine, under clientsMutex
//   - a client's send channel is closed exactly once, by the hub
type Hub struct {
	clients      map[string]map[*Client]struct{}
	clientsMutex sync.RWMutex

	publish    chan Message
	register   chan *Client
	unregister chan *Client

	allowedOrigins []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewHub starts a hub. allowedOrigins follows validation.OriginAllowed.
func NewHub(allowedOrigins []string, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:        make(map[string]map[*Client]struct{}),
		publish:        make(chan Message, 256),
		register:       make(chan *Client, 32),
		unregister:     make(chan *Client, 32),
		allowedOrigins: allowedOrigins,
		logger:         logger.WithComponent("websocket"),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go h.runHub()
	return h
}

// ServeWS upgrades the request and subscribes the connection to session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, session string) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if !validation.OriginAllowed(origin, h.allowedOrigins, r.Host) {
		h.logger.Warn(r.Context(), nil, "WebSocket connection rejected: origin not allowed", "origin", origin)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// origin validated above
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, sendBuffer), session: session}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusServiceRestart, "Server shutting down")
		return
	}

	go h.writeToClient(client)
	h.readFromClient(client)
}

func (h *Hub) runHub() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clientsMutex.Lock()
			set := h.clients[c.session]
			if set == nil {
				set = make(map[*Client]struct{})
				h.clients[c.session] = set
			}
			set[c] = struct{}{}
			h.clientsMutex.Unlock()
			h.logger.Debug(h.ctx, "WebSocket client connected", "session", c.session)

		case c := <-h.unregister:
			h.removeClient(c)

		case msg := <-h.publish:
			h.clientsMutex.RLock()
			targets := make([]*Client, 0, len(h.clients[msg.Session]))
			for c := range h.clients[msg.Session] {
				targets = append(targets, c)
			}
			h.clientsMutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- msg.Data:
				default:
					// slow reader; drop it rather than stall every session
					h.removeClient(c)
				}
			}

		case <-h.ctx.Done():
			h.clientsMutex.Lock()
			for session, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, session)
			}
			h.clientsMutex.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMutex.Lock()
	set := h.clients[c.session]
	_, ok := set[c]
	if ok {
		delete(set, c)
		close(c.send)
		if len(set) == 0 {
			delete(h.clients, c.session)
		}
	}
	h.clientsMutex.Unlock()
	if ok {
		h.logger.Debug(h.ctx, "WebSocket client disconnected", "session", c.session)
	}
}

// readFromClient blocks until the peer goes away. Clients never send
// anything meaningful, reads only surface close frames.
func (h *Hub) readFromClient(c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
	}()
	for {
		if _, _, err := c.conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) writeToClient(c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// Publish queues data for every client of session. It never blocks.
func (h *Hub) Publish(session string, data []byte) {
	select {
	case h.publish <- Message{Session: session, Data: data}:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "Publish channel full, dropping update", "session", session)
	}
}

// ClientCount returns the number of connections subscribed to session.
func (h *Hub) ClientCount(session string) int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients[session])
}

// TotalClients returns the number of open connections.
func (h *Hub) TotalClients() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Shutdown closes every connection and stops the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(h.cancel)
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

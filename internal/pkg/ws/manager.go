package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/pkg/metrics"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Connection wraps websocket.Conn with metadata. Writes are serialized
// because gorilla connections support one concurrent writer.
type Connection struct {
	Conn   *websocket.Conn
	UserID string

	writeMu  sync.Mutex
	seenMu   sync.Mutex
	lastSeen time.Time
}

func (c *Connection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

func (c *Connection) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
}

func (c *Connection) touch() {
	c.seenMu.Lock()
	c.lastSeen = time.Now()
	c.seenMu.Unlock()
}

func (c *Connection) idleFor() time.Duration {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	return time.Since(c.lastSeen)
}

// Manager tracks the open push connections of every user
type Manager struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{} // userID -> set of connections
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]map[*Connection]struct{}),
	}
}

// Add registers a connection for a user
func (m *Manager) Add(userID string, conn *websocket.Conn) *Connection {
	c := &Connection{Conn: conn, UserID: userID, lastSeen: time.Now()}

	m.mu.Lock()
	if _, ok := m.connections[userID]; !ok {
		m.connections[userID] = make(map[*Connection]struct{})
	}
	m.connections[userID][c] = struct{}{}
	total := len(m.connections[userID])
	m.mu.Unlock()

	metrics.RealtimeConnections.WithLabelValues("websocket").Inc()
	slog.Debug("WS connected", "user_id", userID, "connections", total)
	return c
}

// Remove disconnects and removes a connection. Removing twice is harmless.
func (m *Manager) Remove(c *Connection) {
	m.mu.Lock()
	removed := false
	if conns, ok := m.connections[c.UserID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			removed = true
		}
		if len(conns) == 0 {
			delete(m.connections, c.UserID)
		}
	}
	m.mu.Unlock()

	_ = c.Conn.Close()
	if removed {
		metrics.RealtimeConnections.WithLabelValues("websocket").Dec()
		slog.Debug("WS disconnected", "user_id", c.UserID)
	}
}

// Send writes v as JSON to every connection of the user and returns how many
// writes succeeded. Connections that fail are dropped.
func (m *Manager) Send(userID string, v interface{}) int {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.connections[userID]))
	for c := range m.connections[userID] {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if err := c.writeJSON(v); err != nil {
			slog.Warn("WS send failed", "user_id", userID, "error", err)
			m.Remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Count returns the number of open connections for a user
func (m *Manager) Count(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[userID])
}

// Listen reads from c until the peer goes away, then removes it. Clients are
// not expected to send anything; reads only keep pong handling alive.
func (m *Manager) Listen(c *Connection) {
	defer m.Remove(c)

	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
		c.touch()
	}
}

// Heartbeat pings all connections periodically and drops the ones that
// stopped answering. It returns when ctx is cancelled.
func (m *Manager) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.RLock()
		var all []*Connection
		for _, conns := range m.connections {
			for c := range conns {
				all = append(all, c)
			}
		}
		m.mu.RUnlock()

		for _, c := range all {
			if c.idleFor() > 2*interval {
				m.Remove(c)
				continue
			}
			if err := c.ping(); err != nil {
				m.Remove(c)
			}
		}
	}
}

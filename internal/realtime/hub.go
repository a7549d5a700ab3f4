// Package realtime pushes game snapshots to subscribed websocket clients.
//
// Delivery is at-least-once, best effort: a slow client is dropped rather
// than allowed to stall the broadcast, and subscribers must tolerate
// repeated or skipped snapshots.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"bingo-server/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// snapshot is the change-notification payload sent to subscribers.
type snapshot struct {
	Type string      `json:"type"`
	Game *model.Game `json:"game"`
}

type client struct {
	conn *websocket.Conn
	send chan snapshot
}

// Hub holds a set of subscriber groups keyed by game id, so each game is
// its own isolated feed.
type Hub struct {
	mu    sync.Mutex
	games map[string]map[*client]struct{}
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{games: make(map[string]map[*client]struct{})}
}

// Publish broadcasts the updated game snapshot to every subscriber of
// gameID. Implements service.Publisher.
func (h *Hub) Publish(gameID string, game *model.Game) {
	msg := snapshot{Type: "game.updated", Game: game}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.games[gameID] {
		select {
		case c.send <- msg:
		default:
			// Client is not keeping up; drop it.
			h.removeLocked(gameID, c)
		}
	}
}

// Subscribe upgrades the request to a websocket and streams snapshots for
// gameID until the client disconnects. The initial snapshot, if provided,
// is sent immediately so new subscribers do not wait for the next change.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, gameID string, initial *model.Game) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan snapshot, sendBufferSize)}

	// Queue the initial snapshot before the client is visible to Publish.
	// Once registered, only the hub may touch c.send: a racing broadcast
	// could already have dropped the client and closed the channel.
	if initial != nil {
		c.send <- snapshot{Type: "game.snapshot", Game: initial}
	}

	h.mu.Lock()
	group, ok := h.games[gameID]
	if !ok {
		group = make(map[*client]struct{})
		h.games[gameID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(gameID, c)
	h.readPump(gameID, c)
}

// readPump discards inbound frames; the feed is one-way. It exists to
// notice disconnects and answer pings.
func (h *Hub) readPump(gameID string, c *client) {
	defer func() {
		h.mu.Lock()
		h.removeLocked(gameID, c)
		h.mu.Unlock()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(gameID string, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeLocked drops a client from a game's group. Callers hold h.mu.
func (h *Hub) removeLocked(gameID string, c *client) {
	group, ok := h.games[gameID]
	if !ok {
		return
	}
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	close(c.send)
	if len(group) == 0 {
		delete(h.games, gameID)
	}
}

// SubscriberCount returns the number of clients subscribed to gameID.
func (h *Hub) SubscriberCount(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.games[gameID])
}

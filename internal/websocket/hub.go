package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"graceqt-backend/internal/middleware"
	"graceqt-backend/internal/models"
)

const (
	presenceKey   = "graceqt:presence"
	eventsChannel = "graceqt:events"

	// A session missing heartbeats for presenceTTL no longer counts as online.
	presenceTTL     = 90 * time.Second
	heartbeatPeriod = 30 * time.Second
	writeWait       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type presenceStore interface {
	Touch(ctx context.Context, sessionID string, now time.Time) error
	Remove(ctx context.Context, sessionID string) error
	Count(ctx context.Context, now time.Time) (int64, error)
}

// redisPresence keeps one sorted-set member per session scored by its last
// heartbeat, so every instance sees the same online count.
type redisPresence struct {
	rdb *redis.Client
}

func (p redisPresence) Touch(ctx context.Context, sessionID string, now time.Time) error {
	return p.rdb.ZAdd(ctx, presenceKey, redis.Z{Score: float64(now.Unix()), Member: sessionID}).Err()
}

func (p redisPresence) Remove(ctx context.Context, sessionID string) error {
	return p.rdb.ZRem(ctx, presenceKey, sessionID).Err()
}

func (p redisPresence) Count(ctx context.Context, now time.Time) (int64, error) {
	cutoff := strconv.FormatInt(now.Add(-presenceTTL).Unix(), 10)

	pipe := p.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, presenceKey, "-inf", "("+cutoff)
	card := pipe.ZCard(ctx, presenceKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}

type client struct {
	conn      *websocket.Conn
	sessionID uuid.UUID
	mu        sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans presence counts and new-post events out to every open socket.
// Events travel through Redis pub/sub so all instances deliver them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	sessions map[uuid.UUID]int

	presence   presenceStore
	publisher  *redis.Client
	subscriber *redis.Client
}

func NewHub(cmd, pubsub *redis.Client) *Hub {
	return newHub(redisPresence{rdb: cmd}, cmd, pubsub)
}

func newHub(presence presenceStore, publisher, subscriber *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		sessions:   make(map[uuid.UUID]int),
		presence:   presence,
		publisher:  publisher,
		subscriber: subscriber,
	}
}

// Start runs the event subscription and the presence heartbeat until ctx is
// cancelled.
func (h *Hub) Start(ctx context.Context) {
	if h.subscriber != nil {
		go h.subscribe(ctx)
	}
	go h.heartbeat(ctx)
}

// HandleWebSocket expects the session middleware to have run.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == uuid.Nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[presence] websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, sessionID: sessionID}
	h.register(c)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregister(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			// Any client frame counts as a heartbeat.
			h.touch(context.Background(), c.sessionID)
		}
	}()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.sessions[c.sessionID]++
	total := len(h.clients)
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	h.touch(ctx, c.sessionID)
	h.publishPresence(ctx)

	log.Printf("[presence] connected: session %s (local sockets: %d)", c.sessionID, total)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.sessions[c.sessionID]--
	gone := h.sessions[c.sessionID] <= 0
	if gone {
		delete(h.sessions, c.sessionID)
	}
	h.mu.Unlock()

	c.conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if gone {
		if err := h.presence.Remove(ctx, c.sessionID.String()); err != nil {
			log.Printf("[presence] failed to remove session %s: %v", c.sessionID, err)
		}
	}
	h.publishPresence(ctx)

	log.Printf("[presence] disconnected: session %s", c.sessionID)
}

func (h *Hub) touch(ctx context.Context, sessionID uuid.UUID) {
	if err := h.presence.Touch(ctx, sessionID.String(), time.Now()); err != nil {
		log.Printf("[presence] heartbeat failed for %s: %v", sessionID, err)
	}
}

func (h *Hub) publishPresence(ctx context.Context) {
	online, err := h.presence.Count(ctx, time.Now())
	if err != nil {
		log.Printf("[presence] count failed: %v", err)
		return
	}
	msg := models.WSMessage{Type: models.WSTypePresence, Payload: models.PresenceUpdate{Online: online}}
	if err := h.Publish(ctx, msg); err != nil {
		log.Printf("[presence] publish failed: %v", err)
	}
}

// Online reports the current shared online count.
func (h *Hub) Online(ctx context.Context) (int64, error) {
	return h.presence.Count(ctx, time.Now())
}

// Publish delivers msg to every socket on every instance. Without a Redis
// publisher it only reaches this instance's sockets.
func (h *Hub) Publish(ctx context.Context, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if h.publisher == nil {
		h.broadcast(data)
		return nil
	}
	return h.publisher.Publish(ctx, eventsChannel, data).Err()
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.subscriber.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			sessions := make([]uuid.UUID, 0, len(h.sessions))
			for sid := range h.sessions {
				sessions = append(sessions, sid)
			}
			h.mu.RUnlock()

			for _, sid := range sessions {
				h.touch(ctx, sid)
			}
			// Other instances' stale sessions expire here too.
			h.publishPresence(ctx)
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			go h.unregister(c)
		}
	}
}

// Close drops every local socket.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.unregister(c)
	}
}

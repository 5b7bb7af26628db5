package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graceqt-backend/internal/middleware"
	"graceqt-backend/internal/models"
)

type memoryPresence struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newMemoryPresence() *memoryPresence {
	return &memoryPresence{seen: make(map[string]time.Time)}
}

func (p *memoryPresence) Touch(_ context.Context, sessionID string, now time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[sessionID] = now
	return nil
}

func (p *memoryPresence) Remove(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, sessionID)
	return nil
}

func (p *memoryPresence) Count(_ context.Context, now time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n int64
	for _, at := range p.seen {
		if now.Sub(at) < presenceTTL {
			n++
		}
	}
	return n, nil
}

func withSession(sessionID uuid.UUID, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.SessionIDKey, sessionID)
		next(w, r.WithContext(ctx))
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_PresenceAndBroadcast(t *testing.T) {
	presence := newMemoryPresence()
	hub := newHub(presence, nil, nil)
	srv := httptest.NewServer(withSession(uuid.New(), hub.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv)

	msg := readMessage(t, conn)
	assert.Equal(t, models.WSTypePresence, msg["type"])
	assert.Equal(t, float64(1), msg["payload"].(map[string]any)["online"])

	require.NoError(t, hub.Publish(context.Background(), models.WSMessage{
		Type:    models.WSTypeQTCreated,
		Payload: map[string]string{"nickname": "새벽"},
	}))

	msg = readMessage(t, conn)
	assert.Equal(t, models.WSTypeQTCreated, msg["type"])

	conn.Close()
	assert.Eventually(t, func() bool {
		n, _ := hub.Online(context.Background())
		return n == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHub_SameSessionCountsOnce(t *testing.T) {
	presence := newMemoryPresence()
	hub := newHub(presence, nil, nil)
	sid := uuid.New()
	srv := httptest.NewServer(withSession(sid, hub.HandleWebSocket))
	defer srv.Close()

	first := dial(t, srv)
	readMessage(t, first)

	second := dial(t, srv)
	msg := readMessage(t, second)
	assert.Equal(t, float64(1), msg["payload"].(map[string]any)["online"])

	// Closing one tab keeps the session online.
	first.Close()
	msg = readMessage(t, second)
	assert.Equal(t, float64(1), msg["payload"].(map[string]any)["online"])
}

func TestHub_RejectsMissingSession(t *testing.T) {
	hub := newHub(newMemoryPresence(), nil, nil)

	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

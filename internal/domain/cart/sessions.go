// internal/domain/cart/sessions.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// sweepEvery bounds how often idle session entries are swept out
const sweepEvery = 5 * time.Minute

// Sessions owns one Store per browser session and keeps a best-effort
// Redis snapshot behind each so a cart survives a process restart.
// Persistence failures degrade to an in-memory cart and are never
// surfaced to the caller.
type Sessions struct {
	mu          sync.Mutex
	entries     map[string]*sessionEntry
	lastSweep   time.Time
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
}

// sessionEntry guards one session's store. The once gate holds every
// caller until the first-access rehydration has finished, so a transition
// dispatched by a concurrent request can never be replaced by the
// snapshot restore.
type sessionEntry struct {
	once     sync.Once
	store    *Store
	lastSeen time.Time
}

// NewSessions creates a session cart registry. The Redis client may be nil,
// in which case carts are purely in-memory.
func NewSessions(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *Sessions {
	return &Sessions{
		entries:     make(map[string]*sessionEntry),
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// Get returns the cart store for a session, rehydrating it from the
// persisted snapshot on first access. The store is handed out only after
// rehydration completes; concurrent callers wait rather than observing a
// store that is about to be replaced.
func (m *Sessions) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	m.sweepLocked()
	entry, ok := m.entries[sessionID]
	if !ok {
		entry = &sessionEntry{store: NewStore()}
		m.entries[sessionID] = entry
	}
	entry.lastSeen = time.Now()
	m.mu.Unlock()

	entry.once.Do(func() {
		if snapshot, ok := m.loadSnapshot(ctx, sessionID); ok {
			entry.store.Restore(snapshot)
		}
	})

	return entry.store
}

// Persist writes the current snapshot for a session. Best-effort: failures
// are logged and dropped.
func (m *Sessions) Persist(ctx context.Context, sessionID string) {
	if m.redisClient == nil {
		return
	}

	m.mu.Lock()
	entry, ok := m.entries[sessionID]
	m.mu.Unlock()
	if !ok {
		return
	}

	state := entry.store.Snapshot()
	snapshot := Snapshot{
		SessionID: sessionID,
		Items:     state.Items,
		IsOpen:    state.IsOpen,
		UpdatedAt: time.Now().UTC().Unix(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to encode cart snapshot")
		return
	}

	if err := m.redisClient.Set(ctx, cartKey(sessionID), data, m.ttl).Err(); err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to persist cart snapshot")
	}
}

// Drop forgets a session's cart in memory and in Redis
func (m *Sessions) Drop(ctx context.Context, sessionID string) {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()

	if m.redisClient == nil {
		return
	}
	if err := m.redisClient.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to delete cart snapshot")
	}
}

// sweepLocked evicts entries idle past the session TTL. A swept cart is
// not lost: its snapshot stays in Redis and the next access rehydrates it.
func (m *Sessions) sweepLocked() {
	now := time.Now()
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now

	for sessionID, entry := range m.entries {
		if now.Sub(entry.lastSeen) > m.ttl {
			delete(m.entries, sessionID)
		}
	}
}

func (m *Sessions) loadSnapshot(ctx context.Context, sessionID string) (Snapshot, bool) {
	if m.redisClient == nil {
		return Snapshot{}, false
	}

	data, err := m.redisClient.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		return Snapshot{}, false
	} else if err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to load cart snapshot")
		return Snapshot{}, false
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Warn("Discarding corrupt cart snapshot")
		return Snapshot{}, false
	}

	return snapshot, true
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

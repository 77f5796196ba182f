package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StateOTPRequested = "OtpRequested"
	SessionTTL        = 15 * time.Minute
)

type Session struct {
	State       string    `json:"state"`
	RequestedAt time.Time `json:"requested_at"`
}

type SessionStore interface {
	Put(ctx context.Context, userID, orderID string, s Session) error
	Get(ctx context.Context, userID, orderID string) (Session, error)
	Delete(ctx context.Context, userID, orderID string) error
}

func sessionKey(userID, orderID string) string {
	return fmt.Sprintf("cancel:%s:%s", userID, orderID)
}

type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client, ttl: SessionTTL}
}

func (r *RedisSessions) Put(ctx context.Context, userID, orderID string, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(userID, orderID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in Redis: %w", err)
	}
	return nil
}

func (r *RedisSessions) Get(ctx context.Context, userID, orderID string) (Session, error) {
	data, err := r.client.Get(ctx, sessionKey(userID, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, nil
}

func (r *RedisSessions) Delete(ctx context.Context, userID, orderID string) error {
	return r.client.Del(ctx, sessionKey(userID, orderID)).Err()
}

// MemorySessions keeps sessions in process, for tests and the in-memory mode.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]Session), now: time.Now}
}

func (m *MemorySessions) Put(_ context.Context, userID, orderID string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(userID, orderID)] = s
	return nil
}

func (m *MemorySessions) Get(_ context.Context, userID, orderID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(userID, orderID)
	s, ok := m.sessions[key]
	if !ok {
		return Session{}, ErrNoSession
	}
	if m.now().Sub(s.RequestedAt) >= SessionTTL {
		delete(m.sessions, key)
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *MemorySessions) Delete(_ context.Context, userID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(userID, orderID))
	return nil
}

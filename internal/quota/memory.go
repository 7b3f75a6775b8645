package quota

import (
	"context"
	"sync"
	"time"

	"github.com/opencaselaw/cite/internal/model"
)

// MemoryStore is an in-process quota Store with a mutex per session record.
// Used when no Redis address is configured, and in tests. Unlike the Redis
// store it has no expiry policy; records live for the process lifetime,
// which is acceptable for single-instance development deployments.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

type memorySession struct {
	mu     sync.Mutex
	record model.QuotaSession
}

// NewMemoryStore creates an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

// session returns the record for key, creating it if needed. The registry
// lock is held only for the map access; callers lock the record itself.
func (s *MemoryStore) session(key string, create bool) *memorySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		if !create {
			return nil
		}
		sess = &memorySession{}
		s.sessions[key] = sess
	}
	return sess
}

// Exists reports whether the session carries a quota entry.
func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	return s.session(key, false) != nil, nil
}

// Init creates the session with the full allowance.
func (s *MemoryStore) Init(_ context.Context, key string, allowance int, now time.Time) error {
	sess := s.session(key, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.record = model.QuotaSession{Remaining: allowance, LastUpdated: now}
	return nil
}

// CheckAndDecrement applies the daily reset and consumes one unit of
// allowance under the per-session lock.
func (s *MemoryStore) CheckAndDecrement(_ context.Context, key string, now time.Time, allowance int) (bool, int, error) {
	sess := s.session(key, true)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A zero LastUpdated means the record was just created; treat it as a
	// fresh full-allowance session.
	if sess.record.LastUpdated.IsZero() || now.Sub(sess.record.LastUpdated) >= ResetInterval {
		sess.record.Remaining = allowance
		sess.record.LastUpdated = now
	}

	if sess.record.Remaining > 0 {
		sess.record.Remaining--
		return true, sess.record.Remaining, nil
	}
	return false, 0, nil
}

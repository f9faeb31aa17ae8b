package chat

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

const visitorKeyName = "ppg_user_key"

// newVisitorKey returns a random opaque identifier, falling back to a
// timestamp plus pseudo-random suffix when the crypto source fails.
func newVisitorKey(now time.Time) string {
	if id, err := uuid.NewRandom(); err == nil {
		return "user_" + id.String()
	}
	return fallbackVisitorKey(now)
}

func fallbackVisitorKey(now time.Time) string {
	return fmt.Sprintf("user_%d_%06x", now.UnixMilli(), rand.IntN(1<<24))
}

// VisitorKey returns the visitor identity for this storage scope, creating
// and persisting one on first use. If the store cannot be written the key is
// kept in memory for the Manager's lifetime.
func (m *Manager) VisitorKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visitorKeyLocked()
}

func (m *Manager) visitorKeyLocked() string {
	if m.visitorKey != "" {
		return m.visitorKey
	}

	if v, ok, err := m.store.Get(visitorKeyName); err != nil {
		m.logger.Debug("chat: reading visitor key failed", "error", err)
	} else if ok && strings.TrimSpace(v) != "" {
		m.visitorKey = v
		return v
	}

	key := m.newID(m.now())
	if err := m.store.Set(visitorKeyName, key); err != nil {
		m.logger.Debug("chat: persisting visitor key failed, keeping it in memory", "error", err)
	}
	m.visitorKey = key
	return key
}

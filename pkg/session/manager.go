// Package session keeps process-wide, in-memory, TTL-bounded multi-turn
// dialogue state (spec §4.5), grounded on
// original_source/src/api/session.py's SessionManager/ConversationSession
// pair and adapted to a single sync.Mutex guarding one map, the
// minimal-critical-section discipline spec §5 requires.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rayied/cora/pkg/models"
)

// Manager owns the process's session map.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	maxTurns int
}

func New(ttl time.Duration, maxTurns int) *Manager {
	return &Manager{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		maxTurns: maxTurns,
	}
}

func (m *Manager) expired(s *models.Session, now time.Time) bool {
	return now.Sub(s.LastSeenAt) > m.ttl
}

// GetOrCreate returns the session for id, allocating a fresh one (with a
// new UUID) if id is empty, unknown, or expired (spec §4.5).
func (m *Manager) GetOrCreate(id string) (*models.Session, bool) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok && !m.expired(s, now) {
			return s, false
		}
		delete(m.sessions, id)
	}

	s := &models.Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	m.sessions[s.ID] = s
	return s, true
}

// AppendExchange pushes a user turn and its assistant reply onto the
// session as one atomic operation, updating LastSeenAt once. Both turns
// are appended under a single critical section so a concurrent History
// read, or a second request sharing the same session id, can never
// observe just one half of the exchange (spec §3's "turns alternate
// beginning with user" invariant, and spec §5's interleaved-half-turns
// prohibition).
func (m *Manager) AppendExchange(id string, userContent, assistantContent string) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}
	s.Turns = append(s.Turns,
		models.Turn{Role: models.RoleUser, Content: userContent, TS: now},
		models.Turn{Role: models.RoleAssistant, Content: assistantContent, TS: now},
	)
	s.LastSeenAt = now
}

// History returns the last 2*maxTurns turns in chronological order, or
// the manager's default maxTurns when maxTurns <= 0.
func (m *Manager) History(id string, maxTurns int) []models.Turn {
	if maxTurns <= 0 {
		maxTurns = m.maxTurns
	}
	limit := 2 * maxTurns

	m.mu.Lock()
	s, ok := m.sessions[id]
	var snapshot []models.Turn
	if ok {
		snapshot = append(snapshot, s.Turns...)
	}
	m.mu.Unlock()

	if len(snapshot) > limit {
		snapshot = snapshot[len(snapshot)-limit:]
	}
	return snapshot
}

// Sweep removes every session whose last activity exceeds the TTL,
// returning the number of sessions removed.
func (m *Manager) Sweep() int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Count reports the number of sessions held, without sweeping; expired
// sessions not yet swept are included.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

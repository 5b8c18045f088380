package repository

import (
	"sort"
	"sync"
	"time"

	"flashdeck/internal/models"
	"flashdeck/internal/study"
)

// MemorySessionStore keeps live study sessions in process memory.
// Sessions are lost on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*study.Session
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*study.Session)}
}

// Save stores a copy of the session
func (m *MemorySessionStore) Save(s *study.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

// Get returns a copy of the stored session
func (m *MemorySessionStore) Get(id string) (*study.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// List returns sessions, most recently active first
func (m *MemorySessionStore) List(limit int) ([]study.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]study.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, *cloneSession(s))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	if limit >= 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// Delete removes a session; deleting a missing session is not an error
func (m *MemorySessionStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// DeleteIdle removes sessions not updated since before
func (m *MemorySessionStore) DeleteIdle(before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func cloneSession(s *study.Session) *study.Session {
	c := *s
	if s.Cards != nil {
		c.Cards = make([]models.Card, len(s.Cards))
		copy(c.Cards, s.Cards)
	}
	c.State.Active = cloneInts(s.State.Active)
	c.State.Retry = cloneInts(s.State.Retry)
	if s.State.Current != nil {
		cur := *s.State.Current
		c.State.Current = &cur
	}
	return &c
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

package chat

import (
	"slices"
	"sync"
	"time"
)

// maxStoredMessages bounds the per-session transcript kept in memory.
const maxStoredMessages = 100

type session struct {
	messages []Message
	lastSeen time.Time
}

// historyStore keeps transcripts in memory, keyed by auth session. Nothing is persisted.
type historyStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newHistoryStore() *historyStore {
	return &historyStore{sessions: make(map[string]*session)}
}

// recent returns up to n of the newest messages of the session.
func (h *historyStore) recent(sessionID string, n int) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok || n <= 0 {
		return nil
	}
	start := max(len(s.messages)-n, 0)
	return slices.Clone(s.messages[start:])
}

func (h *historyStore) all(sessionID string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[sessionID]; ok {
		return slices.Clone(s.messages)
	}
	return []Message{}
}

func (h *historyStore) append(sessionID string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[sessionID]
	if !ok {
		s = &session{}
		h.sessions[sessionID] = s
	}
	s.messages = append(s.messages, msg)
	if over := len(s.messages) - maxStoredMessages; over > 0 {
		s.messages = slices.Delete(s.messages, 0, over)
	}
	s.lastSeen = msg.Timestamp
}

func (h *historyStore) forget(sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

// prune drops sessions idle since before cutoff and reports how many were removed.
func (h *historyStore) prune(cutoff time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, s := range h.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(h.sessions, id)
			removed++
		}
	}
	return removed
}

func (h *historyStore) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

package service

import (
	"sync"

	"webchat-bridge/internal/domain/entity"
)

const DefaultHistoryCapacity = 10

// History is a bounded conversation log. When full, the oldest entry is
// evicted first.
type History struct {
	mu       sync.Mutex
	capacity int
	entries  []entity.HistoryEntry
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		entries:  make([]entity.HistoryEntry, 0, capacity+1),
	}
}

func (h *History) Append(role entity.MessageRole, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entity.HistoryEntry{Role: role, Content: content})
	if over := len(h.entries) - h.capacity; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Snapshot returns a copy; mutating it does not affect the buffer.
func (h *History) Snapshot() []entity.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]entity.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}

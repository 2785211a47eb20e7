package pipeline

import (
	"time"

	"github.com/google/uuid"

	"credit_analysis/pkg/core/scoring"
)

// HistoryCapacity is the number of successful results retained.
const HistoryCapacity = 10

// HistoryEntry is one successful run in the history.
type HistoryEntry struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Score     scoring.Result `json:"score"`
}

// History is a fixed-capacity ring buffer. The oldest entry is evicted on
// overflow. Not safe for concurrent use; the Orchestrator guards it.
type History struct {
	entries []HistoryEntry
	start   int
	size    int
}

// NewHistory returns an empty buffer holding up to capacity entries.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{entries: make([]HistoryEntry, capacity)}
}

// Push appends e, evicting the oldest entry when full.
func (h *History) Push(e HistoryEntry) {
	capacity := len(h.entries)
	if h.size < capacity {
		h.entries[(h.start+h.size)%capacity] = e
		h.size++
		return
	}
	h.entries[h.start] = e
	h.start = (h.start + 1) % capacity
}

// Entries returns a copy ordered oldest to newest.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.entries[(h.start+i)%len(h.entries)]
	}
	return out
}

// Len returns the number of entries held.
func (h *History) Len() int { return h.size }

// Clear drops every entry.
func (h *History) Clear() {
	clear(h.entries)
	h.start, h.size = 0, 0
}

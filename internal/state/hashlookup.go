package state

import (
	"sync"

	"github.com/resbox/resbox-core/internal/util"
)

// HashLookup maps advertised session hashes back to session ids.
type HashLookup struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewHashLookup() *HashLookup {
	return &HashLookup{entries: make(map[string]string)}
}

// Rebuild indexes every id in sessionIDs under salt. Entries for other
// salts are kept.
func (h *HashLookup) Rebuild(sessionIDs []string, salt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range sessionIDs {
		h.entries[util.SessionHash(id, salt)] = id
	}
}

// Index adds sessionID under each of salts.
func (h *HashLookup) Index(sessionID string, salts ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, salt := range salts {
		h.entries[util.SessionHash(sessionID, salt)] = sessionID
	}
}

func (h *HashLookup) Resolve(hash string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	id, ok := h.entries[hash]
	return id, ok
}

func (h *HashLookup) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

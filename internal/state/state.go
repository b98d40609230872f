// Package state holds the caches shared by the orchestrator, the hub push
// handlers and the UI bridge. Each cache has its own lock; there is no
// snapshot across caches.
package state

import "sync/atomic"

type AppState struct {
	Contacts   *Contacts
	Messages   *Messages
	Statuses   *Statuses
	Sessions   *Sessions
	HashLookup *HashLookup

	dirty   atomic.Bool
	dirtyCh chan struct{}
}

func New() *AppState {
	return &AppState{
		Contacts:   NewContacts(),
		Messages:   NewMessages(),
		Statuses:   NewStatuses(),
		Sessions:   NewSessions(),
		HashLookup: NewHashLookup(),
		dirtyCh:    make(chan struct{}, 1),
	}
}

// MarkDirty flags that the UI should repaint. Repeated calls before the
// flag is taken coalesce into one signal.
func (s *AppState) MarkDirty() {
	s.dirty.Store(true)
	select {
	case s.dirtyCh <- struct{}{}:
	default:
	}
}

// Dirty is signalled at most once per pending MarkDirty batch.
func (s *AppState) Dirty() <-chan struct{} {
	return s.dirtyCh
}

// TakeDirty reads and clears the refresh flag.
func (s *AppState) TakeDirty() bool {
	return s.dirty.Swap(false)
}

package state

import (
	"sort"
	"sync"

	"github.com/resbox/resbox-core/internal/model"
)

type Statuses struct {
	mu    sync.RWMutex
	items map[string]model.UserStatus
}

func NewStatuses() *Statuses {
	return &Statuses{items: make(map[string]model.UserStatus)}
}

// Put upserts status under its user id.
func (s *Statuses) Put(status model.UserStatus) {
	s.mu.Lock()
	s.items[status.UserID] = status
	s.mu.Unlock()
}

func (s *Statuses) Get(userID string) (model.UserStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.items[userID]
	return status, ok
}

func (s *Statuses) List() []model.UserStatus {
	s.mu.RLock()
	out := make([]model.UserStatus, 0, len(s.items))
	for _, status := range s.items {
		out = append(out, status)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Salts returns the distinct hash salts of the cached statuses.
func (s *Statuses) Salts() []string {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, status := range s.items {
		if status.HashSalt != nil && *status.HashSalt != "" {
			seen[*status.HashSalt] = struct{}{}
		}
	}
	s.mu.RUnlock()

	salts := make([]string, 0, len(seen))
	for salt := range seen {
		salts = append(salts, salt)
	}
	sort.Strings(salts)
	return salts
}

type Sessions struct {
	mu    sync.RWMutex
	items map[string]model.SessionInfo
}

func NewSessions() *Sessions {
	return &Sessions{items: make(map[string]model.SessionInfo)}
}

func (s *Sessions) Put(session model.SessionInfo) {
	s.mu.Lock()
	s.items[session.SessionID] = session
	s.mu.Unlock()
}

func (s *Sessions) Get(sessionID string) (model.SessionInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.items[sessionID]
	return session, ok
}

func (s *Sessions) List() []model.SessionInfo {
	s.mu.RLock()
	out := make([]model.SessionInfo, 0, len(s.items))
	for _, session := range s.items {
		out = append(out, session)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

func (s *Sessions) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

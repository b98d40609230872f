package state

import (
	"sort"
	"sync"

	"github.com/resbox/resbox-core/internal/model"
)

// Messages buckets conversation history by peer id. A bucket never shrinks
// and stays sorted ascending by last-update time.
type Messages struct {
	mu      sync.RWMutex
	buckets map[string][]model.Message
}

func NewMessages() *Messages {
	return &Messages{buckets: make(map[string][]model.Message)}
}

// PeerOf returns the conversation partner a message is filed under.
func PeerOf(m model.Message) string {
	if m.OtherID != "" {
		return m.OtherID
	}
	if m.SenderID == m.OwnerID {
		return m.RecipientID
	}
	return m.SenderID
}

// Merge upserts msgs by id into their peer buckets and returns the peers
// whose buckets changed, sorted.
func (m *Messages) Merge(msgs []model.Message) []string {
	if len(msgs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	touched := make(map[string]struct{})
	for _, msg := range msgs {
		peer := PeerOf(msg)
		if peer == "" {
			continue
		}
		m.buckets[peer] = upsert(m.buckets[peer], msg)
		touched[peer] = struct{}{}
	}

	peers := make([]string, 0, len(touched))
	for peer := range touched {
		bucket := m.buckets[peer]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].LastUpdateTime.Before(bucket[j].LastUpdateTime.Time)
		})
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}

func upsert(bucket []model.Message, msg model.Message) []model.Message {
	if msg.ID != "" {
		for i := range bucket {
			if bucket[i].ID == msg.ID {
				bucket[i] = msg
				return bucket
			}
		}
	}
	return append(bucket, msg)
}

// Peer returns a copy of the conversation with peerID.
func (m *Messages) Peer(peerID string) []model.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.buckets[peerID]
	out := make([]model.Message, len(bucket))
	copy(out, bucket)
	return out
}

func (m *Messages) Peers() []string {
	m.mu.RLock()
	peers := make([]string, 0, len(m.buckets))
	for peer := range m.buckets {
		peers = append(peers, peer)
	}
	m.mu.RUnlock()
	sort.Strings(peers)
	return peers
}

// Unread counts messages from peerID that have no read time.
func (m *Messages) Unread(peerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, msg := range m.buckets[peerID] {
		if msg.SenderID == peerID && !msg.IsRead() {
			n++
		}
	}
	return n
}

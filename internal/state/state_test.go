package state

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resbox/resbox-core/internal/model"
	"github.com/resbox/resbox-core/internal/util"
)

func TestAppState_Dirty(t *testing.T) {
	s := New()
	assert.False(t, s.TakeDirty())

	s.MarkDirty()
	s.MarkDirty()

	select {
	case <-s.Dirty():
	default:
		t.Fatal("expected a refresh signal")
	}
	select {
	case <-s.Dirty():
		t.Fatal("signals should coalesce")
	default:
	}

	assert.True(t, s.TakeDirty())
	assert.False(t, s.TakeDirty())
}

func TestContacts_Replace(t *testing.T) {
	c := NewContacts()
	c.Replace("U-me", []model.Contact{
		{ID: "U-a", ContactUsername: "bob"},
		{ID: "U-b", ContactUsername: "alice"},
	})
	c.Replace("U-other", []model.Contact{{ID: "U-c", ContactUsername: "carol"}})
	require.Equal(t, 3, c.Len())

	got, ok := c.Get("U-a")
	require.True(t, ok)
	assert.Equal(t, "U-me", got.OwnerID)

	list := c.List()
	assert.Equal(t, "alice", list[0].ContactUsername)

	c.Replace("U-me", []model.Contact{{ID: "U-d", ContactUsername: "dave"}})
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("U-a")
	assert.False(t, ok)
	_, ok = c.Get("U-c")
	assert.True(t, ok)
}

func TestStatuses(t *testing.T) {
	s := NewStatuses()
	salt := "abc"
	s.Put(model.UserStatus{UserID: "U-b", HashSalt: &salt})
	s.Put(model.UserStatus{UserID: "U-a", HashSalt: &salt})
	s.Put(model.UserStatus{UserID: "U-c"})

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "U-a", list[0].UserID)
	assert.Equal(t, []string{"abc"}, s.Salts())

	s.Put(model.UserStatus{UserID: "U-a", AppVersion: "new"})
	got, ok := s.Get("U-a")
	require.True(t, ok)
	assert.Equal(t, "new", got.AppVersion)
}

func TestSessions(t *testing.T) {
	s := NewSessions()
	s.Put(model.SessionInfo{SessionID: "s2", Name: "two"})
	s.Put(model.SessionInfo{SessionID: "s1", Name: "one"})
	s.Put(model.SessionInfo{SessionID: "s2", Name: "two again"})

	assert.Equal(t, []string{"s1", "s2"}, s.IDs())
	got, ok := s.Get("s2")
	require.True(t, ok)
	assert.Equal(t, "two again", got.Name)
	assert.Len(t, s.List(), 2)
}

func TestHashLookup(t *testing.T) {
	t.Run("status salt indexes cached sessions", func(t *testing.T) {
		h := NewHashLookup()
		h.Rebuild([]string{"s1"}, "abc")

		want := strings.ToUpper(util.SHA256Hex([]byte("s1abc")))
		id, ok := h.Resolve(want)
		require.True(t, ok)
		assert.Equal(t, "s1", id)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("entries from several salts accumulate", func(t *testing.T) {
		h := NewHashLookup()
		h.Rebuild([]string{"s1", "s2"}, "abc")
		h.Rebuild([]string{"s1", "s2"}, "xyz")
		assert.Equal(t, 4, h.Len())
	})

	t.Run("index single session", func(t *testing.T) {
		h := NewHashLookup()
		h.Index("s9", "abc", "xyz")
		id, ok := h.Resolve(util.SessionHash("s9", "xyz"))
		require.True(t, ok)
		assert.Equal(t, "s9", id)
		_, ok = h.Resolve("unknown")
		assert.False(t, ok)
	})
}

func TestAppState_ConcurrentWriters(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Statuses.Put(model.UserStatus{UserID: "U-a"})
				s.HashLookup.Rebuild(s.Sessions.IDs(), "salt")
				s.Sessions.Put(model.SessionInfo{SessionID: "s"})
				s.Messages.Merge([]model.Message{msg("", "U-me", "U-a", j)})
				s.MarkDirty()
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Messages.Peer("U-a"), 400)
	assert.True(t, s.TakeDirty())
}

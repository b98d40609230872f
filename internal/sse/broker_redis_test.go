package sse

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/resbox/resbox-core/internal/redis"
)

func newRedisBroker(t *testing.T) (*Broker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &redisclient.Client{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = client.Close() })
	return NewBroker(client), mr
}

func waitForSubscribers(t *testing.T, mr *miniredis.Miniredis, topic string, want int) {
	t.Helper()
	channel := redisclient.EventChannel(topic)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroker_RedisDeliversOnce(t *testing.T) {
	b, mr := newRedisBroker(t)
	defer b.Close()

	client := b.Subscribe("ui")
	waitForSubscribers(t, mr, "ui", 1)

	ev, err := NewEvent("hub-connected", map[string]string{"userId": "U-me"})
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), "ui", ev))

	select {
	case got := <-client.Events:
		assert.Equal(t, "hub-connected", got.Type)
		assert.JSONEq(t, `{"userId":"U-me"}`, string(got.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("expected event")
	}
}

func TestBroker_RedisResubscribeDoesNotDuplicate(t *testing.T) {
	b, mr := newRedisBroker(t)
	defer b.Close()

	first := b.Subscribe("ui")
	waitForSubscribers(t, mr, "ui", 1)
	b.Unsubscribe(first)
	waitForSubscribers(t, mr, "ui", 0)

	second := b.Subscribe("ui")
	waitForSubscribers(t, mr, "ui", 1)

	require.NoError(t, b.Publish(context.Background(), "ui", Event{Type: "refresh"}))

	select {
	case <-second.Events:
	case <-time.After(2 * time.Second):
		t.Fatal("expected event")
	}
	select {
	case ev := <-second.Events:
		t.Fatalf("event delivered twice: %s", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

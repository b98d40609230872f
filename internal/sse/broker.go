package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/resbox/resbox-core/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
	clientBufferSize  = 100
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an Event of the given type.
func NewEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return Event{Type: eventType, Data: raw}, nil
}

type Client struct {
	Topic  string
	Events chan Event
	Done   chan struct{}
}

// Broker fans events out to subscribers of a topic. With a redis client
// events travel through redis pub/sub so several processes can share a
// stream; without one they are delivered in-process.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool   // topic -> set of clients
	relays  map[string]context.CancelFunc // topic -> redis subscription
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		relays:  make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(topic string) *Client {
	client := &Client{
		Topic:  topic,
		Events: make(chan Event, clientBufferSize),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[topic] == nil {
		b.clients[topic] = make(map[*Client]bool)
		if b.redis != nil {
			relayCtx, cancel := context.WithCancel(b.ctx)
			b.relays[topic] = cancel
			b.wg.Add(1)
			go b.subscribeToRedis(relayCtx, topic)
		}
	}
	b.clients[topic][client] = true
	clientCount := len(b.clients[topic])
	b.mu.Unlock()

	log.Info().
		Str("topic", topic).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.Topic]; ok {
		if _, present := clients[client]; !present {
			return
		}
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.Topic)
			// The next subscriber starts a fresh relay.
			if cancel, ok := b.relays[client.Topic]; ok {
				cancel()
				delete(b.relays, client.Topic)
			}
		}

		log.Info().
			Str("topic", client.Topic).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

func (b *Broker) Publish(ctx context.Context, topic string, event Event) error {
	if b.redis == nil {
		b.broadcast(topic, event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.redis.Publish(ctx, redisclient.EventChannel(topic), data).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, topic string) {
	defer b.wg.Done()

	channel := redisclient.EventChannel(topic)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("topic", topic).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok || ctx.Err() != nil {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(topic, event)
		}
	}
}

func (b *Broker) broadcast(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients[topic] {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("topic", topic).
				Str("type", event.Type).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
	b.relays = make(map[string]context.CancelFunc)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Broker) ClientCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[topic])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}

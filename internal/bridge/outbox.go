package bridge

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/backend"
)

// outbox queues follow-up commands while Run owns the event stream, so a
// full command queue never stalls event processing. Order is preserved.
type outbox struct {
	mu     sync.Mutex
	queue  []backend.Command
	active bool
	wake   chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

// dispatch hands cmds to the pump when one runs and sends them inline
// otherwise.
func (b *Bridge) dispatch(cmds []backend.Command) {
	if len(cmds) == 0 {
		return
	}
	b.out.mu.Lock()
	if !b.out.active {
		b.out.mu.Unlock()
		for _, cmd := range cmds {
			b.send(cmd)
		}
		return
	}
	b.out.queue = append(b.out.queue, cmds...)
	b.out.mu.Unlock()

	select {
	case b.out.wake <- struct{}{}:
	default:
	}
}

func (b *Bridge) startPump(ctx context.Context) (stop func()) {
	b.out.mu.Lock()
	b.out.active = true
	b.out.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go b.pump(ctx, done)

	return func() {
		cancel()
		<-done

		b.out.mu.Lock()
		dropped := len(b.out.queue)
		b.out.queue = nil
		b.out.active = false
		b.out.mu.Unlock()
		if dropped > 0 {
			log.Warn().Int("count", dropped).Msg("dropped unsent follow-up commands")
		}
	}
}

func (b *Bridge) pump(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.out.wake:
		}

		for {
			b.out.mu.Lock()
			if len(b.out.queue) == 0 {
				b.out.mu.Unlock()
				break
			}
			cmd := b.out.queue[0]
			b.out.queue = b.out.queue[1:]
			b.out.mu.Unlock()

			b.send(cmd)
		}
	}
}

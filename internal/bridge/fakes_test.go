package bridge

import (
	"context"
	"sync"

	"github.com/resbox/resbox-core/internal/backend"
	"github.com/resbox/resbox-core/internal/credential"
	"github.com/resbox/resbox-core/internal/sse"
)

type fakeSender struct {
	mu   sync.Mutex
	cmds []backend.Command
	err  error
}

func (s *fakeSender) Send(cmd backend.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.cmds = append(s.cmds, cmd)
	return nil
}

func (s *fakeSender) sent() []backend.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Command(nil), s.cmds...)
}

type sliceSource struct {
	events []backend.Event
}

func (s *sliceSource) TryRecv() (backend.Event, bool) {
	if len(s.events) == 0 {
		return nil, false
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, true
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	events []sse.Event
}

func (p *fakePublisher) Publish(_ context.Context, topic string, event sse.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

type fakeImages struct {
	asked []string
}

func (f *fakeImages) Get(url string) ImageState {
	f.asked = append(f.asked, url)
	return ImageLoading
}

// brokenStore fails every call with err.
type brokenStore struct {
	err error
}

var _ credential.Store = brokenStore{}

func (s brokenStore) Get(context.Context, string, string) (string, error) { return "", s.err }
func (s brokenStore) Set(context.Context, string, string, string) error   { return s.err }
func (s brokenStore) Delete(context.Context, string, string) error        { return s.err }

// chanStream adapts a channel to EventStream.
type chanStream struct {
	ch chan backend.Event
}

func (s chanStream) Events() <-chan backend.Event { return s.ch }

func (s chanStream) TryRecv() (backend.Event, bool) {
	select {
	case ev, ok := <-s.ch:
		return ev, ok
	default:
		return nil, false
	}
}

// gatedSender blocks every Send until gate is closed, like a full command
// queue.
type gatedSender struct {
	fakeSender
	gate chan struct{}
}

func (s *gatedSender) Send(cmd backend.Command) error {
	<-s.gate
	return s.fakeSender.Send(cmd)
}

package hub

import (
	"context"
	"errors"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultTick        = time.Second
	defaultMailboxSize = 256
)

var (
	ErrStopped  = errors.New("hub stopped")
	ErrSinkFull = errors.New("sink is full")
	ErrClosed   = errors.New("sink is closed")
)

// Sink delivers messages to one subscriber. Send must not block.
type Sink interface {
	Send(msg events.Message) error
	Close() error
}

type subscriber struct {
	sink Sink
	user int64
}

type command interface{ isCommand() }

type track struct {
	addr string
	sink Sink
	user int64
}

type forget struct{ addr string }

type sendTo struct {
	addr string
	msg  events.Message
}

type sendAll struct{ msg events.Message }

type count struct{ reply chan int }

func (track) isCommand()   {}
func (forget) isCommand()  {}
func (sendTo) isCommand()  {}
func (sendAll) isCommand() {}
func (count) isCommand()   {}

// Hub is the actor that owns every subscriber. Its state is only touched from Run.
type Hub struct {
	mailbox chan command
	done    chan struct{}
	tick    time.Duration

	subscribers map[string]subscriber
	failed      []string
}

var _ events.Publisher = (*Hub)(nil)

type Option func(*Hub)

// WithTick sets how often failed subscribers are removed
func WithTick(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.tick = d
		}
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		mailbox:     make(chan command, defaultMailboxSize),
		done:        make(chan struct{}),
		tick:        DefaultTick,
		subscribers: make(map[string]subscriber),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes commands until ctx ends, then closes every sink
func (h *Hub) Run(ctx context.Context) {
	log := logger.FromCtx(ctx, "component", "hub")
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	defer func() {
		close(h.done)
		for addr, s := range h.subscribers {
			_ = s.sink.Close()
			delete(h.subscribers, addr)
		}
		metrics.Subscribers.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(log)
		case cmd := <-h.mailbox:
			h.handle(cmd)
		}
	}
}

func (h *Hub) handle(cmd command) {
	switch c := cmd.(type) {
	case track:
		if prev, ok := h.subscribers[c.addr]; ok {
			_ = prev.sink.Close()
		}
		h.subscribers[c.addr] = subscriber{sink: c.sink, user: c.user}
	case forget:
		if s, ok := h.subscribers[c.addr]; ok {
			_ = s.sink.Close()
			delete(h.subscribers, c.addr)
		}
	case sendTo:
		if s, ok := h.subscribers[c.addr]; ok {
			h.send(c.addr, s, c.msg)
		}
	case sendAll:
		for addr, s := range h.subscribers {
			h.send(addr, s, c.msg)
		}
	case count:
		c.reply <- len(h.subscribers)
	}
	metrics.Subscribers.Set(float64(len(h.subscribers)))
}

func (h *Hub) send(addr string, s subscriber, msg events.Message) {
	if err := s.sink.Send(msg); err != nil {
		h.failed = append(h.failed, addr)
	}
}

// sweep drops subscribers whose sends failed since the last tick
func (h *Hub) sweep(log *zap.SugaredLogger) {
	for _, addr := range h.failed {
		s, ok := h.subscribers[addr]
		if !ok {
			continue
		}
		log.Debugw("dropping subscriber", "addr", addr, "user", s.user)
		_ = s.sink.Close()
		delete(h.subscribers, addr)
	}
	h.failed = h.failed[:0]
	metrics.Subscribers.Set(float64(len(h.subscribers)))
}

func (h *Hub) submit(cmd command) error {
	select {
	case h.mailbox <- cmd:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

func (h *Hub) Track(addr string, sink Sink, user int64) error {
	return h.submit(track{addr: addr, sink: sink, user: user})
}

func (h *Hub) Forget(addr string) error {
	return h.submit(forget{addr: addr})
}

func (h *Hub) SendTo(addr string, msg events.Message) error {
	return h.submit(sendTo{addr: addr, msg: msg})
}

func (h *Hub) SendAll(msg events.Message) error {
	return h.submit(sendAll{msg: msg})
}

// Publish broadcasts msg to every subscriber
func (h *Hub) Publish(msg events.Message) {
	_ = h.SendAll(msg)
}

// Count returns the number of tracked subscribers
func (h *Hub) Count(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.submit(count{reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-h.done:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

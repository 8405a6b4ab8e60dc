package bus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Local is an in-process topic for development mode: publishes fan out
// to every subscriber whose filter matches. No redelivery; a failed
// handler just logs.
type Local struct {
	mu     sync.Mutex
	subs   []*localSub
	logger zerolog.Logger
}

type localSub struct {
	types map[string]bool // empty means all
	ch    chan Event
}

func NewLocal(logger zerolog.Logger) *Local {
	return &Local{logger: logger.With().Str("component", "bus.local").Logger()}
}

// Subscribe registers a consumer. With no types given it receives every
// event, mirroring an unfiltered subscription.
func (l *Local) Subscribe(types ...string) Consumer {
	sub := &localSub{ch: make(chan Event, 64)}
	if len(types) > 0 {
		sub.types = make(map[string]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	l.mu.Lock()
	l.subs = append(l.subs, sub)
	l.mu.Unlock()
	return &localConsumer{sub: sub, logger: l.logger}
}

func (l *Local) Publish(ctx context.Context, ev Event) error {
	l.mu.Lock()
	subs := l.subs
	l.mu.Unlock()
	for _, sub := range subs {
		if sub.types != nil && !sub.types[ev.Type] {
			continue
		}
		select {
		case sub.ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type localConsumer struct {
	sub    *localSub
	logger zerolog.Logger
}

func (c *localConsumer) Consume(ctx context.Context, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.sub.ch:
			if err := handle(ctx, ev); err != nil {
				c.logger.Error().Err(err).Str("eventType", ev.Type).Msg("handler failed")
			}
		}
	}
}

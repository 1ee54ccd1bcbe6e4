// Package messagingtest records published events for tests.
package messagingtest

import (
	"context"
	"sync"
)

type Published struct {
	Topic string
	Key   string
	Event any
}

// Publisher records every event instead of sending it.
type Publisher struct {
	Err error

	mu     sync.Mutex
	events []Published
}

func (p *Publisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *Publisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.events...)
}

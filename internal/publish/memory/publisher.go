// Package memory contains an in-memory publisher used in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/filmbuzz/harvester/internal/publish"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []Published
}

// Published captures one publish call.
type Published struct {
	Topic string
	Event publish.Event
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, event publish.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Event: event})
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []Published {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Published, len(p.events))
	copy(out, p.events)
	return out
}

package events

import (
	"context"
	"slices"
	"sync"
)

// MemoryPublisher keeps events in process. It is the default sink when no
// broker is configured.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemory returns a publisher retaining at most limit events; 0 means unbounded.
func NewMemory(limit int) *MemoryPublisher {
	return &MemoryPublisher{limit: limit}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.limit > 0 && len(p.events) > p.limit {
		p.events = slices.Delete(p.events, 0, len(p.events)-p.limit)
	}
	return nil
}

// Events returns a snapshot of retained events, oldest first.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

// OfType returns retained events with type t.
func (p *MemoryPublisher) OfType(t Type) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

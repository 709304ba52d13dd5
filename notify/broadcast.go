/*
Package notify delivers subscription change events to observers.

IMPLEMENTATIONS:
  Broadcaster: in-process fan-out to channel subscribers (change stream)
  RabbitMQ:    publishes events to a topic exchange
  Fanout:      forwards one event to several notifiers

A slow in-process subscriber never blocks a write: when its buffer is full
the event is dropped for that subscriber and counted.
*/
package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/greenround/visit-engine/lawncare"
)

// Broadcaster is an in-process change stream.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[int]chan lawncare.ChangeEvent
	nextID  int
	dropped atomic.Int64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan lawncare.ChangeEvent)}
}

// Subscribe registers a listener with the given buffer. The returned cancel
// func unregisters it and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan lawncare.ChangeEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan lawncare.ChangeEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Notify delivers event to every subscriber without blocking.
func (b *Broadcaster) Notify(_ context.Context, event lawncare.ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Dropped is the number of events discarded for full subscriber buffers.
func (b *Broadcaster) Dropped() int64 { return b.dropped.Load() }

// Fanout forwards each event to all notifiers and joins their errors.
type Fanout []lawncare.Notifier

func (f Fanout) Notify(ctx context.Context, event lawncare.ChangeEvent) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ lawncare.Notifier = (*Broadcaster)(nil)
	_ lawncare.Notifier = Fanout(nil)
)

// Package events implements the per-collection lifecycle notification bus.
// Consumers subscribe explicitly and receive bounded buffered channels;
// publishing never blocks the sync path, so a slow consumer loses old events
// instead of stalling a coordinator.
package events

import (
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/models"
)

const defaultBuffer = 64

// Bus is a bounded observer list for one collection's lifecycle events.
type Bus struct {
	collection string
	buffer     int

	mu   sync.RWMutex
	subs []chan models.Event
}

// NewBus constructs a Bus for the named collection. buffer <= 0 selects the
// default subscriber buffer size.
func NewBus(collection string, buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{collection: collection, buffer: buffer}
}

// Subscribe registers a new consumer and returns its receive channel.
func (b *Bus) Subscribe() <-chan models.Event {
	ch := make(chan models.Event, b.buffer)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	return ch
}

// Publish delivers an event to every subscriber without blocking: when a
// subscriber's buffer is full, its oldest queued event is dropped first.
func (b *Bus) Publish(kind models.EventKind, recordID string, message string) {
	event := models.Event{
		Collection: b.collection,
		Kind:       kind,
		RecordID:   recordID,
		Message:    message,
		At:         time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// Close terminates every subscriber channel. Publish must not be called
// after Close.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

package market

import (
	"sync"
	"time"
)

type EventType string

const (
	EventTypeInsert   EventType = "insert"
	EventTypeCancel   EventType = "cancel"
	EventTypeExpired  EventType = "expired"
	EventTypeReserved EventType = "reserved"
)

// BookEvent describes a change to the live order book: a tick entering the
// book, an explicit cancellation, a timeout sweep, or quantity reserved by a
// match. Downstream views such as AggregatedBook rebuild depth state from
// this stream.
type BookEvent struct {
	Type      EventType
	Side      Side
	OrderID   OrderID
	MessageID MessageID
	Price     Price
	Quantity  Quantity
	CreatedAt time.Time
}

// PublishEvent is the sink for book events. Implementations must process
// events synchronously or copy them before returning.
type PublishEvent interface {
	Publish(...*BookEvent)
}

// MemoryPublishEvent stores events in memory, useful for testing.
type MemoryPublishEvent struct {
	mu     sync.RWMutex
	Events []*BookEvent
}

func NewMemoryPublishEvent() *MemoryPublishEvent {
	return &MemoryPublishEvent{
		Events: make([]*BookEvent, 0),
	}
}

func (m *MemoryPublishEvent) Publish(events ...*BookEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, events...)
}

func (m *MemoryPublishEvent) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Events)
}

func (m *MemoryPublishEvent) Get(index int) *BookEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Events[index]
}

// DiscardPublishEvent drops all events, useful for benchmarking.
type DiscardPublishEvent struct {
}

func NewDiscardPublishEvent() *DiscardPublishEvent {
	return &DiscardPublishEvent{}
}

func (p *DiscardPublishEvent) Publish(events ...*BookEvent) {

}

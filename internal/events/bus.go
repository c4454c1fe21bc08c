// Package events provides a synchronous in-process publish/subscribe bus.
// It exists to decouple UI triggers from cart and order mutations; it has no
// cross-process semantics.
package events

import (
	"log/slog"
	"sync"
	"time"
)

const defaultHistorySize = 100

// Entry records a published event for introspection.
type Entry struct {
	Name      string
	Data      any
	Timestamp time.Time
}

type subscriber struct {
	id      uint64
	handler func(data any)
}

// Bus invokes subscribers synchronously, in registration order. A handler
// panic is recovered and logged so the remaining handlers still run.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]subscriber
	nextID      uint64
	history     []Entry
	historyCap  int
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]subscriber),
		historyCap:  defaultHistorySize,
		logger:      logger,
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *Bus) Subscribe(name string, handler func(data any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subscribers[name] = append(b.subscribers[name], subscriber{id: id, handler: handler})

	return func() { b.unsubscribe(name, id) }
}

// Once registers a handler that unsubscribes itself before its first
// invocation.
func (b *Bus) Once(name string, handler func(data any)) func() {
	var once sync.Once
	var cancel func()
	cancel = b.Subscribe(name, func(data any) {
		once.Do(func() {
			cancel()
			handler(data)
		})
	})
	return cancel
}

func (b *Bus) unsubscribe(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[name]
	for i, sub := range subs {
		if sub.id == id {
			b.subscribers[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[name]) == 0 {
		delete(b.subscribers, name)
	}
}

// Publish invokes all current subscribers of name with data. Each handler
// runs fault-isolated; the event is recorded in the bounded history either
// way.
func (b *Bus) Publish(name string, data any) {
	b.mu.Lock()
	b.record(name, data)
	subs := make([]subscriber, len(b.subscribers[name]))
	copy(subs, b.subscribers[name])
	b.mu.Unlock()

	for _, sub := range subs {
		b.invoke(name, sub, data)
	}
}

func (b *Bus) invoke(name string, sub subscriber, data any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", name, "panic", r)
		}
	}()
	sub.handler(data)
}

func (b *Bus) record(name string, data any) {
	b.history = append(b.history, Entry{Name: name, Data: data, Timestamp: time.Now()})
	if len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}
}

// History returns up to count most recent events, oldest first.
func (b *Bus) History(count int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count <= 0 || count > len(b.history) {
		count = len(b.history)
	}
	out := make([]Entry, count)
	copy(out, b.history[len(b.history)-count:])
	return out
}

// ListenerCount reports how many handlers are registered for name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[name])
}

// Clear detaches every handler for name, or all handlers when name is empty.
func (b *Bus) Clear(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if name == "" {
		b.subscribers = make(map[string][]subscriber)
		return
	}
	delete(b.subscribers, name)
}

// Package stream fans out bank movement events to live subscribers.
package stream

import (
	"context"
	"sync"
	"time"
)

// Event kinds published by the HTTP adapter.
const (
	KindTransfer = "transfer"
	KindLoan     = "loan"
	KindClose    = "close"
)

// MovementEvent describes a posted movement (or a closed account) for the SSE stream.
// Amount is a plain decimal string; From is empty for loans.
type MovementEvent struct {
	Kind      string    `json:"kind"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stream fan-outs movement events to all active subscribers.
type Stream struct {
	mu     sync.RWMutex
	subs   map[int]chan MovementEvent
	next   int
	buffer int
}

// New initialises an empty stream whose subscribers buffer up to buffer events.
func New(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 16
	}
	return &Stream{
		subs:   make(map[int]chan MovementEvent),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber and returns a channel which will receive events.
// The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan MovementEvent {
	ch := make(chan MovementEvent, s.buffer)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers. Slow subscribers miss events.
func (s *Stream) Publish(evt MovementEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribers reports the number of active subscribers.
func (s *Stream) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Package stream fans out escalation events to live subscribers. Creating an
// escalation pushes the referenced workgroup into needsEscalation; the event
// makes that cross-entity coupling visible to dashboards without polling.
package stream

import (
	"context"
	"sync"
	"time"
)

// EscalationEvent describes an escalation that was just raised and the
// workgroup it forced into needsEscalation.
type EscalationEvent struct {
	EscalationID string    `json:"escalationId"`
	WorkgroupID  string    `json:"workgroupId"`
	CenterID     string    `json:"centerId"`
	GroupID      string    `json:"groupId"`
	Type         string    `json:"type"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}

// Stream fan-outs escalation events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan EscalationEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan EscalationEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan EscalationEvent {
	ch := make(chan EscalationEvent, 16)

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

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt EscalationEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

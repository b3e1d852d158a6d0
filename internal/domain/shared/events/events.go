// Package events is the contract between aggregates and the outbox.
package events

import (
	"slices"
	"time"
)

// DomainEvent says what happened to which aggregate, and when. EventName is
// "<aggregate type>.<what happened>", for example calendar.reservation_confirmed.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder buffers the events an aggregate raises until the handler
// drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

// Record appends evs in order, skipping nils.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	return slices.Clone(r.pending)
}

// DrainEvents hands over the buffered events and empties the buffer.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

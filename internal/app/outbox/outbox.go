package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentcalc/internal/domain/shared/events"
)

// EventRecord is one domain event ready for publication. Aggregate is the
// property id, which later becomes the Kafka message key.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox stores event records written in the same transaction as the change
// that produced them. Flush is called once the transaction has committed.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event itself as the payload and tags the
// record with the aggregate type taken from the event name prefix.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	newID := e.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}
	name := ev.EventName()
	headers := map[string]string{"property_id": ev.AggregateID()}
	if kind, _, ok := strings.Cut(name, "."); ok {
		headers["aggregate_type"] = kind
	}
	return EventRecord{
		ID:         newID(),
		Name:       name,
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

type headersKey struct{}

// WithHeaders attaches headers, such as a request id, to every record added
// by RecordDomainEvents under ctx. Later calls add to earlier ones.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	merged := make(map[string]string, len(headers))
	for k, v := range headersFromContext(ctx) {
		merged[k] = v
	}
	for k, v := range headers {
		if v != "" {
			merged[k] = v
		}
	}
	return context.WithValue(ctx, headersKey{}, merged)
}

func headersFromContext(ctx context.Context) map[string]string {
	h, _ := ctx.Value(headersKey{}).(map[string]string)
	return h
}

// RecordDomainEvents encodes evs and adds them to box in order. Headers from
// ctx never override ones set by the encoder.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	extra := headersFromContext(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if len(extra) > 0 && rec.Headers == nil {
			rec.Headers = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			if _, taken := rec.Headers[k]; !taken {
				rec.Headers[k] = v
			}
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

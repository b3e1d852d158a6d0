package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"rentcalc/internal/app/policies"
	"rentcalc/internal/domain/property"
)

// Deduper remembers handled event ids. Record is called only after the event
// took effect, so a failed attempt is retried on redelivery.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string) error
}

// InvalidationHandler drops the cached snapshot of the property a calendar or
// pricing event belongs to. The property id is the message key; the CloudEvent
// subject is used when the key is missing.
type InvalidationHandler struct {
	Cache policies.SnapshotCache
	Inbox Deduper
}

type cloudEventHeader struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Subject string `json:"subject"`
}

func (h InvalidationHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil || h.Cache == nil {
		return nil
	}
	var evt cloudEventHeader
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			return fmt.Errorf("kafka: decode cloudevent: %w", err)
		}
	}
	key := string(msg.Key)
	if key == "" {
		key = evt.Subject
	}
	id, err := property.ParseID(key)
	if err != nil {
		// not addressed to a property; nothing to invalidate
		return nil
	}
	dedupe := h.Inbox != nil && evt.ID != ""
	if dedupe {
		seen, err := h.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	if err := h.Cache.Invalidate(ctx, id); err != nil {
		return err
	}
	if dedupe {
		return h.Inbox.Record(ctx, evt.ID)
	}
	return nil
}

// Topics lists the topics carrying events that change a snapshot.
func Topics(prefix string) []string {
	return []string{prefix + "calendar.events.v1", prefix + "pricing.events.v1"}
}

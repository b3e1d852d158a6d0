package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcalc/internal/domain/shared/events"
)

type stayBooked struct {
	Property  string    `json:"property_id"`
	Reference string    `json:"reference"`
	At        time.Time `json:"-"`
}

func (e stayBooked) EventName() string     { return "calendar.stay_booked" }
func (e stayBooked) AggregateID() string   { return e.Property }
func (e stayBooked) OccurredAt() time.Time { return e.At }

type captureBox struct{ records []EventRecord }

func (b *captureBox) Add(_ context.Context, rec EventRecord) error {
	b.records = append(b.records, rec)
	return nil
}

func (b *captureBox) Flush(context.Context) error { return nil }

func TestEncoderTagsAggregate(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	enc := JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}

	rec, err := enc.Encode(stayBooked{Property: "villa-1", Reference: "r-1", At: at})
	require.NoError(t, err)

	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "calendar.stay_booked", rec.Name)
	assert.Equal(t, "villa-1", rec.Aggregate)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.Equal(t, "calendar", rec.Headers["aggregate_type"])
	assert.JSONEq(t, `{"property_id":"villa-1","reference":"r-1"}`, string(rec.Payload))
}

func TestRecordDomainEventsMergesContextHeaders(t *testing.T) {
	box := &captureBox{}
	ctx := WithHeaders(context.Background(), map[string]string{"request_id": "req-1"})
	ctx = WithHeaders(ctx, map[string]string{"property_id": "spoofed", "empty": ""})

	err := RecordDomainEvents(ctx, box, nil, []events.DomainEvent{
		stayBooked{Property: "villa-1"},
		stayBooked{Property: "villa-2"},
	})
	require.NoError(t, err)

	require.Len(t, box.records, 2)
	assert.Equal(t, "req-1", box.records[0].Headers["request_id"])
	assert.Equal(t, "villa-2", box.records[1].Headers["property_id"])
	assert.NotContains(t, box.records[0].Headers, "empty")
}

func TestRecordDomainEventsWithoutOutbox(t *testing.T) {
	assert.NoError(t, RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{stayBooked{}}))
}

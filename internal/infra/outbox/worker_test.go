package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	queue  []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (s *fakeStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	doc := s.queue[0]
	s.queue = s.queue[1:]
	return doc, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if s.failed == nil {
		s.failed = map[string]time.Time{}
	}
	s.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
}

type fakeProducer struct {
	out  []published
	fail map[string]bool
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail[key] {
		return errors.New("broker down")
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload})
	return nil
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{
		{ID: "e-1", Name: "calendar.reservation_confirmed", Aggregate: "villa-1", Payload: []byte(`{"reference":"r-1"}`)},
		{ID: "e-2", Name: "pricing.period_saved", Aggregate: "villa-2", Payload: []byte(`{"period_id":"p-1"}`)},
	}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "dev.", ID: "w-1"}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e-1", "e-2"}, store.sent)
	require.Len(t, producer.out, 2)
	assert.Equal(t, "dev.calendar.events.v1", producer.out[0].topic)
	assert.Equal(t, "villa-1", producer.out[0].key)
	assert.Equal(t, "dev.pricing.events.v1", producer.out[1].topic)

	var evt map[string]any
	require.NoError(t, json.Unmarshal(producer.out[0].payload, &evt))
	assert.Equal(t, "calendar.reservation_confirmed.v1", evt["type"])
	assert.Equal(t, "app://rentcalc", evt["source"])
	assert.Equal(t, "r-1", evt["data"].(map[string]any)["reference"])
}

func TestDrainSchedulesRetryOnFailure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{queue: []*EventDocument{
		{ID: "e-1", Name: "calendar.reservation_confirmed", Aggregate: "villa-1", Payload: []byte(`{}`), Attempts: 1},
		{ID: "e-2", Name: "calendar.reservation_released", Aggregate: "villa-2", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{fail: map[string]bool{"villa-1": true}}
	w := &Worker{
		Store:    store,
		Producer: producer,
		Backoff:  []time.Duration{time.Second, 10 * time.Second},
		Now:      func() time.Time { return now },
	}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, now.Add(10*time.Second), store.failed["e-1"])
	assert.Equal(t, []string{"e-2"}, store.sent)
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}

package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "rentcalc/internal/app/outbox"
	"rentcalc/internal/app/uow"
)

// Outbox keeps event records in memory. Records added inside a memory unit
// become pending only when that unit commits; Flush moves pending records to
// the published list.
type Outbox struct {
	Logger *slog.Logger

	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	published []appoutbox.EventRecord
}

func NewOutbox(logger *slog.Logger) *Outbox {
	return &Outbox{Logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok {
			if err := mu.checkWritable(); err != nil {
				return err
			}
			mu.onCommit(func() { o.enqueue(record) })
			return nil
		}
	}
	o.enqueue(record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.pending
	o.pending = nil
	o.published = append(o.published, batch...)
	o.mu.Unlock()

	if o.Logger != nil {
		for _, rec := range batch {
			o.Logger.DebugContext(ctx, "event published", "event", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
		}
	}
	return nil
}

// Published returns the records flushed so far.
func (o *Outbox) Published() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.published...)
}

func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Outbox) enqueue(record appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
}

var _ appoutbox.Outbox = (*Outbox)(nil)

package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/infra/storage/memory"
)

type fixture struct {
	factory memory.Factory
	cache   *memory.SnapshotCache
	box     *memory.Outbox
	loader  support.SnapshotLoader
	reserve *ReserveHandler
	release *ReleaseHandler
}

func newFixture() fixture {
	factory := memory.Factory{Store: memory.NewStore()}
	cache := memory.NewSnapshotCache(0)
	box := memory.NewOutbox(nil)
	now := func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) }
	return fixture{
		factory: factory,
		cache:   cache,
		box:     box,
		loader:  support.SnapshotLoader{UoWFactory: factory, Cache: cache},
		reserve: &ReserveHandler{UoWFactory: factory, Outbox: box, Now: now},
		release: &ReleaseHandler{UoWFactory: factory, Outbox: box, Now: now},
	}
}

func d(s string) daterange.Date { return daterange.MustParse(s) }

func TestReserveThenCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.reserve.Handle(ctx, ReserveCommand{PropertyID: "villa-1", Reference: "r-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Nights)
	assert.Equal(t, "r-1", res.Reference)
	assert.Equal(t, 1, f.box.Pending())

	check := &CheckAvailabilityHandler{Snapshots: f.loader}
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     bool
	}{
		{name: "overlapping", checkIn: "2025-06-08", checkOut: "2025-06-12", want: false},
		{name: "starts on checkout", checkIn: "2025-06-10", checkOut: "2025-06-12", want: true},
		{name: "ends on checkin", checkIn: "2025-06-01", checkOut: "2025-06-05", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := check.Handle(ctx, CheckAvailabilityQuery{PropertyID: "villa-1", CheckIn: d(tt.checkIn), CheckOut: d(tt.checkOut)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict.Available)
		})
	}
}

func TestReserveRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.reserve.Handle(ctx, ReserveCommand{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	_, err = f.reserve.Handle(ctx, ReserveCommand{PropertyID: "villa-1", CheckIn: d("2025-06-09"), CheckOut: d("2025-06-11")})
	assert.ErrorIs(t, err, domainavailability.ErrOverlappingRange)

	published := f.box.Published()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	assert.Equal(t, "calendar.overbooking_prevented", last.Name)
	assert.Equal(t, "villa-1", last.Aggregate)
}

func TestReserveOverlapEventSurvivesRollback(t *testing.T) {
	f := newFixture()
	_, err := f.reserve.Handle(context.Background(), ReserveCommand{PropertyID: "villa-1", Reference: "r-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	require.NoError(t, f.box.Flush(context.Background()))

	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	ctx := uow.Bind(context.Background(), unit)
	_, err = f.reserve.Handle(ctx, ReserveCommand{PropertyID: "villa-1", Reference: "r-2", CheckIn: d("2025-06-08"), CheckOut: d("2025-06-12")})
	require.ErrorIs(t, err, domainavailability.ErrOverlappingRange)
	require.NoError(t, unit.Rollback(ctx))

	published := f.box.Published()
	require.Len(t, published, 2)
	assert.Equal(t, "calendar.overbooking_prevented", published[1].Name)
	assert.Contains(t, string(published[1].Payload), `"reference":"r-2"`)
	assert.Equal(t, 0, f.box.Pending())
}

func TestReserveGeneratesReference(t *testing.T) {
	f := newFixture()

	res, err := f.reserve.Handle(context.Background(), ReserveCommand{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-06")})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reference)
}

func TestReserveInvalidRange(t *testing.T) {
	f := newFixture()

	_, err := f.reserve.Handle(context.Background(), ReserveCommand{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-05")})
	assert.ErrorIs(t, err, domainavailability.ErrInvalidDateRange)
}

func TestReleaseFreesDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.reserve.Handle(ctx, ReserveCommand{PropertyID: "villa-1", Reference: "r-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	_, err = f.release.Handle(ctx, ReleaseCommand{PropertyID: "villa-1", Reference: "r-1"})
	require.NoError(t, err)

	_, err = f.release.Handle(ctx, ReleaseCommand{PropertyID: "villa-1", Reference: "r-1"})
	assert.ErrorIs(t, err, domainavailability.ErrReservationMissing)

	verdict, err := (&CheckAvailabilityHandler{Snapshots: f.loader}).Handle(ctx, CheckAvailabilityQuery{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	assert.True(t, verdict.Available)
}

func TestListPeriods(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, r := range []ReserveCommand{
		{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")},
		{PropertyID: "villa-1", CheckIn: d("2025-06-15"), CheckOut: d("2025-06-20")},
	} {
		_, err := f.reserve.Handle(ctx, r)
		require.NoError(t, err)
	}

	h := &ListPeriodsHandler{Snapshots: f.loader}
	out, err := h.Handle(ctx, ListPeriodsQuery{PropertyID: "villa-1", From: d("2025-06-01"), To: d("2025-06-30")})
	require.NoError(t, err)

	require.Len(t, out.Available, 3)
	assert.Equal(t, "2025-06-01", out.Available[0].Start.String())
	assert.Equal(t, "2025-06-04", out.Available[0].End.String())
	assert.Equal(t, "2025-06-10", out.Available[1].Start.String())
	assert.Equal(t, "2025-06-14", out.Available[1].End.String())
	assert.Equal(t, "2025-06-20", out.Available[2].Start.String())
	assert.Equal(t, "2025-06-30", out.Available[2].End.String())

	require.Len(t, out.Unavailable, 2)
	assert.Equal(t, "2025-06-09", out.Unavailable[0].End.String())
	assert.Equal(t, 5, out.Unavailable[1].Days)
}

func TestListPeriodsRejectsHugeWindow(t *testing.T) {
	h := &ListPeriodsHandler{Snapshots: newFixture().loader, MaxWindowDays: 30}

	_, err := h.Handle(context.Background(), ListPeriodsQuery{PropertyID: "villa-1", From: d("2025-01-01"), To: d("2025-03-01")})
	assert.ErrorIs(t, err, ErrWindowTooLarge)

	_, err = h.Handle(context.Background(), ListPeriodsQuery{PropertyID: "villa-1", From: d("2025-01-10"), To: d("2025-01-01")})
	assert.ErrorIs(t, err, domainavailability.ErrInvalidDateRange)
}

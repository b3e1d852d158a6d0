package fixtures_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcalc/internal/app"
	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/fixtures"
	availabilityapp "rentcalc/internal/app/handlers/availability"
	pricingapp "rentcalc/internal/app/handlers/pricing"
	"rentcalc/internal/app/queries"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/infra/storage/memory"
	"rentcalc/internal/infra/validation"
)

func newApp() app.App {
	return app.New(app.Deps{
		UoWFactory: memory.Factory{Store: memory.NewStore()},
		Outbox:     memory.NewOutbox(nil),
		Validator:  validation.New(),
	})
}

func TestLoadFileSeedsBundledProperties(t *testing.T) {
	ctx := context.Background()
	a := newApp()

	sum, err := fixtures.LoadFile(ctx, filepath.Join("..", "..", "..", "data", "properties.json"), a.Commands, nil)
	require.NoError(t, err)

	assert.Equal(t, fixtures.Summary{Properties: 2, PricingPeriods: 3, Reservations: 3}, sum)

	verdict, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityVerdict](ctx, a.Queries,
		availabilityapp.CheckAvailabilityQuery{PropertyID: "villa-azul", CheckIn: daterange.MustParse("2025-06-08"), CheckOut: daterange.MustParse("2025-06-09")})
	require.NoError(t, err)
	assert.False(t, verdict.Available)

	periods, err := queries.Ask[pricingapp.ListPricingPeriodsQuery, []dto.PricingPeriod](ctx, a.Queries,
		pricingapp.ListPricingPeriodsQuery{PropertyID: "cabin-norte"})
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestImportSkipsRejectedEntries(t *testing.T) {
	a := newApp()
	props := []fixtures.Property{{
		ID: "villa-1",
		Reservations: []fixtures.Reservation{
			{Reference: "r-1", CheckIn: daterange.MustParse("2025-06-01"), CheckOut: daterange.MustParse("2025-06-05")},
			{Reference: "r-2", CheckIn: daterange.MustParse("2025-06-03"), CheckOut: daterange.MustParse("2025-06-07")},
			{Reference: "r-3", CheckIn: daterange.MustParse("2025-06-09"), CheckOut: daterange.MustParse("2025-06-09")},
		},
	}}

	sum := fixtures.Import(context.Background(), props, a.Commands, nil)

	assert.Equal(t, fixtures.Summary{Properties: 1, Reservations: 1, Rejected: 2}, sum)
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	sum, err := fixtures.LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"), newApp().Commands, nil)

	require.NoError(t, err)
	assert.Equal(t, fixtures.Summary{}, sum)
}

func TestLoadFileRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":`), 0o600))

	_, err := fixtures.LoadFile(context.Background(), path, newApp().Commands, nil)

	assert.Error(t, err)
}

package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/shared/daterange"
)

func TestPeriodDocumentKeepsDecimalPrecision(t *testing.T) {
	start := daterange.MustParse("2025-06-01")
	in := domainpricing.Period{
		ID:                    "p-1",
		PropertyID:            "villa-1",
		NightlyRate:           decimal.RequireFromString("123.45"),
		WeekendPremiumPercent: decimal.RequireFromString("12.5"),
		WeekendPremiumActive:  true,
		StartDate:             &start,
		CreatedAt:             time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	doc, err := newPeriodDocument(in)
	require.NoError(t, err)
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded periodDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	out, err := decoded.toDomain()
	require.NoError(t, err)

	assert.True(t, out.NightlyRate.Equal(in.NightlyRate), out.NightlyRate.String())
	assert.True(t, out.WeekendPremiumPercent.Equal(in.WeekendPremiumPercent))
	assert.True(t, out.WeeklyDiscountPercent.IsZero())
	require.NotNil(t, out.StartDate)
	assert.Equal(t, "2025-06-01", out.StartDate.String())
	assert.Nil(t, out.EndDate)
	assert.True(t, out.CreatedAt.Equal(in.CreatedAt))
}

func TestCalendarDocumentStoresPlainDates(t *testing.T) {
	cal := domainavailability.NewCalendar("villa-1")
	cal.Version = 3
	cal.Reservations = []domainavailability.ReservedInterval{{
		Start:     daterange.MustParse("2025-06-05"),
		End:       daterange.MustParse("2025-06-10"),
		Reference: "r-1",
	}}

	doc := newCalendarDocument(cal)
	assert.Equal(t, "2025-06-05", doc.Reservations[0].Start)

	back, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, cal.Reservations, back.Reservations)
	assert.Equal(t, int64(3), back.Version)
}

func TestConcurrentOrMapsTransientConflicts(t *testing.T) {
	conflict := mongodriver.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	other := mongodriver.CommandError{Code: 2, Name: "BadValue"}

	assert.NoError(t, concurrentOr(nil))
	assert.ErrorIs(t, concurrentOr(conflict), uow.ErrConcurrentUpdate)
	assert.NotErrorIs(t, concurrentOr(other), uow.ErrConcurrentUpdate)
	assert.Equal(t, error(other), concurrentOr(other))
}

func TestDecimalFromRejectsNonNumbers(t *testing.T) {
	nan, err := primitive.ParseDecimal128("NaN")
	require.NoError(t, err)
	_, err = decimalFrom(nan)
	assert.Error(t, err)

	inf, err := primitive.ParseDecimal128("Infinity")
	require.NoError(t, err)
	_, err = decimalFrom(inf)
	assert.Error(t, err)

	doc, err := newPeriodDocument(domainpricing.Period{ID: "p-1", PropertyID: "villa-1", NightlyRate: decimal.NewFromInt(90)})
	require.NoError(t, err)
	doc.NightlyRate = nan
	_, err = doc.toDomain()
	assert.Error(t, err)

	var missing primitive.Decimal128
	zero, err := decimalFrom(missing)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestPricingGuardBumpsPropertyVersion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	filter, update := pricingGuard("villa-1", now)

	assert.Equal(t, bson.M{"_id": "villa-1"}, filter)
	assert.Equal(t, bson.M{"version": int64(1)}, update["$inc"])
	assert.Equal(t, bson.M{"updated_at": now}, update["$set"])
}

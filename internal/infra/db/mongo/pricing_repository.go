package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

// PricingRepository stores periods in pricing_periods. Every save also bumps
// the property's document in pricing_guards, so two transactions saving
// periods of one property write the same document and the later one fails
// with a write conflict instead of committing an overlap.
type PricingRepository struct {
	col    *mongo.Collection
	guards *mongo.Collection
}

func NewPricingRepository(db *mongo.Database) *PricingRepository {
	col := db.Collection("pricing_periods")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &PricingRepository{col: col, guards: db.Collection("pricing_guards")}
}

// ListByProperty returns periods in creation order, which is the order the
// calculator consults them.
func (r *PricingRepository) ListByProperty(ctx context.Context, id property.ID) ([]domainpricing.Period, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domainpricing.Period, 0)
	for cur.Next(ctx) {
		var doc periodDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, cur.Err()
}

func (r *PricingRepository) ByID(ctx context.Context, id domainpricing.PeriodID) (*domainpricing.Period, error) {
	var doc periodDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domainpricing.ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PricingRepository) Save(ctx context.Context, p *domainpricing.Period) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	doc, err := newPeriodDocument(*p)
	if err != nil {
		return err
	}
	filter, update := pricingGuard(p.PropertyID, time.Now().UTC())
	if _, err := r.guards.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return concurrentOr(err)
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return concurrentOr(err)
}

func pricingGuard(id property.ID, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": string(id)}
	update := bson.M{
		"$inc": bson.M{"version": int64(1)},
		"$set": bson.M{"updated_at": now},
	}
	return filter, update
}

func (r *PricingRepository) Delete(ctx context.Context, id domainpricing.PeriodID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainpricing.ErrPeriodNotFound
	}
	return nil
}

type periodDocument struct {
	ID         string `bson:"_id"`
	PropertyID string `bson:"property_id"`

	NightlyRate primitive.Decimal128 `bson:"nightly_rate"`
	Currency    string               `bson:"currency,omitempty"`

	WeeklyDiscountPercent primitive.Decimal128 `bson:"weekly_discount_percent"`
	WeeklyDiscountActive  bool                 `bson:"weekly_discount_active"`
	MinDaysForWeekly      int                  `bson:"min_days_for_weekly"`

	MonthlyDiscountPercent primitive.Decimal128 `bson:"monthly_discount_percent"`
	MonthlyDiscountActive  bool                 `bson:"monthly_discount_active"`
	MinDaysForMonthly      int                  `bson:"min_days_for_monthly"`

	WeekendPremiumPercent primitive.Decimal128 `bson:"weekend_premium_percent"`
	WeekendPremiumActive  bool                 `bson:"weekend_premium_active"`

	StartDate string    `bson:"start_date,omitempty"`
	EndDate   string    `bson:"end_date,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func newPeriodDocument(p domainpricing.Period) (periodDocument, error) {
	doc := periodDocument{
		ID:                   string(p.ID),
		PropertyID:           string(p.PropertyID),
		Currency:             p.Currency,
		WeeklyDiscountActive: p.WeeklyDiscountActive,
		MinDaysForWeekly:     p.MinDaysForWeekly,

		MonthlyDiscountActive: p.MonthlyDiscountActive,
		MinDaysForMonthly:     p.MinDaysForMonthly,
		WeekendPremiumActive:  p.WeekendPremiumActive,
		CreatedAt:             p.CreatedAt.UTC(),
	}
	if p.StartDate != nil {
		doc.StartDate = p.StartDate.String()
	}
	if p.EndDate != nil {
		doc.EndDate = p.EndDate.String()
	}
	var err error
	fields := []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.NightlyRate, p.NightlyRate},
		{&doc.WeeklyDiscountPercent, p.WeeklyDiscountPercent},
		{&doc.MonthlyDiscountPercent, p.MonthlyDiscountPercent},
		{&doc.WeekendPremiumPercent, p.WeekendPremiumPercent},
	}
	for _, f := range fields {
		if *f.dst, err = primitive.ParseDecimal128(f.src.String()); err != nil {
			return periodDocument{}, err
		}
	}
	return doc, nil
}

func (d periodDocument) toDomain() (domainpricing.Period, error) {
	p := domainpricing.Period{
		ID:                    domainpricing.PeriodID(d.ID),
		PropertyID:            property.ID(d.PropertyID),
		Currency:              d.Currency,
		WeeklyDiscountActive:  d.WeeklyDiscountActive,
		MinDaysForWeekly:      d.MinDaysForWeekly,
		MonthlyDiscountActive: d.MonthlyDiscountActive,
		MinDaysForMonthly:     d.MinDaysForMonthly,
		WeekendPremiumActive:  d.WeekendPremiumActive,
		CreatedAt:             d.CreatedAt,
	}
	var err error
	fields := []struct {
		dst *decimal.Decimal
		src primitive.Decimal128
	}{
		{&p.NightlyRate, d.NightlyRate},
		{&p.WeeklyDiscountPercent, d.WeeklyDiscountPercent},
		{&p.MonthlyDiscountPercent, d.MonthlyDiscountPercent},
		{&p.WeekendPremiumPercent, d.WeekendPremiumPercent},
	}
	for _, f := range fields {
		if *f.dst, err = decimalFrom(f.src); err != nil {
			return domainpricing.Period{}, err
		}
	}
	if p.StartDate, err = optionalDate(d.StartDate); err != nil {
		return domainpricing.Period{}, err
	}
	if p.EndDate, err = optionalDate(d.EndDate); err != nil {
		return domainpricing.Period{}, err
	}
	return p, nil
}

func decimalFrom(v primitive.Decimal128) (decimal.Decimal, error) {
	if v.IsNaN() || v.IsInf() != 0 {
		return decimal.Zero, fmt.Errorf("mongo: stored decimal %s is not a finite number", v.String())
	}
	return decimal.NewFromString(v.String())
}

func optionalDate(raw string) (*daterange.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := daterange.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

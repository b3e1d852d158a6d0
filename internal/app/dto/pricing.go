package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/shared/daterange"
)

type NightlyPrice struct {
	Date            daterange.Date  `json:"date"`
	PeriodID        string          `json:"period_id"`
	BaseRate        decimal.Decimal `json:"base_rate"`
	WeekendPremium  bool            `json:"weekend_premium"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Rate            decimal.Decimal `json:"rate"`
}

type PriceQuote struct {
	PropertyID string          `json:"property_id"`
	CheckIn    daterange.Date  `json:"check_in"`
	CheckOut   daterange.Date  `json:"check_out"`
	Nights     int             `json:"nights"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency,omitempty"`
	Breakdown  []NightlyPrice  `json:"breakdown"`
}

type PricingPeriod struct {
	ID                     string          `json:"id"`
	PropertyID             string          `json:"property_id"`
	NightlyRate            decimal.Decimal `json:"nightly_rate"`
	Currency               string          `json:"currency,omitempty"`
	WeeklyDiscountPercent  decimal.Decimal `json:"weekly_discount_percent"`
	WeeklyDiscountActive   bool            `json:"weekly_discount_active"`
	MinDaysForWeekly       int             `json:"min_days_for_weekly"`
	MonthlyDiscountPercent decimal.Decimal `json:"monthly_discount_percent"`
	MonthlyDiscountActive  bool            `json:"monthly_discount_active"`
	MinDaysForMonthly      int             `json:"min_days_for_monthly"`
	WeekendPremiumPercent  decimal.Decimal `json:"weekend_premium_percent"`
	WeekendPremiumActive   bool            `json:"weekend_premium_active"`
	StartDate              *daterange.Date `json:"start_date"`
	EndDate                *daterange.Date `json:"end_date"`
	CreatedAt              time.Time       `json:"created_at"`
}

func MapQuote(propertyID string, q pricing.Quote) PriceQuote {
	breakdown := make([]NightlyPrice, 0, len(q.Nights))
	for _, n := range q.Nights {
		breakdown = append(breakdown, NightlyPrice{
			Date:            n.Date,
			PeriodID:        string(n.PeriodID),
			BaseRate:        n.BaseRate,
			WeekendPremium:  n.WeekendPremium,
			DiscountPercent: n.DiscountPercent,
			Rate:            n.Rate,
		})
	}
	return PriceQuote{
		PropertyID: propertyID,
		CheckIn:    q.Range.CheckIn,
		CheckOut:   q.Range.CheckOut,
		Nights:     q.Range.Nights(),
		Total:      q.Total.Amount,
		Currency:   q.Total.Currency,
		Breakdown:  breakdown,
	}
}

func MapPricingPeriod(p pricing.Period) PricingPeriod {
	p = p.WithDefaults()
	return PricingPeriod{
		ID:                     string(p.ID),
		PropertyID:             string(p.PropertyID),
		NightlyRate:            p.NightlyRate,
		Currency:               p.Currency,
		WeeklyDiscountPercent:  p.WeeklyDiscountPercent,
		WeeklyDiscountActive:   p.WeeklyDiscountActive,
		MinDaysForWeekly:       p.MinDaysForWeekly,
		MonthlyDiscountPercent: p.MonthlyDiscountPercent,
		MonthlyDiscountActive:  p.MonthlyDiscountActive,
		MinDaysForMonthly:      p.MinDaysForMonthly,
		WeekendPremiumPercent:  p.WeekendPremiumPercent,
		WeekendPremiumActive:   p.WeekendPremiumActive,
		StartDate:              p.StartDate,
		EndDate:                p.EndDate,
		CreatedAt:              p.CreatedAt,
	}
}

func MapPricingPeriods(in []pricing.Period) []PricingPeriod {
	out := make([]PricingPeriod, 0, len(in))
	for _, p := range in {
		out = append(out, MapPricingPeriod(p))
	}
	return out
}

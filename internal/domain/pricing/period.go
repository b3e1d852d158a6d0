package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

const (
	DefaultMinDaysForWeekly  = 7
	DefaultMinDaysForMonthly = 30
)

var (
	ErrInvalidPeriod      = errors.New("pricing: invalid pricing period")
	ErrOverlappingPeriods = errors.New("pricing: period overlaps an existing period of the property")
	ErrPeriodNotFound     = errors.New("pricing: period not found")

	hundred = decimal.NewFromInt(100)
)

type PeriodID string

// Period is one pricing record of a property. A nil StartDate or EndDate leaves
// the validity window unbounded on that side; both bounds are inclusive.
type Period struct {
	ID         PeriodID    `json:"id"`
	PropertyID property.ID `json:"property_id"`

	NightlyRate decimal.Decimal `json:"nightly_rate"`
	Currency    string          `json:"currency,omitempty"`

	WeeklyDiscountPercent decimal.Decimal `json:"weekly_discount_percent"`
	WeeklyDiscountActive  bool            `json:"weekly_discount_active"`
	MinDaysForWeekly      int             `json:"min_days_for_weekly"`

	MonthlyDiscountPercent decimal.Decimal `json:"monthly_discount_percent"`
	MonthlyDiscountActive  bool            `json:"monthly_discount_active"`
	MinDaysForMonthly      int             `json:"min_days_for_monthly"`

	WeekendPremiumPercent decimal.Decimal `json:"weekend_premium_percent"`
	WeekendPremiumActive  bool            `json:"weekend_premium_active"`

	StartDate *daterange.Date `json:"start_date"`
	EndDate   *daterange.Date `json:"end_date"`

	CreatedAt time.Time `json:"created_at"`
}

// Repository returns a property's periods in creation order; the calculator's
// first-match rule depends on that order being stable.
type Repository interface {
	ListByProperty(ctx context.Context, id property.ID) ([]Period, error)
	ByID(ctx context.Context, id PeriodID) (*Period, error)
	Save(ctx context.Context, period *Period) error
	Delete(ctx context.Context, id PeriodID) error
}

func (p Period) Validate() error {
	if p.NightlyRate.IsNegative() {
		return fmt.Errorf("%w: nightly rate must not be negative", ErrInvalidPeriod)
	}
	percents := []struct {
		name  string
		value decimal.Decimal
	}{
		{"weekly discount", p.WeeklyDiscountPercent},
		{"monthly discount", p.MonthlyDiscountPercent},
		{"weekend premium", p.WeekendPremiumPercent},
	}
	for _, pc := range percents {
		if pc.value.IsNegative() || pc.value.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s percent must be within [0,100]", ErrInvalidPeriod, pc.name)
		}
	}
	if p.MinDaysForWeekly < 0 || p.MinDaysForMonthly < 0 {
		return fmt.Errorf("%w: minimum stay lengths must be positive", ErrInvalidPeriod)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrInvalidPeriod, p.EndDate, p.StartDate)
	}
	return nil
}

// WithDefaults fills unset minimum stay lengths.
func (p Period) WithDefaults() Period {
	if p.MinDaysForWeekly <= 0 {
		p.MinDaysForWeekly = DefaultMinDaysForWeekly
	}
	if p.MinDaysForMonthly <= 0 {
		p.MinDaysForMonthly = DefaultMinDaysForMonthly
	}
	return p
}

// Covers reports whether d lies in the validity window.
func (p Period) Covers(d daterange.Date) bool {
	if p.StartDate != nil && d.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && d.After(*p.EndDate) {
		return false
	}
	return true
}

// OverlapsWindow reports whether the validity window shares a day with [from, to].
func (p Period) OverlapsWindow(from, to daterange.Date) bool {
	if p.StartDate != nil && p.StartDate.After(to) {
		return false
	}
	if p.EndDate != nil && p.EndDate.Before(from) {
		return false
	}
	return true
}

// Overlaps compares two validity windows, treating nil bounds as unbounded.
func (p Period) Overlaps(other Period) bool {
	if p.StartDate != nil && other.EndDate != nil && p.StartDate.After(*other.EndDate) {
		return false
	}
	if p.EndDate != nil && other.StartDate != nil && p.EndDate.Before(*other.StartDate) {
		return false
	}
	return true
}

// EnsureNoOverlap rejects candidate when its window intersects a different period
// of the same property.
func EnsureNoOverlap(existing []Period, candidate Period) error {
	for _, p := range existing {
		if p.ID == candidate.ID || p.PropertyID != candidate.PropertyID {
			continue
		}
		if p.Overlaps(candidate) {
			return fmt.Errorf("%w: conflicts with %s", ErrOverlappingPeriods, p.ID)
		}
	}
	return nil
}

// discountPercent picks the stay-length discount once for the whole stay.
// Monthly wins over weekly.
func (p Period) discountPercent(nights int) decimal.Decimal {
	p = p.WithDefaults()
	if p.MonthlyDiscountActive && nights >= p.MinDaysForMonthly {
		return p.MonthlyDiscountPercent
	}
	if p.WeeklyDiscountActive && nights >= p.MinDaysForWeekly {
		return p.WeeklyDiscountPercent
	}
	return decimal.Zero
}

// Charge prices a single day of a stay lasting nights nights. The weekend
// premium is applied to the nightly rate first, then the stay discount.
func (p Period) Charge(day daterange.Date, nights int) NightlyCharge {
	rate := p.NightlyRate
	charge := NightlyCharge{Date: day, PeriodID: p.ID, BaseRate: p.NightlyRate, DiscountPercent: decimal.Zero}
	if day.IsWeekend() && p.WeekendPremiumActive && p.WeekendPremiumPercent.IsPositive() {
		rate = rate.Add(rate.Mul(p.WeekendPremiumPercent).Div(hundred))
		charge.WeekendPremium = true
	}
	if discount := p.discountPercent(nights); discount.IsPositive() {
		rate = rate.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
		charge.DiscountPercent = discount
	}
	charge.Rate = rate
	return charge
}

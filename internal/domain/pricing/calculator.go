package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/domain/shared/money"
)

var (
	ErrInvalidDateRange   = daterange.ErrInvalidRange
	ErrNoPricingAvailable = errors.New("pricing: no pricing available for these dates")
	ErrNoPricingForDate   = errors.New("pricing: no pricing for date")
)

// NoPricingForDateError names the first day of a stay no period covers.
type NoPricingForDateError struct {
	Date daterange.Date
}

func (e *NoPricingForDateError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoPricingForDate.Error(), e.Date)
}

func (e *NoPricingForDateError) Is(target error) bool {
	return target == ErrNoPricingForDate
}

type NightlyCharge struct {
	Date            daterange.Date  `json:"date"`
	PeriodID        PeriodID        `json:"period_id"`
	BaseRate        decimal.Decimal `json:"base_rate"`
	WeekendPremium  bool            `json:"weekend_premium"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Rate            decimal.Decimal `json:"rate"`
}

type Quote struct {
	Range  daterange.DateRange `json:"range"`
	Nights []NightlyCharge     `json:"nights"`
	Total  money.Money         `json:"total"`
}

// Calculator sums per-day rates over a stay. It holds no state and is safe for
// concurrent use.
type Calculator struct{}

func NewCalculator() Calculator { return Calculator{} }

// Quote prices every night of [checkIn, checkOut). Each day takes the first period
// in input order whose window covers it; overlapping periods are not an error.
func (Calculator) Quote(periods []Period, checkIn, checkOut daterange.Date) (Quote, error) {
	stay, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	nights := stay.Nights()

	candidates := make([]Period, 0, len(periods))
	for _, p := range periods {
		if p.OverlapsWindow(checkIn, checkOut) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Quote{}, ErrNoPricingAvailable
	}

	quote := Quote{Range: stay, Nights: make([]NightlyCharge, 0, nights)}
	total := decimal.Zero
	currency := ""
	for _, day := range stay.Days() {
		period, ok := firstCovering(candidates, day)
		if !ok {
			return Quote{}, &NoPricingForDateError{Date: day}
		}
		if currency == "" {
			currency = period.Currency
		}
		charge := period.Charge(day, nights)
		total = total.Add(charge.Rate)
		quote.Nights = append(quote.Nights, charge)
	}
	quote.Total = money.Money{Amount: total, Currency: currency}
	return quote, nil
}

// TotalPrice is Quote without the breakdown.
func (c Calculator) TotalPrice(periods []Period, checkIn, checkOut daterange.Date) (decimal.Decimal, error) {
	q, err := c.Quote(periods, checkIn, checkOut)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return q.Total.Amount, nil
}

func firstCovering(periods []Period, day daterange.Date) (Period, bool) {
	for _, p := range periods {
		if p.Covers(day) {
			return p, true
		}
	}
	return Period{}, false
}

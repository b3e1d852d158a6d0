// Package fixtures seeds properties from a JSON file by dispatching the same
// commands the HTTP surface uses.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	availabilityapp "rentcalc/internal/app/handlers/availability"
	pricingapp "rentcalc/internal/app/handlers/pricing"
	"rentcalc/internal/domain/shared/daterange"
)

type Property struct {
	ID             string          `json:"id"`
	PricingPeriods []PricingPeriod `json:"pricing_periods"`
	Reservations   []Reservation   `json:"reservations"`
}

type PricingPeriod struct {
	ID          string          `json:"id"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	Currency    string          `json:"currency"`

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
}

type Reservation struct {
	Reference string         `json:"reference"`
	CheckIn   daterange.Date `json:"check_in"`
	CheckOut  daterange.Date `json:"check_out"`
}

// Summary counts what was imported. Rejected entries are logged and skipped.
type Summary struct {
	Properties     int
	PricingPeriods int
	Reservations   int
	Rejected       int
}

// LoadFile reads path and imports it. A missing file is not an error.
func LoadFile(ctx context.Context, path string, bus commands.Bus, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("fixtures file empty", "path", path)
		return Summary{}, nil
	}
	var props []Property
	if err := json.Unmarshal(data, &props); err != nil {
		return Summary{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return Import(ctx, props, bus, logger), nil
}

func Import(ctx context.Context, props []Property, bus commands.Bus, logger *slog.Logger) Summary {
	if logger == nil {
		logger = slog.Default()
	}
	var sum Summary
	for _, p := range props {
		imported := false
		for _, pp := range p.PricingPeriods {
			_, err := commands.Dispatch[pricingapp.SavePricingPeriodCommand, *dto.PricingPeriod](ctx, bus, pp.command(p.ID))
			if err != nil {
				logger.Error("fixture pricing period rejected", "property_id", p.ID, "period_id", pp.ID, "error", err)
				sum.Rejected++
				continue
			}
			sum.PricingPeriods++
			imported = true
		}
		for _, r := range p.Reservations {
			cmd := availabilityapp.ReserveCommand{PropertyID: p.ID, Reference: r.Reference, CheckIn: r.CheckIn, CheckOut: r.CheckOut}
			if _, err := commands.Dispatch[availabilityapp.ReserveCommand, *dto.Reservation](ctx, bus, cmd); err != nil {
				logger.Error("fixture reservation rejected", "property_id", p.ID, "reference", r.Reference, "error", err)
				sum.Rejected++
				continue
			}
			sum.Reservations++
			imported = true
		}
		if imported {
			sum.Properties++
			logger.Info("property fixture imported", "property_id", p.ID)
		}
	}
	return sum
}

func (pp PricingPeriod) command(propertyID string) pricingapp.SavePricingPeriodCommand {
	return pricingapp.SavePricingPeriodCommand{
		PropertyID:             propertyID,
		PeriodID:               pp.ID,
		NightlyRate:            pp.NightlyRate,
		Currency:               pp.Currency,
		WeeklyDiscountPercent:  pp.WeeklyDiscountPercent,
		WeeklyDiscountActive:   pp.WeeklyDiscountActive,
		MinDaysForWeekly:       pp.MinDaysForWeekly,
		MonthlyDiscountPercent: pp.MonthlyDiscountPercent,
		MonthlyDiscountActive:  pp.MonthlyDiscountActive,
		MinDaysForMonthly:      pp.MinDaysForMonthly,
		WeekendPremiumPercent:  pp.WeekendPremiumPercent,
		WeekendPremiumActive:   pp.WeekendPremiumActive,
		StartDate:              pp.StartDate,
		EndDate:                pp.EndDate,
	}
}

// DefaultPath picks the first existing candidate, or the first one when none exist.
func DefaultPath() string {
	candidates := []string{
		filepath.Join("data", "properties.json"),
		filepath.Join("..", "..", "data", "properties.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

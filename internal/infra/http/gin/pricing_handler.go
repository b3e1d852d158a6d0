package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	pricingapp "rentcalc/internal/app/handlers/pricing"
	"rentcalc/internal/app/queries"
	"rentcalc/internal/domain/shared/daterange"
)

type PricingHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h PricingHandler) Quote(c *gin.Context) {
	checkIn, checkOut, err := queryDates(c, "check_in", "check_out")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := pricingapp.QuotePriceQuery{PropertyID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[pricingapp.QuotePriceQuery, dto.PriceQuote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) List(c *gin.Context) {
	query := pricingapp.ListPricingPeriodsQuery{PropertyID: c.Param("id")}
	result, err := queries.Ask[pricingapp.ListPricingPeriodsQuery, []dto.PricingPeriod](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

type pricingPeriodRequest struct {
	NightlyRate            decimal.Decimal `json:"nightly_rate"`
	Currency               string          `json:"currency"`
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
}

// Create stores a new period under a generated id.
func (h PricingHandler) Create(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// Put creates or replaces the period named in the path.
func (h PricingHandler) Put(c *gin.Context) {
	h.save(c, c.Param("periodID"), http.StatusOK)
}

func (h PricingHandler) save(c *gin.Context, periodID string, status int) {
	var req pricingPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}
	cmd := pricingapp.SavePricingPeriodCommand{
		PropertyID:             c.Param("id"),
		PeriodID:               periodID,
		NightlyRate:            req.NightlyRate,
		Currency:               req.Currency,
		WeeklyDiscountPercent:  req.WeeklyDiscountPercent,
		WeeklyDiscountActive:   req.WeeklyDiscountActive,
		MinDaysForWeekly:       req.MinDaysForWeekly,
		MonthlyDiscountPercent: req.MonthlyDiscountPercent,
		MonthlyDiscountActive:  req.MonthlyDiscountActive,
		MinDaysForMonthly:      req.MinDaysForMonthly,
		WeekendPremiumPercent:  req.WeekendPremiumPercent,
		WeekendPremiumActive:   req.WeekendPremiumActive,
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
	}
	result, err := commands.Dispatch[pricingapp.SavePricingPeriodCommand, *dto.PricingPeriod](commandContext(c), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(status, result)
}

func (h PricingHandler) Delete(c *gin.Context) {
	cmd := pricingapp.DeletePricingPeriodCommand{PropertyID: c.Param("id"), PeriodID: c.Param("periodID")}
	if _, err := commands.Dispatch[pricingapp.DeletePricingPeriodCommand, struct{}](commandContext(c), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ PricingHTTP = PricingHandler{}

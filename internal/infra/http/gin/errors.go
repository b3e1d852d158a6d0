package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcalc/internal/app/commands"
	availabilityapp "rentcalc/internal/app/handlers/availability"
	"rentcalc/internal/app/middleware"
	"rentcalc/internal/app/queries"
	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/domain/shared/money"
	"rentcalc/internal/infra/validation"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Date    string                  `json:"date,omitempty"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{daterange.ErrInvalidRange, http.StatusBadRequest, "invalid_date_range"},
	{errInvalidDate, http.StatusBadRequest, "invalid_date"},
	{errInvalidBody, http.StatusBadRequest, "invalid_body"},
	{validation.ErrInvalidMessage, http.StatusBadRequest, "validation_failed"},
	{property.ErrIDRequired, http.StatusBadRequest, "property_id_required"},
	{domainpricing.ErrInvalidPeriod, http.StatusBadRequest, "invalid_pricing_period"},
	{money.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{domainavailability.ErrReferenceRequired, http.StatusBadRequest, "reference_required"},
	{availabilityapp.ErrWindowTooLarge, http.StatusBadRequest, "window_too_large"},

	{domainpricing.ErrNoPricingForDate, http.StatusUnprocessableEntity, "no_pricing_for_date"},
	{domainpricing.ErrNoPricingAvailable, http.StatusUnprocessableEntity, "no_pricing_available"},

	{domainavailability.ErrOverlappingRange, http.StatusConflict, "dates_unavailable"},
	{domainavailability.ErrDuplicateReference, http.StatusConflict, "duplicate_reference"},
	{domainpricing.ErrOverlappingPeriods, http.StatusConflict, "overlapping_pricing_periods"},
	{middleware.ErrIdempotencyKeyReused, http.StatusConflict, "idempotency_key_reused"},
	{uow.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},

	{domainavailability.ErrReservationMissing, http.StatusNotFound, "reservation_not_found"},
	{domainpricing.ErrPeriodNotFound, http.StatusNotFound, "pricing_period_not_found"},

	{commands.ErrNilBus, http.StatusServiceUnavailable, "unavailable"},
	{queries.ErrNilBus, http.StatusServiceUnavailable, "unavailable"},
}

var (
	errInvalidDate = errors.New("http: dates must use YYYY-MM-DD")
	errInvalidBody = errors.New("http: malformed request body")
)

func classify(err error) (int, errorBody) {
	body := errorBody{Code: "internal", Message: err.Error()}
	status := http.StatusInternalServerError
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, body.Code = m.status, m.code
			break
		}
	}
	var noPrice *domainpricing.NoPricingForDateError
	if errors.As(err, &noPrice) {
		body.Date = noPrice.Date.String()
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		body.Message = "internal error"
	}
	return status, body
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, body := classify(err)
	if logger != nil {
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed", "status", status, "code", body.Code, "error", err, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(status, body)
}

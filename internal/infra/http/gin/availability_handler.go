package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	availabilityapp "rentcalc/internal/app/handlers/availability"
	"rentcalc/internal/app/queries"
	"rentcalc/internal/domain/shared/daterange"
)

const idempotencyKeyHeader = "Idempotency-Key"

type AvailabilityHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	checkIn, checkOut, err := queryDates(c, "check_in", "check_out")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := availabilityapp.CheckAvailabilityQuery{PropertyID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityVerdict](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Periods(c *gin.Context) {
	from, to, err := queryDates(c, "from", "to")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	query := availabilityapp.ListPeriodsQuery{PropertyID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.ListPeriodsQuery, dto.AvailabilityPeriods](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reserveRequest struct {
	Reference string         `json:"reference"`
	CheckIn   daterange.Date `json:"check_in"`
	CheckOut  daterange.Date `json:"check_out"`
}

func (h AvailabilityHandler) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}
	cmd := availabilityapp.ReserveCommand{
		PropertyID:      c.Param("id"),
		Reference:       req.Reference,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		IdempotencyKeyV: c.GetHeader(idempotencyKeyHeader),
	}
	result, err := commands.Dispatch[availabilityapp.ReserveCommand, *dto.Reservation](commandContext(c), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AvailabilityHandler) Release(c *gin.Context) {
	cmd := availabilityapp.ReleaseCommand{PropertyID: c.Param("id"), Reference: c.Param("ref")}
	if _, err := commands.Dispatch[availabilityapp.ReleaseCommand, struct{}](commandContext(c), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ AvailabilityHTTP = AvailabilityHandler{}

package ginserver

import (
	"context"
	"fmt"

	gin "github.com/gin-gonic/gin"

	"rentcalc/internal/app/outbox"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/infra/obs"
)

// commandContext carries the request id into the headers of any events the
// command records.
func commandContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	return outbox.WithHeaders(ctx, map[string]string{"request_id": obs.RequestIDFromContext(ctx)})
}

func queryDate(c *gin.Context, name string) (daterange.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return daterange.Date{}, nil
	}
	d, err := daterange.Parse(raw)
	if err != nil {
		return daterange.Date{}, fmt.Errorf("%w: %s=%q", errInvalidDate, name, raw)
	}
	return d, nil
}

func queryDates(c *gin.Context, first, second string) (daterange.Date, daterange.Date, error) {
	a, err := queryDate(c, first)
	if err != nil {
		return daterange.Date{}, daterange.Date{}, err
	}
	b, err := queryDate(c, second)
	if err != nil {
		return daterange.Date{}, daterange.Date{}, err
	}
	return a, b, nil
}

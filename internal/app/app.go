// Package app assembles the command and query buses with their middleware.
package app

import (
	"log/slog"
	"time"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	availabilityapp "rentcalc/internal/app/handlers/availability"
	pricingapp "rentcalc/internal/app/handlers/pricing"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/middleware"
	"rentcalc/internal/app/outbox"
	"rentcalc/internal/app/policies"
	"rentcalc/internal/app/queries"
	"rentcalc/internal/app/uow"
	domainpricing "rentcalc/internal/domain/pricing"
)

type Deps struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Idempotency middleware.IdempotencyStore
	Cache       policies.SnapshotCache // nil disables snapshot caching
	Validator   middleware.Validator
	Logger      *slog.Logger

	MaxWindowDays int
	Now           func() time.Time
}

type App struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// New registers every handler. From the outside in, commands pass through
// logging, validation, idempotency, cache invalidation, outbox flush, a retry
// on concurrent updates and the transaction. The outbox is flushed once the
// unit has committed.
func New(d Deps) App {
	encoder := d.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	snapshots := support.SnapshotLoader{UoWFactory: d.UoWFactory, Cache: d.Cache, Logger: d.Logger}

	commandBus := commands.NewInMemoryBus()
	commands.Register[availabilityapp.ReserveCommand, *dto.Reservation](commandBus, &availabilityapp.ReserveHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Logger: d.Logger, Now: d.Now,
	})
	commands.Register[availabilityapp.ReleaseCommand, struct{}](commandBus, &availabilityapp.ReleaseHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})
	commands.Register[pricingapp.SavePricingPeriodCommand, *dto.PricingPeriod](commandBus, &pricingapp.SavePricingPeriodHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})
	commands.Register[pricingapp.DeletePricingPeriodCommand, struct{}](commandBus, &pricingapp.DeletePricingPeriodHandler{
		UoWFactory: d.UoWFactory, Outbox: d.Outbox, Encoder: encoder, Now: d.Now,
	})

	queryBus := queries.NewInMemoryBus()
	queries.Register[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityVerdict](queryBus, &availabilityapp.CheckAvailabilityHandler{Snapshots: snapshots})
	queries.Register[availabilityapp.ListPeriodsQuery, dto.AvailabilityPeriods](queryBus, &availabilityapp.ListPeriodsHandler{Snapshots: snapshots, MaxWindowDays: d.MaxWindowDays})
	queries.Register[pricingapp.QuotePriceQuery, dto.PriceQuote](queryBus, &pricingapp.QuotePriceHandler{Snapshots: snapshots, Calculator: domainpricing.NewCalculator()})
	queries.Register[pricingapp.ListPricingPeriodsQuery, []dto.PricingPeriod](queryBus, &pricingapp.ListPricingPeriodsHandler{Snapshots: snapshots})

	cmdMW := []middleware.CommandMiddleware{middleware.CommandLogging(d.Logger)}
	queryMW := []middleware.QueryMiddleware{middleware.QueryLogging(d.Logger)}
	if d.Validator != nil {
		cmdMW = append(cmdMW, middleware.Validation(d.Validator))
		queryMW = append(queryMW, middleware.QueryValidation(d.Validator))
	}
	if d.Idempotency != nil {
		cmdMW = append(cmdMW, middleware.Idempotency(d.Idempotency, nil))
	}
	if d.Cache != nil {
		cmdMW = append(cmdMW, middleware.CacheInvalidation(d.Cache, d.Logger))
	}
	if d.Outbox != nil {
		cmdMW = append(cmdMW, middleware.OutboxFlush(d.Outbox, d.Logger))
	}
	cmdMW = append(cmdMW,
		middleware.ConcurrencyRetry(3, d.Logger),
		middleware.Transaction(d.UoWFactory, nil),
	)

	return App{
		Commands: middleware.ChainCommands(commandBus, cmdMW...),
		Queries:  middleware.ChainQueries(queryBus, queryMW...),
	}
}

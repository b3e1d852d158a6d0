package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
)

// Factory wires Mongo sessions into the generic UnitOfWork interface. Write
// units run inside a multi-document transaction; read-only units only pin a
// session.
type Factory struct {
	DB *mongo.Database

	Calendars      *CalendarRepository
	PricingPeriods *PricingRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:             db,
		Calendars:      NewCalendarRepository(db),
		PricingPeriods: NewPricingRepository(db),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.Calendars == nil || f.PricingPeriods == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{session: session, readOnly: opts.ReadOnly, calendars: f.Calendars, pricing: f.PricingPeriods}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	calendars *CalendarRepository
	pricing   *PricingRepository
}

func (u *Unit) Calendars() domainavailability.Repository {
	return u.calendars
}

func (u *Unit) PricingPeriods() domainpricing.Repository {
	return u.pricing
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return concurrentOr(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// concurrentOr maps write conflicts between transactions to the retryable
// uow error and returns any other error unchanged.
func concurrentOr(err error) error {
	if err == nil {
		return nil
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorLabel("TransientTransactionError") {
		return fmt.Errorf("%w: %v", uow.ErrConcurrentUpdate, err)
	}
	return err
}

// InjectContext makes the session visible to repositories through ctx.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)

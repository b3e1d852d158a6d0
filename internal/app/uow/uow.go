package uow

import (
	"context"
	"errors"

	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Calendars() domainavailability.Repository
	PricingPeriods() domainpricing.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ErrConcurrentUpdate is returned by repositories when an optimistic version
// check fails; the caller may retry the command.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

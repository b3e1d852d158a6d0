package memory

import (
	"context"
	"errors"
	"sync"

	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
	ErrReadOnlyUnit         = errors.New("memory: write in read-only unit of work")
)

// Factory opens units over a shared Store. Write units are serialised, so a
// unit sees no concurrent writer between its reads and its commit.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	if !opts.ReadOnly {
		f.Store.writer.Lock()
	}
	return &Unit{
		store:     f.Store,
		readOnly:  opts.ReadOnly,
		calendars: make(map[property.ID]calendarState),
	}, nil
}

// Unit stages writes and applies them to the store on Commit.
type Unit struct {
	store    *Store
	readOnly bool

	mu           sync.Mutex
	done         bool
	calendars    map[property.ID]calendarState
	periods      []domainpricing.Period
	periodsDirty bool
	afterCommit  []func()
}

func (u *Unit) Calendars() domainavailability.Repository {
	return calendarRepository{unit: u}
}

func (u *Unit) PricingPeriods() domainpricing.Repository {
	return pricingRepository{unit: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	u.done = true
	if !u.readOnly {
		u.store.apply(u.calendars, u.periods, u.periodsDirty)
	}
	hooks := u.afterCommit
	u.afterCommit = nil
	u.mu.Unlock()

	u.release()
	for _, hook := range hooks {
		hook()
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return nil
	}
	u.done = true
	u.afterCommit = nil
	u.mu.Unlock()

	u.release()
	return nil
}

func (u *Unit) release() {
	if !u.readOnly {
		u.store.writer.Unlock()
	}
}

// onCommit defers fn until the unit commits; it is dropped on rollback.
func (u *Unit) onCommit(fn func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.afterCommit = append(u.afterCommit, fn)
}

func (u *Unit) checkWritable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	return nil
}

var _ uow.UoWFactory = Factory{}

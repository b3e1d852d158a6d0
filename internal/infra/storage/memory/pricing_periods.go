package memory

import (
	"context"
	"time"

	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
)

type pricingRepository struct {
	unit *Unit
}

func (r pricingRepository) ListByProperty(ctx context.Context, id property.ID) ([]domainpricing.Period, error) {
	out := make([]domainpricing.Period, 0)
	for _, p := range r.unit.currentPeriods() {
		if p.PropertyID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r pricingRepository) ByID(ctx context.Context, id domainpricing.PeriodID) (*domainpricing.Period, error) {
	for _, p := range r.unit.currentPeriods() {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, domainpricing.ErrPeriodNotFound
}

// Save keeps the position of a replaced period so the evaluation order does
// not change on update.
func (r pricingRepository) Save(ctx context.Context, period *domainpricing.Period) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.checkWritable(); err != nil {
		return err
	}
	u.stagePeriods()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = time.Now().UTC()
	}
	stored := clonePeriod(*period)
	for i := range u.periods {
		if u.periods[i].ID == period.ID {
			u.periods[i] = stored
			return nil
		}
	}
	u.periods = append(u.periods, stored)
	sortByCreation(u.periods)
	return nil
}

func (r pricingRepository) Delete(ctx context.Context, id domainpricing.PeriodID) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.checkWritable(); err != nil {
		return err
	}
	u.stagePeriods()
	for i := range u.periods {
		if u.periods[i].ID == id {
			u.periods = append(u.periods[:i], u.periods[i+1:]...)
			return nil
		}
	}
	return domainpricing.ErrPeriodNotFound
}

func (u *Unit) currentPeriods() []domainpricing.Period {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.periodsDirty {
		return clonePeriods(u.periods)
	}
	return u.store.periodsSnapshot()
}

// stagePeriods copies committed periods into the unit on first write. Callers
// hold u.mu.
func (u *Unit) stagePeriods() {
	if u.periodsDirty {
		return
	}
	u.periods = u.store.periodsSnapshot()
	u.periodsDirty = true
}

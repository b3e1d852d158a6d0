package policies

import (
	"context"

	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
)

// PropertySnapshot is everything the calculators need about one property.
type PropertySnapshot struct {
	PropertyID     property.ID                           `json:"property_id"`
	Reservations   []domainavailability.ReservedInterval `json:"reservations"`
	PricingPeriods []domainpricing.Period                `json:"pricing_periods"`
}

// SnapshotCache is a pass-through cache keyed by property id. A miss is
// reported as found=false, never as an error.
//
// Every Invalidate moves the generation of its property. Readers take Generation before loading from the store and hand it
// to Put, which stores nothing when a write has invalidated the property in
// the meantime.
type SnapshotCache interface {
	Get(ctx context.Context, id property.ID) (PropertySnapshot, bool, error)
	Generation(ctx context.Context, id property.ID) (uint64, error)
	Put(ctx context.Context, snapshot PropertySnapshot, generation uint64) (bool, error)
	Invalidate(ctx context.Context, id property.ID) error
	Flush(ctx context.Context) error
}

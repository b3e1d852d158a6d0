package middleware

import (
	"context"
	"log/slog"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/policies"
	"rentcalc/internal/domain/property"
)

// CacheInvalidation drops the cached snapshot of the property a successful
// command touched. It sits outside Transaction so the key is removed after
// commit. The invalidation also moves the property's cache generation, which
// stops a reader that loaded before the commit from storing its snapshot.
func CacheInvalidation(cache policies.SnapshotCache, logger *slog.Logger) CommandMiddleware {
	if cache == nil {
		panic("middleware: snapshot cache required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			scoped, ok := cmd.(commands.PropertyScoped)
			if !ok || scoped.PropertyKey() == "" {
				return res, nil
			}
			if err := cache.Invalidate(ctx, property.ID(scoped.PropertyKey())); err != nil && logger != nil {
				// the write succeeded; a stale entry expires by TTL or the nightly flush
				logger.Warn("snapshot cache invalidation failed", "property_id", scoped.PropertyKey(), "error", err)
			}
			return res, nil
		})
	}
}

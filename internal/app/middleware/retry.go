package middleware

import (
	"context"
	"errors"
	"log/slog"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/uow"
)

// ConcurrencyRetry re-runs a command whose unit lost an optimistic version
// check. It must sit outside Transaction so every attempt gets a fresh unit.
func ConcurrencyRetry(attempts int, logger *slog.Logger) CommandMiddleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var err error
			for i := 0; i < attempts; i++ {
				var res any
				res, err = next.Dispatch(ctx, cmd)
				if !errors.Is(err, uow.ErrConcurrentUpdate) {
					return res, err
				}
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if logger != nil {
					logger.DebugContext(ctx, "retrying after concurrent update", "command", cmd.Key(), "attempt", i+1)
				}
			}
			return nil, err
		})
	}
}

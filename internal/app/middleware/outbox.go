package middleware

import (
	"context"
	"log/slog"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/outbox"
)

// OutboxFlush hands committed event records to the outbox after a command
// succeeds. The change is already durable at that point, so a failed flush is
// logged and the command still reports success.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.ErrorContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}

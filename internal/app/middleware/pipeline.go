package middleware

import (
	"context"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/queries"
)

// CommandMiddleware decorates the command bus. App.New lists the command
// middleware outermost first.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates the query bus.
type QueryMiddleware func(next queries.Bus) queries.Bus

func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return chain(base, mws)
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return chain(base, mws)
}

// chain applies mws so that mws[0] sees a message first.
func chain[B any, M ~func(B) B](base B, mws []M) B {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, query queries.Query) (any, error) {
	return f(ctx, query)
}

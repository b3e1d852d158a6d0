package middleware

import (
	"context"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/uow"
)

// TxOptionsProvider picks unit options per command. A nil provider opens
// read-write units.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

func (p TxOptionsProvider) optionsFor(cmd commands.Command) uow.TxOptions {
	if p == nil {
		return uow.TxOptions{}
	}
	return p(cmd)
}

// Transaction binds a fresh unit of work to every command. The unit commits
// when the handler returns without error; any other exit, a panic included,
// rolls it back.
func Transaction(factory uow.UoWFactory, provider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			unit, err := factory.Begin(ctx, provider.optionsFor(cmd))
			if err != nil {
				return nil, err
			}
			execCtx := uow.Bind(ctx, unit)
			finished := false
			defer func() {
				if !finished {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			finished = true
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}

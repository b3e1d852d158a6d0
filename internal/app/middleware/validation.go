package middleware

import (
	"context"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/queries"
)

// Validator checks struct tags on commands and queries before any handler or
// unit of work sees them.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) CommandMiddleware {
	mustHaveValidator(v)
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	mustHaveValidator(v)
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, query queries.Query) (any, error) {
			if err := v.Validate(ctx, query); err != nil {
				return nil, err
			}
			return next.Ask(ctx, query)
		})
	}
}

func mustHaveValidator(v Validator) {
	if v == nil {
		panic("middleware: validator required")
	}
}

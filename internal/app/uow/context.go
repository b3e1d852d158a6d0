package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

type binding struct {
	unit   UnitOfWork
	parent context.Context
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	b, ok := ctx.Value(ctxKey{}).(binding)
	if !ok || b.unit == nil {
		return nil, false
	}
	return b.unit, true
}

// ContextInjector is implemented by units that carry driver session state
// (a Mongo session) which repositories read from the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind returns a context carrying unit and, when supported, its driver session.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	parent := ctx
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, binding{unit: unit, parent: parent})
}

// Detach returns a context outside the unit bound to ctx. Cancellation and
// deadline still come from ctx, values come from the context the unit was
// first bound to, so neither the unit nor its driver session is visible.
func Detach(ctx context.Context) context.Context {
	values := ctx
	for {
		b, ok := values.Value(ctxKey{}).(binding)
		if !ok {
			break
		}
		values = b.parent
	}
	if values == ctx {
		return ctx
	}
	return detached{Context: ctx, values: values}
}

type detached struct {
	context.Context
	values context.Context
}

func (d detached) Value(key any) any {
	return d.values.Value(key)
}

package commands

import (
	"context"
	"errors"
)

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Command is routed by Key; every write the service accepts is one.
type Command interface {
	Key() string
}

// PropertyScoped commands change the data of the property named by
// PropertyKey, whose cached snapshot is dropped after they succeed.
type PropertyScoped interface {
	PropertyKey() string
}

// Bus is untyped so middleware can wrap any command; callers use Dispatch.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Dispatch sends cmd through bus and returns the result as R. A nil result is
// the zero R.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var out R
	if bus == nil {
		return out, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	if err != nil || res == nil {
		return out, err
	}
	typed, ok := res.(R)
	if !ok {
		return out, ErrResultType
	}
	return typed, nil
}

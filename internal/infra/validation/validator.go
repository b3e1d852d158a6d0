package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"rentcalc/internal/app/middleware"
	"rentcalc/internal/domain/shared/daterange"
)

var ErrInvalidMessage = errors.New("validation: invalid message")

// FieldError names one rejected field of a command or query.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error carries every failed field; errors.Is matches ErrInvalidMessage.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Rule)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidMessage, strings.Join(parts, ", "))
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidMessage
}

// Validator adapts go-playground/validator to the bus middleware port.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// dates validate as their string form, so "required" rejects the zero date
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(daterange.Date); ok && !d.IsZero() {
			return d.String()
		}
		return ""
	}, daterange.Date{})
	return &Validator{validate: v}
}

func (v *Validator) Validate(ctx context.Context, message any) error {
	if message == nil {
		return ErrInvalidMessage
	}
	rv := reflect.ValueOf(message)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ErrInvalidMessage
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := v.validate.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

var _ middleware.Validator = (*Validator)(nil)

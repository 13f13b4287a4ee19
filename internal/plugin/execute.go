package plugin

import (
	"context"
	"errors"
)

// Func is the signature of every plugin phase callable.
type Func func(ctx context.Context, args Args) (any, error)

// Invoke resolves params against overrides and c, then calls fn with the
// result. Errors returned by fn and panics raised inside it come back as
// *RuntimeError; resolution failures are returned unchanged.
func Invoke(ctx context.Context, fn Func, params []Parameter, overrides map[string]any, c Context) (any, error) {
	if fn == nil {
		return nil, NewRuntimeError("", "", errors.New("callable is nil"))
	}

	args, err := Resolve(params, overrides, c)
	if err != nil {
		return nil, err
	}

	return call(ctx, fn, args)
}

func call(ctx context.Context, fn Func, args Args) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = NewRuntimeError("", "", &PanicError{Value: r})
		}
	}()

	out, err = fn(ctx, args)
	if err != nil {
		var runtimeErr *RuntimeError
		if errors.As(err, &runtimeErr) {
			return nil, err
		}
		return nil, NewRuntimeError("", "", err)
	}
	return out, nil
}

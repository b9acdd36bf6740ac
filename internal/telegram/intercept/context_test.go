package intercept

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(calls *[]string, name string, err error) Func {
	return func(ctx Context) (Context, error) {
		*calls = append(*calls, name)
		return ctx, err
	}
}

func TestWithHandlerRunsChainsInOrder(t *testing.T) {
	var calls []string
	h := WithHandler(record(&calls, "handler", nil),
		WithBefore(record(&calls, "before1", nil), record(&calls, "before2", nil)),
		WithAfter(record(&calls, "after", nil)),
		WithDefer(record(&calls, "defer", nil)))
	require.NoError(t, h(nil))
	assert.Equal(t, []string{"before1", "before2", "handler", "after", "defer"}, calls)
}

func TestWithHandlerStopsOnBeforeError(t *testing.T) {
	var calls []string
	h := WithHandler(record(&calls, "handler", nil),
		WithBefore(record(&calls, "before", fmt.Errorf("denied"))),
		WithDefer(record(&calls, "defer", nil)))
	assert.EqualError(t, h(nil), "denied")
	assert.Equal(t, []string{"before", "defer"}, calls)
}

func TestWithHandlerKeepsBeforeValuesForDefer(t *testing.T) {
	var seen interface{}
	h := WithHandler(func(ctx Context) (Context, error) { return ctx, nil },
		WithBefore(func(ctx Context) (Context, error) {
			ctx.Context = context.WithValue(ctx, "lock", "handler:1")
			return ctx, nil
		}, record(new([]string), "fail", fmt.Errorf("fail"))),
		WithDefer(func(ctx Context) (Context, error) {
			seen = ctx.Value("lock")
			return ctx, nil
		}))
	assert.Error(t, h(nil))
	assert.Equal(t, "handler:1", seen)
}

func TestWithHandlerRecoversPanic(t *testing.T) {
	deferred := false
	h := WithHandler(func(ctx Context) (Context, error) { panic("boom") },
		WithDefer(func(ctx Context) (Context, error) {
			deferred = true
			return ctx, nil
		}))
	err := h(nil)
	var panicErr PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
	assert.True(t, deferred)
}

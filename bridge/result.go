package bridge

import (
	"context"
	"strings"

	"github.com/pgs62/juliabridge"
)

// Result is the boundary-tier return shape: either a Value or a
// sentinel-framed error text a formula cell can display, never both.
type Result struct {
	Value   juliabridge.Value
	ErrText string
}

func (r Result) Failed() bool { return r.ErrText != "" }

// sentinelText frames op and err as "#<op>: <detail>!". The leading
// marker lets the receiving grid distinguish failure text from a string
// result at a glance.
func sentinelText(op string, err error) string {
	return "#" + op + ": " + err.Error() + "!"
}

// isSentinel recognizes failure text that already carries the frame,
// which is how the worker reports its own evaluation errors.
func isSentinel(v juliabridge.Value) bool {
	return v.Kind == juliabridge.KindString &&
		strings.HasPrefix(v.Str, "#") && strings.HasSuffix(v.Str, "!")
}

// EvalResult is Eval with every failure folded into the Result.
func (b *Bridge) EvalResult(ctx context.Context, expr string) Result {
	v, err := b.Eval(ctx, expr)
	if err != nil {
		return Result{ErrText: sentinelText("Eval", err)}
	}
	if isSentinel(v) {
		return Result{ErrText: v.Str}
	}
	return Result{Value: v}
}

// CallResult is Call with every failure folded into the Result.
func (b *Bridge) CallResult(ctx context.Context, fn string, args ...juliabridge.Value) Result {
	v, err := b.Call(ctx, fn, args...)
	if err != nil {
		return Result{ErrText: sentinelText("Call", err)}
	}
	if isSentinel(v) {
		return Result{ErrText: v.Str}
	}
	return Result{Value: v}
}

// LaunchResult is Launch with every failure folded into the Result; on
// success the description travels as a string value.
func (b *Bridge) LaunchResult(ctx context.Context) Result {
	desc, err := b.Launch(ctx)
	if err != nil {
		return Result{ErrText: sentinelText("Launch", err)}
	}
	return Result{Value: juliabridge.String(desc)}
}

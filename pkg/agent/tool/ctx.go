package tool

import (
	"context"
	"fmt"
)

// ProgressFunc receives progress lines emitted by tools while the agent runs.
type ProgressFunc func(ctx context.Context, message string)

type progressKey struct{}

// WithProgress attaches fn to ctx. Tools report through Progressf.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progressf formats a progress line and hands it to the ProgressFunc in ctx.
// Without one it does nothing.
func Progressf(ctx context.Context, format string, args ...any) {
	fn, ok := ctx.Value(progressKey{}).(ProgressFunc)
	if !ok || fn == nil {
		return
	}
	fn(ctx, fmt.Sprintf(format, args...))
}

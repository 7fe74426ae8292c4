package hooks

import "context"

type skipHooksKey struct{}

// WithSkipHooks marks ctx so quality-gate and loop-hook dispatch is bypassed
// for this call chain — used by the retry path inside a gate evaluation
// itself, so a gate's re-run of the target agent doesn't recursively
// re-trigger the same gate.
func WithSkipHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipHooksKey{}, true)
}

// SkipHooksFromContext reports whether WithSkipHooks was set on ctx.
func SkipHooksFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(skipHooksKey{}).(bool)
	return v
}

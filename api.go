package jsonapi

import (
	"context"
)

// Transformer performs the bidirectional conversion between a wire
// representation W and a domain representation V for one attribute.
// Implementations are used as type parameters, so their zero value must be
// ready to use.
type Transformer[W, V any] interface {
	Decode(ctx context.Context, w W) (V, error) // W (wire) -> V (domain).
	Encode(ctx context.Context, v V) (W, error) // V (domain) -> W (wire).
}

// ---- decode-time context options (internal wiring, exported for subpackages) ----

type contextKey int

const (
	_ctxKeyDecodeOpt contextKey = iota
)

// WithDecodeOpt returns a child context carrying decode options. Decode entry
// points set it from their DecodeOpt argument and nested decoders read it back.
func WithDecodeOpt(ctx context.Context, opt DecodeOpt) context.Context {
	return context.WithValue(ctx, _ctxKeyDecodeOpt, opt)
}

// DecodeOptFrom returns the decode options stored in ctx, or the zero value.
func DecodeOptFrom(ctx context.Context) DecodeOpt {
	opt, _ := ctx.Value(_ctxKeyDecodeOpt).(DecodeOpt)
	return opt
}

// IsFailFast reports whether the current decode should stop on the first issue.
func IsFailFast(ctx context.Context) bool { return DecodeOptFrom(ctx).FailFast }

func isStrict(ctx context.Context) bool { return DecodeOptFrom(ctx).UnknownFields == UnknownStrict }

package codec

import (
	"context"

	"github.com/reoring/jsonapi"
)

// Optional lifts the transformer T over null: null maps to null and other
// values go through T.
//
//	jsonapi.TransformedAttribute[jsonapi.Nullable[string], jsonapi.Nullable[time.Time],
//		codec.Optional[string, time.Time, codec.RFC3339]]
type Optional[W, V any, T jsonapi.Transformer[W, V]] struct{}

func (Optional[W, V, T]) Decode(ctx context.Context, w jsonapi.Nullable[W]) (jsonapi.Nullable[V], error) {
	if !w.Valid {
		return jsonapi.Null[V](), nil
	}
	var t T
	v, err := t.Decode(ctx, w.Value)
	if err != nil {
		return jsonapi.Null[V](), err
	}
	return jsonapi.NotNull(v), nil
}

func (Optional[W, V, T]) Encode(ctx context.Context, v jsonapi.Nullable[V]) (jsonapi.Nullable[W], error) {
	if !v.Valid {
		return jsonapi.Null[W](), nil
	}
	var t T
	w, err := t.Encode(ctx, v.Value)
	if err != nil {
		return jsonapi.Null[W](), err
	}
	return jsonapi.NotNull(w), nil
}

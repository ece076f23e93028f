// Package codec provides ready-made transformers for TransformedAttribute.
//
// Transformers are zero-size types used as type parameters:
//
//	type EventAttrs struct {
//		At jsonapi.TransformedAttribute[string, time.Time, codec.RFC3339] `jsonapi:"at"`
//	}
package codec

import (
	"context"

	"github.com/reoring/jsonapi"
)

// Identity is the transformer that keeps the wire value as the domain value.
type Identity[V any] struct{}

var _ jsonapi.Transformer[string, string] = Identity[string]{}

func (Identity[V]) Decode(_ context.Context, w V) (V, error) { return w, nil }

func (Identity[V]) Encode(_ context.Context, v V) (V, error) { return v, nil }

package jsonapi

import (
	"context"

	json "github.com/goccy/go-json"
)

type fieldKind int

const (
	kindNone fieldKind = iota
	kindAttribute
	kindRelationship
)

// memberField is implemented by every value allowed in an attribute or
// relationship set.
type memberField interface {
	memberKind() fieldKind
}

type attributeField interface {
	memberField
	attributeShape() AttributeShape
	// encodeAttribute returns the wire value, or false when the key must be
	// omitted.
	encodeAttribute(ctx context.Context, p PathRef) (json.RawMessage, bool, error)
}

type attributeDecoder interface {
	decodeAttribute(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error
}

// Attribute is a plain attribute whose Go value is written to the wire as is.
// Nullability follows V: pointers, interfaces and Nullable accept null.
type Attribute[V any] struct {
	Value V
}

// NewAttribute returns an Attribute holding v.
func NewAttribute[V any](v V) Attribute[V] { return Attribute[V]{Value: v} }

func (Attribute[V]) memberKind() fieldKind { return kindAttribute }

func (Attribute[V]) attributeShape() AttributeShape { return valueShape(typeOf[V]()) }

func (a Attribute[V]) encodeAttribute(_ context.Context, p PathRef) (json.RawMessage, bool, error) {
	raw, err := marshalWireValue(a.Value, a.attributeShape())
	if err != nil {
		return nil, false, Issues{illegalEncoding(p, err.Error()).withCause(err)}
	}
	return raw, true, nil
}

func (a *Attribute[V]) decodeAttribute(_ context.Context, raw json.RawMessage, present bool, p PathRef) error {
	pr, err := CheckAttribute(raw, present, a.attributeShape(), p)
	if err != nil {
		return err
	}
	var v V
	if pr == PresenceSeen {
		if err := unmarshalValue(raw, &v); err != nil {
			return Issues{valueDecodeFailed(p, typeOf[V]().String(), raw, err)}
		}
		nilEmpty(&v)
	}
	a.Value = v
	return nil
}

// TransformedAttribute is an attribute whose domain value V is converted to
// and from the wire value W by the Transformer T. Nullability and the array
// axis follow W. Conversion failures are reported as "transform_failed",
// separately from wire shape errors.
type TransformedAttribute[W, V any, T Transformer[W, V]] struct {
	Value V
}

// NewTransformedAttribute returns a TransformedAttribute holding v.
func NewTransformedAttribute[W, V any, T Transformer[W, V]](v V) TransformedAttribute[W, V, T] {
	return TransformedAttribute[W, V, T]{Value: v}
}

func (TransformedAttribute[W, V, T]) memberKind() fieldKind { return kindAttribute }

func (TransformedAttribute[W, V, T]) attributeShape() AttributeShape {
	return valueShape(typeOf[W]())
}

func (a TransformedAttribute[W, V, T]) encodeAttribute(ctx context.Context, p PathRef) (json.RawMessage, bool, error) {
	var t T
	w, err := t.Encode(ctx, a.Value)
	if err != nil {
		return nil, false, Issues{transformFailed(p, err)}
	}
	raw, err := marshalWireValue(w, a.attributeShape())
	if err != nil {
		return nil, false, Issues{illegalEncoding(p, err.Error()).withCause(err)}
	}
	return raw, true, nil
}

func (a *TransformedAttribute[W, V, T]) decodeAttribute(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	pr, err := CheckAttribute(raw, present, a.attributeShape(), p)
	if err != nil {
		return err
	}
	var w W
	if pr == PresenceSeen {
		if err := unmarshalValue(raw, &w); err != nil {
			return Issues{valueDecodeFailed(p, typeOf[W]().String(), raw, err)}
		}
		nilEmpty(&w)
	}
	var t T
	v, err := t.Decode(ctx, w)
	if err != nil {
		return Issues{transformFailed(p, err)}
	}
	a.Value = v
	return nil
}

package jsonapi

import (
	"context"
	"reflect"

	json "github.com/goccy/go-json"
)

// Omittable wraps an attribute or relationship whose key may be absent from
// the wire. Present == false is the absent sentinel: the key is omitted on
// encode and a missing key decodes to it. Omittable is independent from
// nullability; an omittable nullable attribute distinguishes all three of
// absent, null and value.
type Omittable[F any] struct {
	Field   F
	Present bool
}

// Present wraps f as a present member.
func Present[F any](f F) Omittable[F] { return Omittable[F]{Field: f, Present: true} }

// Absent returns the absent sentinel.
func Absent[F any]() Omittable[F] { return Omittable[F]{} }

// Get returns the wrapped member and whether it is present.
func (o Omittable[F]) Get() (F, bool) { return o.Field, o.Present }

func (o Omittable[F]) memberKind() fieldKind {
	if typeOf[F]().Kind() == reflect.Pointer {
		return kindNone
	}
	if m, ok := any(o.Field).(memberField); ok {
		return m.memberKind()
	}
	return kindNone
}

func (o Omittable[F]) attributeShape() AttributeShape {
	s := any(o.Field).(attributeField).attributeShape()
	s.Omittable = true
	return s
}

func (o Omittable[F]) encodeAttribute(ctx context.Context, p PathRef) (json.RawMessage, bool, error) {
	if !o.Present {
		return nil, false, nil
	}
	return any(o.Field).(attributeField).encodeAttribute(ctx, p)
}

func (o *Omittable[F]) decodeAttribute(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	if !present {
		if o.attributeShape().Array {
			return Issues{required(p)}
		}
		*o = Omittable[F]{}
		return nil
	}
	if err := any(&o.Field).(attributeDecoder).decodeAttribute(ctx, raw, true, p); err != nil {
		return err
	}
	o.Present = true
	return nil
}

func (o Omittable[F]) relationshipShape() RelationshipShape {
	s := any(o.Field).(relationshipField).relationshipShape()
	s.Omittable = true
	return s
}

func (o Omittable[F]) encodeRelationship(ctx context.Context, p PathRef) (json.RawMessage, bool, error) {
	if !o.Present {
		return nil, false, nil
	}
	return any(o.Field).(relationshipField).encodeRelationship(ctx, p)
}

func (o *Omittable[F]) decodeRelationship(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	if !present {
		*o = Omittable[F]{}
		return nil
	}
	if err := any(&o.Field).(relationshipDecoder).decodeRelationship(ctx, raw, true, p); err != nil {
		return err
	}
	o.Present = true
	return nil
}

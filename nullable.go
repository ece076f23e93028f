package jsonapi

import (
	"bytes"
	"reflect"

	json "github.com/goccy/go-json"
)

// Nullable is a value that may be JSON null. The zero value is null.
type Nullable[V any] struct {
	Value V
	Valid bool
}

// NotNull returns a non-null Nullable holding v.
func NotNull[V any](v V) Nullable[V] { return Nullable[V]{Value: v, Valid: true} }

// Null returns the null representation.
func Null[V any]() Nullable[V] { return Nullable[V]{} }

// Get returns the value and whether it is non-null.
func (n Nullable[V]) Get() (V, bool) { return n.Value, n.Valid }

func (n Nullable[V]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return nullLiteral, nil
	}
	return json.Marshal(n.Value)
}

func (n *Nullable[V]) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*n = Nullable[V]{}
		return nil
	}
	var v V
	if err := unmarshalValue(b, &v); err != nil {
		return err
	}
	*n = Nullable[V]{Value: v, Valid: true}
	return nil
}

func (Nullable[V]) nullableElem() reflect.Type { return typeOf[V]() }

type nullableValue interface{ nullableElem() reflect.Type }

var nullableValueType = reflect.TypeOf((*nullableValue)(nil)).Elem()

func typeOf[V any]() reflect.Type { return reflect.TypeOf((*V)(nil)).Elem() }

var byteSliceType = reflect.TypeOf([]byte(nil))

// valueShape derives the nullable and array axes of a wire value type.
// Pointers, interfaces and Nullable hold null; slices (other than []byte)
// and Go arrays are JSON arrays.
func valueShape(t reflect.Type) AttributeShape {
	var s AttributeShape
	elem := t
	switch {
	case t.Kind() == reflect.Pointer:
		s.Nullable = true
		elem = t.Elem()
	case t.Kind() == reflect.Interface:
		s.Nullable = true
		return s
	case t.Implements(nullableValueType):
		s.Nullable = true
		elem = reflect.Zero(t).Interface().(nullableValue).nullableElem()
	}
	switch elem.Kind() {
	case reflect.Slice:
		s.Array = elem.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		s.Array = true
	}
	return s
}

// nilEmpty resets *dst to nil when it holds an empty slice or map. Nil
// slices and maps encode as [] and {}, so decoding must map them back to nil
// for a round trip to be lossless.
func nilEmpty(dst any) {
	rv := reflect.ValueOf(dst).Elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.Len() == 0 && !rv.IsNil() {
			rv.Set(reflect.Zero(rv.Type()))
		}
	}
}

// unmarshalValue decodes raw into dst keeping numbers as json.Number when the
// target is untyped.
func unmarshalValue(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dst)
}

// marshalWireValue encodes v with the array and map conventions: a nil slice
// in an array attribute is [] and a nil map in a non-nullable attribute is {}.
func marshalWireValue(v any, shape AttributeShape) (json.RawMessage, error) {
	rv := reflect.ValueOf(v)
	if rv.IsValid() {
		switch rv.Kind() {
		case reflect.Slice:
			if rv.IsNil() {
				if shape.Array {
					return json.RawMessage("[]"), nil
				}
				if rv.Type() == byteSliceType && !shape.Nullable {
					return json.RawMessage(`""`), nil
				}
			}
		case reflect.Map:
			if rv.IsNil() && !shape.Nullable {
				return json.RawMessage("{}"), nil
			}
		}
	}
	return json.Marshal(v)
}

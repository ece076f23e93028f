package jsonapi

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/reoring/jsonapi/internal/wire"
)

// Fieldsets restricts the attributes written per resource type name, like
// the fields[type]=a,b request parameter. A type without an entry is written
// in full; a type with an empty list is written without attributes.
type Fieldsets map[string][]string

func (fs Fieldsets) lookup(typeName string) (map[string]bool, bool) {
	names, ok := fs[typeName]
	if !ok {
		return nil, false
	}
	return allowSet(names), true
}

func allowSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// sparseEncoder drops every object member whose key is not allowed, along
// with its entire value. It is installed on an attributes container only, so
// the same allow-list applies at every depth below it.
type sparseEncoder struct {
	inner wire.Encoder
	allow map[string]bool
	// objects tracks the open containers written through to inner.
	objects []bool
	// skipping counts the open containers of a suppressed value.
	skipping int
	// dropNext is set after a disallowed key until its value is consumed.
	dropNext bool
}

// SparseEncoder wraps inner so that object keys outside allow are skipped,
// never written, not even as null. Pre-encoded composite values are replayed
// through the filter so nested members are filtered as well.
func SparseEncoder(inner Encoder, allow ...string) Encoder {
	return &sparseEncoder{inner: inner, allow: allowSet(allow)}
}

func (s *sparseEncoder) begin(object bool, fn func() error) error {
	if s.skipping > 0 {
		s.skipping++
		return nil
	}
	if s.dropNext {
		s.dropNext = false
		s.skipping = 1
		return nil
	}
	s.objects = append(s.objects, object)
	return fn()
}

func (s *sparseEncoder) end(fn func() error) error {
	if s.skipping > 0 {
		s.skipping--
		return nil
	}
	if n := len(s.objects); n > 0 {
		s.objects = s.objects[:n-1]
	}
	return fn()
}

func (s *sparseEncoder) BeginObject() error { return s.begin(true, s.inner.BeginObject) }

func (s *sparseEncoder) EndObject() error { return s.end(s.inner.EndObject) }

func (s *sparseEncoder) BeginArray() error { return s.begin(false, s.inner.BeginArray) }

func (s *sparseEncoder) EndArray() error { return s.end(s.inner.EndArray) }

func (s *sparseEncoder) Key(k string) error {
	if s.skipping > 0 {
		return nil
	}
	if !s.allow[k] {
		s.dropNext = true
		return nil
	}
	return s.inner.Key(k)
}

func (s *sparseEncoder) Value(raw json.RawMessage) error {
	if s.skipping > 0 {
		return nil
	}
	if s.dropNext {
		s.dropNext = false
		return nil
	}
	if wire.IsComposite(raw) {
		return wire.Replay(s, raw)
	}
	return s.inner.Value(raw)
}

// Sparse projects r onto the listed attribute names, overriding any fieldset
// given for its type at encode time.
func Sparse(r Resource, fields ...string) Resource {
	if fields == nil {
		fields = []string{}
	}
	return sparseResource{Resource: r, fields: fields}
}

type sparseResource struct {
	Resource
	fields []string
}

func (s sparseResource) EncodeJSONAPI(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error {
	merged := make(Fieldsets, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged[s.TypeName()] = s.fields
	return s.Resource.EncodeJSONAPI(ctx, enc, merged, p)
}

// Unwrap returns the projected resource.
func (s sparseResource) Unwrap() Resource { return s.Resource }

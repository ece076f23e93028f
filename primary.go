package jsonapi

import (
	"context"

	json "github.com/goccy/go-json"
)

// Primary is the shape of a document's primary data: Single, NullableSingle,
// Many or NoData. Pointers to primaries implement PrimaryDecoder.
type Primary interface {
	// HasData reports whether the shape writes a data member.
	HasData() bool
	EncodePrimary(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error
}

// PrimaryDecoder decodes the data member. present is false when the
// document has no data member.
type PrimaryDecoder interface {
	DecodePrimary(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error
}

func decodeResourceInto(ctx context.Context, dst any, raw json.RawMessage, p PathRef) error {
	d, ok := dst.(ResourceDecoder)
	if !ok {
		return Issues{illegalDecoding(p, "resource type cannot be decoded")}
	}
	return d.DecodeJSONAPI(ctx, raw, p)
}

// Single is primary data holding exactly one resource.
type Single[R Resource] struct {
	Resource R
}

func (Single[R]) HasData() bool { return true }

func (s Single[R]) EncodePrimary(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error {
	return s.Resource.EncodeJSONAPI(ctx, enc, fields, p)
}

func (s *Single[R]) DecodePrimary(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	switch {
	case !present:
		return Issues{required(p)}
	case isNull(raw):
		return Issues{nullNotPermitted(p)}
	case rawKind(raw) == '[':
		return Issues{quantityMismatch(p, false)}
	}
	var r R
	if err := decodeResourceInto(ctx, &r, raw, p); err != nil {
		return err
	}
	s.Resource = r
	return nil
}

// NullableSingle is to-one primary data that may be null ("data": null).
type NullableSingle[R Resource] struct {
	Resource R
	Valid    bool
}

// SomeResource returns a non-null NullableSingle.
func SomeResource[R Resource](r R) NullableSingle[R] {
	return NullableSingle[R]{Resource: r, Valid: true}
}

func (NullableSingle[R]) HasData() bool { return true }

func (s NullableSingle[R]) EncodePrimary(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error {
	if !s.Valid {
		return enc.Value(nullLiteral)
	}
	return s.Resource.EncodeJSONAPI(ctx, enc, fields, p)
}

func (s *NullableSingle[R]) DecodePrimary(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	switch {
	case !present:
		return Issues{required(p)}
	case isNull(raw):
		*s = NullableSingle[R]{}
		return nil
	case rawKind(raw) == '[':
		return Issues{quantityMismatch(p, false)}
	}
	var r R
	if err := decodeResourceInto(ctx, &r, raw, p); err != nil {
		return err
	}
	*s = NullableSingle[R]{Resource: r, Valid: true}
	return nil
}

// Many is to-many primary data. The array may be empty but never null.
type Many[R Resource] struct {
	Resources []R
}

func (Many[R]) HasData() bool { return true }

func (m Many[R]) EncodePrimary(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error {
	if err := enc.BeginArray(); err != nil {
		return err
	}
	for i, r := range m.Resources {
		if err := r.EncodeJSONAPI(ctx, enc, fields, p.Index(i)); err != nil {
			return err
		}
	}
	return enc.EndArray()
}

func (m *Many[R]) DecodePrimary(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	switch {
	case !present:
		return Issues{required(p)}
	case rawKind(raw) == '{':
		return Issues{quantityMismatch(p, true)}
	}
	els, err := decodeArray(raw, p)
	if err != nil {
		return err
	}
	var out []R
	var iss Issues
	for i, el := range els {
		var r R
		if err := decodeResourceInto(ctx, &r, el, p.Index(i)); err != nil {
			iss = append(iss, toIssues(p.Index(i), err)...)
			if IsFailFast(ctx) {
				break
			}
			continue
		}
		out = append(out, r)
	}
	if len(iss) > 0 {
		return iss
	}
	m.Resources = out
	return nil
}

// NoData is the primary shape of documents without a data member, such as
// meta-only documents.
type NoData struct{}

func (NoData) HasData() bool { return false }

func (NoData) EncodePrimary(context.Context, Encoder, Fieldsets, PathRef) error { return nil }

func (*NoData) DecodePrimary(_ context.Context, _ json.RawMessage, present bool, p PathRef) error {
	if present {
		return Issues{illegalDecoding(p, "document type has no primary data")}
	}
	return nil
}

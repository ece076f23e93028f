package jsonapi

import (
	"context"

	json "github.com/goccy/go-json"
)

type relationshipField interface {
	memberField
	relationshipShape() RelationshipShape
	encodeRelationship(ctx context.Context, p PathRef) (json.RawMessage, bool, error)
}

type relationshipDecoder interface {
	decodeRelationship(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error
}

// RelationshipShape describes a relationship member for runtime decoding.
type RelationshipShape struct {
	TypeName  string // expected resource type of every linkage; empty accepts any
	Many      bool
	Nullable  bool // to-one only: data may be null
	Omittable bool
}

// RelationshipObject is the untyped form of a relationship member.
// For to-one relationships Data holds at most one identifier and Null marks
// "data": null.
type RelationshipObject struct {
	Data  []Identifier
	Null  bool
	Meta  Meta
	Links Links
}

// DecodeRelationship decodes a relationship object and checks its linkage
// against shape. Any invalid element fails the whole relationship.
func DecodeRelationship(ctx context.Context, raw json.RawMessage, shape RelationshipShape, p PathRef) (RelationshipObject, error) {
	var ro RelationshipObject
	m, err := decodeObject(raw, p)
	if err != nil {
		return ro, err
	}
	dataRaw, ok := m["data"]
	dp := p.Field("data")
	if !ok {
		return ro, Issues{required(dp)}
	}
	var iss Issues
	switch {
	case !shape.Many && isNull(dataRaw):
		if !shape.Nullable {
			return ro, Issues{nullNotPermitted(dp)}
		}
		ro.Null = true
	case !shape.Many:
		if rawKind(dataRaw) == '[' {
			return ro, Issues{quantityMismatch(dp, false)}
		}
		id, err := decodeIdentifier(dataRaw, shape.TypeName, dp)
		if err != nil {
			return ro, err
		}
		ro.Data = []Identifier{id}
	default:
		if rawKind(dataRaw) == '{' {
			return ro, Issues{quantityMismatch(dp, true)}
		}
		els, err := decodeArray(dataRaw, dp)
		if err != nil {
			return ro, err
		}
		ro.Data = make([]Identifier, 0, len(els))
		for i, el := range els {
			id, err := decodeIdentifier(el, shape.TypeName, dp.Index(i))
			if err != nil {
				iss = append(iss, toIssues(dp.Index(i), err)...)
				if IsFailFast(ctx) {
					break
				}
				continue
			}
			ro.Data = append(ro.Data, id)
		}
	}
	if mr, ok := m["meta"]; ok {
		if ro.Meta, err = decodeMeta(mr, p.Field("meta")); err != nil {
			iss = append(iss, toIssues(p.Field("meta"), err)...)
		}
	}
	if lr, ok := m["links"]; ok {
		if ro.Links, err = decodeLinks(lr, p.Field("links")); err != nil {
			iss = append(iss, toIssues(p.Field("links"), err)...)
		}
	}
	if isStrict(ctx) {
		for _, k := range unknownMembers(m, isRelationshipMember) {
			iss = append(iss, unknownKey(p.Field(k)))
		}
	}
	if len(iss) > 0 {
		return RelationshipObject{}, iss
	}
	return ro, nil
}

func isRelationshipMember(k string) bool { return k == "data" || k == "meta" || k == "links" }

// decodeIdentifier reads a resource identifier object. The type member is
// checked before the id so a foreign linkage reports the mismatch first.
func decodeIdentifier(raw json.RawMessage, expected string, p PathRef) (Identifier, error) {
	m, err := decodeObject(raw, p)
	if err != nil {
		return Identifier{}, err
	}
	tr, ok := m["type"]
	if !ok {
		return Identifier{}, Issues{required(p.Field("type"))}
	}
	typ, err := decodeString(tr, p.Field("type"))
	if err != nil {
		return Identifier{}, err
	}
	if expected != "" && typ != expected {
		return Identifier{}, Issues{typeMismatch(p.Field("type"), expected, typ)}
	}
	ir, ok := m["id"]
	if !ok {
		return Identifier{}, Issues{required(p.Field("id"))}
	}
	id, err := decodeString(ir, p.Field("id"))
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{Type: typ, ID: id}, nil
}

// EncodeRelationship writes ro as a relationship object. many selects the
// array form of data.
func EncodeRelationship(ro RelationshipObject, many bool) (json.RawMessage, error) {
	w := newWriter()
	if err := w.BeginObject(); err != nil {
		return nil, err
	}
	if err := w.Key("data"); err != nil {
		return nil, err
	}
	switch {
	case many:
		if err := w.BeginArray(); err != nil {
			return nil, err
		}
		for _, id := range ro.Data {
			if err := writeIdentifier(w, id); err != nil {
				return nil, err
			}
		}
		if err := w.EndArray(); err != nil {
			return nil, err
		}
	case ro.Null || len(ro.Data) == 0:
		if err := w.Value(nullLiteral); err != nil {
			return nil, err
		}
	default:
		if err := writeIdentifier(w, ro.Data[0]); err != nil {
			return nil, err
		}
	}
	if err := writeMetaLinks(w, ro.Meta, ro.Links); err != nil {
		return nil, err
	}
	if err := w.EndObject(); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func writeIdentifier(enc Encoder, id Identifier) error {
	if err := enc.BeginObject(); err != nil {
		return err
	}
	if err := writeMember(enc, "type", marshalString(id.Type)); err != nil {
		return err
	}
	if err := writeMember(enc, "id", marshalString(id.ID)); err != nil {
		return err
	}
	return enc.EndObject()
}

func encodeRelationshipAt(ro RelationshipObject, many bool, p PathRef) (json.RawMessage, bool, error) {
	raw, err := EncodeRelationship(ro, many)
	if err != nil {
		return nil, false, Issues{illegalEncoding(p, err.Error()).withCause(err)}
	}
	return raw, true, nil
}

// ToOne is a required to-one relationship. Its ID must be identified when
// encoding.
type ToOne[T TypeNamer] struct {
	ID    ID[T]
	Meta  Meta
	Links Links
}

// NewToOne links to the resource identified by id.
func NewToOne[T TypeNamer](id ID[T]) ToOne[T] { return ToOne[T]{ID: id} }

func (ToOne[T]) memberKind() fieldKind { return kindRelationship }

func (ToOne[T]) relationshipShape() RelationshipShape {
	var tag T
	return RelationshipShape{TypeName: tag.TypeName()}
}

func (r ToOne[T]) encodeRelationship(_ context.Context, p PathRef) (json.RawMessage, bool, error) {
	if !r.ID.IsIdentified() {
		return nil, false, Issues{illegalEncoding(p.Field("data"), "to-one relationship requires an identified resource")}
	}
	return encodeRelationshipAt(RelationshipObject{Data: []Identifier{r.ID.Identifier()}, Meta: r.Meta, Links: r.Links}, false, p)
}

func (r *ToOne[T]) decodeRelationship(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	if !present {
		return Issues{required(p)}
	}
	ro, err := DecodeRelationship(ctx, raw, r.relationshipShape(), p)
	if err != nil {
		return err
	}
	*r = ToOne[T]{ID: NewID[T](ro.Data[0].ID), Meta: ro.Meta, Links: ro.Links}
	return nil
}

// NullableToOne is a to-one relationship whose data may be null. An
// unidentified ID is written as "data": null and null decodes to it.
type NullableToOne[T TypeNamer] struct {
	ID    ID[T]
	Meta  Meta
	Links Links
}

// NewNullableToOne links to the resource identified by id.
func NewNullableToOne[T TypeNamer](id ID[T]) NullableToOne[T] { return NullableToOne[T]{ID: id} }

// EmptyToOne returns a NullableToOne with "data": null.
func EmptyToOne[T TypeNamer]() NullableToOne[T] { return NullableToOne[T]{} }

func (NullableToOne[T]) memberKind() fieldKind { return kindRelationship }

func (NullableToOne[T]) relationshipShape() RelationshipShape {
	var tag T
	return RelationshipShape{TypeName: tag.TypeName(), Nullable: true}
}

func (r NullableToOne[T]) encodeRelationship(_ context.Context, p PathRef) (json.RawMessage, bool, error) {
	ro := RelationshipObject{Null: !r.ID.IsIdentified(), Meta: r.Meta, Links: r.Links}
	if r.ID.IsIdentified() {
		ro.Data = []Identifier{r.ID.Identifier()}
	}
	return encodeRelationshipAt(ro, false, p)
}

func (r *NullableToOne[T]) decodeRelationship(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	if !present {
		return Issues{required(p)}
	}
	ro, err := DecodeRelationship(ctx, raw, r.relationshipShape(), p)
	if err != nil {
		return err
	}
	*r = NullableToOne[T]{Meta: ro.Meta, Links: ro.Links}
	if !ro.Null {
		r.ID = NewID[T](ro.Data[0].ID)
	}
	return nil
}

// ToMany is an ordered to-many relationship. Duplicates are kept.
type ToMany[T TypeNamer] struct {
	IDs   []ID[T]
	Meta  Meta
	Links Links
}

// NewToMany links to the resources identified by ids, in order. An empty
// linkage is held as a nil slice, which is also what decoding "data": []
// yields.
func NewToMany[T TypeNamer](ids ...ID[T]) ToMany[T] {
	if len(ids) == 0 {
		return ToMany[T]{}
	}
	return ToMany[T]{IDs: ids}
}

func (ToMany[T]) memberKind() fieldKind { return kindRelationship }

func (ToMany[T]) relationshipShape() RelationshipShape {
	var tag T
	return RelationshipShape{TypeName: tag.TypeName(), Many: true}
}

func (r ToMany[T]) encodeRelationship(_ context.Context, p PathRef) (json.RawMessage, bool, error) {
	ro := RelationshipObject{Data: make([]Identifier, 0, len(r.IDs)), Meta: r.Meta, Links: r.Links}
	for i, id := range r.IDs {
		if !id.IsIdentified() {
			return nil, false, Issues{illegalEncoding(p.Field("data").Index(i), "to-many relationship requires identified resources")}
		}
		ro.Data = append(ro.Data, id.Identifier())
	}
	return encodeRelationshipAt(ro, true, p)
}

func (r *ToMany[T]) decodeRelationship(ctx context.Context, raw json.RawMessage, present bool, p PathRef) error {
	if !present {
		return Issues{required(p)}
	}
	ro, err := DecodeRelationship(ctx, raw, r.relationshipShape(), p)
	if err != nil {
		return err
	}
	var ids []ID[T]
	for _, d := range ro.Data {
		ids = append(ids, NewID[T](d.ID))
	}
	*r = ToMany[T]{IDs: ids, Meta: ro.Meta, Links: ro.Links}
	return nil
}

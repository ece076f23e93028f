package jsonapi

import (
	"context"
	"errors"
	"reflect"

	json "github.com/goccy/go-json"
)

// Resource is a resource object that can be written into a document.
type Resource interface {
	TypeName() string
	Identifier() Identifier
	// EncodeJSONAPI writes the resource object into enc. fields restricts the
	// attributes written per resource type; p locates the resource in the
	// document for error reporting.
	EncodeJSONAPI(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error
}

// ResourceDecoder is implemented by pointers to resource objects.
type ResourceDecoder interface {
	DecodeJSONAPI(ctx context.Context, raw json.RawMessage, p PathRef) error
}

// NoAttributes is the attribute set of a resource without attributes.
type NoAttributes struct{}

// NoRelationships is the relationship set of a resource without relationships.
type NoRelationships struct{}

// ResourceObject is a typed resource object. T tags the resource type, A is
// a struct of attributes and R a struct of relationships:
//
//	type ArticleAttrs struct {
//		Title Attribute[string]                     `jsonapi:"title"`
//		Body  Omittable[Attribute[Nullable[string]]] `jsonapi:"body"`
//	}
//	type ArticleRels struct {
//		Author ToOne[AuthorTag] `jsonapi:"author"`
//	}
//	type Article = ResourceObject[ArticleTag, ArticleAttrs, ArticleRels]
//
// Every exported field of A must be an attribute and every exported field of
// R a relationship; see ValidateResourceType.
type ResourceObject[T TypeNamer, A, R any] struct {
	ID            ID[T]
	Attributes    A
	Relationships R
	Meta          Meta
	Links         Links
}

// NewResource assembles a resource object.
func NewResource[T TypeNamer, A, R any](id ID[T], attrs A, rels R) ResourceObject[T, A, R] {
	return ResourceObject[T, A, R]{ID: id, Attributes: attrs, Relationships: rels}
}

func (r ResourceObject[T, A, R]) TypeName() string { return r.ID.TypeName() }

func (r ResourceObject[T, A, R]) Identifier() Identifier { return r.ID.Identifier() }

func (r ResourceObject[T, A, R]) WithAttributes(a A) ResourceObject[T, A, R] {
	r.Attributes = a
	return r
}

func (r ResourceObject[T, A, R]) WithRelationships(rel R) ResourceObject[T, A, R] {
	r.Relationships = rel
	return r
}

func (r ResourceObject[T, A, R]) WithMeta(m Meta) ResourceObject[T, A, R] {
	r.Meta = m
	return r
}

func (r ResourceObject[T, A, R]) WithLinks(l Links) ResourceObject[T, A, R] {
	r.Links = l
	return r
}

var errAlreadyIdentified = errors.New("resource is already identified")

// Identify returns a copy carrying the server-assigned id. Identified
// resources keep their id for good.
func (r ResourceObject[T, A, R]) Identify(raw string) (ResourceObject[T, A, R], error) {
	if r.ID.IsIdentified() {
		return r, errAlreadyIdentified
	}
	r.ID = NewID[T](raw)
	return r, nil
}

type encodedMember struct {
	name string
	raw  json.RawMessage
}

func (r ResourceObject[T, A, R]) EncodeJSONAPI(ctx context.Context, enc Encoder, fields Fieldsets, p PathRef) error {
	plan, err := planOf[T, A, R]()
	if err != nil {
		return err
	}
	if p == nil {
		p = Root()
	}
	allowed, sparse := fields.lookup(plan.typeName)

	var iss Issues
	var attrs, rels []encodedMember
	av := reflect.ValueOf(r.Attributes)
	for _, m := range plan.attrs.members {
		if sparse && !allowed[m.name] {
			continue
		}
		f := av.Field(m.index).Interface().(attributeField)
		raw, ok, err := f.encodeAttribute(ctx, p.Field("attributes").Field(m.name))
		if err != nil {
			iss = append(iss, toIssues(p.Field("attributes").Field(m.name), err)...)
			continue
		}
		if ok {
			attrs = append(attrs, encodedMember{m.name, raw})
		}
	}
	rv := reflect.ValueOf(r.Relationships)
	for _, m := range plan.rels.members {
		f := rv.Field(m.index).Interface().(relationshipField)
		raw, ok, err := f.encodeRelationship(ctx, p.Field("relationships").Field(m.name))
		if err != nil {
			iss = append(iss, toIssues(p.Field("relationships").Field(m.name), err)...)
			continue
		}
		if ok {
			rels = append(rels, encodedMember{m.name, raw})
		}
	}
	if len(iss) > 0 {
		return iss
	}

	if err := enc.BeginObject(); err != nil {
		return err
	}
	if raw, ok := r.ID.Raw(); ok {
		if err := writeMember(enc, "id", marshalString(raw)); err != nil {
			return err
		}
	}
	if err := writeMember(enc, "type", marshalString(plan.typeName)); err != nil {
		return err
	}
	if len(attrs) > 0 {
		if err := enc.Key("attributes"); err != nil {
			return err
		}
		ae := enc
		if sparse {
			ae = SparseEncoder(enc, fields[plan.typeName]...)
		}
		if err := writeMembers(ae, attrs); err != nil {
			return err
		}
	}
	if len(rels) > 0 {
		if err := enc.Key("relationships"); err != nil {
			return err
		}
		if err := writeMembers(enc, rels); err != nil {
			return err
		}
	}
	if err := writeMetaLinks(enc, r.Meta, r.Links); err != nil {
		return err
	}
	return enc.EndObject()
}

func writeMembers(enc Encoder, ms []encodedMember) error {
	if err := enc.BeginObject(); err != nil {
		return err
	}
	for _, m := range ms {
		if err := writeMember(enc, m.name, m.raw); err != nil {
			return err
		}
	}
	return enc.EndObject()
}

// DecodeJSONAPI decodes a resource object. The type member is checked first;
// a foreign type yields a single "type_mismatch" issue at /type. All other
// member failures are collected unless the context requests fail-fast.
//
// The first decode or encode of a type builds its plan, and building the plan
// runs the structural checks of ValidateResourceType. A malformed type
// therefore fails here with a "structural" issue instead of decoding.
// Register or ValidateResourceType run the same checks ahead of time.
func (r *ResourceObject[T, A, R]) DecodeJSONAPI(ctx context.Context, raw json.RawMessage, p PathRef) error {
	plan, err := planOf[T, A, R]()
	if err != nil {
		return err
	}
	if p == nil {
		p = Root()
	}
	m, err := decodeObject(raw, p)
	if err != nil {
		return err
	}
	if err := checkResourceType(m, plan.typeName, p); err != nil {
		return err
	}

	var out ResourceObject[T, A, R]
	var iss Issues
	// fail reports whether decoding must stop after recording err.
	fail := func(at PathRef, err error) bool {
		iss = append(iss, toIssues(at, err)...)
		return IsFailFast(ctx)
	}

	if ir, ok := m["id"]; ok {
		id, err := decodeString(ir, p.Field("id"))
		if err != nil {
			if fail(p.Field("id"), err) {
				return iss
			}
		} else {
			out.ID = NewID[T](id)
		}
	}

	ap := p.Field("attributes")
	if members, err := optionalObject(m, "attributes", ap); err != nil {
		if fail(ap, err) {
			return iss
		}
	} else {
		av := reflect.ValueOf(&out.Attributes).Elem()
		for _, mp := range plan.attrs.members {
			raw, present := members[mp.name]
			d := av.Field(mp.index).Addr().Interface().(attributeDecoder)
			if err := d.decodeAttribute(ctx, raw, present, ap.Field(mp.name)); err != nil && fail(ap.Field(mp.name), err) {
				return iss
			}
		}
		if isStrict(ctx) {
			for _, k := range unknownMembers(members, plan.attrs.has) {
				iss = append(iss, unknownKey(ap.Field(k)))
			}
		}
	}

	rp := p.Field("relationships")
	if members, err := optionalObject(m, "relationships", rp); err != nil {
		if fail(rp, err) {
			return iss
		}
	} else {
		rv := reflect.ValueOf(&out.Relationships).Elem()
		for _, mp := range plan.rels.members {
			raw, present := members[mp.name]
			d := rv.Field(mp.index).Addr().Interface().(relationshipDecoder)
			if err := d.decodeRelationship(ctx, raw, present, rp.Field(mp.name)); err != nil && fail(rp.Field(mp.name), err) {
				return iss
			}
		}
		if isStrict(ctx) {
			for _, k := range unknownMembers(members, plan.rels.has) {
				iss = append(iss, unknownKey(rp.Field(k)))
			}
		}
	}

	out.Meta, out.Links, err = decodeResourceMetaLinks(m, plan.requireMeta, plan.requireLinks, p)
	if err != nil {
		iss = append(iss, toIssues(p, err)...)
	}
	if isStrict(ctx) {
		for _, k := range unknownMembers(m, isResourceMember) {
			iss = append(iss, unknownKey(p.Field(k)))
		}
	}
	if len(iss) > 0 {
		return iss
	}
	*r = out
	return nil
}

func (r ResourceObject[T, A, R]) MarshalJSON() ([]byte, error) {
	w := newWriter()
	if err := r.EncodeJSONAPI(context.Background(), w, nil, Root()); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (r *ResourceObject[T, A, R]) UnmarshalJSON(b []byte) error {
	return r.DecodeJSONAPI(context.Background(), b, Root())
}

func isResourceMember(k string) bool {
	switch k {
	case "id", "type", "attributes", "relationships", "meta", "links":
		return true
	}
	return false
}

// checkResourceType verifies the type member of a resource object.
func checkResourceType(m map[string]json.RawMessage, expected string, p PathRef) error {
	tr, ok := m["type"]
	if !ok {
		return Issues{required(p.Field("type"))}
	}
	typ, err := decodeString(tr, p.Field("type"))
	if err != nil {
		return err
	}
	if typ != expected {
		return Issues{typeMismatch(p.Field("type"), expected, typ)}
	}
	return nil
}

// optionalObject returns the members of m[key], or an empty map when the key
// is absent.
func optionalObject(m map[string]json.RawMessage, key string, p PathRef) (map[string]json.RawMessage, error) {
	raw, ok := m[key]
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	members, err := decodeObject(raw, p)
	if err != nil {
		return map[string]json.RawMessage{}, err
	}
	return members, nil
}

// decodeResourceMetaLinks reads the meta and links members of a resource
// object and enforces required keys.
func decodeResourceMetaLinks(m map[string]json.RawMessage, reqMeta, reqLinks []string, p PathRef) (Meta, Links, error) {
	var (
		meta  Meta
		links Links
		iss   Issues
		err   error
	)
	if mr, ok := m["meta"]; ok {
		if meta, err = decodeMeta(mr, p.Field("meta")); err != nil {
			iss = append(iss, toIssues(p.Field("meta"), err)...)
		}
	}
	if lr, ok := m["links"]; ok {
		if links, err = decodeLinks(lr, p.Field("links")); err != nil {
			iss = append(iss, toIssues(p.Field("links"), err)...)
		}
	}
	if len(iss) == 0 {
		iss = append(iss, requireMetaKeys(meta, reqMeta, p.Field("meta"))...)
		iss = append(iss, requireLinkKeys(links, reqLinks, p.Field("links"))...)
	}
	return meta, links, errIfAny(iss)
}

package registry

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/reoring/jsonapi"
)

// Attribute is one attribute value of a generic resource. Present is false
// for an absent omittable attribute.
type Attribute struct {
	Name    string
	Value   json.RawMessage
	Present bool
}

// Relationship is one relationship of a generic resource.
type Relationship struct {
	Name    string
	Many    bool
	Object  jsonapi.RelationshipObject
	Present bool
}

// Resource is a resource object of a registry type. Attributes and
// relationships follow the declaration order of the type.
type Resource struct {
	Type          string
	ID            string
	Identified    bool
	Attributes    []Attribute
	Relationships []Relationship
	Meta          jsonapi.Meta
	Links         jsonapi.Links
	// Presence records how each attribute appeared in the decoded input,
	// keyed by JSON Pointer relative to the resource object.
	Presence jsonapi.PresenceMap
}

func (r Resource) TypeName() string { return r.Type }

func (r Resource) Identifier() jsonapi.Identifier {
	return jsonapi.Identifier{Type: r.Type, ID: r.ID}
}

// Attribute returns the attribute with the given name.
func (r Resource) Attribute(name string) (Attribute, bool) {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Relationship returns the relationship with the given name.
func (r Resource) Relationship(name string) (Relationship, bool) {
	for _, rel := range r.Relationships {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relationship{}, false
}

func (r Resource) EncodeJSONAPI(ctx context.Context, enc jsonapi.Encoder, fields jsonapi.Fieldsets, p jsonapi.PathRef) error {
	allow, sparse := fields[r.Type]
	allowed := map[string]bool{}
	for _, f := range allow {
		allowed[f] = true
	}
	if err := enc.BeginObject(); err != nil {
		return err
	}
	if r.Identified {
		if err := member(enc, "id", mustString(r.ID)); err != nil {
			return err
		}
	}
	if err := member(enc, "type", mustString(r.Type)); err != nil {
		return err
	}
	var attrs []Attribute
	for _, a := range r.Attributes {
		if a.Present && (!sparse || allowed[a.Name]) {
			attrs = append(attrs, a)
		}
	}
	if len(attrs) > 0 {
		if err := enc.Key("attributes"); err != nil {
			return err
		}
		ae := enc
		if sparse {
			ae = jsonapi.SparseEncoder(enc, allow...)
		}
		if err := ae.BeginObject(); err != nil {
			return err
		}
		for _, a := range attrs {
			if err := member(ae, a.Name, a.Value); err != nil {
				return err
			}
		}
		if err := ae.EndObject(); err != nil {
			return err
		}
	}
	var rels []Relationship
	for _, rel := range r.Relationships {
		if rel.Present {
			rels = append(rels, rel)
		}
	}
	if len(rels) > 0 {
		if err := enc.Key("relationships"); err != nil {
			return err
		}
		if err := enc.BeginObject(); err != nil {
			return err
		}
		for _, rel := range rels {
			raw, err := jsonapi.EncodeRelationship(rel.Object, rel.Many)
			if err != nil {
				return jsonapi.Issues{p.Field("relationships").Field(rel.Name).Issue(jsonapi.CodeIllegalEncoding, err.Error())}
			}
			if err := member(enc, rel.Name, raw); err != nil {
				return err
			}
		}
		if err := enc.EndObject(); err != nil {
			return err
		}
	}
	if len(r.Meta) > 0 {
		raw, err := json.Marshal(r.Meta)
		if err != nil {
			return err
		}
		if err := member(enc, "meta", raw); err != nil {
			return err
		}
	}
	if len(r.Links) > 0 {
		raw, err := r.Links.MarshalJSON()
		if err != nil {
			return err
		}
		if err := member(enc, "links", raw); err != nil {
			return err
		}
	}
	return enc.EndObject()
}

// DecodeJSONAPI decodes a resource of any registered type. The registry is
// taken from the context (see Registry.WithContext). When r.Type is already
// set, only that type is accepted.
func (r *Resource) DecodeJSONAPI(ctx context.Context, raw json.RawMessage, p jsonapi.PathRef) error {
	reg, err := jsonapi.RequireService[*Registry](ctx, p)
	if err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if kindOf(raw) != KindObject {
		return jsonapi.Issues{invalidKind(p, KindObject, raw)}
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return jsonapi.Issues{p.Issue(jsonapi.CodeParseError, err.Error())}
	}
	typ, err := readString(m, "type", p)
	if err != nil {
		return err
	}
	if r.Type != "" && typ != r.Type {
		return jsonapi.Issues{p.Field("type").Issue(jsonapi.CodeTypeMismatch,
			fmt.Sprintf("expected %q, found %q", r.Type, typ), "expected", r.Type, "found", typ)}
	}
	spec, ok := reg.Type(typ)
	if !ok {
		return jsonapi.Issues{p.Field("type").Issue(jsonapi.CodeIllegalDecoding,
			fmt.Sprintf("resource type %q is not registered", typ), "found", typ)}
	}
	out, err := decodeWithSpec(ctx, spec, m, p)
	if err != nil {
		return err
	}
	*r = out
	return nil
}

func decodeWithSpec(ctx context.Context, spec *TypeSpec, m map[string]json.RawMessage, p jsonapi.PathRef) (Resource, error) {
	strict := jsonapi.DecodeOptFrom(ctx).UnknownFields == jsonapi.UnknownStrict
	out := Resource{Type: spec.Name, Presence: jsonapi.PresenceMap{}}
	var iss jsonapi.Issues
	if _, ok := m["id"]; ok {
		id, err := readString(m, "id", p)
		if err != nil {
			iss = append(iss, asIssues(p.Field("id"), err)...)
		} else {
			out.ID, out.Identified = id, true
		}
	}

	ap := p.Field("attributes")
	attrs, err := optionalMembers(m, "attributes", ap)
	if err != nil {
		iss = append(iss, asIssues(ap, err)...)
	}
	for _, a := range spec.Attributes {
		if _, ok := spec.attrIndex[a.Name]; !ok {
			continue
		}
		raw, present := attrs[a.Name]
		at := ap.Field(a.Name)
		pr, err := jsonapi.CheckAttribute(raw, present, a.Shape(), at)
		if err != nil {
			iss = append(iss, asIssues(at, err)...)
			continue
		}
		if pr == jsonapi.PresenceSeen && a.Kind != KindAny && !kindMatches(a.Kind, raw) {
			iss = append(iss, invalidKind(at, a.Kind, raw))
			continue
		}
		if pr != 0 {
			out.Presence["/attributes/"+a.Name] = pr
		}
		out.Attributes = append(out.Attributes, Attribute{Name: a.Name, Value: compact(raw), Present: pr != 0})
	}
	if strict {
		for _, k := range sortedUnknown(attrs, func(k string) bool { _, ok := spec.attribute(k); return ok }) {
			iss = append(iss, ap.Field(k).Issue(jsonapi.CodeUnknownKey, "unknown key"))
		}
	}

	rp := p.Field("relationships")
	rels, err := optionalMembers(m, "relationships", rp)
	if err != nil {
		iss = append(iss, asIssues(rp, err)...)
	}
	for _, rs := range spec.Relationships {
		if _, ok := spec.relIndex[rs.Name]; !ok {
			continue
		}
		raw, present := rels[rs.Name]
		at := rp.Field(rs.Name)
		if !present {
			if !rs.Omittable {
				iss = append(iss, at.Issue(jsonapi.CodeRequired, "missing required value"))
			}
			out.Relationships = append(out.Relationships, Relationship{Name: rs.Name, Many: rs.Many})
			continue
		}
		ro, err := jsonapi.DecodeRelationship(ctx, raw, rs.Shape(), at)
		if err != nil {
			iss = append(iss, asIssues(at, err)...)
			continue
		}
		out.Relationships = append(out.Relationships, Relationship{Name: rs.Name, Many: rs.Many, Object: ro, Present: true})
	}
	if strict {
		for _, k := range sortedUnknown(rels, func(k string) bool { _, ok := spec.relationship(k); return ok }) {
			iss = append(iss, rp.Field(k).Issue(jsonapi.CodeUnknownKey, "unknown key"))
		}
	}

	if mr, ok := m["meta"]; ok {
		if err := json.Unmarshal(mr, &out.Meta); err != nil || kindOf(mr) != KindObject {
			iss = append(iss, p.Field("meta").Issue(jsonapi.CodeMalformedMeta, "meta must be an object"))
		}
	}
	if lr, ok := m["links"]; ok {
		if err := out.Links.UnmarshalJSON(lr); err != nil {
			iss = append(iss, p.Field("links").Issue(jsonapi.CodeMalformedLinks, err.Error()))
		}
	}
	for _, k := range spec.RequireMeta {
		if _, ok := out.Meta[k]; !ok {
			iss = append(iss, p.Field("meta").Issue(jsonapi.CodeMalformedMeta, fmt.Sprintf("meta member %q is missing", k), "key", k))
		}
	}
	for _, k := range spec.RequireLinks {
		if _, ok := out.Links[k]; !ok {
			iss = append(iss, p.Field("links").Issue(jsonapi.CodeMalformedLinks, fmt.Sprintf("link %q is missing", k), "key", k))
		}
	}
	if len(iss) > 0 {
		return Resource{}, iss
	}
	return out, nil
}

func member(enc jsonapi.Encoder, key string, raw json.RawMessage) error {
	if err := enc.Key(key); err != nil {
		return err
	}
	return enc.Value(raw)
}

func mustString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func readString(m map[string]json.RawMessage, key string, p jsonapi.PathRef) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", jsonapi.Issues{p.Field(key).Issue(jsonapi.CodeRequired, "missing required value")}
	}
	if kindOf(raw) != KindString {
		return "", jsonapi.Issues{invalidKind(p.Field(key), KindString, raw)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", jsonapi.Issues{p.Field(key).Issue(jsonapi.CodeParseError, err.Error())}
	}
	return s, nil
}

func optionalMembers(m map[string]json.RawMessage, key string, p jsonapi.PathRef) (map[string]json.RawMessage, error) {
	raw, ok := m[key]
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	if kindOf(raw) != KindObject {
		return map[string]json.RawMessage{}, jsonapi.Issues{invalidKind(p, KindObject, raw)}
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]json.RawMessage{}, jsonapi.Issues{p.Issue(jsonapi.CodeParseError, err.Error())}
	}
	return out, nil
}

func sortedUnknown(m map[string]json.RawMessage, known func(string) bool) []string {
	var out []string
	for k := range m {
		if !known(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func asIssues(p jsonapi.PathRef, err error) jsonapi.Issues {
	if iss, ok := jsonapi.AsIssues(err); ok {
		return iss
	}
	return jsonapi.Issues{p.Issue(jsonapi.CodeParseError, err.Error())}
}

func compact(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return buf.Bytes()
}

// kindOf classifies a raw JSON value. Numbers report KindNumber.
func kindOf(raw []byte) Kind {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return KindObject
		case '[':
			return KindArray
		case '"':
			return KindString
		case 't', 'f':
			return KindBoolean
		case 'n':
			return "null"
		}
		return KindNumber
	}
	return ""
}

func kindMatches(k Kind, raw []byte) bool {
	got := kindOf(raw)
	if k == KindInteger {
		return got == KindNumber && !bytes.ContainsAny(bytes.TrimSpace(raw), ".eE")
	}
	return got == k
}

func invalidKind(p jsonapi.PathRef, want Kind, raw []byte) jsonapi.Issue {
	found := kindOf(raw)
	return p.Issue(jsonapi.CodeInvalidType, fmt.Sprintf("expected %s, found %s", want, found), "expected", string(want), "found", string(found))
}

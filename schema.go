package jsonapi

import (
	"fmt"
	"reflect"
	"sync"
)

// StructuralKind classifies a resource description defect.
type StructuralKind string

const (
	// NonAttributeField: a field of the attribute set is not an attribute
	// (or Omittable attribute).
	NonAttributeField StructuralKind = "non_attribute_field"
	// NonRelationshipField: a field of the relationship set is not a
	// relationship (or Omittable relationship).
	NonRelationshipField StructuralKind = "non_relationship_field"
	// NullArrayAttribute: an array attribute is omittable or nullable.
	NullArrayAttribute StructuralKind = "null_array_attribute"
	// BadIdentifierType: the identifier tag does not name a usable resource type.
	BadIdentifierType StructuralKind = "bad_identifier_type"
	// InvalidFieldName: a member name is reserved, duplicated or not a legal
	// JSON:API member name.
	InvalidFieldName StructuralKind = "invalid_field_name"
)

// StructuralError describes a defect in a resource description. It is found
// by inspecting Go types, never by decoding input.
type StructuralError struct {
	Resource string // Go type of the resource object
	Field    string // Go field name, empty for type-level defects
	Kind     StructuralKind
	Detail   string
}

func (e *StructuralError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", e.Resource, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s.%s: %s: %s", e.Resource, e.Field, e.Kind, e.Detail)
}

type memberPlan struct {
	name  string
	field string
	index int
	attr  AttributeShape
	rel   RelationshipShape
}

type setPlan struct {
	members []memberPlan
	byName  map[string]int
}

func (s *setPlan) has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

type resourcePlan struct {
	typeName     string
	attrs        setPlan
	rels         setPlan
	requireMeta  []string
	requireLinks []string
}

// ResourceOption configures a resource type at registration.
type ResourceOption func(*resourcePlan)

// RequireMeta makes the listed resource meta keys mandatory when decoding.
func RequireMeta(keys ...string) ResourceOption {
	return func(p *resourcePlan) { p.requireMeta = append(p.requireMeta, keys...) }
}

// RequireLinks makes the listed resource links mandatory when decoding.
func RequireLinks(keys ...string) ResourceOption {
	return func(p *resourcePlan) { p.requireLinks = append(p.requireLinks, keys...) }
}

type planEntry struct {
	plan *resourcePlan
	err  error
}

// plans caches one entry per ResourceObject instantiation.
var plans sync.Map

// Register validates the resource description ResourceObject[T, A, R] and
// installs its options. Call it before the type is first encoded or decoded;
// unregistered types are planned on first use without options.
func Register[T TypeNamer, A, R any](opts ...ResourceOption) error {
	key := typeOf[ResourceObject[T, A, R]]()
	p, err := buildPlan(key, typeOf[T](), typeOf[A](), typeOf[R]())
	if err == nil {
		for _, o := range opts {
			o(p)
		}
	}
	plans.Store(key, &planEntry{plan: p, err: err})
	return err
}

// MustRegister is like Register but panics on a structural error.
func MustRegister[T TypeNamer, A, R any](opts ...ResourceOption) {
	if err := Register[T, A, R](opts...); err != nil {
		panic(err)
	}
}

// ValidateResourceType runs the structural checks on ResourceObject[T, A, R]
// without registering it. It is meant for tests of hand-written resource
// descriptions.
func ValidateResourceType[T TypeNamer, A, R any]() error {
	_, err := buildPlan(typeOf[ResourceObject[T, A, R]](), typeOf[T](), typeOf[A](), typeOf[R]())
	return err
}

func planOf[T TypeNamer, A, R any]() (*resourcePlan, error) {
	key := typeOf[ResourceObject[T, A, R]]()
	if v, ok := plans.Load(key); ok {
		e := v.(*planEntry)
		return e.plan, e.err
	}
	p, err := buildPlan(key, typeOf[T](), typeOf[A](), typeOf[R]())
	v, _ := plans.LoadOrStore(key, &planEntry{plan: p, err: err})
	e := v.(*planEntry)
	return e.plan, e.err
}

var (
	memberFieldType         = typeOf[memberField]()
	attributeDecoderType    = typeOf[attributeDecoder]()
	relationshipDecoderType = typeOf[relationshipDecoder]()
	typeNamerType           = typeOf[TypeNamer]()
)

// reservedNames may not be used for attributes or relationships.
var reservedNames = map[string]bool{"id": true, "type": true, "relationships": true, "links": true}

// buildPlan inspects the Go types of a resource description. All defects are
// reported together as "structural" issues with *StructuralError causes.
func buildPlan(res, tag, attrs, rels reflect.Type) (*resourcePlan, error) {
	name := res.String()
	var errs []*StructuralError
	add := func(field string, kind StructuralKind, format string, args ...any) {
		errs = append(errs, &StructuralError{Resource: name, Field: field, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	p := &resourcePlan{}
	typeName, ok := tagTypeName(tag)
	switch {
	case !ok:
		add("", BadIdentifierType, "identifier tag %s must be a non-pointer type implementing TypeName", tag)
	case !validMemberName(typeName):
		add("", BadIdentifierType, "type name %q is not a valid member name", typeName)
	}
	p.typeName = typeName

	seen := map[string]string{}
	collect := func(t reflect.Type, want fieldKind, wrongKind StructuralKind) setPlan {
		sp := setPlan{byName: map[string]int{}}
		if t.Kind() != reflect.Struct {
			add("", wrongKind, "%s must be a struct", t)
			return sp
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				add(sf.Name, wrongKind, "unexported field")
				continue
			}
			key := ResolveStructKey(sf)
			if key == "-" {
				continue
			}
			if memberKindOf(sf.Type) != want {
				add(sf.Name, wrongKind, "field of type %s is not allowed here", sf.Type)
				continue
			}
			switch {
			case !validMemberName(key):
				add(sf.Name, InvalidFieldName, "%q is not a valid member name", key)
				continue
			case reservedNames[key]:
				add(sf.Name, InvalidFieldName, "%q is reserved", key)
				continue
			case seen[key] != "":
				add(sf.Name, InvalidFieldName, "%q is already used by %s", key, seen[key])
				continue
			}
			seen[key] = sf.Name
			mp := memberPlan{name: key, field: sf.Name, index: i}
			zero := reflect.Zero(sf.Type).Interface()
			if want == kindAttribute {
				mp.attr = zero.(attributeField).attributeShape()
				if mp.attr.Array && (mp.attr.Omittable || mp.attr.Nullable) {
					add(sf.Name, NullArrayAttribute, "array attributes can be neither omittable nor nullable")
					continue
				}
			} else {
				mp.rel = zero.(relationshipField).relationshipShape()
				if !validMemberName(mp.rel.TypeName) {
					add(sf.Name, BadIdentifierType, "relationship type name %q is not a valid member name", mp.rel.TypeName)
					continue
				}
			}
			sp.byName[key] = len(sp.members)
			sp.members = append(sp.members, mp)
		}
		return sp
	}
	p.attrs = collect(attrs, kindAttribute, NonAttributeField)
	p.rels = collect(rels, kindRelationship, NonRelationshipField)

	if len(errs) == 0 {
		return p, nil
	}
	iss := make(Issues, 0, len(errs))
	for _, e := range errs {
		iss = append(iss, Root().Issue(CodeStructural, e.Error(), "kind", string(e.Kind), "field", e.Field).withCause(e))
	}
	return nil, iss
}

func tagTypeName(t reflect.Type) (string, bool) {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface || !t.Implements(typeNamerType) {
		return "", false
	}
	return reflect.Zero(t).Interface().(TypeNamer).TypeName(), true
}

func memberKindOf(t reflect.Type) fieldKind {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface || !t.Implements(memberFieldType) {
		return kindNone
	}
	k := reflect.Zero(t).Interface().(memberField).memberKind()
	pt := reflect.PointerTo(t)
	switch {
	case k == kindAttribute && pt.Implements(attributeDecoderType):
		return k
	case k == kindRelationship && pt.Implements(relationshipDecoderType):
		return k
	}
	return kindNone
}

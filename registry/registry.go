// Package registry declares JSON:API resource types at run time.
//
// Types are described in YAML and decoded into generic Resource values that
// plug into the same document codec, include matching and sparse encoding as
// the typed resource objects of the root package:
//
//	types:
//	  - name: articles
//	    attributes:
//	      - {name: title, kind: string}
//	      - {name: tags, kind: array}
//	    relationships:
//	      - {name: author, type: people}
//	  - name: people
//	    attributes:
//	      - {name: name, kind: string, nullable: true}
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/reoring/jsonapi"
)

// Kind is the JSON kind an attribute value must have.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

func (k Kind) valid() bool {
	switch k {
	case KindAny, KindString, KindNumber, KindInteger, KindBoolean, KindObject, KindArray:
		return true
	}
	return false
}

// AttributeSpec declares one attribute.
type AttributeSpec struct {
	Name      string `yaml:"name"`
	Kind      Kind   `yaml:"kind"`
	Nullable  bool   `yaml:"nullable"`
	Omittable bool   `yaml:"omittable"`
}

// Shape returns the presence axes of the attribute.
func (a AttributeSpec) Shape() jsonapi.AttributeShape {
	return jsonapi.AttributeShape{Omittable: a.Omittable, Nullable: a.Nullable, Array: a.Kind == KindArray}
}

// RelationshipSpec declares one relationship.
type RelationshipSpec struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Many      bool   `yaml:"many"`
	Nullable  bool   `yaml:"nullable"`
	Omittable bool   `yaml:"omittable"`
}

// Shape returns the runtime relationship shape.
func (r RelationshipSpec) Shape() jsonapi.RelationshipShape {
	return jsonapi.RelationshipShape{TypeName: r.Type, Many: r.Many, Nullable: r.Nullable, Omittable: r.Omittable}
}

// TypeSpec declares one resource type.
type TypeSpec struct {
	Name          string             `yaml:"name"`
	Attributes    []AttributeSpec    `yaml:"attributes"`
	Relationships []RelationshipSpec `yaml:"relationships"`
	RequireMeta   []string           `yaml:"requireMeta"`
	RequireLinks  []string           `yaml:"requireLinks"`

	attrIndex map[string]int
	relIndex  map[string]int
}

func (t *TypeSpec) attribute(name string) (AttributeSpec, bool) {
	i, ok := t.attrIndex[name]
	if !ok {
		return AttributeSpec{}, false
	}
	return t.Attributes[i], true
}

func (t *TypeSpec) relationship(name string) (RelationshipSpec, bool) {
	i, ok := t.relIndex[name]
	if !ok {
		return RelationshipSpec{}, false
	}
	return t.Relationships[i], true
}

type file struct {
	Types []*TypeSpec `yaml:"types"`
}

// Registry is an immutable set of resource types, keyed by type name.
type Registry struct {
	types map[string]*TypeSpec
	order []string
}

var errEmpty = errors.New("registry: no resource types declared")

// Parse reads a YAML stream of one or more documents, each with a "types"
// list. Unknown YAML fields are rejected.
func Parse(data []byte) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	reg := &Registry{types: map[string]*TypeSpec{}}
	for {
		var f file
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("registry: %w", err)
		}
		for _, t := range f.Types {
			if t == nil {
				continue
			}
			if _, dup := reg.types[t.Name]; dup {
				return nil, fmt.Errorf("registry: resource type %q declared twice", t.Name)
			}
			reg.types[t.Name] = t
			reg.order = append(reg.order, t.Name)
		}
	}
	if len(reg.order) == 0 {
		return nil, errEmpty
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Load reads and parses a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// validate applies the same structural rules as typed resource descriptions
// and reports every defect as a *jsonapi.StructuralError.
func (r *Registry) validate() error {
	var errs []error
	add := func(t, field string, kind jsonapi.StructuralKind, format string, args ...any) {
		errs = append(errs, &jsonapi.StructuralError{Resource: t, Field: field, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}
	for _, name := range r.order {
		t := r.types[name]
		if !validName(t.Name) {
			add(t.Name, "", jsonapi.BadIdentifierType, "type name %q is not a valid member name", t.Name)
		}
		used := map[string]bool{}
		t.attrIndex = map[string]int{}
		t.relIndex = map[string]int{}
		for i := range t.Attributes {
			a := &t.Attributes[i]
			if a.Kind == "" {
				a.Kind = KindAny
			}
			switch {
			case !validName(a.Name) || reserved[a.Name] || used[a.Name]:
				add(t.Name, a.Name, jsonapi.InvalidFieldName, "attribute name %q is invalid, reserved or duplicated", a.Name)
				continue
			case !a.Kind.valid():
				add(t.Name, a.Name, jsonapi.NonAttributeField, "unknown attribute kind %q", a.Kind)
				continue
			case a.Kind == KindArray && (a.Nullable || a.Omittable):
				add(t.Name, a.Name, jsonapi.NullArrayAttribute, "array attributes can be neither omittable nor nullable")
				continue
			}
			used[a.Name] = true
			t.attrIndex[a.Name] = i
		}
		for i, rel := range t.Relationships {
			switch {
			case !validName(rel.Name) || reserved[rel.Name] || used[rel.Name]:
				add(t.Name, rel.Name, jsonapi.InvalidFieldName, "relationship name %q is invalid, reserved or duplicated", rel.Name)
				continue
			case r.types[rel.Type] == nil:
				add(t.Name, rel.Name, jsonapi.NonRelationshipField, "relationship targets undeclared type %q", rel.Type)
				continue
			case rel.Many && rel.Nullable:
				add(t.Name, rel.Name, jsonapi.NonRelationshipField, "to-many relationships cannot be nullable")
				continue
			}
			used[rel.Name] = true
			t.relIndex[rel.Name] = i
		}
	}
	return errors.Join(errs...)
}

var reserved = map[string]bool{"id": true, "type": true, "relationships": true, "links": true}

func validName(s string) bool {
	if s == "" {
		return false
	}
	last := len(s) - 1
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c >= 0x80:
		case c == '-' || c == '_' || c == ' ':
			if i == 0 || i == last {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Type returns the declaration of a resource type.
func (r *Registry) Type(name string) (*TypeSpec, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns the declared type names in declaration order.
func (r *Registry) Names() []string { return append([]string(nil), r.order...) }

// SortedNames returns the declared type names sorted.
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}

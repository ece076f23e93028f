package jsonapi

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Candidate is one resource type accepted in the included array of a
// document type. Candidates are tried in the order they are declared.
type Candidate interface {
	// TypeName is the resource type name the candidate decodes.
	TypeName() string
	// Decode decodes one resource object as this candidate.
	Decode(ctx context.Context, raw json.RawMessage, p PathRef) (Resource, error)
	// Accepts reports whether r may be encoded as this candidate.
	Accepts(r Resource) bool
}

type typedCandidate[R Resource, PR interface {
	*R
	ResourceDecoder
}] struct{}

// Include declares the resource object type R as an included candidate.
//
//	jsonapi.NewDocumentType[jsonapi.Single[Article]](jsonapi.Include[Author](), jsonapi.Include[Comment]())
func Include[R Resource, PR interface {
	*R
	ResourceDecoder
}]() Candidate {
	return typedCandidate[R, PR]{}
}

func (typedCandidate[R, PR]) TypeName() string {
	var r R
	return r.TypeName()
}

func (typedCandidate[R, PR]) Decode(ctx context.Context, raw json.RawMessage, p PathRef) (Resource, error) {
	var r R
	if err := PR(&r).DecodeJSONAPI(ctx, raw, p); err != nil {
		return nil, err
	}
	return r, nil
}

func (typedCandidate[R, PR]) Accepts(r Resource) bool {
	_, ok := unwrapResource(r).(R)
	return ok
}

func unwrapResource(r Resource) Resource {
	for {
		u, ok := r.(interface{ Unwrap() Resource })
		if !ok {
			return r
		}
		r = u.Unwrap()
	}
}

type funcCandidate struct {
	name    string
	decode  func(ctx context.Context, raw json.RawMessage, p PathRef) (Resource, error)
	accepts func(Resource) bool
}

// CandidateFunc builds a Candidate from functions, for resource types that
// are only known at run time.
func CandidateFunc(typeName string, decode func(ctx context.Context, raw json.RawMessage, p PathRef) (Resource, error), accepts func(Resource) bool) Candidate {
	return funcCandidate{name: typeName, decode: decode, accepts: accepts}
}

func (c funcCandidate) TypeName() string { return c.name }

func (c funcCandidate) Decode(ctx context.Context, raw json.RawMessage, p PathRef) (Resource, error) {
	return c.decode(ctx, raw, p)
}

func (c funcCandidate) Accepts(r Resource) bool { return c.accepts(unwrapResource(r)) }

// CandidateFailure is the reason one candidate rejected an included element.
type CandidateFailure struct {
	Index    int // zero-based candidate position
	TypeName string
	Err      error
}

// IncludeError is the aggregated diagnostic for an included element that no
// candidate accepted. Failures are listed in candidate order.
type IncludeError struct {
	Index      int // zero-based position in the included array
	Candidates int
	Failures   []CandidateFailure
}

func (e *IncludeError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "included resource at index %d matched none of %d candidate types", e.Index, e.Candidates)
	for _, f := range e.Failures {
		fmt.Fprintf(b, "\n\ncandidate %d of %d (%q): %v", f.Index+1, e.Candidates, f.TypeName, f.Err)
	}
	return b.String()
}

// Included is an included resource tagged with the candidate that decoded it.
// Candidate is -1 for resources assembled in code.
type Included struct {
	Candidate int
	Resource  Resource
}

// Includes is the heterogeneous collection of included resources, in wire
// order.
type Includes struct {
	items []Included
}

// NewIncludes collects resources to be written as included resources.
func NewIncludes(rs ...Resource) Includes {
	items := make([]Included, 0, len(rs))
	for _, r := range rs {
		items = append(items, Included{Candidate: -1, Resource: r})
	}
	return Includes{items: items}
}

func (inc Includes) Len() int { return len(inc.items) }

// All returns the tagged elements in order.
func (inc Includes) All() []Included { return append([]Included(nil), inc.items...) }

// Resources returns the resources in order.
func (inc Includes) Resources() []Resource {
	out := make([]Resource, 0, len(inc.items))
	for _, it := range inc.items {
		out = append(out, it.Resource)
	}
	return out
}

// Equal compares the resources of two collections, ignoring candidate tags.
func (inc Includes) Equal(o Includes) bool {
	if len(inc.items) != len(o.items) {
		return false
	}
	for i := range inc.items {
		if !reflect.DeepEqual(unwrapResource(inc.items[i].Resource), unwrapResource(o.items[i].Resource)) {
			return false
		}
	}
	return true
}

// IncludedOf returns the included resources of type R in wire order.
func IncludedOf[R Resource](inc Includes) []R {
	var out []R
	for _, it := range inc.items {
		if r, ok := unwrapResource(it.Resource).(R); ok {
			out = append(out, r)
		}
	}
	return out
}

// Resolve finds the included resource with the given identity.
func (inc Includes) Resolve(id Identifier) (Resource, bool) {
	for _, it := range inc.items {
		if it.Resource.Identifier() == id {
			return it.Resource, true
		}
	}
	return nil, false
}

// ResolveID finds the included resource of type R identified by id.
func ResolveID[R Resource, T TypeNamer](inc Includes, id ID[T]) (R, bool) {
	var zero R
	if !id.IsIdentified() {
		return zero, false
	}
	r, ok := inc.Resolve(id.Identifier())
	if !ok {
		return zero, false
	}
	typed, ok := unwrapResource(r).(R)
	return typed, ok
}

// ResolveToOne follows a to-one relationship into the included resources.
func ResolveToOne[R Resource, T TypeNamer](inc Includes, rel ToOne[T]) (R, bool) {
	return ResolveID[R](inc, rel.ID)
}

// ResolveToMany follows a to-many relationship into the included resources.
// The result keeps relationship order; it reports false when any linkage is
// not included.
func ResolveToMany[R Resource, T TypeNamer](inc Includes, rel ToMany[T]) ([]R, bool) {
	out := make([]R, 0, len(rel.IDs))
	all := true
	for _, id := range rel.IDs {
		r, ok := ResolveID[R](inc, id)
		if !ok {
			all = false
			continue
		}
		out = append(out, r)
	}
	return out, all
}

// decodeIncludes decodes an included array by trial-matching every element
// against candidates. One failing element fails the whole collection.
func decodeIncludes(ctx context.Context, raw json.RawMessage, candidates []Candidate, p PathRef) (Includes, error) {
	els, err := decodeArray(raw, p)
	if err != nil {
		return Includes{}, err
	}
	if len(els) > 0 && len(candidates) == 0 {
		return Includes{}, Issues{illegalDecoding(p, "document type declares no included resource types")}
	}
	policy := DecodeOptFrom(ctx).Includes
	items := make([]Included, 0, len(els))
	var iss Issues
	for i, el := range els {
		it, err := matchIncluded(ctx, el, candidates, policy, i, p.Index(i))
		if err != nil {
			iss = append(iss, toIssues(p.Index(i), err)...)
			if IsFailFast(ctx) {
				break
			}
			continue
		}
		items = append(items, it)
	}
	if len(iss) > 0 {
		return Includes{}, iss
	}
	return Includes{items: items}, nil
}

func matchIncluded(ctx context.Context, el json.RawMessage, candidates []Candidate, policy IncludePolicy, index int, ep PathRef) (Included, error) {
	var failures []CandidateFailure
	for ci, c := range candidates {
		r, err := c.Decode(ctx, el, ep)
		if err == nil {
			return Included{Candidate: ci, Resource: r}, nil
		}
		failures = append(failures, CandidateFailure{Index: ci, TypeName: c.TypeName(), Err: err})
		mismatch := isTypeMismatchOnly(err, ep)
		Logger().Debug("included candidate rejected",
			zap.Int("index", index),
			zap.String("candidate", c.TypeName()),
			zap.Bool("type_mismatch", mismatch),
			zap.Error(err))
		if !mismatch && policy == IncludeStopOnTypeMatch {
			break
		}
	}
	ie := &IncludeError{Index: index, Candidates: len(candidates), Failures: failures}
	return Included{}, Issues{ep.Issue(CodeIncludeNoMatch, ie.Error(), "index", index, "candidates", len(candidates)).withCause(ie)}
}

// isTypeMismatchOnly reports whether err only says that the element's type
// member names another resource type.
func isTypeMismatchOnly(err error, ep PathRef) bool {
	iss, ok := AsIssues(err)
	if !ok || len(iss) != 1 {
		return false
	}
	return iss[0].Code == CodeTypeMismatch && iss[0].Path == ep.Field("type").Pointer()
}

func encodeIncludes(ctx context.Context, enc Encoder, inc Includes, candidates []Candidate, fields Fieldsets, p PathRef) error {
	var iss Issues
	for i, it := range inc.items {
		if !acceptedBy(it.Resource, candidates) {
			iss = append(iss, illegalEncoding(p.Index(i), fmt.Sprintf("resource type %q is not an included candidate", it.Resource.TypeName())))
		}
	}
	if len(iss) > 0 {
		return iss
	}
	if err := enc.BeginArray(); err != nil {
		return err
	}
	for i, it := range inc.items {
		if err := it.Resource.EncodeJSONAPI(ctx, enc, fields, p.Index(i)); err != nil {
			return err
		}
	}
	return enc.EndArray()
}

func acceptedBy(r Resource, candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Accepts(r) {
			return true
		}
	}
	return false
}

package registry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/reoring/jsonapi"
	"github.com/reoring/jsonapi/registry"
)

const blogTypes = `
types:
  - name: articles
    attributes:
      - {name: title, kind: string}
      - {name: tags, kind: array}
      - {name: views, kind: integer, omittable: true}
      - {name: summary, kind: string, nullable: true, omittable: true}
    relationships:
      - {name: author, type: people}
      - {name: comments, type: comments, many: true, omittable: true}
---
types:
  - name: people
    attributes:
      - {name: name, kind: string}
  - name: comments
    attributes:
      - {name: body, kind: string}
`

func mustParse(t *testing.T, src string) *registry.Registry {
	t.Helper()
	reg, err := registry.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return reg
}

func TestParse_MultiDocument(t *testing.T) {
	reg := mustParse(t, blogTypes)
	if diff := cmp.Diff([]string{"articles", "people", "comments"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"articles", "comments", "people"}, reg.SortedNames()); diff != "" {
		t.Fatalf("sorted names mismatch (-want +got):\n%s", diff)
	}
	spec, ok := reg.Type("articles")
	if !ok {
		t.Fatalf("articles not declared")
	}
	if !spec.Attributes[1].Shape().Array {
		t.Fatalf("tags should have an array shape")
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	src := `
types:
  - name: articles
    attributes:
      - {name: type, kind: string}
      - {name: tags, kind: array, nullable: true}
      - {name: score, kind: decimal}
    relationships:
      - {name: author, type: ghosts}
      - {name: comments, type: articles, many: true, nullable: true}
`
	_, err := registry.Parse([]byte(src))
	if err == nil {
		t.Fatalf("expected structural errors")
	}
	var kinds []jsonapi.StructuralKind
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var se *jsonapi.StructuralError
		if !errors.As(e, &se) {
			t.Fatalf("unexpected error type %T", e)
		}
		kinds = append(kinds, se.Kind)
	}
	want := []jsonapi.StructuralKind{
		jsonapi.InvalidFieldName,
		jsonapi.NullArrayAttribute,
		jsonapi.NonAttributeField,
		jsonapi.NonRelationshipField,
		jsonapi.NonRelationshipField,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RejectsUnknownYAMLFields(t *testing.T) {
	_, err := registry.Parse([]byte("types:\n  - name: a\n    colour: red\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParse_DuplicateAndEmpty(t *testing.T) {
	if _, err := registry.Parse([]byte("types:\n  - name: a\n---\ntypes:\n  - name: a\n")); err == nil {
		t.Fatalf("expected duplicate type error")
	}
	if _, err := registry.Parse([]byte("types: []\n")); err == nil {
		t.Fatalf("expected empty registry error")
	}
}

const articleDoc = `{
  "data": {
    "id": "1", "type": "articles",
    "attributes": {"title": "Hello", "tags": ["go"], "summary": null},
    "relationships": {"author": {"data": {"type": "people", "id": "9"}}}
  },
  "included": [
    {"id": "9", "type": "people", "attributes": {"name": "Ann"}}
  ]
}`

func TestDecode_SingleWithIncludes(t *testing.T) {
	reg := mustParse(t, blogTypes)
	doc, err := reg.Decode(context.Background(), []byte(articleDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Many || doc.Null || len(doc.Data) != 1 {
		t.Fatalf("unexpected primary shape: %+v", doc)
	}
	a := doc.Data[0]
	if a.Type != "articles" || a.ID != "1" || !a.Identified {
		t.Fatalf("unexpected identity: %+v", a.Identifier())
	}
	title, _ := a.Attribute("title")
	if string(title.Value) != `"Hello"` {
		t.Fatalf("title = %s", title.Value)
	}
	views, _ := a.Attribute("views")
	if views.Present {
		t.Fatalf("views should be absent")
	}
	if !a.Presence.WasNull("/attributes/summary") {
		t.Fatalf("summary should be recorded as null")
	}
	author, _ := a.Relationship("author")
	if diff := cmp.Diff([]jsonapi.Identifier{{Type: "people", ID: "9"}}, author.Object.Data); diff != "" {
		t.Fatalf("author linkage mismatch (-want +got):\n%s", diff)
	}
	if len(doc.Included) != 1 || doc.Included[0].Type != "people" {
		t.Fatalf("unexpected included: %+v", doc.Included)
	}
}

func TestDecode_Failures(t *testing.T) {
	reg := mustParse(t, blogTypes)
	cases := []struct {
		name string
		in   string
		opt  jsonapi.DecodeOpt
		path string
		code string
	}{
		{
			name: "kind",
			in:   `{"data":{"type":"articles","attributes":{"title":1,"tags":[]},"relationships":{"author":{"data":null}}}}`,
			path: "/data/attributes/title",
			code: jsonapi.CodeInvalidType,
		},
		{
			name: "integer",
			in:   `{"data":{"type":"articles","attributes":{"title":"a","tags":[],"views":1.5},"relationships":{"author":{"data":{"type":"people","id":"1"}}}}}`,
			path: "/data/attributes/views",
			code: jsonapi.CodeInvalidType,
		},
		{
			name: "array required",
			in:   `{"data":{"type":"articles","attributes":{"title":"a"},"relationships":{"author":{"data":{"type":"people","id":"1"}}}}}`,
			path: "/data/attributes/tags",
			code: jsonapi.CodeRequired,
		},
		{
			name: "null to-one",
			in:   `{"data":{"type":"articles","attributes":{"title":"a","tags":[]},"relationships":{"author":{"data":null}}}}`,
			path: "/data/relationships/author/data",
			code: jsonapi.CodeNullNotPermitted,
		},
		{
			name: "unregistered",
			in:   `{"data":{"type":"ghosts"}}`,
			path: "/data/type",
			code: jsonapi.CodeIllegalDecoding,
		},
		{
			name: "strict",
			in:   `{"data":{"type":"people","attributes":{"name":"a","age":3}}}`,
			opt:  jsonapi.DecodeOpt{UnknownFields: jsonapi.UnknownStrict},
			path: "/data/attributes/age",
			code: jsonapi.CodeUnknownKey,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Decode(context.Background(), []byte(tc.in), tc.opt)
			iss, ok := jsonapi.AsIssues(err)
			if !ok {
				t.Fatalf("expected Issues, got %v", err)
			}
			for _, it := range iss {
				if it.Path == tc.path && it.Code == tc.code {
					return
				}
			}
			t.Fatalf("want %s at %s, got %v", tc.code, tc.path, iss)
		})
	}
}

func TestDecode_IncludeNoMatch(t *testing.T) {
	reg := mustParse(t, blogTypes)
	in := `{"data":[],"included":[{"id":"1","type":"people","attributes":{"name":"a"}},{"id":"2","type":"tags"}]}`
	_, err := reg.Decode(context.Background(), []byte(in))
	var ie *jsonapi.IncludeError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IncludeError, got %v", err)
	}
	if ie.Index != 1 || ie.Candidates != 3 || len(ie.Failures) != 3 {
		t.Fatalf("unexpected include error: %+v", ie)
	}
}

func TestRoundTrip_Many(t *testing.T) {
	reg := mustParse(t, blogTypes)
	in := `{"data":[{"id":"c1","type":"comments","attributes":{"body":"x"}},{"id":"9","type":"people","attributes":{"name":"Ann"}}],"meta":{"total":2}}`
	doc, err := reg.Decode(context.Background(), []byte(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !doc.Many || len(doc.Data) != 2 {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	out, err := reg.Encode(context.Background(), doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got, want any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	_ = json.Unmarshal([]byte(in), &want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_SparseAndUnknownType(t *testing.T) {
	reg := mustParse(t, blogTypes)
	doc, err := reg.Decode(context.Background(), []byte(articleDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := reg.Encode(context.Background(), doc, jsonapi.EncodeOpt{Fieldsets: jsonapi.Fieldsets{"articles": {"title"}}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(string(out), `"tags"`) || !strings.Contains(string(out), `"title":"Hello"`) {
		t.Fatalf("sparse output: %s", out)
	}
	if !strings.Contains(string(out), `"author"`) {
		t.Fatalf("relationships should pass through: %s", out)
	}

	doc.Data[0].Type = "ghosts"
	if _, err := reg.Encode(context.Background(), doc); err == nil {
		t.Fatalf("expected unregistered type error")
	}
}

func TestDecode_MetaOnly(t *testing.T) {
	reg := mustParse(t, blogTypes)
	doc, err := reg.Decode(context.Background(), []byte(`{"meta":{"count":0}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Data) != 0 || doc.Meta["count"] == nil {
		t.Fatalf("unexpected doc: %+v", doc)
	}
}

func TestResource_RequiresRegistryInContext(t *testing.T) {
	var r registry.Resource
	err := r.DecodeJSONAPI(context.Background(), []byte(`{"type":"people"}`), jsonapi.Root())
	iss, ok := jsonapi.AsIssues(err)
	if !ok || !iss.HasCode(jsonapi.CodeDependencyMissing) {
		t.Fatalf("expected dependency issue, got %v", err)
	}
}

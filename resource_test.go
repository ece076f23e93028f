package jsonapi_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/jsonapi"
	"github.com/reoring/jsonapi/codec"
)

func TestResource_RoundTrip(t *testing.T) {
	cases := map[string]article{
		"full": newArticle("1"),
		"absent and null": func() article {
			a := newArticle("2")
			a.Attributes.Body = jsonapi.Present(jsonapi.NewAttribute(jsonapi.Null[string]()))
			a.Attributes.Published = jsonapi.Absent[jsonapi.TransformedAttribute[string, time.Time, codec.RFC3339]]()
			a.Relationships.Comments = jsonapi.Absent[jsonapi.ToMany[commentTag]]()
			return a
		}(),
		"unidentified with meta and links": func() article {
			a := newArticle("")
			a.ID = jsonapi.Unidentified[articleTag]()
			a.Attributes.Tags = jsonapi.NewAttribute([]string(nil))
			a.Meta = jsonapi.Meta{"source": "import"}
			a.Links = jsonapi.Links{"self": {Href: "/articles/new"}}
			return a
		}(),
		"zero arrays": jsonapi.NewResource(jsonapi.NewID[articleTag]("3"),
			articleAttrs{Title: jsonapi.NewAttribute("t")},
			articleRels{
				Author:   jsonapi.NewToOne(jsonapi.NewID[authorTag]("9")),
				Comments: jsonapi.Present(jsonapi.NewToMany[commentTag]()),
			}),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := in.MarshalJSON()
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var out article
			if err := out.UnmarshalJSON(b); err != nil {
				t.Fatalf("unmarshal %s: %v", b, err)
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
			if !reflect.DeepEqual(in, out) {
				t.Fatalf("round trip is not deeply equal")
			}
		})
	}
}

func TestResource_EncodeOrderAndShape(t *testing.T) {
	got := string(encodeResource(t, newArticle("1"), nil))
	want := `{"id":"1","type":"articles","attributes":{"title":"JSON:API paints my bikeshed!","body":"The shortest article. Ever.","tags":["api","json"],"published":"2024-05-01T10:00:00Z"},"relationships":{"author":{"data":{"type":"authors","id":"9"}},"comments":{"data":[{"type":"comments","id":"5"},{"type":"comments","id":"12"}]}}}`
	if got != want {
		t.Fatalf("encoding mismatch\nwant: %s\ngot:  %s", want, got)
	}
}

func TestResource_OmissionLaw(t *testing.T) {
	a := newArticle("1")
	a.Attributes.Body = jsonapi.Absent[jsonapi.Attribute[jsonapi.Nullable[string]]]()
	a.Relationships.Comments = jsonapi.Absent[jsonapi.ToMany[commentTag]]()
	out := encodeResource(t, a, nil)
	attrs := members(t, members(t, out)["attributes"])
	if _, ok := attrs["body"]; ok {
		t.Fatalf("absent attribute was written: %s", out)
	}
	if _, ok := members(t, members(t, out)["relationships"])["comments"]; ok {
		t.Fatalf("absent relationship was written: %s", out)
	}

	a.Attributes.Body = jsonapi.Present(jsonapi.NewAttribute(jsonapi.Null[string]()))
	out = encodeResource(t, a, nil)
	attrs = members(t, members(t, out)["attributes"])
	if string(attrs["body"]) != "null" {
		t.Fatalf("null attribute must be written as null, got %s", attrs["body"])
	}
}

func TestResource_UnidentifiedOmitsID(t *testing.T) {
	a := newArticle("x")
	a.ID = jsonapi.Unidentified[articleTag]()
	m := members(t, encodeResource(t, a, nil))
	if _, ok := m["id"]; ok {
		t.Fatalf("unidentified resource must not write id")
	}
	if string(m["type"]) != `"articles"` {
		t.Fatalf("type = %s", m["type"])
	}
	if _, err := a.Identify("7"); err != nil {
		t.Fatalf("identify: %v", err)
	}
	b, _ := a.Identify("7")
	if _, err := b.Identify("8"); err == nil {
		t.Fatalf("re-identifying must fail")
	}
}

func TestResource_AttributeMatrix(t *testing.T) {
	type matrixAttrs struct {
		Req      jsonapi.Attribute[string]                                      `jsonapi:"req"`
		Null     jsonapi.Attribute[*string]                                     `jsonapi:"null"`
		Omit     jsonapi.Omittable[jsonapi.Attribute[string]]                   `jsonapi:"omit"`
		OmitNull jsonapi.Omittable[jsonapi.Attribute[jsonapi.Nullable[string]]] `jsonapi:"omitNull"`
		List     jsonapi.Attribute[[]int]                                       `jsonapi:"list"`
	}
	type matrix = jsonapi.ResourceObject[articleTag, matrixAttrs, jsonapi.NoRelationships]
	const base = `"req":"r","null":"n","omit":"o","omitNull":"x","list":[1]`
	cases := []struct {
		name  string
		attrs string
		path  string
		code  string
	}{
		{"all present", base, "", ""},
		{"required absent", `"null":"n","omit":"o","omitNull":"x","list":[1]`, "/attributes/req", jsonapi.CodeRequired},
		{"required null", `"req":null,"null":"n","omit":"o","omitNull":"x","list":[1]`, "/attributes/req", jsonapi.CodeNullNotPermitted},
		{"nullable absent", `"req":"r","omit":"o","omitNull":"x","list":[1]`, "/attributes/null", jsonapi.CodeRequired},
		{"nullable null", `"req":"r","null":null,"omit":"o","omitNull":"x","list":[1]`, "", ""},
		{"omittable absent", `"req":"r","null":"n","omitNull":"x","list":[1]`, "", ""},
		{"omittable null", `"req":"r","null":"n","omit":null,"omitNull":"x","list":[1]`, "/attributes/omit", jsonapi.CodeNullNotPermitted},
		{"omittable nullable absent", `"req":"r","null":"n","omit":"o","list":[1]`, "", ""},
		{"omittable nullable null", `"req":"r","null":"n","omit":"o","omitNull":null,"list":[1]`, "", ""},
		{"array absent", `"req":"r","null":"n","omit":"o","omitNull":"x"`, "/attributes/list", jsonapi.CodeRequired},
		{"array null", `"req":"r","null":"n","omit":"o","omitNull":"x","list":null`, "/attributes/list", jsonapi.CodeNullNotPermitted},
		{"wrong type", `"req":1,"null":"n","omit":"o","omitNull":"x","list":[1]`, "/attributes/req", jsonapi.CodeInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r matrix
			err := r.UnmarshalJSON([]byte(`{"type":"articles","attributes":{` + tc.attrs + `}}`))
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			iss := mustIssues(t, err)
			if !hasIssue(iss, tc.path, tc.code) {
				t.Fatalf("want %s at %s, got %v", tc.code, tc.path, iss)
			}
		})
	}

	var r matrix
	if err := r.UnmarshalJSON([]byte(`{"type":"articles","attributes":{"req":"r","null":null,"omitNull":null,"list":[]}}`)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Attributes.Null.Value != nil {
		t.Fatalf("null pointer attribute should be nil")
	}
	if r.Attributes.Omit.Present {
		t.Fatalf("omit should be absent")
	}
	v, ok := r.Attributes.OmitNull.Get()
	if !ok || v.Value.Valid {
		t.Fatalf("omitNull should be present and null, got %+v", r.Attributes.OmitNull)
	}
}

func TestResource_TypeMismatchIsSingleIssue(t *testing.T) {
	var a article
	err := a.UnmarshalJSON([]byte(`{"type":"people","id":"1","attributes":{"title":5}}`))
	iss := mustIssues(t, err)
	if len(iss) != 1 || iss[0].Code != jsonapi.CodeTypeMismatch || iss[0].Path != "/type" {
		t.Fatalf("want one type_mismatch at /type, got %v", iss)
	}
	if iss[0].Params["expected"] != "articles" || iss[0].Params["found"] != "people" {
		t.Fatalf("params = %v", iss[0].Params)
	}
}

func TestResource_CollectsAllIssuesUnlessFailFast(t *testing.T) {
	in := []byte(`{"type":"articles","attributes":{"title":1,"tags":null},"relationships":{"author":{"data":null}}}`)
	var a article
	iss := mustIssues(t, a.DecodeJSONAPI(context.Background(), in, jsonapi.Root()))
	if len(iss) != 3 {
		t.Fatalf("want 3 issues, got %v", iss)
	}
	ctx := jsonapi.WithDecodeOpt(context.Background(), jsonapi.DecodeOpt{FailFast: true})
	iss = mustIssues(t, a.DecodeJSONAPI(ctx, in, jsonapi.Root()))
	if len(iss) != 1 {
		t.Fatalf("fail-fast should stop at the first issue, got %v", iss)
	}
}

func TestResource_UnknownMembers(t *testing.T) {
	in := []byte(`{"type":"authors","id":"1","attributes":{"name":"a","age":3},"extra":true}`)
	var a author
	if err := a.UnmarshalJSON(in); err != nil {
		t.Fatalf("strip mode should ignore unknown members: %v", err)
	}
	ctx := jsonapi.WithDecodeOpt(context.Background(), jsonapi.DecodeOpt{UnknownFields: jsonapi.UnknownStrict})
	iss := mustIssues(t, a.DecodeJSONAPI(ctx, in, jsonapi.Root()))
	if !hasIssue(iss, "/attributes/age", jsonapi.CodeUnknownKey) || !hasIssue(iss, "/extra", jsonapi.CodeUnknownKey) {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestResource_TransformFailed(t *testing.T) {
	var a article
	err := a.UnmarshalJSON([]byte(`{"type":"articles","attributes":{"title":"t","tags":[],"published":"yesterday"},"relationships":{"author":{"data":{"type":"authors","id":"1"}}}}`))
	iss := mustIssues(t, err)
	if !hasIssue(iss, "/attributes/published", jsonapi.CodeTransformFailed) {
		t.Fatalf("want transform_failed, got %v", iss)
	}
}

func TestResource_Relationships(t *testing.T) {
	const attrs = `"attributes":{"title":"t","tags":[]}`
	cases := []struct {
		name string
		rels string
		path string
		code string
	}{
		{"missing to-one", `{}`, "/relationships/author", jsonapi.CodeRequired},
		{"missing data", `{"author":{"meta":{}}}`, "/relationships/author/data", jsonapi.CodeRequired},
		{"null to-one", `{"author":{"data":null}}`, "/relationships/author/data", jsonapi.CodeNullNotPermitted},
		{"array for to-one", `{"author":{"data":[]}}`, "/relationships/author/data", jsonapi.CodeQuantityMismatch},
		{"object for to-many", `{"author":{"data":{"type":"authors","id":"1"}},"comments":{"data":{"type":"comments","id":"1"}}}`, "/relationships/comments/data", jsonapi.CodeQuantityMismatch},
		{"foreign linkage", `{"author":{"data":{"type":"people","id":"1"}}}`, "/relationships/author/data/type", jsonapi.CodeTypeMismatch},
		{"bad element", `{"author":{"data":{"type":"authors","id":"1"}},"comments":{"data":[{"type":"comments","id":"1"},{"type":"comments"}]}}`, "/relationships/comments/data/1/id", jsonapi.CodeRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var a article
			err := a.UnmarshalJSON([]byte(`{"type":"articles",` + attrs + `,"relationships":` + tc.rels + `}`))
			iss := mustIssues(t, err)
			if !hasIssue(iss, tc.path, tc.code) {
				t.Fatalf("want %s at %s, got %v", tc.code, tc.path, iss)
			}
		})
	}

	var c comment
	if err := c.UnmarshalJSON([]byte(`{"type":"comments","id":"1","attributes":{"body":"b"},"relationships":{"author":{"data":null}}}`)); err != nil {
		t.Fatalf("nullable to-one: %v", err)
	}
	if c.Relationships.Author.ID.IsIdentified() {
		t.Fatalf("null linkage should be unidentified")
	}
	out := members(t, encodeResource(t, c, nil))
	if !strings.Contains(string(out["relationships"]), `"data":null`) {
		t.Fatalf("empty to-one must encode as null: %s", out["relationships"])
	}

	var a article
	err := a.UnmarshalJSON([]byte(`{"type":"articles",` + attrs + `,"relationships":{"author":{"data":{"type":"authors","id":"1"}},"comments":{"data":[]}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rel, ok := a.Relationships.Comments.Get()
	if !ok || rel.IDs != nil {
		t.Fatalf("empty to-many should be present and empty, got %+v", a.Relationships.Comments)
	}
}

func TestResource_EncodeUnidentifiedToOne(t *testing.T) {
	a := newArticle("1")
	a.Relationships.Author = jsonapi.ToOne[authorTag]{}
	_, err := a.MarshalJSON()
	iss := mustIssues(t, err)
	if !hasIssue(iss, "/relationships/author/data", jsonapi.CodeIllegalEncoding) {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestResource_RequiredMetaAndLinks(t *testing.T) {
	type reportTag struct{ articleTag }
	type reportAttrs struct {
		Name jsonapi.Attribute[string] `jsonapi:"name"`
	}
	type report = jsonapi.ResourceObject[reportTag, reportAttrs, jsonapi.NoRelationships]
	if err := jsonapi.Register[reportTag, reportAttrs, jsonapi.NoRelationships](jsonapi.RequireMeta("version"), jsonapi.RequireLinks("self")); err != nil {
		t.Fatalf("register: %v", err)
	}
	var r report
	iss := mustIssues(t, r.UnmarshalJSON([]byte(`{"type":"articles","attributes":{"name":"n"},"links":{"related":"/x"}}`)))
	if !iss.HasCode(jsonapi.CodeMalformedMeta) || !iss.HasCode(jsonapi.CodeMalformedLinks) {
		t.Fatalf("unexpected issues: %v", iss)
	}
	if err := r.UnmarshalJSON([]byte(`{"type":"articles","attributes":{"name":"n"},"meta":{"version":1},"links":{"self":{"href":"/r/1","meta":{"v":1}}}}`)); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Links["self"].Href != "/r/1" {
		t.Fatalf("links = %+v", r.Links)
	}
}

func TestValidateResourceType(t *testing.T) {
	type badAttrs struct {
		Title  jsonapi.Attribute[string]                      `jsonapi:"title"`
		Plain  string                                         `jsonapi:"plain"`
		Author jsonapi.ToOne[authorTag]                       `jsonapi:"author"`
		ID     jsonapi.Attribute[string]                      `jsonapi:"id"`
		Tags   jsonapi.Omittable[jsonapi.Attribute[[]string]] `jsonapi:"tags"`
		Bad    jsonapi.Attribute[string]                      `jsonapi:"-bad"`
		Skip   string                                         `jsonapi:"-"`
	}
	type badRels struct {
		Title jsonapi.ToOne[authorTag]  `jsonapi:"title"`
		Name  jsonapi.Attribute[string] `jsonapi:"name"`
	}
	err := jsonapi.ValidateResourceType[articleTag, badAttrs, badRels]()
	iss := mustIssues(t, err)
	var kinds []jsonapi.StructuralKind
	for _, it := range iss {
		var se *jsonapi.StructuralError
		if !errors.As(it.Cause, &se) {
			t.Fatalf("issue without structural cause: %v", it)
		}
		kinds = append(kinds, se.Kind)
	}
	want := []jsonapi.StructuralKind{
		jsonapi.NonAttributeField,
		jsonapi.NonAttributeField,
		jsonapi.InvalidFieldName,
		jsonapi.NullArrayAttribute,
		jsonapi.InvalidFieldName,
		jsonapi.InvalidFieldName,
		jsonapi.NonRelationshipField,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	if err := jsonapi.ValidateResourceType[articleTag, articleAttrs, articleRels](); err != nil {
		t.Fatalf("valid description rejected: %v", err)
	}
}

func TestFieldNameOf(t *testing.T) {
	if got := jsonapi.FieldNameOf(func(a *articleAttrs) *jsonapi.Attribute[[]string] { return &a.Tags }); got != "tags" {
		t.Fatalf("got %q", got)
	}
	got := jsonapi.FieldNamesOf(
		func(a *articleAttrs) any { return &a.Title },
		func(a *articleAttrs) any { return &a.Published },
	)
	if diff := cmp.Diff([]string{"title", "published"}, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldNameOf_ZeroSizeNeighbour(t *testing.T) {
	type flagged struct {
		Flag jsonapi.Attribute[struct{}] `jsonapi:"flag"`
		Name jsonapi.Attribute[string]   `jsonapi:"name"`
	}
	if got := jsonapi.FieldNameOf(func(a *flagged) *jsonapi.Attribute[string] { return &a.Name }); got != "name" {
		t.Fatalf("got %q, want name", got)
	}
	if got := jsonapi.FieldNamesOf(func(a *flagged) any { return &a.Name }); len(got) != 1 || got[0] != "name" {
		t.Fatalf("got %v", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("selecting a zero-size field must panic")
		}
	}()
	jsonapi.FieldNameOf(func(a *flagged) *jsonapi.Attribute[struct{}] { return &a.Flag })
}

func TestResource_DecodeRunsStructuralChecks(t *testing.T) {
	type looseAttrs struct {
		Title jsonapi.Attribute[string] `jsonapi:"title"`
		Plain string                    `jsonapi:"plain"`
	}
	var r jsonapi.ResourceObject[articleTag, looseAttrs, jsonapi.NoRelationships]
	err := r.UnmarshalJSON([]byte(`{"type":"articles","id":"1","attributes":{"title":"t","plain":"p"}}`))
	if !mustIssues(t, err).HasCode(jsonapi.CodeStructural) {
		t.Fatalf("unexpected error: %v", err)
	}
	var se *jsonapi.StructuralError
	if !errors.As(err, &se) || se.Kind != jsonapi.NonAttributeField {
		t.Fatalf("want a non-attribute field error, got %v", err)
	}
}

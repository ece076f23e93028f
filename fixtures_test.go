package jsonapi_test

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/reoring/jsonapi"
	"github.com/reoring/jsonapi/codec"
)

type articleTag struct{}

func (articleTag) TypeName() string { return "articles" }

type authorTag struct{}

func (authorTag) TypeName() string { return "authors" }

type commentTag struct{}

func (commentTag) TypeName() string { return "comments" }

type articleAttrs struct {
	Title     jsonapi.Attribute[string]                                                         `jsonapi:"title"`
	Body      jsonapi.Omittable[jsonapi.Attribute[jsonapi.Nullable[string]]]                    `jsonapi:"body"`
	Tags      jsonapi.Attribute[[]string]                                                       `jsonapi:"tags"`
	Published jsonapi.Omittable[jsonapi.TransformedAttribute[string, time.Time, codec.RFC3339]] `jsonapi:"published"`
}

type articleRels struct {
	Author   jsonapi.ToOne[authorTag]                      `jsonapi:"author"`
	Comments jsonapi.Omittable[jsonapi.ToMany[commentTag]] `jsonapi:"comments"`
}

type article = jsonapi.ResourceObject[articleTag, articleAttrs, articleRels]

// bareArticle has no attributes, for documents that only carry linkage.
type bareArticleRels struct {
	Author jsonapi.ToOne[authorTag] `jsonapi:"author"`
}

type bareArticle = jsonapi.ResourceObject[articleTag, jsonapi.NoAttributes, bareArticleRels]

type authorAttrs struct {
	Name jsonapi.Attribute[string] `jsonapi:"name"`
}

type author = jsonapi.ResourceObject[authorTag, authorAttrs, jsonapi.NoRelationships]

type commentAttrs struct {
	Body jsonapi.Attribute[string] `jsonapi:"body"`
}

type commentRels struct {
	Author jsonapi.NullableToOne[authorTag] `jsonapi:"author"`
}

type comment = jsonapi.ResourceObject[commentTag, commentAttrs, commentRels]

func newArticle(id string) article {
	return jsonapi.NewResource(jsonapi.NewID[articleTag](id),
		articleAttrs{
			Title: jsonapi.NewAttribute("JSON:API paints my bikeshed!"),
			Body:  jsonapi.Present(jsonapi.NewAttribute(jsonapi.NotNull("The shortest article. Ever."))),
			Tags:  jsonapi.NewAttribute([]string{"api", "json"}),
			Published: jsonapi.Present(jsonapi.NewTransformedAttribute[string, time.Time, codec.RFC3339](
				time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))),
		},
		articleRels{
			Author:   jsonapi.NewToOne(jsonapi.NewID[authorTag]("9")),
			Comments: jsonapi.Present(jsonapi.NewToMany(jsonapi.NewID[commentTag]("5"), jsonapi.NewID[commentTag]("12"))),
		})
}

func newAuthor(id, name string) author {
	return jsonapi.NewResource(jsonapi.NewID[authorTag](id), authorAttrs{Name: jsonapi.NewAttribute(name)}, jsonapi.NoRelationships{})
}

// encodeResource writes r on its own, outside a document.
func encodeResource(t *testing.T, r jsonapi.Resource, fields jsonapi.Fieldsets) []byte {
	t.Helper()
	w := jsonapi.NewWriter()
	if err := r.EncodeJSONAPI(context.Background(), w, fields, jsonapi.Root()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := w.Bytes()
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	return b
}

// members decodes a JSON object into its raw members.
func members(t *testing.T, b []byte) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return m
}

// mustIssues asserts err carries Issues and returns them.
func mustIssues(t *testing.T, err error) jsonapi.Issues {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	iss, ok := jsonapi.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %T: %v", err, err)
	}
	return iss
}

// hasIssue reports whether iss contains code at path.
func hasIssue(iss jsonapi.Issues, path, code string) bool {
	for _, it := range iss {
		if it.Path == path && it.Code == code {
			return true
		}
	}
	return false
}

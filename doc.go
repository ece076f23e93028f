// Package jsonapi encodes and decodes JSON:API 1.0 documents into statically
// typed Go values.
//
// A resource type is declared once as a ResourceObject over three types: a
// TypeNamer tag carrying the wire type name, a struct of attributes and a
// struct of relationships. Field wrappers describe the presence rules of each
// member: Omittable for members that may be absent, Nullable for values that
// may be null, ToOne, NullableToOne and ToMany for relationship linkage.
//
// Documents are described by a DocumentType, which fixes the primary data
// shape (Single, NullableSingle, Many or NoData) and the closed, ordered list
// of resource types accepted in the included section:
//
//	dt := jsonapi.NewDocumentType[jsonapi.Single[Article]](
//		jsonapi.Include[Person](),
//		jsonapi.Include[Comment](),
//	)
//	doc, err := dt.Decode(ctx, data)
//	article, inc, _ := doc.Body.Data()
//	author, ok := jsonapi.ResolveToOne[Person](inc, article.Resource.Relationships.Author)
//
// Failures are reported as Issues: one entry per offending member, each with
// a JSON Pointer path and a stable code. Decoding collects every issue unless
// DecodeOpt.FailFast is set. Issues convert to JSON:API error objects with
// ErrorsFromIssues.
//
// Package registry declares resource types from YAML for tools that do not
// know the types at compile time.
package jsonapi

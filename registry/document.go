package registry

import (
	"bytes"
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/jsonapi"
)

// Document is a decoded document whose resources are all registry types.
// Many selects between Data (one element, or none when Null) and a list.
type Document struct {
	Many     bool
	Null     bool
	Data     []Resource
	Included []Resource
	Errors   []jsonapi.ErrorObject
	Meta     jsonapi.Meta
	Links    jsonapi.Links
	JSONAPI  *jsonapi.APIDescription
}

// WithContext returns a child context carrying the registry, which Resource
// decoding requires.
func (r *Registry) WithContext(ctx context.Context) context.Context {
	return jsonapi.WithService(ctx, r)
}

// Candidates returns one include candidate per declared type, in
// declaration order.
func (r *Registry) Candidates() []jsonapi.Candidate {
	out := make([]jsonapi.Candidate, 0, len(r.order))
	for _, name := range r.order {
		name := name
		out = append(out, jsonapi.CandidateFunc(name,
			func(ctx context.Context, raw json.RawMessage, p jsonapi.PathRef) (jsonapi.Resource, error) {
				res := Resource{Type: name}
				if err := res.DecodeJSONAPI(r.WithContext(ctx), raw, p); err != nil {
					return nil, err
				}
				return res, nil
			},
			func(res jsonapi.Resource) bool {
				g, ok := res.(Resource)
				return ok && g.Type == name
			}))
	}
	return out
}

// Decode parses a document whose primary data is one resource, null, or a
// list of resources of any declared type.
func (r *Registry) Decode(ctx context.Context, data []byte, opts ...jsonapi.DecodeOpt) (Document, error) {
	ctx = r.WithContext(ctx)
	kind, hasData, hasErrs := peek(data)
	if !hasData && !hasErrs {
		d, err := jsonapi.NewDocumentType[jsonapi.NoData]().Decode(ctx, data, opts...)
		if err != nil {
			return Document{}, err
		}
		return fromDocument(d.Meta, d.Links, d.JSONAPI), nil
	}
	if kind == KindArray {
		d, err := jsonapi.NewDocumentType[jsonapi.Many[Resource]](r.Candidates()...).Decode(ctx, data, opts...)
		if err != nil {
			return Document{}, err
		}
		out := fromDocument(d.Meta, d.Links, d.JSONAPI)
		out.Many = true
		if errs, ok := d.Body.Errors(); ok {
			out.Errors = errs
			return out, nil
		}
		primary, inc, _ := d.Body.Data()
		out.Data = primary.Resources
		out.Included = jsonapi.IncludedOf[Resource](inc)
		return out, nil
	}
	d, err := jsonapi.NewDocumentType[jsonapi.NullableSingle[Resource]](r.Candidates()...).Decode(ctx, data, opts...)
	if err != nil {
		return Document{}, err
	}
	out := fromDocument(d.Meta, d.Links, d.JSONAPI)
	if errs, ok := d.Body.Errors(); ok {
		out.Errors = errs
		return out, nil
	}
	primary, inc, _ := d.Body.Data()
	if primary.Valid {
		out.Data = []Resource{primary.Resource}
	} else {
		out.Null = true
	}
	out.Included = jsonapi.IncludedOf[Resource](inc)
	return out, nil
}

// Encode writes doc. Every resource must be of a declared type.
func (r *Registry) Encode(ctx context.Context, doc Document, opts ...jsonapi.EncodeOpt) ([]byte, error) {
	if err := r.checkTypes(doc.Data, jsonapi.Root().Field("data"), doc.Many); err != nil {
		return nil, err
	}
	if err := r.checkTypes(doc.Included, jsonapi.Root().Field("included"), true); err != nil {
		return nil, err
	}
	inc := make([]jsonapi.Resource, 0, len(doc.Included))
	for _, res := range doc.Included {
		inc = append(inc, res)
	}
	includes := jsonapi.NewIncludes(inc...)
	if doc.Many {
		d := jsonapi.Document[jsonapi.Many[Resource]]{JSONAPI: doc.JSONAPI, Meta: doc.Meta, Links: doc.Links}
		if doc.Errors != nil {
			d.Body = jsonapi.ErrorsBody[jsonapi.Many[Resource]](doc.Errors...)
		} else {
			d.Body = jsonapi.DataBody(jsonapi.Many[Resource]{Resources: doc.Data}, includes)
		}
		return jsonapi.NewDocumentType[jsonapi.Many[Resource]](r.Candidates()...).Encode(ctx, d, opts...)
	}
	d := jsonapi.Document[jsonapi.NullableSingle[Resource]]{JSONAPI: doc.JSONAPI, Meta: doc.Meta, Links: doc.Links}
	switch {
	case doc.Errors != nil:
		d.Body = jsonapi.ErrorsBody[jsonapi.NullableSingle[Resource]](doc.Errors...)
	case len(doc.Data) > 1:
		return nil, jsonapi.Issues{jsonapi.Root().Field("data").Issue(jsonapi.CodeQuantityMismatch, "expected one resource, found many", "expected", "one")}
	case len(doc.Data) == 1:
		d.Body = jsonapi.DataBody(jsonapi.SomeResource(doc.Data[0]), includes)
	default:
		d.Body = jsonapi.DataBody(jsonapi.NullableSingle[Resource]{}, includes)
	}
	return jsonapi.NewDocumentType[jsonapi.NullableSingle[Resource]](r.Candidates()...).Encode(ctx, d, opts...)
}

func fromDocument(meta jsonapi.Meta, links jsonapi.Links, api *jsonapi.APIDescription) Document {
	return Document{Meta: meta, Links: links, JSONAPI: api}
}

func (r *Registry) checkTypes(rs []Resource, p jsonapi.PathRef, many bool) error {
	var iss jsonapi.Issues
	for i, res := range rs {
		at := p
		if many {
			at = p.Index(i)
		}
		if _, ok := r.Type(res.Type); !ok {
			iss = append(iss, at.Field("type").Issue(jsonapi.CodeIllegalEncoding,
				fmt.Sprintf("resource type %q is not registered", res.Type), "found", res.Type))
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// peek reports the kind of the top-level data member and which of data and
// errors are present. Any parse problem is left to the document decoder.
func peek(data []byte) (kind Kind, hasData, hasErrs bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "", true, false
	}
	raw, hasData := top["data"]
	_, hasErrs = top["errors"]
	return kindOf(bytes.TrimSpace(raw)), hasData, hasErrs
}

package jsonapi

import (
	"bytes"
	"context"
	"errors"
	"reflect"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	eng "github.com/reoring/jsonapi/internal/engine"
)

// Body is the document body: primary data with its included resources, or a
// list of errors. It is built with DataBody or ErrorsBody only.
type Body[P Primary] struct {
	primary P
	inc     Includes
	errs    []ErrorObject
	isErrs  bool
}

// DataBody returns a body carrying primary data and included resources.
func DataBody[P Primary](primary P, inc Includes) Body[P] {
	return Body[P]{primary: primary, inc: inc}
}

// ErrorsBody returns a body carrying error objects.
func ErrorsBody[P Primary](errs ...ErrorObject) Body[P] {
	return Body[P]{errs: append([]ErrorObject{}, errs...), isErrs: true}
}

// Data returns the primary data and included resources of a data body.
func (b Body[P]) Data() (P, Includes, bool) {
	if b.isErrs {
		var zero P
		return zero, Includes{}, false
	}
	return b.primary, b.inc, true
}

// Errors returns the error objects of an errors body.
func (b Body[P]) Errors() ([]ErrorObject, bool) {
	if !b.isErrs {
		return nil, false
	}
	return b.errs, true
}

func (b Body[P]) IsErrors() bool { return b.isErrs }

func (b Body[P]) Equal(o Body[P]) bool {
	return b.isErrs == o.isErrs &&
		reflect.DeepEqual(b.primary, o.primary) &&
		b.inc.Equal(o.inc) &&
		reflect.DeepEqual(b.errs, o.errs)
}

// Document is a top-level JSON:API document.
type Document[P Primary] struct {
	JSONAPI *APIDescription
	Body    Body[P]
	Meta    Meta
	Links   Links
}

// NewDataDocument returns a document with primary data.
func NewDataDocument[P Primary](primary P, inc Includes) Document[P] {
	return Document[P]{Body: DataBody(primary, inc)}
}

// NewErrorsDocument returns a document with error objects.
func NewErrorsDocument[P Primary](errs ...ErrorObject) Document[P] {
	return Document[P]{Body: ErrorsBody[P](errs...)}
}

// DocumentType describes the documents of one shape: the primary data P and
// the closed, ordered list of resource types accepted as included resources.
// It is immutable and safe for concurrent use.
type DocumentType[P Primary] struct {
	candidates []Candidate
}

// NewDocumentType declares a document shape. It panics when *P cannot decode
// primary data, which only happens with a custom Primary implementation.
func NewDocumentType[P Primary](candidates ...Candidate) DocumentType[P] {
	var p P
	if _, ok := any(&p).(PrimaryDecoder); !ok {
		panic("jsonapi.NewDocumentType: *P must implement PrimaryDecoder")
	}
	return DocumentType[P]{candidates: append([]Candidate(nil), candidates...)}
}

// Candidates returns the included candidates in declaration order.
func (dt DocumentType[P]) Candidates() []Candidate {
	return append([]Candidate(nil), dt.candidates...)
}

func isDocumentMember(k string) bool {
	switch k {
	case "data", "errors", "included", "meta", "links", "jsonapi":
		return true
	}
	return false
}

// Decode parses a document. Options given here replace the ones carried by
// ctx. The result is all-or-nothing: on error the document is the zero value.
func (dt DocumentType[P]) Decode(ctx context.Context, data []byte, opts ...DecodeOpt) (Document[P], error) {
	if len(opts) > 0 {
		ctx = WithDecodeOpt(ctx, lastDecodeOpt(opts))
	}
	if err := enforce(data, DecodeOptFrom(ctx)); err != nil {
		return Document[P]{}, err
	}
	p := Root()
	m, err := decodeObject(data, p)
	if err != nil {
		return Document[P]{}, err
	}
	dataRaw, hasData := m["data"]
	errsRaw, hasErrs := m["errors"]
	incRaw, hasInc := m["included"]
	_, hasMeta := m["meta"]
	switch {
	case hasData && hasErrs:
		return Document[P]{}, Issues{illegalDecoding(p, `a document cannot contain both "data" and "errors"`)}
	case !hasData && !hasErrs && !hasMeta:
		return Document[P]{}, Issues{illegalDecoding(p, `a document must contain "data", "errors" or "meta"`)}
	case hasInc && !hasData:
		return Document[P]{}, Issues{illegalDecoding(p.Field("included"), `"included" requires "data"`)}
	}

	var doc Document[P]
	var iss Issues
	if hasErrs {
		errs, err := decodeErrors(errsRaw, p.Field("errors"))
		if err != nil {
			return Document[P]{}, err
		}
		doc.Body = ErrorsBody[P](errs...)
	} else {
		var primary P
		if err := any(&primary).(PrimaryDecoder).DecodePrimary(ctx, dataRaw, hasData, p.Field("data")); err != nil {
			iss = append(iss, toIssues(p.Field("data"), err)...)
			if IsFailFast(ctx) {
				return Document[P]{}, iss
			}
		}
		var inc Includes
		if hasInc {
			if inc, err = decodeIncludes(ctx, incRaw, dt.candidates, p.Field("included")); err != nil {
				iss = append(iss, toIssues(p.Field("included"), err)...)
			}
		}
		doc.Body = DataBody(primary, inc)
	}

	if mr, ok := m["meta"]; ok {
		if doc.Meta, err = decodeMeta(mr, p.Field("meta")); err != nil {
			iss = append(iss, toIssues(p.Field("meta"), err)...)
		}
	}
	if lr, ok := m["links"]; ok {
		if doc.Links, err = decodeLinks(lr, p.Field("links")); err != nil {
			iss = append(iss, toIssues(p.Field("links"), err)...)
		}
	}
	if jr, ok := m["jsonapi"]; ok {
		if doc.JSONAPI, err = decodeAPIDescription(jr, p.Field("jsonapi")); err != nil {
			iss = append(iss, toIssues(p.Field("jsonapi"), err)...)
		}
	}
	if isStrict(ctx) {
		for _, k := range unknownMembers(m, isDocumentMember) {
			iss = append(iss, unknownKey(p.Field(k)))
		}
	}
	if len(iss) > 0 {
		return Document[P]{}, iss
	}
	return doc, nil
}

func decodeAPIDescription(raw json.RawMessage, p PathRef) (*APIDescription, error) {
	m, err := decodeObject(raw, p)
	if err != nil {
		return nil, err
	}
	d := &APIDescription{}
	if vr, ok := m["version"]; ok {
		if d.Version, err = decodeString(vr, p.Field("version")); err != nil {
			return nil, err
		}
	}
	if mr, ok := m["meta"]; ok {
		if d.Meta, err = decodeMeta(mr, p.Field("meta")); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// enforce runs the token-level checks selected by opt over the raw input.
func enforce(data []byte, opt DecodeOpt) error {
	eo := eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
	}
	if !eo.Enabled() {
		return nil
	}
	eo.IssueSink = func(si eng.SimpleIssue) {
		Logger().Debug("duplicate key", zap.String("path", si.Path), zap.String("message", si.Message))
	}
	err := eng.Check(data, eo)
	if err == nil {
		return nil
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message}}
	}
	return Issues{Root().Issue(CodeParseError, err.Error()).withCause(err)}
}

// Encode writes doc. A data body never produces "errors" and an errors body
// never produces "data" or "included".
func (dt DocumentType[P]) Encode(ctx context.Context, doc Document[P], opts ...EncodeOpt) ([]byte, error) {
	opt := lastEncodeOpt(opts)
	p := Root()
	w := newWriter()
	if err := w.BeginObject(); err != nil {
		return nil, err
	}
	if errs, ok := doc.Body.Errors(); ok {
		if len(errs) == 0 {
			return nil, Issues{illegalEncoding(p.Field("errors"), "an errors document needs at least one error object")}
		}
		if err := w.Key("errors"); err != nil {
			return nil, err
		}
		if err := w.BeginArray(); err != nil {
			return nil, err
		}
		for i, e := range errs {
			raw, err := e.MarshalJSON()
			if err != nil {
				return nil, Issues{illegalEncoding(p.Field("errors").Index(i), err.Error()).withCause(err)}
			}
			if err := w.Value(raw); err != nil {
				return nil, err
			}
		}
		if err := w.EndArray(); err != nil {
			return nil, err
		}
	} else {
		primary, inc, _ := doc.Body.Data()
		if !primary.HasData() {
			if len(doc.Meta) == 0 {
				return nil, Issues{illegalEncoding(p, "a document without primary data needs meta")}
			}
			if inc.Len() > 0 {
				return nil, Issues{illegalEncoding(p.Field("included"), `"included" requires "data"`)}
			}
		} else {
			if err := w.Key("data"); err != nil {
				return nil, err
			}
			if err := primary.EncodePrimary(ctx, w, opt.Fieldsets, p.Field("data")); err != nil {
				return nil, err
			}
		}
		if inc.Len() > 0 {
			if err := w.Key("included"); err != nil {
				return nil, err
			}
			if err := encodeIncludes(ctx, w, inc, dt.candidates, opt.Fieldsets, p.Field("included")); err != nil {
				return nil, err
			}
		}
	}
	if err := writeMetaLinks(w, doc.Meta, doc.Links); err != nil {
		return nil, err
	}
	if doc.JSONAPI != nil {
		raw, err := json.Marshal(doc.JSONAPI)
		if err != nil {
			return nil, err
		}
		if err := writeMember(w, "jsonapi", raw); err != nil {
			return nil, err
		}
	}
	if err := w.EndObject(); err != nil {
		return nil, err
	}
	out, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	if opt.Indent == "" {
		return out, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", opt.Indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

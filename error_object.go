package jsonapi

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ErrorSource locates the cause of an error in the request.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// ErrorObject is a JSON:API error object. An error payload that does not fit
// this shape is kept verbatim in Raw instead of failing the document.
type ErrorObject struct {
	ID     string
	Status string
	Code   string
	Title  string
	Detail string
	Source *ErrorSource
	Links  Links
	Meta   Meta
	// Raw holds the original member when the payload had an unknown shape.
	Raw json.RawMessage
}

type errorWire struct {
	ID     string       `json:"id,omitempty"`
	Links  Links        `json:"links,omitempty"`
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// IsUnknown reports whether the error object had an unknown shape.
func (e ErrorObject) IsUnknown() bool { return e.Raw != nil }

func (e ErrorObject) Error() string {
	if e.IsUnknown() {
		return "unknown error: " + string(e.Raw)
	}
	var parts []string
	for _, s := range []string{e.Status, e.Code, e.Title, e.Detail} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "error"
	}
	return strings.Join(parts, ": ")
}

func (e ErrorObject) MarshalJSON() ([]byte, error) {
	if e.IsUnknown() {
		return e.Raw, nil
	}
	return json.Marshal(errorWire{
		ID: e.ID, Links: e.Links, Status: e.Status, Code: e.Code,
		Title: e.Title, Detail: e.Detail, Source: e.Source, Meta: e.Meta,
	})
}

// UnmarshalJSON never fails on a well-formed value: payloads of an unknown
// shape degrade to an unknown error object.
func (e *ErrorObject) UnmarshalJSON(b []byte) error {
	*e = decodeErrorObject(b)
	return nil
}

func decodeErrorObject(raw json.RawMessage) ErrorObject {
	unknown := ErrorObject{Raw: append(json.RawMessage(nil), raw...)}
	if rawKind(raw) != '{' {
		return unknown
	}
	var w errorWire
	if err := unmarshalValue(raw, &w); err != nil {
		return unknown
	}
	return ErrorObject{
		ID: w.ID, Status: w.Status, Code: w.Code, Title: w.Title,
		Detail: w.Detail, Source: w.Source, Links: w.Links, Meta: w.Meta,
	}
}

// UnmarshalJSON decodes a links object.
func (ls *Links) UnmarshalJSON(b []byte) error {
	l, err := decodeLinks(b, Root())
	if err != nil {
		return err
	}
	*ls = l
	return nil
}

func decodeErrors(raw json.RawMessage, p PathRef) ([]ErrorObject, error) {
	els, err := decodeArray(raw, p)
	if err != nil {
		return nil, err
	}
	out := make([]ErrorObject, 0, len(els))
	for i, el := range els {
		eo := decodeErrorObject(el)
		if eo.IsUnknown() {
			Logger().Debug("error object of unknown shape kept verbatim", zap.String("path", p.Index(i).Pointer()))
		}
		out = append(out, eo)
	}
	return out, nil
}

// ErrorFromIssue converts a decode issue into an error object pointing at
// the offending member.
func ErrorFromIssue(it Issue, status int) ErrorObject {
	return ErrorObject{
		Status: fmt.Sprint(status),
		Code:   it.Code,
		Title:  msg(it.Code),
		Detail: it.Message,
		Source: &ErrorSource{Pointer: it.Path},
	}
}

// ErrorsFromIssues converts every issue with ErrorFromIssue.
func ErrorsFromIssues(iss Issues, status int) []ErrorObject {
	out := make([]ErrorObject, 0, len(iss))
	for _, it := range iss {
		out = append(out, ErrorFromIssue(it, status))
	}
	return out
}

// APIDescription is the jsonapi member describing the server implementation.
type APIDescription struct {
	Version string `json:"version,omitempty"`
	Meta    Meta   `json:"meta,omitempty"`
}

package jsonapi

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType       = "invalid_type"
	CodeTypeMismatch      = "type_mismatch"
	CodeQuantityMismatch  = "quantity_mismatch"
	CodeRequired          = "required"
	CodeNullNotPermitted  = "null_not_permitted"
	CodeTransformFailed   = "transform_failed"
	CodeIllegalEncoding   = "illegal_encoding"
	CodeIllegalDecoding   = "illegal_decoding"
	CodeMalformedMeta     = "missing_or_malformed_meta"
	CodeMalformedLinks    = "missing_or_malformed_links"
	CodeIncludeNoMatch    = "include_no_match"
	CodeStructural        = "structural"
	CodeUnknownKey        = "unknown_key"
	CodeDuplicateKey      = "duplicate_key"
	CodeParseError        = "parse_error"
	CodeTruncated         = "truncated"
	CodeDependencyMissing = "dependency_unavailable"
)

// Issue represents a single decode, encode or validation failure.
type Issue struct {
	Path    string // JSON Pointer (for example: /included/2/attributes/title).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"expected":"authors", "found":"people"})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. type_mismatch at /data/type: expected "articles", found "people"
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Message != "" {
			b.WriteString(": ")
			b.WriteString(it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.As can reach *IncludeError and
// *StructuralError values carried by individual issues.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// HasCode reports whether any issue carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// toIssues converts any error into Issues anchored at path.
func toIssues(p PathRef, err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{p.Issue(CodeParseError, err.Error()).withCause(err)}
}

func (it Issue) withCause(err error) Issue {
	it.Cause = err
	return it
}

// errIfAny returns nil for an empty collection so callers never hand back a
// non-nil error holding zero issues.
func errIfAny(iss Issues) error {
	if len(iss) == 0 {
		return nil
	}
	return iss
}

// ---- constructors for the error kinds ----

func typeMismatch(p PathRef, expected, found string) Issue {
	it := p.Issue(CodeTypeMismatch, fmt.Sprintf("expected %q, found %q", expected, found), "expected", expected, "found", found)
	return it
}

func invalidType(p PathRef, expected string, raw []byte) Issue {
	found := describeRaw(raw)
	return p.Issue(CodeInvalidType, fmt.Sprintf("expected %s, found %s", expected, found), "expected", expected, "found", found)
}

func quantityMismatch(p PathRef, expectedMany bool) Issue {
	if expectedMany {
		return p.Issue(CodeQuantityMismatch, "expected an array of resource identifiers, found a single value", "expected", "many")
	}
	return p.Issue(CodeQuantityMismatch, "expected a single resource identifier, found an array", "expected", "one")
}

func illegalDecoding(p PathRef, reason string) Issue {
	return p.Issue(CodeIllegalDecoding, reason, "reason", reason)
}

func illegalEncoding(p PathRef, reason string) Issue {
	return p.Issue(CodeIllegalEncoding, reason, "reason", reason)
}

func required(p PathRef) Issue {
	return p.Issue(CodeRequired, msg(CodeRequired))
}

func nullNotPermitted(p PathRef) Issue {
	return p.Issue(CodeNullNotPermitted, msg(CodeNullNotPermitted))
}

func malformedMeta(p PathRef, key string) Issue {
	if key == "" {
		return p.Issue(CodeMalformedMeta, "meta must be an object")
	}
	return p.Issue(CodeMalformedMeta, fmt.Sprintf("meta member %q is missing", key), "key", key)
}

func malformedLinks(p PathRef, key, reason string) Issue {
	return p.Issue(CodeMalformedLinks, reason, "key", key)
}

func unknownKey(p PathRef) Issue {
	return p.Issue(CodeUnknownKey, msg(CodeUnknownKey))
}

func transformFailed(p PathRef, err error) Issue {
	return p.Issue(CodeTransformFailed, err.Error()).withCause(err)
}

// valueDecodeFailed reports a wire value that does not fit the Go type t.
func valueDecodeFailed(p PathRef, t string, raw []byte, err error) Issue {
	return invalidType(p, t, raw).withCause(err)
}

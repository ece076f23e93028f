package jsonapi

import (
	"bytes"
	"sort"

	json "github.com/goccy/go-json"
)

var nullLiteral = json.RawMessage("null")

// rawKind returns the first significant byte of raw, or 0 when raw is empty.
func rawKind(raw []byte) byte {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}

func isNull(raw []byte) bool {
	return rawKind(raw) == 'n' && bytes.Equal(bytes.TrimSpace(raw), nullLiteral)
}

// describeRaw names the JSON kind of raw for diagnostics.
func describeRaw(raw []byte) string {
	switch c := rawKind(raw); {
	case c == '{':
		return "object"
	case c == '[':
		return "array"
	case c == '"':
		return "string"
	case c == 't' || c == 'f':
		return "boolean"
	case c == 'n':
		return "null"
	case c == '-' || (c >= '0' && c <= '9'):
		return "number"
	default:
		return "nothing"
	}
}

// decodeObject splits a JSON object into its raw members.
func decodeObject(raw json.RawMessage, p PathRef) (map[string]json.RawMessage, error) {
	if rawKind(raw) != '{' {
		return nil, Issues{invalidType(p, "object", raw)}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, Issues{p.Issue(CodeParseError, err.Error()).withCause(err)}
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}

// decodeArray splits a JSON array into its raw elements.
func decodeArray(raw json.RawMessage, p PathRef) ([]json.RawMessage, error) {
	if rawKind(raw) != '[' {
		return nil, Issues{invalidType(p, "array", raw)}
	}
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, Issues{p.Issue(CodeParseError, err.Error()).withCause(err)}
	}
	return a, nil
}

func decodeString(raw json.RawMessage, p PathRef) (string, error) {
	if rawKind(raw) != '"' {
		return "", Issues{invalidType(p, "string", raw)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", Issues{p.Issue(CodeParseError, err.Error()).withCause(err)}
	}
	return s, nil
}

// decodeAny decodes raw into a generic value keeping numbers as json.Number.
func decodeAny(raw json.RawMessage) (any, error) {
	var v any
	if err := unmarshalValue(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// unknownMembers returns the member names of m that are not in known, sorted
// for deterministic reporting.
func unknownMembers(m map[string]json.RawMessage, known func(string) bool) []string {
	var out []string
	for k := range m {
		if !known(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func marshalString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

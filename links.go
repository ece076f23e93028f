package jsonapi

import (
	"sort"

	json "github.com/goccy/go-json"
)

// Meta is free-form, non-standard meta information. Numbers decode as
// json.Number so they survive a round trip unchanged.
type Meta map[string]any

// Link is a link value. A link without meta is written as a bare URL string.
type Link struct {
	Href string
	Meta Meta
}

// Links maps link names (self, related, first, next, ...) to links.
type Links map[string]Link

func (l Link) MarshalJSON() ([]byte, error) {
	if len(l.Meta) == 0 {
		return json.Marshal(l.Href)
	}
	return json.Marshal(struct {
		Href string `json:"href"`
		Meta Meta   `json:"meta"`
	}{l.Href, l.Meta})
}

// MarshalJSON writes links ordered by name.
func (ls Links) MarshalJSON() ([]byte, error) {
	if ls == nil {
		return []byte("{}"), nil
	}
	names := make([]string, 0, len(ls))
	for k := range ls {
		names = append(names, k)
	}
	sort.Strings(names)
	w := newWriter()
	if err := w.BeginObject(); err != nil {
		return nil, err
	}
	for _, k := range names {
		raw, err := ls[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		if err := writeMember(w, k, raw); err != nil {
			return nil, err
		}
	}
	if err := w.EndObject(); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func decodeMeta(raw json.RawMessage, p PathRef) (Meta, error) {
	if rawKind(raw) != '{' {
		return nil, Issues{malformedMeta(p, "")}
	}
	v, err := decodeAny(raw)
	if err != nil {
		return nil, Issues{p.Issue(CodeMalformedMeta, err.Error()).withCause(err)}
	}
	m, _ := v.(map[string]any)
	return Meta(m), nil
}

func decodeLinks(raw json.RawMessage, p PathRef) (Links, error) {
	if rawKind(raw) != '{' {
		return nil, Issues{malformedLinks(p, "", "links must be an object")}
	}
	m, err := decodeObject(raw, p)
	if err != nil {
		return nil, err
	}
	out := make(Links, len(m))
	var iss Issues
	for _, k := range sortedKeys(m) {
		l, err := decodeLink(m[k], p.Field(k), k)
		if err != nil {
			iss = append(iss, toIssues(p.Field(k), err)...)
			continue
		}
		out[k] = l
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func decodeLink(raw json.RawMessage, p PathRef, name string) (Link, error) {
	switch rawKind(raw) {
	case '"':
		href, err := decodeString(raw, p)
		if err != nil {
			return Link{}, err
		}
		return Link{Href: href}, nil
	case '{':
		m, err := decodeObject(raw, p)
		if err != nil {
			return Link{}, err
		}
		hr, ok := m["href"]
		if !ok || rawKind(hr) != '"' {
			return Link{}, Issues{malformedLinks(p.Field("href"), name, "link object requires a string href")}
		}
		var l Link
		if l.Href, err = decodeString(hr, p.Field("href")); err != nil {
			return Link{}, err
		}
		if mr, ok := m["meta"]; ok {
			if l.Meta, err = decodeMeta(mr, p.Field("meta")); err != nil {
				return Link{}, err
			}
		}
		return l, nil
	default:
		return Link{}, Issues{malformedLinks(p, name, "link must be a string or an object, found "+describeRaw(raw))}
	}
}

// requireMetaKeys reports every key of keys missing from m.
func requireMetaKeys(m Meta, keys []string, p PathRef) Issues {
	var iss Issues
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			iss = append(iss, malformedMeta(p, k))
		}
	}
	return iss
}

func requireLinkKeys(l Links, keys []string, p PathRef) Issues {
	var iss Issues
	for _, k := range keys {
		if _, ok := l[k]; !ok {
			iss = append(iss, malformedLinks(p, k, "link "+quote(k)+" is missing"))
		}
	}
	return iss
}

func quote(s string) string { return string(marshalString(s)) }

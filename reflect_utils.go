package jsonapi

import (
	"reflect"
	"strings"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// wire member name.
// Priority: jsonapi:"name" > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if jt := sf.Tag.Get("jsonapi"); jt != "" {
		if i := strings.IndexByte(jt, ','); i >= 0 {
			jt = jt[:i]
		}
		if jt != "" {
			return jt
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			jt = jt[:i]
		}
		if jt != "" {
			return jt
		}
	}
	return sf.Name
}

// validMemberName reports whether s is a legal JSON:API member name: letters,
// digits and non-ASCII characters anywhere, '-', '_' and ' ' only inside.
func validMemberName(s string) bool {
	if s == "" {
		return false
	}
	last := len(s) - 1
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r >= 0x80:
		case r == '-' || r == '_' || r == ' ':
			if i == 0 || i == last {
				return false
			}
		default:
			return false
		}
	}
	return true
}

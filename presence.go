package jsonapi

import "strings"

// Presence is the bit flag describing how a member appeared in the input.
// The zero value means the member was absent.
type Presence uint8

const (
	PresenceSeen    Presence = 1 << iota // Member appeared in the input.
	PresenceWasNull                      // Member value was null.
)

// Has reports whether all bits of f are set.
func (p Presence) Has(f Presence) bool { return p&f == f }

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Seen reports whether the member at path was present in the input.
func (pm PresenceMap) Seen(path string) bool { return pm[path]&PresenceSeen != 0 }

// WasNull reports whether the member at path was explicitly null.
func (pm PresenceMap) WasNull(path string) bool { return pm[path]&PresenceWasNull != 0 }

// AnySeenUnder reports whether path or any of its descendants was present.
func (pm PresenceMap) AnySeenUnder(path string) bool {
	if pm.Seen(path) {
		return true
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	for k, v := range pm {
		if v&PresenceSeen != 0 && strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// AttributeShape describes the two independent axes of an attribute plus
// whether its value is a JSON array.
type AttributeShape struct {
	Omittable bool // the key may be absent
	Nullable  bool // the value may be null
	Array     bool // arrays are never absent and never null
}

// CheckAttribute applies the presence matrix for one attribute member. raw is
// the member value and present tells whether the key appeared at all. On
// success it returns the observed presence; a zero Presence means the member
// was absent and the absent sentinel applies.
//
//	absent:  omittable -> ok, otherwise "required" (always for arrays)
//	null:    nullable  -> ok, otherwise "null_not_permitted"
//	value:   ok
func CheckAttribute(raw []byte, present bool, shape AttributeShape, p PathRef) (Presence, error) {
	if !present {
		if shape.Omittable && !shape.Array {
			return 0, nil
		}
		return 0, Issues{required(p)}
	}
	if isNull(raw) {
		if shape.Nullable && !shape.Array {
			return PresenceSeen | PresenceWasNull, nil
		}
		return 0, Issues{nullNotPermitted(p)}
	}
	return PresenceSeen, nil
}

package jsonapi

import (
	"reflect"
)

// FieldNameOf returns the wire member name of a top-level field of S selected
// by selector. It keeps sparse fieldsets linked to the attribute structs at
// compile time:
//
//	FieldNameOf(func(a *ArticleAttrs) *Attribute[string] { return &a.Title }) // "title"
func FieldNameOf[S any, F any](selector func(*S) *F) string {
	if selector == nil {
		panic("jsonapi.FieldNameOf: selector must not be nil")
	}
	var zero S
	sel := reflect.ValueOf(selector(&zero))
	rv := reflect.ValueOf(&zero).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if selects(rv.Field(i), sf, sel) {
			name := ResolveStructKey(sf)
			if name == "" || name == "-" {
				panic("jsonapi.FieldNameOf: selected field is disabled")
			}
			return name
		}
	}
	panic("jsonapi.FieldNameOf: selector must return address of a top-level field")
}

// FieldNamesOf is FieldNameOf over several selectors of the same struct.
func FieldNamesOf[S any](selectors ...func(*S) any) []string {
	var zero S
	rv := reflect.ValueOf(&zero).Elem()
	rt := rv.Type()
	out := make([]string, 0, len(selectors))
	for _, selector := range selectors {
		sel := reflect.ValueOf(selector(&zero))
		found := false
		for i := 0; i < rt.NumField() && !found; i++ {
			sf := rt.Field(i)
			if sf.IsExported() && selects(rv.Field(i), sf, sel) {
				out = append(out, ResolveStructKey(sf))
				found = true
			}
		}
		if !found {
			panic("jsonapi.FieldNamesOf: selector must return address of a top-level field")
		}
	}
	return out
}

// selects reports whether the pointer sel addresses the field fv. Zero-size
// fields share their address with the next field, so the pointer type must
// match too, and selecting a zero-size field is rejected.
func selects(fv reflect.Value, sf reflect.StructField, sel reflect.Value) bool {
	if sel.Kind() != reflect.Pointer || sel.IsNil() || sel.Type().Elem() != sf.Type {
		return false
	}
	if fv.Addr().Pointer() != sel.Pointer() {
		return false
	}
	if sf.Type.Size() == 0 {
		panic("jsonapi: cannot select zero-size field " + sf.Name)
	}
	return true
}

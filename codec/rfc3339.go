package codec

import (
	"context"
	"fmt"
	"time"
)

// RFC3339 converts between RFC 3339 strings and time.Time. Encoding
// normalizes to UTC with trailing fractional zeros trimmed.
type RFC3339 struct{}

func (RFC3339) Decode(_ context.Context, w string) (time.Time, error) {
	t, err := parseRFC3339(w)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC3339 time %q: %w", w, err)
	}
	return t, nil
}

func (RFC3339) Encode(_ context.Context, v time.Time) (string, error) {
	return formatRFC3339Canonical(v), nil
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

package codec

import (
	"context"
	"fmt"
	"strconv"
)

// IntString carries a 64-bit integer as a decimal string, for values that
// exceed the safe integer range of JavaScript clients.
type IntString struct{}

func (IntString) Decode(_ context.Context, w string) (int64, error) {
	n, err := strconv.ParseInt(w, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a decimal integer: %w", w, err)
	}
	return n, nil
}

func (IntString) Encode(_ context.Context, v int64) (string, error) {
	return strconv.FormatInt(v, 10), nil
}

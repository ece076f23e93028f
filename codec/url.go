package codec

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var errNilURL = errors.New("nil URL")

// URL converts between absolute URL strings and *url.URL.
type URL struct{}

func (URL) Decode(_ context.Context, w string) (*url.URL, error) {
	u, err := url.Parse(w)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%q is not an absolute URL", w)
	}
	return u, nil
}

func (URL) Encode(_ context.Context, v *url.URL) (string, error) {
	if v == nil {
		return "", errNilURL
	}
	return v.String(), nil
}

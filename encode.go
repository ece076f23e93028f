package jsonapi

import (
	json "github.com/goccy/go-json"

	"github.com/reoring/jsonapi/internal/wire"
)

// Encoder receives JSON as a stream of structural calls. Resources encode
// themselves into an Encoder so that wrapping encoders (see SparseEncoder)
// can filter the output.
type Encoder = wire.Encoder

// Writer is the buffer-backed Encoder used by the document codec.
type Writer = wire.Writer

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return wire.NewWriter() }

func newWriter() *wire.Writer { return wire.NewWriter() }

func writeMember(enc Encoder, key string, raw json.RawMessage) error {
	if err := enc.Key(key); err != nil {
		return err
	}
	return enc.Value(raw)
}

// writeMetaLinks writes the optional meta and links members.
func writeMetaLinks(enc Encoder, meta Meta, links Links) error {
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := writeMember(enc, "meta", raw); err != nil {
			return err
		}
	}
	if len(links) > 0 {
		raw, err := links.MarshalJSON()
		if err != nil {
			return err
		}
		if err := writeMember(enc, "links", raw); err != nil {
			return err
		}
	}
	return nil
}

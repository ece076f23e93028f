// Package wire holds the token-level JSON encoder used to serialize documents.
//
// Encoding is expressed as a stream of structural calls (BeginObject, Key,
// Value, ...) so that wrapping encoders can observe and filter the stream
// without knowing how the values were produced.
package wire

import (
	"bytes"
	"errors"
	"io"

	json "github.com/goccy/go-json"

	eng "github.com/reoring/jsonapi/internal/engine"
)

// Encoder receives a JSON value as a stream of structural calls.
type Encoder interface {
	BeginObject() error
	Key(k string) error
	EndObject() error
	BeginArray() error
	EndArray() error
	// Value writes one complete, already encoded JSON value.
	Value(raw json.RawMessage) error
}

var (
	errKeyOutsideObject = errors.New("wire: key outside of an object")
	errValueWithoutKey  = errors.New("wire: object member value without key")
	errUnbalanced       = errors.New("wire: unbalanced container")
)

type frame struct {
	object   bool
	n        int
	afterKey bool
}

// Writer is the buffer-backed Encoder.
type Writer struct {
	buf bytes.Buffer
	// scratch receives compacted values; json.Compact appends to whatever
	// its destination already holds.
	scratch bytes.Buffer
	stack   []frame
	root    bool
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

func (w *Writer) beforeValue() error {
	if len(w.stack) == 0 {
		if w.root {
			return errUnbalanced
		}
		w.root = true
		return nil
	}
	top := &w.stack[len(w.stack)-1]
	if top.object {
		if !top.afterKey {
			return errValueWithoutKey
		}
		top.afterKey = false
		return nil
	}
	if top.n > 0 {
		w.buf.WriteByte(',')
	}
	top.n++
	return nil
}

func (w *Writer) BeginObject() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteByte('{')
	w.stack = append(w.stack, frame{object: true})
	return nil
}

func (w *Writer) Key(k string) error {
	if len(w.stack) == 0 || !w.stack[len(w.stack)-1].object {
		return errKeyOutsideObject
	}
	top := &w.stack[len(w.stack)-1]
	if top.afterKey {
		return errValueWithoutKey
	}
	if top.n > 0 {
		w.buf.WriteByte(',')
	}
	top.n++
	kb, err := json.Marshal(k)
	if err != nil {
		return err
	}
	w.buf.Write(kb)
	w.buf.WriteByte(':')
	top.afterKey = true
	return nil
}

func (w *Writer) end(object bool, c byte) error {
	n := len(w.stack)
	if n == 0 || w.stack[n-1].object != object || w.stack[n-1].afterKey {
		return errUnbalanced
	}
	w.stack = w.stack[:n-1]
	w.buf.WriteByte(c)
	return nil
}

func (w *Writer) EndObject() error { return w.end(true, '}') }

func (w *Writer) BeginArray() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteByte('[')
	w.stack = append(w.stack, frame{})
	return nil
}

func (w *Writer) EndArray() error { return w.end(false, ']') }

func (w *Writer) Value(raw json.RawMessage) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.scratch.Reset()
	if err := json.Compact(&w.scratch, raw); err != nil {
		return err
	}
	_, err := w.buf.Write(w.scratch.Bytes())
	return err
}

// Bytes returns the encoded document. It fails when containers are left open.
func (w *Writer) Bytes() ([]byte, error) {
	if len(w.stack) != 0 || !w.root {
		return nil, errUnbalanced
	}
	return w.buf.Bytes(), nil
}

// IsComposite reports whether raw holds an object or an array.
func IsComposite(raw []byte) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '[':
			return true
		}
		return false
	}
	return false
}

// Replay re-emits an encoded JSON value into enc call by call, so that a
// wrapping encoder sees nested members of pre-encoded values.
func Replay(enc Encoder, raw json.RawMessage) error {
	src := eng.NewBytes(raw)
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch tok.Kind {
		case eng.KindBeginObject:
			err = enc.BeginObject()
		case eng.KindEndObject:
			err = enc.EndObject()
		case eng.KindBeginArray:
			err = enc.BeginArray()
		case eng.KindEndArray:
			err = enc.EndArray()
		case eng.KindKey:
			err = enc.Key(tok.String)
		case eng.KindString:
			var b []byte
			if b, err = json.Marshal(tok.String); err == nil {
				err = enc.Value(b)
			}
		case eng.KindNumber:
			err = enc.Value(json.RawMessage(tok.Number))
		case eng.KindBool:
			if tok.Bool {
				err = enc.Value(json.RawMessage("true"))
			} else {
				err = enc.Value(json.RawMessage("false"))
			}
		case eng.KindNull:
			err = enc.Value(json.RawMessage("null"))
		}
		if err != nil {
			return err
		}
	}
}

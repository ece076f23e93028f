package jsonapi_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reoring/jsonapi"
)

func TestLogger_DebugEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	jsonapi.SetLogger(zap.New(core))
	t.Cleanup(func() { jsonapi.SetLogger(nil) })

	dt := jsonapi.NewDocumentType[jsonapi.Single[author]]()
	dup := []byte(`{"data":{"type":"authors","id":"1","attributes":{"name":"a","name":"b"}}}`)
	if _, err := dt.Decode(context.Background(), dup, jsonapi.DecodeOpt{Strictness: jsonapi.Strictness{OnDuplicateKey: jsonapi.Warn}}); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := dt.Decode(context.Background(), []byte(`{"errors":[42]}`)); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if n := logs.FilterMessage("duplicate key").FilterField(zap.String("path", "/data/attributes/name")).Len(); n != 1 {
		t.Fatalf("want one duplicate key entry, got %d", n)
	}
	if n := logs.FilterMessage("error object of unknown shape kept verbatim").Len(); n != 1 {
		t.Fatalf("want one unknown error entry, got %d", n)
	}
}

func TestLogger_NilRestoresNop(t *testing.T) {
	jsonapi.SetLogger(nil)
	if jsonapi.Logger() == nil {
		t.Fatalf("Logger must never be nil")
	}
	if jsonapi.Logger().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("default logger should discard everything")
	}
}

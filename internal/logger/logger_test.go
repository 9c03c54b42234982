package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test"})

	ctx := l.WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetComponent(ctx, "engine")

	CtxInfo(ctx, "hello %s", "world")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["message"] != "hello world" {
		t.Errorf("message = %v", line["message"])
	}
	if line[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v", line[FieldRequestID])
	}
	if line[FieldComponent] != "engine" {
		t.Errorf("component = %v", line[FieldComponent])
	}
	if line["service"] != "test" {
		t.Errorf("service = %v", line["service"])
	}
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("GetRequestID = %q", GetRequestID(ctx))
	}
}

func TestEntryMetricFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info", Output: &buf})
	ctx := l.WithContext(context.Background())

	With(Fields{FieldStatus: 200}).WithCount(3).Info(ctx, "done")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if line[FieldCount] != float64(3) {
		t.Errorf("count = %v", line[FieldCount])
	}
	if line[FieldStatus] != float64(200) {
		t.Errorf("status = %v", line[FieldStatus])
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Error("expected default logger for bare context")
	}
	SetDefaultLogger(nil)
	if GetDefault() == nil {
		t.Error("nil must not replace the default logger")
	}
}

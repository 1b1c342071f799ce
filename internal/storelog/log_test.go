package storelog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/contentvault/resourcestore/internal/restype"
)

func withCapturedOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	oldVerbose := verboseMode
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		verboseMode = oldVerbose
		logger = defaultLogger()
		zerolog.SetGlobalLevel(oldLevel)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	return &buf
}

func TestSetVerboseTogglesEnabled(t *testing.T) {
	withCapturedOutput(t)

	SetVerbose(false)
	if Enabled() {
		t.Fatal("Enabled() should be false after SetVerbose(false)")
	}

	SetVerbose(true)
	if !Enabled() {
		t.Fatal("Enabled() should be true after SetVerbose(true)")
	}
}

func TestLogfSuppressedWhenDisabled(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(false)

	Logf("message %d", 1)

	if buf.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buf.String())
	}
}

func TestLogfEmitsWhenEnabled(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(true)

	Logf("rehydrating %s", "abc")

	if !strings.Contains(buf.String(), "rehydrating abc") {
		t.Fatalf("expected log line to contain message, got %q", buf.String())
	}
}

func TestEventWritesStructuredFields(t *testing.T) {
	buf := withCapturedOutput(t)

	id := restype.NewResourceId()
	Event("create", id, "note.txt")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Event() did not write valid JSON: %v (%q)", err, buf.String())
	}
	if record["op"] != "create" {
		t.Fatalf("op = %v, want create", record["op"])
	}
	if record["resource_id"] != id.String() {
		t.Fatalf("resource_id = %v, want %s", record["resource_id"], id.String())
	}
}

func TestErrorWritesCause(t *testing.T) {
	buf := withCapturedOutput(t)

	id := restype.NewResourceId()
	Error("delete", id, errTest{"boom"})

	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected error cause in output, got %q", buf.String())
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }

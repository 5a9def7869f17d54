package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "qaeval.log")

	if err := Init(logPath, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
	})

	LogEvent("hello %s", "world")
	LogRequest("out", "api.example", "gpt", "ping")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "[OUT] host=api.example model=gpt payload=ping") {
		t.Fatalf("expected LogRequest content, got: %s", content)
	}
}

func TestRequestLineDefaults(t *testing.T) {
	msg := requestLine(" in ", " ", "", map[string]any{"ok": true})
	want := `[IN] host=unknown model=unknown payload={"ok":true}`
	if msg != want {
		t.Fatalf("requestLine = %q, want %q", msg, want)
	}
}

func TestRequestLineTruncatesPayload(t *testing.T) {
	msg := requestLine("out", "h", "m", strings.Repeat("가", maxPayloadRunes+50))
	if !strings.HasSuffix(msg, "…") {
		t.Fatalf("expected truncated payload, got suffix %q", msg[len(msg)-10:])
	}
}

func TestPayloadText(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		limit   int
		want    string
	}{
		{name: "nil", payload: nil, limit: 10, want: "null"},
		{name: "blank string", payload: " ", limit: 10, want: `""`},
		{name: "empty bytes", payload: []byte{}, limit: 10, want: `""`},
		{name: "bytes", payload: []byte("hi"), limit: 10, want: "hi"},
		{name: "raw json", payload: json.RawMessage(`{"a":1}`), limit: 10, want: `{"a":1}`},
		{name: "stringer", payload: testStringer("ok"), limit: 10, want: "ok"},
		{name: "struct", payload: struct{ N int }{N: 3}, limit: 10, want: `{"N":3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := payloadText(tc.payload, tc.limit); got != tc.want {
				t.Fatalf("payloadText = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInitWithoutSinksDiscards(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	if err := Init("", false); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	LogEvent("discard")
	if buf.Len() != 0 {
		t.Fatalf("expected log output discarded, got: %s", buf.String())
	}
}

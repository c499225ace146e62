package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "JSON format to stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Console format to stderr",
			config: Config{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "Invalid log level defaults to info",
			config: Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Unwritable file path",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "/nonexistent-dir/folio.log",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("kept")
	entry := decodeLine(t, &buf)
	if entry["message"] != "kept" {
		t.Errorf("Expected message 'kept', got %v", entry["message"])
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.WithWorkID(42).WithRequestID("req-123").WithFields(map[string]interface{}{
		"key1": "value1",
	}).Info("hello")

	entry := decodeLine(t, &buf)
	if entry["work_id"] != float64(42) {
		t.Errorf("Expected work_id 42, got %v", entry["work_id"])
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("Expected request_id req-123, got %v", entry["request_id"])
	}
	if entry["key1"] != "value1" {
		t.Errorf("Expected key1 value1, got %v", entry["key1"])
	}
}

func TestLogLikeToggle(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.LogLikeToggle(7, "fingerprint", true, nil)

	entry := decodeLine(t, &buf)
	if entry["level"] != "info" {
		t.Errorf("Expected info level, got %v", entry["level"])
	}
	if entry["liked"] != true {
		t.Errorf("Expected liked=true, got %v", entry["liked"])
	}
	if entry["actor_kind"] != "fingerprint" {
		t.Errorf("Expected actor_kind fingerprint, got %v", entry["actor_kind"])
	}

	buf.Reset()
	logger.LogLikeToggle(7, "fingerprint", false, errors.New("rate limited"))
	entry = decodeLine(t, &buf)
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level on failure, got %v", entry["level"])
	}
}

func TestLogThumbnailRun(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.LogThumbnailRun(3, "auto", 12.5, 0.81, 2*time.Second, nil)

	entry := decodeLine(t, &buf)
	if entry["mode"] != "auto" {
		t.Errorf("Expected mode auto, got %v", entry["mode"])
	}
	if entry["timestamp"] != 12.5 {
		t.Errorf("Expected timestamp 12.5, got %v", entry["timestamp"])
	}
}

func TestLogHTTPRequestServerError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.LogHTTPRequest("GET", "/api/v1/works", "127.0.0.1", 500, 10*time.Millisecond)

	entry := decodeLine(t, &buf)
	if entry["level"] != "error" {
		t.Errorf("Expected error level for 5xx, got %v", entry["level"])
	}
	if entry["status_code"] != float64(500) {
		t.Errorf("Expected status_code 500, got %v", entry["status_code"])
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Info("nothing")
	logger.WithError(errors.New("boom")).Error("nothing")
}

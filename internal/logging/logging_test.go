package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestOpenLogFile_Empty(t *testing.T) {
	file, err := OpenLogFile("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if file != nil {
		t.Error("Expected nil file for empty path")
	}
}

func TestOpenLogFile_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bridge.log")

	file, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile failed: %v", err)
	}
	defer file.Close()
}

func TestAttachFileLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := AttachFileLogger(zap.NewNop(), zapcore.AddSync(&buf), false)

	logger.Debug("hidden")
	logger.Info("dispatch", zap.String("tier", "recorded-as-mock"))
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "dispatch" || entry["tier"] != "recorded-as-mock" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}

func TestAttachFileLogger_NilWriter(t *testing.T) {
	base := zap.NewNop()
	if AttachFileLogger(base, nil, true) != base {
		t.Error("Expected base logger when writer is nil")
	}
}

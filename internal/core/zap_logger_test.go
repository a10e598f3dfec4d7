package core

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsLevelsAndFields(t *testing.T) {
	zcore, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(zcore))

	logger.Debug("debug msg", "k", "v")
	logger.Info("info msg", "k", "v")
	logger.Warn("warn msg", "k", "v")
	logger.Error("error msg", "k", "v")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, want := range wantLevels {
		if entries[i].Level != want {
			t.Fatalf("entry %d level = %v, want %v", i, entries[i].Level, want)
		}
	}
	fields := entries[1].ContextMap()
	if fields["k"] != "v" {
		t.Fatalf("expected structured field, got %v", fields)
	}
}

func TestZapLoggerNilFallback(t *testing.T) {
	logger := NewZapLogger(nil)
	logger.Info("still works")
}

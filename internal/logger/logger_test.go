package logger

import (
	"testing"
)

func TestNew_DevelopmentLogger(t *testing.T) {
	log, sync := New(false)
	if log == nil {
		t.Fatal("expected logger")
	}
	log.Info("hello", "component", "test")
	_ = sync()
}

func TestNewNop_DiscardsRecords(t *testing.T) {
	log := NewNop()
	if log.Enabled(t.Context(), 0) {
		t.Error("nop logger should not be enabled")
	}
}

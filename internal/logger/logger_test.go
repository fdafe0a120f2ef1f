package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewIsNop(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger before Init")
	}
}

func TestInit(t *testing.T) {
	cases := []struct {
		level   string
		wantErr bool
		enabled zapcore.Level
	}{
		{"info", false, zapcore.InfoLevel},
		{"Info", false, zapcore.InfoLevel},
		{"debug", false, zapcore.DebugLevel},
		{"nonsense", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l := New()
			err := l.Init(tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Init(%q) expected error", tc.level)
				}
				return
			}
			if err != nil {
				t.Fatalf("Init(%q) error: %v", tc.level, err)
			}
			if !l.Log.Core().Enabled(tc.enabled) {
				t.Errorf("level %v not enabled after Init(%q)", tc.enabled, tc.level)
			}
		})
	}
}

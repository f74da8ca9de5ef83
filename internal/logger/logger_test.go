package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		level      string
		want       zap.AtomicLevel
	}{
		{"development default", false, "", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"production default", true, "", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"explicit", true, "warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.production, tt.level)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !log.Core().Enabled(tt.want.Level()) {
				t.Fatalf("level %v not enabled", tt.want.Level())
			}
			if tt.want.Level() > zap.DebugLevel && log.Core().Enabled(tt.want.Level()-1) {
				t.Fatalf("level below %v enabled", tt.want.Level())
			}
		})
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New(false, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

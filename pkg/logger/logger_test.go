package logger

import (
	"context"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get()
	log.Debug(ctx, "debug message", Int("n", 1))
	log.Info(ctx, "info message", String("k", "v"), Float64("f", 1.5))
	log.Warn(ctx, "warn message", Duration("d", time.Second))
	log.Error(ctx, "error message", Any("v", struct{}{}))
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestSetLevelString(t *testing.T) {
	cases := []struct {
		level string
		ok    bool
	}{
		{"debug", true},
		{"info", true},
		{"WARN", true},
		{"warning", true},
		{"error", true},
		{"", true},
		{"verbose", false},
	}
	for _, tc := range cases {
		err := SetLevelString(tc.level)
		if tc.ok && err != nil {
			t.Errorf("SetLevelString(%q) = %v, want nil", tc.level, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("SetLevelString(%q) = nil, want error", tc.level)
		}
	}
}

package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 7 * time.Second})

	if got := Short(); got != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", got)
	}
	if got := Medium(); got != DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, DefaultMedium)
	}

	Reset()
	if got := Current(); got != (Config{DefaultPing, DefaultShort, DefaultMedium, DefaultLong}) {
		t.Errorf("Current() after Reset = %+v", got)
	}
}

func TestWithTimeout_LogsOnDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, log, "slow op")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	if op := logs.All()[0].ContextMap()["operation"]; op != "slow op" {
		t.Errorf("operation field = %v, want %q", op, "slow op")
	}
}

func TestWithTimeout_SilentOnEarlyCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := WithTimeout(context.Background(), time.Hour, zap.New(core), "fast op")
	cancel()

	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %d", logs.Len())
	}
}

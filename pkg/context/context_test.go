package context_test

import (
	"context"
	"strings"
	"testing"
	"time"

	bcontext "github.com/poltergeist/bundler/pkg/context"
)

func TestNewRun(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := bcontext.NewRun(context.Background(), now)

	id, ok := bcontext.RunID(ctx)
	if !ok {
		t.Fatal("expected run id to be set")
	}
	if !strings.HasPrefix(id, "run_") {
		t.Errorf("unexpected run id format: %s", id)
	}
	if got := bcontext.StartTime(ctx); !got.Equal(now) {
		t.Errorf("expected start time %v, got %v", now, got)
	}
}

func TestNewRun_KeepsExistingID(t *testing.T) {
	ctx := bcontext.WithRunID(context.Background(), "run_fixed")
	ctx = bcontext.NewRun(ctx, time.Now())

	if id, _ := bcontext.RunID(ctx); id != "run_fixed" {
		t.Errorf("expected run_fixed, got %s", id)
	}
}

func TestOperation(t *testing.T) {
	if _, ok := bcontext.Operation(context.Background()); ok {
		t.Error("expected no operation on empty context")
	}

	ctx := bcontext.WithOperation(context.Background(), "cleanup")
	if op, ok := bcontext.Operation(ctx); !ok || op != "cleanup" {
		t.Errorf("expected cleanup, got %q", op)
	}
}

func TestStartTime_Unset(t *testing.T) {
	if !bcontext.StartTime(context.Background()).IsZero() {
		t.Error("expected zero start time")
	}
}

func TestValuesAreIndependent(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ctx := bcontext.WithRunID(context.Background(), "run_x")
	ctx = bcontext.WithStartTime(ctx, start)
	ctx = bcontext.WithOperation(ctx, "packaging")

	if id, ok := bcontext.RunID(ctx); !ok || id != "run_x" {
		t.Errorf("expected run_x, got %q (ok=%v)", id, ok)
	}
	if op, ok := bcontext.Operation(ctx); !ok || op != "packaging" {
		t.Errorf("expected packaging, got %q", op)
	}
	if got := bcontext.StartTime(ctx); !got.Equal(start) {
		t.Errorf("expected start time %v, got %v", start, got)
	}
}

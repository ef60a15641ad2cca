package observability

import (
	"context"
	"log/slog"
	"testing"

	"newsdigest/internal/config"
	"newsdigest/internal/core"
)

func TestNewPostHogClient_DisabledIsNoOp(t *testing.T) {
	client, err := NewPostHogClient(config.PostHogConfig{Enabled: false}, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.IsEnabled() {
		t.Fatal("expected disabled client")
	}
}

func TestNewPostHogClient_EnabledWithoutAPIKeyErrors(t *testing.T) {
	_, err := NewPostHogClient(config.PostHogConfig{Enabled: true}, slog.Default())
	if err == nil {
		t.Fatal("expected error when enabled without an api key")
	}
}

func TestDisabledClient_CaptureIsNoOp(t *testing.T) {
	client, err := NewPostHogClient(config.PostHogConfig{Enabled: false}, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.Capture(context.Background(), "digest-1", "test_event", EventProperties{"a": 1}); err != nil {
		t.Fatalf("expected no-op capture to succeed, got %v", err)
	}
}

func TestDisabledClient_TrackStageTransitionIsNoOp(t *testing.T) {
	client, err := NewPostHogClient(config.PostHogConfig{Enabled: false}, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.TrackStageTransition(context.Background(), 1, core.StateCreated, core.StateArticlesCollected, 10); err != nil {
		t.Fatalf("expected no-op track to succeed, got %v", err)
	}
}

func TestDisabledClient_FlushAndShutdownAreNoOps(t *testing.T) {
	client, err := NewPostHogClient(config.PostHogConfig{Enabled: false}, slog.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.Flush(); err != nil {
		t.Fatalf("expected no-op flush to succeed, got %v", err)
	}
	if err := client.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown to succeed, got %v", err)
	}
}

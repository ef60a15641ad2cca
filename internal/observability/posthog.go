// Package observability emits optional product-analytics events for the
// digest pipeline. It is entirely config-gated: when disabled, every call
// is a no-op so call sites never need to branch on whether telemetry is on.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/posthog/posthog-go"

	"newsdigest/internal/config"
	"newsdigest/internal/core"
)

// PostHogClient wraps the PostHog SDK for digest-stage telemetry.
type PostHogClient struct {
	client  posthog.Client
	enabled bool
	log     *slog.Logger
}

// EventProperties carries arbitrary event metadata to PostHog.
type EventProperties map[string]interface{}

// NewPostHogClient builds a client from the observability.posthog config
// section. When disabled it returns a client whose methods are all no-ops.
func NewPostHogClient(cfg config.PostHogConfig, log *slog.Logger) (*PostHogClient, error) {
	if !cfg.Enabled {
		return &PostHogClient{enabled: false, log: log}, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("observability: posthog enabled but missing api key")
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{Endpoint: cfg.Host})
	if err != nil {
		return nil, fmt.Errorf("observability: create posthog client: %w", err)
	}

	return &PostHogClient{client: client, enabled: true, log: log}, nil
}

// IsEnabled reports whether telemetry is actually being sent.
func (p *PostHogClient) IsEnabled() bool {
	return p.enabled
}

// Capture sends a single event, keyed by distinctID, with the given
// properties. It is a no-op when the client is disabled.
func (p *PostHogClient) Capture(ctx context.Context, distinctID, event string, properties EventProperties) error {
	if !p.enabled {
		return nil
	}
	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	return p.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: props,
	})
}

// TrackStageTransition emits a digest_stage_transition event whenever the C8
// controller advances a digest from one state to the next. distinctID is
// the digest id formatted as a string so events for the same digest group
// together in PostHog.
func (p *PostHogClient) TrackStageTransition(ctx context.Context, digestID int, from, to core.DigestState, durationMs int64) error {
	return p.Capture(ctx, fmt.Sprintf("digest-%d", digestID), "digest_stage_transition", EventProperties{
		"digest_id":   digestID,
		"from_state":  string(from),
		"to_state":    string(to),
		"duration_ms": durationMs,
	})
}

// TrackError reports a pipeline-stage failure.
func (p *PostHogClient) TrackError(ctx context.Context, component, message string) error {
	return p.Capture(ctx, "system", "error_occurred", EventProperties{
		"component": component,
		"message":   message,
	})
}

// Flush closes the underlying client, which delivers the queued events;
// the client sends nothing after it returns.
func (p *PostHogClient) Flush() error {
	if !p.enabled {
		return nil
	}
	return p.client.Close()
}

// Shutdown flushes and releases the underlying client.
func (p *PostHogClient) Shutdown(ctx context.Context) error {
	return p.Flush()
}

// Package digest implements the digest controller (C8): the durable state
// machine that drives a digest through its pipeline stages and guarantees
// at most one non-READY digest exists at a time.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/core"
	"newsdigest/internal/observability"
	"newsdigest/internal/persistence"
)

// Controller owns digest creation and stage transitions.
type Controller struct {
	db      persistence.Database
	posthog *observability.PostHogClient
	log     *slog.Logger
}

// New builds a Controller. posthog may be nil; when non-nil and enabled,
// every successful transition is also reported as telemetry.
func New(db persistence.Database, posthog *observability.PostHogClient, log *slog.Logger) *Controller {
	return &Controller{db: db, posthog: posthog, log: log}
}

// Create allocates a new digest in state CREATED. The invariant that at
// most one non-READY digest exists is enforced by callers only creating a
// digest once the prior one has reached READY.
func (c *Controller) Create(ctx context.Context) (int, error) {
	id, err := c.db.Digests().Create(ctx)
	if err != nil {
		return 0, fmt.Errorf("digest: create: %w", err)
	}
	c.log.Info("created digest", "digest_id", id, "state", core.StateCreated)
	return id, nil
}

// LatestIncomplete returns the newest digest whose state is not READY, or
// an error when no such digest exists.
func (c *Controller) LatestIncomplete(ctx context.Context) (*core.Digest, error) {
	d, err := c.db.Digests().LatestIncomplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("digest: latest incomplete: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("digest: latest incomplete: no incomplete digest")
	}
	return d, nil
}

// Advance atomically verifies the latest-incomplete digest is in expected,
// runs stageFn, and on success moves its state to final. If stageFn
// returns an error, the digest's state is left unchanged and the error is
// returned as-is. A state mismatch returns *core.WrongState without
// running stageFn.
func (c *Controller) Advance(ctx context.Context, expected, final core.DigestState, stageFn func(ctx context.Context, digestID int) error) error {
	d, err := c.LatestIncomplete(ctx)
	if err != nil {
		return err
	}

	if d.State != expected {
		return &core.WrongState{DigestID: d.ID, Actual: d.State, Expected: expected}
	}

	start := time.Now()
	if err := stageFn(ctx, d.ID); err != nil {
		return err
	}

	if err := c.db.Digests().SetState(ctx, d.ID, final); err != nil {
		return fmt.Errorf("digest: set state %s: %w", final, err)
	}

	c.log.Info("advanced digest", "digest_id", d.ID, "from", expected, "to", final, "duration_ms", time.Since(start).Milliseconds())

	if c.posthog != nil && c.posthog.IsEnabled() {
		if err := c.posthog.TrackStageTransition(ctx, d.ID, expected, final, time.Since(start).Milliseconds()); err != nil {
			c.log.Warn("failed to track stage transition", "digest_id", d.ID, "error", err)
		}
	}

	return nil
}

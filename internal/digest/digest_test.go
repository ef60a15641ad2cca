package digest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"newsdigest/internal/core"
	"newsdigest/internal/persistence"
)

// fakeDB embeds the Database interface unset so only Digests() needs
// overriding for these tests; any other accessor would panic on a nil
// dereference, which is fine since Controller never calls them.
type fakeDB struct {
	persistence.Database
	digests *fakeDigestRepo
}

func (f *fakeDB) Digests() persistence.DigestRepository { return f.digests }

type fakeDigestRepo struct {
	persistence.DigestRepository
	incomplete  *core.Digest
	setStateErr error
	sawState    core.DigestState
}

func (f *fakeDigestRepo) LatestIncomplete(ctx context.Context) (*core.Digest, error) {
	return f.incomplete, nil
}

func (f *fakeDigestRepo) SetState(ctx context.Context, id int, state core.DigestState) error {
	f.sawState = state
	if f.setStateErr != nil {
		return f.setStateErr
	}
	f.incomplete.State = state
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdvance_MismatchedStateReturnsWrongState(t *testing.T) {
	repo := &fakeDigestRepo{incomplete: &core.Digest{ID: 1, State: core.StateCreated}}
	ctrl := New(&fakeDB{digests: repo}, nil, discardLogger())

	called := false
	err := ctrl.Advance(context.Background(), core.StateArticlesCollected, core.StateArticlesEmbedded, func(ctx context.Context, digestID int) error {
		called = true
		return nil
	})

	var wrongState *core.WrongState
	if !errors.As(err, &wrongState) {
		t.Fatalf("expected *core.WrongState, got %v", err)
	}
	if called {
		t.Error("stageFn should not run on a state mismatch")
	}
	if repo.sawState != "" {
		t.Error("state should not be changed on a mismatch")
	}
}

func TestAdvance_StageFnErrorLeavesStateUnchanged(t *testing.T) {
	repo := &fakeDigestRepo{incomplete: &core.Digest{ID: 1, State: core.StateCreated}}
	ctrl := New(&fakeDB{digests: repo}, nil, discardLogger())

	stageErr := errors.New("boom")
	err := ctrl.Advance(context.Background(), core.StateCreated, core.StateArticlesCollected, func(ctx context.Context, digestID int) error {
		return stageErr
	})

	if !errors.Is(err, stageErr) {
		t.Fatalf("expected stage error to propagate, got %v", err)
	}
	if repo.incomplete.State != core.StateCreated {
		t.Error("state should remain unchanged when stageFn fails")
	}
}

func TestAdvance_SuccessUpdatesState(t *testing.T) {
	repo := &fakeDigestRepo{incomplete: &core.Digest{ID: 1, State: core.StateCreated}}
	ctrl := New(&fakeDB{digests: repo}, nil, discardLogger())

	var sawDigestID int
	err := ctrl.Advance(context.Background(), core.StateCreated, core.StateArticlesCollected, func(ctx context.Context, digestID int) error {
		sawDigestID = digestID
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawDigestID != 1 {
		t.Errorf("expected stageFn to receive digest id 1, got %d", sawDigestID)
	}
	if repo.incomplete.State != core.StateArticlesCollected {
		t.Errorf("expected state to advance to ARTICLES_COLLECTED, got %s", repo.incomplete.State)
	}
}

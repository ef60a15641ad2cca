package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"newsdigest/internal/core"
)

func TestUpdate_KeyQuitsProgram(t *testing.T) {
	m := model{digestID: 1}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestUpdate_DigestMsgStoresDigestAndStopsOnReady(t *testing.T) {
	m := model{digestID: 1}
	updated, cmd := m.Update(digestMsg{digest: &core.Digest{ID: 1, State: core.StateReady}})
	mm := updated.(model)
	if mm.digest == nil || mm.digest.State != core.StateReady {
		t.Fatalf("expected digest to be stored, got %+v", mm.digest)
	}
	if !mm.quitting {
		t.Fatal("expected quitting to be set once digest is ready")
	}
	if cmd == nil {
		t.Fatal("expected a quit command when digest is ready")
	}
}

func TestUpdate_DigestMsgKeepsPollingWhenNotReady(t *testing.T) {
	m := model{digestID: 1}
	updated, _ := m.Update(digestMsg{digest: &core.Digest{ID: 1, State: core.StateArticlesCollected}})
	mm := updated.(model)
	if mm.quitting {
		t.Fatal("did not expect quitting for a non-ready digest")
	}
}

func TestUpdate_TickRequestsAnotherFetchAndTick(t *testing.T) {
	m := model{digestID: 1, poll: time.Millisecond}
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected a batched fetch+tick command")
	}
}

func TestView_ShowsErrorWhenPresent(t *testing.T) {
	m := model{digestID: 1, err: errTest{}}
	out := m.View()
	if !strings.Contains(out, "error:") {
		t.Fatalf("expected error line in view, got %q", out)
	}
}

func TestView_ShowsLoadingBeforeFirstFetch(t *testing.T) {
	m := model{digestID: 1}
	out := m.View()
	if !strings.Contains(out, "loading...") {
		t.Fatalf("expected loading placeholder, got %q", out)
	}
}

func TestView_RendersAllStagesInOrder(t *testing.T) {
	m := model{digestID: 1, digest: &core.Digest{ID: 1, State: core.StateStoriesGenerated}}
	out := m.View()
	for _, stage := range stageOrder {
		if !strings.Contains(out, string(stage)) {
			t.Fatalf("expected view to mention stage %s, got %q", stage, out)
		}
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }

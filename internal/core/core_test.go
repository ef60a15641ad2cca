package core

import "testing"

func TestDigestStateBefore(t *testing.T) {
	if !StateCreated.Before(StateArticlesCollected) {
		t.Errorf("expected CREATED before ARTICLES_COLLECTED")
	}
	if StateReady.Before(StateCreated) {
		t.Errorf("expected READY not before CREATED")
	}
	if StateCreated.Before(StateCreated) {
		t.Errorf("a state is not before itself")
	}
}

func TestDigestStateMonotoneSequence(t *testing.T) {
	sequence := []DigestState{
		StateCreated, StateArticlesCollected, StateArticlesEmbedded,
		StateStoriesGenerated, StateStoriesEmbedded, StateImagesCollected,
		StateRundownsGenerated, StateReady,
	}
	for i := 1; i < len(sequence); i++ {
		if !sequence[i-1].Before(sequence[i]) {
			t.Errorf("expected %s before %s", sequence[i-1], sequence[i])
		}
	}
}

func TestWrongStateError(t *testing.T) {
	err := &WrongState{DigestID: 3, Actual: StateCreated, Expected: StateArticlesCollected}
	want := "digest 3 in state CREATED, expected ARTICLES_COLLECTED"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

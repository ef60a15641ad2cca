package clustering

import (
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCoherenceChecker_TooFewVectors(t *testing.T) {
	c := NewCoherenceChecker(discardLogger())
	r, err := c.Check(1, [][]float64{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Split {
		t.Error("expected no split verdict below minimum vector count")
	}
}

func TestCoherenceChecker_CoherentCluster(t *testing.T) {
	c := NewCoherenceChecker(discardLogger())
	vectors := [][]float64{
		{1, 0, 0}, {0.9, 0.1, 0}, {0.95, 0.05, 0},
	}
	r, err := c.Check(2, vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Split {
		t.Errorf("expected a coherent verdict, got %s", r.Describe())
	}
}

func TestCoherenceChecker_NoEdgesIsSplit(t *testing.T) {
	c := NewCoherenceChecker(discardLogger()).WithMinSimilarity(0.99)
	vectors := [][]float64{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	}
	r, err := c.Check(3, vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Split {
		t.Error("expected split verdict when no edges meet the similarity floor")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if s := cosineSimilarity([]float64{1, 0}, []float64{1, 0}); s != 1 {
		t.Errorf("expected 1, got %v", s)
	}
	if s := cosineSimilarity([]float64{1, 0}, []float64{0, 1}); s != 0 {
		t.Errorf("expected 0, got %v", s)
	}
}

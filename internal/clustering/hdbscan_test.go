package clustering

import "testing"

func TestEuclideanDistance(t *testing.T) {
	got := euclideanDistance([]float64{0, 0}, []float64{3, 4})
	if got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestEuclideanDistance_MismatchedLength(t *testing.T) {
	got := euclideanDistance([]float64{0, 0}, []float64{1})
	if got <= 1e9 {
		t.Errorf("expected +Inf-ish for mismatched length, got %v", got)
	}
}

func TestCluster_EmptyPoints(t *testing.T) {
	c := New(3)
	if _, err := c.Cluster(nil); err == nil {
		t.Error("expected error for empty points")
	}
}

func TestCluster_FewerThanMinClusterSize(t *testing.T) {
	c := New(5)
	groups, err := c.Cluster([][]float64{{0, 0}, {1, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups != nil {
		t.Errorf("expected nil groups below minimum, got %v", groups)
	}
}

func TestCluster_TwoTightGroups(t *testing.T) {
	c := New(2)
	points := [][]float64{
		{0, 0}, {0.1, 0.1}, {0.2, 0},
		{10, 10}, {10.1, 10.1}, {10.2, 10},
	}
	groups, err := c.Cluster(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total == 0 {
		t.Error("expected at least one non-empty cluster")
	}
}

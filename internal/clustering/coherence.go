package clustering

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
)

// CoherenceChecker flags already-admitted story clusters that look like two
// unrelated events glued together. It never blocks admission; a high-split
// score is logged for a human to review later, not fed back into C5/C7.
type CoherenceChecker struct {
	resolution    float64
	minSimilarity float64
	log           *slog.Logger
}

// NewCoherenceChecker builds a checker with modularity resolution 1.0 and a
// minimum cosine similarity of 0.3 for an edge to exist in the graph; use
// WithResolution and WithMinSimilarity to change them.
func NewCoherenceChecker(log *slog.Logger) *CoherenceChecker {
	return &CoherenceChecker{
		resolution:    1.0,
		minSimilarity: 0.3,
		log:           log,
	}
}

// WithResolution sets the Louvain resolution parameter.
func (c *CoherenceChecker) WithResolution(r float64) *CoherenceChecker {
	c.resolution = r
	return c
}

// WithMinSimilarity sets the minimum cosine similarity required for an edge.
func (c *CoherenceChecker) WithMinSimilarity(s float64) *CoherenceChecker {
	c.minSimilarity = s
	return c
}

// Report is the outcome of checking one cluster's embeddings.
type Report struct {
	Modularity float64
	Partitions int
	Split      bool // true when the best partition score suggests >1 topic
}

// Check builds a weighted similarity graph over vectors (one per article in
// a story) and runs Louvain community detection. A Report with Split=true
// means the cluster's best modularity partition found more than one
// community — a signal worth a log line, not a rejection.
func (c *CoherenceChecker) Check(storyID int, vectors [][]float64) (Report, error) {
	if len(vectors) < 3 {
		return Report{Partitions: 1}, nil
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := range vectors {
		g.AddNode(simple.Node(i))
	}

	edges := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim := cosineSimilarity(vectors[i], vectors[j])
			if sim < c.minSimilarity {
				continue
			}
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), sim))
			edges++
		}
	}
	if edges == 0 {
		return Report{Partitions: len(vectors), Split: true}, nil
	}

	communities := community.Modularize(g, c.resolution, nil)
	if communities == nil {
		return Report{Partitions: 1}, nil
	}
	score := community.Q(g, communities, c.resolution)

	report := Report{
		Modularity: score,
		Partitions: len(communities),
		Split:      len(communities) > 1 && score > 0.3,
	}
	if report.Split {
		c.log.Warn("story cluster may cover more than one topic",
			"story_id", storyID,
			"modularity", report.Modularity,
			"partitions", report.Partitions,
		)
	}
	return report, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Describe is a small helper for CLI/log output summarising a report.
func (r Report) Describe() string {
	if !r.Split {
		return fmt.Sprintf("coherent (modularity=%.2f, partitions=%d)", r.Modularity, r.Partitions)
	}
	return fmt.Sprintf("possible split (modularity=%.2f, partitions=%d)", r.Modularity, r.Partitions)
}

// Package clustering implements the density-based clustering primitive
// shared by story formation (C5) and timeline formation (C7), plus a
// secondary coherence check over admitted clusters.
package clustering

import (
	"fmt"
	"math"
	"reflect"

	"github.com/humilityai/hdbscan"
)

// Clusterer groups embedding vectors into dense clusters, leaving points
// that don't belong to any dense region unassigned.
type Clusterer struct {
	MinClusterSize int
}

// New creates a Clusterer with the given minimum cluster size.
func New(minClusterSize int) *Clusterer {
	return &Clusterer{MinClusterSize: minClusterSize}
}

// euclideanDistance is the distance function HDBSCAN runs over embedding
// vectors. Article and story embeddings are dense, moderate-dimensional
// vectors where raw distance in the embedding space is meaningful, unlike
// sparse bag-of-words vectors where cosine is usually preferred.
func euclideanDistance(x1, x2 []float64) float64 {
	if len(x1) != len(x2) {
		return math.Inf(1)
	}
	var sum float64
	for i := range x1 {
		d := x1[i] - x2[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cluster partitions points into dense groups, returning each cluster as a
// slice of indices into points. Points that HDBSCAN marks as noise are
// omitted from every returned cluster. Returns an error if points is empty;
// callers that treat an empty input as a non-fatal skip (as C5/C7 do)
// should wrap it in a *core.ClusterEmpty themselves.
func (c *Clusterer) Cluster(points [][]float64) ([][]int, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("clustering: no points to cluster")
	}
	if len(points) < c.MinClusterSize {
		return nil, nil
	}

	clustering, err := hdbscan.NewClustering(points, c.MinClusterSize)
	if err != nil {
		return nil, fmt.Errorf("clustering: build hdbscan: %w", err)
	}
	clustering = clustering.OutlierDetection()

	if err := clustering.Run(euclideanDistance, hdbscan.VarianceScore, true); err != nil {
		return nil, fmt.Errorf("clustering: run hdbscan: %w", err)
	}

	groups := extractClusters(clustering)
	return groups, nil
}

// extractClusters pulls point indices out of the library's unexported
// Clusters field via reflection; the library does not export an accessor.
func extractClusters(clustering *hdbscan.Clustering) [][]int {
	v := reflect.ValueOf(clustering).Elem()
	clustersField := v.FieldByName("Clusters")
	if !clustersField.IsValid() || clustersField.Kind() != reflect.Slice {
		return nil
	}

	groups := make([][]int, 0, clustersField.Len())
	for i := 0; i < clustersField.Len(); i++ {
		clusterPtr := clustersField.Index(i)
		if clusterPtr.Kind() == reflect.Ptr {
			clusterPtr = clusterPtr.Elem()
		}
		pointsField := clusterPtr.FieldByName("Points")
		if !pointsField.IsValid() || pointsField.Kind() != reflect.Slice {
			continue
		}
		points := make([]int, pointsField.Len())
		for j := 0; j < pointsField.Len(); j++ {
			points[j] = int(pointsField.Index(j).Int())
		}
		groups = append(groups, points)
	}
	return groups
}

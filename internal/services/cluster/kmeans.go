package cluster

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"CardPull/internal/domain/models"
)

// FitKMeans fits a mini-batch k-means model. Deterministic for a fixed
// seed: initial centroids are sampled without replacement from the
// data, then refined with per-centroid decaying learning rates.
func FitKMeans(x [][]float64, k int, seed int64, batchSize, maxIter int) (models.KMeansSpec, error) {
	if len(x) == 0 {
		return models.KMeansSpec{}, fmt.Errorf("kmeans: empty input")
	}
	if k <= 0 {
		return models.KMeansSpec{}, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	if k > len(x) {
		// fewer samples than requested clusters: one cluster per sample
		k = len(x)
	}
	if batchSize <= 0 {
		batchSize = 1024
	}
	if batchSize > len(x) {
		batchSize = len(x)
	}

	rng := rand.New(rand.NewSource(seed))
	dim := len(x[0])

	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(x))[:k] {
		centroids[i] = append([]float64(nil), x[idx]...)
	}

	counts := make([]float64, k)
	for iter := 0; iter < maxIter; iter++ {
		for _, idx := range batchIndices(rng, len(x), batchSize) {
			p := x[idx]
			if len(p) != dim {
				return models.KMeansSpec{}, fmt.Errorf("kmeans: point dim %d, want %d", len(p), dim)
			}
			c := nearest(centroids, p)
			counts[c]++
			eta := 1 / counts[c]
			// centroid <- (1-eta)*centroid + eta*point
			floats.Scale(1-eta, centroids[c])
			floats.AddScaled(centroids[c], eta, p)
		}
	}

	return models.KMeansSpec{K: k, Seed: seed, Centroids: centroids}, nil
}

// PredictKMeans assigns each point to its nearest centroid.
func PredictKMeans(spec models.KMeansSpec, x [][]float64) ([]int, error) {
	if len(spec.Centroids) == 0 {
		return nil, fmt.Errorf("kmeans: model has no centroids")
	}
	out := make([]int, len(x))
	for i, p := range x {
		if len(p) != len(spec.Centroids[0]) {
			return nil, fmt.Errorf("kmeans: point dim %d, want %d", len(p), len(spec.Centroids[0]))
		}
		out[i] = nearest(spec.Centroids, p)
	}
	return out, nil
}

func nearest(centroids [][]float64, p []float64) int {
	best, bestDist := 0, floats.Distance(centroids[0], p, 2)
	for i := 1; i < len(centroids); i++ {
		if d := floats.Distance(centroids[i], p, 2); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func batchIndices(rng *rand.Rand, n, size int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = rng.Intn(n)
	}
	return out
}

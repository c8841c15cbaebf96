package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"CardPull/internal/domain/models"
)

// RegressorOptions are the training hyperparameters for one linear
// quantile regressor.
type RegressorOptions struct {
	Epochs       int
	LearningRate float64
	LRDecay      float64
	L2           float64
	Seed         int64
}

// FitQuantile fits a linear regressor minimizing pinball loss at level
// tau, by stochastic subgradient descent over standardized inputs.
// Deterministic for a fixed seed.
func FitQuantile(x [][]float64, y []float64, tau float64, opts RegressorOptions) (models.QuantileSpec, error) {
	if len(x) == 0 {
		return models.QuantileSpec{}, fmt.Errorf("quantile fit: empty training set")
	}
	if len(x) != len(y) {
		return models.QuantileSpec{}, fmt.Errorf("quantile fit: %d rows, %d targets", len(x), len(y))
	}
	if tau <= 0 || tau >= 1 {
		return models.QuantileSpec{}, fmt.Errorf("quantile fit: tau must lie in (0, 1), got %v", tau)
	}

	dim := len(x[0])
	mean, std := columnStats(x, dim)

	// standardize once; mean/std are stored so inference matches
	xs := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != dim {
			return models.QuantileSpec{}, fmt.Errorf("quantile fit: row dim %d, want %d", len(row), dim)
		}
		s := make([]float64, dim)
		for j := range row {
			s[j] = (row[j] - mean[j]) / std[j]
		}
		xs[i] = s
	}

	w := make([]float64, dim)
	b := 0.0
	rng := rand.New(rand.NewSource(opts.Seed))
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		lr := opts.LearningRate / (1 + opts.LRDecay*float64(epoch))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, i := range order {
			pred := floats.Dot(w, xs[i]) + b
			// subgradient of max(tau*u, (tau-1)*u) w.r.t. pred, u = y - pred
			g := 1 - tau
			if y[i]-pred > 0 {
				g = -tau
			}
			for j := range w {
				w[j] -= lr * (g*xs[i][j] + opts.L2*w[j])
			}
			b -= lr * g
		}
	}

	return models.QuantileSpec{Tau: tau, Bias: b, Weights: w, Mean: mean, Std: std}, nil
}

// PredictQuantile evaluates a fitted regressor on one raw feature vector.
func PredictQuantile(spec models.QuantileSpec, x []float64) (float64, error) {
	if len(x) != len(spec.Weights) {
		return 0, fmt.Errorf("quantile predict: dim %d, want %d", len(x), len(spec.Weights))
	}
	pred := spec.Bias
	for j, v := range x {
		pred += spec.Weights[j] * (v - spec.Mean[j]) / spec.Std[j]
	}
	return pred, nil
}

// columnStats returns per-column mean and standard deviation; constant
// columns get std 1 so standardization stays a no-op for them.
func columnStats(x [][]float64, dim int) (mean, std []float64) {
	mean = make([]float64, dim)
	std = make([]float64, dim)
	n := float64(len(x))

	for _, row := range x {
		for j := 0; j < dim && j < len(row); j++ {
			mean[j] += row[j]
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range x {
		for j := 0; j < dim && j < len(row); j++ {
			d := row[j] - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		// near-zero std means the column is constant up to rounding noise;
		// dividing by it would amplify tiny input drift into huge scores
		if std[j] < 1e-8*math.Max(1, math.Abs(mean[j])) || math.IsNaN(std[j]) {
			std[j] = 1
		}
	}
	return mean, std
}

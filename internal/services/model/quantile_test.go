package model

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func testOpts() RegressorOptions {
	return RegressorOptions{Epochs: 300, LearningRate: 0.05, LRDecay: 0.01, L2: 0.0, Seed: 42}
}

// With a constant design, the fit collapses to the empirical quantile
// of y; the bias should land near it.
func TestFitQuantileRecoversEmpiricalQuantile(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 2000
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = []float64{1}
		y[i] = rng.NormFloat64()
	}

	for _, tau := range []float64{0.2, 0.5, 0.8} {
		spec, err := FitQuantile(x, y, tau, testOpts())
		require.NoError(t, err)

		sorted := append([]float64(nil), y...)
		sort.Float64s(sorted)
		want := sorted[int(tau*float64(n))]

		got, err := PredictQuantile(spec, []float64{1})
		require.NoError(t, err)
		require.InDelta(t, want, got, 0.15, "tau=%v", tau)
	}
}

func TestFitQuantileLearnsLinearSignal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 1000
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		f := rng.Float64() * 10
		x[i] = []float64{f}
		y[i] = 2*f + 1
	}

	spec, err := FitQuantile(x, y, 0.5, testOpts())
	require.NoError(t, err)

	got, err := PredictQuantile(spec, []float64{5})
	require.NoError(t, err)
	require.InDelta(t, 11.0, got, 0.5)
}

func TestFitQuantileDeterministicForSeed(t *testing.T) {
	x := [][]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}}
	y := []float64{1, 2, 3, 4}

	a, err := FitQuantile(x, y, 0.5, testOpts())
	require.NoError(t, err)
	b, err := FitQuantile(x, y, 0.5, testOpts())
	require.NoError(t, err)

	require.Equal(t, a.Weights, b.Weights)
	require.Equal(t, a.Bias, b.Bias)
}

// A column that is constant up to summation rounding (every training row
// shares the same fractional value) must get std floored to 1, so a tiny
// drift in the raw input at predict time cannot blow up the score.
func TestFitQuantileConstantColumnTolerantToDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	n := 500
	const age = 87.55501298742

	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		f := rng.Float64() * 4
		x[i] = []float64{f, age}
		y[i] = f
	}

	spec, err := FitQuantile(x, y, 0.5, testOpts())
	require.NoError(t, err)
	require.Equal(t, 1.0, spec.Std[1], "constant column std must be floored")

	exact, err := PredictQuantile(spec, []float64{2, age})
	require.NoError(t, err)
	drifted, err := PredictQuantile(spec, []float64{2, age + 1e-8})
	require.NoError(t, err)
	require.InDelta(t, exact, drifted, 1e-6)
	require.InDelta(t, 2.0, drifted, 0.5)
}

func TestFitQuantileRejectsBadInput(t *testing.T) {
	_, err := FitQuantile(nil, nil, 0.5, testOpts())
	require.Error(t, err)

	_, err = FitQuantile([][]float64{{1}}, []float64{1}, 1.5, testOpts())
	require.Error(t, err)

	_, err = FitQuantile([][]float64{{1}}, []float64{1, 2}, 0.5, testOpts())
	require.Error(t, err)
}

func TestPredictQuantileDimMismatch(t *testing.T) {
	spec, err := FitQuantile([][]float64{{1, 2}, {3, 4}}, []float64{1, 2}, 0.5, testOpts())
	require.NoError(t, err)

	_, err = PredictQuantile(spec, []float64{1})
	require.Error(t, err)
}

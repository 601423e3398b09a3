package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xy ...float64) []Point {
	out := make([]Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestFit_PerfectPositive(t *testing.T) {
	res, err := Fit(pts(1, 1, 2, 2, 3, 3))

	require.NoError(t, err)
	assert.InDelta(t, 1, res.Slope, 1e-12)
	assert.InDelta(t, 0, res.Intercept, 1e-12)
	assert.InDelta(t, 1, res.Correlation, 1e-12)
	assert.InDelta(t, 1, res.RSquared, 1e-12)
	assert.Equal(t, 3, res.N)
}

func TestFit_PerfectNegative(t *testing.T) {
	res, err := Fit(pts(1, 3, 2, 2, 3, 1))

	require.NoError(t, err)
	assert.InDelta(t, -1, res.Slope, 1e-12)
	assert.InDelta(t, 4, res.Intercept, 1e-12)
	assert.InDelta(t, -1, res.Correlation, 1e-12)
	assert.InDelta(t, 1, res.RSquared, 1e-12)
}

func TestFit_SignsAgree(t *testing.T) {
	res, err := Fit(pts(45000, 38.2, 52000, 36.1, 61000, 35.5, 90337, 32.9, 70000, 33.8))

	require.NoError(t, err)
	assert.Negative(t, res.Slope)
	assert.Negative(t, res.Correlation)
	assert.Greater(t, res.Correlation, -1.0)
	assert.InDelta(t, res.Correlation*res.Correlation, res.RSquared, 1e-15)
}

func TestFit_Deterministic(t *testing.T) {
	in := pts(1.1, 2.3, 4.7, 1.9, 3.3, 8.1, 9.2, 0.4)
	a, errA := Fit(in)
	b, errB := Fit(in)

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestFit_HorizontalLine(t *testing.T) {
	res, err := Fit(pts(1, 5, 2, 5, 3, 5))

	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Slope)
	assert.Equal(t, 5.0, res.Intercept)
	assert.Equal(t, 0.0, res.Correlation)
	assert.Equal(t, 0.0, res.RSquared)
}

func TestFit_Errors(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		res, err := Fit(pts(1, 1))
		require.ErrorIs(t, err, ErrTooFewPoints)
		assert.True(t, math.IsNaN(res.Correlation))
		assert.Equal(t, 1, res.N)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Fit(nil)
		assert.ErrorIs(t, err, ErrTooFewPoints)
	})

	t.Run("all x equal", func(t *testing.T) {
		res, err := Fit(pts(2, 1, 2, 5, 2, 9))
		require.ErrorIs(t, err, ErrZeroVarianceX)
		assert.True(t, math.IsNaN(res.Slope))
		assert.True(t, math.IsNaN(res.Correlation))
	})
}

func TestRegressionResult_Predict(t *testing.T) {
	res := RegressionResult{Slope: 2, Intercept: 1}
	assert.Equal(t, 7.0, res.Predict(3))
}

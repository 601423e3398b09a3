package domain

import (
	"errors"
	"math"
)

var (
	// ErrTooFewPoints is returned by Fit for fewer than two points.
	ErrTooFewPoints = errors.New("regression needs at least two points")
	// ErrZeroVarianceX is returned by Fit when every x is equal.
	ErrZeroVarianceX = errors.New("regression undefined: zero variance in x")
)

// Fit computes the ordinary least squares line through points and the
// Pearson correlation of the pair. Slope and correlation share one
// covariance term, so their signs always agree.
//
// On error the returned result has NaN slope, intercept, correlation and
// r-squared. When y has zero variance the fit is a horizontal line with
// correlation 0.
func Fit(points []Point) (RegressionResult, error) {
	n := len(points)
	if n < 2 {
		return undefinedFit(n), ErrTooFewPoints
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxy, sxx, syy float64
	for _, p := range points {
		dx := p.X - meanX
		dy := p.Y - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 {
		return undefinedFit(n), ErrZeroVarianceX
	}

	slope := sxy / sxx
	r := 0.0
	if syy != 0 {
		r = sxy / math.Sqrt(sxx*syy)
		// Rounding can push |r| a hair past 1 for perfectly collinear data.
		r = math.Max(-1, math.Min(1, r))
	}
	return RegressionResult{
		Slope:       slope,
		Intercept:   meanY - slope*meanX,
		Correlation: r,
		RSquared:    r * r,
		N:           n,
	}, nil
}

func undefinedFit(n int) RegressionResult {
	nan := math.NaN()
	return RegressionResult{Slope: nan, Intercept: nan, Correlation: nan, RSquared: nan, N: n}
}

package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

func TestWriteSVG_Choropleth(t *testing.T) {
	c := testMap(t, nil)
	c.PointerEnter("13121", Point{120, 140})

	var buf bytes.Buffer
	w, h := c.Size()
	require.NoError(t, WriteSVG(&buf, w, h, c.Render))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Fulton County")
	assert.Contains(t, out, "Hypertension")
}

func TestWriteSVG_InvalidSize(t *testing.T) {
	err := WriteSVG(&bytes.Buffer{}, 0, 100, func(Surface) {})
	assert.Error(t, err)
}

func incomeTrend() TrendChart {
	return TrendChart{
		Title:  "U.S. Median Household Income",
		XLabel: "Year",
		YLabel: "Income",
		Labels: []string{"2013", "2014", "2015", "2016"},
		Series: []TrendSeries{{Name: "Median income", Color: "#2171b5", Values: []float64{52250, 53657, 55775, 57617}}},
		YFormat: domain.FormatCurrencyShort,
		Width:   720,
		Height:  400,
	}
}

func TestTrendChart_YRangePadded(t *testing.T) {
	tc := TrendChart{
		Labels:   []string{"1999-2000", "2001-2002"},
		Series:   []TrendSeries{{Values: []float64{47.0, 43.1}}, {Values: []float64{math.NaN(), 49.9}}},
		YPadding: 2,
	}
	lo, hi, err := tc.YRange()
	require.NoError(t, err)
	assert.Equal(t, 41.0, lo)
	assert.Equal(t, 52.0, hi)
}

func TestTrendChart_WriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, incomeTrend().WriteSVG(&buf))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "2015")
	assert.Contains(t, out, "U.S. Median Household Income")
}

func TestTrendChart_NeedsTwoPeriods(t *testing.T) {
	tc := incomeTrend()
	tc.Labels = tc.Labels[:1]
	assert.Error(t, tc.WriteSVG(&bytes.Buffer{}))

	tc = incomeTrend()
	tc.Series[0].Values = []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	assert.Error(t, tc.WriteSVG(&bytes.Buffer{}))
}

func incomeScatter(t *testing.T) ScatterChart {
	t.Helper()
	points := []domain.Point{
		{Label: "Fulton", X: 90337, Y: 32.9},
		{Label: "Appling", X: 45103, Y: 41.2},
		{Label: "DeKalb", X: 71000, Y: 33.5},
	}
	fit, err := domain.Fit(points)
	require.NoError(t, err)

	return ScatterChart{
		Title:   "Income vs. Hypertension",
		XLabel:  "Median household income",
		YLabel:  "Hypertension (%)",
		Points:  points,
		Fit:     &fit,
		XFormat: domain.FormatCurrencyShort,
		YFormat: domain.FormatPercent,
		Width:   640,
		Height:  420,
	}
}

func TestScatterChart_WriteSVG(t *testing.T) {
	sc := incomeScatter(t)
	var buf bytes.Buffer
	require.NoError(t, sc.WriteSVG(&buf))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Income vs. Hypertension")
	assert.Contains(t, out, EquationLabel(sc.Fit))
}

func TestScatterChart_PointColorFollowsX(t *testing.T) {
	sc := incomeScatter(t)
	interp, err := domain.NamedInterpolator("viridis")
	require.NoError(t, err)
	sc.PointColor = interp

	styles := sc.pointStyles(draw.GlyphStyle{Radius: 3})
	require.NotNil(t, styles)
	assert.Equal(t, interp(1), styles(0).Color, "Fulton has the highest income")
	assert.Equal(t, interp(0), styles(1).Color, "Appling has the lowest income")
	assert.NotEqual(t, styles(0).Color, styles(2).Color)
	assert.Equal(t, vg.Length(3), styles(2).Radius)

	sc.PointColor = nil
	assert.Nil(t, sc.pointStyles(draw.GlyphStyle{}))
}

func TestScatterChart_LayoutFollowsData(t *testing.T) {
	sc := incomeScatter(t)
	at, err := sc.Layout()
	require.NoError(t, err)
	require.Len(t, at, 3)
	for _, p := range at {
		assert.True(t, p.X > 0 && p.X < sc.Width, "x %v inside the chart", p.X)
		assert.True(t, p.Y > 0 && p.Y < sc.Height, "y %v inside the chart", p.Y)
	}
	fulton, appling, dekalb := at[0], at[1], at[2]
	assert.Less(t, appling.X, dekalb.X)
	assert.Less(t, dekalb.X, fulton.X)
	assert.Less(t, appling.Y, fulton.Y, "higher rates are drawn nearer the top")
}

func TestScatterChart_MarkersShowCountyTooltip(t *testing.T) {
	sc := incomeScatter(t)
	at, err := sc.Layout()
	require.NoError(t, err)
	m, err := sc.Markers(nil)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	appling, ok := m.Marker("Appling")
	require.True(t, ok)
	assert.Equal(t, "Appling County", appling.Title)
	assert.Equal(t, "41.2% at "+domain.FormatCurrencyShort(45103), appling.Body)

	st := m.PointerAt(Point{at[1].X + 2, at[1].Y - 2})
	assert.True(t, st.Hovered)
	assert.Equal(t, "Appling", st.FeatureID)

	var buf bytes.Buffer
	require.NoError(t, sc.WriteSVG(&buf, m.Draw))
	assert.Contains(t, buf.String(), "Appling County")
}

func TestEquationLabel(t *testing.T) {
	assert.Equal(t, "y = -0.00021x + 52.31",
		EquationLabel(&domain.RegressionResult{Slope: -0.00021, Intercept: 52.31}))
	assert.Equal(t, "y = 2.00000x - 3.50",
		EquationLabel(&domain.RegressionResult{Slope: 2, Intercept: -3.5}))
	assert.Empty(t, EquationLabel(nil))
	assert.Empty(t, EquationLabel(&domain.RegressionResult{Slope: math.NaN(), Intercept: math.NaN()}))
}

func TestTrendChart_LayoutFollowsData(t *testing.T) {
	tc := incomeTrend()
	layout, err := tc.Layout()
	require.NoError(t, err)
	require.Len(t, layout, 1)
	pts := layout[0]
	require.Len(t, pts, 4)
	for i := 1; i < len(pts); i++ {
		assert.Greater(t, pts[i].X, pts[i-1].X, "periods run left to right")
		assert.Less(t, pts[i].Y, pts[i-1].Y, "rising income is drawn higher")
	}
	for _, p := range pts {
		assert.True(t, p.X > 0 && p.X < float64(tc.Width))
		assert.True(t, p.Y > 0 && p.Y < float64(tc.Height))
	}
}

func TestTrendChart_MarkersListEverySeries(t *testing.T) {
	tc := TrendChart{
		Title:   "Hypertension",
		Labels:  []string{"1999-2000", "2001-2002"},
		Series:  []TrendSeries{{Name: "All", Values: []float64{47.0, 45.2}}, {Name: "Men", Values: []float64{49.9, math.NaN()}}},
		YFormat: domain.FormatPercent,
		Width:   720,
		Height:  400,
	}
	m, err := tc.Markers(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len(), "the missing observation has no marker")

	first, ok := m.Marker("Men/1999-2000")
	require.True(t, ok)
	assert.Equal(t, "1999-2000", first.Title)
	assert.Equal(t, "All 47.0%, Men 49.9%", first.Body)

	second, ok := m.Marker("All/2001-2002")
	require.True(t, ok)
	assert.Equal(t, "All 45.2%", second.Body)
	_, ok = m.Marker("Men/2001-2002")
	assert.False(t, ok)

	st := m.PointerAt(second.At)
	assert.Equal(t, "All/2001-2002", st.FeatureID)
}

func TestTrendChart_WriteSVGDrawsHoverTooltip(t *testing.T) {
	tc := incomeTrend()
	m, err := tc.Markers(nil)
	require.NoError(t, err)

	var plain bytes.Buffer
	require.NoError(t, tc.WriteSVG(&plain, m.Draw))
	require.True(t, m.PointerEnter("Median income/2015", Point{300, 200}))
	var hovered bytes.Buffer
	require.NoError(t, tc.WriteSVG(&hovered, m.Draw))

	assert.Greater(t, strings.Count(hovered.String(), "2015"), strings.Count(plain.String(), "2015"))
	assert.Contains(t, hovered.String(), domain.FormatCurrencyShort(55775))
}

func TestScatterChart_NoPoints(t *testing.T) {
	err := ScatterChart{Title: "empty", Width: 100, Height: 100}.WriteSVG(&bytes.Buffer{})
	var empty *domain.EmptyResultError
	assert.ErrorAs(t, err, &empty)
}

func TestFitLabel(t *testing.T) {
	fit := &domain.RegressionResult{Correlation: -0.5, RSquared: 0.25, N: 159}
	assert.Equal(t, "r = -0.50, R² = 0.25 (n = 159)", FitLabel(fit))
	assert.Equal(t, "Regression undefined", FitLabel(nil))
	assert.Equal(t, "Regression undefined", FitLabel(&domain.RegressionResult{Correlation: math.NaN()}))
}

func TestTrendSeries_MarshalJSONMissingValues(t *testing.T) {
	data, err := json.Marshal(TrendSeries{Name: "Women", Values: []float64{44.0, math.NaN()}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Women","color":"","values":[44,null]}`, string(data))
}

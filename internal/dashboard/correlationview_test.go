package dashboard

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

func correlationView(f *fakeFetcher, overlay *render.Overlay) *CorrelationView {
	return NewCorrelationView(CorrelationConfig{
		Name:   "income-vs-hypertension",
		Title:  "Income vs. Hypertension",
		XLabel: "Median household income",
		YLabel: "Hypertension (%)",
		X: Table{Location: "income.csv", Schema: domain.Schema{
			KeyColumn: "County", ValueColumn: "Value (Dollars)", KeyKind: domain.KeyName,
			Exclude: []string{"Georgia", "United States"},
		}},
		Y: Table{Location: "rates.csv", Schema: domain.Schema{
			KeyColumn: "County", ValueColumn: "Rate", KeyKind: domain.KeyName,
		}},
		PairBy:  domain.KeyName,
		XFormat: domain.FormatCurrencyShort,
		YFormat: domain.FormatPercent,
		Width:   640,
		Height:  420,
	}, f, overlay, discardLogger(), observability.NewMetricsForTesting())
}

func TestCorrelationView_FitsPairedCounties(t *testing.T) {
	f := newFakeFetcher()
	f.set("income.csv", "County,FIPS,Value (Dollars)\n"+
		"Georgia,13000,\"$71,355\"\n"+
		"Fulton County,13121,\"$90,000\"\n"+
		"DeKalb County,13089,\"$70,000\"\n"+
		"Appling County,13001,\"$50,000\"\n"+
		"Chatham County,13051,\"$60,000\"\n")
	f.set("rates.csv", "County,Rate\nFulton,30\nDeKalb,35\nAppling,40\n")
	v := correlationView(f, nil)

	require.NoError(t, v.Load(context.Background()))

	fit, ok := v.Fit()
	require.True(t, ok)
	assert.Equal(t, 3, fit.N)
	assert.InDelta(t, -1.0, fit.Correlation, 1e-9)
	assert.InDelta(t, -0.00025, fit.Slope, 1e-12)

	snap := v.Snapshot()
	require.NotNil(t, snap.Correlation)
	assert.Len(t, snap.Correlation.Points, 3)
	assert.Equal(t, "r = -1.00, R² = 1.00 (n = 3)", snap.Correlation.Label)
	assert.Empty(t, snap.Warning)

	var buf bytes.Buffer
	require.NoError(t, v.WriteSVG(&buf))
	assert.Contains(t, buf.String(), "<svg")
}

func TestCorrelationView_UndefinedRegressionStillRenders(t *testing.T) {
	f := newFakeFetcher()
	f.set("income.csv", "County,Value (Dollars)\nFulton,50000\nDeKalb,50000\n")
	f.set("rates.csv", "County,Rate\nFulton,30\nDeKalb,35\n")
	v := correlationView(f, nil)

	require.NoError(t, v.Load(context.Background()))

	_, ok := v.Fit()
	assert.False(t, ok)
	snap := v.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, domain.ErrZeroVarianceX.Error(), snap.Warning)
	assert.Equal(t, "Regression undefined", snap.Correlation.Label)
}

func TestCorrelationView_NoOverlapIsEmptyResult(t *testing.T) {
	f := newFakeFetcher()
	f.set("income.csv", "County,Value (Dollars)\nFulton,50000\n")
	f.set("rates.csv", "County,Rate\nCobb,30\n")
	v := correlationView(f, nil)

	err := v.Load(context.Background())

	var empty *domain.EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "EmptyResultError", v.Snapshot().Error.Kind)
}

func TestCorrelationView_EitherSourceFailing(t *testing.T) {
	f := newFakeFetcher()
	f.set("income.csv", "County,Value (Dollars)\nFulton,50000\n")
	v := correlationView(f, nil)

	err := v.Load(context.Background())

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "rates.csv", fetchErr.Source)
}

func TestCorrelationView_ReloadInvalidatesBothTables(t *testing.T) {
	f := newFakeFetcher()
	f.set("income.csv", "County,Value (Dollars)\nFulton,50000\nDeKalb,60000\n")
	f.set("rates.csv", "County,Rate\nFulton,30\nDeKalb,35\n")
	v := correlationView(f, nil)

	require.NoError(t, v.Reload(context.Background()))
	assert.ElementsMatch(t, []string{"income.csv", "rates.csv"}, f.invalidated)
}

func TestCorrelationView_PointerShowsCountyTooltip(t *testing.T) {
	f := newFakeFetcher()
	f.set("income.csv", "County,Value (Dollars)\nFulton,90000\nDeKalb,70000\nAppling,50000\n")
	f.set("rates.csv", "County,Rate\nFulton,30\nDeKalb,35\nAppling,40\n")
	v := correlationView(f, nil)

	_, err := v.Pointer(PointerEvent{Type: "enter", FeatureID: "Fulton"})
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, v.Load(context.Background()))
	snap := v.Snapshot()
	require.NotNil(t, snap.Correlation)
	assert.Equal(t, "y = -0.00025x + 52.50", snap.Correlation.Equation)
	assert.False(t, snap.Correlation.Hover.Hovered)

	label := snap.Correlation.Points[0].Label
	st, err := v.Pointer(PointerEvent{Type: "enter", FeatureID: label, X: 100, Y: 80})
	require.NoError(t, err)
	assert.True(t, st.Hovered)
	assert.Equal(t, label, st.FeatureID)
	require.NotNil(t, st.Tooltip)
	assert.Contains(t, st.Tooltip.Title, "County")
	assert.Equal(t, "30.0% at $90k", st.Tooltip.Body)

	before := v.RenderKey()
	st, err = v.Pointer(PointerEvent{Type: "move", X: 104, Y: 82})
	require.NoError(t, err)
	assert.Equal(t, render.Point{X: 104, Y: 82}, st.Tooltip.At)
	assert.NotEqual(t, before, v.RenderKey(), "hover changes invalidate cached renders")

	var buf bytes.Buffer
	require.NoError(t, v.WriteSVG(&buf))
	assert.Contains(t, buf.String(), st.Tooltip.Title)

	_, err = v.Pointer(PointerEvent{Type: "enter", FeatureID: "Cobb"})
	assert.Error(t, err)
}

func TestCorrelationView_SharesOverlayWithMaps(t *testing.T) {
	m := newMapFixture(t)
	m.fetcher.set(ratesLocation, "County,Rate\nFulton,32.9\nDeKalb,33.5\n")
	m.fetcher.set("income.csv", "County,Value (Dollars)\nFulton,90000\nDeKalb,70000\n")
	m.fetcher.set("rates.csv", "County,Rate\nFulton,30\nDeKalb,35\n")
	hypertension := m.view(t, "hypertension", ratesLocation, nil)
	scatter := correlationView(m.fetcher, m.overlay)
	require.NoError(t, hypertension.Load(context.Background()))
	require.NoError(t, scatter.Load(context.Background()))

	_, err := hypertension.Pointer(PointerEvent{Type: "enter", FeatureID: "13121"})
	require.NoError(t, err)

	label := scatter.Snapshot().Correlation.Points[0].Label
	st, err := scatter.Pointer(PointerEvent{Type: "enter", FeatureID: label})
	require.NoError(t, err)
	assert.True(t, st.Hovered)

	assert.False(t, hypertension.Snapshot().Map.Hover.Hovered, "the map gave up the tooltip")
	_, tip, held := m.overlay.Current()
	require.True(t, held)
	assert.Contains(t, tip.Title, "County")

	require.NoError(t, scatter.Reload(context.Background()))
	assert.False(t, scatter.Snapshot().Correlation.Hover.Hovered)
	_, _, held = m.overlay.Current()
	assert.False(t, held, "a reload releases the tooltip")
}

package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
	"github.com/couchcryptid/georgia-health-dashboard/internal/render"
)

const historicalCSV = "Hypertension among adults aged 18 and over: United States\n" +
	"Survey Period,All,Men,Women\n" +
	"1999-2000,47.0 (1.4),49.9 (1.8),44.0 (1.6)\n" +
	"2001-2002,45.2 (1.3),47.1 (1.5),43.4 (1.4)\n" +
	"2017-2018,45.4 (1.2),51.0 (1.6),\n"

func trendView(f *fakeFetcher, overlay *render.Overlay) *TrendView {
	return NewTrendView(TrendConfig{
		Name:   "hypertension-trend",
		Title:  "Hypertension Prevalence",
		XLabel: "Survey period",
		YLabel: "Adults with hypertension (%)",
		Table: Table{Location: "historical.csv", Schema: domain.Schema{
			KeyColumn:   "Survey Period",
			ValueColumn: "All",
			Secondary:   []string{"Men", "Women"},
		}},
		Series: []SeriesConfig{
			{Name: "All", Color: "#7f4de2"},
			{Name: "Men", Column: "Men", Color: "#2171b5"},
			{Name: "Women", Column: "Women", Color: "#cb181d"},
		},
		YPadding: 2,
		Format:   domain.FormatPercent,
		Width:    720,
		Height:   400,
	}, f, overlay, discardLogger(), observability.NewMetricsForTesting())
}

func TestTrendView_Load(t *testing.T) {
	f := newFakeFetcher()
	f.set("historical.csv", historicalCSV)
	v := trendView(f, nil)

	require.NoError(t, v.Load(context.Background()))

	chart, ok := v.Chart()
	require.True(t, ok)
	assert.Equal(t, []string{"1999-2000", "2001-2002", "2017-2018"}, chart.Labels)
	require.Len(t, chart.Series, 3)
	assert.Equal(t, []float64{47.0, 45.2, 45.4}, chart.Series[0].Values)
	assert.Equal(t, []float64{49.9, 47.1, 51.0}, chart.Series[1].Values)
	assert.True(t, math.IsNaN(chart.Series[2].Values[2]), "missing cell stays missing")

	lo, hi, err := chart.YRange()
	require.NoError(t, err)
	assert.Equal(t, 41.0, lo)
	assert.Equal(t, 53.0, hi)

	data, err := json.Marshal(v.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"ready"`)

	var buf bytes.Buffer
	require.NoError(t, v.WriteSVG(&buf))
	assert.Contains(t, buf.String(), "<svg")
}

func TestTrendView_SinglePeriodIsEmptyResult(t *testing.T) {
	f := newFakeFetcher()
	f.set("historical.csv", "Survey Period,All\n1999-2000,47.0\n")
	v := trendView(f, nil)

	err := v.Load(context.Background())

	var empty *domain.EmptyResultError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, StatusError, v.Snapshot().Status)

	var buf bytes.Buffer
	require.NoError(t, v.WriteSVG(&buf))
	assert.Contains(t, buf.String(), "EmptyResultError")
}

func TestTrendView_LoadingPanelBeforeFirstLoad(t *testing.T) {
	v := trendView(newFakeFetcher(), nil)

	assert.Equal(t, StatusLoading, v.Snapshot().Status)
	assert.False(t, v.Settled())
	var buf bytes.Buffer
	require.NoError(t, v.WriteSVG(&buf))
	assert.Contains(t, buf.String(), "Loading")
}

func TestTrendView_PointerHoversObservations(t *testing.T) {
	f := newFakeFetcher()
	f.set("historical.csv", historicalCSV)
	v := trendView(f, nil)

	_, err := v.Pointer(PointerEvent{Type: "enter", FeatureID: "All/1999-2000"})
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, v.Load(context.Background()))
	st, err := v.Pointer(PointerEvent{Type: "enter", FeatureID: "Men/2017-2018", X: 300, Y: 120})
	require.NoError(t, err)
	assert.True(t, st.Hovered)
	require.NotNil(t, st.Tooltip)
	assert.Equal(t, "2017-2018", st.Tooltip.Title)
	assert.Equal(t, "All 45.4%, Men 51.0%", st.Tooltip.Body, "Women has no 2017-2018 value")

	_, err = v.Pointer(PointerEvent{Type: "enter", FeatureID: "Women/2017-2018"})
	assert.Error(t, err, "missing observations cannot be hovered")

	snap := v.Snapshot()
	require.NotNil(t, snap.Trend)
	assert.Equal(t, "Men/2017-2018", snap.Trend.Hover.FeatureID)
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"feature_id":"Men/2017-2018"`)
	assert.Contains(t, string(data), `"labels":["1999-2000","2001-2002","2017-2018"]`)

	st, err = v.Pointer(PointerEvent{Type: "leave", FeatureID: "Men/2017-2018"})
	require.NoError(t, err)
	assert.False(t, st.Hovered)
}

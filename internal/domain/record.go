package domain

import (
	"time"

	"github.com/twpayne/go-geom"
)

// NormalizedKey is the canonical join key derived from a county name or
// FIPS code. The zero value is never a valid key.
type NormalizedKey string

// Valid reports whether the key can take part in a join.
func (k NormalizedKey) Valid() bool { return k != "" }

// KeyKind selects how a dataset's key column is interpreted.
type KeyKind string

const (
	KeyName KeyKind = "name" // county display name, e.g. "Fulton" or "Fulton County"
	KeyFIPS KeyKind = "fips" // five-digit county FIPS code, e.g. "13121"
)

// TabularRecord is one parsed row of a source table.
type TabularRecord struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`

	// Secondary holds the optional numeric columns declared in the schema,
	// keyed by column name. Cells that fail to parse are absent.
	Secondary map[string]float64 `json:"secondary,omitempty"`

	// Row is the 1-based source line of the record, for diagnostics.
	Row int `json:"row"`
}

// GeoFeature is one county polygon from the geographic source.
type GeoFeature struct {
	ID       string `json:"id"`   // five-digit FIPS code
	Name     string `json:"name"` // display name, e.g. "Fulton"
	Geometry geom.T `json:"-"`    // *geom.Polygon or *geom.MultiPolygon in lon/lat
}

// JoinedRecord pairs a feature with the value of its matched record. Value
// is nil when no record matched.
type JoinedRecord struct {
	Feature GeoFeature `json:"feature"`
	Value   *float64   `json:"value"`
}

// HasValue reports whether the feature was matched to a record.
func (j JoinedRecord) HasValue() bool { return j.Value != nil }

// JoinResult is the outcome of joining features against records.
type JoinResult struct {
	Joined            []JoinedRecord  `json:"joined"`
	UnmatchedFeatures []GeoFeature    `json:"unmatched_features"`
	UnmatchedRecords  []TabularRecord `json:"unmatched_records"`

	// Superseded lists records that were overwritten by a later row with
	// the same normalized key.
	Superseded []TabularRecord `json:"superseded,omitempty"`

	// Ambiguous lists normalized keys shared by more than one feature.
	Ambiguous []NormalizedKey `json:"ambiguous,omitempty"`

	JoinedAt time.Time `json:"joined_at"`
}

// Values returns the defined values of the joined set in feature order.
func (r JoinResult) Values() []float64 {
	values := make([]float64, 0, len(r.Joined))
	for _, j := range r.Joined {
		if j.Value != nil {
			values = append(values, *j.Value)
		}
	}
	return values
}

// Mismatch returns a warning describing unmatched features and records, or
// nil when both sides matched completely.
func (r JoinResult) Mismatch() *JoinMismatchWarning {
	if len(r.UnmatchedFeatures) == 0 && len(r.UnmatchedRecords) == 0 {
		return nil
	}
	w := &JoinMismatchWarning{
		UnmatchedFeatures: make([]string, len(r.UnmatchedFeatures)),
		UnmatchedRecords:  make([]string, len(r.UnmatchedRecords)),
	}
	for i, f := range r.UnmatchedFeatures {
		w.UnmatchedFeatures[i] = f.ID
	}
	for i, rec := range r.UnmatchedRecords {
		w.UnmatchedRecords[i] = rec.Key
	}
	return w
}

// Point is one paired observation for regression.
type Point struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// RegressionResult holds an ordinary least squares fit and its Pearson
// correlation. RSquared is always Correlation squared.
type RegressionResult struct {
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	Correlation float64 `json:"correlation"`
	RSquared    float64 `json:"r_squared"`
	N           int     `json:"n"`
}

// Predict evaluates the fitted line at x.
func (r RegressionResult) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

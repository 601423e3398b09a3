package geo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// ParseFeatures extracts the polygonal features of payload whose FIPS code
// starts with prefix. The payload must be a JSON object with a non-empty
// "features" array; features are pre-filtered with gjson so that only the
// region's geometry is decoded.
//
// A feature's code is its "id", falling back to the STATE and COUNTY
// properties. Its display name is the NAME property, falling back to the
// code. Features without polygonal geometry are skipped.
func ParseFeatures(source string, payload []byte, prefix string) ([]domain.GeoFeature, error) {
	if !gjson.ValidBytes(payload) {
		return nil, &domain.ParseError{Source: source, Reason: "invalid JSON"}
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil, &domain.ParseError{Source: source, Reason: "payload is not a JSON object"}
	}
	arr := root.Get("features")
	if !arr.Exists() || !arr.IsArray() {
		return nil, &domain.ParseError{Source: source, Reason: "missing features array"}
	}
	raw := arr.Array()
	if len(raw) == 0 {
		return nil, &domain.EmptyResultError{Source: source, What: "features"}
	}

	var features []domain.GeoFeature
	for i, f := range raw {
		code, ok := featureCode(f)
		if !ok || !strings.HasPrefix(string(code), prefix) {
			continue
		}
		var decoded geojson.Feature
		if err := json.Unmarshal([]byte(f.Raw), &decoded); err != nil {
			return nil, &domain.ParseError{Source: source, Reason: fmt.Sprintf("feature %d (%s)", i, code), Err: err}
		}
		if !polygonal(decoded.Geometry) {
			continue
		}
		name := strings.TrimSpace(f.Get("properties.NAME").String())
		if name == "" {
			name = string(code)
		}
		features = append(features, domain.GeoFeature{
			ID:       string(code),
			Name:     name,
			Geometry: decoded.Geometry,
		})
	}

	if len(features) == 0 {
		return nil, &domain.EmptyResultError{Source: source, What: "features with prefix " + prefix}
	}
	return features, nil
}

func featureCode(f gjson.Result) (domain.NormalizedKey, bool) {
	if id := f.Get("id"); id.Exists() && id.String() != "" {
		return domain.NormalizeFIPS(id.String())
	}
	state := f.Get("properties.STATE").String()
	county := f.Get("properties.COUNTY").String()
	if state == "" || county == "" {
		return "", false
	}
	return domain.NormalizeFIPS(state + county)
}

func polygonal(g geom.T) bool {
	switch g := g.(type) {
	case *geom.Polygon:
		return g.NumLinearRings() > 0
	case *geom.MultiPolygon:
		return g.NumPolygons() > 0
	default:
		return false
	}
}

// Command genfixture extracts one region's features from a national county
// GeoJSON collection into a small fixture, for offline development and
// tests. Features are copied verbatim; the output is checked with the same
// parser the dashboard uses.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -in https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json \
//	  -out testdata/georgia-counties.json \
//	  -prefix 13
//
// -counties restricts the output to a comma-separated list of FIPS codes.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/couchcryptid/georgia-health-dashboard/internal/adapter/source"
	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/geo"
	"github.com/couchcryptid/georgia-health-dashboard/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "national GeoJSON collection: file path or http(s) URL")
	out := flag.String("out", "", "output path for the region fixture")
	prefix := flag.String("prefix", "13", "FIPS prefix of the region")
	counties := flag.String("counties", "", "optional comma-separated FIPS codes to keep")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	payload, err := read(*in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}

	keep, err := parseCodes(*counties)
	if err != nil {
		return err
	}
	fixture, n, err := extract(payload, *prefix, keep)
	if err != nil {
		return err
	}

	features, err := geo.ParseFeatures(*out, fixture, *prefix)
	if err != nil {
		return fmt.Errorf("checking fixture: %w", err)
	}
	log.Printf("extracted %d of %d features (%d polygonal)", n, len(gjson.GetBytes(payload, "features").Array()), len(features))

	if err := os.WriteFile(*out, fixture, 0o644); err != nil { //nolint:gosec // fixture is not sensitive
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)
	return nil
}

func read(location string) ([]byte, error) {
	if !source.IsRemote(location) {
		return os.ReadFile(location)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	f := source.NewHTTPFetcher(2*time.Minute, 2, observability.NewMetrics(), logger)
	return f.Fetch(context.Background(), location)
}

func parseCodes(list string) (map[domain.NormalizedKey]bool, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	keep := make(map[domain.NormalizedKey]bool)
	for _, raw := range strings.Split(list, ",") {
		code, ok := domain.NormalizeFIPS(raw)
		if !ok {
			return nil, fmt.Errorf("invalid FIPS code %q", raw)
		}
		keep[code] = true
	}
	return keep, nil
}

// extract copies the raw JSON of every feature under prefix, and in keep
// when keep is non-nil, into a new FeatureCollection, one feature per line.
func extract(payload []byte, prefix string, keep map[domain.NormalizedKey]bool) ([]byte, int, error) {
	if !gjson.ValidBytes(payload) {
		return nil, 0, fmt.Errorf("input is not valid JSON")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":"FeatureCollection","features":[`)
	n := 0
	for _, f := range gjson.GetBytes(payload, "features").Array() {
		code, ok := domain.NormalizeFIPS(f.Get("id").String())
		if !ok {
			code, ok = domain.NormalizeFIPS(f.Get("properties.STATE").String() + f.Get("properties.COUNTY").String())
		}
		if !ok || !strings.HasPrefix(string(code), prefix) {
			continue
		}
		if keep != nil && !keep[code] {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n")
		buf.WriteString(f.Raw)
		n++
	}
	buf.WriteString("\n]}\n")
	if n == 0 {
		return nil, 0, fmt.Errorf("no features under prefix %s", prefix)
	}
	return buf.Bytes(), n, nil
}

// Command validate performs integrity checks on a dataset catalog and the
// datasets it references: every source parses under every schema that
// reads it, the county tables agree on their county sets, and, given a
// GeoJSON collection, every map joins completely against the region.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -catalog internal/catalog/catalog.yaml \
//	  -data-dir internal/catalog/data \
//	  -geojson testdata/geojson-counties-fips.json \
//	  -prefix 13
//
// Without -catalog and -data-dir the embedded catalog and data are checked.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"

	"github.com/couchcryptid/georgia-health-dashboard/internal/catalog"
	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
	"github.com/couchcryptid/georgia-health-dashboard/internal/geo"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	catalogPath := flag.String("catalog", "", "catalog YAML (default: embedded catalog)")
	dataDir := flag.String("data-dir", "", "directory holding the catalog's datasets (default: embedded data)")
	geoJSON := flag.String("geojson", "", "optional GeoJSON feature collection to check map joins against")
	prefix := flag.String("prefix", "13", "FIPS prefix of the region")
	flag.Parse()

	if code := run(*catalogPath, *dataDir, *geoJSON, *prefix); code != 0 {
		os.Exit(code)
	}
}

func run(catalogPath, dataDir, geoJSONPath, prefix string) int {
	fmt.Println("=== Dashboard Data Integrity Validation ===")
	fmt.Println()

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}
	var data fs.FS = catalog.Data()
	if dataDir != "" {
		data = os.DirFS(dataDir)
	}

	tables, sources := parseSources(cat, data)
	phases := []*phase{
		sources,
		validateCountySets(cat, tables),
	}
	if geoJSONPath != "" {
		phases = append(phases, validateJoins(cat, tables, geoJSONPath, prefix))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Views: %d, sources: %d\n", len(cat.Views), len(cat.Locations()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// tableKey identifies one parse of a source: the same file may be read by
// several views with different schemas.
type tableKey struct {
	view string
	side string // source, x or y
}

// ── Phase 1: Sources ──
// Every source referenced by a view parses under that view's schema.

func parseSources(cat *catalog.Catalog, data fs.FS) (map[tableKey][]domain.TabularRecord, *phase) {
	p := &phase{name: "Phase 1: Sources (CSV parsing)"}
	tables := make(map[tableKey][]domain.TabularRecord)

	parse := func(view, side string, src catalog.SourceSpec) {
		raw, err := fs.ReadFile(data, src.Location)
		if err != nil {
			p.errorf("%s.%s: read %s: %v", view, side, src.Location, err)
			return
		}
		records, err := domain.ParseTable(src.Location, string(raw), src.Schema)
		if err != nil {
			p.errorf("%s.%s: %v", view, side, err)
			return
		}
		tables[tableKey{view, side}] = records
		fmt.Printf("  %-28s %-8s %4d records  (%s)\n", view, side, len(records), src.Location)
	}

	for _, v := range cat.Views {
		switch v.Kind {
		case "correlation":
			parse(v.Name, "x", v.X)
			parse(v.Name, "y", v.Y)
		default:
			parse(v.Name, "source", v.Source)
		}
	}
	return tables, p
}

// ── Phase 2: County Sets ──
// Map sources joined by the same key kind describe the same counties, with
// no key appearing twice in one table, and correlation sources pair up.

func validateCountySets(cat *catalog.Catalog, tables map[tableKey][]domain.TabularRecord) *phase {
	p := &phase{name: "Phase 2: County Sets (cross-source)"}

	type keyed struct {
		view string
		keys []string
	}
	groups := map[domain.KeyKind][]keyed{}
	for _, v := range cat.Views {
		if v.Kind != "map" {
			continue
		}
		records, ok := tables[tableKey{v.Name, "source"}]
		if !ok {
			continue
		}
		seen := make(map[domain.NormalizedKey]string, len(records))
		var keys []string
		for _, rec := range records {
			k := normalize(rec.Key, v.JoinBy)
			if !k.Valid() {
				p.errorf("%s: invalid key %q", v.Name, rec.Key)
				continue
			}
			if prev, dup := seen[k]; dup {
				p.errorf("%s: duplicate key %q (%q and %q)", v.Name, k, prev, rec.Key)
				continue
			}
			seen[k] = rec.Key
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		groups[v.JoinBy] = append(groups[v.JoinBy], keyed{view: v.Name, keys: keys})
	}

	for kind, views := range groups {
		if len(views) < 2 {
			continue
		}
		ref := views[0]
		for _, other := range views[1:] {
			if slices.Equal(ref.keys, other.keys) {
				continue
			}
			missing, extra := diff(ref.keys, other.keys)
			p.errorf("%s joins by %s: %s lacks %v, has extra %v (compared with %s)",
				other.view, kind, other.view, missing, extra, ref.view)
		}
	}

	// Correlation pairs must cover every county present on both sides.
	for _, v := range cat.Views {
		if v.Kind != "correlation" {
			continue
		}
		xs, ys := tables[tableKey{v.Name, "x"}], tables[tableKey{v.Name, "y"}]
		if xs == nil || ys == nil {
			continue
		}
		points := domain.Pair(xs, ys, v.PairBy)
		if _, err := domain.Fit(points); err != nil {
			p.errorf("%s: regression over %d points: %v", v.Name, len(points), err)
		}
		if len(points) < min(len(xs), len(ys)) {
			p.errorf("%s: only %d of %d/%d records paired", v.Name, len(points), len(xs), len(ys))
		}
	}
	return p
}

func normalize(raw string, kind domain.KeyKind) domain.NormalizedKey {
	if kind == domain.KeyFIPS {
		k, _ := domain.NormalizeFIPS(raw)
		return k
	}
	return domain.NormalizeName(raw)
}

// diff returns the elements of want absent from got and of got absent from
// want. Both inputs are sorted.
func diff(want, got []string) (missing, extra []string) {
	for _, k := range want {
		if _, found := slices.BinarySearch(got, k); !found {
			missing = append(missing, k)
		}
	}
	for _, k := range got {
		if _, found := slices.BinarySearch(want, k); !found {
			extra = append(extra, k)
		}
	}
	return missing, extra
}

// ── Phase 3: Joins ──
// Every map joins completely against the region's features.

func validateJoins(cat *catalog.Catalog, tables map[tableKey][]domain.TabularRecord, path, prefix string) *phase {
	p := &phase{name: "Phase 3: Joins (GeoJSON coverage)"}

	payload, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read %s: %v", path, err)
		return p
	}
	features, err := geo.ParseFeatures(path, payload, prefix)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	fmt.Printf("  %d features under prefix %s\n", len(features), prefix)

	for _, v := range cat.Views {
		if v.Kind != "map" {
			continue
		}
		records, ok := tables[tableKey{v.Name, "source"}]
		if !ok {
			continue
		}
		result := domain.Join(features, records, v.JoinBy)
		if w := result.Mismatch(); w != nil {
			p.errorf("%s: %v", v.Name, w)
		}
		if len(result.Ambiguous) > 0 {
			p.errorf("%s: ambiguous feature keys %v", v.Name, result.Ambiguous)
		}
		if len(result.Superseded) > 0 {
			p.errorf("%s: %d records superseded by later rows", v.Name, len(result.Superseded))
		}
	}

	return p
}

// Package catalog describes the dashboard's views and their sources in
// YAML and builds the dashboard from that description.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

//go:embed data/*.csv
var embeddedData embed.FS

// Data returns the embedded datasets, rooted so that catalog locations
// resolve directly.
func Data() fs.FS {
	sub, err := fs.Sub(embeddedData, "data")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return sub
}

// Catalog is the ordered list of views.
type Catalog struct {
	Views []ViewSpec `yaml:"views"`
}

// SourceSpec locates a table and describes its columns.
type SourceSpec struct {
	Location string        `yaml:"location"`
	Schema   domain.Schema `yaml:"schema"`
}

// SeriesSpec is one line of a trend view.
type SeriesSpec struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
	Color  string `yaml:"color"`
}

// ViewSpec describes one view. Which fields apply depends on Kind.
type ViewSpec struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"` // map, trend or correlation
	Title string `yaml:"title"`

	// map; Interpolator also colors correlation points when set
	Metric       string         `yaml:"metric"`
	JoinBy       domain.KeyKind `yaml:"join_by"`
	Interpolator string         `yaml:"interpolator"`
	Inverse      bool           `yaml:"inverse"`
	Fallback     domain.Domain  `yaml:"fallback"`
	LegendFormat string         `yaml:"legend_format"`

	// map and trend
	Source SourceSpec `yaml:"source"`
	Format string     `yaml:"format"`

	// trend and correlation
	XLabel string `yaml:"x_label"`
	YLabel string `yaml:"y_label"`

	// trend
	Series   []SeriesSpec `yaml:"series"`
	YPadding float64      `yaml:"y_padding"`

	// correlation
	X       SourceSpec     `yaml:"x"`
	Y       SourceSpec     `yaml:"y"`
	PairBy  domain.KeyKind `yaml:"pair_by"`
	XFormat string         `yaml:"x_format"`
	YFormat string         `yaml:"y_format"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded catalog when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Locations returns every distinct source location in view order.
func (c *Catalog) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(loc string) {
		if loc != "" && !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	for _, v := range c.Views {
		add(v.Source.Location)
		add(v.X.Location)
		add(v.Y.Location)
	}
	return out
}

// Validate reports every problem in the catalog.
func (c *Catalog) Validate() error {
	if len(c.Views) == 0 {
		return errors.New("catalog has no views")
	}
	var errs []error
	names := make(map[string]bool, len(c.Views))
	for i, v := range c.Views {
		label := fmt.Sprintf("view %d (%s)", i, v.Name)
		if strings.TrimSpace(v.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else if names[v.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name", label))
		}
		names[v.Name] = true
		if err := v.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	return errors.Join(errs...)
}

func (v ViewSpec) validate() error {
	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	formatter := func(field, name string) {
		if _, err := domain.NamedFormatter(name); err != nil {
			check(fmt.Errorf("%s: %w", field, err))
		}
	}

	switch v.Kind {
	case "map":
		check(validateSource("source", v.Source))
		check(validateKeyKind("join_by", v.JoinBy))
		if _, err := domain.NamedInterpolator(v.Interpolator); err != nil {
			check(fmt.Errorf("interpolator: %w", err))
		}
		if v.Fallback.Min >= v.Fallback.Max {
			check(errors.New("fallback: min must be below max"))
		}
		formatter("format", v.Format)
		formatter("legend_format", v.LegendFormat)
	case "trend":
		check(validateSource("source", v.Source))
		if len(v.Series) == 0 {
			check(errors.New("series: at least one series is required"))
		}
		for _, s := range v.Series {
			if s.Column == "" || strings.EqualFold(s.Column, v.Source.Schema.ValueColumn) {
				continue
			}
			if !containsFold(v.Source.Schema.Secondary, s.Column) {
				check(fmt.Errorf("series %q: column %q is not a secondary column", s.Name, s.Column))
			}
		}
		formatter("format", v.Format)
	case "correlation":
		check(validateSource("x", v.X))
		check(validateSource("y", v.Y))
		check(validateKeyKind("pair_by", v.PairBy))
		if v.Interpolator != "" {
			if _, err := domain.NamedInterpolator(v.Interpolator); err != nil {
				check(fmt.Errorf("interpolator: %w", err))
			}
		}
		formatter("x_format", v.XFormat)
		formatter("y_format", v.YFormat)
	default:
		check(fmt.Errorf("unknown kind %q", v.Kind))
	}
	return errors.Join(errs...)
}

func validateSource(field string, s SourceSpec) error {
	switch {
	case s.Location == "":
		return fmt.Errorf("%s: location is required", field)
	case s.Schema.KeyColumn == "" && !s.Schema.PositionalFallback:
		return fmt.Errorf("%s: key_column is required without positional_fallback", field)
	case s.Schema.ValueColumn == "" && !s.Schema.PositionalFallback:
		return fmt.Errorf("%s: value_column is required without positional_fallback", field)
	}
	return validateKeyKind(field+".schema.key_kind", s.Schema.KeyKind, domain.KeyKind(""))
}

func validateKeyKind(field string, k domain.KeyKind, extra ...domain.KeyKind) error {
	switch k {
	case domain.KeyName, domain.KeyFIPS:
		return nil
	}
	for _, e := range extra {
		if k == e {
			return nil
		}
	}
	return fmt.Errorf("%s: must be %q or %q, got %q", field, domain.KeyName, domain.KeyFIPS, k)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

package domain

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Schema describes how one dataset's CSV export maps onto records.
type Schema struct {
	KeyColumn   string   `yaml:"key_column" json:"key_column"`
	ValueColumn string   `yaml:"value_column" json:"value_column"`
	KeyKind     KeyKind  `yaml:"key_kind" json:"key_kind"`
	Secondary   []string `yaml:"secondary_columns" json:"secondary_columns,omitempty"`

	// Exclude lists labels (compared case-insensitively after trimming) that
	// mark aggregate rows rather than counties, e.g. "Georgia". A row is
	// skipped when its key cell or its first cell carries such a label.
	Exclude []string `yaml:"exclude" json:"exclude,omitempty"`

	// PositionalFallback treats column 0 as the key and column 1 as the
	// value when no header row matches KeyColumn and ValueColumn.
	PositionalFallback bool `yaml:"positional_fallback" json:"positional_fallback"`

	// AllowNonPositive keeps zero and negative values. By default only
	// strictly positive values are accepted.
	AllowNonPositive bool `yaml:"allow_non_positive" json:"allow_non_positive"`

	// Max, when non-zero, is the inclusive upper bound for values.
	Max float64 `yaml:"max" json:"max,omitempty"`
}

// ParseTable parses CSV text into records according to schema. The header
// row is located by content; rows before it are skipped. Rows whose key is
// blank, excluded, or invalid for the key kind, and rows whose value does
// not parse to an in-range finite number, are skipped. Records keep source
// order and are not de-duplicated.
//
// It fails with *ParseError when the text is empty or no header can be
// located and positional fallback is impossible, and with
// *EmptyResultError when no row survives.
func ParseTable(source, csvText string, schema Schema) ([]TabularRecord, error) {
	if strings.TrimSpace(csvText) == "" {
		return nil, &ParseError{Source: source, Reason: "empty CSV text"}
	}

	rows, err := readRows(csvText)
	if err != nil {
		return nil, &ParseError{Source: source, Reason: "malformed CSV", Err: err}
	}

	layout, ok := locateHeader(rows, schema)
	if !ok {
		if !schema.PositionalFallback || maxWidth(rows) < 2 {
			return nil, &ParseError{
				Source: source,
				Reason: "no header row with columns " + strconv.Quote(schema.KeyColumn) + " and " + strconv.Quote(schema.ValueColumn),
			}
		}
		layout = columnLayout{headerRow: -1, key: 0, value: 1}
	}

	exclude := make(map[string]struct{}, len(schema.Exclude))
	for _, e := range schema.Exclude {
		exclude[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	var records []TabularRecord
	for i := layout.headerRow + 1; i < len(rows); i++ {
		rec, ok := layout.record(rows[i].fields, schema, exclude)
		if !ok {
			continue
		}
		rec.Row = rows[i].line
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &EmptyResultError{Source: source, What: "rows"}
	}
	return records, nil
}

type csvRow struct {
	line   int
	fields []string
}

// readRows reads every non-blank row, tolerating ragged rows and stray
// quotes in unquoted fields.
func readRows(text string) ([]csvRow, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows []csvRow
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlankRow(fields) {
			continue
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, csvRow{line: line, fields: fields})
	}
	return rows, nil
}

func isBlankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func maxWidth(rows []csvRow) int {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.fields))
	}
	return width
}

type columnLayout struct {
	headerRow int
	key       int
	value     int
	secondary map[string]int
}

// locateHeader returns the first row naming both the key and value columns.
func locateHeader(rows []csvRow, schema Schema) (columnLayout, bool) {
	if schema.KeyColumn == "" || schema.ValueColumn == "" {
		return columnLayout{}, false
	}
	for i, row := range rows {
		key, value := -1, -1
		for j, cell := range row.fields {
			switch {
			case key < 0 && sameColumn(cell, schema.KeyColumn):
				key = j
			case value < 0 && sameColumn(cell, schema.ValueColumn):
				value = j
			}
		}
		if key < 0 || value < 0 {
			continue
		}
		layout := columnLayout{headerRow: i, key: key, value: value}
		for _, name := range schema.Secondary {
			for j, cell := range row.fields {
				if sameColumn(cell, name) {
					if layout.secondary == nil {
						layout.secondary = make(map[string]int)
					}
					layout.secondary[name] = j
					break
				}
			}
		}
		return layout, true
	}
	return columnLayout{}, false
}

func sameColumn(cell, name string) bool {
	return strings.EqualFold(strings.Trim(cell, quoteCutset), strings.TrimSpace(name))
}

func (l columnLayout) record(fields []string, schema Schema, exclude map[string]struct{}) (TabularRecord, bool) {
	if l.key >= len(fields) || l.value >= len(fields) {
		return TabularRecord{}, false
	}
	key := strings.Trim(fields[l.key], quoteCutset)
	if key == "" {
		return TabularRecord{}, false
	}
	if excluded(exclude, key) || excluded(exclude, fields[0]) {
		return TabularRecord{}, false
	}
	if schema.KeyKind == KeyFIPS {
		if _, ok := NormalizeFIPS(key); !ok {
			return TabularRecord{}, false
		}
	}

	value, ok := ParseValue(fields[l.value])
	if !ok || !schema.inRange(value) {
		return TabularRecord{}, false
	}

	rec := TabularRecord{Key: key, Value: value}
	for name, col := range l.secondary {
		if col >= len(fields) {
			continue
		}
		if v, ok := ParseValue(fields[col]); ok {
			if rec.Secondary == nil {
				rec.Secondary = make(map[string]float64, len(l.secondary))
			}
			rec.Secondary[name] = v
		}
	}
	return rec, true
}

func excluded(exclude map[string]struct{}, cell string) bool {
	if len(exclude) == 0 {
		return false
	}
	_, ok := exclude[strings.ToLower(strings.Trim(cell, quoteCutset))]
	return ok
}

func (s Schema) inRange(v float64) bool {
	if !s.AllowNonPositive && v <= 0 {
		return false
	}
	if s.Max != 0 && v > s.Max {
		return false
	}
	return true
}

// ParseValue extracts a finite number from a formatted cell. Quotes,
// currency symbols, thousands separators, percent signs and whitespace are
// removed, and a trailing parenthesized annotation such as a standard error
// ("47.0 (1.4)") is ignored. A cell that is entirely parenthesized is
// rejected rather than read as a negative amount.
func ParseValue(cell string) (float64, bool) {
	s := strings.Trim(cell, quoteCutset)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', '%', ' ', '\t', '"', '\'', '\u00a0':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rateSchema = Schema{KeyColumn: "County", ValueColumn: "Rate", KeyKind: KeyName}

func TestParseTable_HeaderLookup(t *testing.T) {
	records, err := ParseTable("rates", "County,Rate\nFulton,32.9\nDeKalb,33.5\n", rateSchema)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, TabularRecord{Key: "Fulton", Value: 32.9, Row: 2}, records[0])
	assert.Equal(t, TabularRecord{Key: "DeKalb", Value: 33.5, Row: 3}, records[1])
}

func TestParseTable_ColumnsInAnyOrder(t *testing.T) {
	records, err := ParseTable("rates", "Rate,Notes,County\n32.9,,Fulton\n", rateSchema)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Fulton", records[0].Key)
	assert.Equal(t, 32.9, records[0].Value)
}

func TestParseTable_TitleLinesAndQuotedCurrency(t *testing.T) {
	text := "Median Household Income by County\n" +
		"Source: American Community Survey, 5-year estimates\n" +
		"\n" +
		"County,FIPS,Value (Dollars)\n" +
		"Georgia,13000,\"$71,355\"\n" +
		"Fulton County,13121,\"$90,337\"\n" +
		"Appling County,13001,\"$45,103\"\n" +
		"Baker County,13007,(X)\n" +
		"United States,00000,\"$77,719\"\n"
	schema := Schema{
		KeyColumn:   "FIPS",
		ValueColumn: "Value (Dollars)",
		KeyKind:     KeyFIPS,
		Exclude:     []string{"Georgia", "United States"},
	}

	records, err := ParseTable("income", text, schema)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "13121", records[0].Key)
	assert.Equal(t, 90337.0, records[0].Value)
	assert.Equal(t, 6, records[0].Row)
	assert.Equal(t, "13001", records[1].Key)
	assert.Equal(t, 45103.0, records[1].Value)
}

func TestParseTable_SecondaryColumns(t *testing.T) {
	text := "Hypertension among adults aged 18 and over\n" +
		"Survey Period ,All,Men ,Women\n" +
		"1999-2000,47.0 (1.4),49.9 (1.8),44.0 (1.6)\n" +
		"2017-2018,45.4 (1.2),51.0 (1.6),n/a\n"
	schema := Schema{KeyColumn: "Survey Period", ValueColumn: "All", Secondary: []string{"Men", "Women"}}

	records, err := ParseTable("trend", text, schema)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1999-2000", records[0].Key)
	assert.Equal(t, 47.0, records[0].Value)
	assert.Equal(t, map[string]float64{"Men": 49.9, "Women": 44.0}, records[0].Secondary)
	assert.Equal(t, map[string]float64{"Men": 51.0}, records[1].Secondary)
}

func TestParseTable_SkipsInvalidRows(t *testing.T) {
	text := "County,Rate\n" +
		"Fulton,32.9\n" +
		",40.0\n" +
		"Cobb,not a number\n" +
		"Clay,-3\n" +
		"Dade,0\n" +
		"Echols,NaN\n" +
		"Lee,Inf\n" +
		",,\n" +
		"Short\n" +
		"Bibb,31.1\n"

	records, err := ParseTable("rates", text, rateSchema)

	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.False(t, math.IsNaN(r.Value) || math.IsInf(r.Value, 0))
		assert.Positive(t, r.Value)
	}
	assert.Equal(t, "Fulton", records[0].Key)
	assert.Equal(t, "Bibb", records[1].Key)
}

func TestParseTable_RangeBounds(t *testing.T) {
	schema := rateSchema
	schema.Max = 100
	records, err := ParseTable("rates", "County,Rate\nFulton,32.9\nCobb,120\n", schema)
	require.NoError(t, err)
	require.Len(t, records, 1)

	schema = rateSchema
	schema.AllowNonPositive = true
	records, err = ParseTable("rates", "County,Rate\nFulton,0\nCobb,-1.5\n", schema)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestParseTable_KeepsDuplicates(t *testing.T) {
	records, err := ParseTable("rates", "County,Rate\nFulton,30\nFulton,31\n", rateSchema)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 30.0, records[0].Value)
	assert.Equal(t, 31.0, records[1].Value)
}

func TestParseTable_PositionalFallback(t *testing.T) {
	schema := rateSchema
	schema.PositionalFallback = true

	records, err := ParseTable("rates", "Fulton,32.9\nDeKalb,33.5\n", schema)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "DeKalb", records[1].Key)
	assert.Equal(t, 33.5, records[1].Value)
}

func TestParseTable_Errors(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		_, err := ParseTable("rates", "  \n\n", rateSchema)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, "rates", parseErr.Source)
	})

	t.Run("unrecognizable header without fallback", func(t *testing.T) {
		_, err := ParseTable("rates", "Name,Amount\nFulton,32.9\n", rateSchema)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Contains(t, parseErr.Error(), `"County"`)
		assert.Equal(t, "ParseError", ErrorKind(err))
	})

	t.Run("fallback impossible with single column", func(t *testing.T) {
		schema := rateSchema
		schema.PositionalFallback = true
		_, err := ParseTable("rates", "just a title\nanother line\n", schema)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("header but no usable rows", func(t *testing.T) {
		_, err := ParseTable("rates", "County,Rate\nFulton,n/a\nCobb,\n", rateSchema)
		var emptyErr *EmptyResultError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, "rows", emptyErr.What)
		assert.False(t, errors.Is(err, ErrTooFewPoints))
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		cell   string
		want   float64
		wantOK bool
	}{
		{"32.9", 32.9, true},
		{`"90,337"`, 90337, true},
		{"$90,337", 90337, true},
		{"38.2%", 38.2, true},
		{"47.0 (1.4)", 47.0, true},
		{" 1 234 ", 1234, true},
		{"-2.5", -2.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"(X)", 0, false},
		{"NaN", 0, false},
		{"+Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseValue(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

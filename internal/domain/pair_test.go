package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPair_ByName(t *testing.T) {
	income := []TabularRecord{
		{Key: "Fulton County", Value: 90337},
		{Key: "Appling County", Value: 45103},
		{Key: "Chatham County", Value: 64000},
	}
	rates := []TabularRecord{
		{Key: "APPLING", Value: 41.2},
		{Key: "Fulton", Value: 32.9},
	}

	points := Pair(income, rates, KeyName)

	assert.Equal(t, []Point{
		{Label: "Fulton County", X: 90337, Y: 32.9},
		{Label: "Appling County", X: 45103, Y: 41.2},
	}, points)
}

func TestPair_DuplicatesLastWins(t *testing.T) {
	xs := []TabularRecord{{Key: "13121", Value: 1}, {Key: "13121", Value: 2}}
	ys := []TabularRecord{{Key: "13121", Value: 10}, {Key: "13121", Value: 20}}

	points := Pair(xs, ys, KeyFIPS)

	assert.Equal(t, []Point{{Label: "13121", X: 2, Y: 20}}, points)
}

func TestPair_NoOverlap(t *testing.T) {
	points := Pair([]TabularRecord{{Key: "Fulton", Value: 1}}, []TabularRecord{{Key: "Cobb", Value: 2}}, KeyName)
	assert.Empty(t, points)
}

package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits_RoundsHalfUp(t *testing.T) {
	cases := map[string]int64{
		"25.50":  2550,
		"25.505": 2551,
		"25.504": 2550,
		"0.005":  1,
		"0.004":  0,
		"10":     1000,
		"19.99":  1999,
		"0":      0,
	}

	for in, want := range cases {
		assert.Equal(t, want, ToMinorUnits(decimal.RequireFromString(in)), in)
	}
}

func TestSumLines(t *testing.T) {
	lines := []CartLine{
		{ProductID: 1, Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: 2, Price: decimal.RequireFromString("5.50"), Quantity: 1},
	}

	total := SumLines(lines)
	assert.True(t, total.Equal(decimal.RequireFromString("25.50")), total.String())

	assert.True(t, SumLines(nil).IsZero())
}

package rtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultMultipliers = []float64{4, 2, 1.4, 0, 0.5, 0, 1.2, 1.5, 5}

func TestBuildZones_DefaultBoard(t *testing.T) {
	z := BuildZones(defaultMultipliers)

	assert.Equal(t, []int{3, 5}, z.Red)
	assert.Equal(t, []int{2, 4, 6}, z.Yellow)
	assert.Equal(t, []int{0, 1, 7, 8}, z.Green)

	assert.Equal(t, []int{0, 8}, z.GreenHigh)
	assert.Equal(t, []int{1, 7}, z.GreenLow)
	assert.Equal(t, []int{2, 6}, z.YellowHigh)
	assert.Equal(t, []int{4}, z.YellowLow)
}

func TestBuildZones_AllWinning(t *testing.T) {
	z := BuildZones([]float64{2, 3, 4})

	assert.Empty(t, z.Red)
	assert.Empty(t, z.Yellow)
	assert.Equal(t, []int{0, 1, 2}, z.Green)
	// Ceil split puts two of three in the high half.
	assert.Equal(t, []int{1, 2}, z.GreenHigh)
	assert.Equal(t, []int{0}, z.GreenLow)
}

func TestSplitByMagnitude_TiesBreakByIndex(t *testing.T) {
	multipliers := []float64{1.5, 1.5, 1.5, 1.5}
	high, low := splitByMagnitude([]int{0, 1, 2, 3}, multipliers)

	assert.Equal(t, []int{0, 1}, high)
	assert.Equal(t, []int{2, 3}, low)
}

func TestSplitByMagnitude_Empty(t *testing.T) {
	high, low := splitByMagnitude(nil, defaultMultipliers)
	assert.Nil(t, high)
	assert.Nil(t, low)
}

package rtp

import "sort"

// Multipliers below this are payable but not a win for the player.
const winningMultiplier = 1.5

// Zones partitions the multiplier array indices by outcome color, plus
// the high/low magnitude subsets the governor steers between.
type Zones struct {
	Red    []int
	Yellow []int
	Green  []int

	YellowHigh []int
	YellowLow  []int
	GreenHigh  []int
	GreenLow   []int
}

// BuildZones derives the color zones from a configured multiplier array:
// RED holds the zero multipliers, GREEN the winning ones, YELLOW the
// rest. GREEN and YELLOW are split into high/low halves by multiplier
// magnitude, ties broken by index.
func BuildZones(multipliers []float64) Zones {
	var z Zones
	for i, m := range multipliers {
		switch {
		case m == 0:
			z.Red = append(z.Red, i)
		case m >= winningMultiplier:
			z.Green = append(z.Green, i)
		default:
			z.Yellow = append(z.Yellow, i)
		}
	}
	z.GreenHigh, z.GreenLow = splitByMagnitude(z.Green, multipliers)
	z.YellowHigh, z.YellowLow = splitByMagnitude(z.Yellow, multipliers)
	return z
}

// splitByMagnitude puts the top half (by multiplier, ceil for odd sizes)
// into high and the remainder into low. Both halves come back sorted by
// index.
func splitByMagnitude(zone []int, multipliers []float64) (high, low []int) {
	if len(zone) == 0 {
		return nil, nil
	}

	ordered := make([]int, len(zone))
	copy(ordered, zone)
	sort.SliceStable(ordered, func(a, b int) bool {
		if multipliers[ordered[a]] != multipliers[ordered[b]] {
			return multipliers[ordered[a]] > multipliers[ordered[b]]
		}
		return ordered[a] < ordered[b]
	})

	cut := (len(ordered) + 1) / 2
	high = append([]int(nil), ordered[:cut]...)
	low = append([]int(nil), ordered[cut:]...)
	sort.Ints(high)
	sort.Ints(low)
	return high, low
}

package processor

import "math"

// Simulation time units. One in-game hour is 2500 ticks.
const (
	TicksPerHour = 2500
	TicksPerDay  = 24 * TicksPerHour

	// RareTickInterval is the cadence of TickRare.
	RareTickInterval = 250

	// SpoilCheckInterval is how often a smoker checks whether its contents rotted away.
	SpoilCheckInterval = 250
)

// crossedInterval reports whether a multiple of interval lies in (from, to].
func crossedInterval(from, to int64, interval int64) bool {
	if interval <= 0 || to <= from {
		return false
	}
	return to/interval > from/interval
}

// ticksToBoundary is how many ticks from at reach the next multiple of interval.
func ticksToBoundary(at, interval int64) int {
	if interval <= 0 {
		return math.MaxInt
	}
	return int(interval - at%interval)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerpDouble(inFrom, inTo, outFrom, outTo, x float64) float64 {
	if inTo == inFrom {
		return outTo
	}
	t := (x - inFrom) / (inTo - inFrom)
	return outFrom + (outTo-outFrom)*t
}

// weightedAverage blends a with weight aw and b with weight bw.
func weightedAverage(a float64, aw int, b float64, bw int) float64 {
	total := aw + bw
	if total <= 0 {
		return 0
	}
	return (a*float64(aw) + b*float64(bw)) / float64(total)
}

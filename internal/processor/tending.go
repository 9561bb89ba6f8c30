package processor

import (
	"math"
	"math/rand/v2"
)

const (
	neglectedSpeedFactor = 0.75

	// trimFraction of the current contents is cut away per trim pass.
	trimFraction = 0.05

	// rotTrimThreshold is the rot progress at which tending starts trimming.
	rotTrimThreshold = 0.05

	// RotTicksPerTrimmedUnit is how much rot one trimmed unit takes with it.
	RotTicksPerTrimmedUnit = 1000
)

// TendingModel tracks neglect and rot for a processor that needs regular care.
type TendingModel struct {
	intervalTicks     int
	ticksSinceTending int
	rottingTicks      int
}

func NewTendingModel(intervalTicks int) TendingModel {
	return TendingModel{intervalTicks: intervalTicks}
}

func (m TendingModel) TicksSinceTending() int { return m.ticksSinceTending }

func (m TendingModel) RottingTicks() int { return m.rottingTicks }

func (m TendingModel) NeedsTending() bool {
	return m.intervalTicks > 0 && m.ticksSinceTending >= m.intervalTicks
}

// SpeedFactor slows progress while the processor is overdue for tending.
func (m TendingModel) SpeedFactor() float64 {
	if m.NeedsTending() {
		return neglectedSpeedFactor
	}
	return 1
}

// RotProgress is accumulated rot as a fraction of one day.
func (m TendingModel) RotProgress() float64 {
	return float64(m.rottingTicks) / TicksPerDay
}

// Spoiled reports whether the contents have rotted for a full day.
func (m TendingModel) Spoiled() bool {
	return m.rottingTicks >= TicksPerDay
}

// ticksUntilNeglected is how many more ticks pass before tending is due, or 0
// when it is already due or the model has no interval.
func (m TendingModel) ticksUntilNeglected() int {
	if m.intervalTicks <= 0 {
		return 0
	}
	return max(0, m.intervalTicks-m.ticksSinceTending)
}

func (m *TendingModel) neglect(delta int) { m.ticksSinceTending += delta }

func (m *TendingModel) clearNeglect() { m.ticksSinceTending = 0 }

func (m *TendingModel) rot(delta int) { m.rottingTicks += delta }

func (m *TendingModel) resetRot() { m.rottingTicks = 0 }

// rotTicks converts an item's rot progress into rotting ticks. NaN and
// out-of-range values are clamped to [0, 1] of a day.
func rotTicks(progress float64) int {
	if math.IsNaN(progress) {
		return 0
	}
	return int(clamp01(progress) * TicksPerDay)
}

// blendRot lerps stored rot toward the rot of incoming input by weight t.
func (m *TendingModel) blendRot(incomingTicks int, t float64) {
	t = clamp01(t)
	m.rottingTicks = int(float64(m.rottingTicks) + (float64(incomingTicks)-float64(m.rottingTicks))*t)
}

// tend clears neglect and trims rotten portions from random sub-stacks of
// manifest until rot drops under the threshold. It returns the units removed.
func (m *TendingModel) tend(manifest *SourceManifest, rng *rand.Rand) int {
	m.ticksSinceTending = 0

	trimmed := 0
	for m.RotProgress() >= rotTrimThreshold {
		amount := int(float64(manifest.Total()) * trimFraction)
		rotRemoved := 0
		if amount > 0 {
			removed, _ := manifest.Trim(manifest.PickUniform(rng), amount)
			trimmed += removed
			rotRemoved = removed * RotTicksPerTrimmedUnit
		}
		// A pass that trims nothing would spin forever.
		if rotRemoved <= 0 {
			m.rottingTicks = 0
			break
		}
		m.rottingTicks = max(0, m.rottingTicks-rotRemoved)
	}
	return trimmed
}

func (m *TendingModel) restore(ticksSinceTending, rottingTicks int) {
	m.ticksSinceTending = ticksSinceTending
	m.rottingTicks = rottingTicks
}

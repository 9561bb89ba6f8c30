package processor

import "math"

// progressEpsilon absorbs float drift when progress is built from many small steps.
const progressEpsilon = 1e-9

// ProgressClock turns elapsed ticks into a bounded progress fraction.
type ProgressClock struct {
	progress          float64
	baseDurationTicks int
}

// NewProgressClock returns a clock that needs baseDurationTicks at speed 1.0.
func NewProgressClock(baseDurationTicks int) ProgressClock {
	return ProgressClock{baseDurationTicks: baseDurationTicks}
}

func (c ProgressClock) Progress() float64 { return c.progress }

func (c ProgressClock) BaseDurationTicks() int { return c.baseDurationTicks }

// Rate is the progress gained per tick at speedFactor.
func (c ProgressClock) Rate(speedFactor float64) float64 {
	if c.baseDurationTicks <= 0 || speedFactor <= 0 {
		return 0
	}
	return speedFactor / float64(c.baseDurationTicks)
}

// Set stores p clamped to [0,1] and reports whether the value changed.
func (c *ProgressClock) Set(p float64) bool {
	if math.IsNaN(p) {
		p = 0
	}
	p = clamp01(p)
	if p >= 1-progressEpsilon {
		p = 1
	}
	if p == c.progress {
		return false
	}
	c.progress = p
	return true
}

// TicksToFinish is how many ticks at speedFactor bring progress to 1, or 0
// when the clock is already full or not moving.
func (c ProgressClock) TicksToFinish(speedFactor float64) int {
	rate := c.Rate(speedFactor)
	if rate <= 0 || c.progress >= 1 {
		return 0
	}
	return max(1, int(math.Ceil((1-c.progress-progressEpsilon)/rate)))
}

// Advance moves progress forward by deltaTicks at speedFactor.
func (c *ProgressClock) Advance(deltaTicks int, speedFactor float64) bool {
	if deltaTicks <= 0 {
		return false
	}
	return c.Set(c.progress + float64(deltaTicks)*c.Rate(speedFactor))
}

// Decay moves progress backwards by the same amount Advance would add.
func (c *ProgressClock) Decay(deltaTicks int, speedFactor float64) bool {
	if deltaTicks <= 0 {
		return false
	}
	return c.Set(c.progress - float64(deltaTicks)*c.Rate(speedFactor))
}

// EstimatedTicksLeft is the number of ticks until progress reaches 1 at
// speedFactor. A zero rate yields 0 rather than an infinite estimate.
func (c ProgressClock) EstimatedTicksLeft(speedFactor float64) int {
	rate := c.Rate(speedFactor)
	if rate <= 0 {
		return 0
	}
	left := int(math.Round((1 - c.progress) / rate))
	if left < 0 {
		return 0
	}
	return left
}

func (c *ProgressClock) Reset() bool {
	return c.Set(0)
}

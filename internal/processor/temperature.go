package processor

const (
	// minSpeedFactor keeps cold processors crawling instead of freezing solid.
	minSpeedFactor = 0.1

	// acceptMargin keeps new input away from the edges of the safe range.
	acceptMargin = 2.0
)

// TemperatureRange holds the thresholds of the temperature speed model, in °C.
type TemperatureRange struct {
	MinSafe  float64 `json:"min_safe"`
	MinIdeal float64 `json:"min_ideal" validate:"gtefield=MinSafe"`
	MaxSafe  float64 `json:"max_safe" validate:"gtfield=MinIdeal"`
}

// SpeedFactor maps an ambient temperature to a progress multiplier in [0.1, 1].
// Warmth above MinIdeal never speeds conversion up further.
func (r TemperatureRange) SpeedFactor(ambient float64) float64 {
	if ambient < r.MinSafe {
		return minSpeedFactor
	}
	if ambient < r.MinIdeal {
		return lerpDouble(r.MinSafe, r.MinIdeal, minSpeedFactor, 1, ambient)
	}
	return 1
}

// Acceptable reports whether new input may be loaded at ambient. It gates
// deposits only; progress speed is governed by SpeedFactor.
func (r TemperatureRange) Acceptable(ambient float64) bool {
	return ambient >= r.MinSafe+acceptMargin && ambient <= r.MaxSafe-acceptMargin
}

// Ideal reports whether ambient sits in the band where speed is unimpaired.
func (r TemperatureRange) Ideal(ambient float64) bool {
	return ambient >= r.MinIdeal && ambient <= r.MaxSafe
}

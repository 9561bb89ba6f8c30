package processor

import (
	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/platform/validate"
)

// DefaultSmokerAcceptWindow is the progress after which a smoker stops taking food.
const DefaultSmokerAcceptWindow = 0.045

// Config is the fixed, per-instance configuration of a processor.
type Config struct {
	Kind              Kind    `json:"kind" validate:"required,oneof=charcoal_pit vinegar_barrel cheese_barrel smoker"`
	Capacity          int     `json:"capacity" validate:"gt=0"`
	BaseDurationTicks int     `json:"base_duration_ticks" validate:"gt=0"`
	YieldPerUnit      float64 `json:"yield_per_unit" validate:"gte=0"`
	TendIntervalTicks int     `json:"tend_interval_ticks" validate:"gte=0"`
	AcceptWindow      float64 `json:"accept_window" validate:"gte=0,lte=1"`
	// Temperature is required by every variant except the charcoal pit.
	Temperature *TemperatureRange `json:"temperature,omitempty" validate:"required_unless=Kind charcoal_pit"`
}

// Validate checks cfg against its tags and the variant rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return perr.WithOp(err, "processor.config")
	}
	if c.Kind == KindSmoker && c.TendIntervalTicks <= 0 {
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "smoker needs a positive tend interval, got %d", c.TendIntervalTicks), "tend_interval_ticks")
	}
	if c.Kind == KindCharcoalPit && c.YieldPerUnit <= 0 {
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "charcoal pit needs a positive yield, got %.2f", c.YieldPerUnit), "yield_per_unit")
	}
	return nil
}

// DefaultConfig returns the stock tuning for kind.
func DefaultConfig(kind Kind) Config {
	switch kind {
	case KindCharcoalPit:
		return Config{
			Kind:              KindCharcoalPit,
			Capacity:          25,
			BaseDurationTicks: 8 * TicksPerHour,
			YieldPerUnit:      3,
		}
	case KindVinegarBarrel:
		return Config{
			Kind:              KindVinegarBarrel,
			Capacity:          25,
			BaseDurationTicks: 10 * TicksPerDay,
			YieldPerUnit:      1,
			Temperature:       &TemperatureRange{MinSafe: -1, MinIdeal: 7, MaxSafe: 32},
		}
	case KindCheeseBarrel:
		return Config{
			Kind:              KindCheeseBarrel,
			Capacity:          25,
			BaseDurationTicks: 10 * TicksPerDay,
			YieldPerUnit:      1,
			Temperature:       &TemperatureRange{MinSafe: -1, MinIdeal: 7, MaxSafe: 32},
		}
	case KindSmoker:
		return Config{
			Kind:              KindSmoker,
			Capacity:          60,
			BaseDurationTicks: 24 * TicksPerHour,
			YieldPerUnit:      1,
			TendIntervalTicks: 2 * TicksPerHour,
			AcceptWindow:      DefaultSmokerAcceptWindow,
			Temperature:       &TemperatureRange{MinSafe: -50, MinIdeal: 7, MaxSafe: 100},
		}
	default:
		return Config{Kind: kind}
	}
}

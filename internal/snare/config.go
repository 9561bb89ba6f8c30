package snare

import (
	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/platform/validate"
)

// Config is the tuning shared by every snare on a map.
type Config struct {
	// BaseSpringChance is used for creatures unaware of the snare.
	BaseSpringChance float64 `json:"base_spring_chance" validate:"gte=0,lte=1"`
	// FailChance and BreakChance are percentages before difficulty scaling.
	FailChance  float64 `json:"fail_chance" validate:"gte=0,lte=100"`
	BreakChance float64 `json:"break_chance" validate:"gte=0,lte=100"`
	Difficulty  int     `json:"difficulty" validate:"gte=0,lte=10"`

	Notification  NotificationType `json:"notification" validate:"required,oneof=none silent_text text_with_sound letter"`
	AllowPositive bool             `json:"allow_positive"`
	AllowNegative bool             `json:"allow_negative"`
}

// DefaultConfig is the stock snare tuning.
func DefaultConfig() Config {
	return Config{
		BaseSpringChance: 1,
		FailChance:       10,
		BreakChance:      5,
		Difficulty:       2,
		Notification:     NotifyLetter,
		AllowPositive:    true,
		AllowNegative:    true,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return perr.WithOp(err, "snare.config")
	}
	return nil
}

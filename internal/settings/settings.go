// Package settings holds the player-tunable knobs of the processors and
// snares. A Settings value is built once and passed to constructors; nothing
// here is global.
package settings

import (
	"github.com/appengine-ltd/survivalist-processors/internal/platform/config"
	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/platform/validate"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"
)

// EnvPrefix namespaces every settings variable.
const EnvPrefix = "SRV_"

// Settings mirrors the mod options screen. Bounds are the slider ranges.
type Settings struct {
	VinegarCapacity    int `json:"vinegar_capacity" validate:"gte=1,lte=75"`
	VinegarFermentDays int `json:"vinegar_ferment_days" validate:"gte=1,lte=30"`

	CheeseCapacity  int `json:"cheese_capacity" validate:"gte=1,lte=75"`
	CheeseAgingDays int `json:"cheese_aging_days" validate:"gte=1,lte=30"`

	SmokerCapacity   int `json:"smoker_capacity" validate:"gte=10,lte=75"`
	SmokerSmokeHours int `json:"smoker_smoke_hours" validate:"gte=4,lte=72"`
	SmokerTendHours  int `json:"smoker_tend_hours" validate:"gte=1,lte=4"`

	CharcoalCapacity  int     `json:"charcoal_capacity" validate:"gte=5,lte=75"`
	CharcoalBurnHours int     `json:"charcoal_burn_hours" validate:"gte=1,lte=48"`
	CharcoalPerLog    float64 `json:"charcoal_per_log" validate:"gte=0.5,lte=5"`

	PlantDensity float64 `json:"plant_density" validate:"gte=0,lte=5"`

	SnareFailChance          float64                `json:"snare_fail_chance" validate:"gte=0,lte=100"`
	SnareBreakChance         float64                `json:"snare_break_chance" validate:"gte=0,lte=100"`
	SnareUnawareSpringChance float64                `json:"snare_unaware_spring_chance" validate:"gte=0,lte=1"`
	SnareNotification        snare.NotificationType `json:"snare_notification" validate:"required,oneof=none silent_text text_with_sound letter"`
	SnareAllowPositive       bool                   `json:"snare_allow_positive"`
	SnareAllowNegative       bool                   `json:"snare_allow_negative"`
	Difficulty               int                    `json:"difficulty" validate:"gte=0,lte=10"`
}

// Defaults returns the stock settings.
func Defaults() Settings {
	sn := snare.DefaultConfig()
	return Settings{
		VinegarCapacity:    25,
		VinegarFermentDays: 10,

		CheeseCapacity:  25,
		CheeseAgingDays: 10,

		SmokerCapacity:   60,
		SmokerSmokeHours: 24,
		SmokerTendHours:  2,

		CharcoalCapacity:  25,
		CharcoalBurnHours: 8,
		CharcoalPerLog:    3,

		PlantDensity: 1,

		SnareFailChance:          sn.FailChance,
		SnareBreakChance:         sn.BreakChance,
		SnareNotification:        sn.Notification,
		SnareAllowPositive:       sn.AllowPositive,
		SnareAllowNegative:       sn.AllowNegative,
		Difficulty:               sn.Difficulty,
		SnareUnawareSpringChance: sn.BaseSpringChance,
	}
}

// FromEnv overlays SRV_* variables on the defaults and validates the result.
func FromEnv() (Settings, error) {
	return Load(config.New().Prefix(EnvPrefix))
}

// Load overlays c on the defaults and validates the result.
func Load(c config.Conf) (Settings, error) {
	d := Defaults()

	vin := c.Prefix("VINEGAR_")
	d.VinegarCapacity = vin.MayInt("CAPACITY", d.VinegarCapacity)
	d.VinegarFermentDays = vin.MayInt("FERMENT_DAYS", d.VinegarFermentDays)

	chz := c.Prefix("CHEESE_")
	d.CheeseCapacity = chz.MayInt("CAPACITY", d.CheeseCapacity)
	d.CheeseAgingDays = chz.MayInt("AGING_DAYS", d.CheeseAgingDays)

	smk := c.Prefix("SMOKER_")
	d.SmokerCapacity = smk.MayInt("CAPACITY", d.SmokerCapacity)
	d.SmokerSmokeHours = smk.MayInt("SMOKE_HOURS", d.SmokerSmokeHours)
	d.SmokerTendHours = smk.MayInt("TEND_HOURS", d.SmokerTendHours)

	pit := c.Prefix("CHARCOAL_")
	d.CharcoalCapacity = pit.MayInt("CAPACITY", d.CharcoalCapacity)
	d.CharcoalBurnHours = pit.MayInt("BURN_HOURS", d.CharcoalBurnHours)
	d.CharcoalPerLog = pit.MayFloat64("PER_LOG", d.CharcoalPerLog)

	d.PlantDensity = c.MayFloat64("PLANT_DENSITY", d.PlantDensity)
	d.Difficulty = c.MayInt("DIFFICULTY", d.Difficulty)

	sn := c.Prefix("SNARE_")
	d.SnareFailChance = sn.MayFloat64("FAIL_CHANCE", d.SnareFailChance)
	d.SnareBreakChance = sn.MayFloat64("BREAK_CHANCE", d.SnareBreakChance)
	d.SnareUnawareSpringChance = sn.MayFloat64("SPRING_CHANCE", d.SnareUnawareSpringChance)
	d.SnareAllowPositive = sn.MayBool("ALLOW_POSITIVE", d.SnareAllowPositive)
	d.SnareAllowNegative = sn.MayBool("ALLOW_NEGATIVE", d.SnareAllowNegative)
	d.SnareNotification = snare.NotificationType(sn.MayEnum("NOTIFICATION", string(d.SnareNotification),
		"none", "silent_text", "text_with_sound", "letter"))

	if err := d.Validate(); err != nil {
		return Settings{}, err
	}
	return d, nil
}

func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return perr.WithOp(err, "settings")
	}
	return nil
}

// ProcessorConfig builds the processor configuration for kind.
func (s Settings) ProcessorConfig(kind processor.Kind) (processor.Config, error) {
	cfg := processor.DefaultConfig(kind)
	switch kind {
	case processor.KindVinegarBarrel:
		cfg.Capacity = s.VinegarCapacity
		cfg.BaseDurationTicks = s.VinegarFermentDays * processor.TicksPerDay
	case processor.KindCheeseBarrel:
		cfg.Capacity = s.CheeseCapacity
		cfg.BaseDurationTicks = s.CheeseAgingDays * processor.TicksPerDay
	case processor.KindSmoker:
		cfg.Capacity = s.SmokerCapacity
		cfg.BaseDurationTicks = s.SmokerSmokeHours * processor.TicksPerHour
		cfg.TendIntervalTicks = s.SmokerTendHours * processor.TicksPerHour
	case processor.KindCharcoalPit:
		cfg.Capacity = s.CharcoalCapacity
		cfg.BaseDurationTicks = s.CharcoalBurnHours * processor.TicksPerHour
		cfg.YieldPerUnit = s.CharcoalPerLog
	default:
		return processor.Config{}, perr.WithField(perr.NotFoundf("unknown processor kind %q", kind), "kind")
	}
	if err := cfg.Validate(); err != nil {
		return processor.Config{}, err
	}
	return cfg, nil
}

// SnareConfig builds the snare configuration.
func (s Settings) SnareConfig() snare.Config {
	return snare.Config{
		BaseSpringChance: s.SnareUnawareSpringChance,
		FailChance:       s.SnareFailChance,
		BreakChance:      s.SnareBreakChance,
		Difficulty:       s.Difficulty,
		Notification:     s.SnareNotification,
		AllowPositive:    s.SnareAllowPositive,
		AllowNegative:    s.SnareAllowNegative,
	}
}

// Package inspect renders the player-facing inspect panel text for
// processors and snares.
package inspect

import (
	"strings"

	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

type labels struct {
	input    string
	product  string
	progress string
	finished string
}

var kindLabels = map[processor.Kind]labels{
	processor.KindCharcoalPit:   {input: "wood", product: "charcoal", progress: "Burn progress", finished: "Burned"},
	processor.KindVinegarBarrel: {input: "juice", product: "vinegar", progress: "Fermentation progress", finished: "Fermented"},
	processor.KindCheeseBarrel:  {input: "curdled milk", product: "cheese", progress: "Aging progress", finished: "Aged"},
	processor.KindSmoker:        {input: "meat", product: "smoked meat", progress: "Smoking progress", finished: "Smoked"},
}

// Processor returns the inspect lines for p.
func Processor(p *processor.Processor) string {
	lb := kindLabels[p.Kind()]
	var sb strings.Builder

	if !p.Empty() {
		what := lb.input
		if p.Finished() {
			what = lb.product
		}
		line(&sb, "Contains %d / %d %s", p.Count(), p.Capacity(), what)
		switch {
		case p.Finished():
			line(&sb, "%s", lb.finished)
		default:
			if p.NeedsTending() {
				line(&sb, "Needs tending")
			}
			line(&sb, "%s: %s (%s)", lb.progress, Percent(p.Progress()), TicksToPeriod(p.EstimatedTicksLeft()))
			if p.Policy().Tended {
				line(&sb, "Rot: %s", Percent(p.RotProgress()))
			}
			if f := p.TemperatureSpeedFactor(); f != 1 {
				line(&sb, "Out of ideal temperature: working at %s speed", Percent(f))
			}
		}
	}

	if tr := p.Config().Temperature; tr != nil {
		line(&sb, "Temperature: %.0f°C", p.AmbientTemperature())
		line(&sb, "Ideal temperature: %.0f°C ~ %.0f°C", tr.MinIdeal, tr.MaxSafe)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Snare returns the inspect lines for s.
func Snare(s *snare.Snare) string {
	var sb strings.Builder
	if s.Disabled() {
		left := snare.DisabledTicks - s.Snapshot().DisabledTicks
		line(&sb, "Disabled (re-arms in %s)", TicksToPeriod(left))
	} else if id := s.Affected(); id != "" {
		label := id
		for _, c := range s.Touching() {
			if c.ID == id && c.Label != "" {
				label = c.Label
			}
		}
		line(&sb, "Holding %s (%s grip)", label, s.Grip(id))
	}
	line(&sb, "Fail chance: %s", Percent(s.FailChance()))
	line(&sb, "Break chance: %s", Percent(s.BreakChance()))
	return strings.TrimRight(sb.String(), "\n")
}

func line(sb *strings.Builder, format string, a ...any) {
	sb.WriteString(printer.Sprintf(format, a...))
	sb.WriteByte('\n')
}

// Percent formats a fraction as a whole percentage.
func Percent(f float64) string {
	return printer.Sprintf("%.0f%%", f*100)
}

// TicksToPeriod formats a tick count as hours under a day and days above.
func TicksToPeriod(ticks int) string {
	if ticks < processor.TicksPerDay {
		return period(float64(ticks)/processor.TicksPerHour, "hour")
	}
	return period(float64(ticks)/processor.TicksPerDay, "day")
}

func period(v float64, unit string) string {
	s := printer.Sprintf("%.1f", v)
	s = strings.TrimSuffix(s, ".0")
	if s != "1" {
		unit += "s"
	}
	return s + " " + unit
}

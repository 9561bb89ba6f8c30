package sim

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/appengine-ltd/survivalist-processors/internal/inspect"
	"github.com/appengine-ltd/survivalist-processors/internal/parser"
	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"
)

const helpText = `Commands:
  place <kind> <name>         build a smoker, charcoal pit, vinegar barrel, cheese barrel or snare
  fill <name> [qty] <item>    load a processor (all that fits when qty is left out)
  tick [qty|3h|2d]            advance the world
  rare [qty]                  advance the world by rare ticks
  tend <name>                 tend a smoker
  take <name>                 take out the finished product
  ruin <name> [reason]        ruin the contents
  fuel <name> on|off          light or starve a smoker
  temp <degrees>              set the ambient temperature
  inspect <name>              show a processor or snare
  status                      show everything
  lure <snare> <animal>       walk an animal onto a snare
  clear <snare>               chase everything off a snare
  disable <snare>             disarm a snare for a while
  save <path> / load <path>   write or read the world
  quit`

// ParseContext lists the names the parser should resolve against.
func (w *World) ParseContext() parser.ParseContext {
	w.mu.Lock()
	defer w.mu.Unlock()
	return parser.ParseContext{
		Processors: append([]string(nil), w.siteOrder...),
		Snares:     append([]string(nil), w.snareOrder...),
		Kinds:      KindNames(),
		Items:      ItemDefs(),
		Animals:    AnimalLabels(),
		LastEntity: w.lastEntity,
	}
}

// Execute runs a parsed command and returns the text to show the player.
func (w *World) Execute(ctx context.Context, intent parser.Intent) (string, error) {
	if intent.Clarify != nil {
		return clarifyText(intent.Clarify), nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	arg := func(i int) string {
		if i < len(intent.Args) {
			return intent.Args[i]
		}
		return ""
	}

	switch intent.Verb {
	case "help":
		return helpText, nil
	case "quit":
		return "", nil

	case "place":
		if err := w.place(arg(0), arg(1), nil, nil); err != nil {
			return "", err
		}
		w.lastEntity = key(arg(1))
		return fmt.Sprintf("Placed %s %q.", arg(0), key(arg(1))), nil

	case "fill":
		count, err := fillCount(intent.Quantity)
		if err != nil {
			return "", err
		}
		out, err := w.fill(ctx, arg(0), arg(1), count)
		if err != nil {
			return "", err
		}
		s, _ := w.site(arg(0))
		msg := fmt.Sprintf("Loaded %d %s into %s (%d / %d).", out.Accepted, arg(1), s.Name, s.Processor().Count(), s.Processor().Capacity())
		if out.Leftover > 0 {
			msg += fmt.Sprintf(" %d left over.", out.Leftover)
		}
		return msg, nil

	case "tick", "rare":
		unit := 1
		if intent.Verb == "rare" {
			unit = processor.RareTickInterval
		}
		n, err := ticksFor(intent.Quantity, unit)
		if err != nil {
			return "", err
		}
		w.step(n)
		return fmt.Sprintf("Advanced %d ticks (%s). Tick %d.", n, inspect.TicksToPeriod(n), w.tick), nil

	case "tend":
		if _, err := w.tend(ctx, arg(0)); err != nil {
			return "", err
		}
		s, _ := w.site(arg(0))
		return fmt.Sprintf("Tended %s. Rot %s, %d left.", s.Name, inspect.Percent(s.Processor().RotProgress()), s.Processor().Count()), nil

	case "take":
		prod, err := w.take(ctx, arg(0))
		if err != nil {
			return "", err
		}
		msg := fmt.Sprintf("Took %d %s out of %s.", prod.Count, prod.Def, w.lastEntity)
		if prod.Ingredient != "" {
			msg += fmt.Sprintf(" Ingredient: %s.", prod.Ingredient)
		}
		return msg, nil

	case "ruin":
		reason := strings.Join(intent.Args[min(1, len(intent.Args)):], " ")
		if reason == "" {
			reason = "ruined by hand"
		}
		ruined, err := w.ruin(arg(0), reason)
		if err != nil {
			return "", err
		}
		if !ruined {
			return "Nothing was ruined.", nil
		}
		return fmt.Sprintf("Ruined the contents of %s.", w.lastEntity), nil

	case "fuel":
		on, ok := parser.ParseSwitch(arg(1))
		if !ok {
			return "", perr.WithField(perr.InvalidArgf("fuel wants on or off, got %q", arg(1)), "fuel")
		}
		s, err := w.setFuel(arg(0), on)
		if err != nil {
			return "", err
		}
		if on {
			return fmt.Sprintf("%s is lit.", s.Name), nil
		}
		return fmt.Sprintf("%s has run out of fuel.", s.Name), nil

	case "temp":
		t, err := strconv.ParseFloat(arg(0), 64)
		if err != nil {
			return "", perr.WithField(perr.InvalidArgf("temperature %q is not a number", arg(0)), "temp")
		}
		w.setTemperature(t)
		return fmt.Sprintf("Temperature is now %.1f°C.", t), nil

	case "inspect":
		if s, err := w.site(arg(0)); err == nil {
			w.lastEntity = s.Name
			return s.Name + "\n" + inspect.Processor(s.Processor()), nil
		}
		sn, err := w.snareSite(arg(0))
		if err != nil {
			return "", perr.WithField(perr.NotFoundf("nothing called %q", arg(0)), "name")
		}
		w.lastEntity = sn.Name
		return sn.Name + "\n" + inspect.Snare(sn.Snare), nil

	case "status":
		return statusText(w.status()), nil

	case "lure":
		c, err := w.lure(arg(0), arg(1))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("A %s wanders onto %s.", c.Label, w.lastEntity), nil

	case "clear":
		s, err := w.clearSnare(arg(0))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Chased everything off %s.", s.Name), nil

	case "disable":
		s, err := w.disable(arg(0))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is disarmed for %s.", s.Name, inspect.TicksToPeriod(snare.DisabledTicks)), nil

	case "save":
		if err := w.writeSave(arg(0), w.snapshot()); err != nil {
			return "", err
		}
		return "Saved to " + arg(0) + ".", nil

	case "load":
		st, err := readSave(arg(0))
		if err != nil {
			return "", err
		}
		if err := w.restore(st); err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaded %d processors from %s.", len(st.Processors), arg(0)), nil

	default:
		return "", perr.WithField(perr.NotFoundf("unknown command %q", intent.Verb), "verb")
	}
}

func fillCount(q *parser.Quantity) (int, error) {
	if q == nil || q.Unit == "all" {
		return 0, nil
	}
	if q.Unit != "count" {
		return 0, perr.WithField(perr.InvalidArgf("fill wants a count, got %s", q.Raw), "quantity")
	}
	return q.N, nil
}

func ticksFor(q *parser.Quantity, unit int) (int, error) {
	if q == nil {
		return unit, nil
	}
	switch q.Unit {
	case "count":
		return q.N * unit, nil
	case "hours":
		return q.N * processor.TicksPerHour, nil
	case "days":
		return q.N * processor.TicksPerDay, nil
	default:
		return 0, perr.WithField(perr.InvalidArgf("cannot advance by %q", q.Raw), "quantity")
	}
}

func clarifyText(c *parser.ClarifyQuestion) string {
	var sb strings.Builder
	sb.WriteString(c.Prompt)
	for _, opt := range c.Options {
		sb.WriteString("\n  ")
		sb.WriteString(parser.IntentToCommandString(opt))
	}
	return sb.String()
}

func statusText(st Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tick %d, %.1f°C\n", st.Tick, st.Temperature)
	if len(st.Processors) == 0 && len(st.Snares) == 0 {
		sb.WriteString("Nothing placed yet.")
		return sb.String()
	}
	for _, v := range st.Processors {
		state := "empty"
		switch {
		case v.Finished:
			state = "finished"
		case v.Count > 0:
			state = inspect.Percent(v.Progress)
		}
		fmt.Fprintf(&sb, "  %-16s %-15s %3d / %-3d %s", v.Name, v.Kind, v.Count, v.Capacity, state)
		if v.NeedsTending {
			sb.WriteString(", needs tending")
		}
		sb.WriteByte('\n')
	}
	for _, s := range st.Snares {
		state := "armed"
		switch {
		case s.Disabled:
			state = "disarmed"
		case s.Holding != "":
			state = "holding " + s.Holding
		}
		fmt.Fprintf(&sb, "  %-16s %-15s %s\n", s.Name, "snare", state)
	}
	return strings.TrimRight(sb.String(), "\n")
}

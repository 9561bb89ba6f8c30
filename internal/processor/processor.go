package processor

import (
	"math/rand/v2"

	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options carries the optional collaborators of a processor.
type Options struct {
	ID      uuid.UUID
	Logger  *zerolog.Logger
	Rand    *rand.Rand
	OnEvent func(Event)
}

// Processor is the item-processor state machine shared by every variant:
// Empty -> Filling -> Finished -> Empty. It is not safe for concurrent use;
// the owning simulation loop is the only mutator.
type Processor struct {
	id      uuid.UUID
	cfg     Config
	policy  Policy
	env     Environment
	log     zerolog.Logger
	rng     *rand.Rand
	onEvent func(Event)

	clock    ProgressClock
	ledger   CapacityLedger
	manifest SourceManifest
	tending  TendingModel
	ticks    int64
}

// New validates cfg and builds an empty processor bound to env.
func New(cfg Config, env Environment, opts Options) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		return nil, perr.InvalidArgf("processor %s: environment is required", cfg.Kind)
	}

	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	rng := opts.Rand
	if rng == nil {
		rng = seededRNG(seedFromID(id))
	}
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}

	return &Processor{
		id:      id,
		cfg:     cfg,
		policy:  PolicyFor(cfg),
		env:     env,
		log:     base.With().Str("processor", string(cfg.Kind)).Str("processor_id", id.String()).Logger(),
		rng:     rng,
		onEvent: opts.OnEvent,
		clock:   NewProgressClock(cfg.BaseDurationTicks),
		ledger:  NewCapacityLedger(cfg.Capacity),
		tending: NewTendingModel(cfg.TendIntervalTicks),
	}, nil
}

func (p *Processor) ID() uuid.UUID { return p.id }

func (p *Processor) Kind() Kind { return p.cfg.Kind }

func (p *Processor) Config() Config { return p.cfg }

func (p *Processor) Policy() Policy { return p.policy }

func (p *Processor) Capacity() int { return p.ledger.Capacity() }

func (p *Processor) Count() int { return p.ledger.Count() }

func (p *Processor) Progress() float64 { return p.clock.Progress() }

// Ticks is the number of simulation ticks this processor has been advanced.
func (p *Processor) Ticks() int64 { return p.ticks }

func (p *Processor) Empty() bool { return p.ledger.Empty() }

func (p *Processor) Finished() bool {
	return !p.Empty() && p.clock.Progress() >= 1
}

// CanAccept reports whether the acceptance window is still open.
func (p *Processor) CanAccept() bool {
	return p.policy.AcceptWindow <= 0 || p.clock.Progress() < p.policy.AcceptWindow
}

// SpaceLeft is how many units a deposit may add right now.
func (p *Processor) SpaceLeft() int {
	if p.Finished() || !p.CanAccept() {
		return 0
	}
	return p.ledger.Free()
}

// Sources returns the origin breakdown of the contents, if tracked.
func (p *Processor) Sources() []SourceCount {
	return p.manifest.Sources()
}

// TemperatureAcceptable gates new input, independently of speed.
func (p *Processor) TemperatureAcceptable() bool {
	if !p.policy.UsesTemperature || p.cfg.Temperature == nil {
		return true
	}
	return p.cfg.Temperature.Acceptable(p.env.AmbientTemperature())
}

// TemperatureSpeedFactor is the speed multiplier from ambient temperature alone.
func (p *Processor) TemperatureSpeedFactor() float64 {
	if !p.policy.UsesTemperature || p.cfg.Temperature == nil {
		return 1
	}
	return p.cfg.Temperature.SpeedFactor(p.env.AmbientTemperature())
}

// SpeedFactor combines temperature and, for tended variants, neglect.
func (p *Processor) SpeedFactor() float64 {
	f := p.TemperatureSpeedFactor()
	if p.policy.Tended {
		f *= p.tending.SpeedFactor()
	}
	return f
}

func (p *Processor) AmbientTemperature() float64 { return p.env.AmbientTemperature() }

// Burning reports whether the building is on fire.
func (p *Processor) Burning() bool { return p.env.IsBurning() }

func (p *Processor) EstimatedTicksLeft() int {
	return p.clock.EstimatedTicksLeft(p.SpeedFactor())
}

func (p *Processor) NeedsTending() bool {
	return p.policy.Tended && p.tending.NeedsTending()
}

// RotProgress is rot as a fraction of a day; always 0 for untended variants.
func (p *Processor) RotProgress() float64 {
	if !p.policy.Tended {
		return 0
	}
	return p.tending.RotProgress()
}

// Deposit loads up to item.Count units and returns how many were taken.
// A zero return means the deposit had no effect.
func (p *Processor) Deposit(item Item) int {
	if item.Count <= 0 {
		return 0
	}
	if p.Finished() {
		p.log.Warn().Str("def", item.Def).Int("count", item.Count).
			Msg("tried to add input to a finished processor; the product should be taken out first")
		return 0
	}
	if !p.policy.Accepts(item) {
		p.log.Debug().Str("def", item.Def).Str("category", string(item.Category)).
			Str("stage", item.Stage.String()).Msg("input rejected")
		return 0
	}

	before := p.ledger.Count()
	accepted, changed := p.ledger.Deposit(item.Count, p.SpaceLeft(), &p.clock)
	if accepted <= 0 {
		return 0
	}
	if changed {
		p.env.NotifyVisualDirty()
	}

	if p.policy.Tended {
		// Weighted by the count after the deposit.
		t := float64(accepted) / float64(before+accepted)
		p.tending.blendRot(rotTicks(item.RotProgress), t)
	}
	if p.policy.TracksOrigins {
		p.manifest.Add(item.Def, accepted)
		p.checkManifest()
	}

	p.log.Debug().Str("def", item.Def).Int("accepted", accepted).Int("count", p.ledger.Count()).
		Float64("progress", p.clock.Progress()).Msg("input added")
	p.emit(Event{Type: EventDeposited, Count: accepted, Def: item.Def})

	if p.policy.Tended {
		p.Tend()
	}
	return accepted
}

// Tick advances a per-tick processor by one tick.
func (p *Processor) Tick() {
	if p.policy.Cadence == CadenceTick {
		p.Advance(1)
	}
}

// TickRare advances a rare-tick processor by RareTickInterval.
func (p *Processor) TickRare() {
	if p.policy.Cadence == CadenceRare {
		p.Advance(RareTickInterval)
	}
}

// Advance moves the state machine forward by delta ticks at the current speed.
// Advance(n) ends in the same state as n calls to Advance(1).
func (p *Processor) Advance(delta int) {
	if delta <= 0 {
		return
	}
	from := p.ticks
	p.ticks += int64(delta)
	wasFinished := p.Finished()

	changed := false
	if p.policy.Tended {
		changed = p.advanceTended(from, delta)
	} else if !p.Empty() {
		changed = p.clock.Advance(delta, p.SpeedFactor())
	}
	if changed {
		p.env.NotifyVisualDirty()
	}

	if !wasFinished && p.Finished() {
		p.log.Info().Int("count", p.ledger.Count()).Msg("processing finished")
		p.emit(Event{Type: EventFinished, Count: p.ledger.Count()})
	}
}

// advanceTended steps a tended processor in chunks that never cross the
// neglect threshold, a spoil check or the finishing tick, so the speed factor
// is constant within each chunk.
func (p *Processor) advanceTended(from int64, delta int) bool {
	changed := false
	at := from
	for delta > 0 {
		if p.Empty() || p.Finished() {
			p.tending.clearNeglect()
			if crossedInterval(at, at+int64(delta), SpoilCheckInterval) && p.tending.Spoiled() {
				p.spoil()
				changed = true
			}
			return changed
		}

		step := min(delta, ticksToBoundary(at, SpoilCheckInterval))
		if left := p.tending.ticksUntilNeglected(); left > 0 {
			step = min(step, left)
		}
		factor := p.SpeedFactor()
		if !p.policy.ConsumesFuel || p.env.HasFuel() {
			if n := p.clock.TicksToFinish(factor); n > 0 {
				step = min(step, n)
			}
			changed = p.clock.Advance(step, factor) || changed
		} else {
			// Without fuel the food sits raw and starts to turn.
			changed = p.clock.Decay(step, factor) || changed
			p.tending.rot(step)
		}
		p.tending.neglect(step)
		at += int64(step)
		delta -= step

		if at%SpoilCheckInterval == 0 && p.tending.Spoiled() {
			p.spoil()
			changed = true
		}
	}
	return changed
}

func (p *Processor) spoil() {
	count := p.ledger.Count()
	p.log.Warn().Int("count", count).Int("rotting_ticks", p.tending.RottingTicks()).Msg("contents rotted away in storage")
	p.clear()
	p.emit(Event{Type: EventSpoiled, Count: count, Reason: "rotted away in storage"})
}

// Tend clears neglect and trims rotten portions. Untended variants ignore it.
func (p *Processor) Tend() {
	if !p.policy.Tended {
		p.log.Debug().Msg("tend ignored; processor does not need tending")
		return
	}
	trimmed := p.tending.tend(&p.manifest, p.rng)
	if trimmed > 0 {
		p.ledger.Remove(trimmed)
		p.log.Debug().Int("trimmed", trimmed).Int("count", p.ledger.Count()).Msg("trimmed rotten portions")
		if p.ledger.Empty() {
			p.clear()
		}
	}
	p.emit(Event{Type: EventTended, Count: trimmed})
}

// Ruin handles an external ruin signal (e.g. temperature damage) by emptying
// the processor. It reports whether anything was discarded.
func (p *Processor) Ruin(reason string) bool {
	if !p.policy.Ruinable {
		p.log.Warn().Str("reason", reason).Msg("ruin signal ignored by this processor")
		return false
	}
	if p.Empty() {
		return false
	}
	count := p.ledger.Count()
	p.log.Warn().Str("reason", reason).Int("count", count).Msg("contents ruined")
	p.clear()
	p.emit(Event{Type: EventRuined, Count: count, Reason: reason})
	return true
}

// Reset discards all contents and progress.
func (p *Processor) Reset() {
	p.clear()
	p.emit(Event{Type: EventReset})
}

func (p *Processor) clear() {
	p.ledger.Reset()
	if p.clock.Reset() {
		p.env.NotifyVisualDirty()
	}
	p.manifest.Clear()
	p.tending.resetRot()
}

// TakeOutProduct converts the finished contents into product and empties the
// processor. It returns false, with a zero Product, when not finished.
func (p *Processor) TakeOutProduct() (Product, bool) {
	if !p.Finished() {
		p.log.Warn().Int("count", p.ledger.Count()).Float64("progress", p.clock.Progress()).
			Msg("tried to take out product before processing finished")
		return Product{}, false
	}

	count := p.ledger.Count()
	out := Product{Def: p.policy.ProductDef, Count: p.policy.Yield(count)}
	if p.policy.TracksOrigins {
		if idx := p.manifest.PickWeighted(p.rng); idx >= 0 {
			out.Ingredient = p.manifest.At(idx).Def
		}
		out.Origins = p.manifest.Sources()
	}

	p.clear()
	p.log.Info().Str("product", out.Def).Int("count", out.Count).Str("ingredient", out.Ingredient).Msg("product taken out")
	p.emit(Event{Type: EventExtracted, Count: out.Count, Def: out.Def})
	return out, true
}

// checkManifest logs, without repairing, a manifest that outgrew capacity.
func (p *Processor) checkManifest() {
	if total := p.manifest.Total(); total > p.ledger.Capacity() {
		p.log.Error().Int("total", total).Int("stacks", p.manifest.stackCount()).Int("capacity", p.ledger.Capacity()).
			Msg("origin manifest holds more than capacity")
	}
}

func (p *Processor) emit(ev Event) {
	if p.onEvent == nil {
		return
	}
	ev.ProcessorID = p.id
	ev.Kind = p.cfg.Kind
	ev.Tick = p.ticks
	p.onEvent(ev)
}

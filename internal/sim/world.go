// Package sim is a headless world hosting named processors and snares. It
// plays the part of the colony game: it owns the clock, the weather, the
// fuel and a single pawn that carries out fill, tend and take jobs.
package sim

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/appengine-ltd/survivalist-processors/internal/jobs"
	"github.com/appengine-ltd/survivalist-processors/internal/parser"
	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/settings"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"

	"github.com/rs/zerolog"
)

// DefaultTemperature is the ambient temperature of a new world, in °C.
const DefaultTemperature = 20

const maxEvents = 256

// Options configures a new World.
type Options struct {
	Settings    settings.Settings
	Seed        int64
	Temperature *float64
	Logger      *zerolog.Logger
}

// Event is a processor event or snare outcome as recorded by the world.
type Event struct {
	Tick   int64  `json:"tick"`
	Source string `json:"source"`
	Type   string `json:"type"`
	Count  int    `json:"count,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Site is a placed processor.
type Site struct {
	Name     string
	Building *jobs.Building
	env      *siteEnv
}

func (s *Site) Processor() *processor.Processor { return s.Building.Processor }

// SnareSite is a placed snare and whatever is standing on it.
type SnareSite struct {
	Name      string
	Snare     *snare.Snare
	occupants []snare.Creature
}

// World is safe for concurrent use; every exported method takes the lock.
type World struct {
	mu sync.Mutex

	set         settings.Settings
	log         zerolog.Logger
	seed        int64
	temperature float64
	tick        int64
	placed      int64
	lured       int

	sites      map[string]*Site
	siteOrder  []string
	snares     map[string]*SnareSite
	snareOrder []string
	products   map[string]int
	events     []Event
	lastEntity string

	pawn   jobs.Pawn
	sched  *scheduler
	driver *jobs.Driver
}

// New builds an empty world.
func New(opts Options) (*World, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	temp := float64(DefaultTemperature)
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	w := &World{
		set:         opts.Settings,
		log:         base.With().Str("component", "sim").Logger(),
		seed:        opts.Seed,
		temperature: temp,
		sites:       make(map[string]*Site),
		snares:      make(map[string]*SnareSite),
		products:    make(map[string]int),
		pawn:        jobs.Pawn{ID: "pawn-1", Name: "Colonist"},
	}
	w.sched = &scheduler{w: w, reserved: make(map[string]string)}
	w.driver = jobs.NewDriver(w.sched, &w.log)
	return w, nil
}

func key(name string) string { return parser.Normalise(name) }

// Tick is the world clock.
func (w *World) Tick() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

func (w *World) Temperature() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.temperature
}

func (w *World) SetTemperature(t float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setTemperature(t)
}

func (w *World) setTemperature(t float64) {
	w.temperature = t
	for _, k := range w.siteOrder {
		w.sites[k].env.NotifyVisualDirty()
	}
	w.log.Info().Float64("temperature", t).Msg("temperature set")
}

// Place builds a processor or snare of kind called name.
func (w *World) Place(kind, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.place(kind, name, nil, nil)
}

func (w *World) place(kind, name string, rec *processor.Record, snRec *snare.Record) error {
	k := key(name)
	if k == "" {
		return perr.WithField(perr.InvalidArgf("a name is required"), "name")
	}
	if _, dup := w.sites[k]; dup {
		return perr.WithField(perr.InvalidArgf("%q is already placed", k), "name")
	}
	if _, dup := w.snares[k]; dup {
		return perr.WithField(perr.InvalidArgf("%q is already placed", k), "name")
	}
	w.placed++
	rng := processor.NewRand(w.seed + w.placed)
	log := w.log.With().Str("site", k).Logger()

	if key(kind) == snareKind {
		sn, err := snare.New(w.set.SnareConfig(), snare.Options{
			Logger:    &log,
			Rand:      rng,
			OnOutcome: func(o snare.Outcome) { w.recordOutcome(k, o) },
		})
		if err != nil {
			return err
		}
		if snRec != nil {
			if err := sn.Restore(*snRec); err != nil {
				return perr.WithOp(err, "sim.place")
			}
		}
		w.snares[k] = &SnareSite{Name: k, Snare: sn}
		w.snareOrder = append(w.snareOrder, k)
		w.log.Info().Str("site", k).Msg("snare placed")
		return nil
	}

	pk, err := kindFromName(kind)
	if err != nil {
		return err
	}
	cfg, err := w.set.ProcessorConfig(pk)
	if err != nil {
		return err
	}
	env := &siteEnv{w: w, fuel: true}
	p, err := processor.New(cfg, env, processor.Options{
		Logger:  &log,
		Rand:    rng,
		OnEvent: func(ev processor.Event) { w.recordEvent(k, ev) },
	})
	if err != nil {
		return err
	}
	if rec != nil {
		if err := p.Restore(*rec); err != nil {
			return perr.WithOp(err, "sim.place")
		}
	}
	w.sites[k] = &Site{Name: k, Building: &jobs.Building{ID: p.ID().String(), Processor: p}, env: env}
	w.siteOrder = append(w.siteOrder, k)
	w.log.Info().Str("site", k).Str("kind", string(pk)).Msg("processor placed")
	return nil
}

// Remove deconstructs the processor or snare called name.
func (w *World) Remove(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, err := w.site(name); err == nil {
		delete(w.sites, s.Name)
		w.siteOrder = slices.DeleteFunc(w.siteOrder, func(k string) bool { return k == s.Name })
		return nil
	}
	sn, err := w.snareSite(name)
	if err != nil {
		return err
	}
	delete(w.snares, sn.Name)
	w.snareOrder = slices.DeleteFunc(w.snareOrder, func(k string) bool { return k == sn.Name })
	return nil
}

func (w *World) site(name string) (*Site, error) {
	k := key(name)
	if s, ok := w.sites[k]; ok {
		return s, nil
	}
	if resolved, _, ok := parser.Resolve(k, w.siteOrder); ok {
		return w.sites[resolved], nil
	}
	return nil, perr.WithField(perr.NotFoundf("no processor called %q", name), "name")
}

// siteExact looks name up without fuzzy matching.
func (w *World) siteExact(name string) (*Site, error) {
	if s, ok := w.sites[key(name)]; ok {
		return s, nil
	}
	return nil, perr.WithField(perr.NotFoundf("no processor called %q", name), "name")
}

func (w *World) snareSite(name string) (*SnareSite, error) {
	k := key(name)
	if s, ok := w.snares[k]; ok {
		return s, nil
	}
	if resolved, _, ok := parser.Resolve(k, w.snareOrder); ok {
		return w.snares[resolved], nil
	}
	return nil, perr.WithField(perr.NotFoundf("no snare called %q", name), "name")
}

// Processor returns the processor called name.
func (w *World) Processor(name string) (*processor.Processor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.site(name)
	if err != nil {
		return nil, err
	}
	return s.Processor(), nil
}

// Snare returns the snare called name.
func (w *World) Snare(name string) (*snare.Snare, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.snareSite(name)
	if err != nil {
		return nil, err
	}
	return s.Snare, nil
}

// Step advances the world by ticks: every processor gets Tick each tick and
// TickRare on each rare-tick boundary; every snare ticks with its occupants.
func (w *World) Step(ticks int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step(ticks)
}

func (w *World) step(ticks int) {
	for range max(ticks, 0) {
		w.tick++
		rare := w.tick%processor.RareTickInterval == 0
		for _, k := range w.siteOrder {
			p := w.sites[k].Processor()
			p.Tick()
			if rare {
				p.TickRare()
			}
		}
		for _, k := range w.snareOrder {
			s := w.snares[k]
			s.Snare.Tick(s.occupants)
		}
	}
}

// SetFuel lights or starves the processor called name.
func (w *World) SetFuel(name string, on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.setFuel(name, on)
	return err
}

func (w *World) setFuel(name string, on bool) (*Site, error) {
	s, err := w.site(name)
	if err != nil {
		return nil, err
	}
	if !s.Processor().Policy().ConsumesFuel {
		return nil, perr.InvalidStatef("%s does not burn fuel", s.Name)
	}
	s.env.fuel = on
	w.lastEntity = s.Name
	return s, nil
}

// SetBurning sets or puts out a fire on the processor called name.
func (w *World) SetBurning(name string, on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.site(name)
	if err != nil {
		return err
	}
	s.env.burning = on
	return nil
}

// Fill has the pawn load up to count units of item into the processor called
// name; count <= 0 fills whatever space is left.
func (w *World) Fill(ctx context.Context, name, item string, count int) (jobs.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fill(ctx, name, item, count)
}

func (w *World) fill(ctx context.Context, name, item string, count int) (jobs.Outcome, error) {
	s, err := w.site(name)
	if err != nil {
		return jobs.Outcome{}, err
	}
	def, err := lookupItem(item)
	if err != nil {
		return jobs.Outcome{}, err
	}
	p := s.Processor()
	n := count
	if n <= 0 {
		n = max(p.SpaceLeft(), 1)
	}
	giver := jobs.FillProcessorGiver{
		Scheduler:   w.sched,
		Ingredients: stockpile{stack: jobs.Stack{ID: "stock:" + def.Def, Item: def.stack(n)}},
	}
	ok, reason := giver.HasJobOn(ctx, w.pawn, s.Building)
	if !ok {
		if reason == "" || reason == jobs.ReasonNoIngredient {
			reason = w.fillBlocker(s, def, reason)
		}
		return jobs.Outcome{}, perr.InvalidStatef("cannot fill %s: %s", s.Name, reason)
	}
	job, ok := giver.JobOn(ctx, w.pawn, s.Building)
	if !ok {
		return jobs.Outcome{}, perr.InvalidStatef("cannot fill %s: %s", s.Name, jobs.ReasonNoIngredient)
	}
	if count > 0 && count < job.Count {
		job.Count = count
	}
	out := w.driver.Run(ctx, job)
	w.lastEntity = s.Name
	if !out.Succeeded() {
		return out, jobFailed(s.Name, out)
	}
	return out, nil
}

// fillBlocker explains a refused fill the giver had no player reason for.
func (w *World) fillBlocker(s *Site, def ItemDef, reason string) string {
	p := s.Processor()
	switch {
	case p.Finished():
		return "the product should be taken out first"
	case p.SpaceLeft() <= 0:
		return "it is full"
	case s.env.burning:
		return "it is on fire"
	case !p.Policy().Accepts(def.stack(1)):
		return fmt.Sprintf("it does not take %s", def.Def)
	case reason != "":
		return reason
	default:
		return "nobody can reach it"
	}
}

// Tend has the pawn tend the processor called name.
func (w *World) Tend(ctx context.Context, name string) (jobs.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tend(ctx, name)
}

func (w *World) tend(ctx context.Context, name string) (jobs.Outcome, error) {
	s, err := w.site(name)
	if err != nil {
		return jobs.Outcome{}, err
	}
	p := s.Processor()
	w.lastEntity = s.Name
	if !p.Policy().Tended {
		return jobs.Outcome{}, perr.InvalidStatef("%s does not need tending", s.Name)
	}
	giver := jobs.TendGiver{Scheduler: w.sched}
	if !giver.HasJobOn(ctx, w.pawn, s.Building) {
		// Not due yet: a quick trim on the spot.
		p.Tend()
		return jobs.Outcome{Condition: jobs.Succeeded}, nil
	}
	out := w.driver.Run(ctx, giver.JobOn(w.pawn, s.Building))
	if !out.Succeeded() {
		return out, jobFailed(s.Name, out)
	}
	return out, nil
}

// Take has the pawn empty the finished processor called name.
func (w *World) Take(ctx context.Context, name string) (processor.Product, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.take(ctx, name)
}

func (w *World) take(ctx context.Context, name string) (processor.Product, error) {
	s, err := w.site(name)
	if err != nil {
		return processor.Product{}, err
	}
	w.lastEntity = s.Name
	giver := jobs.TakeProductGiver{Scheduler: w.sched}
	if !giver.HasJobOn(ctx, w.pawn, s.Building) {
		if !s.Processor().Finished() {
			return processor.Product{}, perr.InvalidStatef("%s is not finished (%.0f%%)", s.Name, s.Processor().Progress()*100)
		}
		return processor.Product{}, perr.InvalidStatef("nobody can take from %s right now", s.Name)
	}
	out := w.driver.Run(ctx, giver.JobOn(w.pawn, s.Building))
	if !out.Succeeded() {
		return processor.Product{}, jobFailed(s.Name, out)
	}
	w.products[out.Product.Def] += out.Product.Count
	return out.Product, nil
}

// Ruin sends the processor called name an external ruin signal.
func (w *World) Ruin(name, reason string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ruin(name, reason)
}

func (w *World) ruin(name, reason string) (bool, error) {
	s, err := w.site(name)
	if err != nil {
		return false, err
	}
	w.lastEntity = s.Name
	return s.Processor().Ruin(reason), nil
}

// Lure walks an animal onto the snare called name.
func (w *World) Lure(name, animal string) (snare.Creature, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lure(name, animal)
}

func (w *World) lure(name, animal string) (snare.Creature, error) {
	s, err := w.snareSite(name)
	if err != nil {
		return snare.Creature{}, err
	}
	c, err := lookupAnimal(animal)
	if err != nil {
		return snare.Creature{}, err
	}
	w.lured++
	c.ID = fmt.Sprintf("%s-%d", c.Label, w.lured)
	s.occupants = append(s.occupants, c)
	w.lastEntity = s.Name
	return c, nil
}

// Clear chases everything off the snare called name.
func (w *World) Clear(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.clearSnare(name)
	return err
}

func (w *World) clearSnare(name string) (*SnareSite, error) {
	s, err := w.snareSite(name)
	if err != nil {
		return nil, err
	}
	s.occupants = nil
	w.lastEntity = s.Name
	return s, nil
}

// Disable disarms the snare called name.
func (w *World) Disable(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.disable(name)
	return err
}

func (w *World) disable(name string) (*SnareSite, error) {
	s, err := w.snareSite(name)
	if err != nil {
		return nil, err
	}
	s.Snare.Disable()
	w.lastEntity = s.Name
	return s, nil
}

// Products is the stock of everything taken out so far.
func (w *World) Products() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.products))
	for k, v := range w.products {
		out[k] = v
	}
	return out
}

// Events returns the most recent events, oldest first.
func (w *World) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.events)
}

func (w *World) recordEvent(source string, ev processor.Event) {
	w.pushEvent(Event{Tick: w.tick, Source: source, Type: string(ev.Type), Count: ev.Count, Detail: firstNonEmpty(ev.Reason, ev.Def)})
}

func (w *World) recordOutcome(source string, o snare.Outcome) {
	detail := o.Creature
	switch {
	case o.MentalState != "":
		detail += " " + string(o.MentalState)
	case o.Grip != snare.GripNone:
		detail += " (" + string(o.Grip) + ")"
	case o.Notification != "":
		detail += " via " + string(o.Notification)
	}
	w.pushEvent(Event{Tick: w.tick, Source: source, Type: string(o.Type), Detail: detail})
}

func (w *World) pushEvent(ev Event) {
	w.events = append(w.events, ev)
	if len(w.events) > maxEvents {
		w.events = slices.Clone(w.events[len(w.events)-maxEvents:])
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func jobFailed(name string, out jobs.Outcome) error {
	return perr.InvalidStatef("%s: job %s: %s", name, out.Condition, out.Reason)
}

// Package snare implements a trap that catches small animals and holds them
// until they escape or are collected.
package snare

import (
	"encoding/binary"
	"math/rand/v2"
	"slices"

	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DisabledTicks is how long a disabled snare stays harmless.
	DisabledTicks = 5000

	// EscapeInterval is how often a small snared animal struggles.
	EscapeInterval = 500

	// KnownSpringChance applies to creatures that know the snare is there.
	KnownSpringChance = 0.008

	// KnownPathCost is the extra walk cost for creatures avoiding a known snare.
	KnownPathCost = 30

	maxBodySize   = 1.0
	largeBodySize = 0.6
)

// Options carries the optional collaborators of a snare.
type Options struct {
	ID        uuid.UUID
	Logger    *zerolog.Logger
	Rand      *rand.Rand
	OnOutcome func(Outcome)
}

// Snare tracks the creatures standing on it and rolls springs and escapes.
// Like processors it is driven from a single simulation loop.
type Snare struct {
	id        uuid.UUID
	cfg       Config
	log       zerolog.Logger
	rng       *rand.Rand
	onOutcome func(Outcome)

	disabled          bool
	disabledTicks     int
	rearmAfterCleared bool
	touching          []Creature
	grips             map[string]Grip
	affected          string
	ticks             int64
}

// New validates cfg and returns an armed snare.
func New(cfg Config, opts Options) (*Snare, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(binary.BigEndian.Uint64(id[:8]), binary.BigEndian.Uint64(id[8:])))
	}
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	return &Snare{
		id:                id,
		cfg:               cfg,
		log:               base.With().Str("snare_id", id.String()).Logger(),
		rng:               rng,
		onOutcome:         opts.OnOutcome,
		rearmAfterCleared: true,
		grips:             map[string]Grip{},
	}, nil
}

func (s *Snare) ID() uuid.UUID { return s.id }

func (s *Snare) Config() Config { return s.cfg }

func (s *Snare) Disabled() bool { return s.disabled }

func (s *Snare) RearmAfterCleared() bool { return s.rearmAfterCleared }

func (s *Snare) Ticks() int64 { return s.ticks }

// Difficulty is the storyteller difficulty, never below 1.
func (s *Snare) Difficulty() int {
	return max(1, s.cfg.Difficulty)
}

// FailChance is the chance a spring misses, and twice the chance a small
// animal struggles free on each attempt.
func (s *Snare) FailChance() float64 {
	return s.cfg.FailChance * float64(s.Difficulty()) / 100
}

// BreakChance is the chance the snare breaks when sprung.
func (s *Snare) BreakChance() float64 {
	return s.cfg.BreakChance * float64(s.Difficulty()) / 100
}

// Grip reports the hold the snare has on creature id.
func (s *Snare) Grip(id string) Grip { return s.grips[id] }

// Affected is the id of the creature currently held, if any.
func (s *Snare) Affected() string { return s.affected }

// Touching returns the creatures currently standing on the snare.
func (s *Snare) Touching() []Creature {
	return slices.Clone(s.touching)
}

// KnowsOfSnare reports whether c can see the snare. Wild animals never do.
func KnowsOfSnare(c Creature) bool {
	if c.Wild && c.Animal {
		return false
	}
	return c.KnowsTraps
}

// IsValidAnimal reports whether c is something the snare may catch.
func IsValidAnimal(c Creature) bool {
	if !c.Animal || c.BodySize > maxBodySize {
		return false
	}
	if c.Player && c.Trainability >= TrainabilityIntermediate {
		return false
	}
	return true
}

// SpringChance is the chance the snare springs on c stepping onto it.
func (s *Snare) SpringChance(c Creature) float64 {
	if s.disabled || !IsValidAnimal(c) {
		return 0
	}
	chance := s.cfg.BaseSpringChance
	if KnowsOfSnare(c) {
		chance = KnownSpringChance
	}
	if c.Player {
		chance *= 0.5
	}
	return min(1, max(0, chance))
}

// PathWalkCost is the extra path cost c pays to walk over the snare.
func PathWalkCost(c Creature) int {
	if KnowsOfSnare(c) {
		return KnownPathCost
	}
	return 0
}

// Tick advances the snare by one tick. occupants are the live creatures
// standing on the snare's cell this tick.
func (s *Snare) Tick(occupants []Creature) {
	s.ticks++
	if s.disabled {
		s.affected = ""
		s.disabledTicks++
		if s.disabledTicks >= DisabledTicks {
			s.disabled = false
			s.disabledTicks = 0
			s.log.Debug().Msg("snare re-armed")
			s.emit(Outcome{Type: OutcomeEnabled})
		}
		return
	}

	for _, c := range occupants {
		if s.touchingIndex(c.ID) < 0 {
			s.touching = append(s.touching, c)
			if s.grips[c.ID] == GripNone {
				s.checkSpring(c)
			}
		}
	}
	s.touching = slices.DeleteFunc(s.touching, func(c Creature) bool {
		return !slices.ContainsFunc(occupants, func(o Creature) bool { return o.ID == c.ID })
	})
	for id := range s.grips {
		if s.touchingIndex(id) < 0 {
			delete(s.grips, id)
		}
	}
	if s.touchingIndex(s.affected) < 0 {
		s.affected = ""
	}

	for _, c := range s.touching {
		if !c.Dead && s.grips[c.ID] != GripNone {
			s.affected = c.ID
			break
		}
	}

	if s.ticks%EscapeInterval == 0 && s.affected != "" {
		c := s.touching[s.touchingIndex(s.affected)]
		if c.BodySize < largeBodySize {
			if s.rng.Float64() > s.FailChance()/2 {
				s.applyGrip(c)
			} else {
				s.release()
			}
		}
	}
}

// Disable makes the snare harmless for DisabledTicks and frees its catch.
func (s *Snare) Disable() {
	if s.disabled {
		return
	}
	s.disabled = true
	s.disabledTicks = 0
	s.release()
	s.log.Debug().Msg("snare disabled")
	s.emit(Outcome{Type: OutcomeDisabled})
}

func (s *Snare) touchingIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.touching, func(c Creature) bool { return c.ID == id })
}

func (s *Snare) checkSpring(c Creature) {
	if chance := s.SpringChance(c); chance > 0 && s.rng.Float64() < chance {
		s.spring(c)
	}
}

func (s *Snare) spring(c Creature) {
	s.log.Info().Str("creature", c.Label).Float64("body_size", c.BodySize).Msg("snare sprung")
	s.emit(Outcome{Type: OutcomeSprung, CreatureID: c.ID, Creature: c.Label})

	if s.rng.Float64() > s.FailChance() {
		s.affected = c.ID
		s.applyGrip(c)
	}
	for _, t := range s.touching {
		if !t.Dead && s.grips[t.ID] != GripNone {
			s.rearmAfterCleared = true
			break
		}
	}
	s.emit(Outcome{Type: OutcomeRebuildRequested, CreatureID: c.ID, Creature: c.Label})
}

func (s *Snare) applyGrip(c Creature) {
	grip := gripFor(c.BodySize)
	if grip == GripNone {
		return
	}
	prev := s.grips[c.ID]
	s.grips[c.ID] = grip
	if prev != GripNone {
		s.emit(Outcome{Type: OutcomeHeld, CreatureID: c.ID, Creature: c.Label, Grip: grip})
		return
	}
	s.emit(Outcome{Type: OutcomeSnared, CreatureID: c.ID, Creature: c.Label, Grip: grip})
	if grip == GripSmall {
		s.notify(c)
	}
}

// release frees the held creature and rolls how it reacts: bigger animals
// tend to turn on their captors, smaller ones bolt.
func (s *Snare) release() {
	if s.affected == "" {
		return
	}
	idx := s.touchingIndex(s.affected)
	id := s.affected
	s.affected = ""
	delete(s.grips, id)
	if idx < 0 {
		return
	}
	c := s.touching[idx]
	s.log.Info().Str("creature", c.Label).Msg("creature escaped the snare")
	s.emit(Outcome{Type: OutcomeEscaped, CreatureID: c.ID, Creature: c.Label})

	switch {
	case s.rng.Float64() < c.BodySize:
		s.emit(Outcome{Type: OutcomeMentalState, CreatureID: c.ID, Creature: c.Label, MentalState: MentalStateBerserk})
	case s.rng.Float64() >= c.BodySize:
		s.emit(Outcome{Type: OutcomeMentalState, CreatureID: c.ID, Creature: c.Label, MentalState: MentalStatePanicFlee})
	}
}

func (s *Snare) notify(c Creature) {
	if s.cfg.Notification == NotifyNone {
		return
	}
	positive := !c.Player
	if (positive && !s.cfg.AllowPositive) || (!positive && !s.cfg.AllowNegative) {
		return
	}
	s.emit(Outcome{Type: OutcomeNotification, CreatureID: c.ID, Creature: c.Label, Notification: s.cfg.Notification, Positive: positive})
}

func (s *Snare) emit(o Outcome) {
	if s.onOutcome == nil {
		return
	}
	o.SnareID = s.id
	o.Tick = s.ticks
	s.onOutcome(o)
}

// Record is the serializable state of a snare.
type Record struct {
	ID                uuid.UUID       `json:"id"`
	Disabled          bool            `json:"disabled,omitempty"`
	DisabledTicks     int             `json:"disabled_ticks,omitempty"`
	RearmAfterCleared bool            `json:"rearm_after_cleared"`
	Grips             map[string]Grip `json:"grips,omitempty"`
	Ticks             int64           `json:"ticks"`
}

func (s *Snare) Snapshot() Record {
	grips := make(map[string]Grip, len(s.grips))
	for k, v := range s.grips {
		grips[k] = v
	}
	return Record{
		ID:                s.id,
		Disabled:          s.disabled,
		DisabledTicks:     s.disabledTicks,
		RearmAfterCleared: s.rearmAfterCleared,
		Grips:             grips,
		Ticks:             s.ticks,
	}
}

// Restore replaces the snare's state with r. Touching creatures are rebuilt
// from the next Tick.
func (s *Snare) Restore(r Record) error {
	if r.DisabledTicks < 0 || r.DisabledTicks > DisabledTicks || r.Ticks < 0 {
		return perr.WithOp(perr.Consistencyf("snare counters out of range: disabled=%d ticks=%d", r.DisabledTicks, r.Ticks), "snare.restore")
	}
	for id, g := range r.Grips {
		if g != GripSmall && g != GripLarge {
			return perr.WithOp(perr.WithField(perr.InvalidArgf("unknown grip %q on %s", g, id), "grips"), "snare.restore")
		}
	}
	if r.ID != uuid.Nil {
		s.id = r.ID
	}
	s.disabled = r.Disabled
	s.disabledTicks = r.DisabledTicks
	s.rearmAfterCleared = r.RearmAfterCleared
	s.grips = make(map[string]Grip, len(r.Grips))
	for k, v := range r.Grips {
		s.grips[k] = v
	}
	s.ticks = r.Ticks
	return nil
}

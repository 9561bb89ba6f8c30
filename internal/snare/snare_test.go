package snare

import (
	"math/rand/v2"
	"testing"

	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"
)

type recorder struct {
	outcomes []Outcome
}

func (r *recorder) add(o Outcome) { r.outcomes = append(r.outcomes, o) }

func (r *recorder) count(typ OutcomeType) int {
	n := 0
	for _, o := range r.outcomes {
		if o.Type == typ {
			n++
		}
	}
	return n
}

func newSnare(t *testing.T, mutate func(*Config)) (*Snare, *recorder) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	rec := &recorder{}
	s, err := New(cfg, Options{Rand: rand.New(rand.NewPCG(1, 2)), OnOutcome: rec.add})
	if err != nil {
		t.Fatalf("new snare: %v", err)
	}
	return s, rec
}

func hare() Creature {
	return Creature{ID: "hare1", Label: "hare", Animal: true, BodySize: 0.3, Wild: true}
}

func TestSpringChance(t *testing.T) {
	s, _ := newSnare(t, nil)
	tests := []struct {
		name string
		c    Creature
		want float64
	}{
		{"wild hare", hare(), 1},
		{"wild animals never know", Creature{Animal: true, BodySize: 0.3, Wild: true, KnowsTraps: true}, 1},
		{"aware animal", Creature{Animal: true, BodySize: 0.3, KnowsTraps: true}, KnownSpringChance},
		{"aware player animal", Creature{Animal: true, BodySize: 0.3, KnowsTraps: true, Player: true}, KnownSpringChance / 2},
		{"unaware player animal", Creature{Animal: true, BodySize: 0.3, Player: true}, 0.5},
		{"too big", Creature{Animal: true, BodySize: 1.2, Wild: true}, 0},
		{"not an animal", Creature{BodySize: 0.3}, 0},
		{"clever pet", Creature{Animal: true, BodySize: 0.5, Player: true, Trainability: TrainabilityIntermediate}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SpringChance(tt.c); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	s.Disable()
	if got := s.SpringChance(hare()); got != 0 {
		t.Fatalf("disabled snare should never spring, got %v", got)
	}
}

func TestPathWalkCost(t *testing.T) {
	if got := PathWalkCost(Creature{KnowsTraps: true}); got != KnownPathCost {
		t.Fatalf("expected %d, got %d", KnownPathCost, got)
	}
	if got := PathWalkCost(hare()); got != 0 {
		t.Fatalf("wild animals walk straight over, got %d", got)
	}
}

func TestChancesScaleWithDifficulty(t *testing.T) {
	s, _ := newSnare(t, func(c *Config) { c.Difficulty = 0 })
	if s.FailChance() != 0.1 || s.BreakChance() != 0.05 {
		t.Fatalf("difficulty 0 counts as 1, got fail=%v break=%v", s.FailChance(), s.BreakChance())
	}
	s, _ = newSnare(t, func(c *Config) { c.Difficulty = 3 })
	if s.FailChance() != 0.3 {
		t.Fatalf("expected 0.3, got %v", s.FailChance())
	}
}

func TestSpringSnaresSmallAnimal(t *testing.T) {
	s, rec := newSnare(t, func(c *Config) { c.FailChance = 0 })
	s.Tick([]Creature{hare()})

	if s.Grip("hare1") != GripSmall || s.Affected() != "hare1" {
		t.Fatalf("expected hare held, grip=%q affected=%q", s.Grip("hare1"), s.Affected())
	}
	for _, typ := range []OutcomeType{OutcomeSprung, OutcomeSnared, OutcomeNotification, OutcomeRebuildRequested} {
		if rec.count(typ) != 1 {
			t.Fatalf("expected one %s outcome, got %+v", typ, rec.outcomes)
		}
	}
	for _, o := range rec.outcomes {
		if o.Type == OutcomeNotification && (!o.Positive || o.Notification != NotifyLetter) {
			t.Fatalf("expected a positive letter, got %+v", o)
		}
	}

	s.Tick([]Creature{hare()})
	if rec.count(OutcomeSprung) != 1 {
		t.Fatalf("a creature already on the snare must not spring it again")
	}
}

func TestLargeAnimalGetsLargeGripWithoutNotice(t *testing.T) {
	s, rec := newSnare(t, func(c *Config) { c.FailChance = 0 })
	fox := Creature{ID: "fox1", Label: "fox", Animal: true, BodySize: 0.8, Wild: true}
	s.Tick([]Creature{fox})
	if s.Grip("fox1") != GripLarge {
		t.Fatalf("expected a large grip, got %q", s.Grip("fox1"))
	}
	if rec.count(OutcomeNotification) != 0 {
		t.Fatalf("large catches are not announced")
	}
}

func TestSmallAnimalEscapes(t *testing.T) {
	s, rec := newSnare(t, func(c *Config) { c.FailChance = 100 })
	if err := s.Restore(Record{Grips: map[string]Grip{"hare1": GripSmall}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := 0; i < EscapeInterval; i++ {
		s.Tick([]Creature{hare()})
	}
	if rec.count(OutcomeEscaped) != 1 {
		t.Fatalf("expected an escape at tick %d, got %+v", EscapeInterval, rec.outcomes)
	}
	if s.Grip("hare1") != GripNone || s.Affected() != "" {
		t.Fatalf("expected the hare freed")
	}
	if rec.count(OutcomeSprung) != 0 {
		t.Fatalf("a restored catch must not re-spring")
	}
}

func TestSmallAnimalHeldWhenStruggleFails(t *testing.T) {
	s, rec := newSnare(t, func(c *Config) { c.FailChance = 0 })
	if err := s.Restore(Record{Grips: map[string]Grip{"hare1": GripSmall}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := 0; i < 2*EscapeInterval; i++ {
		s.Tick([]Creature{hare()})
	}
	if rec.count(OutcomeHeld) != 2 || rec.count(OutcomeEscaped) != 0 {
		t.Fatalf("expected two held outcomes, got %+v", rec.outcomes)
	}
}

func TestLargeAnimalDoesNotStruggle(t *testing.T) {
	s, rec := newSnare(t, func(c *Config) { c.FailChance = 100 })
	fox := Creature{ID: "fox1", Label: "fox", Animal: true, BodySize: 0.8, Wild: true}
	if err := s.Restore(Record{Grips: map[string]Grip{"fox1": GripLarge}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := 0; i < EscapeInterval; i++ {
		s.Tick([]Creature{fox})
	}
	if rec.count(OutcomeEscaped) != 0 || s.Grip("fox1") != GripLarge {
		t.Fatalf("large animals stay put")
	}
}

func TestLeavingClearsGrip(t *testing.T) {
	s, _ := newSnare(t, func(c *Config) { c.FailChance = 0 })
	s.Tick([]Creature{hare()})
	s.Tick(nil)
	if len(s.Touching()) != 0 || s.Grip("hare1") != GripNone || s.Affected() != "" {
		t.Fatalf("expected the snare cleared once the hare is gone")
	}
}

func TestDisableCountsDown(t *testing.T) {
	s, rec := newSnare(t, nil)
	s.Disable()
	for i := 0; i < DisabledTicks-1; i++ {
		s.Tick([]Creature{hare()})
	}
	if !s.Disabled() {
		t.Fatalf("re-armed too early")
	}
	s.Tick(nil)
	if s.Disabled() || rec.count(OutcomeEnabled) != 1 {
		t.Fatalf("expected the snare re-armed after %d ticks", DisabledTicks)
	}
	if rec.count(OutcomeSprung) != 0 {
		t.Fatalf("a disabled snare must not spring")
	}
}

func TestNotificationFilters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		c      Creature
		want   int
	}{
		{"none", func(c *Config) { c.Notification = NotifyNone }, hare(), 0},
		{"positive blocked", func(c *Config) { c.AllowPositive = false }, hare(), 0},
		{"negative blocked", func(c *Config) { c.AllowNegative = false }, Creature{ID: "cat", Animal: true, BodySize: 0.2, Player: true}, 0},
		{"negative allowed", func(c *Config) { c.Notification = NotifySilentText }, Creature{ID: "cat", Animal: true, BodySize: 0.2, Player: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newSnare(t, tt.mutate)
			s.applyGrip(tt.c)
			if got := rec.count(OutcomeNotification); got != tt.want {
				t.Fatalf("expected %d notifications, got %d", tt.want, got)
			}
		})
	}
}

func TestRestoreValidates(t *testing.T) {
	s, _ := newSnare(t, nil)
	err := s.Restore(Record{Grips: map[string]Grip{"x": "medium"}})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	err = s.Restore(Record{DisabledTicks: DisabledTicks + 1})
	if !perr.IsCode(err, perr.ErrorCodeConsistency) {
		t.Fatalf("expected consistency error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Notification = "smoke_signal"
	if err := cfg.Validate(); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

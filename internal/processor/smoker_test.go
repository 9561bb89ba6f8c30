package processor

import (
	"math"
	"testing"
)

func meat(def string, n int) Item {
	return Item{Def: def, Category: CategoryMeat, Count: n, Perishable: true, Stage: RotFresh}
}

func newSmoker(t *testing.T, fuel bool) *harness {
	t.Helper()
	h := newHarness(t, DefaultConfig(KindSmoker), 20)
	h.env.Fuel = fuel
	return h
}

func TestSmokerWithoutFuelSpoilsAfterADay(t *testing.T) {
	h := newSmoker(t, false)
	if got := h.p.Deposit(meat("meat_muffalo", 60)); got != 60 {
		t.Fatalf("expected 60 accepted, got %d", got)
	}

	h.p.Advance(86400)
	if !h.p.Empty() {
		t.Fatalf("expected forced reset, count=%d", h.p.Count())
	}
	if h.p.Progress() != 0 || h.p.RotProgress() != 0 {
		t.Fatalf("expected cleared state, progress=%v rot=%v", h.p.Progress(), h.p.RotProgress())
	}
	if !h.hasEvent(EventSpoiled) {
		t.Fatalf("expected a spoiled event, got %v", h.eventTypes())
	}
}

func TestSmokerSpoilsOnTheTickRotReachesADay(t *testing.T) {
	h := newSmoker(t, false)
	h.p.Deposit(meat("meat_muffalo", 60))

	for i := 0; i < TicksPerDay-1; i++ {
		h.p.Tick()
	}
	if h.p.Empty() {
		t.Fatalf("spoiled a tick early")
	}
	h.p.Tick()
	if !h.p.Empty() {
		t.Fatalf("expected spoilage at one full day of rot")
	}
}

func TestSmokerSpoilCheckRunsOnInterval(t *testing.T) {
	h := newSmoker(t, false)
	err := h.p.Restore(Record{
		Kind:         KindSmoker,
		InputCount:   10,
		RottingTicks: TicksPerDay - 100,
		Sources:      []SourceCount{{Def: "fish_bass", Count: 10}},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	h.p.Advance(150)
	if h.p.Empty() {
		t.Fatalf("spoil check must wait for the next interval boundary")
	}
	h.p.Advance(100)
	if !h.p.Empty() {
		t.Fatalf("expected spoilage at tick %d", h.p.Ticks())
	}
}

func TestSmokerAcceptWindow(t *testing.T) {
	open := newSmoker(t, true)
	open.p.Deposit(meat("meat_hare", 30))
	open.p.Advance(2690)
	if !open.p.CanAccept() || open.p.SpaceLeft() != 30 {
		t.Fatalf("expected window open at %v", open.p.Progress())
	}
	if got := open.p.Deposit(meat("meat_hare", 10)); got != 10 {
		t.Fatalf("expected late top-up accepted, got %d", got)
	}

	closed := newSmoker(t, true)
	closed.p.Deposit(meat("meat_hare", 30))
	closed.p.Advance(2710)
	if closed.p.CanAccept() || closed.p.SpaceLeft() != 0 {
		t.Fatalf("expected window closed at %v", closed.p.Progress())
	}
	if got := closed.p.Deposit(meat("meat_hare", 10)); got != 0 {
		t.Fatalf("expected locked smoker to refuse, got %d", got)
	}
}

func TestSmokerNeglectSlowsProgress(t *testing.T) {
	h := newSmoker(t, true)
	h.p.Deposit(meat("meat_boar", 20))

	h.p.Advance(5000)
	if !h.p.NeedsTending() || h.p.SpeedFactor() != 0.75 {
		t.Fatalf("expected neglect after 5000 ticks, factor=%v", h.p.SpeedFactor())
	}
	start := h.p.Progress()
	h.p.Advance(6000)
	if got := h.p.Progress() - start; math.Abs(got-0.075) > 1e-9 {
		t.Fatalf("expected 0.075 progress at 0.75 speed, got %v", got)
	}

	h.p.Tend()
	if h.p.NeedsTending() || h.p.SpeedFactor() != 1 {
		t.Fatalf("tending should restore full speed")
	}
	if !h.hasEvent(EventTended) {
		t.Fatalf("expected a tended event")
	}
}

func TestSmokerDecaysWithoutFuel(t *testing.T) {
	h := newSmoker(t, true)
	h.p.Deposit(meat("meat_boar", 20))
	h.p.Advance(4800)
	h.p.Tend()

	h.env.Fuel = false
	h.p.Advance(1200)
	if math.Abs(h.p.Progress()-0.06) > 1e-9 {
		t.Fatalf("expected progress to fall to 0.06, got %v", h.p.Progress())
	}
	if math.Abs(h.p.RotProgress()-0.02) > 1e-9 {
		t.Fatalf("expected 2%% rot, got %v", h.p.RotProgress())
	}
}

func TestSmokerBatchAdvanceMatchesSingleTicks(t *testing.T) {
	tests := []struct {
		name  string
		fuel  bool
		ticks int
	}{
		{"fuelled across the neglect threshold", true, 30000},
		{"fuelled to finished", true, 2 * TicksPerDay},
		{"no fuel until spoiled", false, TicksPerDay + 300},
		{"short odd step", true, 777},
	}
	for _, tc := range tests {
		batch := newSmoker(t, tc.fuel)
		single := newSmoker(t, tc.fuel)
		batch.p.Deposit(meat("meat_muffalo", 60))
		single.p.Deposit(meat("meat_muffalo", 60))

		batch.p.Advance(tc.ticks)
		for i := 0; i < tc.ticks; i++ {
			single.p.Tick()
		}

		if math.Abs(batch.p.Progress()-single.p.Progress()) > 1e-9 {
			t.Fatalf("%s: progress %v in one step, %v tick by tick", tc.name, batch.p.Progress(), single.p.Progress())
		}
		if batch.p.NeedsTending() != single.p.NeedsTending() || batch.p.Finished() != single.p.Finished() {
			t.Fatalf("%s: tending/finished differ: batch %v/%v single %v/%v", tc.name,
				batch.p.NeedsTending(), batch.p.Finished(), single.p.NeedsTending(), single.p.Finished())
		}
		if b, s := batch.p.Snapshot(), single.p.Snapshot(); b.InputCount != s.InputCount ||
			b.TicksSinceTending != s.TicksSinceTending || b.RottingTicks != s.RottingTicks {
			t.Fatalf("%s: state differs: batch %+v single %+v", tc.name, b, s)
		}
	}
}

func TestSmokerNeglectStartsMidStep(t *testing.T) {
	h := newSmoker(t, true)
	h.p.Deposit(meat("meat_muffalo", 60))
	h.p.Advance(30000)
	want := (5000 + 25000*0.75) / float64(TicksPerDay)
	if math.Abs(h.p.Progress()-want) > 1e-9 {
		t.Fatalf("expected %v after a long step, got %v", want, h.p.Progress())
	}
}

func TestSmokerIgnoresBadIncomingRot(t *testing.T) {
	for _, rot := range []float64{math.NaN(), -3, 7} {
		h := newSmoker(t, true)
		item := meat("meat_boar", 10)
		item.RotProgress = rot
		h.p.Deposit(item)
		got := h.p.Snapshot().RottingTicks
		if got < 0 || got > TicksPerDay {
			t.Fatalf("rot %v: rotting ticks %d outside [0, %d]", rot, got, TicksPerDay)
		}
	}
}

func TestSmokerBlendsRotOfIncomingFood(t *testing.T) {
	h := newSmoker(t, true)
	h.p.Deposit(meat("meat_boar", 30))
	aged := meat("meat_boar", 30)
	aged.RotProgress = 0.0625
	h.p.Deposit(aged)

	if got := h.p.Snapshot().RottingTicks; got != 1875 {
		t.Fatalf("expected rot blended to 1875 ticks, got %d", got)
	}
}

func TestSmokerTendKeepsManifestInStep(t *testing.T) {
	h := newSmoker(t, true)
	err := h.p.Restore(Record{
		Kind:         KindSmoker,
		InputCount:   60,
		Progress:     0.01,
		RottingTicks: TicksPerDay / 5,
		Sources: []SourceCount{
			{Def: "meat_muffalo", Count: 40},
			{Def: "meat_hare", Count: 20},
		},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	h.p.Tend()
	total := 0
	for _, s := range h.p.Sources() {
		total += s.Count
	}
	if total != h.p.Count() {
		t.Fatalf("manifest total %d does not match count %d", total, h.p.Count())
	}
	if h.p.Count() >= 60 {
		t.Fatalf("expected rotten portions trimmed, count=%d", h.p.Count())
	}
	if h.p.RotProgress() >= 0.05 {
		t.Fatalf("expected rot under 5%%, got %v", h.p.RotProgress())
	}
}

func TestSmokerExtractsWholeBatchWithOrigins(t *testing.T) {
	h := newSmoker(t, true)
	h.p.Deposit(meat("meat_muffalo", 50))
	h.p.Deposit(Item{Def: "fish_bass", Category: CategoryFish, Count: 10, Perishable: true})
	h.p.Advance(2 * TicksPerDay)

	out, ok := h.p.TakeOutProduct()
	if !ok {
		t.Fatalf("expected a finished smoker, progress=%v", h.p.Progress())
	}
	if out.Def != ProductSmokedMeat || out.Count != 60 {
		t.Fatalf("expected 60 smoked meat, got %+v", out)
	}
	if out.Ingredient != "meat_muffalo" && out.Ingredient != "fish_bass" {
		t.Fatalf("unexpected ingredient %q", out.Ingredient)
	}
	if len(out.Origins) != 2 || out.Origins[0].Count+out.Origins[1].Count != 60 {
		t.Fatalf("unexpected origins %+v", out.Origins)
	}
	if !h.p.Empty() || len(h.p.Sources()) != 0 {
		t.Fatalf("expected the manifest cleared on extraction")
	}
}

func TestSmokerIngredientDrawIsWeighted(t *testing.T) {
	counts := map[string]int{}
	for seed := int64(1); seed <= 200; seed++ {
		env := &StaticEnvironment{Temperature: 20, Fuel: true}
		p, err := New(DefaultConfig(KindSmoker), env, Options{Rand: NewRand(seed)})
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		p.Deposit(meat("meat_muffalo", 54))
		p.Deposit(meat("meat_hare", 6))
		p.Advance(2 * TicksPerDay)
		out, ok := p.TakeOutProduct()
		if !ok {
			t.Fatalf("seed %d: expected a finished smoker", seed)
		}
		counts[out.Ingredient]++
	}
	if counts["meat_muffalo"] <= counts["meat_hare"]*3 {
		t.Fatalf("expected the larger stack to dominate, got %v", counts)
	}
}

func TestSmokerFinishedDoesNotRot(t *testing.T) {
	h := newSmoker(t, true)
	h.p.Deposit(meat("meat_boar", 10))
	h.p.Advance(2 * TicksPerDay)
	h.env.Fuel = false
	h.p.Advance(2 * TicksPerDay)
	if !h.p.Finished() || h.p.RotProgress() != 0 || h.p.NeedsTending() {
		t.Fatalf("finished smoker should hold, finished=%v rot=%v", h.p.Finished(), h.p.RotProgress())
	}
}

func TestTendIgnoredByUntendedVariants(t *testing.T) {
	h := newHarness(t, DefaultConfig(KindVinegarBarrel), 20)
	h.p.Deposit(juice(5))
	h.p.Tend()
	if h.hasEvent(EventTended) || h.p.NeedsTending() {
		t.Fatalf("barrels do not need tending")
	}
}

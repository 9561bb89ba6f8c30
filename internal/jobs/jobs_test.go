package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/appengine-ltd/survivalist-processors/internal/processor"
)

type fakeScheduler struct {
	unreachable map[string]bool
	reserveErr  error
	gotoErr     error
	onWait      func()
	reserved    map[string]bool
	calls       []string
	waited      int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{unreachable: map[string]bool{}, reserved: map[string]bool{}}
}

func (f *fakeScheduler) CanReserveAndReach(_ context.Context, _ Pawn, target string) bool {
	return !f.unreachable[target]
}

func (f *fakeScheduler) Reserve(_ context.Context, _ Pawn, target string) error {
	f.calls = append(f.calls, "reserve "+target)
	if f.reserveErr != nil {
		return f.reserveErr
	}
	f.reserved[target] = true
	return nil
}

func (f *fakeScheduler) GotoThing(_ context.Context, _ Pawn, target string) error {
	f.calls = append(f.calls, "goto "+target)
	return f.gotoErr
}

func (f *fakeScheduler) Wait(_ context.Context, _ Pawn, ticks int) error {
	f.calls = append(f.calls, "wait")
	f.waited += ticks
	if f.onWait != nil {
		f.onWait()
	}
	return nil
}

func (f *fakeScheduler) Release(_ context.Context, _ Pawn, target string) {
	delete(f.reserved, target)
}

type fakeStockpile struct {
	stacks []Stack
}

func (f fakeStockpile) FindIngredient(_ context.Context, _ Pawn, accepts func(processor.Item) bool) (Stack, bool) {
	for _, s := range f.stacks {
		if accepts(s.Item) {
			return s, true
		}
	}
	return Stack{}, false
}

var worker = Pawn{ID: "pawn1", Name: "Ada"}

func newBuilding(t *testing.T, kind processor.Kind, env *processor.StaticEnvironment) *Building {
	t.Helper()
	p, err := processor.New(processor.DefaultConfig(kind), env, processor.Options{Rand: processor.NewRand(1)})
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return &Building{ID: string(kind) + "1", Processor: p}
}

func meatStack(n int) Stack {
	return Stack{ID: "stack1", Item: processor.Item{Def: "meat_boar", Category: processor.CategoryMeat, Count: n, Perishable: true}}
}

func juiceStack(n int) Stack {
	return Stack{ID: "stack2", Item: processor.Item{Def: "juice_berry", Category: processor.CategoryJuice, Count: n}}
}

func TestFillGiverReasons(t *testing.T) {
	tests := []struct {
		name   string
		kind   processor.Kind
		env    processor.StaticEnvironment
		setup  func(b *Building, s *fakeScheduler)
		stacks []Stack
		want   bool
		reason string
	}{
		{name: "ok", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20}, stacks: []Stack{juiceStack(10)}, want: true},
		{name: "too cold", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 0}, stacks: []Stack{juiceStack(10)}, reason: ReasonBadTemperature},
		{name: "too hot", kind: processor.KindCheeseBarrel, env: processor.StaticEnvironment{Temperature: 31}, reason: ReasonBadTemperature},
		{name: "no ingredient", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20}, stacks: []Stack{meatStack(5)}, reason: ReasonNoIngredient},
		{name: "forbidden", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20}, stacks: []Stack{juiceStack(1)},
			setup: func(b *Building, _ *fakeScheduler) { b.Forbidden = true }},
		{name: "unreachable", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20}, stacks: []Stack{juiceStack(1)},
			setup: func(b *Building, s *fakeScheduler) { s.unreachable[b.ID] = true }},
		{name: "marked for deconstruction", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20}, stacks: []Stack{juiceStack(1)},
			setup: func(b *Building, _ *fakeScheduler) { b.Deconstruct = true }},
		{name: "burning", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20, Burning: true}, stacks: []Stack{juiceStack(1)}},
		{name: "full", kind: processor.KindVinegarBarrel, env: processor.StaticEnvironment{Temperature: 20}, stacks: []Stack{juiceStack(1)},
			setup: func(b *Building, _ *fakeScheduler) { b.Processor.Deposit(juiceStack(25).Item) }},
		{name: "smoker locked", kind: processor.KindSmoker, env: processor.StaticEnvironment{Temperature: 20, Fuel: true}, stacks: []Stack{meatStack(5)},
			setup: func(b *Building, _ *fakeScheduler) {
				b.Processor.Deposit(meatStack(10).Item)
				b.Processor.Advance(3000)
			}, reason: ReasonSmokerLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			b := newBuilding(t, tt.kind, &env)
			sched := newFakeScheduler()
			if tt.setup != nil {
				tt.setup(b, sched)
			}
			g := FillProcessorGiver{Scheduler: sched, Ingredients: fakeStockpile{stacks: tt.stacks}}
			ok, reason := g.HasJobOn(context.Background(), worker, b)
			if ok != tt.want || reason != tt.reason {
				t.Fatalf("expected (%v, %q), got (%v, %q)", tt.want, tt.reason, ok, reason)
			}
		})
	}
}

func TestFillJobDeposits(t *testing.T) {
	env := &processor.StaticEnvironment{Temperature: 20}
	b := newBuilding(t, processor.KindVinegarBarrel, env)
	sched := newFakeScheduler()
	g := FillProcessorGiver{Scheduler: sched, Ingredients: fakeStockpile{stacks: []Stack{juiceStack(30)}}}

	job, ok := g.JobOn(context.Background(), worker, b)
	if !ok || job.Count != 25 {
		t.Fatalf("expected a fill job for 25, got %+v ok=%v", job, ok)
	}
	out := NewDriver(sched, nil).Run(context.Background(), job)
	if !out.Succeeded() || out.Accepted != 25 || out.Leftover != 5 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if b.Processor.Count() != 25 {
		t.Fatalf("expected 25 in the barrel, got %d", b.Processor.Count())
	}
	want := []string{"reserve stack2", "reserve vinegar_barrel1", "goto stack2", "goto vinegar_barrel1", "wait"}
	if len(sched.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, sched.calls)
	}
	for i := range want {
		if sched.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, sched.calls)
		}
	}
	if sched.waited != GenericWaitDuration {
		t.Fatalf("expected a %d tick wait, got %d", GenericWaitDuration, sched.waited)
	}
	if len(sched.reserved) != 0 {
		t.Fatalf("reservations leaked: %v", sched.reserved)
	}
}

func TestFillJobFailsWhenProcessorFillsUp(t *testing.T) {
	env := &processor.StaticEnvironment{Temperature: 20}
	b := newBuilding(t, processor.KindVinegarBarrel, env)
	sched := newFakeScheduler()
	sched.onWait = func() { b.Processor.Deposit(juiceStack(25).Item) }

	job := Job{Kind: KindFill, Pawn: worker, Building: b, Ingredient: juiceStack(10), Count: 25}
	out := NewDriver(sched, nil).RunFill(context.Background(), job)
	if out.Condition != Incompletable || out.Accepted != 0 {
		t.Fatalf("expected incompletable with nothing accepted, got %+v", out)
	}
	if len(sched.reserved) != 0 {
		t.Fatalf("reservations leaked: %v", sched.reserved)
	}
}

func TestFillJobRejectsSpoiledIngredient(t *testing.T) {
	env := &processor.StaticEnvironment{Temperature: 20, Fuel: true}
	b := newBuilding(t, processor.KindSmoker, env)
	stack := meatStack(5)
	stack.Item.Stage = processor.RotSpoiled

	out := NewDriver(newFakeScheduler(), nil).RunFill(context.Background(), Job{Kind: KindFill, Pawn: worker, Building: b, Ingredient: stack, Count: 60})
	if out.Condition != Incompletable || out.Reason != "ingredient spoiled" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestDriverErrorsAndCancellation(t *testing.T) {
	env := &processor.StaticEnvironment{Temperature: 20}
	b := newBuilding(t, processor.KindVinegarBarrel, env)
	job := Job{Kind: KindFill, Pawn: worker, Building: b, Ingredient: juiceStack(5), Count: 25}

	sched := newFakeScheduler()
	sched.reserveErr = errors.New("already reserved")
	if out := NewDriver(sched, nil).Run(context.Background(), job); out.Condition != Errored {
		t.Fatalf("expected errored, got %+v", out)
	}

	sched = newFakeScheduler()
	sched.gotoErr = context.Canceled
	if out := NewDriver(sched, nil).Run(context.Background(), job); out.Condition != Interrupted {
		t.Fatalf("expected interrupted, got %+v", out)
	}
	if len(sched.reserved) != 0 {
		t.Fatalf("reservations leaked: %v", sched.reserved)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if out := NewDriver(newFakeScheduler(), nil).Run(ctx, job); out.Condition != Interrupted {
		t.Fatalf("expected interrupted, got %+v", out)
	}
	if b.Processor.Count() != 0 {
		t.Fatalf("interrupted jobs must not deposit")
	}
}

func TestTendJob(t *testing.T) {
	env := &processor.StaticEnvironment{Temperature: 20, Fuel: true}
	b := newBuilding(t, processor.KindSmoker, env)
	b.Processor.Deposit(meatStack(20).Item)
	sched := newFakeScheduler()
	g := TendGiver{Scheduler: sched}

	if g.HasJobOn(context.Background(), worker, b) {
		t.Fatalf("fresh smoker does not need tending")
	}
	b.Processor.Advance(5000)
	if !g.HasJobOn(context.Background(), worker, b) {
		t.Fatalf("expected a tend job")
	}
	out := NewDriver(sched, nil).Run(context.Background(), g.JobOn(worker, b))
	if !out.Succeeded() || b.Processor.NeedsTending() {
		t.Fatalf("expected the smoker tended, got %+v", out)
	}

	vin := newBuilding(t, processor.KindVinegarBarrel, &processor.StaticEnvironment{Temperature: 20})
	if g.HasJobOn(context.Background(), worker, vin) {
		t.Fatalf("barrels never need tending")
	}
}

func TestTakeProductJob(t *testing.T) {
	env := &processor.StaticEnvironment{Temperature: 20}
	b := newBuilding(t, processor.KindCharcoalPit, env)
	sched := newFakeScheduler()
	g := TakeProductGiver{Scheduler: sched}
	b.Processor.Deposit(processor.Item{Def: "wood_log", Category: processor.CategoryWood, Count: 4})

	if g.HasJobOn(context.Background(), worker, b) {
		t.Fatalf("unfinished pit has nothing to take")
	}
	b.Processor.Advance(8 * processor.TicksPerHour)
	if !g.HasJobOn(context.Background(), worker, b) {
		t.Fatalf("expected a take job")
	}
	out := NewDriver(sched, nil).Run(context.Background(), g.JobOn(worker, b))
	if !out.Succeeded() || out.Product.Def != processor.ProductCharcoal || out.Product.Count != 12 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !b.Processor.Empty() {
		t.Fatalf("expected the pit emptied")
	}

	out = NewDriver(sched, nil).RunTakeProduct(context.Background(), g.JobOn(worker, b))
	if out.Condition != Incompletable {
		t.Fatalf("expected incompletable on an empty pit, got %+v", out)
	}
}

func TestRunWithoutBuilding(t *testing.T) {
	out := NewDriver(newFakeScheduler(), nil).Run(context.Background(), Job{Kind: KindTend, Pawn: worker})
	if out.Condition != Incompletable {
		t.Fatalf("expected incompletable, got %+v", out)
	}
	if out := NewDriver(newFakeScheduler(), nil).Run(context.Background(), Job{Kind: "dance"}); out.Condition != Errored {
		t.Fatalf("expected errored for an unknown kind, got %+v", out)
	}
}

func TestTakeProductJobWithNothingToShow(t *testing.T) {
	cfg := processor.DefaultConfig(processor.KindCharcoalPit)
	cfg.YieldPerUnit = 0.1
	p, err := processor.New(cfg, &processor.StaticEnvironment{Temperature: 20}, processor.Options{Rand: processor.NewRand(1)})
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	b := &Building{ID: "pit1", Processor: p}
	p.Deposit(processor.Item{Def: "wood_log", Category: processor.CategoryWood, Count: 1})
	p.Advance(8 * processor.TicksPerHour)

	sched := newFakeScheduler()
	g := TakeProductGiver{Scheduler: sched}
	out := NewDriver(sched, nil).Run(context.Background(), g.JobOn(worker, b))
	if out.Condition != Incompletable || out.Reason != "nothing came out" {
		t.Fatalf("expected an incompletable take, got %+v", out)
	}
	if !p.Empty() {
		t.Fatalf("the burnt-out pit should still be emptied")
	}
}

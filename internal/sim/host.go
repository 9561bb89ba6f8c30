package sim

import (
	"context"
	"fmt"

	"github.com/appengine-ltd/survivalist-processors/internal/jobs"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
)

// siteEnv is one processor's view of the world. Temperature is shared; fuel
// and fire are per site.
type siteEnv struct {
	w       *World
	fuel    bool
	burning bool
	dirty   int
}

func (e *siteEnv) AmbientTemperature() float64 { return e.w.temperature }

func (e *siteEnv) HasFuel() bool { return e.fuel }

func (e *siteEnv) IsBurning() bool { return e.burning }

func (e *siteEnv) NotifyVisualDirty() { e.dirty++ }

// scheduler stands in for the colony's reservation and pathing systems. There
// is no map, so walking is instant; waiting runs the world clock.
type scheduler struct {
	w        *World
	reserved map[string]string
}

func (s *scheduler) CanReserveAndReach(_ context.Context, pawn jobs.Pawn, target string) bool {
	holder, ok := s.reserved[target]
	return !ok || holder == pawn.ID
}

func (s *scheduler) Reserve(_ context.Context, pawn jobs.Pawn, target string) error {
	if holder, ok := s.reserved[target]; ok && holder != pawn.ID {
		return fmt.Errorf("%s is reserved by %s", target, holder)
	}
	s.reserved[target] = pawn.ID
	return nil
}

func (s *scheduler) GotoThing(ctx context.Context, _ jobs.Pawn, _ string) error {
	return ctx.Err()
}

func (s *scheduler) Wait(ctx context.Context, _ jobs.Pawn, ticks int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.w.step(ticks)
	return nil
}

func (s *scheduler) Release(_ context.Context, pawn jobs.Pawn, target string) {
	if s.reserved[target] == pawn.ID {
		delete(s.reserved, target)
	}
}

// stockpile offers a single stack to fill jobs.
type stockpile struct {
	stack jobs.Stack
}

func (s stockpile) FindIngredient(_ context.Context, _ jobs.Pawn, accepts func(processor.Item) bool) (jobs.Stack, bool) {
	if s.stack.Item.Count <= 0 || !accepts(s.stack.Item) {
		return jobs.Stack{}, false
	}
	return s.stack, true
}

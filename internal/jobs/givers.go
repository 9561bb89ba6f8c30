package jobs

import (
	"context"

	"github.com/appengine-ltd/survivalist-processors/internal/processor"

	"github.com/google/uuid"
)

// FillProcessorGiver offers jobs loading ingredients into processors.
type FillProcessorGiver struct {
	Scheduler   Scheduler
	Ingredients Ingredients
}

// HasJobOn reports whether pawn can fill b, with a player-facing reason when
// the answer is no for a reason worth explaining.
func (g FillProcessorGiver) HasJobOn(ctx context.Context, pawn Pawn, b *Building) (bool, string) {
	if b == nil || b.Processor == nil {
		return false, ""
	}
	p := b.Processor
	if p.Finished() || p.Count() >= p.Capacity() {
		return false, ""
	}
	if !p.TemperatureAcceptable() {
		return false, ReasonBadTemperature
	}
	if p.Kind() == processor.KindSmoker && !p.CanAccept() {
		return false, ReasonSmokerLocked
	}
	if p.SpaceLeft() <= 0 {
		return false, ""
	}
	if b.Forbidden || !g.Scheduler.CanReserveAndReach(ctx, pawn, b.ID) || b.Deconstruct {
		return false, ""
	}
	if _, ok := g.Ingredients.FindIngredient(ctx, pawn, p.Policy().Accepts); !ok {
		return false, ReasonNoIngredient
	}
	return !p.Burning(), ""
}

// JobOn builds the fill job; the pawn brings as much as fits.
func (g FillProcessorGiver) JobOn(ctx context.Context, pawn Pawn, b *Building) (Job, bool) {
	stack, ok := g.Ingredients.FindIngredient(ctx, pawn, b.Processor.Policy().Accepts)
	if !ok {
		return Job{}, false
	}
	return Job{
		ID:         uuid.New(),
		Kind:       KindFill,
		Pawn:       pawn,
		Building:   b,
		Ingredient: stack,
		Count:      b.Processor.SpaceLeft(),
	}, true
}

// TendGiver offers jobs tending neglected smokers.
type TendGiver struct {
	Scheduler Scheduler
}

func (g TendGiver) HasJobOn(ctx context.Context, pawn Pawn, b *Building) bool {
	if b == nil || b.Processor == nil {
		return false
	}
	p := b.Processor
	return p.NeedsTending() && !p.Burning() && !b.Forbidden && g.Scheduler.CanReserveAndReach(ctx, pawn, b.ID)
}

func (g TendGiver) JobOn(pawn Pawn, b *Building) Job {
	return Job{ID: uuid.New(), Kind: KindTend, Pawn: pawn, Building: b}
}

// TakeProductGiver offers jobs emptying finished processors.
type TakeProductGiver struct {
	Scheduler Scheduler
}

func (g TakeProductGiver) HasJobOn(ctx context.Context, pawn Pawn, b *Building) bool {
	if b == nil || b.Processor == nil {
		return false
	}
	return b.Processor.Finished() && !b.Processor.Burning() && !b.Forbidden &&
		g.Scheduler.CanReserveAndReach(ctx, pawn, b.ID)
}

func (g TakeProductGiver) JobOn(pawn Pawn, b *Building) Job {
	return Job{ID: uuid.New(), Kind: KindTakeProduct, Pawn: pawn, Building: b}
}

// Package jobs decides when a pawn has work at a processor and walks the
// pawn through it. Reservation, movement and waiting belong to the host and
// are reached through Scheduler.
package jobs

import (
	"context"

	"github.com/appengine-ltd/survivalist-processors/internal/processor"

	"github.com/google/uuid"
)

// GenericWaitDuration is how long a pawn works at a processor, in ticks.
const GenericWaitDuration = 200

// Fail reasons shown to the player when a giver has nothing to offer.
const (
	ReasonBadTemperature = "bad temperature"
	ReasonSmokerLocked   = "smoker locked"
	ReasonNoIngredient   = "no ingredient"
)

// Pawn is the worker doing a job.
type Pawn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Building is a processor placed in the world.
type Building struct {
	ID          string
	Processor   *processor.Processor
	Forbidden   bool
	Deconstruct bool
}

// Stack is an ingredient stack the host found for a fill job.
type Stack struct {
	ID   string
	Item processor.Item
}

// Scheduler is the host's reservation and movement system.
type Scheduler interface {
	CanReserveAndReach(ctx context.Context, pawn Pawn, target string) bool
	Reserve(ctx context.Context, pawn Pawn, target string) error
	GotoThing(ctx context.Context, pawn Pawn, target string) error
	Wait(ctx context.Context, pawn Pawn, ticks int) error
	Release(ctx context.Context, pawn Pawn, target string)
}

// Ingredients finds the closest reachable stack matching accepts.
type Ingredients interface {
	FindIngredient(ctx context.Context, pawn Pawn, accepts func(processor.Item) bool) (Stack, bool)
}

// Kind names what a job does.
type Kind string

const (
	KindFill        Kind = "fill"
	KindTend        Kind = "tend"
	KindTakeProduct Kind = "take_product"
)

// Job is a unit of work handed to a driver.
type Job struct {
	ID         uuid.UUID
	Kind       Kind
	Pawn       Pawn
	Building   *Building
	Ingredient Stack
	// Count is how many units a fill job may deposit.
	Count int
}

// Condition is how a job ended.
type Condition string

const (
	Succeeded     Condition = "succeeded"
	Incompletable Condition = "incompletable"
	Errored       Condition = "errored"
	Interrupted   Condition = "interrupted"
)

// Outcome reports the result of running a job.
type Outcome struct {
	Condition Condition
	Reason    string
	Accepted  int
	// Leftover is what the pawn still carries after a partial deposit.
	Leftover int
	Product  processor.Product
}

func (o Outcome) Succeeded() bool { return o.Condition == Succeeded }

package jobs

import (
	"context"
	"errors"

	"github.com/appengine-ltd/survivalist-processors/internal/processor"

	"github.com/rs/zerolog"
)

// Driver runs jobs step by step: reserve, walk, work, commit. Fail conditions
// are re-checked between steps since the world moves on while the pawn walks.
type Driver struct {
	sched Scheduler
	log   zerolog.Logger
}

func NewDriver(sched Scheduler, log *zerolog.Logger) *Driver {
	base := zerolog.Nop()
	if log != nil {
		base = *log
	}
	return &Driver{sched: sched, log: base.With().Str("component", "jobs").Logger()}
}

// Run dispatches job to the driver for its kind.
func (d *Driver) Run(ctx context.Context, job Job) Outcome {
	switch job.Kind {
	case KindFill:
		return d.RunFill(ctx, job)
	case KindTend:
		return d.RunTend(ctx, job)
	case KindTakeProduct:
		return d.RunTakeProduct(ctx, job)
	default:
		return Outcome{Condition: Errored, Reason: "unknown job kind " + string(job.Kind)}
	}
}

// toil is one step of a job.
type toil func(ctx context.Context) error

// failCheck returns a non-empty reason once the job can no longer complete.
type failCheck func() string

type incompletable string

func (e incompletable) Error() string { return string(e) }

func (d *Driver) run(ctx context.Context, job Job, fail failCheck, toils ...toil) Outcome {
	log := d.log.With().Str("job_id", job.ID.String()).Str("job", string(job.Kind)).
		Str("pawn", job.Pawn.ID).Logger()
	log.Debug().Msg("job started")

	for _, step := range toils {
		if err := ctx.Err(); err != nil {
			log.Debug().Err(err).Msg("job interrupted")
			return Outcome{Condition: Interrupted, Reason: err.Error()}
		}
		if reason := fail(); reason != "" {
			log.Debug().Str("reason", reason).Msg("job failed")
			return Outcome{Condition: Incompletable, Reason: reason}
		}
		if err := step(ctx); err != nil {
			var inc incompletable
			switch {
			case errors.As(err, &inc):
				log.Debug().Str("reason", string(inc)).Msg("job ended incompletable")
				return Outcome{Condition: Incompletable, Reason: string(inc)}
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				log.Debug().Err(err).Msg("job interrupted")
				return Outcome{Condition: Interrupted, Reason: err.Error()}
			default:
				log.Warn().Err(err).Msg("job errored")
				return Outcome{Condition: Errored, Reason: err.Error()}
			}
		}
	}
	log.Debug().Msg("job finished")
	return Outcome{Condition: Succeeded}
}

func (d *Driver) reserve(pawn Pawn, target string, held *[]string) toil {
	return func(ctx context.Context) error {
		if err := d.sched.Reserve(ctx, pawn, target); err != nil {
			return err
		}
		*held = append(*held, target)
		return nil
	}
}

func (d *Driver) release(pawn Pawn, held []string) {
	// Reservations must be dropped even when the job context is gone.
	ctx := context.Background()
	for _, target := range held {
		d.sched.Release(ctx, pawn, target)
	}
}

func (d *Driver) goTo(pawn Pawn, target string) toil {
	return func(ctx context.Context) error { return d.sched.GotoThing(ctx, pawn, target) }
}

func (d *Driver) wait(pawn Pawn) toil {
	return func(ctx context.Context) error { return d.sched.Wait(ctx, pawn, GenericWaitDuration) }
}

func buildingFail(job Job) string {
	if job.Building == nil || job.Building.Processor == nil {
		return "processor gone"
	}
	if job.Building.Forbidden {
		return "processor forbidden"
	}
	return ""
}

// RunFill carries the job's ingredient to the processor and deposits it.
func (d *Driver) RunFill(ctx context.Context, job Job) Outcome {
	if reason := buildingFail(job); reason != "" {
		return Outcome{Condition: Incompletable, Reason: reason}
	}
	var held []string
	defer func() { d.release(job.Pawn, held) }()

	accepted := 0
	fail := func() string {
		if reason := buildingFail(job); reason != "" {
			return reason
		}
		if job.Building.Processor.SpaceLeft() <= 0 {
			return "no space left"
		}
		if !job.Ingredient.Item.Fresh() {
			return "ingredient spoiled"
		}
		return ""
	}
	deposit := func(context.Context) error {
		item := job.Ingredient.Item
		if job.Count > 0 && item.Count > job.Count {
			item.Count = job.Count
		}
		accepted = job.Building.Processor.Deposit(item)
		if accepted <= 0 {
			return incompletable("processor accepted nothing")
		}
		return nil
	}

	out := d.run(ctx, job, fail,
		d.reserve(job.Pawn, job.Ingredient.ID, &held),
		d.reserve(job.Pawn, job.Building.ID, &held),
		d.goTo(job.Pawn, job.Ingredient.ID),
		d.goTo(job.Pawn, job.Building.ID),
		d.wait(job.Pawn),
		deposit,
	)
	out.Accepted = accepted
	if accepted > 0 {
		out.Leftover = job.Ingredient.Item.Count - accepted
	}
	return out
}

// RunTend walks to a smoker and tends it.
func (d *Driver) RunTend(ctx context.Context, job Job) Outcome {
	if reason := buildingFail(job); reason != "" {
		return Outcome{Condition: Incompletable, Reason: reason}
	}
	var held []string
	defer func() { d.release(job.Pawn, held) }()

	fail := func() string {
		if reason := buildingFail(job); reason != "" {
			return reason
		}
		if !job.Building.Processor.NeedsTending() {
			return "no longer needs tending"
		}
		return ""
	}
	tend := func(context.Context) error {
		job.Building.Processor.Tend()
		return nil
	}
	return d.run(ctx, job, fail,
		d.reserve(job.Pawn, job.Building.ID, &held),
		d.goTo(job.Pawn, job.Building.ID),
		d.wait(job.Pawn),
		tend,
	)
}

// RunTakeProduct empties a finished processor. Hauling the product to
// storage is left to the host.
func (d *Driver) RunTakeProduct(ctx context.Context, job Job) Outcome {
	if reason := buildingFail(job); reason != "" {
		return Outcome{Condition: Incompletable, Reason: reason}
	}
	var held []string
	defer func() { d.release(job.Pawn, held) }()

	var taken processor.Product
	fail := func() string {
		if reason := buildingFail(job); reason != "" {
			return reason
		}
		if !job.Building.Processor.Finished() {
			return "processor not finished"
		}
		return ""
	}
	take := func(context.Context) error {
		out, ok := job.Building.Processor.TakeOutProduct()
		if !ok {
			return incompletable("no product to take")
		}
		if out.IsZero() {
			return incompletable("nothing came out")
		}
		taken = out
		return nil
	}

	out := d.run(ctx, job, fail,
		d.reserve(job.Pawn, job.Building.ID, &held),
		d.goTo(job.Pawn, job.Building.ID),
		d.wait(job.Pawn),
		take,
	)
	out.Product = taken
	return out
}

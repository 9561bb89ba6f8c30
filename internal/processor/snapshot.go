package processor

import (
	"math"

	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"

	"github.com/google/uuid"
)

// Record is the flat, serializable form of a processor's mutable state. The
// storage format belongs to the caller.
type Record struct {
	ID                uuid.UUID     `json:"id"`
	Kind              Kind          `json:"kind"`
	InputCount        int           `json:"input_count"`
	Progress          float64       `json:"progress"`
	TicksSinceTending int           `json:"ticks_since_tending,omitempty"`
	RottingTicks      int           `json:"rotting_ticks,omitempty"`
	Sources           []SourceCount `json:"sources,omitempty"`
	Ticks             int64         `json:"ticks"`
}

// Snapshot captures the processor's mutable state.
func (p *Processor) Snapshot() Record {
	return Record{
		ID:                p.id,
		Kind:              p.cfg.Kind,
		InputCount:        p.ledger.Count(),
		Progress:          p.clock.Progress(),
		TicksSinceTending: p.tending.TicksSinceTending(),
		RottingTicks:      p.tending.RottingTicks(),
		Sources:           p.manifest.Sources(),
		Ticks:             p.ticks,
	}
}

// Restore replaces the mutable state with r after checking it is consistent
// with this processor's configuration. On error the processor is unchanged.
func (p *Processor) Restore(r Record) error {
	if err := p.checkRecord(r); err != nil {
		return perr.WithOp(err, "processor.restore")
	}
	if r.ID != uuid.Nil {
		p.id = r.ID
	}
	p.ledger.restore(r.InputCount)
	p.clock.Set(r.Progress)
	p.tending.restore(r.TicksSinceTending, r.RottingTicks)
	p.manifest.restore(r.Sources)
	p.ticks = r.Ticks
	if r.InputCount == 0 {
		p.clock.Reset()
	}
	p.env.NotifyVisualDirty()
	return nil
}

func (p *Processor) checkRecord(r Record) error {
	if r.Kind != "" && r.Kind != p.cfg.Kind {
		return perr.InvalidArgf("record kind %s does not match processor kind %s", r.Kind, p.cfg.Kind)
	}
	if r.InputCount < 0 || r.InputCount > p.ledger.Capacity() {
		return perr.WithField(perr.Consistencyf("input count %d outside [0, %d]", r.InputCount, p.ledger.Capacity()), "input_count")
	}
	if math.IsNaN(r.Progress) || r.Progress < 0 || r.Progress > 1 {
		return perr.WithField(perr.Consistencyf("progress %v outside [0, 1]", r.Progress), "progress")
	}
	if r.TicksSinceTending < 0 || r.RottingTicks < 0 || r.Ticks < 0 {
		return perr.Consistencyf("negative tick counters in record")
	}
	if p.policy.TracksOrigins {
		total := 0
		for _, s := range r.Sources {
			if s.Count <= 0 || s.Def == "" {
				return perr.WithField(perr.Consistencyf("invalid source entry %+v", s), "sources")
			}
			total += s.Count
		}
		if total != r.InputCount {
			return perr.WithField(perr.Consistencyf("sources sum to %d but input count is %d", total, r.InputCount), "sources")
		}
	} else if len(r.Sources) > 0 {
		return perr.WithField(perr.InvalidArgf("%s does not track sources", p.cfg.Kind), "sources")
	}
	return nil
}

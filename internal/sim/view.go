package sim

import (
	"github.com/appengine-ltd/survivalist-processors/internal/inspect"
	"github.com/appengine-ltd/survivalist-processors/internal/processor"
	"github.com/appengine-ltd/survivalist-processors/internal/snare"
)

// ProcessorView is a read-only summary of one processor.
type ProcessorView struct {
	Name         string                  `json:"name"`
	ID           string                  `json:"id"`
	Kind         processor.Kind          `json:"kind"`
	Count        int                     `json:"count"`
	Capacity     int                     `json:"capacity"`
	Progress     float64                 `json:"progress"`
	Finished     bool                    `json:"finished"`
	NeedsTending bool                    `json:"needs_tending,omitempty"`
	RotProgress  float64                 `json:"rot_progress,omitempty"`
	SpeedFactor  float64                 `json:"speed_factor"`
	TicksLeft    int                     `json:"ticks_left"`
	Fuel         bool                    `json:"fuel"`
	Burning      bool                    `json:"burning,omitempty"`
	Sources      []processor.SourceCount `json:"sources,omitempty"`
	Inspect      string                  `json:"inspect"`
}

// SnareView is a read-only summary of one snare.
type SnareView struct {
	Name      string   `json:"name"`
	ID        string   `json:"id"`
	Disabled  bool     `json:"disabled"`
	Holding   string   `json:"holding,omitempty"`
	Occupants []string `json:"occupants,omitempty"`
	Inspect   string   `json:"inspect"`
}

// Status summarises the whole world.
type Status struct {
	Tick        int64           `json:"tick"`
	Temperature float64         `json:"temperature"`
	Processors  []ProcessorView `json:"processors"`
	Snares      []SnareView     `json:"snares,omitempty"`
	Products    map[string]int  `json:"products,omitempty"`
}

func (s *Site) view() ProcessorView {
	p := s.Processor()
	return ProcessorView{
		Name:         s.Name,
		ID:           p.ID().String(),
		Kind:         p.Kind(),
		Count:        p.Count(),
		Capacity:     p.Capacity(),
		Progress:     p.Progress(),
		Finished:     p.Finished(),
		NeedsTending: p.NeedsTending(),
		RotProgress:  p.RotProgress(),
		SpeedFactor:  p.SpeedFactor(),
		TicksLeft:    p.EstimatedTicksLeft(),
		Fuel:         s.env.fuel,
		Burning:      s.env.burning,
		Sources:      p.Sources(),
		Inspect:      inspect.Processor(p),
	}
}

func (s *SnareSite) view() SnareView {
	v := SnareView{
		Name:     s.Name,
		ID:       s.Snare.ID().String(),
		Disabled: s.Snare.Disabled(),
		Inspect:  inspect.Snare(s.Snare),
	}
	for _, c := range s.occupants {
		v.Occupants = append(v.Occupants, c.ID)
		if c.ID == s.Snare.Affected() && s.Snare.Grip(c.ID) != snare.GripNone {
			v.Holding = c.ID
		}
	}
	return v
}

// View returns the summary of the processor called name.
func (w *World) View(name string) (ProcessorView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.site(name)
	if err != nil {
		return ProcessorView{}, err
	}
	return s.view(), nil
}

// Views returns every processor in placement order.
func (w *World) Views() []ProcessorView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.views()
}

func (w *World) views() []ProcessorView {
	out := make([]ProcessorView, 0, len(w.siteOrder))
	for _, k := range w.siteOrder {
		out = append(out, w.sites[k].view())
	}
	return out
}

// Status summarises the world.
func (w *World) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status()
}

func (w *World) status() Status {
	st := Status{
		Tick:        w.tick,
		Temperature: w.temperature,
		Processors:  w.views(),
		Products:    make(map[string]int, len(w.products)),
	}
	for _, k := range w.snareOrder {
		st.Snares = append(st.Snares, w.snares[k].view())
	}
	for k, v := range w.products {
		st.Products[k] = v
	}
	return st
}

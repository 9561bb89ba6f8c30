package processor

// Environment is what a processor asks of the world around it.
type Environment interface {
	AmbientTemperature() float64
	HasFuel() bool
	IsBurning() bool
	// NotifyVisualDirty hints that cached visuals (fill bars) are stale.
	NotifyVisualDirty()
}

// StaticEnvironment is a fixed environment, handy for simulations and tests.
type StaticEnvironment struct {
	Temperature float64
	Fuel        bool
	Burning     bool
	DirtyCount  int
}

func (e *StaticEnvironment) AmbientTemperature() float64 { return e.Temperature }

func (e *StaticEnvironment) HasFuel() bool { return e.Fuel }

func (e *StaticEnvironment) IsBurning() bool { return e.Burning }

func (e *StaticEnvironment) NotifyVisualDirty() { e.DirtyCount++ }

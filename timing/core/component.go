package core

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Component wraps a Core as an akita ticking component so that an akita
// engine can clock it at the configured frequency.
type Component struct {
	*sim.TickingComponent

	core *Core
}

// NewComponent creates a component named name that clocks core on engine.
// The frequency comes from the core configuration.
func NewComponent(name string, engine sim.Engine, core *Core) *Component {
	c := &Component{core: core}
	freq := sim.Freq(core.Config().FreqMHz) * sim.MHz
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)
	return c
}

// Core returns the wrapped core.
func (c *Component) Core() *Core {
	return c.core
}

// Tick clocks the core once. It reports no progress once the core halted,
// which stops the component from scheduling further ticks.
func (c *Component) Tick() bool {
	if c.core.Halted() {
		return false
	}
	c.core.Tick()
	return true
}

// Package emu provides the RV32 functional units and a functional emulator.
package emu

// Counters holds the free-running cycle counter and the retired-instruction
// counter. Both wrap at the configured width (32 or 64 bits).
type Counters struct {
	width   int
	cycles  uint64
	instret uint64
}

// NewCounters creates counters of the given width in bits.
func NewCounters(width int) *Counters {
	if width != 32 {
		width = 64
	}
	return &Counters{width: width}
}

// Width returns the counter width in bits.
func (c *Counters) Width() int {
	return c.width
}

// Clock advances the cycle counter and, when retire is set, the
// retired-instruction counter.
func (c *Counters) Clock(retire bool) {
	c.cycles = c.wrap(c.cycles + 1)
	if retire {
		c.instret = c.wrap(c.instret + 1)
	}
}

// Cycles returns the cycle count.
func (c *Counters) Cycles() uint64 {
	return c.cycles
}

// Instret returns the retired-instruction count.
func (c *Counters) Instret() uint64 {
	return c.instret
}

// Read returns the low or high 32 bits of the selected counter snapshot.
func (c *Counters) Read(instret, high bool) uint32 {
	value := c.cycles
	if instret {
		value = c.instret
	}
	if high {
		return uint32(value >> 32)
	}
	return uint32(value)
}

// Reset clears both counters.
func (c *Counters) Reset() {
	c.cycles = 0
	c.instret = 0
}

func (c *Counters) wrap(v uint64) uint64 {
	if c.width == 32 {
		return v & 0xFFFFFFFF
	}
	return v
}

package latency

import (
	"fmt"
)

// Costs holds the cycle cost of each instruction class, measured from the
// instruction's FETCH_REGS cycle to the next instruction's FETCH_REGS cycle.
type Costs struct {
	// Startup is the number of cycles from reset to the first FETCH_REGS
	// (INITIAL, WAIT_INSTR, FETCH_INSTR). Default: 3 cycles.
	Startup uint64 `json:"startup"`

	// Sequential is the cost of an instruction that continues with the
	// prefetched instruction: ALU operations, stores, branches not taken
	// (FETCH_REGS, EXECUTE, USE_PREFETCHED_INSTR). Default: 3 cycles.
	Sequential uint64 `json:"sequential"`

	// Jump is the cost of a jump or taken branch, which discards the
	// prefetched instruction (FETCH_REGS, EXECUTE, WAIT_INSTR, FETCH_INSTR).
	// Default: 4 cycles.
	Jump uint64 `json:"jump"`

	// Load is the cost of a load, including the cycle spent waiting for
	// the data (FETCH_REGS, EXECUTE, LOAD, WAIT_ALU_OR_DATA,
	// USE_PREFETCHED_INSTR). Default: 5 cycles.
	Load uint64 `json:"load"`

	// Halt is the cost of the final jump to itself, after which the core
	// stops (FETCH_REGS, EXECUTE). Default: 2 cycles.
	Halt uint64 `json:"halt"`

	// MulDivWait is the number of WAIT_ALU_OR_DATA cycles of a multiply,
	// divide or remainder on the large ALU. Default: 33 cycles.
	MulDivWait uint64 `json:"mul_div_wait"`
}

// DefaultCosts returns the Costs of the FemtoRV state machine.
func DefaultCosts() *Costs {
	return &Costs{
		Startup:    3,
		Sequential: 3,
		Jump:       4,
		Load:       5,
		Halt:       2,
		MulDivWait: 33,
	}
}

// Validate checks that all costs are consistent with the state machine:
// every instruction passes FETCH_REGS and EXECUTE.
func (c *Costs) Validate() error {
	if c.Sequential < 2 {
		return fmt.Errorf("sequential must be >= 2")
	}
	if c.Jump < c.Sequential {
		return fmt.Errorf("jump must be >= sequential")
	}
	if c.Load < c.Sequential {
		return fmt.Errorf("load must be >= sequential")
	}
	if c.Halt < 2 {
		return fmt.Errorf("halt must be >= 2")
	}
	if c.MulDivWait == 0 {
		return fmt.Errorf("mul_div_wait must be > 0")
	}
	return nil
}

// Clone returns a copy of the Costs.
func (c *Costs) Clone() *Costs {
	clone := *c
	return &clone
}

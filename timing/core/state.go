// Package core provides the cycle-accurate model of the FemtoRV core.
package core

import "fmt"

// State is a one-hot encoded state of the core's control state machine.
type State uint16

// Core states. Each state occupies a distinct bit.
const (
	StateInitial State = 1 << iota
	StateWaitInstr
	StateFetchInstr
	StateUsePrefetchedInstr
	StateFetchRegs
	StateExecute
	StateLoad
	StateWaitALUOrData
	StateError
)

var stateNames = map[State]string{
	StateInitial:            "INITIAL",
	StateWaitInstr:          "WAIT_INSTR",
	StateFetchInstr:         "FETCH_INSTR",
	StateUsePrefetchedInstr: "USE_PREFETCHED_INSTR",
	StateFetchRegs:          "FETCH_REGS",
	StateExecute:            "EXECUTE",
	StateLoad:               "LOAD",
	StateWaitALUOrData:      "WAIT_ALU_OR_DATA",
	StateError:              "ERROR",
}

// String returns the state name, or the raw bit pattern for a pattern that
// names no state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(0b%09b)", uint16(s))
}

// IsOneHot reports whether exactly one state bit is set and that bit names
// a state.
func (s State) IsOneHot() bool {
	_, ok := stateNames[s]
	return ok
}

// Package latency provides the instruction cost model of the FemtoRV core.
//
// The costs follow from the state machine: every instruction passes
// FETCH_REGS and EXECUTE, and then either continues with the prefetched
// instruction, refetches after a control-flow change, or waits for the
// data or the ALU.
package latency

import (
	"github.com/sarchlab/femtorv/emu"
	"github.com/sarchlab/femtorv/insts"
	"github.com/sarchlab/femtorv/timing/core"
)

// Table provides instruction latency lookups.
type Table struct {
	costs *Costs
	alu   emu.ALUVariant
}

// NewTable creates a new latency table with the default costs and the
// small ALU.
func NewTable() *Table {
	return &Table{
		costs: DefaultCosts(),
		alu:   emu.ALUSmall,
	}
}

// NewTableWithConfig creates a new latency table with custom costs for the
// given ALU variant.
func NewTableWithConfig(costs *Costs, alu emu.ALUVariant) *Table {
	return &Table{
		costs: costs,
		alu:   alu,
	}
}

// GetLatency returns the cost in cycles of the given instruction.
// For variable-latency instructions it returns the typical cost: backward
// branches are assumed taken and forward branches not taken, and shifts by
// a register amount are assumed to shift by 31.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst != nil && inst.NextPC == insts.NextPCBranch && int32(inst.Imm) < 0 {
		return t.GetMaxLatency(inst)
	}
	if t.isRegisterShift(inst) {
		return t.GetMaxLatency(inst)
	}
	return t.GetMinLatency(inst)
}

// GetMinLatency returns the minimum cost of the given instruction.
func (t *Table) GetMinLatency(inst *insts.Instruction) uint64 {
	switch {
	case inst == nil || inst.Err:
		return t.costs.Halt
	case inst.IsLoad:
		return t.costs.Load
	case inst.NextPC == insts.NextPCJump:
		return t.costs.Jump
	case inst.NeedWaitALU:
		return t.costs.Sequential + t.waitCycles(inst, 0)
	default:
		return t.costs.Sequential
	}
}

// GetMaxLatency returns the maximum cost of the given instruction.
func (t *Table) GetMaxLatency(inst *insts.Instruction) uint64 {
	switch {
	case inst == nil || inst.Err:
		return t.costs.Halt
	case inst.NextPC == insts.NextPCBranch:
		return t.costs.Jump
	case inst.NeedWaitALU:
		return t.costs.Sequential + t.waitCycles(inst, 31)
	default:
		return t.GetMinLatency(inst)
	}
}

// waitCycles returns the WAIT_ALU_OR_DATA cycles of a multi-cycle ALU
// instruction. regShamt is used for shifts by a register amount.
func (t *Table) waitCycles(inst *insts.Instruction, regShamt uint32) uint64 {
	if inst.MulDiv {
		return t.costs.MulDivWait
	}

	shamt := regShamt
	if inst.ALUIn2Imm {
		shamt = inst.Imm & 0x1F
	}
	return ShiftWaitCycles(t.alu, shamt)
}

func (t *Table) isRegisterShift(inst *insts.Instruction) bool {
	return inst != nil && inst.NeedWaitALU && !inst.MulDiv && !inst.ALUIn2Imm
}

// ShiftWaitCycles returns the WAIT_ALU_OR_DATA cycles of a shift by shamt:
// one per shifter step plus the cycle that commits the result.
func ShiftWaitCycles(alu emu.ALUVariant, shamt uint32) uint64 {
	steps := shamt
	if alu == emu.ALULarge {
		steps = shamt/4 + shamt%4
	}
	return uint64(steps) + 1
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return inst != nil && (inst.IsLoad || inst.IsStore)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsLoad
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsStore
}

// IsBranchOp returns true if the instruction is a jump or a conditional
// branch.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.NextPC == insts.NextPCJump || inst.NextPC == insts.NextPCBranch
}

// Costs returns the current cost configuration.
func (t *Table) Costs() *Costs {
	return t.costs
}

// Estimate predicts the cycle count of a run from its instruction mix. The
// prediction is exact for a run that ends at a jump to itself.
func (t *Table) Estimate(stats core.Stats) uint64 {
	c := t.costs

	refetches := stats.Jumps + stats.BranchesTaken
	sequential := stats.Instructions - refetches - stats.Loads - stats.Halts

	return c.Startup +
		sequential*c.Sequential +
		refetches*c.Jump +
		stats.Loads*c.Load +
		stats.Halts*c.Halt +
		stats.WaitALUCycles
}

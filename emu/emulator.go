// Package emu provides the RV32 functional units and a functional emulator.
package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/femtorv/insts"
)

// ErrDecode is reported when an instruction word has no recognized encoding.
var ErrDecode = errors.New("illegal instruction")

// ErrMaxInstructions is reported when the instruction limit is reached.
var ErrMaxInstructions = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the instruction jumped to itself, the idle loop
	// firmware ends with.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes RV32 instructions functionally, one instruction per
// Step, with no notion of cycles. It is the architectural reference for the
// cycle-level core.
type Emulator struct {
	regFile  *RegFile
	bus      *BusDevice
	decoder  *insts.Decoder
	counters *Counters

	pc       uint32
	addrMask uint32
	mulDiv   bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithAddrWidth sets the number of significant address bits.
func WithAddrWidth(bits uint) EmulatorOption {
	return func(e *Emulator) {
		e.addrMask = uint32(uint64(1)<<bits - 1)
	}
}

// WithMulDivExtension enables the RV32M instructions.
func WithMulDivExtension(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.mulDiv = enabled
	}
}

// WithCounterWidth enables the counter reads with counters of the given
// width. Without it the counter reads are illegal instructions.
func WithCounterWidth(width int) EmulatorOption {
	return func(e *Emulator) {
		e.counters = NewCounters(width)
	}
}

// NewEmulator creates a new RV32 emulator on top of a bus device.
func NewEmulator(bus *BusDevice, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:  &RegFile{},
		bus:      bus,
		addrMask: 0xFFFFFFFF,
	}

	for _, opt := range opts {
		opt(e)
	}

	decoderOpts := []insts.DecoderOption{insts.WithMulDiv(e.mulDiv)}
	if e.counters != nil {
		decoderOpts = append(decoderOpts, insts.WithCounters(true, e.counters.Width()))
	}
	e.decoder = insts.NewDecoder(decoderOpts...)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Bus returns the emulator's bus device.
func (e *Emulator) Bus() *BusDevice {
	return e.bus
}

// PC returns the program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint32) {
	e.pc = pc & e.addrMask &^ 3
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	// 1. Fetch
	word := e.bus.Access(BusRequest{Addr: e.pc, Instr: true})

	// 2. Decode
	inst := e.decoder.Decode(word)
	if inst.Err {
		return StepResult{
			Err: fmt.Errorf("%w 0x%08X at PC=0x%X", ErrDecode, word, e.pc),
		}
	}

	// 3. Execute
	result := e.execute(inst)

	e.instructionCount++
	if e.counters != nil {
		e.counters.Clock(true)
	}

	return result
}

// Run executes instructions until the program halts or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

// execute performs the architectural effect of one decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)

	in := ALUInput{
		In1:    rs1,
		In2:    rs2,
		Funct3: inst.ALUFunct3(),
		Sub:    inst.ALUSub(),
		MulDiv: inst.MulDiv,
	}
	if inst.ALUIn1PC {
		in.In1 = e.pc
	}
	if inst.ALUIn2Imm {
		in.In2 = inst.Imm
	}
	aluOut := Compute(in)

	nextPC := e.pc + 4

	switch {
	case inst.IsLoad:
		addr := aluOut & e.addrMask
		rdata := e.bus.Access(BusRequest{Addr: addr})
		e.regFile.WriteReg(inst.Rd, LoadData(rdata, addr, inst.Funct3))
	case inst.IsStore:
		addr := aluOut & e.addrMask
		wdata, wmask := StoreData(addr, rs2, inst.Funct3)
		e.bus.Access(BusRequest{Addr: addr, WData: wdata, WMask: wmask})
	default:
		e.writeBack(inst, aluOut)
		taken := inst.NextPC == insts.NextPCJump ||
			(inst.NextPC == insts.NextPCBranch && TakeBranch(Cond(inst.Funct3), rs1, rs2))
		if taken {
			nextPC = aluOut
		}
	}

	nextPC = nextPC & e.addrMask &^ 3
	halted := nextPC == e.pc && inst.Op != insts.OpJALR
	e.pc = nextPC

	return StepResult{Halted: halted}
}

func (e *Emulator) writeBack(inst *insts.Instruction, aluOut uint32) {
	if inst.WriteBack == 0 {
		return
	}

	var value uint32
	switch inst.WriteBack {
	case insts.WriteBackALU:
		value = aluOut
	case insts.WriteBackPCNext:
		value = e.pc + 4
	case insts.WriteBackCycles:
		value = e.counters.Read(false, inst.Imm&0x80 != 0)
	case insts.WriteBackInstret:
		value = e.counters.Read(true, inst.Imm&0x80 != 0)
	}
	e.regFile.WriteReg(inst.Rd, value)
}

package core

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/femtorv/emu"
	"github.com/sarchlab/femtorv/insts"
)

// ErrCycleLimit is reported when the configured cycle limit stops the core.
var ErrCycleLimit = errors.New("cycle limit reached")

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// WaitALUCycles counts WAIT_ALU_OR_DATA cycles spent on multi-cycle
	// ALU operations.
	WaitALUCycles uint64
	// LoadCycles counts WAIT_ALU_OR_DATA cycles spent on loads.
	LoadCycles uint64
	// Jumps counts JAL and JALR, excluding the final self-jump.
	Jumps uint64
	// BranchesTaken counts taken conditional branches, excluding a final
	// branch to itself.
	BranchesTaken uint64
	// BranchesNotTaken counts conditional branches that fell through.
	BranchesNotTaken uint64
	// Loads is the number of load instructions retired.
	Loads uint64
	// Stores is the number of store instructions retired.
	Stores uint64
	// Halts is 1 once the core retired a jump or branch to itself.
	Halts uint64
}

// CPI returns the average number of cycles per retired instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core is the cycle-accurate model of the FemtoRV core: a one-hot control
// state machine that executes one instruction at a time and prefetches the
// next instruction while executing the current one.
//
// Every call to Tick is one clock edge. The bus is clocked with the outputs
// the core drives during the cycle, and every register update is visible
// from the next cycle on.
type Core struct {
	config   *Config
	logger   *logrus.Logger
	bus      emu.Bus
	decoder  *insts.Decoder
	regFile  *emu.RegFile
	alu      *emu.ALU
	counters *emu.Counters // nil when disabled

	addrMask uint32

	state     State
	pc        uint32
	addr      uint32
	instr     uint32
	nextInstr uint32
	inst      *insts.Instruction // decoded instr
	wdata     uint32
	wmask     uint8
	isInstr   bool
	errLatch  bool
	halted    bool

	stats Stats
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithConfig sets the core configuration.
func WithConfig(config *Config) CoreOption {
	return func(c *Core) {
		c.config = config
	}
}

// WithLogger sets the logger. State transitions are logged at Trace level
// and retired instructions at Debug level.
func WithLogger(logger *logrus.Logger) CoreOption {
	return func(c *Core) {
		c.logger = logger
	}
}

// NewCore creates a new core driving bus. The core starts in INITIAL, as
// after an external reset.
func NewCore(bus emu.Bus, opts ...CoreOption) (*Core, error) {
	c := &Core{
		config: DefaultConfig(),
		logger: logrus.StandardLogger(),
		bus:    bus,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	variant := c.config.ALUVariant()
	c.decoder = insts.NewDecoder(
		insts.WithMulDiv(variant == emu.ALULarge),
		insts.WithCounters(c.config.Counters, c.config.CounterWidth),
	)
	c.regFile = &emu.RegFile{}
	c.alu = emu.NewALU(variant)
	if c.config.Counters {
		c.counters = emu.NewCounters(c.config.CounterWidth)
	}
	c.addrMask = c.config.AddrMask()

	c.Reset()

	return c, nil
}

// Reset performs the external reset: every register returns to its initial
// value and the core restarts from INITIAL at the reset address. Memory is
// not affected.
func (c *Core) Reset() {
	c.state = StateInitial
	c.pc = c.config.ResetAddr
	c.addr = c.config.ResetAddr
	c.instr = 0
	c.nextInstr = 0
	c.inst = c.decoder.Decode(0)
	c.wdata = 0
	c.wmask = 0
	c.isInstr = true
	c.errLatch = false
	c.halted = false
	c.stats = Stats{}

	c.regFile.Reset()
	c.alu.Reset()
	if c.counters != nil {
		c.counters.Reset()
	}
}

// Config returns the core configuration.
func (c *Core) Config() *Config {
	return c.config
}

// State returns the current state.
func (c *Core) State() State {
	return c.state
}

// PC returns the program counter.
func (c *Core) PC() uint32 {
	return c.pc
}

// Instruction returns the instruction currently held in the instruction
// latch.
func (c *Core) Instruction() *insts.Instruction {
	return c.inst
}

// RegFile returns the register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// Counters returns the performance counters, or nil when disabled.
func (c *Core) Counters() *emu.Counters {
	return c.counters
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return c.stats
}

// Bus returns the bus signals the core drives during the current cycle.
func (c *Core) Bus() emu.BusRequest {
	return emu.BusRequest{
		Addr:  c.addr & c.addrMask,
		WData: c.wdata,
		WMask: c.wmask,
		Instr: c.isInstr,
		Error: c.Error(),
	}
}

// DecodeErr returns the combinational decode-error line for the
// instruction in the instruction latch.
func (c *Core) DecodeErr() bool {
	return c.inst.Err
}

// Error returns the error output. It stays asserted from the cycle the core
// enters ERROR until reset.
func (c *Core) Error() bool {
	return c.state == StateError
}

// Halted returns true if the core stopped: it entered ERROR, retired a jump
// to itself, or reached the cycle limit.
func (c *Core) Halted() bool {
	return c.halted || c.state == StateError || c.cycleLimitReached()
}

// Err returns the reason the core stopped, or nil if it is running or
// halted at a self-jump.
func (c *Core) Err() error {
	switch {
	case c.state == StateError:
		return fmt.Errorf("%w 0x%08X at PC=0x%X", emu.ErrDecode, c.instr, c.pc)
	case !c.halted && c.cycleLimitReached():
		return fmt.Errorf("%w after %d cycles", ErrCycleLimit, c.stats.Cycles)
	default:
		return nil
	}
}

func (c *Core) cycleLimitReached() bool {
	return c.config.MaxCycles > 0 && c.stats.Cycles >= c.config.MaxCycles
}

// Run clocks the core until it halts and returns Err.
func (c *Core) Run() error {
	for !c.Halted() {
		c.Tick()
	}
	return c.Err()
}

// RunCycles clocks the core for up to cycles cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !c.Halted(); i++ {
		c.Tick()
	}
	return !c.Halted()
}

// edge collects the signals driven to the sub-units on one clock edge.
type edge struct {
	regWrite bool
	regData  uint32
	aluStart bool
	retire   bool
}

// Tick performs one clock edge.
func (c *Core) Tick() {
	req := c.Bus()
	rdata := c.bus.RData()
	inst := c.inst
	aluIn := c.aluInput(inst)
	aluOut := c.alu.Out(aluIn)

	var e edge
	from := c.state

	switch c.state {
	case StateInitial:
		c.state = StateWaitInstr
	case StateWaitInstr:
		c.state = StateFetchInstr
	case StateFetchInstr:
		c.latchInstr(rdata)
		c.state = StateFetchRegs
	case StateUsePrefetchedInstr:
		c.latchInstr(c.nextInstr)
		c.state = StateFetchRegs
	case StateFetchRegs:
		c.errLatch = inst.Err
		c.state = StateExecute
	case StateExecute:
		c.execute(inst, aluOut, rdata, &e)
	case StateLoad:
		c.state = StateWaitALUOrData
	case StateWaitALUOrData:
		c.waitALUOrData(inst, aluOut, rdata, &e)
	case StateError:
	default:
		c.logger.WithField("state", c.state).Error("core entered an invalid state")
		c.state = StateError
	}

	c.regFile.Clock(inst.Rs1, inst.Rs2, e.regWrite, inst.Rd, e.regData)
	c.alu.Clock(e.aluStart, aluIn)
	if c.counters != nil {
		c.counters.Clock(e.retire)
	}
	c.bus.Clock(req)

	c.stats.Cycles++
	if e.retire {
		c.stats.Instructions++
	}

	if c.logger.IsLevelEnabled(logrus.TraceLevel) && from != c.state {
		c.logger.WithFields(logrus.Fields{
			"cycle": c.stats.Cycles,
			"pc":    fmt.Sprintf("0x%X", c.pc),
			"from":  from,
			"to":    c.state,
		}).Trace("state transition")
	}
}

// latchInstr loads a new instruction into the instruction latch and issues
// the fetch of the following one.
func (c *Core) latchInstr(word uint32) {
	c.instr = word
	c.inst = c.decoder.Decode(word)
	c.addr = (c.pc + 4) & c.addrMask
	c.isInstr = true
	c.wmask = 0
}

func (c *Core) aluInput(inst *insts.Instruction) emu.ALUInput {
	in := emu.ALUInput{
		In1:    c.regFile.Rs1Data(),
		In2:    c.regFile.Rs2Data(),
		Funct3: inst.ALUFunct3(),
		Sub:    inst.ALUSub(),
		MulDiv: inst.MulDiv,
	}
	if inst.ALUIn1PC {
		in.In1 = c.pc
	}
	if inst.ALUIn2Imm {
		in.In2 = inst.Imm
	}
	return in
}

func (c *Core) execute(inst *insts.Instruction, aluOut, rdata uint32, e *edge) {
	if c.errLatch {
		c.state = StateError
		c.logger.WithFields(logrus.Fields{
			"pc":    fmt.Sprintf("0x%X", c.pc),
			"instr": fmt.Sprintf("0x%08X", c.instr),
		}).Error("illegal instruction")
		return
	}

	e.aluStart = true
	e.retire = true
	c.nextInstr = rdata
	c.logRetire(inst)

	seqPC := (c.pc + 4) & c.addrMask

	switch {
	case inst.IsLoad:
		c.stats.Loads++
		c.pc = seqPC
		c.addr = aluOut & c.addrMask
		c.isInstr = false
		c.state = StateLoad

	case inst.IsStore:
		c.stats.Stores++
		c.pc = seqPC
		c.addr = aluOut & c.addrMask
		c.wdata, c.wmask = emu.StoreData(c.addr, c.regFile.Rs2Data(), inst.Funct3)
		c.isInstr = false
		c.state = StateUsePrefetchedInstr

	default:
		if inst.WriteBackEn {
			e.regWrite = true
			e.regData = c.writeBackValue(inst, aluOut, rdata)
		}

		if c.takeJump(inst) {
			target := aluOut & c.addrMask &^ 3
			c.countJump(inst, target)
			c.pc = target
			c.addr = target
			c.state = StateWaitInstr
			return
		}

		if inst.NextPC == insts.NextPCBranch {
			c.stats.BranchesNotTaken++
		}
		c.pc = seqPC
		if inst.NeedWaitALU {
			c.state = StateWaitALUOrData
		} else {
			c.state = StateUsePrefetchedInstr
		}
	}
}

func (c *Core) takeJump(inst *insts.Instruction) bool {
	switch inst.NextPC {
	case insts.NextPCJump:
		return true
	case insts.NextPCBranch:
		return emu.TakeBranch(emu.Cond(inst.Funct3), c.regFile.Rs1Data(), c.regFile.Rs2Data())
	default:
		return false
	}
}

func (c *Core) countJump(inst *insts.Instruction, target uint32) {
	switch {
	case target == c.pc && inst.Op != insts.OpJALR:
		c.halted = true
		c.stats.Halts++
		c.logger.WithField("pc", fmt.Sprintf("0x%X", c.pc)).Debug("halted at self-jump")
	case inst.NextPC == insts.NextPCJump:
		c.stats.Jumps++
	default:
		c.stats.BranchesTaken++
	}
}

func (c *Core) waitALUOrData(inst *insts.Instruction, aluOut, rdata uint32, e *edge) {
	if inst.IsLoad {
		c.stats.LoadCycles++
	} else {
		c.stats.WaitALUCycles++
	}

	if c.alu.Busy() {
		return
	}

	e.regWrite = true
	e.regData = c.writeBackValue(inst, aluOut, rdata)
	c.state = StateUsePrefetchedInstr
}

// writeBackValue selects the value committed to the destination register.
func (c *Core) writeBackValue(inst *insts.Instruction, aluOut, rdata uint32) uint32 {
	high := inst.Imm&0x80 != 0

	switch inst.WriteBack {
	case insts.WriteBackALU:
		return aluOut
	case insts.WriteBackPCNext:
		return c.pc + 4
	case insts.WriteBackLoad:
		return emu.LoadData(rdata, c.addr, inst.Funct3)
	case insts.WriteBackCycles:
		return c.counters.Read(false, high)
	case insts.WriteBackInstret:
		return c.counters.Read(true, high)
	default:
		return 0
	}
}

func (c *Core) logRetire(inst *insts.Instruction) {
	if !c.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"cycle": c.stats.Cycles,
		"pc":    fmt.Sprintf("0x%X", c.pc),
	}).Debug(inst.String())
}

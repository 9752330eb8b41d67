// Package emu provides the RV32 functional units and a functional emulator.
package emu

// ALUVariant selects the ALU implementation.
type ALUVariant uint8

// ALU variants.
const (
	// ALUSmall has a bit-serial shifter and no multiply/divide unit.
	ALUSmall ALUVariant = iota
	// ALULarge shifts up to four bits per cycle and carries the RV32M
	// multiply/divide unit.
	ALULarge
)

// mulDivSteps is the number of cycles the bit-serial multiplier and divider
// take after the start cycle.
const mulDivSteps = 32

// ALUInput holds the operands and operation selectors presented to the ALU.
type ALUInput struct {
	In1    uint32
	In2    uint32
	Funct3 uint8 // Operation selector
	Sub    bool  // Qualifier: SUB instead of ADD, SRA instead of SRL
	MulDiv bool  // RV32M operation selected by Funct3
}

// MultiCycle reports whether the operation completes only after the ALU
// drops busy.
func (in ALUInput) MultiCycle() bool {
	return in.MulDiv || in.Funct3 == 0b001 || in.Funct3 == 0b101
}

// ALU implements the RV32 arithmetic and logic operations.
//
// Single-cycle operations are combinational: Out returns their result in
// the cycle the operands are presented. Shifts and, on the large variant,
// multiply/divide/remainder are started by a start pulse on Clock and
// report Busy until their result, returned by Out, is stable.
type ALU struct {
	variant ALUVariant

	op     ALUInput
	result uint32

	// shifter
	shamt uint32

	// multiplier and divider
	steps     int
	acc       uint64 // product or partial remainder
	operand   uint64 // shifted multiplicand
	bits      uint32 // multiplier bits or quotient/dividend register
	divisor   uint32
	dividend  uint32
	negFix    bool // multiplier: rs2 was negative and signed
	negQuot   bool
	negRem    bool
	wantHigh  bool
	wantRem   bool
	divByZero bool
}

// NewALU creates a new ALU of the given variant.
func NewALU(variant ALUVariant) *ALU {
	return &ALU{variant: variant}
}

// Variant returns the ALU variant.
func (a *ALU) Variant() ALUVariant {
	return a.variant
}

// HasMulDiv reports whether the ALU carries the multiply/divide unit.
func (a *ALU) HasMulDiv() bool {
	return a.variant == ALULarge
}

// Busy reports whether a multi-cycle operation is still in progress.
func (a *ALU) Busy() bool {
	return a.shamt != 0 || a.steps != 0
}

// Out returns the ALU output for the presented operands. For multi-cycle
// operations it is the internal result register, which is only meaningful
// once Busy is false.
func (a *ALU) Out(in ALUInput) uint32 {
	if in.MultiCycle() {
		return a.result
	}
	return Compute(in)
}

// Clock performs one clock edge. A start pulse latches the operands of a
// multi-cycle operation; otherwise an operation in progress advances by one
// step.
func (a *ALU) Clock(start bool, in ALUInput) {
	if start {
		if in.MultiCycle() {
			a.start(in)
		}
		return
	}

	switch {
	case a.shamt != 0:
		a.shiftStep()
	case a.steps != 0:
		if a.op.Funct3&0b100 == 0 {
			a.mulStep()
		} else {
			a.divStep()
		}
	}
}

// Reset aborts any operation in progress.
func (a *ALU) Reset() {
	*a = ALU{variant: a.variant}
}

func (a *ALU) start(in ALUInput) {
	a.op = in
	a.shamt = 0
	a.steps = 0

	if !in.MulDiv {
		a.result = in.In1
		a.shamt = in.In2 & 0x1F
		return
	}

	if !a.HasMulDiv() {
		panic("emu: multiply/divide started on an ALU without a multiply/divide unit")
	}

	a.steps = mulDivSteps
	if in.Funct3&0b100 == 0 {
		a.startMul(in)
	} else {
		a.startDiv(in)
	}
}

func (a *ALU) shiftStep() {
	n := uint32(1)
	if a.variant == ALULarge && a.shamt >= 4 {
		n = 4
	}

	switch {
	case a.op.Funct3 == 0b001:
		a.result <<= n
	case a.op.Sub:
		a.result = uint32(int32(a.result) >> n)
	default:
		a.result >>= n
	}
	a.shamt -= n
}

// startMul prepares a shift-add multiplication over the 32 bits of rs2.
// A negative signed rs2 is corrected once all bits are consumed.
func (a *ALU) startMul(in ALUInput) {
	signed1 := in.Funct3 == 0b001 || in.Funct3 == 0b010 // MULH, MULHSU
	signed2 := in.Funct3 == 0b001                        // MULH

	a.operand = uint64(in.In1)
	if signed1 {
		a.operand = uint64(int64(int32(in.In1)))
	}
	a.bits = in.In2
	a.acc = 0
	a.negFix = signed2 && int32(in.In2) < 0
	a.wantHigh = in.Funct3 != 0b000
}

func (a *ALU) mulStep() {
	if a.bits&1 != 0 {
		a.acc += a.operand
	}
	a.operand <<= 1
	a.bits >>= 1
	a.steps--

	if a.steps != 0 {
		return
	}

	// After 32 shifts the multiplicand register holds rs1 << 32.
	if a.negFix {
		a.acc -= a.operand
	}
	if a.wantHigh {
		a.result = uint32(a.acc >> 32)
	} else {
		a.result = uint32(a.acc)
	}
}

// startDiv prepares a restoring division of the operand magnitudes.
func (a *ALU) startDiv(in ALUInput) {
	signed := in.Funct3&0b001 == 0 // DIV, REM
	dividend, divisor := in.In1, in.In2

	a.negQuot = false
	a.negRem = false
	if signed {
		neg1 := int32(dividend) < 0
		neg2 := int32(divisor) < 0
		if neg1 {
			dividend = -dividend
		}
		if neg2 {
			divisor = -divisor
		}
		a.negQuot = neg1 != neg2
		a.negRem = neg1
	}

	a.dividend = in.In1
	a.bits = dividend
	a.divisor = divisor
	a.acc = 0
	a.wantRem = in.Funct3&0b010 != 0
	a.divByZero = in.In2 == 0
}

func (a *ALU) divStep() {
	a.acc = a.acc<<1 | uint64(a.bits>>31)
	a.bits <<= 1
	if a.acc >= uint64(a.divisor) {
		a.acc -= uint64(a.divisor)
		a.bits |= 1
	}
	a.steps--

	if a.steps != 0 {
		return
	}

	quot, rem := a.bits, uint32(a.acc)
	switch {
	case a.divByZero:
		quot, rem = 0xFFFFFFFF, a.dividend
	default:
		if a.negQuot {
			quot = -quot
		}
		if a.negRem {
			rem = -rem
		}
	}

	if a.wantRem {
		a.result = rem
	} else {
		a.result = quot
	}
}

// Compute returns the final result of any ALU operation in one call.
// It defines the value every multi-cycle sequence must converge to.
func Compute(in ALUInput) uint32 {
	a, b := in.In1, in.In2

	if in.MulDiv {
		return computeMulDiv(in.Funct3, a, b)
	}

	switch in.Funct3 {
	case 0b000:
		if in.Sub {
			return a - b
		}
		return a + b
	case 0b001:
		return a << (b & 0x1F)
	case 0b010:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case 0b011:
		if a < b {
			return 1
		}
		return 0
	case 0b100:
		return a ^ b
	case 0b101:
		if in.Sub {
			return uint32(int32(a) >> (b & 0x1F))
		}
		return a >> (b & 0x1F)
	case 0b110:
		return a | b
	default:
		return a & b
	}
}

func computeMulDiv(funct3 uint8, a, b uint32) uint32 {
	const intMin = 0x80000000

	switch funct3 {
	case 0b000: // MUL
		return a * b
	case 0b001: // MULH
		return uint32(uint64(int64(int32(a))*int64(int32(b))) >> 32)
	case 0b010: // MULHSU
		return uint32(uint64(int64(int32(a))*int64(b)) >> 32)
	case 0b011: // MULHU
		return uint32(uint64(a) * uint64(b) >> 32)
	case 0b100: // DIV
		switch {
		case b == 0:
			return 0xFFFFFFFF
		case a == intMin && b == 0xFFFFFFFF:
			return intMin
		}
		return uint32(int32(a) / int32(b))
	case 0b101: // DIVU
		if b == 0 {
			return 0xFFFFFFFF
		}
		return a / b
	case 0b110: // REM
		switch {
		case b == 0:
			return a
		case a == intMin && b == 0xFFFFFFFF:
			return 0
		}
		return uint32(int32(a) % int32(b))
	default: // REMU
		if b == 0 {
			return a
		}
		return a % b
	}
}

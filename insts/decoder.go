// Package insts provides RV32I(+M) instruction definitions and decoding.
package insts

// Op represents an RV32 mnemonic.
type Op uint8

// RV32I and RV32M mnemonics.
const (
	OpUnknown Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpFENCEI
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpRDCYCLE
	OpRDCYCLEH
	OpRDINSTRET
	OpRDINSTRETH
)

// Major opcodes (bits [6:0]).
const (
	OpcodeLUI     uint32 = 0b0110111
	OpcodeAUIPC   uint32 = 0b0010111
	OpcodeJAL     uint32 = 0b1101111
	OpcodeJALR    uint32 = 0b1100111
	OpcodeBranch  uint32 = 0b1100011
	OpcodeLoad    uint32 = 0b0000011
	OpcodeStore   uint32 = 0b0100011
	OpcodeOpImm   uint32 = 0b0010011
	OpcodeOp      uint32 = 0b0110011
	OpcodeMiscMem uint32 = 0b0001111
	OpcodeSystem  uint32 = 0b1110011
)

// Counter CSR numbers readable through CSRRS rd, csr, x0.
const (
	CSRCycle    uint32 = 0xC00
	CSRInstret  uint32 = 0xC02
	CSRCycleH   uint32 = 0xC80
	CSRInstretH uint32 = 0xC82
)

// WriteBackSel selects, one-hot, the value committed to the register file.
type WriteBackSel uint8

// Write-back sources.
const (
	WriteBackALU     WriteBackSel = 1 << iota // ALU result
	WriteBackPCNext                           // address of the next instruction (JAL/JALR link)
	WriteBackLoad                             // decoded load data
	WriteBackCycles                           // cycle counter snapshot
	WriteBackInstret                          // retired-instruction counter snapshot
)

// NextPCSel selects, one-hot, how the program counter advances.
type NextPCSel uint8

// Next-PC sources.
const (
	NextPCSeq    NextPCSel = 1 << iota // PC + 4
	NextPCJump                         // PC = ALU result
	NextPCBranch                       // PC = ALU result when the predicate holds
)

// Instruction is the control bundle decoded from one RV32 instruction word.
type Instruction struct {
	Word uint32 // Raw instruction word
	Op   Op     // Mnemonic, OpUnknown when Err is set

	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register

	// Write-back control
	WriteBackEn bool         // commit in EXECUTE
	WriteBack   WriteBackSel // value committed to Rd

	// ALU control
	ALUIn1PC    bool  // first operand is PC instead of rs1
	ALUIn2Imm   bool  // second operand is Imm instead of rs2
	Funct3      uint8 // ALU op, branch condition or load/store size
	ALUQual     bool  // SUB/SRA qualifier (funct7 bit 5)
	ALUOpValid  bool  // when false the ALU performs ADD
	MulDiv      bool  // RV32M operation
	NeedWaitALU bool  // result is ready only after the ALU drops busy

	IsLoad  bool
	IsStore bool

	NextPC NextPCSel

	Imm uint32 // Sign-extended immediate

	Err bool // Unrecognized encoding
}

// ALUFunct3 returns the operation the ALU performs for this instruction.
func (i *Instruction) ALUFunct3() uint8 {
	if !i.ALUOpValid {
		return 0
	}
	return i.Funct3
}

// ALUSub reports whether the qualifier applies to the ALU operation.
func (i *Instruction) ALUSub() bool {
	return i.ALUOpValid && i.ALUQual
}

// Decoder decodes RV32 machine code into control bundles.
type Decoder struct {
	mulDiv       bool
	counters     bool
	counterWidth int
}

// DecoderOption is a functional option for configuring the Decoder.
type DecoderOption func(*Decoder)

// WithMulDiv enables recognition of the RV32M instructions.
func WithMulDiv(enabled bool) DecoderOption {
	return func(d *Decoder) {
		d.mulDiv = enabled
	}
}

// WithCounters enables recognition of the counter reads. With a width of 64
// the high-half reads (rdcycleh, rdinstreth) are recognized as well.
func WithCounters(enabled bool, width int) DecoderOption {
	return func(d *Decoder) {
		d.counters = enabled
		d.counterWidth = width
	}
}

// NewDecoder creates a new RV32I decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{counterWidth: 32}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes a 32-bit RV32 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Word: word, NextPC: NextPCSeq}

	opcode := word & 0x7F
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Rs2 = uint8((word >> 20) & 0x1F)

	switch opcode {
	case OpcodeLUI:
		d.decodeUpper(word, inst, OpLUI)
	case OpcodeAUIPC:
		d.decodeUpper(word, inst, OpAUIPC)
	case OpcodeJAL:
		d.decodeJAL(word, inst)
	case OpcodeJALR:
		d.decodeJALR(word, inst)
	case OpcodeBranch:
		d.decodeBranch(word, inst)
	case OpcodeLoad:
		d.decodeLoad(word, inst)
	case OpcodeStore:
		d.decodeStore(word, inst)
	case OpcodeOpImm:
		d.decodeOpImm(word, inst)
	case OpcodeOp:
		d.decodeOp(word, inst)
	case OpcodeMiscMem:
		d.decodeMiscMem(inst)
	case OpcodeSystem:
		d.decodeSystem(word, inst)
	default:
		inst.Err = true
	}

	if inst.Err {
		d.clear(inst)
	}

	return inst
}

// clear removes every side effect from a bundle that failed to decode.
func (d *Decoder) clear(inst *Instruction) {
	*inst = Instruction{
		Word:   inst.Word,
		Op:     OpUnknown,
		NextPC: NextPCSeq,
		Err:    true,
	}
}

// immI extracts the sign-extended I-type immediate, bits [31:20].
func immI(word uint32) uint32 {
	return uint32(int32(word) >> 20)
}

// immS extracts the sign-extended S-type immediate.
func immS(word uint32) uint32 {
	return uint32(int32(word&0xFE000000)>>20) | ((word >> 7) & 0x1F)
}

// immB extracts the sign-extended B-type immediate.
// Format: imm[12] | imm[10:5] | rs2 | rs1 | funct3 | imm[4:1] | imm[11] | opcode
func immB(word uint32) uint32 {
	imm := uint32(int32(word&0x80000000) >> 19) // imm[12] and sign
	imm |= (word & 0x80) << 4                   // imm[11]
	imm |= (word >> 20) & 0x7E0                 // imm[10:5]
	imm |= (word >> 7) & 0x1E                   // imm[4:1]
	return imm
}

// immU extracts the U-type immediate, bits [31:12] in place.
func immU(word uint32) uint32 {
	return word & 0xFFFFF000
}

// immJ extracts the sign-extended J-type immediate.
// Format: imm[20] | imm[10:1] | imm[11] | imm[19:12] | rd | opcode
func immJ(word uint32) uint32 {
	imm := uint32(int32(word&0x80000000) >> 11) // imm[20] and sign
	imm |= word & 0xFF000                       // imm[19:12]
	imm |= (word >> 9) & 0x800                  // imm[11]
	imm |= (word >> 20) & 0x7FE                 // imm[10:1]
	return imm
}

// decodeUpper decodes LUI and AUIPC.
func (d *Decoder) decodeUpper(word uint32, inst *Instruction, op Op) {
	inst.Op = op
	inst.Imm = immU(word)
	inst.Rs1 = 0 // LUI computes x0 + imm
	inst.Rs2 = 0
	inst.ALUIn1PC = op == OpAUIPC
	inst.ALUIn2Imm = true
	inst.WriteBackEn = true
	inst.WriteBack = WriteBackALU
}

// decodeJAL decodes JAL. The ALU computes the target PC + imm.
func (d *Decoder) decodeJAL(word uint32, inst *Instruction) {
	inst.Op = OpJAL
	inst.Imm = immJ(word)
	inst.Rs1 = 0
	inst.Rs2 = 0
	inst.ALUIn1PC = true
	inst.ALUIn2Imm = true
	inst.WriteBackEn = true
	inst.WriteBack = WriteBackPCNext
	inst.NextPC = NextPCJump
}

// decodeJALR decodes JALR. The ALU computes the target rs1 + imm.
func (d *Decoder) decodeJALR(word uint32, inst *Instruction) {
	if inst.Funct3 != 0 {
		inst.Err = true
		return
	}
	inst.Op = OpJALR
	inst.Imm = immI(word)
	inst.Rs2 = 0
	inst.ALUIn2Imm = true
	inst.WriteBackEn = true
	inst.WriteBack = WriteBackPCNext
	inst.NextPC = NextPCJump
}

var branchOps = [8]Op{OpBEQ, OpBNE, OpUnknown, OpUnknown, OpBLT, OpBGE, OpBLTU, OpBGEU}

// decodeBranch decodes the conditional branches. The ALU computes the
// target PC + imm while the predicate unit compares rs1 and rs2.
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	op := branchOps[inst.Funct3]
	if op == OpUnknown {
		inst.Err = true
		return
	}
	inst.Op = op
	inst.Imm = immB(word)
	inst.Rd = 0
	inst.ALUIn1PC = true
	inst.ALUIn2Imm = true
	inst.NextPC = NextPCBranch
}

var loadOps = [8]Op{OpLB, OpLH, OpLW, OpUnknown, OpLBU, OpLHU, OpUnknown, OpUnknown}

// decodeLoad decodes LB/LH/LW/LBU/LHU. Write-back happens once the data
// arrives, in WAIT_ALU_OR_DATA.
func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	op := loadOps[inst.Funct3]
	if op == OpUnknown {
		inst.Err = true
		return
	}
	inst.Op = op
	inst.Imm = immI(word)
	inst.Rs2 = 0
	inst.ALUIn2Imm = true
	inst.IsLoad = true
	inst.WriteBack = WriteBackLoad
}

var storeOps = [8]Op{OpSB, OpSH, OpSW, OpUnknown, OpUnknown, OpUnknown, OpUnknown, OpUnknown}

// decodeStore decodes SB/SH/SW.
func (d *Decoder) decodeStore(word uint32, inst *Instruction) {
	op := storeOps[inst.Funct3]
	if op == OpUnknown {
		inst.Err = true
		return
	}
	inst.Op = op
	inst.Imm = immS(word)
	inst.Rd = 0
	inst.ALUIn2Imm = true
	inst.IsStore = true
}

var opImmOps = [8]Op{OpADDI, OpSLLI, OpSLTI, OpSLTIU, OpXORI, OpSRLI, OpORI, OpANDI}

// decodeOpImm decodes the register-immediate ALU instructions.
func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	funct7 := word >> 25

	inst.Op = opImmOps[inst.Funct3]
	switch inst.Funct3 {
	case 0b001:
		if funct7 != 0 {
			inst.Err = true
			return
		}
	case 0b101:
		switch funct7 {
		case 0b0000000:
		case 0b0100000:
			inst.Op = OpSRAI
			inst.ALUQual = true
		default:
			inst.Err = true
			return
		}
	}

	inst.Imm = immI(word)
	inst.Rs2 = 0
	inst.ALUIn2Imm = true
	inst.ALUOpValid = true
	inst.WriteBack = WriteBackALU
	inst.NeedWaitALU = isShift(inst.Funct3)
	inst.WriteBackEn = !inst.NeedWaitALU
}

var (
	opOps    = [8]Op{OpADD, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpOR, OpAND}
	mulDivOp = [8]Op{OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU}
)

// decodeOp decodes the register-register ALU instructions and, when
// enabled, RV32M.
func (d *Decoder) decodeOp(word uint32, inst *Instruction) {
	funct7 := word >> 25

	switch funct7 {
	case 0b0000000:
		inst.Op = opOps[inst.Funct3]
		inst.NeedWaitALU = isShift(inst.Funct3)
	case 0b0100000:
		switch inst.Funct3 {
		case 0b000:
			inst.Op = OpSUB
		case 0b101:
			inst.Op = OpSRA
			inst.NeedWaitALU = true
		default:
			inst.Err = true
			return
		}
		inst.ALUQual = true
	case 0b0000001:
		if !d.mulDiv {
			inst.Err = true
			return
		}
		inst.Op = mulDivOp[inst.Funct3]
		inst.MulDiv = true
		inst.NeedWaitALU = true
	default:
		inst.Err = true
		return
	}

	inst.ALUOpValid = true
	inst.WriteBack = WriteBackALU
	inst.WriteBackEn = !inst.NeedWaitALU
}

// decodeMiscMem decodes FENCE and FENCE.I. With a single in-order memory
// port both are no-ops.
func (d *Decoder) decodeMiscMem(inst *Instruction) {
	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpFENCE
	case 0b001:
		inst.Op = OpFENCEI
	default:
		inst.Err = true
		return
	}
	inst.Rd = 0
	inst.Rs1 = 0
	inst.Rs2 = 0
}

// decodeSystem decodes the counter reads. Any other SYSTEM encoding,
// including ECALL and EBREAK, is a decode error.
func (d *Decoder) decodeSystem(word uint32, inst *Instruction) {
	if !d.counters || inst.Funct3 != 0b010 || inst.Rs1 != 0 {
		inst.Err = true
		return
	}

	csr := word >> 20
	high := false
	switch csr {
	case CSRCycle:
		inst.Op = OpRDCYCLE
		inst.WriteBack = WriteBackCycles
	case CSRInstret:
		inst.Op = OpRDINSTRET
		inst.WriteBack = WriteBackInstret
	case CSRCycleH:
		inst.Op = OpRDCYCLEH
		inst.WriteBack = WriteBackCycles
		high = true
	case CSRInstretH:
		inst.Op = OpRDINSTRETH
		inst.WriteBack = WriteBackInstret
		high = true
	default:
		inst.Err = true
		return
	}
	if high && d.counterWidth != 64 {
		inst.Err = true
		return
	}

	// The immediate carries the CSR number; bit 7 selects the high half.
	inst.Imm = immI(word)
	inst.Rs2 = 0
	inst.WriteBackEn = true
}

func isShift(funct3 uint8) bool {
	return funct3 == 0b001 || funct3 == 0b101
}

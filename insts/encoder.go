// Package insts provides RV32I(+M) instruction definitions and decoding.
package insts

import (
	"fmt"
)

// Format represents an RV32 encoding format.
type Format uint8

// Encoding formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatIShift // I-type with funct7 in imm[11:5]
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatFence
	FormatCSR
)

type encoding struct {
	name   string
	format Format
	opcode uint32
	funct3 uint32
	funct7 uint32 // or the CSR number for FormatCSR
}

var encodings = map[Op]encoding{
	OpLUI:        {"lui", FormatU, OpcodeLUI, 0, 0},
	OpAUIPC:      {"auipc", FormatU, OpcodeAUIPC, 0, 0},
	OpJAL:        {"jal", FormatJ, OpcodeJAL, 0, 0},
	OpJALR:       {"jalr", FormatI, OpcodeJALR, 0, 0},
	OpBEQ:        {"beq", FormatB, OpcodeBranch, 0b000, 0},
	OpBNE:        {"bne", FormatB, OpcodeBranch, 0b001, 0},
	OpBLT:        {"blt", FormatB, OpcodeBranch, 0b100, 0},
	OpBGE:        {"bge", FormatB, OpcodeBranch, 0b101, 0},
	OpBLTU:       {"bltu", FormatB, OpcodeBranch, 0b110, 0},
	OpBGEU:       {"bgeu", FormatB, OpcodeBranch, 0b111, 0},
	OpLB:         {"lb", FormatI, OpcodeLoad, 0b000, 0},
	OpLH:         {"lh", FormatI, OpcodeLoad, 0b001, 0},
	OpLW:         {"lw", FormatI, OpcodeLoad, 0b010, 0},
	OpLBU:        {"lbu", FormatI, OpcodeLoad, 0b100, 0},
	OpLHU:        {"lhu", FormatI, OpcodeLoad, 0b101, 0},
	OpSB:         {"sb", FormatS, OpcodeStore, 0b000, 0},
	OpSH:         {"sh", FormatS, OpcodeStore, 0b001, 0},
	OpSW:         {"sw", FormatS, OpcodeStore, 0b010, 0},
	OpADDI:       {"addi", FormatI, OpcodeOpImm, 0b000, 0},
	OpSLTI:       {"slti", FormatI, OpcodeOpImm, 0b010, 0},
	OpSLTIU:      {"sltiu", FormatI, OpcodeOpImm, 0b011, 0},
	OpXORI:       {"xori", FormatI, OpcodeOpImm, 0b100, 0},
	OpORI:        {"ori", FormatI, OpcodeOpImm, 0b110, 0},
	OpANDI:       {"andi", FormatI, OpcodeOpImm, 0b111, 0},
	OpSLLI:       {"slli", FormatIShift, OpcodeOpImm, 0b001, 0b0000000},
	OpSRLI:       {"srli", FormatIShift, OpcodeOpImm, 0b101, 0b0000000},
	OpSRAI:       {"srai", FormatIShift, OpcodeOpImm, 0b101, 0b0100000},
	OpADD:        {"add", FormatR, OpcodeOp, 0b000, 0b0000000},
	OpSUB:        {"sub", FormatR, OpcodeOp, 0b000, 0b0100000},
	OpSLL:        {"sll", FormatR, OpcodeOp, 0b001, 0b0000000},
	OpSLT:        {"slt", FormatR, OpcodeOp, 0b010, 0b0000000},
	OpSLTU:       {"sltu", FormatR, OpcodeOp, 0b011, 0b0000000},
	OpXOR:        {"xor", FormatR, OpcodeOp, 0b100, 0b0000000},
	OpSRL:        {"srl", FormatR, OpcodeOp, 0b101, 0b0000000},
	OpSRA:        {"sra", FormatR, OpcodeOp, 0b101, 0b0100000},
	OpOR:         {"or", FormatR, OpcodeOp, 0b110, 0b0000000},
	OpAND:        {"and", FormatR, OpcodeOp, 0b111, 0b0000000},
	OpFENCE:      {"fence", FormatFence, OpcodeMiscMem, 0b000, 0},
	OpFENCEI:     {"fence.i", FormatFence, OpcodeMiscMem, 0b001, 0},
	OpMUL:        {"mul", FormatR, OpcodeOp, 0b000, 0b0000001},
	OpMULH:       {"mulh", FormatR, OpcodeOp, 0b001, 0b0000001},
	OpMULHSU:     {"mulhsu", FormatR, OpcodeOp, 0b010, 0b0000001},
	OpMULHU:      {"mulhu", FormatR, OpcodeOp, 0b011, 0b0000001},
	OpDIV:        {"div", FormatR, OpcodeOp, 0b100, 0b0000001},
	OpDIVU:       {"divu", FormatR, OpcodeOp, 0b101, 0b0000001},
	OpREM:        {"rem", FormatR, OpcodeOp, 0b110, 0b0000001},
	OpREMU:       {"remu", FormatR, OpcodeOp, 0b111, 0b0000001},
	OpRDCYCLE:    {"rdcycle", FormatCSR, OpcodeSystem, 0b010, CSRCycle},
	OpRDCYCLEH:   {"rdcycleh", FormatCSR, OpcodeSystem, 0b010, CSRCycleH},
	OpRDINSTRET:  {"rdinstret", FormatCSR, OpcodeSystem, 0b010, CSRInstret},
	OpRDINSTRETH: {"rdinstreth", FormatCSR, OpcodeSystem, 0b010, CSRInstretH},
}

// String returns the assembler mnemonic.
func (op Op) String() string {
	if e, ok := encodings[op]; ok {
		return e.name
	}
	return "unknown"
}

// Format returns the encoding format of the mnemonic.
func (op Op) Format() Format {
	return encodings[op].format
}

// EncodeR encodes an R-type instruction.
func EncodeR(opcode, funct3, funct7 uint32, rd, rs1, rs2 uint8) uint32 {
	return funct7<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeI encodes an I-type instruction with a 12-bit signed immediate.
func EncodeI(opcode, funct3 uint32, rd, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | uint32(rs1&0x1F)<<15 |
		(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeS encodes an S-type instruction with a 12-bit signed offset.
func EncodeS(opcode, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		(funct3&0x7)<<12 | (u&0x1F)<<7 | opcode&0x7F
}

// EncodeB encodes a B-type instruction with a 13-bit signed, even offset.
func EncodeB(opcode, funct3 uint32, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&0x1)<<31 | (u>>5&0x3F)<<25 | uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 | (funct3&0x7)<<12 | (u>>1&0xF)<<8 |
		(u>>11&0x1)<<7 | opcode&0x7F
}

// EncodeU encodes a U-type instruction. imm holds the upper 20 bits.
func EncodeU(opcode uint32, rd uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFFFF)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeJ encodes a J-type instruction with a 21-bit signed, even offset.
func EncodeJ(opcode uint32, rd uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&0x1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&0x1)<<20 |
		(u>>12&0xFF)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// Assemble encodes op with the given operands. Operands that the format
// does not use are ignored. For U-type instructions imm is the 20-bit upper
// immediate; for shifts it is the shift amount.
func Assemble(op Op, rd, rs1, rs2 uint8, imm int32) uint32 {
	e, ok := encodings[op]
	if !ok {
		panic(fmt.Sprintf("insts: cannot assemble op %d", op))
	}

	switch e.format {
	case FormatR:
		return EncodeR(e.opcode, e.funct3, e.funct7, rd, rs1, rs2)
	case FormatI:
		return EncodeI(e.opcode, e.funct3, rd, rs1, imm)
	case FormatIShift:
		return EncodeI(e.opcode, e.funct3, rd, rs1, int32(e.funct7<<5)|imm&0x1F)
	case FormatS:
		return EncodeS(e.opcode, e.funct3, rs1, rs2, imm)
	case FormatB:
		return EncodeB(e.opcode, e.funct3, rs1, rs2, imm)
	case FormatU:
		return EncodeU(e.opcode, rd, imm)
	case FormatJ:
		return EncodeJ(e.opcode, rd, imm)
	case FormatFence:
		return EncodeI(e.opcode, e.funct3, 0, 0, 0x0FF)
	default: // FormatCSR
		return EncodeI(e.opcode, e.funct3, rd, 0, int32(e.funct7))
	}
}

// String disassembles the instruction.
func (i *Instruction) String() string {
	if i.Err {
		return fmt.Sprintf(".word 0x%08x", i.Word)
	}

	name := i.Op.String()
	simm := int32(i.Imm)

	switch i.Op.Format() {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", name, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		if i.IsLoad || i.Op == OpJALR {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, i.Rd, simm, i.Rs1)
		}
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rd, i.Rs1, simm)
	case FormatIShift:
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rd, i.Rs1, i.Imm&0x1F)
	case FormatS:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, i.Rs2, simm, i.Rs1)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rs1, i.Rs2, simm)
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", name, i.Rd, i.Imm>>12)
	case FormatJ:
		return fmt.Sprintf("%s x%d, %d", name, i.Rd, simm)
	case FormatCSR:
		return fmt.Sprintf("%s x%d", name, i.Rd)
	default:
		return name
	}
}

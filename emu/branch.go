// Package emu provides the RV32 functional units and a functional emulator.
package emu

// Cond represents an RV32 branch comparison, the funct3 field of a branch.
type Cond uint8

// RV32 branch conditions.
const (
	CondEQ  Cond = 0b000 // Equal
	CondNE  Cond = 0b001 // Not equal
	CondLT  Cond = 0b100 // Signed less than
	CondGE  Cond = 0b101 // Signed greater than or equal
	CondLTU Cond = 0b110 // Unsigned less than
	CondGEU Cond = 0b111 // Unsigned greater than or equal
)

// TakeBranch evaluates a branch condition on two register values.
// The reserved encodings 010 and 011 never take the branch.
func TakeBranch(cond Cond, rs1, rs2 uint32) bool {
	switch cond {
	case CondEQ:
		return rs1 == rs2
	case CondNE:
		return rs1 != rs2
	case CondLT:
		return int32(rs1) < int32(rs2)
	case CondGE:
		return int32(rs1) >= int32(rs2)
	case CondLTU:
		return rs1 < rs2
	case CondGEU:
		return rs1 >= rs2
	default:
		return false
	}
}

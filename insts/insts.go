// Package insts provides RV32I(+M) instruction definitions and decoding.
//
// This package decodes RISC-V machine code into the control bundle consumed
// by the core state machine. It supports:
//   - the RV32I base integer instruction set (FENCE executes as a no-op)
//   - the RV32M multiply/divide extension, when enabled
//   - the rdcycle[h]/rdinstret[h] counter reads, when counters are enabled
//
// Usage:
//
//	decoder := insts.NewDecoder(insts.WithMulDiv(true))
//	inst := decoder.Decode(0x02A00093) // ADDI x1, x0, 42
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, int32(inst.Imm))
package insts

package benchmarks

import (
	"github.com/sarchlab/femtorv/emu"
	"github.com/sarchlab/femtorv/insts"
)

// Register names used by the benchmark programs.
const (
	ra uint8 = 1
	sp uint8 = 2
	t0 uint8 = 5
	t1 uint8 = 6
	t2 uint8 = 7
	s0 uint8 = 8
	a0 uint8 = 10
	a1 uint8 = 11
	a2 uint8 = 12
	a3 uint8 = 13
	a4 uint8 = 14
)

// dataBase is where benchmarks keep their data, clear of the code.
const dataBase = 0x400

var asm = insts.Assemble

// halt is the jump to itself that ends every benchmark.
var halt = asm(insts.OpJAL, 0, 0, 0, 0)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// exercises a single path through the core's state machine.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		shiftHeavy(),
		mulDiv(),
		loopSimulation(),
		memcpyLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, memory traffic and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		memcpyLoop(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - every instruction takes the prefetched path
func arithmeticSequential() Benchmark {
	prog := make([]uint32, 0, 21)
	for i := 0; i < 4; i++ {
		for _, rd := range []uint8{a0, a1, a2, a3, a4} {
			prog = append(prog, asm(insts.OpADDI, rd, rd, 0, 1))
		}
	}
	prog = append(prog, halt)

	return Benchmark{
		Name:           "arithmetic_sequential",
		Description:    "20 independent ADDIs - measures the sequential cost",
		Program:        BuildProgram(prog...),
		ExpectedResult: 4,
	}
}

// 2. Dependency Chain - the core has no hazards, so this costs the same as
// the independent version
func dependencyChain() Benchmark {
	return Benchmark{
		Name:           "dependency_chain",
		Description:    "20 dependent ADDIs (a0 = a0 + 1) - shows the absence of hazards",
		Program:        buildDependencyChain(20),
		ExpectedResult: 20,
	}
}

func buildDependencyChain(n int) []byte {
	prog := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		prog = append(prog, asm(insts.OpADDI, a0, a0, 0, 1))
	}
	prog = append(prog, halt)
	return BuildProgram(prog...)
}

// 3. Memory Sequential - stores then loads a block of words
func memorySequential() Benchmark {
	prog := []uint32{asm(insts.OpADDI, sp, 0, 0, dataBase)}
	for i := int32(0); i < 4; i++ {
		prog = append(prog,
			asm(insts.OpADDI, t0, 0, 0, i+1),
			asm(insts.OpSW, 0, sp, t0, 4*i),
		)
	}
	for i := int32(0); i < 4; i++ {
		prog = append(prog,
			asm(insts.OpLW, t1, sp, 0, 4*i),
			asm(insts.OpADD, a0, a0, t1, 0),
		)
	}
	prog = append(prog, halt)

	return Benchmark{
		Name:           "memory_sequential",
		Description:    "4 SW then 4 LW to consecutive words - measures store and load costs",
		Program:        BuildProgram(prog...),
		ExpectedResult: 1 + 2 + 3 + 4,
	}
}

// 4. Function Calls - JAL/JALR pairs
func functionCalls() Benchmark {
	const calls = 5
	// The function sits right after the halt.
	funcIndex := int32(1 + calls + 1)

	prog := []uint32{asm(insts.OpADDI, a0, 0, 0, 0)}
	for i := int32(1); i <= calls; i++ {
		prog = append(prog, asm(insts.OpJAL, ra, 0, 0, 4*(funcIndex-i)))
	}
	prog = append(prog,
		halt,
		asm(insts.OpADDI, a0, a0, 0, 1),
		asm(insts.OpJALR, 0, ra, 0, 0),
	)

	return Benchmark{
		Name:           "function_calls",
		Description:    "5 calls to a leaf function - measures call/return refetch overhead",
		Program:        BuildProgram(prog...),
		ExpectedResult: calls,
	}
}

// 5. Branch Taken - each taken branch skips a poisoned instruction
func branchTaken() Benchmark {
	prog := make([]uint32, 0, 16)
	for i := 0; i < 5; i++ {
		prog = append(prog,
			asm(insts.OpBEQ, 0, 0, 0, 8),
			asm(insts.OpADDI, a0, a0, 0, 100),
			asm(insts.OpADDI, a0, a0, 0, 1),
		)
	}
	prog = append(prog, halt)

	return Benchmark{
		Name:           "branch_taken",
		Description:    "5 taken forward BEQs - measures the discarded prefetch",
		Program:        BuildProgram(prog...),
		ExpectedResult: 5,
	}
}

// 6. Shift Heavy - immediate and register shifts wait for the ALU
func shiftHeavy() Benchmark {
	return Benchmark{
		Name:        "shift_heavy",
		Description: "SLLI/SRLI/SLL/SRA - measures ALU wait cycles per shift amount",
		Program: BuildProgram(
			asm(insts.OpADDI, a0, 0, 0, 1),
			asm(insts.OpSLLI, a0, a0, 0, 8),
			asm(insts.OpSRLI, a0, a0, 0, 4),
			asm(insts.OpADDI, t0, 0, 0, 3),
			asm(insts.OpSLL, a0, a0, t0, 0),
			asm(insts.OpADDI, t1, 0, 0, 31),
			asm(insts.OpSLL, t2, a0, t1, 0),
			asm(insts.OpSRA, t2, t2, t1, 0),
			asm(insts.OpSUB, a0, a0, t2, 0),
			halt,
		),
		// 1<<8>>4<<3 = 128; (128<<31)>>31 arithmetic = 0
		ExpectedResult: 128,
	}
}

// 7. MulDiv - the M extension on the large ALU
func mulDiv() Benchmark {
	return Benchmark{
		Name:        "mul_div",
		Description: "MUL, DIV and REM - measures the serial multiplier/divider",
		Program: BuildProgram(
			asm(insts.OpADDI, t0, 0, 0, 12),
			asm(insts.OpADDI, t1, 0, 0, 7),
			asm(insts.OpMUL, a0, t0, t1, 0),
			asm(insts.OpADDI, t2, 0, 0, 5),
			asm(insts.OpREM, s0, a0, t2, 0),
			asm(insts.OpDIV, a0, a0, t2, 0),
			asm(insts.OpADD, a0, a0, s0, 0),
			halt,
		),
		NeedsMulDiv: true,
		// 84/5 + 84%5
		ExpectedResult: 16 + 4,
	}
}

// 8. Loop - a counted loop closed by a backward BNE
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "10 iterations of a counted loop - mixes sequential and taken-branch costs",
		Program: BuildProgram(
			asm(insts.OpADDI, t0, 0, 0, 10),
			asm(insts.OpADDI, a0, a0, 0, 3),
			asm(insts.OpADDI, t0, t0, 0, -1),
			asm(insts.OpBNE, 0, t0, 0, -8),
			halt,
		),
		ExpectedResult: 30,
	}
}

// 9. Memcpy Loop - loads, stores and a loop branch
func memcpyLoop() Benchmark {
	return Benchmark{
		Name:        "memcpy_loop",
		Description: "copy and sum 4 words - mixes load, store and branch costs",
		Setup: func(memory *emu.Memory) {
			for i := uint32(0); i < 4; i++ {
				memory.Write32(dataBase+4*i, i+1)
			}
		},
		Program: BuildProgram(
			asm(insts.OpADDI, t0, 0, 0, dataBase),
			asm(insts.OpADDI, t1, 0, 0, dataBase+0x100),
			asm(insts.OpADDI, t2, 0, 0, 4),
			asm(insts.OpLW, s0, t0, 0, 0),
			asm(insts.OpSW, 0, t1, s0, 0),
			asm(insts.OpADD, a0, a0, s0, 0),
			asm(insts.OpADDI, t0, t0, 0, 4),
			asm(insts.OpADDI, t1, t1, 0, 4),
			asm(insts.OpADDI, t2, t2, 0, -1),
			asm(insts.OpBNE, 0, t2, 0, -24),
			halt,
		),
		ExpectedResult: 10,
	}
}

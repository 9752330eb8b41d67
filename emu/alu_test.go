package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femtorv/emu"
)

// runALU starts a multi-cycle operation and clocks the ALU until it drops
// busy. It returns the result and the number of busy cycles.
func runALU(alu *emu.ALU, in emu.ALUInput) (uint32, int) {
	alu.Clock(true, in)
	cycles := 0
	for alu.Busy() {
		alu.Clock(false, in)
		cycles++
		Expect(cycles).To(BeNumerically("<", 100))
	}
	return alu.Out(in), cycles
}

var _ = Describe("ALU", func() {
	const intMin = uint32(0x80000000)

	operands := []uint32{
		0, 1, 2, 3, 7, 31, 32, 0x7FFFFFFF, intMin, 0x80000001,
		0xFFFFFFFF, 0xFFFFFFFE, 0x12345678, 0xDEADBEEF, 1000, 0xFFFFFC18,
	}

	Describe("single-cycle operations", func() {
		var alu *emu.ALU

		BeforeEach(func() {
			alu = emu.NewALU(emu.ALUSmall)
		})

		It("should add and subtract", func() {
			Expect(alu.Out(emu.ALUInput{In1: 5, In2: 7})).To(Equal(uint32(12)))
			Expect(alu.Out(emu.ALUInput{In1: 5, In2: 7, Sub: true})).To(Equal(uint32(0xFFFFFFFE)))
		})

		It("should compare signed and unsigned", func() {
			Expect(alu.Out(emu.ALUInput{In1: 0xFFFFFFFF, In2: 1, Funct3: 0b010})).To(Equal(uint32(1)))
			Expect(alu.Out(emu.ALUInput{In1: 0xFFFFFFFF, In2: 1, Funct3: 0b011})).To(Equal(uint32(0)))
		})

		It("should compute logic operations", func() {
			Expect(alu.Out(emu.ALUInput{In1: 0b1100, In2: 0b1010, Funct3: 0b100})).To(Equal(uint32(0b0110)))
			Expect(alu.Out(emu.ALUInput{In1: 0b1100, In2: 0b1010, Funct3: 0b110})).To(Equal(uint32(0b1110)))
			Expect(alu.Out(emu.ALUInput{In1: 0b1100, In2: 0b1010, Funct3: 0b111})).To(Equal(uint32(0b1000)))
		})

		It("should not go busy on a start pulse", func() {
			alu.Clock(true, emu.ALUInput{In1: 1, In2: 2})

			Expect(alu.Busy()).To(BeFalse())
		})
	})

	Describe("shifts", func() {
		It("should shift one bit per cycle on the small ALU", func() {
			alu := emu.NewALU(emu.ALUSmall)
			in := emu.ALUInput{In1: 1, In2: 13, Funct3: 0b001}

			result, cycles := runALU(alu, in)

			Expect(result).To(Equal(uint32(1 << 13)))
			Expect(cycles).To(Equal(13))
		})

		It("should shift up to four bits per cycle on the large ALU", func() {
			alu := emu.NewALU(emu.ALULarge)
			in := emu.ALUInput{In1: 0x80000000, In2: 13, Funct3: 0b101, Sub: true}

			result, cycles := runALU(alu, in)

			Expect(result).To(Equal(uint32(0xFFFC0000)))
			Expect(cycles).To(Equal(4))
		})

		It("should finish immediately for a zero shift amount", func() {
			alu := emu.NewALU(emu.ALUSmall)
			in := emu.ALUInput{In1: 0x1234, In2: 32, Funct3: 0b101}

			result, cycles := runALU(alu, in)

			Expect(result).To(Equal(uint32(0x1234)))
			Expect(cycles).To(Equal(0))
		})

		It("should agree with Compute for every shift", func() {
			for _, variant := range []emu.ALUVariant{emu.ALUSmall, emu.ALULarge} {
				alu := emu.NewALU(variant)
				for _, a := range operands {
					for shamt := uint32(0); shamt < 32; shamt++ {
						for _, in := range []emu.ALUInput{
							{In1: a, In2: shamt, Funct3: 0b001},
							{In1: a, In2: shamt, Funct3: 0b101},
							{In1: a, In2: shamt, Funct3: 0b101, Sub: true},
						} {
							result, _ := runALU(alu, in)
							Expect(result).To(Equal(emu.Compute(in)), "%+v", in)
						}
					}
				}
			}
		})
	})

	Describe("multiply/divide", func() {
		var alu *emu.ALU

		BeforeEach(func() {
			alu = emu.NewALU(emu.ALULarge)
		})

		It("should stay busy for 32 cycles", func() {
			_, cycles := runALU(alu, emu.ALUInput{In1: 6, In2: 7, MulDiv: true})

			Expect(cycles).To(Equal(32))
		})

		It("should follow the divide-by-zero rules", func() {
			div, _ := runALU(alu, emu.ALUInput{In1: 1234, In2: 0, Funct3: 0b100, MulDiv: true})
			rem, _ := runALU(alu, emu.ALUInput{In1: 1234, In2: 0, Funct3: 0b110, MulDiv: true})
			divNeg, _ := runALU(alu, emu.ALUInput{In1: 0xFFFFFFF0, In2: 0, Funct3: 0b100, MulDiv: true})
			remu, _ := runALU(alu, emu.ALUInput{In1: 0xFFFFFFF0, In2: 0, Funct3: 0b111, MulDiv: true})

			Expect(div).To(Equal(uint32(0xFFFFFFFF)))
			Expect(rem).To(Equal(uint32(1234)))
			Expect(divNeg).To(Equal(uint32(0xFFFFFFFF)))
			Expect(remu).To(Equal(uint32(0xFFFFFFF0)))
		})

		It("should follow the signed overflow rules", func() {
			div, _ := runALU(alu, emu.ALUInput{In1: intMin, In2: 0xFFFFFFFF, Funct3: 0b100, MulDiv: true})
			rem, _ := runALU(alu, emu.ALUInput{In1: intMin, In2: 0xFFFFFFFF, Funct3: 0b110, MulDiv: true})

			Expect(div).To(Equal(intMin))
			Expect(rem).To(Equal(uint32(0)))
		})

		It("should truncate signed division toward zero", func() {
			div, _ := runALU(alu, emu.ALUInput{In1: uint32(0xFFFFFFF9), In2: 2, Funct3: 0b100, MulDiv: true})
			rem, _ := runALU(alu, emu.ALUInput{In1: uint32(0xFFFFFFF9), In2: 2, Funct3: 0b110, MulDiv: true})

			Expect(int32(div)).To(Equal(int32(-3)))
			Expect(int32(rem)).To(Equal(int32(-1)))
		})

		It("should compute the high product halves", func() {
			mulh, _ := runALU(alu, emu.ALUInput{In1: 0xFFFFFFFF, In2: 0xFFFFFFFF, Funct3: 0b001, MulDiv: true})
			mulhu, _ := runALU(alu, emu.ALUInput{In1: 0xFFFFFFFF, In2: 0xFFFFFFFF, Funct3: 0b011, MulDiv: true})
			mulhsu, _ := runALU(alu, emu.ALUInput{In1: 0xFFFFFFFF, In2: 0xFFFFFFFF, Funct3: 0b010, MulDiv: true})

			Expect(mulh).To(Equal(uint32(0)))
			Expect(mulhu).To(Equal(uint32(0xFFFFFFFE)))
			Expect(mulhsu).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should agree with Compute for every operation", func() {
			for funct3 := uint8(0); funct3 < 8; funct3++ {
				for _, a := range operands {
					for _, b := range operands {
						in := emu.ALUInput{In1: a, In2: b, Funct3: funct3, MulDiv: true}
						result, _ := runALU(alu, in)
						Expect(result).To(Equal(emu.Compute(in)), "%+v", in)
					}
				}
			}
		})

		It("should refuse multiply/divide on the small ALU", func() {
			small := emu.NewALU(emu.ALUSmall)

			Expect(small.HasMulDiv()).To(BeFalse())
			Expect(func() {
				small.Clock(true, emu.ALUInput{In1: 1, In2: 2, MulDiv: true})
			}).To(Panic())
		})

		It("should abort on reset", func() {
			alu.Clock(true, emu.ALUInput{In1: 6, In2: 7, MulDiv: true})
			Expect(alu.Busy()).To(BeTrue())

			alu.Reset()

			Expect(alu.Busy()).To(BeFalse())
			Expect(alu.Variant()).To(Equal(emu.ALULarge))
		})
	})
})

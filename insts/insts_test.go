package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femtorv/insts"
)

var _ = Describe("Insts Package", func() {
	It("should decode the documented example", func() {
		decoder := insts.NewDecoder(insts.WithMulDiv(true))
		inst := decoder.Decode(0x02A00093)

		Expect(inst.Err).To(BeFalse())
		Expect(inst.Op).To(Equal(insts.OpADDI))
		Expect(inst.Rd).To(Equal(uint8(1)))
		Expect(inst.Rs1).To(Equal(uint8(0)))
		Expect(int32(inst.Imm)).To(Equal(int32(42)))
	})

	It("should decode everything it assembles", func() {
		decoder := insts.NewDecoder(insts.WithMulDiv(true), insts.WithCounters(true, 64))
		for op := insts.OpLUI; op <= insts.OpRDINSTRETH; op++ {
			word := insts.Assemble(op, 3, 4, 5, 8)
			Expect(decoder.Decode(word).Op).To(Equal(op), op.String())
		}
	})
})

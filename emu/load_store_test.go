package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femtorv/emu"
)

var _ = Describe("Load/Store lanes", func() {
	const (
		lb  = uint8(0b000)
		lh  = uint8(0b001)
		lw  = uint8(0b010)
		lbu = uint8(0b100)
		lhu = uint8(0b101)
	)

	Describe("LoadData", func() {
		const word = uint32(0x80F17F23)

		It("should select bytes by the low address bits", func() {
			Expect(emu.LoadData(word, 0x100, lbu)).To(Equal(uint32(0x23)))
			Expect(emu.LoadData(word, 0x101, lbu)).To(Equal(uint32(0x7F)))
			Expect(emu.LoadData(word, 0x102, lbu)).To(Equal(uint32(0xF1)))
			Expect(emu.LoadData(word, 0x103, lbu)).To(Equal(uint32(0x80)))
		})

		It("should sign-extend bytes", func() {
			Expect(emu.LoadData(word, 0x101, lb)).To(Equal(uint32(0x7F)))
			Expect(emu.LoadData(word, 0x102, lb)).To(Equal(uint32(0xFFFFFFF1)))
		})

		It("should select half-words by address bit 1", func() {
			Expect(emu.LoadData(word, 0x100, lhu)).To(Equal(uint32(0x7F23)))
			Expect(emu.LoadData(word, 0x102, lhu)).To(Equal(uint32(0x80F1)))
			Expect(emu.LoadData(word, 0x102, lh)).To(Equal(uint32(0xFFFF80F1)))
			Expect(emu.LoadData(word, 0x100, lh)).To(Equal(uint32(0x7F23)))
		})

		It("should return full words unchanged", func() {
			Expect(emu.LoadData(word, 0x100, lw)).To(Equal(word))
			Expect(emu.LoadData(word, 0x100, 0b011)).To(Equal(word))
		})
	})

	Describe("StoreData", func() {
		It("should place bytes on one lane", func() {
			for lane := uint32(0); lane < 4; lane++ {
				wdata, wmask := emu.StoreData(0x200+lane, 0xAABBCCDD, 0b000)

				Expect(wmask).To(Equal(uint8(1) << lane))
				Expect(wdata >> (lane * 8) & 0xFF).To(Equal(uint32(0xDD)))
			}
		})

		It("should place half-words on the lower or upper half", func() {
			wdata, wmask := emu.StoreData(0x200, 0xAABBCCDD, 0b001)
			Expect(wmask).To(Equal(uint8(0b0011)))
			Expect(wdata & 0xFFFF).To(Equal(uint32(0xCCDD)))

			wdata, wmask = emu.StoreData(0x202, 0xAABBCCDD, 0b001)
			Expect(wmask).To(Equal(uint8(0b1100)))
			Expect(wdata >> 16).To(Equal(uint32(0xCCDD)))
		})

		It("should write all lanes for words", func() {
			wdata, wmask := emu.StoreData(0x200, 0xAABBCCDD, 0b010)

			Expect(wmask).To(Equal(uint8(0b1111)))
			Expect(wdata).To(Equal(uint32(0xAABBCCDD)))
		})
	})
})

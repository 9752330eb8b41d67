package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femtorv/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = &emu.RegFile{}
	})

	It("should discard writes to x0", func() {
		regFile.WriteReg(0, 42)

		Expect(regFile.ReadReg(0)).To(Equal(uint32(0)))
	})

	It("should sample both read ports on the clock edge", func() {
		regFile.WriteReg(1, 10)
		regFile.WriteReg(2, 20)

		regFile.Clock(1, 2, false, 0, 0)

		Expect(regFile.Rs1Data()).To(Equal(uint32(10)))
		Expect(regFile.Rs2Data()).To(Equal(uint32(20)))
	})

	It("should return the old value when reading and writing the same register", func() {
		regFile.WriteReg(5, 1)

		regFile.Clock(5, 5, true, 5, 99)

		Expect(regFile.Rs1Data()).To(Equal(uint32(1)))
		Expect(regFile.Rs2Data()).To(Equal(uint32(1)))
		Expect(regFile.ReadReg(5)).To(Equal(uint32(99)))

		regFile.Clock(5, 0, false, 0, 0)
		Expect(regFile.Rs1Data()).To(Equal(uint32(99)))
	})

	It("should hold the read ports between edges", func() {
		regFile.WriteReg(3, 7)
		regFile.Clock(3, 0, false, 0, 0)
		regFile.WriteReg(3, 8)

		Expect(regFile.Rs1Data()).To(Equal(uint32(7)))
	})

	It("should clear everything on reset", func() {
		regFile.WriteReg(3, 7)
		regFile.Clock(3, 3, false, 0, 0)

		regFile.Reset()

		Expect(regFile.ReadReg(3)).To(BeZero())
		Expect(regFile.Rs1Data()).To(BeZero())
	})
})

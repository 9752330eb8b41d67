package core

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/femtorv/emu"
)

var _ = Describe("Core state faults", func() {
	It("should force an invalid state pattern to ERROR", func() {
		logger, hook := test.NewNullLogger()
		c, err := NewCore(emu.NewBusDevice(emu.NewMemory(64)), WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())

		c.state = StateExecute | StateLoad
		Expect(c.state.IsOneHot()).To(BeFalse())
		Expect(c.state.String()).To(Equal("State(0b001100000)"))

		c.Tick()

		Expect(c.State()).To(Equal(StateError))
		Expect(c.Error()).To(BeTrue())
		Expect(hook.LastEntry().Message).To(Equal("core entered an invalid state"))
	})

	It("should force a cleared state to ERROR", func() {
		logger, _ := test.NewNullLogger()
		c, err := NewCore(emu.NewBusDevice(emu.NewMemory(64)), WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())

		c.state = 0
		c.Tick()

		Expect(c.State()).To(Equal(StateError))
	})
})

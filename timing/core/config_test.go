package core_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femtorv/emu"
	"github.com/sarchlab/femtorv/timing/core"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	It("should default to the base core", func() {
		config := core.DefaultConfig()

		Expect(config.Validate()).To(Succeed())
		Expect(config.AddrWidth).To(Equal(uint(24)))
		Expect(config.AddrMask()).To(Equal(uint32(0xFFFFFF)))
		Expect(config.ALUVariant()).To(Equal(emu.ALUSmall))
		Expect(config.Counters).To(BeFalse())
	})

	It("should keep defaults for fields absent from the file", func() {
		path := filepath.Join(tempDir, "core.json")
		Expect(os.WriteFile(path, []byte(`{"alu": "large", "counters": true}`), 0644)).To(Succeed())

		config, err := core.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(config.ALUVariant()).To(Equal(emu.ALULarge))
		Expect(config.Counters).To(BeTrue())
		Expect(config.AddrWidth).To(Equal(uint(24)))
		Expect(config.CounterWidth).To(Equal(32))
	})

	It("should round-trip through SaveConfig", func() {
		path := filepath.Join(tempDir, "core.json")
		config := core.DefaultConfig()
		config.AddrWidth = 32
		config.ResetAddr = 0x1000
		config.MaxCycles = 1000

		Expect(config.SaveConfig(path)).To(Succeed())
		loaded, err := core.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
		Expect(loaded.AddrMask()).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("should report unreadable and malformed files", func() {
		_, err := core.LoadConfig(filepath.Join(tempDir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read core config file")))

		path := filepath.Join(tempDir, "bad.json")
		Expect(os.WriteFile(path, []byte(`{"alu": `), 0644)).To(Succeed())
		_, err = core.LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("failed to parse core config")))
	})

	It("should reject a file with out-of-range values", func() {
		path := filepath.Join(tempDir, "core.json")
		Expect(os.WriteFile(path, []byte(`{"counter_width": 48}`), 0644)).To(Succeed())

		_, err := core.LoadConfig(path)

		Expect(err).To(MatchError(ContainSubstring("counter_width must be 32 or 64")))
	})

	DescribeTable("Validate",
		func(mutate func(*core.Config), message string) {
			config := core.DefaultConfig()
			mutate(config)
			Expect(config.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("address width too small", func(c *core.Config) { c.AddrWidth = 1 }, "addr_width"),
		Entry("address width too large", func(c *core.Config) { c.AddrWidth = 33 }, "addr_width"),
		Entry("unaligned reset address", func(c *core.Config) { c.ResetAddr = 2 }, "not word aligned"),
		Entry("reset address out of range", func(c *core.Config) { c.ResetAddr = 0x1000000 }, "exceeds addr_width"),
		Entry("unknown ALU", func(c *core.Config) { c.ALU = "" }, "alu must be"),
		Entry("empty memory", func(c *core.Config) { c.MemSize = 0 }, "mem_size"),
		Entry("odd memory size", func(c *core.Config) { c.MemSize = 6 }, "mem_size"),
		Entry("zero frequency", func(c *core.Config) { c.FreqMHz = 0 }, "freq_mhz"),
	)

	It("should clone independently", func() {
		config := core.DefaultConfig()

		clone := config.Clone()
		clone.ALU = core.ALULarge

		Expect(config.ALU).To(Equal(core.ALUSmall))
	})
})

package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/femtorv/emu"
)

// ALU variant names accepted in the configuration.
const (
	ALUSmall = "small"
	ALULarge = "large"
)

// Config holds the build-time parameters of the core and its memory.
type Config struct {
	// AddrWidth is the number of significant address bits. The IO page is
	// selected by bit 22, so widths below 23 leave it unreachable.
	// Default: 24.
	AddrWidth uint `json:"addr_width"`

	// ResetAddr is the address of the first instruction fetched after
	// reset. Default: 0.
	ResetAddr uint32 `json:"reset_addr"`

	// ALU selects the ALU variant: "small" has a bit-serial shifter;
	// "large" has a faster shifter and the RV32M multiply/divide unit.
	// Default: "small".
	ALU string `json:"alu"`

	// Counters enables the cycle and retired-instruction counters and the
	// instructions that read them. Default: false.
	Counters bool `json:"counters"`

	// CounterWidth is the counter width in bits, 32 or 64. The high-half
	// reads are only decoded with 64-bit counters. Default: 32.
	CounterWidth int `json:"counter_width"`

	// MemSize is the RAM size in bytes. Default: 64 KiB.
	MemSize uint64 `json:"mem_size"`

	// MaxCycles stops the core after this many cycles. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles"`

	// FreqMHz is the clock frequency used when the core is driven by an
	// akita engine. Default: 50.
	FreqMHz float64 `json:"freq_mhz"`
}

// DefaultConfig returns the configuration of the base FemtoRV32 core.
func DefaultConfig() *Config {
	return &Config{
		AddrWidth:    24,
		ResetAddr:    0,
		ALU:          ALUSmall,
		Counters:     false,
		CounterWidth: 32,
		MemSize:      64 * 1024,
		MaxCycles:    0,
		FreqMHz:      50,
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read core config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse core config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize core config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write core config file: %w", err)
	}

	return nil
}

// Validate checks that all parameters are in range.
func (c *Config) Validate() error {
	if c.AddrWidth < 2 || c.AddrWidth > 32 {
		return fmt.Errorf("addr_width must be in [2, 32], got %d", c.AddrWidth)
	}
	if c.ResetAddr&3 != 0 {
		return fmt.Errorf("reset_addr 0x%X is not word aligned", c.ResetAddr)
	}
	if uint64(c.ResetAddr)&^c.addrMask64() != 0 {
		return fmt.Errorf("reset_addr 0x%X exceeds addr_width %d", c.ResetAddr, c.AddrWidth)
	}
	if c.ALU != ALUSmall && c.ALU != ALULarge {
		return fmt.Errorf("alu must be %q or %q, got %q", ALUSmall, ALULarge, c.ALU)
	}
	if c.CounterWidth != 32 && c.CounterWidth != 64 {
		return fmt.Errorf("counter_width must be 32 or 64, got %d", c.CounterWidth)
	}
	if c.MemSize == 0 || c.MemSize&3 != 0 {
		return fmt.Errorf("mem_size must be a non-zero multiple of 4, got %d", c.MemSize)
	}
	if c.FreqMHz <= 0 {
		return fmt.Errorf("freq_mhz must be > 0")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ALUVariant returns the configured ALU variant.
func (c *Config) ALUVariant() emu.ALUVariant {
	if c.ALU == ALULarge {
		return emu.ALULarge
	}
	return emu.ALUSmall
}

// AddrMask returns the mask of significant address bits.
func (c *Config) AddrMask() uint32 {
	return uint32(c.addrMask64())
}

func (c *Config) addrMask64() uint64 {
	return uint64(1)<<c.AddrWidth - 1
}

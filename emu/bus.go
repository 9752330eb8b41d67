// Package emu provides the RV32 functional units and a functional emulator.
package emu

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Memory-mapped IO page. An address with IOPage set selects the IO page; the
// word offset selects the device.
const (
	IOPage      uint32 = 1 << 22
	IOLEDs      uint32 = IOPage | 1<<2 // LED register, write-only
	IOUARTData  uint32 = IOPage | 1<<3 // UART transmit data, low byte
	IOUARTCntl  uint32 = IOPage | 1<<4 // UART status, reads 0 (never busy)
	ioDeviceSel uint32 = 0x3FFFFC
)

// BusRequest holds the signals the core drives onto the memory bus during
// one cycle.
type BusRequest struct {
	Addr  uint32 // Byte address
	WData uint32 // Write data, already shifted onto its byte lanes
	WMask uint8  // Per-byte write strobe
	Instr bool   // Instruction fetch (true) or data access (false)
	Error bool   // Core error output
}

// Bus is the synchronous memory collaborator of the core. Clock is called
// once per clock edge with the signals the core drives in that cycle; RData
// returns the word registered on the previous edge.
type Bus interface {
	RData() uint32
	Clock(req BusRequest)
}

// BusDevice is a single-port synchronous RAM with a fixed one-cycle read
// latency and byte-maskable writes, plus the IO page.
type BusDevice struct {
	memory *Memory
	uart   io.Writer
	logger *logrus.Logger

	rdata uint32
	leds  uint32
}

// BusOption is a functional option for configuring the BusDevice.
type BusOption func(*BusDevice)

// WithUART sets the writer receiving bytes written to the UART.
func WithUART(w io.Writer) BusOption {
	return func(b *BusDevice) {
		b.uart = w
	}
}

// WithBusLogger sets the logger used to report out-of-range accesses and
// memory faults. The memory behind the bus shares it.
func WithBusLogger(logger *logrus.Logger) BusOption {
	return func(b *BusDevice) {
		b.logger = logger
	}
}

// NewBusDevice creates a bus device in front of memory.
func NewBusDevice(memory *Memory, opts ...BusOption) *BusDevice {
	b := &BusDevice{
		memory: memory,
		uart:   io.Discard,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	memory.SetLogger(b.logger)
	return b
}

// Memory returns the RAM behind the bus.
func (b *BusDevice) Memory() *Memory {
	return b.memory
}

// LEDs returns the last value written to the LED register.
func (b *BusDevice) LEDs() uint32 {
	return b.leds
}

// RData returns the word read on the previous clock edge.
func (b *BusDevice) RData() uint32 {
	return b.rdata
}

// Clock performs one clock edge: the addressed word is registered for the
// next cycle and any strobed write is committed. The read returns the
// contents before the write.
func (b *BusDevice) Clock(req BusRequest) {
	b.rdata = b.Access(req)
}

// Access performs a single bus transaction immediately and returns the
// word read at req.Addr.
func (b *BusDevice) Access(req BusRequest) uint32 {
	if req.Addr&IOPage != 0 {
		return b.accessIO(req)
	}

	if !b.memory.InRange(req.Addr&^3, 4) {
		b.logger.WithFields(logrus.Fields{
			"addr":  req.Addr,
			"write": req.WMask != 0,
			"instr": req.Instr,
		}).Warn("bus access outside memory")
		return 0
	}

	rdata, err := b.memory.ReadWord(req.Addr)
	if err != nil {
		b.logger.WithError(err).WithField("addr", req.Addr).Error("bus read failed")
	}
	if req.WMask != 0 {
		if err := b.memory.WriteWord(req.Addr, req.WData, req.WMask); err != nil {
			b.logger.WithError(err).WithField("addr", req.Addr).Error("bus write failed")
		}
	}
	return rdata
}

func (b *BusDevice) accessIO(req BusRequest) uint32 {
	if req.WMask == 0 {
		return 0
	}

	switch req.Addr & (IOPage | ioDeviceSel) {
	case IOLEDs:
		b.leds = req.WData
	case IOUARTData:
		if _, err := b.uart.Write([]byte{byte(req.WData)}); err != nil {
			b.logger.WithError(err).Warn("uart write failed")
		}
	}
	return 0
}

// Reset clears the read register and the LED register.
func (b *BusDevice) Reset() {
	b.rdata = 0
	b.leds = 0
}

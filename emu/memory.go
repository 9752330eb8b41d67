// Package emu provides the RV32 functional units and a functional emulator.
package emu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sirupsen/logrus"
)

// ErrOutOfRange is reported for accesses outside the memory.
var ErrOutOfRange = errors.New("access outside memory")

// Memory is a little-endian byte-addressable RAM backed by an akita storage.
// The convenience accessors read zero outside [0, Size) and drop writes
// there; ReadWord and WriteWord report the failure instead. Storage faults
// seen by the convenience accessors are logged.
type Memory struct {
	storage *mem.Storage
	size    uint64
	logger  *logrus.Logger
}

// NewMemory creates a new memory of size bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{
		storage: mem.NewStorage(size),
		size:    size,
		logger:  logrus.StandardLogger(),
	}
}

// SetLogger sets the logger receiving storage faults.
func (m *Memory) SetLogger(logger *logrus.Logger) {
	m.logger = logger
}

// Size returns the memory capacity in bytes.
func (m *Memory) Size() uint64 {
	return m.size
}

// InRange reports whether the n bytes at addr lie inside the memory.
func (m *Memory) InRange(addr uint32, n uint64) bool {
	return uint64(addr)+n <= m.size
}

func (m *Memory) read(addr uint32, n uint64) ([]byte, error) {
	if !m.InRange(addr, n) {
		return nil, fmt.Errorf("%w: read of %d bytes at 0x%X", ErrOutOfRange, n, addr)
	}
	data, err := m.storage.Read(uint64(addr), n)
	if err != nil {
		return nil, fmt.Errorf("storage read at 0x%X: %w", addr, err)
	}
	return data, nil
}

func (m *Memory) write(addr uint32, data []byte) error {
	if !m.InRange(addr, uint64(len(data))) {
		return fmt.Errorf("%w: write of %d bytes at 0x%X", ErrOutOfRange, len(data), addr)
	}
	if err := m.storage.Write(uint64(addr), data); err != nil {
		return fmt.Errorf("storage write at 0x%X: %w", addr, err)
	}
	return nil
}

// report logs err unless it is a plain out-of-range access.
func (m *Memory) report(err error) {
	if err == nil || errors.Is(err, ErrOutOfRange) {
		return
	}
	m.logger.WithError(err).Error("memory fault")
}

// ReadWord reads the word containing addr. The low two address bits are
// ignored.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	data, err := m.read(addr&^3, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// WriteWord writes the byte lanes of the word containing addr selected by
// the 4-bit mask.
func (m *Memory) WriteWord(addr uint32, value uint32, mask uint8) error {
	base := addr &^ 3
	buf := make([]byte, 4)
	if mask != 0b1111 {
		old, err := m.read(base, 4)
		if err != nil {
			return err
		}
		copy(buf, old)
	}
	for lane := uint32(0); lane < 4; lane++ {
		if mask&(1<<lane) != 0 {
			buf[lane] = byte(value >> (lane * 8))
		}
	}
	return m.write(base, buf)
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) byte {
	data, err := m.read(addr, 1)
	if err != nil {
		m.report(err)
		return 0
	}
	return data[0]
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value byte) {
	m.report(m.write(addr, []byte{value}))
}

// Read32 reads the word containing addr. The low two address bits are
// ignored.
func (m *Memory) Read32(addr uint32) uint32 {
	value, err := m.ReadWord(addr)
	m.report(err)
	return value
}

// Write32 writes the word containing addr.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.WriteMasked(addr, value, 0b1111)
}

// WriteMasked writes the byte lanes of the word containing addr selected
// by the 4-bit mask.
func (m *Memory) WriteMasked(addr uint32, value uint32, mask uint8) {
	m.report(m.WriteWord(addr, value, mask))
}

// LoadProgram copies a program image into memory at addr.
func (m *Memory) LoadProgram(addr uint32, program []byte) error {
	if len(program) == 0 {
		return nil
	}
	if !m.InRange(addr, uint64(len(program))) {
		return fmt.Errorf("program of %d bytes at 0x%X does not fit in %d bytes of memory",
			len(program), addr, m.size)
	}
	if err := m.write(addr, program); err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}
	return nil
}

// Package emu provides the RV32 functional units and a functional emulator.
package emu

// RegFile represents the RV32 integer register file.
// It has two registered read ports and one write port. The read ports
// sample their registers on the clock edge, before the write port commits,
// so a read and a write of the same register in one cycle return the old
// value.
type RegFile struct {
	// X holds general-purpose registers x0-x31.
	// Writes to x0 are discarded, so X[0] always reads as 0.
	X [32]uint32

	rs1Data uint32
	rs2Data uint32
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	return r.X[reg&0x1F]
}

// WriteReg writes a value to a register. Writes to x0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	reg &= 0x1F
	if reg == 0 {
		return
	}
	r.X[reg] = value
}

// Clock performs one clock edge: both read ports sample rs1 and rs2, then
// the write port commits value to rd if we is set.
func (r *RegFile) Clock(rs1, rs2 uint8, we bool, rd uint8, value uint32) {
	r.rs1Data = r.ReadReg(rs1)
	r.rs2Data = r.ReadReg(rs2)
	if we {
		r.WriteReg(rd, value)
	}
}

// Rs1Data returns the value sampled by the first read port.
func (r *RegFile) Rs1Data() uint32 {
	return r.rs1Data
}

// Rs2Data returns the value sampled by the second read port.
func (r *RegFile) Rs2Data() uint32 {
	return r.rs2Data
}

// Reset clears all registers and read ports.
func (r *RegFile) Reset() {
	*r = RegFile{}
}

// Package emu provides the RV32 functional units and a functional emulator.
package emu

// LoadData selects the addressed byte, half-word or word out of a bus read
// and extends it to 32 bits. funct3[1:0] selects the size (00 byte, 01 half,
// otherwise word); funct3[2] selects zero extension.
func LoadData(rdata, addr uint32, funct3 uint8) uint32 {
	var value, topBit, upper uint32

	switch funct3 & 0b11 {
	case 0b00:
		value = (rdata >> ((addr & 3) * 8)) & 0xFF
		topBit, upper = 0x80, 0xFFFFFF00
	case 0b01:
		value = (rdata >> ((addr & 2) * 8)) & 0xFFFF
		topBit, upper = 0x8000, 0xFFFF0000
	default:
		return rdata
	}

	if funct3&0b100 == 0 && value&topBit != 0 {
		value |= upper
	}
	return value
}

// StoreData aligns a register value onto the byte lanes addressed by addr
// and returns the shifted write data and the 4-bit write mask.
// funct3[1:0] selects the size (00 byte, 01 half, otherwise word).
func StoreData(addr, value uint32, funct3 uint8) (wdata uint32, wmask uint8) {
	switch funct3 & 0b11 {
	case 0b00:
		lane := addr & 3
		return (value & 0xFF) << (lane * 8), 1 << lane
	case 0b01:
		half := addr & 2
		return (value & 0xFFFF) << (half * 8), 0b0011 << half
	default:
		return value, 0b1111
	}
}

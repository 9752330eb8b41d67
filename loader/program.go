package loader

import (
	"fmt"

	"github.com/sarchlab/femtorv/emu"
)

// Segment represents a loadable region of a program.
type Segment struct {
	// Addr is the byte address where this segment is loaded.
	Addr uint32
	// Data contains the segment contents.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the address of the first instruction.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
}

// WriteTo copies every segment into memory and clears the bytes between the
// end of a segment's data and its memory size.
func (p *Program) WriteTo(m *emu.Memory) error {
	for _, seg := range p.Segments {
		if err := m.LoadProgram(seg.Addr, seg.Data); err != nil {
			return fmt.Errorf("failed to write segment at 0x%x: %w", seg.Addr, err)
		}

		if bss := int64(seg.MemSize) - int64(len(seg.Data)); bss > 0 {
			addr := seg.Addr + uint32(len(seg.Data))
			if err := m.LoadProgram(addr, make([]byte, bss)); err != nil {
				return fmt.Errorf("failed to clear segment at 0x%x: %w", addr, err)
			}
		}
	}
	return nil
}

// End returns the first address past the highest segment.
func (p *Program) End() uint32 {
	var end uint32
	for _, seg := range p.Segments {
		size := seg.MemSize
		if n := uint32(len(seg.Data)); n > size {
			size = n
		}
		if seg.Addr+size > end {
			end = seg.Addr + size
		}
	}
	return end
}

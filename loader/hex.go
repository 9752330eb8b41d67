package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadHex reads a $readmemh word image, the format the FemtoRV firmware
// build produces for the FPGA block RAM.
func LoadHex(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseHex(f)
}

// ParseHex parses a $readmemh word image. Words are whitespace-separated
// hexadecimal values of up to 32 bits, stored little-endian at consecutive
// word addresses starting at 0. "@addr" moves to word address addr and "//"
// starts a comment. The entry point is 0.
func ParseHex(r io.Reader) (*Program, error) {
	prog := &Program{}
	var seg *Segment
	var wordAddr uint64

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}

		for _, field := range strings.Fields(text) {
			if addr, ok := strings.CutPrefix(field, "@"); ok {
				v, err := strconv.ParseUint(addr, 16, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad address %q: %w", line, field, err)
				}
				wordAddr = v
				seg = nil
				continue
			}

			word, err := strconv.ParseUint(strings.ReplaceAll(field, "_", ""), 16, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad word %q: %w", line, field, err)
			}
			if wordAddr >= 1<<30 {
				return nil, fmt.Errorf("line %d: word address 0x%x out of range", line, wordAddr)
			}

			if seg == nil {
				prog.Segments = append(prog.Segments, Segment{
					Addr:  uint32(wordAddr * 4),
					Flags: SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
				})
				seg = &prog.Segments[len(prog.Segments)-1]
			}
			seg.Data = binary.LittleEndian.AppendUint32(seg.Data, uint32(word))
			seg.MemSize = uint32(len(seg.Data))
			wordAddr++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	return prog, nil
}

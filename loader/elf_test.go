package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femtorv/loader"
)

const (
	emRISCV   = 243
	emAArch64 = 183
)

// testSegment describes one PT_LOAD program header of a generated ELF.
type testSegment struct {
	addr    uint32
	data    []byte
	memSize uint32
	flags   uint32
}

// writeELF32 writes a minimal little-endian ELF32 executable.
func writeELF32(path string, machine uint16, entry uint32, segs ...testSegment) {
	const ehSize, phSize = 52, 32

	header := make([]byte, ehSize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // 32-bit
	header[5] = 1 // little endian
	header[6] = 1 // version
	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], entry)
	binary.LittleEndian.PutUint32(header[28:32], ehSize) // phoff
	binary.LittleEndian.PutUint16(header[40:42], ehSize)
	binary.LittleEndian.PutUint16(header[42:44], phSize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))
	binary.LittleEndian.PutUint16(header[46:48], 40) // shentsize

	file := header
	offset := uint32(ehSize + phSize*len(segs))
	for _, seg := range segs {
		ph := make([]byte, phSize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], seg.addr)
		binary.LittleEndian.PutUint32(ph[12:16], seg.addr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(seg.data)))
		binary.LittleEndian.PutUint32(ph[20:24], seg.memSize)
		binary.LittleEndian.PutUint32(ph[24:28], seg.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 4)
		file = append(file, ph...)
		offset += uint32(len(seg.data))
	}
	for _, seg := range segs {
		file = append(file, seg.data...)
	}

	Expect(os.WriteFile(path, file, 0644)).To(Succeed())
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	code := []byte{
		0x93, 0x00, 0xa0, 0x02, // addi x1, x0, 42
		0x6f, 0x00, 0x00, 0x00, // j .
	}

	Describe("Load", func() {
		It("should extract the entry point and segment contents", func() {
			path := filepath.Join(tempDir, "firmware.elf")
			writeELF32(path, emRISCV, 0x4, testSegment{addr: 0x0, data: code, memSize: 8, flags: 0x5})

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x4)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Addr).To(BeZero())
			Expect(prog.Segments[0].Data).To(Equal(code))
			Expect(prog.Segments[0].Flags).To(Equal(loader.SegmentFlagRead | loader.SegmentFlagExecute))
		})

		It("should load multiple segments", func() {
			path := filepath.Join(tempDir, "multi.elf")
			data := []byte{1, 2, 3, 4}
			writeELF32(path, emRISCV, 0,
				testSegment{addr: 0x0, data: code, memSize: 8, flags: 0x5},
				testSegment{addr: 0x1000, data: data, memSize: 0x20, flags: 0x6},
			)

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))
			Expect(prog.Segments[1].Addr).To(Equal(uint32(0x1000)))
			Expect(prog.Segments[1].Data).To(Equal(data))
			Expect(prog.Segments[1].MemSize).To(Equal(uint32(0x20)))
			Expect(prog.Segments[1].Flags).To(Equal(loader.SegmentFlagRead | loader.SegmentFlagWrite))
			Expect(prog.End()).To(Equal(uint32(0x1020)))
		})

		It("should keep a segment without file contents", func() {
			path := filepath.Join(tempDir, "bss.elf")
			writeELF32(path, emRISCV, 0, testSegment{addr: 0x800, memSize: 0x100, flags: 0x6})

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(BeEmpty())
			Expect(prog.Segments[0].MemSize).To(Equal(uint32(0x100)))
		})

		It("should return an empty segment list without PT_LOAD headers", func() {
			path := filepath.Join(tempDir, "empty.elf")
			writeELF32(path, emRISCV, 0x100)

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(BeEmpty())
			Expect(prog.EntryPoint).To(Equal(uint32(0x100)))
		})

		It("should reject other machines", func() {
			path := filepath.Join(tempDir, "arm.elf")
			writeELF32(path, emAArch64, 0)

			_, err := loader.Load(path)

			Expect(err).To(MatchError(ContainSubstring("not a RISC-V ELF file")))
		})

		It("should reject 64-bit files", func() {
			path := filepath.Join(tempDir, "rv64.elf")
			header := make([]byte, 64)
			copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
			header[4] = 2 // 64-bit
			header[5] = 1
			header[6] = 1
			binary.LittleEndian.PutUint16(header[16:18], 2)
			binary.LittleEndian.PutUint16(header[18:20], emRISCV)
			binary.LittleEndian.PutUint32(header[20:24], 1)
			binary.LittleEndian.PutUint16(header[52:54], 64)
			Expect(os.WriteFile(path, header, 0644)).To(Succeed())

			_, err := loader.Load(path)

			Expect(err).To(MatchError("not a 32-bit ELF file"))
		})

		It("should report missing and malformed files", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.elf"))
			Expect(err).To(MatchError(ContainSubstring("failed to open ELF file")))

			path := filepath.Join(tempDir, "text.elf")
			Expect(os.WriteFile(path, []byte("not an elf"), 0644)).To(Succeed())
			_, err = loader.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})
})

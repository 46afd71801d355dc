// Package exefile reads and writes the G10 executable format (magic
// "G10X", spec §6.2): a fixed file_header, a table of loadable
// segments, and their concatenated file data. It plays the role
// lang/yld/output.go plays for WOF, which writes a flat
// header-plus-blob image with no segment table at all since wut4 has
// a single code+data layout; this format generalizes that to an
// arbitrary segment table, validated the way spec §6.2 requires.
package exefile

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Magic is the four-byte "G10X" file signature.
const Magic uint32 = 0x47313058

// Version is the only executable file version this package understands.
const Version uint16 = 0x0001

// Segment flags (bitset), spec §6.2.
const (
	SegmentRead    uint16 = 0x0001
	SegmentWrite   uint16 = 0x0002
	SegmentExec    uint16 = 0x0004
	SegmentZeroInit uint16 = 0x0008
)

// Address ranges used by the write-time validation in spec §6.2.
// Duplicated from internal/cpu's own memory-map constants rather than
// imported, the same way internal/bus keeps its own copy: each package
// that needs a handful of spec §3 addresses owns them locally instead
// of reaching across a dependency edge for four numbers.
const (
	romLow  uint32 = 0x00002000
	romHigh uint32 = 0x80000000 // exclusive
	ramLow  uint32 = 0x80000000
)

const (
	fileHeaderSize = 64
	segmentSize    = 24
	programNameLen = 32
)

// FileHeader is the 64-byte executable file header, spec §6.2.
type FileHeader struct {
	Magic           uint32
	Version         uint16
	Flags           uint16
	EntryPoint      uint32
	StackPointer    uint32
	SegmentCount    uint16
	Reserved        uint16
	TotalFileSize   uint32
	TotalMemorySize uint32
	Checksum        uint32 // 0 means not computed
	ProgramName     string
}

// Segment is one 24-byte segment_entry plus its file-resident data
// (empty for a zero-init segment).
type Segment struct {
	LoadAddress uint32
	MemorySize  uint32
	FileSize    uint32
	FileOffset  uint32
	Flags       uint16
	Alignment   uint16
	Reserved    uint32
	Data        []byte
}

// File holds a complete executable image.
type File struct {
	Header   FileHeader
	Segments []Segment
}

// Read loads and decodes an executable file from path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exefile: reading %s: %w", path, err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("exefile: %s: %w", path, err)
	}
	return f, nil
}

// Write validates f per spec §6.2 and writes it to path.
func Write(path string, f *File) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("exefile: %s: %w", path, err)
	}
	data, err := f.Encode()
	if err != nil {
		return fmt.Errorf("exefile: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0755); err != nil {
		return fmt.Errorf("exefile: writing %s: %w", path, err)
	}
	return nil
}

// Validate checks the three write-time invariants from spec §6.2:
// the entry point lies in ROM, the stack pointer is either 0 or in
// RAM, and no two segments overlap in memory.
func (f *File) Validate() error {
	h := f.Header
	if h.EntryPoint < romLow || h.EntryPoint >= romHigh {
		return fmt.Errorf("entry point $%08X outside ROM range [$%08X, $%08X)", h.EntryPoint, romLow, romHigh)
	}
	if h.StackPointer != 0 && h.StackPointer < ramLow {
		return fmt.Errorf("stack pointer $%08X is neither 0 nor in RAM (>= $%08X)", h.StackPointer, ramLow)
	}

	segs := append([]Segment(nil), f.Segments...)
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			a, b := segs[i], segs[j]
			aEnd := a.LoadAddress + a.MemorySize
			bEnd := b.LoadAddress + b.MemorySize
			if a.LoadAddress < bEnd && b.LoadAddress < aEnd {
				return fmt.Errorf("segment [$%08X,$%08X) overlaps segment [$%08X,$%08X)",
					a.LoadAddress, aEnd, b.LoadAddress, bEnd)
			}
		}
	}
	return nil
}

// Decode parses a complete executable file image.
func Decode(data []byte) (*File, error) {
	if len(data) < fileHeaderSize {
		return nil, fmt.Errorf("file too short for header (%d bytes)", len(data))
	}

	f := &File{}
	h := &f.Header
	h.Magic = binary.LittleEndian.Uint32(data[0:4])
	if h.Magic != Magic {
		return nil, fmt.Errorf("bad magic 0x%08X (want 0x%08X)", h.Magic, Magic)
	}
	h.Version = binary.LittleEndian.Uint16(data[4:6])
	h.Flags = binary.LittleEndian.Uint16(data[6:8])
	h.EntryPoint = binary.LittleEndian.Uint32(data[8:12])
	h.StackPointer = binary.LittleEndian.Uint32(data[12:16])
	h.SegmentCount = binary.LittleEndian.Uint16(data[16:18])
	h.Reserved = binary.LittleEndian.Uint16(data[18:20])
	h.TotalFileSize = binary.LittleEndian.Uint32(data[20:24])
	h.TotalMemorySize = binary.LittleEndian.Uint32(data[24:28])
	h.Checksum = binary.LittleEndian.Uint32(data[28:32])
	h.ProgramName = cString(data[32:64])

	segStart := fileHeaderSize
	dataStart := segStart + int(h.SegmentCount)*segmentSize
	if dataStart > len(data) {
		return nil, fmt.Errorf("truncated segment table (need %d bytes, have %d)", dataStart, len(data))
	}

	f.Segments = make([]Segment, h.SegmentCount)
	for i := range f.Segments {
		b := data[segStart+i*segmentSize:]
		s := &f.Segments[i]
		s.LoadAddress = binary.LittleEndian.Uint32(b[0:4])
		s.MemorySize = binary.LittleEndian.Uint32(b[4:8])
		s.FileSize = binary.LittleEndian.Uint32(b[8:12])
		s.FileOffset = binary.LittleEndian.Uint32(b[12:16])
		s.Flags = binary.LittleEndian.Uint16(b[16:18])
		s.Alignment = binary.LittleEndian.Uint16(b[18:20])
		s.Reserved = binary.LittleEndian.Uint32(b[20:24])

		if s.FileSize == 0 {
			continue
		}
		start := int(s.FileOffset)
		end := start + int(s.FileSize)
		if end > len(data) {
			return nil, fmt.Errorf("segment %d: file data [%d:%d] out of range (file is %d bytes)", i, start, end, len(data))
		}
		s.Data = append([]byte(nil), data[start:end]...)
	}

	return f, nil
}

// Encode serializes f back into the on-disk format. Segment file
// offsets and the header's size fields are recomputed from the
// segment table, in table order, immediately following the header and
// segment table (spec §6.2's "segment data, concatenated, in table
// order").
func (f *File) Encode() ([]byte, error) {
	if len(f.Segments) > 0xFFFF {
		return nil, fmt.Errorf("segment count exceeds 16 bits")
	}
	if len(f.Header.ProgramName) >= programNameLen {
		return nil, fmt.Errorf("program name %q too long (max %d bytes)", f.Header.ProgramName, programNameLen-1)
	}

	h := f.Header
	h.Magic = Magic
	if h.Version == 0 {
		h.Version = Version
	}
	h.SegmentCount = uint16(len(f.Segments))

	dataStart := fileHeaderSize + len(f.Segments)*segmentSize
	offset := dataStart
	var totalMemory uint32
	for i := range f.Segments {
		f.Segments[i].FileOffset = uint32(offset)
		f.Segments[i].FileSize = uint32(len(f.Segments[i].Data))
		offset += len(f.Segments[i].Data)
		if end := f.Segments[i].LoadAddress + f.Segments[i].MemorySize; end > totalMemory {
			totalMemory = end
		}
	}
	h.TotalFileSize = uint32(offset)
	h.TotalMemorySize = totalMemory

	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.EntryPoint)
	binary.LittleEndian.PutUint32(buf[12:16], h.StackPointer)
	binary.LittleEndian.PutUint16(buf[16:18], h.SegmentCount)
	binary.LittleEndian.PutUint16(buf[18:20], h.Reserved)
	binary.LittleEndian.PutUint32(buf[20:24], h.TotalFileSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.TotalMemorySize)
	binary.LittleEndian.PutUint32(buf[28:32], h.Checksum)
	copy(buf[32:64], h.ProgramName)

	for _, s := range f.Segments {
		e := make([]byte, segmentSize)
		binary.LittleEndian.PutUint32(e[0:4], s.LoadAddress)
		binary.LittleEndian.PutUint32(e[4:8], s.MemorySize)
		binary.LittleEndian.PutUint32(e[8:12], s.FileSize)
		binary.LittleEndian.PutUint32(e[12:16], s.FileOffset)
		binary.LittleEndian.PutUint16(e[16:18], s.Flags)
		binary.LittleEndian.PutUint16(e[18:20], s.Alignment)
		binary.LittleEndian.PutUint32(e[20:24], s.Reserved)
		buf = append(buf, e...)
	}
	for _, s := range f.Segments {
		buf = append(buf, s.Data...)
	}

	f.Header = h
	return buf, nil
}

// LoadImages splits the segment table into a ROM image (everything
// below ramLow) and a set of RAM writes (everything at or above
// ramLow), for a launcher to apply to its bus. The ROM image extends
// to the highest end address of any ROM segment; ram must already be
// large enough to hold every RAM segment's file data or LoadImages
// returns an error.
func (f *File) LoadImages(ram []byte) (rom []byte, err error) {
	var romSize uint32
	for _, s := range f.Segments {
		if s.LoadAddress < ramLow {
			if end := s.LoadAddress + s.MemorySize; end > romSize {
				romSize = end
			}
		}
	}
	rom = make([]byte, romSize)

	for _, s := range f.Segments {
		if s.LoadAddress < ramLow {
			if int(s.LoadAddress)+len(s.Data) > len(rom) {
				return nil, fmt.Errorf("ROM segment at $%08X overruns computed image size", s.LoadAddress)
			}
			copy(rom[s.LoadAddress:], s.Data)
			continue
		}
		off := s.LoadAddress - ramLow
		if int(off)+len(s.Data) > len(ram) {
			return nil, fmt.Errorf("RAM segment at $%08X (size %d) exceeds committed RAM window (%d bytes)",
				s.LoadAddress, s.MemorySize, len(ram))
		}
		copy(ram[off:], s.Data)
	}

	return rom, nil
}

func cString(b []byte) string {
	end := 0
	for end < len(b) && b[end] != 0 {
		end++
	}
	return string(b[:end])
}

// Package objfile reads and writes the G10 relocatable object format
// (magic "G10A", spec §6.1): a fixed file_header followed by
// section/symbol/relocation tables, a string table, and the raw bytes
// of every non-BSS section. It is the decode side of the format the
// teacher's lang/yld/reader.go reads for WOF; the layout here is
// spec.md's, not WOF's, but the cascading-offset parse shape is the
// same idea.
package objfile

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Magic is the four-byte "G10A" file signature.
const Magic uint32 = 0x47313041

// Version is the only object file version this package understands.
const Version uint16 = 0x0001

// Section flags (bitset), spec §6.1.
const (
	SectionExec       uint16 = 0x0001
	SectionWritable   uint16 = 0x0002
	SectionInitialized uint16 = 0x0004
	SectionZero       uint16 = 0x0008
)

// SectionExtern marks a symbol's SectionIndex as not belonging to any
// section defined in this object file.
const SectionExtern uint16 = 0xFFFF

// Symbol types, spec §6.1.
const (
	SymUndefined uint8 = 0
	SymLabel     uint8 = 1
	SymData      uint8 = 2
	SymConstant  uint8 = 3
	SymSection   uint8 = 4
)

// Symbol bindings, spec §6.1.
const (
	BindLocal  uint8 = 0
	BindGlobal uint8 = 1
	BindExtern uint8 = 2
	BindWeak   uint8 = 3
)

// Relocation types, spec §6.1 / §4.4 phase 4.
const (
	RelNone  uint8 = 0
	RelAbs32 uint8 = 1
	RelAbs16 uint8 = 2
	RelAbs8  uint8 = 3
	RelRel32 uint8 = 4
	RelRel16 uint8 = 5
	RelRel8  uint8 = 6
	RelHi16  uint8 = 7
	RelLo16  uint8 = 8
)

const (
	fileHeaderSize = 32
	sectionSize    = 16
	symbolSize     = 16
	relocSize      = 16
)

// FileHeader is the 32-byte object file header, spec §6.1.
type FileHeader struct {
	Magic            uint32
	Version          uint16
	Flags            uint16
	SectionCount     uint16
	SymbolCount      uint16
	RelocationCount  uint32
	StringTableSize  uint32
	CodeSize         uint32
	SourceNameOffset uint32
	Reserved         uint32
}

// Section is one 16-byte section_entry.
type Section struct {
	BaseAddress uint32
	Size        uint32
	Offset      uint32 // into code_data
	Flags       uint16
	Alignment   uint16
}

// Symbol is one 16-byte symbol_entry, plus its name decoded from the
// string table for convenience.
type Symbol struct {
	NameOffset   uint32
	Value        uint32
	SectionIndex uint16 // SectionExtern for an external reference
	Type         uint8
	Binding      uint8
	Size         uint32
	Name         string
}

// Relocation is one 16-byte relocation_entry.
type Relocation struct {
	Offset       uint32
	SectionIndex uint16
	SymbolIndex  uint16
	Addend       int32
	Type         uint8
	Reserved     [3]byte
}

// File holds everything parsed from (or destined for) a .g10o object
// file. StringTable and CodeData are kept as raw bytes rather than
// rebuilt from Symbols/Name so that Decode followed by Encode
// reproduces the original file exactly (spec §8 invariant 4) even
// though Symbol.Name is also available for convenience.
type File struct {
	Header      FileHeader
	Sections    []Section
	Symbols     []Symbol
	Relocations []Relocation
	SourceName  string
	StringTable []byte
	CodeData    []byte
}

// Read loads and decodes an object file from path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("objfile: reading %s: %w", path, err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("objfile: %s: %w", path, err)
	}
	return f, nil
}

// Write encodes f and writes it to path.
func Write(path string, f *File) error {
	data, err := f.Encode()
	if err != nil {
		return fmt.Errorf("objfile: encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("objfile: writing %s: %w", path, err)
	}
	return nil
}

// Decode parses a complete object file image.
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
	h.SectionCount = binary.LittleEndian.Uint16(data[8:10])
	h.SymbolCount = binary.LittleEndian.Uint16(data[10:12])
	h.RelocationCount = binary.LittleEndian.Uint32(data[12:16])
	h.StringTableSize = binary.LittleEndian.Uint32(data[16:20])
	h.CodeSize = binary.LittleEndian.Uint32(data[20:24])
	h.SourceNameOffset = binary.LittleEndian.Uint32(data[24:28])
	h.Reserved = binary.LittleEndian.Uint32(data[28:32])

	secStart := fileHeaderSize
	symStart := secStart + int(h.SectionCount)*sectionSize
	relStart := symStart + int(h.SymbolCount)*symbolSize
	strStart := relStart + int(h.RelocationCount)*relocSize
	codeStart := strStart + int(h.StringTableSize)
	codeEnd := codeStart + int(h.CodeSize)

	if codeEnd > len(data) {
		return nil, fmt.Errorf("truncated (need %d bytes, have %d)", codeEnd, len(data))
	}

	f.Sections = make([]Section, h.SectionCount)
	for i := range f.Sections {
		b := data[secStart+i*sectionSize:]
		s := &f.Sections[i]
		s.BaseAddress = binary.LittleEndian.Uint32(b[0:4])
		s.Size = binary.LittleEndian.Uint32(b[4:8])
		s.Offset = binary.LittleEndian.Uint32(b[8:12])
		s.Flags = binary.LittleEndian.Uint16(b[12:14])
		s.Alignment = binary.LittleEndian.Uint16(b[14:16])
	}

	f.StringTable = append([]byte(nil), data[strStart:codeStart]...)

	f.Symbols = make([]Symbol, h.SymbolCount)
	for i := range f.Symbols {
		b := data[symStart+i*symbolSize:]
		sym := &f.Symbols[i]
		sym.NameOffset = binary.LittleEndian.Uint32(b[0:4])
		sym.Value = binary.LittleEndian.Uint32(b[4:8])
		sym.SectionIndex = binary.LittleEndian.Uint16(b[8:10])
		sym.Type = b[10]
		sym.Binding = b[11]
		sym.Size = binary.LittleEndian.Uint32(b[12:16])
		name, err := lookupString(f.StringTable, int(sym.NameOffset))
		if err != nil {
			return nil, fmt.Errorf("symbol %d: %w", i, err)
		}
		sym.Name = name
	}

	f.Relocations = make([]Relocation, h.RelocationCount)
	for i := range f.Relocations {
		b := data[relStart+i*relocSize:]
		r := &f.Relocations[i]
		r.Offset = binary.LittleEndian.Uint32(b[0:4])
		r.SectionIndex = binary.LittleEndian.Uint16(b[4:6])
		r.SymbolIndex = binary.LittleEndian.Uint16(b[6:8])
		r.Addend = int32(binary.LittleEndian.Uint32(b[8:12]))
		r.Type = b[12]
		copy(r.Reserved[:], b[13:16])
	}

	srcName, err := lookupString(f.StringTable, int(h.SourceNameOffset))
	if err != nil {
		return nil, fmt.Errorf("source name: %w", err)
	}
	f.SourceName = srcName

	f.CodeData = append([]byte(nil), data[codeStart:codeEnd]...)

	return f, nil
}

// Encode serializes f back into the on-disk format. Header counts and
// sizes are recomputed from the slice lengths, so callers build a File
// by setting Sections/Symbols/Relocations/StringTable/CodeData rather
// than maintaining the header counts by hand.
func (f *File) Encode() ([]byte, error) {
	if len(f.Sections) > 0xFFFF || len(f.Symbols) > 0xFFFF {
		return nil, fmt.Errorf("section or symbol count exceeds 16 bits")
	}

	h := f.Header
	h.Magic = Magic
	if h.Version == 0 {
		h.Version = Version
	}
	h.SectionCount = uint16(len(f.Sections))
	h.SymbolCount = uint16(len(f.Symbols))
	h.RelocationCount = uint32(len(f.Relocations))
	h.StringTableSize = uint32(len(f.StringTable))
	h.CodeSize = uint32(len(f.CodeData))
	h.Reserved = 0

	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint16(buf[8:10], h.SectionCount)
	binary.LittleEndian.PutUint16(buf[10:12], h.SymbolCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.RelocationCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.StringTableSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.CodeSize)
	binary.LittleEndian.PutUint32(buf[24:28], h.SourceNameOffset)
	binary.LittleEndian.PutUint32(buf[28:32], h.Reserved)

	for _, s := range f.Sections {
		e := make([]byte, sectionSize)
		binary.LittleEndian.PutUint32(e[0:4], s.BaseAddress)
		binary.LittleEndian.PutUint32(e[4:8], s.Size)
		binary.LittleEndian.PutUint32(e[8:12], s.Offset)
		binary.LittleEndian.PutUint16(e[12:14], s.Flags)
		binary.LittleEndian.PutUint16(e[14:16], s.Alignment)
		buf = append(buf, e...)
	}

	for _, sym := range f.Symbols {
		e := make([]byte, symbolSize)
		binary.LittleEndian.PutUint32(e[0:4], sym.NameOffset)
		binary.LittleEndian.PutUint32(e[4:8], sym.Value)
		binary.LittleEndian.PutUint16(e[8:10], sym.SectionIndex)
		e[10] = sym.Type
		e[11] = sym.Binding
		binary.LittleEndian.PutUint32(e[12:16], sym.Size)
		buf = append(buf, e...)
	}

	for _, r := range f.Relocations {
		e := make([]byte, relocSize)
		binary.LittleEndian.PutUint32(e[0:4], r.Offset)
		binary.LittleEndian.PutUint16(e[4:6], r.SectionIndex)
		binary.LittleEndian.PutUint16(e[6:8], r.SymbolIndex)
		binary.LittleEndian.PutUint32(e[8:12], uint32(r.Addend))
		e[12] = r.Type
		copy(e[13:16], r.Reserved[:])
		buf = append(buf, e...)
	}

	buf = append(buf, f.StringTable...)
	buf = append(buf, f.CodeData...)

	return buf, nil
}

// lookupString reads a null-terminated string at off within strtab.
// off == 0 and an empty table both yield "" per spec §6.1.
func lookupString(strtab []byte, off int) (string, error) {
	if off < 0 || off > len(strtab) {
		return "", fmt.Errorf("string offset %d out of range (table size %d)", off, len(strtab))
	}
	end := off
	for end < len(strtab) && strtab[end] != 0 {
		end++
	}
	return string(strtab[off:end]), nil
}

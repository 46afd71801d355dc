package objfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// builder assembles a G10A byte slice for use in tests, mirroring
// lang/yld/linker_test.go's wofBuilder for WOF. Populate Symbols with
// Name set; NameOffset is computed by build().
type builder struct {
	sections   []Section
	symbols    []Symbol
	relocs     []Relocation
	sourceName string
	code       []byte
}

func (b *builder) build() []byte {
	strtab := []byte{0}
	intern := func(s string) uint32 {
		if s == "" {
			return 0
		}
		off := uint32(len(strtab))
		strtab = append(strtab, []byte(s)...)
		strtab = append(strtab, 0)
		return off
	}

	srcOff := intern(b.sourceName)
	nameOffsets := make([]uint32, len(b.symbols))
	for i, sym := range b.symbols {
		nameOffsets[i] = intern(sym.Name)
	}

	var buf []byte
	h := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(h[0:4], Magic)
	binary.LittleEndian.PutUint16(h[4:6], Version)
	binary.LittleEndian.PutUint16(h[8:10], uint16(len(b.sections)))
	binary.LittleEndian.PutUint16(h[10:12], uint16(len(b.symbols)))
	binary.LittleEndian.PutUint32(h[12:16], uint32(len(b.relocs)))
	binary.LittleEndian.PutUint32(h[16:20], uint32(len(strtab)))
	binary.LittleEndian.PutUint32(h[20:24], uint32(len(b.code)))
	binary.LittleEndian.PutUint32(h[24:28], srcOff)
	buf = append(buf, h...)

	for _, s := range b.sections {
		e := make([]byte, sectionSize)
		binary.LittleEndian.PutUint32(e[0:4], s.BaseAddress)
		binary.LittleEndian.PutUint32(e[4:8], s.Size)
		binary.LittleEndian.PutUint32(e[8:12], s.Offset)
		binary.LittleEndian.PutUint16(e[12:14], s.Flags)
		binary.LittleEndian.PutUint16(e[14:16], s.Alignment)
		buf = append(buf, e...)
	}
	for i, sym := range b.symbols {
		e := make([]byte, symbolSize)
		binary.LittleEndian.PutUint32(e[0:4], nameOffsets[i])
		binary.LittleEndian.PutUint32(e[4:8], sym.Value)
		binary.LittleEndian.PutUint16(e[8:10], sym.SectionIndex)
		e[10] = sym.Type
		e[11] = sym.Binding
		binary.LittleEndian.PutUint32(e[12:16], sym.Size)
		buf = append(buf, e...)
	}
	for _, r := range b.relocs {
		e := make([]byte, relocSize)
		binary.LittleEndian.PutUint32(e[0:4], r.Offset)
		binary.LittleEndian.PutUint16(e[4:6], r.SectionIndex)
		binary.LittleEndian.PutUint16(e[6:8], r.SymbolIndex)
		binary.LittleEndian.PutUint32(e[8:12], uint32(r.Addend))
		e[12] = r.Type
		buf = append(buf, e...)
	}
	buf = append(buf, strtab...)
	buf = append(buf, b.code...)
	return buf
}

func TestDecode_Minimal(t *testing.T) {
	raw := (&builder{}).build()
	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Header.Magic != Magic {
		t.Errorf("magic: got 0x%08X, want 0x%08X", f.Header.Magic, Magic)
	}
	if len(f.Sections) != 0 || len(f.Symbols) != 0 || len(f.Relocations) != 0 {
		t.Errorf("expected all tables empty, got sections=%d symbols=%d relocs=%d",
			len(f.Sections), len(f.Symbols), len(f.Relocations))
	}
}

func TestDecode_BadMagic(t *testing.T) {
	raw := (&builder{}).build()
	binary.LittleEndian.PutUint32(raw[0:4], 0xDEADBEEF)
	if _, err := Decode(raw); err == nil {
		t.Error("expected error for bad magic, got nil")
	}
}

func TestDecode_TooShort(t *testing.T) {
	if _, err := Decode([]byte{0x41, 0x30, 0x31, 0x47}); err == nil {
		t.Error("expected error for truncated header, got nil")
	}
}

func TestDecode_SectionsSymbolsRelocations(t *testing.T) {
	code := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	raw := (&builder{
		sections: []Section{
			{BaseAddress: 0x00002000, Size: 4, Offset: 0, Flags: SectionExec, Alignment: 2},
		},
		symbols: []Symbol{
			{Name: "main", Value: 0, SectionIndex: 0, Type: SymLabel, Binding: BindGlobal},
			{Name: "helper", SectionIndex: SectionExtern, Type: SymUndefined, Binding: BindExtern},
		},
		relocs: []Relocation{
			{Offset: 0, SectionIndex: 0, SymbolIndex: 1, Addend: 0, Type: RelAbs32},
		},
		sourceName: "main.asm",
		code:       code,
	}).build()

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Sections) != 1 || f.Sections[0].BaseAddress != 0x00002000 {
		t.Fatalf("section mismatch: %+v", f.Sections)
	}
	if f.Sections[0].Flags != SectionExec {
		t.Errorf("section flags: got %#x, want %#x", f.Sections[0].Flags, SectionExec)
	}
	if len(f.Symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(f.Symbols))
	}
	if f.Symbols[0].Name != "main" || f.Symbols[1].Name != "helper" {
		t.Errorf("symbol names: got %q, %q", f.Symbols[0].Name, f.Symbols[1].Name)
	}
	if f.Symbols[1].SectionIndex != SectionExtern {
		t.Errorf("expected extern symbol, got section index %#x", f.Symbols[1].SectionIndex)
	}
	if len(f.Relocations) != 1 || f.Relocations[0].Type != RelAbs32 {
		t.Fatalf("relocation mismatch: %+v", f.Relocations)
	}
	if f.SourceName != "main.asm" {
		t.Errorf("source name: got %q, want %q", f.SourceName, "main.asm")
	}
	if !bytes.Equal(f.CodeData, code) {
		t.Errorf("code data: got %v, want %v", f.CodeData, code)
	}
}

func TestRoundTrip_DecodeEncode(t *testing.T) {
	raw := (&builder{
		sections: []Section{
			{BaseAddress: 0x00002000, Size: 2, Offset: 0, Flags: SectionExec, Alignment: 2},
		},
		symbols: []Symbol{
			{Name: "start", Value: 0, SectionIndex: 0, Type: SymLabel, Binding: BindGlobal},
		},
		sourceName: "prog.asm",
		code:       []byte{0x00, 0x00},
	}).build()

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	again, err := f.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Errorf("round trip mismatch:\ngot  %v\nwant %v", again, raw)
	}
}

func TestDecode_Truncated(t *testing.T) {
	raw := (&builder{code: []byte{1, 2, 3, 4}}).build()
	if _, err := Decode(raw[:len(raw)-2]); err == nil {
		t.Error("expected error for truncated code section, got nil")
	}
}

package linker

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgdev1024/2026-G10-sub004/internal/exefile"
	"github.com/dgdev1024/2026-G10-sub004/internal/objfile"
)

func TestLink_SingleObjectWithEntry(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x00002000, Size: 4, Offset: 0, Flags: objfile.SectionExec},
		},
		Symbols: []objfile.Symbol{
			{Name: "_start", Value: 0, SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
		},
		CodeData: []byte{0x00, 0x00, 0x44, 0x00},
	}

	ld := New()
	ld.AddObject("a.g10o", obj)
	exe, err := ld.Link()
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	if exe.Header.EntryPoint != 0x00002000 {
		t.Errorf("entry point: got $%08X, want $%08X", exe.Header.EntryPoint, 0x00002000)
	}
	if len(exe.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(exe.Segments))
	}
	if !bytes.Equal(exe.Segments[0].Data, obj.CodeData) {
		t.Errorf("segment data mismatch: got %v, want %v", exe.Segments[0].Data, obj.CodeData)
	}
	if exe.Segments[0].Flags&exefile.SegmentExec == 0 {
		t.Error("expected executable segment")
	}
}

func TestLink_CrossFileRelocation_Abs32(t *testing.T) {
	// a.g10o: calls add_numbers via an abs32 relocation at offset 0.
	a := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x00002000, Size: 4, Offset: 0, Flags: objfile.SectionExec},
		},
		Symbols: []objfile.Symbol{
			{Name: "_start", Value: 0, SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
			{Name: "add_numbers", SectionIndex: objfile.SectionExtern, Type: objfile.SymUndefined, Binding: objfile.BindExtern},
		},
		Relocations: []objfile.Relocation{
			{Offset: 0, SectionIndex: 0, SymbolIndex: 1, Addend: 0, Type: objfile.RelAbs32},
		},
		CodeData: []byte{0x00, 0x00, 0x00, 0x00},
	}

	// b.g10o: defines add_numbers at the start of a second exec section.
	b := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x00002010, Size: 2, Offset: 0, Flags: objfile.SectionExec},
		},
		Symbols: []objfile.Symbol{
			{Name: "add_numbers", Value: 0, SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
		},
		CodeData: []byte{0x00, 0x60},
	}

	ld := New()
	ld.AddObject("a.g10o", a)
	ld.AddObject("b.g10o", b)
	exe, err := ld.Link()
	if err != nil {
		t.Fatalf("link error: %v", err)
	}

	// Segment 0 is the $00002000 group (a's code), segment 1 is $00002010 (b's).
	if len(exe.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(exe.Segments))
	}
	got := exe.Segments[0].Data
	want := []byte{0x10, 0x20, 0x00, 0x00} // little-endian 0x00002010
	if !bytes.Equal(got, want) {
		t.Errorf("patched relocation: got %v, want %v", got, want)
	}
}

func TestLink_ConstantSymbolKeepsValue(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x00002000, Size: 4, Offset: 0, Flags: objfile.SectionExec},
		},
		Symbols: []objfile.Symbol{
			{Name: "_start", Value: 0, SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
			{Name: "MAGIC", Value: 0x1234, Type: objfile.SymConstant, Binding: objfile.BindGlobal},
		},
		Relocations: []objfile.Relocation{
			{Offset: 0, SectionIndex: 0, SymbolIndex: 1, Type: objfile.RelAbs16},
		},
		CodeData: []byte{0x00, 0x00, 0x00, 0x00},
	}

	ld := New()
	ld.AddObject("a.g10o", obj)
	exe, err := ld.Link()
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	got := exe.Segments[0].Data[0:2]
	want := []byte{0x34, 0x12}
	if !bytes.Equal(got, want) {
		t.Errorf("constant patch: got %v, want %v", got, want)
	}
}

func TestLink_DuplicateGlobal(t *testing.T) {
	mk := func() *objfile.File {
		return &objfile.File{
			Sections: []objfile.Section{{BaseAddress: 0x00002000, Size: 2, Flags: objfile.SectionExec}},
			Symbols: []objfile.Symbol{
				{Name: "_start", SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
			},
			CodeData: []byte{0x00, 0x00},
		}
	}
	ld := New()
	ld.AddObject("a.g10o", mk())
	ld.AddObject("b.g10o", mk())
	if _, err := ld.Link(); err == nil {
		t.Error("expected error for duplicate global, got nil")
	}
}

func TestLink_UndefinedSymbol(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{{BaseAddress: 0x00002000, Size: 4, Flags: objfile.SectionExec}},
		Symbols: []objfile.Symbol{
			{Name: "_start", SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
			{Name: "missing", SectionIndex: objfile.SectionExtern, Binding: objfile.BindExtern},
		},
		Relocations: []objfile.Relocation{
			{Offset: 0, SectionIndex: 0, SymbolIndex: 1, Type: objfile.RelAbs32},
		},
		CodeData: []byte{0, 0, 0, 0},
	}
	ld := New()
	ld.AddObject("a.g10o", obj)
	if _, err := ld.Link(); err == nil {
		t.Error("expected error for undefined symbol, got nil")
	}
}

func TestLink_EntryPointFallsBackToSegment(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x00002000, Size: 2, Flags: objfile.SectionExec},
			{BaseAddress: 0x00003000, Size: 2, Flags: objfile.SectionExec},
		},
		CodeData: []byte{0x01, 0x02, 0x03, 0x04},
	}
	obj.Sections[1].Offset = 2

	ld := New()
	ld.AddObject("a.g10o", obj)
	exe, err := ld.Link()
	if err != nil {
		t.Fatalf("link error: %v", err)
	}
	if exe.Header.EntryPoint != 0x00002000 {
		t.Errorf("entry point: got $%08X, want lowest segment $00002000", exe.Header.EntryPoint)
	}
}

func TestLink_NoEntryPointIsError(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x80000000, Size: 2, Flags: objfile.SectionWritable},
		},
		CodeData: []byte{0, 0},
	}
	ld := New()
	ld.AddObject("a.g10o", obj)
	if _, err := ld.Link(); err == nil {
		t.Error("expected error when no entry point can be found, got nil")
	}
}

func TestLink_OverlappingSections(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{
			{BaseAddress: 0x00002000, Size: 8, Flags: objfile.SectionExec},
			{BaseAddress: 0x00002004, Size: 8, Flags: objfile.SectionExec},
		},
		Symbols: []objfile.Symbol{
			{Name: "_start", SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
		},
		CodeData: make([]byte, 16),
	}
	obj.Sections[1].Offset = 8

	ld := New()
	ld.AddObject("a.g10o", obj)
	if _, err := ld.Link(); err == nil {
		t.Error("expected error for overlapping segments, got nil")
	}
}

func TestLink_VerboseLogsPhases(t *testing.T) {
	obj := &objfile.File{
		Sections: []objfile.Section{{BaseAddress: 0x00002000, Size: 2, Flags: objfile.SectionExec}},
		Symbols: []objfile.Symbol{
			{Name: "_start", SectionIndex: 0, Type: objfile.SymLabel, Binding: objfile.BindGlobal},
		},
		CodeData: []byte{0, 0},
	}
	var out bytes.Buffer
	ld := New()
	ld.Verbose = &out
	ld.AddObject("a.g10o", obj)
	if _, err := ld.Link(); err != nil {
		t.Fatalf("link error: %v", err)
	}
	if !strings.Contains(out.String(), "phase 1") {
		t.Errorf("expected phase log output, got:\n%s", out.String())
	}
}

func TestPatch_AllRelocationTypes(t *testing.T) {
	tests := []struct {
		name    string
		relType uint8
		width   int
		s, p, a int64
		want    []byte
	}{
		{"abs32", objfile.RelAbs32, 4, 0x80000010, 0, 4, []byte{0x14, 0x00, 0x00, 0x80}},
		{"abs16", objfile.RelAbs16, 2, 0x1230, 0, 4, []byte{0x34, 0x12}},
		{"abs8", objfile.RelAbs8, 1, 0x100, 0, 0x2F, []byte{0x2F}},
		{"rel32", objfile.RelRel32, 4, 0x2010, 0x2000, 0, []byte{0x10, 0x00, 0x00, 0x00}},
		{"rel16", objfile.RelRel16, 2, 0x2010, 0x2000, 0, []byte{0x10, 0x00}},
		{"rel8", objfile.RelRel8, 1, 0x2008, 0x2000, 0, []byte{0x08}},
		{"hi16", objfile.RelHi16, 2, 0x12345678, 0, 0, []byte{0x34, 0x12}},
		{"lo16", objfile.RelLo16, 2, 0x12345678, 0, 0, []byte{0x78, 0x56}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.width)
			if err := patch(buf, 0, tt.relType, tt.s, tt.p, tt.a); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(buf, tt.want) {
				t.Errorf("got %v, want %v", buf, tt.want)
			}
		})
	}
}

func TestPatch_OutOfBounds(t *testing.T) {
	buf := make([]byte, 2)
	if err := patch(buf, 0, objfile.RelAbs32, 0, 0, 0); err == nil {
		t.Error("expected error for out-of-bounds patch, got nil")
	}
}

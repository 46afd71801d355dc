// Package linker implements the G10 relocating linker: the six-phase
// symbol resolution / section merge / address assignment / relocation
// / segment emission / entry point search pipeline. It plays the same
// role lang/yld/linker.go plays for its four-phase WOF linker — a
// Linker type fed objects in command-line order, run phase by phase,
// with an optional verbose log — expanded to the richer
// section/symbol/relocation model internal/objfile exposes.
package linker

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/dgdev1024/2026-G10-sub004/internal/exefile"
	"github.com/dgdev1024/2026-G10-sub004/internal/objfile"
)

// defaultStackPointer is used unless the executable format grows an
// override (spec §4.4 "Initial SP"); this spec never exercises one.
const defaultStackPointer uint32 = 0xFFFFFFFC

// entryPointNames is the search order of spec §4.4 phase 6.
var entryPointNames = []string{"main", "_start", "start"}

// globalSymbol is a resolved, globally-visible definition (phase 1).
type globalSymbol struct {
	objIndex int
	sym      objfile.Symbol
	weak     bool
}

// group is one base-address group of merged sections (phase 2): every
// section across every object sharing a base address is concatenated,
// in command-line order, into a single buffer.
type group struct {
	base      uint32
	flags     uint16
	alignment uint16
	data      []byte
	// offsets[objIndex][secIndex] is the byte offset within data where
	// that object's section begins.
	offsets map[int]map[int]uint32
}

// Linker accumulates object files and links them into an executable.
type Linker struct {
	objs  []*objfile.File
	paths []string

	// Verbose, if non-nil, receives one line per phase and per resolved
	// symbol/relocation, mirroring lang/yld/linker.go's verbose bool.
	Verbose io.Writer

	globals     map[string]*globalSymbol
	groups      []*group
	groupByBase map[uint32]*group
}

// New creates an empty Linker.
func New() *Linker {
	return &Linker{globals: make(map[string]*globalSymbol)}
}

// AddObject registers an object file, in command-line order, for the
// next Link call. path is used only in diagnostics.
func (ld *Linker) AddObject(path string, f *objfile.File) {
	ld.paths = append(ld.paths, path)
	ld.objs = append(ld.objs, f)
}

func (ld *Linker) logf(format string, args ...any) {
	if ld.Verbose != nil {
		fmt.Fprintf(ld.Verbose, format, args...)
	}
}

// Link runs all six phases of spec §4.4 and returns the linked
// executable, with its entry point and initial stack pointer filled
// in and its segment table validated.
func (ld *Linker) Link() (*exefile.File, error) {
	ld.logf("phase 1: symbol resolution\n")
	if err := ld.resolveSymbols(); err != nil {
		return nil, err
	}

	ld.logf("phase 2: merge sections\n")
	ld.mergeSections()

	ld.logf("phase 3/4: assign addresses and apply relocations\n")
	if err := ld.applyRelocations(); err != nil {
		return nil, err
	}

	ld.logf("phase 5: build segments\n")
	exe, err := ld.buildSegments()
	if err != nil {
		return nil, err
	}

	ld.logf("phase 6: find entry point\n")
	entry, err := ld.findEntryPoint(exe.Segments)
	if err != nil {
		return nil, err
	}
	exe.Header.EntryPoint = entry
	exe.Header.StackPointer = defaultStackPointer

	if err := exe.Validate(); err != nil {
		return nil, err
	}
	return exe, nil
}

// resolveSymbols implements phase 1: collect every globally-visible
// definition, then verify every external reference resolves.
func (ld *Linker) resolveSymbols() error {
	for objIdx, obj := range ld.objs {
		for _, sym := range obj.Symbols {
			if sym.SectionIndex == objfile.SectionExtern {
				continue // reference, not a definition; checked below
			}
			if sym.Binding != objfile.BindGlobal && sym.Binding != objfile.BindWeak {
				continue // local, not exported
			}
			weak := sym.Binding == objfile.BindWeak

			if existing, ok := ld.globals[sym.Name]; ok {
				switch {
				case existing.weak && !weak:
					ld.globals[sym.Name] = &globalSymbol{objIndex: objIdx, sym: sym, weak: weak}
				case weak:
					// A prior strong or weak definition wins over a new weak one.
				default:
					return fmt.Errorf("symbol %q defined in multiple object files (%s and %s)",
						sym.Name, ld.paths[existing.objIndex], ld.paths[objIdx])
				}
				continue
			}

			ld.globals[sym.Name] = &globalSymbol{objIndex: objIdx, sym: sym, weak: weak}
			ld.logf("  global %s: value=$%08X from %s\n", sym.Name, sym.Value, ld.paths[objIdx])
		}
	}

	for objIdx, obj := range ld.objs {
		for _, sym := range obj.Symbols {
			if sym.SectionIndex != objfile.SectionExtern {
				continue
			}
			if _, ok := ld.globals[sym.Name]; !ok {
				return fmt.Errorf("undefined symbol %q (referenced in %s)", sym.Name, ld.paths[objIdx])
			}
		}
	}
	return nil
}

// mergeSections implements phase 2: group sections by base address,
// concatenating in command-line order, OR-ing flags and taking the
// maximum alignment.
func (ld *Linker) mergeSections() {
	ld.groupByBase = make(map[uint32]*group)
	var order []uint32

	for objIdx, obj := range ld.objs {
		for secIdx, sec := range obj.Sections {
			g, ok := ld.groupByBase[sec.BaseAddress]
			if !ok {
				g = &group{base: sec.BaseAddress, offsets: make(map[int]map[int]uint32)}
				ld.groupByBase[sec.BaseAddress] = g
				order = append(order, sec.BaseAddress)
			}
			g.flags |= sec.Flags
			if sec.Alignment > g.alignment {
				g.alignment = sec.Alignment
			}
			if g.offsets[objIdx] == nil {
				g.offsets[objIdx] = make(map[int]uint32)
			}
			g.offsets[objIdx][secIdx] = uint32(len(g.data))

			if sec.Flags&objfile.SectionZero != 0 {
				g.data = append(g.data, make([]byte, sec.Size)...)
			} else {
				g.data = append(g.data, obj.CodeData[sec.Offset:sec.Offset+sec.Size]...)
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	ld.groups = make([]*group, len(order))
	for i, base := range order {
		g := ld.groupByBase[base]
		ld.groups[i] = g
		ld.logf("  group $%08X: %d bytes, flags=%#x, align=%d\n", base, len(g.data), g.flags, g.alignment)
	}
}

// resolveAddress implements phase 3's address formula for a single
// symbol, recursing exactly once through the global table for an
// external reference (a defining symbol is never itself extern).
func (ld *Linker) resolveAddress(objIdx int, sym objfile.Symbol) (uint32, error) {
	if sym.Type == objfile.SymConstant {
		return sym.Value, nil
	}
	if sym.SectionIndex == objfile.SectionExtern {
		g, ok := ld.globals[sym.Name]
		if !ok {
			return 0, fmt.Errorf("unresolved external symbol %q", sym.Name)
		}
		return ld.resolveAddress(g.objIndex, g.sym)
	}

	obj := ld.objs[objIdx]
	secIdx := int(sym.SectionIndex)
	if secIdx < 0 || secIdx >= len(obj.Sections) {
		return 0, fmt.Errorf("symbol %q references out-of-range section %d", sym.Name, secIdx)
	}
	sec := obj.Sections[secIdx]
	grp := ld.groupByBase[sec.BaseAddress]
	offsetInGroup := grp.offsets[objIdx][secIdx]
	return sec.BaseAddress + offsetInGroup + sym.Value, nil
}

// applyRelocations implements phase 4: resolve each relocation's
// symbol, then patch the merged group's bytes per the type formulas in
// spec §4.4.
func (ld *Linker) applyRelocations() error {
	for objIdx, obj := range ld.objs {
		for _, r := range obj.Relocations {
			if int(r.SymbolIndex) >= len(obj.Symbols) {
				return fmt.Errorf("%s: relocation symbol index %d out of range", ld.paths[objIdx], r.SymbolIndex)
			}
			sym := obj.Symbols[r.SymbolIndex]

			s, err := ld.resolveAddress(objIdx, sym)
			if err != nil {
				return fmt.Errorf("%s: relocation for %q: %w", ld.paths[objIdx], sym.Name, err)
			}

			if int(r.SectionIndex) >= len(obj.Sections) {
				return fmt.Errorf("%s: relocation section index %d out of range", ld.paths[objIdx], r.SectionIndex)
			}
			siteSec := obj.Sections[r.SectionIndex]
			grp := ld.groupByBase[siteSec.BaseAddress]
			siteOffset := grp.offsets[objIdx][int(r.SectionIndex)]
			p := siteSec.BaseAddress + siteOffset + r.Offset
			pos := int(siteOffset + r.Offset)
			a := int64(r.Addend)

			if err := patch(grp.data, pos, r.Type, int64(s), int64(p), a); err != nil {
				return fmt.Errorf("%s: relocation at %s+$%04X: %w", ld.paths[objIdx], sym.Name, r.Offset, err)
			}

			ld.logf("  reloc %s+$%04X type=%d sym=%q final=$%08X\n", ld.paths[objIdx], r.Offset, r.Type, sym.Name, s)
		}
	}
	return nil
}

// patch writes one relocated value into data at pos, per the formulas
// of spec §4.4 phase 4. s = symbol's final address, p = patch site's
// final address, a = addend.
func patch(data []byte, pos int, relType uint8, s, p, a int64) error {
	need := func(width int) ([]byte, error) {
		if pos < 0 || pos+width > len(data) {
			return nil, fmt.Errorf("patch at offset %d width %d out of bounds (section is %d bytes)", pos, width, len(data))
		}
		return data[pos : pos+width], nil
	}
	switch relType {
	case objfile.RelNone:
		return nil
	case objfile.RelAbs32:
		b, err := need(4)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b, uint32(s+a))
	case objfile.RelAbs16:
		b, err := need(2)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(b, uint16((s+a)&0xFFFF))
	case objfile.RelAbs8:
		b, err := need(1)
		if err != nil {
			return err
		}
		b[0] = byte((s + a) & 0xFF)
	case objfile.RelRel32:
		b, err := need(4)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(b, uint32(s-p+a))
	case objfile.RelRel16:
		b, err := need(2)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(b, uint16((s-p+a)&0xFFFF))
	case objfile.RelRel8:
		b, err := need(1)
		if err != nil {
			return err
		}
		b[0] = byte((s - p + a) & 0xFF)
	case objfile.RelHi16:
		b, err := need(2)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(b, uint16(((s+a)>>16)&0xFFFF))
	case objfile.RelLo16:
		b, err := need(2)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(b, uint16((s+a)&0xFFFF))
	default:
		return fmt.Errorf("unknown relocation type %d", relType)
	}
	return nil
}

// buildSegments implements phase 5: one segment per merged group,
// flags derived from the merged section flags, sorted by load address.
func (ld *Linker) buildSegments() (*exefile.File, error) {
	segments := make([]exefile.Segment, 0, len(ld.groups))
	for _, g := range ld.groups {
		flags := exefile.SegmentRead
		if g.flags&objfile.SectionExec != 0 {
			flags |= exefile.SegmentExec
		}
		if g.flags&objfile.SectionWritable != 0 {
			flags |= exefile.SegmentWrite
		}

		seg := exefile.Segment{
			LoadAddress: g.base,
			MemorySize:  uint32(len(g.data)),
			Flags:       flags,
			Alignment:   g.alignment,
		}
		if g.flags&objfile.SectionZero != 0 {
			seg.Flags |= exefile.SegmentZeroInit
		} else {
			seg.Data = g.data
		}
		segments = append(segments, seg)
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].LoadAddress < segments[j].LoadAddress })

	return &exefile.File{Segments: segments}, nil
}

// findEntryPoint implements phase 6's search order: a global symbol
// named main/_start/start, then a label-type symbol of the same name
// in any object, then the lowest-address non-writable segment.
func (ld *Linker) findEntryPoint(segments []exefile.Segment) (uint32, error) {
	for _, name := range entryPointNames {
		if g, ok := ld.globals[name]; ok {
			return ld.resolveAddress(g.objIndex, g.sym)
		}
	}

	for _, name := range entryPointNames {
		for objIdx, obj := range ld.objs {
			for _, sym := range obj.Symbols {
				if sym.Type == objfile.SymLabel && sym.Name == name && sym.SectionIndex != objfile.SectionExtern {
					return ld.resolveAddress(objIdx, sym)
				}
			}
		}
	}

	var lowest uint32
	found := false
	for _, seg := range segments {
		if seg.Flags&exefile.SegmentWrite != 0 {
			continue
		}
		if !found || seg.LoadAddress < lowest {
			lowest = seg.LoadAddress
			found = true
		}
	}
	if found {
		return lowest, nil
	}
	return 0, fmt.Errorf("no entry point found: no main/_start/start symbol and no non-writable segment")
}

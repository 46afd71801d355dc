// Copyright © 2026 Dana Gdev (dgdev1024@gmail.com)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.

// Package bus implements the G10 reference Bus: ROM, RAM, "quick RAM",
// and the core I/O port page dispatched by address range, per spec
// §3/§4.1. It holds the one-directional reference to internal/cpu that
// lets MMIO writes route straight into the CPU's own IRQ/IE/SPD state
// (spec §4.2.7), the way emul/io.go lets CPU-adjacent devices reach
// back into the core without the core depending on any device.
package bus

import "github.com/dgdev1024/2026-G10-sub004/internal/cpu"

// Memory map, spec §3.
const (
	ROMStart      uint32 = 0x00000000
	ROMEnd        uint32 = 0x7FFFFFFF
	RAMStart      uint32 = 0x80000000
	RAMEnd        uint32 = 0xFFFFFEFF
	QuickRAMStart uint32 = 0xFFFF0000
	IOPortStart   uint32 = 0xFFFFFF00
	IOPortEnd     uint32 = 0xFFFFFFFF
)

// I/O port page offsets, spec §3/§4.2.7/§4.3.
const (
	portIRQ0 uint32 = 0xFFFFFF00
	portIRQ1 uint32 = 0xFFFFFF01
	portIRQ2 uint32 = 0xFFFFFF02
	portIRQ3 uint32 = 0xFFFFFF03
	portIE0  uint32 = 0xFFFFFF04
	portIE1  uint32 = 0xFFFFFF05
	portIE2  uint32 = 0xFFFFFF06
	portIE3  uint32 = 0xFFFFFF07
	portSPD  uint32 = 0xFFFFFF08
	portDIV  uint32 = 0xFFFFFF09
	portTIMA uint32 = 0xFFFFFF0A
	portTMA  uint32 = 0xFFFFFF0B
	portTAC  uint32 = 0xFFFFFF0C
)

// CPUPort is the subset of *cpu.CPU the bus drives for MMIO, named so
// the bus can be unit-tested against a fake without a real CPU.
type CPUPort interface {
	ReadIRQByte(i uint8) uint8
	WriteIRQByte(i uint8, v uint8) uint8
	ReadIEByte(i uint8) uint8
	WriteIEByte(i uint8, v uint8) uint8
	ReadSPD() uint8
	WriteSPD(v uint8) uint8
	RaiseException(code uint8)
}

// TimerPort is the subset of a timer peripheral the bus projects onto
// the DIV/TIMA/TMA/TAC ports.
type TimerPort interface {
	ReadDIV() uint8
	WriteDIV(v uint8)
	ReadTIMA() uint8
	WriteTIMA(v uint8)
	ReadTMA() uint8
	WriteTMA(v uint8)
	ReadTAC() uint8
	WriteTAC(v uint8)
	Tick()
}

// quickRAMSize is the full size of the $FFFF0000-$FFFFFEFF window.
const quickRAMSize = int(RAMEnd-QuickRAMStart) + 1

// Bus is the reference implementation of cpu.Bus: a flat ROM image, a
// general RAM window sized by the caller (spec §3's $80000000-
// $FFFFFEFF range is 2GB of address space; committing a flag-sized
// slice rather than the full range is what the launcher's -r/--ram
// flag controls), a fully-backed quick RAM window (always present
// regardless of the general RAM size, since programs address it
// directly), and MMIO dispatch for the CPU's own interrupt registers
// and the timer.
type Bus struct {
	rom      []byte
	ram      []byte
	quickRAM [quickRAMSize]byte
	cpu      CPUPort
	timer    TimerPort
}

// New creates a Bus with the given ROM image and a general RAM window
// of ramSize bytes starting at $80000000. cpuPort and timerPort may be
// nil for ROM/RAM-only tests.
func New(rom []byte, ramSize int, cpuPort CPUPort, timerPort TimerPort) *Bus {
	return &Bus{
		rom:   rom,
		ram:   make([]byte, ramSize),
		cpu:   cpuPort,
		timer: timerPort,
	}
}

// Reset restores the timer to power-on state; ROM/RAM contents are
// untouched (the CPU's own Reset doesn't reload the program image).
func (b *Bus) Reset() {
	if b.timer != nil {
		b.timer.WriteDIV(0)
		b.timer.WriteTIMA(0)
		b.timer.WriteTMA(0)
		b.timer.WriteTAC(0xF8)
	}
}

// Tick advances all attached devices by one T-cycle.
func (b *Bus) Tick() bool {
	if b.timer != nil {
		b.timer.Tick()
	}
	return true
}

func (b *Bus) inROM(addr uint32) bool   { return addr >= ROMStart && addr <= ROMEnd }
func (b *Bus) inQuickRAM(addr uint32) bool { return addr >= QuickRAMStart && addr <= RAMEnd }
func (b *Bus) inIOPort(addr uint32) bool { return addr >= IOPortStart && addr <= IOPortEnd }

func (b *Bus) inRAM(addr uint32) bool {
	return addr >= RAMStart && addr < RAMStart+uint32(len(b.ram))
}

// Read dispatches by range. Unmapped addresses (ROM past the loaded
// image, RAM past the committed window, or no bus owner at all) return
// 0xFF, per spec §4.1.
func (b *Bus) Read(addr uint32) uint8 {
	switch {
	case b.inIOPort(addr):
		return b.readPort(addr)
	case b.inQuickRAM(addr):
		return b.quickRAM[addr-QuickRAMStart]
	case b.inROM(addr):
		idx := int(addr - ROMStart)
		if idx < len(b.rom) {
			return b.rom[idx]
		}
		return 0xFF
	case b.inRAM(addr):
		return b.ram[addr-RAMStart]
	default:
		return 0xFF
	}
}

// Write dispatches by range. ROM writes are rejected with
// INVALID_WRITE_ACCESS; writes outside any mapped range are discarded.
func (b *Bus) Write(addr uint32, v uint8) uint8 {
	switch {
	case b.inIOPort(addr):
		return b.writePort(addr, v)
	case b.inQuickRAM(addr):
		b.quickRAM[addr-QuickRAMStart] = v
		return v
	case b.inROM(addr):
		if b.cpu != nil {
			b.cpu.RaiseException(cpu.ExInvalidWriteAccess)
		}
		return v
	case b.inRAM(addr):
		b.ram[addr-RAMStart] = v
		return v
	default:
		return v
	}
}

func (b *Bus) readPort(addr uint32) uint8 {
	switch addr {
	case portIRQ0, portIRQ1, portIRQ2, portIRQ3:
		if b.cpu == nil {
			return 0xFF
		}
		return b.cpu.ReadIRQByte(uint8(addr - portIRQ0))
	case portIE0, portIE1, portIE2, portIE3:
		if b.cpu == nil {
			return 0xFF
		}
		return b.cpu.ReadIEByte(uint8(addr - portIE0))
	case portSPD:
		if b.cpu == nil {
			return 0xFF
		}
		return b.cpu.ReadSPD()
	case portDIV:
		if b.timer == nil {
			return 0xFF
		}
		return b.timer.ReadDIV()
	case portTIMA:
		if b.timer == nil {
			return 0xFF
		}
		return b.timer.ReadTIMA()
	case portTMA:
		if b.timer == nil {
			return 0xFF
		}
		return b.timer.ReadTMA()
	case portTAC:
		if b.timer == nil {
			return 0xFF
		}
		return b.timer.ReadTAC()
	default:
		// Rest of the I/O port page ($FFFFFF0D-$FFFFFFFF): unmapped.
		return 0xFF
	}
}

func (b *Bus) writePort(addr uint32, v uint8) uint8 {
	switch addr {
	case portIRQ0, portIRQ1, portIRQ2, portIRQ3:
		if b.cpu == nil {
			return v
		}
		return b.cpu.WriteIRQByte(uint8(addr-portIRQ0), v)
	case portIE0, portIE1, portIE2, portIE3:
		if b.cpu == nil {
			return v
		}
		return b.cpu.WriteIEByte(uint8(addr-portIE0), v)
	case portSPD:
		if b.cpu == nil {
			return v
		}
		return b.cpu.WriteSPD(v)
	case portDIV:
		if b.timer != nil {
			b.timer.WriteDIV(v)
		}
		return 0
	case portTIMA:
		if b.timer != nil {
			b.timer.WriteTIMA(v)
		}
		return v
	case portTMA:
		if b.timer != nil {
			b.timer.WriteTMA(v)
		}
		return v
	case portTAC:
		if b.timer != nil {
			b.timer.WriteTAC(v)
		}
		return v
	default:
		// Rest of the I/O port page: unmapped, write discarded.
		return v
	}
}

// LoadROM replaces the ROM image, e.g. with an executable's loaded
// segments (see internal/exefile).
func (b *Bus) LoadROM(data []byte) { b.rom = data }

// RAM exposes the backing RAM buffer for a post-mortem dump (-d/--dump-ram).
func (b *Bus) RAM() []byte { return b.ram }

// QuickRAM exposes the quick RAM window for the same purpose.
func (b *Bus) QuickRAM() []byte { return b.quickRAM[:] }

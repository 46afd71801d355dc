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

package cpu

// Reset values, spec §3.
const (
	ResetPC uint32 = 0x00002000
	ResetSP uint32 = 0xFFFFFFFF
	ResetIE uint32 = 0x00000001
)

// Memory map constants, spec §3.
const (
	IVTStart      uint32 = 0x00001000
	IVTStride     uint32 = 0x80
	QuickRAMBase  uint32 = 0xFFFF0000
	IOPortBase    uint32 = 0xFFFFFF00
	RAMStart      uint32 = 0x80000000
)

// Bus is the polymorphic memory/IO contract the CPU drives, per spec §4.1.
// Reads/writes do not themselves tick the bus; the CPU sequences ticks.
type Bus interface {
	Reset()
	Tick() bool
	Read(addr uint32) uint8
	Write(addr uint32, v uint8) uint8
}

// DiagnosticsFunc receives human-readable diagnostic lines, e.g. for a
// launcher to forward to stderr or a trace file.
type DiagnosticsFunc func(format string, args ...any)

// CPU is the G10 processor core. It exclusively owns its register file
// and internal state and holds a non-owning reference to a Bus.
type CPU struct {
	reg RegisterFile
	bus Bus

	// Fetch scratch, spec §3.
	opcode     uint16
	opcodeAddr uint32

	// Mode flags, spec §3.
	halted           bool
	stopped          bool
	doubleFault      bool
	ime              bool
	imp              bool
	handlingException bool
	speedSwitching   bool
	doubleSpeed      bool
	speedArmed       bool

	irq uint32
	ie  uint32

	cycles uint64

	// Diagnostics is invoked when the core raises an exception or hits
	// another condition worth surfacing to a host. May be nil.
	Diagnostics DiagnosticsFunc

	// Tracer, if set, receives fetch/execute/exception events. It is an
	// interface local to this package (like Bus) so a tracer
	// implementation in another package never forces cpu to import it.
	Tracer Tracer
}

// Tracer receives execution events as the CPU processes them, modeled
// on emul/trace.go's pre/post-instruction hooks.
type Tracer interface {
	TracePreInstruction(c *CPU)
	TracePostInstruction(c *CPU)
	TraceException(c *CPU, code uint8)
	TraceDoubleFault(c *CPU)
}

// Cycles returns the total number of T-cycles executed since reset.
func (c *CPU) Cycles() uint64 { return c.cycles }

// OpcodeAddr returns the address the most recently fetched opcode was
// read from.
func (c *CPU) OpcodeAddr() uint32 { return c.opcodeAddr }

// Opcode returns the most recently fetched opcode.
func (c *CPU) Opcode() uint16 { return c.opcode }

// PeekByte reads a byte through the bus without consuming a cycle, for
// diagnostic use (tracing, disassembly) only.
func (c *CPU) PeekByte(addr uint32) uint8 { return c.bus.Read(addr) }

// New creates a CPU wired to bus and resets it to power-on state.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// SetBus rebinds the CPU to bus. A launcher that needs the CPU as a
// bus.CPUPort before the bus itself exists (bus.New takes a CPUPort)
// constructs the CPU with a nil bus and calls SetBus once the bus is
// built.
func (c *CPU) SetBus(bus Bus) { c.bus = bus }

// Reset restores the register file and internal state to the §3 reset
// values. Idempotent: calling it twice in a row is equivalent to once.
func (c *CPU) Reset() {
	c.reg.Reset()
	c.opcode = 0
	c.opcodeAddr = 0
	c.halted = false
	c.stopped = false
	c.doubleFault = false
	c.ime = false
	c.imp = false
	c.handlingException = false
	c.speedSwitching = false
	c.doubleSpeed = false
	c.speedArmed = false
	c.irq = 0
	c.ie = ResetIE
	if c.bus != nil {
		c.bus.Reset()
	}
}

// Registers exposes a read-only view of the register file for
// diagnostics, tracing, and tests.
func (c *CPU) Registers() *RegisterFile { return &c.reg }

// Halted, Stopped, DoubleFault, IME report the corresponding mode flags.
func (c *CPU) Halted() bool      { return c.halted }
func (c *CPU) Stopped() bool     { return c.stopped }
func (c *CPU) DoubleFault() bool { return c.doubleFault }
func (c *CPU) IME() bool         { return c.ime }

// Wake clears stopped unless the CPU has double-faulted.
func (c *CPU) Wake() {
	if !c.doubleFault {
		c.stopped = false
	}
}

// RequestInterrupt sets the IRQ bit for vector (idempotent).
func (c *CPU) RequestInterrupt(vector uint8) {
	if vector < 32 {
		c.irq |= 1 << vector
	}
}

// ReadIRQByte/WriteIRQByte and ReadIEByte/WriteIEByte project the
// 32-bit IRQ/IE registers onto little-endian byte windows for MMIO
// (spec §4.2.7). i must be 0-3.
func (c *CPU) ReadIRQByte(i uint8) uint8 { return uint8(c.irq >> (8 * (i & 3))) }

func (c *CPU) WriteIRQByte(i uint8, v uint8) uint8 {
	shift := 8 * (i & 3)
	c.irq = (c.irq &^ (0xFF << shift)) | uint32(v)<<shift
	return c.ReadIRQByte(i)
}

func (c *CPU) ReadIEByte(i uint8) uint8 { return uint8(c.ie >> (8 * (i & 3))) }

func (c *CPU) WriteIEByte(i uint8, v uint8) uint8 {
	shift := 8 * (i & 3)
	c.ie = (c.ie &^ (0xFF << shift)) | uint32(v)<<shift
	if i&3 == 0 {
		c.ie |= 1 // bit 0 is read-only 1, a power-on invariant
	}
	return c.ReadIEByte(i)
}

// RaiseException lets a Bus implementation report a rejected access
// back to the CPU by writing EC, per spec §4.1/§7. Reference bus
// implementations call this from Read/Write when an address is
// rejected; the CPU has no other way to observe a bus-level fault.
func (c *CPU) RaiseException(code uint8) { c.raiseException(code) }

// faulted reports whether an exception is pending after the most
// recent bus access, so in-flight instruction execution can stop
// touching registers/memory without unwinding the call stack.
func (c *CPU) faulted() bool { return c.reg.EC() != 0 }

func (c *CPU) tickBus() bool {
	c.cycles++
	if c.bus == nil {
		return true
	}
	ok := c.bus.Tick()
	if !ok {
		c.raiseException(ExHardwareError)
	}
	return ok
}

func (c *CPU) readByte(addr uint32) uint8 {
	if c.bus == nil {
		return 0xFF
	}
	return c.bus.Read(addr)
}

func (c *CPU) writeByte(addr uint32, v uint8) uint8 {
	if c.bus == nil {
		return v
	}
	return c.bus.Write(addr, v)
}

// Tick executes at most one instruction (plus any pending interrupt
// service), ticking the bus as each byte is consumed. It implements
// the fetch/decode/execute cycle of spec §4.2.
func (c *CPU) Tick() bool {
	if c.stopped {
		return true
	}

	if c.halted {
		if c.ie&c.irq != 0 {
			c.halted = false
		} else {
			return c.consumeMachineCycles(1)
		}
	}

	if !c.halted {
		if c.ime && !c.imp {
			if vec, ok := c.nextPendingVector(); ok {
				c.irq &^= 1 << vec
				c.ime = false
				c.imp = false
				c.halted = false
				if !c.consumeMachineCycles(2) {
					return false
				}
				if !c.pushDword(c.reg.PC()) {
					return false
				}
				c.reg.SetPC(IVTStart + uint32(vec)*IVTStride)
				return c.consumeMachineCycles(1)
			}
		} else if c.imp && !c.ime {
			c.imp = false
		}
	}

	if c.halted {
		return true
	}

	// Fetch 2-byte opcode.
	addr := c.reg.PC()
	c.opcodeAddr = addr
	if c.Tracer != nil {
		c.Tracer.TracePreInstruction(c)
	}
	// Only a fault raised by the fetch itself stops here: inside an
	// exception handler EC is already nonzero until RETI clears it.
	ecBefore := c.reg.EC()
	hi0 := c.readByte(addr)
	if !c.tickBus() {
		return false
	}
	if c.reg.EC() != ecBefore || c.stopped {
		return true
	}
	hi1 := c.readByte(addr + 1)
	if !c.tickBus() {
		return false
	}
	if c.reg.EC() != ecBefore || c.stopped {
		return true
	}
	c.opcode = uint16(hi0) | uint16(hi1)<<8
	c.reg.SetPC(addr + 2)

	impWasSet := c.imp

	if !c.execute(c.opcode) {
		return false
	}

	if impWasSet {
		c.ime = true
		c.imp = false
	}

	if c.Tracer != nil {
		c.Tracer.TracePostInstruction(c)
	}

	return true
}

// nextPendingVector scans bit 0 upward in (IE & IRQ) for the first
// enabled, pending interrupt.
func (c *CPU) nextPendingVector() (uint8, bool) {
	pending := c.ie & c.irq
	if pending == 0 {
		return 0, false
	}
	for v := uint8(0); v < 32; v++ {
		if pending&(1<<v) != 0 {
			return v, true
		}
	}
	return 0, false
}

// dispatchVector pushes PC and jumps to the given interrupt vector,
// independent of IME (used for hardware exceptions, which are always
// serviced). Returns false only when a bus tick fails, which the caller
// escalates to a double fault; a rejected push write is reported by the
// bus through RaiseException instead.
func (c *CPU) dispatchVector(vector uint8) bool {
	if !c.consumeMachineCycles(2) {
		return false
	}
	if !c.pushDword(c.reg.PC()) {
		return false
	}
	c.reg.SetPC(IVTStart + uint32(vector)*IVTStride)
	return c.consumeMachineCycles(1)
}

// consumeMachineCycles ticks the bus 4*n times (n M-cycles = 4n T-cycles).
func (c *CPU) consumeMachineCycles(n int) bool {
	for i := 0; i < n*4; i++ {
		if !c.tickBus() {
			return false
		}
	}
	return true
}

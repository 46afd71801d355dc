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

// Package trace implements the G10 execution tracer: an opt-in,
// file-backed log of fetch/execute/exception events, modeled on
// emul/trace.go's Tracer. It implements cpu.Tracer structurally, so
// internal/cpu never needs to import this package.
package trace

import (
	"fmt"
	"io"

	"github.com/dgdev1024/2026-G10-sub004/internal/cpu"
	"github.com/dgdev1024/2026-G10-sub004/internal/disasm"
)

// Tracer writes one record per traced event to out.
type Tracer struct {
	out       io.Writer
	prevRegs  [16]uint32
	prevFlags uint8
	prevSP    uint32
}

// New creates a Tracer writing to out. Passing a nil out is a caller
// error; wire a real file (or os.Stderr) from cmd/g10's -trace flag.
func New(out io.Writer) *Tracer {
	return &Tracer{out: out}
}

// TracePreInstruction records CPU state before fetch/execute.
func (t *Tracer) TracePreInstruction(c *cpu.CPU) {
	r := c.Registers()
	for i := 0; i < 16; i++ {
		t.prevRegs[i] = r.D(uint8(i))
	}
	t.prevFlags = r.Flags()
	t.prevSP = r.SP()

	fmt.Fprintf(t.out, "\n========================================\n")
	fmt.Fprintf(t.out, "CYCLE: %020d\n", c.Cycles())
	fmt.Fprintf(t.out, "PC: $%08X\n", r.PC())

	text, _ := disasm.Decode(c.PeekByte, r.PC())
	fmt.Fprintf(t.out, "INST: %s\n", text)
	fmt.Fprintf(t.out, "REGS BEFORE: %s\n", formatRegs(t.prevRegs))
	fmt.Fprintf(t.out, "FLAGS BEFORE: %s\n", formatFlags(t.prevFlags))
}

// TracePostInstruction records what changed during fetch/execute.
func (t *Tracer) TracePostInstruction(c *cpu.CPU) {
	r := c.Registers()

	for i := 0; i < 16; i++ {
		if r.D(uint8(i)) != t.prevRegs[i] {
			fmt.Fprintf(t.out, "EXECUTE: D%d <- $%08X\n", i, r.D(uint8(i)))
		}
	}
	if r.SP() != t.prevSP {
		fmt.Fprintf(t.out, "EXECUTE: SP <- $%08X\n", r.SP())
	}

	if r.Flags() != t.prevFlags {
		fmt.Fprintf(t.out, "FLAGS AFTER: %s\n", formatFlags(r.Flags()))
	}
	fmt.Fprintf(t.out, "REGS AFTER: %s\n", formatRegs(snapshot(r)))
}

// TraceException records an exception being raised.
func (t *Tracer) TraceException(c *cpu.CPU, code uint8) {
	r := c.Registers()
	fmt.Fprintf(t.out, "\n*** EXCEPTION: code=%d pc=$%08X opcode=$%04X @ $%08X\n",
		code, r.PC(), c.Opcode(), c.OpcodeAddr())
}

// TraceDoubleFault records a double fault, the point at which the core
// stops.
func (t *Tracer) TraceDoubleFault(c *cpu.CPU) {
	r := c.Registers()
	fmt.Fprintf(t.out, "\n========================================\n")
	fmt.Fprintf(t.out, "*** DOUBLE FAULT ***\n")
	fmt.Fprintf(t.out, "========================================\n")
	fmt.Fprintf(t.out, "PC: $%08X\n", r.PC())
	fmt.Fprintf(t.out, "EC: %d\n", r.EC())
	fmt.Fprintf(t.out, "Cycles: %d\n", c.Cycles())
	fmt.Fprintf(t.out, "Registers:\n")
	for i := 0; i < 16; i++ {
		fmt.Fprintf(t.out, "  D%d = $%08X\n", i, r.D(uint8(i)))
	}
	fmt.Fprintf(t.out, "Core halting.\n")
	fmt.Fprintf(t.out, "========================================\n")
}

func snapshot(r *cpu.RegisterFile) [16]uint32 {
	var regs [16]uint32
	for i := 0; i < 16; i++ {
		regs[i] = r.D(uint8(i))
	}
	return regs
}

func formatRegs(regs [16]uint32) string {
	s := ""
	for i, v := range regs {
		s += fmt.Sprintf("D%d=%08X ", i, v)
	}
	return s
}

func formatFlags(f uint8) string {
	bit := func(mask uint8) int {
		if f&mask != 0 {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("Z=%d N=%d H=%d C=%d V=%d",
		bit(cpu.FlagZ), bit(cpu.FlagN), bit(cpu.FlagH), bit(cpu.FlagC), bit(cpu.FlagV))
}

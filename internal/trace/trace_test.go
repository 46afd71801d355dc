// Copyright © 2026 Dana Gdev (dgdev1024@gmail.com)
//
// Unit tests for the execution tracer.

package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgdev1024/2026-G10-sub004/internal/cpu"
)

type flatBus struct {
	mem map[uint32]uint8
}

func newFlatBus() *flatBus { return &flatBus{mem: make(map[uint32]uint8)} }

func (b *flatBus) Reset()                         {}
func (b *flatBus) Tick() bool                     { return true }
func (b *flatBus) Read(addr uint32) uint8         { return b.mem[addr] }
func (b *flatBus) Write(addr uint32, v uint8) uint8 {
	b.mem[addr] = v
	return v
}

func (b *flatBus) poke(addr uint32, bytes ...uint8) {
	for i, v := range bytes {
		b.mem[addr+uint32(i)] = v
	}
}

func TestTracePreAndPostInstruction(t *testing.T) {
	bus := newFlatBus()
	c := cpu.New(bus)

	var out bytes.Buffer
	tr := New(&out)
	c.Tracer = tr

	// ADD L0, L1 at reset PC: group 0x5 fn 0 (ADD8RR), dst=0 src=1.
	bus.poke(cpu.ResetPC, 0x01, 0x50)

	if !c.Tick() {
		t.Fatal("Tick returned false")
	}

	text := out.String()
	if !strings.Contains(text, "INST: ADD L0, L1") {
		t.Errorf("trace missing disassembled instruction, got:\n%s", text)
	}
	if !strings.Contains(text, "REGS BEFORE:") || !strings.Contains(text, "REGS AFTER:") {
		t.Errorf("trace missing register snapshots, got:\n%s", text)
	}
}

func TestTraceException(t *testing.T) {
	bus := newFlatBus()
	c := cpu.New(bus)

	var out bytes.Buffer
	c.Tracer = New(&out)

	// 0xFFFF decodes to an invalid group/function combination.
	bus.poke(cpu.ResetPC, 0xFF, 0xFF)
	// Give the vector-0 handler something harmless to run (RETI).
	bus.poke(cpu.IVTStart, 0x00, 0x44)

	c.Tick()

	if !strings.Contains(out.String(), "*** EXCEPTION:") {
		t.Errorf("expected an exception trace record, got:\n%s", out.String())
	}
}

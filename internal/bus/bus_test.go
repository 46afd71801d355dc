// Copyright © 2026 Dana Gdev (dgdev1024@gmail.com)
//
// Unit tests for ROM/RAM/quick-RAM dispatch and the MMIO port page.

package bus

import "testing"

type fakeCPU struct {
	irq, ie      [4]uint8
	spd          uint8
	raisedCode   uint8
	raisedCalled bool
}

func (f *fakeCPU) ReadIRQByte(i uint8) uint8  { return f.irq[i&3] }
func (f *fakeCPU) WriteIRQByte(i uint8, v uint8) uint8 { f.irq[i&3] = v; return v }
func (f *fakeCPU) ReadIEByte(i uint8) uint8   { return f.ie[i&3] }
func (f *fakeCPU) WriteIEByte(i uint8, v uint8) uint8  { f.ie[i&3] = v; return v }
func (f *fakeCPU) ReadSPD() uint8             { return f.spd }
func (f *fakeCPU) WriteSPD(v uint8) uint8     { f.spd = v; return v }
func (f *fakeCPU) RaiseException(code uint8)  { f.raisedCalled = true; f.raisedCode = code }

type fakeTimer struct {
	div, tima, tma, tac uint8
	ticks               int
}

func (f *fakeTimer) ReadDIV() uint8    { return f.div }
func (f *fakeTimer) WriteDIV(v uint8)  { f.div = v }
func (f *fakeTimer) ReadTIMA() uint8   { return f.tima }
func (f *fakeTimer) WriteTIMA(v uint8) { f.tima = v }
func (f *fakeTimer) ReadTMA() uint8    { return f.tma }
func (f *fakeTimer) WriteTMA(v uint8)  { f.tma = v }
func (f *fakeTimer) ReadTAC() uint8    { return f.tac }
func (f *fakeTimer) WriteTAC(v uint8)  { f.tac = v }
func (f *fakeTimer) Tick()             { f.ticks++ }

func TestROMReadWrite(t *testing.T) {
	rom := []byte{0xAA, 0xBB, 0xCC}
	fc := &fakeCPU{}
	b := New(rom, 0, fc, nil)

	if got := b.Read(0); got != 0xAA {
		t.Errorf("Read(0) = %#02x, want 0xAA", got)
	}
	if got := b.Read(2); got != 0xCC {
		t.Errorf("Read(2) = %#02x, want 0xCC", got)
	}
	if got := b.Read(100); got != 0xFF {
		t.Errorf("Read past ROM image = %#02x, want 0xFF", got)
	}

	b.Write(0, 0x11)
	if !fc.raisedCalled {
		t.Error("writing ROM should raise an exception")
	}
}

func TestRAMAndQuickRAM(t *testing.T) {
	b := New(nil, 1<<16, nil, nil)
	b.Write(RAMStart, 0x42)
	if got := b.Read(RAMStart); got != 0x42 {
		t.Errorf("Read(RAMStart) = %#02x, want 0x42", got)
	}

	quickAddr := QuickRAMStart + 10
	b.Write(quickAddr, 0x77)
	if got := b.Read(quickAddr); got != 0x77 {
		t.Errorf("Read(quick RAM) = %#02x, want 0x77", got)
	}
}

func TestUnmappedReadsReturnFF(t *testing.T) {
	b := New(nil, 1<<16, nil, nil)
	if got := b.Read(IOPortStart + 0x20); got != 0xFF {
		t.Errorf("Read(unmapped IO port) = %#02x, want 0xFF", got)
	}
}

func TestIRQIEPortsRouteToCPU(t *testing.T) {
	fc := &fakeCPU{}
	b := New(nil, 0, fc, nil)

	b.Write(portIE1, 0xAB)
	if fc.ie[1] != 0xAB {
		t.Errorf("fc.ie[1] = %#02x, want 0xAB", fc.ie[1])
	}
	if got := b.Read(portIE1); got != 0xAB {
		t.Errorf("Read(portIE1) = %#02x, want 0xAB", got)
	}

	b.Write(portIRQ2, 0x5)
	if fc.irq[2] != 0x5 {
		t.Errorf("fc.irq[2] = %#02x, want 0x5", fc.irq[2])
	}
}

func TestTimerPortsRouteToTimer(t *testing.T) {
	ft := &fakeTimer{}
	b := New(nil, 0, nil, ft)

	b.Write(portTIMA, 0x33)
	if ft.tima != 0x33 {
		t.Errorf("ft.tima = %#02x, want 0x33", ft.tima)
	}
	if got := b.Read(portTIMA); got != 0x33 {
		t.Errorf("Read(portTIMA) = %#02x, want 0x33", got)
	}

	if !b.Tick() {
		t.Fatal("Tick should return true")
	}
	if ft.ticks != 1 {
		t.Errorf("timer ticks = %d, want 1", ft.ticks)
	}
}

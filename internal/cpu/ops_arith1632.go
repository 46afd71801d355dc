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

// Group 0x6 functions: 16- and 32-bit arithmetic. The high bit of the
// function nibble selects width: 0x0-0x7 operate on the "Wn" aliases,
// 0x8-0xF on the full "Dn" registers.
const (
	fnADD16RR uint8 = iota
	fnADC16RR
	fnSUB16RR
	fnSBC16RR
	fnINC16
	fnDEC16
	fnCMP16RR
	fnADD16RI
)

const (
	fnADD32RR uint8 = iota + 0x8
	fnADC32RR
	fnSUB32RR
	fnSBC32RR
	fnINC32
	fnDEC32
	fnCMP32RR
	fnADD32RI
)

func (c *CPU) execArith1632(f uint8, lo uint8) bool {
	if f&0x8 == 0 {
		return c.execArith16(f, lo)
	}
	return c.execArith32(f, lo)
}

func (c *CPU) execArith16(f uint8, lo uint8) bool {
	dest := destW(lo)
	a := uint16(c.reg.ReadOperand(dest))
	switch f {
	case fnADD16RR:
		b := uint16(c.reg.ReadOperand(wordReg(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.add16(a, b, false)))
	case fnADC16RR:
		b := uint16(c.reg.ReadOperand(wordReg(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.add16(a, b, c.reg.flag(FlagC))))
	case fnSUB16RR:
		b := uint16(c.reg.ReadOperand(wordReg(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.sub16(a, b, false)))
	case fnSBC16RR:
		b := uint16(c.reg.ReadOperand(wordReg(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.sub16(a, b, c.reg.flag(FlagC))))
	case fnINC16:
		c.reg.WriteOperand(dest, uint32(c.reg.inc16(a)))
	case fnDEC16:
		c.reg.WriteOperand(dest, uint32(c.reg.dec16(a)))
	case fnCMP16RR:
		b := uint16(c.reg.ReadOperand(wordReg(lo)))
		c.reg.sub16(a, b, false)
	case fnADD16RI:
		imm, ok := c.fetchImm16()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(dest, uint32(c.reg.add16(a, imm, false)))
	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
	// 16-bit ALU ops consume 1 M-cycle beyond the 8-bit base (spec §4.2 step 6).
	return c.consumeMachineCycles(1)
}

func (c *CPU) execArith32(f uint8, lo uint8) bool {
	dest := destD(lo)
	a := c.reg.ReadOperand(dest)
	switch f {
	case fnADD32RR:
		b := c.reg.ReadOperand(srcD(lo))
		c.reg.WriteOperand(dest, c.reg.add32(a, b, false))
	case fnADC32RR:
		b := c.reg.ReadOperand(srcD(lo))
		c.reg.WriteOperand(dest, c.reg.add32(a, b, c.reg.flag(FlagC)))
	case fnSUB32RR:
		b := c.reg.ReadOperand(srcD(lo))
		c.reg.WriteOperand(dest, c.reg.sub32(a, b, false))
	case fnSBC32RR:
		b := c.reg.ReadOperand(srcD(lo))
		c.reg.WriteOperand(dest, c.reg.sub32(a, b, c.reg.flag(FlagC)))
	case fnINC32:
		c.reg.WriteOperand(dest, c.reg.inc32(a))
	case fnDEC32:
		c.reg.WriteOperand(dest, c.reg.dec32(a))
	case fnCMP32RR:
		b := c.reg.ReadOperand(srcD(lo))
		c.reg.sub32(a, b, false)
	case fnADD32RI:
		imm, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(dest, c.reg.add32(a, imm, false))
	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
	// 32-bit ALU ops consume 3 M-cycles beyond the 8-bit base (spec §4.2 step 6).
	return c.consumeMachineCycles(3)
}

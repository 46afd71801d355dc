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

// Group 0x2 functions: 16-bit load/store over the "Wn" aliases.
const (
	fnLD16RR uint8 = iota // LD Wd, Ws
	fnLD16RI              // LD Wd, imm16
	fnLD16RM              // LD Wd, (Ds)
	fnLD16MR              // LD (Dd), Ws
	fnLD16RA              // LD Wd, (imm32)
	fnLD16AR              // LD (imm32), Ws
)

func (c *CPU) execLoad16(f uint8, lo uint8) bool {
	switch f {
	case fnLD16RR:
		v := c.reg.ReadOperand(wordReg(lo))
		c.reg.WriteOperand(Operand{Kind: RegW, Index: destNibble(lo)}, v)
		return true

	case fnLD16RI:
		imm, ok := c.fetchImm16()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(Operand{Kind: RegW, Index: destNibble(lo)}, uint32(imm))
		return true

	case fnLD16RM:
		addr := c.reg.ReadOperand(srcD(lo))
		v, ok := c.readMem16(addr)
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(Operand{Kind: RegW, Index: destNibble(lo)}, uint32(v))
		return true

	case fnLD16MR:
		addr := c.reg.ReadOperand(destD(lo))
		v := uint16(c.reg.ReadOperand(wordReg(lo)))
		return c.writeMem16(addr, v)

	case fnLD16RA:
		addr, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		v, ok := c.readMem16(addr)
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(Operand{Kind: RegW, Index: destNibble(lo)}, uint32(v))
		return true

	case fnLD16AR:
		addr, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		v := uint16(c.reg.ReadOperand(wordReg(lo)))
		return c.writeMem16(addr, v)

	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
}

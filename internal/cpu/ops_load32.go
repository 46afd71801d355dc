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

// Group 0x3 functions: 32-bit load/store over the full "Dn" registers,
// plus the stack and SP-transfer forms.
const (
	fnLD32RR uint8 = iota // LD Dd, Ds
	fnLD32RI              // LD Dd, imm32
	fnLD32RM              // LD Dd, (Ds)
	fnLD32MR              // LD (Dd), Ds
	fnLD32RA              // LD Dd, (imm32)
	fnLD32AR              // LD (imm32), Ds
	fnPUSH                // PUSH Ds
	fnPOP                 // POP Dd
	fnLDSPR               // LD SP, Ds
	fnLDRSP               // LD Dd, SP
)

func (c *CPU) execLoad32(f uint8, lo uint8) bool {
	switch f {
	case fnLD32RR:
		v := c.reg.ReadOperand(srcD(lo))
		c.reg.WriteOperand(destD(lo), v)
		return true

	case fnLD32RI:
		imm, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(destD(lo), imm)
		return true

	case fnLD32RM:
		addr := c.reg.ReadOperand(srcD(lo))
		v, ok := c.readMem32(addr)
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(destD(lo), v)
		return true

	case fnLD32MR:
		addr := c.reg.ReadOperand(destD(lo))
		v := c.reg.ReadOperand(srcD(lo))
		return c.writeMem32(addr, v)

	case fnLD32RA:
		addr, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		v, ok := c.readMem32(addr)
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(destD(lo), v)
		return true

	case fnLD32AR:
		addr, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		v := c.reg.ReadOperand(srcD(lo))
		return c.writeMem32(addr, v)

	case fnPUSH:
		v := c.reg.ReadOperand(srcD(lo))
		return c.pushDword(v)

	case fnPOP:
		v, ok := c.popDword()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(destD(lo), v)
		return true

	case fnLDSPR:
		c.reg.SetSP(c.reg.ReadOperand(srcD(lo)))
		return true

	case fnLDRSP:
		c.reg.WriteOperand(destD(lo), c.reg.SP())
		return true

	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
}

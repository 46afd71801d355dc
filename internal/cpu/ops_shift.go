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

// Group 0x8 functions: shifts and nibble/byte/word swaps. Shifts operate
// on the "Ln" alias; SWAP has a width-selected variant for each
// register width.
const (
	fnSLA uint8 = iota
	fnSRA
	fnSRL
	fnSWAP8
	fnSWAP16
	fnSWAP32
)

func (c *CPU) execShift(f uint8, lo uint8) bool {
	switch f {
	case fnSLA:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.sla8(a)))
	case fnSRA:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.sra8(a)))
	case fnSRL:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.srl8(a)))
	case fnSWAP8:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.swap8(a)))
	case fnSWAP16:
		dest := destW(lo)
		a := uint16(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.swap16(a)))
	case fnSWAP32:
		dest := destD(lo)
		a := c.reg.ReadOperand(dest)
		c.reg.WriteOperand(dest, c.reg.swap32(a))
	default:
		c.raiseException(ExInvalidInstruction)
	}
	return true
}

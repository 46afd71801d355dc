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

// Group 0x7 functions: 8-bit bitwise logic over the "Ln" aliases.
const (
	fnAND8RR uint8 = iota
	fnAND8RI
	fnOR8RR
	fnOR8RI
	fnXOR8RR
	fnXOR8RI
	fnNOT8
)

func (c *CPU) execLogic8(f uint8, lo uint8) bool {
	dest := destL(lo)
	a := uint8(c.reg.ReadOperand(dest))

	switch f {
	case fnAND8RR:
		b := uint8(c.reg.ReadOperand(srcL(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.and8(a, b)))
	case fnAND8RI:
		b, ok := c.fetchImm8()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(dest, uint32(c.reg.and8(a, b)))
	case fnOR8RR:
		b := uint8(c.reg.ReadOperand(srcL(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.or8(a, b)))
	case fnOR8RI:
		b, ok := c.fetchImm8()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(dest, uint32(c.reg.or8(a, b)))
	case fnXOR8RR:
		b := uint8(c.reg.ReadOperand(srcL(lo)))
		c.reg.WriteOperand(dest, uint32(c.reg.xor8(a, b)))
	case fnXOR8RI:
		b, ok := c.fetchImm8()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.WriteOperand(dest, uint32(c.reg.xor8(a, b)))
	case fnNOT8:
		c.reg.WriteOperand(dest, uint32(c.reg.not8(a)))
	default:
		c.raiseException(ExInvalidInstruction)
	}
	return true
}

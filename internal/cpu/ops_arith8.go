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

// Group 0x5 functions: 8-bit arithmetic over the "Ln" aliases.
const (
	fnADD8RR uint8 = iota
	fnADD8RI
	fnADC8RR
	fnADC8RI
	fnSUB8RR
	fnSUB8RI
	fnSBC8RR
	fnSBC8RI
	fnINC8
	fnDEC8
	fnCMP8RR
	fnCMP8RI
)

func (c *CPU) execArith8(f uint8, lo uint8) bool {
	dest := destL(lo)
	a := uint8(c.reg.ReadOperand(dest))

	readSrc := func() (uint8, bool) {
		return uint8(c.reg.ReadOperand(srcL(lo))), true
	}
	readImm := func() (uint8, bool) { return c.fetchImm8() }

	switch f {
	case fnADD8RR, fnADC8RR, fnSUB8RR, fnSBC8RR, fnCMP8RR:
		b, _ := readSrc()
		return c.finishArith8(f, dest, a, b)

	case fnADD8RI, fnADC8RI, fnSUB8RI, fnSBC8RI, fnCMP8RI:
		b, ok := readImm()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		return c.finishArith8(f, dest, a, b)

	case fnINC8:
		c.reg.WriteOperand(dest, uint32(c.reg.inc8(a)))
		return true

	case fnDEC8:
		c.reg.WriteOperand(dest, uint32(c.reg.dec8(a)))
		return true

	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
}

func (c *CPU) finishArith8(f uint8, dest Operand, a, b uint8) bool {
	switch f {
	case fnADD8RR, fnADD8RI:
		c.reg.WriteOperand(dest, uint32(c.reg.add8(a, b, false)))
	case fnADC8RR, fnADC8RI:
		c.reg.WriteOperand(dest, uint32(c.reg.add8(a, b, c.reg.flag(FlagC))))
	case fnSUB8RR, fnSUB8RI:
		c.reg.WriteOperand(dest, uint32(c.reg.sub8(a, b, false)))
	case fnSBC8RR, fnSBC8RI:
		c.reg.WriteOperand(dest, uint32(c.reg.sub8(a, b, c.reg.flag(FlagC))))
	case fnCMP8RR, fnCMP8RI:
		c.reg.cmp8(a, b)
	}
	return true
}

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

// Group 0x9 functions: rotates. RL/RLC/RR/RRC take a register operand
// and set Z normally; the accumulator forms RLA/RLCA/RRA/RRCA always
// act on L0 and force Z to 0 (spec §4.2.4).
const (
	fnRL uint8 = iota
	fnRLC
	fnRR
	fnRRC
	fnRLA
	fnRLCA
	fnRRA
	fnRRCA
)

func (c *CPU) execRotate(f uint8, lo uint8) bool {
	switch f {
	case fnRL:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.rl8(a, false)))
	case fnRLC:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.rlc8(a, false)))
	case fnRR:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.rr8(a, false)))
	case fnRRC:
		dest := destL(lo)
		a := uint8(c.reg.ReadOperand(dest))
		c.reg.WriteOperand(dest, uint32(c.reg.rrc8(a, false)))
	case fnRLA:
		l0 := Operand{Kind: RegL, Index: 0}
		a := uint8(c.reg.ReadOperand(l0))
		c.reg.WriteOperand(l0, uint32(c.reg.rl8(a, true)))
	case fnRLCA:
		l0 := Operand{Kind: RegL, Index: 0}
		a := uint8(c.reg.ReadOperand(l0))
		c.reg.WriteOperand(l0, uint32(c.reg.rlc8(a, true)))
	case fnRRA:
		l0 := Operand{Kind: RegL, Index: 0}
		a := uint8(c.reg.ReadOperand(l0))
		c.reg.WriteOperand(l0, uint32(c.reg.rr8(a, true)))
	case fnRRCA:
		l0 := Operand{Kind: RegL, Index: 0}
		a := uint8(c.reg.ReadOperand(l0))
		c.reg.WriteOperand(l0, uint32(c.reg.rrc8(a, true)))
	default:
		c.raiseException(ExInvalidInstruction)
	}
	return true
}

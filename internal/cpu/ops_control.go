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

// Group 0x0 functions: CPU control.
const (
	fnNOP uint8 = iota
	fnSTOP
	fnHALT
	fnDI
	fnEI
	fnEII
	fnDAA
	fnSCF
	fnCCF
	fnCLV
	fnSEV
)

func (c *CPU) execControl(f uint8, _ uint8) bool {
	switch f {
	case fnNOP:
		return true

	case fnSTOP:
		if c.speedArmed {
			c.speedArmed = false
			c.speedSwitching = true
			if !c.consumeMachineCycles(2050) {
				return false
			}
			c.doubleSpeed = !c.doubleSpeed
			c.speedSwitching = false
		} else {
			c.stopped = true
		}
		return true

	case fnHALT:
		c.halted = true
		return true

	case fnDI:
		c.ime = false
		c.imp = false
		return true

	case fnEI:
		// EI arms imp; it takes effect after the instruction that
		// follows (consumed at end-of-instruction in Tick).
		c.imp = true
		return true

	case fnEII:
		// EII ("enable interrupts immediately") sets ime directly.
		c.ime = true
		c.imp = false
		return true

	case fnDAA:
		c.reg.SetL(0, c.reg.daa(c.reg.L(0)))
		return true

	case fnSCF:
		c.reg.scf()
		return true

	case fnCCF:
		c.reg.ccf()
		return true

	case fnCLV:
		c.reg.clv()
		return true

	case fnSEV:
		c.reg.sev()
		return true

	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
}

// ReadSPD returns the one-byte SPD register (spec §4.2.6): bit 0
// armed, bit 7 double-speed, bits 1-6 unused and always read 1.
func (c *CPU) ReadSPD() uint8 {
	v := uint8(0x7E) // bits 1-6 = 1
	if c.speedArmed {
		v |= 0x01
	}
	if c.doubleSpeed {
		v |= 0x80
	}
	return v
}

// WriteSPD writes the armed bit of SPD; bit 7 and bits 1-6 are ignored
// (read-only / always-1).
func (c *CPU) WriteSPD(v uint8) uint8 {
	c.speedArmed = v&0x01 != 0
	return c.ReadSPD()
}

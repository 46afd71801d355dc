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

// Group 0xA functions: single-bit test/set/reset/toggle on the "Ln"
// alias. The register lives in the high nibble of the low byte, the
// bit index in the low nibble. The low nibble can express 0-15, but an
// 8-bit Ln target only has 8 valid bit positions, so 8-15 faults
// rather than wrapping (spec §7, INVALID_ARGUMENT).
const (
	fnBIT uint8 = iota
	fnSET
	fnRES
	fnTOG
)

func (c *CPU) execBit(f uint8, lo uint8) bool {
	dest := destL(lo)
	y := srcNibble(lo)
	if y > 7 {
		c.raiseException(ExInvalidArgument)
		return true
	}
	a := uint8(c.reg.ReadOperand(dest))

	switch f {
	case fnBIT:
		c.reg.bitTest(a, y)
	case fnSET:
		c.reg.WriteOperand(dest, uint32(a|(1<<y)))
	case fnRES:
		c.reg.WriteOperand(dest, uint32(a&^(1<<y)))
	case fnTOG:
		c.reg.WriteOperand(dest, uint32(a^(1<<y)))
	default:
		c.raiseException(ExInvalidInstruction)
	}
	return true
}

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

// Group 0x4 functions: branches and calls. The condition code occupies
// the low nibble of the low byte (spec §4.2.2); JPB takes a signed
// 16-bit displacement added to PC after the offset is fetched,
// everything else a 32-bit absolute target.
const (
	fnJMP uint8 = iota // JMP cc, imm32
	fnJPB              // JPB cc, simm16 (PC-relative)
	fnCALL             // CALL cc, imm32
	fnRET              // RET cc
	fnRETI             // RETI
	fnINT              // INT imm8
)

func condOf(lo uint8) Cond { return Cond(srcNibble(lo)) }

func (c *CPU) execBranch(f uint8, lo uint8) bool {
	switch f {
	case fnJMP:
		target, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		if c.condHolds(condOf(lo)) {
			c.reg.SetPC(target)
			return c.consumeMachineCycles(1)
		}
		return true

	case fnJPB:
		disp, ok := c.fetchImm16()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		if c.condHolds(condOf(lo)) {
			c.reg.SetPC(c.reg.PC() + uint32(int32(int16(disp))))
			return c.consumeMachineCycles(1)
		}
		return true

	case fnCALL:
		target, ok := c.fetchImm32()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		if c.condHolds(condOf(lo)) {
			if !c.pushDword(c.reg.PC()) {
				return false
			}
			if c.faulted() {
				return true
			}
			c.reg.SetPC(target)
		}
		return true

	case fnRET:
		if !c.condHolds(condOf(lo)) {
			return c.consumeMachineCycles(1)
		}
		ret, ok := c.popDword()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.SetPC(ret)
		return true

	case fnRETI:
		// Clear the exception code the handler was dispatched for
		// before touching the stack: popDword's fault short-circuit
		// would otherwise mistake the still-pending EC for a fault
		// raised by the pop itself.
		c.reg.setEC(ExOK)
		ret, ok := c.popDword()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		c.reg.SetPC(ret)
		c.ime = true
		c.imp = false
		return true

	case fnINT:
		vector, ok := c.fetchImm8()
		if !ok {
			return false
		}
		if c.faulted() {
			return true
		}
		if vector >= 32 {
			c.raiseException(ExInvalidArgument)
			return true
		}
		if !c.dispatchVector(vector) {
			c.doubleFault = true
			c.stopped = true
		}
		return true

	default:
		c.raiseException(ExInvalidInstruction)
		return true
	}
}

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

// Exception codes (EC values), spec §7.
const (
	ExOK                  uint8 = 0
	ExInvalidInstruction  uint8 = 1
	ExInvalidArgument     uint8 = 2
	ExInvalidReadAccess   uint8 = 3
	ExInvalidWriteAccess  uint8 = 4
	ExInvalidExecuteAccess uint8 = 5
	ExDivideByZero        uint8 = 6
	ExStackOverflow       uint8 = 7
	ExStackUnderflow      uint8 = 8
	ExHardwareError       uint8 = 9
	ExDoubleFault         uint8 = 10
)

// raiseException implements the propagation rule of spec §7: a nonzero
// EC (or an explicit double fault) while already faulted escalates to
// double_fault/stopped; otherwise EC is recorded and vector 0 is
// dispatched. Diagnostics are emitted through the optional Diagnostics
// hook rather than by unwinding control flow.
func (c *CPU) raiseException(code uint8) {
	if code == ExDoubleFault || c.reg.EC() != 0 {
		c.doubleFault = true
		c.stopped = true
		c.diagf("double fault: code=%d at pc=%#08x (opcode=%#04x @ %#08x)",
			code, c.reg.PC(), c.opcode, c.opcodeAddr)
		if c.Tracer != nil {
			c.Tracer.TraceDoubleFault(c)
		}
		return
	}

	c.reg.setEC(code)
	c.diagf("exception %d raised at pc=%#08x (opcode=%#04x @ %#08x)",
		code, c.reg.PC(), c.opcode, c.opcodeAddr)
	if c.Tracer != nil {
		c.Tracer.TraceException(c, code)
	}

	if !c.dispatchVector(0) {
		c.doubleFault = true
		c.stopped = true
	}
}

// diagf forwards a diagnostic line naming the failing opcode, its
// address, and (where relevant) the offending memory address, per the
// propagation contract in spec §7 step 3. EC itself is cleared by
// RETI, the instruction that signals the exception has been handled.
func (c *CPU) diagf(format string, args ...any) {
	if c.Diagnostics != nil {
		c.Diagnostics(format, args...)
	}
}

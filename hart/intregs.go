// Package hart implements the architectural state and execution engine
// of a single RISC-V hart: integer registers, control-and-status
// registers, instruction semantics for RV32/RV64 IMC, the machine-mode
// trap model, and the fetch-decode-execute loop with its run controls
// (stop address, tohost, termination and interrupt flags).
package hart

import "github.com/rvsim/rvsim/isa"

// IntRegs is the integer register file. Register 0 is hard-wired to
// zero: writes to it are discarded. The file remembers the last register
// written so trace records can report the destination without decoding
// the instruction a second time.
type IntRegs[U isa.Word] struct {
	regs [32]U

	lastWritten int // -1 when no write since ClearLastWritten
}

// Read returns the value of register i. Index 0 always reads zero.
// Indices outside 0..31 are a decoder bug, not a runtime condition.
func (r *IntRegs[U]) Read(i uint32) U {
	return r.regs[i]
}

// Write sets register i. Writes to register 0 are no-ops.
func (r *IntRegs[U]) Write(i uint32, v U) {
	if i == 0 {
		return
	}
	r.regs[i] = v
	r.lastWritten = int(i)
}

// LastWritten returns the index of the last register written, or -1.
func (r *IntRegs[U]) LastWritten() int { return r.lastWritten }

// ClearLastWritten resets the last-written record. Called at the top of
// each instruction.
func (r *IntRegs[U]) ClearLastWritten() { r.lastWritten = -1 }

// Reset zeroes every register.
func (r *IntRegs[U]) Reset() {
	r.regs = [32]U{}
	r.lastWritten = -1
}

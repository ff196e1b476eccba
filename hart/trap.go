// trap.go implements trap initiation and asynchronous interrupt
// delivery. Traps are architectural state changes, not Go errors: the
// handlers rewrite mcause/mepc/mtval/mstatus and the program counter,
// and the run loop carries on from the trap vector.
package hart

import "github.com/rvsim/rvsim/isa"

// initiateTrap changes machine state in reaction to an exception or an
// interrupt. pcToSave is the address to resume at after MRET: the
// faulting instruction for synchronous exceptions, the next instruction
// for interrupts. info becomes mtval: the faulting address for
// access/misalign, the instruction word for illegal-instruction, zero
// otherwise.
func (h *Hart[U]) initiateTrap(interrupt bool, cause U, pcToSave U, info U) {
	h.trapped = true
	h.trapsMetric.Inc()

	mcause := cause
	if interrupt {
		mcause |= U(1) << (h.xlen - 1)
	}
	h.csrs.set(isa.CsrMcause, mcause)
	h.csrs.set(isa.CsrMepc, pcToSave&^1)
	h.csrs.set(isa.CsrMtval, info)

	// Push the interrupt-enable stack and the privilege mode.
	status := h.csrs.get(isa.CsrMstatus)
	mie := status >> isa.MstatusMIE & 1
	status &^= U(1)<<isa.MstatusMPIE | U(1)<<isa.MstatusMIE | U(3)<<isa.MstatusMPPShift
	status |= mie << isa.MstatusMPIE
	status |= U(h.priv) << isa.MstatusMPPShift
	h.csrs.set(isa.CsrMstatus, status)

	h.priv = isa.PrivMachine

	// Direct mode vectors everything to BASE; vectored mode sends
	// interrupts to BASE + 4*cause.
	mtvec := h.csrs.get(isa.CsrMtvec)
	base := mtvec &^ 3
	if interrupt && mtvec&3 == 1 {
		h.pc = base + 4*cause
	} else {
		h.pc = base
	}
}

// initiateException starts a synchronous exception for the instruction
// at currPc.
func (h *Hart[U]) initiateException(cause isa.ExceptionCause, info U) {
	h.initiateTrap(false, U(cause), h.currPc, info)
}

// illegalInst raises illegal-instruction with the offending word in
// mtval. Used for invalid opcodes, machine-mode instructions executed
// without privilege, invalid CSRs, and writes to read-only CSRs.
func (h *Hart[U]) illegalInst(inst uint32) {
	h.initiateException(isa.IllegalInst, U(inst))
}

// interruptPending reports the highest-priority deliverable machine
// interrupt: a bit must be pending in mip, enabled in mie, and
// mstatus.MIE must be set.
func (h *Hart[U]) interruptPending() (isa.InterruptCause, bool) {
	status := h.csrs.get(isa.CsrMstatus)
	if status>>isa.MstatusMIE&1 == 0 {
		return 0, false
	}
	pending := h.csrs.get(isa.CsrMip) & h.csrs.get(isa.CsrMie)
	switch {
	case pending>>isa.MipMEIP&1 != 0:
		return isa.MExternal, true
	case pending>>isa.MipMSIP&1 != 0:
		return isa.MSoftware, true
	case pending>>isa.MipMTIP&1 != 0:
		return isa.MTimer, true
	}
	return 0, false
}

// pollInterrupts latches the environment's external-interrupt request
// into mip and delivers a pending interrupt if one is enabled. Called
// before each fetch; the saved pc is the instruction that would have
// executed next. Returns true if an interrupt was taken.
func (h *Hart[U]) pollInterrupts() bool {
	if h.extInterrupt.Load() {
		h.extInterrupt.Store(false)
		h.csrs.set(isa.CsrMip, h.csrs.get(isa.CsrMip)|U(1)<<isa.MipMEIP)
	}
	cause, ok := h.interruptPending()
	if !ok {
		return false
	}
	if cause == isa.MExternal {
		// One-shot delivery model for the external signal.
		h.csrs.set(isa.CsrMip, h.csrs.get(isa.CsrMip)&^(U(1)<<isa.MipMEIP))
	}
	h.interruptsMetric.Inc()
	h.initiateTrap(true, U(cause), h.pc, 0)
	return true
}

// execMret pops the privilege stack: privilege from MPP, MIE from MPIE,
// then MPIE=1 and MPP=U. pc resumes from mepc.
func (h *Hart[U]) execMret(raw uint32) {
	if h.priv != isa.PrivMachine {
		h.illegalInst(raw)
		return
	}
	status := h.csrs.get(isa.CsrMstatus)
	mpp := status >> isa.MstatusMPPShift & 3
	mpie := status >> isa.MstatusMPIE & 1

	status &^= U(1)<<isa.MstatusMIE | U(3)<<isa.MstatusMPPShift
	status |= mpie << isa.MstatusMIE
	status |= U(1) << isa.MstatusMPIE
	// MPP resets to U.
	h.csrs.set(isa.CsrMstatus, status)

	switch mpp {
	case U(isa.PrivMachine):
		h.priv = isa.PrivMachine
	case U(isa.PrivSupervisor):
		h.priv = isa.PrivSupervisor
	default:
		h.priv = isa.PrivUser
	}
	h.pc = h.csrs.get(isa.CsrMepc) &^ 1
}

// run.go drives the fetch-decode-execute loop. The loop owns all hart
// state on a single goroutine; the only asynchronous inputs are the two
// atomic flags polled at instruction boundaries. Instructions retire
// atomically — there is no suspension point inside one.
package hart

import (
	"fmt"
	"io"

	"github.com/rvsim/rvsim/isa"
	"github.com/rvsim/rvsim/log"
)

// StopReason reports why a run loop returned.
type StopReason int

const (
	// StopAddress: the program counter reached the stop address.
	StopAddress StopReason = iota
	// StopToHost: a store hit the tohost address.
	StopToHost
	// StopTerminated: the environment requested termination.
	StopTerminated
	// StopFatal: the hart cannot make progress (internal error).
	StopFatal
)

// String names the stop reason for logs.
func (r StopReason) String() string {
	switch r {
	case StopAddress:
		return "stop-address"
	case StopToHost:
		return "tohost"
	case StopTerminated:
		return "terminated"
	}
	return "fatal"
}

// Run executes the fetch-decode-execute loop until a run-control event:
// the stop address is reached, a store hits the tohost address, or the
// environment requests termination. If trace is non-nil one record is
// written per retired instruction.
func (h *Hart[U]) Run(trace io.Writer) StopReason {
	h.logger.Info("run starting", log.Addr("pc", h.xlen, uint64(h.pc)))
	reason := h.loop(trace, false, 0)
	h.publishCounters()
	h.logger.Info("run stopped", "reason", reason.String(),
		"retired", h.retired, log.Addr("pc", h.xlen, uint64(h.pc)))
	return reason
}

// RunUntilAddress executes until the instruction at addr has retired —
// the instruction at the address is executed, inclusively.
func (h *Hart[U]) RunUntilAddress(addr U, trace io.Writer) StopReason {
	reason := h.loop(trace, true, addr)
	h.publishCounters()
	h.logger.Info("run stopped", "reason", reason.String(),
		"retired", h.retired, log.Addr("pc", h.xlen, uint64(h.pc)))
	return reason
}

// publishCounters pushes the architectural counters into the metrics
// registry. The loop keeps them in plain fields so the hot path never
// touches an atomic; totals are published when a run returns.
func (h *Hart[U]) publishCounters() {
	h.retiredMetric.SyncTotal(h.retired)
	h.cyclesMetric.SyncTotal(h.cycles)
}

func (h *Hart[U]) loop(trace io.Writer, untilAddr bool, addr U) StopReason {
	for {
		if h.terminate.Load() {
			return StopTerminated
		}
		if h.pollInterrupts() {
			continue
		}
		if !untilAddr && h.stopAddrValid && h.pc == h.stopAddr {
			return StopAddress
		}

		if !h.step(trace) {
			// Trap vector loops on an unfetchable address: the hart
			// cannot make progress.
			return StopFatal
		}

		if h.toHostHit {
			h.toHostHit = false
			return StopToHost
		}
		if untilAddr && h.currPc == addr && !h.trapped {
			return StopAddress
		}
	}
}

// step fetches, dispatches and retires a single instruction. It returns
// false only when the fetch faulted and the resulting trap vector is
// itself unfetchable — the one condition the loop cannot survive.
func (h *Hart[U]) step(trace io.Writer) bool {
	h.trapped = false
	h.regs.ClearLastWritten()
	h.mem.ClearLastWrite()

	h.currPc = h.pc
	low, ok := h.mem.ReadHalf(uint64(h.pc))
	if !ok {
		h.initiateTrap(false, U(isa.InstAccessFault), h.pc, h.pc)
		return h.trapVectorFetchable()
	}

	var d isa.Inst
	var raw uint32
	compressed := low&0x3 != 0x3
	if compressed {
		raw = uint32(low)
		h.instLen = 2
		h.pc += 2
		code32, ok := isa.Expand(low, h.rv64)
		if !ok {
			code32 = isa.IllegalCode32
		}
		d = isa.Decode(code32, h.rv64)
		d.Raw = raw // preserve the fetched code for mtval and traces
	} else {
		high, ok := h.mem.ReadHalf(uint64(h.pc) + 2)
		if !ok {
			h.initiateTrap(false, U(isa.InstAccessFault), h.pc, h.pc)
			return h.trapVectorFetchable()
		}
		raw = uint32(low) | uint32(high)<<16
		h.instLen = 4
		h.pc += 4
		d = isa.Decode(raw, h.rv64)
	}

	h.execute(d)

	h.cycles++
	if h.trapped {
		return true
	}
	h.retired++

	if trace != nil {
		h.traceInst(trace, raw, compressed)
	}

	if h.toHostValid {
		if waddr, wsize := h.mem.LastWrite(); wsize >= 1 && wsize <= 4 && waddr == uint64(h.toHost) {
			h.toHostHit = true
		}
	}
	return true
}

// Step executes exactly one instruction, including any trap it raises.
// Pending interrupts are not polled; test harnesses use this to drive
// the hart deterministically.
func (h *Hart[U]) Step(trace io.Writer) bool {
	return h.step(trace)
}

// trapVectorFetchable checks that the pc installed by a fetch-fault trap
// is itself readable; if not, the loop would fault forever.
func (h *Hart[U]) trapVectorFetchable() bool {
	_, ok := h.mem.ReadHalf(uint64(h.pc))
	if !ok {
		h.logger.Error("trap vector unfetchable", log.Addr("pc", h.xlen, uint64(h.pc)))
	}
	return ok
}

// traceInst writes one spike-compatible record for a retired
// instruction: `#TAG PRIV PC INST DISASM [reg=val | mem[addr]=val]`.
// TAG is the retired count after retirement.
func (h *Hart[U]) traceInst(w io.Writer, raw uint32, compressed bool) {
	hexDigits := int(h.xlen / 4)

	instText := h.DisassembleInst(raw)
	instField := fmt.Sprintf("%08x", raw)
	if compressed {
		instField = fmt.Sprintf("%04x", uint16(raw))
	}

	tail := ""
	if reg := h.regs.LastWritten(); reg >= 0 {
		tail = fmt.Sprintf(" x%d=%0*x", reg, hexDigits, uint64(h.regs.Read(uint32(reg))))
	} else if waddr, wsize := h.mem.LastWrite(); wsize > 0 {
		tail = fmt.Sprintf(" mem[%0*x]=%0*x", hexDigits, waddr, hexDigits, uint64(h.lastWrittenWord))
	}

	fmt.Fprintf(w, "#%d %s %0*x %s %s%s\n",
		h.retired, h.priv, hexDigits, uint64(h.currPc), instField, instText, tail)
}

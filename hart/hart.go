// hart.go holds the Hart type, its construction and reset, and the
// peek/poke surface consumed by front ends and loaders. The execution
// engine itself lives in exec.go, trap.go and run.go.
package hart

import (
	"math/bits"
	"sync/atomic"

	"github.com/rvsim/rvsim/isa"
	"github.com/rvsim/rvsim/log"
	"github.com/rvsim/rvsim/mem"
	"github.com/rvsim/rvsim/metrics"
)

// Config carries constructor options for a hart.
type Config struct {
	// MemorySize is the flat memory size in bytes.
	MemorySize uint64

	// StrictAlign makes misaligned data accesses raise
	// LOAD/STORE_ADDR_MISALIGNED instead of completing silently.
	StrictAlign bool
}

// Hart models one hardware thread with registers of width U (uint32 for
// RV32, uint64 for RV64).
type Hart[U isa.Word] struct {
	id   uint32
	xlen uint
	rv64 bool

	mem  *mem.Memory
	regs IntRegs[U]
	csrs *CsRegs[U]

	pc     U // next instruction
	currPc U // instruction currently executing
	priv   isa.PrivMode

	retired uint64
	cycles  uint64

	stopAddr      U
	stopAddrValid bool
	toHost        U
	toHostValid   bool

	strictAlign bool

	// Set by initiateTrap during an instruction; consulted by the run
	// loop for retire accounting and trace suppression.
	trapped bool
	// Set when a store hits the tohost address; the loop halts after
	// the instruction retires.
	toHostHit bool

	// Trace scratch: value of the last store (spike-compatible trace).
	lastWrittenWord U
	// Length in bytes of the instruction being executed (2 or 4).
	instLen U

	// Asynchronous inputs, set by the environment between instructions.
	extInterrupt atomic.Bool
	terminate    atomic.Bool

	logger *log.Logger

	retiredMetric    *metrics.Counter
	cyclesMetric     *metrics.Counter
	trapsMetric      *metrics.Counter
	interruptsMetric *metrics.Counter
}

// New creates and initializes a hart: registers zeroed, pc zero, CSRs at
// reset values, privilege machine.
func New[U isa.Word](hartID uint32, cfg Config) *Hart[U] {
	h := &Hart[U]{
		id:          hartID,
		mem:         mem.New(cfg.MemorySize),
		strictAlign: cfg.StrictAlign,
		logger:      log.Default().Module("hart").With("hart", hartID),
	}
	h.xlen = uint(bits.Len64(uint64(^U(0))))
	h.rv64 = h.xlen == 64
	h.csrs = newCsRegs[U](hartID, h.rv64, &h.cycles, &h.retired)
	h.priv = isa.PrivMachine
	h.regs.ClearLastWritten()

	reg := metrics.DefaultRegistry
	h.retiredMetric = reg.Counter("hart/instructions_retired")
	h.cyclesMetric = reg.Counter("hart/cycles")
	h.trapsMetric = reg.Counter("hart/traps")
	h.interruptsMetric = reg.Counter("hart/interrupts")
	reg.Gauge("hart/memory_bytes").Set(int64(cfg.MemorySize))
	return h
}

// Reset restores the architectural reset state. Memory is preserved.
func (h *Hart[U]) Reset() {
	h.regs.Reset()
	h.csrs.Reset(h.id)
	h.pc, h.currPc = 0, 0
	h.priv = isa.PrivMachine
	h.retired, h.cycles = 0, 0
	h.trapped, h.toHostHit = false, false
}

// Memory returns the hart's memory for loaders.
func (h *Hart[U]) Memory() *mem.Memory { return h.mem }

// Xlen returns the register width in bits (32 or 64).
func (h *Hart[U]) Xlen() uint { return h.xlen }

// Retired returns the retired-instruction count.
func (h *Hart[U]) Retired() uint64 { return h.retired }

// Cycles returns the cycle count.
func (h *Hart[U]) Cycles() uint64 { return h.cycles }

// PrivilegeMode returns the current privilege mode.
func (h *Hart[U]) PrivilegeMode() isa.PrivMode { return h.priv }

// PeekPc returns the program counter.
func (h *Hart[U]) PeekPc() U { return h.pc }

// PokePc sets the program counter.
func (h *Hart[U]) PokePc(addr U) { h.pc = addr }

// PeekIntReg returns the value of integer register i.
func (h *Hart[U]) PeekIntReg(i uint32) (U, bool) {
	if i >= 32 {
		return 0, false
	}
	return h.regs.Read(i), true
}

// PokeIntReg sets integer register i. Writes to register 0 succeed but
// are discarded.
func (h *Hart[U]) PokeIntReg(i uint32, v U) bool {
	if i >= 32 {
		return false
	}
	h.regs.Write(i, v)
	return true
}

// PeekCsr returns the raw value of a CSR by number.
func (h *Hart[U]) PeekCsr(num uint32) (U, bool) { return h.csrs.Peek(num) }

// PokeCsr sets a CSR by number, bypassing privilege and masks.
func (h *Hart[U]) PokeCsr(num uint32, v U) bool { return h.csrs.Poke(num, v) }

// FindIntReg looks up an integer register by xN or ABI name.
func (h *Hart[U]) FindIntReg(name string) (uint32, bool) { return isa.RegIndex(name) }

// FindCsr looks up a CSR number by name.
func (h *Hart[U]) FindCsr(name string) (uint32, bool) { return h.csrs.Find(name) }

// PeekMemoryByte reads one byte of simulated memory.
func (h *Hart[U]) PeekMemoryByte(addr U) (uint8, bool) { return h.mem.ReadByte(uint64(addr)) }

// PeekMemoryHalf reads a half-word of simulated memory.
func (h *Hart[U]) PeekMemoryHalf(addr U) (uint16, bool) { return h.mem.ReadHalf(uint64(addr)) }

// PeekMemoryWord reads a word of simulated memory.
func (h *Hart[U]) PeekMemoryWord(addr U) (uint32, bool) { return h.mem.ReadWord(uint64(addr)) }

// PeekMemoryDouble reads a double-word of simulated memory.
func (h *Hart[U]) PeekMemoryDouble(addr U) (uint64, bool) { return h.mem.ReadDouble(uint64(addr)) }

// PokeMemoryByte writes one byte of simulated memory.
func (h *Hart[U]) PokeMemoryByte(addr U, v uint8) bool { return h.mem.WriteByte(uint64(addr), v) }

// PokeMemoryHalf writes a half-word of simulated memory.
func (h *Hart[U]) PokeMemoryHalf(addr U, v uint16) bool { return h.mem.WriteHalf(uint64(addr), v) }

// PokeMemoryWord writes a word of simulated memory.
func (h *Hart[U]) PokeMemoryWord(addr U, v uint32) bool { return h.mem.WriteWord(uint64(addr), v) }

// PokeMemoryDouble writes a double-word of simulated memory.
func (h *Hart[U]) PokeMemoryDouble(addr U, v uint64) bool { return h.mem.WriteDouble(uint64(addr), v) }

// SetStopAddress makes the run loop stop when pc reaches addr.
func (h *Hart[U]) SetStopAddress(addr U) { h.stopAddr, h.stopAddrValid = addr, true }

// ClearStopAddress removes the stop address.
func (h *Hart[U]) ClearStopAddress() { h.stopAddrValid = false }

// SetToHostAddress makes a 1/2/4-byte store to addr halt the run loop
// after the storing instruction retires.
func (h *Hart[U]) SetToHostAddress(addr U) { h.toHost, h.toHostValid = addr, true }

// ClearToHostAddress removes the tohost address.
func (h *Hart[U]) ClearToHostAddress() { h.toHostValid = false }

// RequestInterrupt requests delivery of a machine external interrupt.
// Safe to call from another goroutine; the hart polls between
// instructions.
func (h *Hart[U]) RequestInterrupt() { h.extInterrupt.Store(true) }

// RequestTermination makes the run loop return at the next instruction
// boundary. Safe to call from another goroutine.
func (h *Hart[U]) RequestTermination() { h.terminate.Store(true) }

// ExpandInst maps a 16-bit compressed code to its 32-bit equivalent.
func (h *Hart[U]) ExpandInst(code16 uint16) (uint32, bool) {
	return isa.Expand(code16, h.rv64)
}

// DisassembleInst renders a 32-bit or compressed instruction word.
func (h *Hart[U]) DisassembleInst(inst uint32) string {
	if inst&0x3 != 0x3 {
		return isa.Disassemble16(uint16(inst), h.rv64)
	}
	return isa.Disassemble(inst, h.rv64)
}

// toSigned reinterprets a register value as the signed counterpart of U,
// widened to 64 bits.
func (h *Hart[U]) toSigned(v U) int64 {
	if h.rv64 {
		return int64(v)
	}
	return int64(int32(uint32(v)))
}

// signExtendImm widens a decoded 32-bit immediate to U.
func signExtendImm[U isa.Word](imm int32) U {
	return U(int64(imm))
}

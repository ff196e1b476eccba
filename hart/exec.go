// exec.go implements the semantics of every decoded instruction. The
// program counter has already been advanced past the instruction when a
// handler runs; currPc holds the instruction's own address, and handlers
// that change control flow overwrite pc. Handlers never touch simulated
// memory through pc or currPc.
package hart

import (
	"github.com/holiman/uint256"

	"github.com/rvsim/rvsim/isa"
)

// execute dispatches one decoded instruction. The switch is exhaustive
// over the decoder's Op tags.
func (h *Hart[U]) execute(d isa.Inst) {
	switch d.Op {
	case isa.OpIllegal:
		h.illegalInst(d.Raw)

	case isa.OpLui:
		h.regs.Write(d.Rd, signExtendImm[U](d.Imm))
	case isa.OpAuipc:
		h.regs.Write(d.Rd, h.currPc+signExtendImm[U](d.Imm))

	case isa.OpJal:
		h.execJal(d)
	case isa.OpJalr:
		h.execJalr(d)

	case isa.OpBeq, isa.OpBne, isa.OpBlt, isa.OpBge, isa.OpBltu, isa.OpBgeu:
		h.execBranch(d)

	case isa.OpLb, isa.OpLh, isa.OpLw, isa.OpLbu, isa.OpLhu, isa.OpLwu, isa.OpLd:
		h.execLoad(d)
	case isa.OpSb, isa.OpSh, isa.OpSw, isa.OpSd:
		h.execStore(d)

	case isa.OpAddi:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)+signExtendImm[U](d.Imm))
	case isa.OpSlti:
		h.regs.Write(d.Rd, boolToReg[U](h.toSigned(h.regs.Read(d.Rs1)) < int64(d.Imm)))
	case isa.OpSltiu:
		h.regs.Write(d.Rd, boolToReg[U](h.regs.Read(d.Rs1) < signExtendImm[U](d.Imm)))
	case isa.OpXori:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)^signExtendImm[U](d.Imm))
	case isa.OpOri:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)|signExtendImm[U](d.Imm))
	case isa.OpAndi:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)&signExtendImm[U](d.Imm))

	case isa.OpSlli:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)<<uint(d.Imm))
	case isa.OpSrli:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)>>uint(d.Imm))
	case isa.OpSrai:
		h.regs.Write(d.Rd, U(h.toSigned(h.regs.Read(d.Rs1))>>uint(d.Imm)))

	case isa.OpAdd:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)+h.regs.Read(d.Rs2))
	case isa.OpSub:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)-h.regs.Read(d.Rs2))
	case isa.OpSll:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)<<h.shamt(d.Rs2))
	case isa.OpSlt:
		h.regs.Write(d.Rd, boolToReg[U](h.toSigned(h.regs.Read(d.Rs1)) < h.toSigned(h.regs.Read(d.Rs2))))
	case isa.OpSltu:
		h.regs.Write(d.Rd, boolToReg[U](h.regs.Read(d.Rs1) < h.regs.Read(d.Rs2)))
	case isa.OpXor:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)^h.regs.Read(d.Rs2))
	case isa.OpSrl:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)>>h.shamt(d.Rs2))
	case isa.OpSra:
		h.regs.Write(d.Rd, U(h.toSigned(h.regs.Read(d.Rs1))>>h.shamt(d.Rs2)))
	case isa.OpOr:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)|h.regs.Read(d.Rs2))
	case isa.OpAnd:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)&h.regs.Read(d.Rs2))

	case isa.OpMul:
		h.regs.Write(d.Rd, h.regs.Read(d.Rs1)*h.regs.Read(d.Rs2))
	case isa.OpMulh, isa.OpMulhsu, isa.OpMulhu:
		h.execMulHigh(d)
	case isa.OpDiv, isa.OpDivu, isa.OpRem, isa.OpRemu:
		h.execDivRem(d)

	case isa.OpAddiw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))+uint32(d.Imm)))
	case isa.OpSlliw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))<<uint(d.Imm)))
	case isa.OpSrliw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))>>uint(d.Imm)))
	case isa.OpSraiw:
		h.regs.Write(d.Rd, sext32[U](uint32(int32(uint32(h.regs.Read(d.Rs1)))>>uint(d.Imm))))
	case isa.OpAddw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))+uint32(h.regs.Read(d.Rs2))))
	case isa.OpSubw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))-uint32(h.regs.Read(d.Rs2))))
	case isa.OpSllw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))<<(h.regs.Read(d.Rs2)&31)))
	case isa.OpSrlw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))>>(h.regs.Read(d.Rs2)&31)))
	case isa.OpSraw:
		h.regs.Write(d.Rd, sext32[U](uint32(int32(uint32(h.regs.Read(d.Rs1)))>>(h.regs.Read(d.Rs2)&31))))
	case isa.OpMulw:
		h.regs.Write(d.Rd, sext32[U](uint32(h.regs.Read(d.Rs1))*uint32(h.regs.Read(d.Rs2))))
	case isa.OpDivw, isa.OpDivuw, isa.OpRemw, isa.OpRemuw:
		h.execDivRemW(d)

	case isa.OpFence, isa.OpFencei:
		// Single hart, no caches modeled.
	case isa.OpWfi:
		// Idle hint; interrupts are polled at the loop top regardless.

	case isa.OpEcall:
		var cause isa.ExceptionCause
		switch h.priv {
		case isa.PrivMachine:
			cause = isa.MEnvCall
		case isa.PrivSupervisor:
			cause = isa.SEnvCall
		default:
			cause = isa.UEnvCall
		}
		h.initiateException(cause, 0)
	case isa.OpEbreak:
		h.initiateException(isa.Breakpoint, 0)
	case isa.OpMret:
		h.execMret(d.Raw)
	case isa.OpSret, isa.OpUret:
		// Supervisor and user trap-return are not supported.
		h.illegalInst(d.Raw)

	case isa.OpCsrrw, isa.OpCsrrs, isa.OpCsrrc,
		isa.OpCsrrwi, isa.OpCsrrsi, isa.OpCsrrci:
		h.execCsr(d)
	}
}

func boolToReg[U isa.Word](b bool) U {
	if b {
		return 1
	}
	return 0
}

// sext32 sign-extends a 32-bit value to U. On RV32 this is the identity.
func sext32[U isa.Word](v uint32) U {
	return U(int64(int32(v)))
}

// shamt masks a register shift amount to the low 5 (RV32) or 6 (RV64)
// bits.
func (h *Hart[U]) shamt(rs2 uint32) uint {
	return uint(h.regs.Read(rs2)) & (h.xlen - 1)
}

func (h *Hart[U]) execJal(d isa.Inst) {
	target := h.currPc + signExtendImm[U](d.Imm)
	if target&1 != 0 {
		h.initiateException(isa.InstAddrMisaligned, target)
		return
	}
	h.regs.Write(d.Rd, h.currPc+h.instLen)
	h.pc = target
}

func (h *Hart[U]) execJalr(d isa.Inst) {
	target := (h.regs.Read(d.Rs1) + signExtendImm[U](d.Imm)) &^ 1
	h.regs.Write(d.Rd, h.currPc+h.instLen)
	h.pc = target
}

func (h *Hart[U]) execBranch(d isa.Inst) {
	a, b := h.regs.Read(d.Rs1), h.regs.Read(d.Rs2)
	var taken bool
	switch d.Op {
	case isa.OpBeq:
		taken = a == b
	case isa.OpBne:
		taken = a != b
	case isa.OpBlt:
		taken = h.toSigned(a) < h.toSigned(b)
	case isa.OpBge:
		taken = h.toSigned(a) >= h.toSigned(b)
	case isa.OpBltu:
		taken = a < b
	case isa.OpBgeu:
		taken = a >= b
	}
	if !taken {
		return
	}
	target := h.currPc + signExtendImm[U](d.Imm)
	if target&1 != 0 {
		h.initiateException(isa.InstAddrMisaligned, target)
		return
	}
	h.pc = target
}

func (h *Hart[U]) execLoad(d isa.Inst) {
	addr := h.regs.Read(d.Rs1) + signExtendImm[U](d.Imm)
	var size U
	switch d.Op {
	case isa.OpLb, isa.OpLbu:
		size = 1
	case isa.OpLh, isa.OpLhu:
		size = 2
	case isa.OpLw, isa.OpLwu:
		size = 4
	default:
		size = 8
	}
	if h.strictAlign && addr&(size-1) != 0 {
		h.initiateException(isa.LoadAddrMisaligned, addr)
		return
	}

	var val U
	ok := false
	switch d.Op {
	case isa.OpLb:
		if b, k := h.mem.ReadByte(uint64(addr)); k {
			val, ok = U(int64(int8(b))), true
		}
	case isa.OpLbu:
		if b, k := h.mem.ReadByte(uint64(addr)); k {
			val, ok = U(b), true
		}
	case isa.OpLh:
		if v, k := h.mem.ReadHalf(uint64(addr)); k {
			val, ok = U(int64(int16(v))), true
		}
	case isa.OpLhu:
		if v, k := h.mem.ReadHalf(uint64(addr)); k {
			val, ok = U(v), true
		}
	case isa.OpLw:
		if v, k := h.mem.ReadWord(uint64(addr)); k {
			val, ok = sext32[U](v), true
		}
	case isa.OpLwu:
		if v, k := h.mem.ReadWord(uint64(addr)); k {
			val, ok = U(v), true
		}
	case isa.OpLd:
		if v, k := h.mem.ReadDouble(uint64(addr)); k {
			val, ok = U(v), true
		}
	}
	if !ok {
		h.initiateException(isa.LoadAccessFault, addr)
		return
	}
	h.regs.Write(d.Rd, val)
}

func (h *Hart[U]) execStore(d isa.Inst) {
	addr := h.regs.Read(d.Rs1) + signExtendImm[U](d.Imm)
	val := h.regs.Read(d.Rs2)

	var size U
	switch d.Op {
	case isa.OpSb:
		size = 1
	case isa.OpSh:
		size = 2
	case isa.OpSw:
		size = 4
	default:
		size = 8
	}
	if h.strictAlign && addr&(size-1) != 0 {
		h.initiateException(isa.StoreAddrMisaligned, addr)
		return
	}

	ok := false
	switch d.Op {
	case isa.OpSb:
		ok = h.mem.WriteByte(uint64(addr), uint8(val))
	case isa.OpSh:
		ok = h.mem.WriteHalf(uint64(addr), uint16(val))
	case isa.OpSw:
		ok = h.mem.WriteWord(uint64(addr), uint32(val))
	case isa.OpSd:
		ok = h.mem.WriteDouble(uint64(addr), uint64(val))
	}
	if !ok {
		h.initiateException(isa.StoreAccessFault, addr)
		return
	}
	h.lastWrittenWord = val
}

// execMulHigh computes the high W bits of the W x W full product. The
// 64-bit configuration needs a 128-bit intermediate; uint256 supplies
// it, with the sign corrections applied on top of the unsigned product.
func (h *Hart[U]) execMulHigh(d isa.Inst) {
	a, b := h.regs.Read(d.Rs1), h.regs.Read(d.Rs2)
	if !h.rv64 {
		var p int64
		switch d.Op {
		case isa.OpMulh:
			p = int64(int32(uint32(a))) * int64(int32(uint32(b)))
		case isa.OpMulhsu:
			p = int64(int32(uint32(a))) * int64(uint32(b))
		case isa.OpMulhu:
			p = int64(uint64(uint32(a)) * uint64(uint32(b)))
		}
		h.regs.Write(d.Rd, U(uint64(p)>>32))
		return
	}

	hi := mulhu64(uint64(a), uint64(b))
	switch d.Op {
	case isa.OpMulh:
		if h.toSigned(a) < 0 {
			hi -= uint64(b)
		}
		if h.toSigned(b) < 0 {
			hi -= uint64(a)
		}
	case isa.OpMulhsu:
		if h.toSigned(a) < 0 {
			hi -= uint64(b)
		}
	}
	h.regs.Write(d.Rd, U(hi))
}

// mulhu64 returns the high 64 bits of the unsigned 64x64 product.
func mulhu64(a, b uint64) uint64 {
	var p uint256.Int
	p.Mul(uint256.NewInt(a), uint256.NewInt(b))
	return p[1]
}

func (h *Hart[U]) execDivRem(d isa.Inst) {
	a, b := h.regs.Read(d.Rs1), h.regs.Read(d.Rs2)
	minSigned := U(1) << (h.xlen - 1)

	var res U
	switch d.Op {
	case isa.OpDiv:
		switch {
		case b == 0:
			res = ^U(0)
		case a == minSigned && h.toSigned(b) == -1:
			res = a // overflow wraps to the dividend
		default:
			res = U(h.toSigned(a) / h.toSigned(b))
		}
	case isa.OpDivu:
		if b == 0 {
			res = ^U(0)
		} else {
			res = a / b
		}
	case isa.OpRem:
		switch {
		case b == 0:
			res = a
		case a == minSigned && h.toSigned(b) == -1:
			res = 0
		default:
			res = U(h.toSigned(a) % h.toSigned(b))
		}
	case isa.OpRemu:
		if b == 0 {
			res = a
		} else {
			res = a % b
		}
	}
	h.regs.Write(d.Rd, res)
}

// execDivRemW implements the RV64 32-bit divide forms: operands are the
// low 32 bits, the result is sign-extended.
func (h *Hart[U]) execDivRemW(d isa.Inst) {
	a, b := uint32(h.regs.Read(d.Rs1)), uint32(h.regs.Read(d.Rs2))

	var res uint32
	switch d.Op {
	case isa.OpDivw:
		switch {
		case b == 0:
			res = ^uint32(0)
		case int32(a) == -1<<31 && int32(b) == -1:
			res = a
		default:
			res = uint32(int32(a) / int32(b))
		}
	case isa.OpDivuw:
		if b == 0 {
			res = ^uint32(0)
		} else {
			res = a / b
		}
	case isa.OpRemw:
		switch {
		case b == 0:
			res = a
		case int32(a) == -1<<31 && int32(b) == -1:
			res = 0
		default:
			res = uint32(int32(a) % int32(b))
		}
	case isa.OpRemuw:
		if b == 0 {
			res = a
		} else {
			res = a % b
		}
	}
	h.regs.Write(d.Rd, sext32[U](res))
}

// execCsr implements the read-modify-write CSR operations. A failed
// read or write raises illegal-instruction without touching rd. For
// CSRRS/CSRRC with rs1=x0 (and the immediate forms with imm=0) the
// write step is suppressed but the read still happens, so a read-only
// CSR can be read with csrrs rd, csr, x0.
func (h *Hart[U]) execCsr(d isa.Inst) {
	var src U
	switch d.Op {
	case isa.OpCsrrw, isa.OpCsrrs, isa.OpCsrrc:
		src = h.regs.Read(d.Rs1)
	default:
		src = U(uint32(d.Imm)) // 5-bit zero-extended immediate
	}

	old, ok := h.csrs.Read(d.Csr, h.priv)
	if !ok {
		h.illegalInst(d.Raw)
		return
	}

	write := true
	var next U
	switch d.Op {
	case isa.OpCsrrw, isa.OpCsrrwi:
		next = src
	case isa.OpCsrrs, isa.OpCsrrsi:
		next = old | src
		write = d.Op == isa.OpCsrrs && d.Rs1 != 0 || d.Op == isa.OpCsrrsi && d.Imm != 0
	case isa.OpCsrrc, isa.OpCsrrci:
		next = old &^ src
		write = d.Op == isa.OpCsrrc && d.Rs1 != 0 || d.Op == isa.OpCsrrci && d.Imm != 0
	}

	if write && !h.csrs.Write(d.Csr, next, h.priv) {
		h.illegalInst(d.Raw)
		return
	}
	h.regs.Write(d.Rd, old)
}

// csregs.go implements the control-and-status register file as a sparse
// map of CSR number to descriptor. Each descriptor carries the value,
// the bits writable by CSR instructions, the bits visible to reads, the
// minimum privilege, and a read-only flag. Counter CSRs read through to
// the hart's live cycle and retired-instruction counters.
package hart

import "github.com/rvsim/rvsim/isa"

// Csr describes one control-and-status register.
type Csr[U isa.Word] struct {
	Number    uint32
	Name      string
	WriteMask U
	ReadMask  U
	MinPriv   isa.PrivMode
	ReadOnly  bool

	value U
}

// CsRegs is the CSR file.
type CsRegs[U isa.Word] struct {
	regs   map[uint32]*Csr[U]
	byName map[string]uint32

	// Live counters owned by the hart; counter CSRs read through.
	cycle   *uint64
	instret *uint64

	rv64 bool
}

// newCsRegs builds the reset-state CSR file for a hart with the given id
// and width. cycle and instret point at the hart's live counters.
func newCsRegs[U isa.Word](hartID uint32, rv64 bool, cycle, instret *uint64) *CsRegs[U] {
	c := &CsRegs[U]{
		regs:    make(map[uint32]*Csr[U]),
		byName:  make(map[string]uint32),
		cycle:   cycle,
		instret: instret,
		rv64:    rv64,
	}

	all := ^U(0)
	machine := isa.PrivMachine
	user := isa.PrivUser

	// mstatus implements MIE, MPIE and MPP only.
	statusMask := U(1)<<isa.MstatusMIE | U(1)<<isa.MstatusMPIE | U(3)<<isa.MstatusMPPShift
	// mip/mie implement the three machine interrupt sources.
	ipMask := U(1)<<isa.MipMSIP | U(1)<<isa.MipMTIP | U(1)<<isa.MipMEIP

	c.define(&Csr[U]{Number: isa.CsrMstatus, Name: "mstatus", WriteMask: statusMask, ReadMask: statusMask, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMisa, Name: "misa", ReadMask: all, MinPriv: machine, ReadOnly: true, value: misaValue[U](rv64)})
	c.define(&Csr[U]{Number: isa.CsrMie, Name: "mie", WriteMask: ipMask, ReadMask: ipMask, MinPriv: machine})
	// mtvec bit 1 is reserved: modes 2 and 3 are not representable.
	c.define(&Csr[U]{Number: isa.CsrMtvec, Name: "mtvec", WriteMask: all &^ 2, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMscratch, Name: "mscratch", WriteMask: all, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMepc, Name: "mepc", WriteMask: all &^ 1, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMcause, Name: "mcause", WriteMask: all, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMtval, Name: "mtval", WriteMask: all, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMip, Name: "mip", WriteMask: ipMask, ReadMask: ipMask, MinPriv: machine})

	c.define(&Csr[U]{Number: isa.CsrMcycle, Name: "mcycle", WriteMask: all, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrMinstret, Name: "minstret", WriteMask: all, ReadMask: all, MinPriv: machine})
	c.define(&Csr[U]{Number: isa.CsrCycle, Name: "cycle", ReadMask: all, MinPriv: user, ReadOnly: true})
	c.define(&Csr[U]{Number: isa.CsrTime, Name: "time", ReadMask: all, MinPriv: user, ReadOnly: true})
	c.define(&Csr[U]{Number: isa.CsrInstret, Name: "instret", ReadMask: all, MinPriv: user, ReadOnly: true})
	if !rv64 {
		c.define(&Csr[U]{Number: isa.CsrMcycleh, Name: "mcycleh", WriteMask: all, ReadMask: all, MinPriv: machine})
		c.define(&Csr[U]{Number: isa.CsrMinstreth, Name: "minstreth", WriteMask: all, ReadMask: all, MinPriv: machine})
		c.define(&Csr[U]{Number: isa.CsrCycleh, Name: "cycleh", ReadMask: all, MinPriv: user, ReadOnly: true})
		c.define(&Csr[U]{Number: isa.CsrTimeh, Name: "timeh", ReadMask: all, MinPriv: user, ReadOnly: true})
		c.define(&Csr[U]{Number: isa.CsrInstreth, Name: "instreth", ReadMask: all, MinPriv: user, ReadOnly: true})
	}

	c.define(&Csr[U]{Number: isa.CsrMvendorid, Name: "mvendorid", ReadMask: all, MinPriv: machine, ReadOnly: true})
	c.define(&Csr[U]{Number: isa.CsrMarchid, Name: "marchid", ReadMask: all, MinPriv: machine, ReadOnly: true})
	c.define(&Csr[U]{Number: isa.CsrMimpid, Name: "mimpid", ReadMask: all, MinPriv: machine, ReadOnly: true})
	c.define(&Csr[U]{Number: isa.CsrMhartid, Name: "mhartid", ReadMask: all, MinPriv: machine, ReadOnly: true, value: U(hartID)})

	return c
}

// misaValue encodes MXL and the I, M and C extension bits.
func misaValue[U isa.Word](rv64 bool) U {
	ext := U(1)<<8 | U(1)<<12 | U(1)<<2 // I, M, C
	if rv64 {
		return U(2)<<62 | ext
	}
	return U(1)<<30 | ext
}

func (c *CsRegs[U]) define(r *Csr[U]) {
	c.regs[r.Number] = r
	c.byName[r.Name] = r.Number
}

// counterValue resolves the live value behind a counter CSR number. The
// second result is false for non-counter CSRs.
func (c *CsRegs[U]) counterValue(num uint32) (U, bool) {
	switch num {
	case isa.CsrMcycle, isa.CsrCycle, isa.CsrTime:
		return U(*c.cycle), true
	case isa.CsrMinstret, isa.CsrInstret:
		return U(*c.instret), true
	case isa.CsrMcycleh, isa.CsrCycleh, isa.CsrTimeh:
		return U(*c.cycle >> 32), true
	case isa.CsrMinstreth, isa.CsrInstreth:
		return U(*c.instret >> 32), true
	}
	return 0, false
}

// Read returns the CSR value visible at the given privilege. The second
// result is false for undefined numbers or insufficient privilege; the
// executing instruction turns that into illegal-instruction.
func (c *CsRegs[U]) Read(num uint32, priv isa.PrivMode) (U, bool) {
	r, ok := c.regs[num]
	if !ok || priv < r.MinPriv {
		return 0, false
	}
	if v, isCounter := c.counterValue(num); isCounter {
		return v & r.ReadMask, true
	}
	return r.value & r.ReadMask, true
}

// Write stores v through the CSR's write mask. It fails for undefined
// numbers, read-only CSRs, and insufficient privilege.
func (c *CsRegs[U]) Write(num uint32, v U, priv isa.PrivMode) bool {
	r, ok := c.regs[num]
	if !ok || r.ReadOnly || priv < r.MinPriv {
		return false
	}
	r.value = (r.value &^ r.WriteMask) | (v & r.WriteMask)
	c.writeThrough(num, r.value)
	return true
}

// writeThrough propagates writable-counter CSR writes into the live
// counters.
func (c *CsRegs[U]) writeThrough(num uint32, v U) {
	switch num {
	case isa.CsrMcycle:
		if c.rv64 {
			*c.cycle = uint64(v)
		} else {
			*c.cycle = *c.cycle&^0xFFFFFFFF | uint64(uint32(v))
		}
	case isa.CsrMinstret:
		if c.rv64 {
			*c.instret = uint64(v)
		} else {
			*c.instret = *c.instret&^0xFFFFFFFF | uint64(uint32(v))
		}
	case isa.CsrMcycleh:
		*c.cycle = *c.cycle&0xFFFFFFFF | uint64(uint32(v))<<32
	case isa.CsrMinstreth:
		*c.instret = *c.instret&0xFFFFFFFF | uint64(uint32(v))<<32
	}
}

// Peek returns the raw CSR value, ignoring privilege. For the host API
// and tests.
func (c *CsRegs[U]) Peek(num uint32) (U, bool) {
	r, ok := c.regs[num]
	if !ok {
		return 0, false
	}
	if v, isCounter := c.counterValue(num); isCounter {
		return v, true
	}
	return r.value, true
}

// Poke sets the raw CSR value, ignoring privilege, masks and the
// read-only flag. For the host API and tests; trap initiation uses set.
func (c *CsRegs[U]) Poke(num uint32, v U) bool {
	r, ok := c.regs[num]
	if !ok {
		return false
	}
	r.value = v
	c.writeThrough(num, v)
	return true
}

// set is the internal unchecked store used by trap initiation and MRET.
func (c *CsRegs[U]) set(num uint32, v U) {
	if r, ok := c.regs[num]; ok {
		r.value = v
	}
}

// get is the internal unchecked load used by trap initiation and MRET.
func (c *CsRegs[U]) get(num uint32) U {
	if r, ok := c.regs[num]; ok {
		return r.value
	}
	return 0
}

// Find looks up a CSR number by canonical name.
func (c *CsRegs[U]) Find(name string) (uint32, bool) {
	num, ok := c.byName[name]
	return num, ok
}

// Name returns the canonical name for a defined CSR number.
func (c *CsRegs[U]) Name(num uint32) (string, bool) {
	r, ok := c.regs[num]
	if !ok {
		return "", false
	}
	return r.Name, true
}

// Reset restores every CSR to its reset value.
func (c *CsRegs[U]) Reset(hartID uint32) {
	for _, r := range c.regs {
		r.value = 0
	}
	c.set(isa.CsrMisa, misaValue[U](c.rv64))
	c.set(isa.CsrMhartid, U(hartID))
}

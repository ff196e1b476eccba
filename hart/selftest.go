// selftest.go implements the built-in sanity check run by the front end
// before a simulation. It exercises the expander against the decoder,
// the division edge cases, shift masking and the CSR permission rules.
// Processor and memory state are not preserved; the hart is reset when
// the test completes.
package hart

import (
	"github.com/rvsim/rvsim/isa"
	"github.com/rvsim/rvsim/log"
)

// SelfTest runs the built-in checks and returns true when all pass.
func (h *Hart[U]) SelfTest() bool {
	ok := true
	defer h.Reset()

	// Compressed expansions must decode to defined instructions, and
	// reserved encodings must not expand.
	expansions := []struct {
		code16 uint16
		op     isa.Op
	}{
		{0x0405, isa.OpAddi}, // c.addi s0, 1
		{0x4501, isa.OpAddi}, // c.li a0, 0
		{0x8082, isa.OpJalr}, // c.jr ra
		{0x9002, isa.OpEbreak},
		{0x0028, isa.OpAddi}, // c.addi4spn a0, sp, 8
	}
	for _, e := range expansions {
		code32, expanded := isa.Expand(e.code16, h.rv64)
		if !expanded || isa.Decode(code32, h.rv64).Op != e.op {
			h.logger.Error("self test: expansion mismatch",
				log.InstWord("code16", uint32(e.code16)),
				log.InstWord("code32", code32))
			ok = false
		}
	}
	for _, reserved := range []uint16{0x0000, 0x8002 /* c.jr x0 */} {
		if _, expanded := isa.Expand(reserved, h.rv64); expanded {
			h.logger.Error("self test: reserved encoding expanded",
				log.InstWord("code16", uint32(reserved)))
			ok = false
		}
	}

	// Division edge cases and shift masking via direct execution.
	h.Reset()
	minSigned := U(1) << (h.xlen - 1)
	h.regs.Write(1, minSigned)
	h.regs.Write(2, ^U(0))                                                     // -1
	h.execute(isa.Decode(isa.EncodeR(isa.OpcodeOp, 3, 4, 1, 2, 0x01), h.rv64)) // div x3, x1, x2
	h.execute(isa.Decode(isa.EncodeR(isa.OpcodeOp, 4, 6, 1, 2, 0x01), h.rv64)) // rem x4, x1, x2
	if h.regs.Read(3) != minSigned || h.regs.Read(4) != 0 {
		h.logger.Error("self test: signed division overflow")
		ok = false
	}
	h.regs.Write(5, 0)
	h.execute(isa.Decode(isa.EncodeR(isa.OpcodeOp, 6, 4, 1, 5, 0x01), h.rv64)) // div x6, x1, x5
	if h.regs.Read(6) != ^U(0) {
		h.logger.Error("self test: division by zero")
		ok = false
	}
	h.regs.Write(7, 1)
	h.regs.Write(8, U(h.xlen))                                                 // shift amount == width, must mask to 0
	h.execute(isa.Decode(isa.EncodeR(isa.OpcodeOp, 9, 1, 7, 8, 0x00), h.rv64)) // sll x9, x7, x8
	if h.regs.Read(9) != 1 {
		h.logger.Error("self test: shift masking")
		ok = false
	}

	// CSR permission rules: writing a read-only CSR must trap.
	h.Reset()
	h.execute(isa.Decode(isa.EncodeI(isa.OpcodeSystem, 1, 1, 2, int32(isa.CsrMhartid)), h.rv64)) // csrrw x1, mhartid, x2
	if !h.trapped {
		h.logger.Error("self test: read-only CSR write did not trap")
		ok = false
	}
	h.trapped = false

	if ok {
		h.logger.Info("self test passed")
	}
	return ok
}

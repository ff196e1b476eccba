// disasm.go renders decoded instructions as assembly text. The structure
// mirrors the decoder: one case per Op, fields printed with ABI register
// names. Compressed instructions are disassembled through their 32-bit
// expansion.
package isa

import "fmt"

var opNames = map[Op]string{
	OpLui: "lui", OpAuipc: "auipc", OpJal: "jal", OpJalr: "jalr",
	OpBeq: "beq", OpBne: "bne", OpBlt: "blt", OpBge: "bge",
	OpBltu: "bltu", OpBgeu: "bgeu",
	OpLb: "lb", OpLh: "lh", OpLw: "lw", OpLbu: "lbu", OpLhu: "lhu",
	OpSb: "sb", OpSh: "sh", OpSw: "sw",
	OpAddi: "addi", OpSlti: "slti", OpSltiu: "sltiu", OpXori: "xori",
	OpOri: "ori", OpAndi: "andi",
	OpSlli: "slli", OpSrli: "srli", OpSrai: "srai",
	OpAdd: "add", OpSub: "sub", OpSll: "sll", OpSlt: "slt", OpSltu: "sltu",
	OpXor: "xor", OpSrl: "srl", OpSra: "sra", OpOr: "or", OpAnd: "and",
	OpFence: "fence", OpFencei: "fence.i",
	OpEcall: "ecall", OpEbreak: "ebreak",
	OpMret: "mret", OpSret: "sret", OpUret: "uret", OpWfi: "wfi",
	OpCsrrw: "csrrw", OpCsrrs: "csrrs", OpCsrrc: "csrrc",
	OpCsrrwi: "csrrwi", OpCsrrsi: "csrrsi", OpCsrrci: "csrrci",
	OpMul: "mul", OpMulh: "mulh", OpMulhsu: "mulhsu", OpMulhu: "mulhu",
	OpDiv: "div", OpDivu: "divu", OpRem: "rem", OpRemu: "remu",
	OpLwu: "lwu", OpLd: "ld", OpSd: "sd",
	OpAddiw: "addiw", OpSlliw: "slliw", OpSrliw: "srliw", OpSraiw: "sraiw",
	OpAddw: "addw", OpSubw: "subw", OpSllw: "sllw", OpSrlw: "srlw", OpSraw: "sraw",
	OpMulw: "mulw", OpDivw: "divw", OpDivuw: "divuw", OpRemw: "remw", OpRemuw: "remuw",
}

// csrNames maps CSR numbers to canonical names for disassembly and the
// CsrNumber lookup.
var csrNames = map[uint32]string{
	CsrMstatus: "mstatus", CsrMisa: "misa", CsrMie: "mie",
	CsrMtvec: "mtvec", CsrMscratch: "mscratch", CsrMepc: "mepc",
	CsrMcause: "mcause", CsrMtval: "mtval", CsrMip: "mip",
	CsrMcycle: "mcycle", CsrMinstret: "minstret",
	CsrMcycleh: "mcycleh", CsrMinstreth: "minstreth",
	CsrCycle: "cycle", CsrTime: "time", CsrInstret: "instret",
	CsrCycleh: "cycleh", CsrTimeh: "timeh", CsrInstreth: "instreth",
	CsrMvendorid: "mvendorid", CsrMarchid: "marchid", CsrMimpid: "mimpid",
	CsrMhartid: "mhartid",
}

// CsrName returns the canonical name of a CSR number, or its hex form if
// the number is not a defined CSR.
func CsrName(num uint32) string {
	if n, ok := csrNames[num]; ok {
		return n
	}
	return fmt.Sprintf("0x%03x", num)
}

// CsrNumber looks up a CSR by canonical name.
func CsrNumber(name string) (uint32, bool) {
	for num, n := range csrNames {
		if n == name {
			return num, true
		}
	}
	return 0, false
}

// DisassembleInst renders a decoded instruction.
func DisassembleInst(d Inst) string {
	name, ok := opNames[d.Op]
	if !ok {
		return fmt.Sprintf("illegal (0x%08x)", d.Raw)
	}
	switch d.Op {
	case OpLui, OpAuipc:
		return fmt.Sprintf("%s %s, 0x%x", name, RegName(d.Rd), uint32(d.Imm)>>12)
	case OpJal:
		return fmt.Sprintf("%s %s, . %+d", name, RegName(d.Rd), d.Imm)
	case OpJalr:
		return fmt.Sprintf("%s %s, %d(%s)", name, RegName(d.Rd), d.Imm, RegName(d.Rs1))
	case OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu:
		return fmt.Sprintf("%s %s, %s, . %+d", name, RegName(d.Rs1), RegName(d.Rs2), d.Imm)
	case OpLb, OpLh, OpLw, OpLbu, OpLhu, OpLwu, OpLd:
		return fmt.Sprintf("%s %s, %d(%s)", name, RegName(d.Rd), d.Imm, RegName(d.Rs1))
	case OpSb, OpSh, OpSw, OpSd:
		return fmt.Sprintf("%s %s, %d(%s)", name, RegName(d.Rs2), d.Imm, RegName(d.Rs1))
	case OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi,
		OpSlli, OpSrli, OpSrai, OpAddiw, OpSlliw, OpSrliw, OpSraiw:
		return fmt.Sprintf("%s %s, %s, %d", name, RegName(d.Rd), RegName(d.Rs1), d.Imm)
	case OpAdd, OpSub, OpSll, OpSlt, OpSltu, OpXor, OpSrl, OpSra, OpOr, OpAnd,
		OpMul, OpMulh, OpMulhsu, OpMulhu, OpDiv, OpDivu, OpRem, OpRemu,
		OpAddw, OpSubw, OpSllw, OpSrlw, OpSraw,
		OpMulw, OpDivw, OpDivuw, OpRemw, OpRemuw:
		return fmt.Sprintf("%s %s, %s, %s", name, RegName(d.Rd), RegName(d.Rs1), RegName(d.Rs2))
	case OpCsrrw, OpCsrrs, OpCsrrc:
		return fmt.Sprintf("%s %s, %s, %s", name, RegName(d.Rd), CsrName(d.Csr), RegName(d.Rs1))
	case OpCsrrwi, OpCsrrsi, OpCsrrci:
		return fmt.Sprintf("%s %s, %s, %d", name, RegName(d.Rd), CsrName(d.Csr), d.Imm)
	}
	// Operand-free forms: fence, fence.i, ecall, ebreak, mret, sret,
	// uret, wfi.
	return name
}

// Disassemble renders a 32-bit instruction word. rv64 selects the decode
// tables.
func Disassemble(inst uint32, rv64 bool) string {
	return DisassembleInst(Decode(inst, rv64))
}

// Disassemble16 renders a compressed instruction through its expansion.
func Disassemble16(c uint16, rv64 bool) string {
	code32, ok := Expand(c, rv64)
	if !ok {
		return fmt.Sprintf("illegal (0x%04x)", c)
	}
	return Disassemble(code32, rv64)
}

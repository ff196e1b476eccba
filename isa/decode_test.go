package isa

import "testing"

func TestDecode_KnownWords(t *testing.T) {
	tests := []struct {
		name string
		inst uint32
		rv64 bool
		want Inst
	}{
		{"add x3,x1,x2", 0x002081B3, false, Inst{Op: OpAdd, Rd: 3, Rs1: 1, Rs2: 2}},
		{"beq x1,x2,+16", 0x00208863, false, Inst{Op: OpBeq, Rs1: 1, Rs2: 2, Imm: 16}},
		{"addi x1,x1,1", 0x00108093, false, Inst{Op: OpAddi, Rd: 1, Rs1: 1, Imm: 1}},
		{"lw a0,4(a1)", 0x0045A503, false, Inst{Op: OpLw, Rd: 10, Rs1: 11, Imm: 4}},
		{"sw a0,8(a1)", 0x00A5A423, false, Inst{Op: OpSw, Rs1: 11, Rs2: 10, Imm: 8}},
		{"jal x0,8", 0x0080006F, false, Inst{Op: OpJal, Rd: 0, Imm: 8}},
		{"jalr x0,0(ra)", 0x00008067, false, Inst{Op: OpJalr, Rd: 0, Rs1: 1, Imm: 0}},
		{"lui a5,0x1", 0x000017B7, false, Inst{Op: OpLui, Rd: 15, Imm: 0x1000}},
		{"srai x10,x10,2", 0x40255513, false, Inst{Op: OpSrai, Rd: 10, Rs1: 10, Imm: 2}},
		{"ecall", 0x00000073, false, Inst{Op: OpEcall}},
		{"ebreak", 0x00100073, false, Inst{Op: OpEbreak}},
		{"mret", 0x30200073, false, Inst{Op: OpMret}},
		{"wfi", 0x10500073, false, Inst{Op: OpWfi}},
		{"ld on rv64", 0x0085B503, true, Inst{Op: OpLd, Rd: 10, Rs1: 11, Imm: 8}},
		{"addw on rv64", 0x00B5053B, true, Inst{Op: OpAddw, Rd: 10, Rs1: 10, Rs2: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.inst, tt.rv64)
			got.Raw = 0
			got.Csr = 0
			if got != tt.want {
				t.Errorf("Decode(%#08x) = %+v, want %+v", tt.inst, got, tt.want)
			}
		})
	}
}

func TestDecode_Illegal(t *testing.T) {
	tests := []struct {
		name string
		inst uint32
		rv64 bool
	}{
		{"all zero", 0x00000000, false},
		{"all ones", 0xFFFFFFFF, false},
		{"ld on rv32", 0x0085B503, false},
		{"lwu on rv32", EncodeI(OpcodeLoad, 10, 6, 11, 8), false},
		{"sd on rv32", EncodeS(OpcodeStore, 3, 11, 10, 8), false},
		{"addw on rv32", 0x00B5053B, false},
		{"branch funct3=2", EncodeB(OpcodeBranch, 2, 1, 2, 16), false},
		{"op with funct7 garbage", EncodeR(OpcodeOp, 1, 1, 1, 1, 0x7F), false},
		{"srai bad funct on rv32", EncodeI(OpcodeOpImm, 1, 5, 1, 0x300), false},
		{"sret", 0x10200073, false}, // decodes as OpSret; see below
	}
	for _, tt := range tests {
		if tt.name == "sret" {
			if got := Decode(tt.inst, tt.rv64).Op; got != OpSret {
				t.Errorf("Decode(sret).Op = %v, want OpSret", got)
			}
			continue
		}
		if got := Decode(tt.inst, tt.rv64).Op; got != OpIllegal {
			t.Errorf("%s: Decode(%#08x).Op = %v, want OpIllegal", tt.name, tt.inst, got)
		}
	}
}

// Immediates must survive an encode/decode round trip with sign
// extension applied.
func TestImmediates_RoundTrip(t *testing.T) {
	iImms := []int32{0, 1, -1, 7, -8, 2047, -2048}
	for _, imm := range iImms {
		inst := EncodeI(OpcodeOpImm, 5, 0, 6, imm)
		if got := ImmI(inst); got != imm {
			t.Errorf("ImmI: imm %d round-tripped to %d", imm, got)
		}
		inst = EncodeS(OpcodeStore, 2, 5, 6, imm)
		if got := ImmS(inst); got != imm {
			t.Errorf("ImmS: imm %d round-tripped to %d", imm, got)
		}
	}

	for _, imm := range []int32{0, 2, -2, 16, -16, 4094, -4096} {
		inst := EncodeB(OpcodeBranch, 0, 5, 6, imm)
		if got := ImmB(inst); got != imm {
			t.Errorf("ImmB: imm %d round-tripped to %d", imm, got)
		}
	}

	for _, imm := range []int32{0, 2, -2, 2048, -2048, 1048574, -1048576} {
		inst := EncodeJ(OpcodeJal, 1, imm)
		if got := ImmJ(inst); got != imm {
			t.Errorf("ImmJ: imm %d round-tripped to %d", imm, got)
		}
	}

	for _, imm := range []uint32{0, 0x1000, 0xFFFFF000, 0x12345000} {
		inst := EncodeU(OpcodeLui, 1, imm)
		if got := uint32(ImmU(inst)); got != imm {
			t.Errorf("ImmU: imm %#x round-tripped to %#x", imm, got)
		}
	}
}

func TestDecode_ShiftAmounts(t *testing.T) {
	// RV32: 5-bit shamt, bit 25 must be clear.
	d := Decode(EncodeI(OpcodeOpImm, 1, 1, 2, 31), false)
	if d.Op != OpSlli || d.Imm != 31 {
		t.Errorf("slli 31 decoded as %+v", d)
	}
	if got := Decode(EncodeI(OpcodeOpImm, 1, 1, 2, 32), false).Op; got != OpIllegal {
		t.Errorf("rv32 slli with shamt 32 decoded as %v, want OpIllegal", got)
	}
	// RV64: 6-bit shamt is legal.
	d = Decode(EncodeI(OpcodeOpImm, 1, 1, 2, 63), true)
	if d.Op != OpSlli || d.Imm != 63 {
		t.Errorf("rv64 slli 63 decoded as %+v", d)
	}
	d = Decode(EncodeI(OpcodeOpImm, 1, 5, 2, 0x400|33), true)
	if d.Op != OpSrai || d.Imm != 33 {
		t.Errorf("rv64 srai 33 decoded as %+v", d)
	}
}

func TestDecode_Csr(t *testing.T) {
	inst := EncodeI(OpcodeSystem, 3, 1, 4, int32(CsrMstatus))
	d := Decode(inst, false)
	if d.Op != OpCsrrw || d.Rd != 3 || d.Rs1 != 4 || d.Csr != CsrMstatus {
		t.Errorf("csrrw decoded as %+v", d)
	}
	inst = EncodeI(OpcodeSystem, 3, 6, 5, int32(CsrMie))
	d = Decode(inst, false)
	if d.Op != OpCsrrsi || d.Imm != 5 || d.Csr != CsrMie {
		t.Errorf("csrrsi decoded as %+v", d)
	}
}

func TestRegNames(t *testing.T) {
	for i := uint32(0); i < 32; i++ {
		name := RegName(i)
		got, ok := RegIndex(name)
		if !ok || got != i {
			t.Errorf("RegIndex(RegName(%d)) = %d, %v", i, got, ok)
		}
	}
	for name, want := range map[string]uint32{
		"x0": 0, "x5": 5, "x31": 31, "zero": 0, "ra": 1, "sp": 2,
		"fp": 8, "s0": 8, "a0": 10, "t6": 31,
	} {
		got, ok := RegIndex(name)
		if !ok || got != want {
			t.Errorf("RegIndex(%q) = %d, %v, want %d", name, got, ok, want)
		}
	}
	for _, bad := range []string{"", "x32", "x-1", "q7", "a8x"} {
		if _, ok := RegIndex(bad); ok {
			t.Errorf("RegIndex(%q) unexpectedly resolved", bad)
		}
	}
}

// rvc.go expands 16-bit compressed (RVC) encodings to their exact 32-bit
// equivalents. Undefined encodings — the all-zero word, the reserved
// slots, the floating-point forms and the RV128-only forms — expand to
// the illegal sentinel so the executor raises illegal-instruction.
//
// Field layouts follow table 12.5 of the unprivileged spec: quadrant in
// bits 1:0 (11 means 32-bit, never compressed), funct3 in bits 15:13.
package isa

// IllegalCode32 is the sentinel returned for undefined compressed
// encodings. The all-zero word is itself an illegal instruction.
const IllegalCode32 uint32 = 0

// compressed register fields are 3 bits wide and map to x8..x15.
const rvcRegBase = 8

func rvcRdFull(c uint16) uint32  { return uint32(c>>7) & 0x1F }
func rvcRs2Full(c uint16) uint32 { return uint32(c>>2) & 0x1F }
func rvcRdP(c uint16) uint32     { return uint32(c>>2)&0x7 + rvcRegBase }
func rvcRs1P(c uint16) uint32    { return uint32(c>>7)&0x7 + rvcRegBase }

// ciImm6 returns the sign-extended 6-bit CI immediate: imm[5]=c[12],
// imm[4:0]=c[6:2].
func ciImm6(c uint16) int32 {
	v := uint32(c>>12&0x1)<<5 | uint32(c>>2&0x1F)
	return signExtend32(v, 5)
}

// ciShamt returns the CI shift amount (same bits as ciImm6, unsigned).
func ciShamt(c uint16) uint32 {
	return uint32(c>>12&0x1)<<5 | uint32(c>>2&0x1F)
}

// cjImm returns the sign-extended CJ jump offset:
// imm[11|4|9:8|10|6|7|3:1|5] = c[12|11|10:9|8|7|6|5:3|2].
func cjImm(c uint16) int32 {
	x := uint32(c)
	v := (x >> 12 & 0x1) << 11
	v |= (x >> 11 & 0x1) << 4
	v |= (x >> 9 & 0x3) << 8
	v |= (x >> 8 & 0x1) << 10
	v |= (x >> 7 & 0x1) << 6
	v |= (x >> 6 & 0x1) << 7
	v |= (x >> 3 & 0x7) << 1
	v |= (x >> 2 & 0x1) << 5
	return signExtend32(v, 11)
}

// cbImm returns the sign-extended CB branch offset:
// imm[8|4:3|7:6|2:1|5] = c[12|11:10|6:5|4:3|2].
func cbImm(c uint16) int32 {
	x := uint32(c)
	v := (x >> 12 & 0x1) << 8
	v |= (x >> 10 & 0x3) << 3
	v |= (x >> 5 & 0x3) << 6
	v |= (x >> 3 & 0x3) << 1
	v |= (x >> 2 & 0x1) << 5
	return signExtend32(v, 8)
}

// Expand maps a compressed instruction to its 32-bit equivalent. The
// second result is false (with the illegal sentinel) for every encoding
// that is not a defined RV32C/RV64C instruction under the selected
// width.
func Expand(c uint16, rv64 bool) (uint32, bool) {
	if c&0x3 == 0x3 {
		return IllegalCode32, false // not compressed
	}
	x := uint32(c)
	f3 := x >> 13 & 0x7

	switch c & 0x3 {
	case 0: // quadrant 0
		switch f3 {
		case 0: // C.ADDI4SPN
			// nzuimm[5:4|9:6|2|3] = c[12:11|10:7|6|5]
			imm := (x>>11&0x3)<<4 | (x>>7&0xF)<<6 | (x>>6&0x1)<<2 | (x>>5&0x1)<<3
			if imm == 0 {
				return IllegalCode32, false // reserved (covers the all-zero word)
			}
			return EncodeI(OpcodeOpImm, rvcRdP(c), 0, 2, int32(imm)), true
		case 2: // C.LW: uimm[5:3|2|6] = c[12:10|6|5]
			imm := (x>>10&0x7)<<3 | (x>>6&0x1)<<2 | (x>>5&0x1)<<6
			return EncodeI(OpcodeLoad, rvcRdP(c), 2, rvcRs1P(c), int32(imm)), true
		case 3: // C.LD (RV64); C.FLW on RV32 is not supported
			if !rv64 {
				return IllegalCode32, false
			}
			imm := (x>>10&0x7)<<3 | (x>>5&0x3)<<6
			return EncodeI(OpcodeLoad, rvcRdP(c), 3, rvcRs1P(c), int32(imm)), true
		case 6: // C.SW
			imm := (x>>10&0x7)<<3 | (x>>6&0x1)<<2 | (x>>5&0x1)<<6
			return EncodeS(OpcodeStore, 2, rvcRs1P(c), rvcRdP(c), int32(imm)), true
		case 7: // C.SD (RV64)
			if !rv64 {
				return IllegalCode32, false
			}
			imm := (x>>10&0x7)<<3 | (x>>5&0x3)<<6
			return EncodeS(OpcodeStore, 3, rvcRs1P(c), rvcRdP(c), int32(imm)), true
		}
		// C.FLD/C.FSD and the reserved slot.
		return IllegalCode32, false

	case 1: // quadrant 1
		switch f3 {
		case 0: // C.ADDI (C.NOP when rd=0)
			rd := rvcRdFull(c)
			return EncodeI(OpcodeOpImm, rd, 0, rd, ciImm6(c)), true
		case 1: // C.JAL (RV32) / C.ADDIW (RV64)
			if rv64 {
				rd := rvcRdFull(c)
				if rd == 0 {
					return IllegalCode32, false // reserved
				}
				return EncodeI(OpcodeOpImm32, rd, 0, rd, ciImm6(c)), true
			}
			return EncodeJ(OpcodeJal, 1, cjImm(c)), true
		case 2: // C.LI
			return EncodeI(OpcodeOpImm, rvcRdFull(c), 0, 0, ciImm6(c)), true
		case 3: // C.ADDI16SP / C.LUI
			rd := rvcRdFull(c)
			if rd == 2 {
				// nzimm[9|4|6|8:7|5] = c[12|6|5|4:3|2]
				v := (x>>12&0x1)<<9 | (x>>6&0x1)<<4 | (x>>5&0x1)<<6 |
					(x>>3&0x3)<<7 | (x>>2&0x1)<<5
				if v == 0 {
					return IllegalCode32, false // reserved
				}
				return EncodeI(OpcodeOpImm, 2, 0, 2, signExtend32(v, 9)), true
			}
			// nzimm[17|16:12] = c[12|6:2]
			v := (x>>12&0x1)<<17 | (x>>2&0x1F)<<12
			if v == 0 || rd == 0 {
				return IllegalCode32, false // reserved
			}
			return EncodeU(OpcodeLui, rd, uint32(signExtend32(v, 17))), true
		case 4: // C.SRLI / C.SRAI / C.ANDI / register-register group
			rd := rvcRs1P(c)
			switch x >> 10 & 0x3 {
			case 0, 1:
				shamt := ciShamt(c)
				if !rv64 && shamt >= 32 {
					return IllegalCode32, false // NSE on RV32
				}
				funct7 := uint32(0)
				if x>>10&0x3 == 1 {
					funct7 = 0x20 // SRAI
				}
				hi := funct7 | shamt>>5 // shamt[5] lands in funct7 bit 0 on RV64
				return EncodeI(OpcodeOpImm, rd, 5, rd, int32(hi<<5|shamt&0x1F)), true
			case 2:
				return EncodeI(OpcodeOpImm, rd, 7, rd, ciImm6(c)), true
			}
			rs2 := rvcRdP(c)
			sel := x>>12&0x1<<2 | x>>5&0x3
			switch sel {
			case 0: // C.SUB
				return EncodeR(OpcodeOp, rd, 0, rd, rs2, 0x20), true
			case 1: // C.XOR
				return EncodeR(OpcodeOp, rd, 4, rd, rs2, 0x00), true
			case 2: // C.OR
				return EncodeR(OpcodeOp, rd, 6, rd, rs2, 0x00), true
			case 3: // C.AND
				return EncodeR(OpcodeOp, rd, 7, rd, rs2, 0x00), true
			case 4: // C.SUBW (RV64)
				if rv64 {
					return EncodeR(OpcodeOp32, rd, 0, rd, rs2, 0x20), true
				}
			case 5: // C.ADDW (RV64)
				if rv64 {
					return EncodeR(OpcodeOp32, rd, 0, rd, rs2, 0x00), true
				}
			}
			return IllegalCode32, false
		case 5: // C.J
			return EncodeJ(OpcodeJal, 0, cjImm(c)), true
		case 6: // C.BEQZ
			return EncodeB(OpcodeBranch, 0, rvcRs1P(c), 0, cbImm(c)), true
		case 7: // C.BNEZ
			return EncodeB(OpcodeBranch, 1, rvcRs1P(c), 0, cbImm(c)), true
		}

	case 2: // quadrant 2
		switch f3 {
		case 0: // C.SLLI
			rd := rvcRdFull(c)
			shamt := ciShamt(c)
			if !rv64 && shamt >= 32 {
				return IllegalCode32, false // NSE on RV32
			}
			return EncodeI(OpcodeOpImm, rd, 1, rd, int32(shamt)), true
		case 2: // C.LWSP: uimm[5|4:2|7:6] = c[12|6:4|3:2]
			rd := rvcRdFull(c)
			if rd == 0 {
				return IllegalCode32, false // reserved
			}
			imm := (x>>12&0x1)<<5 | (x>>4&0x7)<<2 | (x>>2&0x3)<<6
			return EncodeI(OpcodeLoad, rd, 2, 2, int32(imm)), true
		case 3: // C.LDSP (RV64): uimm[5|4:3|8:6] = c[12|6:5|4:2]
			rd := rvcRdFull(c)
			if !rv64 || rd == 0 {
				return IllegalCode32, false
			}
			imm := (x>>12&0x1)<<5 | (x>>5&0x3)<<3 | (x>>2&0x7)<<6
			return EncodeI(OpcodeLoad, rd, 3, 2, int32(imm)), true
		case 4: // C.JR / C.MV / C.EBREAK / C.JALR / C.ADD
			rs1 := rvcRdFull(c)
			rs2 := rvcRs2Full(c)
			if x>>12&0x1 == 0 {
				if rs2 == 0 {
					if rs1 == 0 {
						return IllegalCode32, false // reserved
					}
					return EncodeI(OpcodeJalr, 0, 0, rs1, 0), true // C.JR
				}
				return EncodeR(OpcodeOp, rs1, 0, 0, rs2, 0x00), true // C.MV
			}
			if rs2 == 0 {
				if rs1 == 0 {
					return 0x00100073, true // C.EBREAK
				}
				return EncodeI(OpcodeJalr, 1, 0, rs1, 0), true // C.JALR
			}
			return EncodeR(OpcodeOp, rs1, 0, rs1, rs2, 0x00), true // C.ADD
		case 6: // C.SWSP: uimm[5:2|7:6] = c[12:9|8:7]
			imm := (x>>9&0xF)<<2 | (x>>7&0x3)<<6
			return EncodeS(OpcodeStore, 2, 2, rvcRs2Full(c), int32(imm)), true
		case 7: // C.SDSP (RV64): uimm[5:3|8:6] = c[12:10|9:7]
			if !rv64 {
				return IllegalCode32, false
			}
			imm := (x>>10&0x7)<<3 | (x>>7&0x7)<<6
			return EncodeS(OpcodeStore, 3, 2, rvcRs2Full(c), int32(imm)), true
		}
		// C.FLDSP/C.FSDSP. (C.FLWSP/C.FSWSP on RV32 are rejected in the
		// C.LDSP and C.SDSP cases above.)
		return IllegalCode32, false
	}
	return IllegalCode32, false
}

package disasm

// opFlags describes how an opcode is encoded after the opcode byte.
type opFlags uint16

const (
	opValid  opFlags = 1 << iota
	opModRM          // ModRM byte follows
	opImm8           // 8-bit immediate
	opImm16          // 16-bit immediate
	opImm32          // 32-bit immediate regardless of operand size
	opImmZ           // 16 or 32-bit immediate by operand size
	opImmV           // 16, 32 or 64-bit immediate by operand size (B8+r)
	opRelZ           // near branch displacement, always 32-bit in 64-bit mode
	opMoffs          // memory offset sized by address size
	opFarPtr         // ptr16:16 or ptr16:32
	opEnter          // imm16 followed by imm8
	opGroup3         // immediate present only for ModRM.reg 0 and 1
	opInv64          // not encodable in 64-bit mode
	op3DNow          // 3DNow! opcode suffix byte after the operands
	opSSE4A          // two imm8 with a 66 or F2 mandatory prefix
)

type span struct {
	lo, hi byte
	f      opFlags
}

func op(b byte, f opFlags) span { return span{b, b, f} }

func ops(lo, hi byte, f opFlags) span { return span{lo, hi, f} }

func all(f opFlags) span { return span{0x00, 0xFF, f} }

// build lays spans over an empty table; a later span overrides an earlier
// one for the opcodes they share.
func build(spans ...span) (t [256]opFlags) {
	for _, s := range spans {
		for b := int(s.lo); b <= int(s.hi); b++ {
			t[b] = s.f | opValid
		}
	}
	return t
}

// Legacy prefixes (26 2E 36 3E 64 65 66 67 F0 F2 F3) and the 0F escape are
// consumed before the one-byte table is consulted, so they have no entry.
var oneByte = build(
	ops(0x00, 0x03, opModRM), op(0x04, opImm8), op(0x05, opImmZ), op(0x06, opInv64), op(0x07, opInv64),
	ops(0x08, 0x0B, opModRM), op(0x0C, opImm8), op(0x0D, opImmZ), op(0x0E, opInv64),
	ops(0x10, 0x13, opModRM), op(0x14, opImm8), op(0x15, opImmZ), op(0x16, opInv64), op(0x17, opInv64),
	ops(0x18, 0x1B, opModRM), op(0x1C, opImm8), op(0x1D, opImmZ), op(0x1E, opInv64), op(0x1F, opInv64),
	ops(0x20, 0x23, opModRM), op(0x24, opImm8), op(0x25, opImmZ), op(0x27, opInv64),
	ops(0x28, 0x2B, opModRM), op(0x2C, opImm8), op(0x2D, opImmZ), op(0x2F, opInv64),
	ops(0x30, 0x33, opModRM), op(0x34, opImm8), op(0x35, opImmZ), op(0x37, opInv64),
	ops(0x38, 0x3B, opModRM), op(0x3C, opImm8), op(0x3D, opImmZ), op(0x3F, opInv64),
	ops(0x40, 0x4F, opInv64), // inc/dec; REX in 64-bit mode
	ops(0x50, 0x5F, 0),
	op(0x60, opInv64), op(0x61, opInv64), op(0x62, opModRM|opInv64), op(0x63, opModRM),
	op(0x68, opImmZ), op(0x69, opModRM|opImmZ), op(0x6A, opImm8), op(0x6B, opModRM|opImm8),
	ops(0x6C, 0x6F, 0),
	ops(0x70, 0x7F, opImm8),
	op(0x80, opModRM|opImm8), op(0x81, opModRM|opImmZ), op(0x82, opModRM|opImm8|opInv64), op(0x83, opModRM|opImm8),
	ops(0x84, 0x8F, opModRM),
	ops(0x90, 0x99, 0), op(0x9A, opFarPtr|opInv64), ops(0x9B, 0x9F, 0),
	ops(0xA0, 0xA3, opMoffs), ops(0xA4, 0xA7, 0), op(0xA8, opImm8), op(0xA9, opImmZ), ops(0xAA, 0xAF, 0),
	ops(0xB0, 0xB7, opImm8), ops(0xB8, 0xBF, opImmV),
	op(0xC0, opModRM|opImm8), op(0xC1, opModRM|opImm8), op(0xC2, opImm16), op(0xC3, 0),
	op(0xC4, opModRM|opInv64), op(0xC5, opModRM|opInv64), op(0xC6, opModRM|opImm8), op(0xC7, opModRM|opImmZ),
	op(0xC8, opEnter), op(0xC9, 0), op(0xCA, opImm16), ops(0xCB, 0xCC, 0), op(0xCD, opImm8), op(0xCE, opInv64), op(0xCF, 0),
	ops(0xD0, 0xD3, opModRM), op(0xD4, opImm8|opInv64), op(0xD5, opImm8|opInv64), op(0xD6, opInv64), op(0xD7, 0),
	ops(0xD8, 0xDF, opModRM),
	ops(0xE0, 0xE7, opImm8), op(0xE8, opRelZ), op(0xE9, opRelZ), op(0xEA, opFarPtr|opInv64), op(0xEB, opImm8), ops(0xEC, 0xEF, 0),
	op(0xF1, 0), op(0xF4, 0), op(0xF5, 0),
	op(0xF6, opModRM|opGroup3|opImm8), op(0xF7, opModRM|opGroup3|opImmZ),
	ops(0xF8, 0xFD, 0), op(0xFE, opModRM), op(0xFF, opModRM),
)

var twoByte = build(
	ops(0x00, 0x03, opModRM), ops(0x05, 0x09, 0), op(0x0B, 0),
	op(0x0D, opModRM), op(0x0E, 0), op(0x0F, opModRM|op3DNow),
	ops(0x10, 0x23, opModRM),
	ops(0x28, 0x2F, opModRM),
	ops(0x30, 0x35, 0), op(0x37, 0),
	ops(0x40, 0x6F, opModRM),
	ops(0x70, 0x73, opModRM|opImm8), ops(0x74, 0x76, opModRM), op(0x77, 0),
	op(0x78, opModRM|opSSE4A), op(0x79, opModRM), ops(0x7C, 0x7F, opModRM),
	ops(0x80, 0x8F, opRelZ),
	ops(0x90, 0x9F, opModRM),
	ops(0xA0, 0xA2, 0), op(0xA3, opModRM), op(0xA4, opModRM|opImm8), op(0xA5, opModRM),
	ops(0xA8, 0xAA, 0), op(0xAB, opModRM), op(0xAC, opModRM|opImm8), ops(0xAD, 0xAF, opModRM),
	ops(0xB0, 0xB9, opModRM), op(0xBA, opModRM|opImm8), ops(0xBB, 0xBF, opModRM),
	ops(0xC0, 0xC1, opModRM), op(0xC2, opModRM|opImm8), op(0xC3, opModRM), ops(0xC4, 0xC6, opModRM|opImm8), op(0xC7, opModRM),
	ops(0xC8, 0xCF, 0),
	ops(0xD0, 0xFF, opModRM),
)

var threeByte38 = build(
	ops(0x00, 0x0B, opModRM), op(0x10, opModRM), ops(0x14, 0x15, opModRM), op(0x17, opModRM),
	ops(0x1C, 0x1E, opModRM), ops(0x20, 0x25, opModRM), ops(0x28, 0x2B, opModRM),
	ops(0x30, 0x35, opModRM), ops(0x37, 0x41, opModRM), ops(0x80, 0x82, opModRM),
	ops(0xC8, 0xCD, opModRM), op(0xCF, opModRM), ops(0xDB, 0xDF, opModRM),
	ops(0xF0, 0xF1, opModRM), ops(0xF5, 0xF6, opModRM), ops(0xF8, 0xF9, opModRM),
)

var threeByte3A = build(
	ops(0x08, 0x0F, opModRM|opImm8), ops(0x14, 0x17, opModRM|opImm8), ops(0x20, 0x22, opModRM|opImm8),
	ops(0x40, 0x42, opModRM|opImm8), op(0x44, opModRM|opImm8), ops(0x60, 0x63, opModRM|opImm8),
	op(0xCC, opModRM|opImm8), ops(0xCE, 0xCF, opModRM|opImm8), op(0xDF, opModRM|opImm8),
)

var vexMap1 = build(
	ops(0x10, 0x17, opModRM), ops(0x28, 0x2F, opModRM),
	ops(0x41, 0x42, opModRM), ops(0x44, 0x47, opModRM), ops(0x4A, 0x4B, opModRM),
	ops(0x50, 0x6F, opModRM), ops(0x70, 0x73, opModRM|opImm8), ops(0x74, 0x76, opModRM), op(0x77, 0),
	ops(0x7C, 0x7F, opModRM), ops(0x90, 0x93, opModRM), ops(0x98, 0x99, opModRM),
	op(0xAE, opModRM), op(0xC2, opModRM|opImm8), ops(0xC4, 0xC6, opModRM|opImm8),
	ops(0xD0, 0xFF, opModRM),
)

var vexMap2 = build(
	ops(0x00, 0x0F, opModRM), op(0x13, opModRM), ops(0x16, 0x1A, opModRM), ops(0x1C, 0x1E, opModRM),
	ops(0x20, 0x25, opModRM), ops(0x28, 0x2F, opModRM), ops(0x30, 0x41, opModRM), ops(0x45, 0x47, opModRM),
	op(0x49, opModRM), op(0x4B, opModRM), ops(0x50, 0x53, opModRM), ops(0x58, 0x5A, opModRM),
	op(0x5C, opModRM), op(0x5E, opModRM), op(0x72, opModRM), ops(0x78, 0x79, opModRM),
	op(0x8C, opModRM), op(0x8E, opModRM), ops(0x90, 0x93, opModRM), ops(0x96, 0x9F, opModRM),
	ops(0xA6, 0xAF, opModRM), ops(0xB0, 0xB1, opModRM), ops(0xB4, 0xBF, opModRM), op(0xCF, opModRM),
	ops(0xDB, 0xDF, opModRM), ops(0xE0, 0xEF, opModRM), ops(0xF2, 0xF3, opModRM), ops(0xF5, 0xF7, opModRM),
)

var vexMap3 = build(
	ops(0x00, 0x02, opModRM|opImm8), ops(0x04, 0x06, opModRM|opImm8), ops(0x08, 0x0F, opModRM|opImm8),
	ops(0x14, 0x19, opModRM|opImm8), op(0x1D, opModRM|opImm8), ops(0x20, 0x22, opModRM|opImm8),
	ops(0x30, 0x33, opModRM|opImm8), ops(0x38, 0x39, opModRM|opImm8), ops(0x40, 0x42, opModRM|opImm8),
	op(0x44, opModRM|opImm8), op(0x46, opModRM|opImm8), ops(0x48, 0x4C, opModRM|opImm8),
	ops(0x5C, 0x5F, opModRM|opImm8), ops(0x60, 0x63, opModRM|opImm8), ops(0x68, 0x6F, opModRM|opImm8),
	ops(0x78, 0x7F, opModRM|opImm8), ops(0xCE, 0xCF, opModRM|opImm8), op(0xDF, opModRM|opImm8),
	op(0xF0, opModRM|opImm8),
)

// EVEX instructions always carry a ModRM byte. Map 1 is listed opcode by
// opcode; maps 2, 3, 5 and 6 accept every opcode and rely on the fixed bits
// of the EVEX payload to reject non-EVEX bytes.
var evexMap1 = build(
	ops(0x10, 0x17, opModRM), ops(0x28, 0x2F, opModRM), op(0x51, opModRM), ops(0x54, 0x7F, opModRM),
	ops(0x70, 0x73, opModRM|opImm8), op(0xC2, opModRM|opImm8), ops(0xC4, 0xC6, opModRM|opImm8),
	ops(0xD1, 0xFE, opModRM),
)

var (
	evexMap2  = build(all(opModRM))
	evexMap3  = build(all(opModRM | opImm8))
	evexMap56 = build(all(opModRM))
)

var xopMap8 = build(
	ops(0x85, 0x87, opModRM|opImm8), ops(0x8E, 0x8F, opModRM|opImm8), ops(0x95, 0x97, opModRM|opImm8),
	ops(0x9E, 0x9F, opModRM|opImm8), ops(0xA2, 0xA3, opModRM|opImm8), op(0xA6, opModRM|opImm8),
	op(0xB6, opModRM|opImm8), ops(0xC0, 0xC3, opModRM|opImm8), ops(0xCC, 0xCF, opModRM|opImm8),
	ops(0xEC, 0xEF, opModRM|opImm8),
)

var xopMap9 = build(
	ops(0x01, 0x02, opModRM), op(0x12, opModRM), ops(0x80, 0x83, opModRM), ops(0x90, 0x9B, opModRM),
	ops(0xC1, 0xC3, opModRM), ops(0xC6, 0xC7, opModRM), op(0xCB, opModRM), ops(0xD1, 0xD3, opModRM),
	ops(0xD6, 0xD7, opModRM), op(0xDB, opModRM), ops(0xE1, 0xE3, opModRM),
)

var xopMapA = build(op(0x10, opModRM|opImm32), op(0x12, opModRM|opImm32))

// lookup returns the encoding flags for the opcode of in.
func lookup(in *Inst) opFlags {
	var t *[256]opFlags
	switch in.Encoding {
	case Legacy:
		switch in.Map {
		case MapOneByte:
			t = &oneByte
		case Map0F:
			t = &twoByte
		case Map0F38:
			t = &threeByte38
		case Map0F3A:
			t = &threeByte3A
		}
	case VEX:
		switch in.Map {
		case Map0F:
			t = &vexMap1
		case Map0F38:
			t = &vexMap2
		case Map0F3A:
			t = &vexMap3
		}
	case EVEX:
		switch in.Map {
		case Map0F:
			t = &evexMap1
		case Map0F38:
			t = &evexMap2
		case Map0F3A:
			t = &evexMap3
		case Map5, Map6:
			t = &evexMap56
		}
	case XOP:
		switch in.Map {
		case MapXOP8:
			t = &xopMap8
		case MapXOP9:
			t = &xopMap9
		case MapXOPA:
			t = &xopMapA
		}
	}
	if t == nil {
		return 0
	}
	return t[in.Opcode]
}

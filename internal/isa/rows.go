package isa

import "isascan/internal/disasm"

// none marks an encoding an operation does not have.
const none = numFeatures

type row struct {
	k key
	e entry
}

func newRow(enc disasm.Encoding, m disasm.Map, p disasm.Mandatory, op byte, mnemonic string, fs ...Feature) row {
	return row{
		k: key{enc: enc, m: m, op: op, pfx: p},
		e: entry{reg: -1, modrm: -1, w: -1, mnemonic: mnemonic, features: Of(fs...)},
	}
}

func legacy(m disasm.Map, p disasm.Mandatory, op byte, mnemonic string, fs ...Feature) row {
	return newRow(disasm.Legacy, m, p, op, mnemonic, fs...)
}

func vex(m disasm.Map, p disasm.Mandatory, op byte, mnemonic string, fs ...Feature) row {
	return newRow(disasm.VEX, m, p, op, mnemonic, fs...)
}

// evex rows always carry AVX512F, which every EVEX encoding requires.
func evex(m disasm.Map, p disasm.Mandatory, op byte, mnemonic string, fs ...Feature) row {
	return newRow(disasm.EVEX, m, p, op, mnemonic, append(fs, AVX512F)...)
}

func xop(m disasm.Map, op byte, mnemonic string, fs ...Feature) row {
	return newRow(disasm.XOP, m, disasm.NoPrefix, op, mnemonic, fs...)
}

func (r row) reg(n int8) row { r.e.reg = n; return r }

func (r row) modrm(b byte) row { r.e.modrm = int16(b); return r }

func (r row) regs() row { r.e.form = regForm; return r }

func (r row) mem() row { r.e.form = memForm; return r }

func (r row) l(n int16) row { r.e.vl = n; return r }

func (r row) x64() row { r.e.only64 = true; return r }

func (r row) scalar() row { r.e.scalar = true; return r }

func (r row) w(set bool) row {
	r.e.w = 0
	if set {
		r.e.w = 1
	}
	return r
}

func add(rows ...row) {
	for _, r := range rows {
		table[r.k] = append(table[r.k], r.e)
	}
}

// vexKind says how an operation is encoded with VEX.
type vexKind uint8

const (
	noVEX   vexKind = iota
	vexAVX          // AVX at any length
	vexAVX2         // AVX at 128 bits, AVX2 at 256 bits
	vex128          // 128 bits only
)

// vec adds one operation in each encoding that has it: legacy tagged leg,
// VEX per vk and EVEX tagged ev. VEX and EVEX mnemonics take a v prefix.
func vec(m disasm.Map, p disasm.Mandatory, op byte, name string, leg Feature, vk vexKind, ev Feature) {
	if leg != none {
		add(legacy(m, p, op, name, leg))
	}
	v := "v" + name
	switch vk {
	case vexAVX:
		add(vex(m, p, op, v, AVX))
	case vexAVX2:
		add(vex(m, p, op, v, AVX).l(128), vex(m, p, op, v, AVX, AVX2).l(256))
	case vex128:
		add(vex(m, p, op, v, AVX).l(128))
	}
	if ev != none {
		add(evex(m, p, op, v, ev))
	}
}

// scalarOp is vec for an operation on the low element, whose EVEX form
// ignores the vector length.
func scalarOp(m disasm.Map, p disasm.Mandatory, op byte, name string, leg Feature, ev Feature) {
	if leg != none {
		add(legacy(m, p, op, name, leg))
	}
	add(vex(m, p, op, "v"+name, AVX))
	if ev != none {
		add(evex(m, p, op, "v"+name, ev).scalar())
	}
}

// arith adds the ps, pd, ss and sd forms of a floating-point operation.
func arith(op byte, base string) {
	vec(disasm.Map0F, disasm.NoPrefix, op, base+"ps", SSE, vexAVX, AVX512F)
	vec(disasm.Map0F, disasm.Prefix66, op, base+"pd", SSE2, vexAVX, AVX512F)
	scalarOp(disasm.Map0F, disasm.PrefixF3, op, base+"ss", SSE, AVX512F)
	scalarOp(disasm.Map0F, disasm.PrefixF2, op, base+"sd", SSE2, AVX512F)
}

// mmx adds an integer operation on MMX registers (no prefix, tagged np)
// and on vector registers (66).
func mmx(op byte, name string, np Feature, ev Feature) {
	if np != none {
		add(legacy(disasm.Map0F, disasm.NoPrefix, op, name, np))
	}
	vec(disasm.Map0F, disasm.Prefix66, op, name, SSE2, vexAVX2, ev)
}

// ssse3 adds a 0F38 integer operation from SSSE3.
func ssse3(op byte, name string, ev Feature) {
	add(legacy(disasm.Map0F38, disasm.NoPrefix, op, name, SSSE3))
	vec(disasm.Map0F38, disasm.Prefix66, op, name, SSSE3, vexAVX2, ev)
}

func init() {
	legacyRows()
	sseRows()
	integerRows()
	vexRows()
	maskRows()
	evexRows()
	xopRows()
}

var conditions = [16]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

func legacyRows() {
	const (
		m1 = disasm.MapOneByte
		m2 = disasm.Map0F
		m3 = disasm.Map0F38
		np = disasm.NoPrefix
	)
	for cc, name := range conditions {
		add(legacy(m2, anyPrefix, 0x40+byte(cc), "cmov"+name, CMOV))
	}
	add(
		legacy(m1, anyPrefix, 0x9E, "sahf", LAHFSAHF).x64(),
		legacy(m1, anyPrefix, 0x9F, "lahf", LAHFSAHF).x64(),
		legacy(m1, anyPrefix, 0xC6, "xabort", RTM).modrm(0xF8),
		legacy(m1, anyPrefix, 0xC7, "xbegin", RTM).modrm(0xF8),

		legacy(m2, anyPrefix, 0xA2, "cpuid", CPUID),
		legacy(m2, anyPrefix, 0x01, "monitor", SSE3).modrm(0xC8),
		legacy(m2, anyPrefix, 0x01, "mwait", SSE3).modrm(0xC9),
		legacy(m2, anyPrefix, 0x01, "xgetbv", XSAVE).modrm(0xD0),
		legacy(m2, anyPrefix, 0x01, "xsetbv", XSAVE).modrm(0xD1),
		legacy(m2, anyPrefix, 0x01, "xend", RTM).modrm(0xD5),
		legacy(m2, anyPrefix, 0x01, "xtest", RTM).modrm(0xD6),
		legacy(m2, np, 0x01, "serialize", SERIALIZE).modrm(0xE8),
		legacy(m2, anyPrefix, 0x01, "rdtscp", RDTSCP).modrm(0xF9),
		legacy(m2, anyPrefix, 0x0D, "prefetch", PREFETCHW).reg(0).mem(),
		legacy(m2, anyPrefix, 0x0D, "prefetchw", PREFETCHW).reg(1).mem(),
		legacy(m2, anyPrefix, 0x0E, "femms", AMD3DNOW),
		legacy(m2, anyPrefix, 0x0F, "3dnow", AMD3DNOW),
		legacy(m2, np, 0x18, "prefetchnta", SSE).reg(0).mem(),
		legacy(m2, np, 0x18, "prefetcht0", SSE).reg(1).mem(),
		legacy(m2, np, 0x18, "prefetcht1", SSE).reg(2).mem(),
		legacy(m2, np, 0x18, "prefetcht2", SSE).reg(3).mem(),
		legacy(m2, np, 0x77, "emms", MMX),
		legacy(m2, np, 0xC3, "movnti", SSE2).mem(),

		legacy(m2, np, 0xAE, "fxsave", FXSR).reg(0).mem(),
		legacy(m2, np, 0xAE, "fxrstor", FXSR).reg(1).mem(),
		legacy(m2, np, 0xAE, "ldmxcsr", SSE).reg(2).mem(),
		legacy(m2, np, 0xAE, "stmxcsr", SSE).reg(3).mem(),
		legacy(m2, np, 0xAE, "xsave", XSAVE).reg(4).mem(),
		legacy(m2, np, 0xAE, "xrstor", XSAVE).reg(5).mem(),
		legacy(m2, np, 0xAE, "xsaveopt", XSAVE).reg(6).mem(),
		legacy(m2, np, 0xAE, "lfence", SSE2).reg(5).regs(),
		legacy(m2, np, 0xAE, "mfence", SSE2).reg(6).regs(),
		legacy(m2, np, 0xAE, "sfence", SSE).reg(7).regs(),
		legacy(m2, disasm.Prefix66, 0xAE, "clwb", CLWB).reg(6).mem(),
		legacy(m2, disasm.Prefix66, 0xAE, "clflushopt", CLFLUSHOPT).reg(7).mem(),

		legacy(m2, anyPrefix, 0xC7, "cmpxchg16b", CX16).reg(1).mem().w(true),
		legacy(m2, anyPrefix, 0xC7, "cmpxchg8b", CX8).reg(1).mem(),
		legacy(m2, anyPrefix, 0xC7, "xrstors", XSAVE).reg(3).mem(),
		legacy(m2, anyPrefix, 0xC7, "xsavec", XSAVE).reg(4).mem(),
		legacy(m2, anyPrefix, 0xC7, "xsaves", XSAVE).reg(5).mem(),
		legacy(m2, anyPrefix, 0xC7, "rdrand", RDRAND).reg(6).regs(),
		legacy(m2, disasm.PrefixF3, 0xC7, "rdpid", RDPID).reg(7).regs(),
		legacy(m2, anyPrefix, 0xC7, "rdseed", RDSEED).reg(7).regs(),

		legacy(m2, disasm.PrefixF3, 0xB8, "popcnt", POPCNT),
		legacy(m2, disasm.PrefixF3, 0xBC, "tzcnt", BMI1),
		legacy(m2, disasm.PrefixF3, 0xBD, "lzcnt", LZCNT),

		legacy(m2, disasm.Prefix66, 0x78, "extrq", SSE4A).reg(0).regs(),
		legacy(m2, disasm.PrefixF2, 0x78, "insertq", SSE4A).regs(),
		legacy(m2, disasm.Prefix66, 0x79, "extrq", SSE4A).regs(),
		legacy(m2, disasm.PrefixF2, 0x79, "insertq", SSE4A).regs(),
		legacy(m2, disasm.PrefixF3, 0x2B, "movntss", SSE4A).mem(),
		legacy(m2, disasm.PrefixF2, 0x2B, "movntsd", SSE4A).mem(),

		legacy(m3, np, 0xF0, "movbe", MOVBE).mem(),
		legacy(m3, np, 0xF1, "movbe", MOVBE).mem(),
		legacy(m3, disasm.Prefix66, 0xF0, "movbe", MOVBE).mem(),
		legacy(m3, disasm.Prefix66, 0xF1, "movbe", MOVBE).mem(),
		legacy(m3, disasm.PrefixF2, 0xF0, "crc32", SSE42),
		legacy(m3, disasm.PrefixF2, 0xF1, "crc32", SSE42),
		legacy(m3, disasm.Prefix66, 0xF6, "adcx", ADX),
		legacy(m3, disasm.PrefixF3, 0xF6, "adox", ADX),
		legacy(m3, disasm.Prefix66, 0xF8, "movdir64b", MOVDIR64B).mem(),
		legacy(m3, np, 0xF9, "movdiri", MOVDIRI).mem(),

		legacy(m3, np, 0xC8, "sha1nexte", SHA),
		legacy(m3, np, 0xC9, "sha1msg1", SHA),
		legacy(m3, np, 0xCA, "sha1msg2", SHA),
		legacy(m3, np, 0xCB, "sha256rnds2", SHA),
		legacy(m3, np, 0xCC, "sha256msg1", SHA),
		legacy(m3, np, 0xCD, "sha256msg2", SHA),
		legacy(disasm.Map0F3A, np, 0xCC, "sha1rnds4", SHA),
	)
}

// sseRows holds the floating-point operations of the 0F map and their
// VEX and EVEX forms.
func sseRows() {
	const (
		m  = disasm.Map0F
		np = disasm.NoPrefix
		p6 = disasm.Prefix66
		f3 = disasm.PrefixF3
		f2 = disasm.PrefixF2
	)
	arith(0x51, "sqrt")
	arith(0x58, "add")
	arith(0x59, "mul")
	arith(0x5C, "sub")
	arith(0x5D, "min")
	arith(0x5E, "div")
	arith(0x5F, "max")
	for _, op := range []byte{0x10, 0x11} {
		vec(m, np, op, "movups", SSE, vexAVX, AVX512F)
		vec(m, p6, op, "movupd", SSE2, vexAVX, AVX512F)
		scalarOp(m, f3, op, "movss", SSE, AVX512F)
		scalarOp(m, f2, op, "movsd", SSE2, AVX512F)
	}
	vec(m, np, 0xC2, "cmpps", SSE, vexAVX, AVX512F)
	vec(m, p6, 0xC2, "cmppd", SSE2, vexAVX, AVX512F)
	scalarOp(m, f3, 0xC2, "cmpss", SSE, AVX512F)
	scalarOp(m, f2, 0xC2, "cmpsd", SSE2, AVX512F)

	vec(m, np, 0x12, "movlps", SSE, vex128, AVX512F)
	vec(m, p6, 0x12, "movlpd", SSE2, vex128, AVX512F)
	vec(m, f3, 0x12, "movsldup", SSE3, vexAVX, AVX512F)
	vec(m, f2, 0x12, "movddup", SSE3, vexAVX, AVX512F)
	vec(m, np, 0x13, "movlps", SSE, vex128, AVX512F)
	vec(m, p6, 0x13, "movlpd", SSE2, vex128, AVX512F)
	vec(m, np, 0x14, "unpcklps", SSE, vexAVX, AVX512F)
	vec(m, p6, 0x14, "unpcklpd", SSE2, vexAVX, AVX512F)
	vec(m, np, 0x15, "unpckhps", SSE, vexAVX, AVX512F)
	vec(m, p6, 0x15, "unpckhpd", SSE2, vexAVX, AVX512F)
	vec(m, np, 0x16, "movhps", SSE, vex128, AVX512F)
	vec(m, p6, 0x16, "movhpd", SSE2, vex128, AVX512F)
	vec(m, f3, 0x16, "movshdup", SSE3, vexAVX, AVX512F)
	vec(m, np, 0x17, "movhps", SSE, vex128, AVX512F)
	vec(m, p6, 0x17, "movhpd", SSE2, vex128, AVX512F)
	for _, op := range []byte{0x28, 0x29} {
		vec(m, np, op, "movaps", SSE, vexAVX, AVX512F)
		vec(m, p6, op, "movapd", SSE2, vexAVX, AVX512F)
	}
	vec(m, np, 0x2B, "movntps", SSE, vexAVX, AVX512F)
	vec(m, p6, 0x2B, "movntpd", SSE2, vexAVX, AVX512F)
	scalarOp(m, np, 0x2E, "ucomiss", SSE, AVX512F)
	scalarOp(m, p6, 0x2E, "ucomisd", SSE2, AVX512F)
	scalarOp(m, np, 0x2F, "comiss", SSE, AVX512F)
	scalarOp(m, p6, 0x2F, "comisd", SSE2, AVX512F)
	vec(m, np, 0x50, "movmskps", SSE, vexAVX, none)
	vec(m, p6, 0x50, "movmskpd", SSE2, vexAVX, none)
	vec(m, np, 0x52, "rsqrtps", SSE, vexAVX, none)
	scalarOp(m, f3, 0x52, "rsqrtss", SSE, none)
	vec(m, np, 0x53, "rcpps", SSE, vexAVX, none)
	scalarOp(m, f3, 0x53, "rcpss", SSE, none)
	for op, base := range map[byte]string{0x54: "and", 0x55: "andn", 0x56: "or", 0x57: "xor"} {
		vec(m, np, op, base+"ps", SSE, vexAVX, AVX512DQ)
		vec(m, p6, op, base+"pd", SSE2, vexAVX, AVX512DQ)
	}
	vec(m, np, 0xC6, "shufps", SSE, vexAVX, AVX512F)
	vec(m, p6, 0xC6, "shufpd", SSE2, vexAVX, AVX512F)

	// Conversions. The MMX-operand forms have no VEX or EVEX encoding.
	add(
		legacy(m, np, 0x2A, "cvtpi2ps", SSE),
		legacy(m, p6, 0x2A, "cvtpi2pd", SSE2),
		legacy(m, np, 0x2C, "cvttps2pi", SSE),
		legacy(m, p6, 0x2C, "cvttpd2pi", SSE2),
		legacy(m, np, 0x2D, "cvtps2pi", SSE),
		legacy(m, p6, 0x2D, "cvtpd2pi", SSE2),
	)
	scalarOp(m, f3, 0x2A, "cvtsi2ss", SSE, AVX512F)
	scalarOp(m, f2, 0x2A, "cvtsi2sd", SSE2, AVX512F)
	scalarOp(m, f3, 0x2C, "cvttss2si", SSE, AVX512F)
	scalarOp(m, f2, 0x2C, "cvttsd2si", SSE2, AVX512F)
	scalarOp(m, f3, 0x2D, "cvtss2si", SSE, AVX512F)
	scalarOp(m, f2, 0x2D, "cvtsd2si", SSE2, AVX512F)
	vec(m, np, 0x5A, "cvtps2pd", SSE2, vexAVX, AVX512F)
	vec(m, p6, 0x5A, "cvtpd2ps", SSE2, vexAVX, AVX512F)
	scalarOp(m, f3, 0x5A, "cvtss2sd", SSE2, AVX512F)
	scalarOp(m, f2, 0x5A, "cvtsd2ss", SSE2, AVX512F)
	vec(m, np, 0x5B, "cvtdq2ps", SSE2, vexAVX, AVX512F)
	vec(m, p6, 0x5B, "cvtps2dq", SSE2, vexAVX, AVX512F)
	vec(m, f3, 0x5B, "cvttps2dq", SSE2, vexAVX, AVX512F)
	vec(m, p6, 0xE6, "cvttpd2dq", SSE2, vexAVX, AVX512F)
	vec(m, f3, 0xE6, "cvtdq2pd", SSE2, vexAVX, AVX512F)
	vec(m, f2, 0xE6, "cvtpd2dq", SSE2, vexAVX, AVX512F)

	vec(m, p6, 0x7C, "haddpd", SSE3, vexAVX, none)
	vec(m, f2, 0x7C, "haddps", SSE3, vexAVX, none)
	vec(m, p6, 0x7D, "hsubpd", SSE3, vexAVX, none)
	vec(m, f2, 0x7D, "hsubps", SSE3, vexAVX, none)
	vec(m, p6, 0xD0, "addsubpd", SSE3, vexAVX, none)
	vec(m, f2, 0xD0, "addsubps", SSE3, vexAVX, none)
	vec(m, f2, 0xF0, "lddqu", SSE3, vexAVX, none)
}

// integerRows holds the MMX, SSE2 and SSSE3 through SSE4.2 integer
// operations and their VEX and EVEX forms.
func integerRows() {
	const (
		m2 = disasm.Map0F
		m3 = disasm.Map0F38
		ma = disasm.Map0F3A
		np = disasm.NoPrefix
		p6 = disasm.Prefix66
		f3 = disasm.PrefixF3
		f2 = disasm.PrefixF2
		bw = AVX512BW
		f  = AVX512F
	)
	mmx(0x60, "punpcklbw", MMX, bw)
	mmx(0x61, "punpcklwd", MMX, bw)
	mmx(0x62, "punpckldq", MMX, f)
	mmx(0x63, "packsswb", MMX, bw)
	mmx(0x64, "pcmpgtb", MMX, bw)
	mmx(0x65, "pcmpgtw", MMX, bw)
	mmx(0x66, "pcmpgtd", MMX, f)
	mmx(0x67, "packuswb", MMX, bw)
	mmx(0x68, "punpckhbw", MMX, bw)
	mmx(0x69, "punpckhwd", MMX, bw)
	mmx(0x6A, "punpckhdq", MMX, f)
	mmx(0x6B, "packssdw", MMX, bw)
	mmx(0x6C, "punpcklqdq", none, f)
	mmx(0x6D, "punpckhqdq", none, f)
	mmx(0x74, "pcmpeqb", MMX, bw)
	mmx(0x75, "pcmpeqw", MMX, bw)
	mmx(0x76, "pcmpeqd", MMX, f)
	mmx(0xD1, "psrlw", MMX, bw)
	mmx(0xD2, "psrld", MMX, f)
	mmx(0xD3, "psrlq", MMX, f)
	mmx(0xD4, "paddq", SSE2, f)
	mmx(0xD5, "pmullw", MMX, bw)
	mmx(0xD7, "pmovmskb", SSE, none)
	mmx(0xD8, "psubusb", MMX, bw)
	mmx(0xD9, "psubusw", MMX, bw)
	mmx(0xDA, "pminub", SSE, bw)
	mmx(0xDB, "pand", MMX, f)
	mmx(0xDC, "paddusb", MMX, bw)
	mmx(0xDD, "paddusw", MMX, bw)
	mmx(0xDE, "pmaxub", SSE, bw)
	mmx(0xDF, "pandn", MMX, f)
	mmx(0xE0, "pavgb", SSE, bw)
	mmx(0xE1, "psraw", MMX, bw)
	mmx(0xE2, "psrad", MMX, f)
	mmx(0xE3, "pavgw", SSE, bw)
	mmx(0xE4, "pmulhuw", SSE, bw)
	mmx(0xE5, "pmulhw", MMX, bw)
	mmx(0xE8, "psubsb", MMX, bw)
	mmx(0xE9, "psubsw", MMX, bw)
	mmx(0xEA, "pminsw", SSE, bw)
	mmx(0xEB, "por", MMX, f)
	mmx(0xEC, "paddsb", MMX, bw)
	mmx(0xED, "paddsw", MMX, bw)
	mmx(0xEE, "pmaxsw", SSE, bw)
	mmx(0xEF, "pxor", MMX, f)
	mmx(0xF1, "psllw", MMX, bw)
	mmx(0xF2, "pslld", MMX, f)
	mmx(0xF3, "psllq", MMX, f)
	mmx(0xF4, "pmuludq", SSE2, f)
	mmx(0xF5, "pmaddwd", MMX, bw)
	mmx(0xF6, "psadbw", SSE, bw)
	mmx(0xF8, "psubb", MMX, bw)
	mmx(0xF9, "psubw", MMX, bw)
	mmx(0xFA, "psubd", MMX, f)
	mmx(0xFB, "psubq", SSE2, f)
	mmx(0xFC, "paddb", MMX, bw)
	mmx(0xFD, "paddw", MMX, bw)
	mmx(0xFE, "paddd", MMX, f)

	// Shifts by immediate select the operation with ModRM.reg.
	shifts := []struct {
		op   byte
		reg  int8
		name string
		np   Feature
		ev   Feature
	}{
		{0x71, 2, "psrlw", MMX, bw}, {0x71, 4, "psraw", MMX, bw}, {0x71, 6, "psllw", MMX, bw},
		{0x72, 2, "psrld", MMX, f}, {0x72, 4, "psrad", MMX, f}, {0x72, 6, "pslld", MMX, f},
		{0x73, 2, "psrlq", MMX, f}, {0x73, 3, "psrldq", none, bw}, {0x73, 6, "psllq", MMX, f}, {0x73, 7, "pslldq", none, bw},
	}
	for _, s := range shifts {
		if s.np != none {
			add(legacy(m2, np, s.op, s.name, s.np).reg(s.reg))
		}
		v := "v" + s.name
		add(
			legacy(m2, p6, s.op, s.name, SSE2).reg(s.reg),
			vex(m2, p6, s.op, v, AVX).reg(s.reg).l(128),
			vex(m2, p6, s.op, v, AVX, AVX2).reg(s.reg).l(256),
			evex(m2, p6, s.op, v, s.ev).reg(s.reg),
		)
	}
	add(
		evex(m2, p6, 0x72, "vprord", f).reg(0),
		evex(m2, p6, 0x72, "vprold", f).reg(1),
	)

	// Moves between general, MMX and vector registers.
	add(
		legacy(m2, np, 0x6E, "movd", MMX),
		legacy(m2, np, 0x7E, "movd", MMX),
		legacy(m2, np, 0x6F, "movq", MMX),
		legacy(m2, np, 0x7F, "movq", MMX),
		legacy(m2, f3, 0xD6, "movq2dq", SSE2),
		legacy(m2, f2, 0xD6, "movdq2q", SSE2),
		legacy(m2, np, 0x70, "pshufw", SSE),
		legacy(m2, np, 0xC4, "pinsrw", SSE),
		legacy(m2, np, 0xC5, "pextrw", SSE),
		legacy(m2, np, 0xE7, "movntq", SSE),
		legacy(m2, np, 0xF7, "maskmovq", SSE),
		evex(m2, f2, 0x6F, "vmovdqu8", bw).w(false),
		evex(m2, f2, 0x6F, "vmovdqu16", bw),
		evex(m2, f2, 0x7F, "vmovdqu8", bw).w(false),
		evex(m2, f2, 0x7F, "vmovdqu16", bw),
	)
	scalarOp(m2, p6, 0x6E, "movd", SSE2, f)
	scalarOp(m2, p6, 0x7E, "movd", SSE2, f)
	scalarOp(m2, f3, 0x7E, "movq", SSE2, f)
	scalarOp(m2, p6, 0xD6, "movq", SSE2, f)
	scalarOp(m2, p6, 0xC4, "pinsrw", SSE2, bw)
	scalarOp(m2, p6, 0xC5, "pextrw", SSE2, bw)
	for _, op := range []byte{0x6F, 0x7F} {
		vec(m2, p6, op, "movdqa", SSE2, vexAVX, none)
		vec(m2, f3, op, "movdqu", SSE2, vexAVX, none)
		add(
			evex(m2, p6, op, "vmovdqa32", f).w(false),
			evex(m2, p6, op, "vmovdqa64", f).w(true),
			evex(m2, f3, op, "vmovdqu32", f).w(false),
			evex(m2, f3, op, "vmovdqu64", f).w(true),
		)
	}
	vec(m2, p6, 0x70, "pshufd", SSE2, vexAVX2, f)
	vec(m2, f3, 0x70, "pshufhw", SSE2, vexAVX2, bw)
	vec(m2, f2, 0x70, "pshuflw", SSE2, vexAVX2, bw)
	vec(m2, p6, 0xE7, "movntdq", SSE2, vexAVX, f)
	vec(m2, p6, 0xF7, "maskmovdqu", SSE2, vex128, none)

	ssse3(0x00, "pshufb", bw)
	ssse3(0x01, "phaddw", none)
	ssse3(0x02, "phaddd", none)
	ssse3(0x03, "phaddsw", none)
	ssse3(0x04, "pmaddubsw", bw)
	ssse3(0x05, "phsubw", none)
	ssse3(0x06, "phsubd", none)
	ssse3(0x07, "phsubsw", none)
	ssse3(0x08, "psignb", none)
	ssse3(0x09, "psignw", none)
	ssse3(0x0A, "psignd", none)
	ssse3(0x0B, "pmulhrsw", bw)
	ssse3(0x1C, "pabsb", bw)
	ssse3(0x1D, "pabsw", bw)
	ssse3(0x1E, "pabsd", f)
	add(legacy(ma, np, 0x0F, "palignr", SSSE3))
	vec(ma, p6, 0x0F, "palignr", SSSE3, vexAVX2, bw)

	add(
		legacy(m3, p6, 0x10, "pblendvb", SSE41),
		legacy(m3, p6, 0x14, "blendvps", SSE41),
		legacy(m3, p6, 0x15, "blendvpd", SSE41),
	)
	vec(m3, p6, 0x17, "ptest", SSE41, vexAVX, none)
	sse41 := []struct {
		op   byte
		name string
		ev   Feature
	}{
		{0x20, "pmovsxbw", bw}, {0x21, "pmovsxbd", f}, {0x22, "pmovsxbq", f},
		{0x23, "pmovsxwd", f}, {0x24, "pmovsxwq", f}, {0x25, "pmovsxdq", f},
		{0x28, "pmuldq", f}, {0x29, "pcmpeqq", f}, {0x2A, "movntdqa", f}, {0x2B, "packusdw", bw},
		{0x30, "pmovzxbw", bw}, {0x31, "pmovzxbd", f}, {0x32, "pmovzxbq", f},
		{0x33, "pmovzxwd", f}, {0x34, "pmovzxwq", f}, {0x35, "pmovzxdq", f},
		{0x38, "pminsb", bw}, {0x39, "pminsd", f}, {0x3A, "pminuw", bw}, {0x3B, "pminud", f},
		{0x3C, "pmaxsb", bw}, {0x3D, "pmaxsd", f}, {0x3E, "pmaxuw", bw}, {0x3F, "pmaxud", f},
		{0x40, "pmulld", f},
	}
	for _, o := range sse41 {
		vec(m3, p6, o.op, o.name, SSE41, vexAVX2, o.ev)
	}
	vec(m3, p6, 0x37, "pcmpgtq", SSE42, vexAVX2, f)
	vec(m3, p6, 0x41, "phminposuw", SSE41, vex128, none)

	vec(ma, p6, 0x08, "roundps", SSE41, vexAVX, none)
	vec(ma, p6, 0x09, "roundpd", SSE41, vexAVX, none)
	scalarOp(ma, p6, 0x0A, "roundss", SSE41, none)
	scalarOp(ma, p6, 0x0B, "roundsd", SSE41, none)
	vec(ma, p6, 0x0C, "blendps", SSE41, vexAVX, none)
	vec(ma, p6, 0x0D, "blendpd", SSE41, vexAVX, none)
	vec(ma, p6, 0x0E, "pblendw", SSE41, vexAVX2, none)
	scalarOp(ma, p6, 0x14, "pextrb", SSE41, bw)
	scalarOp(ma, p6, 0x15, "pextrw", SSE41, bw)
	scalarOp(ma, p6, 0x16, "pextrd", SSE41, AVX512DQ)
	scalarOp(ma, p6, 0x17, "extractps", SSE41, f)
	scalarOp(ma, p6, 0x20, "pinsrb", SSE41, bw)
	scalarOp(ma, p6, 0x21, "insertps", SSE41, f)
	scalarOp(ma, p6, 0x22, "pinsrd", SSE41, AVX512DQ)
	vec(ma, p6, 0x40, "dpps", SSE41, vexAVX, none)
	vec(ma, p6, 0x41, "dppd", SSE41, vex128, none)
	vec(ma, p6, 0x42, "mpsadbw", SSE41, vexAVX2, none)
	vec(ma, p6, 0x60, "pcmpestrm", SSE42, vex128, none)
	vec(ma, p6, 0x61, "pcmpestri", SSE42, vex128, none)
	vec(ma, p6, 0x62, "pcmpistrm", SSE42, vex128, none)
	vec(ma, p6, 0x63, "pcmpistri", SSE42, vex128, none)

	// AES, carry-less multiply and GFNI change extension with the encoding
	// and the vector length.
	for op, name := range map[byte]string{0xDC: "aesenc", 0xDD: "aesenclast", 0xDE: "aesdec", 0xDF: "aesdeclast"} {
		add(
			legacy(m3, p6, op, name, AES),
			vex(m3, p6, op, "v"+name, AES, AVX).l(128),
			vex(m3, p6, op, "v"+name, VAES, AVX).l(256),
			evex(m3, p6, op, "v"+name, VAES),
		)
	}
	add(
		legacy(m3, p6, 0xDB, "aesimc", AES),
		vex(m3, p6, 0xDB, "vaesimc", AES, AVX),
		legacy(ma, p6, 0xDF, "aeskeygenassist", AES),
		vex(ma, p6, 0xDF, "vaeskeygenassist", AES, AVX),
		legacy(ma, p6, 0x44, "pclmulqdq", PCLMULQDQ),
		vex(ma, p6, 0x44, "vpclmulqdq", PCLMULQDQ, AVX).l(128),
		vex(ma, p6, 0x44, "vpclmulqdq", VPCLMULQDQ, AVX).l(256),
		evex(ma, p6, 0x44, "vpclmulqdq", VPCLMULQDQ),
	)
	for _, g := range []struct {
		m    disasm.Map
		op   byte
		name string
	}{{m3, 0xCF, "gf2p8mulb"}, {ma, 0xCE, "gf2p8affineqb"}, {ma, 0xCF, "gf2p8affineinvqb"}} {
		add(
			legacy(g.m, p6, g.op, g.name, GFNI),
			vex(g.m, p6, g.op, "v"+g.name, GFNI, AVX),
			evex(g.m, p6, g.op, "v"+g.name, GFNI),
		)
	}
}

// vexRows holds operations that exist only in VEX form.
func vexRows() {
	const (
		m1 = disasm.Map0F
		m2 = disasm.Map0F38
		m3 = disasm.Map0F3A
		np = disasm.NoPrefix
		p6 = disasm.Prefix66
		f3 = disasm.PrefixF3
		f2 = disasm.PrefixF2
	)
	add(
		vex(m1, np, 0x77, "vzeroupper", AVX).l(128),
		vex(m1, np, 0x77, "vzeroall", AVX).l(256),
		vex(m1, np, 0xAE, "vldmxcsr", AVX).reg(2).mem(),
		vex(m1, np, 0xAE, "vstmxcsr", AVX).reg(3).mem(),

		vex(m2, p6, 0x0C, "vpermilps", AVX),
		vex(m2, p6, 0x0D, "vpermilpd", AVX),
		vex(m2, p6, 0x0E, "vtestps", AVX),
		vex(m2, p6, 0x0F, "vtestpd", AVX),
		vex(m2, p6, 0x13, "vcvtph2ps", F16C, AVX),
		vex(m2, p6, 0x16, "vpermps", AVX, AVX2),
		vex(m2, p6, 0x18, "vbroadcastss", AVX).mem(),
		vex(m2, p6, 0x18, "vbroadcastss", AVX, AVX2),
		vex(m2, p6, 0x19, "vbroadcastsd", AVX).mem(),
		vex(m2, p6, 0x19, "vbroadcastsd", AVX, AVX2),
		vex(m2, p6, 0x1A, "vbroadcastf128", AVX),
		vex(m2, p6, 0x2C, "vmaskmovps", AVX),
		vex(m2, p6, 0x2D, "vmaskmovpd", AVX),
		vex(m2, p6, 0x2E, "vmaskmovps", AVX),
		vex(m2, p6, 0x2F, "vmaskmovpd", AVX),
		vex(m2, p6, 0x36, "vpermd", AVX, AVX2),
		vex(m2, p6, 0x45, "vpsrlvd", AVX, AVX2),
		vex(m2, p6, 0x46, "vpsravd", AVX, AVX2),
		vex(m2, p6, 0x47, "vpsllvd", AVX, AVX2),
		vex(m2, p6, 0x58, "vpbroadcastd", AVX, AVX2),
		vex(m2, p6, 0x59, "vpbroadcastq", AVX, AVX2),
		vex(m2, p6, 0x5A, "vbroadcasti128", AVX, AVX2),
		vex(m2, p6, 0x78, "vpbroadcastb", AVX, AVX2),
		vex(m2, p6, 0x79, "vpbroadcastw", AVX, AVX2),
		vex(m2, p6, 0x8C, "vpmaskmovd", AVX, AVX2),
		vex(m2, p6, 0x8E, "vpmaskmovd", AVX, AVX2),
		vex(m2, p6, 0x90, "vpgatherdd", AVX, AVX2),
		vex(m2, p6, 0x91, "vpgatherqd", AVX, AVX2),
		vex(m2, p6, 0x92, "vgatherdps", AVX, AVX2),
		vex(m2, p6, 0x93, "vgatherqps", AVX, AVX2),
		vex(m2, p6, 0x50, "vpdpbusd", AVXVNNI),
		vex(m2, p6, 0x51, "vpdpbusds", AVXVNNI),
		vex(m2, p6, 0x52, "vpdpwssd", AVXVNNI),
		vex(m2, p6, 0x53, "vpdpwssds", AVXVNNI),

		vex(m2, np, 0xF2, "andn", BMI1),
		vex(m2, np, 0xF3, "blsr", BMI1).reg(1),
		vex(m2, np, 0xF3, "blsmsk", BMI1).reg(2),
		vex(m2, np, 0xF3, "blsi", BMI1).reg(3),
		vex(m2, np, 0xF5, "bzhi", BMI2),
		vex(m2, f3, 0xF5, "pext", BMI2),
		vex(m2, f2, 0xF5, "pdep", BMI2),
		vex(m2, f2, 0xF6, "mulx", BMI2),
		vex(m2, np, 0xF7, "bextr", BMI1),
		vex(m2, p6, 0xF7, "shlx", BMI2),
		vex(m2, f3, 0xF7, "sarx", BMI2),
		vex(m2, f2, 0xF7, "shrx", BMI2),
		vex(m3, f2, 0xF0, "rorx", BMI2),

		vex(m3, p6, 0x00, "vpermq", AVX, AVX2),
		vex(m3, p6, 0x01, "vpermpd", AVX, AVX2),
		vex(m3, p6, 0x02, "vpblendd", AVX, AVX2),
		vex(m3, p6, 0x04, "vpermilps", AVX),
		vex(m3, p6, 0x05, "vpermilpd", AVX),
		vex(m3, p6, 0x06, "vperm2f128", AVX),
		vex(m3, p6, 0x18, "vinsertf128", AVX),
		vex(m3, p6, 0x19, "vextractf128", AVX),
		vex(m3, p6, 0x1D, "vcvtps2ph", F16C, AVX),
		vex(m3, p6, 0x38, "vinserti128", AVX, AVX2),
		vex(m3, p6, 0x39, "vextracti128", AVX, AVX2),
		vex(m3, p6, 0x46, "vperm2i128", AVX, AVX2),
		vex(m3, p6, 0x48, "vpermil2ps", XOP),
		vex(m3, p6, 0x49, "vpermil2pd", XOP),
		vex(m3, p6, 0x4A, "vblendvps", AVX),
		vex(m3, p6, 0x4B, "vblendvpd", AVX),
		vex(m3, p6, 0x4C, "vpblendvb", AVX).l(128),
		vex(m3, p6, 0x4C, "vpblendvb", AVX, AVX2).l(256),
	)
	fmaRows()
	fma4Rows()
}

var fmaOps = map[byte]string{
	0x6: "fmaddsub", 0x7: "fmsubadd",
	0x8: "fmadd", 0x9: "fmadd",
	0xA: "fmsub", 0xB: "fmsub",
	0xC: "fnmadd", 0xD: "fnmadd",
	0xE: "fnmsub", 0xF: "fnmsub",
}

// fmaRows adds the three-operand FMA forms: 132, 213 and 231 operand
// orders in the 9x, Ax and Bx rows of map 0F38, W selecting the width.
func fmaRows() {
	for hi, order := range map[byte]string{0x90: "132", 0xA0: "213", 0xB0: "231"} {
		for lo, base := range fmaOps {
			op := hi | lo
			packed := lo < 0x8 || lo%2 == 0
			suffix := [2]string{"ps", "pd"}
			if !packed {
				suffix = [2]string{"ss", "sd"}
			}
			for i, w := range []bool{false, true} {
				name := "v" + base + order + suffix[i]
				v := vex(disasm.Map0F38, disasm.Prefix66, op, name, FMA, AVX).w(w)
				e := evex(disasm.Map0F38, disasm.Prefix66, op, name).w(w)
				if !packed {
					e = e.scalar()
				}
				add(v, e)
			}
		}
	}
}

// fma4Rows adds AMD's four-operand FMA4 forms from map 0F3A.
func fma4Rows() {
	for op, name := range map[byte]string{
		0x5C: "vfmaddsubps", 0x5D: "vfmaddsubpd", 0x5E: "vfmsubaddps", 0x5F: "vfmsubaddpd",
		0x68: "vfmaddps", 0x69: "vfmaddpd", 0x6A: "vfmaddss", 0x6B: "vfmaddsd",
		0x6C: "vfmsubps", 0x6D: "vfmsubpd", 0x6E: "vfmsubss", 0x6F: "vfmsubsd",
		0x78: "vfnmaddps", 0x79: "vfnmaddpd", 0x7A: "vfnmaddss", 0x7B: "vfnmaddsd",
		0x7C: "vfnmsubps", 0x7D: "vfnmsubpd", 0x7E: "vfnmsubss", 0x7F: "vfnmsubsd",
	} {
		add(vex(disasm.Map0F3A, disasm.Prefix66, op, name, FMA4))
	}
}

// maskRows adds the VEX-encoded AVX-512 opmask instructions. The mandatory
// prefix and W select the mask width: np.W0 word, 66.W0 byte, np.W1
// quadword, 66.W1 doubleword.
func maskRows() {
	widths := []struct {
		p      disasm.Mandatory
		w      bool
		suffix string
		f      Feature
	}{
		{disasm.NoPrefix, false, "w", AVX512F},
		{disasm.Prefix66, false, "b", AVX512DQ},
		{disasm.NoPrefix, true, "q", AVX512BW},
		{disasm.Prefix66, true, "d", AVX512BW},
	}
	ops := map[byte]string{
		0x41: "kand", 0x42: "kandn", 0x44: "knot", 0x45: "kor", 0x46: "kxnor", 0x47: "kxor",
		0x4A: "kadd", 0x4B: "kunpck", 0x90: "kmov", 0x91: "kmov", 0x92: "kmov", 0x93: "kmov",
		0x98: "kortest", 0x99: "ktest",
	}
	for op, name := range ops {
		for _, wd := range widths {
			add(vex(disasm.Map0F, wd.p, op, name+wd.suffix, wd.f, AVX512F).w(wd.w))
		}
	}
	add(
		vex(disasm.Map0F, disasm.PrefixF2, 0x92, "kmovd", AVX512BW, AVX512F).w(false),
		vex(disasm.Map0F, disasm.PrefixF2, 0x92, "kmovq", AVX512BW, AVX512F),
		vex(disasm.Map0F, disasm.PrefixF2, 0x93, "kmovd", AVX512BW, AVX512F).w(false),
		vex(disasm.Map0F, disasm.PrefixF2, 0x93, "kmovq", AVX512BW, AVX512F),
		vex(disasm.Map0F3A, disasm.Prefix66, 0x30, "kshiftrb", AVX512DQ, AVX512F).w(false),
		vex(disasm.Map0F3A, disasm.Prefix66, 0x30, "kshiftrw", AVX512F),
		vex(disasm.Map0F3A, disasm.Prefix66, 0x31, "kshiftrd", AVX512BW, AVX512F),
		vex(disasm.Map0F3A, disasm.Prefix66, 0x32, "kshiftlb", AVX512DQ, AVX512F).w(false),
		vex(disasm.Map0F3A, disasm.Prefix66, 0x32, "kshiftlw", AVX512F),
		vex(disasm.Map0F3A, disasm.Prefix66, 0x33, "kshiftld", AVX512BW, AVX512F),
	)
}

// evexRows holds operations that exist only in EVEX form or whose EVEX
// form needs an extension beyond AVX512F.
func evexRows() {
	const (
		m2 = disasm.Map0F38
		m3 = disasm.Map0F3A
		p6 = disasm.Prefix66
		f3 = disasm.PrefixF3
		f2 = disasm.PrefixF2
		np = disasm.NoPrefix
	)
	add(
		evex(m2, p6, 0x10, "vpsrlvw", AVX512BW),
		evex(m2, p6, 0x11, "vpsravw", AVX512BW),
		evex(m2, p6, 0x12, "vpsllvw", AVX512BW),
		evex(m2, p6, 0x13, "vcvtph2ps"),
		evex(m2, p6, 0x18, "vbroadcastss"),
		evex(m2, p6, 0x19, "vbroadcastsd"),
		evex(m2, p6, 0x1A, "vbroadcastf32x4"),
		evex(m2, p6, 0x1B, "vbroadcastf64x4"),
		evex(m2, p6, 0x1F, "vpabsq"),
		evex(m2, p6, 0x2C, "vscalefps"),
		evex(m2, p6, 0x36, "vpermd"),
		evex(m2, p6, 0x44, "vplzcntd", AVX512CD),
		evex(m2, p6, 0xC4, "vpconflictd", AVX512CD),
		evex(m2, f3, 0x2A, "vpbroadcastmb2q", AVX512CD),
		evex(m2, f3, 0x3A, "vpbroadcastmw2d", AVX512CD),
		evex(m2, p6, 0x45, "vpsrlvd"),
		evex(m2, p6, 0x46, "vpsravd"),
		evex(m2, p6, 0x47, "vpsllvd"),
		evex(m2, p6, 0x4C, "vrcp14ps"),
		evex(m2, p6, 0x4E, "vrsqrt14ps"),
		evex(m2, p6, 0x50, "vpdpbusd", AVX512VNNI),
		evex(m2, p6, 0x51, "vpdpbusds", AVX512VNNI),
		evex(m2, p6, 0x52, "vpdpwssd", AVX512VNNI),
		evex(m2, p6, 0x53, "vpdpwssds", AVX512VNNI),
		evex(m2, f3, 0x52, "vdpbf16ps", AVX512BF16),
		evex(m2, f3, 0x72, "vcvtneps2bf16", AVX512BF16),
		evex(m2, f2, 0x72, "vcvtne2ps2bf16", AVX512BF16),
		evex(m2, p6, 0x54, "vpopcntb", AVX512BITALG),
		evex(m2, p6, 0x55, "vpopcntd", AVX512VPOPCNTDQ),
		evex(m2, p6, 0x8F, "vpshufbitqmb", AVX512BITALG),
		evex(m2, p6, 0x58, "vpbroadcastd"),
		evex(m2, p6, 0x59, "vpbroadcastq"),
		evex(m2, p6, 0x5A, "vbroadcasti32x4"),
		evex(m2, p6, 0x5B, "vbroadcasti64x4"),
		evex(m2, p6, 0x62, "vpexpandb", AVX512VBMI2),
		evex(m2, p6, 0x63, "vpcompressb", AVX512VBMI2),
		evex(m2, p6, 0x64, "vpblendmd"),
		evex(m2, p6, 0x65, "vblendmps"),
		evex(m2, p6, 0x66, "vpblendmb", AVX512BW),
		evex(m2, p6, 0x70, "vpshldvw", AVX512VBMI2),
		evex(m2, p6, 0x71, "vpshldvd", AVX512VBMI2),
		evex(m2, p6, 0x72, "vpshrdvw", AVX512VBMI2),
		evex(m2, p6, 0x73, "vpshrdvd", AVX512VBMI2),
		evex(m2, p6, 0x75, "vpermi2b", AVX512VBMI).w(false),
		evex(m2, p6, 0x75, "vpermi2w", AVX512BW),
		evex(m2, p6, 0x76, "vpermi2d"),
		evex(m2, p6, 0x77, "vpermi2ps"),
		evex(m2, p6, 0x78, "vpbroadcastb", AVX512BW),
		evex(m2, p6, 0x79, "vpbroadcastw", AVX512BW),
		evex(m2, p6, 0x7A, "vpbroadcastb", AVX512BW),
		evex(m2, p6, 0x7B, "vpbroadcastw", AVX512BW),
		evex(m2, p6, 0x7C, "vpbroadcastd"),
		evex(m2, p6, 0x7D, "vpermt2b", AVX512VBMI).w(false),
		evex(m2, p6, 0x7D, "vpermt2w", AVX512BW),
		evex(m2, p6, 0x7E, "vpermt2d"),
		evex(m2, p6, 0x7F, "vpermt2ps"),
		evex(m2, p6, 0x83, "vpmultishiftqb", AVX512VBMI),
		evex(m2, p6, 0x88, "vexpandps"),
		evex(m2, p6, 0x89, "vpexpandd"),
		evex(m2, p6, 0x8A, "vcompressps"),
		evex(m2, p6, 0x8B, "vpcompressd"),
		evex(m2, p6, 0x8D, "vpermb", AVX512VBMI).w(false),
		evex(m2, p6, 0x8D, "vpermw", AVX512BW),
		evex(m2, p6, 0xB4, "vpmadd52luq", AVX512IFMA),
		evex(m2, p6, 0xB5, "vpmadd52huq", AVX512IFMA),

		evex(m3, p6, 0x00, "vpermq"),
		evex(m3, p6, 0x01, "vpermpd"),
		evex(m3, p6, 0x03, "valignd"),
		evex(m3, p6, 0x08, "vrndscaleps"),
		evex(m3, p6, 0x09, "vrndscalepd"),
		evex(m3, p6, 0x0A, "vrndscaless").scalar(),
		evex(m3, p6, 0x0B, "vrndscalesd").scalar(),
		evex(m3, p6, 0x18, "vinsertf32x4"),
		evex(m3, p6, 0x19, "vextractf32x4"),
		evex(m3, p6, 0x1A, "vinsertf64x4"),
		evex(m3, p6, 0x1B, "vextractf64x4"),
		evex(m3, p6, 0x1D, "vcvtps2ph"),
		evex(m3, p6, 0x1E, "vpcmpud"),
		evex(m3, p6, 0x1F, "vpcmpd"),
		evex(m3, p6, 0x23, "vshuff32x4"),
		evex(m3, p6, 0x25, "vpternlogd"),
		evex(m3, p6, 0x26, "vgetmantps"),
		evex(m3, p6, 0x27, "vgetmantss").scalar(),
		evex(m3, p6, 0x38, "vinserti32x4"),
		evex(m3, p6, 0x39, "vextracti32x4"),
		evex(m3, p6, 0x3A, "vinserti64x4"),
		evex(m3, p6, 0x3B, "vextracti64x4"),
		evex(m3, p6, 0x3E, "vpcmpub", AVX512BW),
		evex(m3, p6, 0x3F, "vpcmpb", AVX512BW),
		evex(m3, p6, 0x42, "vdbpsadbw", AVX512BW),
		evex(m3, p6, 0x43, "vshufi32x4"),
		evex(m3, p6, 0x50, "vrangeps", AVX512DQ),
		evex(m3, p6, 0x51, "vrangess", AVX512DQ).scalar(),
		evex(m3, p6, 0x54, "vfixupimmps"),
		evex(m3, p6, 0x55, "vfixupimmss").scalar(),
		evex(m3, p6, 0x56, "vreduceps", AVX512DQ),
		evex(m3, p6, 0x57, "vreducess", AVX512DQ).scalar(),
		evex(m3, p6, 0x66, "vfpclassps", AVX512DQ),
		evex(m3, p6, 0x67, "vfpclassss", AVX512DQ).scalar(),
		evex(m3, p6, 0x70, "vpshldw", AVX512VBMI2),
		evex(m3, p6, 0x71, "vpshldd", AVX512VBMI2),
		evex(m3, p6, 0x72, "vpshrdw", AVX512VBMI2),
		evex(m3, p6, 0x73, "vpshrdd", AVX512VBMI2),
	)
	for op, base := range map[byte]string{0x51: "sqrt", 0x58: "add", 0x59: "mul", 0x5C: "sub", 0x5D: "min", 0x5E: "div", 0x5F: "max"} {
		add(
			evex(disasm.Map5, np, op, "v"+base+"ph", AVX512FP16),
			evex(disasm.Map5, f3, op, "v"+base+"sh", AVX512FP16).scalar(),
		)
	}
}

func xopRows() {
	const (
		m8 = disasm.MapXOP8
		m9 = disasm.MapXOP9
		ma = disasm.MapXOPA
	)
	add(
		xop(m9, 0x01, "blcfill", TBM).reg(1),
		xop(m9, 0x01, "blsfill", TBM).reg(2),
		xop(m9, 0x01, "blcs", TBM).reg(3),
		xop(m9, 0x01, "tzmsk", TBM).reg(4),
		xop(m9, 0x01, "blcic", TBM).reg(5),
		xop(m9, 0x01, "blsic", TBM).reg(6),
		xop(m9, 0x01, "t1mskc", TBM).reg(7),
		xop(m9, 0x02, "blcmsk", TBM).reg(1),
		xop(m9, 0x02, "blci", TBM).reg(6),
		xop(ma, 0x10, "bextr", TBM),

		xop(m8, 0xA2, "vpcmov", XOP),
		xop(m8, 0xA3, "vpperm", XOP),
		xop(m8, 0xC0, "vprotb", XOP),
		xop(m8, 0xC1, "vprotw", XOP),
		xop(m8, 0xC2, "vprotd", XOP),
		xop(m8, 0xC3, "vprotq", XOP),
		xop(m8, 0xCC, "vpcomb", XOP),
		xop(m8, 0xCD, "vpcomw", XOP),
		xop(m8, 0xCE, "vpcomd", XOP),
		xop(m8, 0xCF, "vpcomq", XOP),
		xop(m8, 0xEC, "vpcomub", XOP),
		xop(m8, 0xED, "vpcomuw", XOP),
		xop(m8, 0xEE, "vpcomud", XOP),
		xop(m8, 0xEF, "vpcomuq", XOP),
		xop(m9, 0x80, "vfrczps", XOP),
		xop(m9, 0x81, "vfrczpd", XOP),
		xop(m9, 0x82, "vfrczss", XOP),
		xop(m9, 0x83, "vfrczsd", XOP),
	)
}

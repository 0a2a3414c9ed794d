// Package disasm decodes x86 and x86-64 machine code into a stream of
// instructions. It recovers instruction boundaries and the encoding shape
// (prefixes, opcode map, opcode, ModRM, vector length) needed to classify
// an instruction; it does not resolve operands.
package disasm

import "fmt"

// MaxInstLen is the architectural upper bound on an instruction's length.
const MaxInstLen = 15

// Encoding identifies the prefix scheme an instruction was encoded with.
type Encoding uint8

const (
	Legacy Encoding = iota
	VEX
	EVEX
	XOP
)

func (e Encoding) String() string {
	switch e {
	case Legacy:
		return "legacy"
	case VEX:
		return "vex"
	case EVEX:
		return "evex"
	case XOP:
		return "xop"
	}
	return fmt.Sprintf("Encoding(%d)", uint8(e))
}

// Map is the opcode map an opcode byte was read from.
type Map uint8

const (
	MapOneByte Map = iota
	Map0F
	Map0F38
	Map0F3A
	Map5 // EVEX map 5
	Map6 // EVEX map 6
	MapXOP8
	MapXOP9
	MapXOPA
)

func (m Map) String() string {
	switch m {
	case MapOneByte:
		return "1b"
	case Map0F:
		return "0f"
	case Map0F38:
		return "0f38"
	case Map0F3A:
		return "0f3a"
	case Map5:
		return "map5"
	case Map6:
		return "map6"
	case MapXOP8:
		return "xop8"
	case MapXOP9:
		return "xop9"
	case MapXOPA:
		return "xopa"
	}
	return fmt.Sprintf("Map(%d)", uint8(m))
}

// Prefix is a set of legacy prefixes seen before the opcode. Repeated
// prefixes fold into the same bit.
type Prefix uint16

const (
	PrefixES Prefix = 1 << iota
	PrefixCS
	PrefixSS
	PrefixDS
	PrefixFS
	PrefixGS
	PrefixOpSize   // 0x66
	PrefixAddrSize // 0x67
	PrefixLock     // 0xF0
	PrefixREPNE    // 0xF2
	PrefixREP      // 0xF3
)

// Has reports whether every prefix in q is present in p.
func (p Prefix) Has(q Prefix) bool { return p&q == q }

// Mandatory is the prefix that selects between instructions sharing an
// opcode: the 66/F3/F2 legacy prefix or the VEX/EVEX/XOP pp field.
type Mandatory uint8

const (
	NoPrefix Mandatory = iota
	Prefix66
	PrefixF3
	PrefixF2
)

func (m Mandatory) String() string {
	switch m {
	case NoPrefix:
		return "np"
	case Prefix66:
		return "66"
	case PrefixF3:
		return "f3"
	case PrefixF2:
		return "f2"
	}
	return fmt.Sprintf("Mandatory(%d)", uint8(m))
}

// Inst is a decoded instruction. It is a plain value and holds no
// reference into the buffer it was decoded from.
type Inst struct {
	Offset    int       // offset within the decoded region
	Len       int       // encoded length, 1..MaxInstLen
	Mode      int       // 32 or 64
	Prefixes  Prefix    // legacy prefixes
	Mandatory Mandatory // opcode-selecting prefix
	Rex       byte      // REX byte, 0 when absent
	Encoding  Encoding
	Map       Map
	Opcode    byte
	ModRM     byte
	HasModRM  bool
	VectorLen int  // 128, 256 or 512 for VEX, EVEX and XOP; 0 for legacy
	W         bool // REX.W, VEX.W, EVEX.W or XOP.W
	Broadcast bool // EVEX.b
}

// Mod returns the ModRM.mod field.
func (i Inst) Mod() byte { return i.ModRM >> 6 }

// Reg returns the ModRM.reg field.
func (i Inst) Reg() byte { return (i.ModRM >> 3) & 7 }

// RM returns the ModRM.rm field.
func (i Inst) RM() byte { return i.ModRM & 7 }

// IsMemory reports whether the ModRM byte addresses memory.
func (i Inst) IsMemory() bool { return i.HasModRM && i.Mod() != 3 }

func (i Inst) String() string {
	s := fmt.Sprintf("%s %s %s %02x", i.Encoding, i.Map, i.Mandatory, i.Opcode)
	if i.HasModRM {
		s += fmt.Sprintf(" /%d", i.Reg())
	}
	if i.VectorLen != 0 {
		s += fmt.Sprintf(" L%d", i.VectorLen)
	}
	return s
}

// Reason says why a position could not be decoded.
type Reason uint8

const (
	ReasonTruncated     Reason = iota + 1 // instruction runs past the end of the region
	ReasonInvalidOpcode                   // opcode absent from the opcode tables
	ReasonBadPrefix                       // prefix combination the encoding rejects
	ReasonBadMap                          // VEX/EVEX/XOP map selector out of range
	ReasonTooLong                         // more than MaxInstLen bytes
)

func (r Reason) String() string {
	switch r {
	case ReasonTruncated:
		return "truncated instruction"
	case ReasonInvalidOpcode:
		return "invalid opcode"
	case ReasonBadPrefix:
		return "invalid prefix"
	case ReasonBadMap:
		return "invalid opcode map"
	case ReasonTooLong:
		return "instruction too long"
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

// DecodeError reports an undecodable position. Len is the number of bytes
// the stream skips for it: 1 for a resynchronisation step, or the rest of
// the region for a truncated instruction.
type DecodeError struct {
	Offset int
	Len    int
	Reason Reason
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at %#x: %s", e.Offset, e.Reason)
}

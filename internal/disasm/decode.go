package disasm

import (
	"errors"
	"iter"
)

// ErrMode is returned for a mode other than 32 or 64.
var ErrMode = errors.New("disasm: mode must be 32 or 64")

// errEnd is raised internally when a read runs past the decode window.
var errEnd = errors.New("end of input")

// Decode decodes the instruction at the start of src in the given mode
// (32 or 64). On failure it returns a *DecodeError with Offset 0.
func Decode(src []byte, mode int) (Inst, error) {
	if mode != 32 && mode != 64 {
		return Inst{}, ErrMode
	}
	d := decoder{src: src, mode: mode}
	if len(d.src) > MaxInstLen {
		d.src = d.src[:MaxInstLen]
	}
	reason := d.decode()
	if reason == 0 {
		d.inst.Len = d.pos
		return d.inst, nil
	}
	de := &DecodeError{Len: 1, Reason: reason}
	if reason == ReasonTruncated {
		if len(src) > MaxInstLen {
			de.Reason = ReasonTooLong
		} else {
			de.Len = len(src)
		}
	}
	return Inst{}, de
}

// Instructions returns the instruction stream of code. An undecodable byte
// yields a *DecodeError and decoding resumes one byte later; a truncated
// instruction at the end of code yields a single *DecodeError covering the
// remaining bytes and ends the stream. Every step consumes at least one
// byte, so the lengths of all instructions and errors sum to len(code).
func Instructions(code []byte, mode int) iter.Seq2[Inst, error] {
	return func(yield func(Inst, error) bool) {
		if mode != 32 && mode != 64 {
			yield(Inst{}, ErrMode)
			return
		}
		for off := 0; off < len(code); {
			inst, err := Decode(code[off:], mode)
			if err != nil {
				de := err.(*DecodeError)
				de.Offset = off
				if !yield(Inst{}, de) || de.Reason == ReasonTruncated {
					return
				}
				off += de.Len
				continue
			}
			inst.Offset = off
			if !yield(inst, nil) {
				return
			}
			off += inst.Len
		}
	}
}

type decoder struct {
	src  []byte
	pos  int
	mode int
	inst Inst
}

func (d *decoder) next() (byte, error) {
	if d.pos >= len(d.src) {
		return 0, errEnd
	}
	b := d.src[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) peek(n int) (byte, bool) {
	if d.pos+n >= len(d.src) {
		return 0, false
	}
	return d.src[d.pos+n], true
}

func (d *decoder) skip(n int) error {
	if n > len(d.src)-d.pos {
		return errEnd
	}
	d.pos += n
	return nil
}

// decode runs the per-instruction state machine and returns 0 on success.
func (d *decoder) decode() Reason {
	in := &d.inst
	in.Mode = d.mode

	last, err := d.prefixes()
	if err != nil {
		return ReasonTruncated
	}
	switch {
	case last == 0xF2:
		in.Mandatory = PrefixF2
	case last == 0xF3:
		in.Mandatory = PrefixF3
	case in.Prefixes.Has(PrefixOpSize):
		in.Mandatory = Prefix66
	}

	b, err := d.next()
	if err != nil {
		return ReasonTruncated
	}
	switch {
	case (b == 0xC4 || b == 0xC5) && d.extended():
		if reason := d.vex(b); reason != 0 {
			return reason
		}
	case b == 0x62 && d.extended():
		if reason := d.evex(); reason != 0 {
			return reason
		}
	case b == 0x8F && d.xop():
		if reason := d.xopPrefix(); reason != 0 {
			return reason
		}
	case b == 0x0F:
		if reason := d.escape(); reason != 0 {
			return reason
		}
	default:
		in.Map = MapOneByte
		in.Opcode = b
	}
	if in.Encoding == Legacy {
		in.W = in.Rex&0x08 != 0
	} else if in.Opcode, err = d.next(); err != nil {
		return ReasonTruncated
	}

	f := lookup(in)
	if f&opValid == 0 || (d.mode == 64 && f&opInv64 != 0) {
		return ReasonInvalidOpcode
	}
	if f&opModRM != 0 {
		if in.ModRM, err = d.next(); err != nil {
			return ReasonTruncated
		}
		in.HasModRM = true
		if in.Encoding == EVEX && in.Broadcast && in.Mod() == 3 {
			// EVEX.b on a register form is embedded rounding; L'L then
			// holds the rounding mode and the operation is full width.
			in.VectorLen = 512
		}
		if err := d.address(); err != nil {
			return ReasonTruncated
		}
	}
	if err := d.skip(d.immediate(f)); err != nil {
		return ReasonTruncated
	}
	return 0
}

// prefixes consumes legacy and REX prefixes and returns the last of F2/F3.
func (d *decoder) prefixes() (last byte, err error) {
	in := &d.inst
	for {
		b, ok := d.peek(0)
		if !ok {
			return last, errEnd
		}
		switch b {
		case 0x26:
			in.Prefixes |= PrefixES
		case 0x2E:
			in.Prefixes |= PrefixCS
		case 0x36:
			in.Prefixes |= PrefixSS
		case 0x3E:
			in.Prefixes |= PrefixDS
		case 0x64:
			in.Prefixes |= PrefixFS
		case 0x65:
			in.Prefixes |= PrefixGS
		case 0x66:
			in.Prefixes |= PrefixOpSize
		case 0x67:
			in.Prefixes |= PrefixAddrSize
		case 0xF0:
			in.Prefixes |= PrefixLock
		case 0xF2:
			in.Prefixes |= PrefixREPNE
			last = b
		case 0xF3:
			in.Prefixes |= PrefixREP
			last = b
		default:
			if d.mode == 64 && b&0xF0 == 0x40 {
				in.Rex = b
				d.pos++
				continue
			}
			return last, nil
		}
		// REX only counts when it immediately precedes the opcode.
		in.Rex = 0
		d.pos++
	}
}

// extended reports whether C4, C5 or 62 starts a VEX or EVEX prefix rather
// than LES, LDS or BOUND. Outside 64-bit mode the next byte must have
// ModRM.mod == 3, which the legacy forms cannot encode.
func (d *decoder) extended() bool {
	if d.mode == 64 {
		return true
	}
	b, ok := d.peek(0)
	return ok && b&0xC0 == 0xC0
}

// xop reports whether 8F starts an XOP prefix rather than POP r/m. XOP
// map selectors start at 8, which POP cannot encode in ModRM.reg.
func (d *decoder) xop() bool {
	b, ok := d.peek(0)
	return ok && b&0x1F >= 8
}

// legacyConflict reports whether prefixes seen so far forbid a VEX, EVEX
// or XOP prefix.
func (d *decoder) legacyConflict() bool {
	const forbidden = PrefixOpSize | PrefixLock | PrefixREP | PrefixREPNE
	return d.inst.Prefixes&forbidden != 0 || d.inst.Rex != 0
}

func (d *decoder) escape() Reason {
	in := &d.inst
	b, err := d.next()
	if err != nil {
		return ReasonTruncated
	}
	switch b {
	case 0x38:
		in.Map = Map0F38
	case 0x3A:
		in.Map = Map0F3A
	default:
		in.Map = Map0F
		in.Opcode = b
		return 0
	}
	if in.Opcode, err = d.next(); err != nil {
		return ReasonTruncated
	}
	return 0
}

func (d *decoder) vex(b byte) Reason {
	in := &d.inst
	if d.legacyConflict() {
		return ReasonBadPrefix
	}
	in.Encoding = VEX
	p1, err := d.next()
	if err != nil {
		return ReasonTruncated
	}
	if b == 0xC5 {
		in.Map = Map0F
		d.setVector(p1&0x04 != 0, p1&0x03)
		return 0
	}
	p2, err := d.next()
	if err != nil {
		return ReasonTruncated
	}
	switch p1 & 0x1F {
	case 1:
		in.Map = Map0F
	case 2:
		in.Map = Map0F38
	case 3:
		in.Map = Map0F3A
	default:
		return ReasonBadMap
	}
	in.W = p2&0x80 != 0
	d.setVector(p2&0x04 != 0, p2&0x03)
	return 0
}

func (d *decoder) xopPrefix() Reason {
	in := &d.inst
	if d.legacyConflict() {
		return ReasonBadPrefix
	}
	in.Encoding = XOP
	p1, err := d.next()
	if err != nil {
		return ReasonTruncated
	}
	p2, err := d.next()
	if err != nil {
		return ReasonTruncated
	}
	switch p1 & 0x1F {
	case 0x08:
		in.Map = MapXOP8
	case 0x09:
		in.Map = MapXOP9
	case 0x0A:
		in.Map = MapXOPA
	default:
		return ReasonBadMap
	}
	in.W = p2&0x80 != 0
	d.setVector(p2&0x04 != 0, p2&0x03)
	return 0
}

func (d *decoder) evex() Reason {
	in := &d.inst
	if d.legacyConflict() {
		return ReasonBadPrefix
	}
	in.Encoding = EVEX
	var p [3]byte
	for i := range p {
		b, err := d.next()
		if err != nil {
			return ReasonTruncated
		}
		p[i] = b
	}
	// P0 bit 3 is reserved zero and P1 bit 2 is fixed one.
	if p[0]&0x08 != 0 || p[1]&0x04 == 0 {
		return ReasonBadPrefix
	}
	switch p[0] & 0x07 {
	case 1:
		in.Map = Map0F
	case 2:
		in.Map = Map0F38
	case 3:
		in.Map = Map0F3A
	case 5:
		in.Map = Map5
	case 6:
		in.Map = Map6
	default:
		return ReasonBadMap
	}
	in.W = p[1]&0x80 != 0
	in.Mandatory = Mandatory(p[1] & 0x03)
	in.Broadcast = p[2]&0x10 != 0
	switch (p[2] >> 5) & 0x03 {
	case 0:
		in.VectorLen = 128
	case 1:
		in.VectorLen = 256
	case 2:
		in.VectorLen = 512
	default:
		if !in.Broadcast {
			return ReasonBadPrefix
		}
		in.VectorLen = 512
	}
	return 0
}

func (d *decoder) setVector(l bool, pp byte) {
	d.inst.VectorLen = 128
	if l {
		d.inst.VectorLen = 256
	}
	d.inst.Mandatory = Mandatory(pp)
}

// address consumes the SIB byte and displacement selected by ModRM.
func (d *decoder) address() error {
	in := &d.inst
	mod, rm := in.Mod(), in.RM()
	if mod == 3 {
		return nil
	}
	if d.mode == 32 && in.Prefixes.Has(PrefixAddrSize) {
		switch {
		case mod == 0 && rm == 6:
			return d.skip(2)
		case mod == 1:
			return d.skip(1)
		case mod == 2:
			return d.skip(2)
		}
		return nil
	}
	if rm == 4 {
		sib, err := d.next()
		if err != nil {
			return err
		}
		if mod == 0 && sib&0x07 == 5 {
			return d.skip(4)
		}
	}
	switch {
	case mod == 0 && rm == 5:
		return d.skip(4)
	case mod == 1:
		return d.skip(1)
	case mod == 2:
		return d.skip(4)
	}
	return nil
}

// immediate returns the number of immediate bytes that follow.
func (d *decoder) immediate(f opFlags) int {
	in := &d.inst
	z := 4
	if in.Prefixes.Has(PrefixOpSize) && !in.W {
		z = 2
	}
	switch {
	case f&opGroup3 != 0 && in.Reg() > 1:
		return 0
	case f&opSSE4A != 0 && (in.Mandatory == Prefix66 || in.Mandatory == PrefixF2):
		return 2
	case f&(opImm8|op3DNow) != 0:
		return 1
	case f&opImm16 != 0:
		return 2
	case f&opImm32 != 0:
		return 4
	case f&opImmZ != 0:
		return z
	case f&opImmV != 0:
		if in.W {
			return 8
		}
		return z
	case f&opRelZ != 0:
		if d.mode == 64 {
			return 4
		}
		return z
	case f&opMoffs != 0:
		n := d.mode / 8
		if in.Prefixes.Has(PrefixAddrSize) {
			n /= 2
		}
		return n
	case f&opFarPtr != 0:
		return z + 2
	case f&opEnter != 0:
		return 3
	}
	return 0
}

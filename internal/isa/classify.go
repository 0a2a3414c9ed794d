package isa

import (
	"fmt"

	"isascan/internal/disasm"
)

// Class is the classification of one instruction. Baseline instructions
// have an empty feature set; Mnemonic is empty when no row names them.
type Class struct {
	Mnemonic string
	Features FeatureSet
}

// anyPrefix keys rows that apply whatever the mandatory prefix.
const anyPrefix disasm.Mandatory = 0xFF

type key struct {
	enc disasm.Encoding
	m   disasm.Map
	op  byte
	pfx disasm.Mandatory
}

type form uint8

const (
	anyForm form = iota
	regForm
	memForm
)

// entry refines a key. Negative selector values match anything.
type entry struct {
	reg      int8
	modrm    int16
	form     form
	vl       int16
	w        int8
	only64   bool
	scalar   bool // EVEX length is ignored, no AVX512VL
	mnemonic string
	features FeatureSet
}

func (e *entry) match(in disasm.Inst) bool {
	if e.reg >= 0 && (!in.HasModRM || int8(in.Reg()) != e.reg) {
		return false
	}
	if e.modrm >= 0 && (!in.HasModRM || int16(in.ModRM) != e.modrm) {
		return false
	}
	switch e.form {
	case regForm:
		if !in.HasModRM || in.Mod() != 3 {
			return false
		}
	case memForm:
		if !in.IsMemory() {
			return false
		}
	}
	if e.vl != 0 && int(e.vl) != in.VectorLen {
		return false
	}
	if e.w >= 0 && (e.w == 1) != in.W {
		return false
	}
	return !e.only64 || in.Mode == 64
}

// table is filled by init and read-only afterwards.
var table = make(map[key][]entry)

// Classify maps a decoded instruction onto the extensions it requires.
// Rows keyed by the exact mandatory prefix are tried before rows that
// accept any prefix; within a key the first matching row wins.
func Classify(in disasm.Inst) Class {
	for _, p := range [...]disasm.Mandatory{in.Mandatory, anyPrefix} {
		rows := table[key{in.Encoding, in.Map, in.Opcode, p}]
		for i := range rows {
			if rows[i].match(in) {
				return classOf(&rows[i], in)
			}
		}
	}
	return fallback(in)
}

func classOf(e *entry, in disasm.Inst) Class {
	fs := e.features
	if in.Encoding == disasm.EVEX && !e.scalar && in.VectorLen < 512 && fs.Has(AVX512F) {
		fs = fs.With(AVX512VL)
	}
	return Class{Mnemonic: e.mnemonic, Features: fs}
}

// fallback classifies instructions no row names. Every VEX, EVEX and XOP
// opcode the decoder accepts still reports its extension family.
func fallback(in disasm.Inst) Class {
	var fs FeatureSet
	switch in.Encoding {
	case disasm.Legacy:
		return Class{}
	case disasm.VEX:
		fs = Of(AVX)
	case disasm.EVEX:
		fs = Of(AVX512F)
		if in.Map == disasm.Map5 || in.Map == disasm.Map6 {
			fs = fs.With(AVX512FP16)
		}
		if in.VectorLen < 512 {
			fs = fs.With(AVX512VL)
		}
	case disasm.XOP:
		fs = Of(XOP)
	}
	return Class{
		Mnemonic: fmt.Sprintf("%s.%s.%02x", in.Encoding, in.Map, in.Opcode),
		Features: fs,
	}
}

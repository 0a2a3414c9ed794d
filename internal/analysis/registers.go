package analysis

import (
	"golang.org/x/arch/x86/x86asm"

	"isascan/internal/disasm"
)

// registerCollector counts the registers named by legacy-encoded
// instructions, both as operands and in memory addresses. VEX, EVEX and
// XOP instructions are beyond x86asm and are not counted.
type registerCollector struct{}

func (registerCollector) Collect(r *Report, o Observation) {
	if o.Inst.Encoding != disasm.Legacy {
		return
	}
	inst, err := x86asm.Decode(o.Bytes, o.Inst.Mode)
	if err != nil {
		return
	}
	for _, arg := range inst.Args {
		switch a := arg.(type) {
		case nil:
			return
		case x86asm.Reg:
			r.Registers[a.String()]++
		case x86asm.Mem:
			for _, reg := range [...]x86asm.Reg{a.Base, a.Index} {
				if reg != 0 {
					r.Registers[reg.String()]++
				}
			}
		}
	}
}

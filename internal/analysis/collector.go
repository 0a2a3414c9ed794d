package analysis

import (
	"isascan/internal/disasm"
	"isascan/internal/isa"
)

// Observation is one successfully decoded and classified instruction.
type Observation struct {
	Offset uint64 // file offset of the instruction
	Inst   disasm.Inst
	Class  isa.Class
	Bytes  []byte // the encoded instruction, aliasing the region
}

// Collector folds observations into a partial report.
type Collector interface {
	// Collect records o in r. Collectors run in chain order and must not
	// retain o.Bytes.
	Collect(r *Report, o Observation)
}

// CollectorChain runs multiple collectors in sequence
type CollectorChain struct {
	mode       Mode
	collectors []Collector
}

// NewCollectorChain creates a chain that fills reports of the given mode.
func NewCollectorChain(mode Mode, collectors ...Collector) *CollectorChain {
	return &CollectorChain{
		mode:       mode,
		collectors: collectors,
	}
}

// Collect runs all collectors in sequence
func (cc *CollectorChain) Collect(r *Report, o Observation) {
	for _, c := range cc.collectors {
		c.Collect(r, o)
	}
}

// newChain returns the collectors a mode needs.
func newChain(mode Mode, o options) *CollectorChain {
	cs := []Collector{featureCollector{}}
	switch mode {
	case ModeStats:
		cs = append(cs, countCollector{})
	case ModeDetails:
		cs = append(cs, detailCollector{symbols: o.symbols}, registerCollector{})
	}
	return NewCollectorChain(mode, cs...)
}

// featureCollector maintains Features and UsesCPUID.
type featureCollector struct{}

func (featureCollector) Collect(r *Report, o Observation) {
	r.Features = r.Features.Union(o.Class.Features)
	if o.Class.Features.Has(isa.CPUID) {
		r.UsesCPUID = true
	}
}

// countCollector counts each feature of an instruction once, so an
// instruction tagged {AVX, AVX2} adds to both counters.
type countCollector struct{}

func (countCollector) Collect(r *Report, o Observation) {
	for _, f := range o.Class.Features.Features() {
		r.Counts[f]++
	}
}

// detailCollector records occurrences and mnemonic counts per feature.
type detailCollector struct {
	symbols Symbolizer
}

func (c detailCollector) Collect(r *Report, o Observation) {
	if o.Class.Features.Empty() {
		return
	}
	occ := Occurrence{Offset: o.Offset, Mnemonic: o.Class.Mnemonic}
	if c.symbols != nil {
		if s, ok := c.symbols.SymbolAt(o.Offset); ok {
			occ.Function = CachedDemangle(s.Name)
		}
	}
	for _, f := range o.Class.Features.Features() {
		r.Details[f] = append(r.Details[f], occ)
		m := r.Mnemonics[f]
		if m == nil {
			m = make(map[string]int)
			r.Mnemonics[f] = m
		}
		m[o.Class.Mnemonic]++
	}
}

// Package analysis decodes the code regions of an executable, classifies
// every instruction and aggregates the result into a Report shaped by the
// requested Mode.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/invopop/jsonschema"
	"golang.org/x/sync/errgroup"

	"isascan/internal/container"
	"isascan/internal/disasm"
	"isascan/internal/isa"
)

// cancelCheckInterval is the number of instructions decoded between two
// context checks.
const cancelCheckInterval = 4096

type Mode int

const (
	ModeDetect Mode = iota
	ModeStats
	ModeDetails
)

var modeNames = [...]string{
	ModeDetect:  "detect",
	ModeStats:   "stats",
	ModeDetails: "details",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps "detect", "stats" or "details" to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want detect, stats or details)", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// JSONSchema describes a Mode by its text form.
func (Mode) JSONSchema() *jsonschema.Schema {
	enum := make([]any, len(modeNames))
	for i, name := range modeNames {
		enum[i] = name
	}
	return &jsonschema.Schema{Type: "string", Enum: enum, Default: ModeDetect.String()}
}

// Occurrence is one instruction carrying a feature.
type Occurrence struct {
	Offset   uint64 `json:"offset"` // file offset
	Mnemonic string `json:"mnemonic"`
	Function string `json:"function,omitempty"`
}

// Report is the result of Analyze. Features, the counters, Level and
// UsesCPUID are filled in every mode; Counts only in stats mode; Details,
// Mnemonics and Registers only in details mode.
type Report struct {
	Mode         Mode                           `json:"mode"`
	Features     isa.FeatureSet                 `json:"features"`
	Counts       map[isa.Feature]int            `json:"counts,omitempty"`
	Details      map[isa.Feature][]Occurrence   `json:"details,omitempty"`
	Mnemonics    map[isa.Feature]map[string]int `json:"mnemonics,omitempty"`
	Registers    map[string]int                 `json:"registers,omitempty"`
	Instructions int                            `json:"instructions"`
	DecodeErrors int                            `json:"decode_errors"`
	SkippedBytes int                            `json:"skipped_bytes"`
	Level        int                            `json:"level"`
	UsesCPUID    bool                           `json:"uses_cpuid"`
}

func newReport(mode Mode) *Report {
	r := &Report{Mode: mode}
	switch mode {
	case ModeStats:
		r.Counts = make(map[isa.Feature]int)
	case ModeDetails:
		r.Details = make(map[isa.Feature][]Occurrence)
		r.Mnemonics = make(map[isa.Feature]map[string]int)
		r.Registers = make(map[string]int)
	}
	return r
}

// merge folds a partial report into r. Occurrences of p are appended after
// those already in r, so merging partials in region order keeps the
// details listing in file order.
func (r *Report) merge(p *Report) {
	r.Features = r.Features.Union(p.Features)
	r.Instructions += p.Instructions
	r.DecodeErrors += p.DecodeErrors
	r.SkippedBytes += p.SkippedBytes
	r.UsesCPUID = r.UsesCPUID || p.UsesCPUID
	for f, n := range p.Counts {
		r.Counts[f] += n
	}
	for f, occ := range p.Details {
		r.Details[f] = append(r.Details[f], occ...)
	}
	for f, m := range p.Mnemonics {
		dst := r.Mnemonics[f]
		if dst == nil {
			dst = make(map[string]int, len(m))
			r.Mnemonics[f] = dst
		}
		for name, n := range m {
			dst[name] += n
		}
	}
	for reg, n := range p.Registers {
		r.Registers[reg] += n
	}
}

// Symbolizer resolves a file offset to the function enclosing it.
// *container.Binary implements it.
type Symbolizer interface {
	SymbolAt(off uint64) (container.Symbol, bool)
}

type options struct {
	parallelism int
	symbols     Symbolizer
}

type Option func(*options)

// WithParallelism bounds the number of regions decoded at once. Values
// below one mean sequential decoding. The default is GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = max(n, 1) }
}

// WithSymbols attributes details occurrences to the functions s reports.
func WithSymbols(s Symbolizer) Option {
	return func(o *options) { o.symbols = s }
}

// Analyze decodes every region and returns the aggregated report. Regions
// are decoded concurrently; the report does not depend on the degree of
// parallelism. Decode errors are counted, never returned; the only errors
// are an invalid region bit width and context cancellation.
func Analyze(ctx context.Context, regions []container.Region, mode Mode, opts ...Option) (*Report, error) {
	if mode < ModeDetect || mode > ModeDetails {
		return nil, fmt.Errorf("analyze: invalid mode %d", int(mode))
	}
	o := options{parallelism: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	partials := make([]*Report, len(regions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i := range regions {
		g.Go(func() error {
			p, err := scanRegion(gctx, &regions[i], newChain(mode, o))
			if err != nil {
				return err
			}
			partials[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := newReport(mode)
	for _, p := range partials {
		r.merge(p)
	}
	r.Level = isa.Level(r.Features)
	return r, nil
}

func scanRegion(ctx context.Context, reg *container.Region, chain *CollectorChain) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := newReport(chain.mode)
	n := 0
	for inst, err := range disasm.Instructions(reg.Data, reg.Bits) {
		if n++; n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err != nil {
			var de *disasm.DecodeError
			if !errors.As(err, &de) {
				return nil, fmt.Errorf("region %s: %w", reg.Name, err)
			}
			r.DecodeErrors++
			r.SkippedBytes += de.Len
			continue
		}
		r.Instructions++
		chain.Collect(r, Observation{
			Offset: reg.Offset + uint64(inst.Offset),
			Inst:   inst,
			Class:  isa.Classify(inst),
			Bytes:  reg.Data[inst.Offset : inst.Offset+inst.Len],
		})
	}
	slog.Debug("decoded region",
		"region", reg.Name,
		"bits", reg.Bits,
		"size", len(reg.Data),
		"instructions", r.Instructions,
		"errors", r.DecodeErrors,
		"features", r.Features.Len(),
	)
	return r, nil
}

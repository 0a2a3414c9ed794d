package cmd

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/x/term"

	"isascan/internal/analysis"
	"isascan/internal/container"
	"isascan/internal/isa"
	"isascan/internal/isascan/styles"
	"isascan/internal/ui/colorize"
)

const (
	overlapNote = "Counts overlap: an instruction carrying several features counts once for each."
	cpuidNote   = "The binary executes CPUID and may pick code paths at run time; " +
		"the level is what the code contains, not what it requires on every path."
)

// regionInfo is a code region without its bytes.
type regionInfo struct {
	Name   string `json:"name"`
	Offset uint64 `json:"offset"`
	Addr   uint64 `json:"addr"`
	Size   int    `json:"size"`
}

// jsonReport is the document written by --json.
type jsonReport struct {
	File      string           `json:"file"`
	Format    container.Format `json:"format"`
	Arch      string           `json:"arch"`
	Bits      int              `json:"bits"`
	Regions   []regionInfo     `json:"regions"`
	LevelName string           `json:"level_name"`
	analysis.Report
}

func newJSONReport(path string, bin *container.Binary, r *analysis.Report) jsonReport {
	out := jsonReport{
		File:      path,
		Format:    bin.Format,
		Arch:      bin.Arch,
		Bits:      bin.Bits,
		LevelName: isa.LevelName(r.Level),
		Report:    *r,
	}
	for _, reg := range bin.Regions {
		out.Regions = append(out.Regions, regionInfo{Name: reg.Name, Offset: reg.Offset, Addr: reg.Addr, Size: len(reg.Data)})
	}
	return out
}

func render(w io.Writer, path string, bin *container.Binary, r *analysis.Report, cfg Config, color bool) error {
	switch cfg.Format {
	case FormatJSON:
		data, err := json.MarshalIndent(newJSONReport(path, bin, r), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatMarkdown:
		md := markdownReport(path, bin, r, cfg)
		if color {
			width := 100
			if tw, _, err := term.GetSize(os.Stdout.Fd()); err == nil && tw > 0 {
				width = tw
			}
			renderer, err := styles.MarkdownRenderer(width)
			if err != nil {
				return fmt.Errorf("markdown renderer: %w", err)
			}
			if md, err = renderer.Render(md); err != nil {
				return fmt.Errorf("render markdown: %w", err)
			}
		}
		_, err := io.WriteString(w, md)
		return err
	default:
		var b strings.Builder
		newTextRenderer(&b, cfg, color).report(path, bin, r)
		_, err := io.WriteString(w, b.String())
		return err
	}
}

// featuresByCount orders the counted features by descending count, ties in
// declaration order.
func featuresByCount(counts map[isa.Feature]int) []isa.Feature {
	fs := slices.Sorted(maps.Keys(counts))
	slices.SortStableFunc(fs, func(a, b isa.Feature) int {
		return cmp.Compare(counts[b], counts[a])
	})
	return fs
}

// detailFeatures returns the features with occurrences in declaration order.
func detailFeatures(r *analysis.Report) []isa.Feature {
	return slices.Sorted(maps.Keys(r.Details))
}

// mnemonicSummary formats per-mnemonic counts as "vpaddd×3, vpxor×1",
// most frequent first.
func mnemonicSummary(m map[string]int) string {
	names := byCount(m)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s×%d", n, m[n])
	}
	return strings.Join(parts, ", ")
}

// byCount returns the keys of m by descending count, ties in name order.
func byCount(m map[string]int) []string {
	names := slices.Sorted(maps.Keys(m))
	slices.SortStableFunc(names, func(a, b string) int { return cmp.Compare(m[b], m[a]) })
	return names
}

func listingLine(o analysis.Occurrence) string {
	line := fmt.Sprintf("%#010x: %s", o.Offset, o.Mnemonic)
	if o.Function != "" {
		line += " ; " + o.Function
	}
	return line
}

type textRenderer struct {
	w     io.Writer
	st    styles.Styles
	cfg   Config
	color bool
}

func newTextRenderer(w io.Writer, cfg Config, color bool) *textRenderer {
	return &textRenderer{w: w, st: styles.New(color), cfg: cfg, color: color}
}

func (t *textRenderer) printf(format string, args ...any) {
	fmt.Fprintf(t.w, format, args...)
}

func (t *textRenderer) report(path string, bin *container.Binary, r *analysis.Report) {
	if t.cfg.Quiet {
		t.quiet(r)
		return
	}
	if t.cfg.Verbose {
		t.header(path, bin)
	}
	switch r.Mode {
	case analysis.ModeStats:
		t.stats(r)
	case analysis.ModeDetails:
		t.details(r)
	default:
		t.detect(r)
	}
	t.summary(r)
}

func (t *textRenderer) header(path string, bin *container.Binary) {
	label := func(s string) string { return t.st.Label.Render(fmt.Sprintf("%-9s", s)) }
	t.printf("%s %s\n", label("File:"), path)
	t.printf("%s %s %s (%d-bit)\n", label("Format:"), bin.Format, bin.Arch, bin.Bits)
	t.printf("%s %d, %d code bytes, %d symbols\n", label("Regions:"), len(bin.Regions), bin.CodeSize(), len(bin.Symbols))
	for _, reg := range bin.Regions {
		t.printf("  %-24s %s  %8d bytes\n", reg.Name, t.st.Offset.Render(fmt.Sprintf("%#010x", reg.Offset)), len(reg.Data))
	}
	t.printf("\n")
}

func (t *textRenderer) quiet(r *analysis.Report) {
	switch r.Mode {
	case analysis.ModeStats:
		for _, f := range featuresByCount(r.Counts) {
			t.printf("%s %d\n", f, r.Counts[f])
		}
	case analysis.ModeDetails:
		for _, f := range detailFeatures(r) {
			for _, o := range r.Details[f] {
				t.printf("%s %s\n", f, listingLine(o))
			}
		}
	default:
		for _, f := range r.Features.Features() {
			t.printf("%s\n", f)
		}
	}
}

func (t *textRenderer) feature(f isa.Feature) string {
	return t.st.Feature.Render(fmt.Sprintf("%-17s", f))
}

func (t *textRenderer) detect(r *analysis.Report) {
	if r.Features.Empty() {
		t.printf("%s\n", t.st.Dim.Render("No instruction-set extensions found."))
		return
	}
	t.printf("%s\n", t.st.Title.Render(fmt.Sprintf("Features (%d)", r.Features.Len())))
	for _, f := range r.Features.Features() {
		level := ""
		if l := f.Level(); l > 0 {
			level = t.st.Dim.Render(isa.LevelName(l))
		}
		line := fmt.Sprintf("  %s %-44s %s", t.feature(f), f.Description(), level)
		t.printf("%s\n", strings.TrimRight(line, " "))
	}
}

func (t *textRenderer) stats(r *analysis.Report) {
	if len(r.Counts) == 0 {
		t.printf("%s\n", t.st.Dim.Render("No instruction-set extensions found."))
		return
	}
	t.printf("%s\n", t.st.Title.Render("Instructions per feature"))
	for _, f := range featuresByCount(r.Counts) {
		t.printf("  %s %s\n", t.feature(f), t.st.Count.Render(fmt.Sprintf("%10d", r.Counts[f])))
	}
	if len(r.Counts) > 1 {
		t.printf("%s\n", t.st.Dim.Render(overlapNote))
	}
}

func (t *textRenderer) details(r *analysis.Report) {
	fs := detailFeatures(r)
	if len(fs) == 0 {
		t.printf("%s\n", t.st.Dim.Render("No instruction-set extensions found."))
		return
	}
	for i, f := range fs {
		if i > 0 {
			t.printf("\n")
		}
		occ := r.Details[f]
		t.printf("%s %s\n", t.st.Title.Render(f.String()), t.st.Dim.Render(fmt.Sprintf("(%d) %s", len(occ), mnemonicSummary(r.Mnemonics[f]))))

		var b strings.Builder
		for _, o := range occ {
			b.WriteString("  ")
			b.WriteString(listingLine(o))
			b.WriteByte('\n')
		}
		listing := b.String()
		if t.color {
			if colored, err := colorize.Listing(listing); err == nil {
				listing = colored
			}
		}
		io.WriteString(t.w, listing)
	}
	if len(r.Registers) > 0 {
		t.printf("\n%s %s\n", t.st.Title.Render("Registers"), t.st.Dim.Render(mnemonicSummary(r.Registers)))
	}
}

func (t *textRenderer) summary(r *analysis.Report) {
	t.printf("\n%s %s\n", t.st.Label.Render("Minimum level:"), t.st.Level.Render(isa.LevelName(r.Level)))
	stats := fmt.Sprintf("%d instructions", r.Instructions)
	if r.DecodeErrors > 0 {
		stats += fmt.Sprintf(", %d decode errors (%d bytes skipped)", r.DecodeErrors, r.SkippedBytes)
	}
	t.printf("%s\n", t.st.Dim.Render(stats))
	if r.UsesCPUID {
		t.printf("%s\n", t.st.Warning.Render("note: "+cpuidNote))
	}
}

func markdownReport(path string, bin *container.Binary, r *analysis.Report, cfg Config) string {
	var b strings.Builder
	p := func(format string, args ...any) { fmt.Fprintf(&b, format, args...) }

	p("# isascan: %s\n\n", filepath.Base(path))
	p("| | |\n|---|---|\n")
	p("| File | `%s` |\n", path)
	p("| Format | %s %s (%d-bit) |\n", bin.Format, bin.Arch, bin.Bits)
	p("| Minimum level | **%s** |\n", isa.LevelName(r.Level))
	p("| Instructions | %d |\n", r.Instructions)
	p("| Decode errors | %d (%d bytes skipped) |\n\n", r.DecodeErrors, r.SkippedBytes)

	if r.UsesCPUID {
		p("> %s\n\n", cpuidNote)
	}

	if cfg.Verbose {
		p("## Regions\n\n| Region | Offset | Address | Size |\n|---|---:|---:|---:|\n")
		for _, reg := range bin.Regions {
			p("| `%s` | %#x | %#x | %d |\n", reg.Name, reg.Offset, reg.Addr, len(reg.Data))
		}
		p("\n")
	}

	p("## Features\n\n")
	if r.Features.Empty() {
		p("No instruction-set extensions found.\n")
		return b.String()
	}
	switch r.Mode {
	case analysis.ModeStats:
		p("| Feature | Instructions | Level |\n|---|---:|---|\n")
		for _, f := range featuresByCount(r.Counts) {
			p("| %s | %d | %s |\n", f, r.Counts[f], featureLevel(f))
		}
		p("\n_%s_\n", overlapNote)
	default:
		p("| Feature | Description | Level |\n|---|---|---|\n")
		for _, f := range r.Features.Features() {
			p("| %s | %s | %s |\n", f, f.Description(), featureLevel(f))
		}
	}

	if r.Mode == analysis.ModeDetails {
		p("\n## Details\n")
		for _, f := range detailFeatures(r) {
			p("\n### %s\n\n%s\n\n```asm\n", f, mnemonicSummary(r.Mnemonics[f]))
			for _, o := range r.Details[f] {
				p("%s\n", listingLine(o))
			}
			p("```\n")
		}
		if len(r.Registers) > 0 {
			p("\n## Registers\n\n| Register | Uses |\n|---|---:|\n")
			for _, reg := range byCount(r.Registers) {
				p("| %s | %d |\n", reg, r.Registers[reg])
			}
		}
	}
	return b.String()
}

func featureLevel(f isa.Feature) string {
	if l := f.Level(); l > 0 {
		return isa.LevelName(l)
	}
	return "-"
}

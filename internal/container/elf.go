package container

import (
	"bytes"
	"debug/elf"
	"fmt"
)

func parseELF(raw []byte) (*Binary, error) {
	f, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: elf: %v", ErrMalformedContainer, err)
	}
	defer f.Close()

	b := &Binary{Format: FormatELF}
	switch {
	case f.Machine == elf.EM_X86_64 && f.Class == elf.ELFCLASS64:
		b.Arch, b.Bits = "x86-64", 64
	case f.Machine == elf.EM_X86_64 && f.Class == elf.ELFCLASS32:
		b.Arch, b.Bits = "x32", 32
	case f.Machine == elf.EM_386:
		b.Arch, b.Bits = "i386", 32
	default:
		return nil, fmt.Errorf("%w: ELF machine %s", ErrUnsupportedFormat, f.Machine)
	}

	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_EXECINSTR == 0 || s.Size == 0 {
			continue
		}
		data, err := slice(raw, s.Offset, s.Size)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.Name, err)
		}
		b.Regions = append(b.Regions, Region{Name: s.Name, Offset: s.Offset, Addr: s.Addr, Bits: b.Bits, Data: data})
	}

	// Stripped of section headers: fall back to executable segments.
	if len(b.Regions) == 0 {
		for i, p := range f.Progs {
			if p.Type != elf.PT_LOAD || p.Flags&elf.PF_X == 0 || p.Filesz == 0 {
				continue
			}
			data, err := slice(raw, p.Off, p.Filesz)
			if err != nil {
				return nil, fmt.Errorf("segment %d: %w", i, err)
			}
			b.Regions = append(b.Regions, Region{
				Name:   fmt.Sprintf("LOAD[%d]", i),
				Offset: p.Off,
				Addr:   p.Vaddr,
				Bits:   b.Bits,
				Data:   data,
			})
		}
	}

	b.Symbols = elfSymbols(f, b.Regions)
	return b, nil
}

// elfSymbols collects function symbols from .symtab and .dynsym. Either
// table may be missing; a stripped binary simply has no symbols.
func elfSymbols(f *elf.File, regions []Region) []Symbol {
	var out []Symbol
	seen := make(map[uint64]bool)
	for _, load := range []func() ([]elf.Symbol, error){f.Symbols, f.DynamicSymbols} {
		syms, err := load()
		if err != nil {
			continue
		}
		for _, s := range syms {
			if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Section == elf.SHN_UNDEF || s.Value == 0 {
				continue
			}
			off, ok := fileOffset(regions, s.Value)
			if !ok || seen[off] {
				continue
			}
			seen[off] = true
			out = append(out, Symbol{Name: s.Name, Offset: off, Size: s.Size})
		}
	}
	return out
}

package container

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

const (
	machoMagic32 = macho.Magic32
	machoMagic64 = macho.Magic64
	fatMagic     = macho.MagicFat
	fatMagic64   = 0xcafebabf

	sectionType          = 0x000000ff
	zerofill             = 0x1
	gbZerofill           = 0xc
	threadLocalZerofill  = 0x12
	attrPureInstructions = 0x80000000
	attrSomeInstructions = 0x00000400

	symbolTypeMask  = 0x0e
	symbolInSection = 0x0e
	symbolDebugMask = 0xe0

	fatHeaderSize       = 8
	fatArch64HeaderSize = 32
	maxFatSlices        = 1 << 16

	// Java class files share the 32-bit fat magic. Their version word sits
	// where nfat_arch would and is at least the first class file major.
	javaMinVersion = 45
)

// parseMachO parses a thin Mach-O image. base is the image's offset within
// the enclosing file, non-zero for a slice of a universal binary.
func parseMachO(raw []byte, base uint64) (*Binary, error) {
	f, err := macho.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: mach-o: %v", ErrMalformedContainer, err)
	}
	defer f.Close()

	b := &Binary{Format: FormatMachO}
	switch f.Cpu {
	case macho.CpuAmd64:
		b.Arch, b.Bits = "x86-64", 64
	case macho.Cpu386:
		b.Arch, b.Bits = "i386", 32
	default:
		return nil, fmt.Errorf("%w: Mach-O cpu %s", ErrUnsupportedFormat, f.Cpu)
	}

	for _, s := range f.Sections {
		if s.Flags&(attrPureInstructions|attrSomeInstructions) == 0 || s.Size == 0 {
			continue
		}
		switch s.Flags & sectionType {
		case zerofill, gbZerofill, threadLocalZerofill:
			continue
		}
		data, err := slice(raw, uint64(s.Offset), s.Size)
		if err != nil {
			return nil, fmt.Errorf("section %s,%s: %w", s.Seg, s.Name, err)
		}
		b.Regions = append(b.Regions, Region{
			Name:   s.Seg + "," + s.Name,
			Offset: base + uint64(s.Offset),
			Addr:   s.Addr,
			Bits:   b.Bits,
			Data:   data,
		})
	}
	b.Symbols = machoSymbols(f, b.Regions)
	return b, nil
}

// machoSymbols collects defined, non-debugging symbols that point into a
// code region. Mach-O records no symbol sizes.
func machoSymbols(f *macho.File, regions []Region) []Symbol {
	if f.Symtab == nil {
		return nil
	}
	var out []Symbol
	for _, s := range f.Symtab.Syms {
		if s.Type&symbolDebugMask != 0 || s.Type&symbolTypeMask != symbolInSection || s.Sect == 0 {
			continue
		}
		off, ok := fileOffset(regions, s.Value)
		if !ok {
			continue
		}
		// C symbols carry a leading underscore on Mach-O.
		out = append(out, Symbol{Name: strings.TrimPrefix(s.Name, "_"), Offset: off})
	}
	return out
}

type fatArch struct {
	cpu          macho.Cpu
	offset, size uint64
}

// parseFat selects the x86-64 slice of a universal binary, else the i386
// one.
func parseFat(raw []byte) (*Binary, error) {
	arches, err := fatArches(raw)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(arches, func(i, j int) bool { return fatRank(arches[i].cpu) < fatRank(arches[j].cpu) })
	if len(arches) == 0 || fatRank(arches[0].cpu) > 1 {
		return nil, fmt.Errorf("%w: universal binary has no x86 slice", ErrUnsupportedFormat)
	}
	a := arches[0]
	sub, err := slice(raw, a.offset, a.size)
	if err != nil {
		return nil, fmt.Errorf("slice %s: %w", a.cpu, err)
	}
	b, err := parseMachO(sub, a.offset)
	if err != nil {
		return nil, err
	}
	b.Format = FormatUniversal
	return b, nil
}

func fatRank(c macho.Cpu) int {
	switch c {
	case macho.CpuAmd64:
		return 0
	case macho.Cpu386:
		return 1
	}
	return 2
}

func fatArches(raw []byte) ([]fatArch, error) {
	if binary.BigEndian.Uint32(raw) == fatMagic {
		if len(raw) >= fatHeaderSize && binary.BigEndian.Uint32(raw[4:]) >= javaMinVersion {
			return nil, fmt.Errorf("%w: Java class file", ErrUnsupportedFormat)
		}
		ff, err := macho.NewFatFile(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: universal: %v", ErrMalformedContainer, err)
		}
		defer ff.Close()
		out := make([]fatArch, 0, len(ff.Arches))
		for _, a := range ff.Arches {
			out = append(out, fatArch{cpu: a.Cpu, offset: uint64(a.Offset), size: uint64(a.Size)})
		}
		return out, nil
	}

	// The 64-bit fat header is not understood by debug/macho.
	if len(raw) < fatHeaderSize {
		return nil, fmt.Errorf("%w: universal header truncated", ErrMalformedContainer)
	}
	n := uint64(binary.BigEndian.Uint32(raw[4:]))
	if n == 0 || n > maxFatSlices {
		return nil, fmt.Errorf("%w: universal binary declares %d slices", ErrMalformedContainer, n)
	}
	hdr, err := slice(raw, fatHeaderSize, n*fatArch64HeaderSize)
	if err != nil {
		return nil, err
	}
	out := make([]fatArch, 0, n)
	for i := uint64(0); i < n; i++ {
		e := hdr[i*fatArch64HeaderSize:]
		out = append(out, fatArch{
			cpu:    macho.Cpu(binary.BigEndian.Uint32(e)),
			offset: binary.BigEndian.Uint64(e[8:]),
			size:   binary.BigEndian.Uint64(e[16:]),
		})
	}
	return out, nil
}

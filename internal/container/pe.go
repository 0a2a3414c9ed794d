package container

import (
	"bytes"
	"debug/pe"
	"fmt"
)

// COFF symbol type of a function: derived type DT_FUNCTION in the high
// nibble.
const coffFunction = 0x20

func parsePE(raw []byte) (*Binary, error) {
	f, err := pe.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: pe: %v", ErrMalformedContainer, err)
	}
	defer f.Close()

	b := &Binary{Format: FormatPE}
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		b.Arch, b.Bits = "x86-64", 64
	case pe.IMAGE_FILE_MACHINE_I386:
		b.Arch, b.Bits = "i386", 32
	default:
		return nil, fmt.Errorf("%w: PE machine %#x", ErrUnsupportedFormat, f.Machine)
	}

	var imageBase uint64
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		imageBase = uint64(oh.ImageBase)
	case *pe.OptionalHeader64:
		imageBase = oh.ImageBase
	}

	// Index of each section's region, -1 for non-code sections.
	regionOf := make([]int, len(f.Sections))
	for i, s := range f.Sections {
		regionOf[i] = -1
		if s.Characteristics&(pe.IMAGE_SCN_MEM_EXECUTE|pe.IMAGE_SCN_CNT_CODE) == 0 {
			continue
		}
		// Raw data is padded to the file alignment; VirtualSize is the
		// real extent when set.
		size := uint64(s.Size)
		if s.VirtualSize != 0 && uint64(s.VirtualSize) < size {
			size = uint64(s.VirtualSize)
		}
		if size == 0 {
			continue
		}
		data, err := slice(raw, uint64(s.Offset), size)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.Name, err)
		}
		regionOf[i] = len(b.Regions)
		b.Regions = append(b.Regions, Region{
			Name:   s.Name,
			Offset: uint64(s.Offset),
			Addr:   imageBase + uint64(s.VirtualAddress),
			Bits:   b.Bits,
			Data:   data,
		})
	}

	for _, s := range f.Symbols {
		if s.Type&0xF0 != coffFunction || s.SectionNumber <= 0 || int(s.SectionNumber) > len(f.Sections) {
			continue
		}
		ri := regionOf[s.SectionNumber-1]
		if ri < 0 || uint64(s.Value) >= uint64(len(b.Regions[ri].Data)) {
			continue
		}
		b.Symbols = append(b.Symbols, Symbol{Name: s.Name, Offset: b.Regions[ri].Offset + uint64(s.Value)})
	}
	return b, nil
}

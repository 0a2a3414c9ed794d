// Package container locates the executable code of ELF, PE and Mach-O
// files. Parse works on an in-memory image and never copies it: every
// Region aliases the caller's buffer.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnsupportedFormat is returned for unknown file formats and for
	// known formats built for an architecture other than x86.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMalformedContainer is returned when a recognised format fails to
	// parse or declares data past the end of the file.
	ErrMalformedContainer = errors.New("malformed container")
	// ErrNoCode is returned when a file holds no executable region.
	ErrNoCode = errors.New("no executable code")
)

type Format string

const (
	FormatELF       Format = "ELF"
	FormatPE        Format = "PE"
	FormatMachO     Format = "Mach-O"
	FormatUniversal Format = "Mach-O universal"
)

// Region is a run of executable bytes.
type Region struct {
	Name   string
	Offset uint64 // file offset of Data[0]
	Addr   uint64 // virtual address of Data[0]
	Bits   int    // 32 or 64
	Data   []byte
}

// Symbol is a function symbol located by file offset.
type Symbol struct {
	Name   string
	Offset uint64
	Size   uint64 // 0 when the format does not record it
}

// Binary is a parsed executable.
type Binary struct {
	Format  Format
	Arch    string
	Bits    int
	Regions []Region
	Symbols []Symbol // sorted by Offset

	release func() error
}

// Parse identifies raw by its magic number and extracts its code regions.
func Parse(raw []byte) (*Binary, error) {
	var b *Binary
	var err error
	switch {
	case len(raw) >= 4 && string(raw[:4]) == "\x7fELF":
		b, err = parseELF(raw)
	case len(raw) >= 2 && string(raw[:2]) == "MZ":
		b, err = parsePE(raw)
	case isMachO(raw):
		b, err = parseMachO(raw, 0)
	case isFat(raw):
		b, err = parseFat(raw)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(b.Regions) == 0 {
		return nil, fmt.Errorf("%s: %w", b.Format, ErrNoCode)
	}
	sort.SliceStable(b.Symbols, func(i, j int) bool { return b.Symbols[i].Offset < b.Symbols[j].Offset })
	return b, nil
}

// Close releases the file mapping of a Binary returned by Open. Regions
// must not be used afterwards. Close is a no-op for Parse results.
func (b *Binary) Close() error {
	if b.release == nil {
		return nil
	}
	err := b.release()
	b.release = nil
	return err
}

// CodeSize returns the number of executable bytes across all regions.
func (b *Binary) CodeSize() int {
	n := 0
	for _, r := range b.Regions {
		n += len(r.Data)
	}
	return n
}

// SymbolAt returns the function enclosing a file offset. Symbols without a
// recorded size extend to the next symbol.
func (b *Binary) SymbolAt(off uint64) (Symbol, bool) {
	i := sort.Search(len(b.Symbols), func(i int) bool { return b.Symbols[i].Offset > off }) - 1
	if i < 0 {
		return Symbol{}, false
	}
	s := b.Symbols[i]
	if s.Size != 0 && off >= s.Offset+s.Size {
		return Symbol{}, false
	}
	return s, true
}

// slice returns raw[off:off+size] after checking that the range lies
// inside raw.
func slice(raw []byte, off, size uint64) ([]byte, error) {
	n := uint64(len(raw))
	if off > n || size > n-off {
		return nil, fmt.Errorf("%w: range %#x+%#x exceeds file size %#x", ErrMalformedContainer, off, size, n)
	}
	return raw[off : off+size : off+size], nil
}

// fileOffset maps a virtual address inside one of regions to its file
// offset.
func fileOffset(regions []Region, addr uint64) (uint64, bool) {
	for _, r := range regions {
		if addr >= r.Addr && addr-r.Addr < uint64(len(r.Data)) {
			return r.Offset + (addr - r.Addr), true
		}
	}
	return 0, false
}

func isMachO(raw []byte) bool {
	if len(raw) < 4 {
		return false
	}
	for _, m := range []uint32{binary.LittleEndian.Uint32(raw), binary.BigEndian.Uint32(raw)} {
		if m == machoMagic32 || m == machoMagic64 {
			return true
		}
	}
	return false
}

func isFat(raw []byte) bool {
	if len(raw) < 4 {
		return false
	}
	m := binary.BigEndian.Uint32(raw)
	return m == fatMagic || m == fatMagic64
}

// Open maps the file at path and parses it. The caller must Close the
// Binary once it no longer uses its regions.
func Open(path string) (*Binary, error) {
	data, release, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	b, err := Parse(data)
	if err != nil {
		_ = release()
		return nil, err
	}
	b.release = release
	return b, nil
}

package container

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var code = []byte{
	0x55,                   // push rbp
	0x48, 0x89, 0xe5,       // mov rbp, rsp
	0x90,                   // nop
	0xc5, 0xfd, 0xfe, 0xc0, // vpaddd ymm0, ymm0, ymm0
	0x5d,                   // pop rbp
	0xc3,                   // ret
}

func TestParseELF(t *testing.T) {
	tests := []struct {
		name     string
		class    elf.Class
		machine  elf.Machine
		wantArch string
		wantBits int
	}{
		{"x86-64", elf.ELFCLASS64, elf.EM_X86_64, "x86-64", 64},
		{"x32", elf.ELFCLASS32, elf.EM_X86_64, "x32", 32},
		{"i386", elf.ELFCLASS32, elf.EM_386, "i386", 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := buildELF(t, elfOpts{
				class:   tt.class,
				machine: tt.machine,
				code:    code,
				funcs:   []elfFunc{{"main", 0, 4}, {"helper", 4, 8}},
			})
			b, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if b.Format != FormatELF || b.Arch != tt.wantArch || b.Bits != tt.wantBits {
				t.Errorf("Parse() = %s %s %d-bit, want ELF %s %d-bit", b.Format, b.Arch, b.Bits, tt.wantArch, tt.wantBits)
			}
			if len(b.Regions) != 1 {
				t.Fatalf("got %d regions, want 1", len(b.Regions))
			}
			r := b.Regions[0]
			ehSize, phSize, _, _ := elfLayout(tt.class == elf.ELFCLASS64)
			off := uint64(ehSize + phSize)
			if r.Name != ".text" || r.Offset != off || r.Addr != elfBase+off || r.Bits != tt.wantBits {
				t.Errorf("region = %s off %#x addr %#x bits %d", r.Name, r.Offset, r.Addr, r.Bits)
			}
			if !bytes.Equal(r.Data, code) {
				t.Errorf("region data = % x, want % x", r.Data, code)
			}
			if &r.Data[0] != &raw[off] {
				t.Error("region data does not alias the input")
			}
			if b.CodeSize() != len(code) {
				t.Errorf("CodeSize() = %d, want %d", b.CodeSize(), len(code))
			}
			if len(b.Symbols) != 2 || b.Symbols[0].Name != "main" || b.Symbols[1].Name != "helper" {
				t.Errorf("symbols = %+v", b.Symbols)
			}
		})
	}
}

func TestParseELFStripped(t *testing.T) {
	raw := buildELF(t, elfOpts{class: elf.ELFCLASS64, machine: elf.EM_X86_64, code: code, stripped: true})
	b, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(b.Regions) != 1 || b.Regions[0].Name != "LOAD[0]" {
		t.Fatalf("regions = %+v, want the executable segment", b.Regions)
	}
	if !bytes.Equal(b.Regions[0].Data, code) {
		t.Errorf("segment data = % x", b.Regions[0].Data)
	}
	if len(b.Symbols) != 0 {
		t.Errorf("stripped binary has symbols %+v", b.Symbols)
	}
}

func TestParseErrors(t *testing.T) {
	elf64 := func(s elfOpts) []byte {
		s.class, s.code = elf.ELFCLASS64, code
		if s.machine == 0 {
			s.machine = elf.EM_X86_64
		}
		return buildELF(t, s)
	}
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"empty", nil, ErrUnsupportedFormat},
		{"text", []byte("#!/bin/sh\necho hi\n"), ErrUnsupportedFormat},
		{"elf aarch64", elf64(elfOpts{machine: elf.EM_AARCH64}), ErrUnsupportedFormat},
		{"elf truncated header", []byte("\x7fELF\x02\x01\x01"), ErrMalformedContainer},
		{"elf section past end", elf64(elfOpts{textSize: 1 << 20}), ErrMalformedContainer},
		{"elf without code", elf64(elfOpts{noExec: true}), ErrNoCode},
		{"pe junk", []byte("MZ this is not a PE file"), ErrMalformedContainer},
		{"pe arm64", buildPE(t, pe.IMAGE_FILE_MACHINE_ARM64, code), ErrUnsupportedFormat},
		{"macho arm64", buildMachO(t, macho.CpuArm64, code), ErrUnsupportedFormat},
		{"java class", []byte("\xca\xfe\xba\xbe\x00\x00\x00\x34\x00\x1d\x0a\x00\x02\x00\x03\x07"), ErrUnsupportedFormat},
		{"java class preview", []byte("\xca\xfe\xba\xbe\xff\xff\x00\x41\x00\x1d"), ErrUnsupportedFormat},
		{"fat truncated", []byte("\xca\xfe\xba\xbe\x00\x00\x00\x02\x01\x00"), ErrMalformedContainer},
		{"fat arm64", buildFat(t, macho.CpuArm64, buildMachO(t, macho.CpuArm64, code)), ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Parse(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}
			if b != nil {
				t.Errorf("Parse() returned a binary alongside an error")
			}
		})
	}
}

func TestParsePE(t *testing.T) {
	tests := []struct {
		name     string
		machine  uint16
		base     uint64
		wantArch string
		wantBits int
	}{
		{"pe32+", pe.IMAGE_FILE_MACHINE_AMD64, peImageBase64, "x86-64", 64},
		{"pe32", pe.IMAGE_FILE_MACHINE_I386, peImageBase32, "i386", 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Parse(buildPE(t, tt.machine, code))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if b.Format != FormatPE || b.Arch != tt.wantArch || b.Bits != tt.wantBits {
				t.Errorf("Parse() = %s %s %d-bit", b.Format, b.Arch, b.Bits)
			}
			if len(b.Regions) != 1 {
				t.Fatalf("got %d regions, want 1", len(b.Regions))
			}
			r := b.Regions[0]
			if r.Name != ".text" || r.Offset != peRawOffset || r.Addr != tt.base+peTextRVA {
				t.Errorf("region = %s off %#x addr %#x", r.Name, r.Offset, r.Addr)
			}
			// The raw data is padded to 0x200; only the virtual size counts.
			if !bytes.Equal(r.Data, code) {
				t.Errorf("region data = % x, want % x", r.Data, code)
			}
		})
	}
}

func TestParseMachO(t *testing.T) {
	b, err := Parse(buildMachO(t, macho.CpuAmd64, code))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Format != FormatMachO || b.Arch != "x86-64" || b.Bits != 64 {
		t.Errorf("Parse() = %s %s %d-bit", b.Format, b.Arch, b.Bits)
	}
	if len(b.Regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(b.Regions))
	}
	r := b.Regions[0]
	if r.Name != "__TEXT,__text" || r.Offset != machoCodeOff || r.Addr != machoTextAddr+machoCodeOff {
		t.Errorf("region = %s off %#x addr %#x", r.Name, r.Offset, r.Addr)
	}
	if !bytes.Equal(r.Data, code) {
		t.Errorf("region data = % x", r.Data)
	}
	s, ok := b.SymbolAt(machoCodeOff + 5)
	if !ok || s.Name != "main" {
		t.Errorf("SymbolAt() = %+v, %v, want main", s, ok)
	}
}

func TestParseUniversal(t *testing.T) {
	raw := buildFat(t, macho.CpuAmd64, buildMachO(t, macho.CpuAmd64, code))
	b, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if b.Format != FormatUniversal || b.Bits != 64 {
		t.Errorf("Parse() = %s %d-bit", b.Format, b.Bits)
	}
	if len(b.Regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(b.Regions))
	}
	// Offsets are relative to the universal file, not the slice.
	off := uint64(fatSliceOffset + machoCodeOff)
	if b.Regions[0].Offset != off {
		t.Errorf("region offset = %#x, want %#x", b.Regions[0].Offset, off)
	}
	if !bytes.Equal(raw[off:off+uint64(len(code))], b.Regions[0].Data) {
		t.Error("region data does not match the file at its offset")
	}
	if s, ok := b.SymbolAt(off); !ok || s.Name != "main" {
		t.Errorf("SymbolAt(%#x) = %+v, %v, want main", off, s, ok)
	}
}

func TestSymbolAt(t *testing.T) {
	b := &Binary{Symbols: []Symbol{
		{Name: "a", Offset: 0x100, Size: 0x10},
		{Name: "b", Offset: 0x120},
		{Name: "c", Offset: 0x200, Size: 0x8},
	}}
	tests := []struct {
		off  uint64
		want string
	}{
		{0x0ff, ""},
		{0x100, "a"},
		{0x10f, "a"},
		{0x110, ""},
		{0x120, "b"},
		{0x1ff, "b"},
		{0x204, "c"},
		{0x208, ""},
	}
	for _, tt := range tests {
		s, ok := b.SymbolAt(tt.off)
		if got := s.Name; got != tt.want || ok != (tt.want != "") {
			t.Errorf("SymbolAt(%#x) = %q, %v, want %q", tt.off, got, ok, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.out")
	raw := buildELF(t, elfOpts{class: elf.ELFCLASS64, machine: elf.EM_X86_64, code: code})
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(b.Regions) != 1 || !bytes.Equal(b.Regions[0].Data, code) {
		t.Errorf("regions = %+v", b.Regions)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing")); err == nil {
		t.Error("Open() of a missing file succeeded")
	}
	if _, err := Open(dir); err == nil {
		t.Error("Open() of a directory succeeded")
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(empty); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open() of an empty file error = %v, want %v", err, ErrUnsupportedFormat)
	}
}

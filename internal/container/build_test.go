package container

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"
	"testing"
)

// Synthetic executables for the parser tests. Each builder lays out the
// smallest file the debug/* readers accept around a block of code.

const elfBase = 0x400000

type elfFunc struct {
	name      string
	off, size uint64 // relative to the start of the code
}

type elfOpts struct {
	class    elf.Class
	machine  elf.Machine
	code     []byte
	textSize uint64 // declared .text size, len(code) when zero
	stripped bool   // no section headers
	noExec   bool   // neither .text nor the segment is executable
	funcs    []elfFunc
}

func align8(n int) int { return (n + 7) &^ 7 }

// elfLayout returns the header, program header and section header sizes.
func elfLayout(is64 bool) (eh, ph, sh, sym int) {
	if is64 {
		return 64, 56, 64, 24
	}
	return 52, 32, 40, 16
}

// buildELF returns an executable with one PT_LOAD segment and the sections
// null, .text, .symtab, .strtab and .shstrtab.
func buildELF(t *testing.T, s elfOpts) []byte {
	t.Helper()
	is64 := s.class == elf.ELFCLASS64
	ehSize, phSize, shSize, symSize := elfLayout(is64)
	le := binary.LittleEndian

	codeOff := ehSize + phSize
	codeAddr := uint64(elfBase + codeOff)
	textSize := uint64(len(s.code))
	if s.textSize != 0 {
		textSize = s.textSize
	}

	var syms bytes.Buffer
	strtab := []byte{0}
	write := func(w *bytes.Buffer, v any) {
		if err := binary.Write(w, le, v); err != nil {
			t.Fatal(err)
		}
	}
	info := elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)
	if is64 {
		write(&syms, elf.Sym64{})
	} else {
		write(&syms, elf.Sym32{})
	}
	for _, f := range s.funcs {
		name := uint32(len(strtab))
		strtab = append(append(strtab, f.name...), 0)
		if is64 {
			write(&syms, elf.Sym64{Name: name, Info: info, Shndx: 1, Value: codeAddr + f.off, Size: f.size})
		} else {
			write(&syms, elf.Sym32{Name: name, Info: info, Shndx: 1, Value: uint32(codeAddr + f.off), Size: uint32(f.size)})
		}
	}
	shstr := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")

	symOff := align8(codeOff + len(s.code))
	strOff := symOff + syms.Len()
	shstrOff := strOff + len(strtab)
	shOff := align8(shstrOff + len(shstr))

	secFlags := uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR)
	progFlags := elf.PF_R | elf.PF_X
	if s.noExec {
		secFlags = uint64(elf.SHF_ALLOC)
		progFlags = elf.PF_R
	}
	type section struct {
		name, typ, link, info uint32
		flags, addr, off      uint64
		size, align, entsize  uint64
	}
	sections := []section{
		{},
		{name: 1, typ: uint32(elf.SHT_PROGBITS), flags: secFlags, addr: codeAddr, off: uint64(codeOff), size: textSize, align: 16},
		{name: 7, typ: uint32(elf.SHT_SYMTAB), link: 3, info: 1, off: uint64(symOff), size: uint64(syms.Len()), align: 8, entsize: uint64(symSize)},
		{name: 15, typ: uint32(elf.SHT_STRTAB), off: uint64(strOff), size: uint64(len(strtab)), align: 1},
		{name: 23, typ: uint32(elf.SHT_STRTAB), off: uint64(shstrOff), size: uint64(len(shstr)), align: 1},
	}
	shnum, shstrndx, shoff := len(sections), 4, shOff
	if s.stripped {
		shnum, shstrndx, shoff = 0, 0, 0
	}

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(s.class)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var out bytes.Buffer
	if is64 {
		write(&out, elf.Header64{
			Ident: ident, Type: uint16(elf.ET_EXEC), Machine: uint16(s.machine), Version: uint32(elf.EV_CURRENT),
			Entry: codeAddr, Phoff: uint64(ehSize), Shoff: uint64(shoff),
			Ehsize: uint16(ehSize), Phentsize: uint16(phSize), Phnum: 1,
			Shentsize: uint16(shSize), Shnum: uint16(shnum), Shstrndx: uint16(shstrndx),
		})
		write(&out, elf.Prog64{
			Type: uint32(elf.PT_LOAD), Flags: uint32(progFlags), Off: uint64(codeOff),
			Vaddr: codeAddr, Paddr: codeAddr, Filesz: uint64(len(s.code)), Memsz: uint64(len(s.code)), Align: 0x1000,
		})
	} else {
		write(&out, elf.Header32{
			Ident: ident, Type: uint16(elf.ET_EXEC), Machine: uint16(s.machine), Version: uint32(elf.EV_CURRENT),
			Entry: uint32(codeAddr), Phoff: uint32(ehSize), Shoff: uint32(shoff),
			Ehsize: uint16(ehSize), Phentsize: uint16(phSize), Phnum: 1,
			Shentsize: uint16(shSize), Shnum: uint16(shnum), Shstrndx: uint16(shstrndx),
		})
		write(&out, elf.Prog32{
			Type: uint32(elf.PT_LOAD), Flags: uint32(progFlags), Off: uint32(codeOff),
			Vaddr: uint32(codeAddr), Paddr: uint32(codeAddr), Filesz: uint32(len(s.code)), Memsz: uint32(len(s.code)), Align: 0x1000,
		})
	}
	out.Write(s.code)
	pad(&out, symOff)
	out.Write(syms.Bytes())
	out.Write(strtab)
	out.Write(shstr)
	pad(&out, shOff)
	if s.stripped {
		return out.Bytes()
	}
	for _, sec := range sections {
		if is64 {
			write(&out, elf.Section64{
				Name: sec.name, Type: sec.typ, Flags: sec.flags, Addr: sec.addr, Off: sec.off, Size: sec.size,
				Link: sec.link, Info: sec.info, Addralign: sec.align, Entsize: sec.entsize,
			})
		} else {
			write(&out, elf.Section32{
				Name: sec.name, Type: sec.typ, Flags: uint32(sec.flags), Addr: uint32(sec.addr), Off: uint32(sec.off),
				Size: uint32(sec.size), Link: sec.link, Info: sec.info, Addralign: uint32(sec.align), Entsize: uint32(sec.entsize),
			})
		}
	}
	return out.Bytes()
}

func pad(b *bytes.Buffer, to int) {
	for b.Len() < to {
		b.WriteByte(0)
	}
}

const (
	peImageBase64 = 0x140000000
	peImageBase32 = 0x400000
	peRawOffset   = 0x200
	peTextRVA     = 0x1000
)

// buildPE returns an image with a single .text section at file offset
// 0x200, its raw size padded to the file alignment.
func buildPE(t *testing.T, machine uint16, code []byte) []byte {
	t.Helper()
	le := binary.LittleEndian
	var out bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&out, le, v); err != nil {
			t.Fatal(err)
		}
	}

	var dos [0x40]byte
	dos[0], dos[1] = 'M', 'Z'
	le.PutUint32(dos[0x3C:], 0x40)
	out.Write(dos[:])
	out.WriteString("PE\x00\x00")

	is64 := machine == pe.IMAGE_FILE_MACHINE_AMD64
	ohSize := uint16(224)
	if is64 {
		ohSize = 240
	}
	write(pe.FileHeader{Machine: machine, NumberOfSections: 1, SizeOfOptionalHeader: ohSize, Characteristics: 0x0102})
	if is64 {
		write(pe.OptionalHeader64{
			Magic: 0x20b, ImageBase: peImageBase64, SectionAlignment: 0x1000, FileAlignment: 0x200,
			SizeOfImage: 0x2000, SizeOfHeaders: peRawOffset, Subsystem: 3, NumberOfRvaAndSizes: 16,
		})
	} else {
		write(pe.OptionalHeader32{
			Magic: 0x10b, ImageBase: peImageBase32, SectionAlignment: 0x1000, FileAlignment: 0x200,
			SizeOfImage: 0x2000, SizeOfHeaders: peRawOffset, Subsystem: 3, NumberOfRvaAndSizes: 16,
		})
	}
	write(pe.SectionHeader32{
		Name:             [8]uint8{'.', 't', 'e', 'x', 't'},
		VirtualSize:      uint32(len(code)),
		VirtualAddress:   peTextRVA,
		SizeOfRawData:    0x200,
		PointerToRawData: peRawOffset,
		Characteristics:  pe.IMAGE_SCN_CNT_CODE | pe.IMAGE_SCN_MEM_EXECUTE | pe.IMAGE_SCN_MEM_READ,
	})
	pad(&out, peRawOffset)
	out.Write(code)
	pad(&out, peRawOffset+0x200)
	return out.Bytes()
}

const (
	machoTextAddr = 0x100000000
	machoCodeOff  = 32 + 72 + 80 + 24
)

// buildMachO returns a 64-bit x86-64 executable with one __TEXT,__text
// section and a symbol table holding _main at the start of the code.
func buildMachO(t *testing.T, cpu macho.Cpu, code []byte) []byte {
	t.Helper()
	le := binary.LittleEndian
	var out bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&out, le, v); err != nil {
			t.Fatal(err)
		}
	}

	symOff := align8(machoCodeOff + len(code))
	strtab := []byte("\x00_main\x00")
	strOff := symOff + 16
	total := strOff + len(strtab)

	var segName, sectName [16]byte
	copy(segName[:], "__TEXT")
	copy(sectName[:], "__text")

	write(macho.FileHeader{Magic: macho.Magic64, Cpu: cpu, SubCpu: 3, Type: macho.TypeExec, Ncmd: 2, Cmdsz: 72 + 80 + 24})
	write(uint32(0))
	write(macho.Segment64{
		Cmd: macho.LoadCmdSegment64, Len: 72 + 80, Name: segName,
		Addr: machoTextAddr, Memsz: 0x1000, Offset: 0, Filesz: uint64(total),
		Maxprot: 5, Prot: 5, Nsect: 1,
	})
	write(macho.Section64{
		Name: sectName, Seg: segName, Addr: machoTextAddr + machoCodeOff, Size: uint64(len(code)),
		Offset: machoCodeOff, Align: 4, Flags: attrPureInstructions | attrSomeInstructions,
	})
	write(macho.SymtabCmd{
		Cmd: macho.LoadCmdSymtab, Len: 24,
		Symoff: uint32(symOff), Nsyms: 1, Stroff: uint32(strOff), Strsize: uint32(len(strtab)),
	})
	out.Write(code)
	pad(&out, symOff)
	write(macho.Nlist64{Name: 1, Type: 0x0f, Sect: 1, Value: machoTextAddr + machoCodeOff})
	out.Write(strtab)
	return out.Bytes()
}

const fatSliceOffset = 0x1000

// buildFat wraps a thin image in a universal binary with one slice.
func buildFat(t *testing.T, cpu macho.Cpu, thin []byte) []byte {
	t.Helper()
	be := binary.BigEndian
	var out bytes.Buffer
	for _, v := range []uint32{macho.MagicFat, 1, uint32(cpu), 3, fatSliceOffset, uint32(len(thin)), 12} {
		if err := binary.Write(&out, be, v); err != nil {
			t.Fatal(err)
		}
	}
	pad(&out, fatSliceOffset)
	out.Write(thin)
	return out.Bytes()
}

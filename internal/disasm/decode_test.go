package disasm

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"golang.org/x/arch/x86/x86asm"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		mode int
		want Inst
	}{
		{
			name: "nop",
			code: []byte{0x90},
			mode: 64,
			want: Inst{Len: 1, Mode: 64, Opcode: 0x90},
		},
		{
			name: "movsd register form",
			code: []byte{0xF2, 0x0F, 0x10, 0xC1},
			mode: 64,
			want: Inst{Len: 4, Mode: 64, Prefixes: PrefixREPNE, Mandatory: PrefixF2, Map: Map0F, Opcode: 0x10, ModRM: 0xC1, HasModRM: true},
		},
		{
			name: "vpaddd ymm two byte vex",
			code: []byte{0xC5, 0xFD, 0xFE, 0xC0},
			mode: 64,
			want: Inst{Len: 4, Mode: 64, Mandatory: Prefix66, Encoding: VEX, Map: Map0F, Opcode: 0xFE, ModRM: 0xC0, HasModRM: true, VectorLen: 256},
		},
		{
			name: "vpbroadcastd three byte vex",
			code: []byte{0xC4, 0xE2, 0x7D, 0x58, 0xC0},
			mode: 64,
			want: Inst{Len: 5, Mode: 64, Mandatory: Prefix66, Encoding: VEX, Map: Map0F38, Opcode: 0x58, ModRM: 0xC0, HasModRM: true, VectorLen: 256},
		},
		{
			name: "vaddps zmm",
			code: []byte{0x62, 0xF1, 0x7C, 0x48, 0x58, 0xC1},
			mode: 64,
			want: Inst{Len: 6, Mode: 64, Encoding: EVEX, Map: Map0F, Opcode: 0x58, ModRM: 0xC1, HasModRM: true, VectorLen: 512},
		},
		{
			name: "mov imm64",
			code: []byte{0x48, 0xB8, 1, 2, 3, 4, 5, 6, 7, 8},
			mode: 64,
			want: Inst{Len: 10, Mode: 64, Rex: 0x48, Opcode: 0xB8, W: true},
		},
		{
			name: "mov imm16",
			code: []byte{0x66, 0xB8, 1, 2},
			mode: 64,
			want: Inst{Len: 4, Mode: 64, Prefixes: PrefixOpSize, Mandatory: Prefix66, Opcode: 0xB8},
		},
		{
			name: "sib with disp8",
			code: []byte{0x8B, 0x44, 0x24, 0x08},
			mode: 64,
			want: Inst{Len: 4, Mode: 64, Opcode: 0x8B, ModRM: 0x44, HasModRM: true},
		},
		{
			name: "group3 test has immediate",
			code: []byte{0xF7, 0xC0, 1, 2, 3, 4},
			mode: 64,
			want: Inst{Len: 6, Mode: 64, Opcode: 0xF7, ModRM: 0xC0, HasModRM: true},
		},
		{
			name: "group3 not has no immediate",
			code: []byte{0xF7, 0xD0},
			mode: 64,
			want: Inst{Len: 2, Mode: 64, Opcode: 0xF7, ModRM: 0xD0, HasModRM: true},
		},
		{
			name: "moffs in 64-bit mode",
			code: []byte{0xA1, 1, 2, 3, 4, 5, 6, 7, 8},
			mode: 64,
			want: Inst{Len: 9, Mode: 64, Opcode: 0xA1},
		},
		{
			name: "moffs with address size in 32-bit mode",
			code: []byte{0x67, 0xA1, 1, 2},
			mode: 32,
			want: Inst{Len: 4, Mode: 32, Prefixes: PrefixAddrSize, Opcode: 0xA1},
		},
		{
			name: "lds in 32-bit mode",
			code: []byte{0xC5, 0x06},
			mode: 32,
			want: Inst{Len: 2, Mode: 32, Opcode: 0xC5, ModRM: 0x06, HasModRM: true},
		},
		{
			name: "les in 32-bit mode",
			code: []byte{0xC4, 0x06},
			mode: 32,
			want: Inst{Len: 2, Mode: 32, Opcode: 0xC4, ModRM: 0x06, HasModRM: true},
		},
		{
			name: "bound in 32-bit mode",
			code: []byte{0x62, 0x06},
			mode: 32,
			want: Inst{Len: 2, Mode: 32, Opcode: 0x62, ModRM: 0x06, HasModRM: true},
		},
		{
			name: "vex in 32-bit mode",
			code: []byte{0xC5, 0xF9, 0xFE, 0xC0},
			mode: 32,
			want: Inst{Len: 4, Mode: 32, Mandatory: Prefix66, Encoding: VEX, Map: Map0F, Opcode: 0xFE, ModRM: 0xC0, HasModRM: true, VectorLen: 128},
		},
		{
			name: "evex in 32-bit mode",
			code: []byte{0x62, 0xF1, 0x7C, 0x48, 0x58, 0xC1},
			mode: 32,
			want: Inst{Len: 6, Mode: 32, Encoding: EVEX, Map: Map0F, Opcode: 0x58, ModRM: 0xC1, HasModRM: true, VectorLen: 512},
		},
		{
			name: "evex vpextrw takes imm8",
			code: []byte{0x62, 0xF1, 0x7D, 0x08, 0xC5, 0xC0, 0x01},
			mode: 64,
			want: Inst{Len: 7, Mode: 64, Mandatory: Prefix66, Encoding: EVEX, Map: Map0F, Opcode: 0xC5, ModRM: 0xC0, HasModRM: true, VectorLen: 128},
		},
		{
			name: "evex vpinsrw takes imm8",
			code: []byte{0x62, 0xF1, 0x7D, 0x08, 0xC4, 0xC0, 0x01},
			mode: 64,
			want: Inst{Len: 7, Mode: 64, Mandatory: Prefix66, Encoding: EVEX, Map: Map0F, Opcode: 0xC4, ModRM: 0xC0, HasModRM: true, VectorLen: 128},
		},
		{
			name: "xop vpcmov",
			code: []byte{0x8F, 0xE8, 0x78, 0xA2, 0xC1, 0x20},
			mode: 64,
			want: Inst{Len: 6, Mode: 64, Encoding: XOP, Map: MapXOP8, Opcode: 0xA2, ModRM: 0xC1, HasModRM: true, VectorLen: 128},
		},
		{
			name: "xop bextr imm32",
			code: []byte{0x8F, 0xEA, 0x78, 0x10, 0xC0, 1, 2, 3, 4},
			mode: 64,
			want: Inst{Len: 9, Mode: 64, Encoding: XOP, Map: MapXOPA, Opcode: 0x10, ModRM: 0xC0, HasModRM: true, VectorLen: 128},
		},
		{
			name: "pop register is not xop",
			code: []byte{0x8F, 0xC0},
			mode: 64,
			want: Inst{Len: 2, Mode: 64, Opcode: 0x8F, ModRM: 0xC0, HasModRM: true},
		},
		{
			name: "pop memory is not xop",
			code: []byte{0x8F, 0x45, 0x08},
			mode: 32,
			want: Inst{Len: 3, Mode: 32, Opcode: 0x8F, ModRM: 0x45, HasModRM: true},
		},
		{
			name: "16-bit addressing disp16 at mod 0 rm 6",
			code: []byte{0x67, 0x8B, 0x06, 0x10, 0x20},
			mode: 32,
			want: Inst{Len: 5, Mode: 32, Prefixes: PrefixAddrSize, Opcode: 0x8B, ModRM: 0x06, HasModRM: true},
		},
		{
			name: "16-bit addressing disp16 at mod 2",
			code: []byte{0x67, 0x8B, 0x86, 0x10, 0x20},
			mode: 32,
			want: Inst{Len: 5, Mode: 32, Prefixes: PrefixAddrSize, Opcode: 0x8B, ModRM: 0x86, HasModRM: true},
		},
		{
			name: "16-bit addressing disp8 at mod 1",
			code: []byte{0x67, 0x8B, 0x46, 0x10},
			mode: 32,
			want: Inst{Len: 4, Mode: 32, Prefixes: PrefixAddrSize, Opcode: 0x8B, ModRM: 0x46, HasModRM: true},
		},
		{
			name: "16-bit addressing has no sib",
			code: []byte{0x67, 0x8B, 0x04},
			mode: 32,
			want: Inst{Len: 3, Mode: 32, Prefixes: PrefixAddrSize, Opcode: 0x8B, ModRM: 0x04, HasModRM: true},
		},
		{
			name: "inc in 32-bit mode",
			code: []byte{0x40},
			mode: 32,
			want: Inst{Len: 1, Mode: 32, Opcode: 0x40},
		},
		{
			name: "last of f2 and f3 wins",
			code: []byte{0xF2, 0xF3, 0x0F, 0xB8, 0xC1},
			mode: 64,
			want: Inst{Len: 5, Mode: 64, Prefixes: PrefixREPNE | PrefixREP, Mandatory: PrefixF3, Map: Map0F, Opcode: 0xB8, ModRM: 0xC1, HasModRM: true},
		},
		{
			name: "rex cleared by later prefix",
			code: []byte{0x48, 0x66, 0x90},
			mode: 64,
			want: Inst{Len: 3, Mode: 64, Prefixes: PrefixOpSize, Mandatory: Prefix66, Opcode: 0x90},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.code, tt.mode)
			if err != nil {
				t.Fatalf("Decode(% x) error: %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("Decode(% x)\n got %+v\nwant %+v", tt.code, got, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    []byte
		mode    int
		reason  Reason
		skipped int
	}{
		{"push es in 64-bit mode", []byte{0x06}, 64, ReasonInvalidOpcode, 1},
		{"unassigned two byte opcode", []byte{0x0F, 0x04}, 64, ReasonInvalidOpcode, 1},
		{"operand size before vex", []byte{0x66, 0xC5, 0xFD, 0xFE, 0xC0}, 64, ReasonBadPrefix, 1},
		{"rex before vex", []byte{0x48, 0xC5, 0xFD, 0xFE, 0xC0}, 64, ReasonBadPrefix, 1},
		{"vex map zero", []byte{0xC4, 0xE0, 0x7D, 0x58, 0xC0}, 64, ReasonBadMap, 1},
		{"evex map zero", []byte{0x62, 0xF0, 0x7C, 0x48, 0x58, 0xC1}, 64, ReasonBadMap, 1},
		{"evex fixed bit clear", []byte{0x62, 0xF1, 0x78, 0x48, 0x58, 0xC1}, 64, ReasonBadPrefix, 1},
		{"truncated immediate", []byte{0xB8, 1, 2}, 64, ReasonTruncated, 3},
		{"prefix only", []byte{0x66}, 64, ReasonTruncated, 1},
		{"too many prefixes", append(bytes.Repeat([]byte{0x66}, 15), 0x90), 64, ReasonTooLong, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.code, tt.mode)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Decode(% x) = %v, want *DecodeError", tt.code, err)
			}
			if de.Reason != tt.reason {
				t.Errorf("reason = %v, want %v", de.Reason, tt.reason)
			}
			if de.Len != tt.skipped {
				t.Errorf("len = %d, want %d", de.Len, tt.skipped)
			}
		})
	}
}

func TestDecodeMode(t *testing.T) {
	if _, err := Decode([]byte{0x90}, 16); !errors.Is(err, ErrMode) {
		t.Errorf("Decode in mode 16 = %v, want ErrMode", err)
	}
}

func TestInstructionsNops(t *testing.T) {
	code := bytes.Repeat([]byte{0x90}, 10)
	n := 0
	for inst, err := range Instructions(code, 64) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inst.Offset != n || inst.Len != 1 {
			t.Errorf("inst %d at %d len %d", n, inst.Offset, inst.Len)
		}
		n++
	}
	if n != 10 {
		t.Errorf("got %d instructions, want 10", n)
	}
}

func TestInstructionsResync(t *testing.T) {
	code := []byte{0x90, 0x06, 0x90}
	type step struct {
		offset int
		err    bool
	}
	var got []step
	for inst, err := range Instructions(code, 64) {
		if err != nil {
			got = append(got, step{err.(*DecodeError).Offset, true})
			continue
		}
		got = append(got, step{inst.Offset, false})
	}
	want := []step{{0, false}, {1, true}, {2, false}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInstructionsTruncatedTail(t *testing.T) {
	code := []byte{0x90, 0xB8, 0x01}
	var insts int
	var errs []*DecodeError
	for _, err := range Instructions(code, 64) {
		if err != nil {
			errs = append(errs, err.(*DecodeError))
			continue
		}
		insts++
	}
	if insts != 1 {
		t.Errorf("got %d instructions, want 1", insts)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Offset != 1 || errs[0].Len != 2 || errs[0].Reason != ReasonTruncated {
		t.Errorf("tail error = %+v", *errs[0])
	}
}

func TestInstructionsStop(t *testing.T) {
	code := bytes.Repeat([]byte{0x90}, 10)
	n := 0
	for range Instructions(code, 64) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d times after break, want 3", n)
	}
}

// Every byte of a region belongs to exactly one instruction or error, in
// order, whatever the input.
func TestInstructionsCoverRegion(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, mode := range []int{32, 64} {
		for range 50 {
			code := make([]byte, 1+r.IntN(512))
			for i := range code {
				code[i] = byte(r.Uint32())
			}
			next := 0
			for inst, err := range Instructions(code, mode) {
				off, n := inst.Offset, inst.Len
				if err != nil {
					de := err.(*DecodeError)
					off, n = de.Offset, de.Len
				}
				if off != next {
					t.Fatalf("mode %d: step at %d, want %d", mode, off, next)
				}
				if n < 1 || n > MaxInstLen {
					t.Fatalf("mode %d: step at %d has length %d", mode, off, n)
				}
				next += n
			}
			if next != len(code) {
				t.Fatalf("mode %d: consumed %d of %d bytes", mode, next, len(code))
			}
		}
	}
}

func TestDecodeLengthMatchesX86asm(t *testing.T) {
	codes := [][]byte{
		{0x90},
		{0x48, 0xB8, 1, 2, 3, 4, 5, 6, 7, 8},
		{0x8B, 0x04, 0x24},
		{0x8B, 0x44, 0x24, 0x08},
		{0x8B, 0x05, 1, 2, 3, 4},
		{0xE8, 1, 2, 3, 4},
		{0xF7, 0xC0, 1, 2, 3, 4},
		{0x0F, 0xA2},
		{0x0F, 0x1F, 0x44, 0x00, 0x00},
		{0x66, 0x0F, 0x3A, 0x0F, 0xC1, 0x08},
		{0xF2, 0x0F, 0x10, 0xC1},
		{0x66, 0x0F, 0x38, 0x00, 0xC1},
		{0xF3, 0x0F, 0xB8, 0xC1},
		{0x48, 0x81, 0xEC, 0x00, 0x01, 0x00, 0x00},
	}
	for _, code := range codes {
		want, err := x86asm.Decode(code, 64)
		if err != nil {
			t.Fatalf("x86asm.Decode(% x): %v", code, err)
		}
		got, err := Decode(code, 64)
		if err != nil {
			t.Fatalf("Decode(% x): %v", code, err)
		}
		if got.Len != want.Len {
			t.Errorf("Decode(% x).Len = %d, x86asm says %d", code, got.Len, want.Len)
		}
	}
}

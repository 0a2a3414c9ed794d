package isa

import "fmt"

// Feature sets added by each x86-64 psABI microarchitecture level. OSXSAVE
// in v3 is an operating-system bit, so XSAVE instructions such as xgetbv
// raise no level.
var (
	baseline = Of(CMOV, CX8, FXSR, MMX, SSE, SSE2)
	levelV2  = Of(CX16, LAHFSAHF, POPCNT, SSE3, SSE41, SSE42, SSSE3)
	levelV3  = Of(AVX, AVX2, BMI1, BMI2, F16C, FMA, LZCNT, MOVBE)
	levelV4  = Of(AVX512F, AVX512BW, AVX512CD, AVX512DQ, AVX512VL)
)

// Level returns the lowest x86-64 psABI level (1 to 4) that covers every
// feature in fs. Features outside the psABI levels do not raise it.
func Level(fs FeatureSet) int {
	switch {
	case fs&levelV4 != 0:
		return 4
	case fs&levelV3 != 0:
		return 3
	case fs&levelV2 != 0:
		return 2
	}
	return 1
}

// LevelName formats a psABI level the way compilers spell -march.
func LevelName(level int) string {
	if level <= 1 {
		return "x86-64"
	}
	return fmt.Sprintf("x86-64-v%d", level)
}

// Level returns the psABI level that introduced f, or 0 when f belongs to
// none of them.
func (f Feature) Level() int {
	switch {
	case baseline.Has(f):
		return 1
	case levelV2.Has(f):
		return 2
	case levelV3.Has(f):
		return 3
	case levelV4.Has(f):
		return 4
	}
	return 0
}

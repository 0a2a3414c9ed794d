// Package isa names the x86 instruction-set extensions and maps decoded
// instructions onto them.
package isa

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

// Feature is an instruction-set extension.
type Feature uint8

const (
	CMOV Feature = iota
	CX8
	CX16
	LAHFSAHF
	MMX
	SSE
	SSE2
	SSE3
	SSSE3
	SSE41
	SSE42
	SSE4A
	POPCNT
	LZCNT
	MOVBE
	AVX
	AVX2
	FMA
	FMA4
	F16C
	XOP
	TBM
	BMI1
	BMI2
	ADX
	AES
	PCLMULQDQ
	VAES
	VPCLMULQDQ
	SHA
	GFNI
	RDRAND
	RDSEED
	RDTSCP
	RDPID
	CPUID
	XSAVE
	FXSR
	CLFLUSHOPT
	CLWB
	PREFETCHW
	AMD3DNOW
	RTM
	MOVDIRI
	MOVDIR64B
	SERIALIZE
	AVXVNNI
	AVX512F
	AVX512VL
	AVX512BW
	AVX512DQ
	AVX512CD
	AVX512IFMA
	AVX512VBMI
	AVX512VBMI2
	AVX512VNNI
	AVX512BITALG
	AVX512VPOPCNTDQ
	AVX512BF16
	AVX512FP16

	numFeatures
)

var featureInfo = [numFeatures]struct {
	name string
	desc string
}{
	CMOV:            {"CMOV", "conditional move"},
	CX8:             {"CX8", "CMPXCHG8B"},
	CX16:            {"CX16", "CMPXCHG16B"},
	LAHFSAHF:        {"LAHF_SAHF", "LAHF/SAHF in 64-bit mode"},
	MMX:             {"MMX", "MMX packed integer"},
	SSE:             {"SSE", "streaming SIMD extensions"},
	SSE2:            {"SSE2", "SSE2 double precision and 128-bit integer"},
	SSE3:            {"SSE3", "SSE3 horizontal and duplicate moves"},
	SSSE3:           {"SSSE3", "supplemental SSE3"},
	SSE41:           {"SSE4_1", "SSE4.1"},
	SSE42:           {"SSE4_2", "SSE4.2 string compare and CRC32"},
	SSE4A:           {"SSE4A", "AMD SSE4a"},
	POPCNT:          {"POPCNT", "population count"},
	LZCNT:           {"LZCNT", "leading zero count"},
	MOVBE:           {"MOVBE", "move with byte swap"},
	AVX:             {"AVX", "advanced vector extensions"},
	AVX2:            {"AVX2", "256-bit integer AVX"},
	FMA:             {"FMA", "fused multiply-add (FMA3)"},
	FMA4:            {"FMA4", "AMD four-operand fused multiply-add"},
	F16C:            {"F16C", "half precision conversion"},
	XOP:             {"XOP", "AMD extended operations"},
	TBM:             {"TBM", "AMD trailing bit manipulation"},
	BMI1:            {"BMI1", "bit manipulation set 1"},
	BMI2:            {"BMI2", "bit manipulation set 2"},
	ADX:             {"ADX", "multi-precision add-carry"},
	AES:             {"AES", "AES-NI"},
	PCLMULQDQ:       {"PCLMULQDQ", "carry-less multiplication"},
	VAES:            {"VAES", "vector AES"},
	VPCLMULQDQ:      {"VPCLMULQDQ", "vector carry-less multiplication"},
	SHA:             {"SHA", "SHA-1 and SHA-256"},
	GFNI:            {"GFNI", "Galois field instructions"},
	RDRAND:          {"RDRAND", "hardware random number"},
	RDSEED:          {"RDSEED", "hardware random seed"},
	RDTSCP:          {"RDTSCP", "serializing time stamp counter read"},
	RDPID:           {"RDPID", "read processor ID"},
	CPUID:           {"CPUID", "processor identification"},
	XSAVE:           {"XSAVE", "extended state save and restore"},
	FXSR:            {"FXSR", "FXSAVE/FXRSTOR"},
	CLFLUSHOPT:      {"CLFLUSHOPT", "optimized cache line flush"},
	CLWB:            {"CLWB", "cache line write back"},
	PREFETCHW:       {"PREFETCHW", "prefetch for write"},
	AMD3DNOW:        {"3DNOW", "AMD 3DNow!"},
	RTM:             {"RTM", "restricted transactional memory"},
	MOVDIRI:         {"MOVDIRI", "direct store"},
	MOVDIR64B:       {"MOVDIR64B", "64-byte direct store"},
	SERIALIZE:       {"SERIALIZE", "instruction stream serialization"},
	AVXVNNI:         {"AVX_VNNI", "VEX-encoded neural network instructions"},
	AVX512F:         {"AVX512F", "AVX-512 foundation"},
	AVX512VL:        {"AVX512VL", "AVX-512 128/256-bit vector lengths"},
	AVX512BW:        {"AVX512BW", "AVX-512 byte and word"},
	AVX512DQ:        {"AVX512DQ", "AVX-512 doubleword and quadword"},
	AVX512CD:        {"AVX512CD", "AVX-512 conflict detection"},
	AVX512IFMA:      {"AVX512_IFMA", "AVX-512 integer fused multiply-add"},
	AVX512VBMI:      {"AVX512_VBMI", "AVX-512 vector byte manipulation"},
	AVX512VBMI2:     {"AVX512_VBMI2", "AVX-512 vector byte manipulation 2"},
	AVX512VNNI:      {"AVX512_VNNI", "AVX-512 neural network instructions"},
	AVX512BITALG:    {"AVX512_BITALG", "AVX-512 bit algorithms"},
	AVX512VPOPCNTDQ: {"AVX512_VPOPCNTDQ", "AVX-512 doubleword and quadword popcount"},
	AVX512BF16:      {"AVX512_BF16", "AVX-512 bfloat16"},
	AVX512FP16:      {"AVX512_FP16", "AVX-512 half precision"},
}

func (f Feature) String() string {
	if f < numFeatures {
		return featureInfo[f].name
	}
	return fmt.Sprintf("Feature(%d)", uint8(f))
}

// Description returns a short human-readable description of f.
func (f Feature) Description() string {
	if f < numFeatures {
		return featureInfo[f].desc
	}
	return ""
}

func (f Feature) MarshalText() ([]byte, error) {
	if f >= numFeatures {
		return nil, fmt.Errorf("isa: unknown feature %d", uint8(f))
	}
	return []byte(featureInfo[f].name), nil
}

func (f *Feature) UnmarshalText(b []byte) error {
	p, ok := ParseFeature(string(b))
	if !ok {
		return fmt.Errorf("isa: unknown feature %q", b)
	}
	*f = p
	return nil
}

// ParseFeature looks a feature up by name, ignoring case.
func ParseFeature(name string) (Feature, bool) {
	for f := range numFeatures {
		if strings.EqualFold(featureInfo[f].name, name) {
			return f, true
		}
	}
	return 0, false
}

// All returns every known feature in declaration order.
func All() []Feature {
	fs := make([]Feature, numFeatures)
	for i := range fs {
		fs[i] = Feature(i)
	}
	return fs
}

// FeatureSet is a set of features. The zero value is the empty set.
type FeatureSet uint64

// Of returns the set holding fs.
func Of(fs ...Feature) FeatureSet {
	var s FeatureSet
	for _, f := range fs {
		s |= 1 << f
	}
	return s
}

func (s FeatureSet) Has(f Feature) bool { return s&(1<<f) != 0 }

func (s FeatureSet) With(f Feature) FeatureSet { return s | 1<<f }

func (s FeatureSet) Union(o FeatureSet) FeatureSet { return s | o }

func (s FeatureSet) Empty() bool { return s == 0 }

func (s FeatureSet) Len() int { return bits.OnesCount64(uint64(s)) }

// Features returns the members of s in declaration order.
func (s FeatureSet) Features() []Feature {
	out := make([]Feature, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, Feature(bits.TrailingZeros64(v)))
	}
	return out
}

func (s FeatureSet) String() string {
	names := make([]string, 0, s.Len())
	for _, f := range s.Features() {
		names = append(names, f.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// MarshalJSON encodes s as a list of feature names.
func (s FeatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Features())
}

func (s *FeatureSet) UnmarshalJSON(b []byte) error {
	var fs []Feature
	if err := json.Unmarshal(b, &fs); err != nil {
		return err
	}
	*s = Of(fs...)
	return nil
}

// Package estimate provides the memory footprint heuristics used by the
// orchestrator's admission checks. Estimates are deliberately approximate:
// they exist to keep a safety margin, not to allocate precisely.
package estimate

import (
	"regexp"
	"strconv"
	"strings"

	"orchd/pkg/types"
)

const (
	mb = 1 << 20

	// Base cost per parameter at fp16, before any quantization divisor.
	bytesPerParam = 2e9 // per billion parameters

	// Fallback when no parameter-count token can be parsed from the request.
	defaultLLMBytes = uint64(8e9)

	defaultFixedBytes = uint64(1024 * mb)
)

// Fixed lookup tables for the non-LLM kinds, keyed by size class.
var fixedTables = map[types.ModelKind]map[string]uint64{
	types.KindSpeech: {
		"tiny":   100 * mb,
		"base":   200 * mb,
		"small":  600 * mb,
		"medium": 1800 * mb,
		"large":  3000 * mb,
	},
	types.KindVision: {
		"small": 1200 * mb,
		"base":  2500 * mb,
		"large": 5000 * mb,
	},
	types.KindEmbedding: {
		"small": 150 * mb,
		"base":  500 * mb,
		"large": 1500 * mb,
	},
}

// paramToken matches parameter-count tokens like "7b", "70B" or "1.5b".
var paramToken = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)b`)

// Memory estimates the in-memory footprint of a model request in bytes.
// It is pure and never fails: unknown inputs degrade to fixed defaults.
func Memory(req types.ModelRequest) uint64 {
	if req.Kind != types.KindLLM {
		return fixedEstimate(req.Kind, req.SizeClass)
	}

	billions, ok := parseParamBillions(req.SizeClass)
	if !ok {
		billions, ok = parseParamBillions(req.Path)
	}
	if !ok {
		// The flat default stands in for an unknown parameter count, so
		// quantization scaling does not apply to it.
		return defaultLLMBytes
	}
	base := uint64(billions * bytesPerParam)
	num, den := quantFactor(req.Quantization)
	est := base * num / den
	if est == 0 {
		est = 1
	}
	return est
}

func fixedEstimate(kind types.ModelKind, sizeClass string) uint64 {
	table, ok := fixedTables[kind]
	if !ok {
		return defaultFixedBytes
	}
	if v, ok := table[strings.ToLower(strings.TrimSpace(sizeClass))]; ok {
		return v
	}
	return defaultFixedBytes
}

func parseParamBillions(s string) (float64, bool) {
	m := paramToken.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// quantFactor returns the multiplier for a quantization scheme as a
// numerator/denominator pair relative to the fp16 baseline.
func quantFactor(quant string) (num, den uint64) {
	switch strings.ToUpper(strings.TrimSpace(quant)) {
	case "Q4_K_M":
		return 1, 4
	case "Q5_K_M":
		return 5, 16
	case "Q6_K":
		return 6, 16
	case "Q8_0":
		return 1, 2
	default:
		return 1, 1
	}
}

// DefaultQuantization picks a quantization scheme from available headroom
// when a request does not specify one. More headroom favors quality, tight
// headroom favors aggressive compression. Explicit requests always override
// this default.
func DefaultQuantization(headroomBytes uint64) string {
	switch {
	case headroomBytes >= 16e9:
		return "Q8_0"
	case headroomBytes >= 8e9:
		return "Q6_K"
	case headroomBytes >= 4e9:
		return "Q5_K_M"
	default:
		return "Q4_K_M"
	}
}

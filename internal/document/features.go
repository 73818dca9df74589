package document

import (
	"github.com/samber/lo"
)

// Feature describes one class of codec metadata ffedit can export.
type Feature struct {
	Name        string
	Description string
}

var catalogue = []Feature{
	{Name: "info", Description: "info"},
	{Name: "q_dct", Description: "quantized DCT coefficients"},
	{Name: "q_dc", Description: "quantized DCT coefficients (DC only)"},
	{Name: "mv", Description: "motion vectors"},
	{Name: "mv_delta", Description: "motion vectors (delta only)"},
	{Name: "qscale", Description: "quantization scale"},
	{Name: "dqt", Description: "quantization table"},
	{Name: "dht", Description: "huffman table"},
	{Name: "mb", Description: "macroblock"},
}

// Features returns the known feature catalogue in ffedit's listing order.
func Features() []Feature {
	out := make([]Feature, len(catalogue))
	copy(out, catalogue)
	return out
}

// FeatureNames returns just the names from the catalogue.
func FeatureNames() []string {
	return lo.Map(catalogue, func(f Feature, _ int) string { return f.Name })
}

// LookupFeature finds a feature by name.
func LookupFeature(name string) (Feature, bool) {
	return lo.Find(catalogue, func(f Feature) bool { return f.Name == name })
}

// IsKnownFeature reports whether name appears in the catalogue.
func IsKnownFeature(name string) bool {
	_, ok := LookupFeature(name)
	return ok
}

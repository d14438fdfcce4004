package booster

import (
	"math"
	"sort"
)

// Preset is a content-tuned starting point for the protective stages.
type Preset struct {
	Name                string
	CompressorThreshold float64
	CompressorRatio     float64
	LimiterThreshold    float64
}

var presets = map[string]Preset{
	"music":   {Name: "music", CompressorThreshold: -24, CompressorRatio: 4, LimiterThreshold: -1.5},
	"voice":   {Name: "voice", CompressorThreshold: -32, CompressorRatio: 6, LimiterThreshold: -2},
	"movie":   {Name: "movie", CompressorThreshold: -20, CompressorRatio: 3, LimiterThreshold: -1},
	"extreme": {Name: "extreme", CompressorThreshold: -35, CompressorRatio: 8, LimiterThreshold: -3},
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Apply returns s with the preset's compressor and limiter values.
func (p Preset) Apply(s State) State {
	s.Compressor.Threshold = p.CompressorThreshold
	s.Compressor.Ratio = p.CompressorRatio
	s.Limiter.Threshold = p.LimiterThreshold

	return s
}

// GainPreset is a named quick volume level.
type GainPreset struct {
	Name  string
	Value float64
}

// GainPresets are the quick levels offered by control surfaces.
var GainPresets = []GainPreset{
	{Name: "slight", Value: 1.5},
	{Name: "medium", Value: 3},
	{Name: "loud", Value: 5},
	{Name: "maximum", Value: 7},
}

// ClarityLabel describes the compressor threshold in listener terms.
func ClarityLabel(threshold float64) string {
	switch t := math.Abs(threshold); {
	case t < 15:
		return "Low"
	case t < 30:
		return "Medium"
	default:
		return "High"
	}
}

// BalanceLabel describes the compressor ratio in listener terms.
func BalanceLabel(ratio float64) string {
	switch {
	case ratio <= 2:
		return "Subtle"
	case ratio <= 6:
		return "Moderate"
	default:
		return "Strong"
	}
}

// ProtectionLabel describes the limiter threshold in listener terms.
func ProtectionLabel(threshold float64) string {
	switch {
	case threshold >= -1:
		return "Light"
	case threshold >= -3:
		return "Medium"
	default:
		return "Strong"
	}
}

// HighGainWarning reports whether gain is high enough that the limiter
// switches to its tightened configuration.
func HighGainWarning(gain float64) bool {
	return gain > HighGainCutoff
}

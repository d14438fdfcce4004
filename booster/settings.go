package booster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-boost/store"
)

// Persisted setting keys.
const (
	KeyBoosterEnabled     = "boosterEnabled"
	KeyFloatingUIVisible  = "floatingUIVisible"
	KeyGainValue          = "gainValue"
	KeyCompressorSettings = "compressorSettings"
	KeyLimiterSettings    = "limiterSettings"
)

// AllKeys lists every persisted setting key.
var AllKeys = []string{
	KeyBoosterEnabled,
	KeyFloatingUIVisible,
	KeyGainValue,
	KeyCompressorSettings,
	KeyLimiterSettings,
}

// Gain bounds offered by control surfaces.
const (
	DefaultGain = 2.0
	MinGain     = 1.0
	MaxGain     = 7.0
)

// CompressorSettings configures the compressor stage. Threshold and Knee
// are in dB, Attack and Release in seconds.
type CompressorSettings struct {
	Threshold float64 `json:"threshold"`
	Ratio     float64 `json:"ratio"`
	Knee      float64 `json:"knee"`
	Attack    float64 `json:"attack"`
	Release   float64 `json:"release"`
}

// LimiterSettings configures the limiter stage. Ratio and knee are not
// user settings; they follow from the gain (see LimiterParams).
type LimiterSettings struct {
	Threshold float64 `json:"threshold"`
	Attack    float64 `json:"attack"`
	Release   float64 `json:"release"`
}

// DefaultCompressorSettings returns threshold -24 dB, ratio 4, knee 5 dB,
// attack 3 ms and release 250 ms.
func DefaultCompressorSettings() CompressorSettings {
	return CompressorSettings{
		Threshold: -24,
		Ratio:     4,
		Knee:      5,
		Attack:    0.003,
		Release:   0.25,
	}
}

// DefaultLimiterSettings returns threshold -0.5 dB, attack 0.5 ms and
// release 50 ms.
func DefaultLimiterSettings() LimiterSettings {
	return LimiterSettings{
		Threshold: -0.5,
		Attack:    0.0005,
		Release:   0.05,
	}
}

// CompressorPatch is a partial compressor update; nil fields are kept.
type CompressorPatch struct {
	Threshold *float64 `json:"threshold,omitempty"`
	Ratio     *float64 `json:"ratio,omitempty"`
	Knee      *float64 `json:"knee,omitempty"`
	Attack    *float64 `json:"attack,omitempty"`
	Release   *float64 `json:"release,omitempty"`
}

// LimiterPatch is a partial limiter update; nil fields are kept.
type LimiterPatch struct {
	Threshold *float64 `json:"threshold,omitempty"`
	Attack    *float64 `json:"attack,omitempty"`
	Release   *float64 `json:"release,omitempty"`
}

// Merge returns s with every non-nil field of p applied.
func (s CompressorSettings) Merge(p CompressorPatch) CompressorSettings {
	mergeField(&s.Threshold, p.Threshold)
	mergeField(&s.Ratio, p.Ratio)
	mergeField(&s.Knee, p.Knee)
	mergeField(&s.Attack, p.Attack)
	mergeField(&s.Release, p.Release)

	return s
}

// Merge returns s with every non-nil field of p applied.
func (s LimiterSettings) Merge(p LimiterPatch) LimiterSettings {
	mergeField(&s.Threshold, p.Threshold)
	mergeField(&s.Attack, p.Attack)
	mergeField(&s.Release, p.Release)

	return s
}

func mergeField(dst *float64, v *float64) {
	if v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
		*dst = *v
	}
}

// State is the per-page engine state mirrored in persistent storage.
type State struct {
	Enabled           bool
	FloatingUIVisible bool
	Gain              float64
	Compressor        CompressorSettings
	Limiter           LimiterSettings
}

// DefaultState returns the state used when nothing has been persisted:
// booster off, panel hidden, gain 2.0 and default dynamics.
func DefaultState() State {
	return State{
		Gain:       DefaultGain,
		Compressor: DefaultCompressorSettings(),
		Limiter:    DefaultLimiterSettings(),
	}
}

// LoadState reads the persisted state. Missing keys keep their defaults,
// partial setting objects are merged over the defaults, and malformed keys
// fall back to the defaults while being reported in the returned error.
// The returned State is always usable.
func LoadState(ctx context.Context, b store.Backend) (State, error) {
	s := DefaultState()

	values, err := b.Get(ctx, AllKeys...)
	if err != nil {
		return s, fmt.Errorf("booster: load settings: %w", err)
	}

	var errs []error

	decode := func(key string, dst any) bool {
		raw, ok := values[key]
		if !ok || string(raw) == "null" {
			return false
		}

		if err := json.Unmarshal(raw, dst); err != nil {
			errs = append(errs, fmt.Errorf("booster: setting %q: %w", key, err))
			return false
		}

		return true
	}

	var enabled, visible bool
	if decode(KeyBoosterEnabled, &enabled) {
		s.Enabled = enabled
	}

	if decode(KeyFloatingUIVisible, &visible) {
		s.FloatingUIVisible = visible
	}

	var gain float64
	if decode(KeyGainValue, &gain) {
		if validGain(gain) {
			s.Gain = gain
		} else {
			errs = append(errs, fmt.Errorf("booster: setting %q: invalid gain %v", KeyGainValue, gain))
		}
	}

	var comp CompressorPatch
	if decode(KeyCompressorSettings, &comp) {
		s.Compressor = s.Compressor.Merge(comp)
	}

	var lim LimiterPatch
	if decode(KeyLimiterSettings, &lim) {
		s.Limiter = s.Limiter.Merge(lim)
	}

	return s, errors.Join(errs...)
}

// SaveState writes the given keys of s, or every key when none are given.
func SaveState(ctx context.Context, b store.Backend, s State, keys ...string) error {
	if len(keys) == 0 {
		keys = AllKeys
	}

	values := make(map[string]json.RawMessage, len(keys))

	for _, key := range keys {
		var v any

		switch key {
		case KeyBoosterEnabled:
			v = s.Enabled
		case KeyFloatingUIVisible:
			v = s.FloatingUIVisible
		case KeyGainValue:
			v = s.Gain
		case KeyCompressorSettings:
			v = s.Compressor
		case KeyLimiterSettings:
			v = s.Limiter
		default:
			return fmt.Errorf("booster: unknown setting %q", key)
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("booster: encode setting %q: %w", key, err)
		}

		values[key] = raw
	}

	if err := b.Set(ctx, values); err != nil {
		return fmt.Errorf("booster: save settings: %w", err)
	}

	return nil
}

func validGain(g float64) bool {
	return g >= 0 && !math.IsNaN(g) && !math.IsInf(g, 0)
}

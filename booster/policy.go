package booster

import (
	"math"

	"github.com/cwbudde/algo-boost/audio"
)

// Limiter policy constants.
const (
	// HighGainCutoff is the gain above which the limiter tightens.
	HighGainCutoff = 5.0
	// HighGainThresholdCeiling caps the limiter threshold at high gain.
	HighGainThresholdCeiling = -2.0
	// LimiterRatio is the limiting ratio up to HighGainCutoff.
	LimiterRatio = 25.0
	// HighGainLimiterRatio is the limiting ratio above HighGainCutoff.
	HighGainLimiterRatio = 30.0
	// LimiterKnee keeps the limiter knee nearly hard.
	LimiterKnee = 0.05
)

// CompressorParams maps compressor settings directly onto stage parameters.
func CompressorParams(s CompressorSettings) audio.DynamicsParams {
	return audio.DynamicsParams{
		Threshold: s.Threshold,
		Ratio:     s.Ratio,
		Knee:      s.Knee,
		Attack:    s.Attack,
		Release:   s.Release,
	}
}

// LimiterParams derives limiter stage parameters for the current gain.
//
// Up to HighGainCutoff the configured threshold is used with ratio 25.
// Above it the threshold becomes min(configured, -2 dB) and the ratio 30.
func LimiterParams(s LimiterSettings, gain float64) audio.DynamicsParams {
	p := audio.DynamicsParams{
		Threshold: s.Threshold,
		Ratio:     LimiterRatio,
		Knee:      LimiterKnee,
		Attack:    s.Attack,
		Release:   s.Release,
	}

	if gain > HighGainCutoff {
		p.Threshold = math.Min(s.Threshold, HighGainThresholdCeiling)
		p.Ratio = HighGainLimiterRatio
	}

	return p
}

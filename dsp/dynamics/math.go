package dynamics

import "math"

// log2Of10Div20 converts decibels to the log2 domain: log2(10) / 20.
const log2Of10Div20 = 0.166096404744

func mathLog2(x float64) float64 {
	return math.Log2(x)
}

func mathPower2(x float64) float64 {
	return math.Exp2(x)
}

func mathPower10(x float64) float64 {
	return math.Pow(10, x)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return errSampleRate(sampleRate)
	}

	return nil
}

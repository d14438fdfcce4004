package dynamics

import (
	"fmt"
	"math"
)

const (
	// Default compressor parameters
	defaultCompressorThresholdDB = -24.0
	defaultCompressorRatio       = 4.0
	defaultCompressorKneeDB      = 5.0
	defaultCompressorAttackMs    = 3.0
	defaultCompressorReleaseMs   = 250.0

	// Parameter validation ranges
	minCompressorThresholdDB = -100.0
	maxCompressorThresholdDB = 0.0
	minCompressorRatio       = 1.0
	maxCompressorRatio       = 100.0
	minCompressorKneeDB      = 0.0
	maxCompressorKneeDB      = 40.0
	minCompressorAttackMs    = 0.01
	maxCompressorAttackMs    = 1000.0
	minCompressorReleaseMs   = 1.0
	maxCompressorReleaseMs   = 5000.0
)

func errSampleRate(sampleRate float64) error {
	return fmt.Errorf("sample rate must be positive and finite: %f", sampleRate)
}

// Compressor is a soft-knee downward compressor.
//
// Gain reduction is computed in the log2 domain with a quadratic knee
// around the threshold, driven by a peak envelope follower with separate
// attack and release time constants. There is no makeup gain: the stage
// only ever attenuates, which keeps it safe to place after a boosting gain
// stage.
type Compressor struct {
	thresholdDB float64
	ratio       float64
	kneeDB      float64
	attackMs    float64
	releaseMs   float64
	sampleRate  float64

	envelope float64

	attackCoeff      float64
	releaseCoeff     float64
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	compression      float64 // 1 - 1/ratio
}

// NewCompressor creates a compressor with the booster defaults:
//   - Threshold: -24 dB
//   - Ratio: 4:1
//   - Knee: 5 dB
//   - Attack: 3 ms
//   - Release: 250 ms
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("compressor: %w", err)
	}

	c := &Compressor{
		thresholdDB: defaultCompressorThresholdDB,
		ratio:       defaultCompressorRatio,
		kneeDB:      defaultCompressorKneeDB,
		attackMs:    defaultCompressorAttackMs,
		releaseMs:   defaultCompressorReleaseMs,
		sampleRate:  sampleRate,
	}

	c.updateGainComputer()
	c.updateTimeConstants()

	return c, nil
}

// SetThreshold sets the compression threshold in dB, in [-100, 0].
func (c *Compressor) SetThreshold(dB float64) error {
	if dB < minCompressorThresholdDB || dB > maxCompressorThresholdDB || !isFinite(dB) {
		return fmt.Errorf("compressor threshold must be in [%f, %f]: %f",
			minCompressorThresholdDB, maxCompressorThresholdDB, dB)
	}

	c.thresholdDB = dB
	c.updateGainComputer()

	return nil
}

// SetRatio sets the compression ratio, in [1, 100].
//   - 1.0 = no compression
//   - 4.0 = gentle program compression
//   - 20+ = limiting
func (c *Compressor) SetRatio(ratio float64) error {
	if ratio < minCompressorRatio || ratio > maxCompressorRatio || !isFinite(ratio) {
		return fmt.Errorf("compressor ratio must be in [%f, %f]: %f",
			minCompressorRatio, maxCompressorRatio, ratio)
	}

	c.ratio = ratio
	c.updateGainComputer()

	return nil
}

// SetKnee sets the soft-knee width in dB, in [0, 40]. Zero is a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	if kneeDB < minCompressorKneeDB || kneeDB > maxCompressorKneeDB || !isFinite(kneeDB) {
		return fmt.Errorf("compressor knee must be in [%f, %f]: %f",
			minCompressorKneeDB, maxCompressorKneeDB, kneeDB)
	}

	c.kneeDB = kneeDB
	c.updateGainComputer()

	return nil
}

// SetAttack sets the attack time in milliseconds.
func (c *Compressor) SetAttack(ms float64) error {
	if ms < minCompressorAttackMs || ms > maxCompressorAttackMs || !isFinite(ms) {
		return fmt.Errorf("compressor attack must be in [%f, %f]: %f",
			minCompressorAttackMs, maxCompressorAttackMs, ms)
	}

	c.attackMs = ms
	c.updateTimeConstants()

	return nil
}

// SetRelease sets the release time in milliseconds.
func (c *Compressor) SetRelease(ms float64) error {
	if ms < minCompressorReleaseMs || ms > maxCompressorReleaseMs || !isFinite(ms) {
		return fmt.Errorf("compressor release must be in [%f, %f]: %f",
			minCompressorReleaseMs, maxCompressorReleaseMs, ms)
	}

	c.releaseMs = ms
	c.updateTimeConstants()

	return nil
}

// SetSampleRate updates the sample rate and recalculates time constants.
func (c *Compressor) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return fmt.Errorf("compressor: %w", err)
	}

	c.sampleRate = sampleRate
	c.updateTimeConstants()

	return nil
}

// Threshold returns the threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Knee returns the knee width in dB.
func (c *Compressor) Knee() float64 { return c.kneeDB }

// Attack returns the attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs }

// Release returns the release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs }

// SampleRate returns the sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// ProcessSample processes one sample.
func (c *Compressor) ProcessSample(input float64) float64 {
	level := math.Abs(input)

	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attackCoeff
	} else {
		c.envelope = level + (c.envelope-level)*c.releaseCoeff
	}

	return input * c.gainForLevel(c.envelope)
}

// ProcessInPlace compresses buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// OutputLevel returns the steady-state output magnitude for a constant
// input magnitude, i.e. the static compression curve.
func (c *Compressor) OutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	return inputMagnitude * c.gainForLevel(inputMagnitude)
}

// Reset clears the envelope follower.
func (c *Compressor) Reset() {
	c.envelope = 0
}

func (c *Compressor) updateGainComputer() {
	c.thresholdLog2 = c.thresholdDB * log2Of10Div20

	c.kneeWidthLog2 = c.kneeDB * log2Of10Div20
	if c.kneeDB > 0 {
		c.invKneeWidthLog2 = 1.0 / c.kneeWidthLog2
	} else {
		c.invKneeWidthLog2 = 0
	}

	c.compression = 1.0 - 1.0/c.ratio
}

func (c *Compressor) updateTimeConstants() {
	c.attackCoeff = 1.0 - math.Exp(-math.Ln2/(c.attackMs*0.001*c.sampleRate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (c.releaseMs * 0.001 * c.sampleRate))
}

// gainForLevel maps a detector level to a linear gain <= 1.
func (c *Compressor) gainForLevel(level float64) float64 {
	if level <= 0 {
		return 1.0
	}

	overshoot := mathLog2(level) - c.thresholdLog2

	if c.kneeDB <= 0 {
		if overshoot <= 0 {
			return 1.0
		}

		return mathPower2(-overshoot * c.compression)
	}

	halfWidth := c.kneeWidthLog2 * 0.5

	var effective float64

	switch {
	case overshoot < -halfWidth:
		return 1.0
	case overshoot > halfWidth:
		effective = overshoot
	default:
		// (overshoot + w/2)^2 / (2w)
		scratch := overshoot + halfWidth
		effective = scratch * scratch * 0.5 * c.invKneeWidthLog2
	}

	return mathPower2(-effective * c.compression)
}

// dbToLinear converts decibels to a linear amplitude.
func dbToLinear(dB float64) float64 {
	return mathPower10(dB / 20.0)
}

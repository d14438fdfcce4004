package dynamics

import (
	"testing"

	"github.com/cwbudde/algo-boost/internal/testutil"
)

// newLimiter configures a compressor as a near brick-wall limiter.
func newLimiter(t *testing.T, thresholdDB, ratio float64) *Compressor {
	t.Helper()

	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	for name, set := range map[string]func() error{
		"threshold": func() error { return c.SetThreshold(thresholdDB) },
		"ratio":     func() error { return c.SetRatio(ratio) },
		"knee":      func() error { return c.SetKnee(0.05) },
		"attack":    func() error { return c.SetAttack(0.5) },
		"release":   func() error { return c.SetRelease(50) },
	} {
		if err := set(); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	return c
}

func TestLimiterHoldsBoostedSineNearCeiling(t *testing.T) {
	l := newLimiter(t, -0.5, 25)

	// A 1 kHz sine boosted to +12 dBFS.
	buf := testutil.DeterministicSine(1000, 48000, 4.0, 48000)
	l.ProcessInPlace(buf)
	testutil.RequireFinite(t, buf)

	if peak := testutil.Peak(buf[480:]); peak > 1.1 {
		t.Errorf("settled peak = %v, want <= 1.1", peak)
	}
}

func TestLimiterHigherRatioClampsHarder(t *testing.T) {
	soft := newLimiter(t, -0.5, 25)
	hard := newLimiter(t, -2, 30)

	in := dbToLinear(12)
	if got, ref := hard.OutputLevel(in), soft.OutputLevel(in); got >= ref {
		t.Errorf("OutputLevel at +12 dB: hard %v >= soft %v", got, ref)
	}
}

func TestLimiterTransparentBelowCeiling(t *testing.T) {
	l := newLimiter(t, -0.5, 25)

	in := dbToLinear(-6)
	if got := l.OutputLevel(in); got != in {
		t.Errorf("OutputLevel(-6 dB) = %v, want %v", got, in)
	}
}

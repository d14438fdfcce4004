package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-boost/internal/testutil"
)

func TestNewCompressor(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		wantErr    bool
	}{
		{"valid 44100", 44100, false},
		{"valid 48000", 48000, false},
		{"invalid zero", 0, true},
		{"invalid negative", -1, true},
		{"invalid NaN", math.NaN(), true},
		{"invalid +Inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCompressor(tt.sampleRate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCompressor() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && c == nil {
				t.Fatal("NewCompressor() returned nil without error")
			}
		})
	}
}

func TestCompressorDefaults(t *testing.T) {
	c, err := NewCompressor(48000)
	if err != nil {
		t.Fatalf("NewCompressor() error = %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"Threshold", c.Threshold(), -24},
		{"Ratio", c.Ratio(), 4},
		{"Knee", c.Knee(), 5},
		{"Attack", c.Attack(), 3},
		{"Release", c.Release(), 250},
		{"SampleRate", c.SampleRate(), 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %f, want %f", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestCompressorSetterValidation(t *testing.T) {
	c, _ := NewCompressor(48000)

	tests := []struct {
		name    string
		set     func(float64) error
		value   float64
		wantErr bool
	}{
		{"threshold ok", c.SetThreshold, -40, false},
		{"threshold positive", c.SetThreshold, 3, true},
		{"threshold NaN", c.SetThreshold, math.NaN(), true},
		{"ratio ok", c.SetRatio, 30, false},
		{"ratio below one", c.SetRatio, 0.5, true},
		{"knee hard", c.SetKnee, 0, false},
		{"knee negative", c.SetKnee, -1, true},
		{"attack sub-ms", c.SetAttack, 0.5, false},
		{"attack zero", c.SetAttack, 0, true},
		{"release ok", c.SetRelease, 50, false},
		{"release Inf", c.SetRelease, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("set(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCompressorStaticCurve(t *testing.T) {
	c, _ := NewCompressor(48000)

	tests := []struct {
		name   string
		inDB   float64
		wantDB float64
	}{
		// Well below threshold - knee/2: untouched.
		{"below knee", -40, -40},
		// 24 dB over threshold at 4:1 loses 18 dB.
		{"full scale", 0, -18},
		// 12 dB over threshold at 4:1 loses 9 dB.
		{"mid", -12, -21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := 20 * math.Log10(c.OutputLevel(dbToLinear(tt.inDB)))
			if math.Abs(got-tt.wantDB) > 1e-6 {
				t.Errorf("OutputLevel(%v dB) = %v dB, want %v dB", tt.inDB, got, tt.wantDB)
			}
		})
	}
}

func TestCompressorKneeIsContinuous(t *testing.T) {
	c, _ := NewCompressor(48000)

	prev := c.OutputLevel(dbToLinear(-40))
	for dB := -39.9; dB <= 0; dB += 0.1 {
		out := c.OutputLevel(dbToLinear(dB))
		if out < prev {
			t.Fatalf("static curve not monotonic at %v dB: %v < %v", dB, out, prev)
		}

		prev = out
	}
}

func TestCompressorNeverAmplifies(t *testing.T) {
	c, _ := NewCompressor(48000)

	in := testutil.DeterministicNoise(7, 2.0, 4096)
	out := append([]float64(nil), in...)
	c.ProcessInPlace(out)

	testutil.RequireFinite(t, out)

	for i := range in {
		if math.Abs(out[i]) > math.Abs(in[i])+1e-12 {
			t.Fatalf("sample %d amplified: |%v| > |%v|", i, out[i], in[i])
		}
	}
}

func TestCompressorProcessInPlaceMatchesSample(t *testing.T) {
	c1, _ := NewCompressor(48000)
	c2, _ := NewCompressor(48000)

	in := testutil.DeterministicSine(440, 48000, 0.9, 512)

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = c1.ProcessSample(x)
	}

	got := append([]float64(nil), in...)
	c2.ProcessInPlace(got)

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestCompressorReset(t *testing.T) {
	c, _ := NewCompressor(48000)
	c.ProcessInPlace(testutil.DC(1.0, 1024))
	c.Reset()

	if got := c.ProcessSample(0.001); math.Abs(got-0.001) > 1e-12 {
		t.Errorf("after Reset ProcessSample(0.001) = %v, want 0.001", got)
	}
}

package graph

// Config defines the rendering settings of a Graph.
type Config struct {
	SampleRate float64
	BlockSize  int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns 48 kHz with 128-sample render quanta.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  128,
	}
}

// WithSampleRate sets the rendering sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the render quantum.
func WithBlockSize(blockSize int) Option {
	return func(cfg *Config) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

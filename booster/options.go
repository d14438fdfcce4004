package booster

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Default timing.
const (
	DefaultRescanInterval = 5 * time.Second
	DefaultNoticeTTL      = 5 * time.Second
	defaultQueueSize      = 64
)

// Config holds engine configuration.
type Config struct {
	// RescanInterval is the period of the fallback full rescan run by Run.
	RescanInterval time.Duration
	// NoticeTTL is how long failure notices stay visible.
	NoticeTTL time.Duration
	Logger    logrus.FieldLogger
	Notifier  Notifier
	Panel     Panel
	// InlineEvents dispatches mutation and source-change events
	// synchronously instead of queueing them for Run.
	InlineEvents bool
	// QueueSize bounds the pending event queue.
	QueueSize int
}

// Option mutates engine configuration.
type Option func(*Config)

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		RescanInterval: DefaultRescanInterval,
		NoticeTTL:      DefaultNoticeTTL,
		Logger:         logrus.StandardLogger(),
		QueueSize:      defaultQueueSize,
	}
}

// WithRescanInterval sets the fallback rescan period.
func WithRescanInterval(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.RescanInterval = d
		}
	}
}

// WithNoticeTTL sets how long notices stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.NoticeTTL = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// WithNotifier sets the notice renderer.
func WithNotifier(n Notifier) Option {
	return func(cfg *Config) {
		cfg.Notifier = n
	}
}

// WithPanel sets the on-page panel.
func WithPanel(p Panel) Option {
	return func(cfg *Config) {
		cfg.Panel = p
	}
}

// WithInlineEvents makes mutation and source-change events run
// synchronously on the goroutine that reports them.
func WithInlineEvents() Option {
	return func(cfg *Config) {
		cfg.InlineEvents = true
	}
}

// WithQueueSize bounds the pending event queue.
func WithQueueSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.QueueSize = n
		}
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

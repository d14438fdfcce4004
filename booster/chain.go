package booster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-boost/audio"
)

// Route describes how the shared stages are currently wired.
type Route int

const (
	// RouteNone means nothing is wired (before the first rebuild or after a failure).
	RouteNone Route = iota
	// RouteBypass is gain(1.0) -> destination.
	RouteBypass
	// RouteProtected is gain -> compressor -> limiter -> destination.
	RouteProtected
)

func (r Route) String() string {
	switch r {
	case RouteBypass:
		return "bypass"
	case RouteProtected:
		return "protected"
	default:
		return "none"
	}
}

// Chain owns the three shared stages and their wiring to the destination.
// Nodes are created once and reconfigured in place.
type Chain struct {
	gain       audio.Gain
	compressor audio.Dynamics
	limiter    audio.Dynamics
	dest       audio.Node

	limiterSettings LimiterSettings
	route           Route
}

// NewChain creates the gain, compressor and limiter stages on g and
// configures the protective stages with their defaults. Nothing is wired
// until the first Rebuild.
func NewChain(g audio.Graph) (*Chain, error) {
	gain, err := g.CreateGain()
	if err != nil {
		return nil, fmt.Errorf("create gain stage: %w", err)
	}

	comp, err := g.CreateDynamicsCompressor()
	if err != nil {
		return nil, fmt.Errorf("create compressor stage: %w", err)
	}

	lim, err := g.CreateDynamicsCompressor()
	if err != nil {
		return nil, fmt.Errorf("create limiter stage: %w", err)
	}

	c := &Chain{
		gain:       gain,
		compressor: comp,
		limiter:    lim,
		dest:       g.Destination(),
	}

	if err := c.ApplyCompressor(DefaultCompressorSettings()); err != nil {
		return nil, err
	}

	if err := c.ApplyLimiter(DefaultLimiterSettings(), DefaultGain); err != nil {
		return nil, err
	}

	return c, nil
}

// Input returns the gain stage every media source connects to.
func (c *Chain) Input() audio.Node { return c.gain }

// Route returns the current wiring.
func (c *Chain) Route() Route { return c.route }

// Gain returns the gain stage's effective multiplier.
func (c *Chain) Gain() float64 { return c.gain.Gain() }

// CompressorParams returns the compressor stage's live parameters.
func (c *Chain) CompressorParams() audio.DynamicsParams { return c.compressor.Params() }

// LimiterParams returns the limiter stage's live parameters.
func (c *Chain) LimiterParams() audio.DynamicsParams { return c.limiter.Params() }

// ApplyCompressor writes s onto the compressor stage.
func (c *Chain) ApplyCompressor(s CompressorSettings) error {
	if err := c.compressor.SetParams(CompressorParams(s)); err != nil {
		return fmt.Errorf("configure compressor: %w", err)
	}

	return nil
}

// ApplyLimiter remembers s and writes the gain-adapted limiter parameters.
func (c *Chain) ApplyLimiter(s LimiterSettings, gain float64) error {
	c.limiterSettings = s

	if err := c.limiter.SetParams(LimiterParams(s, gain)); err != nil {
		return fmt.Errorf("configure limiter: %w", err)
	}

	return nil
}

// Rebuild tears down all stage wiring and rewires for the given state.
//
// Enabled: gain -> compressor -> limiter -> destination at the given gain,
// with the limiter re-adapted to that gain. Disabled: gain(1.0) ->
// destination, bypassing both protective stages. Sources stay connected to
// the gain stage throughout so playback never drops out.
func (c *Chain) Rebuild(enabled bool, gain float64) error {
	c.route = RouteNone

	var derr error
	if err := errors.Join(
		c.gain.Disconnect(),
		c.compressor.Disconnect(),
		c.limiter.Disconnect(),
	); err != nil {
		derr = fmt.Errorf("disconnect stages: %w", err)
	}

	// A failed teardown still gets the requested route wired so the
	// sources keep reaching the output.
	if !enabled {
		return errors.Join(derr, c.connectBypass())
	}

	return errors.Join(derr, c.connectProtected(gain))
}

func (c *Chain) connectBypass() error {
	if err := c.gain.SetGain(1.0); err != nil {
		return fmt.Errorf("reset gain: %w", err)
	}

	if err := c.gain.Connect(c.dest); err != nil {
		return fmt.Errorf("connect gain to output: %w", err)
	}

	c.route = RouteBypass

	return nil
}

func (c *Chain) connectProtected(gain float64) error {
	if err := c.gain.SetGain(gain); err != nil {
		return fmt.Errorf("set gain: %w", err)
	}

	if err := c.gain.Connect(c.compressor); err != nil {
		return fmt.Errorf("connect gain to compressor: %w", err)
	}

	if err := c.compressor.Connect(c.limiter); err != nil {
		return fmt.Errorf("connect compressor to limiter: %w", err)
	}

	if err := c.limiter.Connect(c.dest); err != nil {
		return fmt.Errorf("connect limiter to output: %w", err)
	}

	c.route = RouteProtected

	return c.ApplyLimiter(c.limiterSettings, gain)
}

// Describe renders the current wiring, e.g.
// "gain(3.00) -> compressor(-24.0 dB, 4.0:1) -> limiter(-0.5 dB, 25.0:1) -> output".
func (c *Chain) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "gain(%.2f)", c.gain.Gain())

	switch c.route {
	case RouteProtected:
		cp, lp := c.compressor.Params(), c.limiter.Params()
		fmt.Fprintf(&b, " -> compressor(%.1f dB, %.1f:1) -> limiter(%.1f dB, %.1f:1) -> output",
			cp.Threshold, cp.Ratio, lp.Threshold, lp.Ratio)
	case RouteBypass:
		b.WriteString(" -> output")
	case RouteNone:
		b.WriteString(" (unwired)")
	}

	return b.String()
}

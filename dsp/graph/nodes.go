package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-boost/audio"
)

// Accepted parameter ranges; values outside are clamped like a browser
// audio engine does.
const (
	minThresholdDB = -100.0
	maxThresholdDB = 0.0
	minRatio       = 1.0
	maxRatio       = 100.0
	minKneeDB      = 0.0
	maxKneeDB      = 40.0
	minAttackSec   = 0.00001
	maxAttackSec   = 1.0
	minReleaseSec  = 0.001
	maxReleaseSec  = 5.0
)

type ref struct {
	g *Graph
	n *node
}

func (r ref) graphRef() ref { return r }

// Connect implements audio.Node.
func (r ref) Connect(dst audio.Node) error {
	other, ok := dst.(interface{ graphRef() ref })
	if !ok || other.graphRef().g != r.g {
		return ErrForeignNode
	}

	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	return r.g.connect(r.n, other.graphRef().n)
}

// Disconnect implements audio.Node.
func (r ref) Disconnect() error {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()

	return r.g.disconnect(r.n)
}

// ID returns the node's unique identifier.
func (r ref) ID() string { return r.n.id.String() }

func (r ref) String() string {
	return fmt.Sprintf("%s[%s]", r.n.kind, r.n.id.String()[:8])
}

// GainNode scales its summed input.
type GainNode struct{ ref }

// SetGain implements audio.Gain.
func (n *GainNode) SetGain(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("graph: gain must be finite: %f", value)
	}

	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	n.n.gain = value

	return nil
}

// Gain implements audio.Gain.
func (n *GainNode) Gain() float64 {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	return n.n.gain
}

// DynamicsNode compresses its summed input.
type DynamicsNode struct{ ref }

// SetParams implements audio.Dynamics. Out-of-range values are clamped;
// non-finite values are rejected.
func (n *DynamicsNode) SetParams(p audio.DynamicsParams) error {
	for name, v := range map[string]float64{
		"threshold": p.Threshold, "ratio": p.Ratio, "knee": p.Knee,
		"attack": p.Attack, "release": p.Release,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("graph: dynamics %s must be finite: %f", name, v)
		}
	}

	p = audio.DynamicsParams{
		Threshold: clamp(p.Threshold, minThresholdDB, maxThresholdDB),
		Ratio:     clamp(p.Ratio, minRatio, maxRatio),
		Knee:      clamp(p.Knee, minKneeDB, maxKneeDB),
		Attack:    clamp(p.Attack, minAttackSec, maxAttackSec),
		Release:   clamp(p.Release, minReleaseSec, maxReleaseSec),
	}

	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	if !n.g.live(n.n) {
		return ErrDisposed
	}

	c := n.n.comp
	if err := c.SetThreshold(p.Threshold); err != nil {
		return fmt.Errorf("graph: configure dynamics threshold: %w", err)
	}

	if err := c.SetRatio(p.Ratio); err != nil {
		return fmt.Errorf("graph: configure dynamics ratio: %w", err)
	}

	if err := c.SetKnee(p.Knee); err != nil {
		return fmt.Errorf("graph: configure dynamics knee: %w", err)
	}

	if err := c.SetAttack(p.Attack * 1000); err != nil {
		return fmt.Errorf("graph: configure dynamics attack: %w", err)
	}

	if err := c.SetRelease(p.Release * 1000); err != nil {
		return fmt.Errorf("graph: configure dynamics release: %w", err)
	}

	n.n.params = p

	return nil
}

// Params implements audio.Dynamics.
func (n *DynamicsNode) Params() audio.DynamicsParams {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	return n.n.params
}

// OutputLevel returns the steady-state output magnitude for a constant input.
func (n *DynamicsNode) OutputLevel(inputMagnitude float64) float64 {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	return n.n.comp.OutputLevel(inputMagnitude)
}

// SourceNode carries a media element's playback into the graph.
type SourceNode struct{ ref }

// Destination is the graph's terminal output.
type Destination struct{ ref }

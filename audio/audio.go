// Package audio defines the processing-graph contract the booster drives.
//
// The shapes mirror a browser audio graph: nodes are created from a Graph,
// wired with Connect and torn down with Disconnect, and expose scalar
// parameters that are written in place. Implementations exist for the
// browser (Web Audio through syscall/js) and for native hosts (dsp/graph).
package audio

import (
	"errors"
	"strings"

	"github.com/cwbudde/algo-boost/dom"
)

// ErrAlreadyConnected is returned when a media element already feeds a
// source node. Hosts that only report text are matched by IsAlreadyConnected.
var ErrAlreadyConnected = errors.New("media element already connected")

// Node is one vertex of the processing graph.
type Node interface {
	// Connect adds an edge from this node to dst.
	Connect(dst Node) error
	// Disconnect removes every outgoing edge of this node.
	Disconnect() error
}

// Gain applies a linear multiplier to everything that feeds it.
type Gain interface {
	Node
	SetGain(value float64) error
	Gain() float64
}

// DynamicsParams is the parameter set shared by compressor and limiter stages.
// Threshold and Knee are in dB, Attack and Release in seconds.
type DynamicsParams struct {
	Threshold float64
	Ratio     float64
	Knee      float64
	Attack    float64
	Release   float64
}

// Dynamics is a downward compressor node.
type Dynamics interface {
	Node
	SetParams(p DynamicsParams) error
	Params() DynamicsParams
}

// Graph creates nodes bound to one audio engine.
type Graph interface {
	CreateGain() (Gain, error)
	CreateDynamicsCompressor() (Dynamics, error)
	// CreateMediaElementSource routes the element's playback into the graph.
	// An element may feed at most one source node.
	CreateMediaElementSource(el dom.MediaElement) (Node, error)
	// Destination is the terminal output node.
	Destination() Node
}

// IsAlreadyConnected reports whether err signals a duplicate source for an
// element that is already routed into a graph.
func IsAlreadyConnected(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrAlreadyConnected) {
		return true
	}

	return strings.Contains(err.Error(), "already connected")
}

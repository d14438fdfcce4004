//go:build js && wasm

package browser

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/cwbudde/algo-boost/audio"
	"github.com/cwbudde/algo-boost/dom"
)

var errForeignNode = errors.New("browser: node belongs to another audio context")

// Graph is an audio.Graph over a Web Audio AudioContext.
type Graph struct {
	ctx  js.Value
	dest *node
}

// NewGraph creates a new AudioContext.
func NewGraph() (g *Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser: create audio context: %w", jsError(r))
		}
	}()

	ctor := js.Global().Get("AudioContext")
	if ctor.IsUndefined() {
		ctor = js.Global().Get("webkitAudioContext")
	}

	if ctor.IsUndefined() {
		return nil, errors.New("browser: Web Audio is not available")
	}

	ctx := ctor.New()
	g = &Graph{ctx: ctx}
	g.dest = &node{g: g, v: ctx.Get("destination")}

	return g, nil
}

// Resume resumes a context suspended by the autoplay policy.
func (g *Graph) Resume() {
	if g.ctx.Get("state").String() == "suspended" {
		_, _ = call(g.ctx, "resume")
	}
}

// CreateGain implements audio.Graph.
func (g *Graph) CreateGain() (audio.Gain, error) {
	v, err := call(g.ctx, "createGain")
	if err != nil {
		return nil, err
	}

	return &gainNode{node{g: g, v: v}}, nil
}

// CreateDynamicsCompressor implements audio.Graph.
func (g *Graph) CreateDynamicsCompressor() (audio.Dynamics, error) {
	v, err := call(g.ctx, "createDynamicsCompressor")
	if err != nil {
		return nil, err
	}

	return &dynamicsNode{node{g: g, v: v}}, nil
}

// CreateMediaElementSource implements audio.Graph.
func (g *Graph) CreateMediaElementSource(el dom.MediaElement) (audio.Node, error) {
	m, ok := el.(*Media)
	if !ok {
		return nil, fmt.Errorf("browser: %T is not a page media element", el)
	}

	v, err := call(g.ctx, "createMediaElementSource", m.v)
	if err != nil {
		return nil, err
	}

	return &node{g: g, v: v}, nil
}

// Destination implements audio.Graph.
func (g *Graph) Destination() audio.Node { return g.dest }

type node struct {
	g *Graph
	v js.Value
}

func (n *node) value() js.Value { return n.v }

func (n *node) Connect(dst audio.Node) error {
	d, ok := dst.(interface{ value() js.Value })
	if !ok {
		return errForeignNode
	}

	_, err := call(n.v, "connect", d.value())

	return err
}

func (n *node) Disconnect() error {
	_, err := call(n.v, "disconnect")
	return err
}

type gainNode struct{ node }

func (n *gainNode) SetGain(value float64) error { return setParam(n.v, "gain", value) }

func (n *gainNode) Gain() float64 { return param(n.v, "gain") }

type dynamicsNode struct{ node }

func (n *dynamicsNode) SetParams(p audio.DynamicsParams) error {
	return errors.Join(
		setParam(n.v, "threshold", p.Threshold),
		setParam(n.v, "ratio", p.Ratio),
		setParam(n.v, "knee", p.Knee),
		setParam(n.v, "attack", p.Attack),
		setParam(n.v, "release", p.Release),
	)
}

func (n *dynamicsNode) Params() audio.DynamicsParams {
	return audio.DynamicsParams{
		Threshold: param(n.v, "threshold"),
		Ratio:     param(n.v, "ratio"),
		Knee:      param(n.v, "knee"),
		Attack:    param(n.v, "attack"),
		Release:   param(n.v, "release"),
	}
}

package booster

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-boost/audio"
	"github.com/cwbudde/algo-boost/dom"
)

// recGraph is an audio.Graph that records wiring for topology assertions.
type recGraph struct {
	mu sync.Mutex

	dest      *recNode
	nodes     []*recNode
	sources   map[dom.MediaElement]*recNode
	dynamics  int
	connects  int
	createErr error
	sourceErr func(dom.MediaElement) error
	// connectErr makes every Connect fail while set.
	connectErr error
	// disconnectErr makes every Disconnect fail, leaving edges in place.
	disconnectErr error
}

type recNode struct {
	g      *recGraph
	name   string
	gain   float64
	params audio.DynamicsParams
	out    []*recNode
}

func newRecGraph() *recGraph {
	g := &recGraph{sources: map[dom.MediaElement]*recNode{}}
	g.dest = &recNode{g: g, name: "destination"}

	return g
}

func (g *recGraph) node(name string) *recNode {
	n := &recNode{g: g, name: name, gain: 1}
	g.nodes = append(g.nodes, n)

	return n
}

func (g *recGraph) CreateGain() (audio.Gain, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}

	return g.node("gain"), nil
}

func (g *recGraph) CreateDynamicsCompressor() (audio.Dynamics, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}

	g.dynamics++
	if g.dynamics == 1 {
		return g.node("compressor"), nil
	}

	return g.node("limiter"), nil
}

func (g *recGraph) CreateMediaElementSource(el dom.MediaElement) (audio.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sourceErr != nil {
		if err := g.sourceErr(el); err != nil {
			return nil, err
		}
	}

	if _, ok := g.sources[el]; ok {
		return nil, fmt.Errorf("rec: <%s>: %w", el.TagName(), audio.ErrAlreadyConnected)
	}

	n := g.node("source")
	g.sources[el] = n

	return n, nil
}

func (g *recGraph) Destination() audio.Node { return g.dest }

func (g *recGraph) sourceCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.sources)
}

func (g *recGraph) find(name string) *recNode {
	for _, n := range g.nodes {
		if n.name == name {
			return n
		}
	}

	return nil
}

// outputs returns the names n feeds.
func (g *recGraph) outputs(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.find(name)
	if n == nil {
		return nil
	}

	out := []string{}
	for _, o := range n.out {
		out = append(out, o.name)
	}

	return out
}

func (g *recGraph) failConnects(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.connectErr = err
}

func (g *recGraph) failDisconnects(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.disconnectErr = err
}

func (n *recNode) Connect(dst audio.Node) error {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	if n.g.connectErr != nil {
		return n.g.connectErr
	}

	d, ok := dst.(*recNode)
	if !ok {
		return errors.New("rec: foreign node")
	}

	n.out = append(n.out, d)
	n.g.connects++

	return nil
}

func (n *recNode) Disconnect() error {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	if n.g.disconnectErr != nil {
		return n.g.disconnectErr
	}

	n.out = nil

	return nil
}

func (n *recNode) SetGain(v float64) error {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	n.gain = v

	return nil
}

func (n *recNode) Gain() float64 {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	return n.gain
}

func (n *recNode) SetParams(p audio.DynamicsParams) error {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	n.params = p

	return nil
}

func (n *recNode) Params() audio.DynamicsParams {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	return n.params
}

// recNotifier collects notices.
type recNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)
}

func (r *recNotifier) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Notice(nil), r.notices...)
}

// recPanel records panel visibility.
type recPanel struct {
	shown bool
	last  State
	shows int
}

func (p *recPanel) Show(s State) { p.shown, p.last = true, s; p.shows++ }

func (p *recPanel) Hide() { p.shown = false }

package graph

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-boost/audio"
	"github.com/cwbudde/algo-boost/dom"
	"github.com/cwbudde/algo-boost/dsp/dynamics"
)

var (
	// ErrDisposed is returned when a node of a closed graph is used.
	ErrDisposed = errors.New("graph: node disposed")
	// ErrForeignNode is returned when connecting to a node of another graph.
	ErrForeignNode = errors.New("graph: node belongs to another graph")
	// ErrCycle is returned when a connection would create a feedback loop.
	ErrCycle = errors.New("graph: connection creates a cycle")
)

// SampleReader is implemented by media elements that can feed a native graph.
// ReadSamples fills dst and returns how many samples were written.
type SampleReader interface {
	ReadSamples(dst []float64) int
}

type nodeKind int

const (
	kindDestination nodeKind = iota
	kindGain
	kindDynamics
	kindSource
)

func (k nodeKind) String() string {
	switch k {
	case kindDestination:
		return "destination"
	case kindGain:
		return "gain"
	case kindDynamics:
		return "dynamics"
	case kindSource:
		return "source"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type node struct {
	id   uuid.UUID
	kind nodeKind
	out  []*node
	buf  []float64

	gain   float64
	comp   *dynamics.Compressor
	params audio.DynamicsParams
	el     dom.MediaElement
}

// Graph owns a set of nodes and renders them into a mono output.
type Graph struct {
	mu     sync.Mutex
	cfg    Config
	nodes  []*node
	dest   *node
	owners map[dom.MediaElement]*node
	order  []*node
	dirty  bool
	closed bool
}

// New creates an empty graph with a destination node.
func New(opts ...Option) *Graph {
	g := &Graph{
		cfg:    applyOptions(opts...),
		owners: map[dom.MediaElement]*node{},
		dirty:  true,
	}

	g.dest = g.add(&node{kind: kindDestination})

	return g
}

// SampleRate returns the rendering sample rate.
func (g *Graph) SampleRate() float64 { return g.cfg.SampleRate }

// Destination implements audio.Graph.
func (g *Graph) Destination() audio.Node {
	return &Destination{ref{g: g, n: g.dest}}
}

// CreateGain implements audio.Graph. New gain nodes pass signal at unity.
func (g *Graph) CreateGain() (audio.Gain, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrDisposed
	}

	return &GainNode{ref{g: g, n: g.add(&node{kind: kindGain, gain: 1})}}, nil
}

// CreateDynamicsCompressor implements audio.Graph.
func (g *Graph) CreateDynamicsCompressor() (audio.Dynamics, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrDisposed
	}

	comp, err := dynamics.NewCompressor(g.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("graph: create compressor: %w", err)
	}

	n := &node{kind: kindDynamics, comp: comp, params: paramsOf(comp)}

	return &DynamicsNode{ref{g: g, n: g.add(n)}}, nil
}

// CreateMediaElementSource implements audio.Graph. Each element can feed at
// most one source; a second request fails with audio.ErrAlreadyConnected.
func (g *Graph) CreateMediaElementSource(el dom.MediaElement) (audio.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrDisposed
	}

	if el == nil || !el.Playable() {
		return nil, fmt.Errorf("graph: element is not a playable media element")
	}

	if _, ok := g.owners[el]; ok {
		return nil, fmt.Errorf("graph: <%s>: %w", el.TagName(), audio.ErrAlreadyConnected)
	}

	n := g.add(&node{kind: kindSource, el: el})
	g.owners[el] = n

	return &SourceNode{ref{g: g, n: n}}, nil
}

// Close disposes every node. Further use of the graph or its nodes fails
// with ErrDisposed.
func (g *Graph) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	g.nodes = nil
	g.order = nil
	g.owners = map[dom.MediaElement]*node{}
}

// Outputs returns the nodes n feeds, as audio.Node values of this graph.
func (g *Graph) Outputs(n audio.Node) []audio.Node {
	r, ok := n.(interface{ graphRef() ref })
	if !ok || r.graphRef().g != g {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	src := r.graphRef().n

	out := make([]audio.Node, 0, len(src.out))
	for _, dst := range src.out {
		out = append(out, g.wrap(dst))
	}

	return out
}

// Render fills dst with the mixed output of everything connected to the
// destination, processing in blocks of the configured size.
func (g *Graph) Render(dst []float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrDisposed
	}

	if g.dirty {
		order, err := g.sort()
		if err != nil {
			return err
		}

		g.order = order
		g.dirty = false
	}

	incoming := g.incoming()

	for start := 0; start < len(dst); start += g.cfg.BlockSize {
		end := min(start+g.cfg.BlockSize, len(dst))
		g.renderBlock(dst[start:end], incoming)
	}

	return nil
}

func (g *Graph) add(n *node) *node {
	n.id = uuid.New()
	g.nodes = append(g.nodes, n)
	g.dirty = true

	return n
}

func (g *Graph) wrap(n *node) audio.Node {
	r := ref{g: g, n: n}

	switch n.kind {
	case kindGain:
		return &GainNode{r}
	case kindDynamics:
		return &DynamicsNode{r}
	case kindSource:
		return &SourceNode{r}
	default:
		return &Destination{r}
	}
}

func (g *Graph) live(n *node) bool {
	if g.closed {
		return false
	}

	for _, m := range g.nodes {
		if m == n {
			return true
		}
	}

	return false
}

func (g *Graph) connect(src, dst *node) error {
	if !g.live(src) || !g.live(dst) {
		return ErrDisposed
	}

	if src == g.dest {
		return fmt.Errorf("graph: destination has no outputs")
	}

	if dst.kind == kindSource {
		return fmt.Errorf("graph: media element sources take no inputs")
	}

	for _, existing := range src.out {
		if existing == dst {
			return nil
		}
	}

	if g.reaches(dst, src) {
		return ErrCycle
	}

	src.out = append(src.out, dst)
	g.dirty = true

	return nil
}

func (g *Graph) disconnect(src *node) error {
	if !g.live(src) {
		return ErrDisposed
	}

	src.out = nil
	g.dirty = true

	return nil
}

// reaches reports whether to is reachable from from.
func (g *Graph) reaches(from, to *node) bool {
	seen := map[*node]bool{}
	stack := []*node{from}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n == to {
			return true
		}

		if seen[n] {
			continue
		}

		seen[n] = true
		stack = append(stack, n.out...)
	}

	return false
}

// sort orders nodes so every node follows all of its inputs.
func (g *Graph) sort() ([]*node, error) {
	indegree := make(map[*node]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, dst := range n.out {
			indegree[dst]++
		}
	}

	queue := make([]*node, 0, len(g.nodes))

	for _, n := range g.nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]*node, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		order = append(order, n)
		for _, dst := range n.out {
			indegree[dst]--
			if indegree[dst] == 0 {
				queue = append(queue, dst)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}

	return order, nil
}

func (g *Graph) incoming() map[*node][]*node {
	in := make(map[*node][]*node, len(g.nodes))
	for _, n := range g.nodes {
		for _, dst := range n.out {
			in[dst] = append(in[dst], n)
		}
	}

	return in
}

func paramsOf(c *dynamics.Compressor) audio.DynamicsParams {
	return audio.DynamicsParams{
		Threshold: c.Threshold(),
		Ratio:     c.Ratio(),
		Knee:      c.Knee(),
		Attack:    c.Attack() / 1000,
		Release:   c.Release() / 1000,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package graph

import (
	vecmath "github.com/cwbudde/algo-vecmath"
)

func (g *Graph) renderBlock(out []float64, incoming map[*node][]*node) {
	size := len(out)

	for _, n := range g.order {
		if cap(n.buf) < size {
			n.buf = make([]float64, size)
		}

		n.buf = n.buf[:size]

		if n.kind == kindSource {
			read := 0
			if r, ok := n.el.(SampleReader); ok {
				read = r.ReadSamples(n.buf)
			}

			clear(n.buf[read:])

			continue
		}

		clear(n.buf)

		for _, src := range incoming[n] {
			vecmath.AddBlockInPlace(n.buf, src.buf)
		}

		switch n.kind {
		case kindGain:
			vecmath.ScaleBlockInPlace(n.buf, n.gain)
		case kindDynamics:
			n.comp.ProcessInPlace(n.buf)
		case kindDestination, kindSource:
		}
	}

	copy(out, g.dest.buf)
}

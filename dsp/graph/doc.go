// Package graph is a native implementation of audio.Graph.
//
// Nodes are created from a Graph, wired with Connect/Disconnect and rendered
// block by block in topological order (Kahn's algorithm). Media element
// sources pull samples from elements implementing SampleReader; gain nodes
// scale, dynamics nodes compress through dsp/dynamics, and everything that
// reaches the destination is summed into the rendered output.
//
// All methods are safe for concurrent use: parameter writes and rewiring
// from a control goroutine may interleave with Render on an audio goroutine.
package graph

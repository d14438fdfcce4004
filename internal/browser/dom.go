//go:build js && wasm

package browser

import (
	"strings"
	"syscall/js"

	"github.com/cwbudde/algo-boost/dom"
)

const elementNode = 1

// Registry gives every audio and video element one stable Go wrapper so
// wrappers can be compared by identity.
type Registry struct {
	ids   js.Value
	next  int
	media map[int]*Media
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:   js.Global().Get("WeakMap").New(),
		media: map[int]*Media{},
	}
}

// Wrap returns the dom.Node for a JS node. Media elements get their
// canonical *Media wrapper.
func (r *Registry) Wrap(v js.Value) dom.Node {
	n := &Node{v: v, reg: r}
	if dom.IsMediaTag(n.TagName()) {
		return r.mediaFor(v)
	}

	return n
}

func (r *Registry) mediaFor(v js.Value) *Media {
	if id := r.ids.Call("get", v); !id.IsUndefined() {
		return r.media[id.Int()]
	}

	r.next++
	r.ids.Call("set", v, r.next)

	m := &Media{Node: Node{v: v, reg: r}}
	r.media[r.next] = m

	return m
}

// Node wraps a DOM node or shadow root.
type Node struct {
	v   js.Value
	reg *Registry
}

// Value returns the wrapped JS value.
func (n *Node) Value() js.Value { return n.v }

// Children implements dom.Node.
func (n *Node) Children() []dom.Node {
	kids := n.v.Get("children")
	if kids.IsUndefined() || kids.IsNull() {
		return nil
	}

	out := make([]dom.Node, 0, kids.Length())
	for i := 0; i < kids.Length(); i++ {
		out = append(out, n.reg.Wrap(kids.Index(i)))
	}

	return out
}

// ShadowRoot implements dom.Node. Closed shadow roots read as null and
// are indistinguishable from none.
func (n *Node) ShadowRoot() (root dom.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()

	sr := n.v.Get("shadowRoot")
	if sr.IsUndefined() || sr.IsNull() {
		return nil, nil
	}

	return &Node{v: sr, reg: n.reg}, nil
}

// TagName implements dom.Element.
func (n *Node) TagName() string {
	if n.v.Get("nodeType").Int() != elementNode {
		return ""
	}

	return strings.ToLower(n.v.Get("tagName").String())
}

// Media is a canonical wrapper for an audio or video element.
type Media struct {
	Node
}

// Playable implements dom.MediaElement.
func (m *Media) Playable() bool {
	return m.v.InstanceOf(js.Global().Get("HTMLMediaElement"))
}

// OnSourceChange implements dom.MediaElement. A swapped source resets
// the element, which fires "emptied".
func (m *Media) OnSourceChange(fn func()) func() {
	f := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})

	m.v.Call("addEventListener", "emptied", f)

	return func() {
		m.v.Call("removeEventListener", "emptied", f)
		f.Release()
	}
}

// Document is the observable page body.
type Document struct {
	Node
}

// NewDocument wraps document.body.
func NewDocument(r *Registry) *Document {
	return &Document{Node{v: js.Global().Get("document").Get("body"), reg: r}}
}

// Observe implements dom.Observable with a MutationObserver over the
// whole body subtree.
func (d *Document) Observe(fn func(added []dom.Node)) (stop func(), err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jsError(r)
		}
	}()

	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		records := args[0]

		var added []dom.Node
		for i := 0; i < records.Length(); i++ {
			nodes := records.Index(i).Get("addedNodes")
			for j := 0; j < nodes.Length(); j++ {
				if n := nodes.Index(j); n.Get("nodeType").Int() == elementNode {
					added = append(added, d.reg.Wrap(n))
				}
			}
		}

		if len(added) > 0 {
			fn(added)
		}

		return nil
	})

	obs := js.Global().Get("MutationObserver").New(cb)
	obs.Call("observe", d.v, map[string]any{"childList": true, "subtree": true})

	return func() {
		obs.Call("disconnect")
		cb.Release()
	}, nil
}

package booster

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-boost/audio"
	"github.com/cwbudde/algo-boost/dom"
)

type binding struct {
	source    audio.Node
	cancel    func()
	connected bool
}

// Attacher routes media elements into the chain input exactly once each.
// It is not safe for concurrent use; the Engine serializes access.
type Attacher struct {
	graph          audio.Graph
	input          audio.Node
	onSourceChange func(dom.MediaElement)

	bound map[dom.MediaElement]*binding
	order []dom.MediaElement
}

// NewAttacher creates an Attacher feeding input on g. onSourceChange, if
// non-nil, is called whenever an attached element swaps its source.
func NewAttacher(g audio.Graph, input audio.Node, onSourceChange func(dom.MediaElement)) *Attacher {
	return &Attacher{
		graph:          g,
		input:          input,
		onSourceChange: onSourceChange,
		bound:          map[dom.MediaElement]*binding{},
	}
}

// Attach creates a source node for el and connects it to the chain input.
// It reports whether el became connected. Elements that are already
// connected or are not genuine playable media elements are ignored.
//
// A source node is recorded as soon as it exists, since an element only
// ever yields one. If connecting it fails, the next Attach or Rebind of
// the element retries the connection on the same node.
func (a *Attacher) Attach(el dom.Element) (bool, error) {
	me, ok := el.(dom.MediaElement)
	if !ok || !me.Playable() {
		return false, nil
	}

	b, ok := a.bound[me]
	if ok && b.connected {
		return false, nil
	}

	if !ok {
		src, err := a.graph.CreateMediaElementSource(me)
		if err != nil {
			return false, failure(AttachmentFailure, fmt.Errorf("create source for <%s>: %w", me.TagName(), err))
		}

		b = &binding{source: src}
		if a.onSourceChange != nil {
			b.cancel = me.OnSourceChange(func() { a.onSourceChange(me) })
		}

		a.bound[me] = b
		a.order = append(a.order, me)
	}

	if err := b.source.Connect(a.input); err != nil {
		return false, failure(AttachmentFailure, fmt.Errorf("connect <%s> to gain stage: %w", me.TagName(), err))
	}

	b.connected = true

	return true, nil
}

// Rebind reconnects the source node of an element whose underlying source
// was swapped. An element that is not attached yet is attached.
func (a *Attacher) Rebind(me dom.MediaElement) error {
	b, ok := a.bound[me]
	if !ok || !b.connected {
		_, err := a.Attach(me)
		return err
	}

	if err := b.source.Disconnect(); err != nil {
		return failure(AttachmentFailure, fmt.Errorf("disconnect <%s>: %w", me.TagName(), err))
	}

	b.connected = false

	if err := b.source.Connect(a.input); err != nil {
		return failure(AttachmentFailure, fmt.Errorf("reconnect <%s> to gain stage: %w", me.TagName(), err))
	}

	b.connected = true

	return nil
}

// AttachAll attaches every element and returns how many new bindings were
// made. A failing element never stops the others.
func (a *Attacher) AttachAll(els []dom.Element) (int, error) {
	var (
		n    int
		errs []error
	)

	for _, el := range els {
		ok, err := a.Attach(el)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if ok {
			n++
		}
	}

	return n, errors.Join(errs...)
}

// Attached reports whether el has a source node feeding the chain input.
func (a *Attacher) Attached(el dom.Element) bool {
	me, ok := el.(dom.MediaElement)
	if !ok {
		return false
	}

	b, ok := a.bound[me]

	return ok && b.connected
}

// Pending reports whether el has a source node whose connection to the
// chain input is still to be retried.
func (a *Attacher) Pending(el dom.Element) bool {
	me, ok := el.(dom.MediaElement)
	if !ok {
		return false
	}

	b, ok := a.bound[me]

	return ok && !b.connected
}

// Len returns the number of attached elements.
func (a *Attacher) Len() int {
	n := 0
	for _, me := range a.order {
		if a.bound[me].connected {
			n++
		}
	}

	return n
}

// Elements returns the attached elements in attachment order.
func (a *Attacher) Elements() []dom.MediaElement {
	var out []dom.MediaElement
	for _, me := range a.order {
		if a.bound[me].connected {
			out = append(out, me)
		}
	}

	return out
}

// Source returns the source node bound to me.
func (a *Attacher) Source(me dom.MediaElement) (audio.Node, bool) {
	b, ok := a.bound[me]
	if !ok {
		return nil, false
	}

	return b.source, true
}

// Close removes every source-change listener. Source nodes stay wired:
// disconnecting them would silence the page's playback.
func (a *Attacher) Close() {
	for _, b := range a.bound {
		if b.cancel != nil {
			b.cancel()
			b.cancel = nil
		}
	}
}

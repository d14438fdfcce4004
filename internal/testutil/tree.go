package testutil

import (
	"sync"

	"github.com/cwbudde/algo-boost/dom"
)

// Element is an in-memory tree node usable wherever the booster expects a
// dom.Node, dom.Element or dom.MediaElement. Media elements also serve
// their Samples to native audio graphs.
type Element struct {
	Tag       string
	Kids      []*Element
	Shadow    *Element
	ShadowErr error
	// Fake marks an audio/video tagged node that is not a real media element.
	Fake bool

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	samples   []float64
	pos       int
}

// El builds an element with the given children.
func El(tag string, kids ...*Element) *Element {
	return &Element{Tag: tag, Kids: kids}
}

// Media builds an audio or video element that plays samples on a loop.
func Media(tag string, samples []float64) *Element {
	return &Element{Tag: tag, samples: samples}
}

// Host builds an element hosting shadow as its encapsulated subtree.
func Host(tag string, shadow *Element, kids ...*Element) *Element {
	return &Element{Tag: tag, Shadow: shadow, Kids: kids}
}

// ShadowRootOf builds a shadow root fragment.
func ShadowRootOf(kids ...*Element) *Element {
	return El("#shadow-root", kids...)
}

// Children implements dom.Node.
func (e *Element) Children() []dom.Node {
	out := make([]dom.Node, len(e.Kids))
	for i, k := range e.Kids {
		out[i] = k
	}

	return out
}

// ShadowRoot implements dom.Node.
func (e *Element) ShadowRoot() (dom.Node, error) {
	if e.ShadowErr != nil {
		return nil, e.ShadowErr
	}

	if e.Shadow == nil {
		return nil, nil
	}

	return e.Shadow, nil
}

// TagName implements dom.Element.
func (e *Element) TagName() string { return e.Tag }

// Playable implements dom.MediaElement.
func (e *Element) Playable() bool { return dom.IsMediaTag(e.Tag) && !e.Fake }

// OnSourceChange implements dom.MediaElement.
func (e *Element) OnSourceChange(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = map[int]func(){}
	}

	id := e.nextID
	e.nextID++
	e.listeners[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Listeners returns the number of registered source-change listeners.
func (e *Element) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.listeners)
}

// SwapSource replaces the element's samples and fires source-change listeners.
func (e *Element) SwapSource(samples []float64) {
	e.mu.Lock()
	e.samples = samples
	e.pos = 0

	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ReadSamples fills dst from the looping sample buffer and returns the
// number of samples written.
func (e *Element) ReadSamples(dst []float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.samples) == 0 {
		return 0
	}

	for i := range dst {
		dst[i] = e.samples[e.pos]

		e.pos++
		if e.pos == len(e.samples) {
			e.pos = 0
		}
	}

	return len(dst)
}

// Document is an observable tree root.
type Document struct {
	*Element

	// ObserveErr makes Observe fail.
	ObserveErr error

	mu        sync.Mutex
	observers map[int]func([]dom.Node)
	nextID    int
}

// NewDocument builds a document whose body holds kids.
func NewDocument(kids ...*Element) *Document {
	return &Document{Element: El("body", kids...)}
}

// Observe implements dom.Observable.
func (d *Document) Observe(fn func(added []dom.Node)) (func(), error) {
	if d.ObserveErr != nil {
		return nil, d.ObserveErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.observers == nil {
		d.observers = map[int]func([]dom.Node){}
	}

	id := d.nextID
	d.nextID++
	d.observers[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}, nil
}

// Observers returns the number of active observers.
func (d *Document) Observers() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.observers)
}

// Insert appends child under parent and notifies observers.
func (d *Document) Insert(parent, child *Element) {
	parent.Kids = append(parent.Kids, child)
	d.notify(child)
}

// InsertUnobserved appends child without notifying observers.
func (d *Document) InsertUnobserved(parent, child *Element) {
	parent.Kids = append(parent.Kids, child)
}

func (d *Document) notify(nodes ...*Element) {
	added := make([]dom.Node, len(nodes))
	for i, n := range nodes {
		added[i] = n
	}

	d.mu.Lock()

	fns := make([]func([]dom.Node), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(added)
	}
}

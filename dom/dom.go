// Package dom abstracts the element tree scanned for playable media.
//
// Only the capabilities the booster needs are modelled: listing children,
// opening an encapsulated (shadow) subtree, recognising media elements and
// subscribing to structural mutations. Browser hosts wrap the live document;
// tests use plain in-memory trees.
package dom

// Node is any tree node that can be scanned for children.
type Node interface {
	// Children returns the direct children in the ordinary (light) tree.
	Children() []Node
	// ShadowRoot returns the encapsulated subtree hosted by this node, or
	// nil when there is none. An error means the subtree exists but could
	// not be opened.
	ShadowRoot() (Node, error)
}

// Element is a node with a tag name. Element values are used as identity
// keys, so implementations must be comparable (typically pointers).
type Element interface {
	Node
	// TagName returns the lower-case tag name.
	TagName() string
}

// MediaElement is a playable audio or video element.
type MediaElement interface {
	Element
	// Playable reports whether the element is a genuine media element
	// that can be routed into an audio graph.
	Playable() bool
	// OnSourceChange registers fn to run whenever the element's
	// underlying source is swapped. The returned func removes it.
	OnSourceChange(fn func()) (cancel func())
}

// Observable is implemented by roots that can report inserted subtrees.
type Observable interface {
	// Observe calls fn with every batch of newly inserted nodes until the
	// returned stop func is called.
	Observe(fn func(added []Node)) (stop func(), err error)
}

// Media tag names.
const (
	TagAudio = "audio"
	TagVideo = "video"
)

// IsMediaTag reports whether tag names an audio or video element.
func IsMediaTag(tag string) bool {
	return tag == TagAudio || tag == TagVideo
}

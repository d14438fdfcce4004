package booster

import "github.com/cwbudde/algo-boost/dom"

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventCommand carries a control-surface command.
	EventCommand EventKind = iota + 1
	// EventRescan requests a full discovery pass.
	EventRescan
	// EventNodesAdded carries subtrees inserted into the document.
	EventNodesAdded
	// EventSourceChanged carries an element whose source was swapped.
	EventSourceChanged
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventRescan:
		return "rescan"
	case EventNodesAdded:
		return "nodes added"
	case EventSourceChanged:
		return "source changed"
	default:
		return "unknown"
	}
}

// Event is the single input type of Engine.Update.
type Event struct {
	Kind    EventKind
	Command Command
	Nodes   []dom.Node
	Element dom.MediaElement
}

// CommandEvent wraps cmd in an Event.
func CommandEvent(cmd Command) Event {
	return Event{Kind: EventCommand, Command: cmd}
}

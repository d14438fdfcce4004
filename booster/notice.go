package booster

import "time"

// StandalonePrefix introduces notices rendered outside the panel.
const StandalonePrefix = "Volume Booster: "

// Notice is a transient user-visible failure report.
type Notice struct {
	Kind    FailureKind
	Message string
	// InPanel is set when the on-page panel is visible and should render
	// the notice itself.
	InPanel bool
	// TTL is how long the notice stays on screen.
	TTL time.Duration
}

// Text returns the message as displayed: as-is inside the panel, prefixed
// with the extension name when standalone.
func (n Notice) Text() string {
	if n.InPanel {
		return n.Message
	}

	return StandalonePrefix + n.Message
}

// Notifier renders notices.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Panel is the on-page settings panel.
type Panel interface {
	// Show renders the panel, or refreshes it if it is already shown.
	Show(s State)
	// Hide removes the panel.
	Hide()
}

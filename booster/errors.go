package booster

import (
	"errors"
	"fmt"
)

// FailureKind classifies the failures the engine can surface.
type FailureKind int

const (
	// InitializationFailure means the processing chain could not be built.
	InitializationFailure FailureKind = iota + 1
	// ToggleFailure means enabling or disabling the booster failed.
	ToggleFailure
	// AttachmentFailure means one element could not be routed into the chain.
	AttachmentFailure
	// ChainUpdateFailure means rewiring or reconfiguring the chain failed.
	ChainUpdateFailure
	// DiscoveryFailure means one subtree could not be scanned.
	DiscoveryFailure
	// ObserverSetupFailure means mutation watching could not be started.
	ObserverSetupFailure
)

func (k FailureKind) String() string {
	switch k {
	case InitializationFailure:
		return "initialization"
	case ToggleFailure:
		return "toggle"
	case AttachmentFailure:
		return "attachment"
	case ChainUpdateFailure:
		return "chain update"
	case DiscoveryFailure:
		return "discovery"
	case ObserverSetupFailure:
		return "observer setup"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// action is the user-facing phrase for what failed.
func (k FailureKind) action() string {
	switch k {
	case InitializationFailure:
		return "initialize audio booster"
	case ToggleFailure:
		return "toggle audio booster"
	case AttachmentFailure:
		return "boost audio"
	case ChainUpdateFailure:
		return "update audio processing"
	case ObserverSetupFailure:
		return "monitor for new audio"
	default:
		return "process audio"
	}
}

// Error is a classified engine failure.
type Error struct {
	Kind FailureKind
	// Op overrides the user-facing action phrase, e.g. "enable audio booster".
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("booster: %s failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-visible text for the failure.
func (e *Error) Message() string {
	if e.Kind == DiscoveryFailure {
		return "Error finding audio elements: " + e.Err.Error()
	}

	op := e.Op
	if op == "" {
		op = e.Kind.action()
	}

	return "Failed to " + op + ": " + e.Err.Error()
}

func failure(kind FailureKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the FailureKind carried by err, or 0.
func KindOf(err error) FailureKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}

	return 0
}

// splitErrors flattens errors.Join trees into their leaves.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}

	var be *Error
	if errors.As(err, &be) && be == err {
		return []error{err}
	}

	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, splitErrors(e)...)
		}

		return out
	}

	return []error{err}
}

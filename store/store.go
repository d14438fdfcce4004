// Package store provides key-value backends for persisted booster settings.
//
// Values are exchanged as JSON documents keyed by setting name, matching
// the browser extension storage area the page engine uses.
package store

import (
	"context"
	"encoding/json"
)

// Backend is a process-wide key-value store.
type Backend interface {
	// Get returns the stored values for keys. Missing keys are absent
	// from the result rather than reported as errors.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	// Set writes every entry of values, replacing previous values.
	Set(ctx context.Context, values map[string]json.RawMessage) error
}

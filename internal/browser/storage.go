//go:build js && wasm

package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"
)

// Storage is a store.Backend over chrome.storage.local.
//
// Get waits for the storage callback and must not be called from inside a
// JS callback. Set is fire-and-forget so engine updates can run inline on
// the event loop.
type Storage struct {
	area js.Value
}

// NewStorage binds chrome.storage.local.
func NewStorage() (*Storage, error) {
	chrome := js.Global().Get("chrome")
	if chrome.IsUndefined() || chrome.Get("storage").IsUndefined() {
		return nil, errors.New("browser: extension storage is not available")
	}

	return &Storage{area: chrome.Get("storage").Get("local")}, nil
}

// Get implements store.Backend.
func (s *Storage) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	list := make([]any, len(keys))
	for i, k := range keys {
		list[i] = k
	}

	type result struct {
		values map[string]json.RawMessage
		err    error
	}

	done := make(chan result, 1)

	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		var res result

		if lastErr := js.Global().Get("chrome").Get("runtime").Get("lastError"); truthy(lastErr) {
			res.err = fmt.Errorf("browser: storage get: %s", lastErr.Get("message").String())
		} else {
			res.values, res.err = decodeObject(args[0], keys)
		}

		done <- res

		return nil
	})
	defer cb.Release()

	if _, err := call(s.area, "get", js.ValueOf(list), cb); err != nil {
		return nil, fmt.Errorf("browser: storage get: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.values, res.err
	}
}

// Set implements store.Backend.
func (s *Storage) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	obj := js.Global().Get("Object").New()
	parse := js.Global().Get("JSON").Get("parse")

	for k, raw := range values {
		obj.Set(k, parse.Invoke(string(raw)))
	}

	if _, err := call(s.area, "set", obj); err != nil {
		return fmt.Errorf("browser: storage set: %w", err)
	}

	return nil
}

func decodeObject(obj js.Value, keys []string) (map[string]json.RawMessage, error) {
	stringify := js.Global().Get("JSON").Get("stringify")
	out := make(map[string]json.RawMessage, len(keys))

	for _, k := range keys {
		v := obj.Get(k)
		if v.IsUndefined() {
			continue
		}

		out[k] = json.RawMessage(stringify.Invoke(v).String())
	}

	return out, nil
}

func truthy(v js.Value) bool {
	return !v.IsUndefined() && !v.IsNull() && v.Truthy()
}

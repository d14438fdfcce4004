//go:build js && wasm

// Package browser adapts the live page to the booster: DOM traversal and
// mutation watching, the Web Audio graph, extension storage and messaging,
// and on-page notices. All functions must run on the page's event loop.
package browser

import (
	"fmt"
	"syscall/js"
)

// call invokes v[method](args...) and converts a thrown JS exception into
// an error instead of a panic.
func call(v js.Value, method string, args ...any) (res js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w", method, jsError(r))
		}
	}()

	return v.Call(method, args...), nil
}

// setParam writes a scalar AudioParam.
func setParam(node js.Value, name string, value float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("set %s: %w", name, jsError(r))
		}
	}()

	node.Get(name).Set("value", value)

	return nil
}

func param(node js.Value, name string) float64 {
	return node.Get(name).Get("value").Float()
}

// Every calls fn on the page's timer every ms milliseconds and returns a
// func that cancels the timer.
func Every(ms int, fn func()) func() {
	f := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})

	id := js.Global().Call("setInterval", f, ms)

	return func() {
		js.Global().Call("clearInterval", id)
		f.Release()
	}
}

func jsError(r any) error {
	if jsErr, ok := r.(js.Error); ok {
		return fmt.Errorf("%s", jsErr.Get("message").String())
	}

	return fmt.Errorf("%v", r)
}

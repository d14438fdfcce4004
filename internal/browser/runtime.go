//go:build js && wasm

package browser

import (
	"encoding/json"
	"syscall/js"

	"github.com/cwbudde/algo-boost/booster"
)

// Handler answers a decoded command.
type Handler func(cmd booster.Command) booster.Response

// Listen registers h for chrome.runtime messages and answers each with
// {success, error}. Undecodable messages are answered with success=false.
func Listen(h Handler) func() {
	onMessage := js.Global().Get("chrome").Get("runtime").Get("onMessage")
	stringify := js.Global().Get("JSON").Get("stringify")

	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) < 3 {
			return nil
		}

		var resp booster.Response

		cmd, err := booster.DecodeCommand([]byte(stringify.Invoke(args[0]).String()))
		if err != nil {
			resp = booster.Response{Error: err.Error()}
		} else {
			resp = h(cmd)
		}

		args[2].Invoke(toJS(resp))

		return nil
	})

	onMessage.Call("addListener", f)

	return func() {
		onMessage.Call("removeListener", f)
		f.Release()
	}
}

func toJS(v any) js.Value {
	raw, err := json.Marshal(v)
	if err != nil {
		return js.Null()
	}

	return js.Global().Get("JSON").Call("parse", string(raw))
}

//go:build js && wasm

package browser

import (
	"fmt"
	"syscall/js"

	"github.com/cwbudde/algo-boost/booster"
)

const (
	panelClass   = "volume-booster-panel"
	contentClass = "volume-booster-content"
	errorClass   = "volume-booster-error"
	noticeClass  = "volume-booster-notification"
)

const panelCSS = "position:fixed;top:20px;right:20px;z-index:10000000;" +
	"background:#fff;color:#202124;padding:10px 14px;border-radius:8px;" +
	"box-shadow:0 2px 10px rgba(0,0,0,.3);font:13px Arial,sans-serif;min-width:220px"

const errorCSS = "background:rgba(200,0,0,.8);color:#fff;padding:5px 10px;" +
	"margin-top:8px;border-radius:4px;font-size:12px;text-align:center"

const noticeCSS = "position:fixed;bottom:20px;right:20px;z-index:10000000;" +
	"background:rgba(200,0,0,.9);color:#fff;padding:10px 15px;border-radius:5px;" +
	"font:14px Arial,sans-serif;max-width:300px;box-shadow:0 2px 10px rgba(0,0,0,.3)"

// Panel is a minimal on-page status panel. It implements booster.Panel.
type Panel struct {
	root   js.Value
	status js.Value
	errEl  js.Value
	timer  js.Value
	clear  js.Func
}

// NewPanel creates a detached panel.
func NewPanel() *Panel {
	return &Panel{root: js.Null(), errEl: js.Null(), timer: js.Null()}
}

// Show implements booster.Panel.
func (p *Panel) Show(s booster.State) {
	doc := js.Global().Get("document")

	if p.root.IsNull() {
		p.root = doc.Call("createElement", "div")
		p.root.Set("className", panelClass)
		p.root.Get("style").Set("cssText", panelCSS)

		title := doc.Call("createElement", "strong")
		title.Set("textContent", "Volume Booster")
		p.root.Call("appendChild", title)

		content := doc.Call("createElement", "div")
		content.Set("className", contentClass)
		p.status = doc.Call("createElement", "div")
		content.Call("appendChild", p.status)
		p.root.Call("appendChild", content)

		doc.Get("body").Call("appendChild", p.root)
	}

	p.status.Set("textContent", statusLine(s))
}

// Hide implements booster.Panel.
func (p *Panel) Hide() {
	if p.root.IsNull() {
		return
	}

	p.root.Call("remove")
	p.root = js.Null()
	p.errEl = js.Null()
}

// showError renders msg inside the panel until ttlMs elapses, replacing
// any error already shown and restarting its timer.
func (p *Panel) showError(msg string, ttlMs int) bool {
	if p.root.IsNull() {
		return false
	}

	if p.errEl.IsNull() {
		doc := js.Global().Get("document")
		p.errEl = doc.Call("createElement", "div")
		p.errEl.Set("className", errorClass)
		p.errEl.Get("style").Set("cssText", errorCSS)
		p.root.Call("querySelector", "."+contentClass).Call("appendChild", p.errEl)
	}

	p.errEl.Set("textContent", msg)

	if !p.timer.IsNull() {
		js.Global().Call("clearTimeout", p.timer)
		p.clear.Release()
	}

	el := p.errEl
	p.clear = js.FuncOf(func(js.Value, []js.Value) any {
		el.Call("remove")
		if p.errEl.Equal(el) {
			p.errEl = js.Null()
		}
		p.timer = js.Null()

		return nil
	})
	p.timer = js.Global().Call("setTimeout", p.clear, ttlMs)

	return true
}

func statusLine(s booster.State) string {
	status := "Inactive"
	if s.Enabled {
		status = "Active"
	}

	line := fmt.Sprintf("%s | gain %.1fx | clarity %s | balance %s | protection %s",
		status, s.Gain,
		booster.ClarityLabel(s.Compressor.Threshold),
		booster.BalanceLabel(s.Compressor.Ratio),
		booster.ProtectionLabel(s.Limiter.Threshold))

	if s.Enabled && booster.HighGainWarning(s.Gain) {
		line += " | high gain, limiter tightened"
	}

	return line
}

// Notifier renders booster notices in the panel when it is shown and as a
// standalone floating notice otherwise.
type Notifier struct {
	Panel *Panel
}

// Notify implements booster.Notifier.
func (n Notifier) Notify(notice booster.Notice) {
	ttl := int(notice.TTL.Milliseconds())

	if notice.InPanel && n.Panel != nil && n.Panel.showError(notice.Text(), ttl) {
		return
	}

	standalone := notice
	standalone.InPanel = false

	doc := js.Global().Get("document")
	el := doc.Call("createElement", "div")
	el.Set("className", noticeClass)
	el.Set("textContent", standalone.Text())
	el.Get("style").Set("cssText", noticeCSS)
	doc.Get("body").Call("appendChild", el)

	var remove js.Func
	remove = js.FuncOf(func(js.Value, []js.Value) any {
		el.Call("remove")
		remove.Release()

		return nil
	})
	js.Global().Call("setTimeout", remove, ttl)
}

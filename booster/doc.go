// Package booster amplifies page media beyond its native maximum and
// protects the boosted signal against clipping.
//
// Every discovered audio/video element is routed into one shared chain:
//
//	source(s) -> gain -> compressor -> limiter -> destination
//
// When the booster is disabled the chain collapses to gain(1.0) ->
// destination, so playback never drops out on toggle. The limiter tightens
// its ceiling and ratio once the gain exceeds HighGainCutoff.
//
// An Engine owns the per-page state (settings, chain, attached elements)
// and is driven by Events: control-surface Commands, periodic rescans,
// inserted subtrees and element source swaps. Failures never escape
// Engine.Update; they are logged and surfaced as transient Notices.
package booster

// Package dynamics provides the sample processor behind the booster's
// protective stages.
//
// Compressor is a soft-knee downward compressor with log2-domain gain
// computation and a peak envelope follower. Configured with a very high
// ratio, a near-zero knee and a sub-millisecond attack it acts as a
// near brick-wall limiter.
//
// Processors are mono, single-threaded and not safe for concurrent use.
// Parameter changes should occur outside audio processing callbacks.
package dynamics

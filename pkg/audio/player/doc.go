// ABOUTME: Package documentation for the audio player core
// ABOUTME: State machine, callback contract and concurrency rules
// Package player drives a native output device from a pull-based sample
// source. One mutex serializes control operations; the hardware callback
// thread is fed exclusively through atomics and pre-allocated buffers so it
// can never block on the control path.
package player

// ABOUTME: Package documentation for the sample rate converter
// ABOUTME: Pull-based windowed-sinc resampling with a polyphase fast path
// Package resample converts PCM streams between sample rates.
//
// A Converter wraps any audio.Source and is itself an audio.Source, so it
// composes transparently between a decoder and the player. The low-pass
// kernel is a Kaiser-windowed sinc designed once at construction; pure
// integer upsampling uses a polyphase decomposition of that kernel, every
// other ratio evaluates the kernel per output sample at the fractional
// input position.
package resample

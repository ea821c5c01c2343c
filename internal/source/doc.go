// ABOUTME: Package documentation for upstream sample sources
// ABOUTME: Collaborator implementations feeding the output engine
// Package source provides concrete audio.Source implementations used by the
// utility binary and tests: a sine generator and WAV/MP3/Ogg file decoders.
// All of them honor the exact-fill contract: Read always fills the whole
// destination, padding silence once the underlying stream is exhausted.
package source

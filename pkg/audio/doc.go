// ABOUTME: Package documentation for audio primitives
// ABOUTME: Shared types used by device, resample and player packages
// Package audio defines the PCM primitives shared by the output engine:
// stream formats and the pull-based Source contract that the resampler and
// the player compose over.
package audio

// ABOUTME: Package documentation for device enumeration and probing
// ABOUTME: Covers snapshot semantics and host lifetime rules
// Package device enumerates output devices and probes their capabilities.
//
// Enumeration calls return independent snapshots. The PortAudio host behind
// them is initialized lazily exactly once and deliberately never terminated
// before process exit; see host.go.
package device

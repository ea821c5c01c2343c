// ABOUTME: Process-wide PortAudio host lifecycle guard
// ABOUTME: Reference-counted acquire/release with teardown deferred to process exit
package device

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	hostMu    sync.Mutex
	hostReady bool
	hostErr   error
	hostRefs  int
)

// ensureHost performs the one-time PortAudio initialization. The host is
// never terminated mid-run: re-initializing after a full teardown corrupts
// device enumeration on some platforms, so the handle persists until the
// process exits. A failed first initialization is retried on the next call.
func ensureHost() error {
	hostMu.Lock()
	defer hostMu.Unlock()
	return ensureHostLocked()
}

func ensureHostLocked() error {
	if hostReady {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		hostErr = fmt.Errorf("portaudio initialize: %w", err)
		return hostErr
	}
	hostReady = true
	hostErr = nil
	return nil
}

// AcquireHost takes a reference on the shared PortAudio host, initializing
// it on the first call. Every successful AcquireHost must be paired with a
// ReleaseHost.
func AcquireHost() error {
	hostMu.Lock()
	defer hostMu.Unlock()
	if err := ensureHostLocked(); err != nil {
		return err
	}
	hostRefs++
	return nil
}

// ReleaseHost drops a reference taken by AcquireHost. The underlying host
// stays initialized even at zero references; only process exit tears it
// down.
func ReleaseHost() {
	hostMu.Lock()
	defer hostMu.Unlock()
	if hostRefs > 0 {
		hostRefs--
	}
}

// HostRefs reports the current reference count. Used by tests and
// diagnostics.
func HostRefs() int {
	hostMu.Lock()
	defer hostMu.Unlock()
	return hostRefs
}

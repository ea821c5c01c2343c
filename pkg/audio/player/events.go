// ABOUTME: Player state machine states and event notifications
// ABOUTME: Bounded event queue replaces observer callbacks
package player

import "time"

// State is the player lifecycle state.
type State int32

const (
	Uninitialized State = iota
	Stopped
	Playing
	Paused
	Errored
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}

// Event records a state transition or failure. Events are delivered through
// a bounded queue: when no one drains it, new events are dropped rather than
// blocking control operations. The polled State accessor is always current
// regardless.
type Event struct {
	Player string
	State  State
	Err    error
	At     time.Time
}

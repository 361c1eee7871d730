// SPDX-License-Identifier: MPL-2.0

package resolveserver

const (
	// StateCreated is a server that was never started.
	StateCreated State = iota
	// StateRunning is a server accepting requests.
	StateRunning
	// StateStopped is terminal; a stopped server cannot be restarted.
	StateStopped
	// StateFailed is terminal: serving stopped with an error.
	StateFailed
)

// State is the lifecycle state of a server.
type State int32

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is Stopped or Failed.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

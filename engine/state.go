package engine

// State is the engine lifecycle state. Transitions are strictly
// Created → Running → ShuttingDown → Stopped; no transition skips a state,
// Stopped is terminal and an engine instance is not restartable.
type State int32

const (
	// StateCreated is the initial state: handlers may be registered, the
	// loop has not started.
	StateCreated State = iota
	// StateRunning means the dispatch loop is processing calls.
	StateRunning
	// StateShuttingDown means a shutdown was requested (by a handler or by
	// session closure) and the loop is draining the in-flight invocation.
	StateShuttingDown
	// StateStopped is terminal: the loop has exited and Start has returned.
	StateStopped
)

// String returns the state name for logging and errors.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

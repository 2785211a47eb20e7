package pipeline

import "time"

// State is the calculation state owned by the Orchestrator.
type State int

const (
	// StateDirty means the input changed since the last successful run.
	StateDirty State = iota
	// StateCalculating is transient while a run is in flight.
	StateCalculating
	// StateClean means the last result matches the current input.
	StateClean
	// StateFailed means the last attempt raised a validation or computation
	// error. The dirty flag is kept so a corrected run retries.
	StateFailed
)

var stateNames = map[State]string{
	StateDirty:       "dirty",
	StateCalculating: "calculating",
	StateClean:       "clean",
	StateFailed:      "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// transitions lists the legal moves. Self-transitions are no-ops and are
// not listed.
var transitions = map[State][]State{
	StateDirty:       {StateCalculating},
	StateCalculating: {StateClean, StateFailed, StateDirty},
	StateClean:       {StateDirty},
	StateFailed:      {StateDirty, StateCalculating},
}

// CanTransitionTo reports whether s may move to next.
func (s State) CanTransitionTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// StateChange is published to listeners on every transition.
type StateChange struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Listener receives state changes. It is called outside the orchestrator
// lock and may call back into the orchestrator.
type Listener func(StateChange)

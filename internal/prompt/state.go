// internal/prompt/state.go
package prompt

import (
	"fmt"

	commonerrors "prompt-registry/internal/common/errors"
)

// State is the lifecycle stage of one template version.
type State string

const (
	StateDraft      State = "draft"
	StateProduction State = "production"
	StateArchived   State = "archived"
)

// Event is a lifecycle transition request.
type Event string

const (
	EventPromote Event = "promote"
	EventDemote  Event = "demote"
	EventRestore Event = "restore"
)

// transitions is the single source of truth for legal lifecycle moves.
// Promote and restore carry the same side effect: every other production
// version of the name is archived by the repository in the same
// transaction.
var transitions = map[State]map[Event]State{
	StateDraft:      {EventPromote: StateProduction},
	StateProduction: {EventDemote: StateArchived},
	StateArchived:   {EventRestore: StateProduction},
}

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateProduction, StateArchived:
		return true
	}
	return false
}

// Transition gatekeeps every state change. All repository writes that
// touch State go through here.
func Transition(from State, event Event) (State, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return "", commonerrors.NewInvalidTransitionError(
		fmt.Sprintf("cannot %s a version in state %s", event, from))
}

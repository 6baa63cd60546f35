package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is matched by every InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError reports a (current, requested) pair that is not an edge of the table.
type InvalidTransitionError struct {
	Current   State
	Requested State
}

func (e *InvalidTransitionError) Error() string {
	if e.Current.IsTerminal() {
		return fmt.Sprintf("invalid transition: %s is terminal, cannot move to %s", e.Current, e.Requested)
	}
	return fmt.Sprintf("invalid transition: %s -> %s", e.Current, e.Requested)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// transitions is the complete edge list. It is never mutated after init.
var transitions = map[State]map[State]struct{}{
	StateDraft: {
		StateSubmitted: {},
	},
	StateSubmitted: {
		StateReviewedByHOD: {},
		StateReturnedByHOD: {},
	},
	StateReviewedByHOD: {
		StateHODApproved:   {},
		StateReturnedByHOD: {},
	},
	StateReturnedByHOD: {
		StateSubmitted: {},
	},
	StateHODApproved: {
		StateReviewedByPrincipal: {},
	},
	StateReviewedByPrincipal: {
		StatePrincipalApproved:   {},
		StateReturnedByPrincipal: {},
	},
	StateReturnedByPrincipal: {
		StateSubmitted: {},
	},
	StatePrincipalApproved: {
		StateFinalized: {},
	},
}

// Transition validates moving from current to requested and returns the next state.
// It performs no role checks; any pair absent from the table is an error.
func Transition(current, requested State) (State, error) {
	targets, ok := transitions[current]
	if !ok {
		return current, &InvalidTransitionError{Current: current, Requested: requested}
	}
	if _, ok := targets[requested]; !ok {
		return current, &InvalidTransitionError{Current: current, Requested: requested}
	}
	return requested, nil
}

// CanTransition reports whether requested is reachable from current in one step.
func CanTransition(current, requested State) bool {
	_, err := Transition(current, requested)
	return err == nil
}

// Allowed returns the states reachable from s in one step, in pipeline order.
func Allowed(s State) []State {
	targets := transitions[s]
	result := make([]State, 0, len(targets))
	for _, candidate := range allStates {
		if _, ok := targets[candidate]; ok {
			result = append(result, candidate)
		}
	}
	return result
}

// Edges returns the full table as a fresh map keyed by source state.
func Edges() map[State][]State {
	edges := make(map[State][]State, len(allStates))
	for _, state := range allStates {
		edges[state] = Allowed(state)
	}
	return edges
}

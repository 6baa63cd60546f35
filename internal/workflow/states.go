package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// State is a lifecycle state of an appraisal.
type State string

const (
	StateDraft               State = "DRAFT"
	StateSubmitted           State = "SUBMITTED"
	StateReviewedByHOD       State = "REVIEWED_BY_HOD"
	StateHODApproved         State = "HOD_APPROVED"
	StateReturnedByHOD       State = "RETURNED_BY_HOD"
	StateReviewedByPrincipal State = "REVIEWED_BY_PRINCIPAL"
	StatePrincipalApproved   State = "PRINCIPAL_APPROVED"
	StateReturnedByPrincipal State = "RETURNED_BY_PRINCIPAL"
	StateFinalized           State = "FINALIZED"
)

var allStates = []State{
	StateDraft,
	StateSubmitted,
	StateReviewedByHOD,
	StateHODApproved,
	StateReturnedByHOD,
	StateReviewedByPrincipal,
	StatePrincipalApproved,
	StateReturnedByPrincipal,
	StateFinalized,
}

// rank orders states by how far the appraisal has progressed. Returned states
// sit at the step that was last completed before the send-back.
var rank = map[State]int{
	StateDraft:               0,
	StateSubmitted:           1,
	StateReturnedByHOD:       1,
	StateReviewedByHOD:       2,
	StateHODApproved:         3,
	StateReviewedByPrincipal: 4,
	StateReturnedByPrincipal: 4,
	StatePrincipalApproved:   5,
	StateFinalized:           6,
}

// States lists every known state in pipeline order.
func States() []State {
	return append([]State(nil), allStates...)
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	_, ok := rank[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateFinalized
}

// IsReturned reports whether s is a send-back state awaiting resubmission.
func (s State) IsReturned() bool {
	return s == StateReturnedByHOD || s == StateReturnedByPrincipal
}

// Rank returns the progression rank of s, or -1 for unknown states.
func Rank(s State) int {
	if r, ok := rank[s]; ok {
		return r
	}
	return -1
}

// ErrUnknownState is returned when input names no appraisal state.
var ErrUnknownState = errors.New("unknown appraisal state")

// ParseState converts user input (any case, dashes or spaces) into a State.
func ParseState(value string) (State, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	state := State(normalized)
	if !state.Valid() {
		return "", fmt.Errorf("%w %q", ErrUnknownState, value)
	}
	return state, nil
}

package domain

// State is the lifecycle state of an Event.
type State string

const (
	StateDraft     State = "Draft"
	StatePublished State = "Published"
	StateFinalized State = "Finalized"
	StateCancelled State = "Cancelled"
)

var transitions = map[State]map[State]bool{
	StateDraft:     {StatePublished: true, StateCancelled: true},
	StatePublished: {StateFinalized: true, StateCancelled: true},
	StateFinalized: {},
	StateCancelled: {},
}

// ParseState converts a token into a State.
func ParseState(token string) (State, error) {
	s := State(token)
	if !s.Valid() {
		return "", invalidArgument("state", "must be one of Draft, Published, Finalized, Cancelled")
	}
	return s, nil
}

func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s State) IsDraft() bool { return s == StateDraft }
func (s State) IsPublished() bool { return s == StatePublished }
func (s State) IsFinalized() bool { return s == StateFinalized }
func (s State) IsCancelled() bool { return s == StateCancelled }

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Staying in the same state is never a transition.
func (s State) CanTransitionTo(next State) bool {
	return transitions[s][next]
}

func (s State) String() string {
	return string(s)
}

package action

type outcomeStatus int

const (
	statusIgnored outcomeStatus = iota
	statusConsumed
	statusPropagate
)

// Outcome is what a component returns from Handle
type Outcome struct {
	status  outcomeStatus
	actions []Action
}

// Consumed means the component handled the action and nothing follows
func Consumed() Outcome {
	return Outcome{status: statusConsumed}
}

// Propagate hands follow-up actions to the shell, processed in order
func Propagate(actions ...Action) Outcome {
	if len(actions) == 0 {
		return Consumed()
	}
	return Outcome{status: statusPropagate, actions: actions}
}

// Ignored means the component had no use for the action
func Ignored() Outcome {
	return Outcome{}
}

// IsIgnored reports whether the component declined the action
func (o Outcome) IsIgnored() bool {
	return o.status == statusIgnored
}

// Actions returns the propagated follow-ups
func (o Outcome) Actions() []Action {
	return o.actions
}

func (o Outcome) String() string {
	switch o.status {
	case statusConsumed:
		return "consumed"
	case statusPropagate:
		return "propagate"
	default:
		return "ignored"
	}
}

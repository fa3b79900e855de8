package form

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event is not allowed in a phase
var ErrInvalidTransition = errors.New("invalid transition")

// Phase is the lifecycle state of the wizard
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSuccess
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSuccess:
		return "success"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

type event string

const (
	evValidate  event = "validate"
	evInvalid   event = "invalid"
	evValid     event = "valid"
	evSubmit    event = "submit"
	evSucceeded event = "succeeded"
	evFailed    event = "failed"
	evReset     event = "reset"
)

var transitions = map[Phase]map[event]Phase{
	PhaseEditing: {
		evValidate: PhaseValidating,
		evReset:    PhaseEditing,
	},
	PhaseValidating: {
		evInvalid: PhaseEditing,
		evValid:   PhaseEditing,
		evSubmit:  PhaseSubmitting,
		evReset:   PhaseEditing,
	},
	PhaseSubmitting: {
		evSucceeded: PhaseSuccess,
		evFailed:    PhaseEditing,
		evReset:     PhaseEditing,
	},
	PhaseSuccess: {
		evReset: PhaseEditing,
	},
}

// next returns the phase reached from p on ev
func next(p Phase, ev event) (Phase, error) {
	to, ok := transitions[p][ev]
	if !ok {
		return p, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, p, ev)
	}
	return to, nil
}

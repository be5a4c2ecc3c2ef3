package checkout

import (
	"errors"
	"fmt"
)

// Step is a screen of the payment form.
type Step int

const (
	StepPay Step = iota
	StepDetails
	StepVerify
)

func (s Step) String() string {
	switch s {
	case StepPay:
		return "pay"
	case StepDetails:
		return "details"
	case StepVerify:
		return "verify"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// ParseStep maps a form value back to a Step. Unknown values start over.
func ParseStep(s string) Step {
	switch s {
	case "details":
		return StepDetails
	case "verify":
		return StepVerify
	}
	return StepPay
}

type Event int

const (
	EventPaymentAccepted Event = iota
	EventGoVerify
	EventBack
)

func (e Event) String() string {
	switch e {
	case EventPaymentAccepted:
		return "payment-accepted"
	case EventGoVerify:
		return "go-verify"
	case EventBack:
		return "back"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

var ErrIllegalTransition = errors.New("illegal transition")

type edge struct {
	from Step
	on   Event
}

var transitions = map[edge]Step{
	{StepPay, EventPaymentAccepted}: StepDetails,
	{StepDetails, EventGoVerify}:    StepVerify,
	{StepDetails, EventBack}:        StepPay,
	{StepVerify, EventBack}:         StepDetails,
}

// Transition returns the step reached from s on e.
func Transition(s Step, e Event) (Step, error) {
	next, ok := transitions[edge{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, e, s)
	}
	return next, nil
}

package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAccountRequired   = errors.New("account required")
	ErrNoPackSelected    = errors.New("no pack selected")
	ErrNoPaymentMethod   = errors.New("no payment method available")
	ErrClosed            = errors.New("workflow closed")
)

type TransitionError struct {
	Screen Screen
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s on %s screen", e.Action, e.Screen)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

package checkout

import (
	"errors"
	"fmt"
	"sync"
)

// State of a checkout submission
type State string

const (
	StateCollecting State = "Collecting"
	StateSubmitting State = "Submitting"
	StateSucceeded  State = "Succeeded"
	StateFailed     State = "Failed"
)

// ErrSubmissionInFlight is returned when a submission is already running
var ErrSubmissionInFlight = errors.New("an order submission is already in progress")

var allowed = map[State][]State{
	StateCollecting: {StateSubmitting},
	StateSubmitting: {StateSucceeded, StateFailed},
	StateFailed:     {StateCollecting},
}

// Flow tracks one checkout form through submission. It starts in Collecting.
type Flow struct {
	mu      sync.Mutex
	state   State
	form    Form
	lastErr error
}

// NewFlow starts a flow for form
func NewFlow(form Form) *Flow {
	return &Flow{state: StateCollecting, form: form}
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Form returns the form as submitted, for echoing back after a failure
func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Err returns the error of the last failed submission
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Begin moves Collecting to Submitting. A second Begin before the first finishes is rejected.
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	return f.move(StateSubmitting)
}

// Succeed finishes a submission
func (f *Flow) Succeed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.move(StateSucceeded)
}

// Fail records err and returns the flow to Collecting so the shopper can retry
func (f *Flow) Fail(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if moveErr := f.move(StateFailed); moveErr != nil {
		return moveErr
	}
	f.lastErr = err
	return f.move(StateCollecting)
}

func (f *Flow) move(to State) error {
	for _, next := range allowed[f.state] {
		if next == to {
			f.state = to
			return nil
		}
	}
	return fmt.Errorf("checkout cannot move from %s to %s", f.state, to)
}

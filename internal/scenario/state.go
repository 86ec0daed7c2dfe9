package scenario

import (
	"errors"
	"fmt"
	"time"
)

// State is a lifecycle phase of the service under test.
type State int

const (
	Unstarted State = iota
	Provisioning
	Ready
	Stopping
	Removed
	// Refused is reached when the service exits during startup as expected.
	Refused
	// Failed is terminal; any step error lands here.
	Failed
)

var stateNames = map[State]string{
	Unstarted:    "unstarted",
	Provisioning: "provisioning",
	Ready:        "ready",
	Stopping:     "stopping",
	Removed:      "removed",
	Refused:      "refused",
	Failed:       "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrInvalidTransition is returned when a flow is started from a state
	// that does not allow it.
	ErrInvalidTransition = errors.New("invalid scenario transition")

	// ErrNotReady is returned by flows that need a ready service.
	ErrNotReady = fmt.Errorf("%w: service is not ready", ErrInvalidTransition)

	// ErrReachedReady is returned when a service expected to refuse startup
	// logged the ready marker.
	ErrReachedReady = errors.New("service reached ready state")
)

var allowed = map[State][]State{
	Unstarted:    {Provisioning},
	Provisioning: {Ready, Refused},
	Ready:        {Stopping},
	Stopping:     {Removed},
	Removed:      {Provisioning},
}

func canTransition(from, to State) bool {
	if to == Failed {
		return from != Failed
	}
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition is one recorded state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

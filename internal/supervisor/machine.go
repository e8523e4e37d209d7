// Package supervisor guards ticket refreshes with a timeout, a cooperative
// cancel path and an automatic fallback load.
//
// Machine holds the transition rules and performs no I/O: callers feed it
// events and carry out the actions it returns. Supervisor is the runner that
// backs those actions with timers and goroutines.
package supervisor

import "time"

// State is the position of the current refresh attempt.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateSucceeded State = "succeeded"
	StateTimedOut  State = "timed-out"
	StateCanceled  State = "canceled"
	StateFailed    State = "failed"
)

const (
	timedOutMessage = "The ticket store is not responding. Showing offline data until it recovers."
	canceledMessage = "Refresh canceled. Showing offline data."
	failedMessage   = "The ticket store is unavailable. Showing offline data."
)

// Event is an input to Machine.Handle.
type Event interface{ event() }

// Start begins a refresh attempt. It is ignored while one is loading.
type Start struct{ At time.Time }

// Timeout reports that the budget for a generation elapsed.
type Timeout struct {
	Generation uint64
	At         time.Time
}

// Cancel is a user request to stop waiting on the current attempt.
type Cancel struct{ At time.Time }

// Completed reports the outcome of the store fetch for a generation.
type Completed struct {
	Generation uint64
	Err        error
	At         time.Time
}

// FallbackCompleted reports that the forced fallback load finished.
type FallbackCompleted struct{ Generation uint64 }

// Settled fires once the settle delay after a completion has passed.
type Settled struct{ Generation uint64 }

func (Start) event()             {}
func (Timeout) event()           {}
func (Cancel) event()            {}
func (Completed) event()         {}
func (FallbackCompleted) event() {}
func (Settled) event()           {}

// Action is an effect requested by the machine.
type Action interface{ action() }

type (
	// StartTimer arms the timeout for a generation.
	StartTimer struct{ Generation uint64 }
	// StopTimer disarms any pending timeout.
	StopTimer struct{}
	// Fetch runs a normal refresh against the store.
	Fetch struct{ Generation uint64 }
	// FetchFallback runs a refresh that loads the fallback set.
	FetchFallback struct{ Generation uint64 }
	// ScheduleSettle arms the settle delay for a generation.
	ScheduleSettle struct{ Generation uint64 }
	// Notify announces a state change.
	Notify struct {
		From State
		To   State
	}
)

func (StartTimer) action()     {}
func (StopTimer) action()      {}
func (Fetch) action()          {}
func (FetchFallback) action()  {}
func (ScheduleSettle) action() {}
func (Notify) action()         {}

// Status is a point-in-time view of the machine.
type Status struct {
	State           State         `json:"state"`
	Loading         bool          `json:"loading"`
	FallbackPending bool          `json:"fallback_pending"`
	InitialLoad     bool          `json:"initial_load"`
	Attempts        uint64        `json:"attempts"`
	Generation      uint64        `json:"generation"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	Message         string        `json:"message,omitempty"`
	LastError       string        `json:"last_error,omitempty"`
}

// Resting reports whether nothing is in flight that callers should wait on.
func (s Status) Resting() bool { return !s.Loading && !s.FallbackPending }

// Machine is the refresh state machine. It is not safe for concurrent use.
type Machine struct {
	state           State
	generation      uint64
	attempts        uint64
	initialLoad     bool
	fallbackForced  bool
	fallbackPending bool
	startedAt       time.Time
	finishedAt      time.Time
	message         string
	lastErr         string
}

// NewMachine returns an idle machine that has not completed its initial load.
func NewMachine() *Machine {
	return &Machine{state: StateIdle, initialLoad: true}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Handle applies one event and returns the actions to perform, in order.
// Events for an older generation are ignored.
func (m *Machine) Handle(ev Event) []Action {
	switch e := ev.(type) {
	case Start:
		if m.state == StateLoading {
			return nil
		}
		from := m.state
		m.attempts++
		m.generation++
		m.state = StateLoading
		m.startedAt = e.At
		m.finishedAt = time.Time{}
		m.fallbackForced = false
		m.fallbackPending = false
		m.message = ""
		m.lastErr = ""
		return []Action{
			StartTimer{Generation: m.generation},
			Fetch{Generation: m.generation},
			Notify{From: from, To: StateLoading},
		}

	case Timeout:
		if e.Generation != m.generation || m.state != StateLoading {
			return nil
		}
		m.finish(StateTimedOut, e.At, timedOutMessage)
		return m.withFallback(Notify{From: StateLoading, To: StateTimedOut})

	case Cancel:
		if m.state != StateLoading {
			return nil
		}
		m.finish(StateCanceled, e.At, canceledMessage)
		return m.withFallback(StopTimer{}, Notify{From: StateLoading, To: StateCanceled})

	case Completed:
		if e.Generation != m.generation || m.state != StateLoading {
			return nil
		}
		to := StateSucceeded
		message := ""
		if e.Err != nil {
			// the refresh already substituted fallback data
			to = StateFailed
			message = failedMessage
			m.lastErr = e.Err.Error()
		}
		m.finish(to, e.At, message)
		actions := []Action{StopTimer{}, Notify{From: StateLoading, To: to}}
		if m.initialLoad {
			actions = append(actions, ScheduleSettle{Generation: m.generation})
		}
		return actions

	case FallbackCompleted:
		if e.Generation != m.generation || !m.fallbackPending {
			return nil
		}
		m.fallbackPending = false
		m.initialLoad = false
		return nil

	case Settled:
		if e.Generation != m.generation || m.state == StateLoading {
			return nil
		}
		m.initialLoad = false
		return nil
	}
	return nil
}

// Status reports the machine state; elapsed time runs until the attempt finishes.
func (m *Machine) Status(now time.Time) Status {
	st := Status{
		State:           m.state,
		Loading:         m.state == StateLoading,
		FallbackPending: m.fallbackPending,
		InitialLoad:     m.initialLoad,
		Attempts:        m.attempts,
		Generation:      m.generation,
		Message:         m.message,
		LastError:       m.lastErr,
	}
	switch {
	case m.startedAt.IsZero():
	case m.state == StateLoading:
		st.Elapsed = now.Sub(m.startedAt)
	default:
		st.Elapsed = m.finishedAt.Sub(m.startedAt)
	}
	return st
}

func (m *Machine) finish(to State, at time.Time, message string) {
	m.state = to
	m.finishedAt = at
	m.message = message
}

// withFallback appends a fallback fetch unless one was already forced for
// this generation.
func (m *Machine) withFallback(actions ...Action) []Action {
	if m.fallbackForced {
		return actions
	}
	m.fallbackForced = true
	m.fallbackPending = true
	return append(actions, FetchFallback{Generation: m.generation})
}

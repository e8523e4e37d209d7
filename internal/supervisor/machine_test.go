package supervisor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestStartEntersLoading(t *testing.T) {
	m := NewMachine()
	actions := m.Handle(Start{At: t0})

	assert.Equal(t, []Action{
		StartTimer{Generation: 1},
		Fetch{Generation: 1},
		Notify{From: StateIdle, To: StateLoading},
	}, actions)

	st := m.Status(t0.Add(3 * time.Second))
	assert.True(t, st.Loading)
	assert.True(t, st.InitialLoad)
	assert.Equal(t, uint64(1), st.Attempts)
	assert.Equal(t, 3*time.Second, st.Elapsed)

	assert.Nil(t, m.Handle(Start{At: t0.Add(time.Second)}))
	assert.Equal(t, uint64(1), m.Status(t0).Attempts)
}

func TestCompletionSucceedsAndSettlesOnce(t *testing.T) {
	m := NewMachine()
	m.Handle(Start{At: t0})

	actions := m.Handle(Completed{Generation: 1, At: t0.Add(2 * time.Second)})
	assert.Equal(t, []Action{
		StopTimer{},
		Notify{From: StateLoading, To: StateSucceeded},
		ScheduleSettle{Generation: 1},
	}, actions)
	assert.Equal(t, 2*time.Second, m.Status(t0.Add(time.Hour)).Elapsed)
	assert.True(t, m.Status(t0).InitialLoad)

	m.Handle(Settled{Generation: 1})
	assert.False(t, m.Status(t0).InitialLoad)
	assert.Nil(t, m.Handle(Settled{Generation: 1}))
	assert.Nil(t, m.Handle(Completed{Generation: 1}))

	m.Handle(Start{At: t0.Add(time.Minute)})
	actions = m.Handle(Completed{Generation: 2, At: t0.Add(time.Minute)})
	assert.NotContains(t, actions, ScheduleSettle{Generation: 2})
	assert.Equal(t, uint64(2), m.Status(t0).Attempts)
}

func TestTimeoutForcesFallbackOnce(t *testing.T) {
	m := NewMachine()
	m.Handle(Start{At: t0})

	actions := m.Handle(Timeout{Generation: 1, At: t0.Add(8 * time.Second)})
	assert.Equal(t, []Action{
		Notify{From: StateLoading, To: StateTimedOut},
		FetchFallback{Generation: 1},
	}, actions)

	st := m.Status(t0.Add(time.Minute))
	assert.Equal(t, StateTimedOut, st.State)
	assert.False(t, st.Loading)
	assert.True(t, st.FallbackPending)
	assert.NotEmpty(t, st.Message)
	assert.Equal(t, 8*time.Second, st.Elapsed)

	// a cancel or a late fetch result cannot move the machine again
	assert.Nil(t, m.Handle(Cancel{At: t0.Add(9 * time.Second)}))
	assert.Nil(t, m.Handle(Completed{Generation: 1, At: t0.Add(20 * time.Second)}))
	assert.Equal(t, StateTimedOut, m.State())

	m.Handle(FallbackCompleted{Generation: 1})
	st = m.Status(t0)
	assert.False(t, st.InitialLoad)
	assert.True(t, st.Resting())
}

func TestCancelForcesFallback(t *testing.T) {
	m := NewMachine()
	m.Handle(Start{At: t0})

	actions := m.Handle(Cancel{At: t0.Add(time.Second)})
	assert.Equal(t, []Action{
		StopTimer{},
		Notify{From: StateLoading, To: StateCanceled},
		FetchFallback{Generation: 1},
	}, actions)
	assert.False(t, m.Status(t0).Loading)
	assert.Nil(t, m.Handle(Timeout{Generation: 1}))
	assert.Nil(t, m.Handle(Cancel{}))
}

func TestFailedCompletion(t *testing.T) {
	m := NewMachine()
	m.Handle(Start{At: t0})

	actions := m.Handle(Completed{Generation: 1, Err: errors.New("connection refused"), At: t0})
	require.Contains(t, actions, Notify{From: StateLoading, To: StateFailed})
	assert.Contains(t, actions, ScheduleSettle{Generation: 1})

	st := m.Status(t0)
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "connection refused", st.LastError)
	assert.True(t, st.Resting())
}

func TestStaleGenerationIgnored(t *testing.T) {
	m := NewMachine()
	m.Handle(Start{At: t0})
	m.Handle(Timeout{Generation: 1, At: t0})
	m.Handle(FallbackCompleted{Generation: 1})
	m.Handle(Start{At: t0.Add(time.Minute)})

	assert.Nil(t, m.Handle(Timeout{Generation: 1}))
	assert.Nil(t, m.Handle(Completed{Generation: 1}))
	assert.Nil(t, m.Handle(FallbackCompleted{Generation: 1}))
	assert.Equal(t, StateLoading, m.State())

	st := m.Status(t0)
	assert.False(t, st.FallbackPending)
	assert.Empty(t, st.Message)
}

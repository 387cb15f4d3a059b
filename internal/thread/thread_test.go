package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierq/internal/machine"
)

func TestNew_ClampsPriority(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, MinPriority},
		{0, 0},
		{75, 75},
		{149, 149},
		{500, MaxPriority},
	}
	for _, tt := range tests {
		th := New(1, "t", tt.in, 0)
		assert.Equal(t, tt.want, th.Priority(), "priority %d", tt.in)
	}

	th := New(1, "t", 10, 0)
	th.SetPriority(1000)
	assert.Equal(t, MaxPriority, th.Priority())
}

func TestNew_Defaults(t *testing.T) {
	th := New(7, "worker", 60, 0)
	assert.Equal(t, ID(7), th.ID())
	assert.Equal(t, "worker", th.Name())
	assert.Equal(t, JustCreated, th.Status())
	assert.Len(t, th.Stack(), DefaultStackWords)
	assert.NoError(t, th.CheckOverflow())
	assert.Equal(t, "worker(7)", th.String())
}

func TestIncreaseWaitingTime(t *testing.T) {
	th := New(1, "t", 10, 16)

	assert.False(t, th.IncreaseWaitingTime(500, 1500))
	assert.False(t, th.IncreaseWaitingTime(999, 1500))
	assert.True(t, th.IncreaseWaitingTime(1, 1500))
	assert.Equal(t, int64(1500), th.WaitingTime())

	// negative elapsed never lowers the counter
	assert.True(t, th.IncreaseWaitingTime(-20, 1500))
	assert.Equal(t, int64(1500), th.WaitingTime())

	th.ResetWaitingTime()
	assert.Equal(t, int64(0), th.WaitingTime())
}

func TestBurstAccounting(t *testing.T) {
	a := New(1, "a", 100, 16)
	b := New(2, "b", 100, 16)

	a.SetApproxBurstTime(100)
	a.SetRunningBurstTime(30)
	b.SetApproxBurstTime(50)

	assert.Equal(t, 70.0, a.RemainingBurst())
	assert.Equal(t, 1, CompareBurst(a, b))
	assert.Equal(t, -1, CompareBurst(b, a))

	b.SetApproxBurstTime(70)
	assert.Equal(t, 0, CompareBurst(a, b))

	a.UpdateApproxBurst(200, 0.5)
	assert.Equal(t, 150.0, a.ApproxBurstTime())
}

func TestCheckOverflow(t *testing.T) {
	th := New(1, "t", 10, 8)
	th.Stack()[0] = 0
	assert.Error(t, th.CheckOverflow())
}

func TestUserState_SaveRestore(t *testing.T) {
	m := machine.New()
	th := New(1, "t", 10, 8)

	m.WriteRegister(machine.PCReg, 40)
	th.SaveUserState(m)
	m.WriteRegister(machine.PCReg, 99)

	th.RestoreUserState(m)
	assert.Equal(t, 40, m.ReadRegister(machine.PCReg))
	assert.Equal(t, 40, th.UserRegisters()[machine.PCReg])
}

func TestDestroy_RunsHookOnce(t *testing.T) {
	th := New(3, "t", 10, 8)
	calls := 0
	th.OnDestroy(func(d *Thread) {
		calls++
		assert.Same(t, th, d)
	})

	th.Destroy()
	th.Destroy()

	assert.Equal(t, 1, calls)
	assert.True(t, th.Destroyed())
	assert.Equal(t, Finished, th.Status())
}

func TestSwitch_PingPong(t *testing.T) {
	main := New(0, "main", 0, 8)
	main.Adopt()
	worker := New(1, "worker", 0, 8)

	var trace []string
	worker.Bind(func() {
		trace = append(trace, "worker-1")
		Switch(worker, main)
		trace = append(trace, "worker-2")
		Switch(worker, main)
		trace = append(trace, "never")
	})

	trace = append(trace, "main-1")
	Switch(main, worker)
	trace = append(trace, "main-2")
	Switch(main, worker)
	trace = append(trace, "main-3")

	// worker is parked in its second Switch; releasing it ends its goroutine.
	worker.Destroy()

	require.Equal(t, []string{"main-1", "worker-1", "main-2", "worker-2", "main-3"}, trace)
}

package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterrupt_SetLevelReturnsPrevious(t *testing.T) {
	in := NewInterrupt()
	assert.True(t, in.Disabled())

	old := in.SetLevel(IntOn)
	assert.Equal(t, IntOff, old)
	assert.Equal(t, IntOn, in.Level())

	old = in.SetLevel(IntOff)
	assert.Equal(t, IntOn, old)
	assert.True(t, in.Disabled())

	in.Enable()
	assert.False(t, in.Disabled())
	assert.Equal(t, "on", in.Level().String())
}

func TestTickClock_Advance(t *testing.T) {
	c := NewTickClock()
	assert.Equal(t, int64(0), c.Count())
	assert.Equal(t, int64(5), c.Advance(5))
	assert.Equal(t, int64(5), c.Advance(0))
	assert.Equal(t, int64(5), c.Advance(-3))
	assert.Equal(t, int64(100), c.AdvanceTo(100))
	// never moves backwards
	assert.Equal(t, int64(100), c.AdvanceTo(50))
}

func TestTickClock_Paced(t *testing.T) {
	c := NewTickClock()
	c.Pace(time.Millisecond)
	defer c.Stop()

	start := time.Now()
	c.Advance(3)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
	assert.Equal(t, int64(3), c.Count())
}

func TestMachine_AdvancePC(t *testing.T) {
	m := New()
	m.WriteRegister(PCReg, 0)
	m.WriteRegister(NextPCReg, 4)
	m.AdvancePC()
	assert.Equal(t, 4, m.ReadRegister(PCReg))
	assert.Equal(t, 8, m.ReadRegister(NextPCReg))
	assert.Equal(t, 0, m.ReadRegister(PrevPCReg))
}

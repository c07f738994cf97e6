package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/gobject"
)

func TestConstructorValidates(t *testing.T) {
	c := NewCounter(7)
	assert.Equal(t, 7, c.Count())
	assert.Equal(t, "idle", c.Label())
	assert.True(t, c.imp.ready)

	assert.ErrorIs(t, c.SetCount(101), gobject.ErrOutOfBounds)
	assert.Equal(t, 7, c.Count())
	assert.Panics(t, func() { NewCounter(500) })
}

func TestConstructOnly(t *testing.T) {
	c, err := NewCounterWith(gobject.Prop{Name: "label", Value: "busy"})
	require.NoError(t, err)
	assert.Equal(t, "busy", c.Label())

	assert.ErrorIs(t, c.Base().SetProperty("label", "late"), gobject.ErrConstructOnly)
	assert.Equal(t, "busy", c.Label())
}

func TestNotify(t *testing.T) {
	c := NewCounter(1)
	var seen []int
	c.ConnectCountNotify(func(c *Counter) { seen = append(seen, c.Count()) })
	require.NoError(t, c.SetCount(2))
	require.NoError(t, c.SetCount(3))
	assert.Equal(t, []int{2, 3}, seen)
}

func TestAccumulator(t *testing.T) {
	c := NewCounter(0)
	c.ConnectChanged("", func(_ *Counter, delta int) int { return delta * 2 })
	c.ConnectChanged("big", func(_ *Counter, delta int) int { return 1000 })

	assert.Equal(t, 9, c.emitChanged("", 3))
	assert.Equal(t, 1009, c.emitChanged("big", 3))
}

func TestSubclass(t *testing.T) {
	s, err := NewStepperWith(gobject.Prop{Name: "count", Value: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count())
	assert.True(t, s.Counter.imp.ready)

	assert.Equal(t, "counter", NewCounter(0).Describe())
	assert.Equal(t, "stepper", s.Describe())
	assert.Equal(t, "stepper", s.AsCounter().Describe())

	s.ConnectChanged("", func(_ *Counter, delta int) int { return delta * 2 })
	assert.Equal(t, 36, s.emitChanged("", 3), "class handler is overridden")
}

func TestInterfaceSlot(t *testing.T) {
	s, err := NewStepperWith()
	require.NoError(t, err)

	r, ok := AsResettable(s)
	require.True(t, ok)
	assert.Equal(t, "stepper reset", r.Reset())

	_, ok = AsResettable(NewCounter(0))
	assert.False(t, ok)
}

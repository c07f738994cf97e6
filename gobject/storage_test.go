package gobject_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/gobjgen/gobject"
)

func TestOnceCell(t *testing.T) {
	var c gobject.OnceCell[string]
	assert.False(t, c.IsSet())
	require.NoError(t, c.Set("first"))
	assert.ErrorIs(t, c.Set("second"), gobject.ErrAlreadySet)
	assert.Equal(t, "first", c.Get())
	assert.True(t, c.IsSet())
}

func TestSyncedConcurrentUpdate(t *testing.T) {
	var s gobject.Synced[int]
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Get())
}

func TestCellReplace(t *testing.T) {
	var c gobject.Cell[int]
	c.Set(1)
	assert.Equal(t, 1, c.Replace(2))
	assert.Equal(t, 2, c.Get())
}

func TestRefBorrow(t *testing.T) {
	var r gobject.Ref[[]string]
	r.Set([]string{"a"})
	*r.Borrow() = append(*r.Borrow(), "b")
	assert.Equal(t, []string{"a", "b"}, *r.Borrow())
}

type node struct{ name string }

func TestWeakRef(t *testing.T) {
	var w gobject.WeakRef[node]
	assert.Nil(t, w.Get())

	n := &node{name: "parent"}
	w.Bind(n)
	assert.Equal(t, "parent", w.Get().name)
	runtime.KeepAlive(n)

	w.Bind(nil)
	assert.Nil(t, w.Upgrade())
}

func TestWeakRefPanicsWhenDropped(t *testing.T) {
	var w gobject.WeakRef[node]
	func() {
		w.Bind(&node{name: "short-lived"})
	}()
	for i := 0; i < 10 && w.Upgrade() != nil; i++ {
		runtime.GC()
	}
	if w.Upgrade() != nil {
		t.Skip("referent still reachable after GC")
	}
	assert.PanicsWithValue(t, gobject.ErrReferentDropped, func() { w.Get() })
}

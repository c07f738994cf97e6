package counter

import "github.com/Alia5/gobjgen/gobject"

//gobject:class
type counterImpl struct {
	count gobject.Cell[int]        `gobject:"get,set,minimum=0,maximum=100"`
	label gobject.OnceCell[string] `gobject:"get,set,construct_only,default=\"idle\""`
	ready bool
}

//gobject:constructor
func (c *counterImpl) new(count int) {}

//gobject:signal detailed, accumulator=sum
func (c *counterImpl) changed(delta int) int { return delta }

func (c *counterImpl) sum(acc int, value int) (int, bool) { return acc + value, true }

//gobject:virtual
func (c *counterImpl) describe() string { return "counter" }

func (c *counterImpl) constructed() { c.ready = true }

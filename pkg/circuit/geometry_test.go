package circuit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

// gridLocator puts slot i of the n-th placed gate at (n*100, i*10)
type gridLocator map[circuit.GateID]float64

func (l gridLocator) SlotPosition(g circuit.Gate, slot int) (circuit.Point, bool) {
	x, ok := l[g.ID]
	if !ok {
		return circuit.Point{}, false
	}
	return circuit.Point{X: x, Y: float64(slot) * 10}, true
}

func TestPointDistance(t *testing.T) {
	assert.InDelta(t, 5.0, circuit.Point{X: 0, Y: 0}.Distance(circuit.Point{X: 3, Y: 4}), 1e-9)
}

func TestNearestFreeSlot(t *testing.T) {
	c := circuit.NewCircuit("snap")
	g1 := mustAdd(t, c, circuit.AND, 2)
	g2 := mustAdd(t, c, circuit.OR, 3)
	g3 := mustAdd(t, c, circuit.NOT, 1)
	loc := gridLocator{g1: 0, g2: 100}

	t.Run("closest slot", func(t *testing.T) {
		id, ok := c.NearestFreeSlot(loc, circuit.Point{X: 98, Y: 12}, 15, "")
		assert.True(t, ok)
		assert.Equal(t, circuit.EdgeID{Dest: g2, Slot: 1}, id)
	})

	t.Run("out of reach", func(t *testing.T) {
		_, ok := c.NearestFreeSlot(loc, circuit.Point{X: 50, Y: 50}, 15, "")
		assert.False(t, ok)
	})

	t.Run("excluded gate", func(t *testing.T) {
		_, ok := c.NearestFreeSlot(loc, circuit.Point{X: 0, Y: 0}, 5, g1)
		assert.False(t, ok)
	})

	t.Run("unplaced gate", func(t *testing.T) {
		id, ok := c.NearestFreeSlot(loc, circuit.Point{X: 0, Y: 0}, 1000, g1)
		assert.True(t, ok)
		assert.NotEqual(t, g3, id.Dest, "gates without a position are never picked")
		assert.Equal(t, circuit.EdgeID{Dest: g2, Slot: 0}, id)
	})

	t.Run("bound slot skipped", func(t *testing.T) {
		mustConnect(t, c, g1, g2, 1)
		id, ok := c.NearestFreeSlot(loc, circuit.Point{X: 100, Y: 10}, 15, "")
		assert.True(t, ok)
		assert.Equal(t, circuit.EdgeID{Dest: g2, Slot: 0}, id, "tie goes to the lower slot")
	})
}

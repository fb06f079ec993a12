package circuit

import "math"

// Point is a position on the editing canvas
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Distance returns the Euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// SlotLocator maps input slots to canvas positions. The circuit holds no
// geometry of its own; the editing layer supplies it.
type SlotLocator interface {
	SlotPosition(g Gate, slot int) (Point, bool)
}

// NearestFreeSlot finds the unbound input slot closest to p, ignoring slots of
// the exclude gate and slots the locator cannot place. It returns false when no
// candidate lies within maxDistance. Ties go to the earlier gate, then the
// lower slot.
func (c *Circuit) NearestFreeSlot(loc SlotLocator, p Point, maxDistance float64, exclude GateID) (EdgeID, bool) {
	var best EdgeID
	bestDistance := math.Inf(1)
	found := false

	for _, id := range c.order {
		if id == exclude {
			continue
		}
		g := c.gates[id]
		for slot, s := range g.Slots {
			if s.IsBound() {
				continue
			}
			pos, ok := loc.SlotPosition(*g, slot)
			if !ok {
				continue
			}
			d := pos.Distance(p)
			if d <= maxDistance && d < bestDistance {
				best = EdgeID{Dest: id, Slot: slot}
				bestDistance = d
				found = true
			}
		}
	}

	return best, found
}

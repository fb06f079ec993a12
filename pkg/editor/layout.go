package editor

import (
	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

// Default gate box size and placement stride
const (
	GateWidth  = 100.0
	GateHeight = 100.0
	portOffset = 10.0
	originX    = 100.0
	originY    = 100.0
	strideX    = 80.0
)

// Placement is a gate's box on the canvas
type Placement struct {
	Origin circuit.Point `json:"origin"` // Top-left corner
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
}

// Layout holds gate placements and derives port positions from them
type Layout struct {
	placements map[circuit.GateID]Placement
}

// NewLayout creates an empty layout
func NewLayout() *Layout {
	return &Layout{placements: make(map[circuit.GateID]Placement)}
}

// DefaultPosition returns where the n-th gate (0-based) is placed when the
// caller gives no position
func DefaultPosition(n int) circuit.Point {
	return circuit.Point{X: originX + strideX*float64(n), Y: originY}
}

// Place sets a gate's top-left corner using the default box size
func (l *Layout) Place(id circuit.GateID, at circuit.Point) {
	l.placements[id] = Placement{Origin: at, Width: GateWidth, Height: GateHeight}
}

// Placement returns a gate's box
func (l *Layout) Placement(id circuit.GateID) (Placement, bool) {
	p, ok := l.placements[id]
	return p, ok
}

// Remove forgets a gate's placement
func (l *Layout) Remove(id circuit.GateID) {
	delete(l.placements, id)
}

// Reset forgets every placement
func (l *Layout) Reset() {
	l.placements = make(map[circuit.GateID]Placement)
}

// SlotPosition places input slots on a vertical line left of the box, spread
// evenly over its height.
func (l *Layout) SlotPosition(g circuit.Gate, slot int) (circuit.Point, bool) {
	p, ok := l.placements[g.ID]
	if !ok || slot < 0 || slot >= g.Arity {
		return circuit.Point{}, false
	}
	gap := p.Height / float64(g.Arity+1)
	return circuit.Point{
		X: p.Origin.X - portOffset,
		Y: p.Origin.Y + float64(slot+1)*gap,
	}, true
}

// OutputPosition returns the output port, right of the box at mid height
func (l *Layout) OutputPosition(id circuit.GateID) (circuit.Point, bool) {
	p, ok := l.placements[id]
	if !ok {
		return circuit.Point{}, false
	}
	return circuit.Point{
		X: p.Origin.X + p.Width + portOffset,
		Y: p.Origin.Y + p.Height/2,
	}, true
}

package circuit

import (
	"fmt"
)

// EdgeID identifies a connection by the input slot it ends at. A slot accepts
// at most one edge, so the pair is unique.
type EdgeID struct {
	Dest GateID
	Slot int
}

// String returns a string representation of the edge id
func (e EdgeID) String() string {
	return fmt.Sprintf("%s[%d]", e.Dest, e.Slot)
}

// Edge is a directed connection from a gate's output to one input slot of
// another gate
type Edge struct {
	Source GateID // Gate driving the connection
	Dest   GateID // Gate receiving it
	Slot   int    // Input slot on Dest
}

// ID returns the edge's identity
func (e Edge) ID() EdgeID {
	return EdgeID{Dest: e.Dest, Slot: e.Slot}
}

// String returns a string representation of the edge
func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s[%d]", e.Source, e.Dest, e.Slot)
}

package circuit

import (
	"fmt"
)

// Topology contains structural information derived from a circuit snapshot
type Topology struct {
	Circuit      *Circuit
	LevelMap     map[GateID]int // Longest distance from free inputs, 1 for gates fed only by free slots
	MaxLevel     int            // Maximum level in the circuit
	FanoutPoints []GateID       // Gates whose output feeds more than one slot
	Terminals    []GateID       // Gates whose output feeds nothing
}

// NewTopology creates a new topology analyzer for the given circuit
func NewTopology(c *Circuit) *Topology {
	return &Topology{
		Circuit:  c,
		LevelMap: make(map[GateID]int),
	}
}

// Analyze performs a complete topological analysis of the circuit.
// It fails with ErrCyclicGraph when some gates cannot be leveled.
func (t *Topology) Analyze() error {
	t.IdentifyFanoutPoints()
	t.Terminals = t.Circuit.Terminals()
	return t.ComputeLevels()
}

// ComputeLevels assigns a level to each gate. Free slots count as level 0, so
// a gate with only free inputs is level 1 and every other gate is one more than
// its deepest source.
func (t *Topology) ComputeLevels() error {
	t.LevelMap = make(map[GateID]int)
	t.MaxLevel = 0

	// Keep sweeping until no gate gets a level
	changed := true
	for changed {
		changed = false

		for _, id := range t.Circuit.order {
			if _, hasLevel := t.LevelMap[id]; hasLevel {
				continue
			}

			gate := t.Circuit.gates[id]
			allInputsHaveLevels := true
			maxInputLevel := 0

			for _, slot := range gate.Slots {
				if !slot.IsBound() {
					continue
				}
				level, exists := t.LevelMap[slot.Source]
				if !exists {
					allInputsHaveLevels = false
					break
				}
				maxInputLevel = max(maxInputLevel, level)
			}

			if allInputsHaveLevels {
				t.LevelMap[id] = maxInputLevel + 1
				t.MaxLevel = max(t.MaxLevel, maxInputLevel+1)
				changed = true
			}
		}
	}

	if unleveled := t.Circuit.Len() - len(t.LevelMap); unleveled > 0 {
		return fmt.Errorf("%w: %d gates sit on or behind a cycle", ErrCyclicGraph, unleveled)
	}
	return nil
}

// IdentifyFanoutPoints lists gates whose output feeds more than one slot
func (t *Topology) IdentifyFanoutPoints() {
	t.FanoutPoints = make([]GateID, 0)

	for _, id := range t.Circuit.order {
		if len(t.Circuit.gates[id].Fanout) > 1 {
			t.FanoutPoints = append(t.FanoutPoints, id)
		}
	}
}

// FindPathBetween finds a path of gates from start to end following output
// connections, or nil when end is not reachable.
func (t *Topology) FindPathBetween(start, end GateID) []GateID {
	if _, ok := t.Circuit.gates[start]; !ok {
		return nil
	}

	visited := make(map[GateID]bool)
	queue := [][]GateID{{start}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		current := path[len(path)-1]
		if current == end {
			return path
		}

		if visited[current] {
			continue
		}
		visited[current] = true

		for _, out := range t.Circuit.gates[current].Fanout {
			if !visited[out.Dest] {
				newPath := make([]GateID, len(path), len(path)+1)
				copy(newPath, path)
				newPath = append(newPath, out.Dest)
				queue = append(queue, newPath)
			}
		}
	}

	return nil
}

// WouldCycle reports whether connecting source into dest would close a cycle,
// i.e. whether source is already reachable from dest.
func (t *Topology) WouldCycle(source, dest GateID) bool {
	return source == dest || t.FindPathBetween(dest, source) != nil
}

package editor

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/fyerfyer/gate-synth/pkg/algorithm"
	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

// DefaultSnapDistance is the nearest-slot tolerance used when none is configured
const DefaultSnapDistance = 15.0

type actionKind int

const (
	actionAddGate actionKind = iota
	actionConnect
	actionDisconnect
	actionRemoveGate
)

// link is an edge together with its place in the source's fan-out list
type link struct {
	edge   circuit.Edge
	fanout int
}

// action is one undoable history entry
type action struct {
	kind      actionKind
	gate      circuit.Gate // added or removed gate
	position  int          // creation-order index of a removed gate
	placement Placement    // box of a removed gate
	placed    bool         // whether the removed gate had a box
	link      link         // connected or disconnected edge
	links     []link       // edges cascaded away with a removed gate, by fan-out index
}

// Editor is one editing session over a circuit. It adds canvas placement,
// a pending "drag from output" connection and an undo history on top of the
// circuit's own operations. Like the circuit, it is not safe for concurrent use.
type Editor struct {
	circuit      *circuit.Circuit
	layout       *Layout
	synth        *algorithm.Synthesizer
	history      []action
	selected     circuit.GateID
	snapDistance float64
	circuitOpts  []circuit.Option
	logger       *slog.Logger
}

// Option configures an Editor
type Option func(*Editor)

// WithSnapDistance sets the tolerance for ConnectAt
func WithSnapDistance(d float64) Option {
	return func(e *Editor) {
		e.snapDistance = d
	}
}

// WithLogger sets the logger shared by the editor, its circuit and synthesizer
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithCircuitOptions passes options through to the underlying circuit
func WithCircuitOptions(opts ...circuit.Option) Option {
	return func(e *Editor) {
		e.circuitOpts = append(e.circuitOpts, opts...)
	}
}

// New creates an editor over an empty circuit
func New(name string, opts ...Option) *Editor {
	e := &Editor{
		layout:       NewLayout(),
		snapDistance: DefaultSnapDistance,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	circuitOpts := append([]circuit.Option{circuit.WithLogger(e.logger)}, e.circuitOpts...)
	e.circuit = circuit.NewCircuit(name, circuitOpts...)
	e.synth = algorithm.NewSynthesizer(e.circuit, e.logger)
	return e
}

// Snapshot returns a deep copy of the edited circuit. Changing the copy does
// not affect the session.
func (e *Editor) Snapshot() *circuit.Circuit {
	return e.circuit.Clone()
}

// Name returns the circuit name
func (e *Editor) Name() string {
	return e.circuit.Name
}

// Policy returns the circuit's arity policy
func (e *Editor) Policy() circuit.ArityPolicy {
	return e.circuit.Policy()
}

// Gate returns a copy of a gate
func (e *Editor) Gate(id circuit.GateID) (circuit.Gate, error) {
	return e.circuit.Gate(id)
}

// Gates returns copies of all gates in creation order
func (e *Editor) Gates() []circuit.Gate {
	return e.circuit.Gates()
}

// Edges returns all edges
func (e *Editor) Edges() []circuit.Edge {
	return e.circuit.Edges()
}

// Edge returns the edge ending at a slot
func (e *Editor) Edge(id circuit.EdgeID) (circuit.Edge, bool) {
	return e.circuit.Edge(id)
}

// Fanout returns the gates fed by a gate, in connection order
func (e *Editor) Fanout(id circuit.GateID) ([]circuit.GateID, error) {
	return e.circuit.Fanout(id)
}

// Has reports whether a gate is present
func (e *Editor) Has(id circuit.GateID) bool {
	return e.circuit.Has(id)
}

// IndexOf returns a gate's creation-order position, or -1
func (e *Editor) IndexOf(id circuit.GateID) int {
	return e.circuit.IndexOf(id)
}

// Len returns the number of gates
func (e *Editor) Len() int {
	return e.circuit.Len()
}

// EdgeCount returns the number of edges
func (e *Editor) EdgeCount() int {
	return e.circuit.EdgeCount()
}

// Terminals returns the gates whose output feeds nothing
func (e *Editor) Terminals() []circuit.GateID {
	return e.circuit.Terminals()
}

// Validate checks the circuit's structural invariants
func (e *Editor) Validate() error {
	return e.circuit.Validate()
}

// Layout returns the canvas layout
func (e *Editor) Layout() *Layout {
	return e.layout
}

// SnapDistance returns the nearest-slot tolerance
func (e *Editor) SnapDistance() float64 {
	return e.snapDistance
}

// AddGate adds a gate at the next default position
func (e *Editor) AddGate(kind circuit.GateKind, arity int) (circuit.GateID, error) {
	return e.AddGateAt(kind, arity, DefaultPosition(e.circuit.Len()))
}

// AddGateAt adds a gate with its box's top-left corner at the given point
func (e *Editor) AddGateAt(kind circuit.GateKind, arity int, at circuit.Point) (circuit.GateID, error) {
	id, err := e.circuit.AddGate(kind, arity)
	if err != nil {
		return "", err
	}
	e.layout.Place(id, at)

	g, _ := e.circuit.Gate(id)
	e.history = append(e.history, action{kind: actionAddGate, gate: g})
	return id, nil
}

// MoveGate moves a gate's box. Moves are not recorded in the history.
func (e *Editor) MoveGate(id circuit.GateID, to circuit.Point) error {
	if !e.circuit.Has(id) {
		return fmt.Errorf("%w: %s", circuit.ErrUnknownGate, id)
	}
	e.layout.Place(id, to)
	return nil
}

// Connect binds source's output to a slot of dest. Closing a cycle is
// allowed but logged, since synthesis will refuse the circuit until it is broken.
func (e *Editor) Connect(source, dest circuit.GateID, slot int) (circuit.EdgeID, error) {
	closesCycle := e.circuit.Has(source) && e.circuit.Has(dest) &&
		circuit.NewTopology(e.circuit).WouldCycle(source, dest)

	id, err := e.circuit.Connect(source, dest, slot)
	if err != nil {
		return id, err
	}
	if closesCycle {
		e.logger.Warn("connection closes a cycle", "source", source, "dest", dest, "slot", slot)
	}

	e.history = append(e.history, action{
		kind: actionConnect,
		link: link{edge: circuit.Edge{Source: source, Dest: dest, Slot: slot}},
	})
	return id, nil
}

// Disconnect frees a slot and reports whether an edge was removed. Freeing an
// already free slot does nothing and is not recorded.
func (e *Editor) Disconnect(dest circuit.GateID, slot int) bool {
	edge, ok := e.circuit.Edge(circuit.EdgeID{Dest: dest, Slot: slot})
	if !ok {
		return false
	}
	l := link{edge: edge, fanout: e.circuit.FanoutIndex(edge)}
	e.circuit.Disconnect(dest, slot)
	e.history = append(e.history, action{kind: actionDisconnect, link: l})
	return true
}

// RemoveGate removes a gate and its edges
func (e *Editor) RemoveGate(id circuit.GateID) error {
	g, err := e.circuit.Gate(id)
	if err != nil {
		return err
	}
	position := e.circuit.IndexOf(id)
	placement, placed := e.layout.Placement(id)

	var incident []link
	for _, edge := range e.circuit.Edges() {
		if edge.Source == id || edge.Dest == id {
			incident = append(incident, link{edge: edge, fanout: e.circuit.FanoutIndex(edge)})
		}
	}
	// Reinserting in ascending fan-out order rebuilds every list as it was
	slices.SortStableFunc(incident, func(a, b link) int {
		return cmp.Compare(a.fanout, b.fanout)
	})

	if err := e.circuit.RemoveGate(id); err != nil {
		return err
	}
	e.layout.Remove(id)
	if e.selected == id {
		e.selected = ""
	}

	e.history = append(e.history, action{
		kind:      actionRemoveGate,
		gate:      g,
		position:  position,
		placement: placement,
		placed:    placed,
		links:     incident,
	})
	return nil
}

// Clear empties the circuit, the layout and the history
func (e *Editor) Clear() {
	e.circuit.Clear()
	e.layout.Reset()
	e.history = nil
	e.selected = ""
}

// SelectOutput starts a connection from a gate's output
func (e *Editor) SelectOutput(source circuit.GateID) error {
	if !e.circuit.Has(source) {
		return fmt.Errorf("%w: %s", circuit.ErrUnknownGate, source)
	}
	e.selected = source
	return nil
}

// Selected returns the gate whose output is waiting to be connected
func (e *Editor) Selected() (circuit.GateID, bool) {
	return e.selected, e.selected != ""
}

// CancelConnection drops the pending connection
func (e *Editor) CancelConnection() {
	e.selected = ""
}

// ConnectAt completes the pending connection at the free slot nearest to p.
// When nothing is selected or no slot lies within the snap distance it
// returns false and changes nothing. The selection is cleared either way.
func (e *Editor) ConnectAt(p circuit.Point) (circuit.EdgeID, bool, error) {
	source, ok := e.Selected()
	if !ok {
		return circuit.EdgeID{}, false, nil
	}
	e.selected = ""

	target, ok := e.circuit.NearestFreeSlot(e.layout, p, e.snapDistance, source)
	if !ok {
		e.logger.Debug("no slot within reach", "source", source, "x", p.X, "y", p.Y)
		return circuit.EdgeID{}, false, nil
	}

	id, err := e.Connect(source, target.Dest, target.Slot)
	if err != nil {
		return id, false, err
	}
	return id, true, nil
}

// HistoryLen returns the number of undoable actions
func (e *Editor) HistoryLen() int {
	return len(e.history)
}

// Undo reverts the most recent recorded action. It returns false when the
// history is empty. An action that cannot be reverted stays on the history
// and leaves the circuit unchanged.
func (e *Editor) Undo() (bool, error) {
	if len(e.history) == 0 {
		return false, nil
	}
	last := e.history[len(e.history)-1]

	if err := e.revert(last); err != nil {
		e.logger.Warn("undo failed", "err", err)
		return true, err
	}
	e.history = e.history[:len(e.history)-1]

	e.logger.Debug("undo", "remaining", len(e.history))
	return true, nil
}

// revert applies the inverse of an action, checking first so that a failure
// changes nothing
func (e *Editor) revert(a action) error {
	switch a.kind {
	case actionAddGate:
		if err := e.circuit.RemoveGate(a.gate.ID); err != nil {
			return fmt.Errorf("undo add %s: %w", a.gate.Label, err)
		}
		e.layout.Remove(a.gate.ID)
		if e.selected == a.gate.ID {
			e.selected = ""
		}

	case actionConnect:
		e.circuit.Disconnect(a.link.edge.Dest, a.link.edge.Slot)

	case actionDisconnect:
		if _, err := e.circuit.Reconnect(a.link.edge, a.link.fanout); err != nil {
			return fmt.Errorf("undo disconnect: %w", err)
		}

	case actionRemoveGate:
		if e.circuit.Has(a.gate.ID) {
			return fmt.Errorf("undo remove %s: gate already present", a.gate.Label)
		}
		// Every slot the gate's edges need must be free, and every other
		// endpoint must still exist
		for _, l := range a.links {
			if err := e.checkRelink(a.gate, l.edge); err != nil {
				return fmt.Errorf("undo remove %s: %w", a.gate.Label, err)
			}
		}

		if err := e.circuit.Restore(a.gate, a.position); err != nil {
			return fmt.Errorf("undo remove %s: %w", a.gate.Label, err)
		}
		for _, l := range a.links {
			if _, err := e.circuit.Reconnect(l.edge, l.fanout); err != nil {
				// Checked above; roll the restore back rather than keep half of it
				e.circuit.RemoveGate(a.gate.ID)
				return fmt.Errorf("undo remove %s: %w", a.gate.Label, err)
			}
		}
		if a.placed {
			e.layout.placements[a.gate.ID] = a.placement
		}
	}
	return nil
}

// checkRelink reports why an edge of a removed gate could not be put back
func (e *Editor) checkRelink(g circuit.Gate, edge circuit.Edge) error {
	if edge.Dest == g.ID {
		// Input of the removed gate: its slots come back free
		if !e.circuit.Has(edge.Source) {
			return fmt.Errorf("%w: source %s", circuit.ErrUnknownGate, edge.Source)
		}
		return nil
	}
	if !e.circuit.Has(edge.Dest) {
		return fmt.Errorf("%w: destination %s", circuit.ErrUnknownGate, edge.Dest)
	}
	dst, _ := e.circuit.Gate(edge.Dest)
	if edge.Slot < 0 || edge.Slot >= dst.Arity {
		return fmt.Errorf("%w: %s slot %d", circuit.ErrInvalidSlot, dst.Label, edge.Slot)
	}
	if s := dst.Slots[edge.Slot]; s.IsBound() {
		return fmt.Errorf("%w: %s slot %d", circuit.ErrSlotOccupied, dst.Label, edge.Slot)
	}
	return nil
}

// Expressions synthesizes every terminal gate
func (e *Editor) Expressions() ([]algorithm.Expression, error) {
	return e.synth.Expressions()
}

// Synthesize returns the newline-joined "label = expr" text
func (e *Editor) Synthesize() (string, error) {
	return e.synth.Synthesize()
}

// Stats returns statistics of the last synthesis pass
func (e *Editor) Stats() algorithm.Stats {
	return e.synth.Stats
}

package circuit

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Circuit owns a set of gates and the connections between them. It keeps the
// graph well formed across every mutation: a slot has at most one source,
// no gate feeds itself, and no edge references a removed gate.
//
// Circuit is not safe for concurrent use.
type Circuit struct {
	Name string

	gates   map[GateID]*Gate
	order   []GateID // Creation order
	edges   map[EdgeID]Edge
	counter int // Number used for the next output label
	policy  ArityPolicy
	logger  *slog.Logger
}

// Option configures a Circuit
type Option func(*Circuit)

// WithArityPolicy sets how out-of-range arities are handled (default ClampArity).
func WithArityPolicy(p ArityPolicy) Option {
	return func(c *Circuit) {
		c.policy = p
	}
}

// WithLogger sets the structured logger used for mutation traces.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Circuit) {
		c.logger = logger
	}
}

// NewCircuit creates an empty circuit with the given name
func NewCircuit(name string, opts ...Option) *Circuit {
	c := &Circuit{
		Name:    name,
		gates:   make(map[GateID]*Gate),
		order:   make([]GateID, 0),
		edges:   make(map[EdgeID]Edge),
		counter: 1,
		policy:  ClampArity,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Policy returns the arity policy in effect
func (c *Circuit) Policy() ArityPolicy {
	return c.policy
}

// AddGate creates a gate of the given kind and returns its id. The arity is
// resolved by EffectiveArity; under ClampArity this never fails for a valid kind.
func (c *Circuit) AddGate(kind GateKind, arity int) (GateID, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	n, err := EffectiveArity(kind, arity, c.policy)
	if err != nil {
		c.logger.Debug("add gate rejected", "kind", kind.String(), "arity", arity, "err", err)
		return "", err
	}

	label := fmt.Sprintf("F%d", c.counter)
	c.counter++

	g := newGate(NewGateID(), label, kind, n)
	c.gates[g.ID] = g
	c.order = append(c.order, g.ID)

	c.logger.Debug("gate added", "gate", g.ID, "label", label, "kind", kind.String(), "arity", n)
	return g.ID, nil
}

// Restore re-inserts a gate previously returned by Gate, keeping its id,
// label, kind and arity, at the given position in creation order. Its slots
// come back free and its fan-out empty; callers reconnect edges with Connect.
// Restore is the inverse of RemoveGate and exists for undo.
func (c *Circuit) Restore(g Gate, position int) error {
	if _, exists := c.gates[g.ID]; exists {
		return fmt.Errorf("gate %s already present", g.ID)
	}
	if !g.Kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(g.Kind))
	}

	restored := newGate(g.ID, g.Label, g.Kind, g.Arity)
	position = min(max(position, 0), len(c.order))
	c.gates[g.ID] = restored
	c.order = slices.Insert(c.order, position, g.ID)

	c.logger.Debug("gate restored", "gate", g.ID, "label", g.Label, "position", position)
	return nil
}

// Connect binds the output of source to input slot of dest.
// Cycles are accepted here; synthesis reports them.
func (c *Circuit) Connect(source, dest GateID, slot int) (EdgeID, error) {
	return c.connect(source, dest, slot, -1)
}

// Reconnect binds an edge like Connect but places it at position in the
// source's fan-out list instead of appending it. Undo uses it to put a
// removed edge back where it was. Positions past the end append.
func (c *Circuit) Reconnect(e Edge, position int) (EdgeID, error) {
	return c.connect(e.Source, e.Dest, e.Slot, max(position, 0))
}

// CanConnect reports the error Connect would return, without changing anything.
func (c *Circuit) CanConnect(source, dest GateID, slot int) error {
	if source == dest {
		return fmt.Errorf("%w: %s", ErrSelfLoop, source)
	}
	if _, ok := c.gates[source]; !ok {
		return fmt.Errorf("%w: source %s", ErrUnknownGate, source)
	}
	dst, ok := c.gates[dest]
	if !ok {
		return fmt.Errorf("%w: destination %s", ErrUnknownGate, dest)
	}
	if slot < 0 || slot >= dst.Arity {
		return fmt.Errorf("%w: %s has %d inputs, got slot %d", ErrInvalidSlot, dst.Label, dst.Arity, slot)
	}
	if bound := dst.Slots[slot]; bound.IsBound() {
		return fmt.Errorf("%w: %s slot %d is fed by %s", ErrSlotOccupied, dst.Label, slot, c.labelOf(bound.Source))
	}
	return nil
}

// connect appends the fan-out entry when position is negative
func (c *Circuit) connect(source, dest GateID, slot, position int) (EdgeID, error) {
	id := EdgeID{Dest: dest, Slot: slot}

	if err := c.CanConnect(source, dest, slot); err != nil {
		c.logger.Debug("connect rejected", "source", source, "dest", dest, "slot", slot, "err", err)
		return id, err
	}
	src, dst := c.gates[source], c.gates[dest]

	dst.Slots[slot].Source = source
	if position < 0 || position >= len(src.Fanout) {
		src.Fanout = append(src.Fanout, id)
	} else {
		src.Fanout = slices.Insert(src.Fanout, position, id)
	}
	c.edges[id] = Edge{Source: source, Dest: dest, Slot: slot}

	c.logger.Debug("connected", "source", src.Label, "dest", dst.Label, "slot", slot)
	return id, nil
}

// Disconnect removes the edge ending at the given slot. It is a no-op when
// the slot is free, including when the gate or slot does not exist.
func (c *Circuit) Disconnect(dest GateID, slot int) {
	dst, ok := c.gates[dest]
	if !ok || slot < 0 || slot >= dst.Arity {
		return
	}
	source := dst.Slots[slot].Source
	if source == "" {
		return
	}

	id := EdgeID{Dest: dest, Slot: slot}
	dst.Slots[slot].Source = ""
	delete(c.edges, id)

	if src, ok := c.gates[source]; ok {
		if i := slices.Index(src.Fanout, id); i >= 0 {
			src.Fanout = slices.Delete(src.Fanout, i, i+1)
		}
	}

	c.logger.Debug("disconnected", "source", c.labelOf(source), "dest", dst.Label, "slot", slot)
}

// RemoveGate removes a gate and every edge touching it.
func (c *Circuit) RemoveGate(id GateID) error {
	g, ok := c.gates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGate, id)
	}

	for slot := range g.Slots {
		c.Disconnect(id, slot)
	}
	// Disconnect edits g.Fanout, so walk a copy
	for _, out := range slices.Clone(g.Fanout) {
		c.Disconnect(out.Dest, out.Slot)
	}

	delete(c.gates, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}

	c.logger.Debug("gate removed", "gate", id, "label", g.Label)
	return nil
}

// Clear removes all gates and edges and restarts output labels at F1.
func (c *Circuit) Clear() {
	c.gates = make(map[GateID]*Gate)
	c.order = make([]GateID, 0)
	c.edges = make(map[EdgeID]Edge)
	c.counter = 1
	c.logger.Debug("circuit cleared")
}

// Clone returns an independent deep copy of the circuit, label counter and
// policy included. Changes to the copy never reach c.
func (c *Circuit) Clone() *Circuit {
	cp := &Circuit{
		Name:    c.Name,
		gates:   make(map[GateID]*Gate, len(c.gates)),
		order:   slices.Clone(c.order),
		edges:   make(map[EdgeID]Edge, len(c.edges)),
		counter: c.counter,
		policy:  c.policy,
		logger:  c.logger,
	}
	for id, g := range c.gates {
		clone := g.clone()
		cp.gates[id] = &clone
	}
	for id, e := range c.edges {
		cp.edges[id] = e
	}
	return cp
}

// FanoutIndex returns the position of an edge in its source's fan-out list, or -1
func (c *Circuit) FanoutIndex(e Edge) int {
	src, ok := c.gates[e.Source]
	if !ok {
		return -1
	}
	return slices.Index(src.Fanout, e.ID())
}

// Gate returns a copy of the gate with the given id
func (c *Circuit) Gate(id GateID) (Gate, error) {
	g, ok := c.gates[id]
	if !ok {
		return Gate{}, fmt.Errorf("%w: %s", ErrUnknownGate, id)
	}
	return g.clone(), nil
}

// Has reports whether the gate is present
func (c *Circuit) Has(id GateID) bool {
	_, ok := c.gates[id]
	return ok
}

// IndexOf returns the gate's position in creation order, or -1
func (c *Circuit) IndexOf(id GateID) int {
	return slices.Index(c.order, id)
}

// Gates returns copies of all gates in creation order
func (c *Circuit) Gates() []Gate {
	gates := make([]Gate, 0, len(c.order))
	for _, id := range c.order {
		gates = append(gates, c.gates[id].clone())
	}
	return gates
}

// Edges returns all edges ordered by destination creation order, then slot
func (c *Circuit) Edges() []Edge {
	edges := make([]Edge, 0, len(c.edges))
	for _, id := range c.order {
		g := c.gates[id]
		for slot, s := range g.Slots {
			if s.IsBound() {
				edges = append(edges, Edge{Source: s.Source, Dest: id, Slot: slot})
			}
		}
	}
	return edges
}

// Edge returns the edge ending at the given slot, if any
func (c *Circuit) Edge(id EdgeID) (Edge, bool) {
	e, ok := c.edges[id]
	return e, ok
}

// Fanout returns the destination gates fed by a gate, one entry per edge
func (c *Circuit) Fanout(id GateID) ([]GateID, error) {
	g, ok := c.gates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGate, id)
	}
	dests := make([]GateID, 0, len(g.Fanout))
	for _, e := range g.Fanout {
		dests = append(dests, e.Dest)
	}
	return dests, nil
}

// Terminals returns the ids of gates whose output feeds nothing, in creation order
func (c *Circuit) Terminals() []GateID {
	terminals := make([]GateID, 0)
	for _, id := range c.order {
		if c.gates[id].IsTerminal() {
			terminals = append(terminals, id)
		}
	}
	return terminals
}

// Len returns the number of gates
func (c *Circuit) Len() int {
	return len(c.order)
}

// EdgeCount returns the number of edges
func (c *Circuit) EdgeCount() int {
	return len(c.edges)
}

// Validate checks the structural invariants and reports every violation found.
func (c *Circuit) Validate() error {
	var problems []string

	if len(c.order) != len(c.gates) {
		problems = append(problems, fmt.Sprintf("order lists %d gates, index holds %d", len(c.order), len(c.gates)))
	}
	for _, id := range c.order {
		if _, ok := c.gates[id]; !ok {
			problems = append(problems, fmt.Sprintf("order references missing gate %s", id))
		}
	}

	for id, g := range c.gates {
		if len(g.Slots) != g.Arity {
			problems = append(problems, fmt.Sprintf("%s has %d slots for arity %d", g.Label, len(g.Slots), g.Arity))
		}
		for slot, s := range g.Slots {
			if !s.IsBound() {
				continue
			}
			if s.Source == id {
				problems = append(problems, fmt.Sprintf("%s slot %d feeds itself", g.Label, slot))
			}
			if _, ok := c.gates[s.Source]; !ok {
				problems = append(problems, fmt.Sprintf("%s slot %d bound to missing gate %s", g.Label, slot, s.Source))
			}
			if e, ok := c.edges[EdgeID{Dest: id, Slot: slot}]; !ok || e.Source != s.Source {
				problems = append(problems, fmt.Sprintf("%s slot %d binding has no matching edge", g.Label, slot))
			}
		}
		for _, out := range g.Fanout {
			if e, ok := c.edges[out]; !ok || e.Source != id {
				problems = append(problems, fmt.Sprintf("%s fan-out lists stale edge %s", g.Label, out))
			}
		}
	}

	for id, e := range c.edges {
		dst, ok := c.gates[e.Dest]
		if !ok {
			problems = append(problems, fmt.Sprintf("edge %s ends at missing gate", id))
			continue
		}
		src, ok := c.gates[e.Source]
		if !ok {
			problems = append(problems, fmt.Sprintf("edge %s starts at missing gate %s", id, e.Source))
			continue
		}
		if e.Slot < 0 || e.Slot >= dst.Arity || dst.Slots[e.Slot].Source != e.Source {
			problems = append(problems, fmt.Sprintf("edge %s does not match slot binding", id))
		}
		if !slices.Contains(src.Fanout, id) {
			problems = append(problems, fmt.Sprintf("edge %s missing from %s fan-out", id, src.Label))
		}
	}

	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("found %d problems:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// labelOf returns the label of a gate, or its id when it is gone
func (c *Circuit) labelOf(id GateID) string {
	if g, ok := c.gates[id]; ok {
		return g.Label
	}
	return id.String()
}

// String returns a string representation of the circuit
func (c *Circuit) String() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Circuit: %s\n", c.Name))

	builder.WriteString("Gates: ")
	for _, id := range c.order {
		builder.WriteString(fmt.Sprintf("%s ", c.gates[id]))
	}

	builder.WriteString("\nEdges: ")
	for _, e := range c.Edges() {
		builder.WriteString(fmt.Sprintf("%s->%s[%d] ", c.labelOf(e.Source), c.labelOf(e.Dest), e.Slot))
	}

	builder.WriteString("\nTerminals: ")
	for _, id := range c.Terminals() {
		builder.WriteString(fmt.Sprintf("%s ", c.gates[id].Label))
	}

	return builder.String()
}

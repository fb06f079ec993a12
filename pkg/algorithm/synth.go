package algorithm

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

// Stats contains statistics about the last synthesis pass
type Stats struct {
	GatesVisited int           // Number of gate expressions built
	Terminals    int           // Number of terminal gates reported
	MaxDepth     int           // Deepest recursion reached
	TotalTime    time.Duration // Duration of the pass
}

// Expression is the synthesized output of one terminal gate
type Expression struct {
	Gate  circuit.GateID `json:"gate"`
	Label string         `json:"label"`
	Expr  string         `json:"expr"`
}

// String formats the expression as "label = expr"
func (e Expression) String() string {
	return e.Label + " = " + e.Expr
}

// mark is the three-color DFS state of a gate
type mark int

const (
	unvisited mark = iota
	inProgress
	done
)

// Synthesizer compiles a circuit into one boolean expression per terminal gate.
// It only reads the circuit.
type Synthesizer struct {
	Circuit *circuit.Circuit
	Logger  *slog.Logger
	Stats   Stats
}

// NewSynthesizer creates a synthesizer over the given circuit. A nil logger
// discards output.
func NewSynthesizer(c *circuit.Circuit, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synthesizer{
		Circuit: c,
		Logger:  logger,
	}
}

// pass holds the per-call memo and marks
type pass struct {
	gates map[circuit.GateID]circuit.Gate
	marks map[circuit.GateID]mark
	memo  map[circuit.GateID]string
	stack []circuit.GateID
	stats *Stats
}

// Expressions builds the expression of every terminal gate, in creation order.
// Every gate is visited, so a cycle anywhere in the circuit fails the pass with
// a *circuit.CycleError even if no terminal depends on it.
func (s *Synthesizer) Expressions() ([]Expression, error) {
	startTime := time.Now()
	s.Stats = Stats{}

	gates := s.Circuit.Gates()
	p := &pass{
		gates: make(map[circuit.GateID]circuit.Gate, len(gates)),
		marks: make(map[circuit.GateID]mark, len(gates)),
		memo:  make(map[circuit.GateID]string, len(gates)),
		stats: &s.Stats,
	}
	for _, g := range gates {
		p.gates[g.ID] = g
	}

	for _, g := range gates {
		if _, err := p.visit(g.ID); err != nil {
			s.Logger.Warn("synthesis failed", "circuit", s.Circuit.Name, "err", err)
			return nil, err
		}
	}

	exprs := make([]Expression, 0)
	for _, g := range gates {
		if !g.IsTerminal() {
			continue
		}
		exprs = append(exprs, Expression{Gate: g.ID, Label: g.Label, Expr: p.memo[g.ID]})
	}

	s.Stats.Terminals = len(exprs)
	s.Stats.TotalTime = time.Since(startTime)
	s.Logger.Debug("synthesis complete",
		"circuit", s.Circuit.Name,
		"gates", s.Stats.GatesVisited,
		"terminals", s.Stats.Terminals,
		"max_depth", s.Stats.MaxDepth,
		"duration", s.Stats.TotalTime,
	)
	return exprs, nil
}

// Synthesize returns one "label = expr" line per terminal gate joined by newlines.
func (s *Synthesizer) Synthesize() (string, error) {
	exprs, err := s.Expressions()
	if err != nil {
		return "", err
	}
	lines := make([]string, len(exprs))
	for i, e := range exprs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n"), nil
}

// visit returns the memoized expression of a gate, building it on first use
func (p *pass) visit(id circuit.GateID) (string, error) {
	switch p.marks[id] {
	case done:
		return p.memo[id], nil
	case inProgress:
		return "", p.cycleFrom(id)
	}

	g, ok := p.gates[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", circuit.ErrUnknownGate, id)
	}

	p.marks[id] = inProgress
	p.stack = append(p.stack, id)
	p.stats.MaxDepth = max(p.stats.MaxDepth, len(p.stack))

	operands := make([]string, len(g.Slots))
	for i, slot := range g.Slots {
		if !slot.IsBound() {
			operands[i] = slot.Name
			continue
		}
		sub, err := p.visit(slot.Source)
		if err != nil {
			return "", err
		}
		operands[i] = sub
	}

	expr := g.Kind.Combine(operands)
	p.memo[id] = expr
	p.marks[id] = done
	p.stack = p.stack[:len(p.stack)-1]
	p.stats.GatesVisited++
	return expr, nil
}

// cycleFrom builds the error for a revisit of an in-progress gate. The stack
// holds the chain of gates whose inputs are being resolved, so the cycle is
// the suffix starting at id.
func (p *pass) cycleFrom(id circuit.GateID) error {
	start := slices.Index(p.stack, id)
	path := make([]string, 0, len(p.stack)-start+1)
	for _, g := range p.stack[start:] {
		path = append(path, p.gates[g].Label)
	}
	path = append(path, p.gates[id].Label)
	return &circuit.CycleError{Path: path}
}

package circuit

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GateKind represents the boolean operator of a gate
type GateKind int

const (
	AND GateKind = iota
	OR
	NOT
	NAND
	NOR
)

// String returns a string representation of the gate kind
func (k GateKind) String() string {
	switch k {
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case NAND:
		return "NAND"
	case NOR:
		return "NOR"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether k is one of the supported kinds
func (k GateKind) Valid() bool {
	return k >= AND && k <= NOR
}

// ParseGateKind converts a kind name to a GateKind. Matching is case-insensitive
// and INV is accepted as an alias for NOT.
func ParseGateKind(s string) (GateKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AND":
		return AND, nil
	case "OR":
		return OR, nil
	case "NOT", "INV":
		return NOT, nil
	case "NAND":
		return NAND, nil
	case "NOR":
		return NOR, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ArityRange returns the minimum and maximum number of inputs for the kind
func (k GateKind) ArityRange() (int, int) {
	switch k {
	case NOT:
		return 1, 1
	default:
		return 2, 4
	}
}

// operator returns the infix operator joining operands and whether the
// parenthesized group is negated.
func (k GateKind) operator() (string, bool) {
	switch k {
	case AND:
		return " & ", false
	case OR:
		return " | ", false
	case NAND:
		return " & ", true
	case NOR:
		return " | ", true
	default:
		return "", false
	}
}

// Combine renders the expression of a gate of this kind over its operands,
// one per slot in slot order.
func (k GateKind) Combine(operands []string) string {
	if k == NOT {
		return "(~" + operands[0] + ")"
	}

	op, negated := k.operator()
	expr := "(" + strings.Join(operands, op) + ")"
	if negated {
		return "~" + expr
	}
	return expr
}

// ArityPolicy decides what AddGate does with an arity outside the kind's range.
type ArityPolicy int

const (
	// ClampArity silently moves the arity into range.
	ClampArity ArityPolicy = iota
	// RejectArity fails with ErrInvalidArity.
	RejectArity
)

// String returns a string representation of the policy
func (p ArityPolicy) String() string {
	switch p {
	case ClampArity:
		return "clamp"
	case RejectArity:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseArityPolicy converts "clamp" or "reject" to an ArityPolicy
func ParseArityPolicy(s string) (ArityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return ClampArity, nil
	case "reject":
		return RejectArity, nil
	default:
		return ClampArity, fmt.Errorf("unknown arity policy %q", s)
	}
}

// EffectiveArity resolves the requested arity for a kind under the policy.
// A hint of 0 means "unspecified" and selects the smallest legal arity.
func EffectiveArity(kind GateKind, hint int, policy ArityPolicy) (int, error) {
	lo, hi := kind.ArityRange()
	if hint == 0 {
		return lo, nil
	}
	if hint >= lo && hint <= hi {
		return hint, nil
	}
	if policy == RejectArity {
		return 0, fmt.Errorf("%w: %s takes %d..%d inputs, got %d", ErrInvalidArity, kind, lo, hi, hint)
	}
	return min(max(hint, lo), hi), nil
}

// GateID is an opaque gate handle. Ids are never reused.
type GateID string

// NewGateID returns a fresh time-ordered id.
func NewGateID() GateID {
	return GateID(uuid.Must(uuid.NewV7()).String())
}

// ParseGateID validates the textual form of a gate id.
func ParseGateID(s string) (GateID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownGate, s)
	}
	return GateID(u.String()), nil
}

// String returns the id text
func (id GateID) String() string {
	return string(id)
}

// Slot is one input position of a gate
type Slot struct {
	Name   string // Free-variable name used while the slot is unbound
	Source GateID // Gate feeding this slot, empty when free
}

// IsBound returns true if an edge ends at this slot
func (s Slot) IsBound() bool {
	return s.Source != ""
}

// Gate represents a logic gate in the circuit
type Gate struct {
	ID     GateID   // Unique identifier
	Label  string   // Output label, e.g. F1
	Kind   GateKind // Boolean operator
	Arity  int      // Number of input slots
	Slots  []Slot   // Input slots in index order
	Fanout []EdgeID // Edges fed by this gate's output, in connection order
}

// newGate creates a gate with all slots free
func newGate(id GateID, label string, kind GateKind, arity int) *Gate {
	g := &Gate{
		ID:     id,
		Label:  label,
		Kind:   kind,
		Arity:  arity,
		Slots:  make([]Slot, arity),
		Fanout: make([]EdgeID, 0),
	}
	for i := range g.Slots {
		g.Slots[i].Name = SlotName(label, i)
	}
	return g
}

// SlotName returns the free-variable name of slot i on a gate with the given
// output label: a letter for the slot followed by the label's numeric suffix,
// or 1 when the label has none.
func SlotName(label string, i int) string {
	end := len(label)
	start := end
	for start > 0 && label[start-1] >= '0' && label[start-1] <= '9' {
		start--
	}
	suffix := label[start:end]
	if suffix == "" {
		suffix = "1"
	}
	return string(rune('a'+i)) + suffix
}

// String returns a string representation of the gate
func (g *Gate) String() string {
	return fmt.Sprintf("%s(%s)", g.Label, g.Kind.String())
}

// IsTerminal returns true if the gate's output feeds nothing
func (g *Gate) IsTerminal() bool {
	return len(g.Fanout) == 0
}

// FreeSlots returns the indexes of unbound slots
func (g *Gate) FreeSlots() []int {
	free := make([]int, 0, len(g.Slots))
	for i, s := range g.Slots {
		if !s.IsBound() {
			free = append(free, i)
		}
	}
	return free
}

// clone returns a deep copy safe to hand out to callers
func (g *Gate) clone() Gate {
	c := *g
	c.Slots = append([]Slot(nil), g.Slots...)
	c.Fanout = append([]EdgeID(nil), g.Fanout...)
	return c
}

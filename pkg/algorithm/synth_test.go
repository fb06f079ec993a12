package algorithm_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/gate-synth/pkg/algorithm"
	"github.com/fyerfyer/gate-synth/pkg/circuit"
)

func add(t *testing.T, c *circuit.Circuit, kind circuit.GateKind, arity int) circuit.GateID {
	t.Helper()
	id, err := c.AddGate(kind, arity)
	require.NoError(t, err)
	return id
}

func connect(t *testing.T, c *circuit.Circuit, src, dst circuit.GateID, slot int) {
	t.Helper()
	_, err := c.Connect(src, dst, slot)
	require.NoError(t, err)
}

func synthesize(t *testing.T, c *circuit.Circuit) string {
	t.Helper()
	out, err := algorithm.NewSynthesizer(c, nil).Synthesize()
	require.NoError(t, err)
	return out
}

// TestSynthesizeSingleGate covers a lone gate with only free inputs
func TestSynthesizeSingleGate(t *testing.T) {
	c := circuit.NewCircuit("single")
	add(t, c, circuit.AND, 2)

	assert.Equal(t, "F1 = (a1 & b1)", synthesize(t, c))
}

// TestSynthesizeChain covers a gate feeding a NOT
func TestSynthesizeChain(t *testing.T) {
	c := circuit.NewCircuit("chain")
	g1 := add(t, c, circuit.AND, 2)
	g2 := add(t, c, circuit.NOT, 0)
	connect(t, c, g1, g2, 0)

	assert.Equal(t, "F2 = (~(a1 & b1))", synthesize(t, c))
}

// TestSynthesizeOnlyTerminals checks that gates feeding others produce no line
func TestSynthesizeOnlyTerminals(t *testing.T) {
	c := circuit.NewCircuit("terminals")
	g1 := add(t, c, circuit.OR, 2)
	g2 := add(t, c, circuit.OR, 2)
	connect(t, c, g1, g2, 0)

	assert.Equal(t, "F2 = ((a1 | b1) | b2)", synthesize(t, c))
}

// TestSynthesizeMixedSlots checks bound and free operands stay in slot order
func TestSynthesizeMixedSlots(t *testing.T) {
	c := circuit.NewCircuit("mixed")
	g1 := add(t, c, circuit.AND, 4)
	g2 := add(t, c, circuit.OR, 2)
	g3 := add(t, c, circuit.NOT, 1)
	connect(t, c, g2, g1, 0)
	connect(t, c, g3, g1, 2)

	assert.Equal(t, "F1 = ((a2 | b2) & b1 & (~a3) & d1)", synthesize(t, c))
}

// TestSynthesizeNegatedKinds checks NAND and NOR wrap the whole group
func TestSynthesizeNegatedKinds(t *testing.T) {
	c := circuit.NewCircuit("negated")
	add(t, c, circuit.NAND, 3)
	add(t, c, circuit.NOR, 2)

	assert.Equal(t, "F1 = ~(a1 & b1 & c1)\nF2 = ~(a2 | b2)", synthesize(t, c))
}

// TestSynthesizeSharedFanout checks that a gate feeding two slots is built once
func TestSynthesizeSharedFanout(t *testing.T) {
	c := circuit.NewCircuit("shared")
	g1 := add(t, c, circuit.AND, 2)
	g2 := add(t, c, circuit.OR, 2)
	connect(t, c, g1, g2, 0)
	connect(t, c, g1, g2, 1)

	s := algorithm.NewSynthesizer(c, nil)
	out, err := s.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, "F2 = ((a1 & b1) | (a1 & b1))", out)
	assert.Equal(t, 2, s.Stats.GatesVisited)
	assert.Equal(t, 1, s.Stats.Terminals)
}

// TestSynthesizeEmpty checks that an empty circuit yields no lines
func TestSynthesizeEmpty(t *testing.T) {
	c := circuit.NewCircuit("empty")

	exprs, err := algorithm.NewSynthesizer(c, nil).Expressions()
	require.NoError(t, err)
	assert.Empty(t, exprs)
	assert.Equal(t, "", synthesize(t, c))
}

// TestSynthesizeCycle checks that a cycle fails with a CycleError naming its gates
func TestSynthesizeCycle(t *testing.T) {
	c := circuit.NewCircuit("cycle")
	g1 := add(t, c, circuit.AND, 2)
	g2 := add(t, c, circuit.OR, 2)
	connect(t, c, g1, g2, 0)
	connect(t, c, g2, g1, 0)

	_, err := algorithm.NewSynthesizer(c, nil).Synthesize()
	require.Error(t, err)
	assert.ErrorIs(t, err, circuit.ErrCyclicGraph)

	var ce *circuit.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"F1", "F2", "F1"}, ce.Path)

	// Breaking the cycle makes the circuit synthesizable again
	c.Disconnect(g1, 0)
	assert.Equal(t, "F2 = ((a1 & b1) | b2)", synthesize(t, c))
}

// TestSynthesizeUnreachableCycle checks that a cycle with no terminal downstream still fails
func TestSynthesizeUnreachableCycle(t *testing.T) {
	c := circuit.NewCircuit("island")
	add(t, c, circuit.AND, 2)
	g2 := add(t, c, circuit.NOT, 1)
	g3 := add(t, c, circuit.NOT, 1)
	connect(t, c, g2, g3, 0)
	connect(t, c, g3, g2, 0)

	_, err := algorithm.NewSynthesizer(c, nil).Expressions()
	assert.True(t, circuit.IsCycleError(err))
	assert.EqualError(t, err, "cyclic graph: F2 <- F3 <- F2")
}

// TestSynthesizeDepth checks recursion statistics on a chain built back to front
func TestSynthesizeDepth(t *testing.T) {
	c := circuit.NewCircuit("depth")
	g1 := add(t, c, circuit.NOT, 1)
	g2 := add(t, c, circuit.NOT, 1)
	g3 := add(t, c, circuit.NOT, 1)
	connect(t, c, g2, g1, 0)
	connect(t, c, g3, g2, 0)

	s := algorithm.NewSynthesizer(c, nil)
	exprs, err := s.Expressions()
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, algorithm.Expression{Gate: g1, Label: "F1", Expr: "(~(~(~a3)))"}, exprs[0])
	assert.Equal(t, 3, s.Stats.MaxDepth)
	assert.Equal(t, 3, s.Stats.GatesVisited)
}

// TestSynthesizeDeterministic checks repeated passes agree and leave the circuit untouched
func TestSynthesizeDeterministic(t *testing.T) {
	c := buildNandNetwork(t)
	before := c.String()

	first := synthesize(t, c)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, synthesize(t, c))
	}
	assert.Equal(t, before, c.String())
	assert.NoError(t, c.Validate())
}

// TestSynthesizeGolden compares a larger network against its recorded expressions
func TestSynthesizeGolden(t *testing.T) {
	c := buildNandNetwork(t)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "nand_network", []byte(synthesize(t, c)+"\n"))
}

// buildNandNetwork builds four NAND gates wired like a XOR plus an unrelated NOR
func buildNandNetwork(t *testing.T) *circuit.Circuit {
	t.Helper()
	c := circuit.NewCircuit("nand")
	g1 := add(t, c, circuit.NAND, 2)
	g2 := add(t, c, circuit.NAND, 2)
	g3 := add(t, c, circuit.NAND, 2)
	g4 := add(t, c, circuit.NAND, 2)
	add(t, c, circuit.NOR, 3)
	connect(t, c, g1, g2, 0)
	connect(t, c, g1, g3, 1)
	connect(t, c, g2, g4, 0)
	connect(t, c, g3, g4, 1)
	return c
}

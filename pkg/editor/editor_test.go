package editor_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/gate-synth/pkg/circuit"
	"github.com/fyerfyer/gate-synth/pkg/editor"
	"github.com/fyerfyer/gate-synth/pkg/utils"
)

func addGate(t *testing.T, ed *editor.Editor, kind circuit.GateKind, arity int) circuit.GateID {
	t.Helper()
	id, err := ed.AddGate(kind, arity)
	require.NoError(t, err)
	return id
}

func TestAddGatePlacement(t *testing.T) {
	ed := editor.New("placement")
	g1 := addGate(t, ed, circuit.AND, 2)
	g2 := addGate(t, ed, circuit.OR, 2)
	g3, err := ed.AddGateAt(circuit.NOT, 1, circuit.Point{X: 500, Y: 300})
	require.NoError(t, err)

	p, _ := ed.Layout().Placement(g1)
	assert.Equal(t, circuit.Point{X: 100, Y: 100}, p.Origin)
	p, _ = ed.Layout().Placement(g2)
	assert.Equal(t, circuit.Point{X: 180, Y: 100}, p.Origin)
	p, _ = ed.Layout().Placement(g3)
	assert.Equal(t, circuit.Point{X: 500, Y: 300}, p.Origin)

	require.NoError(t, ed.MoveGate(g1, circuit.Point{X: 0, Y: 0}))
	p, _ = ed.Layout().Placement(g1)
	assert.Equal(t, circuit.Point{X: 0, Y: 0}, p.Origin)
	assert.ErrorIs(t, ed.MoveGate(circuit.NewGateID(), circuit.Point{}), circuit.ErrUnknownGate)

	assert.Equal(t, 3, ed.HistoryLen(), "moves are not recorded")
}

func TestEditorOptions(t *testing.T) {
	ed := editor.New("opts",
		editor.WithSnapDistance(40),
		editor.WithCircuitOptions(circuit.WithArityPolicy(circuit.RejectArity)),
	)
	assert.Equal(t, 40.0, ed.SnapDistance())
	assert.Equal(t, circuit.RejectArity, ed.Policy())
	assert.Equal(t, "opts", ed.Name())

	_, err := ed.AddGate(circuit.AND, 7)
	assert.ErrorIs(t, err, circuit.ErrInvalidArity)
	assert.Equal(t, 0, ed.HistoryLen())
}

func TestConnectAt(t *testing.T) {
	ed := editor.New("snap")
	g1 := addGate(t, ed, circuit.AND, 2) // box at (100,100)
	g2, err := ed.AddGateAt(circuit.OR, 2, circuit.Point{X: 300, Y: 100})
	require.NoError(t, err)

	t.Run("nothing selected", func(t *testing.T) {
		_, ok, err := ed.ConnectAt(circuit.Point{X: 290, Y: 133})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("miss clears selection", func(t *testing.T) {
		require.NoError(t, ed.SelectOutput(g1))
		_, ok, err := ed.ConnectAt(circuit.Point{X: 0, Y: 0})
		require.NoError(t, err)
		assert.False(t, ok)
		_, selected := ed.Selected()
		assert.False(t, selected)
		assert.Equal(t, 0, ed.EdgeCount())
	})

	t.Run("snaps to nearest slot", func(t *testing.T) {
		require.NoError(t, ed.SelectOutput(g1))
		src, selected := ed.Selected()
		require.True(t, selected)
		assert.Equal(t, g1, src)

		// g2 slot 1 sits at (290, 166.67)
		id, ok, err := ed.ConnectAt(circuit.Point{X: 292, Y: 160})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, circuit.EdgeID{Dest: g2, Slot: 1}, id)

		text, err := ed.Synthesize()
		require.NoError(t, err)
		assert.Equal(t, "F2 = (a2 | (a1 & b1))", text)
	})

	t.Run("own slots are ignored", func(t *testing.T) {
		require.NoError(t, ed.SelectOutput(g1))
		_, ok, err := ed.ConnectAt(circuit.Point{X: 90, Y: 166})
		require.NoError(t, err)
		assert.False(t, ok, "g1 cannot snap to its own slot")
	})

	t.Run("cancel", func(t *testing.T) {
		require.NoError(t, ed.SelectOutput(g1))
		ed.CancelConnection()
		_, selected := ed.Selected()
		assert.False(t, selected)
	})

	assert.ErrorIs(t, ed.SelectOutput(circuit.NewGateID()), circuit.ErrUnknownGate)
}

func TestUndo(t *testing.T) {
	ed := editor.New("undo")

	undone, err := ed.Undo()
	require.NoError(t, err)
	assert.False(t, undone)

	g1 := addGate(t, ed, circuit.AND, 2)
	g2 := addGate(t, ed, circuit.NOT, 1)
	g3 := addGate(t, ed, circuit.OR, 2)
	_, err = ed.Connect(g1, g2, 0)
	require.NoError(t, err)
	_, err = ed.Connect(g2, g3, 1)
	require.NoError(t, err)

	before, err := ed.Synthesize()
	require.NoError(t, err)
	assert.Equal(t, "F3 = (a3 | (~(a1 & b1)))", before)

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, ed.RemoveGate(g2))
		assert.Equal(t, 0, ed.EdgeCount())

		undone, err := ed.Undo()
		require.NoError(t, err)
		assert.True(t, undone)

		assert.True(t, ed.Has(g2))
		assert.Equal(t, 1, ed.IndexOf(g2))
		_, placed := ed.Layout().Placement(g2)
		assert.True(t, placed)
		after, err := ed.Synthesize()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("disconnect", func(t *testing.T) {
		assert.True(t, ed.Disconnect(g3, 1))
		assert.False(t, ed.Disconnect(g3, 1), "slot is already free")
		n := ed.HistoryLen()

		_, err := ed.Undo()
		require.NoError(t, err)
		assert.Equal(t, n-1, ed.HistoryLen())
		e, ok := ed.Edge(circuit.EdgeID{Dest: g3, Slot: 1})
		require.True(t, ok)
		assert.Equal(t, g2, e.Source)
	})

	t.Run("connect and add", func(t *testing.T) {
		_, err := ed.Undo() // g2 -> g3
		require.NoError(t, err)
		_, err = ed.Undo() // g1 -> g2
		require.NoError(t, err)
		assert.Equal(t, 0, ed.EdgeCount())

		_, err = ed.Undo() // add g3
		require.NoError(t, err)
		assert.False(t, ed.Has(g3))
		_, placed := ed.Layout().Placement(g3)
		assert.False(t, placed)

		// Labels keep counting after an undone add
		g4 := addGate(t, ed, circuit.NOR, 2)
		g, _ := ed.Gate(g4)
		assert.Equal(t, "F4", g.Label)
	})

	assert.NoError(t, ed.Validate())
}

func TestClearDropsHistory(t *testing.T) {
	ed := editor.New("clear")
	g1 := addGate(t, ed, circuit.AND, 2)
	require.NoError(t, ed.SelectOutput(g1))

	ed.Clear()
	assert.Equal(t, 0, ed.HistoryLen())
	assert.Equal(t, 0, ed.Len())
	_, selected := ed.Selected()
	assert.False(t, selected)

	undone, err := ed.Undo()
	require.NoError(t, err)
	assert.False(t, undone)
}

func TestConnectWarnsOnCycle(t *testing.T) {
	var buf bytes.Buffer
	ed := editor.New("cycle", editor.WithLogger(utils.NewLogger(slog.LevelWarn, &buf)))
	g1 := addGate(t, ed, circuit.AND, 2)
	g2 := addGate(t, ed, circuit.OR, 2)

	_, err := ed.Connect(g1, g2, 0)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	_, err = ed.Connect(g2, g1, 0)
	require.NoError(t, err, "cycles are accepted while editing")
	assert.Contains(t, buf.String(), "connection closes a cycle")

	_, err = ed.Expressions()
	assert.ErrorIs(t, err, circuit.ErrCyclicGraph)
}

func TestSnapshotIsIndependent(t *testing.T) {
	ed := editor.New("snapshot")
	g1 := addGate(t, ed, circuit.AND, 2)
	g2 := addGate(t, ed, circuit.OR, 2)

	snap := ed.Snapshot()
	_, err := snap.Connect(g1, g2, 0)
	require.NoError(t, err)
	require.NoError(t, snap.RemoveGate(g1))

	assert.True(t, ed.Has(g1))
	assert.Equal(t, 0, ed.EdgeCount())
	assert.Equal(t, 2, ed.HistoryLen())
	assert.NoError(t, ed.Validate())

	// The copy keeps counting labels from where the session was
	id, err := snap.AddGate(circuit.NOT, 1)
	require.NoError(t, err)
	g, _ := snap.Gate(id)
	assert.Equal(t, "F3", g.Label)
}

func TestUndoKeepsFanoutOrder(t *testing.T) {
	ed := editor.New("fanout")
	src := addGate(t, ed, circuit.AND, 2)
	dests := []circuit.GateID{
		addGate(t, ed, circuit.NOT, 1),
		addGate(t, ed, circuit.NOT, 1),
		addGate(t, ed, circuit.NOT, 1),
	}
	for _, d := range dests {
		_, err := ed.Connect(src, d, 0)
		require.NoError(t, err)
	}

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, ed.RemoveGate(dests[1]))
		_, err := ed.Undo()
		require.NoError(t, err)

		fanout, err := ed.Fanout(src)
		require.NoError(t, err)
		assert.Equal(t, dests, fanout)
	})

	t.Run("disconnect", func(t *testing.T) {
		require.True(t, ed.Disconnect(dests[0], 0))
		_, err := ed.Undo()
		require.NoError(t, err)

		fanout, err := ed.Fanout(src)
		require.NoError(t, err)
		assert.Equal(t, dests, fanout)
	})

	t.Run("remove source", func(t *testing.T) {
		require.NoError(t, ed.RemoveGate(src))
		_, err := ed.Undo()
		require.NoError(t, err)

		fanout, err := ed.Fanout(src)
		require.NoError(t, err)
		assert.Equal(t, dests, fanout)
	})

	assert.NoError(t, ed.Validate())
}

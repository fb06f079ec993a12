package circuit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGate is returned when an operation references a gate id that is not in the circuit.
var ErrUnknownGate = errors.New("unknown gate")

// ErrSelfLoop is returned when a gate's output would feed one of its own inputs.
var ErrSelfLoop = errors.New("self loop")

// ErrSlotOccupied is returned when connecting into an input slot that is already bound.
var ErrSlotOccupied = errors.New("slot occupied")

// ErrInvalidSlot is returned when a slot index is outside the gate's arity.
var ErrInvalidSlot = errors.New("invalid slot")

// ErrInvalidArity is returned by AddGate under RejectArity when the requested
// arity is outside the range allowed for the gate kind.
var ErrInvalidArity = errors.New("invalid arity")

// ErrCyclicGraph is returned by synthesis when the connections form a cycle.
var ErrCyclicGraph = errors.New("cyclic graph")

// CycleError reports a cycle found while walking input bindings.
// Path lists the labels of the gates on the cycle, starting and ending with
// the gate that was revisited.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicGraph, strings.Join(e.Path, " <- "))
}

// Is lets errors.Is match ErrCyclicGraph.
func (e *CycleError) Is(target error) bool {
	return target == ErrCyclicGraph
}

// IsCycleError returns true if err is, or wraps, a *CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// ErrUnknownKind is returned when a gate kind is outside the supported set.
var ErrUnknownKind = errors.New("unknown gate kind")

package graph

import "errors"

var (
	// ErrNotSettable is returned when a set or clear targets a node without the settable flag.
	ErrNotSettable = errors.New("graph: node is not settable")

	// ErrNotOverlayable is returned when a what-if targets a node without the overlayable
	// flag, or when no scenario is available to hold it.
	ErrNotOverlayable = errors.New("graph: node is not overlayable")

	// ErrNothingToClear is returned when clearing a node that has no fixed value in the store.
	ErrNothingToClear = errors.New("graph: no fixed value to clear")

	// ErrInvalidRead is returned when reading a node that is neither valid nor fixed
	// while recomputation is disabled.
	ErrInvalidRead = errors.New("graph: node must be computed before it is read")

	// ErrDuplicateScenario is returned when entering a scenario that is already active.
	ErrDuplicateScenario = errors.New("graph: scenario is already active")

	// ErrStackDiscipline is returned when exiting a store that is not on top of the stack.
	ErrStackDiscipline = errors.New("graph: cannot exit non-top store")

	// ErrCycle is returned when a node reads itself while being evaluated.
	ErrCycle = errors.New("graph: dependency cycle")

	// ErrUnhashable is returned when a node owner or argument cannot be used as a key.
	ErrUnhashable = errors.New("graph: node key is not comparable")

	// ErrInactiveStore is returned when asked to compute into a scenario that is not active.
	ErrInactiveStore = errors.New("graph: store is not on the active stack")
)

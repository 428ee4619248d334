// Package fieldtree provides a tree of attribute-bearing fields with
// observer-based view synchronization, atomic undoable edits, lock
// propagation and lazy materialization of child views.
package fieldtree

import "errors"

// Tree structure errors
var (
	// ErrNodeNotFound indicates that a node ID does not exist in the document.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotChild indicates that a node is not a child of the given parent.
	ErrNotChild = errors.New("node is not a child of this parent")

	// ErrHasParent indicates that a node already has a parent and must be
	// removed before it can be added elsewhere.
	ErrHasParent = errors.New("node already has a parent")

	// ErrCycle indicates that adding a node would make it its own ancestor.
	ErrCycle = errors.New("node cannot be its own ancestor")

	// ErrInvalidIndex indicates that a child index is out of bounds.
	ErrInvalidIndex = errors.New("child index out of bounds")

	// ErrRootMove indicates an attempt to move the document root under another node.
	ErrRootMove = errors.New("the document root cannot be moved")
)

// Wiring errors, returned at construction time.
var (
	// ErrNilNode indicates that a binding was constructed without a node.
	ErrNilNode = errors.New("binding requires a node")

	// ErrNilWidget indicates that a binding was constructed without a widget.
	ErrNilWidget = errors.New("binding requires a widget")

	// ErrForeignNode indicates that a node belongs to a different document.
	ErrForeignNode = errors.New("node belongs to a different document")

	// ErrNoFactory indicates that a display was created without a view factory.
	ErrNoFactory = errors.New("display requires a view factory")

	// ErrNoAttributeStore indicates that a node has no attribute storage.
	ErrNoAttributeStore = errors.New("node does not support attribute storage")

	// ErrNoContainer indicates that children cannot be shown because the
	// binding has no child container.
	ErrNoContainer = errors.New("binding has no child container")

	// ErrNoDisplay indicates that an auxiliary binding was asked to
	// materialize children.
	ErrNoDisplay = errors.New("binding is not part of a display")

	// ErrDisplayClosed indicates that a closed display was used.
	ErrDisplayClosed = errors.New("display is closed")

	// ErrUnknownInputType indicates that no widget variant handles a node's
	// input type and no fallback is configured.
	ErrUnknownInputType = errors.New("no widget variant for input type")
)

// Edit errors
var (
	// ErrLocked indicates that the lock policy forbids editing an attribute.
	ErrLocked = errors.New("attribute is locked")

	// ErrExclusiveConflict indicates that one edit set two members of the
	// same exclusive group to present values.
	ErrExclusiveConflict = errors.New("edit sets more than one member of an exclusive group")
)

// History errors
var (
	// ErrNothingToUndo indicates that the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates that the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Batch errors
var (
	// ErrBatchPending indicates that an operation is not allowed during a batch.
	ErrBatchPending = errors.New("operation not allowed during batch")

	// ErrBatchPoisoned indicates that a batch was poisoned by an inner rollback.
	ErrBatchPoisoned = errors.New("batch was poisoned by inner rollback")

	// ErrNoBatch indicates that there is no active batch.
	ErrNoBatch = errors.New("no active batch")
)

// Configuration errors
var (
	// ErrGroupOverlap indicates that an attribute belongs to more than one
	// exclusive group.
	ErrGroupOverlap = errors.New("attribute belongs to more than one exclusive group")

	// ErrGroupTooSmall indicates an exclusive group with fewer than two members.
	ErrGroupTooSmall = errors.New("exclusive group needs at least two attributes")

	// ErrNegativeLimit indicates a negative undo limit.
	ErrNegativeLimit = errors.New("undo limit cannot be negative")
)

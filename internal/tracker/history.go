package tracker

import "errors"

// ErrNothingToUndo is returned when the action history is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

type action struct {
	label string
	undo  func() error
}

// History is a bounded LIFO of undoable actions. When the bound is reached
// the oldest entry is dropped; those actions can no longer be undone in one
// step but remain correctable through explicit event deletion.
//
// History is not safe for concurrent use; the tracker serializes access
// under its own lock.
type History struct {
	actions []action
	depth   int
}

func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = 1
	}
	return &History{depth: depth}
}

// Push records an action and the closure that inverts it.
func (h *History) Push(label string, undo func() error) {
	if len(h.actions) == h.depth {
		copy(h.actions, h.actions[1:])
		h.actions = h.actions[:h.depth-1]
	}
	h.actions = append(h.actions, action{label: label, undo: undo})
}

// Undo pops the most recent action and runs its inverse. A failed inverse
// leaves the entry popped; the caller decides whether to retry via explicit
// correction.
func (h *History) Undo() error {
	if len(h.actions) == 0 {
		return ErrNothingToUndo
	}
	a := h.actions[len(h.actions)-1]
	h.actions = h.actions[:len(h.actions)-1]
	return a.undo()
}

// Len reports how many actions are currently undoable.
func (h *History) Len() int { return len(h.actions) }

// Peek returns the label of the action Undo would invert, or "".
func (h *History) Peek() string {
	if len(h.actions) == 0 {
		return ""
	}
	return h.actions[len(h.actions)-1].label
}

// Clear drops all recorded actions (session boundaries).
func (h *History) Clear() { h.actions = h.actions[:0] }

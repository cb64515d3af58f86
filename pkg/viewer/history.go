package viewer

import "github.com/jpfielding/skyview.go/pkg/geom"

// DefaultHistoryDepth bounds each layer's region history.
const DefaultHistoryDepth = 32

// RegionHistory is a bounded undo/redo stack of viewed regions. The oldest
// entry is dropped once the stack is full; pushing clears the redo side.
type RegionHistory struct {
	depth int
	undo  []geom.Region
	redo  []geom.Region
}

// NewRegionHistory builds a history holding at most depth regions.
func NewRegionHistory(depth int) *RegionHistory {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &RegionHistory{depth: depth}
}

// Push records r as the current region.
func (h *RegionHistory) Push(r geom.Region) {
	if n := len(h.undo); n > 0 && h.undo[n-1] == r {
		return
	}
	h.undo = append(h.undo, r)
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = h.redo[:0]
}

// Current is the most recently pushed or restored region.
func (h *RegionHistory) Current() (geom.Region, bool) {
	if len(h.undo) == 0 {
		return geom.Region{}, false
	}
	return h.undo[len(h.undo)-1], true
}

// PeekUndo is the region Undo would make current, without moving.
func (h *RegionHistory) PeekUndo() (geom.Region, bool) {
	if len(h.undo) < 2 {
		return geom.Region{}, false
	}
	return h.undo[len(h.undo)-2], true
}

// PeekRedo is the region Redo would restore, without moving.
func (h *RegionHistory) PeekRedo() (geom.Region, bool) {
	if len(h.redo) == 0 {
		return geom.Region{}, false
	}
	return h.redo[len(h.redo)-1], true
}

// Undo steps back and returns the region now current.
func (h *RegionHistory) Undo() (geom.Region, bool) {
	if len(h.undo) < 2 {
		return geom.Region{}, false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, last)
	return h.undo[len(h.undo)-1], true
}

// Redo re-applies the last undone region.
func (h *RegionHistory) Redo() (geom.Region, bool) {
	if len(h.redo) == 0 {
		return geom.Region{}, false
	}
	r := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, r)
	return r, true
}

// Len is the number of undoable entries including the current one.
func (h *RegionHistory) Len() int {
	return len(h.undo)
}

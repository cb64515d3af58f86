package viewer

import (
	"log/slog"
	"sync"

	"github.com/jpfielding/skyview.go/pkg/geom"
)

// Engine holds the transform state of every displayed layer, keyed by layer
// id. Operations on an unknown id are silent no-ops. Operations on one layer
// are applied in call order; different layers never contend.
type Engine struct {
	mu     sync.RWMutex
	layers map[string]*entry
	depth  int
}

type entry struct {
	mu      sync.Mutex
	state   State
	history *RegionHistory
}

// NewEngine returns an empty engine whose layers keep historyDepth regions.
func NewEngine(historyDepth int) *Engine {
	return &Engine{layers: map[string]*entry{}, depth: historyDepth}
}

// Init creates (or recreates) the state of a freshly loaded image.
func (e *Engine) Init(id string, width, height float64) State {
	s := NewState(width, height)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layers[id] = &entry{state: s, history: NewRegionHistory(e.depth)}
	return s
}

// Remove drops a layer's state when its image is closed.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.layers, id)
}

// IDs lists the initialized layers.
func (e *Engine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.layers))
	for id := range e.layers {
		ids = append(ids, id)
	}
	return ids
}

// State returns a snapshot of a layer's state.
func (e *Engine) State(id string) (State, bool) {
	ent := e.lookup(id)
	if ent == nil {
		return State{}, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.state, true
}

func (e *Engine) lookup(id string) *entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.layers[id]
}

// update applies op to a layer's state and stores the result when it changed.
func (e *Engine) update(id, op string, fn func(State) (State, bool)) bool {
	return e.updateWithHistory(id, op, func(s State, _ *RegionHistory) (State, bool) { return fn(s) })
}

func (e *Engine) updateWithHistory(id, op string, fn func(State, *RegionHistory) (State, bool)) bool {
	ent := e.lookup(id)
	if ent == nil {
		slog.Debug("transform on unknown layer", "op", op, "layer", id)
		return false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	next, changed := fn(ent.state, ent.history)
	if !changed {
		slog.Debug("transform rejected", "op", op, "layer", id)
		return false
	}
	ent.state = next
	return true
}

func always(fn func(State) State) func(State) (State, bool) {
	return func(s State) (State, bool) { return fn(s), true }
}

// ResetImageTransform restores the default vertical flip.
func (e *Engine) ResetImageTransform(id string) bool {
	return e.update(id, "reset-image", always(State.ResetImageTransform))
}

// ResetViewportTransform restores the identity viewport transform.
func (e *Engine) ResetViewportTransform(id string) bool {
	return e.update(id, "reset-viewport", always(State.ResetViewportTransform))
}

// SetImageTransform replaces the image transform verbatim.
func (e *Engine) SetImageTransform(id string, t geom.Affine) bool {
	return e.update(id, "set-image", always(func(s State) State { return s.WithImageTransform(t) }))
}

// SetViewportTransform replaces the viewport transform verbatim.
func (e *Engine) SetViewportTransform(id string, t geom.Affine) bool {
	return e.update(id, "set-viewport", always(func(s State) State { return s.WithViewportTransform(t) }))
}

// UpdateViewportSize stores the hosting view's size; no-op for unknown layers.
func (e *Engine) UpdateViewportSize(id string, size geom.Size) bool {
	return e.update(id, "viewport-size", always(func(s State) State { return s.WithViewportSize(size) }))
}

// ZoomBy scales the viewport by factor about anchor, within the zoom bounds.
func (e *Engine) ZoomBy(id string, factor float64, anchor *geom.Point) bool {
	return e.update(id, "zoom-by", func(s State) (State, bool) { return s.ZoomBy(factor, anchor) })
}

// ZoomTo zooms to an absolute on-screen pixel scale.
func (e *Engine) ZoomTo(id string, scale float64, anchor *geom.Point) bool {
	return e.update(id, "zoom-to", func(s State) (State, bool) { return s.ZoomTo(scale, anchor) })
}

// MoveBy pans by viewport pixels unless the image would leave the viewport.
func (e *Engine) MoveBy(id string, dx, dy float64) bool {
	return e.update(id, "move-by", func(s State) (State, bool) { return s.MoveBy(dx, dy) })
}

// RotateBy rotates the image by deg degrees about anchor.
func (e *Engine) RotateBy(id string, deg float64, anchor *geom.Point) bool {
	return e.update(id, "rotate-by", func(s State) (State, bool) { return s.RotateBy(deg, anchor) })
}

// Flip mirrors the image horizontally.
func (e *Engine) Flip(id string) bool {
	return e.update(id, "flip", always(State.Flip))
}

// CenterRegionInViewport fits region into the viewport and records it in
// the layer's region history.
func (e *Engine) CenterRegionInViewport(id string, region geom.Region, size *geom.Size) bool {
	return e.updateWithHistory(id, "center-region", func(s State, h *RegionHistory) (State, bool) {
		next, ok := s.CenterRegionInViewport(region, size)
		if ok {
			h.Push(region)
		}
		return next, ok
	})
}

// ViewportRegion is the visible image region of a layer.
func (e *Engine) ViewportRegion(id string) (geom.Region, bool) {
	s, ok := e.State(id)
	if !ok {
		return geom.Region{}, false
	}
	return s.ViewportRegion(), true
}

// UndoRegion re-centers the previously centered region. The history only
// moves when the re-center is applied.
func (e *Engine) UndoRegion(id string) bool {
	return e.replay(id, "undo-region", (*RegionHistory).PeekUndo, (*RegionHistory).Undo)
}

// RedoRegion re-centers the last undone region.
func (e *Engine) RedoRegion(id string) bool {
	return e.replay(id, "redo-region", (*RegionHistory).PeekRedo, (*RegionHistory).Redo)
}

func (e *Engine) replay(id, op string, peek, step func(*RegionHistory) (geom.Region, bool)) bool {
	return e.updateWithHistory(id, op, func(s State, h *RegionHistory) (State, bool) {
		r, ok := peek(h)
		if !ok {
			return s, false
		}
		next, ok := s.CenterRegionInViewport(r, nil)
		if ok {
			step(h)
		}
		return next, ok
	})
}

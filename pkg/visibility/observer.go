// Package visibility defers acquiring expensive resources (image bytes,
// below-fold content) until their container is inside or near the viewport.
// It mirrors intersection observation: targets are rectangles observed
// against a root viewport, with a ratio threshold, a root margin that
// widens the viewport for early triggering, and an optional freeze that
// keeps a target "seen" once it first became visible.
package visibility

import (
	"sync"
)

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Bottom returns the bottom edge coordinate.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Right returns the right edge coordinate.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Area returns the rectangle area.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// expand grows the rectangle by margin on every side.
func (r Rect) expand(margin float64) Rect {
	return Rect{
		Top:    r.Top - margin,
		Left:   r.Left - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// IntersectionRatio returns the fraction of target covered by root, in
// [0, 1]. A zero-area target that lies inside root counts as fully visible.
func IntersectionRatio(target, root Rect) float64 {
	top := max(target.Top, root.Top)
	left := max(target.Left, root.Left)
	bottom := min(target.Bottom(), root.Bottom())
	right := min(target.Right(), root.Right())

	if bottom <= top || right <= left {
		return 0
	}

	area := target.Area()
	if area == 0 {
		return 1
	}
	return (bottom - top) * (right - left) / area
}

// Options configures an observation.
type Options struct {
	// Threshold is the minimum intersection ratio that counts as visible.
	// Zero means any overlap.
	Threshold float64

	// RootMargin widens the root rectangle on all sides, so targets
	// trigger shortly before they actually scroll into view.
	RootMargin float64

	// FreezeOnceVisible keeps a target visible after its first
	// not-visible to visible transition; later exits do not revert it.
	FreezeOnceVisible bool
}

// Callback is invoked on visibility transitions.
type Callback func(visible bool)

// target is one observed element.
type target struct {
	rect     Rect
	visible  bool
	frozen   bool
	callback Callback
}

// Observer tracks target rectangles against a root viewport. It is the
// library-side equivalent of an intersection observer: the presentation
// layer feeds it geometry updates and receives transition callbacks.
type Observer struct {
	mu      sync.Mutex
	opts    Options
	root    Rect
	targets map[string]*target
	closed  bool
}

// NewObserver creates an observer for the given root viewport.
func NewObserver(root Rect, opts Options) *Observer {
	return &Observer{
		opts:    opts,
		root:    root,
		targets: make(map[string]*target),
	}
}

// Observe registers a target rectangle. The callback fires immediately if
// the target is already visible, and afterwards on every transition (or
// only the first, with FreezeOnceVisible).
func (o *Observer) Observe(id string, rect Rect, cb Callback) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	t := &target{rect: rect, callback: cb}
	o.targets[id] = t
	fire := o.evaluate(t)
	o.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Unobserve detaches a target. Pending transitions for it never fire.
func (o *Observer) Unobserve(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.targets, id)
}

// SetRoot updates the root viewport (scroll/resize) and re-evaluates every
// observation.
func (o *Observer) SetRoot(root Rect) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.root = root
	fires := o.evaluateAll()
	o.mu.Unlock()

	for _, fire := range fires {
		fire()
	}
}

// UpdateTarget moves a target rectangle (layout change) and re-evaluates it.
func (o *Observer) UpdateTarget(id string, rect Rect) {
	o.mu.Lock()
	t, ok := o.targets[id]
	if !ok || o.closed {
		o.mu.Unlock()
		return
	}
	t.rect = rect
	fire := o.evaluate(t)
	o.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Visible reports the current visibility of a target.
func (o *Observer) Visible(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.targets[id]
	return ok && t.visible
}

// Close detaches every observation. No callback fires after Close.
func (o *Observer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.targets = make(map[string]*target)
}

// evaluate recomputes one target's visibility. It returns the callback to
// run outside the lock, or nil when no transition happened. Caller must
// hold the lock.
func (o *Observer) evaluate(t *target) func() {
	if t.frozen {
		return nil
	}

	root := o.root.expand(o.opts.RootMargin)
	ratio := IntersectionRatio(t.rect, root)

	visible := ratio > 0 && ratio >= o.opts.Threshold

	if visible == t.visible {
		return nil
	}

	t.visible = visible
	if visible && o.opts.FreezeOnceVisible {
		t.frozen = true
	}

	cb := t.callback
	if cb == nil {
		return nil
	}
	return func() { cb(visible) }
}

func (o *Observer) evaluateAll() []func() {
	var fires []func()
	for _, t := range o.targets {
		if fire := o.evaluate(t); fire != nil {
			fires = append(fires, fire)
		}
	}
	return fires
}

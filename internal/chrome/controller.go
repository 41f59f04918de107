// Package chrome derives navigation dock visibility from scroll position and
// drives the dock's enter/exit presentation phases.
package chrome

// RevealThreshold is the offset at or below which the dock is always shown.
const RevealThreshold = 80

// State is the per-page-mount scroll state.
type State struct {
	LastKnownOffset int  `json:"last_known_offset"`
	Visible         bool `json:"visible"`
}

// Controller owns one State for the lifetime of a page mount. It is not safe
// for concurrent use; callers deliver scroll notifications from a single loop.
type Controller struct {
	state    State
	detached bool
}

// New returns a controller in its mount state: visible, offset 0.
func New() *Controller {
	return &Controller{state: State{Visible: true}}
}

// OnScrollNotify evaluates a scroll notification. The dock hides only on
// downward motion past the threshold; anything else shows it.
func (c *Controller) OnScrollNotify(offset int) {
	if c.detached {
		return
	}
	if offset < 0 {
		offset = 0
	}
	c.state.Visible = !(offset > c.state.LastKnownOffset && offset > RevealThreshold)
	c.state.LastKnownOffset = offset
}

// Visible reports whether the dock is currently shown.
func (c *Controller) Visible() bool {
	return c.state.Visible
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Detach stops the controller. Later notifications leave the state untouched.
func (c *Controller) Detach() {
	c.detached = true
}

// Detached reports whether Detach has been called.
func (c *Controller) Detached() bool {
	return c.detached
}

// Trace feeds offsets to a fresh controller and returns the visibility after
// each one.
func Trace(offsets []int) []bool {
	c := New()
	out := make([]bool, len(offsets))
	for i, o := range offsets {
		c.OnScrollNotify(o)
		out[i] = c.Visible()
	}
	return out
}

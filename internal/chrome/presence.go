package chrome

// Phase is a step of the dock's presentation cycle.
type Phase string

const (
	PhaseVisible  Phase = "visible"
	PhaseExiting  Phase = "exiting"
	PhaseHidden   Phase = "hidden"
	PhaseEntering Phase = "entering"
)

// Choreography describes the fixed appear/disappear animation the
// presentation layer plays. The values match the dock's spring.
type Choreography struct {
	Stiffness float64 `json:"stiffness"`
	Damping   float64 `json:"damping"`
	OffsetY   float64 `json:"offset_y"`
}

// DefaultChoreography is the dock's spring.
var DefaultChoreography = Choreography{Stiffness: 260, Damping: 20, OffsetY: 100}

// Presence tracks Visible → Exiting → Hidden → Entering → Visible.
// The controller only decides the target; Presence owns the in-between phases
// and completes them when the presentation layer calls Settle.
type Presence struct {
	phase Phase
}

// NewPresence starts in PhaseVisible, matching a freshly mounted controller.
func NewPresence() *Presence {
	return &Presence{phase: PhaseVisible}
}

// Phase returns the current phase.
func (p *Presence) Phase() Phase {
	return p.phase
}

// Toggle requests the dock be shown or hidden. It reports whether a new
// transition started. A request that matches the running transition, or the
// settled phase, is ignored; an opposite request reverses the running one.
func (p *Presence) Toggle(visible bool) bool {
	switch p.phase {
	case PhaseVisible:
		if visible {
			return false
		}
		p.phase = PhaseExiting
	case PhaseExiting:
		if !visible {
			return false
		}
		p.phase = PhaseEntering
	case PhaseHidden:
		if !visible {
			return false
		}
		p.phase = PhaseEntering
	case PhaseEntering:
		if visible {
			return false
		}
		p.phase = PhaseExiting
	}
	return true
}

// Settle completes the running transition. Settled phases are unchanged.
func (p *Presence) Settle() {
	switch p.phase {
	case PhaseExiting:
		p.phase = PhaseHidden
	case PhaseEntering:
		p.phase = PhaseVisible
	}
}

// Transitioning reports whether an enter or exit is running.
func (p *Presence) Transitioning() bool {
	return p.phase == PhaseExiting || p.phase == PhaseEntering
}

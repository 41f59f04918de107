// Package sections tracks which content section of a long page is in focus,
// using intersection with a narrow horizontal band of the viewport.
package sections

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
)

// None is the active id before any section has entered the focus band.
const None = ""

// Status is the lifecycle step of a Tracker.
type Status int

const (
	StatusUninitialized Status = iota
	StatusObserving
	StatusTornDown
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusObserving:
		return "observing"
	case StatusTornDown:
		return "torn_down"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Entry is one section's intersection report inside a batch.
// Top is the section's top edge relative to the viewport top.
type Entry struct {
	ID           string  `json:"id"`
	Intersecting bool    `json:"intersecting"`
	Top          float64 `json:"top"`
}

// Observer is the viewport-intersection primitive. Observe starts delivering
// batches for ids to notify and returns the handle that stops delivery.
type Observer interface {
	Observe(ids []string, notify func([]Entry)) (cancel func(), err error)
}

// Tracker holds the active section for one page mount. It is driven from a
// single event loop and is not safe for concurrent use.
type Tracker struct {
	observer Observer
	ids      []string
	order    map[string]int
	active   string
	status   Status
	degraded bool
	cancel   func()
}

// NewTracker returns an uninitialized tracker. A nil observer means the host
// has no intersection support; the tracker then never highlights anything.
func NewTracker(observer Observer) *Tracker {
	return &Tracker{observer: observer, active: None}
}

// Register starts observing ids. The ids must be distinct and non-empty.
// Registering on a torn-down tracker is ignored.
func (t *Tracker) Register(ids []string) error {
	switch t.status {
	case StatusTornDown:
		return nil
	case StatusObserving:
		return fmt.Errorf("sections: already registered: %w", apperr.ErrInvalid)
	}

	order := make(map[string]int, len(ids))
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("sections: empty section id at %d: %w", i, apperr.ErrInvalid)
		}
		if _, dup := order[id]; dup {
			return fmt.Errorf("sections: duplicate section id %q: %w", id, apperr.ErrInvalid)
		}
		order[id] = i
	}

	t.ids = append([]string(nil), ids...)
	t.order = order
	t.status = StatusObserving
	t.active = None

	if t.observer == nil || len(ids) == 0 {
		t.degraded = t.observer == nil
		return nil
	}
	cancel, err := t.observer.Observe(t.ids, t.handleBatch)
	if err != nil {
		// Missing primitive: stay observing with nothing highlighted.
		t.degraded = true
		return nil
	}
	t.cancel = cancel
	return nil
}

// handleBatch applies one observation batch. The topmost intersecting
// registered section wins; ties fall back to registration order. A batch
// without intersections leaves the active id unchanged.
func (t *Tracker) handleBatch(batch []Entry) {
	if t.status != StatusObserving || t.degraded {
		return
	}
	best, bestTop, bestOrder := "", 0.0, 0
	for _, e := range batch {
		if !e.Intersecting {
			continue
		}
		ord, ok := t.order[e.ID]
		if !ok {
			continue
		}
		if best == "" || e.Top < bestTop || (e.Top == bestTop && ord < bestOrder) {
			best, bestTop, bestOrder = e.ID, e.Top, ord
		}
	}
	if best != "" {
		t.active = best
	}
}

// Unregister cancels observation. Every later call is a no-op.
func (t *Tracker) Unregister() {
	if t.status == StatusTornDown {
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.status = StatusTornDown
}

// Active returns the active section id, or None.
func (t *Tracker) Active() string {
	return t.active
}

// Status returns the lifecycle step.
func (t *Tracker) Status() Status {
	return t.status
}

// Observed returns the registered ids in registration order.
func (t *Tracker) Observed() []string {
	return append([]string(nil), t.ids...)
}

// Degraded reports whether highlighting is disabled for lack of an observer.
func (t *Tracker) Degraded() bool {
	return t.degraded
}

package sections

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
)

// Band is a horizontal strip of the viewport expressed as margins cut from
// the top and bottom, each a fraction of the viewport height.
type Band struct {
	TopMargin    float64
	BottomMargin float64
}

// FocusBand excludes the top 40% and bottom 50% of the viewport.
var FocusBand = Band{TopMargin: 0.40, BottomMargin: 0.50}

// Bounds returns the band's top and bottom edges for a viewport height.
func (b Band) Bounds(viewportHeight float64) (top, bottom float64) {
	return viewportHeight * b.TopMargin, viewportHeight * (1 - b.BottomMargin)
}

// Rect is a section's vertical extent relative to the viewport top.
type Rect struct {
	ID     string  `json:"id"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Intersects reports whether any part of r overlaps the band.
func (b Band) Intersects(r Rect, viewportHeight float64) bool {
	lo, hi := b.Bounds(viewportHeight)
	return r.Top < hi && r.Top+r.Height > lo
}

// Viewport is an Observer fed by the host: either with section geometry,
// from which it computes intersections, or with precomputed entries.
// Like a browser IntersectionObserver it reports every section on the first
// measurement and only changes afterwards.
type Viewport struct {
	band   Band
	notify func([]Entry)
	ids    map[string]struct{}
	last   map[string]bool
}

// NewViewport returns an observer measuring against band.
func NewViewport(band Band) *Viewport {
	return &Viewport{band: band}
}

// Observe implements Observer. A Viewport serves one subscription at a time.
func (v *Viewport) Observe(ids []string, notify func([]Entry)) (func(), error) {
	if v.notify != nil {
		return nil, fmt.Errorf("sections: viewport already observed: %w", apperr.ErrInvalid)
	}
	v.notify = notify
	v.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		v.ids[id] = struct{}{}
	}
	v.last = make(map[string]bool, len(ids))
	return v.stop, nil
}

func (v *Viewport) stop() {
	v.notify = nil
	v.ids = nil
	v.last = nil
}

// Measure evaluates section geometry against the band and delivers the
// resulting batch. Rects for unobserved ids are skipped.
func (v *Viewport) Measure(viewportHeight float64, rects []Rect) {
	if v.notify == nil || viewportHeight <= 0 {
		return
	}
	var batch []Entry
	for _, r := range rects {
		if _, ok := v.ids[r.ID]; !ok {
			continue
		}
		in := v.band.Intersects(r, viewportHeight)
		if prev, seen := v.last[r.ID]; seen && prev == in {
			continue
		}
		v.last[r.ID] = in
		batch = append(batch, Entry{ID: r.ID, Intersecting: in, Top: r.Top})
	}
	if len(batch) > 0 {
		v.notify(batch)
	}
}

// Report delivers host-computed entries unchanged.
func (v *Viewport) Report(entries []Entry) {
	if v.notify == nil || len(entries) == 0 {
		return
	}
	v.notify(entries)
}

// Active reports whether a subscription is live.
func (v *Viewport) Active() bool {
	return v.notify != nil
}

type unsupportedObserver struct{}

func (unsupportedObserver) Observe([]string, func([]Entry)) (func(), error) {
	return nil, fmt.Errorf("sections: intersection observation: %w", apperr.ErrUnsupported)
}

// Unsupported stands in for hosts without intersection support.
var Unsupported Observer = unsupportedObserver{}

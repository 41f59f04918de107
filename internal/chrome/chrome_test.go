package chrome

import (
	"testing"
)

func equalTrace(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTrace_Scenarios(t *testing.T) {
	cases := []struct {
		name    string
		offsets []int
		want    []bool
	}{
		{"mixed", []int{0, 50, 120, 90, 200}, []bool{true, true, false, true, false}},
		{"below threshold", []int{0, 10, 5, 3}, []bool{true, true, true, true}},
		{"repeated", []int{200, 200, 200}, []bool{false, true, true}},
		{"exactly threshold", []int{80, 81}, []bool{true, false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Trace(tc.offsets)
			if !equalTrace(got, tc.want) {
				t.Errorf("trace = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTrace_MatchesPairwiseRule(t *testing.T) {
	offsets := []int{0, 300, 310, 20, 95, 96, 96, 0, 1000, 999}
	got := Trace(offsets)
	prev := 0
	for i, o := range offsets {
		want := !(o > prev && o > RevealThreshold)
		if got[i] != want {
			t.Errorf("step %d offset %d: visible = %v, want %v", i, o, got[i], want)
		}
		prev = o
	}
}

func TestController_InitialState(t *testing.T) {
	c := New()
	s := c.State()
	if !s.Visible || s.LastKnownOffset != 0 {
		t.Fatalf("initial state = %+v", s)
	}
}

func TestController_ResetToTopShows(t *testing.T) {
	c := New()
	c.OnScrollNotify(500)
	if c.Visible() {
		t.Fatal("expected hidden after scrolling down past threshold")
	}
	c.OnScrollNotify(0)
	if !c.Visible() {
		t.Fatal("expected visible after reset to top")
	}
}

func TestController_NegativeOffsetClamped(t *testing.T) {
	c := New()
	c.OnScrollNotify(-40)
	if !c.Visible() || c.State().LastKnownOffset != 0 {
		t.Fatalf("state = %+v, want visible at 0", c.State())
	}
}

func TestController_DetachFreezesState(t *testing.T) {
	c := New()
	c.OnScrollNotify(100)
	before := c.State()
	c.Detach()
	c.OnScrollNotify(400)
	c.OnScrollNotify(0)
	if c.State() != before {
		t.Errorf("state changed after detach: %+v, want %+v", c.State(), before)
	}
	if !c.Detached() {
		t.Error("Detached() = false")
	}
}

func TestPresence_FullCycle(t *testing.T) {
	p := NewPresence()
	if !p.Toggle(false) || p.Phase() != PhaseExiting {
		t.Fatalf("phase = %s, want exiting", p.Phase())
	}
	p.Settle()
	if p.Phase() != PhaseHidden {
		t.Fatalf("phase = %s, want hidden", p.Phase())
	}
	if !p.Toggle(true) || p.Phase() != PhaseEntering {
		t.Fatalf("phase = %s, want entering", p.Phase())
	}
	p.Settle()
	if p.Phase() != PhaseVisible {
		t.Fatalf("phase = %s, want visible", p.Phase())
	}
}

func TestPresence_SuppressesReentrantToggle(t *testing.T) {
	p := NewPresence()
	p.Toggle(false)
	if p.Toggle(false) {
		t.Error("second hide during exit should be suppressed")
	}
	if p.Phase() != PhaseExiting {
		t.Errorf("phase = %s, want exiting", p.Phase())
	}
	if !p.Toggle(true) {
		t.Error("show during exit should reverse")
	}
	if p.Phase() != PhaseEntering {
		t.Errorf("phase = %s, want entering", p.Phase())
	}
}

func TestPresence_SettleWhenIdleIsNoop(t *testing.T) {
	p := NewPresence()
	p.Settle()
	if p.Phase() != PhaseVisible || p.Transitioning() {
		t.Errorf("phase = %s", p.Phase())
	}
	if p.Toggle(true) {
		t.Error("show while visible should be ignored")
	}
}

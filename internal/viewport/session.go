// Package viewport hosts the per-page-mount controllers. Each open page holds
// one WebSocket; the connection's read loop is the page's event loop and
// owns a chrome controller, its presence state machine and a section tracker.
package viewport

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/chrome"
	"github.com/starford/folio/internal/sections"
)

// Client message types.
const (
	MsgScroll        = "scroll"
	MsgLayout        = "layout"
	MsgIntersect     = "intersect"
	MsgTransitionEnd = "transition_end"
)

// ClientMessage is one frame sent by the page.
type ClientMessage struct {
	Type           string           `json:"type"`
	Offset         int              `json:"offset,omitempty"`
	ViewportHeight float64          `json:"viewport_height,omitempty"`
	Sections       []sections.Rect  `json:"sections,omitempty"`
	Entries        []sections.Entry `json:"entries,omitempty"`
}

// Frame is one server reply.
type Frame struct {
	Type          string               `json:"type"`
	Path          string               `json:"path,omitempty"`
	Visible       bool                 `json:"visible"`
	Phase         chrome.Phase         `json:"phase"`
	ActiveSection string               `json:"active_section"`
	Sections      []string             `json:"sections,omitempty"`
	Highlighting  *bool                `json:"highlighting,omitempty"`
	Choreography  *chrome.Choreography `json:"choreography,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// Session is the controller state of one mounted page.
type Session struct {
	path     string
	chrome   *chrome.Controller
	presence *chrome.Presence
	observer *sections.Viewport
	tracker  *sections.Tracker
	closed   bool
}

// NewSession mounts a page: it creates fresh controllers and registers
// sectionIDs with the tracker. Without intersection support the tracker
// runs degraded and never highlights.
func NewSession(path string, sectionIDs []string, intersection bool) (*Session, error) {
	s := &Session{
		path:     path,
		chrome:   chrome.New(),
		presence: chrome.NewPresence(),
	}
	var obs sections.Observer = sections.Unsupported
	if intersection {
		s.observer = sections.NewViewport(sections.FocusBand)
		obs = s.observer
	}
	s.tracker = sections.NewTracker(obs)
	if err := s.tracker.Register(sectionIDs); err != nil {
		return nil, err
	}
	return s, nil
}

// Handle applies one client message and returns the resulting state.
func (s *Session) Handle(msg ClientMessage) (Frame, error) {
	if s.closed {
		return Frame{}, fmt.Errorf("viewport: session closed: %w", apperr.ErrInvalid)
	}
	switch msg.Type {
	case MsgScroll:
		s.chrome.OnScrollNotify(msg.Offset)
		s.presence.Toggle(s.chrome.Visible())
	case MsgLayout:
		if s.observer != nil {
			s.observer.Measure(msg.ViewportHeight, msg.Sections)
		}
	case MsgIntersect:
		if s.observer != nil {
			s.observer.Report(msg.Entries)
		}
	case MsgTransitionEnd:
		s.presence.Settle()
	default:
		return Frame{}, fmt.Errorf("viewport: unknown message type %q: %w", msg.Type, apperr.ErrInvalid)
	}
	return s.Snapshot(), nil
}

// Snapshot returns the current state frame.
func (s *Session) Snapshot() Frame {
	return Frame{
		Type:          "state",
		Visible:       s.chrome.Visible(),
		Phase:         s.presence.Phase(),
		ActiveSection: s.tracker.Active(),
	}
}

// Hello is the first frame of a session: the snapshot plus the mount
// details the page needs once.
func (s *Session) Hello() Frame {
	f := s.Snapshot()
	f.Type = "hello"
	f.Path = s.path
	f.Sections = s.tracker.Observed()
	highlighting := !s.tracker.Degraded()
	f.Highlighting = &highlighting
	choreo := chrome.DefaultChoreography
	f.Choreography = &choreo
	return f
}

// Close tears the page down: scroll handling is detached and section
// observation cancelled. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.chrome.Detach()
	s.tracker.Unregister()
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	return s.closed
}

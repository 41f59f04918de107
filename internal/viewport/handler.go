package viewport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Resolver maps a page path to the section ids it renders. ok is false for
// paths outside the route table.
type Resolver func(path string) (sectionIDs []string, ok bool)

const maxFrameBytes = 64 << 10

// Handler upgrades page mounts to WebSocket sessions.
type Handler struct {
	resolve  Resolver
	logger   *slog.Logger
	upgrader websocket.Upgrader
	live     atomic.Int64
}

// NewHandler creates a handler. With no allowedOrigins only same-origin
// pages may connect; "*" allows any origin.
func NewHandler(resolve Resolver, allowedOrigins []string, logger *slog.Logger) *Handler {
	h := &Handler{resolve: resolve, logger: logger}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		}
	}
	return h
}

// Live returns the number of mounted pages.
func (h *Handler) Live() int64 {
	return h.live.Load()
}

// ServeHTTP handles GET /ws/viewport?path=<page path>[&io=0].
// io=0 tells the server the page has no intersection support.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	ids, ok := h.resolve(path)
	if !ok {
		http.Error(w, "unknown page", http.StatusNotFound)
		return
	}

	sess, err := NewSession(path, ids, r.URL.Query().Get("io") != "0")
	if err != nil {
		h.logger.Error("viewport: mount failed", slog.String("path", path), slog.String("error", err.Error()))
		http.Error(w, "mount failed", http.StatusInternalServerError)
		return
	}
	// Teardown runs on every exit path, before the handler returns.
	defer sess.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("viewport: upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	h.live.Add(1)
	defer h.live.Add(-1)
	h.logger.Debug("viewport: mounted", slog.String("path", path), slog.Int("sections", len(ids)))

	if err := conn.WriteJSON(sess.Hello()); err != nil {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("viewport: read", slog.String("error", err.Error()))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if werr := conn.WriteJSON(Frame{Type: "error", Error: "invalid message format"}); werr != nil {
				return
			}
			continue
		}

		frame, err := sess.Handle(msg)
		if err != nil {
			frame = sess.Snapshot()
			frame.Type = "error"
			frame.Error = err.Error()
		}
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

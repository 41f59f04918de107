// Package sse implements a Server-Sent Events broker that tells open pages
// when the site content changed.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types sent to browsers.
const (
	TypeCatalogPrefix = "catalog."
	TypePagesStale    = "pages.stale"
)

const (
	clientBuffer     = 16
	retryMillis      = 3000
	defaultHeartbeat = 25 * time.Second
)

// Event is one server-sent event. ID is assigned by the broker.
type Event struct {
	ID   uint64
	Type string
	Data any
}

func (e Event) encode() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Type, payload), nil
}

// CatalogChange is the payload of catalog.* events.
type CatalogChange struct {
	Kind     string `json:"kind"`
	Checksum string `json:"checksum"`
	Projects int    `json:"projects"`
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets how often idle streams get a comment line so proxies
// keep them open. Zero disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) { b.heartbeat = d }
}

// WithClock replaces time.Now for the stale throttle.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

// Broker fans events out to connected streams.
//
// One goroutine owns the subscriber set, the event sequence and the
// stale-page throttle; everything else talks to it over channels. A
// subscriber whose buffer is full is disconnected and left to reconnect.
type Broker struct {
	staleMin  time.Duration
	heartbeat time.Duration
	now       func() time.Time

	join   chan chan []byte
	leave  chan chan []byte
	events chan Event
	count  chan chan int

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewBroker creates a broker that emits at most one pages.stale event per
// staleThrottle.
func NewBroker(staleThrottle time.Duration, opts ...Option) *Broker {
	if staleThrottle <= 0 {
		staleThrottle = 2 * time.Second
	}
	b := &Broker{
		staleMin:  staleThrottle,
		heartbeat: defaultHeartbeat,
		now:       time.Now,
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		events:    make(chan Event, 64),
		count:     make(chan chan int),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subs := make(map[chan []byte]struct{})
	var seq uint64
	var lastStale time.Time

	send := func(e Event) {
		seq++
		e.ID = seq
		raw, err := e.encode()
		if err != nil {
			return
		}
		for ch := range subs {
			select {
			case ch <- raw:
			default:
				delete(subs, ch)
				close(ch)
			}
		}
	}

	for {
		select {
		case <-b.done:
			for ch := range subs {
				close(ch)
			}
			return

		case ch := <-b.join:
			subs[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case e := <-b.events:
			send(e)
			change, ok := e.Data.(CatalogChange)
			if !ok || change.Kind != "reloaded" {
				continue
			}
			if now := b.now(); now.Sub(lastStale) >= b.staleMin {
				lastStale = now
				send(Event{Type: TypePagesStale, Data: change})
			}

		case resp := <-b.count:
			resp <- len(subs)
		}
	}
}

// Close disconnects every stream and stops the broker. Safe to call twice.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.done) })
	<-b.stopped
}

// Subscribe registers a stream. The channel is closed when the broker drops
// the stream or shuts down; cancel must be called once the caller is done.
func (b *Broker) Subscribe() (events <-chan []byte, cancel func()) {
	ch := make(chan []byte, clientBuffer)
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
		return ch, func() {}
	}
	return ch, func() {
		select {
		case b.leave <- ch:
		case <-b.stopped:
		}
	}
}

// ClientCount returns the number of connected streams.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
		return <-resp
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to every stream.
func (b *Broker) Publish(e Event) {
	select {
	case b.events <- e:
	case <-b.stopped:
	}
}

// PublishCatalogEvent broadcasts catalog.<kind>. A "reloaded" kind is
// followed by a throttled pages.stale event.
func (b *Broker) PublishCatalogEvent(kind, checksum string, projects int) {
	b.Publish(Event{
		Type: TypeCatalogPrefix + kind,
		Data: CatalogChange{Kind: kind, Checksum: checksum, Projects: projects},
	})
}

// ServeHTTP is the SSE endpoint handler.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	if err := rc.Flush(); err != nil {
		return
	}

	events, cancel := b.Subscribe()
	defer cancel()

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			_, err = w.Write(msg)
		case <-tick:
			_, err = w.Write([]byte(": ping\n\n"))
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			return
		}
	}
}

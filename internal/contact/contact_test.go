package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
)

var valid = Message{Name: "Ada", Email: "ada@example.com", Message: "Let's build something."}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func okSink(calls *int) Sink {
	return SinkFunc(func(context.Context, Message) (Receipt, error) {
		*calls++
		return Receipt{ID: "r1", CreatedAt: time.Unix(0, 0)}, nil
	})
}

func failingSink() Sink {
	return SinkFunc(func(context.Context, Message) (Receipt, error) {
		return Receipt{}, errors.New("connection refused")
	})
}

func TestMessageValidate(t *testing.T) {
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	bad := []Message{
		{Email: "a@b.co", Message: "hi"},
		{Name: "A", Email: "not-an-email", Message: "hi"},
		{Name: "A", Email: "a@b.co"},
	}
	for _, m := range bad {
		if err := m.Validate(); err == nil {
			t.Errorf("expected error for %+v", m)
		}
	}
}

func TestForm_SuccessClearsAndResets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	calls := 0
	f := NewForm(valid, WithClock(clock.now))

	if err := f.Submit(context.Background(), okSink(&calls)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.Status() != StatusSuccess {
		t.Fatalf("status = %s", f.Status())
	}
	if f.Fields != (Message{}) {
		t.Errorf("fields not cleared: %+v", f.Fields)
	}
	if f.Receipt().ID != "r1" {
		t.Errorf("receipt = %+v", f.Receipt())
	}
	if f.ResetAfter() != DefaultSuccessWindow {
		t.Errorf("reset after = %s", f.ResetAfter())
	}

	// A second submit inside the window is refused.
	if err := f.Submit(context.Background(), okSink(&calls)); !errors.Is(err, apperr.ErrInvalid) || calls != 1 {
		t.Errorf("resubmit err = %v calls = %d", err, calls)
	}

	clock.t = clock.t.Add(3999 * time.Millisecond)
	if f.Status() != StatusSuccess {
		t.Errorf("status = %s before window elapsed", f.Status())
	}
	clock.t = clock.t.Add(time.Millisecond)
	if f.Status() != StatusIdle {
		t.Errorf("status = %s after window, want idle", f.Status())
	}
}

func TestForm_FailurePreservesFields(t *testing.T) {
	f := NewForm(valid)
	err := f.Submit(context.Background(), failingSink())
	if !errors.Is(err, apperr.ErrSubmission) {
		t.Fatalf("err = %v, want ErrSubmission", err)
	}
	if f.Status() != StatusError || !f.Retryable() {
		t.Errorf("status = %s retryable = %v", f.Status(), f.Retryable())
	}
	if f.Fields != valid {
		t.Errorf("fields = %+v, want preserved", f.Fields)
	}

	calls := 0
	if err := f.Submit(context.Background(), okSink(&calls)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.Status() != StatusSuccess {
		t.Errorf("status after retry = %s", f.Status())
	}
}

func TestForm_InvalidFields(t *testing.T) {
	calls := 0
	f := NewForm(Message{Name: "  ", Email: "x", Message: ""})
	err := f.Submit(context.Background(), okSink(&calls))
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	if calls != 0 {
		t.Error("sink called for invalid message")
	}
	fe := f.FieldErrors()
	for _, k := range []string{"name", "email", "message"} {
		if fe[k] == "" {
			t.Errorf("missing field error for %s: %v", k, fe)
		}
	}
	if f.Retryable() {
		t.Error("validation failure should not be retryable as a sink error")
	}
}

func TestHTTPSink_Insert(t *testing.T) {
	var got []remoteRow
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/contact_messages" || r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL+"/", "anon", time.Second, nil)
	rc, err := sink.Insert(context.Background(), valid)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rc.ID == "" || len(got) != 1 || got[0].Email != valid.Email || got[0].ID != rc.ID {
		t.Errorf("receipt = %+v rows = %+v", rc, got)
	}
}

func TestHTTPSink_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, "", time.Second, nil)
	if _, err := sink.Insert(context.Background(), valid); !errors.Is(err, apperr.ErrSubmission) {
		t.Errorf("err = %v, want ErrSubmission", err)
	}

	srv.Close()
	if _, err := sink.Insert(context.Background(), valid); !errors.Is(err, apperr.ErrSubmission) {
		t.Errorf("closed server err = %v, want ErrSubmission", err)
	}
}

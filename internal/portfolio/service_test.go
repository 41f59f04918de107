package portfolio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/ratelimit"
)

func testService(t *testing.T, sink contact.Sink, opts ...Option) *Service {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return NewService(catalog.NewStore(c), sink, opts...)
}

func TestGetProjectDetail(t *testing.T) {
	svc := testService(t, nil)
	d, err := svc.GetProjectDetail(context.Background(), "smart-agriculture-monitoring")
	if err != nil {
		t.Fatalf("GetProjectDetail: %v", err)
	}
	if len(d.Sections) != len(DetailSectionIDs) {
		t.Fatalf("sections = %d", len(d.Sections))
	}
	for i, s := range d.Sections {
		if s.ID != DetailSectionIDs[i] {
			t.Errorf("section %d = %s, want %s", i, s.ID, DetailSectionIDs[i])
		}
	}
	if !strings.Contains(string(d.Sections[2].HTML), "<strong>Digital Twin</strong>") {
		t.Errorf("approach not rendered: %s", d.Sections[2].HTML)
	}
}

func TestGetProjectDetail_NotFound(t *testing.T) {
	svc := testService(t, nil)
	if _, err := svc.GetProjectDetail(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitContact(t *testing.T) {
	var got contact.Message
	svc := testService(t, contact.SinkFunc(func(_ context.Context, m contact.Message) (contact.Receipt, error) {
		got = m
		return contact.Receipt{ID: "x"}, nil
	}))
	f, err := svc.SubmitContact(context.Background(), "10.0.0.1", contact.Message{Name: " Ada ", Email: "ada@example.com", Message: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if f.Status() != contact.StatusSuccess || got.Name != "Ada" {
		t.Errorf("status = %s sink got %+v", f.Status(), got)
	}
}

func TestSectionIDsSkipsEmptyNarrative(t *testing.T) {
	p := catalog.Project{Problem: "p", Approach: "a", Learned: "l"}
	got := SectionIDs(p)
	want := []string{"problem", "approach", "learned"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SectionIDs = %v, want %v", got, want)
	}
}

func TestSubmitContact_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	lim, err := ratelimit.Dial(context.Background(), "redis://"+mr.Addr(), 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer lim.Close()

	calls := 0
	svc := testService(t, contact.SinkFunc(func(context.Context, contact.Message) (contact.Receipt, error) {
		calls++
		return contact.Receipt{ID: "x"}, nil
	}), WithLimiter(lim))

	msg := contact.Message{Name: "Ada", Email: "ada@example.com", Message: "hi"}
	if _, err := svc.SubmitContact(context.Background(), "10.0.0.1", msg); err != nil {
		t.Fatal(err)
	}
	f, err := svc.SubmitContact(context.Background(), "10.0.0.1", msg)
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if f.Fields != msg || f.Status() != contact.StatusIdle {
		t.Errorf("form = %+v status %s", f.Fields, f.Status())
	}
	if calls != 1 {
		t.Errorf("sink calls = %d", calls)
	}
}

func TestSubmitContact_NoSink(t *testing.T) {
	svc := testService(t, nil)
	_, err := svc.SubmitContact(context.Background(), "x", contact.Message{Name: "a", Email: "a@b.co", Message: "m"})
	if !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("err = %v", err)
	}
}

type stubSearcher func(query string) []index.Result

func (f stubSearcher) Search(_ context.Context, query string, _ int) ([]index.Result, error) {
	return f(query), nil
}

func TestSearch(t *testing.T) {
	var got string
	svc := testService(t, nil, WithSearch(stubSearcher(func(q string) []index.Result {
		got = q
		return nil
	})))

	results, err := svc.Search(context.Background(), "  solidity  ", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != "solidity" {
		t.Errorf("query passed = %q, want trimmed", got)
	}
	if results == nil {
		t.Error("no hits should be an empty slice")
	}

	if _, err := svc.Search(context.Background(), " ", 5); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("blank query err = %v", err)
	}
	if _, err := svc.Search(context.Background(), strings.Repeat("x", 201), 5); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("long query err = %v", err)
	}
}

func TestSearch_LimitCountsCharacters(t *testing.T) {
	svc := testService(t, nil, WithSearch(stubSearcher(func(string) []index.Result { return nil })))

	// 200 characters, 600 bytes.
	if _, err := svc.Search(context.Background(), strings.Repeat("日", 200), 5); err != nil {
		t.Errorf("200-character query err = %v", err)
	}
	if _, err := svc.Search(context.Background(), strings.Repeat("日", 201), 5); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("201-character query err = %v", err)
	}
}

func TestSearch_Disabled(t *testing.T) {
	svc := testService(t, nil)
	if _, err := svc.Search(context.Background(), "go", 5); !errors.Is(err, apperr.ErrUnsupported) {
		t.Errorf("err = %v", err)
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/folio/internal/contact"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/store"
	"github.com/starford/folio/internal/testutil"
)

// testEnv builds a router over the default catalog with a SQLite sink.
// A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (*store.DB, http.Handler) {
	t.Helper()
	db := testutil.TestDB(t)
	svc := testutil.TestService(t, db)
	router := NewRouter(Deps{
		Service:  svc,
		Messages: db,
		Auth:     AuthConfig{Enabled: authToken != "", Token: authToken},
	})
	return db, router
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetProfile(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/profile", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ProfileResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Name == "" || len(resp.Links) == 0 {
		t.Errorf("profile = %+v", resp)
	}
}

func TestListProjects(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/projects", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var all ProjectListResponse
	json.NewDecoder(w.Body).Decode(&all)
	if all.Total != 3 || len(all.Projects) != 3 {
		t.Fatalf("total = %d", all.Total)
	}
	if all.Projects[0].Slug != "smart-agriculture-monitoring" {
		t.Errorf("catalog order lost: first = %s", all.Projects[0].Slug)
	}

	w = do(t, router, http.MethodGet, "/projects?featured=true", nil, nil)
	var featured ProjectListResponse
	json.NewDecoder(w.Body).Decode(&featured)
	if featured.Total != 2 {
		t.Errorf("featured total = %d, want 2", featured.Total)
	}

	w = do(t, router, http.MethodGet, "/projects?category=Blockchain", nil, nil)
	var chain ProjectListResponse
	json.NewDecoder(w.Body).Decode(&chain)
	if chain.Total != 1 || chain.Projects[0].Slug != "digital-gold-token" {
		t.Errorf("category filter = %+v", chain.Projects)
	}

	w = do(t, router, http.MethodGet, "/projects?featured=maybe", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad featured status = %d", w.Code)
	}
}

func TestGetProject(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/projects/digital-gold-token", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var d ProjectDetail
	if err := json.NewDecoder(w.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.Slug != "digital-gold-token" || len(d.Sections) == 0 || d.Sections[0].ID != "problem" {
		t.Errorf("detail = %s %+v", d.Slug, d.Sections)
	}

	w = do(t, router, http.MethodGet, "/projects/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", w.Code)
	}
}

func TestETag(t *testing.T) {
	_, router := testEnv(t, "")
	for _, path := range []string{"/profile", "/projects", "/skills", "/projects/digital-gold-token"} {
		w := do(t, router, http.MethodGet, path, nil, nil)
		etag := w.Header().Get("ETag")
		if etag == "" {
			t.Errorf("%s: no ETag", path)
			continue
		}
		w = do(t, router, http.MethodGet, path, nil, map[string]string{"If-None-Match": etag})
		if w.Code != http.StatusNotModified {
			t.Errorf("%s: conditional status = %d", path, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("%s: 304 with body", path)
		}
	}
}

func TestListSkills(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/skills", nil, nil)
	var resp SkillsResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Groups) != 7 || resp.Groups[0].Title != "Languages" {
		t.Errorf("skills = %+v", resp.Groups)
	}
}

func TestSearch(t *testing.T) {
	svc := testutil.TestService(t, nil, portfolio.WithSearch(testutil.TestIndex(t)))
	router := NewRouter(Deps{Service: svc})

	w := do(t, router, http.MethodGet, "/search?q=razorpay", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Total != 1 || resp.Results[0].Slug != "digital-gold-token" {
		t.Errorf("resp = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/search?q=zzzyx", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("no hits = %d %s", w.Code, w.Body.String())
	}

	for _, path := range []string{"/search", "/search?q=go&limit=abc"} {
		if w := do(t, router, http.MethodGet, path, nil, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}

func TestSearch_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search?q=go", nil, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSubmitContact(t *testing.T) {
	db, router := testEnv(t, "")
	body, _ := json.Marshal(map[string]string{"name": "Ada", "email": "ada@example.com", "message": "Hi"})
	w := do(t, router, http.MethodPost, "/contact", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp ContactResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.ID == "" || resp.Status != "success" || resp.ResetAfterMS <= 0 || resp.ResetAfterMS > 4000 {
		t.Errorf("resp = %+v", resp)
	}
	n, _ := db.CountMessages(context.Background())
	if n != 1 {
		t.Errorf("stored = %d", n)
	}
}

func TestSubmitContact_Invalid(t *testing.T) {
	_, router := testEnv(t, "")
	body, _ := json.Marshal(map[string]string{"name": "", "email": "nope", "message": "Hi"})
	w := do(t, router, http.MethodPost, "/contact", body, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	var resp errResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Fields["name"] == "" || resp.Fields["email"] == "" {
		t.Errorf("fields = %v", resp.Fields)
	}

	w = do(t, router, http.MethodPost, "/contact", []byte("{"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed status = %d", w.Code)
	}
}

func TestSubmitContact_SinkFailure(t *testing.T) {
	svc := testutil.TestService(t, contact.SinkFunc(func(context.Context, contact.Message) (contact.Receipt, error) {
		return contact.Receipt{}, errors.New("503 from upstream")
	}))
	router := NewRouter(Deps{Service: svc})
	body, _ := json.Marshal(map[string]string{"name": "Ada", "email": "ada@example.com", "message": "Hi"})
	w := do(t, router, http.MethodPost, "/contact", body, nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d", w.Code)
	}
}

func TestAdminMessages_TokenMode(t *testing.T) {
	_, router := testEnv(t, "secret")
	svcBody, _ := json.Marshal(map[string]string{"name": "Ada", "email": "ada@example.com", "message": "Hi"})
	if w := do(t, router, http.MethodPost, "/contact", svcBody, nil); w.Code != http.StatusCreated {
		t.Fatalf("contact status = %d", w.Code)
	}

	w := do(t, router, http.MethodGet, "/admin/messages", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/admin/messages", nil, map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/admin/messages", nil, map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp MessagesResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Total != 1 || len(resp.Messages) != 1 || resp.Messages[0].Email != "ada@example.com" {
		t.Errorf("messages = %+v", resp)
	}

	// Public routes stay open in token mode.
	if w := do(t, router, http.MethodGet, "/profile", nil, nil); w.Code != http.StatusOK {
		t.Errorf("profile status = %d", w.Code)
	}
}

func TestAdminMessages_DisabledModeNotMounted(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/admin/messages", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not found") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAuthMiddleware_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	mw := AuthMiddleware(AuthConfig{Enabled: true, TokenHash: string(hash)})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	if w := do(t, h, http.MethodGet, "/", nil, map[string]string{"Authorization": "Bearer s3cret"}); w.Code != http.StatusNoContent {
		t.Errorf("good token status = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/", nil, map[string]string{"Authorization": "Bearer other"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	router := NewRouter(Deps{Service: testutil.TestService(t, nil), AllowedOrigins: []string{"https://example.com"}})
	w := do(t, router, http.MethodGet, "/profile", nil, map[string]string{"Origin": "https://example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("allow origin = %q", got)
	}
	w = do(t, router, http.MethodGet, "/profile", nil, map[string]string{"Origin": "https://evil.test"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/chang-ngeno/probable-memory-nextjs/internal/config"
	"github.com/chang-ngeno/probable-memory-nextjs/internal/model"
)

// =========================================================================
// END-TO-END TESTS
// These exercise the whole stack — router, middleware, handlers, services,
// store — through real HTTP, the way a browser client would.
// =========================================================================

// newTestServer starts an httptest.Server over the memory backend with the
// demo users seeded and trusted login enabled.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Store.Seed = true
	cfg.Auth.TrustedLogin = true

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("building server: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON sends a JSON request with optional extra cookies and decodes the
// response into out (when out is non-nil).
func doJSON(t *testing.T, method, url, body string, cookies []*http.Cookie, out any) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != "" {
		reqBody = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, url, err)
		}
	}
	return resp
}

func TestEndToEnd_SignupLoginProfileFlow(t *testing.T) {
	ts := newTestServer(t)

	// 1. Create Alice through the API
	var alice model.User
	resp := doJSON(t, http.MethodPost, ts.URL+"/users",
		`{"name":"Alice","email":"alice@example.com","role":"user","password":"s3cret"}`, nil, &alice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}
	if alice.ID == "" {
		t.Fatal("create: no id assigned")
	}

	// 2. Wrong password → 401, no session
	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`, nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: status = %d, want 401", resp.StatusCode)
	}

	// 3. Correct login → 200 with the session cookie
	var loginResp struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/login",
		`{"email":"alice@example.com","password":"s3cret"}`, nil, &loginResp)
	if resp.StatusCode != http.StatusOK || !loginResp.OK {
		t.Fatalf("login: status = %d ok = %v, want 200 true", resp.StatusCode, loginResp.OK)
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session_user_id" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("login: no session cookie in response")
	}

	// 4. /auth/me with the cookie → Alice
	var identity model.Identity
	resp = doJSON(t, http.MethodGet, ts.URL+"/auth/me", "", []*http.Cookie{session}, &identity)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status = %d, want 200", resp.StatusCode)
	}
	if identity.ID == nil || *identity.ID != alice.ID {
		t.Fatalf("me: identity = %+v, want alice", identity)
	}

	// 5. Update her own profile
	var updated model.User
	resp = doJSON(t, http.MethodPatch, ts.URL+"/users/profile",
		`{"id":"`+alice.ID+`","name":"Alicia"}`, []*http.Cookie{session}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: status = %d, want 200", resp.StatusCode)
	}
	if updated.Name != "Alicia" {
		t.Errorf("profile: name = %q, want Alicia", updated.Name)
	}

	// 6. The change is visible on a plain GET
	var fetched model.User
	resp = doJSON(t, http.MethodGet, ts.URL+"/users/"+alice.ID, "", nil, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status = %d, want 200", resp.StatusCode)
	}
	if fetched.Name != "Alicia" {
		t.Errorf("get: name = %q, want Alicia", fetched.Name)
	}

	// 7. Sign out (empty body), then /auth/me is a guest again
	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/login", `{}`, []*http.Cookie{session}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status = %d, want 200", resp.StatusCode)
	}

	var guest model.Identity
	doJSON(t, http.MethodGet, ts.URL+"/auth/me", "", nil, &guest)
	if !guest.IsGuest() {
		t.Errorf("after logout: identity = %+v, want guest", guest)
	}
}

func TestEndToEnd_SeededDemoUsers(t *testing.T) {
	ts := newTestServer(t)

	// The demo admin signs in with the documented password
	var loginResp struct {
		OK bool `json:"ok"`
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login",
		`{"email":"demo@example.com","password":"password"}`, nil, &loginResp)
	if resp.StatusCode != http.StatusOK || !loginResp.OK {
		t.Fatalf("demo login: status = %d ok = %v", resp.StatusCode, loginResp.OK)
	}

	// Both seed users exist
	var users []model.User
	doJSON(t, http.MethodGet, ts.URL+"/users", "", nil, &users)
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want the 2 seeded demo users", len(users))
	}
}

func TestEndToEnd_TrustedLoginByRole(t *testing.T) {
	ts := newTestServer(t)

	var loginResp struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", `{"role":"admin"}`, nil, &loginResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !loginResp.OK || loginResp.ID == "" {
		t.Errorf("resp = %+v, want the seeded admin resolved without a password", loginResp)
	}
}

func TestEndToEnd_TrustedLoginDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Seed = true
	// trusted login left OFF

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("building server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	var loginResp struct {
		OK bool `json:"ok"`
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", `{"role":"admin"}`, nil, &loginResp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if loginResp.OK {
		t.Error("trusted login succeeded with the capability disabled")
	}
}

func TestEndToEnd_NavAndPolicy(t *testing.T) {
	ts := newTestServer(t)

	var items []struct {
		Name string `json:"name"`
		Href string `json:"href"`
	}
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/nav", "", nil, &items)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("nav: status = %d, want 200", resp.StatusCode)
	}
	if len(items) == 0 {
		t.Error("nav: empty item list")
	}

	var policy struct {
		InactivityTimeoutSeconds int `json:"inactivityTimeoutSeconds"`
		WarningLeadSeconds       int `json:"warningLeadSeconds"`
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/auth/policy", "", nil, &policy)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("policy: status = %d, want 200", resp.StatusCode)
	}
	if policy.InactivityTimeoutSeconds != 180 || policy.WarningLeadSeconds != 30 {
		t.Errorf("policy = %+v, want 180/30", policy)
	}
}

func TestEndToEnd_ProfileDoesNotClashWithIDRoute(t *testing.T) {
	ts := newTestServer(t)

	// GET /users/profile must hit the {id} route and 404 (no such user),
	// while PATCH /users/profile hits the profile handler and 400s on a
	// missing id — the two routes must not shadow each other.
	resp := doJSON(t, http.MethodGet, ts.URL+"/users/profile", "", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /users/profile: status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/users/profile", `{}`, nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PATCH /users/profile: status = %d, want 400", resp.StatusCode)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Seed = true

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("building server: %v", err)
	}

	// Seeding again against the same store must not duplicate or conflict
	if err := srv.seedDemoUsers(t.Context()); err != nil {
		t.Fatalf("second seed pass: %v", err)
	}

	users, err := srv.store.List(t.Context())
	if err != nil {
		t.Fatalf("listing users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("len(users) = %d after double seed, want 2", len(users))
	}
}

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

const fixtureData = `{"profile": {"validatedId": "cid-1", "firstName": "Dana", "email": "dana@example.com"},
"contacts": [{"email": "lee@example.com", "otherEmails": ["lee@work.example.com"], "displayName": "Lee"}]}`

func newTestApp(t *testing.T) (*app, *socialauth.Fixture) {
	t.Helper()
	fixture, err := socialauth.LoadFixture([]byte(fixtureData))
	if err != nil {
		t.Fatalf("LoadFixture error: %v", err)
	}
	cfg := appConfig{
		CallbackURL:   "http://localhost:8100/callback",
		SessionSecret: strings.Repeat("s", 32),
		Permission:    "all",
		HTTPTimeout:   time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := newApp(cfg, logger, func(s socialauth.Session) (socialauth.Provider, error) {
		return fixture.NewProvider(s), nil
	})
	if err != nil {
		t.Fatalf("newApp error: %v", err)
	}
	return application, fixture
}

// do sends a request through the app, replaying cookies from earlier calls.
func do(t *testing.T, h http.Handler, method, target string, body io.Reader, cookies []*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func sessionCookies(res *http.Response) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

func TestLoginFlow(t *testing.T) {
	application, fixture := newTestApp(t)
	h := application.routes()

	res := do(t, h, http.MethodGet, "/login", nil, nil)
	if res.StatusCode != http.StatusFound {
		t.Fatalf("login status %d", res.StatusCode)
	}
	cookies := sessionCookies(res)
	if len(cookies) != 1 {
		t.Fatalf("login did not set a session cookie")
	}
	loc, err := url.Parse(res.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/callback" {
		t.Fatalf("unexpected redirect %s", loc)
	}

	res = do(t, h, http.MethodGet, loc.RequestURI(), nil, cookies)
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		t.Fatalf("callback status %d: %s", res.StatusCode, body)
	}
	var callback struct {
		Provider string             `json:"provider"`
		Profile  socialauth.Profile `json:"profile"`
	}
	if err := json.NewDecoder(res.Body).Decode(&callback); err != nil {
		t.Fatalf("decode callback: %v", err)
	}
	if callback.Provider != "static" || callback.Profile.Email != "dana@example.com" {
		t.Fatalf("unexpected callback payload %+v", callback)
	}
	cookies = sessionCookies(res)

	res = do(t, h, http.MethodGet, "/contacts", nil, cookies)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("contacts status %d", res.StatusCode)
	}
	var contacts struct {
		ResultCount int                  `json:"resultCount"`
		Contacts    []socialauth.Contact `json:"contacts"`
	}
	if err := json.NewDecoder(res.Body).Decode(&contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if contacts.ResultCount != 1 || contacts.Contacts[0].OtherEmails[0] != "lee@work.example.com" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}

	res = do(t, h, http.MethodPost, "/status", strings.NewReader("message=hello+there"), cookies)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status update returned %d", res.StatusCode)
	}
	if got := fixture.Statuses(); len(got) != 1 || got[0] != "hello there" {
		t.Fatalf("unexpected statuses %v", got)
	}

	res = do(t, h, http.MethodPost, "/status", strings.NewReader("message=+++"), cookies)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank status returned %d", res.StatusCode)
	}

	res = do(t, h, http.MethodGet, "/logout", nil, cookies)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("logout status %d", res.StatusCode)
	}
	if len(sessionCookies(res)) != 0 {
		t.Fatalf("logout kept the session cookie")
	}

	res = do(t, h, http.MethodGet, "/profile", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("profile after logout returned %d", res.StatusCode)
	}
}

func TestCallbackWithoutLogin(t *testing.T) {
	application, _ := newTestApp(t)
	h := application.routes()

	res := do(t, h, http.MethodGet, "/callback?wrap_verification_code=static", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("callback without login returned %d", res.StatusCode)
	}
}

func TestCallbackUserDenied(t *testing.T) {
	application, _ := newTestApp(t)
	h := application.routes()

	res := do(t, h, http.MethodGet, "/login", nil, nil)
	cookies := sessionCookies(res)
	res = do(t, h, http.MethodGet, "/callback?wrap_error_reason=user_denied", nil, cookies)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("denied callback returned %d", res.StatusCode)
	}
}

func TestTamperedCookieStartsFresh(t *testing.T) {
	application, _ := newTestApp(t)
	h := application.routes()

	forged := &http.Cookie{Name: sessionCookieName, Value: "not-a-valid-cookie"}
	res := do(t, h, http.MethodGet, "/contacts", nil, []*http.Cookie{forged})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged cookie returned %d", res.StatusCode)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{socialauth.ErrPermissionDenied, http.StatusForbidden},
		{socialauth.ErrNotAuthenticated, http.StatusUnauthorized},
		{socialauth.ErrEmptyStatus, http.StatusBadRequest},
		{&socialauth.FetchError{Kind: socialauth.ErrContactFetch, StatusCode: 500}, http.StatusBadGateway},
		{socialauth.ErrConfiguration, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CONNECT_SESSION_SECRET", "short")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for short session secret")
	}

	t.Setenv("CONNECT_SESSION_SECRET", strings.Repeat("k", 40))
	t.Setenv("CONNECT_PERMISSION", "authenticate_only")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.ListenAddr != ":8100" || cfg.HTTPTimeout != 15*time.Second || cfg.Permission != "authenticate_only" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

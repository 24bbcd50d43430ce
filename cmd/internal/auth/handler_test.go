package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"folio/cmd/internal/docstore"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestAuthServer(t *testing.T) (*httptest.Server, *docstore.FileStore) {
	t.Helper()

	store := newTestStore(t)
	cfg := Config{
		SessionTTL:      time.Hour,
		MaxBodyBytes:    64 << 10,
		DefaultUsername: "admin",
		DefaultPassword: "123456",
	}
	creds := NewCredentialStore(store, testHasher(), cfg.DefaultUsername, cfg.DefaultPassword)
	sessions := NewSessionManager(store, cfg.SessionTTL)
	h := NewHandler(nil, cfg, creds, sessions, NewAttemptLog(store))

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, token, body string) (int, envelope) {
	t.Helper()

	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func login(t *testing.T, srv *httptest.Server, username, pass string) string {
	t.Helper()

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth?action=login", "",
		`{"username":"`+username+`","password":"`+pass+`"}`)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("login status=%d success=%v message=%q", status, env.Success, env.Message)
	}

	var data struct {
		Token     string `json:"token"`
		Username  string `json:"username"`
		ExpiresIn int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode login data: %v", err)
	}
	if data.Token == "" {
		t.Fatal("empty token")
	}
	if data.ExpiresIn != 3600 {
		t.Fatalf("expires_in = %d, want 3600", data.ExpiresIn)
	}
	return data.Token
}

func TestAuthLoginCheckLogoutFlow(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	tok := login(t, srv, "admin", "123456")

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/auth?action=check", tok, "")
	if status != http.StatusOK || !env.Success {
		t.Fatalf("check status=%d success=%v", status, env.Success)
	}
	var data struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode check data: %v", err)
	}
	if data.Username != "admin" {
		t.Fatalf("check username = %q", data.Username)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/api/auth?action=logout", tok, "")
	if status != http.StatusOK || !env.Success {
		t.Fatalf("logout status=%d success=%v", status, env.Success)
	}

	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/auth?action=check", tok, "")
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("check after logout status=%d success=%v", status, env.Success)
	}
}

func TestAuthLoginFailureIsGeneric(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "wrong password", body: `{"username":"admin","password":"nope-nope"}`},
		{name: "wrong username", body: `{"username":"root","password":"123456"}`},
	}

	var messages []string
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth?action=login", "", tc.body)
			if status != http.StatusUnauthorized || env.Success {
				t.Fatalf("status=%d success=%v", status, env.Success)
			}
			messages = append(messages, env.Message)
		})
	}
	if len(messages) == 2 && messages[0] != messages[1] {
		t.Fatalf("failure messages differ: %q vs %q", messages[0], messages[1])
	}
}

func TestAuthLoginRecordsAttempts(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/auth?action=login", "", `{"username":"admin","password":"nope-nope"}`)
	tok := login(t, srv, "admin", "123456")

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/auth?action=logs", tok, "")
	if status != http.StatusOK || !env.Success {
		t.Fatalf("logs status=%d success=%v", status, env.Success)
	}
	var data struct {
		Attempts []Attempt `json:"attempts"`
		Total    int       `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode logs data: %v", err)
	}
	if data.Total != 2 {
		t.Fatalf("total = %d, want 2", data.Total)
	}
	// Newest first: the successful login outranks the earlier failure.
	if !data.Attempts[0].Success || data.Attempts[1].Success {
		t.Fatalf("attempt order wrong: %+v", data.Attempts)
	}
}

func TestAuthLogsRequireSession(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/auth?action=logs", "", "")
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("status=%d success=%v", status, env.Success)
	}
}

func TestAuthUpdateRevokesOtherSessions(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	tok1 := login(t, srv, "admin", "123456")
	tok2 := login(t, srv, "admin", "123456")

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth?action=update", tok1,
		`{"currentPassword":"123456","newPassword":"stronger-now"}`)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("update status=%d success=%v message=%q", status, env.Success, env.Message)
	}

	// The updating session survives, every other one dies.
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/auth?action=check", tok1, "")
	if status != http.StatusOK {
		t.Fatalf("updating session invalid: status=%d", status)
	}
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/auth?action=check", tok2, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("other session survived: status=%d", status)
	}

	login(t, srv, "admin", "stronger-now")
}

func TestAuthUpdateWrongCurrentPassword(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	tok := login(t, srv, "admin", "123456")

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/auth?action=update", tok,
		`{"currentPassword":"nope-nope","newPassword":"stronger-now"}`)
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("update status=%d success=%v", status, env.Success)
	}

	// The credential is unchanged.
	login(t, srv, "admin", "123456")
}

func TestAuthBadRequests(t *testing.T) {
	srv, _ := newTestAuthServer(t)

	tests := []struct {
		name   string
		method string
		url    string
		body   string
		want   int
	}{
		{name: "unknown action", method: http.MethodGet, url: "/api/auth?action=destroy", want: http.StatusBadRequest},
		{name: "missing action", method: http.MethodGet, url: "/api/auth", want: http.StatusBadRequest},
		{name: "login via GET", method: http.MethodGet, url: "/api/auth?action=login", want: http.StatusMethodNotAllowed},
		{name: "check via POST", method: http.MethodPost, url: "/api/auth?action=check", want: http.StatusMethodNotAllowed},
		{name: "login bad body", method: http.MethodPost, url: "/api/auth?action=login", body: `{"username":`, want: http.StatusBadRequest},
		{name: "login empty fields", method: http.MethodPost, url: "/api/auth?action=login", body: `{"username":"","password":""}`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, env := doJSON(t, tc.method, srv.URL+tc.url, "", tc.body)
			if status != tc.want || env.Success {
				t.Fatalf("status=%d success=%v, want status=%d", status, env.Success, tc.want)
			}
		})
	}
}

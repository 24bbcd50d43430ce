package sitegate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"folio/cmd/internal/docstore"
	"folio/cmd/internal/webapi"
)

func newTestGateServer(t *testing.T) (*httptest.Server, *docstore.FileStore) {
	t.Helper()

	store, err := docstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	svc := NewService(store, stubVerifier{password: "123456"})
	h := NewHandler(nil, Config{
		DisableSecret: "gate-secret",
		CanonicalLink: "https://sponsor.example.com/landing",
	}, svc)

	mux := http.NewServeMux()
	h.Register(mux)

	// A stand-in content route behind the gate.
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, _ *http.Request) {
		webapi.WriteSuccess(w, "ok", nil)
	})

	srv := httptest.NewServer(h.Gate(mux))
	t.Cleanup(srv.Close)
	return srv, store
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestGateServer(t)

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Disabled bool `json:"disabled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Disabled {
		t.Fatal("fresh site reports disabled")
	}
}

func TestVerifyLinkEndpoint(t *testing.T) {
	srv, _ := newTestGateServer(t)

	tests := []struct {
		name string
		href string
		want bool
	}{
		{name: "canonical", href: "https://sponsor.example.com/landing/", want: true},
		{name: "tampered", href: "https://evil.example.com/", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/verify-link", `{"href":"`+tc.href+`"}`)
			var body struct {
				Valid bool `json:"valid"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Valid != tc.want {
				t.Fatalf("valid = %v, want %v", body.Valid, tc.want)
			}
		})
	}
}

func TestDisableEndpointAndGate(t *testing.T) {
	srv, _ := newTestGateServer(t)

	// Wrong secret is refused.
	resp := post(t, srv.URL+"/api/disable", `{"secret":"guess"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong secret status = %d, want 403", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/disable", `{"secret":"gate-secret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("disable status = %d", resp.StatusCode)
	}

	// The gate now refuses content traffic but status stays up.
	getResp, err := http.Get(srv.URL + "/api/data")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusGone {
		t.Fatalf("gated route status = %d, want 410", getResp.StatusCode)
	}

	statusResp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("Get status: %v", err)
	}
	defer statusResp.Body.Close()
	var body struct {
		Disabled bool `json:"disabled"`
	}
	if err := json.NewDecoder(statusResp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Disabled {
		t.Fatal("status does not report disabled")
	}
}

func TestNukeEndpoint(t *testing.T) {
	srv, store := newTestGateServer(t)

	ctx := t.Context()
	if err := store.Write(ctx, docstore.DocSiteData, []byte(`{"profile":{}}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := post(t, srv.URL+"/api/nuke", `{"password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/api/nuke", `{"password":"123456"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("nuke status = %d", resp.StatusCode)
	}

	if _, err := store.Read(ctx, docstore.DocSiteData); !docstore.IsNotFound(err) {
		t.Fatalf("site data survived: err = %v", err)
	}

	getResp, err := http.Get(srv.URL + "/api/data")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusGone {
		t.Fatalf("gated route status = %d, want 410", getResp.StatusCode)
	}
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"folio/cmd/internal/auth"
)

type stubGuard struct {
	token string
}

func (g stubGuard) Validate(_ context.Context, token string) (auth.Session, error) {
	if token != "" && token == g.token {
		return auth.Session{Username: "admin"}, nil
	}
	return auth.Session{}, auth.ErrUnauthenticated
}

func TestGatewayRejectsWithoutSession(t *testing.T) {
	hub := NewHub()
	g := NewGateway(nil, hub, stubGuard{token: "good"}, nil)

	mux := http.NewServeMux()
	g.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/ws/admin")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGatewayStreamsEvents(t *testing.T) {
	hub := NewHub()
	g := NewGateway(nil, hub, stubGuard{token: "good"}, nil)

	mux := http.NewServeMux()
	g.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, srv.URL+"/ws/admin?token=good", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// Wait for the subscription to land before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(Event{Type: "test.event"})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != "test.event" {
		t.Fatalf("type = %q", ev.Type)
	}
}

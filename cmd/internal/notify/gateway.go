package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"folio/cmd/internal/auth"
	"folio/cmd/internal/webapi"
)

const (
	writeTimeout      = 5 * time.Second
	heartbeatInterval = 30 * time.Second
	heartbeatTimeout  = 10 * time.Second
	maxPingFailures   = 3

	// Inbound frames are ignored; the limit only bounds abuse.
	maxFrameBytes = 4 << 10
)

// SessionGuard is the slice of the session manager the gateway needs.
type SessionGuard interface {
	Validate(ctx context.Context, token string) (auth.Session, error)
}

// Gateway upgrades authenticated admin connections and streams hub events
// to them. The stream is one-way: inbound frames are read only to detect
// the peer closing.
type Gateway struct {
	log   *slog.Logger
	hub   *Hub
	guard SessionGuard

	originPatterns []string
}

// NewGateway constructs the WebSocket gateway.
func NewGateway(log *slog.Logger, hub *Hub, guard SessionGuard, originPatterns []string) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{log: log, hub: hub, guard: guard, originPatterns: originPatterns}
}

// Register wires the gateway route onto the mux.
func (g *Gateway) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws/admin", g.ServeHTTP)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on WebSocket dials, so the token may also
	// arrive as a query parameter.
	tok := webapi.BearerToken(r)
	if tok == "" {
		tok = r.URL.Query().Get("token")
	}
	sess, err := g.guard.Validate(r.Context(), tok)
	if err != nil {
		webapi.WriteFailure(w, http.StatusUnauthorized, "not logged in or session expired")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Error("notify.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxFrameBytes)

	sub := g.hub.subscribe()
	defer g.hub.unsubscribe(sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	g.log.Info("notify.connect", "username", sess.Username, "remote", r.RemoteAddr)

	// Reader exists only to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-ticker.C:
			hbCtx, hbCancel := context.WithTimeout(ctx, heartbeatTimeout)
			err := conn.Ping(hbCtx)
			hbCancel()

			if err != nil {
				failures++
				if failures >= maxPingFailures {
					g.log.Info("notify.heartbeat.fail", "username", sess.Username)
					return
				}
				continue
			}
			failures = 0
		case ev := <-sub.ch:
			if err := writeEvent(ctx, conn, ev); err != nil {
				g.log.Info("notify.write.fail", "err", err)
				return
			}
		}
	}
}

func writeEvent(parent context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

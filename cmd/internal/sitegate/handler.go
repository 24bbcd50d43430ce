package sitegate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"folio/cmd/internal/webapi"
	"folio/cmd/security/token"
)

// Config holds the gate's deploy-time knobs.
type Config struct {
	// DisableSecret authorizes the disable endpoint. Empty disables the
	// endpoint entirely.
	DisableSecret string

	// CanonicalLink is the sponsored link the frontend must carry verbatim.
	CanonicalLink string

	MaxBodyBytes int64
}

// Handler serves the status, verify-link, disable and nuke endpoints.
type Handler struct {
	log *slog.Logger
	cfg Config
	svc *Service
}

// NewHandler constructs the gate endpoint handler.
func NewHandler(log *slog.Logger, cfg Config, svc *Service) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 16 << 10
	}
	return &Handler{log: log, cfg: cfg, svc: svc}
}

// Register wires the gate routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/verify-link", h.handleVerifyLink)
	mux.HandleFunc("/api/disable", h.handleDisable)
	mux.HandleFunc("/api/nuke", h.handleNuke)
}

// handleStatus returns the raw {"disabled": bool} shape the frontend polls
// before rendering anything.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]bool{
		"disabled": h.svc.Disabled(r.Context()),
	})
}

type verifyLinkRequest struct {
	Href string `json:"href"`
}

// handleVerifyLink answers only whether the presented link matches the
// canonical one; it never reveals the canonical value.
func (h *Handler) handleVerifyLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req verifyLinkRequest
	if err := webapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]bool{
		"valid": VerifyLink(req.Href, h.cfg.CanonicalLink),
	})
}

type disableRequest struct {
	Secret string `json:"secret"`
}

func (h *Handler) handleDisable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req disableRequest
	if err := webapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.cfg.DisableSecret == "" || !token.EqualConstantTime(req.Secret, h.cfg.DisableSecret) {
		webapi.WriteFailure(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.svc.Disable(r.Context()); err != nil {
		h.log.Error("sitegate.disable.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}

	h.log.Warn("sitegate.disabled")
	webapi.WriteSuccess(w, "ok", nil)
}

type nukeRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleNuke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req nukeRequest
	if err := webapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		webapi.WriteFailure(w, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.svc.Nuke(r.Context(), req.Password); err != nil {
		if errors.Is(err, ErrWrongPassword) {
			webapi.WriteFailure(w, http.StatusUnauthorized, "password incorrect")
			return
		}
		h.log.Error("sitegate.nuke.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}

	h.log.Warn("sitegate.nuked")
	webapi.WriteSuccess(w, "site has been shut down", nil)
}

// Gate refuses API traffic with 410 Gone while the tombstone exists. The
// status endpoint stays reachable so the frontend can tell visitors why,
// and non-API paths (health, metrics) are not gated.
func (h *Handler) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gated := strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != "/api/status"
		if gated && h.svc.Disabled(r.Context()) {
			webapi.WriteFailure(w, http.StatusGone, "site is no longer available")
			return
		}
		next.ServeHTTP(w, r)
	})
}

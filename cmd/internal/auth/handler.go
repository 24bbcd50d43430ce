package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"folio/cmd/internal/webapi"
)

// action is the enumerated command set of the auth endpoint. The query
// parameter is validated into this type at the boundary before dispatch.
type action string

const (
	actionLogin  action = "login"
	actionLogout action = "logout"
	actionCheck  action = "check"
	actionUpdate action = "update"
	actionLogs   action = "logs"
)

func parseAction(raw string) (action, bool) {
	switch a := action(strings.TrimSpace(raw)); a {
	case actionLogin, actionLogout, actionCheck, actionUpdate, actionLogs:
		return a, true
	default:
		return "", false
	}
}

// Handler wires the /api/auth endpoint to the credential store, session
// manager and attempt log.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	creds    *CredentialStore
	sessions *SessionManager
	attempts *AttemptLog
}

// NewHandler constructs the auth endpoint handler.
func NewHandler(log *slog.Logger, cfg Config, creds *CredentialStore, sessions *SessionManager, attempts *AttemptLog) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		creds:    creds,
		sessions: sessions,
		attempts: attempts,
	}
}

// Sessions exposes the session manager to sibling handlers that gate on a
// valid session.
func (h *Handler) Sessions() *SessionManager { return h.sessions }

// Register wires the auth route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth", h.handle)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	act, ok := parseAction(r.URL.Query().Get("action"))
	if !ok {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid action")
		return
	}

	switch act {
	case actionLogin:
		h.handleLogin(w, r)
	case actionLogout:
		h.handleLogout(w, r)
	case actionCheck:
		h.handleCheck(w, r)
	case actionUpdate:
		h.handleUpdate(w, r)
	case actionLogs:
		h.handleLogs(w, r)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := webapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		webapi.WriteFailure(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx := r.Context()
	ip := webapi.ClientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	cred, err := h.creds.Verify(ctx, username, req.Password)
	if err != nil {
		h.recordAttempt(r, username, false, ip, ua)
		webapi.WriteFailure(w, http.StatusUnauthorized, "username or password incorrect")
		return
	}

	tok, err := h.sessions.Issue(ctx, cred.Username, ip)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}
	h.recordAttempt(r, cred.Username, true, ip, ua)

	h.log.Info("auth.login.success", "username", cred.Username, "ip", ip)
	webapi.WriteSuccess(w, "login successful", loginData{
		Token:     tok,
		Username:  cred.Username,
		ExpiresIn: int64(h.sessions.TTL().Seconds()),
	})
}

func (h *Handler) recordAttempt(r *http.Request, username string, success bool, ip, ua string) {
	a := Attempt{
		Username:  username,
		Success:   success,
		IP:        ip,
		UserAgent: ua,
		Time:      h.sessions.now(),
	}
	if err := h.attempts.Append(r.Context(), a); err != nil {
		h.log.Error("auth.loginlog.append.fail", "err", err)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tok := webapi.BearerToken(r)
	if err := h.sessions.Revoke(r.Context(), tok); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}
	webapi.WriteSuccess(w, "logged out", nil)
}

type checkData struct {
	Username string `json:"username"`
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sess, err := h.sessions.Validate(r.Context(), webapi.BearerToken(r))
	if err != nil {
		webapi.WriteFailure(w, http.StatusUnauthorized, "not logged in or session expired")
		return
	}
	webapi.WriteSuccess(w, "session valid", checkData{Username: sess.Username})
}

type updateRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewUsername     string `json:"newUsername"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tok := webapi.BearerToken(r)
	if _, err := h.sessions.Validate(r.Context(), tok); err != nil {
		webapi.WriteFailure(w, http.StatusUnauthorized, "not logged in or session expired")
		return
	}

	var req updateRequest
	if err := webapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	cred, err := h.creds.Update(ctx, UpdateInput{
		CurrentPassword: req.CurrentPassword,
		NewUsername:     req.NewUsername,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			webapi.WriteFailure(w, http.StatusUnauthorized, "current password incorrect")
		case errors.Is(err, ErrInvalidInput):
			webapi.WriteFailure(w, http.StatusBadRequest, "provide the current password and a new username or password")
		default:
			h.log.Error("auth.update.fail", "err", err)
			webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		}
		return
	}

	// The credential changed; every other session dies with the old password.
	if err := h.sessions.RevokeOthers(ctx, tok); err != nil {
		h.log.Error("auth.update.revoke_others.fail", "err", err)
	}

	h.log.Info("auth.update.success", "username", cred.Username)
	webapi.WriteSuccess(w, "credentials updated", checkData{Username: cred.Username})
}

type logsData struct {
	Attempts []Attempt `json:"attempts"`
	Total    int       `json:"total"`
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if _, err := h.sessions.Validate(r.Context(), webapi.BearerToken(r)); err != nil {
		webapi.WriteFailure(w, http.StatusUnauthorized, "not logged in or session expired")
		return
	}

	attempts, err := h.attempts.Recent(r.Context(), MaxLoginAttempts)
	if err != nil {
		h.log.Error("auth.logs.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}
	webapi.WriteSuccess(w, "ok", logsData{Attempts: attempts, Total: len(attempts)})
}

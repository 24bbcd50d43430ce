package guestbook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"folio/cmd/internal/auth"
	"folio/cmd/internal/webapi"
)

// SessionGuard is the slice of the session manager the handler needs.
type SessionGuard interface {
	Validate(ctx context.Context, token string) (auth.Session, error)
}

type action string

const (
	actionSubmit action = "submit"
	actionList   action = "list"
	actionRead   action = "read"
	actionDelete action = "delete"
)

func parseAction(raw string) (action, bool) {
	switch a := action(strings.TrimSpace(raw)); a {
	case actionSubmit, actionList, actionRead, actionDelete:
		return a, true
	default:
		return "", false
	}
}

// Handler serves the /api/message endpoint.
type Handler struct {
	log          *slog.Logger
	svc          *Service
	guard        SessionGuard
	trustProxy   bool
	maxBodyBytes int64
}

// NewHandler constructs the message endpoint handler.
func NewHandler(log *slog.Logger, svc *Service, guard SessionGuard, trustProxy bool, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 10
	}
	return &Handler{log: log, svc: svc, guard: guard, trustProxy: trustProxy, maxBodyBytes: maxBodyBytes}
}

// Register wires the message route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/message", h.handle)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	act, ok := parseAction(r.URL.Query().Get("action"))
	if !ok {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid action")
		return
	}

	switch act {
	case actionSubmit:
		h.handleSubmit(w, r)
	case actionList:
		h.handleList(w, r)
	case actionRead:
		h.handleMarkRead(w, r)
	case actionDelete:
		h.handleDelete(w, r)
	}
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if _, err := h.guard.Validate(r.Context(), webapi.BearerToken(r)); err != nil {
		webapi.WriteFailure(w, http.StatusUnauthorized, "not logged in or session expired")
		return false
	}
	return true
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req submitRequest
	if err := webapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ip := webapi.ClientIP(r, h.trustProxy)
	msg, err := h.svc.Submit(r.Context(), SubmitInput{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
		IP:      ip,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			webapi.WriteFailure(w, http.StatusBadRequest, "name, email and message are required")
		case errors.Is(err, ErrInvalidEmail):
			webapi.WriteFailure(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, ErrTooLong):
			webapi.WriteFailure(w, http.StatusBadRequest, "message may not exceed 1000 characters")
		case errors.Is(err, ErrRateLimited):
			webapi.WriteFailure(w, http.StatusTooManyRequests, "too many requests, please try again later")
		default:
			h.log.Error("guestbook.submit.fail", "err", err)
			webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		}
		return
	}

	h.log.Info("guestbook.submit", "id", msg.ID, "ip", ip)
	webapi.WriteSuccess(w, "message received, thank you", map[string]string{"id": msg.ID})
}

type listData struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	Unread   int       `json:"unread"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	msgs, unread, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("guestbook.list.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	webapi.WriteSuccess(w, "ok", listData{Messages: msgs, Total: len(msgs), Unread: unread})
}

type idRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "guestbook.read", h.svc.MarkRead, "marked as read")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.handleByID(w, r, "guestbook.delete", h.svc.Delete, "message deleted")
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) error, okMsg string) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	var req idRequest
	if err := webapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := fn(r.Context(), req.ID); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			webapi.WriteFailure(w, http.StatusBadRequest, "message id is required")
		case errors.Is(err, ErrNotFound):
			webapi.WriteFailure(w, http.StatusNotFound, "message not found")
		default:
			h.log.Error(op+".fail", "id", req.ID, "err", err)
			webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		}
		return
	}

	h.log.Info(op, "id", req.ID)
	webapi.WriteSuccess(w, okMsg, nil)
}

package content

import (
	"context"
	"encoding/json"
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
	actionGet    action = "get"
	actionSave   action = "save"
	actionExport action = "export"
	actionImport action = "import"
	actionReset  action = "reset"
)

func parseAction(raw string) (action, bool) {
	switch a := action(strings.TrimSpace(raw)); a {
	case actionGet, actionSave, actionExport, actionImport, actionReset:
		return a, true
	default:
		return "", false
	}
}

// Handler serves the /api/data endpoint.
type Handler struct {
	log          *slog.Logger
	svc          *Service
	guard        SessionGuard
	maxBodyBytes int64
}

// NewHandler constructs the content endpoint handler.
func NewHandler(log *slog.Logger, svc *Service, guard SessionGuard, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20 // imports carry the whole site document
	}
	return &Handler{log: log, svc: svc, guard: guard, maxBodyBytes: maxBodyBytes}
}

// Register wires the content route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/data", h.handle)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	act, ok := parseAction(r.URL.Query().Get("action"))
	if !ok {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid action")
		return
	}

	switch act {
	case actionGet:
		h.handleGet(w, r)
	case actionSave:
		h.handleSave(w, r)
	case actionExport:
		h.handleExport(w, r)
	case actionImport:
		h.handleImport(w, r)
	case actionReset:
		h.handleReset(w, r)
	}
}

// requireSession validates the bearer token and writes the 401 itself on
// failure.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if _, err := h.guard.Validate(r.Context(), webapi.BearerToken(r)); err != nil {
		webapi.WriteFailure(w, http.StatusUnauthorized, "not logged in or session expired")
		return false
	}
	return true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	doc, err := h.svc.Get(r.Context())
	if err != nil {
		h.log.Error("content.get.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}
	webapi.WriteSuccess(w, "ok", doc)
}

type saveRequest struct {
	Section string          `json:"section"`
	Data    json.RawMessage `json:"data"`
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	var req saveRequest
	if err := webapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Section) == "" || len(req.Data) == 0 {
		webapi.WriteFailure(w, http.StatusBadRequest, "section and data are required")
		return
	}

	if err := h.svc.Save(r.Context(), req.Section, req.Data); err != nil {
		if errors.Is(err, ErrUnknownSection) {
			webapi.WriteFailure(w, http.StatusBadRequest, "section cannot be saved")
			return
		}
		h.log.Error("content.save.fail", "section", req.Section, "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}

	h.log.Info("content.save", "section", req.Section)
	webapi.WriteSuccess(w, "saved", nil)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	doc, err := h.svc.Export(r.Context())
	if err != nil {
		h.log.Error("content.export.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}
	webapi.WriteSuccess(w, "exported", doc)
}

type importRequest struct {
	Data json.RawMessage `json:"data"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	var req importRequest
	if err := webapi.DecodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		webapi.WriteFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.Import(r.Context(), req.Data); err != nil {
		if errors.Is(err, ErrInvalidImport) {
			webapi.WriteFailure(w, http.StatusBadRequest, "import data must be a JSON object")
			return
		}
		h.log.Error("content.import.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}

	h.log.Info("content.import")
	webapi.WriteSuccess(w, "imported", nil)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		webapi.WriteFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.requireSession(w, r) {
		return
	}

	if err := h.svc.Reset(r.Context()); err != nil {
		h.log.Error("content.reset.fail", "err", err)
		webapi.WriteFailure(w, http.StatusInternalServerError, "system error")
		return
	}

	h.log.Info("content.reset")
	webapi.WriteSuccess(w, "content reset to defaults", nil)
}

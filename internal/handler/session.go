package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/woutervb/boodschap/internal/model"
	"github.com/woutervb/boodschap/internal/session"
	"github.com/woutervb/boodschap/internal/websocket"
)

const sessionNotFound = "Sessie niet gevonden"

type SessionHandler struct {
	service *session.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewSessionHandler(service *session.Service, hub *websocket.Hub, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, hub: hub, logger: logger.With("component", "handler")}
}

func (h *SessionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// SessionResponse is a session with its snapshot stats attached.
type SessionResponse struct {
	model.ShoppingSession
	ItemCount    int `json:"item_count"`
	CheckedCount int `json:"checked_count"`
}

func (h *SessionHandler) withStats(w http.ResponseWriter, status int, sess *model.ShoppingSession) {
	stats, err := h.service.Stats(sess.ID)
	if err != nil {
		h.logger.Error("session stats failed", "session_id", sess.ID, "error", err)
		writeError(w, err, sessionNotFound)
		return
	}
	writeJSON(w, status, SessionResponse{
		ShoppingSession: *sess,
		ItemCount:       stats.ItemCount,
		CheckedCount:    stats.CheckedCount,
	})
}

type sessionStartRequest struct {
	Store *string `json:"store"`
}

// Start handles POST /api/sessions: snapshot the eligible items and open a
// new shopping session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	req := sessionStartRequest{}
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	var storeFilter *model.Store
	if req.Store != nil {
		st, ok := model.ParseStore(*req.Store)
		if !ok {
			writeErrorMsg(w, http.StatusBadRequest, "ongeldige winkel")
			return
		}
		storeFilter = &st
	}

	sess, err := h.service.Start(r.Context(), storeFilter)
	if err != nil {
		h.logger.Error("start session failed", "error", err)
		writeError(w, err, sessionNotFound)
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySession, "started", sess.ID, nil))
	h.withStats(w, http.StatusCreated, sess)
}

// List handles GET /api/sessions?limit=N.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeErrorMsg(w, http.StatusBadRequest, "ongeldige limit")
			return
		}
		limit = n
	}

	sessions, err := h.service.List(limit)
	if err != nil {
		h.logger.Error("list sessions failed", "error", err)
		writeError(w, err, sessionNotFound)
		return
	}

	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		stats, err := h.service.Stats(sessions[i].ID)
		if err != nil {
			writeError(w, err, sessionNotFound)
			return
		}
		out = append(out, SessionResponse{
			ShoppingSession: sessions[i],
			ItemCount:       stats.ItemCount,
			CheckedCount:    stats.CheckedCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err, sessionNotFound)
		return
	}
	h.withStats(w, http.StatusOK, sess)
}

// Items handles GET /api/sessions/{id}/items: the immutable snapshot rows.
func (h *SessionHandler) Items(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.service.Get(id); err != nil {
		writeError(w, err, sessionNotFound)
		return
	}
	items, err := h.service.Items(id)
	if err != nil {
		writeError(w, err, sessionNotFound)
		return
	}
	if items == nil {
		items = []model.SessionItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CheckItem handles POST /api/sessions/{id}/items/{item_id}/check.
func (h *SessionHandler) CheckItem(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	itemID := r.PathValue("item_id")

	if err := h.service.CheckItem(r.Context(), sessionID, itemID); err != nil {
		writeError(w, err, "Item niet gevonden in sessie")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySession, "item_checked", sessionID,
		map[string]any{"item_id": itemID}))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item afgevinkt"})
}

// Stats handles GET /api/sessions/{id}/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.PathValue("id"))
	if err != nil {
		writeError(w, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type sessionCloseRequest struct {
	ClosePolicy string `json:"close_policy" validate:"required,oneof=keep_open snooze_leftovers remove_leftovers"`
	SnoozeDays  int    `json:"snooze_days" validate:"omitempty,gte=1"`
}

// Close handles POST /api/sessions/{id}/close. Closing an already closed
// session returns it unchanged.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req sessionCloseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	policy, ok := model.ParseClosePolicy(req.ClosePolicy)
	if !ok {
		writeErrorMsg(w, http.StatusBadRequest, "ongeldige close_policy")
		return
	}
	snoozeDays := req.SnoozeDays
	if snoozeDays == 0 {
		snoozeDays = session.DefaultSnoozeDays
	}

	sess, err := h.service.Close(r.Context(), r.PathValue("id"), policy, snoozeDays)
	if err != nil {
		writeError(w, err, sessionNotFound)
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntitySession, "closed", sess.ID, nil))
	h.withStats(w, http.StatusOK, sess)
}

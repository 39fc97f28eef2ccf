package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/woutervb/boodschap/internal/catalog"
	"github.com/woutervb/boodschap/internal/model"
	"github.com/woutervb/boodschap/internal/websocket"
)

const itemNotFound = "Item niet gevonden"

type ItemHandler struct {
	engine *catalog.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewItemHandler(engine *catalog.Engine, hub *websocket.Hub, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{engine: engine, hub: hub, logger: logger.With("component", "handler")}
}

func (h *ItemHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type ingestRequest struct {
	Text           string  `json:"text" validate:"required"`
	Source         string  `json:"source"`
	CategoryID     string  `json:"category_id"`
	PreferredStore *string `json:"preferred_store"`
}

// Ingest handles POST /api/items: free text in, merged catalog items out.
func (h *ItemHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ireq := catalog.IngestRequest{
		Text:     req.Text,
		Source:   req.Source,
		Category: req.CategoryID,
	}
	if req.PreferredStore != nil {
		st, ok := model.ParseStore(*req.PreferredStore)
		if !ok {
			writeErrorMsg(w, http.StatusBadRequest, "ongeldige winkel")
			return
		}
		ireq.PreferredStore = &st
	}

	result, err := h.engine.Ingest(r.Context(), ireq)
	if err != nil {
		h.logger.Error("ingest failed", "error", err)
		writeError(w, err, itemNotFound)
		return
	}

	for _, added := range result.Items {
		action := "merged"
		if added.IsNew {
			action = "created"
		}
		h.broadcast(websocket.NewMessage(websocket.EntityItem, action, added.ID, nil))
	}

	writeJSON(w, http.StatusCreated, result)
}

// List handles GET /api/items with status, category_id and include_snoozed
// filters.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var status *model.ItemStatus
	if s := q.Get("status"); s != "" {
		st, ok := model.ParseItemStatus(s)
		if !ok {
			writeErrorMsg(w, http.StatusBadRequest, "ongeldige status")
			return
		}
		status = &st
	}

	includeSnoozed := q.Get("include_snoozed") == "true"

	items, err := h.engine.List(status, q.Get("category_id"), includeSnoozed)
	if err != nil {
		h.logger.Error("list items failed", "error", err)
		writeError(w, err, itemNotFound)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.engine.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err, itemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type itemUpdateRequest struct {
	Name           *string    `json:"name"`
	Qty            *float64   `json:"qty" validate:"omitempty,gte=0"`
	Unit           *string    `json:"unit"`
	Notes          *string    `json:"notes"`
	CategoryID     *string    `json:"category_id"`
	PreferredStore *string    `json:"preferred_store"`
	SnoozeUntil    *time.Time `json:"snooze_until"`
}

// Update handles PATCH /api/items/{id}. Absent fields are untouched.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req itemUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := catalog.Patch{
		NameRaw:     req.Name,
		Qty:         req.Qty,
		Unit:        req.Unit,
		Notes:       req.Notes,
		CategoryID:  req.CategoryID,
		SnoozeUntil: req.SnoozeUntil,
	}
	if req.PreferredStore != nil {
		st, ok := model.ParseStore(*req.PreferredStore)
		if !ok {
			writeErrorMsg(w, http.StatusBadRequest, "ongeldige winkel")
			return
		}
		patch.PreferredStore = &st
	}

	item, err := h.engine.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err, itemNotFound)
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityItem, "updated", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

// Check handles POST /api/items/{id}/check.
func (h *ItemHandler) Check(w http.ResponseWriter, r *http.Request) {
	item, err := h.engine.Check(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, itemNotFound)
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityItem, "checked", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

// Uncheck handles POST /api/items/{id}/uncheck.
func (h *ItemHandler) Uncheck(w http.ResponseWriter, r *http.Request) {
	item, err := h.engine.Uncheck(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, itemNotFound)
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityItem, "unchecked", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id} (soft delete).
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.engine.SoftDelete(r.Context(), id); err != nil {
		writeError(w, err, itemNotFound)
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityItem, "removed", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item verwijderd"})
}

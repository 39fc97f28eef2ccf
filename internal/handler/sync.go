package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/woutervb/boodschap/internal/appie"
	"github.com/woutervb/boodschap/internal/catalog"
)

type SyncHandler struct {
	engine *catalog.Engine
	client *appie.Client
	logger *slog.Logger
}

func NewSyncHandler(engine *catalog.Engine, client *appie.Client, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, client: client, logger: logger.With("component", "handler")}
}

type syncResponse struct {
	Synced   int                `json:"synced"`
	Failed   int                `json:"failed"`
	NotFound int                `json:"not_found"`
	Details  []appie.SyncResult `json:"details"`
}

func tally(results []appie.SyncResult) syncResponse {
	resp := syncResponse{Details: results}
	for _, r := range results {
		switch r.Status {
		case "ok":
			resp.Synced++
		case "not_found":
			resp.NotFound++
		default:
			resp.Failed++
		}
	}
	return resp
}

// SyncAH handles POST /api/sync/ah: push all open, unsnoozed items to the
// Albert Heijn shopping list.
func (h *SyncHandler) SyncAH(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.OpenItems()
	if err != nil {
		h.logger.Error("sync: load items failed", "error", err)
		writeError(w, err, itemNotFound)
		return
	}
	if len(items) == 0 {
		writeErrorMsg(w, http.StatusNotFound, "Geen items om te synchroniseren")
		return
	}

	results, err := h.client.SyncItems(r.Context(), items)
	if err != nil {
		if errors.Is(err, appie.ErrNotConfigured) {
			writeErrorMsg(w, http.StatusInternalServerError, "AH koppeling niet geconfigureerd")
			return
		}
		h.logger.Error("sync failed", "error", err)
		writeErrorMsg(w, http.StatusInternalServerError, "AH sync mislukt")
		return
	}

	writeJSON(w, http.StatusOK, tally(results))
}

// SyncAHSimple handles POST /api/sync/ah/simple: plaintext summary suitable
// for voice assistants.
func (h *SyncHandler) SyncAHSimple(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	items, err := h.engine.OpenItems()
	if err != nil {
		h.logger.Error("sync: load items failed", "error", err)
		fmt.Fprint(w, "AH sync mislukt.")
		return
	}
	if len(items) == 0 {
		fmt.Fprint(w, "Geen items om te synchroniseren.")
		return
	}

	results, err := h.client.SyncItems(r.Context(), items)
	if err != nil {
		if errors.Is(err, appie.ErrNotConfigured) {
			fmt.Fprint(w, "Fout: AH koppeling niet geconfigureerd.")
			return
		}
		fmt.Fprint(w, "AH sync mislukt.")
		return
	}

	resp := tally(results)
	var parts []string
	if resp.Synced > 0 {
		parts = append(parts, fmt.Sprintf("%d items toegevoegd aan Appie", resp.Synced))
	}
	if resp.NotFound > 0 {
		parts = append(parts, fmt.Sprintf("%d niet gevonden", resp.NotFound))
	}
	if resp.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d mislukt", resp.Failed))
	}
	fmt.Fprint(w, strings.Join(parts, ". ")+".")
}

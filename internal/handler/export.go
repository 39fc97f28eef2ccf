package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/woutervb/boodschap/internal/catalog"
	"github.com/woutervb/boodschap/internal/export"
	"github.com/woutervb/boodschap/internal/model"
)

type ExportHandler struct {
	engine *catalog.Engine
	logger *slog.Logger
	now    func() time.Time
}

func NewExportHandler(engine *catalog.Engine, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		engine: engine,
		logger: logger.With("component", "handler"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Export handles GET /api/export/{store}. Query parameters: format
// (plaintext, json), include_checked, include_snoozed, simple.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	storeParam := strings.ToUpper(r.PathValue("store"))
	q := r.URL.Query()

	// AH and JUMBO filter on store preference; anything else exports all.
	var storeFilter *model.Store
	label := "Boodschappen"
	if st, ok := model.ParseStore(storeParam); ok {
		storeFilter = &st
		label = storeParam
	}

	items, err := h.engine.ItemsForExport(storeFilter,
		q.Get("include_checked") == "true",
		q.Get("include_snoozed") == "true")
	if err != nil {
		h.logger.Error("export failed", "store", storeParam, "error", err)
		writeError(w, err, itemNotFound)
		return
	}

	categories, err := h.engine.Categories()
	if err != nil {
		writeError(w, err, itemNotFound)
		return
	}

	if q.Get("format") == "json" {
		writeJSON(w, http.StatusOK, export.JSON(items, categories, storeParam, h.now()))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if q.Get("simple") == "true" {
		w.Write([]byte(export.Simple(items)))
		return
	}
	w.Write([]byte(export.Plaintext(items, categories, label)))
}

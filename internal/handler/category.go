package handler

import (
	"log/slog"
	"net/http"

	"github.com/woutervb/boodschap/internal/catalog"
	"github.com/woutervb/boodschap/internal/model"
)

type CategoryHandler struct {
	engine *catalog.Engine
	logger *slog.Logger
}

func NewCategoryHandler(engine *catalog.Engine, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{engine: engine, logger: logger.With("component", "handler")}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.engine.Categories()
	if err != nil {
		h.logger.Error("list categories failed", "error", err)
		writeError(w, err, "Categorie niet gevonden")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

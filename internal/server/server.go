// Package server wires the stores, services and handlers into one HTTP
// route table.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/woutervb/boodschap/internal/appie"
	"github.com/woutervb/boodschap/internal/catalog"
	"github.com/woutervb/boodschap/internal/handler"
	"github.com/woutervb/boodschap/internal/metrics"
	"github.com/woutervb/boodschap/internal/middleware"
	"github.com/woutervb/boodschap/internal/session"
	ws "github.com/woutervb/boodschap/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	itemH       *handler.ItemHandler
	categoryH   *handler.CategoryHandler
	sessionH    *handler.SessionHandler
	exportH     *handler.ExportHandler
	syncH       *handler.SyncHandler
	rateLimiter *middleware.RateLimiter
	corsOrigins []string
	logger      *slog.Logger
}

func New(db *sql.DB, ahClient *appie.Client, corsOrigins []string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	engine := catalog.NewEngine(db, logger)
	sessionSvc := session.NewService(db, logger)

	return &Server{
		db:          db,
		hub:         hub,
		itemH:       handler.NewItemHandler(engine, hub, logger),
		categoryH:   handler.NewCategoryHandler(engine, logger),
		sessionH:    handler.NewSessionHandler(sessionSvc, hub, logger),
		exportH:     handler.NewExportHandler(engine, logger),
		syncH:       handler.NewSyncHandler(engine, ahClient, logger),
		rateLimiter: middleware.NewRateLimiter(),
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

// Hub exposes the websocket hub for broadcasting outside the request path.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Catalog
	mux.HandleFunc("POST /api/items", s.rateLimited(s.itemH.Ingest, 30))
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PATCH /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("POST /api/items/{id}/check", s.itemH.Check)
	mux.HandleFunc("POST /api/items/{id}/uncheck", s.itemH.Uncheck)

	mux.HandleFunc("GET /api/categories", s.categoryH.List)

	// Shopping sessions
	mux.HandleFunc("POST /api/sessions", s.sessionH.Start)
	mux.HandleFunc("GET /api/sessions", s.sessionH.List)
	mux.HandleFunc("GET /api/sessions/{id}", s.sessionH.Get)
	mux.HandleFunc("GET /api/sessions/{id}/items", s.sessionH.Items)
	mux.HandleFunc("GET /api/sessions/{id}/stats", s.sessionH.Stats)
	mux.HandleFunc("POST /api/sessions/{id}/close", s.sessionH.Close)
	mux.HandleFunc("POST /api/sessions/{id}/items/{item_id}/check", s.sessionH.CheckItem)

	// Export + AH sync
	mux.HandleFunc("GET /api/export/{store}", s.exportH.Export)
	mux.HandleFunc("POST /api/sync/ah", s.rateLimited(s.syncH.SyncAH, 5))
	mux.HandleFunc("POST /api/sync/ah/simple", s.rateLimited(s.syncH.SyncAHSimple, 5))

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	var h http.Handler = mux
	h = middleware.CORS(s.corsOrigins)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc, perMinute int) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, perMinute, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

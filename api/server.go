// Package api provides the HTTP server for the pynvestor dashboard.
//
// It serves the dashboard page and the chart detail page, accepts screener
// submissions and chart point clicks from the browser, exposes the chart
// parameter builders as JSON endpoints, and streams mount updates over a
// WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/chart"
	"github.com/seenimoa/pynvestor/internal/config"
	"github.com/seenimoa/pynvestor/internal/controller"
	"github.com/seenimoa/pynvestor/internal/grid"
	"github.com/seenimoa/pynvestor/internal/view"
	"github.com/seenimoa/pynvestor/web"
)

// Version is reported by /health.
var Version = "dev"

// Server is the dashboard HTTP server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	log       zerolog.Logger
	bind      view.Bindings
	page      *view.Page
	client    *backend.Client
	charts    *chart.HTMLEngine
	loader    *chart.Loader
	screener  *controller.ScreenerController
	optimizer *controller.OptimizerController
	wsHub     *WSHub
	started   time.Time
}

// NewServer wires the dashboard page, engines, controllers and backend client.
func NewServer(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	bind := bindingsFrom(cfg)
	markup, err := web.Dashboard(web.DefaultDashboard(bind))
	if err != nil {
		return nil, err
	}
	page, err := view.NewPageFromHTML(markup)
	if err != nil {
		return nil, err
	}
	if err := bind.Check(page); err != nil {
		return nil, fmt.Errorf("dashboard bindings: %w", err)
	}

	client := backend.New(backend.Options{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout(),
		CacheTTL:  cfg.Backend.CacheTTL(),
		UserAgent: cfg.Backend.UserAgent,
		APIToken:  cfg.Backend.APIToken,
	}, log)

	grids := grid.NewRenderer(grid.NewEngine(page, log), cfg.UI.ChartPath)
	charts := chart.NewHTMLEngine(page, log)
	ctrlOpts := []controller.Option{
		controller.WithTimeout(cfg.Backend.Timeout()),
		controller.WithLogger(log),
	}

	s := &Server{
		cfg:       cfg,
		log:       log.With().Str("component", "api").Logger(),
		bind:      bind,
		page:      page,
		client:    client,
		charts:    charts,
		loader:    chart.NewLoader(charts),
		screener:  controller.NewScreener(client, page, grids, bind, ctrlOpts...),
		optimizer: controller.NewOptimizer(client, page, grids, bind, ctrlOpts...),
		wsHub:     NewWSHub(log),
		started:   time.Now(),
	}
	page.Subscribe(func(u view.Update) {
		s.wsHub.Broadcast(WSMessage{Type: "mount", Data: u})
	})

	s.router = s.buildRouter()
	return s, nil
}

func bindingsFrom(cfg *config.Config) view.Bindings {
	b := cfg.UI.Bindings
	return view.Bindings{
		ScreenerForm:   b.ScreenerForm,
		ScreenerResult: b.ScreenerResult,
		ResultBlock:    b.ResultBlock,
		WeightsData:    b.WeightsData,
		WeightsDisplay: b.WeightsDisplay,
		OptimizerChart: b.OptimizerChart,
	}
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Page returns the live dashboard document.
func (s *Server) Page() *view.Page {
	return s.page
}

// ListenAndServe runs the HTTP server and the WebSocket hub until ctx is done
// or the process receives SIGINT/SIGTERM, then shuts both down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.wsHub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.log.Info().Str("addr", addr).Msg("dashboard listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		s.screener.Drain()
		s.optimizer.Drain()
		return err
	})
	return g.Wait()
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	// Pages
	r.Get("/", s.handleDashboard)
	r.Get(s.chartPath(), s.handleChartPage)

	// Browser actions
	r.Route("/ui", func(r chi.Router) {
		r.Post("/screener", s.handleScreenerSubmit)
		r.Post("/charts/{mountID}/click", s.handlePointClick)
		r.Get("/mounts", s.handleMounts)
		r.Get("/mounts/{mountID}", s.handleMount)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/health", s.handleHealth)

		// Charts
		r.Post("/charts/{kind}/{mountID}", s.handleLoadChart)
		r.Post("/params/{kind}", s.handleChartParams)

		// Backend cache
		r.Delete("/cache", s.handleFlushCache)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	return r
}

func (s *Server) chartPath() string {
	if s.cfg.UI.ChartPath == "" {
		return "/chart"
	}
	return s.cfg.UI.ChartPath
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TicketResponse acknowledges an accepted asynchronous action.
type TicketResponse struct {
	Token uint64 `json:"token"`
}

// PointClickRequest is the body for POST /ui/charts/{mountID}/click.
type PointClickRequest struct {
	Series int `json:"series"`
	Point  int `json:"point"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":     "ok",
			"version":    Version,
			"uptime":     time.Since(s.started).Round(time.Second).String(),
			"ws_clients": s.wsHub.ClientCount(),
			"screener":   s.screener.State().String(),
			"optimizer":  s.optimizer.State().String(),
		},
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	markup, err := s.page.HTML()
	if err != nil {
		s.log.Error().Err(err).Msg("render dashboard")
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, markup)
}

func (s *Server) handleScreenerSubmit(w http.ResponseWriter, r *http.Request) {
	var form view.ScreenerForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := s.screener.Submit(r.Context(), form)
	if err != nil {
		var verr *controller.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, APIResponse{Success: true, Data: TicketResponse{Token: ticket.Token}})
}

func (s *Server) handlePointClick(w http.ResponseWriter, r *http.Request) {
	mountID := chi.URLParam(r, "mountID")

	var req PointClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.charts.Click(r.Context(), mountID, req.Series, req.Point)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, APIResponse{Success: true})
	case errors.Is(err, chart.ErrNotMounted):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// handleMounts returns the state of every bound mount. The browser calls it
// after each WebSocket (re)connect to catch up on updates it missed.
func (s *Server) handleMounts(w http.ResponseWriter, r *http.Request) {
	ids := s.bind.IDs()
	states := make([]view.Update, 0, len(ids))
	for _, id := range ids {
		st, err := s.page.State(id)
		if err != nil {
			s.log.Warn().Err(err).Str("mount", id).Msg("mount snapshot")
			continue
		}
		states = append(states, st)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: states})
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	state, err := s.page.State(chi.URLParam(r, "mountID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: state})
}

func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	s.client.FlushCache()
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func writeHTML(w http.ResponseWriter, status int, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(markup))
}

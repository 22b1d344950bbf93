package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"minetrack/internal/aggregate"
	"minetrack/internal/session"
	"minetrack/internal/telemetry"
)

// Dashboard is the read side of the ingestor plus the visibility toggles.
type Dashboard interface {
	Summary() session.Summary
	Ranking() []aggregate.Ranked
	Entities() []session.EntityView
	VisibleSeries() map[string][]telemetry.Sample
	Series(id string) ([]telemetry.Sample, bool, bool)
	SeriesControls() []session.SeriesControl
	Health() (aggregate.Health, bool)
	SetVisibility(id string, visible bool) bool
	SetAllVisibility(visible bool)
}

type Server struct {
	dash Dashboard
	tpl  *template.Template
	mux  *http.ServeMux
	log  *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

func NewServer(dash Dashboard, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{dash: dash, tpl: tpl, mux: http.NewServeMux(), log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/ranking", s.handleRanking)
	s.mux.HandleFunc("GET /api/entities", s.handleEntities)
	s.mux.HandleFunc("GET /api/series", s.handleSeries)
	s.mux.HandleFunc("GET /api/series/{id}", s.handleSeriesByID)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/visibility", s.handleVisibility)
	s.mux.HandleFunc("POST /api/visibility/all", s.handleVisibilityAll)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("admin server listening", "addr", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response", "err", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Summary  session.Summary
		Entities []session.EntityView
		Controls []session.SeriesControl
	}{
		Summary:  s.dash.Summary(),
		Entities: s.dash.Entities(),
		Controls: s.dash.SeriesControls(),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.dash.Summary())
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.dash.Ranking())
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.dash.Entities())
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.dash.VisibleSeries())
}

func (s *Server) handleSeriesByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	samples, visible, ok := s.dash.Series(id)
	if !ok {
		http.Error(w, "unknown series", http.StatusNotFound)
		return
	}
	if samples == nil {
		samples = []telemetry.Sample{}
	}
	s.writeJSON(w, struct {
		ID      string             `json:"id"`
		Visible bool               `json:"visible"`
		Samples []telemetry.Sample `json:"samples"`
	}{id, visible, samples})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, ok := s.dash.Health()
	if !ok {
		h = aggregate.Health{Level: aggregate.LevelUnknown}
	}
	s.writeJSON(w, struct {
		Available bool `json:"available"`
		aggregate.Health
	}{ok, h})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	visible, err := strconv.ParseBool(r.URL.Query().Get("visible"))
	if err != nil {
		http.Error(w, "visible must be true or false", http.StatusBadRequest)
		return
	}
	changed := s.dash.SetVisibility(id, visible)
	s.writeJSON(w, map[string]any{"id": id, "visible": visible, "changed": changed})
}

func (s *Server) handleVisibilityAll(w http.ResponseWriter, r *http.Request) {
	visible, err := strconv.ParseBool(r.URL.Query().Get("visible"))
	if err != nil {
		http.Error(w, "visible must be true or false", http.StatusBadRequest)
		return
	}
	s.dash.SetAllVisibility(visible)
	w.WriteHeader(http.StatusNoContent)
}
